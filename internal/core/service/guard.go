package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/bactolab/lims/internal/core/domain"
	"github.com/bactolab/lims/internal/core/permission"
	"github.com/bactolab/lims/internal/core/ports"
)

// ContextIdentities resolves the identity stored in the request context by
// the session middleware.
type ContextIdentities struct{}

func (ContextIdentities) Identity(ctx context.Context) (domain.Identity, error) {
	id, ok := domain.IdentityFromContext(ctx)
	if !ok {
		return domain.Identity{}, domain.ErrUnauthenticated
	}
	return id, nil
}

// Guard decides whether the caller of a request may perform an action.
type Guard struct {
	identities ports.IdentityProvider
	matrix     *permission.Matrix
	log        zerolog.Logger
}

// NewGuard uses ContextIdentities and the default matrix when given nil.
func NewGuard(identities ports.IdentityProvider, matrix *permission.Matrix, log zerolog.Logger) *Guard {
	if identities == nil {
		identities = ContextIdentities{}
	}
	if matrix == nil {
		matrix = permission.Default()
	}
	return &Guard{identities: identities, matrix: matrix, log: log}
}

// Authenticate resolves the caller without checking any permission.
// Resolution failures other than a missing session are reported as
// ErrUnauthenticated as well, never as success.
func (g *Guard) Authenticate(ctx context.Context) (domain.Identity, error) {
	id, err := g.identities.Identity(ctx)
	if err != nil {
		if !errors.Is(err, domain.ErrUnauthenticated) {
			g.log.Warn().Err(err).Msg("identity resolution failed")
		}
		return domain.Identity{}, domain.ErrUnauthenticated
	}
	if id.UserID == "" || !id.Role.Valid() {
		return domain.Identity{}, domain.ErrUnauthenticated
	}
	return id, nil
}

// CheckPermission returns ErrUnauthenticated without a session, a
// *domain.ForbiddenError when the role lacks (resource, action), and the
// caller's identity otherwise.
func (g *Guard) CheckPermission(ctx context.Context, resource domain.Resource, action domain.Action) (domain.Identity, error) {
	id, err := g.Authenticate(ctx)
	if err != nil {
		return domain.Identity{}, err
	}
	if !g.matrix.HasPermission(id.Role, resource, action) {
		return id, &domain.ForbiddenError{Role: id.Role, Resource: resource, Action: action}
	}
	return id, nil
}

// Matrix exposes the matrix the guard evaluates against.
func (g *Guard) Matrix() *permission.Matrix { return g.matrix }
