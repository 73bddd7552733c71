package ports

import (
	"context"

	"github.com/bactolab/lims/internal/core/domain"
)

// IdentityProvider resolves the caller of the current request. It returns
// domain.ErrUnauthenticated when there is no valid session.
type IdentityProvider interface {
	Identity(ctx context.Context) (domain.Identity, error)
}
