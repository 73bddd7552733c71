package ports

import (
	"context"

	"github.com/bactolab/lims/internal/core/domain"
)

// UserRepository is the credential store behind login and registration.
type UserRepository interface {
	// FindByEmail returns domain.ErrUserNotFound when no account matches.
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	// Create returns domain.ErrUserExists on a duplicate email.
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
}
