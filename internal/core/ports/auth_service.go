package ports

import (
	"context"

	"github.com/bactolab/lims/internal/core/domain"
)

// LoginInput is the DTO passed from the transport layer to AuthService.Login.
type LoginInput struct {
	Email    string
	Password string
	ClientIP string
}

// RegisterInput carries a new account created by an administrator.
type RegisterInput struct {
	Email    string
	Name     string
	Password string
	Role     string
	ClientIP string
	Actor    domain.Identity
}

type AuthService interface {
	Login(ctx context.Context, in LoginInput) (string, *domain.User, error)
	Register(ctx context.Context, in RegisterInput) (*domain.User, error)
	GetUser(ctx context.Context, id string) (*domain.User, error)
}
