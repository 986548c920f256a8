package ports

import (
	"context"

	"github.com/99minutos/notes-service/internal/core/domain"
)

// IdentityResolver maps a bearer token back to the user it was issued for.
type IdentityResolver interface {
	ResolveIdentity(ctx context.Context, token string) (*domain.User, error)
}

type AuthService interface {
	IdentityResolver
	Register(ctx context.Context, email, password, name string) (*domain.User, error)
	ValidateCredentials(ctx context.Context, email, password string) (*domain.User, error)
	IssueToken(ctx context.Context, user *domain.User) (string, error)
	Login(ctx context.Context, email, password string) (string, *domain.User, error)
}
