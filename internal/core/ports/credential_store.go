package ports

import (
	"context"

	"github.com/99minutos/notes-service/internal/core/domain"
)

// CredentialStore persists user records with a uniqueness constraint on email.
type CredentialStore interface {
	// Create inserts the user and returns it with its assigned ID.
	// Returns domain.ErrUserExists when the email is already taken.
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	// FindByEmail returns domain.ErrUserNotFound when no user has the email.
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	// FindByIDs returns the users that exist among ids, in ascending id order.
	FindByIDs(ctx context.Context, ids []int64) ([]domain.User, error)
}
