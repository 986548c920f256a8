package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/99minutos/notes-service/internal/core/domain"
	"github.com/99minutos/notes-service/internal/core/ports"
)

// DefaultBcryptCost matches the cost the service has always hashed with.
const DefaultBcryptCost = 10

// maxPasswordBytes is the longest input bcrypt accepts.
const maxPasswordBytes = 72

// AuthService implements registration, credential checks and token identity.
type AuthService struct {
	store      ports.CredentialStore
	signer     ports.TokenSigner
	bcryptCost int
	log        zerolog.Logger
}

func NewAuthService(store ports.CredentialStore, signer ports.TokenSigner, bcryptCost int, log zerolog.Logger) *AuthService {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = DefaultBcryptCost
	}
	return &AuthService{store: store, signer: signer, bcryptCost: bcryptCost, log: log}
}

// Register stores a new user with a bcrypt-hashed password and returns its projection.
func (s *AuthService) Register(ctx context.Context, email, password, name string) (*domain.User, error) {
	email = normalizeEmail(email)
	if len(password) > maxPasswordBytes {
		return nil, passwordTooLong()
	}

	_, err := s.store.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, domain.ErrUserExists
	case !errors.Is(err, domain.ErrUserNotFound):
		return nil, domain.Internal("auth.register", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, passwordTooLong()
		}
		return nil, domain.Internal("auth.register", err)
	}

	created, err := s.store.Create(ctx, &domain.User{
		Email:        email,
		PasswordHash: string(hash),
		Name:         name,
	})
	if err != nil {
		// A concurrent registration can still lose the race on the unique index.
		return nil, domain.Internal("auth.register", err)
	}

	s.log.Info().Int64("user_id", created.ID).Msg("user registered")
	return created.Projection(), nil
}

// ValidateCredentials returns the user when password matches the stored hash.
func (s *AuthService) ValidateCredentials(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := s.store.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, domain.Internal("auth.validate_credentials", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, domain.ErrInvalidCredentials
	}
	return user.Projection(), nil
}

// IssueToken signs a token binding the user's email and id.
func (s *AuthService) IssueToken(_ context.Context, user *domain.User) (string, error) {
	token, err := s.signer.Sign(ports.TokenClaims{Email: user.Email, UserID: user.ID})
	if err != nil {
		return "", domain.Internal("auth.issue_token", err)
	}
	return token, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	user, err := s.ValidateCredentials(ctx, email, password)
	if err != nil {
		return "", nil, err
	}

	token, err := s.IssueToken(ctx, user)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// ResolveIdentity verifies token and loads the user it names. A token whose user
// no longer exists, or now belongs to a different id, is rejected.
func (s *AuthService) ResolveIdentity(ctx context.Context, token string) (*domain.User, error) {
	claims, err := s.signer.Verify(token)
	if err != nil {
		return nil, domain.ErrInvalidToken
	}

	user, err := s.store.FindByEmail(ctx, claims.Email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidToken
		}
		return nil, domain.Internal("auth.resolve_identity", err)
	}
	if claims.UserID != 0 && claims.UserID != user.ID {
		return nil, domain.ErrInvalidToken
	}
	return user.Projection(), nil
}

func passwordTooLong() error {
	return domain.NewValidationError(map[string]string{
		"password": fmt.Sprintf("password must be at most %d bytes", maxPasswordBytes),
	})
}

func normalizeEmail(email string) string {
	return strings.TrimSpace(email)
}
