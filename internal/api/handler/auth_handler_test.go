package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/notes-service/internal/core/domain"
)

type stubAuthService struct {
	registerFn func(ctx context.Context, email, password, name string) (*domain.User, error)
	loginFn    func(ctx context.Context, email, password string) (string, *domain.User, error)
	resolveFn  func(ctx context.Context, token string) (*domain.User, error)
}

func (s *stubAuthService) Register(ctx context.Context, email, password, name string) (*domain.User, error) {
	return s.registerFn(ctx, email, password, name)
}

func (s *stubAuthService) ValidateCredentials(ctx context.Context, email, password string) (*domain.User, error) {
	_, u, err := s.loginFn(ctx, email, password)
	return u, err
}

func (s *stubAuthService) IssueToken(context.Context, *domain.User) (string, error) {
	return "", errors.New("not implemented")
}

func (s *stubAuthService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	return s.loginFn(ctx, email, password)
}

func (s *stubAuthService) ResolveIdentity(ctx context.Context, token string) (*domain.User, error) {
	return s.resolveFn(ctx, token)
}

func newJSONContext(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestAuthHandler_Register_Success(t *testing.T) {
	stub := &stubAuthService{
		registerFn: func(_ context.Context, email, password, name string) (*domain.User, error) {
			if email != "alice@example.com" || password != "secret" || name != "Alice" {
				t.Fatalf("unexpected args: %s %s %s", email, password, name)
			}
			return &domain.User{ID: 1, Email: email, Name: name}, nil
		},
	}
	handler := NewAuthHandler(stub)

	c, rec := newJSONContext(http.MethodPost, "/auth/register", `{"email":"alice@example.com","password":"secret","name":"Alice"}`)
	if err := handler.Register(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["email"] != "alice@example.com" || resp["name"] != "Alice" || resp["id"] != float64(1) {
		t.Fatalf("unexpected user payload: %+v", resp)
	}
	if _, leaked := resp["password"]; leaked {
		t.Fatalf("password leaked in response")
	}
	if _, leaked := resp["passwordHash"]; leaked {
		t.Fatalf("password hash leaked in response")
	}
}

func TestAuthHandler_Register_UserExists(t *testing.T) {
	stub := &stubAuthService{
		registerFn: func(context.Context, string, string, string) (*domain.User, error) {
			return nil, domain.ErrUserExists
		},
	}
	handler := NewAuthHandler(stub)

	c, _ := newJSONContext(http.MethodPost, "/auth/register", `{"email":"bob@example.com","password":"x","name":"Bob"}`)
	err := handler.Register(c)
	if !errors.Is(err, domain.ErrUserExists) || !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

func TestAuthHandler_Register_Validation(t *testing.T) {
	stub := &stubAuthService{
		registerFn: func(context.Context, string, string, string) (*domain.User, error) {
			t.Fatalf("service must not be called")
			return nil, nil
		},
	}
	handler := NewAuthHandler(stub)

	c, _ := newJSONContext(http.MethodPost, "/auth/register", `{"email":"not-an-email","password":""}`)
	err := handler.Register(c)

	var ve *domain.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected validation error, got %v", err)
	}
	for _, field := range []string{"email", "password", "name"} {
		if _, ok := ve.Fields[field]; !ok {
			t.Fatalf("expected %q in fields, got %+v", field, ve.Fields)
		}
	}
}

func TestAuthHandler_Register_MalformedBody(t *testing.T) {
	handler := NewAuthHandler(&stubAuthService{})

	c, _ := newJSONContext(http.MethodPost, "/auth/register", `{"email":`)
	err := handler.Register(c)

	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestAuthHandler_Login_Success(t *testing.T) {
	stub := &stubAuthService{
		loginFn: func(_ context.Context, email, password string) (string, *domain.User, error) {
			if email != "alice@example.com" || password != "secret" {
				t.Fatalf("unexpected args: %s %s", email, password)
			}
			return "token123", &domain.User{ID: 1, Email: email}, nil
		},
	}
	handler := NewAuthHandler(stub)

	c, rec := newJSONContext(http.MethodPost, "/auth/login", `{"email":"alice@example.com","password":"secret"}`)
	if err := handler.Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["access_token"] != "token123" {
		t.Fatalf("unexpected token payload: %+v", resp)
	}
}

func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	stub := &stubAuthService{
		loginFn: func(context.Context, string, string) (string, *domain.User, error) {
			return "", nil, domain.ErrInvalidCredentials
		},
	}
	handler := NewAuthHandler(stub)

	c, _ := newJSONContext(http.MethodPost, "/auth/login", `{"email":"alice@example.com","password":"wrong"}`)
	err := handler.Login(c)
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}
