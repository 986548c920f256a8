package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/notes-service/internal/api/metrics"
	"github.com/99minutos/notes-service/internal/core/ports"
)

type AuthHandler struct {
	authService ports.AuthService
}

func NewAuthHandler(authService ports.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type registerRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Name     string `json:"name" validate:"required"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
}

// Register creates a new user account.
//
// @Summary      Register a new user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "User registration details"
// @Success      201   {object}  domain.User
// @Failure      400   {object}  ErrorBody
// @Failure      409   {object}  ErrorBody
// @Failure      429   {object}  ErrorBody
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := bindAndValidate(c, &req); err != nil {
		metrics.AuthAttemptsTotal.WithLabelValues("register", "invalid").Inc()
		return err
	}

	user, err := h.authService.Register(c.Request().Context(), req.Email, req.Password, req.Name)
	metrics.AuthAttemptsTotal.WithLabelValues("register", resultLabel(err)).Inc()
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, user)
}

// Login authenticates a user and returns a bearer token.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  tokenResponse
// @Failure      400   {object}  ErrorBody
// @Failure      401   {object}  ErrorBody
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := bindAndValidate(c, &req); err != nil {
		metrics.AuthAttemptsTotal.WithLabelValues("login", "invalid").Inc()
		return err
	}

	token, _, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	metrics.AuthAttemptsTotal.WithLabelValues("login", resultLabel(err)).Inc()
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, tokenResponse{AccessToken: token})
}
