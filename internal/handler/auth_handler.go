package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"yamdb/internal/middleware"
	"yamdb/internal/service"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	authService service.AuthService
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// SignupRequest represents a signup request.
type SignupRequest struct {
	Username string `json:"username" validate:"required,max=150,username"`
	Email    string `json:"email" validate:"required,email,max=254"`
}

// SignupResponse echoes the accepted identity. The confirmation code is
// only ever sent by mail.
type SignupResponse struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

// TokenRequest exchanges a confirmation code for tokens.
type TokenRequest struct {
	Username         string `json:"username" validate:"required"`
	ConfirmationCode string `json:"confirmation_code" validate:"required"`
}

// TokenResponse carries an access token and, on code exchange, a refresh token.
type TokenResponse struct {
	Token   string `json:"token"`
	Refresh string `json:"refresh,omitempty"`
}

// RefreshRequest carries a refresh token.
type RefreshRequest struct {
	Refresh string `json:"refresh" validate:"required"`
}

// Signup godoc
// @Summary Request a confirmation code
// @Description Creates the user on first call and mails a fresh confirmation code on every call.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body SignupRequest true "Username and email"
// @Success 200 {object} SignupResponse
// @Failure 400 {object} errors.ErrorResponse
// @Router /auth/signup [post]
func (h *AuthHandler) Signup(c echo.Context) error {
	var req SignupRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	user, err := h.authService.Signup(c.Request().Context(), req.Username, req.Email)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, SignupResponse{Username: user.Username, Email: user.Email})
}

// Token godoc
// @Summary Exchange a confirmation code for tokens
// @Tags auth
// @Accept json
// @Produce json
// @Param request body TokenRequest true "Username and confirmation code"
// @Success 200 {object} TokenResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /auth/token [post]
func (h *AuthHandler) Token(c echo.Context) error {
	var req TokenRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	pair, err := h.authService.IssueToken(c.Request().Context(), req.Username, req.ConfirmationCode)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, TokenResponse{Token: pair.AccessToken, Refresh: pair.RefreshToken})
}

// Refresh godoc
// @Summary Refresh access token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RefreshRequest true "Refresh token"
// @Success 200 {object} TokenResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /auth/token/refresh [post]
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req RefreshRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	accessToken, err := h.authService.RefreshToken(c.Request().Context(), req.Refresh)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, TokenResponse{Token: accessToken})
}

// Logout godoc
// @Summary Logout
// @Description Revokes the refresh token and the access token used for this call.
// @Tags auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body RefreshRequest true "Refresh token"
// @Success 204
// @Failure 401 {object} errors.ErrorResponse
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	var req RefreshRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	if err := h.authService.Logout(c.Request().Context(), middleware.Claims(c), req.Refresh); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
