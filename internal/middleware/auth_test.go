package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yamdb/internal/auth"
	apperrors "yamdb/internal/errors"
	"yamdb/internal/model"
	"yamdb/internal/service"
)

// stubAuth resolves every token to a fixed user unless revoked is set.
type stubAuth struct {
	service.AuthService
	user    *model.User
	revoked bool
	err     error
}

func (s *stubAuth) Authenticate(_ context.Context, claims *auth.Claims) (*model.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.revoked || claims.Type != auth.TokenTypeAccess {
		return nil, apperrors.ErrInvalidToken
	}
	return s.user, nil
}

func newTestServer(jwtService *auth.JWTService, svc service.AuthService) *echo.Echo {
	e := echo.New()
	e.HTTPErrorHandler = ErrorHandler
	e.Use(OptionalJWT(jwtService.Secret()), LoadCaller(svc))

	e.GET("/whoami", func(c echo.Context) error {
		if user := Caller(c); user != nil {
			return c.String(http.StatusOK, user.Username)
		}
		return c.String(http.StatusOK, "anonymous")
	})
	e.GET("/private", func(c echo.Context) error {
		return c.String(http.StatusOK, Claims(c).Username)
	}, RequireAuth)
	return e
}

func do(e *echo.Echo, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestOptionalJWT(t *testing.T) {
	jwtService := auth.NewJWTService("middleware-test-secret", time.Hour, time.Hour)
	bob := &model.User{ID: 3, Username: "bob"}
	_, access, err := jwtService.GenerateAccessToken(bob)
	require.NoError(t, err)
	_, refresh, err := jwtService.GenerateRefreshToken(bob)
	require.NoError(t, err)
	_, foreignToken, err := auth.NewJWTService("another-secret", time.Hour, time.Hour).GenerateAccessToken(bob)
	require.NoError(t, err)

	tests := []struct {
		name     string
		token    string
		revoked  bool
		wantCode int
		wantBody string
	}{
		{name: "no token", wantCode: http.StatusOK, wantBody: "anonymous"},
		{name: "valid access token", token: access, wantCode: http.StatusOK, wantBody: "bob"},
		{name: "garbage token", token: "not-a-jwt", wantCode: http.StatusUnauthorized},
		{name: "foreign signature", token: foreignToken, wantCode: http.StatusUnauthorized},
		{name: "refresh token used as access", token: refresh, wantCode: http.StatusUnauthorized},
		{name: "revoked token", token: access, revoked: true, wantCode: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestServer(jwtService, &stubAuth{user: bob, revoked: tt.revoked})
			rec := do(e, "/whoami", tt.token)

			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.wantBody != "" {
				assert.Equal(t, tt.wantBody, rec.Body.String())
			} else {
				var body apperrors.ErrorResponse
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
				assert.Equal(t, "UNAUTHORIZED", body.Code)
			}
		})
	}
}

func TestRequireAuth(t *testing.T) {
	jwtService := auth.NewJWTService("middleware-test-secret", time.Hour, time.Hour)
	bob := &model.User{ID: 3, Username: "bob"}
	_, access, err := jwtService.GenerateAccessToken(bob)
	require.NoError(t, err)
	e := newTestServer(jwtService, &stubAuth{user: bob})

	assert.Equal(t, http.StatusUnauthorized, do(e, "/private", "").Code)

	rec := do(e, "/private", access)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "bob", rec.Body.String())
}

func TestErrorHandler(t *testing.T) {
	e := echo.New()
	e.HTTPErrorHandler = ErrorHandler
	e.GET("/boom", func(c echo.Context) error { return errors.New("db exploded") })
	e.GET("/missing", func(c echo.Context) error { return apperrors.NotFound("title") })

	rec := do(e, "/boom", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "db exploded")

	rec = do(e, "/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "title not found")

	rec = do(e, "/nowhere", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "NOT_FOUND")
}

func TestLoadCaller_InfrastructureFailure(t *testing.T) {
	jwtService := auth.NewJWTService("middleware-test-secret", time.Hour, time.Hour)
	_, access, err := jwtService.GenerateAccessToken(&model.User{ID: 3, Username: "bob"})
	require.NoError(t, err)

	e := newTestServer(jwtService, &stubAuth{err: errors.New("redis timeout")})
	assert.Equal(t, http.StatusInternalServerError, do(e, "/whoami", access).Code)
}
