// Package middleware resolves the caller behind a request.
package middleware

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"yamdb/internal/auth"
	apperrors "yamdb/internal/errors"
	"yamdb/internal/model"
	"yamdb/internal/service"
)

const (
	tokenKey  = "token"
	callerKey = "caller"
	claimsKey = "claims"
)

// OptionalJWT verifies a bearer token when one is sent. Requests without an
// Authorization header pass through anonymously; a bad token is rejected with 401.
func OptionalJWT(secret []byte) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		Skipper: func(c echo.Context) bool {
			return c.Request().Header.Get(echo.HeaderAuthorization) == ""
		},
		SigningKey:    secret,
		SigningMethod: jwt.SigningMethodHS256.Alg(),
		TokenLookup:   "header:" + echo.HeaderAuthorization + ":Bearer ",
		ContextKey:    tokenKey,
		NewClaimsFunc: func(echo.Context) jwt.Claims {
			return new(auth.Claims)
		},
		ErrorHandler: func(echo.Context, error) error {
			return apperrors.ErrInvalidToken
		},
	})
}

// LoadCaller turns verified claims into the calling user. It runs after
// OptionalJWT and leaves anonymous requests untouched.
func LoadCaller(authService service.AuthService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, ok := c.Get(tokenKey).(*jwt.Token)
			if !ok || token == nil {
				return next(c)
			}
			claims, ok := token.Claims.(*auth.Claims)
			if !ok {
				return apperrors.ErrInvalidToken
			}

			user, err := authService.Authenticate(c.Request().Context(), claims)
			if err != nil {
				return err
			}
			c.Set(claimsKey, claims)
			c.Set(callerKey, user)
			return next(c)
		}
	}
}

// RequireAuth rejects anonymous requests.
func RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if Caller(c) == nil {
			return apperrors.Unauthorized("authentication credentials were not provided")
		}
		return next(c)
	}
}

// Caller returns the authenticated user, or nil for anonymous requests.
func Caller(c echo.Context) *model.User {
	user, _ := c.Get(callerKey).(*model.User)
	return user
}

// Claims returns the verified access-token claims, or nil.
func Claims(c echo.Context) *auth.Claims {
	claims, _ := c.Get(claimsKey).(*auth.Claims)
	return claims
}

// ErrorHandler renders errors that escape handlers and middleware in the
// same shape handlers use.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var httpErr *apperrors.HTTPError
	var echoErr *echo.HTTPError
	var failure *apperrors.Failure
	switch {
	case errors.As(err, &failure):
		httpErr = apperrors.MapErrorToHTTP(failure)
	case errors.As(err, &echoErr):
		httpErr = apperrors.NewHTTPError(echoErr.Code, fmt.Sprint(echoErr.Message), strings.ToUpper(strings.ReplaceAll(http.StatusText(echoErr.Code), " ", "_")))
	default:
		httpErr = apperrors.MapErrorToHTTP(err)
	}

	if httpErr.StatusCode >= http.StatusInternalServerError {
		slog.ErrorContext(c.Request().Context(), "request failed",
			"method", c.Request().Method,
			"path", c.Path(),
			"error", err,
		)
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(httpErr.StatusCode)
	} else {
		err = c.JSON(httpErr.StatusCode, httpErr.ToErrorResponse())
	}
	if err != nil {
		slog.ErrorContext(c.Request().Context(), "write error response", "error", err)
	}
}
