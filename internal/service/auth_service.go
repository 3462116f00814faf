package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"yamdb/internal/auth"
	apperrors "yamdb/internal/errors"
	"yamdb/internal/model"
	"yamdb/internal/notify"
	"yamdb/internal/repository"
)

const (
	signupMailSubject = "YaMDb registration"
	signupMailBody    = "Confirmation code: %s"
)

// TokenPair is returned by a successful code exchange.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// AuthService handles signup, token issuance and caller resolution.
type AuthService interface {
	Signup(ctx context.Context, username, email string) (*model.User, error)
	IssueToken(ctx context.Context, username, confirmationCode string) (*TokenPair, error)
	RefreshToken(ctx context.Context, refreshToken string) (accessToken string, err error)
	Logout(ctx context.Context, access *auth.Claims, refreshToken string) error
	Authenticate(ctx context.Context, claims *auth.Claims) (*model.User, error)
}

type authService struct {
	userRepo   repository.UserRepository
	jwtService *auth.JWTService
	tokenStore auth.TokenStoreInterface
	notifier   notify.Notifier
}

// NewAuthService creates a new authentication service. notifier should not
// block; wrap slow transports in notify.Async.
func NewAuthService(
	userRepo repository.UserRepository,
	jwtService *auth.JWTService,
	tokenStore auth.TokenStoreInterface,
	notifier notify.Notifier,
) AuthService {
	return &authService{
		userRepo:   userRepo,
		jwtService: jwtService,
		tokenStore: tokenStore,
		notifier:   notifier,
	}
}

// Signup resolves the (username, email) pair to a user, creating it if new,
// rotates the confirmation code and mails it. The code is never returned.
func (s *authService) Signup(ctx context.Context, username, email string) (*model.User, error) {
	if err := validateSignup(username, email); err != nil {
		return nil, err
	}

	user, err := s.resolveSignupUser(ctx, username, email)
	if err != nil {
		return nil, err
	}

	code, err := auth.GenerateConfirmationCode()
	if err != nil {
		return nil, err
	}
	hash, err := auth.HashConfirmationCode(code)
	if err != nil {
		return nil, err
	}

	created := false
	if user == nil {
		user, created, err = s.createSignupUser(ctx, username, email, hash)
		if err != nil {
			return nil, err
		}
	}
	if !created {
		if err := s.userRepo.SetConfirmationCode(ctx, user.ID, hash); err != nil {
			return nil, fmt.Errorf("store confirmation code: %w", err)
		}
		user.ConfirmationCode = hash
	}

	if err := s.notifier.Send(ctx, user.Email, signupMailSubject, fmt.Sprintf(signupMailBody, code)); err != nil {
		slog.WarnContext(ctx, "confirmation code delivery failed", "username", user.Username, "error", err)
	}
	return user, nil
}

// resolveSignupUser applies the conflict policy. It returns the existing user
// for an exact match, nil for a brand-new pair, or a Conflict failure.
func (s *authService) resolveSignupUser(ctx context.Context, username, email string) (*model.User, error) {
	byUsername, err := s.findOptional(ctx, s.userRepo.FindByUsername, username)
	if err != nil {
		return nil, err
	}
	byEmail, err := s.findOptional(ctx, s.userRepo.FindByEmail, email)
	if err != nil {
		return nil, err
	}

	fields := map[string]string{}
	if byUsername != nil {
		if byUsername.Email == email {
			return byUsername, nil
		}
		fields["username"] = "a user with this username already exists with a different email"
		if byEmail != nil {
			fields["email"] = "this email is already taken"
		}
	} else if byEmail != nil {
		fields["email"] = "this email is already taken"
	}

	if len(fields) > 0 {
		return nil, apperrors.Conflict("username or email already in use", fields)
	}
	return nil, nil
}

// createSignupUser inserts a new user. When a concurrent signup wins the
// insert, the pair is resolved again: an identical pair reuses that row and
// reports created=false, anything else is a conflict.
func (s *authService) createSignupUser(ctx context.Context, username, email, codeHash string) (*model.User, bool, error) {
	user := &model.User{
		Username:         username,
		Email:            email,
		Role:             model.RoleUser,
		ConfirmationCode: codeHash,
	}
	err := s.userRepo.Create(ctx, user)
	if err == nil {
		return user, true, nil
	}
	if !errors.Is(err, repository.ErrDuplicate) {
		return nil, false, fmt.Errorf("create user: %w", err)
	}

	existing, err := s.resolveSignupUser(ctx, username, email)
	if err != nil {
		return nil, false, err
	}
	if existing == nil {
		return nil, false, apperrors.Conflict("username or email already in use", nil)
	}
	return existing, false, nil
}

func (s *authService) findOptional(ctx context.Context, find func(context.Context, string) (*model.User, error), key string) (*model.User, error) {
	user, err := find(ctx, key)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	return user, nil
}

// IssueToken exchanges a confirmation code for tokens. The code stays valid
// and can be exchanged again until the next signup rotates it.
func (s *authService) IssueToken(ctx context.Context, username, confirmationCode string) (*TokenPair, error) {
	if username == "" || confirmationCode == "" {
		fields := map[string]string{}
		if username == "" {
			fields["username"] = "this field is required"
		}
		if confirmationCode == "" {
			fields["confirmation_code"] = "this field is required"
		}
		return nil, apperrors.Validation("invalid request", fields)
	}

	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("user")
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	if !auth.CheckConfirmationCode(user.ConfirmationCode, confirmationCode) {
		return nil, apperrors.ErrInvalidConfirmationCode
	}

	_, accessToken, err := s.jwtService.GenerateAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}

	refreshID, refreshToken, err := s.jwtService.GenerateRefreshToken(user)
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}

	if err := s.tokenStore.StoreRefreshToken(ctx, refreshID, user.ID, s.jwtService.RefreshTTL()); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// RefreshToken validates a stored refresh token and returns a new access token.
func (s *authService) RefreshToken(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.jwtService.ValidateRefreshToken(refreshToken)
	if err != nil {
		return "", apperrors.ErrInvalidToken
	}

	storedUserID, err := s.tokenStore.GetRefreshToken(ctx, claims.ID)
	if err != nil || storedUserID != claims.UserID {
		return "", apperrors.ErrInvalidToken
	}

	user, err := s.userRepo.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", apperrors.ErrInvalidToken
		}
		return "", fmt.Errorf("lookup user: %w", err)
	}

	_, accessToken, err := s.jwtService.GenerateAccessToken(user)
	if err != nil {
		return "", fmt.Errorf("generate access token: %w", err)
	}
	return accessToken, nil
}

// Logout revokes the refresh token and blacklists the presented access token
// for the rest of its lifetime.
func (s *authService) Logout(ctx context.Context, access *auth.Claims, refreshToken string) error {
	claims, err := s.jwtService.ValidateRefreshToken(refreshToken)
	if err != nil || claims.UserID != access.UserID {
		return apperrors.ErrInvalidToken
	}

	if err := s.tokenStore.DeleteRefreshToken(ctx, claims.ID); err != nil {
		return fmt.Errorf("delete refresh token: %w", err)
	}

	ttl := s.jwtService.AccessTTL()
	if access.ExpiresAt != nil {
		ttl = time.Until(access.ExpiresAt.Time)
	}
	if ttl > 0 {
		if err := s.tokenStore.BlacklistAccessToken(ctx, access.ID, ttl); err != nil {
			return fmt.Errorf("blacklist access token: %w", err)
		}
	}
	return nil
}

// Authenticate turns verified access-token claims into the calling user.
func (s *authService) Authenticate(ctx context.Context, claims *auth.Claims) (*model.User, error) {
	if claims == nil || claims.Type != auth.TokenTypeAccess {
		return nil, apperrors.ErrInvalidToken
	}

	revoked, err := s.tokenStore.IsAccessTokenBlacklisted(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("check token blacklist: %w", err)
	}
	if revoked {
		return nil, apperrors.ErrInvalidToken
	}

	user, err := s.userRepo.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrInvalidToken
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	return user, nil
}
