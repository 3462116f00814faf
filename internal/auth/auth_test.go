package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yamdb/internal/model"
)

func TestGenerateConfirmationCode(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		code, err := GenerateConfirmationCode()
		require.NoError(t, err)
		assert.Len(t, code, model.ConfirmationCodeLength)
		for _, r := range code {
			assert.True(t, strings.ContainsRune(codeAlphabet, r), "unexpected rune %q", r)
		}
		seen[code] = true
	}
	// 36^6 possibilities; 50 draws colliding down to a handful means a broken generator.
	assert.Greater(t, len(seen), 45)
}

func TestConfirmationCodeHashing(t *testing.T) {
	hash, err := HashConfirmationCode("AB12CD")
	require.NoError(t, err)

	assert.NotEqual(t, "AB12CD", hash)
	assert.True(t, CheckConfirmationCode(hash, "AB12CD"))
	assert.False(t, CheckConfirmationCode(hash, "AB12CE"))
	assert.False(t, CheckConfirmationCode("", "AB12CD"))
	assert.False(t, CheckConfirmationCode(hash, ""))
}

func TestJWTService_AccessToken(t *testing.T) {
	svc := NewJWTService("test-secret", time.Hour, 0)
	user := &model.User{ID: 7, Username: "bob"}

	tokenID, token, err := svc.GenerateAccessToken(user)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, tokenID, claims.ID)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, "bob", claims.Username)
	assert.Equal(t, TokenTypeAccess, claims.Type)
	assert.Equal(t, DefaultRefreshTokenExpiry, svc.RefreshTTL())

	_, err = svc.ValidateRefreshToken(token)
	assert.Error(t, err)
}

func TestJWTService_RefreshToken(t *testing.T) {
	svc := NewJWTService("test-secret", time.Hour, time.Hour)
	_, token, err := svc.GenerateRefreshToken(&model.User{ID: 1, Username: "amy"})
	require.NoError(t, err)

	claims, err := svc.ValidateRefreshToken(token)
	require.NoError(t, err)
	assert.Equal(t, TokenTypeRefresh, claims.Type)
}

func TestJWTService_RejectsForeignSignature(t *testing.T) {
	other := NewJWTService("other-secret", time.Hour, time.Hour)
	_, token, err := other.GenerateAccessToken(&model.User{ID: 1, Username: "amy"})
	require.NoError(t, err)

	_, err = NewJWTService("test-secret", time.Hour, time.Hour).ValidateToken(token)
	assert.Error(t, err)
}

func TestJWTService_RejectsExpired(t *testing.T) {
	svc := NewJWTService("test-secret", time.Hour, time.Hour)
	claims := &Claims{
		UserID: 1,
		Type:   TokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        "x",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(svc.Secret())
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.Error(t, err)
}

func TestTokenStore_WithoutRedis(t *testing.T) {
	store := NewTokenStore(nil)
	ctx := context.Background()

	require.NoError(t, store.StoreRefreshToken(ctx, "id", 3, time.Minute))
	_, err := store.GetRefreshToken(ctx, "id")
	assert.Error(t, err)

	blacklisted, err := store.IsAccessTokenBlacklisted(ctx, "id")
	assert.NoError(t, err)
	assert.False(t, blacklisted)
}
