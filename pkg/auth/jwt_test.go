package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newValidator(t *testing.T) *JWTValidator {
	t.Helper()
	v, err := NewJWTValidator(JWTConfig{SecretKey: "test-secret", Issuer: "mindweave"})
	require.NoError(t, err)
	return v
}

func TestJWTValidator_RoundTrip(t *testing.T) {
	v := newValidator(t)

	token, err := v.IssueToken("user-123", "user@example.com", time.Hour)
	require.NoError(t, err)

	claims, err := v.ValidateToken("Bearer " + token)

	require.NoError(t, err)
	assert.Equal(t, "user-123", claims.UserID)
	assert.Equal(t, "user@example.com", claims.Email)
}

func TestJWTValidator_Rejections(t *testing.T) {
	v := newValidator(t)

	t.Run("empty token", func(t *testing.T) {
		_, err := v.ValidateToken("")
		assert.ErrorIs(t, err, ErrMissingToken)
	})

	t.Run("garbage token", func(t *testing.T) {
		_, err := v.ValidateToken("not.a.jwt")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired token", func(t *testing.T) {
		token, err := v.IssueToken("user-123", "", -time.Minute)
		require.NoError(t, err)

		_, err = v.ValidateToken(token)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other, err := NewJWTValidator(JWTConfig{SecretKey: "different", Issuer: "mindweave"})
		require.NoError(t, err)
		token, err := other.IssueToken("user-123", "", time.Hour)
		require.NoError(t, err)

		_, err = v.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other, err := NewJWTValidator(JWTConfig{SecretKey: "test-secret", Issuer: "someone-else"})
		require.NoError(t, err)
		token, err := other.IssueToken("user-123", "", time.Hour)
		require.NoError(t, err)

		_, err = v.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidClaims)
	})
}

func TestNewJWTValidator_RequiresSecret(t *testing.T) {
	_, err := NewJWTValidator(JWTConfig{})
	assert.Error(t, err)
}

func TestUserContext(t *testing.T) {
	ctx := WithUser(context.Background(), UserContext{UserID: "user-123", Email: "u@example.com"})

	user, err := GetUserFromContext(ctx)
	require.NoError(t, err)
	assert.Equal(t, "user-123", user.UserID)

	_, err = GetUserFromContext(context.Background())
	assert.Error(t, err)
}
