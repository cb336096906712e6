package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTAuthenticatorRoundTrip(t *testing.T) {
	jwtAuth := NewJWTAuthenticator("teamboard", "teamboard")

	token, err := jwtAuth.GenerateToken(AccessClaims{
		UserID:           "abc",
		Email:            "user@example.com",
		Role:             "admin",
		RegisteredClaims: jwtAuth.RegisteredClaims("abc", time.Hour),
	}, "secret")
	require.NoError(t, err)

	claims := &AccessClaims{}
	_, err = jwtAuth.ValidateTokenWithClaims(token, "secret", claims)
	require.NoError(t, err)

	assert.Equal(t, "abc", claims.UserID)
	assert.Equal(t, "user@example.com", claims.Email)
	assert.Equal(t, "admin", claims.Role)
	assert.Equal(t, "abc", claims.Subject)
}

func TestJWTAuthenticatorRejects(t *testing.T) {
	jwtAuth := NewJWTAuthenticator("teamboard", "teamboard")

	valid, err := jwtAuth.GenerateToken(AccessClaims{
		UserID:           "abc",
		RegisteredClaims: jwtAuth.RegisteredClaims("abc", time.Hour),
	}, "secret")
	require.NoError(t, err)

	t.Run("wrong secret", func(t *testing.T) {
		_, err := jwtAuth.ValidateTokenWithClaims(valid, "other-secret", &AccessClaims{})
		assert.Error(t, err)
	})

	t.Run("expired", func(t *testing.T) {
		expired, err := jwtAuth.GenerateToken(AccessClaims{
			UserID:           "abc",
			RegisteredClaims: jwtAuth.RegisteredClaims("abc", -time.Minute),
		}, "secret")
		require.NoError(t, err)

		_, err = jwtAuth.ValidateTokenWithClaims(expired, "secret", &AccessClaims{})
		assert.Error(t, err)
	})

	t.Run("wrong audience", func(t *testing.T) {
		other := NewJWTAuthenticator("elsewhere", "teamboard")
		token, err := other.GenerateToken(AccessClaims{
			UserID:           "abc",
			RegisteredClaims: other.RegisteredClaims("abc", time.Hour),
		}, "secret")
		require.NoError(t, err)

		_, err = jwtAuth.ValidateTokenWithClaims(token, "secret", &AccessClaims{})
		assert.Error(t, err)
	})

	t.Run("not a token", func(t *testing.T) {
		_, err := jwtAuth.ValidateTokenWithClaims("garbage", "secret", &AccessClaims{})
		assert.Error(t, err)
	})
}
