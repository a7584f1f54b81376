package services

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenIssuerRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("secret", 24)

	token, expiresAt, err := issuer.Issue("0b5f1c4e-2f7d-4b2c-9a3e-5f9d2c1b7a60", "ada@example.com")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), expiresAt, time.Minute)

	claims, err := issuer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "0b5f1c4e-2f7d-4b2c-9a3e-5f9d2c1b7a60", claims.UserID)
	assert.Equal(t, "ada@example.com", claims.Email)
}

func TestTokenIssuerRejectsForeignSignature(t *testing.T) {
	token, _, err := NewTokenIssuer("other-secret", 1).Issue("user", "a@b.c")
	require.NoError(t, err)

	_, err = NewTokenIssuer("secret", 1).Parse(token)
	assert.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestTokenIssuerRejectsExpiredToken(t *testing.T) {
	issuer := NewTokenIssuer("secret", 1)
	issuer.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, _, err := issuer.Issue("user", "a@b.c")
	require.NoError(t, err)

	_, err = NewTokenIssuer("secret", 1).Parse(token)
	assert.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestTokenIssuerRejectsMissingUserID(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = NewTokenIssuer("secret", 1).Parse(signed)
	assert.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestTokenIssuerRejectsNoneAlgorithm(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"user_id": "user"})
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewTokenIssuer("secret", 1).Parse(signed)
	assert.ErrorIs(t, err, ErrNotAuthenticated)
}
