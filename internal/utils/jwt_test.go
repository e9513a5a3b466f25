package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAccessToken_RoundTrip(t *testing.T) {
	at, err := NewAccessToken("test-secret", 42, "STUDENT", 15)
	require.NoError(t, err)
	require.NotEmpty(t, at.Token)
	assert.WithinDuration(t, time.Now().UTC().Add(15*time.Minute), at.Exp, 5*time.Second)

	tok, err := jwt.Parse(at.Token, func(tk *jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	require.NoError(t, err)
	require.True(t, tok.Valid)

	claims, ok := tok.Claims.(jwt.MapClaims)
	require.True(t, ok)
	assert.Equal(t, float64(42), claims["sub"])
	assert.Equal(t, "STUDENT", claims["role"])
}

func TestNewAccessToken_WrongSecretRejected(t *testing.T) {
	at, err := NewAccessToken("test-secret", 42, "STUDENT", 15)
	require.NoError(t, err)

	_, err = jwt.Parse(at.Token, func(tk *jwt.Token) (interface{}, error) {
		return []byte("other-secret"), nil
	})
	assert.Error(t, err)
}

func TestNewRefreshToken(t *testing.T) {
	rt, err := NewRefreshToken(30)
	require.NoError(t, err)
	assert.Len(t, rt.Raw, 96) // 48 random bytes hex encoded
	assert.WithinDuration(t, time.Now().UTC().Add(30*24*time.Hour), rt.Exp, 5*time.Second)

	other, err := NewRefreshToken(30)
	require.NoError(t, err)
	assert.NotEqual(t, rt.Raw, other.Raw)
}

func TestHashRefreshRaw_Deterministic(t *testing.T) {
	h1 := HashRefreshRaw("some-token")
	h2 := HashRefreshRaw("some-token")
	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 64) // SHA-256 hex
	assert.NotEqual(t, h1, HashRefreshRaw("other-token"))
}
