package jwtinfra

import (
	"testing"
	"time"

	"github.com/notespace-api/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProvider(t *testing.T, accessTTL time.Duration) *Provider {
	t.Helper()
	p, err := NewProvider(&config.Config{
		JWTSecret:      "test-secret",
		AccessTokenTTL: accessTTL,
		OTPTTL:         10 * time.Minute,
	})
	require.NoError(t, err)
	return p
}

func TestNewProvider_RequiresSecret(t *testing.T) {
	_, err := NewProvider(&config.Config{})
	assert.Error(t, err)
}

func TestSignVerify_Roundtrip(t *testing.T) {
	p := newTestProvider(t, time.Hour)

	token, err := p.Sign("user-1", "u@x.com")
	require.NoError(t, err)

	claims, err := p.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "u@x.com", claims.Email)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, 5*time.Second)
}

func TestVerify_Expired(t *testing.T) {
	p := newTestProvider(t, -time.Minute)

	token, err := p.Sign("user-1", "u@x.com")
	require.NoError(t, err)

	_, err = p.Verify(token)
	assert.Error(t, err)
}

func TestVerify_WrongSecret(t *testing.T) {
	p := newTestProvider(t, time.Hour)
	other, err := NewProvider(&config.Config{JWTSecret: "other-secret", AccessTokenTTL: time.Hour})
	require.NoError(t, err)

	token, err := p.Sign("user-1", "u@x.com")
	require.NoError(t, err)

	_, err = other.Verify(token)
	assert.Error(t, err)
}

func TestVerify_Garbage(t *testing.T) {
	p := newTestProvider(t, time.Hour)
	_, err := p.Verify("not-a-jwt")
	assert.Error(t, err)
}

func TestMagicLink_Roundtrip(t *testing.T) {
	p := newTestProvider(t, time.Hour)

	token, err := p.SignMagicLink("u@x.com", "123456")
	require.NoError(t, err)

	claims, err := p.VerifyMagicLink(token)
	require.NoError(t, err)
	assert.Equal(t, "u@x.com", claims.Email)
	assert.Equal(t, "123456", claims.Code)
}

func TestMagicLink_RejectsAccessToken(t *testing.T) {
	p := newTestProvider(t, time.Hour)

	// An access token is a valid JWT under the same secret but carries no
	// magic-link purpose.
	token, err := p.Sign("user-1", "u@x.com")
	require.NoError(t, err)

	_, err = p.VerifyMagicLink(token)
	assert.Error(t, err)
}
