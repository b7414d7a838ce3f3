package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atayl16/siege-clan-tracker/pkg/config"
	appErrors "github.com/atayl16/siege-clan-tracker/pkg/errors"
)

func TestTokenRoundTrip(t *testing.T) {
	svc := NewTokenService(config.JWTConfig{Secret: "secret", Issuer: "siege", Expiration: time.Hour})
	token, expires, err := svc.Issue("account-1", "zezima", true)
	require.NoError(t, err)
	assert.True(t, expires.After(time.Now()))

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "account-1", claims.AccountID)
	assert.True(t, claims.IsAdmin)
}

func TestTokenRejectsForeignSecretAndExpiry(t *testing.T) {
	svc := NewTokenService(config.JWTConfig{Secret: "secret", Issuer: "siege", Expiration: time.Hour})
	other := NewTokenService(config.JWTConfig{Secret: "other", Issuer: "siege", Expiration: time.Hour})
	token, _, err := other.Issue("account-1", "zezima", false)
	require.NoError(t, err)
	_, err = svc.ValidateToken(token)
	require.True(t, appErrors.Is(err, appErrors.ErrUnauthorized))

	svc.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	stale, _, err := svc.Issue("account-1", "zezima", false)
	require.NoError(t, err)
	_, err = svc.ValidateToken(stale)
	require.True(t, appErrors.Is(err, appErrors.ErrUnauthorized))
}
