package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/perdeci/curtain-order-service/internal/domain"
)

func TestImpersonationToken(t *testing.T) {
	now := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	tm := NewTokenManager("secret", 60, WithClock(func() time.Time { return now }))

	token, jti, exp, err := tm.GenerateImpersonationToken("target", "admin", domain.ScopeGlobal)
	require.NoError(t, err)
	assert.NotEmpty(t, jti)
	assert.Equal(t, now.Add(5*time.Minute), exp)

	claims, err := tm.ParseToken(token, domain.TokenTypeImpersonation)
	require.NoError(t, err)
	assert.Equal(t, "target", claims.Subject)
	assert.Equal(t, "admin", claims.ImpersonatorID)
	assert.Equal(t, domain.ScopeGlobal, claims.Scope)
	assert.Equal(t, jti, claims.ID)
	assert.Equal(t, exp.Unix(), claims.ExpiresAt.Unix())

	_, err = tm.ParseToken(token, domain.TokenTypeAccess)
	assert.ErrorIs(t, err, ErrWrongTokenType)
}

func TestImpersonationTokenExpires(t *testing.T) {
	now := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	clock := now
	tm := NewTokenManager("secret", 60, WithClock(func() time.Time { return clock }))

	token, _, _, err := tm.GenerateImpersonationToken("target", "admin", domain.ScopeTenant)
	require.NoError(t, err)

	clock = now.Add(5*time.Minute + time.Second)
	_, err = tm.ParseToken(token, domain.TokenTypeImpersonation)
	assert.Error(t, err)
}

func TestAccessTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("secret", 60)
	p := domain.Principal{
		UserID:         "u1",
		Role:           domain.RoleUser,
		TenantID:       "t1",
		TenantRole:     domain.TenantRoleAdmin,
		ImpersonatorID: "sa",
		Scope:          domain.ScopeTenant,
	}
	token, _, err := tm.GenerateAccessToken(p)
	require.NoError(t, err)

	claims, err := tm.ParseToken(token, domain.TokenTypeAccess)
	require.NoError(t, err)
	assert.Equal(t, &p, claims.Principal())
}

func TestParseTokenRejectsForeignSecret(t *testing.T) {
	token, _, err := NewTokenManager("one", 60).GenerateAccessToken(domain.Principal{UserID: "u1"})
	require.NoError(t, err)

	_, err = NewTokenManager("two", 60).ParseToken(token, domain.TokenTypeAccess)
	assert.Error(t, err)
}

func TestMemoryGrantStoreConsumesOnce(t *testing.T) {
	store := NewMemoryGrantStore()
	ctx := context.Background()

	first, err := store.ConsumeOnce(ctx, "jti-1", time.Minute)
	require.NoError(t, err)
	assert.True(t, first)

	second, err := store.ConsumeOnce(ctx, "jti-1", time.Minute)
	require.NoError(t, err)
	assert.False(t, second)

	other, err := store.ConsumeOnce(ctx, "jti-2", time.Minute)
	require.NoError(t, err)
	assert.True(t, other)
}
