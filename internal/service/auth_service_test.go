package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/perdeci/curtain-order-service/internal/domain"
	"github.com/perdeci/curtain-order-service/internal/events"
	apperrors "github.com/perdeci/curtain-order-service/pkg/util/errorutil"
)

func TestAuth_RegisterProvisionsTenant(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	session := h.register(t, "Owner@Example.com")
	assert.Equal(t, "owner@example.com", session.User.Email)
	assert.Equal(t, domain.TenantRoleOwner, session.Principal.TenantRole)
	require.NotEmpty(t, session.Principal.TenantID)

	sub, err := h.store.Repos().Subscriptions.GetByTenant(ctx, session.Principal.TenantID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusTrialing, sub.Status)

	_, err = h.auth.Register(ctx, RegisterInput{Email: "owner@example.com", Password: "password123"})
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	_, err = h.auth.Register(ctx, RegisterInput{Email: "short@example.com", Password: "short"})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestAuth_Login(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	registered := h.register(t, "owner@example.com")

	session, err := h.auth.Login(ctx, "owner@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, registered.Principal.TenantID, session.Principal.TenantID)

	_, err = h.auth.Login(ctx, "owner@example.com", "wrong-password")
	assert.ErrorIs(t, err, apperrors.ErrUnauthenticated)

	_, err = h.auth.Login(ctx, "nobody@example.com", "password123")
	assert.ErrorIs(t, err, apperrors.ErrUnauthenticated)

	require.NoError(t, h.store.Repos().Users.SetActive(ctx, registered.User.ID, false))
	_, err = h.auth.Login(ctx, "owner@example.com", "password123")
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestAuth_SelectTenant(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	first := h.register(t, "first@example.com")
	second := h.register(t, "second@example.com")

	_, err := h.auth.SelectTenant(ctx, principalOf(first), second.Principal.TenantID)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	_, err = h.auth.SelectTenant(ctx, principalOf(first), "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	admin := h.superAdmin(t)
	session, err := h.auth.SelectTenant(ctx, &domain.Principal{UserID: admin.ID, Role: admin.Role}, second.Principal.TenantID)
	require.NoError(t, err)
	assert.Equal(t, second.Principal.TenantID, session.Principal.TenantID)
	assert.Empty(t, session.Principal.TenantRole)
}

func TestAuth_PasswordResetFlow(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	owner := h.register(t, "owner@example.com")

	require.NoError(t, h.auth.RequestPasswordReset(ctx, "owner@example.com"))
	require.NoError(t, h.auth.RequestPasswordReset(ctx, "owner@example.com"))
	require.NoError(t, h.auth.RequestPasswordReset(ctx, "unknown@example.com"))

	requested := h.recorder.ofType(events.EventPasswordResetRequested)
	require.Len(t, requested, 2)
	first := requested[0].Payload.(events.PasswordResetRequestedPayload)
	second := requested[1].Payload.(events.PasswordResetRequestedPayload)
	assert.Equal(t, owner.User.ID, first.UserID)
	assert.WithinDuration(t, time.Now().Add(30*time.Minute), first.ExpiresAt, 5*time.Second)

	require.NoError(t, h.auth.ConfirmPasswordReset(ctx, first.Token, "brand-new-pass"))

	err := h.auth.ConfirmPasswordReset(ctx, first.Token, "another-pass-1")
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	err = h.auth.ConfirmPasswordReset(ctx, second.Token, "another-pass-1")
	assert.ErrorIs(t, err, apperrors.ErrValidation, "sibling tokens are invalidated")

	_, err = h.auth.Login(ctx, "owner@example.com", "brand-new-pass")
	require.NoError(t, err)
}

func TestAuth_ConfirmResetRejectsUnknownToken(t *testing.T) {
	h := newHarness(t)
	err := h.auth.ConfirmPasswordReset(context.Background(), "nope", "brand-new-pass")
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestAuth_ChangePassword(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	owner := h.register(t, "owner@example.com")

	err := h.auth.ChangePassword(ctx, principalOf(owner), "wrong-password", "next-password")
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	require.NoError(t, h.auth.ChangePassword(ctx, principalOf(owner), "password123", "next-password"))
	_, err = h.auth.Login(ctx, "owner@example.com", "next-password")
	require.NoError(t, err)
}

func TestAuth_EnsureSuperAdminIsIdempotent(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	first := h.superAdmin(t)
	second := h.superAdmin(t)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, domain.RoleSuperAdmin, second.Role)

	owner := h.register(t, "owner@example.com")
	require.NoError(t, h.auth.EnsureSuperAdmin(ctx, "owner@example.com", ""))
	promoted, err := h.store.Repos().Users.GetByID(ctx, owner.User.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleSuperAdmin, promoted.Role)
}
