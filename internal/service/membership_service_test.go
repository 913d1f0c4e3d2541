package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/perdeci/curtain-order-service/internal/domain"
	"github.com/perdeci/curtain-order-service/internal/events"
	apperrors "github.com/perdeci/curtain-order-service/pkg/util/errorutil"
)

func TestMembership_InviteCreatesAccount(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	owner := h.register(t, "owner@example.com")
	tenantID := owner.Principal.TenantID

	m, err := h.members.Invite(ctx, tenantID, owner.User.ID, InviteInput{Email: "Staff@Example.com", Name: "Staff"})
	require.NoError(t, err)
	assert.Equal(t, domain.TenantRoleMember, m.Role)

	user, err := h.store.Repos().Users.GetByEmail(ctx, "staff@example.com")
	require.NoError(t, err)
	assert.True(t, user.MustChangePassword)
	assert.True(t, user.IsActive)

	invited := h.recorder.ofType(events.EventMemberInvited)
	require.Len(t, invited, 1)
	payload := invited[0].Payload.(events.MemberInvitedPayload)
	assert.NotEmpty(t, payload.TemporaryPass)

	sub, err := h.store.Repos().Subscriptions.GetByTenant(ctx, tenantID)
	require.NoError(t, err)
	assert.Equal(t, 2, sub.Seats)

	_, err = h.members.Invite(ctx, tenantID, owner.User.ID, InviteInput{Email: "staff@example.com"})
	assert.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestMembership_RemoveLastMembershipDeactivates(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	owner := h.register(t, "owner@example.com")
	tenantID := owner.Principal.TenantID

	m, err := h.members.Invite(ctx, tenantID, owner.User.ID, InviteInput{Email: "staff@example.com"})
	require.NoError(t, err)

	require.NoError(t, h.members.Remove(ctx, tenantID, m.UserID))

	user, err := h.store.Repos().Users.GetByID(ctx, m.UserID)
	require.NoError(t, err)
	assert.False(t, user.IsActive)

	sub, err := h.store.Repos().Subscriptions.GetByTenant(ctx, tenantID)
	require.NoError(t, err)
	assert.Equal(t, 1, sub.Seats)
}

func TestMembership_RemoveKeepsUserWithOtherMemberships(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	first := h.register(t, "first@example.com")
	second := h.register(t, "second@example.com")

	m, err := h.members.Invite(ctx, first.Principal.TenantID, first.User.ID, InviteInput{Email: "staff@example.com", Role: domain.TenantRoleAdmin})
	require.NoError(t, err)
	_, err = h.members.Invite(ctx, second.Principal.TenantID, second.User.ID, InviteInput{Email: "staff@example.com"})
	require.NoError(t, err)

	require.NoError(t, h.members.Remove(ctx, first.Principal.TenantID, m.UserID))

	user, err := h.store.Repos().Users.GetByID(ctx, m.UserID)
	require.NoError(t, err)
	assert.True(t, user.IsActive)
}

func TestMembership_ReinviteReactivates(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	owner := h.register(t, "owner@example.com")
	tenantID := owner.Principal.TenantID

	m, err := h.members.Invite(ctx, tenantID, owner.User.ID, InviteInput{Email: "staff@example.com"})
	require.NoError(t, err)
	require.NoError(t, h.members.Remove(ctx, tenantID, m.UserID))

	again, err := h.members.Invite(ctx, tenantID, owner.User.ID, InviteInput{Email: "staff@example.com"})
	require.NoError(t, err)
	assert.Equal(t, m.UserID, again.UserID)

	user, err := h.store.Repos().Users.GetByID(ctx, m.UserID)
	require.NoError(t, err)
	assert.True(t, user.IsActive)
}

func TestMembership_LastOwnerIsProtected(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	owner := h.register(t, "owner@example.com")
	tenantID := owner.Principal.TenantID

	err := h.members.Remove(ctx, tenantID, owner.User.ID)
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	_, err = h.members.ChangeRole(ctx, tenantID, owner.User.ID, domain.TenantRoleMember)
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	m, err := h.members.Invite(ctx, tenantID, owner.User.ID, InviteInput{Email: "partner@example.com", Role: domain.TenantRoleOwner})
	require.NoError(t, err)
	require.Equal(t, domain.TenantRoleOwner, m.Role)

	updated, err := h.members.ChangeRole(ctx, tenantID, owner.User.ID, domain.TenantRoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, domain.TenantRoleAdmin, updated.Role)
}

func TestMembership_InviteValidation(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	owner := h.register(t, "owner@example.com")

	_, err := h.members.Invite(ctx, owner.Principal.TenantID, owner.User.ID, InviteInput{Email: "not-an-email"})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = h.members.Invite(ctx, owner.Principal.TenantID, owner.User.ID, InviteInput{Email: "x@example.com", Role: "BOSS"})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}
