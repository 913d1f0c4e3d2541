package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/perdeci/curtain-order-service/internal/config"
	"github.com/perdeci/curtain-order-service/internal/domain"
	"github.com/perdeci/curtain-order-service/internal/events"
	"github.com/perdeci/curtain-order-service/internal/mail"
	"github.com/perdeci/curtain-order-service/internal/repository/memory"
)

type mockSender struct {
	mock.Mock
}

func (m *mockSender) Send(ctx context.Context, msg mail.Message) (string, error) {
	args := m.Called(ctx, msg)
	return args.String(0), args.Error(1)
}

func newNotifications(t *testing.T) (events.Dispatcher, *mockSender, *memory.Store) {
	t.Helper()
	store := memory.New()
	dispatcher := events.NewInMemoryDispatcher(nil)
	sender := &mockSender{}
	NewNotificationService(dispatcher, sender, store, nil, config.NotificationConfig{
		AppBaseURL: "https://app.example.com/",
	}).RegisterHandlers()
	return dispatcher, sender, store
}

func TestInviteEmailCarriesTemporaryPassword(t *testing.T) {
	dispatcher, sender, _ := newNotifications(t)
	sender.On("Send", mock.Anything, mock.MatchedBy(func(msg mail.Message) bool {
		return msg.To == "new@example.com" &&
			msg.Subject == "You have been invited to Atelier" &&
			strings.Contains(msg.Text, "Temporary password: s3cret") &&
			strings.Contains(msg.Text, "https://app.example.com/login")
	})).Return("delivery-1", nil).Once()

	err := dispatcher.Publish(context.Background(), events.New(events.EventMemberInvited, "t1", "u1", time.Now(),
		events.MemberInvitedPayload{Email: "new@example.com", TenantName: "Atelier", Role: domain.TenantRoleMember, TemporaryPass: "s3cret"}))
	require.NoError(t, err)
	sender.AssertExpectations(t)
}

func TestResetEmailLinksToken(t *testing.T) {
	dispatcher, sender, _ := newNotifications(t)
	sender.On("Send", mock.Anything, mock.MatchedBy(func(msg mail.Message) bool {
		return msg.To == "owner@example.com" &&
			strings.Contains(msg.Text, "https://app.example.com/reset-password?token=abc123")
	})).Return("delivery-2", nil).Once()

	err := dispatcher.Publish(context.Background(), events.New(events.EventPasswordResetRequested, "", "u1", time.Now(),
		events.PasswordResetRequestedPayload{Email: "owner@example.com", Token: "abc123", ExpiresAt: time.Now().Add(time.Hour)}))
	require.NoError(t, err)
	sender.AssertExpectations(t)
}

func TestStatusChangeEmailsActiveOwnersOnly(t *testing.T) {
	ctx := context.Background()
	dispatcher, sender, store := newNotifications(t)
	repos := store.Repos()

	tenant := &domain.Tenant{Name: "Atelier"}
	require.NoError(t, repos.Tenants.Create(ctx, tenant))
	for _, u := range []struct {
		email  string
		role   domain.TenantRole
		active bool
	}{
		{"owner@example.com", domain.TenantRoleOwner, true},
		{"former@example.com", domain.TenantRoleOwner, false},
		{"member@example.com", domain.TenantRoleMember, true},
	} {
		user := &domain.User{Email: u.email, Role: domain.RoleUser, IsActive: u.active}
		require.NoError(t, repos.Users.Create(ctx, user))
		require.NoError(t, repos.Memberships.Create(ctx, &domain.Membership{UserID: user.ID, TenantID: tenant.ID, Role: u.role}))
	}

	sender.On("Send", mock.Anything, mock.MatchedBy(func(msg mail.Message) bool {
		return msg.To == "owner@example.com" && msg.Subject == "Payment overdue"
	})).Return("delivery-3", nil).Once()

	err := dispatcher.Publish(ctx, events.New(events.EventSubscriptionStatusChanged, tenant.ID, "", time.Now(),
		events.SubscriptionStatusChangedPayload{OldStatus: domain.StatusActive, NewStatus: domain.StatusPastDue, Plan: domain.PlanPro, Source: "sweep"}))
	require.NoError(t, err)
	sender.AssertExpectations(t)
	sender.AssertNumberOfCalls(t, "Send", 1)

	// reactivation is not announced by email
	err = dispatcher.Publish(ctx, events.New(events.EventSubscriptionStatusChanged, tenant.ID, "", time.Now(),
		events.SubscriptionStatusChangedPayload{OldStatus: domain.StatusPastDue, NewStatus: domain.StatusActive, Plan: domain.PlanPro, Source: "billing"}))
	require.NoError(t, err)
	sender.AssertNumberOfCalls(t, "Send", 1)
}
