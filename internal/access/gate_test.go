package access

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/perdeci/curtain-order-service/internal/domain"
	"github.com/perdeci/curtain-order-service/internal/events"
	"github.com/perdeci/curtain-order-service/internal/repository"
	"github.com/perdeci/curtain-order-service/internal/repository/memory"
	apperrors "github.com/perdeci/curtain-order-service/pkg/util/errorutil"
)

type gateFixture struct {
	store   *memory.Store
	gate    *Gate
	tenant  *domain.Tenant
	owner   *domain.Principal
	mu      sync.Mutex
	changes []events.SubscriptionStatusChangedPayload
}

func newGateFixture(t *testing.T, now time.Time) *gateFixture {
	t.Helper()
	store := memory.New()
	user := createUser(t, store, "owner@example.com", domain.RoleUser)
	tenant := provision(t, store, user.ID, "Atelier", now.Add(-30*24*time.Hour))

	f := &gateFixture{
		store:  store,
		tenant: tenant,
		owner:  &domain.Principal{UserID: user.ID, Role: domain.RoleUser, TenantID: tenant.ID, TenantRole: domain.TenantRoleOwner},
	}
	dispatcher := events.NewInMemoryDispatcher(nil)
	dispatcher.Subscribe(events.EventSubscriptionStatusChanged, func(_ context.Context, e events.Event) error {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.changes = append(f.changes, e.Payload.(events.SubscriptionStatusChangedPayload))
		return nil
	})
	f.gate = NewGate(GateDependencies{
		Resolver:      NewResolver(store, trial, nil, func() time.Time { return now }),
		Subscriptions: store.Repos().Subscriptions,
		Dispatcher:    dispatcher,
		Clock:         func() time.Time { return now },
	})
	return f
}

func (f *gateFixture) setSubscription(t *testing.T, mutate func(*domain.Subscription)) {
	t.Helper()
	ctx := context.Background()
	sub, err := f.store.Repos().Subscriptions.GetByTenant(ctx, f.tenant.ID)
	require.NoError(t, err)
	mutate(sub)
	require.NoError(t, f.store.Repos().Subscriptions.Upsert(ctx, sub))
}

func (f *gateFixture) status(t *testing.T) domain.SubscriptionStatus {
	t.Helper()
	sub, err := f.store.Repos().Subscriptions.GetByTenant(context.Background(), f.tenant.ID)
	require.NoError(t, err)
	return sub.Status
}

func TestGate_AllowsRunningTrial(t *testing.T) {
	now := time.Now().UTC()
	f := newGateFixture(t, now)
	f.setSubscription(t, func(s *domain.Subscription) {
		ends := now.Add(time.Hour)
		s.TrialEndsAt = &ends
	})

	id, err := f.gate.RequireActiveTenant(context.Background(), f.owner)
	require.NoError(t, err)
	assert.Equal(t, f.tenant.ID, id)
}

func TestGate_ExpiredTrialCancelsOnce(t *testing.T) {
	now := time.Now().UTC()
	f := newGateFixture(t, now)

	_, err := f.gate.RequireActiveTenant(context.Background(), f.owner)
	assert.ErrorIs(t, err, apperrors.ErrTrialExpired)
	assert.Equal(t, 402, apperrors.ToDomainError(err).HTTPStatus)
	assert.Equal(t, domain.StatusCanceled, f.status(t))

	_, err = f.gate.RequireActiveTenant(context.Background(), f.owner)
	assert.ErrorIs(t, err, apperrors.ErrInactive)

	require.Len(t, f.changes, 1)
	assert.Equal(t, domain.StatusTrialing, f.changes[0].OldStatus)
	assert.Equal(t, domain.StatusCanceled, f.changes[0].NewStatus)
	assert.Equal(t, "gate", f.changes[0].Source)
}

func TestGate_LapsedPaidPlanMarkedPastDue(t *testing.T) {
	now := time.Now().UTC()
	f := newGateFixture(t, now)
	f.setSubscription(t, func(s *domain.Subscription) {
		end := now.Add(-time.Hour)
		s.Plan = domain.PlanPro
		s.Status = domain.StatusActive
		s.TrialEndsAt = nil
		s.CurrentPeriodEnd = &end
	})

	for i := 0; i < 2; i++ {
		_, err := f.gate.RequireActiveTenant(context.Background(), f.owner)
		assert.ErrorIs(t, err, apperrors.ErrPaymentRequired)
	}
	assert.Equal(t, domain.StatusPastDue, f.status(t))
	assert.Len(t, f.changes, 1)
}

func TestGate_GraceKeepsAccess(t *testing.T) {
	now := time.Now().UTC()
	f := newGateFixture(t, now)
	f.setSubscription(t, func(s *domain.Subscription) {
		end := now.Add(-time.Hour)
		grace := now.Add(24 * time.Hour)
		s.Plan = domain.PlanBusiness
		s.Status = domain.StatusActive
		s.CurrentPeriodEnd = &end
		s.GraceUntil = &grace
	})

	_, err := f.gate.RequireActiveTenant(context.Background(), f.owner)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusActive, f.status(t))
}

func TestGate_NoTenant(t *testing.T) {
	now := time.Now().UTC()
	f := newGateFixture(t, now)
	stranger := createUser(t, f.store, "stranger@example.com", domain.RoleUser)

	_, err := f.gate.RequireActiveTenant(context.Background(), &domain.Principal{UserID: stranger.ID, Role: domain.RoleUser})
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestGate_MissingSubscription(t *testing.T) {
	now := time.Now().UTC()
	f := newGateFixture(t, now)

	_, err := f.gate.RequireActiveTenant(context.Background(), &domain.Principal{UserID: f.owner.UserID, TenantID: "unknown"})
	assert.ErrorIs(t, err, apperrors.ErrPaymentRequired)
}

type brokenTransitions struct {
	repository.SubscriptionRepository
}

func (brokenTransitions) TransitionStatus(context.Context, string, domain.SubscriptionStatus, domain.SubscriptionStatus) (bool, error) {
	return false, errors.New("connection reset")
}

func TestGate_TransitionWriteFailureSurfaces(t *testing.T) {
	now := time.Now().UTC()
	f := newGateFixture(t, now)
	gate := NewGate(GateDependencies{
		Resolver:      NewResolver(f.store, trial, nil, func() time.Time { return now }),
		Subscriptions: brokenTransitions{f.store.Repos().Subscriptions},
		Clock:         func() time.Time { return now },
	})

	_, err := gate.RequireActiveTenant(context.Background(), f.owner)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInternal)
	assert.Equal(t, 500, apperrors.ToDomainError(err).HTTPStatus)
	assert.Equal(t, domain.StatusTrialing, f.status(t))
	assert.Empty(t, f.changes)
}
