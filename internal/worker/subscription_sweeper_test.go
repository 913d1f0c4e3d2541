package worker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/perdeci/curtain-order-service/internal/billing"
	"github.com/perdeci/curtain-order-service/internal/domain"
	"github.com/perdeci/curtain-order-service/internal/repository/memory"
)

func TestTickWithoutRedisSweeps(t *testing.T) {
	ctx := context.Background()
	repos := memory.New().Repos()
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	tenant := &domain.Tenant{Name: "Atelier"}
	require.NoError(t, repos.Tenants.Create(ctx, tenant))
	sub := billing.TrialSubscription(tenant.ID, start, 14*24*time.Hour)
	require.NoError(t, repos.Subscriptions.Upsert(ctx, &sub))

	w := NewSubscriptionSweeper(billing.NewSweeper(repos.Subscriptions, nil, nil, nil), nil, time.Minute, nil)
	w.now = func() time.Time { return start.Add(24 * time.Hour) }
	w.tick(ctx)

	got, err := repos.Subscriptions.GetByTenant(ctx, tenant.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusTrialing, got.Status)

	w.now = func() time.Time { return start.Add(15 * 24 * time.Hour) }
	w.tick(ctx)

	got, err = repos.Subscriptions.GetByTenant(ctx, tenant.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCanceled, got.Status)
}

func TestRunStopsWithContext(t *testing.T) {
	repos := memory.New().Repos()
	w := NewSubscriptionSweeper(billing.NewSweeper(repos.Subscriptions, nil, nil, nil), nil, time.Hour, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("sweeper did not stop")
	}
}
