package billing

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/perdeci/curtain-order-service/internal/domain"
	apperrors "github.com/perdeci/curtain-order-service/pkg/util/errorutil"
)

func ptr(t time.Time) *time.Time { return &t }

func TestEvaluate(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)
	canceled := domain.StatusCanceled
	pastDue := domain.StatusPastDue

	tests := []struct {
		name       string
		sub        domain.Subscription
		allow      bool
		transition *domain.SubscriptionStatus
		denial     error
	}{
		{
			name:  "free trial running",
			sub:   domain.Subscription{Plan: domain.PlanFree, Status: domain.StatusTrialing, TrialEndsAt: ptr(future)},
			allow: true,
		},
		{
			name:  "free trial ending exactly now is still allowed",
			sub:   domain.Subscription{Plan: domain.PlanFree, Status: domain.StatusTrialing, TrialEndsAt: ptr(now)},
			allow: true,
		},
		{
			name:       "free trial expired",
			sub:        domain.Subscription{Plan: domain.PlanFree, Status: domain.StatusTrialing, TrialEndsAt: ptr(past)},
			transition: &canceled,
			denial:     apperrors.ErrTrialExpired,
		},
		{
			name:   "free canceled",
			sub:    domain.Subscription{Plan: domain.PlanFree, Status: domain.StatusCanceled, TrialEndsAt: ptr(past)},
			denial: apperrors.ErrInactive,
		},
		{
			name:  "free active without trial",
			sub:   domain.Subscription{Plan: domain.PlanFree, Status: domain.StatusActive},
			allow: true,
		},
		{
			name:  "paid without period end",
			sub:   domain.Subscription{Plan: domain.PlanPro, Status: domain.StatusActive},
			allow: true,
		},
		{
			name:  "paid period running",
			sub:   domain.Subscription{Plan: domain.PlanPro, Status: domain.StatusActive, CurrentPeriodEnd: ptr(future)},
			allow: true,
		},
		{
			name:  "paid period ending exactly now",
			sub:   domain.Subscription{Plan: domain.PlanBusiness, Status: domain.StatusActive, CurrentPeriodEnd: ptr(now)},
			allow: true,
		},
		{
			name:  "paid canceled is not gated",
			sub:   domain.Subscription{Plan: domain.PlanPro, Status: domain.StatusCanceled, CurrentPeriodEnd: ptr(past)},
			allow: true,
		},
		{
			name:  "paid lapsed inside grace",
			sub:   domain.Subscription{Plan: domain.PlanPro, Status: domain.StatusActive, CurrentPeriodEnd: ptr(past), GraceUntil: ptr(future)},
			allow: true,
		},
		{
			name:       "paid lapsed after grace",
			sub:        domain.Subscription{Plan: domain.PlanPro, Status: domain.StatusActive, CurrentPeriodEnd: ptr(past), GraceUntil: ptr(past)},
			transition: &pastDue,
			denial:     apperrors.ErrPaymentRequired,
		},
		{
			name:       "paid lapsed",
			sub:        domain.Subscription{Plan: domain.PlanBusiness, Status: domain.StatusActive, CurrentPeriodEnd: ptr(past)},
			transition: &pastDue,
			denial:     apperrors.ErrPaymentRequired,
		},
		{
			name:   "paid already past due",
			sub:    domain.Subscription{Plan: domain.PlanPro, Status: domain.StatusPastDue, CurrentPeriodEnd: ptr(past)},
			denial: apperrors.ErrPaymentRequired,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d := Evaluate(tc.sub, now)
			assert.Equal(t, tc.allow, d.Allow)
			if tc.transition == nil {
				assert.Nil(t, d.Transition)
			} else {
				require.NotNil(t, d.Transition)
				assert.Equal(t, *tc.transition, *d.Transition)
			}
			if tc.denial == nil {
				assert.NoError(t, d.Denial)
			} else {
				assert.True(t, errors.Is(d.Denial, tc.denial), "got %v", d.Denial)
				assert.Equal(t, 402, apperrors.ToDomainError(d.Denial).HTTPStatus)
			}
		})
	}
}

func TestTrialSubscription(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	sub := TrialSubscription("t1", now, 14*24*time.Hour)

	assert.Equal(t, domain.PlanFree, sub.Plan)
	assert.Equal(t, domain.StatusTrialing, sub.Status)
	require.NotNil(t, sub.TrialEndsAt)
	assert.Equal(t, now.AddDate(0, 0, 14), *sub.TrialEndsAt)
	assert.Nil(t, sub.CurrentPeriodEnd)
}

func TestMonthStart(t *testing.T) {
	got := MonthStart(time.Date(2026, 7, 31, 23, 59, 0, 0, time.FixedZone("X", 3*3600)))
	assert.Equal(t, time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC), got)
}
