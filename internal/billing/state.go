// Package billing holds the subscription state machine: the per-request read
// path, the periodic sweep and the administrator write paths.
package billing

import (
	"time"

	"github.com/perdeci/curtain-order-service/internal/domain"
	apperrors "github.com/perdeci/curtain-order-service/pkg/util/errorutil"
)

// Decision is the outcome of evaluating a subscription for a gated request.
type Decision struct {
	Allow bool
	// Transition is the status to persist, compare-and-set against the
	// status the decision was computed from. Nil when nothing changes.
	Transition *domain.SubscriptionStatus
	Denial     error
}

// Evaluate applies the read path to sub at now. It is pure; callers persist
// Transition and return Denial.
func Evaluate(sub domain.Subscription, now time.Time) Decision {
	if sub.Plan == domain.PlanFree {
		switch {
		case sub.Status == domain.StatusTrialing && sub.TrialEndsAt != nil && sub.TrialEndsAt.Before(now):
			return deny(domain.StatusCanceled, apperrors.NewTrialExpired(sub.TenantID))
		case sub.Status == domain.StatusCanceled:
			return Decision{Denial: apperrors.NewInactive(sub.TenantID)}
		}
		return Decision{Allow: true}
	}

	if sub.CurrentPeriodEnd == nil || !sub.CurrentPeriodEnd.Before(now) || sub.Status == domain.StatusCanceled {
		return Decision{Allow: true}
	}
	if InGrace(sub, now) {
		return Decision{Allow: true}
	}
	denial := apperrors.NewPaymentRequired("subscription payment is overdue", map[string]any{
		"tenant_id":          sub.TenantID,
		"current_period_end": sub.CurrentPeriodEnd.UTC(),
	})
	if sub.Status == domain.StatusPastDue {
		return Decision{Denial: denial}
	}
	return deny(domain.StatusPastDue, denial)
}

// InGrace reports whether a grace window is open at now.
func InGrace(sub domain.Subscription, now time.Time) bool {
	return sub.GraceUntil != nil && sub.GraceUntil.After(now)
}

func deny(to domain.SubscriptionStatus, err error) Decision {
	return Decision{Transition: &to, Denial: err}
}

// TrialSubscription builds the FREE trial attached to a new tenant.
func TrialSubscription(tenantID string, now time.Time, trial time.Duration) domain.Subscription {
	ends := now.Add(trial)
	return domain.Subscription{
		TenantID:    tenantID,
		Plan:        domain.PlanFree,
		Status:      domain.StatusTrialing,
		TrialEndsAt: &ends,
		Seats:       1,
	}
}

// MonthStart truncates t to the first instant of its UTC month.
func MonthStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
