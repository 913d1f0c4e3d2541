package memory

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/perdeci/curtain-order-service/internal/domain"
)

type subscriptionRepo struct{ repo }

func (r *subscriptionRepo) Upsert(_ context.Context, sub *domain.Subscription) error {
	return r.acc(func(s *state) error {
		if _, ok := s.tenants[sub.TenantID]; !ok {
			return foreignKeyViolation("subscriptions_tenant_id_fkey")
		}
		now := r.now()
		if existing, ok := s.subscriptions[sub.TenantID]; ok {
			sub.ID = existing.ID
			sub.CreatedAt = existing.CreatedAt
		} else {
			sub.ID = uuid.NewString()
			sub.CreatedAt = now
		}
		sub.UpdatedAt = now
		s.subscriptions[sub.TenantID] = *sub
		return nil
	})
}

func (r *subscriptionRepo) GetByTenant(_ context.Context, tenantID string) (*domain.Subscription, error) {
	var out domain.Subscription
	err := r.acc(func(s *state) error {
		sub, ok := s.subscriptions[tenantID]
		if !ok {
			return errNoRows
		}
		out = sub
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *subscriptionRepo) TransitionStatus(_ context.Context, tenantID string, from, to domain.SubscriptionStatus) (bool, error) {
	changed := false
	err := r.acc(func(s *state) error {
		sub, ok := s.subscriptions[tenantID]
		if !ok || sub.Status != from {
			return nil
		}
		sub.Status = to
		sub.UpdatedAt = r.now()
		s.subscriptions[tenantID] = sub
		changed = true
		return nil
	})
	return changed, err
}

func (r *subscriptionRepo) SetSeats(_ context.Context, tenantID string, seats int) error {
	return r.acc(func(s *state) error {
		sub, ok := s.subscriptions[tenantID]
		if !ok {
			return errNoRows
		}
		sub.Seats = seats
		sub.UpdatedAt = r.now()
		s.subscriptions[tenantID] = sub
		return nil
	})
}

func (r *subscriptionRepo) ExpireTrials(_ context.Context, now time.Time) ([]domain.StatusChange, error) {
	var out []domain.StatusChange
	err := r.acc(func(s *state) error {
		for id, sub := range s.subscriptions {
			if sub.Plan == domain.PlanFree && sub.Status == domain.StatusTrialing &&
				sub.TrialEndsAt != nil && sub.TrialEndsAt.Before(now) {
				out = append(out, domain.StatusChange{TenantID: id, Plan: sub.Plan, From: sub.Status, To: domain.StatusCanceled})
				sub.Status = domain.StatusCanceled
				sub.UpdatedAt = r.now()
				s.subscriptions[id] = sub
			}
		}
		return nil
	})
	sortedBy(out, func(a, b domain.StatusChange) bool { return a.TenantID < b.TenantID })
	return out, err
}

func (r *subscriptionRepo) MarkPastDue(_ context.Context, now time.Time) ([]domain.StatusChange, error) {
	var out []domain.StatusChange
	err := r.acc(func(s *state) error {
		for id, sub := range s.subscriptions {
			if sub.Plan == domain.PlanFree {
				continue
			}
			if sub.Status != domain.StatusActive && sub.Status != domain.StatusTrialing {
				continue
			}
			if sub.CurrentPeriodEnd == nil || !sub.CurrentPeriodEnd.Before(now) {
				continue
			}
			if sub.GraceUntil != nil && sub.GraceUntil.After(now) {
				continue
			}
			out = append(out, domain.StatusChange{TenantID: id, Plan: sub.Plan, From: sub.Status, To: domain.StatusPastDue})
			sub.Status = domain.StatusPastDue
			sub.UpdatedAt = r.now()
			s.subscriptions[id] = sub
		}
		return nil
	})
	sortedBy(out, func(a, b domain.StatusChange) bool { return a.TenantID < b.TenantID })
	return out, err
}

type invoiceRepo struct{ repo }

func (r *invoiceRepo) UpsertPaid(_ context.Context, inv *domain.Invoice) error {
	return r.acc(func(s *state) error {
		now := r.now()
		for id, existing := range s.invoices {
			if existing.TenantID == inv.TenantID && existing.PeriodStart.Equal(inv.PeriodStart) {
				existing.Status = domain.InvoicePaid
				if existing.PaidAt == nil {
					existing.PaidAt = inv.PaidAt
				}
				existing.UpdatedAt = now
				s.invoices[id] = existing
				*inv = existing
				return nil
			}
		}
		inv.ID = uuid.NewString()
		inv.Status = domain.InvoicePaid
		inv.CreatedAt = now
		inv.UpdatedAt = now
		s.invoices[inv.ID] = *inv
		s.track(inv.ID)
		return nil
	})
}

func (r *invoiceRepo) ListByTenant(_ context.Context, tenantID string) ([]domain.Invoice, error) {
	var out []domain.Invoice
	err := r.acc(func(s *state) error {
		for _, inv := range s.invoices {
			if inv.TenantID == tenantID {
				out = append(out, inv)
			}
		}
		sortedBy(out, func(a, b domain.Invoice) bool { return a.PeriodStart.After(b.PeriodStart) })
		return nil
	})
	return out, err
}
