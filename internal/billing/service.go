package billing

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/perdeci/curtain-order-service/internal/config"
	"github.com/perdeci/curtain-order-service/internal/domain"
	"github.com/perdeci/curtain-order-service/internal/events"
	"github.com/perdeci/curtain-order-service/internal/observability"
	"github.com/perdeci/curtain-order-service/internal/repository"
	apperrors "github.com/perdeci/curtain-order-service/pkg/util/errorutil"
)

// Service implements the administrator write paths of the subscription
// lifecycle.
type Service struct {
	store      repository.Provider
	cfg        config.BillingConfig
	dispatcher events.Dispatcher
	logger     *zap.Logger
	metrics    *observability.Metrics
	now        func() time.Time
}

// Dependencies bundles collaborators for the billing service.
type Dependencies struct {
	Store      repository.Provider
	Config     config.BillingConfig
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	Metrics    *observability.Metrics
	Clock      func() time.Time
}

// CheckoutSession is the stand-in for a hosted payment page.
type CheckoutSession struct {
	ID           string
	URL          string
	Subscription *domain.Subscription
}

// NewService constructs the billing service.
func NewService(deps Dependencies) *Service {
	s := &Service{
		store:      deps.Store,
		cfg:        deps.Config,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		metrics:    deps.Metrics,
		now:        deps.Clock,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Status returns the tenant's subscription.
func (s *Service) Status(ctx context.Context, tenantID string) (*domain.Subscription, error) {
	sub, err := s.store.Repos().Subscriptions.GetByTenant(ctx, tenantID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.NewNotFound("subscription", map[string]any{"tenant_id": tenantID})
		}
		return nil, err
	}
	return sub, nil
}

// Invoices lists invoices, newest period first.
func (s *Service) Invoices(ctx context.Context, tenantID string) ([]domain.Invoice, error) {
	return s.store.Repos().Invoices.ListByTenant(ctx, tenantID)
}

// Checkout activates plan for a new period of interval and returns a mock
// redirect URL.
func (s *Service) Checkout(ctx context.Context, tenantID string, plan domain.Plan, interval domain.BillingInterval) (*CheckoutSession, error) {
	if !plan.IsPaid() {
		return nil, apperrors.NewValidationError("plan must be PRO or BUSINESS", map[string]any{"plan": plan})
	}
	if interval == "" {
		interval = domain.IntervalMonthly
	}
	if !interval.Valid() {
		return nil, apperrors.NewValidationError("invalid billing interval", map[string]any{"interval": interval})
	}

	now := s.now().UTC()
	sub, err := s.update(ctx, tenantID, func(repos repository.Repositories, sub *domain.Subscription) error {
		end := interval.PeriodEnd(now)
		seats, err := repos.Memberships.CountForTenant(ctx, tenantID)
		if err != nil {
			return err
		}
		sub.Plan = plan
		sub.Status = domain.StatusActive
		sub.CurrentPeriodStart = &now
		sub.CurrentPeriodEnd = &end
		sub.TrialEndsAt = nil
		sub.CancelAtPeriodEnd = false
		sub.GraceUntil = nil
		sub.Seats = seats
		return nil
	})
	if err != nil {
		return nil, err
	}

	sessionID := uuid.NewString()
	q := url.Values{}
	q.Set("session_id", sessionID)
	q.Set("plan", string(plan))
	q.Set("interval", string(interval))
	return &CheckoutSession{
		ID:           sessionID,
		URL:          strings.TrimRight(s.cfg.CheckoutBaseURL, "/") + "/checkout/success?" + q.Encode(),
		Subscription: sub,
	}, nil
}

// CancelNow ends the subscription immediately.
func (s *Service) CancelNow(ctx context.Context, tenantID string) (*domain.Subscription, error) {
	now := s.now().UTC()
	return s.update(ctx, tenantID, func(_ repository.Repositories, sub *domain.Subscription) error {
		sub.Status = domain.StatusCanceled
		sub.CurrentPeriodEnd = &now
		sub.CancelAtPeriodEnd = false
		return nil
	})
}

// CancelAtPeriodEnd only flags the subscription; status is left to the sweep.
func (s *Service) CancelAtPeriodEnd(ctx context.Context, tenantID string) (*domain.Subscription, error) {
	return s.update(ctx, tenantID, func(_ repository.Repositories, sub *domain.Subscription) error {
		sub.CancelAtPeriodEnd = true
		return nil
	})
}

// Resume reactivates a paid plan with a fresh monthly period.
func (s *Service) Resume(ctx context.Context, tenantID string) (*domain.Subscription, error) {
	now := s.now().UTC()
	return s.update(ctx, tenantID, func(_ repository.Repositories, sub *domain.Subscription) error {
		if !sub.Plan.IsPaid() {
			return apperrors.NewValidationError("no paid plan to resume", map[string]any{"plan": sub.Plan})
		}
		end := domain.IntervalMonthly.PeriodEnd(now)
		sub.Status = domain.StatusActive
		sub.CancelAtPeriodEnd = false
		sub.CurrentPeriodStart = &now
		sub.CurrentPeriodEnd = &end
		return nil
	})
}

// PayMonth records a paid monthly invoice for the month containing month.
// Paying the same month again updates the existing invoice.
func (s *Service) PayMonth(ctx context.Context, tenantID string, month time.Time, plan domain.Plan) (*domain.Invoice, error) {
	return s.recordPayment(ctx, tenantID, month, plan, domain.IntervalMonthly)
}

// PayYear records a paid yearly invoice starting at the month containing start.
func (s *Service) PayYear(ctx context.Context, tenantID string, start time.Time, plan domain.Plan) (*domain.Invoice, error) {
	return s.recordPayment(ctx, tenantID, start, plan, domain.IntervalYearly)
}

func (s *Service) recordPayment(ctx context.Context, tenantID string, at time.Time, plan domain.Plan, interval domain.BillingInterval) (*domain.Invoice, error) {
	now := s.now().UTC()
	if at.IsZero() {
		at = now
	}
	periodStart := MonthStart(at)
	periodEnd := interval.PeriodEnd(periodStart)

	var invoice *domain.Invoice
	_, err := s.update(ctx, tenantID, func(repos repository.Repositories, sub *domain.Subscription) error {
		if plan == "" {
			plan = sub.Plan
		}
		if !plan.IsPaid() {
			return apperrors.NewValidationError("a paid plan is required to record a payment", map[string]any{"plan": plan})
		}

		inv := &domain.Invoice{
			TenantID:    tenantID,
			Plan:        plan,
			Interval:    interval,
			PeriodStart: periodStart,
			PeriodEnd:   periodEnd,
			Amount:      s.Price(plan, interval),
			Currency:    s.cfg.Currency,
			PaidAt:      &now,
		}
		if err := repos.Invoices.UpsertPaid(ctx, inv); err != nil {
			return err
		}
		// an earlier invoice for this period start keeps its terms
		if inv.Interval != interval || inv.Plan != plan {
			return apperrors.NewConflict("period already invoiced with different terms", map[string]any{
				"period_start": periodStart,
				"plan":         inv.Plan,
				"interval":     inv.Interval,
			})
		}
		invoice = inv

		sub.Plan = inv.Plan
		sub.Status = domain.StatusActive
		sub.TrialEndsAt = nil
		sub.GraceUntil = nil
		if sub.CurrentPeriodEnd == nil || inv.PeriodEnd.After(*sub.CurrentPeriodEnd) {
			start, end := inv.PeriodStart, inv.PeriodEnd
			sub.CurrentPeriodStart = &start
			sub.CurrentPeriodEnd = &end
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("payment recorded",
		zap.String("tenant_id", tenantID),
		zap.String("interval", string(interval)),
		zap.Time("period_start", periodStart),
		zap.String("amount", invoice.Amount.StringFixed(2)))
	return invoice, nil
}

// ExtendGrace keeps a lapsed paid subscription usable until until.
func (s *Service) ExtendGrace(ctx context.Context, tenantID string, until time.Time) (*domain.Subscription, error) {
	if !until.After(s.now()) {
		return nil, apperrors.NewValidationError("grace must end in the future", map[string]any{"until": until})
	}
	until = until.UTC()
	return s.update(ctx, tenantID, func(_ repository.Repositories, sub *domain.Subscription) error {
		sub.GraceUntil = &until
		return nil
	})
}

// StartTrial attaches a FREE trial to a tenant using repos, which may be
// bound to a transaction.
func (s *Service) StartTrial(ctx context.Context, repos repository.Repositories, tenantID string) (*domain.Subscription, error) {
	sub := TrialSubscription(tenantID, s.now().UTC(), s.cfg.TrialPeriod())
	if err := repos.Subscriptions.Upsert(ctx, &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

// SyncSeats sets seats to the tenant's membership count.
func (s *Service) SyncSeats(ctx context.Context, repos repository.Repositories, tenantID string) error {
	seats, err := repos.Memberships.CountForTenant(ctx, tenantID)
	if err != nil {
		return err
	}
	if err := repos.Subscriptions.SetSeats(ctx, tenantID, seats); err != nil && !apperrors.IsNotFound(err) {
		return err
	}
	return nil
}

// Price returns the amount billed for one period of interval on plan.
func (s *Service) Price(plan domain.Plan, interval domain.BillingInterval) decimal.Decimal {
	var monthly decimal.Decimal
	switch plan {
	case domain.PlanPro:
		monthly = s.cfg.ProMonthlyPrice
	case domain.PlanBusiness:
		monthly = s.cfg.BusinessMonthlyPrice
	default:
		return decimal.Zero
	}
	if interval == domain.IntervalYearly {
		months := s.cfg.YearlyMonths
		if months <= 0 {
			months = 12
		}
		return monthly.Mul(decimal.NewFromInt(int64(months)))
	}
	return monthly
}

// update loads the subscription in a transaction, applies mutate and writes
// it back. Status changes are announced after commit.
func (s *Service) update(ctx context.Context, tenantID string, mutate func(repository.Repositories, *domain.Subscription) error) (*domain.Subscription, error) {
	var (
		updated *domain.Subscription
		before  domain.SubscriptionStatus
	)
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		sub, err := repos.Subscriptions.GetByTenant(ctx, tenantID)
		if err != nil {
			if apperrors.IsNotFound(err) {
				return apperrors.NewNotFound("subscription", map[string]any{"tenant_id": tenantID})
			}
			return err
		}
		before = sub.Status
		if err := mutate(repos, sub); err != nil {
			return err
		}
		if err := repos.Subscriptions.Upsert(ctx, sub); err != nil {
			return fmt.Errorf("upsert subscription: %w", err)
		}
		updated = sub
		return nil
	})
	if err != nil {
		return nil, err
	}
	if updated.Status != before {
		s.announce(ctx, updated, before)
	}
	return updated, nil
}

func (s *Service) announce(ctx context.Context, sub *domain.Subscription, from domain.SubscriptionStatus) {
	s.metrics.RecordTransition(string(from), string(sub.Status), "billing", 1)
	s.logger.Info("subscription status changed",
		zap.String("tenant_id", sub.TenantID),
		zap.String("from", string(from)),
		zap.String("to", string(sub.Status)),
		zap.String("source", "billing"))
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.New(events.EventSubscriptionStatusChanged, sub.TenantID, "", s.now().UTC(),
		events.SubscriptionStatusChangedPayload{
			OldStatus: from,
			NewStatus: sub.Status,
			Plan:      sub.Plan,
			Source:    "billing",
		}))
}
