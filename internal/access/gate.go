package access

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/perdeci/curtain-order-service/internal/billing"
	"github.com/perdeci/curtain-order-service/internal/domain"
	"github.com/perdeci/curtain-order-service/internal/events"
	"github.com/perdeci/curtain-order-service/internal/observability"
	"github.com/perdeci/curtain-order-service/internal/repository"
	apperrors "github.com/perdeci/curtain-order-service/pkg/util/errorutil"
)

// Gate enforces an active subscription on tenant-scoped operations.
type Gate struct {
	resolver   *Resolver
	subs       repository.SubscriptionRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
	metrics    *observability.Metrics
	now        func() time.Time
}

// GateDependencies bundles collaborators for the gate.
type GateDependencies struct {
	Resolver      *Resolver
	Subscriptions repository.SubscriptionRepository
	Dispatcher    events.Dispatcher
	Logger        *zap.Logger
	Metrics       *observability.Metrics
	Clock         func() time.Time
}

// NewGate constructs the gate.
func NewGate(deps GateDependencies) *Gate {
	g := &Gate{
		resolver:   deps.Resolver,
		subs:       deps.Subscriptions,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		metrics:    deps.Metrics,
		now:        deps.Clock,
	}
	if g.logger == nil {
		g.logger = zap.NewNop()
	}
	if g.now == nil {
		g.now = time.Now
	}
	return g
}

// RequireActiveTenant returns the principal's tenant if its subscription
// admits access, persisting any lapse it detects.
func (g *Gate) RequireActiveTenant(ctx context.Context, p *domain.Principal) (string, error) {
	tenantID, err := g.resolver.ResolveTenantID(ctx, p)
	if err != nil {
		if errors.Is(err, apperrors.ErrNoTenant) {
			return "", g.denied(apperrors.NewUnauthorized("no tenant for session"))
		}
		return "", err
	}

	sub, err := g.subs.GetByTenant(ctx, tenantID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return "", g.denied(apperrors.NewPaymentRequired("tenant has no subscription", map[string]any{"tenant_id": tenantID}))
		}
		return "", err
	}

	now := g.now()
	decision := billing.Evaluate(*sub, now)
	if decision.Transition != nil {
		if err := g.persist(ctx, sub, *decision.Transition); err != nil {
			return "", err
		}
	}
	if !decision.Allow {
		return "", g.denied(decision.Denial)
	}
	return tenantID, nil
}

func (g *Gate) persist(ctx context.Context, sub *domain.Subscription, to domain.SubscriptionStatus) error {
	changed, err := g.subs.TransitionStatus(ctx, sub.TenantID, sub.Status, to)
	if err != nil {
		g.logger.Error("persist subscription transition failed",
			zap.String("tenant_id", sub.TenantID),
			zap.String("to", string(to)),
			zap.Error(err))
		return apperrors.NewInternalError(fmt.Errorf("persist subscription transition: %w", err))
	}
	if !changed {
		return nil
	}
	g.metrics.RecordTransition(string(sub.Status), string(to), "gate", 1)
	g.logger.Info("subscription status changed",
		zap.String("tenant_id", sub.TenantID),
		zap.String("from", string(sub.Status)),
		zap.String("to", string(to)),
		zap.String("source", "gate"))
	if g.dispatcher != nil {
		_ = g.dispatcher.Publish(ctx, events.New(events.EventSubscriptionStatusChanged, sub.TenantID, "", g.now().UTC(),
			events.SubscriptionStatusChangedPayload{
				OldStatus: sub.Status,
				NewStatus: to,
				Plan:      sub.Plan,
				Source:    "gate",
			}))
	}
	return nil
}

func (g *Gate) denied(err error) error {
	g.metrics.RecordDenial("active_tenant", apperrors.ToDomainError(err).Code)
	return err
}
