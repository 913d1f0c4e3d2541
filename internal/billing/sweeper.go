package billing

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/perdeci/curtain-order-service/internal/domain"
	"github.com/perdeci/curtain-order-service/internal/events"
	"github.com/perdeci/curtain-order-service/internal/observability"
	"github.com/perdeci/curtain-order-service/internal/repository"
)

// SweepResult counts rows moved by one sweep.
type SweepResult struct {
	TrialsExpired int64
	MarkedPastDue int64
}

// Sweeper applies the bulk transitions. Both statements only move rows out
// of non-terminal states, so repeated or concurrent runs converge with the
// read path.
type Sweeper struct {
	subs       repository.SubscriptionRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
	metrics    *observability.Metrics
}

// NewSweeper constructs a sweeper. dispatcher may be nil.
func NewSweeper(subs repository.SubscriptionRepository, dispatcher events.Dispatcher, logger *zap.Logger, metrics *observability.Metrics) *Sweeper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sweeper{subs: subs, dispatcher: dispatcher, logger: logger, metrics: metrics}
}

// Sweep runs both transitions as of now.
func (s *Sweeper) Sweep(ctx context.Context, now time.Time) (SweepResult, error) {
	var result SweepResult

	expired, err := s.subs.ExpireTrials(ctx, now)
	if err != nil {
		s.metrics.RecordSweep("error")
		return result, fmt.Errorf("expire trials: %w", err)
	}
	result.TrialsExpired = int64(len(expired))
	s.metrics.RecordTransition(string(domain.StatusTrialing), string(domain.StatusCanceled), "sweep", result.TrialsExpired)
	s.announce(ctx, now, expired)

	pastDue, err := s.subs.MarkPastDue(ctx, now)
	if err != nil {
		s.metrics.RecordSweep("error")
		return result, fmt.Errorf("mark past due: %w", err)
	}
	result.MarkedPastDue = int64(len(pastDue))
	for _, c := range pastDue {
		s.metrics.RecordTransition(string(c.From), string(c.To), "sweep", 1)
	}
	s.announce(ctx, now, pastDue)

	s.metrics.RecordSweep("ok")
	s.logger.Info("subscription sweep finished",
		zap.Time("as_of", now),
		zap.Int64("trials_expired", result.TrialsExpired),
		zap.Int64("marked_past_due", result.MarkedPastDue))
	return result, nil
}

func (s *Sweeper) announce(ctx context.Context, at time.Time, changes []domain.StatusChange) {
	if s.dispatcher == nil {
		return
	}
	at = at.UTC()
	for _, c := range changes {
		err := s.dispatcher.Publish(ctx, events.New(events.EventSubscriptionStatusChanged, c.TenantID, "", at,
			events.SubscriptionStatusChangedPayload{
				OldStatus: c.From,
				NewStatus: c.To,
				Plan:      c.Plan,
				Source:    "sweep",
			}))
		if err != nil {
			s.logger.Warn("failed to publish sweep transition", zap.String("tenant_id", c.TenantID), zap.Error(err))
		}
	}
}
