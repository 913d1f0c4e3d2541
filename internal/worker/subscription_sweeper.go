package worker

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/perdeci/curtain-order-service/internal/billing"
)

const sweepLockKey = "lock:subscription-sweep"

// releaseScript deletes the lock only if this replica still owns it.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
    return redis.call("DEL", KEYS[1])
end
return 0`)

// SubscriptionSweeper runs the billing sweep on an interval. With a Redis
// client only one replica sweeps per tick.
type SubscriptionSweeper struct {
	sweeper  *billing.Sweeper
	redis    *redis.Client
	interval time.Duration
	logger   *zap.Logger
	now      func() time.Time
	owner    string
}

// NewSubscriptionSweeper constructs the worker. redisClient may be nil.
func NewSubscriptionSweeper(sweeper *billing.Sweeper, redisClient *redis.Client, interval time.Duration, logger *zap.Logger) *SubscriptionSweeper {
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval <= 0 {
		interval = time.Hour
	}
	return &SubscriptionSweeper{
		sweeper:  sweeper,
		redis:    redisClient,
		interval: interval,
		logger:   logger,
		now:      time.Now,
		owner:    uuid.NewString(),
	}
}

// Run sweeps once immediately and then on every tick until ctx is done.
func (w *SubscriptionSweeper) Run(ctx context.Context) {
	w.logger.Info("subscription sweeper started", zap.Duration("interval", w.interval))
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("subscription sweeper stopped")
			return
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

func (w *SubscriptionSweeper) tick(ctx context.Context) {
	acquired, release := w.acquire(ctx)
	if !acquired {
		w.logger.Debug("sweep skipped; another replica holds the lock")
		return
	}
	defer release()

	if _, err := w.sweeper.Sweep(ctx, w.now()); err != nil {
		w.logger.Error("subscription sweep failed", zap.Error(err))
	}
}

func (w *SubscriptionSweeper) acquire(ctx context.Context) (bool, func()) {
	if w.redis == nil {
		return true, func() {}
	}
	ok, err := w.redis.SetNX(ctx, sweepLockKey, w.owner, w.interval).Result()
	if err != nil {
		// Sweeps are idempotent; without the lock every replica sweeps.
		w.logger.Warn("sweep lock unavailable; sweeping without it", zap.Error(err))
		return true, func() {}
	}
	if !ok {
		return false, nil
	}
	return true, func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := releaseScript.Run(releaseCtx, w.redis, []string{sweepLockKey}, w.owner).Err(); err != nil {
			w.logger.Warn("release sweep lock failed", zap.Error(err))
		}
	}
}
