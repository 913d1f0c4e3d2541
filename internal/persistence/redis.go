package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/perdeci/curtain-order-service/internal/config"
)

// Redis wraps the go-redis client. It backs single-use impersonation grants
// and the sweep lock; both have process-local fallbacks.
type Redis struct {
	Client *redis.Client
	logger *zap.Logger
}

// NewRedis builds a client without dialing. An empty address disables Redis.
func NewRedis(cfg config.RedisConfig, logger *zap.Logger) *Redis {
	if cfg.Addr == "" {
		logger.Warn("REDIS_ADDR not provided; single-use grants and sweep locks are process local")
		return &Redis{logger: logger}
	}
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})
	return &Redis{Client: client, logger: logger}
}

// Reachable pings Redis within timeout and logs the outcome.
func (r *Redis) Reachable(ctx context.Context, timeout time.Duration) bool {
	if !r.Enabled() {
		return false
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := r.Ping(pingCtx); err != nil {
		r.logger.Warn("redis unavailable; single-use grants and sweep locks are process local", zap.Error(err))
		return false
	}
	r.logger.Info("connected to redis")
	return true
}

// Close closes the client.
func (r *Redis) Close() {
	if r != nil && r.Client != nil {
		_ = r.Client.Close()
	}
}

// Ping verifies Redis connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	if !r.Enabled() {
		return errors.New("redis client not configured")
	}
	return r.Client.Ping(ctx).Err()
}

// Enabled reports whether a client is configured.
func (r *Redis) Enabled() bool {
	return r != nil && r.Client != nil
}
