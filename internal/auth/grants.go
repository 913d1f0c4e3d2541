package auth

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// GrantStore remembers consumed one-time grants until they expire.
type GrantStore interface {
	// ConsumeOnce records id and reports whether this was its first use.
	ConsumeOnce(ctx context.Context, id string, ttl time.Duration) (bool, error)
}

// RedisGrantStore keeps consumed grant ids in Redis with SET NX.
type RedisGrantStore struct {
	client *redis.Client
	prefix string
}

// NewRedisGrantStore builds a Redis-backed store.
func NewRedisGrantStore(client *redis.Client) *RedisGrantStore {
	return &RedisGrantStore{client: client, prefix: "grant:used:"}
}

// ConsumeOnce implements GrantStore.
func (s *RedisGrantStore) ConsumeOnce(ctx context.Context, id string, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		ttl = time.Second
	}
	return s.client.SetNX(ctx, s.prefix+id, 1, ttl).Result()
}

// MemoryGrantStore is the process-local fallback used without Redis.
type MemoryGrantStore struct {
	mu   sync.Mutex
	used map[string]time.Time
	now  func() time.Time
}

// NewMemoryGrantStore builds an empty store.
func NewMemoryGrantStore() *MemoryGrantStore {
	return &MemoryGrantStore{used: make(map[string]time.Time), now: time.Now}
}

// ConsumeOnce implements GrantStore.
func (s *MemoryGrantStore) ConsumeOnce(_ context.Context, id string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for key, exp := range s.used {
		if !exp.After(now) {
			delete(s.used, key)
		}
	}
	if _, seen := s.used[id]; seen {
		return false, nil
	}
	s.used[id] = now.Add(ttl)
	return true, nil
}
