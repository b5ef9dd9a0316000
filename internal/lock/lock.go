// Package lock provides the short-lived mutual-exclusion guard used to
// reject duplicate order submissions (double-click, double-POST) while one
// is still in flight.
package lock

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

type Locker interface {
	// Acquire takes the key for at most ttl. It returns false when the key
	// is already held.
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

type RedisLocker struct {
	Client *redis.Client
}

func NewRedisLocker(addr string) *RedisLocker {
	return &RedisLocker{Client: redis.NewClient(&redis.Options{Addr: addr})}
}

func (l *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return l.Client.SetNX(ctx, "lock:"+key, 1, ttl).Result()
}

func (l *RedisLocker) Release(ctx context.Context, key string) error {
	return l.Client.Del(ctx, "lock:"+key).Err()
}

// MemoryLocker is the single-process fallback used when Redis is not
// configured, and in tests.
type MemoryLocker struct {
	mu    sync.Mutex
	until map[string]time.Time
}

func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{until: make(map[string]time.Time)}
}

func (l *MemoryLocker) Acquire(_ context.Context, key string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if exp, ok := l.until[key]; ok && now.Before(exp) {
		return false, nil
	}
	l.until[key] = now.Add(ttl)
	return true, nil
}

func (l *MemoryLocker) Release(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.until, key)
	return nil
}
