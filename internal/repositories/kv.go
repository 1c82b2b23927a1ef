package repositories

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// KeyValue is the cache surface used for the settings cache and one-time codes.
type KeyValue interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	// Take returns the value and removes the key in one step.
	Take(ctx context.Context, key string) (string, bool, error)
	Del(ctx context.Context, key string) error
}

type RedisKeyValue struct {
	cli    *redis.Client
	prefix string
}

func NewRedisKeyValue(cli *redis.Client, prefix string) *RedisKeyValue {
	return &RedisKeyValue{
		cli:    cli,
		prefix: prefix,
	}
}

func (r *RedisKeyValue) Get(ctx context.Context, key string) (string, bool, error) {
	result, err := r.cli.Get(ctx, r.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		log.Error("Error reading key from redis: ", err)
		return "", false, err
	}
	return result, true, nil
}

func (r *RedisKeyValue) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := r.cli.Set(ctx, r.prefix+key, value, ttl).Err(); err != nil {
		log.Error("Error writing key to redis: ", err)
		return err
	}
	return nil
}

func (r *RedisKeyValue) Take(ctx context.Context, key string) (string, bool, error) {
	result, err := r.cli.GetDel(ctx, r.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		log.Error("Error taking key from redis: ", err)
		return "", false, err
	}
	return result, true, nil
}

func (r *RedisKeyValue) Del(ctx context.Context, key string) error {
	return r.cli.Del(ctx, r.prefix+key).Err()
}

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

// MemoryKeyValue is the in-process KeyValue used when redis is not configured.
type MemoryKeyValue struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryKeyValue(now func() time.Time) *MemoryKeyValue {
	if now == nil {
		now = time.Now
	}
	return &MemoryKeyValue{
		entries: map[string]memoryEntry{},
		now:     now,
	}
}

func (m *MemoryKeyValue) lookup(key string) (string, bool) {
	e, ok := m.entries[key]
	if !ok {
		return "", false
	}
	if !e.expiresAt.IsZero() && !m.now().Before(e.expiresAt) {
		delete(m.entries, key)
		return "", false
	}
	return e.value, true
}

func (m *MemoryKeyValue) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.lookup(key)
	return v, ok, nil
}

func (m *MemoryKeyValue) Set(_ context.Context, key, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := memoryEntry{value: value}
	if ttl > 0 {
		e.expiresAt = m.now().Add(ttl)
	}
	m.entries[key] = e
	return nil
}

func (m *MemoryKeyValue) Take(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.lookup(key)
	delete(m.entries, key)
	return v, ok, nil
}

func (m *MemoryKeyValue) Del(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}
