package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// Marker remembers which (entry, threshold) pairs were already notified.
type Marker interface {
	// Claim returns true exactly once per (entryID, threshold).
	Claim(ctx context.Context, entryID string, threshold int) (bool, error)
}

// MemoryMarker keeps claims in process memory.
type MemoryMarker struct {
	mu     sync.Mutex
	claims map[string]struct{}
}

func NewMemoryMarker() *MemoryMarker {
	return &MemoryMarker{claims: make(map[string]struct{})}
}

func (m *MemoryMarker) Claim(_ context.Context, entryID string, threshold int) (bool, error) {
	key := markerKey(entryID, threshold)
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.claims[key]; ok {
		return false, nil
	}
	m.claims[key] = struct{}{}
	return true, nil
}

// RedisMarker shares claims between processes with SETNX.
type RedisMarker struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisMarker returns a marker whose claims expire after ttl.
func NewRedisMarker(client *redis.Client, ttl time.Duration) *RedisMarker {
	return &RedisMarker{client: client, ttl: ttl}
}

func (m *RedisMarker) Claim(ctx context.Context, entryID string, threshold int) (bool, error) {
	ok, err := m.client.SetNX(ctx, markerKey(entryID, threshold), time.Now().Unix(), m.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx: %w", err)
	}
	return ok, nil
}

func markerKey(entryID string, threshold int) string {
	return fmt.Sprintf("notified:%s:%d", entryID, threshold)
}
