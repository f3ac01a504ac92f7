package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"wastewatch/web/internal/models"
)

var ErrRecordNotFound = errors.New("session record not found")

// Records persists session state between requests. It stands in for the
// browser's local storage: one record per browser session, written and
// cleared as a unit.
type Records interface {
	Get(ctx context.Context, sessionID string) (models.SessionRecord, error)
	Put(ctx context.Context, record models.SessionRecord, ttl time.Duration) error
	Delete(ctx context.Context, sessionID string) error
}

const redisKeyPrefix = "session:"

type RedisRecords struct {
	client *redis.Client
}

func NewRedisRecords(client *redis.Client) *RedisRecords {
	return &RedisRecords{client: client}
}

func (r *RedisRecords) Get(ctx context.Context, sessionID string) (models.SessionRecord, error) {
	raw, err := r.client.Get(ctx, redisKeyPrefix+sessionID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return models.SessionRecord{}, ErrRecordNotFound
		}
		return models.SessionRecord{}, fmt.Errorf("get session: %w", err)
	}

	var record models.SessionRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return models.SessionRecord{}, fmt.Errorf("decode session: %w", err)
	}
	return record, nil
}

func (r *RedisRecords) Put(ctx context.Context, record models.SessionRecord, ttl time.Duration) error {
	raw, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := r.client.Set(ctx, redisKeyPrefix+record.ID, raw, ttl).Err(); err != nil {
		return fmt.Errorf("put session: %w", err)
	}
	return nil
}

func (r *RedisRecords) Delete(ctx context.Context, sessionID string) error {
	if err := r.client.Del(ctx, redisKeyPrefix+sessionID).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

type memoryEntry struct {
	record    models.SessionRecord
	expiresAt time.Time
}

// MemoryRecords is the single-process fallback when Redis is disabled, and
// the store used throughout tests. Expired entries linger until read or
// swept by the scheduler.
type MemoryRecords struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

func NewMemoryRecords() *MemoryRecords {
	return &MemoryRecords{entries: make(map[string]memoryEntry)}
}

func (m *MemoryRecords) Get(ctx context.Context, sessionID string) (models.SessionRecord, error) {
	m.mu.RLock()
	entry, ok := m.entries[sessionID]
	m.mu.RUnlock()

	if !ok {
		return models.SessionRecord{}, ErrRecordNotFound
	}
	if !entry.expiresAt.IsZero() && entry.expiresAt.Before(time.Now()) {
		_ = m.Delete(ctx, sessionID)
		return models.SessionRecord{}, ErrRecordNotFound
	}
	return entry.record, nil
}

func (m *MemoryRecords) Put(_ context.Context, record models.SessionRecord, ttl time.Duration) error {
	entry := memoryEntry{record: record}
	if ttl > 0 {
		entry.expiresAt = time.Now().Add(ttl)
	}

	m.mu.Lock()
	m.entries[record.ID] = entry
	m.mu.Unlock()
	return nil
}

func (m *MemoryRecords) Delete(_ context.Context, sessionID string) error {
	m.mu.Lock()
	delete(m.entries, sessionID)
	m.mu.Unlock()
	return nil
}

// Sweep drops expired entries and returns how many were removed.
func (m *MemoryRecords) Sweep(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, entry := range m.entries {
		if !entry.expiresAt.IsZero() && entry.expiresAt.Before(now) {
			delete(m.entries, id)
			removed++
		}
	}
	return removed
}
