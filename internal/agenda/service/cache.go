package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"

	"jdpanel/pkg/logger"
	"jdpanel/pkg/model"
)

const snapshotKeyPrefix = "agenda:snapshot:"

// Snapshot is one tenant's mirror of the gateway, replaced wholesale on refresh.
type Snapshot struct {
	EventTypes []model.EventType `json:"event_types"`
	Bookings   []model.Booking   `json:"bookings"`
	FetchedAt  time.Time         `json:"fetched_at"`
}

// storedBooking keeps the raw names that model.Booking hides from clients;
// the dashboard needs them after a round trip through the store.
type storedBooking struct {
	model.Booking
	FormName     string `json:"form_name,omitempty"`
	AttendeeName string `json:"attendee_name,omitempty"`
}

type storedSnapshot struct {
	EventTypes []model.EventType `json:"event_types"`
	Bookings   []storedBooking   `json:"bookings"`
	FetchedAt  time.Time         `json:"fetched_at"`
}

func encodeSnapshot(snap Snapshot) ([]byte, error) {
	stored := storedSnapshot{
		EventTypes: snap.EventTypes,
		Bookings:   make([]storedBooking, len(snap.Bookings)),
		FetchedAt:  snap.FetchedAt,
	}
	for i, b := range snap.Bookings {
		stored.Bookings[i] = storedBooking{Booking: b, FormName: b.FormName, AttendeeName: b.AttendeeName}
	}
	return json.Marshal(stored)
}

func decodeSnapshot(raw []byte) (Snapshot, error) {
	var stored storedSnapshot
	if err := json.Unmarshal(raw, &stored); err != nil {
		return Snapshot{}, err
	}
	snap := Snapshot{
		EventTypes: stored.EventTypes,
		Bookings:   make([]model.Booking, len(stored.Bookings)),
		FetchedAt:  stored.FetchedAt,
	}
	if snap.EventTypes == nil {
		snap.EventTypes = []model.EventType{}
	}
	for i, b := range stored.Bookings {
		snap.Bookings[i] = b.Booking
		snap.Bookings[i].FormName = b.FormName
		snap.Bookings[i].AttendeeName = b.AttendeeName
	}
	return snap, nil
}

// snapshotStore is the part of *redis.Client the mirror uses.
type snapshotStore interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// tenantCache holds one JSON snapshot per tenant, shared by every agenda
// replica pointed at the same Redis. Store failures read as a miss.
type tenantCache struct {
	store snapshotStore
	ttl   time.Duration
	log   *logger.Logger
}

func newTenantCache(store snapshotStore, ttl time.Duration, log *logger.Logger) *tenantCache {
	return &tenantCache{store: store, ttl: ttl, log: log}
}

func snapshotKey(tenantID string) string {
	return snapshotKeyPrefix + tenantID
}

// get returns the tenant snapshot if it is younger than the ttl.
func (c *tenantCache) get(ctx context.Context, tenantID string, now time.Time) (Snapshot, bool) {
	raw, err := c.store.Get(ctx, snapshotKey(tenantID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn("Agenda cache lookup failed", "tenant_id", tenantID, "error", err)
		}
		return Snapshot{}, false
	}

	snap, err := decodeSnapshot(raw)
	if err != nil {
		c.log.Warn("Discarding corrupt agenda snapshot", "tenant_id", tenantID, "error", err)
		return Snapshot{}, false
	}
	if now.Sub(snap.FetchedAt) > c.ttl {
		return Snapshot{}, false
	}
	return snap, true
}

func (c *tenantCache) put(ctx context.Context, tenantID string, snap Snapshot) {
	c.write(ctx, tenantID, snap, c.ttl)
}

// patch swaps in the reducer output for the tenant's bookings and keeps
// the snapshot's remaining lifetime. It is a no-op when the tenant has no
// live snapshot. If the write fails the entry is dropped so the next read
// refetches instead of serving the pre-mutation state.
func (c *tenantCache) patch(ctx context.Context, tenantID string, now time.Time, reduce func([]model.Booking) []model.Booking) {
	snap, ok := c.get(ctx, tenantID, now)
	if !ok {
		return
	}
	remaining := c.ttl - now.Sub(snap.FetchedAt)
	if remaining <= 0 {
		return
	}

	snap.Bookings = reduce(snap.Bookings)
	if !c.write(ctx, tenantID, snap, remaining) {
		c.invalidate(ctx, tenantID)
	}
}

func (c *tenantCache) invalidate(ctx context.Context, tenantID string) {
	if err := c.store.Del(ctx, snapshotKey(tenantID)).Err(); err != nil {
		c.log.Warn("Failed to drop agenda snapshot", "tenant_id", tenantID, "error", err)
	}
}

func (c *tenantCache) write(ctx context.Context, tenantID string, snap Snapshot, ttl time.Duration) bool {
	raw, err := encodeSnapshot(snap)
	if err != nil {
		c.log.Error("Failed to encode agenda snapshot", "tenant_id", tenantID, "error", err)
		return false
	}
	if err := c.store.Set(ctx, snapshotKey(tenantID), raw, ttl).Err(); err != nil {
		c.log.Warn("Failed to store agenda snapshot", "tenant_id", tenantID, "error", err)
		return false
	}
	return true
}

// memoryStore stands in for Redis when REDIS_ADDR is unset, which only
// suits a single agenda replica. Expired entries are dropped on read.
type memoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (m *memoryStore) Get(_ context.Context, key string) *redis.StringCmd {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[key]
	if ok && !entry.expiresAt.IsZero() && !m.now().Before(entry.expiresAt) {
		delete(m.entries, key)
		ok = false
	}
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(entry.value, nil)
}

func (m *memoryStore) Set(_ context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	var entry memoryEntry
	switch v := value.(type) {
	case []byte:
		entry.value = string(v)
	case string:
		entry.value = v
	default:
		return redis.NewStatusResult("", fmt.Errorf("memory store: unsupported value type %T", value))
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if expiration > 0 {
		entry.expiresAt = m.now().Add(expiration)
	}
	m.entries[key] = entry
	return redis.NewStatusResult("OK", nil)
}

func (m *memoryStore) Del(_ context.Context, keys ...string) *redis.IntCmd {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for _, key := range keys {
		if _, ok := m.entries[key]; ok {
			delete(m.entries, key)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}
