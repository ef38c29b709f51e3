package cache

import (
	"context"
	"sync"
	"time"

	"github.com/dinecart/backend/internal/domain/cart"
	"github.com/google/uuid"
)

// InMemorySummaryCache implements cart.SummaryCache with a process-local map.
// Suitable for single-instance deployments and testing; cached state is not
// shared across instances.
type InMemorySummaryCache struct {
	mu      sync.RWMutex
	entries map[string]inMemoryEntry
}

type inMemoryEntry struct {
	payload   []byte
	expiresAt time.Time
}

// NewInMemorySummaryCache creates a new in-memory summary cache
func NewInMemorySummaryCache() *InMemorySummaryCache {
	return &InMemorySummaryCache{
		entries: make(map[string]inMemoryEntry),
	}
}

func summaryKey(tenantID, cartID uuid.UUID) string {
	return tenantID.String() + ":" + cartID.String()
}

// Put stores a serialized summary with a TTL
func (c *InMemorySummaryCache) Put(_ context.Context, tenantID, cartID uuid.UUID, payload []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	buf := make([]byte, len(payload))
	copy(buf, payload)
	c.entries[summaryKey(tenantID, cartID)] = inMemoryEntry{
		payload:   buf,
		expiresAt: time.Now().Add(ttl),
	}
	return nil
}

// Get returns the cached payload and whether it was present and unexpired
func (c *InMemorySummaryCache) Get(_ context.Context, tenantID, cartID uuid.UUID) ([]byte, bool, error) {
	c.mu.RLock()
	entry, ok := c.entries[summaryKey(tenantID, cartID)]
	c.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if time.Now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, summaryKey(tenantID, cartID))
		c.mu.Unlock()
		return nil, false, nil
	}
	return entry.payload, true, nil
}

// Invalidate drops the cached summary for a cart
func (c *InMemorySummaryCache) Invalidate(_ context.Context, tenantID, cartID uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, summaryKey(tenantID, cartID))
	return nil
}

// Len returns the number of live entries (for tests and monitoring)
func (c *InMemorySummaryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Ensure InMemorySummaryCache implements cart.SummaryCache
var _ cart.SummaryCache = (*InMemorySummaryCache)(nil)
