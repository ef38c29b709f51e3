package cart

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SummaryCache is a best-effort write-through cache of computed cart
// summaries. Implementations must tolerate being stale, absent, or failed;
// a miss always falls through to authoritative recomputation, and no
// transaction ever spans a mutation and its cache write.
type SummaryCache interface {
	// Put stores a serialized summary with a TTL
	Put(ctx context.Context, tenantID, cartID uuid.UUID, payload []byte, ttl time.Duration) error
	// Get returns the cached payload and whether it was present
	Get(ctx context.Context, tenantID, cartID uuid.UUID) ([]byte, bool, error)
	// Invalidate drops the cached summary for a cart
	Invalidate(ctx context.Context, tenantID, cartID uuid.UUID) error
}
