package cartstore

import "time"

// DefaultReconcileGrace is the window after a flush, failure, or local
// mutation during which suspicious server snapshots are rejected.
const DefaultReconcileGrace = 2 * time.Second

// SyncState tracks the mirror's recent interaction with the server. It is
// the input to the snapshot acceptance decision.
type SyncState struct {
	LastMutationAt time.Time
	LastFlushAt    time.Time
	LastFailureAt  time.Time
	InFlight       bool
}

func within(t, now time.Time, window time.Duration) bool {
	return !t.IsZero() && now.Sub(t) < window
}

// ShouldAcceptServerSnapshot decides whether a server snapshot may replace
// the local mirror. It rejects the snapshot when:
//   - a batch is currently in flight, or
//   - a batch flushed or failed within the grace window and the server's
//     quantity total is lower than the local total (server is behind), or
//   - the server reports an empty cart right after a local mutation
//     (likely not yet committed).
//
// The function is pure: all timing comes from the supplied clock value.
func ShouldAcceptServerSnapshot(local, server []Item, state SyncState, grace time.Duration, now time.Time) bool {
	if state.InFlight {
		return false
	}
	if grace <= 0 {
		grace = DefaultReconcileGrace
	}

	localQty := totalQuantity(local)
	serverQty := totalQuantity(server)

	recentFlush := within(state.LastFlushAt, now, grace) || within(state.LastFailureAt, now, grace)
	if recentFlush && serverQty < localQty {
		return false
	}
	if len(server) == 0 && len(local) > 0 && within(state.LastMutationAt, now, grace) {
		return false
	}
	return true
}
