package cartstore

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Store is the optimistic client mirror of one cart session. Mutations
// update the mirror immediately and enqueue signed deltas into a per-store
// batching actor; the actor's flush pushes the collapsed batch to the
// server. Server snapshots replace the mirror only when the reconciliation
// guard accepts them.
type Store struct {
	api    ServerAPI
	scope  ScopeStore
	logger *zap.Logger
	window time.Duration
	grace  time.Duration
	clock  func() time.Time

	mu        sync.Mutex
	tenantID  uuid.UUID
	mode      string
	tableCode string
	actorID   string
	cartID    uuid.UUID
	items     []Item
	totals    Totals
	currency  string
	hint      taxHint
	state     SyncState
	flight    *ensureFlight

	batch *batcher
}

// ensureFlight is the single-flight guard for cart readiness: concurrent
// callers await one in-flight operation instead of racing to create carts.
type ensureFlight struct {
	done chan struct{}
	id   uuid.UUID
	err  error
}

// Option configures a Store
type Option func(*Store)

// WithScopeStore sets the persistence for the scope → cart-id mapping
func WithScopeStore(scope ScopeStore) Option {
	return func(s *Store) { s.scope = scope }
}

// WithLogger sets the store's logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// WithCoalescingWindow overrides the mutation coalescing window
func WithCoalescingWindow(window time.Duration) Option {
	return func(s *Store) { s.window = window }
}

// WithReconcileGrace overrides the reconciliation grace window
func WithReconcileGrace(grace time.Duration) Option {
	return func(s *Store) { s.grace = grace }
}

func withClock(clock func() time.Time) Option {
	return func(s *Store) { s.clock = clock }
}

// New creates a store speaking to the given server API
func New(api ServerAPI, opts ...Option) *Store {
	s := &Store{
		api:    api,
		scope:  NewMemoryScopeStore(),
		logger: zap.NewNop(),
		window: DefaultCoalescingWindow,
		grace:  DefaultReconcileGrace,
		clock:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.batch = newBatcher(s.window, s.flushBatch)
	return s
}

// Close flushes pending deltas and stops the batching actor
func (s *Store) Close() {
	s.batch.close()
}

// SetServerContext establishes the cart scope: tenant, service mode, and
// the table code or actor owning the session. A remembered cart id for the
// same scope is resumed; an initial summary seeds the mirror.
func (s *Store) SetServerContext(tenantID uuid.UUID, mode, tableCode, actorID string, cartID *uuid.UUID, initial *Summary) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tenantID = tenantID
	s.mode = mode
	s.tableCode = tableCode
	s.actorID = actorID

	switch {
	case cartID != nil && *cartID != uuid.Nil:
		s.cartID = *cartID
		if err := s.scope.Save(s.scopeKeyLocked(), *cartID); err != nil {
			s.logger.Debug("scope save failed", zap.Error(err))
		}
	default:
		if remembered, ok := s.scope.Load(s.scopeKeyLocked()); ok {
			s.cartID = remembered
		}
	}

	if initial != nil {
		s.adoptSummaryLocked(initial)
	}
}

func (s *Store) scopeKeyLocked() string {
	return ScopeKey(s.tenantID, s.tableCode, s.actorID)
}

// CartID returns the current cart id, or uuid.Nil when no cart is ready
func (s *Store) CartID() uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cartID
}

// Items returns a copy of the mirror's line items
func (s *Store) Items() []Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Item, len(s.items))
	copy(out, s.items)
	return out
}

// Totals returns the mirror's current totals
func (s *Store) Totals() Totals {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totals
}

// Currency returns the currency of the last server snapshot
func (s *Store) Currency() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currency
}

// EnsureCartReady resolves a usable cart id, creating a cart server-side
// when needed. Concurrent callers share one in-flight operation. When a
// remembered cart id turns out to be stale, it is cleared and exactly one
// retry creates a fresh cart.
func (s *Store) EnsureCartReady(ctx context.Context, forceNew bool) (uuid.UUID, error) {
	s.mu.Lock()
	if s.flight != nil {
		flight := s.flight
		s.mu.Unlock()
		select {
		case <-flight.done:
			return flight.id, flight.err
		case <-ctx.Done():
			return uuid.Nil, ctx.Err()
		}
	}
	flight := &ensureFlight{done: make(chan struct{})}
	s.flight = flight
	s.mu.Unlock()

	id, err := s.ensureCart(ctx, forceNew)

	s.mu.Lock()
	flight.id = id
	flight.err = err
	s.flight = nil
	s.mu.Unlock()
	close(flight.done)

	return id, err
}

func (s *Store) ensureCart(ctx context.Context, forceNew bool) (uuid.UUID, error) {
	s.mu.Lock()
	remembered := s.cartID
	mode := s.mode
	tableCode := s.tableCode
	s.mu.Unlock()

	if remembered != uuid.Nil && !forceNew {
		summary, err := s.api.GetCart(ctx, remembered)
		switch {
		case err == nil:
			s.mu.Lock()
			s.adoptGuardedLocked(summary)
			s.mu.Unlock()
			return summary.CartID, nil
		case IsCartNotFound(err):
			// Stale cart: forget it and fall through to the single
			// creation retry below.
			s.logger.Info("remembered cart is stale, creating a fresh one",
				zap.String("cart_id", remembered.String()))
			s.forgetCart()
		default:
			return uuid.Nil, err
		}
	}

	summary, err := s.api.EnsureCart(ctx, mode, tableCode)
	if err != nil {
		return uuid.Nil, err
	}

	s.mu.Lock()
	s.adoptGuardedLocked(summary)
	key := s.scopeKeyLocked()
	s.mu.Unlock()
	if err := s.scope.Save(key, summary.CartID); err != nil {
		s.logger.Debug("scope save failed", zap.Error(err))
	}
	return summary.CartID, nil
}

func (s *Store) forgetCart() {
	s.mu.Lock()
	s.cartID = uuid.Nil
	key := s.scopeKeyLocked()
	s.mu.Unlock()
	if err := s.scope.Clear(key); err != nil {
		s.logger.Debug("scope clear failed", zap.Error(err))
	}
}

// adoptSummaryLocked replaces the mirror with a server snapshot. Caller
// holds the lock.
func (s *Store) adoptSummaryLocked(summary *Summary) {
	s.cartID = summary.CartID
	s.items = append([]Item(nil), summary.Items...)
	s.totals = summary.Totals
	s.currency = summary.Currency
	if len(summary.Totals.TaxBreakdown) > 0 || summary.Totals.PricingMode != "" {
		s.hint = hintFromTotals(summary.Totals)
	}
}

// adoptGuardedLocked folds a server snapshot in through the reconciliation
// guard. The cart identity and tax hint are always taken; items and totals
// only when the guard accepts, so a verification read during a pending
// flush can never wipe optimistic local items. Caller holds the lock.
func (s *Store) adoptGuardedLocked(summary *Summary) {
	if ShouldAcceptServerSnapshot(s.items, summary.Items, s.state, s.grace, s.clock()) {
		s.adoptSummaryLocked(summary)
		return
	}
	s.cartID = summary.CartID
	s.currency = summary.Currency
	if len(summary.Totals.TaxBreakdown) > 0 || summary.Totals.PricingMode != "" {
		s.hint = hintFromTotals(summary.Totals)
		s.totals = recomputeTotals(s.items, s.hint)
	}
}

// Add increases an item's quantity optimistically and queues the delta
func (s *Store) Add(item Item, qty int) {
	if qty <= 0 {
		return
	}
	s.mu.Lock()
	idx := s.indexOfLocked(item.MenuItemID)
	if idx >= 0 {
		s.items[idx].Quantity = clampQuantity(s.items[idx].Quantity + qty)
		if item.Name != "" {
			s.items[idx].Name = item.Name
		}
	} else {
		s.items = append(s.items, Item{
			MenuItemID: item.MenuItemID,
			Name:       item.Name,
			Quantity:   clampQuantity(qty),
			UnitPrice:  item.UnitPrice,
			ImageURL:   item.ImageURL,
		})
	}
	s.afterMutationLocked()
	name, price := s.rowInfoLocked(item.MenuItemID)
	s.mu.Unlock()

	s.batch.enqueue(batchRow{MenuItemID: item.MenuItemID, Name: name, UnitPrice: price, Delta: qty})
}

// UpdateQty sets an item's absolute quantity optimistically and queues the
// signed difference.
func (s *Store) UpdateQty(menuItemID uuid.UUID, qty int) {
	qty = clampQuantity(qty)

	s.mu.Lock()
	idx := s.indexOfLocked(menuItemID)
	current := 0
	if idx >= 0 {
		current = s.items[idx].Quantity
	}
	delta := qty - current
	if delta == 0 {
		s.mu.Unlock()
		return
	}
	if qty == 0 && idx >= 0 {
		s.items = append(s.items[:idx], s.items[idx+1:]...)
	} else if idx >= 0 {
		s.items[idx].Quantity = qty
	} else {
		s.items = append(s.items, Item{MenuItemID: menuItemID, Quantity: qty})
	}
	s.afterMutationLocked()
	name, price := s.rowInfoLocked(menuItemID)
	s.mu.Unlock()

	s.batch.enqueue(batchRow{MenuItemID: menuItemID, Name: name, UnitPrice: price, Delta: delta})
}

// Remove drops an item from the mirror and queues its removal
func (s *Store) Remove(menuItemID uuid.UUID) {
	s.UpdateQty(menuItemID, 0)
}

func (s *Store) indexOfLocked(menuItemID uuid.UUID) int {
	for i := range s.items {
		if s.items[i].MenuItemID == menuItemID {
			return i
		}
	}
	return -1
}

func (s *Store) rowInfoLocked(menuItemID uuid.UUID) (string, decimal.Decimal) {
	if idx := s.indexOfLocked(menuItemID); idx >= 0 {
		return s.items[idx].Name, s.items[idx].UnitPrice
	}
	return "", decimal.Zero
}

func (s *Store) afterMutationLocked() {
	s.totals = recomputeTotals(s.items, s.hint)
	s.state.LastMutationAt = s.clock()
}

// Flush pushes any buffered deltas immediately, bypassing the remainder of
// the coalescing window.
func (s *Store) Flush() {
	s.batch.flushNow()
}

// flushBatch is the batching actor's flush callback. It splits the
// collapsed batch: net-positive deltas go through the increment operation;
// zero or negative nets are sent as absolute sets using the mirror's
// post-optimistic quantity, so a decrement can never erase a concurrent
// increment from another session.
func (s *Store) flushBatch(rows map[uuid.UUID]batchRow) {
	ctx := context.Background()

	// Arm the guard before the cart verification read. Ensuring the cart
	// fetches a server snapshot, and for a pending decrement the server is
	// ahead of the mirror; an unguarded adoption would overwrite the very
	// quantities this batch is about to send.
	s.mu.Lock()
	s.state.InFlight = true
	s.mu.Unlock()

	cartID, err := s.EnsureCartReady(ctx, false)
	if err != nil {
		s.logger.Warn("flush aborted, cart not ready", zap.Error(err))
		s.recordFlushResult(err)
		return
	}

	var increments []DeltaRow
	var absolutes []SetRow

	s.mu.Lock()
	for _, row := range rows {
		if row.Delta > 0 {
			increments = append(increments, DeltaRow{
				MenuItemID: row.MenuItemID,
				Name:       row.Name,
				Delta:      row.Delta,
				UnitPrice:  row.UnitPrice,
			})
			continue
		}
		qty := 0
		if idx := s.indexOfLocked(row.MenuItemID); idx >= 0 {
			qty = s.items[idx].Quantity
		}
		absolutes = append(absolutes, SetRow{
			MenuItemID: row.MenuItemID,
			Name:       row.Name,
			Quantity:   qty,
			UnitPrice:  row.UnitPrice,
		})
	}
	s.mu.Unlock()

	var flushErr error
	if len(increments) > 0 {
		if err := s.api.IncrementItems(ctx, cartID, increments); err != nil {
			flushErr = err
		}
	}
	if flushErr == nil && len(absolutes) > 0 {
		if err := s.api.SetItems(ctx, cartID, absolutes); err != nil {
			flushErr = err
		}
	}
	if flushErr != nil {
		s.logger.Warn("batch flush failed", zap.Error(flushErr))
	}
	s.recordFlushResult(flushErr)
}

func (s *Store) recordFlushResult(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.InFlight = false
	if err != nil {
		s.state.LastFailureAt = s.clock()
		return
	}
	s.state.LastFlushAt = s.clock()
}

// Refresh pulls the server snapshot and folds it into the mirror if the
// reconciliation guard accepts it. A stale cart id is forgotten silently;
// the next mutation or EnsureCartReady recreates the cart.
func (s *Store) Refresh(ctx context.Context) error {
	s.mu.Lock()
	cartID := s.cartID
	s.mu.Unlock()
	if cartID == uuid.Nil {
		return nil
	}

	summary, err := s.api.GetCart(ctx, cartID)
	if err != nil {
		if IsCartNotFound(err) {
			s.forgetCart()
			return nil
		}
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !ShouldAcceptServerSnapshot(s.items, summary.Items, s.state, s.grace, s.clock()) {
		return nil
	}
	s.adoptSummaryLocked(summary)
	return nil
}

// Checkout flushes pending deltas, finalizes the cart server-side, and
// clears all local state on success. The receipt carries a snapshot of the
// items so the caller can render them after the clear. Terminal checkout
// failures (empty cart, cart no longer open) also clear local state before
// the error is returned; any other error leaves the mirror untouched.
func (s *Store) Checkout(ctx context.Context, customerName, tableCode string) (*Receipt, error) {
	// Flush before the cart lookup: the flush ensures the cart itself with
	// the reconcile guard armed, so buffered decrements cannot be clobbered
	// by the verification read.
	s.batch.flushNow()
	cartID, err := s.EnsureCartReady(ctx, false)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	snapshot := make([]Item, len(s.items))
	copy(snapshot, s.items)
	if tableCode == "" {
		tableCode = s.tableCode
	}
	s.mu.Unlock()

	receipt, err := s.api.Checkout(ctx, cartID, customerName, tableCode)
	if err != nil {
		if isTerminalCheckout(err) {
			s.clearLocal()
		}
		return nil, err
	}

	if len(receipt.Items) == 0 {
		receipt.Items = snapshot
	}
	s.clearLocal()
	return receipt, nil
}

func (s *Store) clearLocal() {
	s.mu.Lock()
	s.cartID = uuid.Nil
	s.items = nil
	s.totals = Totals{}
	s.state = SyncState{}
	key := s.scopeKeyLocked()
	s.mu.Unlock()
	if err := s.scope.Clear(key); err != nil {
		s.logger.Debug("scope clear failed", zap.Error(err))
	}
}
