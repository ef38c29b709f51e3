package handler

import (
	"context"
	"sync"

	"github.com/dinecart/backend/internal/domain/cart"
	"github.com/dinecart/backend/internal/domain/shared"
	"github.com/dinecart/backend/internal/domain/tax"
	"github.com/google/uuid"
)

// memCartRepository is an in-memory cart.Repository with the storage
// layer's clamp and absolute-set semantics.
type memCartRepository struct {
	mu    sync.Mutex
	carts map[uuid.UUID]*cart.Cart
	items map[uuid.UUID]map[uuid.UUID]cart.LineItem
}

func newMemCartRepository() *memCartRepository {
	return &memCartRepository{
		carts: make(map[uuid.UUID]*cart.Cart),
		items: make(map[uuid.UUID]map[uuid.UUID]cart.LineItem),
	}
}

func (r *memCartRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*cart.Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.carts[id]
	if !ok || c.TenantID != tenantID {
		return nil, cart.ErrCartNotFound
	}
	clone := *c
	return &clone, nil
}

func (r *memCartRepository) FindOpenByActor(ctx context.Context, tenantID, actorID uuid.UUID) (*cart.Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var latest *cart.Cart
	for _, c := range r.carts {
		if c.TenantID != tenantID || c.ActorID == nil || *c.ActorID != actorID {
			continue
		}
		if c.Status != cart.StatusOpen && c.Status != cart.StatusInactive {
			continue
		}
		if latest == nil || c.CreatedAt.After(latest.CreatedAt) {
			latest = c
		}
	}
	if latest == nil {
		return nil, nil
	}
	clone := *latest
	return &clone, nil
}

func (r *memCartRepository) Create(ctx context.Context, c *cart.Cart) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *c
	r.carts[c.ID] = &clone
	r.items[c.ID] = make(map[uuid.UUID]cart.LineItem)
	return nil
}

func (r *memCartRepository) UpdateStatus(ctx context.Context, tenantID, cartID uuid.UUID, status cart.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.carts[cartID]
	if !ok || c.TenantID != tenantID {
		return cart.ErrCartNotFound
	}
	c.Status = status
	return nil
}

func (r *memCartRepository) ListItems(ctx context.Context, tenantID, cartID uuid.UUID) ([]cart.LineItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]cart.LineItem, 0, len(r.items[cartID]))
	for _, item := range r.items[cartID] {
		out = append(out, item)
	}
	return out, nil
}

func (r *memCartRepository) SetItems(ctx context.Context, tenantID, cartID uuid.UUID, rows []cart.ItemWrite) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	bucket := r.items[cartID]
	if bucket == nil {
		bucket = make(map[uuid.UUID]cart.LineItem)
		r.items[cartID] = bucket
	}
	for _, row := range rows {
		if row.Quantity <= 0 {
			delete(bucket, row.MenuItemID)
			continue
		}
		bucket[row.MenuItemID] = cart.LineItem{
			ID:         uuid.New(),
			CartID:     cartID,
			TenantID:   tenantID,
			MenuItemID: row.MenuItemID,
			Name:       row.Name,
			Quantity:   cart.ClampQuantity(row.Quantity),
			UnitPrice:  row.UnitPrice,
		}
	}
	return nil
}

func (r *memCartRepository) IncrementItems(ctx context.Context, tenantID, cartID uuid.UUID, rows []cart.ItemDelta) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	bucket := r.items[cartID]
	if bucket == nil {
		bucket = make(map[uuid.UUID]cart.LineItem)
		r.items[cartID] = bucket
	}
	for _, row := range rows {
		current := 0
		if existing, ok := bucket[row.MenuItemID]; ok {
			current = existing.Quantity
		}
		next := cart.ClampQuantity(current + row.Delta)
		if next == 0 {
			delete(bucket, row.MenuItemID)
			continue
		}
		bucket[row.MenuItemID] = cart.LineItem{
			ID:         uuid.New(),
			CartID:     cartID,
			TenantID:   tenantID,
			MenuItemID: row.MenuItemID,
			Name:       row.Name,
			Quantity:   next,
			UnitPrice:  row.UnitPrice,
		}
	}
	return nil
}

func (r *memCartRepository) RemoveItems(ctx context.Context, tenantID, cartID uuid.UUID, menuItemIDs []uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	bucket := r.items[cartID]
	for _, id := range menuItemIDs {
		delete(bucket, id)
	}
	return nil
}

// memTaxProfiles serves one profile for every tenant, or none
type memTaxProfiles struct {
	profile *tax.Profile
}

func (r *memTaxProfiles) FindByTenant(ctx context.Context, tenantID uuid.UUID) (*tax.Profile, error) {
	if r.profile == nil {
		return nil, shared.ErrNotFound
	}
	return r.profile, nil
}

func (r *memTaxProfiles) Save(ctx context.Context, profile *tax.Profile) error {
	r.profile = profile
	return nil
}

// memOrderCreator records created orders
type memOrderCreator struct {
	mu     sync.Mutex
	drafts []cart.OrderDraft
}

func (o *memOrderCreator) CreateOrder(ctx context.Context, tenantID uuid.UUID, draft cart.OrderDraft) (uuid.UUID, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.drafts = append(o.drafts, draft)
	return uuid.New(), nil
}
