package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dinecart/backend/internal/domain/cart"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// tableActorNamespace scopes table-derived actor identities so the same
// table code under two tenants never collides.
var tableActorNamespace = uuid.MustParse("9f2c1f5e-8a43-4c2b-b0d4-51a4f5f4e34a")

// CartService handles cart lifecycle and line item mutations
type CartService struct {
	repo       cart.Repository
	catalog    cart.CatalogReader
	resolver   *TaxConfigResolver
	cache      cart.SummaryCache
	summaryTTL time.Duration
	logger     *zap.Logger
}

// NewCartService creates a new CartService
func NewCartService(repo cart.Repository, catalog cart.CatalogReader, resolver *TaxConfigResolver, cache cart.SummaryCache, summaryTTL time.Duration, logger *zap.Logger) *CartService {
	if summaryTTL <= 0 {
		summaryTTL = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CartService{
		repo:       repo,
		catalog:    catalog,
		resolver:   resolver,
		cache:      cache,
		summaryTTL: summaryTTL,
		logger:     logger,
	}
}

// ResolveActor returns the explicit actor id when present, otherwise derives
// a deterministic pseudo-identity from the tenant and table code. With
// neither, the caller must supply actor context.
func (s *CartService) ResolveActor(tenantID uuid.UUID, explicitID *uuid.UUID, tableCode string) (uuid.UUID, error) {
	if explicitID != nil && *explicitID != uuid.Nil {
		return *explicitID, nil
	}
	if tableCode != "" {
		seed := fmt.Sprintf("%s/table/%s", tenantID, tableCode)
		return uuid.NewSHA1(tableActorNamespace, []byte(seed)), nil
	}
	return uuid.Nil, cart.ErrUserIDRequired
}

// GetOpenCart returns the actor's most recent open or inactive cart, or nil
// when none exists.
func (s *CartService) GetOpenCart(ctx context.Context, tenantID, actorID uuid.UUID) (*CartResponse, error) {
	c, err := s.repo.FindOpenByActor(ctx, tenantID, actorID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, nil
	}
	resp := toCartResponse(c)
	return &resp, nil
}

// EnsureCart returns the actor's existing open/inactive cart or creates a new
// open one.
func (s *CartService) EnsureCart(ctx context.Context, tenantID, actorID uuid.UUID, req EnsureCartRequest) (*CartResponse, error) {
	existing, err := s.repo.FindOpenByActor(ctx, tenantID, actorID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		resp := toCartResponse(existing)
		return &resp, nil
	}

	c, err := cart.NewCart(tenantID, actorID, cart.Mode(req.Mode), req.TableCode)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, cart.NewCreateFailed(err)
	}
	resp := toCartResponse(c)
	return &resp, nil
}

// GetCartByID loads a cart, reporting a recoverable not-found when absent
func (s *CartService) GetCartByID(ctx context.Context, tenantID, cartID uuid.UUID) (*CartResponse, error) {
	c, err := s.repo.FindByID(ctx, tenantID, cartID)
	if err != nil {
		return nil, err
	}
	resp := toCartResponse(c)
	return &resp, nil
}

// ListItems returns the cart's line items enriched with current catalog
// name/image for display. Price and quantity remain the stored snapshot.
func (s *CartService) ListItems(ctx context.Context, tenantID, cartID uuid.UUID) ([]ItemResponse, error) {
	items, err := s.repo.ListItems(ctx, tenantID, cartID)
	if err != nil {
		return nil, cart.NewListItemsFailed(err)
	}
	s.enrichDisplay(ctx, tenantID, items)
	return toItemResponses(items), nil
}

func (s *CartService) enrichDisplay(ctx context.Context, tenantID uuid.UUID, items []cart.LineItem) {
	if s.catalog == nil || len(items) == 0 {
		return
	}
	ids := make([]uuid.UUID, len(items))
	for i := range items {
		ids[i] = items[i].MenuItemID
	}
	display, err := s.catalog.DisplayInfo(ctx, tenantID, ids)
	if err != nil {
		// Display enrichment is cosmetic; keep the snapshots on failure.
		s.logger.Debug("catalog display lookup failed", zap.Error(err))
		return
	}
	for i := range items {
		if d, ok := display[items[i].MenuItemID]; ok {
			if d.Name != "" {
				items[i].Name = d.Name
			}
			items[i].ImageURL = d.ImageURL
		}
	}
}

// SetItems applies absolute-set semantics: each row's quantity replaces any
// existing row, and qty <= 0 deletes. The cart stays open even when the
// result is empty.
func (s *CartService) SetItems(ctx context.Context, tenantID, cartID uuid.UUID, req SetItemsRequest) error {
	c, err := s.repo.FindByID(ctx, tenantID, cartID)
	if err != nil {
		return err
	}
	if !c.CanMutate() {
		return cart.ErrCartNotOpen
	}

	rows := make([]cart.ItemWrite, len(req.Items))
	for i, item := range req.Items {
		rows[i] = cart.ItemWrite{
			MenuItemID: item.MenuItemID,
			Name:       item.Name,
			Quantity:   cart.ClampQuantity(item.Quantity),
			UnitPrice:  item.UnitPrice,
		}
		if item.Quantity <= 0 {
			rows[i].Quantity = 0
		}
	}
	if err := s.repo.SetItems(ctx, tenantID, cartID, rows); err != nil {
		return cart.NewSetItemsFailed(err)
	}
	s.invalidateSummary(ctx, tenantID, cartID)
	return nil
}

// IncrementItems applies signed deltas via the backend's best available
// increment strategy.
func (s *CartService) IncrementItems(ctx context.Context, tenantID, cartID uuid.UUID, req IncrementItemsRequest) error {
	c, err := s.repo.FindByID(ctx, tenantID, cartID)
	if err != nil {
		return err
	}
	if !c.CanMutate() {
		return cart.ErrCartNotOpen
	}

	rows := make([]cart.ItemDelta, len(req.Items))
	for i, item := range req.Items {
		rows[i] = cart.ItemDelta{
			MenuItemID: item.MenuItemID,
			Name:       item.Name,
			Delta:      item.Delta,
			UnitPrice:  item.UnitPrice,
		}
	}
	if err := s.repo.IncrementItems(ctx, tenantID, cartID, rows); err != nil {
		return cart.NewIncrementItemsFailed(err)
	}
	s.invalidateSummary(ctx, tenantID, cartID)
	return nil
}

// RemoveItems unconditionally deletes the named rows
func (s *CartService) RemoveItems(ctx context.Context, tenantID, cartID uuid.UUID, req RemoveItemsRequest) error {
	c, err := s.repo.FindByID(ctx, tenantID, cartID)
	if err != nil {
		return err
	}
	if !c.CanMutate() {
		return cart.ErrCartNotOpen
	}
	if err := s.repo.RemoveItems(ctx, tenantID, cartID, req.MenuItemIDs); err != nil {
		return cart.NewRemoveItemsFailed(err)
	}
	s.invalidateSummary(ctx, tenantID, cartID)
	return nil
}

// Summarize composes items, the tenant tax config, and the totals
// computation into a full cart summary, with a best-effort write-through to
// the summary cache. Cache failures never fail the caller.
func (s *CartService) Summarize(ctx context.Context, tenantID, cartID uuid.UUID) (*CartSummary, error) {
	c, err := s.repo.FindByID(ctx, tenantID, cartID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if payload, ok, cacheErr := s.cache.Get(ctx, tenantID, cartID); cacheErr == nil && ok {
			var cached CartSummary
			if json.Unmarshal(payload, &cached) == nil {
				return &cached, nil
			}
		}
	}

	summary, err := s.computeSummary(ctx, c)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if payload, marshalErr := json.Marshal(summary); marshalErr == nil {
			if cacheErr := s.cache.Put(ctx, tenantID, cartID, payload, s.summaryTTL); cacheErr != nil {
				s.logger.Debug("summary cache write failed", zap.Error(cacheErr))
			}
		}
	}
	return summary, nil
}

func (s *CartService) computeSummary(ctx context.Context, c *cart.Cart) (*CartSummary, error) {
	items, err := s.repo.ListItems(ctx, c.TenantID, c.ID)
	if err != nil {
		return nil, cart.NewListItemsFailed(err)
	}
	s.enrichDisplay(ctx, c.TenantID, items)

	cfg := s.resolver.Resolve(ctx, c.TenantID)
	totals := computeTotals(items, cfg)

	return &CartSummary{
		Cart:     toCartResponse(c),
		Items:    toItemResponses(items),
		Totals:   toTotalsResponse(totals),
		Currency: string(cfg.Currency),
	}, nil
}

func (s *CartService) invalidateSummary(ctx context.Context, tenantID, cartID uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, tenantID, cartID); err != nil {
		s.logger.Debug("summary cache invalidate failed", zap.Error(err))
	}
}
