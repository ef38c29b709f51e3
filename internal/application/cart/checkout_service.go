package cart

import (
	"context"

	"github.com/dinecart/backend/internal/domain/cart"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CheckoutService transitions a cart into an order and returns a normalized
// receipt. Idempotency across client retries is the caller's responsibility.
type CheckoutService struct {
	repo     cart.Repository
	orders   cart.OrderCreator
	resolver *TaxConfigResolver
	cache    cart.SummaryCache
	logger   *zap.Logger
}

// NewCheckoutService creates a new CheckoutService
func NewCheckoutService(repo cart.Repository, orders cart.OrderCreator, resolver *TaxConfigResolver, cache cart.SummaryCache, logger *zap.Logger) *CheckoutService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CheckoutService{
		repo:     repo,
		orders:   orders,
		resolver: resolver,
		cache:    cache,
		logger:   logger,
	}
}

// Checkout validates the cart is open and non-empty, creates the order from
// the line items at the time of the call, marks the cart completed, and
// returns the receipt.
func (s *CheckoutService) Checkout(ctx context.Context, tenantID, cartID uuid.UUID, req CheckoutRequest) (*CheckoutResponse, error) {
	c, err := s.repo.FindByID(ctx, tenantID, cartID)
	if err != nil {
		return nil, err
	}
	if !c.CanMutate() {
		return nil, cart.ErrCartNotOpen
	}

	items, err := s.repo.ListItems(ctx, tenantID, cartID)
	if err != nil {
		return nil, cart.NewListItemsFailed(err)
	}
	if len(items) == 0 {
		return nil, cart.ErrCartEmpty
	}

	cfg := s.resolver.Resolve(ctx, tenantID)
	totals := computeTotals(items, cfg)

	tableCode := req.TableCode
	if tableCode == "" {
		tableCode = c.TableCode
	}

	draftItems := make([]cart.OrderDraftItem, len(items))
	for i := range items {
		draftItems[i] = cart.OrderDraftItem{
			MenuItemID: items[i].MenuItemID,
			Name:       items[i].Name,
			Quantity:   items[i].Quantity,
			UnitPrice:  items[i].UnitPrice,
		}
	}

	orderID, err := s.orders.CreateOrder(ctx, tenantID, cart.OrderDraft{
		CartID:       cartID,
		CustomerName: req.CustomerName,
		TableCode:    tableCode,
		Subtotal:     totals.Subtotal,
		Tax:          totals.Tax,
		Total:        totals.Total,
		Currency:     string(cfg.Currency),
		Items:        draftItems,
	})
	if err != nil {
		return nil, cart.NewOrderCreateFailed(err)
	}

	if err := s.repo.UpdateStatus(ctx, tenantID, cartID, cart.StatusCompleted); err != nil {
		// The order exists; the cart is left behind in a mutable state.
		// Surface the failure so the caller can retry the transition.
		return nil, cart.NewStatusUpdateFailed(err)
	}

	if s.cache != nil {
		if cacheErr := s.cache.Invalidate(ctx, tenantID, cartID); cacheErr != nil {
			s.logger.Debug("summary cache invalidate failed", zap.Error(cacheErr))
		}
	}

	return &CheckoutResponse{
		OrderID:      orderID,
		CartID:       cartID,
		Status:       cart.StatusCompleted.String(),
		Totals:       toTotalsResponse(totals),
		Currency:     string(cfg.Currency),
		Items:        toItemResponses(items),
		TableCode:    tableCode,
		CustomerName: req.CustomerName,
	}, nil
}
