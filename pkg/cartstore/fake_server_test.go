package cartstore

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// fakeServer is an in-memory ServerAPI with the backend's clamp and
// absolute-set semantics, instrumented so tests can assert on the exact
// batches the store sent.
type fakeServer struct {
	mu    sync.Mutex
	carts map[uuid.UUID]*fakeCart

	taxRates    []TaxLine
	pricingMode string

	ensureCalls int
	getCalls    int

	incrementBatches [][]DeltaRow
	setBatches       [][]SetRow
	removeBatches    [][]uuid.UUID

	checkoutErr error
}

type fakeCart struct {
	id     uuid.UUID
	status string
	items  map[uuid.UUID]*Item
}

func newFakeServer() *fakeServer {
	return &fakeServer{
		carts:       make(map[uuid.UUID]*fakeCart),
		pricingMode: "inclusive",
	}
}

func (f *fakeServer) summaryLocked(c *fakeCart) *Summary {
	items := make([]Item, 0, len(c.items))
	for _, it := range c.items {
		items = append(items, *it)
	}
	hint := taxHint{pricingMode: f.pricingMode, rates: f.taxRates}
	return &Summary{
		CartID:   c.id,
		Status:   c.status,
		Items:    items,
		Totals:   recomputeTotals(items, hint),
		Currency: "INR",
	}
}

func (f *fakeServer) EnsureCart(ctx context.Context, mode, tableCode string) (*Summary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ensureCalls++
	c := &fakeCart{id: uuid.New(), status: "open", items: make(map[uuid.UUID]*Item)}
	f.carts[c.id] = c
	return f.summaryLocked(c), nil
}

func (f *fakeServer) GetCart(ctx context.Context, cartID uuid.UUID) (*Summary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCalls++
	c, ok := f.carts[cartID]
	if !ok {
		return nil, &APIError{Code: CodeCartNotFound, HTTPStatus: 404}
	}
	return f.summaryLocked(c), nil
}

func (f *fakeServer) SetItems(ctx context.Context, cartID uuid.UUID, rows []SetRow) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.setBatches = append(f.setBatches, rows)
	c, ok := f.carts[cartID]
	if !ok {
		return &APIError{Code: CodeCartNotFound, HTTPStatus: 404}
	}
	for _, row := range rows {
		if row.Quantity <= 0 {
			delete(c.items, row.MenuItemID)
			continue
		}
		c.items[row.MenuItemID] = &Item{
			MenuItemID: row.MenuItemID,
			Name:       row.Name,
			Quantity:   clampQuantity(row.Quantity),
			UnitPrice:  row.UnitPrice,
		}
	}
	return nil
}

func (f *fakeServer) IncrementItems(ctx context.Context, cartID uuid.UUID, rows []DeltaRow) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.incrementBatches = append(f.incrementBatches, rows)
	c, ok := f.carts[cartID]
	if !ok {
		return &APIError{Code: CodeCartNotFound, HTTPStatus: 404}
	}
	for _, row := range rows {
		existing := c.items[row.MenuItemID]
		current := 0
		if existing != nil {
			current = existing.Quantity
		}
		next := clampQuantity(current + row.Delta)
		if next == 0 {
			delete(c.items, row.MenuItemID)
			continue
		}
		c.items[row.MenuItemID] = &Item{
			MenuItemID: row.MenuItemID,
			Name:       row.Name,
			Quantity:   next,
			UnitPrice:  row.UnitPrice,
		}
	}
	return nil
}

func (f *fakeServer) RemoveItems(ctx context.Context, cartID uuid.UUID, menuItemIDs []uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removeBatches = append(f.removeBatches, menuItemIDs)
	c, ok := f.carts[cartID]
	if !ok {
		return &APIError{Code: CodeCartNotFound, HTTPStatus: 404}
	}
	for _, id := range menuItemIDs {
		delete(c.items, id)
	}
	return nil
}

func (f *fakeServer) Checkout(ctx context.Context, cartID uuid.UUID, customerName, tableCode string) (*Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.checkoutErr != nil {
		return nil, f.checkoutErr
	}
	c, ok := f.carts[cartID]
	if !ok {
		return nil, &APIError{Code: CodeCartNotFound, HTTPStatus: 404}
	}
	if len(c.items) == 0 {
		return nil, &APIError{Code: CodeCartEmpty, HTTPStatus: 400}
	}
	summary := f.summaryLocked(c)
	c.status = "completed"
	return &Receipt{
		OrderID:      uuid.New(),
		CartID:       cartID,
		Status:       "completed",
		Totals:       summary.Totals,
		Currency:     summary.Currency,
		Items:        summary.Items,
		TableCode:    tableCode,
		CustomerName: customerName,
	}, nil
}

// dropCart simulates server-side cart loss
func (f *fakeServer) dropCart(cartID uuid.UUID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.carts, cartID)
}

// itemQuantity reads one item's stored quantity, 0 when absent
func (f *fakeServer) itemQuantity(cartID, menuItemID uuid.UUID) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.carts[cartID]
	if !ok {
		return 0
	}
	if it, ok := c.items[menuItemID]; ok {
		return it.Quantity
	}
	return 0
}

func price(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}
