// Package cartstore is an optimistic client-side mirror of a server
// cart. Mutations apply to the local mirror immediately and are coalesced
// into batched deltas sent to the server; server snapshots are folded back
// in through a reconciliation guard so a slow or stale response never
// clobbers fresher local state.
package cartstore

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MaxQuantity is the upper clamp for one line item quantity, matching the
// server's clamp.
const MaxQuantity = 99

func clampQuantity(q int) int {
	if q < 0 {
		return 0
	}
	if q > MaxQuantity {
		return MaxQuantity
	}
	return q
}

// Item is one line of the local mirror
type Item struct {
	MenuItemID uuid.UUID       `json:"menu_item_id"`
	Name       string          `json:"name"`
	Quantity   int             `json:"qty"`
	UnitPrice  decimal.Decimal `json:"price"`
	ImageURL   string          `json:"image_url,omitempty"`
}

// TaxLine is one allocated tax component
type TaxLine struct {
	Name   string          `json:"name"`
	Rate   decimal.Decimal `json:"rate"`
	Amount decimal.Decimal `json:"amount"`
}

// Totals is the canonical totals shape. Server responses in legacy or
// alternate field layouts are normalized into this type at the transport
// boundary.
type Totals struct {
	Subtotal     decimal.Decimal `json:"subtotal"`
	Tax          decimal.Decimal `json:"tax"`
	Total        decimal.Decimal `json:"total"`
	PricingMode  string          `json:"pricing_mode"`
	TaxBreakdown []TaxLine       `json:"tax_breakdown"`
}

// Summary is the server's authoritative view of a cart
type Summary struct {
	CartID    uuid.UUID `json:"cart_id"`
	Status    string    `json:"status"`
	Mode      string    `json:"mode"`
	TableCode string    `json:"table_code"`
	Items     []Item    `json:"items"`
	Totals    Totals    `json:"totals"`
	Currency  string    `json:"currency"`
}

// Receipt is the normalized checkout result. Items are snapshotted so the
// caller can render them after local state has been cleared.
type Receipt struct {
	OrderID      uuid.UUID `json:"order_id"`
	CartID       uuid.UUID `json:"cart_id"`
	Status       string    `json:"status"`
	Totals       Totals    `json:"totals"`
	Currency     string    `json:"currency"`
	Items        []Item    `json:"items"`
	TableCode    string    `json:"table_code,omitempty"`
	CustomerName string    `json:"customer_name,omitempty"`
}

// SetRow is one absolute-set row sent to the server; qty <= 0 deletes
type SetRow struct {
	MenuItemID uuid.UUID       `json:"menu_item_id"`
	Name       string          `json:"name,omitempty"`
	Quantity   int             `json:"qty"`
	UnitPrice  decimal.Decimal `json:"price"`
}

// DeltaRow is one signed-delta row sent to the server
type DeltaRow struct {
	MenuItemID uuid.UUID       `json:"menu_item_id"`
	Name       string          `json:"name,omitempty"`
	Delta      int             `json:"delta"`
	UnitPrice  decimal.Decimal `json:"price"`
}

func totalQuantity(items []Item) int {
	total := 0
	for i := range items {
		total += items[i].Quantity
	}
	return total
}
