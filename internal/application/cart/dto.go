package cart

import (
	"github.com/dinecart/backend/internal/domain/cart"
	"github.com/dinecart/backend/internal/domain/tax"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EnsureCartRequest establishes or resumes a cart for an actor
type EnsureCartRequest struct {
	Mode      string `json:"mode" binding:"omitempty,cartmode"`
	TableCode string `json:"table_code,omitempty"`
}

// SetItemRow is one absolute-set row; qty <= 0 deletes the row
type SetItemRow struct {
	MenuItemID uuid.UUID       `json:"menu_item_id" binding:"required"`
	Name       string          `json:"name,omitempty"`
	Quantity   int             `json:"qty"`
	UnitPrice  decimal.Decimal `json:"price"`
}

// IncrementItemRow is one signed-delta row
type IncrementItemRow struct {
	MenuItemID uuid.UUID       `json:"menu_item_id" binding:"required"`
	Name       string          `json:"name,omitempty"`
	Delta      int             `json:"delta"`
	UnitPrice  decimal.Decimal `json:"price"`
}

// SetItemsRequest carries absolute-set rows
type SetItemsRequest struct {
	Items []SetItemRow `json:"items" binding:"required"`
}

// IncrementItemsRequest carries delta rows
type IncrementItemsRequest struct {
	Items []IncrementItemRow `json:"items" binding:"required"`
}

// RemoveItemsRequest names the rows to delete unconditionally
type RemoveItemsRequest struct {
	MenuItemIDs []uuid.UUID `json:"menu_item_ids" binding:"required"`
}

// CheckoutRequest finalizes a cart into an order
type CheckoutRequest struct {
	CustomerName string `json:"customer_name,omitempty"`
	TableCode    string `json:"table_code,omitempty"`
}

// CartResponse is the wire shape of a cart's identity and lifecycle state
type CartResponse struct {
	ID        uuid.UUID  `json:"id"`
	TenantID  uuid.UUID  `json:"tenant"`
	ActorID   *uuid.UUID `json:"actor,omitempty"`
	Status    string     `json:"status"`
	Mode      string     `json:"mode"`
	TableCode string     `json:"table_code,omitempty"`
}

// ItemResponse is the wire shape of one line item
type ItemResponse struct {
	MenuItemID uuid.UUID       `json:"menu_item_id"`
	Name       string          `json:"name"`
	Quantity   int             `json:"qty"`
	UnitPrice  decimal.Decimal `json:"price"`
	ImageURL   string          `json:"image_url,omitempty"`
}

// TaxLineResponse is one allocated tax component
type TaxLineResponse struct {
	Name   string          `json:"name"`
	Rate   decimal.Decimal `json:"rate"`
	Amount decimal.Decimal `json:"amount"`
}

// TotalsResponse is the wire shape of computed totals
type TotalsResponse struct {
	Subtotal     decimal.Decimal   `json:"subtotal"`
	Tax          decimal.Decimal   `json:"tax"`
	Total        decimal.Decimal   `json:"total"`
	PricingMode  string            `json:"pricing_mode"`
	TaxBreakdown []TaxLineResponse `json:"tax_breakdown"`
}

// CartSummary is the full read model: cart identity, items, totals, currency
type CartSummary struct {
	Cart     CartResponse   `json:"cart"`
	Items    []ItemResponse `json:"items"`
	Totals   TotalsResponse `json:"totals"`
	Currency string         `json:"currency"`
}

// CheckoutResponse is the normalized receipt returned on checkout
type CheckoutResponse struct {
	OrderID      uuid.UUID      `json:"order_id"`
	CartID       uuid.UUID      `json:"cart_id"`
	Status       string         `json:"status"`
	Totals       TotalsResponse `json:"totals"`
	Currency     string         `json:"currency"`
	Items        []ItemResponse `json:"items"`
	TableCode    string         `json:"table_code,omitempty"`
	CustomerName string         `json:"customer_name,omitempty"`
}

func toCartResponse(c *cart.Cart) CartResponse {
	return CartResponse{
		ID:        c.ID,
		TenantID:  c.TenantID,
		ActorID:   c.ActorID,
		Status:    c.Status.String(),
		Mode:      string(c.Mode),
		TableCode: c.TableCode,
	}
}

func toItemResponses(items []cart.LineItem) []ItemResponse {
	out := make([]ItemResponse, len(items))
	for i := range items {
		out[i] = ItemResponse{
			MenuItemID: items[i].MenuItemID,
			Name:       items[i].Name,
			Quantity:   items[i].Quantity,
			UnitPrice:  items[i].UnitPrice,
			ImageURL:   items[i].ImageURL,
		}
	}
	return out
}

func toTotalsResponse(t tax.Totals) TotalsResponse {
	lines := make([]TaxLineResponse, len(t.Breakdown))
	for i, a := range t.Breakdown {
		lines[i] = TaxLineResponse{Name: a.Name, Rate: a.Rate, Amount: a.Amount}
	}
	return TotalsResponse{
		Subtotal:     t.Subtotal,
		Tax:          t.Tax,
		Total:        t.Total,
		PricingMode:  string(t.PricingMode),
		TaxBreakdown: lines,
	}
}
