package cart

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MenuDisplay is the current catalog name and image for a menu item, used
// only to enrich line item snapshots for display.
type MenuDisplay struct {
	Name     string
	ImageURL string
}

// CatalogReader is a read-only view into the catalog service's data. Missing
// items are simply absent from the result; callers keep their snapshots.
type CatalogReader interface {
	DisplayInfo(ctx context.Context, tenantID uuid.UUID, menuItemIDs []uuid.UUID) (map[uuid.UUID]MenuDisplay, error)
}

// OrderDraft is the input handed to the order collaborator at checkout
type OrderDraft struct {
	CartID       uuid.UUID
	CustomerName string
	TableCode    string
	Subtotal     decimal.Decimal
	Tax          decimal.Decimal
	Total        decimal.Decimal
	Currency     string
	Items        []OrderDraftItem
}

// OrderDraftItem is one line of the order snapshot
type OrderDraftItem struct {
	MenuItemID uuid.UUID       `json:"menu_item_id"`
	Name       string          `json:"name"`
	Quantity   int             `json:"qty"`
	UnitPrice  decimal.Decimal `json:"price"`
}

// OrderCreator is the external order lifecycle collaborator. Checkout only
// creates; everything after creation belongs to the order service.
type OrderCreator interface {
	CreateOrder(ctx context.Context, tenantID uuid.UUID, draft OrderDraft) (uuid.UUID, error)
}
