package cart

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ItemWrite is an absolute-set row: the final quantity replaces any existing
// row; a quantity of zero or below deletes the row.
type ItemWrite struct {
	MenuItemID uuid.UUID
	Name       string
	Quantity   int
	UnitPrice  decimal.Decimal
}

// ItemDelta is a signed delta row for batched increments
type ItemDelta struct {
	MenuItemID uuid.UUID
	Name       string
	Delta      int
	UnitPrice  decimal.Decimal
}

// Repository is the persistence port for carts and their line items
type Repository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Cart, error)
	// FindOpenByActor returns the most recent open or inactive cart for the
	// actor, or nil when none exists.
	FindOpenByActor(ctx context.Context, tenantID, actorID uuid.UUID) (*Cart, error)
	Create(ctx context.Context, c *Cart) error
	UpdateStatus(ctx context.Context, tenantID, cartID uuid.UUID, status Status) error

	ListItems(ctx context.Context, tenantID, cartID uuid.UUID) ([]LineItem, error)
	// SetItems applies absolute-set semantics. The cart's status is never
	// changed, even when the result is empty.
	SetItems(ctx context.Context, tenantID, cartID uuid.UUID, rows []ItemWrite) error
	// IncrementItems applies delta semantics via the backend's best available
	// increment strategy.
	IncrementItems(ctx context.Context, tenantID, cartID uuid.UUID, rows []ItemDelta) error
	RemoveItems(ctx context.Context, tenantID, cartID uuid.UUID, menuItemIDs []uuid.UUID) error
}
