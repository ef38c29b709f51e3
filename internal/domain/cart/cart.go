package cart

import (
	"time"

	"github.com/dinecart/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status represents the lifecycle status of a cart
type Status string

const (
	StatusOpen      Status = "open"
	StatusInactive  Status = "inactive"
	StatusCompleted Status = "completed"
)

// IsValid checks if the status is a known value
func (s Status) IsValid() bool {
	switch s {
	case StatusOpen, StatusInactive, StatusCompleted:
		return true
	}
	return false
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// Mode represents the service mode of a cart
type Mode string

const (
	ModeDineIn   Mode = "dine_in"
	ModeTakeaway Mode = "takeaway"
)

// IsValid checks if the mode is a known value
func (m Mode) IsValid() bool {
	return m == ModeDineIn || m == ModeTakeaway
}

// MaxQuantity is the upper clamp for a single line item quantity
const MaxQuantity = 99

// ClampQuantity clamps a quantity to [0, MaxQuantity]
func ClampQuantity(q int) int {
	if q < 0 {
		return 0
	}
	if q > MaxQuantity {
		return MaxQuantity
	}
	return q
}

// Cart is the server-authoritative pre-order line item collection for one
// tenant and actor. At most one open/inactive cart exists per (tenant, actor);
// a cart becomes completed only via checkout and is never hard-deleted here.
type Cart struct {
	shared.BaseEntity
	TenantID  uuid.UUID  `gorm:"type:uuid;not null;index:idx_carts_tenant_actor"`
	ActorID   *uuid.UUID `gorm:"type:uuid;index:idx_carts_tenant_actor"`
	Status    Status     `gorm:"type:varchar(16);not null;default:'open'"`
	Mode      Mode       `gorm:"type:varchar(16);not null"`
	TableCode string     `gorm:"type:varchar(32)"`
}

// TableName sets the table name for GORM
func (Cart) TableName() string {
	return "carts"
}

// NewCart creates a new open cart for an actor
func NewCart(tenantID uuid.UUID, actorID uuid.UUID, mode Mode, tableCode string) (*Cart, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("invalid_tenant", "Tenant ID cannot be empty")
	}
	if actorID == uuid.Nil {
		return nil, ErrUserIDRequired
	}
	if !mode.IsValid() {
		mode = ModeTakeaway
	}
	actor := actorID
	return &Cart{
		BaseEntity: shared.NewBaseEntity(),
		TenantID:   tenantID,
		ActorID:    &actor,
		Status:     StatusOpen,
		Mode:       mode,
		TableCode:  tableCode,
	}, nil
}

// CanMutate reports whether line items may still change
func (c *Cart) CanMutate() bool {
	return c.Status == StatusOpen || c.Status == StatusInactive
}

// Complete transitions the cart to completed. Only open or inactive carts can
// complete; a completed cart is terminal.
func (c *Cart) Complete() error {
	if !c.CanMutate() {
		return ErrCartNotOpen
	}
	c.Status = StatusCompleted
	c.UpdatedAt = time.Now()
	return nil
}

// LineItem is a quantity and price snapshot of one menu item within a cart.
// Name and price are captured at mutation time, not joined live from the
// catalog; display enrichment may overlay the current catalog name and image.
type LineItem struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey"`
	CartID     uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_cart_items_cart_menu_item"`
	TenantID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	MenuItemID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_cart_items_cart_menu_item"`
	Name       string          `gorm:"type:varchar(255);not null"`
	Quantity   int             `gorm:"not null"`
	UnitPrice  decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	ImageURL   string          `gorm:"-"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// TableName sets the table name for GORM
func (LineItem) TableName() string {
	return "cart_line_items"
}

// NewLineItem creates a line item snapshot. Quantity is clamped to
// [0, MaxQuantity]; a zero quantity is the caller's signal to delete.
func NewLineItem(cartID, tenantID, menuItemID uuid.UUID, name string, quantity int, unitPrice decimal.Decimal) (*LineItem, error) {
	if menuItemID == uuid.Nil {
		return nil, shared.NewDomainError("invalid_menu_item", "Menu item ID cannot be empty")
	}
	if unitPrice.IsNegative() {
		return nil, shared.NewDomainError("invalid_price", "Unit price cannot be negative")
	}
	now := time.Now()
	return &LineItem{
		ID:         uuid.New(),
		CartID:     cartID,
		TenantID:   tenantID,
		MenuItemID: menuItemID,
		Name:       name,
		Quantity:   ClampQuantity(quantity),
		UnitPrice:  unitPrice,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// LineTotal returns quantity * unit price
func (i *LineItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// ItemsTotal sums the line totals of a set of items
func ItemsTotal(items []LineItem) decimal.Decimal {
	total := decimal.Zero
	for i := range items {
		total = total.Add(items[i].LineTotal())
	}
	return total
}
