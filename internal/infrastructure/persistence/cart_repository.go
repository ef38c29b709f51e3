package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dinecart/backend/internal/domain/cart"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// IncrementStrategy applies a batch of signed quantity deltas to a cart's
// line items. Implementations differ in atomicity; see AtomicBatchIncrement
// and ReadModifyWriteFallback.
type IncrementStrategy interface {
	Name() string
	Apply(tx *gorm.DB, tenantID, cartID uuid.UUID, rows []cart.ItemDelta) error
}

// SupportsAtomicBatch probes whether the backing store can run the multi-row
// upsert with in-database clamping that AtomicBatchIncrement relies on.
func SupportsAtomicBatch(db *gorm.DB) bool {
	return db.Dialector.Name() == "postgres"
}

// GormCartRepository implements cart.Repository using GORM
type GormCartRepository struct {
	db        *gorm.DB
	increment IncrementStrategy
}

// NewGormCartRepository creates a repository, selecting the increment
// strategy by probing the backend's capabilities.
func NewGormCartRepository(db *gorm.DB) *GormCartRepository {
	var strategy IncrementStrategy = &ReadModifyWriteFallback{}
	if SupportsAtomicBatch(db) {
		strategy = &AtomicBatchIncrement{}
	}
	return &GormCartRepository{db: db, increment: strategy}
}

// NewGormCartRepositoryWithStrategy creates a repository with an explicit
// increment strategy. Used by tests to exercise the fallback path
// deterministically.
func NewGormCartRepositoryWithStrategy(db *gorm.DB, strategy IncrementStrategy) *GormCartRepository {
	return &GormCartRepository{db: db, increment: strategy}
}

// IncrementStrategyName reports which increment strategy is active
func (r *GormCartRepository) IncrementStrategyName() string {
	return r.increment.Name()
}

// FindByID finds a cart by ID within a tenant
func (r *GormCartRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*cart.Cart, error) {
	var c cart.Cart
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&c).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, cart.ErrCartNotFound
		}
		return nil, err
	}
	return &c, nil
}

// FindOpenByActor returns the most recent open or inactive cart for the
// actor, or nil when none exists.
func (r *GormCartRepository) FindOpenByActor(ctx context.Context, tenantID, actorID uuid.UUID) (*cart.Cart, error) {
	var c cart.Cart
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND actor_id = ? AND status IN ?",
			tenantID, actorID, []cart.Status{cart.StatusOpen, cart.StatusInactive}).
		Order("created_at DESC").
		First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

// Create persists a new cart
func (r *GormCartRepository) Create(ctx context.Context, c *cart.Cart) error {
	return r.db.WithContext(ctx).Create(c).Error
}

// UpdateStatus transitions a cart's status
func (r *GormCartRepository) UpdateStatus(ctx context.Context, tenantID, cartID uuid.UUID, status cart.Status) error {
	result := r.db.WithContext(ctx).
		Model(&cart.Cart{}).
		Where("tenant_id = ? AND id = ?", tenantID, cartID).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return cart.ErrCartNotFound
	}
	return nil
}

// ListItems returns the stored line item snapshots for a cart
func (r *GormCartRepository) ListItems(ctx context.Context, tenantID, cartID uuid.UUID) ([]cart.LineItem, error) {
	var items []cart.LineItem
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND cart_id = ?", tenantID, cartID).
		Order("created_at ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// SetItems applies absolute-set semantics: each row's final quantity replaces
// any existing row, and a quantity of zero or below deletes the row. The
// cart's status is never changed, even when the result is empty.
func (r *GormCartRepository) SetItems(ctx context.Context, tenantID, cartID uuid.UUID, rows []cart.ItemWrite) error {
	if len(rows) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		deletes := make([]uuid.UUID, 0, len(rows))
		upserts := make([]cart.LineItem, 0, len(rows))
		now := time.Now()

		for _, row := range rows {
			if row.Quantity <= 0 {
				deletes = append(deletes, row.MenuItemID)
				continue
			}
			upserts = append(upserts, cart.LineItem{
				ID:         uuid.New(),
				CartID:     cartID,
				TenantID:   tenantID,
				MenuItemID: row.MenuItemID,
				Name:       row.Name,
				Quantity:   cart.ClampQuantity(row.Quantity),
				UnitPrice:  row.UnitPrice,
				CreatedAt:  now,
				UpdatedAt:  now,
			})
		}

		if len(deletes) > 0 {
			if err := tx.Where("cart_id = ? AND menu_item_id IN ?", cartID, deletes).
				Delete(&cart.LineItem{}).Error; err != nil {
				return err
			}
		}

		if len(upserts) > 0 {
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "cart_id"}, {Name: "menu_item_id"}},
				DoUpdates: clause.AssignmentColumns([]string{"name", "quantity", "unit_price", "updated_at"}),
			}).Create(&upserts).Error; err != nil {
				return err
			}
		}

		return nil
	})
}

// IncrementItems applies delta semantics through the selected strategy
func (r *GormCartRepository) IncrementItems(ctx context.Context, tenantID, cartID uuid.UUID, rows []cart.ItemDelta) error {
	if len(rows) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return r.increment.Apply(tx, tenantID, cartID, rows)
	})
}

// RemoveItems unconditionally deletes the named rows
func (r *GormCartRepository) RemoveItems(ctx context.Context, tenantID, cartID uuid.UUID, menuItemIDs []uuid.UUID) error {
	if len(menuItemIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Where("tenant_id = ? AND cart_id = ? AND menu_item_id IN ?", tenantID, cartID, menuItemIDs).
		Delete(&cart.LineItem{}).Error
}

// AtomicBatchIncrement applies all deltas in one multi-row upsert with
// in-database clamping, followed by normalization statements inside the same
// transaction. Concurrent batches on the same cart serialize on row locks,
// so no increment is lost.
type AtomicBatchIncrement struct{}

// Name identifies the strategy
func (s *AtomicBatchIncrement) Name() string { return "atomic_batch" }

// Apply runs the batched upsert
func (s *AtomicBatchIncrement) Apply(tx *gorm.DB, tenantID, cartID uuid.UUID, rows []cart.ItemDelta) error {
	now := time.Now()

	placeholders := make([]string, 0, len(rows))
	args := make([]interface{}, 0, len(rows)*9)
	for _, row := range rows {
		placeholders = append(placeholders, "(?, ?, ?, ?, ?, ?, ?, ?, ?)")
		args = append(args,
			uuid.New(), cartID, tenantID, row.MenuItemID, row.Name,
			row.Delta, row.UnitPrice, now, now,
		)
	}

	// The inserted quantity is the raw signed delta; rows that end up at or
	// below zero, or above the clamp, are normalized by the statements below
	// before the transaction commits.
	query := fmt.Sprintf(`
		INSERT INTO cart_line_items (id, cart_id, tenant_id, menu_item_id, name, quantity, unit_price, created_at, updated_at)
		VALUES %s
		ON CONFLICT (cart_id, menu_item_id)
		DO UPDATE SET
			quantity = GREATEST(0, LEAST(%d, cart_line_items.quantity + EXCLUDED.quantity)),
			updated_at = EXCLUDED.updated_at`,
		strings.Join(placeholders, ", "), cart.MaxQuantity)

	if err := tx.Exec(query, args...).Error; err != nil {
		return err
	}

	if err := tx.Exec(
		"UPDATE cart_line_items SET quantity = ? WHERE cart_id = ? AND quantity > ?",
		cart.MaxQuantity, cartID, cart.MaxQuantity,
	).Error; err != nil {
		return err
	}

	return tx.Exec(
		"DELETE FROM cart_line_items WHERE cart_id = ? AND quantity <= 0",
		cartID,
	).Error
}

// ReadModifyWriteFallback applies deltas one row at a time by reading the
// current quantity and writing max(0, current+delta), deleting rows that
// reach zero. This path is explicitly non-atomic across sessions: two
// concurrent batches on the same cart can interleave and the later write
// wins, losing the earlier increment. Last-write-wins is the documented
// relaxed-consistency behavior; a stronger policy is an open product
// decision.
type ReadModifyWriteFallback struct{}

// Name identifies the strategy
func (s *ReadModifyWriteFallback) Name() string { return "read_modify_write" }

// Apply runs the per-row upsert loop
func (s *ReadModifyWriteFallback) Apply(tx *gorm.DB, tenantID, cartID uuid.UUID, rows []cart.ItemDelta) error {
	for _, row := range rows {
		var existing cart.LineItem
		err := tx.Where("cart_id = ? AND menu_item_id = ?", cartID, row.MenuItemID).
			First(&existing).Error

		switch {
		case err == nil:
			next := cart.ClampQuantity(existing.Quantity + row.Delta)
			if next == 0 {
				if err := tx.Delete(&cart.LineItem{}, "id = ?", existing.ID).Error; err != nil {
					return err
				}
				continue
			}
			if err := tx.Model(&cart.LineItem{}).
				Where("id = ?", existing.ID).
				Updates(map[string]interface{}{
					"quantity":   next,
					"updated_at": time.Now(),
				}).Error; err != nil {
				return err
			}

		case errors.Is(err, gorm.ErrRecordNotFound):
			next := cart.ClampQuantity(row.Delta)
			if next == 0 {
				continue
			}
			item, itemErr := cart.NewLineItem(cartID, tenantID, row.MenuItemID, row.Name, next, row.UnitPrice)
			if itemErr != nil {
				return itemErr
			}
			if err := tx.Create(item).Error; err != nil {
				return err
			}

		default:
			return err
		}
	}
	return nil
}

// Ensure GormCartRepository implements cart.Repository
var _ cart.Repository = (*GormCartRepository)(nil)
