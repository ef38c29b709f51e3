package persistence

import (
	"context"

	"github.com/dinecart/backend/internal/domain/cart"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// menuItemRecord is a read-only projection of the catalog's menu_items
// table. The catalog itself is owned by another service; this adapter only
// reads display fields.
type menuItemRecord struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey"`
	TenantID uuid.UUID `gorm:"type:uuid"`
	Name     string
	ImageURL string
}

func (menuItemRecord) TableName() string {
	return "menu_items"
}

// GormCatalogReader reads menu item display info using GORM
type GormCatalogReader struct {
	db *gorm.DB
}

// NewGormCatalogReader creates a new GormCatalogReader
func NewGormCatalogReader(db *gorm.DB) *GormCatalogReader {
	return &GormCatalogReader{db: db}
}

// DisplayInfo returns current name/image for the given menu items. Missing
// items are simply absent from the result; callers keep their snapshots.
func (r *GormCatalogReader) DisplayInfo(ctx context.Context, tenantID uuid.UUID, menuItemIDs []uuid.UUID) (map[uuid.UUID]cart.MenuDisplay, error) {
	if len(menuItemIDs) == 0 {
		return map[uuid.UUID]cart.MenuDisplay{}, nil
	}
	var records []menuItemRecord
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id IN ?", tenantID, menuItemIDs).
		Find(&records).Error; err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]cart.MenuDisplay, len(records))
	for _, rec := range records {
		out[rec.ID] = cart.MenuDisplay{Name: rec.Name, ImageURL: rec.ImageURL}
	}
	return out, nil
}
