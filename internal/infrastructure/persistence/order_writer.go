package persistence

import (
	"context"
	"encoding/json"
	"time"

	"github.com/dinecart/backend/internal/domain/cart"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// orderRecord is the minimal order row written at checkout. Order lifecycle
// beyond creation belongs to the order service; this adapter only creates.
type orderRecord struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	TenantID     uuid.UUID `gorm:"type:uuid;not null;index"`
	CartID       uuid.UUID `gorm:"type:uuid;not null"`
	CustomerName string
	TableCode    string
	Subtotal     decimal.Decimal `gorm:"type:decimal(12,2)"`
	Tax          decimal.Decimal `gorm:"type:decimal(12,2)"`
	Total        decimal.Decimal `gorm:"type:decimal(12,2)"`
	Currency     string          `gorm:"type:varchar(3)"`
	Items        string          `gorm:"type:jsonb"`
	Status       string          `gorm:"type:varchar(16);not null;default:'created'"`
	CreatedAt    time.Time
}

func (orderRecord) TableName() string {
	return "orders"
}

// GormOrderWriter creates order rows using GORM
type GormOrderWriter struct {
	db *gorm.DB
}

// NewGormOrderWriter creates a new GormOrderWriter
func NewGormOrderWriter(db *gorm.DB) *GormOrderWriter {
	return &GormOrderWriter{db: db}
}

// CreateOrder writes a new order and returns its ID
func (w *GormOrderWriter) CreateOrder(ctx context.Context, tenantID uuid.UUID, draft cart.OrderDraft) (uuid.UUID, error) {
	itemsJSON, err := json.Marshal(draft.Items)
	if err != nil {
		return uuid.Nil, err
	}
	rec := orderRecord{
		ID:           uuid.New(),
		TenantID:     tenantID,
		CartID:       draft.CartID,
		CustomerName: draft.CustomerName,
		TableCode:    draft.TableCode,
		Subtotal:     draft.Subtotal,
		Tax:          draft.Tax,
		Total:        draft.Total,
		Currency:     draft.Currency,
		Items:        string(itemsJSON),
		Status:       "created",
		CreatedAt:    time.Now(),
	}
	if err := w.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return uuid.Nil, err
	}
	return rec.ID, nil
}
