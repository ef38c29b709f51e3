package persistence

import (
	"context"
	"errors"

	"github.com/dinecart/backend/internal/domain/shared"
	"github.com/dinecart/backend/internal/domain/tax"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormTaxProfileRepository reads tenant tax profiles using GORM
type GormTaxProfileRepository struct {
	db *gorm.DB
}

// NewGormTaxProfileRepository creates a new GormTaxProfileRepository
func NewGormTaxProfileRepository(db *gorm.DB) *GormTaxProfileRepository {
	return &GormTaxProfileRepository{db: db}
}

// FindByTenant returns the tenant's tax profile
func (r *GormTaxProfileRepository) FindByTenant(ctx context.Context, tenantID uuid.UUID) (*tax.Profile, error) {
	var profile tax.Profile
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &profile, nil
}

// Save creates or updates a tenant's tax profile
func (r *GormTaxProfileRepository) Save(ctx context.Context, profile *tax.Profile) error {
	return r.db.WithContext(ctx).Save(profile).Error
}
