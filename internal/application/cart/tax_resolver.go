package cart

import (
	"context"

	"github.com/dinecart/backend/internal/domain/shared/valueobject"
	"github.com/dinecart/backend/internal/domain/tax"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TaxConfigResolver resolves a tenant's effective tax configuration. It
// never fails the caller: when no profile exists or the lookup errors, it
// returns a zero-rate inclusive default in the tenant's default currency.
type TaxConfigResolver struct {
	profiles        tax.ProfileRepository
	defaultCurrency valueobject.Currency
	logger          *zap.Logger
}

// NewTaxConfigResolver creates a new TaxConfigResolver
func NewTaxConfigResolver(profiles tax.ProfileRepository, defaultCurrency valueobject.Currency, logger *zap.Logger) *TaxConfigResolver {
	if defaultCurrency == "" {
		defaultCurrency = valueobject.DefaultCurrency
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TaxConfigResolver{
		profiles:        profiles,
		defaultCurrency: defaultCurrency,
		logger:          logger,
	}
}

// Resolve returns the tenant's normalized tax config
func (r *TaxConfigResolver) Resolve(ctx context.Context, tenantID uuid.UUID) tax.Config {
	profile, err := r.profiles.FindByTenant(ctx, tenantID)
	if err != nil || profile == nil {
		if err != nil {
			r.logger.Debug("tax profile lookup failed, using zero-rate default",
				zap.String("tenant_id", tenantID.String()),
				zap.Error(err))
		}
		return tax.ZeroConfig(r.defaultCurrency)
	}
	cfg := profile.ToConfig()
	if cfg.Currency == "" {
		cfg.Currency = r.defaultCurrency
	}
	return cfg
}
