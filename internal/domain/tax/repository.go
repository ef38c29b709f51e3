package tax

import (
	"context"

	"github.com/google/uuid"
)

// ProfileRepository is the persistence port for tenant tax profiles
type ProfileRepository interface {
	FindByTenant(ctx context.Context, tenantID uuid.UUID) (*Profile, error)
	Save(ctx context.Context, profile *Profile) error
}
