package tax

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/dinecart/backend/internal/domain/shared"
	"github.com/dinecart/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// ComponentList is a JSON-serialized ordered list of tax components
type ComponentList []Component

// Value implements driver.Valuer for database storage
func (l ComponentList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner for database retrieval
func (l *ComponentList) Scan(value any) error {
	if value == nil {
		*l = nil
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		return fmt.Errorf("cannot scan %T into ComponentList", value)
	}
	return json.Unmarshal(data, l)
}

// Profile is a tenant's stored tax configuration. Rates are stored as
// entered; Config normalization happens at resolution time.
type Profile struct {
	shared.TenantEntity
	EffectiveRate decimal.Decimal      `gorm:"type:decimal(8,6);not null;default:0"`
	Breakdown     ComponentList        `gorm:"type:jsonb"`
	Inclusion     Inclusion            `gorm:"type:varchar(16);not null;default:'inclusive'"`
	Currency      valueobject.Currency `gorm:"type:varchar(3);not null;default:'INR'"`
}

// TableName sets the table name for GORM
func (Profile) TableName() string {
	return "tax_profiles"
}

// ToConfig converts the stored profile into a normalized Config
func (p *Profile) ToConfig() Config {
	return Config{
		EffectiveRate: p.EffectiveRate,
		Breakdown:     p.Breakdown,
		Inclusion:     p.Inclusion,
		Currency:      p.Currency,
	}.Normalize()
}
