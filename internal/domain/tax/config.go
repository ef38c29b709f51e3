package tax

import (
	"github.com/dinecart/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// Inclusion controls whether quoted prices already contain tax
type Inclusion string

const (
	Inclusive Inclusion = "inclusive"
	Exclusive Inclusion = "exclusive"
)

// IsValid checks if the inclusion is a known value
func (i Inclusion) IsValid() bool {
	return i == Inclusive || i == Exclusive
}

// Mode distinguishes a single flat rate from a named component breakdown
type Mode string

const (
	ModeSingle     Mode = "single"
	ModeComponents Mode = "components"
)

// Component is one named tax component, e.g. CGST at 2.5%
type Component struct {
	Name string          `json:"name"`
	Rate decimal.Decimal `json:"rate"`
}

// Config is a tenant's effective tax configuration after normalization
type Config struct {
	EffectiveRate decimal.Decimal      `json:"effective_rate"`
	Breakdown     []Component          `json:"breakdown"`
	Mode          Mode                 `json:"mode"`
	Inclusion     Inclusion            `json:"inclusion"`
	Currency      valueobject.Currency `json:"currency"`
}

var hundred = decimal.NewFromInt(100)

// normalizeRate interprets any rate above 1 as a percentage
func normalizeRate(r decimal.Decimal) decimal.Decimal {
	if r.GreaterThan(decimal.NewFromInt(1)) {
		return r.Div(hundred)
	}
	return r
}

// ZeroConfig returns the zero-rate inclusive single-mode default used when a
// tenant has no tax profile or the lookup fails.
func ZeroConfig(currency valueobject.Currency) Config {
	if currency == "" {
		currency = valueobject.DefaultCurrency
	}
	return Config{
		EffectiveRate: decimal.Zero,
		Breakdown:     []Component{{Name: "Tax", Rate: decimal.Zero}},
		Mode:          ModeSingle,
		Inclusion:     Inclusive,
		Currency:      currency,
	}
}

// Normalize returns a canonical copy of the config:
//   - any rate above 1 is treated as a percentage and divided by 100
//   - a non-empty breakdown is filtered to positive-rate components and the
//     effective rate becomes the sum of those rates
//   - an empty breakdown synthesizes a single "Tax" component at the
//     effective rate
func (c Config) Normalize() Config {
	out := c
	out.EffectiveRate = normalizeRate(c.EffectiveRate)

	if !out.Inclusion.IsValid() {
		out.Inclusion = Inclusive
	}
	if out.Currency == "" {
		out.Currency = valueobject.DefaultCurrency
	}

	filtered := make([]Component, 0, len(c.Breakdown))
	for _, comp := range c.Breakdown {
		rate := normalizeRate(comp.Rate)
		if rate.IsPositive() {
			filtered = append(filtered, Component{Name: comp.Name, Rate: rate})
		}
	}

	if len(filtered) > 0 {
		sum := decimal.Zero
		for _, comp := range filtered {
			sum = sum.Add(comp.Rate)
		}
		out.Breakdown = filtered
		out.EffectiveRate = sum
		out.Mode = ModeComponents
		if len(filtered) == 1 {
			out.Mode = ModeSingle
		}
		return out
	}

	out.Breakdown = []Component{{Name: "Tax", Rate: out.EffectiveRate}}
	out.Mode = ModeSingle
	return out
}
