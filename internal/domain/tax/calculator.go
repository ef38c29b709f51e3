package tax

import (
	"github.com/shopspring/decimal"
)

// IntermediatePrecision is the fixed decimal precision used for all
// intermediate tax arithmetic. Presentation-level rounding to currency
// precision is a caller concern.
const IntermediatePrecision = 6

// Allocation is one component's share of the computed tax
type Allocation struct {
	Name   string          `json:"name"`
	Rate   decimal.Decimal `json:"rate"`
	Amount decimal.Decimal `json:"amount"`
}

// Totals is the result of a totals computation. The breakdown amounts always
// sum to Tax exactly; the last component absorbs any rounding remainder.
type Totals struct {
	Subtotal    decimal.Decimal `json:"subtotal"`
	Tax         decimal.Decimal `json:"tax"`
	Total       decimal.Decimal `json:"total"`
	PricingMode Inclusion       `json:"pricing_mode"`
	Breakdown   []Allocation    `json:"tax_breakdown"`
}

// ComputeInclusive derives totals from a tax-inclusive amount T:
// subtotal = T/(1+r), tax = T - subtotal.
func ComputeInclusive(total decimal.Decimal, cfg Config) Totals {
	rate := cfg.EffectiveRate
	divisor := decimal.NewFromInt(1).Add(rate)

	subtotal := total
	if !rate.IsZero() {
		subtotal = total.DivRound(divisor, IntermediatePrecision)
	}
	taxAmount := total.Sub(subtotal)

	return Totals{
		Subtotal:    subtotal,
		Tax:         taxAmount,
		Total:       total,
		PricingMode: Inclusive,
		Breakdown:   allocate(taxAmount, cfg.Breakdown),
	}
}

// ComputeExclusive derives totals from a pre-tax subtotal S:
// tax = S*r, total = S + tax.
func ComputeExclusive(subtotal decimal.Decimal, cfg Config) Totals {
	taxAmount := subtotal.Mul(cfg.EffectiveRate).Round(IntermediatePrecision)

	return Totals{
		Subtotal:    subtotal,
		Tax:         taxAmount,
		Total:       subtotal.Add(taxAmount),
		PricingMode: Exclusive,
		Breakdown:   allocate(taxAmount, cfg.Breakdown),
	}
}

// Compute dispatches on the config's inclusion mode. The amount is the
// tax-inclusive total under inclusive pricing and the pre-tax subtotal
// otherwise.
func Compute(amount decimal.Decimal, cfg Config) Totals {
	if cfg.Inclusion == Exclusive {
		return ComputeExclusive(amount, cfg)
	}
	return ComputeInclusive(amount, cfg)
}

// allocate splits a tax amount across components proportionally to their
// rates. The first n-1 components receive tax*(r_i/sum) rounded to the
// intermediate precision; the last component receives the remainder so that
// the allocated amounts sum to the tax exactly. A single-component breakdown
// goes through the same path.
func allocate(taxAmount decimal.Decimal, components []Component) []Allocation {
	if len(components) == 0 {
		return []Allocation{}
	}

	sum := decimal.Zero
	for _, c := range components {
		sum = sum.Add(c.Rate)
	}

	out := make([]Allocation, len(components))
	allocated := decimal.Zero
	for i, c := range components {
		if i == len(components)-1 {
			out[i] = Allocation{Name: c.Name, Rate: c.Rate, Amount: taxAmount.Sub(allocated)}
			break
		}
		var share decimal.Decimal
		if !sum.IsZero() {
			share = taxAmount.Mul(c.Rate).DivRound(sum, IntermediatePrecision)
		}
		allocated = allocated.Add(share)
		out[i] = Allocation{Name: c.Name, Rate: c.Rate, Amount: share}
	}
	return out
}
