package cart

import (
	"github.com/dinecart/backend/internal/domain/cart"
	"github.com/dinecart/backend/internal/domain/tax"
)

// computeTotals runs the items total through the tax computation. Under
// inclusive pricing the items total is the tax-inclusive amount; under
// exclusive pricing it is the pre-tax subtotal.
func computeTotals(items []cart.LineItem, cfg tax.Config) tax.Totals {
	return tax.Compute(cart.ItemsTotal(items), cfg)
}
