package cartstore

import "github.com/shopspring/decimal"

// taxHint is the last tax configuration observed in a server response. The
// mirror recomputes totals locally with it after every optimistic mutation
// so the UI never flashes a zero-tax total while a flush is pending.
type taxHint struct {
	pricingMode string
	rates       []TaxLine // rates only; amounts are recomputed
}

func (h taxHint) effectiveRate() decimal.Decimal {
	sum := decimal.Zero
	for _, line := range h.rates {
		sum = sum.Add(line.Rate)
	}
	return sum
}

// hintFromTotals captures the rate structure of a server totals payload
func hintFromTotals(t Totals) taxHint {
	rates := make([]TaxLine, len(t.TaxBreakdown))
	for i, line := range t.TaxBreakdown {
		rates[i] = TaxLine{Name: line.Name, Rate: line.Rate}
	}
	return taxHint{pricingMode: t.PricingMode, rates: rates}
}

const localPrecision = 6

// recomputeTotals rebuilds totals for the mirror's items using the hint.
// The allocation mirrors the server's: proportional shares rounded to six
// decimals, with the last component absorbing the remainder so the
// breakdown always sums to the tax exactly.
func recomputeTotals(items []Item, hint taxHint) Totals {
	amount := decimal.Zero
	for i := range items {
		amount = amount.Add(items[i].UnitPrice.Mul(decimal.NewFromInt(int64(items[i].Quantity))))
	}

	rate := hint.effectiveRate()
	mode := hint.pricingMode
	if mode == "" {
		mode = "inclusive"
	}

	var subtotal, tax, total decimal.Decimal
	if mode == "exclusive" {
		subtotal = amount
		tax = amount.Mul(rate).Round(localPrecision)
		total = subtotal.Add(tax)
	} else {
		total = amount
		subtotal = total
		if !rate.IsZero() {
			subtotal = total.DivRound(decimal.NewFromInt(1).Add(rate), localPrecision)
		}
		tax = total.Sub(subtotal)
	}

	return Totals{
		Subtotal:     subtotal,
		Tax:          tax,
		Total:        total,
		PricingMode:  mode,
		TaxBreakdown: allocateLocal(tax, hint.rates),
	}
}

func allocateLocal(tax decimal.Decimal, rates []TaxLine) []TaxLine {
	if len(rates) == 0 {
		return []TaxLine{}
	}
	sum := decimal.Zero
	for _, r := range rates {
		sum = sum.Add(r.Rate)
	}
	out := make([]TaxLine, len(rates))
	if sum.IsZero() {
		for i, r := range rates {
			out[i] = TaxLine{Name: r.Name, Rate: r.Rate, Amount: decimal.Zero}
		}
		return out
	}
	allocated := decimal.Zero
	for i, r := range rates {
		if i == len(rates)-1 {
			out[i] = TaxLine{Name: r.Name, Rate: r.Rate, Amount: tax.Sub(allocated)}
			break
		}
		share := tax.Mul(r.Rate).DivRound(sum, localPrecision)
		out[i] = TaxLine{Name: r.Name, Rate: r.Rate, Amount: share}
		allocated = allocated.Add(share)
	}
	return out
}
