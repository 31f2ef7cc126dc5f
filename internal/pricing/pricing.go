// Package pricing turns cart lines into order totals.
//
// All arithmetic uses decimals and rounds half-up to two places at the
// aggregate, never per line, so long carts do not accumulate rounding drift.
package pricing

import "github.com/shopspring/decimal"

var (
	taxRate               = decimal.NewFromFloat(0.15)
	freeShippingThreshold = decimal.NewFromFloat(50.00)
	flatShippingFee       = decimal.NewFromFloat(5.99)
)

// Line is the minimal priced input: a quantity and a snapshotted unit price.
type Line struct {
	Quantity  int
	UnitPrice decimal.Decimal
}

// Result is the full price breakdown of a cart.
type Result struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
	Shipping decimal.Decimal `json:"shipping"`
	Total    decimal.Decimal `json:"total"`
}

// Price computes subtotal, 15% tax, flat shipping (free above 50.00) and the
// grand total for the given lines. Pure function, no I/O.
func Price(lines []Line) Result {
	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	subtotal = subtotal.Round(2)

	tax := subtotal.Mul(taxRate).Round(2)

	shipping := flatShippingFee
	if subtotal.GreaterThan(freeShippingThreshold) {
		shipping = decimal.Zero
	}

	total := subtotal.Add(tax).Add(shipping).Round(2)

	return Result{
		Subtotal: subtotal,
		Tax:      tax,
		Shipping: shipping,
		Total:    total,
	}
}
