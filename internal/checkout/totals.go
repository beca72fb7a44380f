package checkout

import (
	"github.com/shopspring/decimal"
)

var DefaultTaxRate = decimal.RequireFromString("0.07")

type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
	Shipping decimal.Decimal `json:"shipping"`
	Total    decimal.Decimal `json:"total"`
}

// ComputeTotals rounds tax to cents, half away from zero. Shipping is always free.
func ComputeTotals(subtotal, taxRate decimal.Decimal) Totals {
	tax := subtotal.Mul(taxRate).Round(2)
	return Totals{
		Subtotal: subtotal,
		Tax:      tax,
		Shipping: decimal.Zero,
		Total:    subtotal.Add(tax),
	}
}
