package domain

import "github.com/shopspring/decimal"

func init() {
	// Prices travel as JSON numbers (29.99), not strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// Money rounds an amount to cents
func Money(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
