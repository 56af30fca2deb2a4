package domain

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// ProfitPercent converts a profit fraction to a percent with four decimals.
func ProfitPercent(p decimal.Decimal) decimal.Decimal {
	return p.Mul(hundred).RoundBank(4)
}

// FormatDecimal renders d without trailing zeros, or "N/A" when nil.
func FormatDecimal(d *decimal.Decimal) string {
	if d == nil {
		return "N/A"
	}
	return d.String()
}

// FormatPercent renders a profit fraction as a percent, or "N/A" when nil.
func FormatPercent(p *decimal.Decimal) string {
	if p == nil {
		return "N/A"
	}
	pct := ProfitPercent(*p)
	return FormatDecimal(&pct) + "%"
}
