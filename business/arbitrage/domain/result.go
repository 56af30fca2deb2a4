package domain

import "github.com/shopspring/decimal"

// Evaluation holds per-direction profit fractions for one trade size. A nil
// field means the direction could not be evaluated.
type Evaluation struct {
	CEXSellProfit *decimal.Decimal
	CEXBuyProfit  *decimal.Decimal

	// CEXBuyPrice is the raw CEX unit price of the CEX-buy direction, in the
	// CEX quote asset.
	CEXBuyPrice *decimal.Decimal
}

// ScanHalt records why a size scan stopped walking.
type ScanHalt string

const (
	HaltNone          ScanHalt = ""
	HaltNoBalance     ScanHalt = "no_balance"
	HaltMaxAmount     ScanHalt = "max_amount"
	HaltQuoteBalance  ScanHalt = "quote_balance"
	HaltNotionalLimit ScanHalt = "notional_limit"
	HaltIterations    ScanHalt = "iterations"
)

// ScanResult is the outcome of one size scan. BestAmount is zero when no
// size cleared the profitability threshold; the remaining fields are
// diagnostics and are populated either way.
type ScanResult struct {
	BestAmount decimal.Decimal
	BestProfit decimal.Decimal

	MaxSeenProfit *decimal.Decimal
	MaxSeenAmount *decimal.Decimal

	CEXSellProfit *decimal.Decimal
	CEXBuyProfit  *decimal.Decimal

	SizesEvaluated int
	Halt           ScanHalt
}

// Found reports whether a profitable size was selected.
func (r ScanResult) Found() bool {
	return r.BestAmount.IsPositive()
}
