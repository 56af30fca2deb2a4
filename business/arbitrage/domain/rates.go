package domain

import (
	"github.com/shopspring/decimal"

	pricing "github.com/fd1az/dynamic-arb/business/pricing/domain"
)

// ratePrecision is the number of decimal places kept for reciprocal rates.
const ratePrecision = 28

type ratePair struct {
	base  string
	quote string
}

// RateSource holds fixed conversion rates between asset symbols. Every rate
// is stored together with its reciprocal. Lookups are exact; there is no
// triangulation and no implicit identity rate.
type RateSource struct {
	rates map[ratePair]decimal.Decimal
}

// NewRateSource returns an empty RateSource.
func NewRateSource() *RateSource {
	return &RateSource{rates: make(map[ratePair]decimal.Decimal)}
}

// NewStrategyRates registers the rates a strategy needs to express DEX prices
// and gas fees in the CEX quote asset.
func NewStrategyRates(cfg StrategyConfig) *RateSource {
	rs := NewRateSource()

	cexQuote := cfg.CEXPair.Quote
	dexQuote := cfg.DEXPair.Quote

	rs.AddRate(dexQuote, cexQuote, cfg.QuoteConversionRate)
	rs.AddRate(cfg.GasToken, cexQuote, cfg.GasTokenPriceQuote)

	if dexQuote != cexQuote && cfg.QuoteConversionRate.IsPositive() {
		rs.AddRate(cfg.GasToken, dexQuote, cfg.GasTokenPriceQuote.DivRound(cfg.QuoteConversionRate, ratePrecision))
	}

	return rs
}

// AddRate stores base→quote and quote→base. Non-positive rates are ignored.
func (rs *RateSource) AddRate(base, quote string, rate decimal.Decimal) {
	if !rate.IsPositive() {
		return
	}
	rs.rates[ratePair{base, quote}] = rate
	rs.rates[ratePair{quote, base}] = decimal.NewFromInt(1).DivRound(rate, ratePrecision)
}

// GetRate returns the stored base→quote rate.
func (rs *RateSource) GetRate(base, quote string) (decimal.Decimal, bool) {
	r, ok := rs.rates[ratePair{base, quote}]
	return r, ok
}

// ConvertFlatFees sums fees expressed in target. Non-positive fees are
// skipped and fees whose token has no stored rate to target contribute
// nothing.
func (rs *RateSource) ConvertFlatFees(fees []pricing.TokenAmount, target string) decimal.Decimal {
	total := decimal.Zero
	for _, f := range fees {
		if !f.Amount.IsPositive() {
			continue
		}
		if r, ok := rs.GetRate(f.Token, target); ok {
			total = total.Add(f.Amount.Mul(r))
		}
	}
	return total
}
