package app

import (
	"github.com/shopspring/decimal"

	"github.com/fd1az/dynamic-arb/business/arbitrage/domain"
	pricing "github.com/fd1az/dynamic-arb/business/pricing/domain"
)

// profitPrecision is the number of decimal places kept for profit fractions.
const profitPrecision = 28

var one = decimal.NewFromInt(1)

// Evaluator computes the net profit fraction of each proposal direction with
// every price and flat fee expressed in the CEX quote asset.
type Evaluator struct {
	cfg   domain.StrategyConfig
	rates *domain.RateSource
}

// NewEvaluator creates an Evaluator.
func NewEvaluator(cfg domain.StrategyConfig, rates *domain.RateSource) *Evaluator {
	return &Evaluator{cfg: cfg, rates: rates}
}

// Evaluate returns the profit of each direction found in proposals. A
// direction is left nil when its proposal is missing, its DEX price cannot be
// converted, or its cost is not positive. When two proposals share a
// direction the later one wins.
func (e *Evaluator) Evaluate(proposals []pricing.Proposal) domain.Evaluation {
	var out domain.Evaluation

	for _, p := range proposals {
		dir, ok := domain.DirectionOf(p)
		if !ok {
			continue
		}

		profit, ok := e.profit(p)
		if !ok {
			continue
		}

		switch dir {
		case domain.DirectionCEXBuy:
			price := p.Buy.Price
			out.CEXBuyProfit = &profit
			out.CEXBuyPrice = &price
		case domain.DirectionCEXSell:
			out.CEXSellProfit = &profit
		}
	}

	return out
}

func (e *Evaluator) profit(p pricing.Proposal) (decimal.Decimal, bool) {
	buyPrice, ok := e.priceInCEXQuote(p.Buy)
	if !ok {
		return decimal.Zero, false
	}
	sellPrice, ok := e.priceInCEXQuote(p.Sell)
	if !ok {
		return decimal.Zero, false
	}

	cexQuote := e.cfg.CEXPair.Quote
	buyFlat := e.rates.ConvertFlatFees(p.Buy.ExtraFlatFees, cexQuote)
	sellFlat := e.rates.ConvertFlatFees(p.Sell.ExtraFlatFees, cexQuote)

	cost := p.Amount.Mul(buyPrice).Mul(one.Add(e.cfg.FeeFor(p.Buy.Venue))).Add(buyFlat)
	if !cost.IsPositive() {
		return decimal.Zero, false
	}
	revenue := p.Amount.Mul(sellPrice).Mul(one.Sub(e.cfg.FeeFor(p.Sell.Venue))).Sub(sellFlat)

	return revenue.Sub(cost).DivRound(cost, profitPrecision), true
}

// priceInCEXQuote leaves CEX prices untouched and converts DEX prices through
// the dex_quote→cex_quote rate.
func (e *Evaluator) priceInCEXQuote(side pricing.QuoteSide) (decimal.Decimal, bool) {
	if side.Venue == pricing.VenuePrimary {
		return side.Price, true
	}
	rate, ok := e.rates.GetRate(side.QuoteAsset, e.cfg.CEXPair.Quote)
	if !ok {
		return decimal.Zero, false
	}
	return side.Price.Mul(rate), true
}
