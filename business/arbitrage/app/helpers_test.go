package app

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fd1az/dynamic-arb/business/arbitrage/domain"
	pricing "github.com/fd1az/dynamic-arb/business/pricing/domain"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func testConfig() domain.StrategyConfig {
	return domain.StrategyConfig{
		CEXConnector:             "binance",
		CEXPair:                  pricing.MustParsePair("VIRTUAL-USDT"),
		DEXConnector:             "uniswap",
		DEXPair:                  pricing.MustParsePair("VIRTUAL-USDC"),
		MinProfitability:         d("0.001"),
		SizeIncrement:            d("1"),
		MaxOrderAmount:           d("5"),
		MaxCEXNotional:           d("1000"),
		CEXFee:                   d("0.001"),
		DEXFee:                   d("0.0005"),
		GasToken:                 "ETH",
		GasTokenPriceQuote:       d("2500"),
		QuoteConversionRate:      d("1"),
		MaxConcurrentExecutors:   1,
		NoOpportunityLogInterval: 30 * time.Second,
	}
}

// cexBuyProposal buys amount on the CEX at buy and sells on the DEX at sell (USDC).
func cexBuyProposal(amount decimal.Decimal, buy, sell string) pricing.Proposal {
	cfg := testConfig()
	return pricing.Proposal{
		Buy: pricing.QuoteSide{
			Venue: pricing.VenuePrimary, Connector: cfg.CEXConnector, Pair: cfg.CEXPair,
			Side: pricing.SideBuy, Price: d(buy), QuoteAsset: cfg.CEXPair.Quote,
		},
		Sell: pricing.QuoteSide{
			Venue: pricing.VenueSecondary, Connector: cfg.DEXConnector, Pair: cfg.DEXPair,
			Side: pricing.SideSell, Price: d(sell), QuoteAsset: cfg.DEXPair.Quote,
		},
		Amount: amount,
	}
}

// cexSellProposal buys amount on the DEX at buy (USDC) and sells on the CEX at sell.
func cexSellProposal(amount decimal.Decimal, buy, sell string) pricing.Proposal {
	p := cexBuyProposal(amount, "1", "1")
	p.Buy, p.Sell = p.Sell, p.Buy
	p.Buy.Side, p.Buy.Price = pricing.SideBuy, d(buy)
	p.Sell.Side, p.Sell.Price = pricing.SideSell, d(sell)
	return p
}

type fakeVenue struct {
	balances   map[string]decimal.Decimal
	balanceErr error
	quantize   func(decimal.Decimal) decimal.Decimal
}

func (f *fakeVenue) GetAvailableBalance(_ context.Context, asset string) (decimal.Decimal, error) {
	if f.balanceErr != nil {
		return decimal.Zero, f.balanceErr
	}
	return f.balances[asset], nil
}

func (f *fakeVenue) QuantizeOrderAmount(_ pricing.Pair, amount decimal.Decimal) decimal.Decimal {
	if f.quantize != nil {
		return f.quantize(amount)
	}
	return amount
}

// feeVenue is a venue that charges a flat network fee per trade.
type feeVenue struct {
	fakeVenue
	fee    pricing.TokenAmount
	feeErr error
}

func (f *feeVenue) NetworkTransactionFee(context.Context) (pricing.TokenAmount, error) {
	return f.fee, f.feeErr
}

type fakeProposals struct {
	mu    sync.Mutex
	fn    func(amount decimal.Decimal) ([]pricing.Proposal, error)
	calls []decimal.Decimal
	fees  [][]pricing.TokenAmount
}

func (f *fakeProposals) GetQuoteProposals(
	_ context.Context,
	_, _ pricing.Market,
	primaryFees, secondaryFees []pricing.TokenAmount,
	amount decimal.Decimal,
) ([]pricing.Proposal, error) {
	f.mu.Lock()
	f.calls = append(f.calls, amount)
	f.fees = append(f.fees, secondaryFees)
	f.mu.Unlock()
	return f.fn(amount)
}

func (f *fakeProposals) amounts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	for i, c := range f.calls {
		out[i] = c.String()
	}
	return out
}

func richVenues() (cex, dex *fakeVenue) {
	cex = &fakeVenue{balances: map[string]decimal.Decimal{"USDT": d("100000")}}
	dex = &fakeVenue{balances: map[string]decimal.Decimal{"VIRTUAL": d("100000")}}
	return cex, dex
}
