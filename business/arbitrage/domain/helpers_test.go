package domain

import (
	"time"

	"github.com/shopspring/decimal"

	pricing "github.com/fd1az/dynamic-arb/business/pricing/domain"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func testConfig() StrategyConfig {
	return StrategyConfig{
		CEXConnector:             "binance",
		CEXPair:                  pricing.MustParsePair("VIRTUAL-USDT"),
		DEXConnector:             "uniswap",
		DEXPair:                  pricing.MustParsePair("VIRTUAL-USDC"),
		MinProfitability:         d("0.001"),
		SizeIncrement:            d("1"),
		MaxOrderAmount:           d("100"),
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
