package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	pricing "github.com/fd1az/dynamic-arb/business/pricing/domain"
	"github.com/fd1az/dynamic-arb/internal/apperror"
)

// StrategyConfig is the validated configuration of one CEX/DEX strategy.
type StrategyConfig struct {
	CEXConnector string
	CEXPair      pricing.Pair
	DEXConnector string
	DEXPair      pricing.Pair

	MinProfitability decimal.Decimal
	SizeIncrement    decimal.Decimal
	MaxOrderAmount   decimal.Decimal
	MaxCEXNotional   decimal.Decimal

	CEXFee decimal.Decimal
	DEXFee decimal.Decimal

	GasToken            string
	GasTokenPriceQuote  decimal.Decimal
	QuoteConversionRate decimal.Decimal

	MaxConcurrentExecutors   int
	NoOpportunityLogInterval time.Duration
}

// Validate rejects configurations the strategy cannot run with.
func (c StrategyConfig) Validate() error {
	if c.CEXPair.Base != c.DEXPair.Base {
		return configError(fmt.Sprintf("base asset mismatch: %s on %s vs %s on %s",
			c.CEXPair.Base, c.CEXConnector, c.DEXPair.Base, c.DEXConnector))
	}

	checks := []struct {
		ok  bool
		msg string
	}{
		{c.CEXConnector != "" && c.DEXConnector != "", "cex and dex connectors are required"},
		{c.CEXPair.Base != "" && c.CEXPair.Quote != "", "cex trading pair is required"},
		{c.DEXPair.Quote != "", "dex trading pair is required"},
		{c.GasToken != "", "gas token is required"},
		{c.SizeIncrement.IsPositive(), "size_increment must be positive"},
		{c.MaxOrderAmount.IsPositive(), "max_order_amount must be positive"},
		{c.MaxCEXNotional.IsPositive(), "max_cex_notional must be positive"},
		{c.MinProfitability.IsPositive(), "min_profitability must be positive"},
		{validFee(c.CEXFee), "cex_fee must be in [0, 1)"},
		{validFee(c.DEXFee), "dex_fee must be in [0, 1)"},
		{c.GasTokenPriceQuote.IsPositive(), "gas_token_price_quote must be positive"},
		{c.QuoteConversionRate.IsPositive(), "quote_conversion_rate must be positive"},
		{c.MaxConcurrentExecutors >= 1, "max_concurrent_executors must be at least 1"},
		{c.NoOpportunityLogInterval >= 0, "no_opportunity_log_interval must not be negative"},
	}
	for _, chk := range checks {
		if !chk.ok {
			return configError(chk.msg)
		}
	}
	return nil
}

// CEXMarket is the primary market.
func (c StrategyConfig) CEXMarket() pricing.Market {
	return pricing.Market{Venue: pricing.VenuePrimary, Connector: c.CEXConnector, Pair: c.CEXPair}
}

// DEXMarket is the secondary market.
func (c StrategyConfig) DEXMarket() pricing.Market {
	return pricing.Market{Venue: pricing.VenueSecondary, Connector: c.DEXConnector, Pair: c.DEXPair}
}

// FeeFor returns the proportional fee rate charged by the venue playing role.
func (c StrategyConfig) FeeFor(role pricing.VenueRole) decimal.Decimal {
	if role == pricing.VenuePrimary {
		return c.CEXFee
	}
	return c.DEXFee
}

func validFee(f decimal.Decimal) bool {
	return !f.IsNegative() && f.LessThan(decimal.NewFromInt(1))
}

func configError(msg string) error {
	return apperror.Validation(apperror.CodeConfigurationError, msg)
}
