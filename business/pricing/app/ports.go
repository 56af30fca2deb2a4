// Package app contains application services and port definitions for the pricing context.
package app

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/fd1az/dynamic-arb/business/pricing/domain"
)

// PriceQuoter returns the average unit price to fill amount base units on side.
type PriceQuoter interface {
	GetQuotePrice(ctx context.Context, pair domain.Pair, side domain.Side, amount decimal.Decimal) (decimal.Decimal, error)
}

// Connector is a trading venue the strategy prices, sizes and funds against.
type Connector interface {
	PriceQuoter

	// Name returns the connector identifier, e.g. "binance".
	Name() string

	// GetAvailableBalance returns the spendable balance of asset.
	GetAvailableBalance(ctx context.Context, asset string) (decimal.Decimal, error)

	// QuantizeOrderAmount rounds amount down to the venue's lot rules.
	// Amounts below the minimum lot quantize to zero.
	QuantizeOrderAmount(pair domain.Pair, amount decimal.Decimal) decimal.Decimal
}

// FlatFeeEstimator is implemented by connectors that charge a per-trade
// network fee independent of trade size.
type FlatFeeEstimator interface {
	NetworkTransactionFee(ctx context.Context) (domain.TokenAmount, error)
}
