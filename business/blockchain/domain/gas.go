// Package domain contains the core domain types for the blockchain context.
package domain

import (
	"math/big"
	"time"

	"github.com/shopspring/decimal"
)

// nativeDecimals is the precision of the chain's gas token (wei per ETH).
const nativeDecimals = 18

// GasPrice represents gas price information.
type GasPrice struct {
	Wei       *big.Int
	Timestamp time.Time
}

// NewGasPrice creates a GasPrice from wei.
func NewGasPrice(wei *big.Int, at time.Time) *GasPrice {
	return &GasPrice{Wei: new(big.Int).Set(wei), Timestamp: at}
}

// Gwei returns the price in gwei.
func (g *GasPrice) Gwei() float64 {
	f, _ := decimal.NewFromBigInt(g.Wei, -9).Float64()
	return f
}

// NetworkFee is the cost of gasUnits at this price, in the gas token.
func (g *GasPrice) NetworkFee(gasUnits uint64) decimal.Decimal {
	total := new(big.Int).Mul(g.Wei, new(big.Int).SetUint64(gasUnits))
	return decimal.NewFromBigInt(total, -nativeDecimals)
}

// IsFresh reports whether the price was observed less than maxAge before now.
func (g *GasPrice) IsFresh(now time.Time, maxAge time.Duration) bool {
	return g != nil && now.Sub(g.Timestamp) < maxAge
}

// WeiFromGwei converts a gwei amount to wei, truncating sub-wei precision.
func WeiFromGwei(gwei decimal.Decimal) *big.Int {
	return gwei.Shift(9).Truncate(0).BigInt()
}
