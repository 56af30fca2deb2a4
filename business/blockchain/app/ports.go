// Package app holds the blockchain context's ports.
package app

import (
	"context"

	"github.com/fd1az/dynamic-arb/business/blockchain/domain"
)

// GasPriceSource is what other contexts consume to price network fees.
// Implementations may serve a recent observation rather than a live read.
type GasPriceSource interface {
	GetGasPrice(ctx context.Context) (*domain.GasPrice, error)
}
