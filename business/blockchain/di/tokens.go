// Package di exposes the blockchain context's container tokens.
package di

import (
	"github.com/fd1az/dynamic-arb/business/blockchain/app"
	"github.com/fd1az/dynamic-arb/business/blockchain/infra/ethereum"
	"github.com/fd1az/dynamic-arb/internal/di"
)

var (
	// GasPriceSource is resolved by the DEX connector for network fees.
	GasPriceSource = di.NewToken[app.GasPriceSource]("blockchain.GasPriceSource")

	gasOracle = di.NewToken[*ethereum.GasOracle]("blockchain:gasOracle")
)

// GetGasPriceSource resolves the shared gas price source.
func GetGasPriceSource(c di.ServiceRegistry) app.GasPriceSource {
	return di.GetToken(c, GasPriceSource)
}

// RegisterGasOracle binds the concrete oracle and exposes it as the gas price source.
func RegisterGasOracle(c di.Container, factory func(di.ServiceRegistry) *ethereum.GasOracle) {
	di.RegisterToken(c, gasOracle, factory)
	di.RegisterToken(c, GasPriceSource, func(sr di.ServiceRegistry) app.GasPriceSource {
		return di.GetToken(sr, gasOracle)
	})
}

// GetGasOracle resolves the concrete oracle for lifecycle hooks.
func GetGasOracle(c di.ServiceRegistry) *ethereum.GasOracle {
	return di.GetToken(c, gasOracle)
}
