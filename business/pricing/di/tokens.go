// Package di contains dependency injection tokens for the pricing context.
package di

import (
	"github.com/fd1az/dynamic-arb/business/pricing/app"
	"github.com/fd1az/dynamic-arb/business/pricing/infra/binance"
	"github.com/fd1az/dynamic-arb/business/pricing/infra/uniswap"
	"github.com/fd1az/dynamic-arb/internal/di"
)

// Public service tokens - exposed to other modules
var (
	ProposalService = di.NewToken[*app.ProposalService]("pricing.ProposalService")
	// Connectors indexes every venue by connector name.
	Connectors = di.NewToken[map[string]app.Connector]("pricing.Connectors")
)

// Private dependency tokens - internal to pricing module
var (
	BinanceProvider = di.NewToken[*binance.Provider]("pricing:binanceProvider")
	UniswapProvider = di.NewToken[*uniswap.Provider]("pricing:uniswapProvider")
)

// Helper functions for type-safe access
func GetProposalService(c di.ServiceRegistry) *app.ProposalService {
	return di.GetToken(c, ProposalService)
}

func GetConnectors(c di.ServiceRegistry) map[string]app.Connector {
	return di.GetToken(c, Connectors)
}

func GetBinanceProvider(c di.ServiceRegistry) *binance.Provider {
	return di.GetToken(c, BinanceProvider)
}

func GetUniswapProvider(c di.ServiceRegistry) *uniswap.Provider {
	return di.GetToken(c, UniswapProvider)
}
