// Package blockchain provides on-chain network data, currently the gas price
// the DEX connector needs to price a swap.
package blockchain

import (
	"context"

	"github.com/ethereum/go-ethereum/ethclient"

	blockchainDI "github.com/fd1az/dynamic-arb/business/blockchain/di"
	"github.com/fd1az/dynamic-arb/business/blockchain/infra/ethereum"
	"github.com/fd1az/dynamic-arb/internal/config"
	"github.com/fd1az/dynamic-arb/internal/di"
	"github.com/fd1az/dynamic-arb/internal/logger"
	"github.com/fd1az/dynamic-arb/internal/monolith"
)

// Module wires the gas oracle.
type Module struct{}

func (m *Module) RegisterServices(c di.Container) error {
	blockchainDI.RegisterGasOracle(c, func(sr di.ServiceRegistry) *ethereum.GasOracle {
		cfg := sr.Get(monolith.KeyConfig).(*config.Config)
		log := sr.Get(monolith.KeyLogger).(logger.LoggerInterface)
		client := sr.Get(monolith.KeyEthClient).(*ethclient.Client)

		gas := cfg.Ethereum.Gas
		oracle, err := ethereum.NewGasOracle(client, ethereum.OracleConfigFromGwei(gas.RefreshInterval, gas.MaxGwei), log)
		if err != nil {
			panic("failed to create gas oracle: " + err.Error())
		}
		return oracle
	})
	return nil
}

// Startup primes the oracle. A failure only warns; every scan asks again.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()
	oracle := blockchainDI.GetGasOracle(mono.Services())

	price, err := oracle.GetGasPrice(ctx)
	if err != nil {
		log.Warn(ctx, "initial gas price fetch failed", "error", err)
		return nil
	}
	log.Info(ctx, "blockchain module started", "gas_gwei", price.Gwei())
	return nil
}
