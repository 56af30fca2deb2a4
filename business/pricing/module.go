// Package pricing implements the pricing bounded context: venue connectors
// and cross-venue quote proposals.
package pricing

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"

	blockchainDI "github.com/fd1az/dynamic-arb/business/blockchain/di"
	"github.com/fd1az/dynamic-arb/business/pricing/app"
	pricingDI "github.com/fd1az/dynamic-arb/business/pricing/di"
	"github.com/fd1az/dynamic-arb/business/pricing/infra/binance"
	"github.com/fd1az/dynamic-arb/business/pricing/infra/uniswap"
	"github.com/fd1az/dynamic-arb/internal/apperror"
	"github.com/fd1az/dynamic-arb/internal/asset"
	"github.com/fd1az/dynamic-arb/internal/config"
	"github.com/fd1az/dynamic-arb/internal/di"
	"github.com/fd1az/dynamic-arb/internal/logger"
	"github.com/fd1az/dynamic-arb/internal/monolith"
)

const startupTimeout = 10 * time.Second

// Module implements the pricing bounded context.
type Module struct{}

// RegisterServices registers all pricing services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, pricingDI.BinanceProvider, func(sr di.ServiceRegistry) *binance.Provider {
		cfg := sr.Get(monolith.KeyConfig).(*config.Config)
		log := sr.Get(monolith.KeyLogger).(logger.LoggerInterface)

		httpCfg := binance.DefaultHTTPClientConfig()
		httpCfg.BaseURL = cfg.Binance.BaseURL
		httpCfg.APIKey = cfg.Binance.APIKey
		httpCfg.APISecret = cfg.Binance.APISecret
		if cfg.Binance.RecvWindow > 0 {
			httpCfg.RecvWindow = cfg.Binance.RecvWindow
		}
		if cfg.Binance.RequestsPerMinute > 0 {
			httpCfg.RequestsPerMinute = cfg.Binance.RequestsPerMinute
		}

		provider, err := binance.NewProvider(binance.ProviderConfig{
			HTTP:          httpCfg,
			DepthLimit:    cfg.Binance.DepthLimit,
			DepthTTL:      cfg.Binance.DepthTTL,
			BalanceTTL:    cfg.Binance.BalanceTTL,
			PaperBalances: cfg.Binance.PaperBalances,
		}, log)
		if err != nil {
			panic("failed to create binance provider: " + err.Error())
		}
		return provider
	})

	di.RegisterToken(c, pricingDI.UniswapProvider, func(sr di.ServiceRegistry) *uniswap.Provider {
		cfg := sr.Get(monolith.KeyConfig).(*config.Config)
		log := sr.Get(monolith.KeyLogger).(logger.LoggerInterface)
		client := sr.Get(monolith.KeyEthClient).(*ethclient.Client)
		registry := sr.Get(monolith.KeyAssetRegistry).(*asset.Registry)

		provider, err := uniswap.NewProvider(client, blockchainDI.GetGasPriceSource(sr), registry, uniswap.ProviderConfig{
			ChainID:       cfg.Ethereum.ChainID,
			QuoterAddress: cfg.Uniswap.QuoterAddressHex(),
			FeeTier:       cfg.Uniswap.FeeTier,
			Wallet:        cfg.Ethereum.WalletAddress(),
			PaperBalances: cfg.Uniswap.PaperBalances,
			SwapGasUnits:  cfg.Uniswap.SwapGasUnits,
			GasToken:      cfg.Arbitrage.GasToken,
			BalanceTTL:    cfg.Uniswap.BalanceTTL,
		}, log)
		if err != nil {
			panic("failed to create uniswap provider: " + err.Error())
		}
		return provider
	})

	di.RegisterToken(c, pricingDI.Connectors, func(sr di.ServiceRegistry) map[string]app.Connector {
		connectors := []app.Connector{
			pricingDI.GetBinanceProvider(sr),
			pricingDI.GetUniswapProvider(sr),
		}
		byName := make(map[string]app.Connector, len(connectors))
		for _, conn := range connectors {
			byName[conn.Name()] = conn
		}
		return byName
	})

	di.RegisterToken(c, pricingDI.ProposalService, func(sr di.ServiceRegistry) *app.ProposalService {
		connectors := pricingDI.GetConnectors(sr)
		list := make([]app.Connector, 0, len(connectors))
		for _, conn := range connectors {
			list = append(list, conn)
		}
		return app.NewProposalService(list...)
	})

	return nil
}

// Startup loads venue metadata for the configured markets. Unlisted markets
// and unknown tokens are fatal; transport failures are logged and the
// connectors fall back to their default precision.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()
	cfg := mono.Config()

	strategy, err := cfg.Arbitrage.StrategyConfig()
	if err != nil {
		return err
	}

	startCtx, cancel := context.WithTimeout(ctx, startupTimeout)
	defer cancel()

	cex := pricingDI.GetBinanceProvider(mono.Services())
	mono.OnClose(cex.Close)
	if strategy.CEXConnector == cex.Name() {
		if err := cex.LoadMarkets(startCtx, strategy.CEXPair); err != nil {
			if apperror.HasCode(err, apperror.CodeSymbolNotListed) {
				return err
			}
			log.Warn(ctx, "failed to load binance market rules", "pair", strategy.CEXPair.String(), "error", err)
		}
	}

	dex := pricingDI.GetUniswapProvider(mono.Services())
	mono.OnClose(dex.Close)
	if strategy.DEXConnector == dex.Name() {
		if err := dex.LoadTokens(startCtx, strategy.DEXPair.Base, strategy.DEXPair.Quote); err != nil {
			if apperror.HasCode(err, apperror.CodeUnknownToken) {
				return err
			}
			log.Warn(ctx, "failed to verify token decimals", "pair", strategy.DEXPair.String(), "error", err)
		}
	}

	log.Info(ctx, "pricing module started",
		"cex", strategy.CEXConnector+":"+strategy.CEXPair.String(),
		"dex", strategy.DEXConnector+":"+strategy.DEXPair.String())
	return nil
}
