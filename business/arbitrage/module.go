// Package arbitrage implements the arbitrage bounded context: the trade size
// search and the tick loop that turns its results into execution actions.
package arbitrage

import (
	"context"
	"fmt"

	"github.com/fd1az/dynamic-arb/business/arbitrage/app"
	arbitrageDI "github.com/fd1az/dynamic-arb/business/arbitrage/di"
	"github.com/fd1az/dynamic-arb/business/arbitrage/infra"
	executionDI "github.com/fd1az/dynamic-arb/business/execution/di"
	pricingDI "github.com/fd1az/dynamic-arb/business/pricing/di"
	"github.com/fd1az/dynamic-arb/internal/config"
	"github.com/fd1az/dynamic-arb/internal/di"
	"github.com/fd1az/dynamic-arb/internal/logger"
	"github.com/fd1az/dynamic-arb/internal/monolith"
)

// Module implements the arbitrage bounded context.
type Module struct{}

// RegisterServices registers all arbitrage services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, arbitrageDI.Reporter, func(di.ServiceRegistry) app.Reporter {
		return infra.NewConsoleReporter()
	})

	di.RegisterToken(c, arbitrageDI.Strategy, func(sr di.ServiceRegistry) *app.Dispatcher {
		cfg := sr.Get(monolith.KeyConfig).(*config.Config)
		log := sr.Get(monolith.KeyLogger).(logger.LoggerInterface)

		strategyCfg, err := cfg.Arbitrage.StrategyConfig()
		if err != nil {
			panic("invalid strategy config: " + err.Error())
		}
		connectors := pricingDI.GetConnectors(sr)

		strategy, err := app.NewStrategy(
			strategyCfg,
			connectors[strategyCfg.CEXConnector],
			connectors[strategyCfg.DEXConnector],
			pricingDI.GetProposalService(sr),
			executionDI.GetExecutionService(sr),
			arbitrageDI.GetReporter(sr),
			log,
		)
		if err != nil {
			panic("failed to create strategy: " + err.Error())
		}
		return strategy
	})

	di.RegisterToken(c, arbitrageDI.Scheduler, func(sr di.ServiceRegistry) *app.Scheduler {
		cfg := sr.Get(monolith.KeyConfig).(*config.Config)
		log := sr.Get(monolith.KeyLogger).(logger.LoggerInterface)

		return app.NewScheduler(
			arbitrageDI.GetStrategy(sr),
			executionDI.GetExecutionService(sr),
			cfg.Arbitrage.TickInterval,
			log,
		)
	})

	return nil
}

// Startup validates the strategy wiring and schedules the tick loop.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()
	cfg := mono.Config()

	strategyCfg, err := cfg.Arbitrage.StrategyConfig()
	if err != nil {
		return err
	}
	if err := strategyCfg.Validate(); err != nil {
		return err
	}

	connectors := pricingDI.GetConnectors(mono.Services())
	for _, name := range []string{strategyCfg.CEXConnector, strategyCfg.DEXConnector} {
		if _, ok := connectors[name]; !ok {
			return fmt.Errorf("arbitrage: unknown connector %q", name)
		}
	}

	scheduler := arbitrageDI.GetScheduler(mono.Services())
	mono.Go("strategy-scheduler", scheduler.Run)

	log.Info(ctx, "arbitrage module started",
		"min_profitability", strategyCfg.MinProfitability.String(),
		"size_increment", strategyCfg.SizeIncrement.String(),
		"max_order_amount", strategyCfg.MaxOrderAmount.String(),
		"tick_interval", cfg.Arbitrage.TickInterval.String())
	return nil
}
