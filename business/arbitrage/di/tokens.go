// Package di contains dependency injection tokens for the arbitrage context.
package di

import (
	"github.com/fd1az/dynamic-arb/business/arbitrage/app"
	"github.com/fd1az/dynamic-arb/internal/di"
)

// Public service tokens - exposed to other modules
var (
	Scheduler = di.NewToken[*app.Scheduler]("arbitrage.Scheduler")
	// Reporter defaults to the console; the TUI registers its own.
	Reporter = di.NewToken[app.Reporter]("arbitrage.Reporter")
)

// Private dependency tokens - internal to arbitrage module
var (
	Strategy = di.NewToken[*app.Dispatcher]("arbitrage:strategy")
)

func GetScheduler(c di.ServiceRegistry) *app.Scheduler {
	return di.GetToken(c, Scheduler)
}

func GetReporter(c di.ServiceRegistry) app.Reporter {
	return di.GetToken(c, Reporter)
}

func GetStrategy(c di.ServiceRegistry) *app.Dispatcher {
	return di.GetToken(c, Strategy)
}
