package app

import (
	"github.com/fd1az/dynamic-arb/business/arbitrage/domain"
	"github.com/fd1az/dynamic-arb/internal/logger"
)

// NewStrategy validates cfg and wires the rate source, evaluator, scanner and
// dispatcher. A configuration error here is fatal.
func NewStrategy(
	cfg domain.StrategyConfig,
	cex, dex Venue,
	proposals ProposalSource,
	executions ExecutionTracker,
	reporter Reporter,
	log logger.LoggerInterface,
) (*Dispatcher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	rates := domain.NewStrategyRates(cfg)
	evaluator := NewEvaluator(cfg, rates)
	scanner := NewScanner(cfg, cex, dex, proposals, evaluator, log)

	return NewDispatcher(cfg, scanner, executions, reporter, log)
}
