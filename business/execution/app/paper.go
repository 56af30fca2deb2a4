package app

import (
	"context"
	"time"

	"github.com/fd1az/dynamic-arb/business/execution/domain"
	"github.com/fd1az/dynamic-arb/internal/logger"
)

// PaperSettler stands in for an executor in paper mode: it completes every
// execution once it has been active for hold.
type PaperSettler struct {
	service *Service
	hold    time.Duration
	logger  logger.LoggerInterface
}

// NewPaperSettler creates a settler over service.
func NewPaperSettler(service *Service, hold time.Duration, log logger.LoggerInterface) *PaperSettler {
	return &PaperSettler{service: service, hold: hold, logger: log}
}

// Run settles on a ticker until ctx is cancelled.
func (p *PaperSettler) Run(ctx context.Context) error {
	interval := p.hold / 2
	if interval < 100*time.Millisecond {
		interval = 100 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			if _, err := p.Settle(ctx, now); err != nil {
				p.logger.Error(ctx, "paper settlement failed", "error", err)
			}
		}
	}
}

// Settle completes executions that have been active for at least hold and
// returns how many it closed.
func (p *PaperSettler) Settle(ctx context.Context, now time.Time) (int, error) {
	active, err := p.service.ActiveExecutions(ctx)
	if err != nil {
		return 0, err
	}

	settled := 0
	for _, e := range active {
		if now.Sub(e.CreatedAt) < p.hold {
			continue
		}
		if err := p.service.Complete(ctx, e.ID, domain.StatusCompleted); err != nil {
			return settled, err
		}
		settled++
	}
	return settled, nil
}
