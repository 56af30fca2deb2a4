package app

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/fd1az/dynamic-arb/business/arbitrage/domain"
	"github.com/fd1az/dynamic-arb/internal/logger"
)

// TickHandler is the strategy surface driven by the Scheduler.
type TickHandler interface {
	OnTick(ctx context.Context, tick time.Time) bool
	CreateActionsProposal() []domain.CreateExecutionAction
	StopActionsProposal() []domain.StopExecutionAction
	Wait()
}

// Scheduler is the periodic tick loop. Each tick it first hands collected
// actions to the execution sink, then lets the strategy start a new
// evaluation, so a submitted action is visible as an active execution before
// the next scan begins.
type Scheduler struct {
	handler  TickHandler
	sink     ExecutionSink
	interval time.Duration
	logger   logger.LoggerInterface

	lastTick atomic.Int64
}

// NewScheduler creates a Scheduler ticking every interval.
func NewScheduler(handler TickHandler, sink ExecutionSink, interval time.Duration, log logger.LoggerInterface) *Scheduler {
	return &Scheduler{
		handler:  handler,
		sink:     sink,
		interval: interval,
		logger:   log,
	}
}

// Run ticks until ctx is cancelled, then waits for the in-flight evaluation.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info(ctx, "strategy scheduler started", "interval", s.interval.String())

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.Tick(ctx, time.Now())
	for {
		select {
		case <-ctx.Done():
			s.handler.Wait()
			s.logger.Info(context.Background(), "strategy scheduler stopped", "reason", ctx.Err())
			return nil
		case t := <-ticker.C:
			s.Tick(ctx, t)
		}
	}
}

// Tick runs a single scheduler step.
func (s *Scheduler) Tick(ctx context.Context, now time.Time) {
	for _, a := range s.handler.StopActionsProposal() {
		if err := s.sink.Stop(ctx, a); err != nil {
			s.logger.Error(ctx, "failed to stop execution", "execution_id", a.ExecutionID, "error", err)
		}
	}
	for _, a := range s.handler.CreateActionsProposal() {
		if err := s.sink.Submit(ctx, a); err != nil {
			s.logger.Error(ctx, "failed to submit execution", "action_id", a.ID, "error", err)
		}
	}

	s.handler.OnTick(ctx, now)
	s.lastTick.Store(now.UnixNano())
}

// LastTick returns the time of the most recent tick, or zero.
func (s *Scheduler) LastTick() time.Time {
	n := s.lastTick.Load()
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n)
}
