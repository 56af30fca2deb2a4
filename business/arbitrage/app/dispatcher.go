package app

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/dynamic-arb/business/arbitrage/domain"
	"github.com/fd1az/dynamic-arb/internal/apperror"
	"github.com/fd1az/dynamic-arb/internal/logger"
)

// Skip reasons recorded when a tick does not start an evaluation.
const (
	skipEvaluating    = "evaluating"
	skipPendingAction = "pending_action"
	skipMaxExecutors  = "max_executors"
	skipTrackerError  = "tracker_error"
)

// Dispatcher runs at most one evaluation at a time, off the tick path, and
// hands a found opportunity to the tick framework through a one-slot queue.
type Dispatcher struct {
	cfg        domain.StrategyConfig
	scanner    SizeScanner
	executions ExecutionTracker
	reporter   Reporter
	logger     logger.LoggerInterface
	tracer     trace.Tracer
	metrics    *strategyMetrics
	now        func() time.Time

	evaluating atomic.Bool
	pending    chan domain.CreateExecutionAction
	wg         sync.WaitGroup

	// Only touched by the goroutine holding evaluating.
	lastNoOpportunityLog time.Time
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(
	cfg domain.StrategyConfig,
	scanner SizeScanner,
	executions ExecutionTracker,
	reporter Reporter,
	log logger.LoggerInterface,
) (*Dispatcher, error) {
	m, err := newStrategyMetrics()
	if err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}
	if reporter == nil {
		reporter = NopReporter{}
	}

	return &Dispatcher{
		cfg:        cfg,
		scanner:    scanner,
		executions: executions,
		reporter:   reporter,
		logger:     log,
		tracer:     otel.Tracer(tracerName),
		metrics:    m,
		now:        time.Now,
		pending:    make(chan domain.CreateExecutionAction, 1),
	}, nil
}

// OnTick starts an evaluation unless one is running, an action is waiting to
// be collected, or the execution subsystem is at capacity. Overlapping ticks
// are dropped, never queued. tick is the framework clock; a zero value falls
// back to the wall clock. It reports whether an evaluation was started.
func (d *Dispatcher) OnTick(ctx context.Context, tick time.Time) bool {
	if d.evaluating.Load() {
		d.skip(ctx, skipEvaluating)
		return false
	}
	if len(d.pending) > 0 {
		d.skip(ctx, skipPendingAction)
		return false
	}

	records, err := d.executions.GetExecutions(ctx)
	if err != nil {
		d.logger.Warn(ctx, "failed to list executions", "error", err)
		d.skip(ctx, skipTrackerError)
		return false
	}
	if len(domain.FilterExecutions(records, domain.IsActive)) >= d.cfg.MaxConcurrentExecutors {
		d.skip(ctx, skipMaxExecutors)
		return false
	}

	if !d.evaluating.CompareAndSwap(false, true) {
		d.skip(ctx, skipEvaluating)
		return false
	}

	d.wg.Add(1)
	go d.evaluate(ctx, d.clock(tick))
	return true
}

// CreateActionsProposal returns the queued action, if any, and clears the slot.
func (d *Dispatcher) CreateActionsProposal() []domain.CreateExecutionAction {
	select {
	case a := <-d.pending:
		return []domain.CreateExecutionAction{a}
	default:
		return nil
	}
}

// StopActionsProposal never stops executions; they terminate on their own.
func (d *Dispatcher) StopActionsProposal() []domain.StopExecutionAction {
	return nil
}

// Evaluating reports whether an evaluation is in flight.
func (d *Dispatcher) Evaluating() bool {
	return d.evaluating.Load()
}

// Wait blocks until the in-flight evaluation, if any, has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) evaluate(ctx context.Context, at time.Time) {
	defer d.wg.Done()
	defer d.evaluating.Store(false)

	ctx, span := d.tracer.Start(ctx, "arbitrage.evaluate")
	defer span.End()

	start := time.Now()
	report := CycleReport{At: at}
	d.metrics.evaluations.Add(ctx, 1)

	defer func() {
		if r := recover(); r != nil {
			report.Err = apperror.New(apperror.CodeInternalError,
				apperror.WithContext(fmt.Sprintf("evaluation panic: %v", r)))
			d.logger.Error(ctx, "error evaluating arbitrage opportunity",
				"panic", fmt.Sprint(r), "stack", string(debug.Stack()))
			d.metrics.evalErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", "panic")))
			span.SetStatus(codes.Error, "panic")
		}
		report.Duration = time.Since(start)
		d.metrics.evalDuration.Record(ctx, float64(report.Duration.Milliseconds()))
		d.reporter.ReportCycle(ctx, report)
	}()

	result, err := d.scanner.Scan(ctx)
	report.Result = result
	if err != nil {
		report.Err = err
		d.logError(ctx, err)
		d.metrics.evalErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", string(apperror.GetCode(err)))))
		span.RecordError(err)
		span.SetStatus(codes.Error, "scan failed")
		return
	}

	d.metrics.sizesEvaluated.Record(ctx, int64(result.SizesEvaluated))
	if result.MaxSeenProfit != nil {
		d.metrics.bestProfitPct.Record(ctx, domain.ProfitPercent(*result.MaxSeenProfit).InexactFloat64())
	}

	d.logDirectionProfits(ctx, result)

	if result.Found() {
		action := domain.NewCreateExecutionAction(d.cfg, result.BestAmount, at)
		select {
		case d.pending <- action:
		default:
			d.logger.Warn(ctx, "create action slot occupied, dropping action", "action_id", action.ID)
			return
		}
		report.Action = &action
		d.metrics.opportunities.Add(ctx, 1)
		d.logger.Info(ctx, "triggering executor",
			"action_id", action.ID,
			"amount", domain.FormatDecimal(&result.BestAmount),
			"profit_pct", domain.ProfitPercent(result.BestProfit).String())
		span.SetAttributes(attribute.String("order_amount", result.BestAmount.String()))
		return
	}

	d.logNoOpportunity(ctx, result, at)
}

func (d *Dispatcher) logNoOpportunity(ctx context.Context, result domain.ScanResult, at time.Time) {
	if at.Sub(d.lastNoOpportunityLog) < d.cfg.NoOpportunityLogInterval {
		return
	}
	d.lastNoOpportunityLog = at

	if result.MaxSeenProfit == nil {
		d.logger.Info(ctx, "no arbitrage opportunity, no valid quotes available", "halt", string(result.Halt))
		return
	}
	d.logger.Info(ctx, "no arbitrage opportunity",
		"best_profit_pct", domain.ProfitPercent(*result.MaxSeenProfit).String(),
		"attempted_amount", domain.FormatDecimal(result.MaxSeenAmount),
		"halt", string(result.Halt))
}

func (d *Dispatcher) logDirectionProfits(ctx context.Context, result domain.ScanResult) {
	if result.CEXSellProfit != nil {
		d.logger.Info(ctx, fmt.Sprintf("buy at %s, sell at %s", d.cfg.DEXConnector, d.cfg.CEXConnector),
			"direction", string(domain.DirectionCEXSell),
			"profit_pct", domain.ProfitPercent(*result.CEXSellProfit).String())
	}
	if result.CEXBuyProfit != nil {
		d.logger.Info(ctx, fmt.Sprintf("sell at %s, buy at %s", d.cfg.DEXConnector, d.cfg.CEXConnector),
			"direction", string(domain.DirectionCEXBuy),
			"profit_pct", domain.ProfitPercent(*result.CEXBuyProfit).String())
	}
}

func (d *Dispatcher) logError(ctx context.Context, err error) {
	if appErr, ok := err.(*apperror.AppError); ok {
		d.logger.Error(ctx, "error evaluating arbitrage opportunity", "error", err, "detail", appErr.ToLog())
		return
	}
	d.logger.Error(ctx, "error evaluating arbitrage opportunity", "error", err)
}

func (d *Dispatcher) skip(ctx context.Context, reason string) {
	d.metrics.ticksSkipped.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}

func (d *Dispatcher) clock(tick time.Time) time.Time {
	if tick.IsZero() {
		return d.now()
	}
	return tick
}
