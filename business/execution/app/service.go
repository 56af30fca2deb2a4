package app

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	arb "github.com/fd1az/dynamic-arb/business/arbitrage/domain"
	"github.com/fd1az/dynamic-arb/business/execution/domain"
	"github.com/fd1az/dynamic-arb/internal/apperror"
	"github.com/fd1az/dynamic-arb/internal/logger"
)

const tracerName = "github.com/fd1az/dynamic-arb/business/execution/app"

// Service tracks executions handed to the executor. It is the strategy's
// ExecutionTracker and ExecutionSink.
type Service struct {
	journal   Journal
	publisher Publisher
	logger    logger.LoggerInterface
	tracer    trace.Tracer
	now       func() time.Time
}

// NewService creates a Service. publisher may be nil when executions stay in
// process.
func NewService(journal Journal, publisher Publisher, log logger.LoggerInterface) *Service {
	return &Service{
		journal:   journal,
		publisher: publisher,
		logger:    log,
		tracer:    otel.Tracer(tracerName),
		now:       time.Now,
	}
}

// Submit journals action as an active execution and publishes it. A failed
// publish leaves the execution failed so it does not block the strategy.
func (s *Service) Submit(ctx context.Context, action arb.CreateExecutionAction) error {
	ctx, span := s.tracer.Start(ctx, "execution.submit",
		trace.WithAttributes(
			attribute.String("id", action.ID),
			attribute.String("amount", action.OrderAmount.String()),
		),
	)
	defer span.End()

	if action.ID == "" || !action.OrderAmount.IsPositive() {
		return apperror.New(apperror.CodeExecutionRejected,
			apperror.WithContext("action needs an id and a positive amount"))
	}
	if _, err := s.journal.Get(ctx, action.ID); err == nil {
		return apperror.New(apperror.CodeExecutionRejected,
			apperror.WithContext("duplicate execution "+action.ID))
	} else if !apperror.HasCode(err, apperror.CodeExecutionNotFound) {
		return err
	}

	exec := domain.NewExecution(action, s.now())
	if err := s.journal.Save(ctx, exec); err != nil {
		span.RecordError(err)
		return err
	}

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, action); err != nil {
			span.RecordError(err)
			if cerr := s.Complete(ctx, exec.ID, domain.StatusFailed); cerr != nil {
				s.logger.Error(ctx, "failed to close unpublished execution", "id", exec.ID, "error", cerr)
			}
			return apperror.New(apperror.CodePublishFailed, apperror.WithCause(err), apperror.WithContext(exec.ID))
		}
	}

	s.logger.Info(ctx, "execution submitted",
		"id", exec.ID,
		"buying", action.Buying.String(),
		"selling", action.Selling.String(),
		"amount", action.OrderAmount.String())
	return nil
}

// Stop closes the execution as failed.
func (s *Service) Stop(ctx context.Context, action arb.StopExecutionAction) error {
	s.logger.Warn(ctx, "stopping execution", "id", action.ExecutionID)
	return s.Complete(ctx, action.ExecutionID, domain.StatusFailed)
}

// Complete moves an active execution to status.
func (s *Service) Complete(ctx context.Context, id string, status domain.Status) error {
	exec, err := s.journal.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := exec.Close(status, s.now()); err != nil {
		return err
	}
	if err := s.journal.Save(ctx, exec); err != nil {
		return err
	}

	s.logger.Info(ctx, "execution closed",
		"id", id,
		"status", string(status),
		"held", exec.UpdatedAt.Sub(exec.CreatedAt).String())
	return nil
}

// GetExecutions lists every known execution.
func (s *Service) GetExecutions(ctx context.Context) ([]arb.ExecutionRecord, error) {
	execs, err := s.journal.List(ctx)
	if err != nil {
		return nil, err
	}
	records := make([]arb.ExecutionRecord, len(execs))
	for i, e := range execs {
		records[i] = e.Record()
	}
	return records, nil
}

// ActiveExecutions returns executions that are still open.
func (s *Service) ActiveExecutions(ctx context.Context) ([]domain.Execution, error) {
	execs, err := s.journal.List(ctx)
	if err != nil {
		return nil, err
	}
	active := execs[:0]
	for _, e := range execs {
		if e.IsActive() {
			active = append(active, e)
		}
	}
	return active, nil
}
