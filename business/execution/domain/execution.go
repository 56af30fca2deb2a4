// Package domain contains the execution lifecycle handed off by the strategy.
package domain

import (
	"fmt"
	"time"

	arb "github.com/fd1az/dynamic-arb/business/arbitrage/domain"
	"github.com/fd1az/dynamic-arb/internal/apperror"
)

// Status is the lifecycle state of an execution.
type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// ParseStatus validates s.
func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusActive, StatusCompleted, StatusFailed:
		return st, nil
	default:
		return "", fmt.Errorf("execution: unknown status %q", s)
	}
}

// Execution is one handed-off action and its state.
type Execution struct {
	ID        string
	Action    arb.CreateExecutionAction
	Status    Status
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewExecution starts an active execution for action.
func NewExecution(action arb.CreateExecutionAction, now time.Time) Execution {
	return Execution{
		ID:        action.ID,
		Action:    action,
		Status:    StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsActive reports whether the execution still counts against the
// concurrency limit.
func (e Execution) IsActive() bool {
	return e.Status == StatusActive
}

// Close moves an active execution to a terminal status.
func (e *Execution) Close(status Status, at time.Time) error {
	if status == StatusActive {
		return apperror.New(apperror.CodeInvalidInput, apperror.WithContext("cannot close into active"))
	}
	if !e.IsActive() {
		return apperror.New(apperror.CodeInvalidState,
			apperror.WithContext(fmt.Sprintf("execution %s already %s", e.ID, e.Status)))
	}
	e.Status = status
	e.UpdatedAt = at
	return nil
}

// Record is the strategy's view of the execution.
func (e Execution) Record() arb.ExecutionRecord {
	return arb.ExecutionRecord{ID: e.ID, Active: e.IsActive()}
}
