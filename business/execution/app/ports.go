// Package app contains application services and port definitions for the execution context.
package app

import (
	"context"

	arb "github.com/fd1az/dynamic-arb/business/arbitrage/domain"
	"github.com/fd1az/dynamic-arb/business/execution/domain"
)

// Journal persists executions.
type Journal interface {
	// Save inserts or replaces e.
	Save(ctx context.Context, e domain.Execution) error
	// Get fails with CodeExecutionNotFound for unknown ids.
	Get(ctx context.Context, id string) (domain.Execution, error)
	// List returns executions ordered by creation time.
	List(ctx context.Context) ([]domain.Execution, error)
}

// Publisher hands an action to the external executor.
type Publisher interface {
	Publish(ctx context.Context, action arb.CreateExecutionAction) error
}
