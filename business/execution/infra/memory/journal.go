// Package memory provides an in-process execution journal.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/fd1az/dynamic-arb/business/execution/app"
	"github.com/fd1az/dynamic-arb/business/execution/domain"
	"github.com/fd1az/dynamic-arb/internal/apperror"
)

var _ app.Journal = (*Journal)(nil)

// Journal keeps executions in a map.
type Journal struct {
	mu    sync.RWMutex
	execs map[string]domain.Execution
}

// NewJournal creates an empty journal.
func NewJournal() *Journal {
	return &Journal{execs: make(map[string]domain.Execution)}
}

func (j *Journal) Save(_ context.Context, e domain.Execution) error {
	j.mu.Lock()
	j.execs[e.ID] = e
	j.mu.Unlock()
	return nil
}

func (j *Journal) Get(_ context.Context, id string) (domain.Execution, error) {
	j.mu.RLock()
	e, ok := j.execs[id]
	j.mu.RUnlock()
	if !ok {
		return domain.Execution{}, apperror.New(apperror.CodeExecutionNotFound, apperror.WithContext(id))
	}
	return e, nil
}

func (j *Journal) List(_ context.Context) ([]domain.Execution, error) {
	j.mu.RLock()
	out := make([]domain.Execution, 0, len(j.execs))
	for _, e := range j.execs {
		out = append(out, e)
	}
	j.mu.RUnlock()

	sort.Slice(out, func(a, b int) bool {
		if out[a].CreatedAt.Equal(out[b].CreatedAt) {
			return out[a].ID < out[b].ID
		}
		return out[a].CreatedAt.Before(out[b].CreatedAt)
	})
	return out, nil
}
