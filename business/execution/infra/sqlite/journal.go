// Package sqlite provides a durable execution journal on SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	arb "github.com/fd1az/dynamic-arb/business/arbitrage/domain"
	"github.com/fd1az/dynamic-arb/business/execution/app"
	"github.com/fd1az/dynamic-arb/business/execution/domain"
	"github.com/fd1az/dynamic-arb/internal/apperror"
)

var _ app.Journal = (*Journal)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS executions (
	id         TEXT PRIMARY KEY,
	action     TEXT    NOT NULL,
	status     TEXT    NOT NULL,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_executions_status ON executions(status);
`

// Journal stores executions in a single table. The action is kept as JSON.
type Journal struct {
	db *sql.DB
}

// Open opens (or creates) the database at dsn and applies the schema. Use
// "file::memory:?cache=shared" for an in-memory database.
func Open(ctx context.Context, dsn string) (*Journal, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, storeError(err, "open "+dsn)
	}
	// SQLite serializes writers; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, storeError(err, "apply schema")
	}
	return &Journal{db: db}, nil
}

func (j *Journal) Save(ctx context.Context, e domain.Execution) error {
	action, err := json.Marshal(e.Action)
	if err != nil {
		return storeError(err, "encode action "+e.ID)
	}

	_, err = j.db.ExecContext(ctx, `
		INSERT INTO executions (id, action, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			action = excluded.action,
			status = excluded.status,
			updated_at = excluded.updated_at`,
		e.ID, string(action), string(e.Status), e.CreatedAt.UnixNano(), e.UpdatedAt.UnixNano())
	if err != nil {
		return storeError(err, "save "+e.ID)
	}
	return nil
}

func (j *Journal) Get(ctx context.Context, id string) (domain.Execution, error) {
	row := j.db.QueryRowContext(ctx,
		`SELECT id, action, status, created_at, updated_at FROM executions WHERE id = ?`, id)

	e, err := scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Execution{}, apperror.New(apperror.CodeExecutionNotFound, apperror.WithContext(id))
	}
	if err != nil {
		return domain.Execution{}, storeError(err, "get "+id)
	}
	return e, nil
}

func (j *Journal) List(ctx context.Context) ([]domain.Execution, error) {
	rows, err := j.db.QueryContext(ctx,
		`SELECT id, action, status, created_at, updated_at FROM executions ORDER BY created_at, id`)
	if err != nil {
		return nil, storeError(err, "list")
	}
	defer rows.Close()

	var out []domain.Execution
	for rows.Next() {
		e, err := scan(rows)
		if err != nil {
			return nil, storeError(err, "scan")
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError(err, "list")
	}
	return out, nil
}

// Ping checks the database connection.
func (j *Journal) Ping(ctx context.Context) error {
	return j.db.PingContext(ctx)
}

// Close closes the database.
func (j *Journal) Close() error {
	return j.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scan(s scanner) (domain.Execution, error) {
	var (
		e                  domain.Execution
		action, status     string
		createdAt, updated int64
	)
	if err := s.Scan(&e.ID, &action, &status, &createdAt, &updated); err != nil {
		return domain.Execution{}, err
	}

	var a arb.CreateExecutionAction
	if err := json.Unmarshal([]byte(action), &a); err != nil {
		return domain.Execution{}, fmt.Errorf("decode action %s: %w", e.ID, err)
	}
	st, err := domain.ParseStatus(status)
	if err != nil {
		return domain.Execution{}, err
	}

	e.Action = a
	e.Status = st
	e.CreatedAt = time.Unix(0, createdAt)
	e.UpdatedAt = time.Unix(0, updated)
	return e, nil
}

func storeError(err error, what string) error {
	return apperror.New(apperror.CodeStoreError, apperror.WithCause(err), apperror.WithContext(what))
}
