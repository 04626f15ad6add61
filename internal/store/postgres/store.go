// Package postgres implements the store contracts on PostgreSQL via pgx.
package postgres

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"hiretop/matching-service/internal/lifecycle"
)

//go:embed schema.sql
var schema string

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Pool is the subset of *pgxpool.Pool the store uses.
type Pool interface {
	querier
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Store serves matching, interview and lifecycle queries from one pool.
type Store struct {
	db Pool
}

// New returns a Store backed by db, normally a *pgxpool.Pool.
func New(db Pool) *Store {
	return &Store{db: db}
}

// Migrate creates the enums, tables and indexes if they are missing.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// WithinTx runs fn inside BEGIN … COMMIT. Any error from fn, or a cancelled
// context, rolls the whole transaction back.
func (s *Store) WithinTx(ctx context.Context, fn func(tx lifecycle.Tx) error) error {
	return pgx.BeginFunc(ctx, s.db, func(t pgx.Tx) error {
		return fn(&tx{q: t})
	})
}

// tx is the transactional view handed to lifecycle transitions.
type tx struct {
	q querier
}
