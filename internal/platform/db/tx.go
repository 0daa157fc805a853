package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Querier is satisfied by *pgxpool.Pool and pgx.Tx.
type Querier interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type contextKey string

const txKey contextKey = "db_tx"

// WithQuerier returns a context carrying q. Repositories pick it up through
// QuerierFrom.
func WithQuerier(ctx context.Context, q Querier) context.Context {
	return context.WithValue(ctx, txKey, q)
}

// QuerierFrom returns the transaction stored in ctx, or fallback when the
// call is not part of one.
func QuerierFrom(ctx context.Context, fallback Querier) Querier {
	if q, ok := ctx.Value(txKey).(Querier); ok && q != nil {
		return q
	}
	return fallback
}

// InTx reports whether ctx already carries a transaction.
func InTx(ctx context.Context) bool {
	_, ok := ctx.Value(txKey).(Querier)
	return ok
}

// Transactor runs a unit of work inside a single transaction.
type Transactor interface {
	// WithTx runs fn in a read-write transaction. fn's error rolls it back.
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	// WithReadTx runs fn in a read-only repeatable-read transaction so
	// that multi-query reads see one snapshot.
	WithReadTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// PoolTransactor implements Transactor on a pgx pool. Every transaction is
// bounded by Timeout.
type PoolTransactor struct {
	pool    *pgxpool.Pool
	timeout time.Duration
}

func NewTransactor(pool *pgxpool.Pool, timeout time.Duration) *PoolTransactor {
	return &PoolTransactor{pool: pool, timeout: timeout}
}

func (t *PoolTransactor) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return t.run(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, fn)
}

func (t *PoolTransactor) WithReadTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return t.run(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}, fn)
}

func (t *PoolTransactor) run(ctx context.Context, opts pgx.TxOptions, fn func(ctx context.Context) error) error {
	// Nested calls join the outer transaction.
	if InTx(ctx) {
		return fn(ctx)
	}

	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	tx, err := t.pool.BeginTx(ctx, opts)
	if err != nil {
		return MapError(fmt.Errorf("begin transaction: %w", err), "", "")
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	if err := fn(WithQuerier(ctx, tx)); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return MapError(fmt.Errorf("commit transaction: %w", err), "", "")
	}
	return nil
}
