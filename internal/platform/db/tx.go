package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type contextKey string

const txKey contextKey = "db_tx"

// Queryable is the subset of pgx operations the repositories use. Both
// *pgxpool.Pool and pgx.Tx satisfy it, so a repository transparently joins
// a transaction placed in the context by WithTx.
type Queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

// TxRunner runs a function inside a database transaction. Services depend on
// this interface so tests can substitute a pass-through implementation.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// PoolTxRunner is the pgxpool-backed TxRunner.
type PoolTxRunner struct {
	pool *pgxpool.Pool
}

func NewTxRunner(pool *pgxpool.Pool) *PoolTxRunner {
	return &PoolTxRunner{pool: pool}
}

// WithTx begins a transaction, stores it in the context and runs fn. The
// transaction commits when fn returns nil and rolls back otherwise. A nested
// call joins the caller's transaction instead of opening a second one.
func (r *PoolTxRunner) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if TxFromContext(ctx) != nil {
		return fn(ctx)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := fn(context.WithValue(ctx, txKey, tx)); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// TxFromContext retrieves the transaction placed in the context by WithTx,
// or nil when the caller is not inside one.
func TxFromContext(ctx context.Context) pgx.Tx {
	tx, _ := ctx.Value(txKey).(pgx.Tx)
	return tx
}

// Conn returns the context transaction when present and the pool otherwise.
// Repositories route every statement through this so a service-level
// transaction spans all of them.
func Conn(ctx context.Context, pool *pgxpool.Pool) Queryable {
	if tx := TxFromContext(ctx); tx != nil {
		return tx
	}
	return pool
}
