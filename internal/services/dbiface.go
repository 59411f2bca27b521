package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

type Row interface {
	Scan(dest ...any) error
}

// Rows is satisfied by pgx.Rows directly.
type Rows interface {
	Close()
	Err() error
	Next() bool
	Scan(dest ...any) error
}

// CommandTag abstracts the result of Exec calls.
type CommandTag interface {
	RowsAffected() int64
}

// DBConn is the query surface shared by the pool and a transaction.
type DBConn interface {
	Exec(ctx context.Context, sql string, args ...any) (CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) Row
}

type Tx interface {
	DBConn
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// DB adds transaction support on top of DBConn.
type DB interface {
	DBConn
	Begin(ctx context.Context) (Tx, error)
	BeginTx(ctx context.Context, opts pgx.TxOptions) (Tx, error)
}

// pgxQuerier is the query surface shared by *pgxpool.Pool and pgx.Tx.
type pgxQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type pgxBeginner interface {
	pgxQuerier
	Begin(ctx context.Context) (pgx.Tx, error)
	BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error)
}

// pgxConn adapts a pool or a transaction to DBConn.
type pgxConn struct {
	q pgxQuerier
}

func (c pgxConn) Exec(ctx context.Context, sql string, args ...any) (CommandTag, error) {
	tag, err := c.q.Exec(ctx, sql, args...)
	return commandTagAdapter{tag: tag}, err
}

func (c pgxConn) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	rows, err := c.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (c pgxConn) QueryRow(ctx context.Context, sql string, args ...any) Row {
	return c.q.QueryRow(ctx, sql, args...)
}

// PoolAdapter wraps *pgxpool.Pool to satisfy DB.
type PoolAdapter struct {
	pgxConn
	pool pgxBeginner
}

func NewPoolAdapter(pool *pgxpool.Pool) *PoolAdapter {
	return newPoolAdapter(pool)
}

func newPoolAdapter(pool pgxBeginner) *PoolAdapter {
	return &PoolAdapter{pgxConn: pgxConn{q: pool}, pool: pool}
}

func (p *PoolAdapter) Begin(ctx context.Context) (Tx, error) {
	return wrapTx(p.pool.Begin(ctx))
}

func (p *PoolAdapter) BeginTx(ctx context.Context, opts pgx.TxOptions) (Tx, error) {
	return wrapTx(p.pool.BeginTx(ctx, opts))
}

func wrapTx(tx pgx.Tx, err error) (Tx, error) {
	if err != nil {
		return nil, err
	}
	return txAdapter{pgxConn: pgxConn{q: tx}, tx: tx}, nil
}

type txAdapter struct {
	pgxConn
	tx pgx.Tx
}

func (t txAdapter) Commit(ctx context.Context) error {
	return t.tx.Commit(ctx)
}

func (t txAdapter) Rollback(ctx context.Context) error {
	return t.tx.Rollback(ctx)
}

type commandTagAdapter struct {
	tag pgconn.CommandTag
}

func (c commandTagAdapter) RowsAffected() int64 {
	return c.tag.RowsAffected()
}

// withTx runs fn in a transaction. When q is already a transaction (anything
// that cannot Begin), fn joins it and the outer owner commits.
func withTx(ctx context.Context, q DBConn, fn func(tx DBConn) error) error {
	db, ok := q.(DB)
	if !ok {
		return fn(q)
	}

	tx, err := db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	return commitOrRollback(ctx, tx, func() error { return fn(tx) })
}

// commitOrRollback commits when fn succeeds and rolls back otherwise.
func commitOrRollback(ctx context.Context, tx Tx, fn func() error) error {
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback(ctx)
		}
	}()

	if err := fn(); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	committed = true
	return nil
}

func pgErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func isUniqueViolation(err error) bool {
	return pgErrorCode(err) == pgUniqueViolation
}

func isForeignKeyViolation(err error) bool {
	return pgErrorCode(err) == pgForeignKeyViolation
}
