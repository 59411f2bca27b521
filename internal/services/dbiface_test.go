package services

import (
	"context"
	"fmt"
	"reflect"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type fakeCommandTag struct {
	rowsAffected int64
}

func (f fakeCommandTag) RowsAffected() int64 {
	return f.rowsAffected
}

type fakeRow struct {
	scanFunc func(dest ...any) error
}

func (f fakeRow) Scan(dest ...any) error {
	if f.scanFunc == nil {
		return fmt.Errorf("scanFunc not set")
	}
	return f.scanFunc(dest...)
}

type fakeRows struct {
	rows   [][]any
	idx    int
	err    error
	closed bool
}

func (f *fakeRows) Close() {
	f.closed = true
}

func (f *fakeRows) Err() error {
	return f.err
}

func (f *fakeRows) Next() bool {
	if f.idx >= len(f.rows) {
		return false
	}
	f.idx++
	return true
}

func (f *fakeRows) Scan(dest ...any) error {
	if f.idx == 0 || f.idx > len(f.rows) {
		return fmt.Errorf("scan called without active row")
	}
	return assignRow(dest, f.rows[f.idx-1])
}

type (
	execFunc     func(ctx context.Context, sql string, args ...any) (CommandTag, error)
	queryFunc    func(ctx context.Context, sql string, args ...any) (Rows, error)
	queryRowFunc func(ctx context.Context, sql string, args ...any) Row
)

// Unset hooks behave like an empty database: no rows affected, no rows
// returned, and single-row reads fail loudly.
func (fn execFunc) call(ctx context.Context, sql string, args []any) (CommandTag, error) {
	if fn == nil {
		return fakeCommandTag{}, nil
	}
	return fn(ctx, sql, args...)
}

func (fn queryFunc) call(ctx context.Context, sql string, args []any) (Rows, error) {
	if fn == nil {
		return &fakeRows{}, nil
	}
	return fn(ctx, sql, args...)
}

func (fn queryRowFunc) call(ctx context.Context, sql string, args []any) Row {
	if fn == nil {
		return fakeRow{scanFunc: func(dest ...any) error {
			return fmt.Errorf("unexpected single-row query: %s", sql)
		}}
	}
	return fn(ctx, sql, args...)
}

type fakeDB struct {
	ExecFunc     execFunc
	QueryFunc    queryFunc
	QueryRowFunc queryRowFunc
	BeginFunc    func(ctx context.Context) (Tx, error)
	BeginTxFunc  func(ctx context.Context, opts pgx.TxOptions) (Tx, error)
}

func (f *fakeDB) Exec(ctx context.Context, sql string, args ...any) (CommandTag, error) {
	return f.ExecFunc.call(ctx, sql, args)
}

func (f *fakeDB) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	return f.QueryFunc.call(ctx, sql, args)
}

func (f *fakeDB) QueryRow(ctx context.Context, sql string, args ...any) Row {
	return f.QueryRowFunc.call(ctx, sql, args)
}

func (f *fakeDB) Begin(ctx context.Context) (Tx, error) {
	if f.BeginFunc == nil {
		return nil, fmt.Errorf("unexpected transaction")
	}
	return f.BeginFunc(ctx)
}

// BeginTx falls back to Begin so snapshot reads work with a plain BeginFunc.
func (f *fakeDB) BeginTx(ctx context.Context, opts pgx.TxOptions) (Tx, error) {
	if f.BeginTxFunc != nil {
		return f.BeginTxFunc(ctx, opts)
	}
	return f.Begin(ctx)
}

type fakeTx struct {
	ExecFunc     execFunc
	QueryFunc    queryFunc
	QueryRowFunc queryRowFunc
	CommitFunc   func(ctx context.Context) error
	RollbackFunc func(ctx context.Context) error
}

func (f *fakeTx) Exec(ctx context.Context, sql string, args ...any) (CommandTag, error) {
	return f.ExecFunc.call(ctx, sql, args)
}

func (f *fakeTx) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	return f.QueryFunc.call(ctx, sql, args)
}

func (f *fakeTx) QueryRow(ctx context.Context, sql string, args ...any) Row {
	return f.QueryRowFunc.call(ctx, sql, args)
}

func (f *fakeTx) Commit(ctx context.Context) error {
	if f.CommitFunc == nil {
		return nil
	}
	return f.CommitFunc(ctx)
}

func (f *fakeTx) Rollback(ctx context.Context) error {
	if f.RollbackFunc == nil {
		return nil
	}
	return f.RollbackFunc(ctx)
}

// idRows returns one single-column row per id, the shape of every
// "SELECT id ..." the stores issue.
func idRows(ids []uuid.UUID) *fakeRows {
	rows := &fakeRows{}
	for _, id := range ids {
		rows.rows = append(rows.rows, []any{id})
	}
	return rows
}

func rowFromValues(values ...any) Row {
	return fakeRow{scanFunc: func(dest ...any) error {
		return assignRow(dest, values)
	}}
}

func assignRow(dest []any, values []any) error {
	if len(dest) != len(values) {
		return fmt.Errorf("scan dest mismatch: got %d want %d", len(dest), len(values))
	}
	for i, value := range values {
		dv := reflect.ValueOf(dest[i])
		if dv.Kind() != reflect.Ptr || dv.IsNil() {
			return fmt.Errorf("dest %d not pointer", i)
		}
		if value == nil {
			dv.Elem().Set(reflect.Zero(dv.Elem().Type()))
			continue
		}
		vv := reflect.ValueOf(value)
		if vv.Type().AssignableTo(dv.Elem().Type()) {
			dv.Elem().Set(vv)
			continue
		}
		if vv.Type().ConvertibleTo(dv.Elem().Type()) {
			dv.Elem().Set(vv.Convert(dv.Elem().Type()))
			continue
		}
		return fmt.Errorf("cannot assign %T to %s", value, dv.Elem().Type())
	}
	return nil
}
