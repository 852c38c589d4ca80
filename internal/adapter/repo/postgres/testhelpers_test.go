package postgres_test

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// rowStub implements pgx.Row.
type rowStub struct{ scan func(dest ...any) error }

func (r rowStub) Scan(dest ...any) error { return r.scan(dest...) }

// rowsStub implements pgx.Rows over a fixed set of value tuples.
type rowsStub struct {
	data [][]any
	pos  int
	err  error
}

func (r *rowsStub) Close()                                       {}
func (r *rowsStub) Err() error                                   { return r.err }
func (r *rowsStub) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *rowsStub) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *rowsStub) Next() bool {
	if r.pos >= len(r.data) {
		return false
	}
	r.pos++
	return true
}
func (r *rowsStub) Scan(dest ...any) error {
	row := r.data[r.pos-1]
	for i, d := range dest {
		if err := assign(d, row[i]); err != nil {
			return err
		}
	}
	return nil
}
func (r *rowsStub) Values() ([]any, error) { return r.data[r.pos-1], nil }
func (r *rowsStub) RawValues() [][]byte    { return nil }
func (r *rowsStub) Conn() *pgx.Conn        { return nil }

func assign(dest, val any) error {
	switch d := dest.(type) {
	case *int64:
		d2, ok := val.(int64)
		if !ok {
			return errors.New("stub: want int64")
		}
		*d = d2
	case *string:
		d2, ok := val.(string)
		if !ok {
			return errors.New("stub: want string")
		}
		*d = d2
	case *bool:
		d2, ok := val.(bool)
		if !ok {
			return errors.New("stub: want bool")
		}
		*d = d2
	case *time.Time:
		d2, ok := val.(time.Time)
		if !ok {
			return errors.New("stub: want time.Time")
		}
		*d = d2
	case **time.Time:
		if val == nil {
			*d = nil
			return nil
		}
		d2, ok := val.(time.Time)
		if !ok {
			return errors.New("stub: want time.Time")
		}
		*d = &d2
	default:
		return errors.New("stub: unsupported dest type")
	}
	return nil
}

// execCall records one Exec invocation.
type execCall struct {
	sql  string
	args []any
}

// poolStub implements postgres.PgxPool for tests. Exec calls are recorded;
// Query and QueryRow return canned data keyed by invocation order.
type poolStub struct {
	execErr  error
	queryErr error
	rows     []*rowsStub
	queryN   int
	row      rowStub
	tx       *txStub
	beginErr error

	execs []execCall
}

func (p *poolStub) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	p.execs = append(p.execs, execCall{sql: sql, args: args})
	return pgconn.CommandTag{}, p.execErr
}

func (p *poolStub) QueryRow(_ context.Context, _ string, _ ...any) pgx.Row {
	if p.row.scan == nil {
		return rowStub{scan: func(_ ...any) error { return errors.New("no row configured") }}
	}
	return p.row
}

func (p *poolStub) Query(_ context.Context, _ string, _ ...any) (pgx.Rows, error) {
	if p.queryErr != nil {
		return nil, p.queryErr
	}
	if p.queryN >= len(p.rows) {
		return &rowsStub{}, nil
	}
	rs := p.rows[p.queryN]
	p.queryN++
	return rs, nil
}

func (p *poolStub) BeginTx(_ context.Context, _ pgx.TxOptions) (pgx.Tx, error) {
	if p.beginErr != nil {
		return nil, p.beginErr
	}
	if p.tx == nil {
		p.tx = &txStub{pool: p}
	}
	return p.tx, nil
}

// txStub implements pgx.Tx by delegating Exec/Query to the pool stub.
type txStub struct {
	pool      *poolStub
	execErr   error
	commitErr error

	committed  bool
	rolledBack bool
}

func (t *txStub) Begin(_ context.Context) (pgx.Tx, error) { return t, nil }
func (t *txStub) Commit(_ context.Context) error {
	if t.commitErr != nil {
		return t.commitErr
	}
	t.committed = true
	return nil
}
func (t *txStub) Rollback(_ context.Context) error {
	t.rolledBack = true
	return nil
}
func (t *txStub) CopyFrom(_ context.Context, _ pgx.Identifier, _ []string, _ pgx.CopyFromSource) (int64, error) {
	return 0, errors.New("not implemented")
}
func (t *txStub) SendBatch(_ context.Context, _ *pgx.Batch) pgx.BatchResults { return nil }
func (t *txStub) LargeObjects() pgx.LargeObjects                             { return pgx.LargeObjects{} }
func (t *txStub) Prepare(_ context.Context, _ string, _ string) (*pgconn.StatementDescription, error) {
	return nil, errors.New("not implemented")
}
func (t *txStub) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	t.pool.execs = append(t.pool.execs, execCall{sql: sql, args: args})
	return pgconn.CommandTag{}, t.execErr
}
func (t *txStub) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return t.pool.Query(ctx, sql, args...)
}
func (t *txStub) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return t.pool.QueryRow(ctx, sql, args...)
}
func (t *txStub) Conn() *pgx.Conn { return nil }
