package pglease

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// fakeSource is an in-memory connSource. It records every acquire, release,
// and executed statement, and can be programmed to fail at each step.
type fakeSource struct {
	mu         sync.Mutex
	acquired   int
	released   int
	closed     bool
	statements []string
	commits    int
	rollbacks  int

	acquireErr error
	queryErr   error
	execErr    error
	beginErr   error
	commitErr  error

	rows     [][]any
	rowQueue []any // one value per QueryRow call, scanned into dest[0]
}

func (s *fakeSource) acquire(ctx context.Context) (leasedConn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.acquireErr != nil {
		return nil, s.acquireErr
	}
	s.acquired++
	return &fakeConn{source: s}, nil
}

func (s *fakeSource) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

func (s *fakeSource) counts() (acquired, released int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.acquired, s.released
}

func (s *fakeSource) executed() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.statements...)
}

func (s *fakeSource) record(sql string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statements = append(s.statements, sql)
}

type fakeConn struct {
	source *fakeSource
}

func (c *fakeConn) release() {
	c.source.mu.Lock()
	defer c.source.mu.Unlock()
	c.source.released++
}

func (c *fakeConn) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	c.source.record(sql)
	if c.source.queryErr != nil {
		return nil, c.source.queryErr
	}
	return &fakeRows{rows: c.source.rows}, nil
}

func (c *fakeConn) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	c.source.record(sql)
	c.source.mu.Lock()
	defer c.source.mu.Unlock()
	if len(c.source.rowQueue) == 0 {
		return fakeRow{err: pgx.ErrNoRows}
	}
	value := c.source.rowQueue[0]
	c.source.rowQueue = c.source.rowQueue[1:]
	return fakeRow{value: value}
}

func (c *fakeConn) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	c.source.record(sql)
	return pgconn.CommandTag{}, c.source.execErr
}

func (c *fakeConn) Begin(ctx context.Context) (pgx.Tx, error) {
	if c.source.beginErr != nil {
		return nil, c.source.beginErr
	}
	return &fakeTx{source: c.source}, nil
}

type fakeRow struct {
	value any
	err   error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	switch d := dest[0].(type) {
	case *int64:
		v, ok := r.value.(int64)
		if !ok {
			return fmt.Errorf("cannot scan %T into *int64", r.value)
		}
		*d = v
	case *string:
		v, ok := r.value.(string)
		if !ok {
			return fmt.Errorf("cannot scan %T into *string", r.value)
		}
		*d = v
	default:
		return fmt.Errorf("unsupported scan destination %T", dest[0])
	}
	return nil
}

type fakeRows struct {
	rows   [][]any
	idx    int
	closed bool
}

func (r *fakeRows) Close()                                       { r.closed = true }
func (r *fakeRows) Err() error                                   { return nil }
func (r *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *fakeRows) RawValues() [][]byte                          { return nil }
func (r *fakeRows) Conn() *pgx.Conn                              { return nil }

func (r *fakeRows) Next() bool {
	r.idx++
	return r.idx <= len(r.rows)
}

func (r *fakeRows) Values() ([]any, error) {
	return r.rows[r.idx-1], nil
}

func (r *fakeRows) Scan(dest ...any) error {
	return errors.New("fakeRows does not implement Scan")
}

type fakeTx struct {
	source    *fakeSource
	committed bool
}

func (t *fakeTx) Commit(ctx context.Context) error {
	t.source.mu.Lock()
	defer t.source.mu.Unlock()
	if t.source.commitErr != nil {
		return t.source.commitErr
	}
	t.committed = true
	t.source.commits++
	return nil
}

func (t *fakeTx) Rollback(ctx context.Context) error {
	t.source.mu.Lock()
	defer t.source.mu.Unlock()
	if t.committed {
		return pgx.ErrTxClosed
	}
	t.source.rollbacks++
	return nil
}

func (t *fakeTx) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	t.source.record(sql)
	return pgconn.CommandTag{}, t.source.execErr
}

func (t *fakeTx) Begin(ctx context.Context) (pgx.Tx, error) {
	return nil, errors.New("fakeTx does not support nested transactions")
}

func (t *fakeTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, errors.New("fakeTx does not implement Query")
}

func (t *fakeTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return fakeRow{err: errors.New("fakeTx does not implement QueryRow")}
}

func (t *fakeTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, errors.New("fakeTx does not implement CopyFrom")
}

func (t *fakeTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (t *fakeTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (t *fakeTx) Conn() *pgx.Conn                                              { return nil }

func (t *fakeTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, errors.New("fakeTx does not implement Prepare")
}

// newFakePool builds a pool over a fakeSource with the given capacity.
func newFakePool(maxConns int) (*Pool, *fakeSource) {
	source := &fakeSource{}
	config := &Config{
		Host:     "localhost",
		Database: "fake",
		User:     "fake",
		MaxConns: maxConns,
	}
	if err := config.Validate(); err != nil {
		panic(err)
	}
	return newWithSource(config, source), source
}
