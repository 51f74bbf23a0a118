package pglease

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Conn is the surface of a leased connection exposed to callers. It is the
// subset of pgxpool.Conn the query helpers rely on.
type Conn interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

// leasedConn is a checked-out connection that can be returned to its source.
type leasedConn interface {
	Conn
	release()
}

// connSource abstracts the underlying pooled-connection manager. The
// production implementation is backed by pgxpool; tests substitute a fake.
type connSource interface {
	acquire(ctx context.Context) (leasedConn, error)
	close()
}

type pgxSource struct {
	pool *pgxpool.Pool
}

func (s *pgxSource) acquire(ctx context.Context) (leasedConn, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}
	return &pgxLeasedConn{Conn: conn}, nil
}

func (s *pgxSource) close() {
	s.pool.Close()
}

type pgxLeasedConn struct {
	*pgxpool.Conn
}

func (c *pgxLeasedConn) release() {
	c.Conn.Release()
}
