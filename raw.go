package pglease

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// OpenRawConnection opens a new connection directly against the database,
// outside all pool bookkeeping. The pool-sizing parameters (minconn, maxconn)
// are not applied; everything else in the configuration is.
//
// The caller owns the returned connection exclusively and must close it.
// A leaked raw connection occupies a real server-side slot that no pool limit
// accounts for.
func OpenRawConnection(ctx context.Context, config *Config) (*pgx.Conn, error) {
	if config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	conn, err := pgx.Connect(ctx, config.connString(false))
	if err != nil {
		return nil, fmt.Errorf("failed to open raw connection: %w", err)
	}
	return conn, nil
}

// OpenRaw opens a raw connection using the pool's own configuration. The
// connection is invisible to the pool's capacity accounting; see
// OpenRawConnection.
func (p *Pool) OpenRaw(ctx context.Context) (*pgx.Conn, error) {
	return OpenRawConnection(ctx, p.config)
}
