package pglease

import (
	"context"
	"fmt"
)

// LogConnectionStatus queries the server for its current backend count and
// configured connection maximum, and logs both at Info level. It borrows a
// lease for the two queries.
func (p *Pool) LogConnectionStatus(ctx context.Context) error {
	return p.WithConn(ctx, func(conn Conn) error {
		var count int64
		err := conn.QueryRow(ctx, "SELECT sum(numbackends) FROM pg_stat_database").Scan(&count)
		if err != nil {
			return fmt.Errorf("failed to count backends: %w", err)
		}

		var max string
		err = conn.QueryRow(ctx, "SHOW max_connections").Scan(&max)
		if err != nil {
			return fmt.Errorf("failed to read max_connections: %w", err)
		}

		p.logger.Info("database connection status",
			"host", p.config.Host,
			"connections", count,
			"max", max)
		return nil
	})
}
