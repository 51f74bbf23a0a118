// Package testhelper provides shared helpers for tests that need a live
// PostgreSQL server.
package testhelper

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"

	"pglease"
)

// GetConfig returns a Config pointing at the test server, built from the
// conventional PG* environment variables. The test is skipped when no server
// is reachable.
func GetConfig(t *testing.T) *pglease.Config {
	t.Helper()

	params := map[string]string{
		"host":     getEnvOrDefault("PGHOST", "localhost"),
		"port":     getEnvOrDefault("PGPORT", "5432"),
		"dbname":   getEnvOrDefault("PGDATABASE", "postgres"),
		"user":     getEnvOrDefault("PGUSER", "postgres"),
		"password": getEnvOrDefault("PGPASSWORD", "postgres"),
	}

	config, err := pglease.ParamsConfig(params)
	if err != nil {
		t.Fatalf("failed to build config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	conn, err := pglease.OpenRawConnection(ctx, config)
	if err != nil {
		t.Skipf("PostgreSQL not available: %v", err)
	}
	if err := conn.Ping(ctx); err != nil {
		_ = conn.Close(ctx)
		t.Skipf("PostgreSQL not available: %v", err)
	}
	if err := conn.Close(ctx); err != nil {
		t.Errorf("failed to close probe connection: %v", err)
	}

	return config
}

// GetRawConn returns a direct connection to the test server, closed
// automatically when the test ends.
func GetRawConn(t *testing.T) *pgx.Conn {
	t.Helper()

	config := GetConfig(t)
	ctx := context.Background()

	conn, err := pglease.OpenRawConnection(ctx, config)
	if err != nil {
		t.Fatalf("failed to open connection: %v", err)
	}
	t.Cleanup(func() {
		_ = conn.Close(ctx)
	})
	return conn
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
