// Package pglease provides a bounded, thread-safe connection-lease pool for PostgreSQL.
//
// pglease wraps a pgxpool.Pool with a capacity semaphore that bounds the number of
// concurrently leased connections independently of the underlying pool's own
// bookkeeping. Connections are checked out as leases that must be returned, and the
// WithConn helper guarantees the return on every exit path including panics. On top
// of the lease protocol the package offers convenience helpers for read queries,
// committed writes, and bulk value inserts with duplicate-key suppression, plus an
// escape hatch for opening raw connections outside all pool accounting.
//
// # Basic Usage
//
// Construct a pool explicitly and pass it to the code that needs it:
//
//	cfg := &pglease.Config{
//		Host:     "localhost",
//		Database: "myapp",
//		User:     "myapp",
//		Password: "secret",
//		MaxConns: 8,
//	}
//
//	pool, err := pglease.New(ctx, cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer pool.Close()
//
//	err = pool.WithConn(ctx, func(conn pglease.Conn) error {
//		_, err := conn.Exec(ctx, "UPDATE jobs SET state = 'done' WHERE id = 7")
//		return err
//	})
//
// Alternatively, use the query helpers which manage the lease themselves:
//
//	rows, err := pool.ExecuteRead(ctx, "SELECT id, name FROM users")
//
//	err = pool.ExecuteWriteCommit(ctx, "DELETE FROM sessions WHERE expired")
//
//	err = pool.ExecuteBulkInsert(ctx, "INSERT INTO events(id, kind) VALUES",
//		[][]any{{1, "signup"}, {2, "login"}}, true)
//
// # Process-wide Default Pool
//
// For applications that want a single shared pool without threading a handle
// through every call site, Default lazily constructs one process-wide instance
// from the configuration registered with SetDefaultConfig (or from the YAML file
// named by the PGLEASE_CONFIG environment variable). Construction happens at most
// once; a failed construction installs nothing, and the next call retries.
//
//	pglease.SetDefaultConfig(cfg)
//	pool, err := pglease.Default(ctx)
//
// # Capacity and Cancellation
//
// At most MaxConns leases (default 4) are outstanding at any time. When all
// permits are checked out, Acquire blocks until another lease is released or the
// caller's context is done. A context with a deadline therefore gives the
// acquisition wait an upper bound; with a background context the wait is
// unbounded, matching the traditional blocking-semaphore behavior.
//
// A lease that is never released permanently reduces the pool's effective
// capacity for the process lifetime. Prefer WithConn over manual Acquire/Release.
//
// # Raw Connections
//
// OpenRawConnection opens a connection directly against the server, ignoring the
// pool-sizing parameters and the capacity semaphore entirely. The caller owns the
// connection and must close it; leaking one consumes a real server-side slot
// outside all pool limits. The raw path exists for legacy callers and may be
// removed once they migrate to leases.
//
// # Safety Notes
//
// ExecuteRead refuses SQL whose uppercased text contains INSERT or UPDATE,
// logging an error and returning an empty result instead of executing. This is a
// textual safety net, not a SQL parser: keywords inside string literals or
// comments trigger false positives, and callers must treat an empty result as
// ambiguous between "no rows" and "statement rejected".
//
// ExecuteBulkInsert renders values into literal SQL text (escaped with lib/pq)
// before concatenation. The assembled statement never goes through parameter
// binding, so the helper assumes trusted input.
package pglease
