package pglease

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/semaphore"
)

// ErrPoolClosed is returned by Acquire after the pool has been closed.
var ErrPoolClosed = errors.New("pglease: pool is closed")

// Pool is a bounded connection-lease pool. The capacity semaphore bounds the
// number of outstanding leases to the configured maximum, independently of the
// underlying pool's own bookkeeping.
type Pool struct {
	config *Config
	source connSource
	sem    *semaphore.Weighted
	logger *slog.Logger
	closed atomic.Bool
}

// New creates a pool from the given configuration. It validates the
// configuration, connects the underlying pgx pool, and verifies connectivity
// with a ping before returning.
func New(ctx context.Context, config *Config) (*Pool, error) {
	if config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	poolConfig, err := pgxpool.ParseConfig(config.connString(true))
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection config: %w", err)
	}

	pgpool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pgpool.Ping(ctx); err != nil {
		pgpool.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return newWithSource(config, &pgxSource{pool: pgpool}), nil
}

// newWithSource wires a pool around an arbitrary connection source. Split out
// so tests can substitute a fake source.
func newWithSource(config *Config, source connSource) *Pool {
	return &Pool{
		config: config,
		source: source,
		sem:    semaphore.NewWeighted(int64(config.MaxConns)),
		logger: config.Logger,
	}
}

// Acquire checks out a connection as a Lease. It first waits for a capacity
// permit, blocking while all permits are held by outstanding leases, then asks
// the underlying pool for a connection. The wait ends early if ctx is done.
//
// The returned lease must be released exactly once. Prefer WithConn, which
// guarantees the release.
func (p *Pool) Acquire(ctx context.Context) (*Lease, error) {
	if p.closed.Load() {
		return nil, ErrPoolClosed
	}

	if err := p.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("waiting for lease slot: %w", err)
	}

	conn, err := p.source.acquire(ctx)
	if err != nil {
		p.sem.Release(1)
		return nil, err
	}

	return &Lease{pool: p, conn: conn}, nil
}

// WithConn acquires a lease, calls fn with the leased connection, and releases
// the lease on every exit path, including a panic in fn.
func (p *Pool) WithConn(ctx context.Context, fn func(Conn) error) error {
	lease, err := p.Acquire(ctx)
	if err != nil {
		return err
	}
	defer lease.Release()
	return fn(lease.Conn())
}

// Close closes the underlying connection pool. Acquire fails with
// ErrPoolClosed afterwards. Close does not wait for outstanding leases.
func (p *Pool) Close() {
	if p.closed.CompareAndSwap(false, true) {
		p.source.close()
	}
}

// Process-wide default pool, lazily constructed on first use. The mutex is
// only held during construction attempts and instance lookup; acquire and
// release never touch it. A nil check rather than sync.Once keeps a failed
// construction from being cached: nothing is installed on error and the next
// call retries from scratch.
var (
	defaultMu     sync.Mutex
	defaultPool   *Pool
	defaultConfig *Config
)

// SetDefaultConfig registers the configuration used by Default. It has no
// effect on an already constructed default pool.
func SetDefaultConfig(config *Config) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultConfig = config
}

// Default returns the process-wide pool, constructing it on first use from the
// configuration registered with SetDefaultConfig, or from the YAML file named
// by the PGLEASE_CONFIG environment variable when none is registered.
// Concurrent first calls observe a single instance.
func Default(ctx context.Context) (*Pool, error) {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	if defaultPool != nil {
		return defaultPool, nil
	}

	config := defaultConfig
	if config == nil {
		path := os.Getenv("PGLEASE_CONFIG")
		if path == "" {
			return nil, fmt.Errorf("no default configuration: call SetDefaultConfig or set PGLEASE_CONFIG")
		}
		loaded, err := LoadConfig(path)
		if err != nil {
			return nil, err
		}
		config = loaded
	}

	pool, err := newPool(ctx, config)
	if err != nil {
		return nil, err
	}

	defaultPool = pool
	return pool, nil
}

// newPool is swapped out by tests to construct default pools without a server.
var newPool = New
