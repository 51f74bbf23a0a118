package pglease

import "sync/atomic"

// Lease is a checked-out connection together with the capacity permit that
// admitted it. The lease owns the connection exclusively until released.
type Lease struct {
	pool     *Pool
	conn     leasedConn
	released atomic.Bool
}

// Conn returns the leased connection. The connection must not be used after
// the lease is released.
func (l *Lease) Conn() Conn {
	return l.conn
}

// Release returns the connection to the underlying pool and gives the capacity
// permit back. Calling Release more than once is a no-op; the permit is
// returned exactly once.
func (l *Lease) Release() {
	if l == nil || !l.released.CompareAndSwap(false, true) {
		return
	}
	l.conn.release()
	l.pool.sem.Release(1)
}
