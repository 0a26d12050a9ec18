package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/custodia-labs/gamefriend-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.DistributedLock = (*AdvisoryLock)(nil)

// AdvisoryLock guards embedding generation with PostgreSQL advisory locks.
//
// Advisory locks belong to a session, so each held lock pins its own
// connection from the pool until Release. The ttl argument is ignored.
// Redis is preferred when both backends are configured.
type AdvisoryLock struct {
	db *DB

	mu   sync.Mutex
	held map[string]*sql.Conn
}

// NewAdvisoryLock creates a new PostgreSQL advisory lock adapter.
func NewAdvisoryLock(db *DB) *AdvisoryLock {
	return &AdvisoryLock{db: db, held: make(map[string]*sql.Conn)}
}

// lockKey maps a lock name onto the bigint keyspace pg_advisory_lock uses
func lockKey(name string) int64 {
	h := fnv.New64a()
	h.Write([]byte(lockPrefix + name))
	return int64(h.Sum64())
}

const lockPrefix = "gamefriend:lock:"

// Acquire tries the lock without blocking. A lock this process already
// holds reports false, like one held by another instance.
func (l *AdvisoryLock) Acquire(ctx context.Context, name string, _ time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.held[name]; ok {
		return false, nil
	}

	conn, err := l.db.Conn(ctx)
	if err != nil {
		return false, fmt.Errorf("lock connection: %w", err)
	}

	var acquired bool
	if err := conn.QueryRowContext(ctx, "SELECT pg_try_advisory_lock($1)", lockKey(name)).Scan(&acquired); err != nil {
		conn.Close()
		return false, err
	}
	if !acquired {
		conn.Close()
		return false, nil
	}

	l.held[name] = conn
	return true, nil
}

// Release unlocks name on the connection that acquired it and returns the
// connection to the pool. Releasing a lock this process does not hold is a
// no-op.
func (l *AdvisoryLock) Release(ctx context.Context, name string) error {
	l.mu.Lock()
	conn, ok := l.held[name]
	delete(l.held, name)
	l.mu.Unlock()

	if !ok {
		return nil
	}
	return unlock(ctx, conn, name)
}

// unlock releases name on conn. A connection that failed to unlock is
// discarded instead of pooled, since its session may still hold the lock.
func unlock(ctx context.Context, conn *sql.Conn, name string) error {
	var released bool
	err := conn.QueryRowContext(ctx, "SELECT pg_advisory_unlock($1)", lockKey(name)).Scan(&released)
	if err == nil && !released {
		err = errors.New("lock was not held by this session")
	}
	if err != nil {
		_ = conn.Raw(func(any) error { return driver.ErrBadConn })
		conn.Close()
		return fmt.Errorf("unlock %s: %w", name, err)
	}
	return conn.Close()
}

// Extend is a no-op.
func (l *AdvisoryLock) Extend(context.Context, string, time.Duration) error {
	return nil
}

// Ping checks if the PostgreSQL backend is healthy.
func (l *AdvisoryLock) Ping(ctx context.Context) error {
	return l.db.PingContext(ctx)
}

// Close releases every lock still held
func (l *AdvisoryLock) Close() error {
	l.mu.Lock()
	held := l.held
	l.held = make(map[string]*sql.Conn)
	l.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var errs []error
	for name, conn := range held {
		if err := unlock(ctx, conn, name); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
