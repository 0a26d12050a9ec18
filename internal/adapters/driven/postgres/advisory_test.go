package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// advisoryServer models Postgres session-level advisory locks: a lock is
// owned by the connection that took it and dies with that connection.
type advisoryServer struct {
	mu     sync.Mutex
	nextID int
	owners map[int64]int
}

func newAdvisoryServer() *advisoryServer {
	return &advisoryServer{owners: make(map[int64]int)}
}

func (s *advisoryServer) held() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.owners)
}

func (s *advisoryServer) Connect(context.Context) (driver.Conn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	return &advisoryConn{server: s, id: s.nextID}, nil
}

func (s *advisoryServer) Driver() driver.Driver { return s }

func (s *advisoryServer) Open(string) (driver.Conn, error) {
	return s.Connect(context.Background())
}

// openDB opens a pool against the server, standing in for one process
func (s *advisoryServer) openDB(t *testing.T) *DB {
	t.Helper()
	db := sql.OpenDB(s)
	db.SetMaxOpenConns(10)
	t.Cleanup(func() { db.Close() })
	return &DB{DB: db}
}

type advisoryConn struct {
	server *advisoryServer
	id     int
}

func (c *advisoryConn) Prepare(query string) (driver.Stmt, error) {
	return &advisoryStmt{conn: c, query: query}, nil
}

func (c *advisoryConn) Begin() (driver.Tx, error) {
	return nil, errors.New("transactions not supported")
}

// Close ends the session and with it every lock it held
func (c *advisoryConn) Close() error {
	c.server.mu.Lock()
	defer c.server.mu.Unlock()
	for key, owner := range c.server.owners {
		if owner == c.id {
			delete(c.server.owners, key)
		}
	}
	return nil
}

type advisoryStmt struct {
	conn  *advisoryConn
	query string
}

func (s *advisoryStmt) Close() error  { return nil }
func (s *advisoryStmt) NumInput() int { return -1 }

func (s *advisoryStmt) Exec([]driver.Value) (driver.Result, error) {
	return nil, errors.New("exec not supported")
}

func (s *advisoryStmt) Query(args []driver.Value) (driver.Rows, error) {
	key, ok := args[0].(int64)
	if !ok {
		return nil, errors.New("lock key must be a bigint")
	}

	srv := s.conn.server
	srv.mu.Lock()
	defer srv.mu.Unlock()

	owner, held := srv.owners[key]
	var result bool
	switch {
	case strings.Contains(s.query, "pg_try_advisory_lock"):
		result = !held || owner == s.conn.id
		if result {
			srv.owners[key] = s.conn.id
		}
	case strings.Contains(s.query, "pg_advisory_unlock"):
		result = held && owner == s.conn.id
		if result {
			delete(srv.owners, key)
		}
	default:
		return nil, errors.New("unexpected query: " + s.query)
	}
	return &boolRows{value: result}, nil
}

type boolRows struct {
	value bool
	done  bool
}

func (r *boolRows) Columns() []string { return []string{"result"} }
func (r *boolRows) Close() error      { return nil }

func (r *boolRows) Next(dest []driver.Value) error {
	if r.done {
		return io.EOF
	}
	r.done = true
	dest[0] = r.value
	return nil
}

func TestAdvisoryLock_ReleasesOnAcquiringSession(t *testing.T) {
	srv := newAdvisoryServer()
	db := srv.openDB(t)
	lock := NewAdvisoryLock(db)
	ctx := context.Background()

	acquired, err := lock.Acquire(ctx, "embeddings:zelda", 0)
	require.NoError(t, err)
	require.True(t, acquired)

	// keep another pooled connection busy so Release cannot land on it by chance
	busy, err := db.Conn(ctx)
	require.NoError(t, err)
	defer busy.Close()

	require.NoError(t, lock.Release(ctx, "embeddings:zelda"))
	assert.Zero(t, srv.held(), "advisory lock still held after Release")

	peer := NewAdvisoryLock(srv.openDB(t))
	acquired, err = peer.Acquire(ctx, "embeddings:zelda", 0)
	require.NoError(t, err)
	assert.True(t, acquired, "another instance should get the released lock")
}

func TestAdvisoryLock_ExclusiveAcrossInstances(t *testing.T) {
	srv := newAdvisoryServer()
	first := NewAdvisoryLock(srv.openDB(t))
	second := NewAdvisoryLock(srv.openDB(t))
	ctx := context.Background()

	acquired, err := first.Acquire(ctx, "embeddings:soul-blazer", 0)
	require.NoError(t, err)
	require.True(t, acquired)

	acquired, err = second.Acquire(ctx, "embeddings:soul-blazer", 0)
	require.NoError(t, err)
	assert.False(t, acquired)

	acquired, err = first.Acquire(ctx, "embeddings:soul-blazer", 0)
	require.NoError(t, err)
	assert.False(t, acquired, "a held lock is not re-entered")

	require.NoError(t, first.Release(ctx, "embeddings:soul-blazer"))

	acquired, err = second.Acquire(ctx, "embeddings:soul-blazer", 0)
	require.NoError(t, err)
	assert.True(t, acquired)
}

func TestAdvisoryLock_ReleaseNotHeld(t *testing.T) {
	srv := newAdvisoryServer()
	lock := NewAdvisoryLock(srv.openDB(t))

	assert.NoError(t, lock.Release(context.Background(), "embeddings:zelda"))
}

func TestAdvisoryLock_CloseReleasesHeldLocks(t *testing.T) {
	srv := newAdvisoryServer()
	lock := NewAdvisoryLock(srv.openDB(t))
	ctx := context.Background()

	for _, name := range []string{"embeddings:zelda", "embeddings:soul-blazer"} {
		acquired, err := lock.Acquire(ctx, name, 0)
		require.NoError(t, err)
		require.True(t, acquired)
	}
	require.Equal(t, 2, srv.held())

	require.NoError(t, lock.Close())
	assert.Zero(t, srv.held())
}
