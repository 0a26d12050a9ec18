package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestLock_OwnerID_Unique(t *testing.T) {
	_, client := setupTestRedis(t)

	assert.NotEqual(t, NewLock(client).OwnerID(), NewLock(client).OwnerID())
}

func TestLock_AcquireExclusive(t *testing.T) {
	mr, client := setupTestRedis(t)
	ctx := context.Background()
	first, second := NewLock(client), NewLock(client)

	ok, err := first.Acquire(ctx, "embeddings:soul-blazer", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = second.Acquire(ctx, "embeddings:soul-blazer", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "held by another owner")

	got, err := mr.Get(lockPrefix + "embeddings:soul-blazer")
	require.NoError(t, err)
	assert.Equal(t, first.OwnerID(), got)
}

func TestLock_ReleaseOnlyByOwner(t *testing.T) {
	mr, client := setupTestRedis(t)
	ctx := context.Background()
	first, second := NewLock(client), NewLock(client)

	_, err := first.Acquire(ctx, "embeddings:zelda", time.Minute)
	require.NoError(t, err)

	require.NoError(t, second.Release(ctx, "embeddings:zelda"))
	assert.True(t, mr.Exists(lockPrefix+"embeddings:zelda"))

	require.NoError(t, first.Release(ctx, "embeddings:zelda"))
	assert.False(t, mr.Exists(lockPrefix+"embeddings:zelda"))

	// releasing an absent lock is fine
	assert.NoError(t, first.Release(ctx, "embeddings:zelda"))
}

func TestLock_ExpiresAfterTTL(t *testing.T) {
	mr, client := setupTestRedis(t)
	ctx := context.Background()
	first, second := NewLock(client), NewLock(client)

	_, err := first.Acquire(ctx, "embeddings:zelda", time.Second)
	require.NoError(t, err)
	mr.FastForward(2 * time.Second)

	ok, err := second.Acquire(ctx, "embeddings:zelda", time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLock_Extend(t *testing.T) {
	mr, client := setupTestRedis(t)
	ctx := context.Background()
	first, second := NewLock(client), NewLock(client)

	_, err := first.Acquire(ctx, "embeddings:zelda", time.Second)
	require.NoError(t, err)

	require.NoError(t, first.Extend(ctx, "embeddings:zelda", time.Minute))
	assert.Equal(t, time.Minute, mr.TTL(lockPrefix+"embeddings:zelda"))

	assert.ErrorIs(t, second.Extend(ctx, "embeddings:zelda", time.Minute), ErrLockNotHeld)
}

func TestLock_Ping(t *testing.T) {
	mr, client := setupTestRedis(t)
	lock := NewLock(client)

	assert.NoError(t, lock.Ping(context.Background()))
	mr.Close()
	assert.Error(t, lock.Ping(context.Background()))
}
