package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redisadapter "github.com/aretw0/moot/pkg/adapters/redis"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocker_LockUnlock(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	locker := redisadapter.NewLocker(client, "moot:")
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "sess-1", 5*time.Second)
	require.NoError(t, err)
	require.NotNil(t, unlock)
	assert.True(t, mr.Exists("moot:lock:sess-1"))

	require.NoError(t, unlock(ctx))
	assert.False(t, mr.Exists("moot:lock:sess-1"))
}

func TestLocker_Contention(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	locker1 := redisadapter.NewLocker(client, "moot:")
	locker2 := redisadapter.NewLocker(client, "moot:")
	ctx := context.Background()

	unlock1, err := locker1.Lock(ctx, "sess-1", 5*time.Second)
	require.NoError(t, err)

	// A second holder blocks until its context gives up.
	ctxTimeout, cancel := context.WithTimeout(ctx, 300*time.Millisecond)
	defer cancel()
	_, err = locker2.Lock(ctxTimeout, "sess-1", 5*time.Second)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	// After release the second holder succeeds.
	require.NoError(t, unlock1(ctx))
	unlock2, err := locker2.Lock(ctx, "sess-1", 5*time.Second)
	require.NoError(t, err)
	defer unlock2(ctx)
	assert.True(t, mr.Exists("moot:lock:sess-1"))
}

func TestLocker_StaleUnlockIsNoop(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	locker := redisadapter.NewLocker(client, "moot:")
	ctx := context.Background()

	unlock1, err := locker.Lock(ctx, "sess-1", time.Second)
	require.NoError(t, err)

	// Simulate TTL expiry followed by a new holder.
	mr.FastForward(2 * time.Second)
	unlock2, err := locker.Lock(ctx, "sess-1", time.Minute)
	require.NoError(t, err)
	defer unlock2(ctx)

	// The stale holder's release must not delete the new lock.
	require.NoError(t, unlock1(ctx))
	assert.True(t, mr.Exists("moot:lock:sess-1"))
}
