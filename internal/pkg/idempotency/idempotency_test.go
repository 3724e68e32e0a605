package idempotency

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

func setupRedis(t *testing.T) *redis.Client {
	t.Helper()
	ctx := context.Background()

	container, err := tcredis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, container.Terminate(ctx)) })

	uri, err := container.ConnectionString(ctx)
	require.NoError(t, err)

	opt, err := redis.ParseURL(uri)
	require.NoError(t, err)

	client := redis.NewClient(opt)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestStateTracker_Exec(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	ctx := context.Background()
	tracker := New(setupRedis(t))

	calls := 0
	fn := func(context.Context) error { calls++; return nil }

	require.NoError(t, tracker.Exec(ctx, "k1", fn))
	assert.ErrorIs(t, tracker.Exec(ctx, "k1", fn), ErrAlreadyCompleted)
	assert.Equal(t, 1, calls)

	require.NoError(t, tracker.Exec(ctx, "k2", fn))
	assert.Equal(t, 2, calls)
}

func TestStateTracker_FailureReleasesKey(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	ctx := context.Background()
	tracker := New(setupRedis(t))

	boom := errors.New("boom")
	err := tracker.Exec(ctx, "k", func(context.Context) error { return boom })
	assert.ErrorIs(t, err, boom)

	require.NoError(t, tracker.Exec(ctx, "k", func(context.Context) error { return nil }))
}

func TestStateTracker_InProgress(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	ctx := context.Background()
	tracker := New(setupRedis(t))

	state, err := tracker.Acquire(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, StateNone, state)

	err = tracker.Exec(ctx, "k", func(context.Context) error { return nil })
	assert.ErrorIs(t, err, ErrAlreadyInProgress)

	require.NoError(t, tracker.Release(ctx, "k"))
	state, err = tracker.Acquire(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, StateNone, state)
}

func TestStateTracker_InvalidState(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	ctx := context.Background()
	client := setupRedis(t)
	tracker := New(client)

	require.NoError(t, client.Set(ctx, "idempotency:k", "garbage", time.Minute).Err())
	state, err := tracker.Acquire(ctx, "k", time.Minute)
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.Equal(t, StateError, state)
}

func TestStateTracker_StaleOwnerDoesNotReleaseNewClaim(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	ctx := context.Background()
	client := setupRedis(t)
	tracker := New(client)

	boom := errors.New("boom")
	err := tracker.Exec(ctx, "k", func(ctx context.Context) error {
		// the first claim expires and another caller takes the key
		require.NoError(t, client.Set(ctx, "idempotency:k", "in_progress:other", time.Minute).Err())
		return boom
	})
	assert.ErrorIs(t, err, boom)

	v, err := client.Get(ctx, "idempotency:k").Result()
	require.NoError(t, err)
	assert.Equal(t, "in_progress:other", v)
}
