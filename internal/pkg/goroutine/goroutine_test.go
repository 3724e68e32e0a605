package goroutine

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_RunsAndCollectsErrors(t *testing.T) {
	m := NewManager(4)
	boom := errors.New("boom")

	var ran atomic.Int32
	require.True(t, m.Go(context.Background(), "ok", func(context.Context) error {
		ran.Add(1)
		return nil
	}))
	require.True(t, m.Go(context.Background(), "fail", func(context.Context) error {
		ran.Add(1)
		return boom
	}))
	require.True(t, m.Go(context.Background(), "canceled", func(context.Context) error {
		ran.Add(1)
		return context.Canceled
	}))

	err := m.Wait()
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(3), ran.Load())
}

func TestManager_Capacity(t *testing.T) {
	m := NewManager(1)
	release := make(chan struct{})

	require.True(t, m.Go(context.Background(), "blocker", func(context.Context) error {
		<-release
		return nil
	}))
	assert.False(t, m.Go(context.Background(), "refused", func(context.Context) error { return nil }))

	close(release)
	require.NoError(t, m.Wait())
	assert.False(t, m.Go(context.Background(), "after close", func(context.Context) error { return nil }))
}

func TestManager_RecoversPanic(t *testing.T) {
	m := NewManager(2)
	require.True(t, m.Go(context.Background(), "panics", func(context.Context) error {
		panic("unexpected")
	}))

	done := make(chan error, 1)
	go func() { done <- m.Wait() }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("wait did not return after panic")
	}
}

func TestManager_CanceledContext(t *testing.T) {
	m := NewManager(2)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var ran atomic.Bool
	m.Go(ctx, "late", func(context.Context) error {
		ran.Store(true)
		return nil
	})

	require.NoError(t, m.Wait())
	assert.False(t, ran.Load())
}

func TestManager_Nil(t *testing.T) {
	var m *Manager
	assert.False(t, m.Go(context.Background(), "nil", func(context.Context) error { return nil }))
	assert.NoError(t, m.Wait())
}
