package dispatch

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestQueue_RunsJobs(t *testing.T) {
	q := New(Options{Size: 8, Workers: 2, MaxAttempts: 1}, zap.NewNop())
	q.Start()

	var ran atomic.Int32
	for i := 0; i < 5; i++ {
		require.NoError(t, q.Enqueue(Job{Name: "count", Run: func(context.Context) error {
			ran.Add(1)
			return nil
		}}))
	}
	require.NoError(t, q.Close(context.Background()))
	assert.Equal(t, int32(5), ran.Load())
}

func TestQueue_RetriesUntilSuccess(t *testing.T) {
	q := New(Options{Size: 1, Workers: 1, MaxAttempts: 3, Backoff: time.Millisecond}, zap.NewNop())
	q.Start()

	var calls atomic.Int32
	var failed atomic.Bool
	require.NoError(t, q.Enqueue(Job{
		Name: "flaky",
		Run: func(context.Context) error {
			if calls.Add(1) < 3 {
				return errors.New("boom")
			}
			return nil
		},
		OnFailure: func(error) { failed.Store(true) },
	}))
	require.NoError(t, q.Close(context.Background()))
	assert.Equal(t, int32(3), calls.Load())
	assert.False(t, failed.Load())
}

func TestQueue_OnFailureAfterMaxAttempts(t *testing.T) {
	q := New(Options{Size: 1, Workers: 1, MaxAttempts: 2, Backoff: time.Millisecond}, zap.NewNop())
	q.Start()

	var calls atomic.Int32
	var lastErr atomic.Value
	require.NoError(t, q.Enqueue(Job{
		Name:      "broken",
		Run:       func(context.Context) error { calls.Add(1); return errors.New("down") },
		OnFailure: func(err error) { lastErr.Store(err.Error()) },
	}))
	require.NoError(t, q.Close(context.Background()))
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, "down", lastErr.Load())
}

func TestQueue_FullAndClosed(t *testing.T) {
	q := New(Options{Size: 1, Workers: 1}, zap.NewNop())
	noop := Job{Name: "noop", Run: func(context.Context) error { return nil }}

	require.NoError(t, q.Enqueue(noop))
	assert.ErrorIs(t, q.Enqueue(noop), ErrQueueFull)

	q.Start()
	require.NoError(t, q.Close(context.Background()))
	assert.ErrorIs(t, q.Enqueue(noop), ErrClosed)
}

func TestQueue_PanicIsContained(t *testing.T) {
	q := New(Options{Size: 2, Workers: 1, MaxAttempts: 1}, zap.NewNop())
	q.Start()

	var after atomic.Bool
	require.NoError(t, q.Enqueue(Job{Name: "panic", Run: func(context.Context) error { panic("nope") }}))
	require.NoError(t, q.Enqueue(Job{Name: "after", Run: func(context.Context) error { after.Store(true); return nil }}))
	require.NoError(t, q.Close(context.Background()))
	assert.True(t, after.Load())
}
