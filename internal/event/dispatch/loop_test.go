package dispatch

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoop_RunPendingWaitsForDelay(t *testing.T) {
	l := NewLoop()
	ran := 0

	require.NoError(t, l.Schedule(func() { ran++ }))

	// Not due yet.
	assert.Equal(t, 0, l.RunPending())
	assert.Equal(t, 1, l.Len())

	time.Sleep(2 * DeferDelay)
	assert.Equal(t, 1, l.RunPending())
	assert.Equal(t, 1, ran)
	assert.Equal(t, 0, l.Len())
}

func TestLoop_DrainOrder(t *testing.T) {
	l := NewLoop()
	var order []int

	for i := 0; i < 5; i++ {
		i := i
		require.NoError(t, l.Schedule(func() { order = append(order, i) }))
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, l.Drain(ctx))

	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestLoop_DrainNested(t *testing.T) {
	l := NewLoop()
	var order []string

	require.NoError(t, l.Schedule(func() {
		order = append(order, "outer")
		_ = l.Schedule(func() { order = append(order, "inner") })
	}))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, l.Drain(ctx))

	assert.Equal(t, []string{"outer", "inner"}, order)

	stats := l.Stats()
	assert.Equal(t, uint64(2), stats.Scheduled)
	assert.Equal(t, uint64(2), stats.Executed)
	assert.Equal(t, 0, stats.Pending)
}

func TestLoop_PanicIsolated(t *testing.T) {
	var recovered any
	l := NewLoop(WithLoopPanicHandler(func(v any, _ []byte) { recovered = v }))
	ran := false

	require.NoError(t, l.Schedule(func() { panic("boom") }))
	require.NoError(t, l.Schedule(func() { ran = true }))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, l.Drain(ctx))

	assert.Equal(t, "boom", recovered)
	assert.True(t, ran)
	assert.Equal(t, uint64(1), l.Stats().Panicked)
}

func TestLoop_Close(t *testing.T) {
	l := NewLoop()
	ran := false
	require.NoError(t, l.Schedule(func() { ran = true }))

	l.Close()
	assert.ErrorIs(t, l.Schedule(func() {}), ErrNotRunning)

	// Run returns once the queue is empty after Close.
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, l.Run(ctx))
	assert.True(t, ran)
}

func TestLoop_RunCancelled(t *testing.T) {
	l := NewLoop()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	assert.ErrorIs(t, l.Run(ctx), context.DeadlineExceeded)
}

func TestLoop_DrainCancelled(t *testing.T) {
	l := NewLoop()
	require.NoError(t, l.Schedule(func() {}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, l.Drain(ctx), context.Canceled)
	assert.Equal(t, 1, l.Len())
}

func TestLoop_NilTask(t *testing.T) {
	assert.ErrorIs(t, NewLoop().Schedule(nil), ErrNilTask)
}
