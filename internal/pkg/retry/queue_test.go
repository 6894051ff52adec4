package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jkarimi/pesaflow/internal/pkg/logger"
)

func newQueueLogger(t *testing.T) *logger.ZapLogger {
	t.Helper()
	zl, err := logger.NewZapLogger(logger.ZapConfig{Level: "error"}, nil)
	require.NoError(t, err)
	return zl
}

func noop(context.Context) error { return nil }

func TestPendingQueue_EnqueueUpToCapacity(t *testing.T) {
	q := NewPendingQueue(2, time.Minute, newQueueLogger(t))

	require.NoError(t, q.Enqueue("stk-1", noop))
	require.NoError(t, q.Enqueue("stk-2", noop))
	assert.Equal(t, 2, q.Len())

	err := q.Enqueue("stk-3", noop)
	assert.ErrorIs(t, err, ErrQueueFull)
	assert.Equal(t, 2, q.Len())
}

func TestPendingQueue_DrainRunsCallsInOrder(t *testing.T) {
	q := NewPendingQueue(10, time.Minute, newQueueLogger(t))

	var order []string
	for _, id := range []string{"a", "b", "c"} {
		id := id
		require.NoError(t, q.Enqueue(id, func(context.Context) error {
			order = append(order, id)
			return nil
		}))
	}

	n := q.Drain(context.Background(), noop)
	assert.Equal(t, 3, n)
	assert.Equal(t, []string{"a", "b", "c"}, order)
	assert.Equal(t, 0, q.Len())
}

func TestPendingQueue_FailedProbeKeepsEntries(t *testing.T) {
	q := NewPendingQueue(10, time.Minute, newQueueLogger(t))

	var ran bool
	require.NoError(t, q.Enqueue("stk-1", func(context.Context) error {
		ran = true
		return nil
	}))

	n := q.Drain(context.Background(), func(context.Context) error {
		return errors.New("provider still down")
	})

	assert.Equal(t, 0, n)
	assert.False(t, ran)
	assert.Equal(t, 1, q.Len())
}

func TestPendingQueue_FailedCallIsRequeued(t *testing.T) {
	q := NewPendingQueue(10, time.Minute, newQueueLogger(t))

	calls := 0
	require.NoError(t, q.Enqueue("stk-1", func(context.Context) error {
		calls++
		if calls == 1 {
			return errors.New("timeout")
		}
		return nil
	}))

	assert.Equal(t, 0, q.Drain(context.Background(), noop))
	assert.Equal(t, 1, q.Len())

	assert.Equal(t, 1, q.Drain(context.Background(), noop))
	assert.Equal(t, 0, q.Len())
	assert.Equal(t, 2, calls)
}

func TestPendingQueue_ExpiredEntriesDropped(t *testing.T) {
	q := NewPendingQueue(10, time.Millisecond, newQueueLogger(t))

	var ran bool
	require.NoError(t, q.Enqueue("stk-1", func(context.Context) error {
		ran = true
		return nil
	}))

	time.Sleep(5 * time.Millisecond)

	assert.Equal(t, 0, q.Drain(context.Background(), noop))
	assert.False(t, ran)
	assert.Equal(t, 0, q.Len())
}

func TestPendingQueue_DrainLoopStopsOnCancel(t *testing.T) {
	q := NewPendingQueue(10, time.Minute, newQueueLogger(t))

	done := make(chan struct{})
	require.NoError(t, q.Enqueue("stk-1", func(context.Context) error {
		close(done)
		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	q.StartDrainLoop(ctx, 5*time.Millisecond, noop)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("drain loop never ran")
	}
}
