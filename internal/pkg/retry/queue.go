package retry

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jkarimi/pesaflow/internal/pkg/logger"
)

// ErrQueueFull is returned when the pending queue cannot take more entries.
// Callers fail fast rather than blocking on a provider outage.
var ErrQueueFull = errors.New("pending queue is full")

// PendingCall is a deferred outbound call queued during a provider outage
type PendingCall struct {
	ID         string
	Fn         RetryableFunc
	EnqueuedAt time.Time
}

// PendingQueue is a bounded FIFO of outbound calls deferred while the provider
// is unavailable. It is drained when a probe succeeds or the drain timer fires;
// entries older than the TTL are discarded instead of retried forever.
type PendingQueue struct {
	mu      sync.Mutex
	entries []PendingCall
	maxSize int
	ttl     time.Duration
	logger  *logger.ZapLogger
}

// NewPendingQueue creates a bounded pending-call queue
func NewPendingQueue(maxSize int, ttl time.Duration, l *logger.ZapLogger) *PendingQueue {
	return &PendingQueue{
		entries: make([]PendingCall, 0, maxSize),
		maxSize: maxSize,
		ttl:     ttl,
		logger:  l,
	}
}

// Enqueue adds a deferred call, failing fast with ErrQueueFull on overflow
func (q *PendingQueue) Enqueue(id string, fn RetryableFunc) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.entries) >= q.maxSize {
		q.logger.Warn("Pending queue overflow, rejecting call",
			logger.String("call_id", id),
			logger.Int("queue_size", len(q.entries)))
		return ErrQueueFull
	}

	q.entries = append(q.entries, PendingCall{
		ID:         id,
		Fn:         fn,
		EnqueuedAt: time.Now(),
	})
	return nil
}

// Len returns the number of queued calls
func (q *PendingQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

// Drain runs the probe and, if it succeeds, executes every queued call in FIFO
// order. Expired entries are dropped. Calls that fail again are re-queued at
// the tail unless they have expired. Returns the number of calls executed
// successfully.
func (q *PendingQueue) Drain(ctx context.Context, probe RetryableFunc) int {
	q.mu.Lock()
	pending := q.takeFreshLocked()
	q.mu.Unlock()

	if len(pending) == 0 {
		return 0
	}

	if probe != nil {
		if err := probe(ctx); err != nil {
			q.logger.Debug("Pending queue probe failed, keeping entries queued",
				logger.Err(err),
				logger.Int("pending", len(pending)))
			q.requeue(pending)
			return 0
		}
	}

	succeeded := 0
	for _, call := range pending {
		if err := call.Fn(ctx); err != nil {
			q.logger.Warn("Queued call failed during drain",
				logger.String("call_id", call.ID),
				logger.Err(err))
			q.requeue([]PendingCall{call})
			continue
		}
		succeeded++
	}

	if succeeded > 0 {
		q.logger.Info("Drained pending queue",
			logger.Int("succeeded", succeeded),
			logger.Int("attempted", len(pending)))
	}
	return succeeded
}

// StartDrainLoop drains the queue on a fixed interval until the context ends
func (q *PendingQueue) StartDrainLoop(ctx context.Context, interval time.Duration, probe RetryableFunc) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				q.Drain(ctx, probe)
			}
		}
	}()
}

// takeFreshLocked removes and returns all non-expired entries. Caller holds the lock.
func (q *PendingQueue) takeFreshLocked() []PendingCall {
	now := time.Now()
	fresh := make([]PendingCall, 0, len(q.entries))
	dropped := 0

	for _, call := range q.entries {
		if now.Sub(call.EnqueuedAt) > q.ttl {
			dropped++
			continue
		}
		fresh = append(fresh, call)
	}

	if dropped > 0 {
		q.logger.Warn("Dropped expired pending calls",
			logger.Int("dropped", dropped))
	}

	q.entries = q.entries[:0]
	return fresh
}

func (q *PendingQueue) requeue(calls []PendingCall) {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := time.Now()
	for _, call := range calls {
		if now.Sub(call.EnqueuedAt) > q.ttl {
			continue
		}
		if len(q.entries) >= q.maxSize {
			return
		}
		q.entries = append(q.entries, call)
	}
}
