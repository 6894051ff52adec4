package circuitbreaker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jkarimi/pesaflow/internal/pkg/logger"
)

var (
	ErrCircuitBreakerOpen = errors.New("circuit breaker is open")
	ErrTooManyRequests    = errors.New("too many requests in half-open state")
)

// State of the breaker. Closed passes calls through, Open rejects them
// outright, HalfOpen lets a probe through to see if the provider recovered.
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateOpen:
		return "OPEN"
	case StateHalfOpen:
		return "HALF_OPEN"
	default:
		return "UNKNOWN"
	}
}

// Config tunes when the breaker trips and how it recovers.
type Config struct {
	Name             string
	MaxRequests      uint32        // probes allowed while half-open
	Interval         time.Duration // closed-state window after which counters reset
	Timeout          time.Duration // how long to stay open before probing
	FailureThreshold uint32        // consecutive failures that trip the breaker
	SuccessThreshold uint32        // consecutive probe successes that close it
	IsFailure        func(err error) bool
	OnStateChange    func(name string, from, to State)
}

// DefaultConfig trips after 5 consecutive failures and probes once a minute.
// STK push outages at the provider tend to last minutes, not seconds.
func DefaultConfig(name string) Config {
	return Config{
		Name:             name,
		MaxRequests:      1,
		Interval:         30 * time.Second,
		Timeout:          60 * time.Second,
		FailureThreshold: 5,
		SuccessThreshold: 1,
		IsFailure:        func(err error) bool { return err != nil },
	}
}

type counters struct {
	requests             uint32
	consecutiveFailures  uint32
	consecutiveSuccesses uint32
	totalFailures        uint32
}

// CircuitBreaker guards calls to the payment provider so a dead upstream
// fails fast instead of tying up callback workers in timeouts.
type CircuitBreaker struct {
	config Config
	logger *logger.ZapLogger

	mu     sync.Mutex
	state  State
	counts counters
	// deadline marks the end of the current window: counter reset while
	// closed, probe eligibility while open.
	deadline time.Time
}

func New(config Config, l *logger.ZapLogger) *CircuitBreaker {
	return &CircuitBreaker{
		config:   config,
		logger:   l,
		state:    StateClosed,
		deadline: time.Now().Add(config.Interval),
	}
}

// Execute runs fn if the breaker allows it and records the outcome.
// The returned error is fn's own error, or ErrCircuitBreakerOpen /
// ErrTooManyRequests when the call was rejected without running.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func(context.Context) error) error {
	if err := cb.admit(); err != nil {
		return err
	}

	err := fn(ctx)
	cb.record(err)
	return err
}

func (cb *CircuitBreaker) admit() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	now := time.Now()

	switch cb.state {
	case StateClosed:
		if now.After(cb.deadline) {
			cb.counts = counters{}
			cb.deadline = now.Add(cb.config.Interval)
		}
	case StateOpen:
		if !now.After(cb.deadline) {
			return ErrCircuitBreakerOpen
		}
		cb.transition(StateHalfOpen)
		cb.counts = counters{}
	case StateHalfOpen:
		if cb.counts.requests >= cb.config.MaxRequests {
			return ErrTooManyRequests
		}
	}

	cb.counts.requests++
	return nil
}

func (cb *CircuitBreaker) record(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.config.IsFailure(err) {
		cb.counts.totalFailures++
		cb.counts.consecutiveFailures++
		cb.counts.consecutiveSuccesses = 0

		tripped := cb.state == StateHalfOpen ||
			(cb.state == StateClosed && cb.counts.consecutiveFailures >= cb.config.FailureThreshold)
		if tripped {
			cb.transition(StateOpen)
			cb.deadline = time.Now().Add(cb.config.Timeout)
		}
		return
	}

	cb.counts.consecutiveSuccesses++
	cb.counts.consecutiveFailures = 0

	if cb.state == StateHalfOpen && cb.counts.consecutiveSuccesses >= cb.config.SuccessThreshold {
		cb.transition(StateClosed)
		cb.deadline = time.Now().Add(cb.config.Interval)
	}
}

// transition must be called with cb.mu held.
func (cb *CircuitBreaker) transition(to State) {
	if cb.state == to {
		return
	}
	from := cb.state
	cb.state = to

	if cb.logger != nil {
		cb.logger.Warn("Circuit breaker state changed",
			logger.String("name", cb.config.Name),
			logger.String("from", from.String()),
			logger.String("to", to.String()),
			logger.Uint32("consecutive_failures", cb.counts.consecutiveFailures),
			logger.Uint32("total_failures", cb.counts.totalFailures))
	}

	if cb.config.OnStateChange != nil {
		cb.config.OnStateChange(cb.config.Name, from, to)
	}
}

// State reports the current breaker state.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}
