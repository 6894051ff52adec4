package retry

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/jkarimi/pesaflow/internal/pkg/logger"
)

// RetryableFunc is the unit of work a Retrier drives.
type RetryableFunc func(ctx context.Context) error

// Config describes the backoff curve and when to keep trying.
type Config struct {
	MaxRetries    int
	BaseDelay     time.Duration
	MaxDelay      time.Duration
	Multiplier    float64
	Jitter        bool // spread retries from many workers apart
	RetryableFunc func(error) bool
}

// DefaultConfig retries three times on a 500ms doubling curve capped at 8s,
// treating every error as retryable.
func DefaultConfig() Config {
	return Config{
		MaxRetries:    3,
		BaseDelay:     500 * time.Millisecond,
		MaxDelay:      8 * time.Second,
		Multiplier:    2.0,
		Jitter:        true,
		RetryableFunc: func(error) bool { return true },
	}
}

// Delay computes the backoff delay for an attempt number (0-based) without
// jitter: min(base * multiplier^attempt, cap). Exposed so schedulers that
// track attempts externally (inbound callback reprocessing) share the same
// curve as Execute.
func (c Config) Delay(attempt int) time.Duration {
	delay := float64(c.BaseDelay) * math.Pow(c.Multiplier, float64(attempt))
	if delay > float64(c.MaxDelay) {
		delay = float64(c.MaxDelay)
	}
	return time.Duration(delay)
}

// Retrier drives a RetryableFunc along the configured backoff curve.
type Retrier struct {
	config Config
	logger *logger.ZapLogger
}

func New(config Config, l *logger.ZapLogger) *Retrier {
	return &Retrier{config: config, logger: l}
}

func NewWithDefaults(l *logger.ZapLogger) *Retrier {
	return New(DefaultConfig(), l)
}

// Execute runs fn until it succeeds, the error is classified non-retryable,
// the attempt budget is spent, or ctx is cancelled.
func (r *Retrier) Execute(ctx context.Context, fn RetryableFunc) error {
	var lastErr error

	for attempt := 0; attempt <= r.config.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := fn(ctx)
		if err == nil {
			if attempt > 0 {
				r.logger.Info("Call succeeded after retries",
					logger.Int("total_attempts", attempt+1))
			}
			return nil
		}
		lastErr = err

		if !r.config.RetryableFunc(err) {
			r.logger.Debug("Error is not retryable, giving up",
				logger.Err(err),
				logger.Int("attempt", attempt+1))
			return err
		}

		if attempt == r.config.MaxRetries {
			break
		}

		delay := r.jittered(attempt)
		r.logger.Debug("Call failed, backing off",
			logger.Err(err),
			logger.Int("attempt", attempt+1),
			logger.Duration("delay", delay),
			logger.Int("max_retries", r.config.MaxRetries))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	r.logger.Error("Call failed after all retries",
		logger.Err(lastErr),
		logger.Int("total_attempts", r.config.MaxRetries+1))

	return fmt.Errorf("retry limit exceeded after %d attempts: %w", r.config.MaxRetries+1, lastErr)
}

// jittered adds up to 10% random slack on top of the base curve.
func (r *Retrier) jittered(attempt int) time.Duration {
	delay := r.config.Delay(attempt)
	if r.config.Jitter {
		delay += time.Duration(float64(delay) * 0.1 * rand.Float64())
	}
	return delay
}
