package server

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jkarimi/pesaflow/internal/pkg/logger"
)

func newTestLogger(t *testing.T) *logger.ZapLogger {
	t.Helper()
	zl, err := logger.NewZapLogger(logger.ZapConfig{Level: "error"}, nil)
	require.NoError(t, err)
	return zl
}

func TestNewGracefulServer(t *testing.T) {
	e := echo.New()
	gs := NewGracefulServer(e, newTestLogger(t), 9990)

	require.NotNil(t, gs)
	assert.Equal(t, e, gs.echo)
	assert.Equal(t, 9990, gs.port)
}

func TestShutdownManager_RunsComponentsInOrder(t *testing.T) {
	sm := NewShutdownManager(newTestLogger(t))

	var order []string
	sm.Register("consumer", func(ctx context.Context) error {
		order = append(order, "consumer")
		return nil
	})
	sm.Register("nats", func(ctx context.Context) error {
		order = append(order, "nats")
		return nil
	})

	err := sm.Shutdown(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, []string{"consumer", "nats"}, order)
}

func TestShutdownManager_ContinuesAfterFailure(t *testing.T) {
	sm := NewShutdownManager(newTestLogger(t))

	var called bool
	sm.Register("redis", func(ctx context.Context) error {
		return errors.New("close failed")
	})
	sm.Register("postgres", func(ctx context.Context) error {
		called = true
		return nil
	})

	err := sm.Shutdown(context.Background())
	assert.NoError(t, err)
	assert.True(t, called)
}

func TestShutdownManager_PassesContextThrough(t *testing.T) {
	sm := NewShutdownManager(newTestLogger(t))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	var received context.Context
	sm.Register("scheduler", func(c context.Context) error {
		received = c
		return nil
	})

	require.NoError(t, sm.Shutdown(ctx))
	assert.Equal(t, ctx, received)
}

func TestShutdownManager_EmptyIsNoop(t *testing.T) {
	sm := NewShutdownManager(newTestLogger(t))
	assert.NoError(t, sm.Shutdown(context.Background()))
}
