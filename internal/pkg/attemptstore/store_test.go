package attemptstore

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jkarimi/pesaflow/internal/pkg/database"
)

func setupRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisStore(database.NewRedisClientFromClient(client), "callback_retry", time.Hour)
	return store, mr
}

func TestRedisStore_IncrAndGet(t *testing.T) {
	store, _ := setupRedisStore(t)
	ctx := context.Background()

	n, err := store.Incr(ctx, "ws_CO_1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = store.Incr(ctx, "ws_CO_1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	got, err := store.Get(ctx, "ws_CO_1")
	require.NoError(t, err)
	assert.Equal(t, 2, got)

	// Independent keys do not interfere
	other, err := store.Get(ctx, "ws_CO_2")
	require.NoError(t, err)
	assert.Equal(t, 0, other)
}

func TestRedisStore_Clear(t *testing.T) {
	store, _ := setupRedisStore(t)
	ctx := context.Background()

	_, err := store.Incr(ctx, "ws_CO_1")
	require.NoError(t, err)

	require.NoError(t, store.Clear(ctx, "ws_CO_1"))

	got, err := store.Get(ctx, "ws_CO_1")
	require.NoError(t, err)
	assert.Equal(t, 0, got)
}

func TestRedisStore_TTLSetOnFirstIncr(t *testing.T) {
	store, mr := setupRedisStore(t)
	ctx := context.Background()

	_, err := store.Incr(ctx, "ws_CO_1")
	require.NoError(t, err)

	assert.Greater(t, mr.TTL("callback_retry:ws_CO_1"), time.Duration(0))
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	n, err := store.Incr(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = store.Incr(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.NoError(t, store.Clear(ctx, "k"))
	got, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, 0, got)
}
