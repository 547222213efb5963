package kvstore_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/epdlink/adproxy/kvstore"
)

func setupRedisStore(t *testing.T) (*kvstore.Redis, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return kvstore.NewRedisFromClient(client), mr
}

func TestRedis_SetGet(t *testing.T) {
	store, _ := setupRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k1", "v1", time.Minute))

	value, err := store.Get(ctx, "k1")
	require.NoError(t, err)
	require.Equal(t, "v1", value)

	_, err = store.Get(ctx, "missing")
	require.ErrorIs(t, err, kvstore.ErrNotFound)
}

func TestRedis_ExpiryEnforced(t *testing.T) {
	store, mr := setupRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k", "v", 2*time.Minute))

	value, err := store.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, "v", value)

	mr.FastForward(3 * time.Minute)

	_, err = store.Get(ctx, "k")
	require.ErrorIs(t, err, kvstore.ErrNotFound)
}

func TestRedis_Delete(t *testing.T) {
	store, _ := setupRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k", "v", time.Minute))
	require.NoError(t, store.Delete(ctx, "k"))

	_, err := store.Get(ctx, "k")
	require.ErrorIs(t, err, kvstore.ErrNotFound)
}
