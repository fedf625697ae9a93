package store

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *Redis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
	})

	return mr, NewRedis(client, "ledger:")
}

func TestRedisGetInsert(t *testing.T) {
	ctx := context.Background()
	mr, r := setupTestRedis(t)

	_, ok, err := r.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, r.Insert(ctx, AccountKey("alice"), []byte{1, 2, 3}))

	got, ok, err := r.Get(ctx, AccountKey("alice"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte{1, 2, 3}, got)

	raw, err := mr.Get("ledger:account:alice")
	require.NoError(t, err)
	assert.Equal(t, string([]byte{1, 2, 3}), raw)
}

func TestRedisInsertBatch(t *testing.T) {
	ctx := context.Background()
	mr, r := setupTestRedis(t)

	require.NoError(t, InsertAll(ctx, r,
		Entry{Key: AccountKey("alice"), Value: []byte("a")},
		Entry{Key: AccountKey("bob"), Value: []byte("b")},
	))

	assert.True(t, mr.Exists("ledger:account:alice"))
	assert.True(t, mr.Exists("ledger:account:bob"))
}

func TestRedisUnavailable(t *testing.T) {
	ctx := context.Background()
	mr, r := setupTestRedis(t)
	mr.Close()

	_, _, err := r.Get(ctx, "k")
	assert.Error(t, err)
	assert.Error(t, r.Insert(ctx, "k", []byte("v")))
}
