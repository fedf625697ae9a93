package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"assetverse/internal/schema"
)

func TestMemoryGetInsert(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	_, ok, err := m.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	value := []byte("v1")
	require.NoError(t, m.Insert(ctx, "k", value))
	value[0] = 'x'

	got, ok, err := m.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("v1"), got, "stored value must not alias the caller's slice")

	got[0] = 'y'
	again, _, _ := m.Get(ctx, "k")
	assert.Equal(t, []byte("v1"), again, "returned value must not alias the stored slice")
}

func TestMemoryCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m := NewMemory()
	assert.Error(t, m.Insert(ctx, "k", nil))
	_, _, err := m.Get(ctx, "k")
	assert.Error(t, err)
	assert.Error(t, m.InsertBatch(ctx, []Entry{{Key: "k"}}))
	assert.Zero(t, m.Len())
}

func TestInsertAllUsesBatcher(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	require.NoError(t, InsertAll(ctx, m,
		Entry{Key: AccountKey("alice"), Value: []byte("a")},
		Entry{Key: AccountKey("bob"), Value: []byte("b")},
	))
	assert.Equal(t, 2, m.Len())
	require.NoError(t, InsertAll(ctx, m))
}

type plainStore struct {
	inserts []string
	failOn  string
}

func (p *plainStore) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, nil
}

func (p *plainStore) Insert(_ context.Context, key string, _ []byte) error {
	if key == p.failOn {
		return assert.AnError
	}
	p.inserts = append(p.inserts, key)
	return nil
}

func TestInsertAllSequentialFallback(t *testing.T) {
	ctx := context.Background()

	p := &plainStore{}
	require.NoError(t, InsertAll(ctx, p, Entry{Key: "a"}, Entry{Key: "b"}))
	assert.Equal(t, []string{"a", "b"}, p.inserts)

	p = &plainStore{failOn: "a"}
	assert.ErrorIs(t, InsertAll(ctx, p, Entry{Key: "a"}, Entry{Key: "b"}), assert.AnError)
	assert.Empty(t, p.inserts, "writes stop at the first failure")
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "account:alice", AccountKey(schema.Principal("alice")))
	assert.Equal(t, "game:cod", GameKey(schema.GameID("cod")))
	assert.Equal(t, "games", GamesKey())
}
