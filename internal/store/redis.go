package store

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

var (
	_ Store   = (*Redis)(nil)
	_ Batcher = (*Redis)(nil)
)

// Redis stores entries as plain string keys under a prefix.
type Redis struct {
	client redis.UniversalClient
	prefix string
}

// NewRedis wraps a connected client. prefix namespaces every key.
func NewRedis(client redis.UniversalClient, prefix string) *Redis {
	return &Redis{client: client, prefix: prefix}
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	v, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

func (r *Redis) Insert(ctx context.Context, key string, value []byte) error {
	return r.client.Set(ctx, r.prefix+key, value, 0).Err()
}

// InsertBatch writes every entry inside a MULTI/EXEC block.
func (r *Redis) InsertBatch(ctx context.Context, entries []Entry) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, e := range entries {
			pipe.Set(ctx, r.prefix+e.Key, e.Value, 0)
		}
		return nil
	})
	return err
}
