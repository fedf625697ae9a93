// Package store provides the keyed get/insert substrate the ledger persists
// into. Backends have no cross-key transactions unless they also implement
// Batcher.
package store

import (
	"context"

	"assetverse/internal/schema"
)

// Store is a keyed byte store.
type Store interface {
	// Get returns the value stored under key and whether it exists.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Insert stores value under key, replacing any previous value.
	Insert(ctx context.Context, key string, value []byte) error
}

// Entry is one key/value write.
type Entry struct {
	Key   string
	Value []byte
}

// Batcher is implemented by stores able to commit several inserts atomically.
type Batcher interface {
	InsertBatch(ctx context.Context, entries []Entry) error
}

// InsertAll writes every entry, atomically when s is a Batcher. Otherwise the
// entries are written in order and the first failure stops the sequence.
func InsertAll(ctx context.Context, s Store, entries ...Entry) error {
	if len(entries) == 0 {
		return nil
	}
	if b, ok := s.(Batcher); ok {
		return b.InsertBatch(ctx, entries)
	}
	for _, e := range entries {
		if err := s.Insert(ctx, e.Key, e.Value); err != nil {
			return err
		}
	}
	return nil
}

const (
	accountPrefix = "account:"
	gamePrefix    = "game:"
	gamesKey      = "games"
)

// AccountKey is the key of a principal's account.
func AccountKey(p schema.Principal) string {
	return accountPrefix + string(p)
}

// GameKey is the key of a game's asset list.
func GameKey(g schema.GameID) string {
	return gamePrefix + string(g)
}

// GamesKey is the key of the registered games list.
func GamesKey() string {
	return gamesKey
}
