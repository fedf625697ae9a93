// Package account creates, loads and persists player accounts.
package account

import (
	"context"

	"assetverse/internal/codec"
	"assetverse/internal/errors"
	"assetverse/internal/schema"
	"assetverse/internal/store"
	"assetverse/pkg/exception"
)

// DefaultInitialBalance is granted to every newly registered account.
const DefaultInitialBalance uint64 = 1000

// Options tunes registration policy.
type Options struct {
	// InitialBalance is the grant of a fresh account.
	InitialBalance schema.Balance
	// RejectReregistration refuses to overwrite an existing account with
	// ErrPlayerExists instead of resetting it.
	RejectReregistration bool
}

// DefaultOptions grants DefaultInitialBalance and resets on reregistration.
func DefaultOptions() Options {
	return Options{InitialBalance: schema.NewBalance(DefaultInitialBalance)}
}

// Registry reads and writes accounts in a store.
type Registry struct {
	store store.Store
	opts  Options
}

// NewRegistry creates a registry over s.
func NewRegistry(s store.Store, opts Options) *Registry {
	return &Registry{store: s, opts: opts}
}

// Fresh builds the default account for p without persisting it.
func (r *Registry) Fresh(p schema.Principal, name string) schema.Account {
	return schema.Account{
		Principal: p,
		Name:      name,
		Balance:   r.opts.InitialBalance,
		Inventory: schema.Inventory{},
	}
}

// Register creates the account of p. An existing account is overwritten with
// the initial grant and an empty inventory unless RejectReregistration is set.
func (r *Registry) Register(ctx context.Context, p schema.Principal, name string) (schema.Account, error) {
	if p == "" || name == "" {
		return schema.Account{}, errors.Wrap(exception.ErrInvalidArgument, "principal and name are required")
	}
	if r.opts.RejectReregistration {
		_, ok, err := r.load(ctx, p)
		if err != nil {
			return schema.Account{}, err
		}
		if ok {
			return schema.Account{}, errors.Wrapf(exception.ErrPlayerExists, "%s", p)
		}
	}
	acc := r.Fresh(p, name)
	if err := r.Save(ctx, acc); err != nil {
		return schema.Account{}, err
	}
	return acc, nil
}

// Get loads the account of p, failing with ErrPlayerNotFound when absent.
func (r *Registry) Get(ctx context.Context, p schema.Principal) (schema.Account, error) {
	acc, ok, err := r.load(ctx, p)
	if err != nil {
		return schema.Account{}, err
	}
	if !ok {
		return schema.Account{}, errors.Wrapf(exception.ErrPlayerNotFound, "%s", p)
	}
	return acc, nil
}

// Save persists acc.
func (r *Registry) Save(ctx context.Context, acc schema.Account) error {
	e := Entry(acc)
	if err := r.store.Insert(ctx, e.Key, e.Value); err != nil {
		return errors.Wrapf(err, "save account %s", acc.Principal)
	}
	return nil
}

// SaveAll persists every account, in one batch when the store supports it.
func (r *Registry) SaveAll(ctx context.Context, accs ...schema.Account) error {
	entries := make([]store.Entry, 0, len(accs))
	for _, acc := range accs {
		entries = append(entries, Entry(acc))
	}
	if err := store.InsertAll(ctx, r.store, entries...); err != nil {
		return errors.Wrap(err, "save accounts")
	}
	return nil
}

// Entry is the store write that persists acc.
func Entry(acc schema.Account) store.Entry {
	return store.Entry{
		Key:   store.AccountKey(acc.Principal),
		Value: codec.EncodeAccount(nil, acc),
	}
}

func (r *Registry) load(ctx context.Context, p schema.Principal) (schema.Account, bool, error) {
	raw, ok, err := r.store.Get(ctx, store.AccountKey(p))
	if err != nil {
		return schema.Account{}, false, errors.Wrapf(err, "load account %s", p)
	}
	if !ok {
		return schema.Account{}, false, nil
	}
	acc, ok := codec.DecodeAccount(raw)
	if !ok || acc.Principal != p {
		return schema.Account{}, false, errors.Wrapf(exception.ErrStoreCorrupt, "account %s", p)
	}
	return acc, true, nil
}
