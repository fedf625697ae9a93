// Package state rebuilds ledger state from the event journal and keeps JSON
// snapshots of it.
package state

import (
	"sort"

	"assetverse/internal/errors"
	"assetverse/internal/inventory"
	"assetverse/internal/schema"
	"assetverse/pkg/exception"
)

// Reducer folds ledger events into accounts and catalog.
type Reducer struct {
	accounts map[schema.Principal]schema.Account
	games    []schema.GameID
	assets   map[schema.GameID][]schema.AssetDef
}

// NewReducer creates an empty reducer.
func NewReducer() *Reducer {
	return &Reducer{
		accounts: make(map[schema.Principal]schema.Account),
		assets:   make(map[schema.GameID][]schema.AssetDef),
	}
}

// Apply folds one event. An event that does not fit the current state means
// the journal and the reducer disagree and is reported as ErrStoreCorrupt.
func (r *Reducer) Apply(e schema.Event) error {
	switch rec := e.Payload.(type) {
	case schema.PlayerCreated:
		r.accounts[rec.Account] = schema.Account{
			Principal: rec.Account,
			Name:      rec.Name,
			Balance:   rec.Balance,
			Inventory: schema.Inventory{},
		}
		return nil

	case schema.AssetCreated:
		r.games = append(r.games, rec.Game)
		r.assets[rec.Game] = append(r.assets[rec.Game], schema.AssetDef{Game: rec.Game, Asset: rec.Name, Price: rec.Price})
		return nil

	case schema.AssetPurchased:
		acc, err := r.account(e, rec.Account)
		if err != nil {
			return err
		}
		balance, ok := acc.Balance.Sub(rec.TotalPrice)
		if !ok {
			return r.corrupt(e, "balance below purchase total")
		}
		if _, err := inventory.Increase(acc.Inventory, rec.Asset, rec.Count); err != nil {
			return r.corrupt(e, err.Error())
		}
		acc.Balance = balance
		r.accounts[rec.Account] = acc
		return nil

	case schema.AssetGifted:
		from, err := r.account(e, rec.From)
		if err != nil {
			return err
		}
		to, err := r.account(e, rec.To)
		if err != nil {
			return err
		}
		if rec.From == rec.To {
			to = from
		}
		if _, err := inventory.Decrease(from.Inventory, rec.Asset, rec.Count); err != nil {
			return r.corrupt(e, err.Error())
		}
		if _, err := inventory.Increase(to.Inventory, rec.Asset, rec.Count); err != nil {
			return r.corrupt(e, err.Error())
		}
		r.accounts[rec.From] = from
		r.accounts[rec.To] = to
		return nil

	case schema.AssetExchanged:
		acc, err := r.account(e, rec.Account)
		if err != nil {
			return err
		}
		if _, err := inventory.Decrease(acc.Inventory, rec.FromAsset, rec.FromCount); err != nil {
			return r.corrupt(e, err.Error())
		}
		if _, err := inventory.Increase(acc.Inventory, rec.ToAsset, rec.ToCount); err != nil {
			return r.corrupt(e, err.Error())
		}
		balance, ok := acc.Balance.Add(rec.Refund)
		if !ok {
			return r.corrupt(e, "refund overflows balance")
		}
		acc.Balance = balance
		r.accounts[rec.Account] = acc
		return nil

	case schema.AssetModified:
		acc, err := r.account(e, rec.Account)
		if err != nil {
			return err
		}
		if err := inventory.Set(acc.Inventory, rec.Asset, rec.NewCount); err != nil {
			return r.corrupt(e, err.Error())
		}
		r.accounts[rec.Account] = acc
		return nil

	default:
		return r.corrupt(e, "unknown event type")
	}
}

// ApplySnapshot replaces the reducer state with a snapshot. A snapshot
// holding a non-positive quantity is rejected as ErrStoreCorrupt and leaves
// the reducer untouched.
func (r *Reducer) ApplySnapshot(snapshot Snapshot) error {
	accounts := make(map[schema.Principal]schema.Account, len(snapshot.Accounts))
	for _, acc := range snapshot.Accounts {
		if err := inventory.Validate(acc.Inventory); err != nil {
			return errors.Wrapf(exception.ErrStoreCorrupt, "snapshot account %s: %v", acc.Principal, err)
		}
		acc = acc.Clone()
		if acc.Inventory == nil {
			acc.Inventory = schema.Inventory{}
		}
		accounts[acc.Principal] = acc
	}
	r.accounts = accounts
	r.games = r.games[:0]
	r.assets = make(map[schema.GameID][]schema.AssetDef)
	for _, def := range snapshot.Assets {
		r.games = append(r.games, def.Game)
		r.assets[def.Game] = append(r.assets[def.Game], def)
	}
	return nil
}

// Account returns a copy of the account of p.
func (r *Reducer) Account(p schema.Principal) (schema.Account, bool) {
	acc, ok := r.accounts[p]
	if !ok {
		return schema.Account{}, false
	}
	return acc.Clone(), true
}

// Accounts returns copies of every account ordered by principal.
func (r *Reducer) Accounts() []schema.Account {
	out := make([]schema.Account, 0, len(r.accounts))
	for _, acc := range r.accounts {
		out = append(out, acc.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Principal < out[j].Principal
	})
	return out
}

// Games returns the games list in registration order.
func (r *Reducer) Games() []schema.GameID {
	return append([]schema.GameID(nil), r.games...)
}

// Assets returns every catalog entry in registration order.
func (r *Reducer) Assets() []schema.AssetDef {
	// games repeats once per registration, so walking it with a cursor per
	// game reproduces the global registration order.
	next := make(map[schema.GameID]int, len(r.assets))
	out := make([]schema.AssetDef, 0, len(r.games))
	for _, g := range r.games {
		defs := r.assets[g]
		i := next[g]
		if i < len(defs) {
			out = append(out, defs[i])
			next[g] = i + 1
		}
	}
	return out
}

// Count returns the number of tracked accounts.
func (r *Reducer) Count() int {
	return len(r.accounts)
}

func (r *Reducer) account(e schema.Event, p schema.Principal) (schema.Account, error) {
	acc, ok := r.accounts[p]
	if !ok {
		return schema.Account{}, errors.Wrapf(exception.ErrStoreCorrupt, "seq %d %s: unknown player %s", e.Seq, e.Type(), p)
	}
	return acc, nil
}

func (r *Reducer) corrupt(e schema.Event, reason string) error {
	return errors.Wrapf(exception.ErrStoreCorrupt, "seq %d %s: %s", e.Seq, e.Type(), reason)
}
