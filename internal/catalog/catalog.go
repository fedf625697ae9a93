// Package catalog registers and resolves the priced assets of every game.
//
// Asset lists are append-only and keep registration order. Registering the
// same asset twice is legal; lookups return the first registered entry, so a
// later duplicate never changes a resolved price.
package catalog

import (
	"context"

	"assetverse/internal/codec"
	"assetverse/internal/errors"
	"assetverse/internal/schema"
	"assetverse/internal/store"
	"assetverse/pkg/exception"
)

// Catalog reads and appends catalog entries in a store.
type Catalog struct {
	store store.Store
}

// New creates a catalog over s.
func New(s store.Store) *Catalog {
	return &Catalog{store: s}
}

// Register appends asset to game's list and records game in the games list.
// The games list grows on every registration, so a game with several assets
// appears several times.
func (c *Catalog) Register(ctx context.Context, game schema.GameID, asset schema.AssetID, price schema.Balance) (schema.AssetDef, error) {
	if game == "" || asset == "" {
		return schema.AssetDef{}, errors.Wrap(exception.ErrInvalidArgument, "game and asset are required")
	}
	defs, err := c.assets(ctx, game)
	if err != nil {
		return schema.AssetDef{}, err
	}
	games, err := c.ListGames(ctx)
	if err != nil {
		return schema.AssetDef{}, err
	}

	def := schema.AssetDef{Game: game, Asset: asset, Price: price}
	defs = append(defs, def)
	games = append(games, game)

	err = store.InsertAll(ctx, c.store,
		store.Entry{Key: store.GameKey(game), Value: codec.EncodeAssetList(nil, defs)},
		store.Entry{Key: store.GamesKey(), Value: codec.EncodeGameList(nil, games)},
	)
	if err != nil {
		return schema.AssetDef{}, errors.Wrap(err, "persist catalog")
	}
	return def, nil
}

// FindPrice resolves asset within game. A game without assets reports
// ErrGameWithoutAssets, an unknown asset ErrAssetNotFound.
func (c *Catalog) FindPrice(ctx context.Context, game schema.GameID, asset schema.AssetID) (schema.Balance, error) {
	defs, err := c.ListAssets(ctx, game)
	if err != nil {
		return schema.Balance{}, err
	}
	if price, ok := firstMatch(defs, asset); ok {
		return price, nil
	}
	return schema.Balance{}, errors.Wrapf(exception.ErrAssetNotFound, "%s/%s", game, asset)
}

// FindPriceAnyGame resolves asset across every registered game in
// registration order, first match wins.
func (c *Catalog) FindPriceAnyGame(ctx context.Context, asset schema.AssetID) (schema.Balance, error) {
	games, err := c.ListGames(ctx)
	if err != nil {
		return schema.Balance{}, err
	}
	seen := make(map[schema.GameID]struct{}, len(games))
	for _, game := range games {
		if _, ok := seen[game]; ok {
			continue
		}
		seen[game] = struct{}{}

		defs, err := c.assets(ctx, game)
		if err != nil {
			return schema.Balance{}, err
		}
		if price, ok := firstMatch(defs, asset); ok {
			return price, nil
		}
	}
	return schema.Balance{}, errors.Wrapf(exception.ErrAssetNotFound, "%s in any game", asset)
}

// ListGames returns registered game ids in registration order.
func (c *Catalog) ListGames(ctx context.Context) ([]schema.GameID, error) {
	raw, ok, err := c.store.Get(ctx, store.GamesKey())
	if err != nil {
		return nil, errors.Wrap(err, "load games")
	}
	if !ok {
		return []schema.GameID{}, nil
	}
	games, ok := codec.DecodeGameList(raw)
	if !ok {
		return nil, errors.Wrap(exception.ErrStoreCorrupt, "games list")
	}
	return games, nil
}

// ListAssets returns game's assets in registration order.
func (c *Catalog) ListAssets(ctx context.Context, game schema.GameID) ([]schema.AssetDef, error) {
	defs, err := c.assets(ctx, game)
	if err != nil {
		return nil, err
	}
	if len(defs) == 0 {
		return nil, errors.Wrapf(exception.ErrGameWithoutAssets, "%s", game)
	}
	return defs, nil
}

func (c *Catalog) assets(ctx context.Context, game schema.GameID) ([]schema.AssetDef, error) {
	raw, ok, err := c.store.Get(ctx, store.GameKey(game))
	if err != nil {
		return nil, errors.Wrapf(err, "load assets of %s", game)
	}
	if !ok {
		return nil, nil
	}
	defs, ok := codec.DecodeAssetList(game, raw)
	if !ok {
		return nil, errors.Wrapf(exception.ErrStoreCorrupt, "asset list of %s", game)
	}
	return defs, nil
}

func firstMatch(defs []schema.AssetDef, asset schema.AssetID) (schema.Balance, bool) {
	for _, def := range defs {
		if def.Asset == asset {
			return def.Price, true
		}
	}
	return schema.Balance{}, false
}
