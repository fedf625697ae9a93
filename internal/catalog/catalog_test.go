package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"assetverse/internal/schema"
	"assetverse/internal/store"
	"assetverse/pkg/exception"
)

func TestRegisterThenList(t *testing.T) {
	ctx := context.Background()
	c := New(store.NewMemory())

	def, err := c.Register(ctx, "g", "sword", schema.NewBalance(10))
	require.NoError(t, err)
	assert.Equal(t, schema.AssetDef{Game: "g", Asset: "sword", Price: schema.NewBalance(10)}, def)

	defs, err := c.ListAssets(ctx, "g")
	require.NoError(t, err)
	assert.Contains(t, defs, schema.AssetDef{Game: "g", Asset: "sword", Price: schema.NewBalance(10)})
}

func TestListGamesKeepsDuplicates(t *testing.T) {
	ctx := context.Background()
	c := New(store.NewMemory())

	games, err := c.ListGames(ctx)
	require.NoError(t, err)
	assert.Empty(t, games)

	for _, r := range []struct {
		game  schema.GameID
		asset schema.AssetID
	}{{"cod", "gun"}, {"chess", "pawn"}, {"cod", "knife"}} {
		_, err := c.Register(ctx, r.game, r.asset, schema.NewBalance(1))
		require.NoError(t, err)
	}

	games, err = c.ListGames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []schema.GameID{"cod", "chess", "cod"}, games)
}

func TestFindPrice(t *testing.T) {
	ctx := context.Background()
	c := New(store.NewMemory())
	_, err := c.Register(ctx, "g", "sword", schema.NewBalance(10))
	require.NoError(t, err)

	price, err := c.FindPrice(ctx, "g", "sword")
	require.NoError(t, err)
	assert.Equal(t, schema.NewBalance(10), price)

	_, err = c.FindPrice(ctx, "g", "shield")
	assert.ErrorIs(t, err, exception.ErrAssetNotFound)

	_, err = c.FindPrice(ctx, "empty", "sword")
	assert.ErrorIs(t, err, exception.ErrGameWithoutAssets)

	_, err = c.ListAssets(ctx, "empty")
	assert.ErrorIs(t, err, exception.ErrGameWithoutAssets)
}

func TestDuplicateRegistrationFirstMatchWins(t *testing.T) {
	ctx := context.Background()
	c := New(store.NewMemory())
	_, err := c.Register(ctx, "g", "sword", schema.NewBalance(10))
	require.NoError(t, err)
	_, err = c.Register(ctx, "g", "sword", schema.NewBalance(99))
	require.NoError(t, err)

	price, err := c.FindPrice(ctx, "g", "sword")
	require.NoError(t, err)
	assert.Equal(t, schema.NewBalance(10), price)

	defs, err := c.ListAssets(ctx, "g")
	require.NoError(t, err)
	assert.Len(t, defs, 2)
}

func TestFindPriceAnyGame(t *testing.T) {
	ctx := context.Background()
	c := New(store.NewMemory())
	_, err := c.Register(ctx, "first", "gem", schema.NewBalance(7))
	require.NoError(t, err)
	_, err = c.Register(ctx, "second", "gem", schema.NewBalance(70))
	require.NoError(t, err)
	_, err = c.Register(ctx, "second", "coin", schema.NewBalance(1))
	require.NoError(t, err)

	price, err := c.FindPriceAnyGame(ctx, "gem")
	require.NoError(t, err)
	assert.Equal(t, schema.NewBalance(7), price, "earliest registered game wins")

	price, err = c.FindPriceAnyGame(ctx, "coin")
	require.NoError(t, err)
	assert.Equal(t, schema.NewBalance(1), price)

	_, err = c.FindPriceAnyGame(ctx, "ge")
	assert.ErrorIs(t, err, exception.ErrAssetNotFound, "no prefix matching")
}

func TestRegisterRejectsEmptyIdentifiers(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()
	c := New(s)

	_, err := c.Register(ctx, "", "sword", schema.NewBalance(1))
	assert.ErrorIs(t, err, exception.ErrInvalidArgument)
	_, err = c.Register(ctx, "g", "", schema.NewBalance(1))
	assert.ErrorIs(t, err, exception.ErrInvalidArgument)
	assert.Zero(t, s.Len())
}

func TestCorruptValues(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()
	c := New(s)

	require.NoError(t, s.Insert(ctx, store.GamesKey(), []byte{0xff}))
	_, err := c.ListGames(ctx)
	assert.ErrorIs(t, err, exception.ErrStoreCorrupt)

	require.NoError(t, s.Insert(ctx, store.GameKey("g"), []byte{0xff}))
	_, err = c.ListAssets(ctx, "g")
	assert.ErrorIs(t, err, exception.ErrStoreCorrupt)
}
