package state

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"assetverse/internal/account"
	"assetverse/internal/journal"
	"assetverse/internal/ledger"
	"assetverse/internal/schema"
	"assetverse/internal/store"
	"assetverse/pkg/exception"
)

var initial = schema.NewBalance(100)

// runLedger drives a ledger journaling into dir and returns its store.
func runLedger(t *testing.T, dir string) *store.Memory {
	t.Helper()
	ctx := context.Background()
	w, err := journal.NewWriter(journal.Config{Dir: dir})
	require.NoError(t, err)
	require.NoError(t, w.Start(ctx))

	mem := store.NewMemory()
	e, err := ledger.New(mem,
		ledger.WithSink(w),
		ledger.WithAccountOptions(account.Options{InitialBalance: initial}),
	)
	require.NoError(t, err)

	_, err = e.RegisterPlayer(ctx, "alice", "Alice")
	require.NoError(t, err)
	_, err = e.RegisterPlayer(ctx, "bob", "Bob")
	require.NoError(t, err)
	_, err = e.RegisterAsset(ctx, "rpg", "sword", schema.NewBalance(20))
	require.NoError(t, err)
	_, err = e.RegisterAsset(ctx, "arcade", "token", schema.NewBalance(3))
	require.NoError(t, err)
	_, err = e.RegisterAsset(ctx, "rpg", "shield", schema.NewBalance(15))
	require.NoError(t, err)
	_, err = e.PurchaseAsset(ctx, "alice", "rpg", "sword", 3)
	require.NoError(t, err)
	_, err = e.GiftAsset(ctx, "alice", "bob", "sword", 1)
	require.NoError(t, err)
	_, err = e.ExchangeAsset(ctx, "bob", "sword", 1, "token", 5)
	require.NoError(t, err)
	_, err = e.ModifyAsset(ctx, "bob", "token", 2, false)
	require.NoError(t, err)
	_, err = e.RemoveAsset(ctx, "alice", "sword", 1)
	require.NoError(t, err)
	_, err = e.PurchaseAsset(ctx, "alice", "rpg", "sword", 100)
	require.Error(t, err)

	require.NoError(t, w.Close())
	return mem
}

func TestRecoverMatchesLiveLedger(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	live := runLedger(t, dir)

	res, err := Recover(ctx, RecoverConfig{JournalDir: dir})
	require.NoError(t, err)
	assert.Equal(t, uint64(10), res.LastSeq)
	assert.Equal(t, 10, res.Replayed)

	alice, ok := res.State.Account("alice")
	require.True(t, ok)
	assert.Equal(t, schema.NewBalance(40), alice.Balance)
	assert.Equal(t, schema.Inventory{"sword": 1}, alice.Inventory)

	bob, ok := res.State.Account("bob")
	require.True(t, ok)
	assert.Equal(t, schema.NewBalance(105), bob.Balance)
	assert.Equal(t, schema.Inventory{"token": 3}, bob.Inventory)

	assert.Equal(t, []schema.GameID{"rpg", "arcade", "rpg"}, res.State.Games())
	assert.Equal(t, []schema.AssetDef{
		{Game: "rpg", Asset: "sword", Price: schema.NewBalance(20)},
		{Game: "arcade", Asset: "token", Price: schema.NewBalance(3)},
		{Game: "rpg", Asset: "shield", Price: schema.NewBalance(15)},
	}, res.State.Assets())

	restored := store.NewMemory()
	require.NoError(t, Restore(ctx, restored, res.State))
	for _, key := range []string{
		store.AccountKey("alice"),
		store.AccountKey("bob"),
		store.GameKey("rpg"),
		store.GameKey("arcade"),
		store.GamesKey(),
	} {
		want, ok, err := live.Get(ctx, key)
		require.NoError(t, err)
		require.True(t, ok, key)
		got, ok, err := restored.Get(ctx, key)
		require.NoError(t, err)
		require.True(t, ok, key)
		assert.Equal(t, want, got, key)
	}
	assert.Equal(t, live.Len(), restored.Len())
}

func TestSnapshotRoundTripAndTail(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	runLedger(t, dir)

	full, err := Recover(ctx, RecoverConfig{JournalDir: dir})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "snap", "ledger.json")
	snap := full.State.SnapshotWithMeta(full.LastSeq, full.LastEventTs)
	require.NoError(t, WriteSnapshot(path, snap))

	read, err := ReadSnapshot(path)
	require.NoError(t, err)
	require.NoError(t, CompareSnapshots(snap, read))
	assert.Equal(t, full.LastSeq, read.LastSeq)

	// everything is already in the snapshot, so nothing is replayed
	resumed, err := Recover(ctx, RecoverConfig{JournalDir: dir, SnapshotPath: path})
	require.NoError(t, err)
	assert.Zero(t, resumed.Replayed)
	assert.Equal(t, full.LastSeq, resumed.LastSeq)
	require.NoError(t, CompareSnapshots(snap, resumed.State.Snapshot()))
}

func TestCompareSnapshotsDetectsDrift(t *testing.T) {
	base := Snapshot{
		Accounts: []schema.Account{{Principal: "a", Balance: schema.NewBalance(5), Inventory: schema.Inventory{"x": 1}}},
		Assets:   []schema.AssetDef{{Game: "g", Asset: "x", Price: schema.NewBalance(1)}},
	}

	testCases := []struct {
		desc   string
		mutate func(*Snapshot)
	}{
		{desc: "balance", mutate: func(s *Snapshot) { s.Accounts[0].Balance = schema.NewBalance(6) }},
		{desc: "quantity", mutate: func(s *Snapshot) { s.Accounts[0].Inventory = schema.Inventory{"x": 2} }},
		{desc: "asset", mutate: func(s *Snapshot) { s.Accounts[0].Inventory = schema.Inventory{"y": 1} }},
		{desc: "principal", mutate: func(s *Snapshot) { s.Accounts[0].Principal = "b" }},
		{desc: "missing account", mutate: func(s *Snapshot) { s.Accounts = nil }},
		{desc: "catalog", mutate: func(s *Snapshot) { s.Assets[0].Price = schema.NewBalance(2) }},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			actual := Snapshot{
				Accounts: []schema.Account{base.Accounts[0].Clone()},
				Assets:   append([]schema.AssetDef(nil), base.Assets...),
			}
			tc.mutate(&actual)
			assert.Error(t, CompareSnapshots(base, actual))
		})
	}
	assert.NoError(t, CompareSnapshots(base, base))
}

func TestReducerRejectsInconsistentEvents(t *testing.T) {
	testCases := []struct {
		desc string
		rec  schema.Record
	}{
		{desc: "unknown player", rec: schema.AssetModified{Account: "ghost", Asset: "x", NewCount: 1, Increased: true}},
		{desc: "overdraft", rec: schema.AssetPurchased{Account: "a", Asset: "x", Count: 1, TotalPrice: schema.NewBalance(101)}},
		{desc: "gift unheld", rec: schema.AssetGifted{From: "a", To: "a", Asset: "x", Count: 1}},
		{desc: "exchange unheld", rec: schema.AssetExchanged{Account: "a", FromAsset: "x", ToAsset: "y", FromCount: 1, ToCount: 1}},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			r := NewReducer()
			require.NoError(t, r.Apply(schema.NewEvent(1, 1, schema.PlayerCreated{Account: "a", Name: "A", Balance: initial})))
			err := r.Apply(schema.NewEvent(2, 2, tc.rec))
			assert.ErrorIs(t, err, exception.ErrStoreCorrupt)
		})
	}
}

func TestReducerReregistrationResets(t *testing.T) {
	r := NewReducer()
	require.NoError(t, r.Apply(schema.NewEvent(1, 1, schema.PlayerCreated{Account: "a", Name: "A", Balance: initial})))
	require.NoError(t, r.Apply(schema.NewEvent(2, 2, schema.AssetModified{Account: "a", Asset: "x", NewCount: 4, Increased: true})))
	require.NoError(t, r.Apply(schema.NewEvent(3, 3, schema.PlayerCreated{Account: "a", Name: "A2", Balance: initial})))

	acc, ok := r.Account("a")
	require.True(t, ok)
	assert.Empty(t, acc.Inventory)
	assert.Equal(t, initial, acc.Balance)
	assert.Equal(t, 1, r.Count())
}

func TestRecoverRejectsSequenceGap(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	w, err := journal.NewWriter(journal.Config{Dir: dir})
	require.NoError(t, err)
	require.NoError(t, w.Start(ctx))

	// the sink loses the third event, as a full queue would
	lossy := ledger.SinkFunc(func(e schema.Event) error {
		if e.Seq == 3 {
			return exception.ErrSinkFull
		}
		return w.Emit(e)
	})
	e, err := ledger.New(store.NewMemory(),
		ledger.WithSink(lossy),
		ledger.WithAccountOptions(account.Options{InitialBalance: initial}),
	)
	require.NoError(t, err)
	_, err = e.RegisterPlayer(ctx, "alice", "Alice")
	require.NoError(t, err)
	_, err = e.RegisterAsset(ctx, "rpg", "coin", schema.NewBalance(1))
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		_, err = e.PurchaseAsset(ctx, "alice", "rpg", "coin", 1)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	_, err = Recover(ctx, RecoverConfig{JournalDir: dir})
	assert.ErrorIs(t, err, exception.ErrStoreCorrupt)
}

func TestRecoverRejectsGapAfterSnapshot(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	w, err := journal.NewWriter(journal.Config{Dir: dir})
	require.NoError(t, err)
	require.NoError(t, w.Start(ctx))
	for _, seq := range []uint64{1, 2, 5} {
		require.NoError(t, w.Emit(schema.NewEvent(seq, int64(seq), schema.PlayerCreated{Account: "a", Name: "A", Balance: initial})))
	}
	require.NoError(t, w.Close())

	path := filepath.Join(t.TempDir(), "snap.json")
	require.NoError(t, WriteSnapshot(path, Snapshot{LastSeq: 3}))
	_, err = Recover(ctx, RecoverConfig{JournalDir: dir, SnapshotPath: path})
	assert.ErrorIs(t, err, exception.ErrStoreCorrupt)

	require.NoError(t, WriteSnapshot(path, Snapshot{LastSeq: 4}))
	res, err := Recover(ctx, RecoverConfig{JournalDir: dir, SnapshotPath: path})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Replayed)
	assert.Equal(t, uint64(5), res.LastSeq)
}

func TestRecoverRejectsInvalidSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snap.json")
	require.NoError(t, WriteSnapshot(path, Snapshot{
		LastSeq:  1,
		Accounts: []schema.Account{{Principal: "a", Balance: initial, Inventory: schema.Inventory{"x": 0}}},
	}))
	_, err := Recover(context.Background(), RecoverConfig{JournalDir: t.TempDir(), SnapshotPath: path})
	assert.ErrorIs(t, err, exception.ErrStoreCorrupt)
}

func TestReplayUsesRecordedGrant(t *testing.T) {
	r := NewReducer()
	require.NoError(t, r.Apply(schema.NewEvent(1, 1, schema.PlayerCreated{Account: "a", Name: "A", Balance: schema.NewBalance(100)})))
	require.NoError(t, r.Apply(schema.NewEvent(2, 2, schema.PlayerCreated{Account: "b", Name: "B", Balance: schema.NewBalance(250)})))

	a, ok := r.Account("a")
	require.True(t, ok)
	assert.Equal(t, schema.NewBalance(100), a.Balance)
	b, ok := r.Account("b")
	require.True(t, ok)
	assert.Equal(t, schema.NewBalance(250), b.Balance)
}

func TestRecoverRequiresDir(t *testing.T) {
	_, err := Recover(context.Background(), RecoverConfig{})
	assert.ErrorIs(t, err, exception.ErrInvalidArgument)
	assert.ErrorIs(t, Restore(context.Background(), nil, NewReducer()), exception.ErrNilStore)
}
