package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"assetverse/internal/schema"
)

// Snapshot captures accounts and catalog at a point in time.
type Snapshot struct {
	Timestamp   int64             `json:"timestamp"`
	LastSeq     uint64            `json:"lastSeq"`
	LastEventTs int64             `json:"lastEventTs"`
	Accounts    []schema.Account  `json:"accounts"`
	Assets      []schema.AssetDef `json:"assets"`
}

// Snapshot builds a snapshot from the current state.
func (r *Reducer) Snapshot() Snapshot {
	return r.SnapshotWithMeta(0, 0)
}

// SnapshotWithMeta builds a snapshot with event metadata.
func (r *Reducer) SnapshotWithMeta(lastSeq uint64, lastEventTs int64) Snapshot {
	return Snapshot{
		Timestamp:   time.Now().UTC().UnixNano(),
		LastSeq:     lastSeq,
		LastEventTs: lastEventTs,
		Accounts:    r.Accounts(),
		Assets:      r.Assets(),
	}
}

// WriteSnapshot writes a snapshot to disk as JSON.
func WriteSnapshot(path string, snapshot Snapshot) error {
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadSnapshot loads a snapshot from disk.
func ReadSnapshot(path string) (Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Snapshot{}, err
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

// CompareSnapshots checks that two snapshots hold the same accounts and
// catalog. Timestamps and sequence metadata are ignored.
func CompareSnapshots(expected, actual Snapshot) error {
	if len(expected.Accounts) != len(actual.Accounts) {
		return fmt.Errorf("snapshot account count mismatch: expected=%d actual=%d", len(expected.Accounts), len(actual.Accounts))
	}
	expectedMap := make(map[schema.Principal]schema.Account, len(expected.Accounts))
	for _, acc := range expected.Accounts {
		expectedMap[acc.Principal] = acc
	}
	for _, acc := range actual.Accounts {
		want, ok := expectedMap[acc.Principal]
		if !ok {
			return fmt.Errorf("snapshot missing account: %s", acc.Principal)
		}
		if want.Balance.Cmp(acc.Balance) != 0 {
			return fmt.Errorf("snapshot balance mismatch: account=%s expected=%s actual=%s", acc.Principal, want.Balance, acc.Balance)
		}
		if len(want.Inventory) != len(acc.Inventory) {
			return fmt.Errorf("snapshot inventory size mismatch: account=%s expected=%d actual=%d", acc.Principal, len(want.Inventory), len(acc.Inventory))
		}
		for id, qty := range acc.Inventory {
			if want.Inventory[id] != qty {
				return fmt.Errorf("snapshot qty mismatch: account=%s asset=%s expected=%d actual=%d", acc.Principal, id, want.Inventory[id], qty)
			}
		}
	}

	if len(expected.Assets) != len(actual.Assets) {
		return fmt.Errorf("snapshot catalog size mismatch: expected=%d actual=%d", len(expected.Assets), len(actual.Assets))
	}
	for i := range expected.Assets {
		if expected.Assets[i] != actual.Assets[i] {
			return fmt.Errorf("snapshot catalog mismatch at %d: expected=%s/%s actual=%s/%s",
				i, expected.Assets[i].Game, expected.Assets[i].Asset, actual.Assets[i].Game, actual.Assets[i].Asset)
		}
	}
	return nil
}
