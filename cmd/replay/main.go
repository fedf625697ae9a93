package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"assetverse/internal/state"
)

func main() {
	dir := flag.String("dir", "testdata/journal", "Journal directory")
	prefix := flag.String("prefix", "", "Journal file prefix (default: ledger)")
	snapshotIn := flag.String("snapshot", "", "Snapshot to resume from before replaying the tail")
	verify := flag.String("verify", "", "Snapshot to compare the replayed state against")
	writeSnapshot := flag.String("write-snapshot", "", "Write the replayed state to this path")
	noChecksum := flag.Bool("no-checksum", false, "Disable checksum validation")
	maxPayload := flag.Int("max-payload", 0, "Max payload size in bytes (0=unlimited)")
	flag.Parse()

	result, err := state.Recover(context.Background(), state.RecoverConfig{
		JournalDir:      *dir,
		SnapshotPath:    *snapshotIn,
		FilePrefix:      *prefix,
		DisableChecksum: *noChecksum,
		MaxPayloadSize:  *maxPayload,
	})
	if err != nil {
		log.Fatalf("replay failed: %v", err)
	}

	accounts := result.State.Accounts()
	fmt.Printf("replayed=%d last_seq=%d last_event_ts=%d accounts=%d assets=%d\n",
		result.Replayed, result.LastSeq, result.LastEventTs, len(accounts), len(result.State.Assets()))
	for _, acc := range accounts {
		fmt.Printf("  %s name=%q balance=%s holdings=%d\n", acc.Principal, acc.Name, acc.Balance, len(acc.Inventory))
		for _, asset := range acc.Inventory.Assets() {
			fmt.Printf("    %s=%d\n", asset, acc.Inventory[asset])
		}
	}

	snapshot := result.State.SnapshotWithMeta(result.LastSeq, result.LastEventTs)
	if *verify != "" {
		expected, err := state.ReadSnapshot(*verify)
		if err != nil {
			log.Fatalf("snapshot load failed: %v", err)
		}
		if err := state.CompareSnapshots(expected, snapshot); err != nil {
			log.Fatalf("snapshot mismatch: %v", err)
		}
		fmt.Println("snapshot verified")
	}
	if *writeSnapshot != "" {
		if err := state.WriteSnapshot(*writeSnapshot, snapshot); err != nil {
			log.Fatalf("snapshot write failed: %v", err)
		}
		fmt.Printf("snapshot written to %s\n", *writeSnapshot)
	}
}
