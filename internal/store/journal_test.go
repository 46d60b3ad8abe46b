package store

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestEventJournalRoundtrip(t *testing.T) {
	st, ctx := openStore(t)
	if err := st.Ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}

	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	events := []Event{
		{GlobalSeq: 1, Type: "Staked", Account: "0xabc", TokenID: int64Ptr(4), Payload: json.RawMessage(`{"token_id":4}`), OccurredAt: at},
		{GlobalSeq: 2, Type: "MintRequested", Account: "0xabc", SequenceNumber: int64Ptr(1), Value: 1000, Payload: json.RawMessage(`{}`), OccurredAt: at},
		{GlobalSeq: 3, Type: "StakingModeUpdated", Payload: json.RawMessage(`{"enabled":true}`), OccurredAt: at},
	}
	if err := st.AppendEvents(ctx, events); err != nil {
		t.Fatalf("append: %v", err)
	}
	// replays are ignored
	if err := st.AppendEvents(ctx, events[:1]); err != nil {
		t.Fatalf("append replay: %v", err)
	}

	all, err := st.ListEvents(ctx, EventFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 3 || all[0].GlobalSeq != 1 || all[2].Account != "" {
		t.Fatalf("events = %+v", all)
	}
	if all[0].TokenID == nil || *all[0].TokenID != 4 {
		t.Fatalf("token id = %v", all[0].TokenID)
	}

	mine, err := st.ListEvents(ctx, EventFilter{FromSeq: 1, Account: "0xabc"})
	if err != nil {
		t.Fatalf("list by account: %v", err)
	}
	if len(mine) != 1 || mine[0].Type != "MintRequested" || mine[0].Value != 1000 {
		t.Fatalf("account events = %+v", mine)
	}
	typed, err := st.ListEvents(ctx, EventFilter{Type: "StakingModeUpdated"})
	if err != nil || len(typed) != 1 {
		t.Fatalf("typed events = %+v, %v", typed, err)
	}

	last, err := st.LastEventSeq(ctx)
	if err != nil || last != 3 {
		t.Fatalf("last seq = %d, %v", last, err)
	}
}

func TestSnapshots(t *testing.T) {
	st, ctx := openStore(t)

	if _, err := st.LatestSnapshot(ctx); !errors.Is(err, ErrNotFound) {
		t.Fatalf("empty: got %v", err)
	}
	for seq := int64(10); seq <= 30; seq += 10 {
		if err := st.SaveSnapshot(ctx, seq, json.RawMessage(`{"event_seq":1}`)); err != nil {
			t.Fatalf("save %d: %v", seq, err)
		}
	}
	snap, err := st.LatestSnapshot(ctx)
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if snap.AtSeq != 30 {
		t.Fatalf("latest at_seq = %d, want 30", snap.AtSeq)
	}
	removed, err := st.PruneSnapshots(ctx, 2)
	if err != nil || removed != 1 {
		t.Fatalf("prune = %d, %v", removed, err)
	}
}

func TestMintRequestProjection(t *testing.T) {
	st, ctx := openStore(t)

	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	req := MintRequest{SequenceNumber: 1, Requester: "0xabc", Tier: 0, PointsCharged: 1000, State: "pending", RequestedAt: at}
	if err := st.UpsertMintRequest(ctx, req); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := st.UpsertMintRequest(ctx, MintRequest{SequenceNumber: 2, Requester: "0xdef", Tier: 1, PointsCharged: 2000, State: "pending", RequestedAt: at}); err != nil {
		t.Fatalf("insert second: %v", err)
	}
	level := 4
	req.State = "completed"
	req.RarityLevel = &level
	req.TokenID = int64Ptr(1)
	req.URI = "ar://mega/1.json"
	if err := st.UpsertMintRequest(ctx, req); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := st.GetMintRequest(ctx, 1)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.State != "completed" || got.URI != "ar://mega/1.json" || got.RarityLevel == nil || *got.RarityLevel != 4 {
		t.Fatalf("request = %+v", got)
	}
	if _, err := st.GetMintRequest(ctx, 99); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing: got %v", err)
	}

	pending, err := st.ListMintRequests(ctx, MintRequestFilter{State: "pending"})
	if err != nil || len(pending) != 1 || pending[0].Requester != "0xdef" {
		t.Fatalf("pending = %+v, %v", pending, err)
	}
	mine, err := st.ListMintRequests(ctx, MintRequestFilter{Requester: "0xabc"})
	if err != nil || len(mine) != 1 || mine[0].TokenID == nil {
		t.Fatalf("by requester = %+v, %v", mine, err)
	}
}

func TestFindMigrationWalksUp(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "migrations"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	want := filepath.Join(root, "migrations", InitMigration)
	if err := os.WriteFile(want, []byte("SELECT 1;"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("mkdir nested: %v", err)
	}
	got, err := FindMigration(nested, InitMigration)
	if err != nil || got != want {
		t.Fatalf("found %q, %v; want %q", got, err, want)
	}
	if _, err := FindMigration(nested, "absent.sql"); err == nil {
		t.Fatalf("expected error for absent migration")
	}
}

func TestClampLimit(t *testing.T) {
	if got := clampLimit(0, 50, 500); got != 50 {
		t.Fatalf("default = %d", got)
	}
	if got := clampLimit(900, 50, 500); got != 500 {
		t.Fatalf("max = %d", got)
	}
	if got := clampLimit(20, 50, 500); got != 20 {
		t.Fatalf("passthrough = %d", got)
	}
}
