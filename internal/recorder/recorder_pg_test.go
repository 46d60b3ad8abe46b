package recorder

import (
	"context"
	"testing"
	"time"

	"dragon-forge/internal/forge"
	"dragon-forge/internal/store"
	"dragon-forge/internal/testutil"
)

func TestRecorderWritesToPostgres(t *testing.T) {
	st, err := store.Open(context.Background(), testutil.PostgresDSN(t), 2, true)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer st.Close()

	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	src := &fakeSource{seq: 2, reqs: map[uint64]forge.MintRequest{
		1: {SequenceNumber: 1, Requester: player, Tier: 0, PointsCharged: 1000, CreatedAt: at.Unix()},
	}}
	r := New(Config{SnapshotEvery: 100}, st, src, src)
	r.Publish([]forge.Event{
		{Seq: 1, Type: forge.EventStaked, Account: player, TokenID: 5, At: at},
		{Seq: 2, Type: forge.EventMintRequested, Account: player, SequenceNumber: 1, Value: 1000, At: at},
	})
	runCancelled(t, r)

	ctx := context.Background()
	events, err := st.ListEvents(ctx, store.EventFilter{Account: player.String()})
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	if len(events) != 2 || events[0].Type != string(forge.EventStaked) || events[1].GlobalSeq != 2 {
		t.Fatalf("events = %+v", events)
	}
	req, err := st.GetMintRequest(ctx, 1)
	if err != nil {
		t.Fatalf("get request: %v", err)
	}
	if req.State != "pending" || req.PointsCharged != 1000 || req.Requester != player.String() {
		t.Fatalf("request = %+v", req)
	}
	snap, err := st.LatestSnapshot(ctx)
	if err != nil {
		t.Fatalf("latest snapshot: %v", err)
	}
	if snap.AtSeq != 2 {
		t.Fatalf("snapshot at %d, want 2", snap.AtSeq)
	}
}
