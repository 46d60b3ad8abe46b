package recorder

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"dragon-forge/internal/forge"
	"dragon-forge/internal/store"
)

var player = forge.MustAddress("0x0000000000000000000000000000000000000001")

type fakeJournal struct {
	mu        sync.Mutex
	events    []store.Event
	requests  []store.MintRequest
	snapshots []int64
	prunes    int
	appendErr error
}

func (j *fakeJournal) AppendEvents(_ context.Context, events []store.Event) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.appendErr != nil {
		return j.appendErr
	}
	j.events = append(j.events, events...)
	return nil
}

func (j *fakeJournal) UpsertMintRequest(_ context.Context, r store.MintRequest) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.requests = append(j.requests, r)
	return nil
}

func (j *fakeJournal) SaveSnapshot(_ context.Context, atSeq int64, _ json.RawMessage) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.snapshots = append(j.snapshots, atSeq)
	return nil
}

func (j *fakeJournal) PruneSnapshots(_ context.Context, _ int) (int64, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.prunes++
	return 0, nil
}

type fakeSource struct {
	reqs map[uint64]forge.MintRequest
	seq  uint64
}

func (s *fakeSource) MintRequest(seq uint64) (forge.MintRequest, error) {
	req, ok := s.reqs[seq]
	if !ok {
		return forge.MintRequest{}, forge.ErrRequestNotFound
	}
	return req, nil
}

func (s *fakeSource) Snapshot() ([]byte, uint64, error) {
	return []byte(`{}`), s.seq, nil
}

func runCancelled(t *testing.T, r *Recorder) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("recorder did not stop")
	}
}

func TestRecorderJournalsEventsAndProjectsRequests(t *testing.T) {
	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	src := &fakeSource{seq: 3, reqs: map[uint64]forge.MintRequest{
		7: {SequenceNumber: 7, Requester: player, Tier: 1, PointsCharged: 2000, CreatedAt: at.Unix(),
			RandomnessDelivered: true, Completed: true, Level: 4, TokenID: 1, URI: "ar://mega/1.json"},
	}}
	j := &fakeJournal{}
	r := New(Config{SnapshotEvery: 100}, j, src, src)

	r.Publish([]forge.Event{{Seq: 1, Type: forge.EventMintRequested, Account: player, SequenceNumber: 7, Value: 2000, At: at}})
	r.Publish([]forge.Event{
		{Seq: 2, Type: forge.EventRandomnessDelivered, SequenceNumber: 7, At: at},
		{Seq: 3, Type: forge.EventTokenMinted, Account: player, TokenID: 1, SequenceNumber: 7, URI: "ar://mega/1.json", At: at},
	})
	r.Publish(nil)
	runCancelled(t, r)

	if len(j.events) != 3 {
		t.Fatalf("journaled %d events, want 3", len(j.events))
	}
	for i, ev := range j.events {
		if ev.GlobalSeq != int64(i+1) {
			t.Fatalf("event %d seq = %d", i, ev.GlobalSeq)
		}
	}
	if j.events[0].Account != player.String() || j.events[0].Value != 2000 || *j.events[0].SequenceNumber != 7 {
		t.Fatalf("first event = %+v", j.events[0])
	}
	if j.events[1].Account != "" || j.events[1].TokenID != nil {
		t.Fatalf("delivery event = %+v", j.events[1])
	}
	if *j.events[2].TokenID != 1 {
		t.Fatalf("minted token = %v", j.events[2].TokenID)
	}
	var payload forge.Event
	if err := json.Unmarshal(j.events[2].Payload, &payload); err != nil || payload.URI != "ar://mega/1.json" {
		t.Fatalf("payload = %s, %v", j.events[2].Payload, err)
	}

	if len(j.requests) != 2 {
		t.Fatalf("projected %d times, want once per batch", len(j.requests))
	}
	last := j.requests[1]
	if last.State != "completed" || last.RarityLevel == nil || *last.RarityLevel != 4 || last.TokenID == nil || *last.TokenID != 1 {
		t.Fatalf("projection = %+v", last)
	}
	if len(j.snapshots) != 1 || j.snapshots[0] != 3 || j.prunes != 1 {
		t.Fatalf("snapshots = %v prunes = %d", j.snapshots, j.prunes)
	}
}

func TestRecorderSnapshotsEveryN(t *testing.T) {
	src := &fakeSource{seq: 9}
	j := &fakeJournal{}
	r := New(Config{SnapshotEvery: 2}, j, src, src)
	for seq := uint64(1); seq <= 3; seq++ {
		r.Publish([]forge.Event{{Seq: seq, Type: forge.EventStakingModeUpdated, Enabled: true}})
	}
	runCancelled(t, r)
	if len(j.snapshots) != 2 {
		t.Fatalf("snapshots = %v, want periodic plus shutdown", j.snapshots)
	}
}

func TestRecorderDropsWhenQueueFull(t *testing.T) {
	src := &fakeSource{}
	j := &fakeJournal{}
	r := New(Config{Buffer: 1}, j, src, nil)
	r.Publish([]forge.Event{{Seq: 1, Type: forge.EventStaked, Account: player, TokenID: 3}})
	r.Publish([]forge.Event{{Seq: 2, Type: forge.EventStaked, Account: player, TokenID: 4}})
	runCancelled(t, r)
	if len(j.events) != 1 || j.events[0].GlobalSeq != 1 {
		t.Fatalf("events = %+v", j.events)
	}
	if len(j.snapshots) != 0 {
		t.Fatalf("snapshot without snapshotter: %v", j.snapshots)
	}

	r.Publish([]forge.Event{{Seq: 3, Type: forge.EventStaked}})
	if len(r.ch) != 0 {
		t.Fatalf("publish after stop was queued")
	}
}

func TestRecorderKeepsGoingAfterAppendError(t *testing.T) {
	src := &fakeSource{seq: 1, reqs: map[uint64]forge.MintRequest{
		1: {SequenceNumber: 1, Requester: player, PointsCharged: 1000},
	}}
	j := &fakeJournal{appendErr: errors.New("db down")}
	r := New(Config{}, j, src, nil)
	r.Publish([]forge.Event{{Seq: 1, Type: forge.EventMintRequested, Account: player, SequenceNumber: 1}})
	runCancelled(t, r)
	if len(j.requests) != 1 || j.requests[0].State != "pending" || j.requests[0].RarityLevel != nil {
		t.Fatalf("projection = %+v", j.requests)
	}
}
