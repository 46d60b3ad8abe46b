// Package recorder journals engine events, mint request projections and state snapshots.
package recorder

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"dragon-forge/internal/forge"
	"dragon-forge/internal/store"
)

// Journal is the persistence the recorder writes to. *store.Store implements it.
type Journal interface {
	AppendEvents(ctx context.Context, events []store.Event) error
	UpsertMintRequest(ctx context.Context, r store.MintRequest) error
	SaveSnapshot(ctx context.Context, atSeq int64, stateBlob json.RawMessage) error
	PruneSnapshots(ctx context.Context, keep int) (int64, error)
}

// Source supplies the current view of a mint request.
type Source interface {
	MintRequest(seq uint64) (forge.MintRequest, error)
}

// Snapshotter produces a consistent state blob and the event sequence it covers.
type Snapshotter interface {
	Snapshot() ([]byte, uint64, error)
}

type Config struct {
	Buffer        int
	SnapshotEvery int
	KeepSnapshots int
	WriteTimeout  time.Duration
}

// Recorder is a forge.Sink. Publish only enqueues; a single worker persists batches in order.
type Recorder struct {
	cfg     Config
	journal Journal
	source  Source
	snap    Snapshotter

	ch   chan []forge.Event
	done chan struct{}

	mu            sync.Mutex
	started       bool
	sinceSnapshot int
}

func New(cfg Config, journal Journal, source Source, snap Snapshotter) *Recorder {
	if cfg.Buffer <= 0 {
		cfg.Buffer = 1024
	}
	if cfg.SnapshotEvery <= 0 {
		cfg.SnapshotEvery = 500
	}
	if cfg.KeepSnapshots <= 0 {
		cfg.KeepSnapshots = 3
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 5 * time.Second
	}
	return &Recorder{
		cfg:     cfg,
		journal: journal,
		source:  source,
		snap:    snap,
		ch:      make(chan []forge.Event, cfg.Buffer),
		done:    make(chan struct{}),
	}
}

// Publish hands a committed batch to the worker. A full queue drops the batch; the next
// snapshot still carries its effects.
func (r *Recorder) Publish(events []forge.Event) {
	if len(events) == 0 {
		return
	}
	batch := append([]forge.Event(nil), events...)
	select {
	case <-r.done:
		metricEventsDroppedTotal.Add(int64(len(batch)))
		return
	default:
	}
	select {
	case r.ch <- batch:
		metricEventsQueuedTotal.Add(int64(len(batch)))
		metricRecorderQueueLen.Set(int64(len(r.ch)))
	default:
		metricEventsDroppedTotal.Add(int64(len(batch)))
		log.Warn().Int("events", len(batch)).Uint64("first_seq", batch[0].Seq).Msg("forge_recorder_queue_full")
	}
}

// Run persists batches until ctx ends, then drains what is queued and writes a final snapshot.
func (r *Recorder) Run(ctx context.Context) error {
	r.mu.Lock()
	if r.started {
		r.mu.Unlock()
		return nil
	}
	r.started = true
	r.mu.Unlock()

	for {
		select {
		case <-ctx.Done():
			close(r.done)
			r.drain()
			r.snapshot(context.Background())
			return nil
		case batch := <-r.ch:
			metricRecorderQueueLen.Set(int64(len(r.ch)))
			r.write(ctx, batch)
		}
	}
}

func (r *Recorder) drain() {
	for {
		select {
		case batch := <-r.ch:
			r.write(context.Background(), batch)
		default:
			return
		}
	}
}

func (r *Recorder) write(parent context.Context, batch []forge.Event) {
	ctx, cancel := context.WithTimeout(parent, r.cfg.WriteTimeout)
	defer cancel()

	rows := make([]store.Event, 0, len(batch))
	for _, ev := range batch {
		rows = append(rows, toStoreEvent(ev))
	}
	if err := r.journal.AppendEvents(ctx, rows); err != nil {
		metricWriteErrorsTotal.Add(1)
		log.Error().Err(err).Uint64("first_seq", batch[0].Seq).Int("events", len(batch)).Msg("forge_recorder_append_failed")
	} else {
		metricEventsWrittenTotal.Add(int64(len(rows)))
	}

	for _, seq := range requestSequences(batch) {
		req, err := r.source.MintRequest(seq)
		if err != nil {
			continue
		}
		if err := r.journal.UpsertMintRequest(ctx, toStoreRequest(req)); err != nil {
			metricWriteErrorsTotal.Add(1)
			log.Error().Err(err).Uint64("sequence_number", seq).Msg("forge_recorder_project_failed")
			continue
		}
		metricRequestsProjectedTotal.Add(1)
	}

	r.sinceSnapshot += len(batch)
	if r.sinceSnapshot >= r.cfg.SnapshotEvery {
		r.snapshot(parent)
	}
}

func (r *Recorder) snapshot(parent context.Context) {
	if r.snap == nil || r.sinceSnapshot == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(parent, r.cfg.WriteTimeout)
	defer cancel()
	blob, seq, err := r.snap.Snapshot()
	if err == nil {
		err = r.journal.SaveSnapshot(ctx, int64(seq), blob)
	}
	if err != nil {
		metricSnapshotErrorsTotal.Add(1)
		log.Error().Err(err).Msg("forge_recorder_snapshot_failed")
		return
	}
	r.sinceSnapshot = 0
	metricSnapshotsTotal.Add(1)
	if _, err := r.journal.PruneSnapshots(ctx, r.cfg.KeepSnapshots); err != nil {
		log.Warn().Err(err).Msg("forge_recorder_prune_failed")
	}
	log.Debug().Uint64("at_seq", seq).Msg("forge_recorder_snapshot_saved")
}

// requestSequences lists, once each and in order, the requests touched by a batch.
func requestSequences(batch []forge.Event) []uint64 {
	var out []uint64
	seen := make(map[uint64]struct{})
	for _, ev := range batch {
		switch ev.Type {
		case forge.EventMintRequested, forge.EventRandomnessDelivered, forge.EventTokenMinted, forge.EventMintFailed:
		default:
			continue
		}
		if _, ok := seen[ev.SequenceNumber]; ok {
			continue
		}
		seen[ev.SequenceNumber] = struct{}{}
		out = append(out, ev.SequenceNumber)
	}
	return out
}

func toStoreEvent(ev forge.Event) store.Event {
	payload, err := json.Marshal(ev)
	if err != nil {
		payload = []byte(`{}`)
	}
	out := store.Event{
		GlobalSeq:  int64(ev.Seq),
		Type:       string(ev.Type),
		Value:      int64(ev.Value),
		Payload:    payload,
		OccurredAt: ev.At,
	}
	if !ev.Account.IsZero() {
		out.Account = ev.Account.String()
	}
	if ev.TokenID != 0 {
		id := int64(ev.TokenID)
		out.TokenID = &id
	}
	if ev.SequenceNumber != 0 {
		seq := int64(ev.SequenceNumber)
		out.SequenceNumber = &seq
	}
	return out
}

func toStoreRequest(req forge.MintRequest) store.MintRequest {
	out := store.MintRequest{
		SequenceNumber: int64(req.SequenceNumber),
		Requester:      req.Requester.String(),
		Tier:           req.Tier,
		PointsCharged:  int64(req.PointsCharged),
		State:          string(req.State()),
		URI:            req.URI,
		RequestedAt:    time.Unix(req.CreatedAt, 0).UTC(),
	}
	if req.Completed {
		level := req.Level
		out.RarityLevel = &level
		id := int64(req.TokenID)
		out.TokenID = &id
	}
	return out
}
