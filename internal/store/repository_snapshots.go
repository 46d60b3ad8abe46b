package store

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5/pgtype"
)

func (s *Store) SaveSnapshot(ctx context.Context, atSeq int64, stateBlob json.RawMessage) error {
	_, err := s.Pool.Exec(ctx, `INSERT INTO forge_snapshots (id, at_seq, state_blob) VALUES ($1,$2,$3)`,
		NewID(), atSeq, stateBlob)
	return err
}

// LatestSnapshot returns the snapshot with the highest sequence, or ErrNotFound.
func (s *Store) LatestSnapshot(ctx context.Context) (*Snapshot, error) {
	var (
		snap      Snapshot
		createdAt pgtype.Timestamptz
	)
	err := s.Pool.QueryRow(ctx, `SELECT id, at_seq, state_blob, created_at
		FROM forge_snapshots
		ORDER BY at_seq DESC, id DESC
		LIMIT 1`).Scan(&snap.ID, &snap.AtSeq, &snap.StateBlob, &createdAt)
	if err != nil {
		return nil, mapNotFound(err)
	}
	snap.CreatedAt = createdAt.Time
	return &snap, nil
}

// PruneSnapshots keeps the newest keep snapshots and deletes the rest.
func (s *Store) PruneSnapshots(ctx context.Context, keep int) (int64, error) {
	if keep < 1 {
		keep = 1
	}
	tag, err := s.Pool.Exec(ctx, `DELETE FROM forge_snapshots
		WHERE id NOT IN (
			SELECT id FROM forge_snapshots ORDER BY at_seq DESC, id DESC LIMIT $1
		)`, keep)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
