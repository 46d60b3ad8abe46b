package store

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const insertEventSQL = `INSERT INTO forge_events
	(id, global_seq, event_type, account, token_id, sequence_number, value, payload, occurred_at)
	VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	ON CONFLICT (global_seq) DO NOTHING`

// AppendEvents journals events in one transaction. Events already journaled are skipped.
func (s *Store) AppendEvents(ctx context.Context, events []Event) error {
	if len(events) == 0 {
		return nil
	}
	return pgx.BeginFunc(ctx, s.Pool, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, ev := range events {
			id := ev.ID
			if id == "" {
				id = NewID()
			}
			batch.Queue(insertEventSQL,
				id,
				ev.GlobalSeq,
				ev.Type,
				textParam(ev.Account),
				int8PtrParam(ev.TokenID),
				int8PtrParam(ev.SequenceNumber),
				ev.Value,
				ev.Payload,
				timestamptzParam(ev.OccurredAt),
			)
		}
		return tx.SendBatch(ctx, batch).Close()
	})
}

// ListEvents returns events with global_seq > FromSeq in order, optionally narrowed by account and type.
func (s *Store) ListEvents(ctx context.Context, f EventFilter) ([]Event, error) {
	rows, err := s.Pool.Query(ctx, `SELECT id, global_seq, event_type, account, token_id, sequence_number, value, payload, occurred_at, created_at
		FROM forge_events
		WHERE global_seq > $1
		  AND ($2::text IS NULL OR account = $2)
		  AND ($3::text IS NULL OR event_type = $3)
		ORDER BY global_seq ASC
		LIMIT $4`,
		f.FromSeq, textParam(f.Account), textParam(f.Type), clampLimit(f.Limit, 200, 1000))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Event{}
	for rows.Next() {
		var (
			ev         Event
			account    pgtype.Text
			tokenID    pgtype.Int8
			seqNum     pgtype.Int8
			occurredAt pgtype.Timestamptz
			createdAt  pgtype.Timestamptz
		)
		if err := rows.Scan(&ev.ID, &ev.GlobalSeq, &ev.Type, &account, &tokenID, &seqNum, &ev.Value, &ev.Payload, &occurredAt, &createdAt); err != nil {
			return nil, err
		}
		ev.Account = textVal(account)
		ev.TokenID = int64PtrVal(tokenID)
		ev.SequenceNumber = int64PtrVal(seqNum)
		ev.OccurredAt = occurredAt.Time
		ev.CreatedAt = createdAt.Time
		out = append(out, ev)
	}
	return out, rows.Err()
}

func (s *Store) LastEventSeq(ctx context.Context) (int64, error) {
	var seq int64
	err := s.Pool.QueryRow(ctx, `SELECT COALESCE(MAX(global_seq), 0) FROM forge_events`).Scan(&seq)
	return seq, err
}
