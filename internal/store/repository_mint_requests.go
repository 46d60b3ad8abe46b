package store

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const mintRequestColumns = `sequence_number, requester, tier, points_charged, state, rarity_level, token_id, uri, requested_at, updated_at`

// UpsertMintRequest writes the latest projection of a request.
func (s *Store) UpsertMintRequest(ctx context.Context, r MintRequest) error {
	_, err := s.Pool.Exec(ctx, `INSERT INTO mint_requests
		(sequence_number, requester, tier, points_charged, state, rarity_level, token_id, uri, requested_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9, now())
		ON CONFLICT (sequence_number) DO UPDATE SET
			state = EXCLUDED.state,
			rarity_level = EXCLUDED.rarity_level,
			token_id = EXCLUDED.token_id,
			uri = EXCLUDED.uri,
			updated_at = now()`,
		r.SequenceNumber,
		r.Requester,
		r.Tier,
		r.PointsCharged,
		r.State,
		intPtrParam(r.RarityLevel),
		int8PtrParam(r.TokenID),
		textParam(r.URI),
		timestamptzParam(r.RequestedAt),
	)
	return err
}

func (s *Store) GetMintRequest(ctx context.Context, seq int64) (*MintRequest, error) {
	row := s.Pool.QueryRow(ctx, `SELECT `+mintRequestColumns+` FROM mint_requests WHERE sequence_number = $1`, seq)
	r, err := scanMintRequest(row)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return r, nil
}

func (s *Store) ListMintRequests(ctx context.Context, f MintRequestFilter) ([]MintRequest, error) {
	rows, err := s.Pool.Query(ctx, `SELECT `+mintRequestColumns+`
		FROM mint_requests
		WHERE ($1::text IS NULL OR requester = $1)
		  AND ($2::text IS NULL OR state = $2)
		ORDER BY sequence_number ASC
		LIMIT $3 OFFSET $4`,
		textParam(f.Requester), textParam(f.State), clampLimit(f.Limit, 50, 500), max(f.Offset, 0))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []MintRequest{}
	for rows.Next() {
		r, err := scanMintRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

func scanMintRequest(row pgx.Row) (*MintRequest, error) {
	var (
		r           MintRequest
		level       pgtype.Int4
		tokenID     pgtype.Int8
		uri         pgtype.Text
		requestedAt pgtype.Timestamptz
		updatedAt   pgtype.Timestamptz
	)
	if err := row.Scan(&r.SequenceNumber, &r.Requester, &r.Tier, &r.PointsCharged, &r.State, &level, &tokenID, &uri, &requestedAt, &updatedAt); err != nil {
		return nil, err
	}
	r.RarityLevel = intPtrVal(level)
	r.TokenID = int64PtrVal(tokenID)
	r.URI = textVal(uri)
	r.RequestedAt = requestedAt.Time
	r.UpdatedAt = updatedAt.Time
	return &r, nil
}
