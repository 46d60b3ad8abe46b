package store

import (
	"encoding/json"
	"time"
)

// Event is one journaled engine event.
type Event struct {
	ID             string          `json:"id"`
	GlobalSeq      int64           `json:"global_seq"`
	Type           string          `json:"type"`
	Account        string          `json:"account,omitempty"`
	TokenID        *int64          `json:"token_id,omitempty"`
	SequenceNumber *int64          `json:"sequence_number,omitempty"`
	Value          int64           `json:"value"`
	Payload        json.RawMessage `json:"payload"`
	OccurredAt     time.Time       `json:"occurred_at"`
	CreatedAt      time.Time       `json:"created_at"`
}

type Snapshot struct {
	ID        string
	AtSeq     int64
	StateBlob json.RawMessage
	CreatedAt time.Time
}

// MintRequest is the queryable projection of an engine mint request.
type MintRequest struct {
	SequenceNumber int64     `json:"sequence_number"`
	Requester      string    `json:"requester"`
	Tier           int       `json:"tier"`
	PointsCharged  int64     `json:"points_charged"`
	State          string    `json:"state"`
	RarityLevel    *int      `json:"rarity_level,omitempty"`
	TokenID        *int64    `json:"token_id,omitempty"`
	URI            string    `json:"uri,omitempty"`
	RequestedAt    time.Time `json:"requested_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type EventFilter struct {
	FromSeq int64
	Account string
	Type    string
	Limit   int
}

type MintRequestFilter struct {
	Requester string
	State     string
	Limit     int
	Offset    int
}
