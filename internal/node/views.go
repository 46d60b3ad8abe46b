package node

import "dragon-forge/internal/forge"

// RequestView is the outward shape of a mint request. Level, token and URI appear once completed.
type RequestView struct {
	SequenceNumber uint64             `json:"sequence_number"`
	Requester      forge.Address      `json:"requester"`
	Tier           int                `json:"tier"`
	PointsCharged  uint64             `json:"points_charged"`
	State          forge.RequestState `json:"state"`
	CreatedAt      int64              `json:"created_at"`
	Level          *int               `json:"level,omitempty"`
	TokenID        *uint64            `json:"token_id,omitempty"`
	URI            string             `json:"uri,omitempty"`
}

func NewRequestView(r forge.MintRequest) RequestView {
	out := RequestView{
		SequenceNumber: r.SequenceNumber,
		Requester:      r.Requester,
		Tier:           r.Tier,
		PointsCharged:  r.PointsCharged,
		State:          r.State(),
		CreatedAt:      r.CreatedAt,
	}
	if r.Completed {
		level, id := r.Level, r.TokenID
		out.Level = &level
		out.TokenID = &id
		out.URI = r.URI
	}
	return out
}

func RequestViews(reqs []forge.MintRequest) []RequestView {
	out := make([]RequestView, 0, len(reqs))
	for _, r := range reqs {
		out = append(out, NewRequestView(r))
	}
	return out
}

type RewardsView struct {
	Account     forge.Address `json:"account"`
	Pending     uint64        `json:"pending"`
	Owed        uint64        `json:"owed"`
	HasStaked   bool          `json:"has_staked"`
	Staked      []uint64      `json:"staked"`
	LastCheckin int64         `json:"last_checkin"`
}

func (n *Node) RewardsOf(account forge.Address) RewardsView {
	eng := n.Engine
	return RewardsView{
		Account:     account,
		Pending:     eng.PendingRewards(account),
		Owed:        eng.OwedRewards(account),
		HasStaked:   eng.HasStaked(account),
		Staked:      eng.StakedTokensOf(account),
		LastCheckin: eng.LastCheckin(account),
	}
}

type StakedToken struct {
	TokenID uint64 `json:"token_id"`
	Since   int64  `json:"since"`
}

func (n *Node) StakedTokens(account forge.Address) []StakedToken {
	ids := n.Engine.StakedTokensOf(account)
	out := make([]StakedToken, 0, len(ids))
	for _, id := range ids {
		out = append(out, StakedToken{TokenID: id, Since: n.Engine.StakedTokenProps(id).Since})
	}
	return out
}
