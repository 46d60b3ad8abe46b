package forge

import "time"

// Tier is a priced roll option with one weight per rarity level.
type Tier struct {
	Price         uint64   `json:"price" yaml:"price"`
	Probabilities []uint64 `json:"probabilities" yaml:"probabilities"`
}

// RarityLevel is a finite pool of mintable outcomes sharing a URI prefix.
type RarityLevel struct {
	Minted    uint64 `json:"minted" yaml:"minted"`
	MaxSupply uint64 `json:"max_supply" yaml:"max_supply"`
	URIPrefix string `json:"uri_prefix" yaml:"uri_prefix"`
}

func (l RarityLevel) Remaining() uint64 {
	if l.Minted >= l.MaxSupply {
		return 0
	}
	return l.MaxSupply - l.Minted
}

type RequestState string

const (
	RequestPending   RequestState = "pending"
	RequestDelivered RequestState = "delivered"
	RequestCompleted RequestState = "completed"
	RequestCancelled RequestState = "cancelled"
)

// MintRequest spans the randomness request, its delivery and finalization.
type MintRequest struct {
	SequenceNumber      uint64     `json:"sequence_number"`
	Requester           Address    `json:"requester"`
	Tier                int        `json:"tier"`
	PointsCharged       uint64     `json:"points_charged"`
	CreatedAt           int64      `json:"created_at"`
	RandomnessDelivered bool       `json:"randomness_delivered"`
	Randomness          Randomness `json:"randomness"`
	Completed           bool       `json:"completed"`
	Cancelled           bool       `json:"cancelled"`
	Level               int        `json:"level"`
	TokenID             uint64     `json:"token_id"`
	URI                 string     `json:"uri"`
}

func (r MintRequest) State() RequestState {
	switch {
	case r.Completed:
		return RequestCompleted
	case r.Cancelled:
		return RequestCancelled
	case r.RandomnessDelivered:
		return RequestDelivered
	default:
		return RequestPending
	}
}

func (r MintRequest) Resolved() bool {
	return r.Completed || r.Cancelled
}

// StakeInfo is the custody record of a staked item. Since is a unix timestamp in seconds.
type StakeInfo struct {
	Owner Address `json:"owner"`
	Since int64   `json:"since"`
}

// Account holds the settled balance and the secondary indexes of one account.
type Account struct {
	Owed        uint64   `json:"owed"`
	Staked      []uint64 `json:"staked"`
	Requests    []uint64 `json:"requests"`
	LastCheckin int64    `json:"last_checkin"`
}

type Settings struct {
	StakingOpen       bool    `json:"staking_open"`
	MintingOpen       bool    `json:"minting_open"`
	PointsPerHour     uint64  `json:"points_per_hour"`
	PointsPerDay      uint64  `json:"points_per_day"`
	Provider          Address `json:"provider"`
	RewardContract    Address `json:"reward_contract"`
	DailyBonus        uint64  `json:"daily_bonus"`
	LoyaltyDailyBonus uint64  `json:"loyalty_daily_bonus"`
	LoyaltyDiscount   uint64  `json:"loyalty_discount"`
	MintExpirySeconds int64   `json:"mint_expiry_seconds"`
	ProbabilityTotal  uint64  `json:"probability_total"`
}

func (s Settings) MintExpiry() time.Duration {
	return time.Duration(s.MintExpirySeconds) * time.Second
}

// State is the complete engine state. Snapshot and Restore exchange it as JSON.
type State struct {
	Settings    Settings                `json:"settings"`
	Tiers       []Tier                  `json:"tiers"`
	Levels      []RarityLevel           `json:"levels"`
	Accounts    map[Address]*Account    `json:"accounts"`
	Stakes      map[uint64]StakeInfo    `json:"stakes"`
	Stakers     []Address               `json:"stakers"`
	Requests    map[uint64]*MintRequest `json:"requests"`
	MintedCount uint64                  `json:"minted_count"`
	EventSeq    uint64                  `json:"event_seq"`
}

func newState(settings Settings) *State {
	return &State{
		Settings: settings,
		Accounts: make(map[Address]*Account),
		Stakes:   make(map[uint64]StakeInfo),
		Requests: make(map[uint64]*MintRequest),
	}
}
