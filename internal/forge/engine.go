package forge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"
)

const (
	DefaultPointsPerHour    uint64 = 40
	DefaultProbabilityTotal uint64 = 100
	DefaultMintExpiry              = 24 * time.Hour
	CheckinInterval                = 24 * time.Hour
)

// Custody is the collection whose items are staked. The engine moves items as the vault operator,
// so owners must approve the vault before staking.
type Custody interface {
	OwnerOf(ctx context.Context, id uint64) (Address, error)
	SafeTransferFrom(ctx context.Context, operator, from, to Address, id uint64) error
}

type LoyaltyBalances interface {
	BalanceOf(ctx context.Context, owner Address) (uint64, error)
}

// Minter realizes a finalized request on the reward collection.
type Minter interface {
	Mint(ctx context.Context, contract, to Address, id uint64, uri string) error
}

// Oracle registers randomness requests. Delivery happens later through DeliverRandomness,
// called by Address(). RequestRandomness must not call back into the engine synchronously.
type Oracle interface {
	Address() Address
	Fee(ctx context.Context, provider Address) (uint64, error)
	RequestRandomness(ctx context.Context, provider Address, fee uint64) (uint64, error)
}

type Config struct {
	Owner            Address
	Vault            Address
	Provider         Address
	RewardContract   Address
	PointsPerHour    uint64
	ProbabilityTotal uint64
	MintExpiry       time.Duration
	Now              func() time.Time
}

type Deps struct {
	Custody Custody
	Loyalty LoyaltyBalances
	Rewards Minter
	Oracle  Oracle
	Sink    Sink
}

// Engine is the single serialized ledger behind staking, accrual and mint requests.
type Engine struct {
	mu sync.Mutex

	owner   Address
	vault   Address
	custody Custody
	loyalty LoyaltyBalances
	rewards Minter
	oracle  Oracle
	sinks   Sinks
	now     func() time.Time

	st          *State
	stakerIndex map[Address]struct{}
}

func New(cfg Config, deps Deps) (*Engine, error) {
	if cfg.Owner.IsZero() || cfg.Vault.IsZero() {
		return nil, fmt.Errorf("%w: owner and vault are required", ErrInvalidAddress)
	}
	if deps.Custody == nil || deps.Rewards == nil || deps.Oracle == nil {
		return nil, fmt.Errorf("%w: custody, rewards and oracle are required", ErrInvalidConfig)
	}
	if cfg.PointsPerHour == 0 {
		cfg.PointsPerHour = DefaultPointsPerHour
	}
	if cfg.ProbabilityTotal == 0 {
		cfg.ProbabilityTotal = DefaultProbabilityTotal
	}
	if cfg.ProbabilityTotal != 100 && cfg.ProbabilityTotal != 10000 {
		return nil, fmt.Errorf("%w: probability total must be 100 or 10000", ErrInvalidConfig)
	}
	if cfg.MintExpiry <= 0 {
		cfg.MintExpiry = DefaultMintExpiry
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	e := &Engine{
		owner:   cfg.Owner,
		vault:   cfg.Vault,
		custody: deps.Custody,
		loyalty: deps.Loyalty,
		rewards: deps.Rewards,
		oracle:  deps.Oracle,
		now:     cfg.Now,
		st: newState(Settings{
			PointsPerHour:     cfg.PointsPerHour,
			PointsPerDay:      cfg.PointsPerHour * 24,
			Provider:          cfg.Provider,
			RewardContract:    cfg.RewardContract,
			MintExpirySeconds: int64(cfg.MintExpiry / time.Second),
			ProbabilityTotal:  cfg.ProbabilityTotal,
		}),
		stakerIndex: make(map[Address]struct{}),
	}
	if deps.Sink != nil {
		e.sinks = Sinks{deps.Sink}
	}
	return e, nil
}

// AddSink registers another event consumer. Call it before serving traffic.
func (e *Engine) AddSink(s Sink) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sinks = append(e.sinks, s)
}

func (e *Engine) Owner() Address { return e.owner }

func (e *Engine) Vault() Address { return e.vault }

// OnReceived guards safe transfers into the vault. Only transfers the engine performs itself are accepted.
func (e *Engine) OnReceived(_ context.Context, operator, _ Address, _ uint64) error {
	if operator != e.vault {
		return ErrDirectTransferNotAllowed
	}
	return nil
}

// Snapshot returns the JSON encoded state and the sequence of the last published event.
func (e *Engine) Snapshot() ([]byte, uint64, error) {
	return e.SnapshotWith(nil)
}

// SnapshotWith is Snapshot with also running while the engine is locked, so collaborators
// can capture their own state consistently with the ledger.
func (e *Engine) SnapshotWith(also func() error) ([]byte, uint64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if also != nil {
		if err := also(); err != nil {
			return nil, 0, err
		}
	}
	b, err := json.Marshal(e.st)
	if err != nil {
		return nil, 0, err
	}
	return b, e.st.EventSeq, nil
}

// Restore replaces the state with a snapshot. Owner and vault stay as configured.
func (e *Engine) Restore(data []byte) error {
	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return fmt.Errorf("decode snapshot: %w", err)
	}
	if st.Settings.ProbabilityTotal != 100 && st.Settings.ProbabilityTotal != 10000 {
		return errors.New("decode snapshot: invalid probability total")
	}
	if st.Accounts == nil {
		st.Accounts = make(map[Address]*Account)
	}
	if st.Stakes == nil {
		st.Stakes = make(map[uint64]StakeInfo)
	}
	if st.Requests == nil {
		st.Requests = make(map[uint64]*MintRequest)
	}
	index := make(map[Address]struct{}, len(st.Stakers))
	for _, a := range st.Stakers {
		index[a] = struct{}{}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.st = &st
	e.stakerIndex = index
	return nil
}

func (e *Engine) requireOwner(caller Address) error {
	if caller != e.owner {
		return ErrUnauthorizedAccount
	}
	return nil
}

func (e *Engine) batch() *eventBatch {
	return &eventBatch{at: e.now().UTC()}
}

// commit numbers the batch and hands it to the sinks. Callers hold e.mu.
func (e *Engine) commit(b *eventBatch) {
	if len(b.events) == 0 {
		return
	}
	for i := range b.events {
		e.st.EventSeq++
		b.events[i].Seq = e.st.EventSeq
	}
	e.sinks.Publish(b.events)
}

func (e *Engine) account(addr Address) *Account {
	acct, ok := e.st.Accounts[addr]
	if !ok {
		acct = &Account{}
		e.st.Accounts[addr] = acct
	}
	return acct
}

func (e *Engine) loyaltyUnits(ctx context.Context, addr Address) (uint64, error) {
	if e.loyalty == nil {
		return 0, nil
	}
	return e.loyalty.BalanceOf(ctx, addr)
}
