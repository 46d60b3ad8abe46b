package entropy

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"dragon-forge/internal/forge"
)

var (
	ErrUnknownSequence = errors.New("unknown_sequence_number")
	ErrNoCallback      = errors.New("callback_not_set")
)

// Callback delivers a value for seq on behalf of caller.
type Callback func(ctx context.Context, caller forge.Address, seq uint64, value forge.Randomness) error

// Mock is an in-process randomness oracle. Requests are numbered from 1 and delivered by Fire,
// either manually or by the auto-delivery loop.
type Mock struct {
	address forge.Address
	fee     uint64

	mu       sync.Mutex
	seq      uint64
	pending  map[uint64]forge.Address
	callback Callback
}

func NewMock(address forge.Address, fee uint64) *Mock {
	return &Mock{
		address: address,
		fee:     fee,
		pending: make(map[uint64]forge.Address),
	}
}

func (m *Mock) Address() forge.Address { return m.address }

func (m *Mock) Fee(_ context.Context, _ forge.Address) (uint64, error) {
	return m.fee, nil
}

func (m *Mock) SetCallback(cb Callback) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callback = cb
}

func (m *Mock) RequestRandomness(_ context.Context, provider forge.Address, fee uint64) (uint64, error) {
	if fee < m.fee {
		return 0, fmt.Errorf("%w: paid %d, required %d", forge.ErrInsufficientFee, fee, m.fee)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	m.pending[m.seq] = provider
	return m.seq, nil
}

// Fire delivers value for seq. Sequence numbers that were already delivered may be fired again;
// rejecting the repeat is up to the callback.
func (m *Mock) Fire(ctx context.Context, seq uint64, value forge.Randomness) error {
	m.mu.Lock()
	cb := m.callback
	issued := seq > 0 && seq <= m.seq
	m.mu.Unlock()
	if !issued {
		return fmt.Errorf("%w: %d", ErrUnknownSequence, seq)
	}
	if cb == nil {
		return ErrNoCallback
	}
	if err := cb(ctx, m.address, seq, value); err != nil {
		return err
	}
	m.mu.Lock()
	delete(m.pending, seq)
	m.mu.Unlock()
	return nil
}

// Pending lists undelivered sequence numbers in order.
func (m *Mock) Pending() []uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]uint64, 0, len(m.pending))
	for seq := range m.pending {
		out = append(out, seq)
	}
	slices.Sort(out)
	return out
}

// Discard drops seq from the pending set without delivering it.
func (m *Mock) Discard(seq uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.pending, seq)
}

// StartAutoDeliver fires every pending request with a pseudo-random value on each tick until ctx ends.
func (m *Mock) StartAutoDeliver(ctx context.Context, interval time.Duration, seed uint64) {
	if interval <= 0 {
		interval = time.Second
	}
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				for _, seq := range m.Pending() {
					if err := m.Fire(ctx, seq, forge.RandomnessFromUint64(rng.Uint64())); err != nil {
						log.Warn().Err(err).Uint64("sequence_number", seq).Msg("entropy_auto_deliver_failed")
						m.Discard(seq)
					}
				}
			}
		}
	}()
}

// State is the serializable form of the oracle: the last issued sequence and the undelivered requests.
type State struct {
	Seq     uint64                   `json:"seq"`
	Pending map[uint64]forge.Address `json:"pending,omitempty"`
}

func (m *Mock) Export() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := State{Seq: m.seq, Pending: make(map[uint64]forge.Address, len(m.pending))}
	for seq, provider := range m.pending {
		st.Pending[seq] = provider
	}
	return st
}

// Import resumes numbering after st.Seq. The callback is kept.
func (m *Mock) Import(st State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq = st.Seq
	m.pending = make(map[uint64]forge.Address, len(st.Pending))
	for seq, provider := range st.Pending {
		m.pending[seq] = provider
	}
}
