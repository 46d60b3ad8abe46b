package forge

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"time"
)

// RequestToken charges the caller for a roll on tier and opens a randomness request.
func (e *Engine) RequestToken(ctx context.Context, caller Address, tier int, fee uint64) (MintRequest, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := e.st.Settings
	if !s.MintingOpen {
		return MintRequest{}, ErrMintingClosed
	}
	if tier < 0 || tier >= len(e.st.Tiers) {
		return MintRequest{}, ErrInvalidTierType
	}
	units, err := e.loyaltyUnits(ctx, caller)
	if err != nil {
		return MintRequest{}, fmt.Errorf("loyalty balance: %w", err)
	}
	price := DiscountedPrice(e.st.Tiers[tier].Price, units, s.LoyaltyDiscount)
	now := e.now()
	if balance := e.pending(caller, now.Unix()); balance < price {
		return MintRequest{}, &InsufficientBalanceError{Available: balance, Required: price}
	}
	required, err := e.oracle.Fee(ctx, s.Provider)
	if err != nil {
		return MintRequest{}, fmt.Errorf("oracle fee: %w", err)
	}
	if fee < required {
		return MintRequest{}, &InsufficientFeeError{Paid: fee, Required: required}
	}
	if remainingSupply(e.st.Levels) == 0 {
		return MintRequest{}, ErrNoMintsLeft
	}
	if width := len(e.st.Tiers[tier].Probabilities); width != len(e.st.Levels) {
		return MintRequest{}, fmt.Errorf("%w: %d rarity levels, %d weights", ErrConfigMismatch, len(e.st.Levels), width)
	}

	seq, err := e.oracle.RequestRandomness(ctx, s.Provider, fee)
	if err != nil {
		return MintRequest{}, fmt.Errorf("request randomness: %w", err)
	}
	if _, exists := e.st.Requests[seq]; exists {
		return MintRequest{}, fmt.Errorf("%w: %d", ErrDuplicateSequence, seq)
	}

	acct := e.account(caller)
	e.settle(acct, now.Unix())
	acct.Owed -= price
	req := &MintRequest{
		SequenceNumber: seq,
		Requester:      caller,
		Tier:           tier,
		PointsCharged:  price,
		CreatedAt:      now.Unix(),
		Level:          -1,
	}
	e.st.Requests[seq] = req
	acct.Requests = append(acct.Requests, seq)

	b := e.batch()
	b.add(Event{Type: EventMintRequested, Account: caller, SequenceNumber: seq, Value: price})
	e.commit(b)
	return *req, nil
}

// DeliverRandomness records the oracle value for seq. Only the oracle address may call it, once.
func (e *Engine) DeliverRandomness(_ context.Context, caller Address, seq uint64, value Randomness) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if caller != e.oracle.Address() {
		return ErrUnauthorizedCaller
	}
	req, ok := e.st.Requests[seq]
	if !ok {
		return fmt.Errorf("%w: %d", ErrRequestNotFound, seq)
	}
	switch {
	case req.Completed:
		return ErrRequestAlreadyCompleted
	case req.Cancelled:
		return ErrRequestAlreadyCancelled
	case req.RandomnessDelivered:
		return ErrRandomnessAlreadyDelivered
	}
	req.Randomness = value
	req.RandomnessDelivered = true

	b := e.batch()
	b.add(Event{Type: EventRandomnessDelivered, Account: req.Requester, SequenceNumber: seq})
	e.commit(b)
	return nil
}

// SelectRarityAndMint finalizes a delivered request. When no level can be chosen the request is
// cancelled and refunded, which is a successful outcome; the returned request tells them apart.
func (e *Engine) SelectRarityAndMint(ctx context.Context, seq uint64) (MintRequest, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	req, ok := e.st.Requests[seq]
	if !ok {
		return MintRequest{}, fmt.Errorf("%w: %d", ErrRequestNotFound, seq)
	}
	switch {
	case req.Completed:
		return MintRequest{}, ErrMintAlreadyCompleted
	case req.Cancelled:
		return MintRequest{}, ErrMintRequestAlreadyCancelled
	case !req.RandomnessDelivered:
		return MintRequest{}, ErrRequestNotCompleted
	}

	var weights []uint64
	if req.Tier < len(e.st.Tiers) {
		weights = e.st.Tiers[req.Tier].Probabilities
	}
	level := SelectLevel(weights, e.st.Levels, req.Randomness)
	b := e.batch()
	if level < 0 {
		e.refund(req)
		b.add(Event{Type: EventMintFailed, Account: req.Requester, SequenceNumber: seq, Value: req.PointsCharged})
		e.commit(b)
		return *req, nil
	}

	lvl := &e.st.Levels[level]
	tokenID := e.st.MintedCount + 1
	uri := lvl.URIPrefix + strconv.FormatUint(lvl.Minted+1, 10) + ".json"
	if err := e.rewards.Mint(ctx, e.st.Settings.RewardContract, req.Requester, tokenID, uri); err != nil {
		return MintRequest{}, fmt.Errorf("mint token %d: %w", tokenID, err)
	}
	lvl.Minted++
	e.st.MintedCount = tokenID
	req.Completed = true
	req.Level = level
	req.TokenID = tokenID
	req.URI = uri

	b.add(Event{Type: EventTokenMinted, Account: req.Requester, TokenID: tokenID, SequenceNumber: seq, URI: uri})
	e.commit(b)
	return *req, nil
}

// ResolveExpiredMint cancels and refunds a request left unresolved past the expiry window.
func (e *Engine) ResolveExpiredMint(_ context.Context, seq uint64) (MintRequest, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	req, ok := e.st.Requests[seq]
	if !ok {
		return MintRequest{}, fmt.Errorf("%w: %d", ErrRequestNotFound, seq)
	}
	switch {
	case req.Completed:
		return MintRequest{}, ErrMintAlreadyCompleted
	case req.Cancelled:
		return MintRequest{}, ErrMintRequestAlreadyCancelled
	}
	if !e.expired(req, e.now()) {
		return MintRequest{}, ErrMintRequestNotYetExpired
	}
	e.refund(req)

	b := e.batch()
	b.add(Event{Type: EventMintFailed, Account: req.Requester, SequenceNumber: seq, Value: req.PointsCharged})
	e.commit(b)
	return *req, nil
}

func (e *Engine) expired(req *MintRequest, now time.Time) bool {
	return now.Unix() >= req.CreatedAt+e.st.Settings.MintExpirySeconds
}

func (e *Engine) refund(req *MintRequest) {
	e.account(req.Requester).Owed += req.PointsCharged
	req.Cancelled = true
}

func (e *Engine) MintRequest(seq uint64) (MintRequest, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	req, ok := e.st.Requests[seq]
	if !ok {
		return MintRequest{}, fmt.Errorf("%w: %d", ErrRequestNotFound, seq)
	}
	return *req, nil
}

// MintRequestsOf lists the requests of account in creation order.
func (e *Engine) MintRequestsOf(account Address) []MintRequest {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := []MintRequest{}
	acct, ok := e.st.Accounts[account]
	if !ok {
		return out
	}
	for _, seq := range acct.Requests {
		if req, ok := e.st.Requests[seq]; ok {
			out = append(out, *req)
		}
	}
	return out
}

// UnresolvedRequests returns the sequence numbers of requests that are neither completed nor cancelled.
func (e *Engine) UnresolvedRequests() []uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []uint64
	for seq, req := range e.st.Requests {
		if !req.Resolved() {
			out = append(out, seq)
		}
	}
	slices.Sort(out)
	return out
}

func (e *Engine) MintedCount() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.st.MintedCount
}
