package forge

import (
	"context"
	"fmt"
	"math"
	"math/bits"
	"slices"
)

// accrued is the truncated accrual of one item between since and now. It saturates instead of
// wrapping.
func accrued(since, now int64, perHour uint64) uint64 {
	if now <= since {
		return 0
	}
	hi, lo := bits.Mul64(uint64(now-since), perHour)
	if hi >= 3600 {
		return math.MaxUint64
	}
	q, _ := bits.Div64(hi, lo, 3600)
	return q
}

// settle moves the live accrual of every item staked by acct into Owed and restarts the clocks.
func (e *Engine) settle(acct *Account, now int64) {
	for _, id := range acct.Staked {
		info := e.st.Stakes[id]
		acct.Owed += accrued(info.Since, now, e.st.Settings.PointsPerHour)
		info.Since = now
		e.st.Stakes[id] = info
	}
}

func (e *Engine) pending(addr Address, now int64) uint64 {
	acct, ok := e.st.Accounts[addr]
	if !ok {
		return 0
	}
	total := acct.Owed
	for _, id := range acct.Staked {
		total += accrued(e.st.Stakes[id].Since, now, e.st.Settings.PointsPerHour)
	}
	return total
}

// Stake moves every item into the vault and starts its accrual clock. Nothing is staked unless all items are.
func (e *Engine) Stake(ctx context.Context, caller Address, ids []uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.st.Settings.StakingOpen {
		return ErrStakingClosed
	}
	if len(ids) == 0 {
		return ErrInvalidTokenIndex
	}
	seen := make(map[uint64]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%w: token %d", ErrAlreadyStaked, id)
		}
		seen[id] = struct{}{}
		if _, staked := e.st.Stakes[id]; staked {
			return fmt.Errorf("%w: token %d", ErrAlreadyStaked, id)
		}
		owner, err := e.custody.OwnerOf(ctx, id)
		if err != nil {
			return fmt.Errorf("owner of token %d: %w", id, err)
		}
		if owner != caller {
			return fmt.Errorf("%w: token %d", ErrNotOwnerOfToken, id)
		}
	}

	for i, id := range ids {
		if err := e.custody.SafeTransferFrom(ctx, e.vault, caller, e.vault, id); err != nil {
			e.returnItems(ctx, caller, ids[:i])
			return fmt.Errorf("transfer token %d: %w", id, err)
		}
	}

	now := e.now().Unix()
	acct := e.account(caller)
	e.settle(acct, now)
	b := e.batch()
	for _, id := range ids {
		e.st.Stakes[id] = StakeInfo{Owner: caller, Since: now}
		acct.Staked = append(acct.Staked, id)
		b.add(Event{Type: EventStaked, Account: caller, TokenID: id})
	}
	if _, ok := e.stakerIndex[caller]; !ok {
		e.stakerIndex[caller] = struct{}{}
		e.st.Stakers = append(e.st.Stakers, caller)
	}
	e.commit(b)
	return nil
}

// Unstake settles the caller's accrual and returns custody of every item.
func (e *Engine) Unstake(ctx context.Context, caller Address, ids []uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(ids) == 0 {
		return ErrInvalidTokenIndex
	}
	seen := make(map[uint64]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%w: token %d", ErrInvalidTokenIndex, id)
		}
		seen[id] = struct{}{}
		info, ok := e.st.Stakes[id]
		if !ok || info.Owner != caller {
			return fmt.Errorf("%w: token %d", ErrNotStakedOwner, id)
		}
	}

	for i, id := range ids {
		if err := e.custody.SafeTransferFrom(ctx, e.vault, e.vault, caller, id); err != nil {
			e.reclaimItems(ctx, caller, ids[:i])
			return fmt.Errorf("transfer token %d: %w", id, err)
		}
	}

	now := e.now().Unix()
	acct := e.account(caller)
	e.settle(acct, now)
	b := e.batch()
	for _, id := range ids {
		delete(e.st.Stakes, id)
		acct.Staked = slices.DeleteFunc(acct.Staked, func(v uint64) bool { return v == id })
		b.add(Event{Type: EventUnstaked, Account: caller, TokenID: id})
	}
	e.commit(b)
	return nil
}

// returnItems undoes a partial stake. Failures here leave the item in the vault unrecorded.
func (e *Engine) returnItems(ctx context.Context, owner Address, ids []uint64) {
	for _, id := range ids {
		_ = e.custody.SafeTransferFrom(ctx, e.vault, e.vault, owner, id)
	}
}

// reclaimItems undoes a partial unstake.
func (e *Engine) reclaimItems(ctx context.Context, owner Address, ids []uint64) {
	for _, id := range ids {
		_ = e.custody.SafeTransferFrom(ctx, e.vault, owner, e.vault, id)
	}
}

// PendingRewards is the settled balance plus the live accrual at the current rate.
func (e *Engine) PendingRewards(account Address) uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pending(account, e.now().Unix())
}

func (e *Engine) OwedRewards(account Address) uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	if acct, ok := e.st.Accounts[account]; ok {
		return acct.Owed
	}
	return 0
}

// SetPointsPerHourPerToken changes the rate for all unsettled time. Owed balances are untouched.
func (e *Engine) SetPointsPerHourPerToken(caller Address, rate uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	e.st.Settings.PointsPerHour = rate
	e.st.Settings.PointsPerDay = rate * 24
	b := e.batch()
	b.add(Event{Type: EventPointsPerDayPerTokenUpdated, Value: e.st.Settings.PointsPerDay})
	e.commit(b)
	return nil
}

// SetPointsPerDayPerToken stores the day rate and its truncated hourly rate.
func (e *Engine) SetPointsPerDayPerToken(caller Address, rate uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	e.st.Settings.PointsPerDay = rate
	e.st.Settings.PointsPerHour = rate / 24
	b := e.batch()
	b.add(Event{Type: EventPointsPerDayPerTokenUpdated, Value: rate})
	e.commit(b)
	return nil
}

// StakedTokenProps returns the stake record of id, zero when the item is not staked.
func (e *Engine) StakedTokenProps(id uint64) StakeInfo {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.st.Stakes[id]
}

// AllStakers lists every account that ever staked, in first-stake order.
func (e *Engine) AllStakers() []Address {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Address{}, e.st.Stakers...)
}

func (e *Engine) HasStaked(account Address) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.stakerIndex[account]
	return ok
}

func (e *Engine) StakedTokensOf(account Address) []uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	acct, ok := e.st.Accounts[account]
	if !ok {
		return []uint64{}
	}
	return append([]uint64{}, acct.Staked...)
}
