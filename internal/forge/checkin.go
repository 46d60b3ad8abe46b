package forge

import (
	"context"
	"fmt"
)

// DailyCheckIn credits dailyBonus plus loyaltyDailyBonus per loyalty unit, once per rolling 24 hours.
func (e *Engine) DailyCheckIn(ctx context.Context, caller Address) (uint64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.st.Settings.StakingOpen {
		return 0, ErrStakingClosed
	}
	now := e.now().Unix()
	if acct, ok := e.st.Accounts[caller]; ok && acct.LastCheckin != 0 {
		if now < acct.LastCheckin+int64(CheckinInterval.Seconds()) {
			return 0, ErrCheckinTooEarly
		}
	}
	units, err := e.loyaltyUnits(ctx, caller)
	if err != nil {
		return 0, fmt.Errorf("loyalty balance: %w", err)
	}
	bonus := e.st.Settings.DailyBonus + units*e.st.Settings.LoyaltyDailyBonus

	acct := e.account(caller)
	e.settle(acct, now)
	acct.Owed += bonus
	acct.LastCheckin = now

	b := e.batch()
	b.add(Event{Type: EventDailyCheckin, Account: caller, Value: bonus})
	e.commit(b)
	return bonus, nil
}

// LastCheckin is the unix time of the last check-in of account, zero if none.
func (e *Engine) LastCheckin(account Address) int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	if acct, ok := e.st.Accounts[account]; ok {
		return acct.LastCheckin
	}
	return 0
}
