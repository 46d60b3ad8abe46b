package forge_test

import (
	"errors"
	"testing"
	"time"

	"dragon-forge/internal/forge"
)

func TestStakeUnstakeAccruesPerItemHour(t *testing.T) {
	f := newFixture(t)
	f.openStaking(t)

	if err := f.eng.Stake(f.ctx, user1, []uint64{1, 2, 3, 4, 5}); err != nil {
		t.Fatalf("stake: %v", err)
	}
	for id := uint64(1); id <= 5; id++ {
		got, _ := f.dragons.OwnerOf(f.ctx, id)
		if got != vault {
			t.Fatalf("token %d owner = %s, want vault", id, got)
		}
	}
	f.clock.Advance(5 * time.Hour)
	if got := f.eng.PendingRewards(user1); got != 5*5*40 {
		t.Fatalf("pending = %d, want 1000", got)
	}
	if got := f.eng.OwedRewards(user1); got != 0 {
		t.Fatalf("owed before unstake = %d, want 0", got)
	}

	if err := f.eng.Unstake(f.ctx, user1, []uint64{1, 2, 3, 4, 5}); err != nil {
		t.Fatalf("unstake: %v", err)
	}
	if got := f.eng.OwedRewards(user1); got != 1000 {
		t.Fatalf("owed = %d, want 1000", got)
	}
	if got := f.eng.PendingRewards(user1); got != f.eng.OwedRewards(user1) {
		t.Fatalf("pending %d != owed after settlement", got)
	}
	got, _ := f.dragons.OwnerOf(f.ctx, 3)
	if got != user1 {
		t.Fatalf("token 3 owner = %s, want user1", got)
	}
	if n := len(f.sink.ofType(forge.EventStaked)); n != 5 {
		t.Fatalf("staked events = %d, want 5", n)
	}
	if n := len(f.sink.ofType(forge.EventUnstaked)); n != 5 {
		t.Fatalf("unstaked events = %d, want 5", n)
	}
}

func TestAccrualTruncatesPerItem(t *testing.T) {
	f := newFixture(t)
	f.openStaking(t)
	if err := f.eng.Stake(f.ctx, user1, []uint64{1, 2}); err != nil {
		t.Fatalf("stake: %v", err)
	}
	// 89s at 40/h is 0.988 points per item.
	f.clock.Advance(89 * time.Second)
	if got := f.eng.PendingRewards(user1); got != 0 {
		t.Fatalf("pending = %d, want 0", got)
	}
	f.clock.Advance(time.Second)
	if got := f.eng.PendingRewards(user1); got != 2 {
		t.Fatalf("pending = %d, want 2", got)
	}
}

func TestStakeRejections(t *testing.T) {
	f := newFixture(t)

	if err := f.eng.Stake(f.ctx, user1, []uint64{1}); !errors.Is(err, forge.ErrStakingClosed) {
		t.Fatalf("closed: got %v", err)
	}
	f.openStaking(t)
	if err := f.eng.Stake(f.ctx, user1, nil); !errors.Is(err, forge.ErrInvalidTokenIndex) {
		t.Fatalf("empty: got %v", err)
	}
	if err := f.eng.Stake(f.ctx, user1, []uint64{1, 11}); !errors.Is(err, forge.ErrNotOwnerOfToken) {
		t.Fatalf("foreign token: got %v", err)
	}
	if got, _ := f.dragons.OwnerOf(f.ctx, 1); got != user1 {
		t.Fatalf("failed stake moved token 1 to %s", got)
	}
	if err := f.eng.Stake(f.ctx, user1, []uint64{2, 2}); !errors.Is(err, forge.ErrAlreadyStaked) {
		t.Fatalf("duplicate id: got %v", err)
	}
	if err := f.eng.Stake(f.ctx, user1, []uint64{1}); err != nil {
		t.Fatalf("stake: %v", err)
	}
	if err := f.eng.Stake(f.ctx, user1, []uint64{1}); !errors.Is(err, forge.ErrAlreadyStaked) {
		t.Fatalf("restake: got %v", err)
	}
	if n := len(f.sink.ofType(forge.EventStaked)); n != 1 {
		t.Fatalf("staked events = %d, want 1", n)
	}
}

func TestUnstakeRejections(t *testing.T) {
	f := newFixture(t)
	f.openStaking(t)
	if err := f.eng.Stake(f.ctx, user1, []uint64{1}); err != nil {
		t.Fatalf("stake: %v", err)
	}
	if err := f.eng.Unstake(f.ctx, user1, []uint64{}); !errors.Is(err, forge.ErrInvalidTokenIndex) {
		t.Fatalf("empty: got %v", err)
	}
	if err := f.eng.Unstake(f.ctx, user2, []uint64{1}); !errors.Is(err, forge.ErrNotStakedOwner) {
		t.Fatalf("other owner: got %v", err)
	}
	if err := f.eng.Unstake(f.ctx, user1, []uint64{1, 2}); !errors.Is(err, forge.ErrNotStakedOwner) {
		t.Fatalf("unstaked id: got %v", err)
	}
	if got := f.eng.StakedTokensOf(user1); len(got) != 1 || got[0] != 1 {
		t.Fatalf("staked after failed unstake = %v", got)
	}
}

func TestRateChangeLeavesSettledPointsAlone(t *testing.T) {
	f := newFixture(t)
	f.openStaking(t)
	if err := f.eng.Stake(f.ctx, user1, []uint64{1}); err != nil {
		t.Fatalf("stake: %v", err)
	}
	f.clock.Advance(2 * time.Hour)
	if err := f.eng.Unstake(f.ctx, user1, []uint64{1}); err != nil {
		t.Fatalf("unstake: %v", err)
	}
	if err := f.eng.SetPointsPerDayPerToken(owner, 1920); err != nil {
		t.Fatalf("set rate: %v", err)
	}
	if got := f.eng.OwedRewards(user1); got != 80 {
		t.Fatalf("owed after rate change = %d, want 80", got)
	}
	if err := f.eng.Stake(f.ctx, user1, []uint64{1}); err != nil {
		t.Fatalf("restake: %v", err)
	}
	f.clock.Advance(time.Hour)
	if got := f.eng.PendingRewards(user1); got != 80+80 {
		t.Fatalf("pending = %d, want 160", got)
	}
}

func TestRateChangeAppliesToUnsettledTime(t *testing.T) {
	f := newFixture(t)
	f.openStaking(t)
	if err := f.eng.Stake(f.ctx, user1, []uint64{1}); err != nil {
		t.Fatalf("stake: %v", err)
	}
	f.clock.Advance(time.Hour)
	if err := f.eng.SetPointsPerHourPerToken(owner, 80); err != nil {
		t.Fatalf("set rate: %v", err)
	}
	f.clock.Advance(time.Hour)
	if got := f.eng.PendingRewards(user1); got != 160 {
		t.Fatalf("pending = %d, want 160", got)
	}
	if got := f.eng.OwedRewards(user1); got != 0 {
		t.Fatalf("owed = %d, want 0", got)
	}
	evs := f.sink.ofType(forge.EventPointsPerDayPerTokenUpdated)
	if len(evs) != 1 || evs[0].Value != 80*24 {
		t.Fatalf("rate events = %+v, want day value 1920", evs)
	}
}

func TestSetPointsPerDayTruncatesHourlyRate(t *testing.T) {
	f := newFixture(t)
	if err := f.eng.SetPointsPerDayPerToken(user1, 1000); !errors.Is(err, forge.ErrUnauthorizedAccount) {
		t.Fatalf("non-owner: got %v", err)
	}
	if err := f.eng.SetPointsPerDayPerToken(owner, 1000); err != nil {
		t.Fatalf("set rate: %v", err)
	}
	s := f.eng.Settings()
	if s.PointsPerDay != 1000 || s.PointsPerHour != 41 {
		t.Fatalf("rates = %d/day %d/h, want 1000/41", s.PointsPerDay, s.PointsPerHour)
	}
	evs := f.sink.ofType(forge.EventPointsPerDayPerTokenUpdated)
	if len(evs) != 1 || evs[0].Value != 1000 {
		t.Fatalf("rate events = %+v", evs)
	}
}

func TestDirectTransferIntoVaultRejected(t *testing.T) {
	f := newFixture(t)
	err := f.dragons.SafeTransferFrom(f.ctx, user1, user1, vault, 1)
	if !errors.Is(err, forge.ErrDirectTransferNotAllowed) {
		t.Fatalf("direct transfer: got %v", err)
	}
	if got, _ := f.dragons.OwnerOf(f.ctx, 1); got != user1 {
		t.Fatalf("token 1 owner = %s, want user1", got)
	}
}

func TestStakeIntrospection(t *testing.T) {
	f := newFixture(t)
	f.openStaking(t)
	if f.eng.HasStaked(user1) {
		t.Fatalf("user1 has not staked yet")
	}
	if err := f.eng.Stake(f.ctx, user1, []uint64{1, 2, 3}); err != nil {
		t.Fatalf("stake: %v", err)
	}
	if err := f.eng.Stake(f.ctx, user2, []uint64{11}); err != nil {
		t.Fatalf("stake user2: %v", err)
	}
	if err := f.eng.Unstake(f.ctx, user1, []uint64{2}); err != nil {
		t.Fatalf("unstake: %v", err)
	}

	props := f.eng.StakedTokenProps(1)
	if props.Owner != user1 || props.Since != f.clock.Now().Unix() {
		t.Fatalf("props(1) = %+v", props)
	}
	if props := f.eng.StakedTokenProps(2); props.Owner != "" || props.Since != 0 {
		t.Fatalf("props(2) = %+v, want zero", props)
	}
	if got := f.eng.StakedTokensOf(user1); len(got) != 2 || got[0] != 1 || got[1] != 3 {
		t.Fatalf("staked tokens = %v, want [1 3]", got)
	}
	stakers := f.eng.AllStakers()
	if len(stakers) != 2 || stakers[0] != user1 || stakers[1] != user2 {
		t.Fatalf("stakers = %v", stakers)
	}
	if !f.eng.HasStaked(user2) {
		t.Fatalf("user2 should have staked")
	}
}
