package forge_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"dragon-forge/internal/entropy"
	"dragon-forge/internal/forge"
	"dragon-forge/internal/nft"
)

var (
	owner       = forge.MustAddress("0x00000000000000000000000000000000000000a0")
	vault       = forge.MustAddress("0x00000000000000000000000000000000000000f0")
	provider    = forge.MustAddress("0x52deaa1c84233f7bb8c8a45baede41091c616506")
	oracleAddr  = forge.MustAddress("0x00000000000000000000000000000000000000e0")
	dragonsAddr = forge.MustAddress("0x00000000000000000000000000000000000000d1")
	rewardsAddr = forge.MustAddress("0x00000000000000000000000000000000000000d2")
	partyAddr   = forge.MustAddress("0x00000000000000000000000000000000000000d3")
	user1       = forge.MustAddress("0x0000000000000000000000000000000000000001")
	user2       = forge.MustAddress("0x0000000000000000000000000000000000000002")
)

const oracleFee = 10

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type captureSink struct {
	mu     sync.Mutex
	events []forge.Event
}

func (s *captureSink) Publish(events []forge.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, events...)
}

func (s *captureSink) ofType(t forge.EventType) []forge.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []forge.Event
	for _, ev := range s.events {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}

type fixture struct {
	ctx     context.Context
	eng     *forge.Engine
	clock   *fakeClock
	sink    *captureSink
	dragons *nft.Collection
	rewards *nft.Collection
	party   *nft.Collection
	oracle  *entropy.Mock
}

// newFixture mints dragons 1-10 to user1 and 11-20 to user2, both approving the vault.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	f := &fixture{
		ctx:     ctx,
		clock:   &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)},
		sink:    &captureSink{},
		dragons: nft.NewCollection("dragons", dragonsAddr),
		rewards: nft.NewCollection("derpy-dragons", rewardsAddr),
		party:   nft.NewCollection("dinner-party", partyAddr),
		oracle:  entropy.NewMock(oracleAddr, oracleFee),
	}
	reg := nft.NewRegistry()
	if err := reg.Add(f.rewards); err != nil {
		t.Fatalf("register rewards: %v", err)
	}
	eng, err := forge.New(forge.Config{
		Owner:          owner,
		Vault:          vault,
		Provider:       provider,
		RewardContract: rewardsAddr,
		PointsPerHour:  40,
		Now:            f.clock.Now,
	}, forge.Deps{
		Custody: f.dragons,
		Loyalty: f.party,
		Rewards: reg,
		Oracle:  f.oracle,
		Sink:    f.sink,
	})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	f.eng = eng
	f.dragons.RegisterReceiver(vault, eng.OnReceived)
	f.oracle.SetCallback(eng.DeliverRandomness)

	for _, u := range []forge.Address{user1, user2} {
		if _, err := f.dragons.MintBatch(ctx, u, 10); err != nil {
			t.Fatalf("mint dragons: %v", err)
		}
		f.dragons.SetApprovalForAll(u, vault, true)
	}
	return f
}

func (f *fixture) openStaking(t *testing.T) {
	t.Helper()
	if err := f.eng.SetStakingMode(owner, true); err != nil {
		t.Fatalf("open staking: %v", err)
	}
}

// setupMinting loads tiers and levels, opens both modes and stakes dragons 1-5 of user1 for ten days.
func (f *fixture) setupMinting(t *testing.T, tiers []forge.Tier, levels []forge.RarityLevel) {
	t.Helper()
	if err := f.eng.InitializeRollTypes(owner, tiers); err != nil {
		t.Fatalf("init tiers: %v", err)
	}
	if err := f.eng.InitializeRarityLevels(owner, levels); err != nil {
		t.Fatalf("init levels: %v", err)
	}
	if err := f.eng.SetMintingMode(owner, true); err != nil {
		t.Fatalf("open minting: %v", err)
	}
	f.openStaking(t)
	if err := f.eng.Stake(f.ctx, user1, []uint64{1, 2, 3, 4, 5}); err != nil {
		t.Fatalf("stake: %v", err)
	}
	f.clock.Advance(10 * 24 * time.Hour)
}

func (f *fixture) request(t *testing.T, who forge.Address, tier int) forge.MintRequest {
	t.Helper()
	req, err := f.eng.RequestToken(f.ctx, who, tier, oracleFee)
	if err != nil {
		t.Fatalf("request token: %v", err)
	}
	return req
}

func (f *fixture) fireAndMint(t *testing.T, seq, value uint64) forge.MintRequest {
	t.Helper()
	if err := f.oracle.Fire(f.ctx, seq, forge.RandomnessFromUint64(value)); err != nil {
		t.Fatalf("fire %d: %v", seq, err)
	}
	out, err := f.eng.SelectRarityAndMint(f.ctx, seq)
	if err != nil {
		t.Fatalf("select rarity %d: %v", seq, err)
	}
	return out
}

func fiveLevelTier() []forge.Tier {
	return []forge.Tier{
		{Price: 1000, Probabilities: []uint64{80, 16, 2, 1, 1}},
		{Price: 2000, Probabilities: []uint64{60, 40, 0, 0, 0}},
	}
}

func fiveLevels() []forge.RarityLevel {
	return []forge.RarityLevel{
		{MaxSupply: 10, URIPrefix: "ar://common/"},
		{MaxSupply: 2, URIPrefix: "ar://uncommon/"},
		{MaxSupply: 2, URIPrefix: "ar://rare/"},
		{MaxSupply: 2, URIPrefix: "ar://epic/"},
		{MaxSupply: 2, URIPrefix: "ar://mega/"},
	}
}
