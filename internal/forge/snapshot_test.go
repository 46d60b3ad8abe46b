package forge_test

import (
	"testing"
	"time"

	"dragon-forge/internal/forge"
	"dragon-forge/internal/nft"
)

func TestSnapshotRestoreContinuesLedger(t *testing.T) {
	f := newFixture(t)
	f.setupMinting(t, fiveLevelTier(), fiveLevels())
	f.request(t, user1, 0)
	f.fireAndMint(t, 1, 99)
	f.request(t, user1, 0)

	data, seq, err := f.eng.Snapshot()
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if seq != uint64(len(f.sink.events)) {
		t.Fatalf("snapshot seq = %d, want %d", seq, len(f.sink.events))
	}

	reg := nft.NewRegistry()
	if err := reg.Add(f.rewards); err != nil {
		t.Fatalf("register: %v", err)
	}
	sink := &captureSink{}
	restored, err := forge.New(forge.Config{Owner: owner, Vault: vault, Now: f.clock.Now}, forge.Deps{
		Custody: f.dragons,
		Loyalty: f.party,
		Rewards: reg,
		Oracle:  f.oracle,
		Sink:    sink,
	})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := restored.Restore(data); err != nil {
		t.Fatalf("restore: %v", err)
	}
	f.oracle.SetCallback(restored.DeliverRandomness)

	if got, want := restored.OwedRewards(user1), f.eng.OwedRewards(user1); got != want {
		t.Fatalf("owed = %d, want %d", got, want)
	}
	if !restored.HasStaked(user1) || len(restored.StakedTokensOf(user1)) != 5 {
		t.Fatalf("stakes not restored")
	}
	if restored.MintedCount() != 1 || restored.RarityLevels()[4].Minted != 1 {
		t.Fatalf("mint counters not restored")
	}
	req, err := restored.MintRequest(2)
	if err != nil || req.State() != forge.RequestPending {
		t.Fatalf("pending request = %+v, %v", req, err)
	}

	f.clock.Advance(time.Hour)
	if err := f.oracle.Fire(f.ctx, 2, forge.RandomnessFromUint64(99)); err != nil {
		t.Fatalf("fire: %v", err)
	}
	out, err := restored.SelectRarityAndMint(f.ctx, 2)
	if err != nil {
		t.Fatalf("finalize after restore: %v", err)
	}
	if out.URI != "ar://mega/2.json" || out.TokenID != 2 {
		t.Fatalf("finalized = %+v", out)
	}
	if sink.events[0].Seq != seq+1 {
		t.Fatalf("event numbering restarted at %d, want %d", sink.events[0].Seq, seq+1)
	}
}

func TestRestoreRejectsGarbage(t *testing.T) {
	f := newFixture(t)
	if err := f.eng.Restore([]byte("{")); err == nil {
		t.Fatalf("expected decode error")
	}
	if err := f.eng.Restore([]byte(`{"settings":{"probability_total":7}}`)); err == nil {
		t.Fatalf("expected invalid total error")
	}
}
