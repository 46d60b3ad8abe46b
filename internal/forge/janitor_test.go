package forge_test

import (
	"testing"

	"dragon-forge/internal/forge"
)

func TestSweepFinalizesAndExpires(t *testing.T) {
	f := newFixture(t)
	f.setupMinting(t, fiveLevelTier(), fiveLevels())
	f.request(t, user1, 0) // delivered, finalized by the sweep
	f.request(t, user1, 0) // never delivered, expires
	if err := f.oracle.Fire(f.ctx, 1, forge.RandomnessFromUint64(12)); err != nil {
		t.Fatalf("fire: %v", err)
	}

	res := f.eng.Sweep(f.ctx)
	if res.Finalized != 1 || res.Expired != 0 {
		t.Fatalf("first sweep = %+v", res)
	}
	if req, _ := f.eng.MintRequest(1); req.State() != forge.RequestCompleted {
		t.Fatalf("request 1 state = %s", req.State())
	}

	f.clock.Advance(forge.DefaultMintExpiry)
	res = f.eng.Sweep(f.ctx)
	if res.Expired != 1 || res.Finalized != 0 {
		t.Fatalf("second sweep = %+v", res)
	}
	if got := f.eng.UnresolvedRequests(); len(got) != 0 {
		t.Fatalf("unresolved = %v", got)
	}
	if res := f.eng.Sweep(f.ctx); res != (forge.SweepResult{}) {
		t.Fatalf("idle sweep = %+v", res)
	}
}
