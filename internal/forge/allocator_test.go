package forge

import (
	"math"
	"math/big"
	"testing"
)

func levelsWithMinted(minted ...uint64) []RarityLevel {
	out := make([]RarityLevel, len(minted))
	for i, m := range minted {
		out[i] = RarityLevel{Minted: m, MaxSupply: 2}
	}
	return out
}

func TestSelectLevel(t *testing.T) {
	weights := []uint64{80, 16, 2, 1, 1}
	cases := []struct {
		name   string
		levels []RarityLevel
		value  uint64
		want   int
	}{
		{"first bucket", levelsWithMinted(0, 0, 0, 0, 0), 12, 0},
		{"last bucket", levelsWithMinted(0, 0, 0, 0, 0), 99, 4},
		{"boundary", levelsWithMinted(0, 0, 0, 0, 0), 80, 1},
		{"exhausted bucket drops out of modulus", levelsWithMinted(0, 2, 0, 0, 0), 95, 0},
		{"exhausted last bucket wraps", levelsWithMinted(0, 0, 0, 0, 2), 99, 0},
		{"weight shifts to the next bucket", levelsWithMinted(0, 2, 0, 0, 0), 81, 2},
		{"everything full", levelsWithMinted(2, 2, 2, 2, 2), 5, -1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := SelectLevel(weights, tc.levels, RandomnessFromUint64(tc.value))
			if got != tc.want {
				t.Fatalf("SelectLevel(%d) = %d, want %d", tc.value, got, tc.want)
			}
		})
	}
}

func TestSelectLevelWeightOnlyOnExhaustedBuckets(t *testing.T) {
	levels := []RarityLevel{{Minted: 1, MaxSupply: 1}, {MaxSupply: 1}}
	if got := SelectLevel([]uint64{100, 0}, levels, RandomnessFromUint64(12)); got != -1 {
		t.Fatalf("got %d, want -1", got)
	}
}

func TestSelectLevelUsesFullWidthRandomness(t *testing.T) {
	// 2^200 mod 100 = 76.
	n := new(big.Int).Lsh(big.NewInt(1), 200)
	var r Randomness
	n.FillBytes(r[:])
	if got := r.Mod(100); got != 76 {
		t.Fatalf("mod = %d, want 76", got)
	}
	weights := []uint64{80, 16, 2, 1, 1}
	if got := SelectLevel(weights, levelsWithMinted(0, 0, 0, 0, 0), r); got != 0 {
		t.Fatalf("level = %d, want 0", got)
	}
}

func TestLoyaltyDiscount(t *testing.T) {
	cases := []struct {
		name                   string
		price, units, divisor  uint64
		wantDiscount, wantPaid uint64
	}{
		{"capped at half price", 2000, 1, 30, 1000, 1000},
		{"below the cap", 2000, 1, 1000, 200, 1800},
		{"scaled by units", 2000, 3, 1000, 600, 1400},
		{"no loyalty tokens", 2000, 0, 30, 0, 2000},
		{"discount disabled", 2000, 5, 0, 0, 2000},
		{"large price keeps full precision", 1 << 58, 1, 1000, 28823037615171174, 1<<58 - 28823037615171174},
		{"huge balance is capped, not wrapped", 2000, math.MaxUint64, 1, 1000, 1000},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := LoyaltyDiscount(tc.price, tc.units, tc.divisor); got != tc.wantDiscount {
				t.Fatalf("discount = %d, want %d", got, tc.wantDiscount)
			}
			if got := DiscountedPrice(tc.price, tc.units, tc.divisor); got != tc.wantPaid {
				t.Fatalf("price = %d, want %d", got, tc.wantPaid)
			}
		})
	}
}

func TestValidateTiers(t *testing.T) {
	if err := validateTiers([]Tier{{Price: 1, Probabilities: []uint64{50, 49}}}, 100); err != ErrInvalidProbabilitySum {
		t.Fatalf("bad sum: got %v", err)
	}
	mixed := []Tier{
		{Price: 1, Probabilities: []uint64{100, 0}},
		{Price: 2, Probabilities: []uint64{100, 0, 0}},
	}
	if err := validateTiers(mixed, 100); err != ErrConfigMismatch {
		t.Fatalf("mixed widths: got %v", err)
	}
	if err := validateTiers([]Tier{{Price: 1, Probabilities: []uint64{9000, 1000}}}, 10000); err != nil {
		t.Fatalf("basis points: %v", err)
	}
	wrapping := [][]uint64{
		{math.MaxUint64, 101},
		{50, math.MaxUint64, 51},
		{101},
	}
	for _, w := range wrapping {
		if err := validateTiers([]Tier{{Price: 10, Probabilities: w}}, 100); err != ErrInvalidProbabilitySum {
			t.Fatalf("weights %v: got %v", w, err)
		}
	}
}

func TestSelectLevelRejectsOverflowingWeights(t *testing.T) {
	weights := []uint64{math.MaxUint64, 101}
	if got := SelectLevel(weights, levelsWithMinted(0, 0), RandomnessFromUint64(50)); got != -1 {
		t.Fatalf("SelectLevel = %d, want -1", got)
	}
	if got := SelectLevel(weights, levelsWithMinted(0, 2), RandomnessFromUint64(50)); got != 0 {
		t.Fatalf("SelectLevel with second level full = %d, want 0", got)
	}
}

func TestAccruedDoesNotWrap(t *testing.T) {
	if got := accrued(0, 3600*1000, 1<<50); got != 1000<<50 {
		t.Fatalf("accrued = %d, want %d", got, uint64(1000)<<50)
	}
	if got := accrued(0, 1<<40, 1<<40); got != math.MaxUint64 {
		t.Fatalf("accrued = %d, want saturation", got)
	}
	if got := accrued(7200, 3600, 40); got != 0 {
		t.Fatalf("accrued backwards = %d", got)
	}
}
