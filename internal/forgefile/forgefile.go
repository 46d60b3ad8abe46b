// Package forgefile parses forge.yaml files describing tiers, rarity levels and launch settings.
package forgefile

import (
	"context"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"dragon-forge/internal/forge"
)

// Settings are optional; only fields present in the file are applied.
type Settings struct {
	StakingOpen       *bool   `yaml:"staking_open"`
	MintingOpen       *bool   `yaml:"minting_open"`
	PointsPerDay      *uint64 `yaml:"points_per_day"`
	DailyBonus        *uint64 `yaml:"daily_bonus"`
	LoyaltyDailyBonus *uint64 `yaml:"loyalty_daily_bonus"`
	LoyaltyDiscount   *uint64 `yaml:"loyalty_discount"`
	MintExpiry        string  `yaml:"mint_expiry"`
}

// File is a parsed forge.yaml.
type File struct {
	ProbabilityTotal uint64              `yaml:"probability_total"`
	Tiers            []forge.Tier        `yaml:"tiers"`
	RarityLevels     []forge.RarityLevel `yaml:"rarity_levels"`
	Settings         Settings            `yaml:"settings"`

	mintExpiry time.Duration
}

// Load reads and validates a forge.yaml file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading forge file %s: %w", path, err)
	}
	return Parse(data)
}

func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing forge file: %w", err)
	}
	if f.ProbabilityTotal == 0 {
		f.ProbabilityTotal = forge.DefaultProbabilityTotal
	}
	if f.ProbabilityTotal != 100 && f.ProbabilityTotal != 10000 {
		return nil, fmt.Errorf("probability_total must be 100 or 10000, got %d", f.ProbabilityTotal)
	}
	if len(f.Tiers) == 0 {
		return nil, fmt.Errorf("forge file has no tiers defined")
	}
	for i, t := range f.Tiers {
		if len(t.Probabilities) != len(f.RarityLevels) {
			return nil, fmt.Errorf("tier %d: %d probabilities for %d rarity levels", i, len(t.Probabilities), len(f.RarityLevels))
		}
		var sum uint64
		for _, w := range t.Probabilities {
			sum += w
		}
		if sum != f.ProbabilityTotal {
			return nil, fmt.Errorf("tier %d: probabilities sum to %d, want %d", i, sum, f.ProbabilityTotal)
		}
	}
	for i, l := range f.RarityLevels {
		if l.URIPrefix == "" {
			return nil, fmt.Errorf("rarity level %d: uri_prefix is required", i)
		}
		if l.Minted > l.MaxSupply {
			return nil, fmt.Errorf("rarity level %d: minted %d exceeds max_supply %d", i, l.Minted, l.MaxSupply)
		}
	}
	if f.Settings.MintExpiry != "" {
		d, err := time.ParseDuration(f.Settings.MintExpiry)
		if err != nil || d < time.Second {
			return nil, fmt.Errorf("settings.mint_expiry: invalid duration %q", f.Settings.MintExpiry)
		}
		f.mintExpiry = d
	}
	return &f, nil
}

// MintExpiry is the parsed settings.mint_expiry, zero when absent.
func (f *File) MintExpiry() time.Duration { return f.mintExpiry }

// Target is an administrative surface a file can be applied to.
type Target interface {
	InitializeRollTypes(ctx context.Context, tiers []forge.Tier) error
	InitializeRarityLevels(ctx context.Context, levels []forge.RarityLevel) error
	SetStakingMode(ctx context.Context, open bool) error
	SetMintingMode(ctx context.Context, open bool) error
	SetPointsPerDay(ctx context.Context, rate uint64) error
	SetDailyBonus(ctx context.Context, bonus uint64) error
	SetLoyaltyDailyBonus(ctx context.Context, bonus uint64) error
	SetLoyaltyDiscount(ctx context.Context, divisor uint64) error
	SetMintExpiry(ctx context.Context, expiry time.Duration) error
}

// Apply initializes tiers, then rarity levels, then the present settings, in deployment order.
func (f *File) Apply(ctx context.Context, t Target) error {
	if err := t.InitializeRollTypes(ctx, f.Tiers); err != nil {
		return fmt.Errorf("initialize tiers: %w", err)
	}
	if err := t.InitializeRarityLevels(ctx, f.RarityLevels); err != nil {
		return fmt.Errorf("initialize rarity levels: %w", err)
	}
	s := f.Settings
	if s.PointsPerDay != nil {
		if err := t.SetPointsPerDay(ctx, *s.PointsPerDay); err != nil {
			return fmt.Errorf("set points per day: %w", err)
		}
	}
	if s.DailyBonus != nil {
		if err := t.SetDailyBonus(ctx, *s.DailyBonus); err != nil {
			return fmt.Errorf("set daily bonus: %w", err)
		}
	}
	if s.LoyaltyDailyBonus != nil {
		if err := t.SetLoyaltyDailyBonus(ctx, *s.LoyaltyDailyBonus); err != nil {
			return fmt.Errorf("set loyalty daily bonus: %w", err)
		}
	}
	if s.LoyaltyDiscount != nil {
		if err := t.SetLoyaltyDiscount(ctx, *s.LoyaltyDiscount); err != nil {
			return fmt.Errorf("set loyalty discount: %w", err)
		}
	}
	if f.mintExpiry > 0 {
		if err := t.SetMintExpiry(ctx, f.mintExpiry); err != nil {
			return fmt.Errorf("set mint expiry: %w", err)
		}
	}
	if s.StakingOpen != nil {
		if err := t.SetStakingMode(ctx, *s.StakingOpen); err != nil {
			return fmt.Errorf("set staking mode: %w", err)
		}
	}
	if s.MintingOpen != nil {
		if err := t.SetMintingMode(ctx, *s.MintingOpen); err != nil {
			return fmt.Errorf("set minting mode: %w", err)
		}
	}
	return nil
}

// EngineTarget applies a file directly to an engine as caller.
type EngineTarget struct {
	Engine *forge.Engine
	Caller forge.Address
}

func (e EngineTarget) InitializeRollTypes(_ context.Context, tiers []forge.Tier) error {
	return e.Engine.InitializeRollTypes(e.Caller, tiers)
}

func (e EngineTarget) InitializeRarityLevels(_ context.Context, levels []forge.RarityLevel) error {
	return e.Engine.InitializeRarityLevels(e.Caller, levels)
}

func (e EngineTarget) SetStakingMode(_ context.Context, open bool) error {
	return e.Engine.SetStakingMode(e.Caller, open)
}

func (e EngineTarget) SetMintingMode(_ context.Context, open bool) error {
	return e.Engine.SetMintingMode(e.Caller, open)
}

func (e EngineTarget) SetPointsPerDay(_ context.Context, rate uint64) error {
	return e.Engine.SetPointsPerDayPerToken(e.Caller, rate)
}

func (e EngineTarget) SetDailyBonus(_ context.Context, bonus uint64) error {
	return e.Engine.SetDailyBonus(e.Caller, bonus)
}

func (e EngineTarget) SetLoyaltyDailyBonus(_ context.Context, bonus uint64) error {
	return e.Engine.SetLoyaltyDailyBonus(e.Caller, bonus)
}

func (e EngineTarget) SetLoyaltyDiscount(_ context.Context, divisor uint64) error {
	return e.Engine.SetLoyaltyDiscount(e.Caller, divisor)
}

func (e EngineTarget) SetMintExpiry(_ context.Context, expiry time.Duration) error {
	return e.Engine.SetMintExpiry(e.Caller, expiry)
}
