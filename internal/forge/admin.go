package forge

import (
	"fmt"
	"time"
)

// InitializeTierTypes replaces the tier table. Every tier must carry weights summing to the
// probability total, all of the same length.
func (e *Engine) InitializeTierTypes(caller Address, tiers []Tier) error {
	return e.initializeTiers(caller, tiers, EventTierTypesInitialized)
}

// InitializeRollTypes is InitializeTierTypes under its deployment-script name.
func (e *Engine) InitializeRollTypes(caller Address, tiers []Tier) error {
	return e.initializeTiers(caller, tiers, EventRollTypesInitialized)
}

func (e *Engine) initializeTiers(caller Address, tiers []Tier, evType EventType) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	if err := validateTiers(tiers, e.st.Settings.ProbabilityTotal); err != nil {
		return err
	}
	if width := len(tiers[0].Probabilities); len(e.st.Levels) > 0 && width != len(e.st.Levels) {
		return fmt.Errorf("%w: %d weights, %d rarity levels", ErrConfigMismatch, width, len(e.st.Levels))
	}
	e.st.Tiers = cloneTiers(tiers)
	b := e.batch()
	b.add(Event{Type: evType, Value: uint64(len(tiers))})
	e.commit(b)
	return nil
}

// InitializeRarityLevels replaces the rarity table. Tiers must already exist and their weight
// vectors must have one entry per level.
func (e *Engine) InitializeRarityLevels(caller Address, levels []RarityLevel) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	if len(e.st.Tiers) == 0 {
		return ErrRollsNotInitialized
	}
	if width := len(e.st.Tiers[0].Probabilities); len(levels) != width {
		return fmt.Errorf("%w: %d rarity levels, %d weights", ErrConfigMismatch, len(levels), width)
	}
	if err := validateLevels(levels); err != nil {
		return err
	}
	e.st.Levels = append([]RarityLevel(nil), levels...)
	b := e.batch()
	b.add(Event{Type: EventRarityLevelsInitialized, Value: uint64(len(levels))})
	e.commit(b)
	return nil
}

func (e *Engine) SetStakingMode(caller Address, open bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	e.st.Settings.StakingOpen = open
	b := e.batch()
	b.add(Event{Type: EventStakingModeUpdated, Enabled: open})
	e.commit(b)
	return nil
}

func (e *Engine) SetMintingMode(caller Address, open bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	e.st.Settings.MintingOpen = open
	b := e.batch()
	b.add(Event{Type: EventMintingModeUpdated, Enabled: open})
	e.commit(b)
	return nil
}

// SetProvider changes the oracle provider passed along with every randomness request.
func (e *Engine) SetProvider(caller, provider Address) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	if provider.IsZero() {
		return ErrInvalidAddress
	}
	e.st.Settings.Provider = provider
	b := e.batch()
	b.add(Event{Type: EventProviderUpdated, Target: provider})
	e.commit(b)
	return nil
}

// SetRewardContract changes the collection finalized requests are minted on.
func (e *Engine) SetRewardContract(caller, contract Address) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	if contract.IsZero() {
		return ErrInvalidAddress
	}
	e.st.Settings.RewardContract = contract
	b := e.batch()
	b.add(Event{Type: EventDwaginzContractUpdated, Target: contract})
	e.commit(b)
	return nil
}

func (e *Engine) SetDailyBonus(caller Address, bonus uint64) error {
	return e.updateSettings(caller, func(s *Settings) error {
		s.DailyBonus = bonus
		return nil
	})
}

func (e *Engine) SetLoyaltyDailyBonus(caller Address, bonus uint64) error {
	return e.updateSettings(caller, func(s *Settings) error {
		s.LoyaltyDailyBonus = bonus
		return nil
	})
}

// SetLoyaltyDiscount sets the discount divisor. Zero disables the discount.
func (e *Engine) SetLoyaltyDiscount(caller Address, divisor uint64) error {
	return e.updateSettings(caller, func(s *Settings) error {
		s.LoyaltyDiscount = divisor
		return nil
	})
}

func (e *Engine) SetMintExpiry(caller Address, expiry time.Duration) error {
	return e.updateSettings(caller, func(s *Settings) error {
		if expiry < time.Second {
			return fmt.Errorf("%w: mint expiry must be at least one second", ErrInvalidConfig)
		}
		s.MintExpirySeconds = int64(expiry / time.Second)
		return nil
	})
}

func (e *Engine) updateSettings(caller Address, apply func(*Settings) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	next := e.st.Settings
	if err := apply(&next); err != nil {
		return err
	}
	e.st.Settings = next
	return nil
}

func (e *Engine) Settings() Settings {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.st.Settings
}

func (e *Engine) Tiers() []Tier {
	e.mu.Lock()
	defer e.mu.Unlock()
	return cloneTiers(e.st.Tiers)
}

func (e *Engine) RarityLevels() []RarityLevel {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]RarityLevel{}, e.st.Levels...)
}

func cloneTiers(tiers []Tier) []Tier {
	out := make([]Tier, len(tiers))
	for i, t := range tiers {
		out[i] = Tier{Price: t.Price, Probabilities: append([]uint64(nil), t.Probabilities...)}
	}
	return out
}
