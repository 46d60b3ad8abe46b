package forge

import (
	"math/big"
	"math/bits"
)

// SelectLevel picks a rarity level for a delivered random value. Exhausted levels are dropped from
// both the modulus and the running sum, so their weight is shared by the remaining levels in
// proportion. It returns -1 when no level with weight has capacity left, or when the available
// weight does not fit in 64 bits.
func SelectLevel(weights []uint64, levels []RarityLevel, random Randomness) int {
	n := min(len(weights), len(levels))
	var available, carry uint64
	for i := 0; i < n; i++ {
		if levels[i].Remaining() > 0 {
			available, carry = bits.Add64(available, weights[i], 0)
			if carry != 0 {
				return -1
			}
		}
	}
	if available == 0 {
		return -1
	}
	roll := random.Mod(available)
	var cumulative uint64
	for i := 0; i < n; i++ {
		if levels[i].Remaining() == 0 {
			continue
		}
		cumulative += weights[i]
		if roll < cumulative {
			return i
		}
	}
	return -1
}

// LoyaltyDiscount is price*100*units/divisor, capped at half the price. The product is computed
// without wrapping.
func LoyaltyDiscount(price, units, divisor uint64) uint64 {
	if divisor == 0 || units == 0 {
		return 0
	}
	discount := new(big.Int).SetUint64(price)
	discount.Mul(discount, big.NewInt(100))
	discount.Mul(discount, new(big.Int).SetUint64(units))
	discount.Quo(discount, new(big.Int).SetUint64(divisor))
	limit := price / 2
	if !discount.IsUint64() || discount.Uint64() > limit {
		return limit
	}
	return discount.Uint64()
}

// DiscountedPrice is what a holder of units loyalty tokens is charged for price.
func DiscountedPrice(price, units, divisor uint64) uint64 {
	return price - LoyaltyDiscount(price, units, divisor)
}

func remainingSupply(levels []RarityLevel) uint64 {
	var total uint64
	for _, l := range levels {
		total += l.Remaining()
	}
	return total
}

func validateTiers(tiers []Tier, total uint64) error {
	if len(tiers) == 0 {
		return ErrInvalidConfig
	}
	width := len(tiers[0].Probabilities)
	for _, t := range tiers {
		if len(t.Probabilities) != width {
			return ErrConfigMismatch
		}
		var sum uint64
		for _, w := range t.Probabilities {
			if w > total-sum {
				return ErrInvalidProbabilitySum
			}
			sum += w
		}
		if sum != total {
			return ErrInvalidProbabilitySum
		}
	}
	return nil
}

func validateLevels(levels []RarityLevel) error {
	for _, l := range levels {
		if l.Minted > l.MaxSupply {
			return ErrInvalidConfig
		}
	}
	return nil
}
