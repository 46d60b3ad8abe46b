package forge

import (
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"
)

// Address identifies an account or a contract. Addresses are stored lower-case.
type Address string

const ZeroAddress Address = "0x0000000000000000000000000000000000000000"

func ParseAddress(s string) (Address, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	if len(v) != 42 || !strings.HasPrefix(v, "0x") {
		return "", fmt.Errorf("%w: %q", ErrInvalidAddress, s)
	}
	if _, err := hex.DecodeString(v[2:]); err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidAddress, s)
	}
	return Address(v), nil
}

func MustAddress(s string) Address {
	a, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return a
}

func (a Address) IsZero() bool {
	return a == "" || a == ZeroAddress
}

func (a Address) String() string {
	return string(a)
}

// Randomness is a 256-bit value delivered by the oracle.
type Randomness [32]byte

func RandomnessFromUint64(v uint64) Randomness {
	var r Randomness
	new(big.Int).SetUint64(v).FillBytes(r[:])
	return r
}

// ParseRandomness accepts a decimal number or a 0x-prefixed hex string of up to 32 bytes.
func ParseRandomness(s string) (Randomness, error) {
	var r Randomness
	v := strings.TrimSpace(s)
	if v == "" {
		return r, errors.New("empty randomness")
	}
	n := new(big.Int)
	base := 10
	if strings.HasPrefix(v, "0x") || strings.HasPrefix(v, "0X") {
		v = v[2:]
		base = 16
	}
	if _, ok := n.SetString(v, base); !ok || n.Sign() < 0 {
		return r, fmt.Errorf("invalid randomness %q", s)
	}
	if n.BitLen() > 256 {
		return r, fmt.Errorf("randomness %q exceeds 256 bits", s)
	}
	n.FillBytes(r[:])
	return r, nil
}

func (r Randomness) Big() *big.Int {
	return new(big.Int).SetBytes(r[:])
}

// Mod reduces the value modulo n. n must be positive.
func (r Randomness) Mod(n uint64) uint64 {
	return new(big.Int).Mod(r.Big(), new(big.Int).SetUint64(n)).Uint64()
}

func (r Randomness) String() string {
	return "0x" + hex.EncodeToString(r[:])
}

func (r Randomness) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *Randomness) UnmarshalText(b []byte) error {
	v, err := ParseRandomness(string(b))
	if err != nil {
		return err
	}
	*r = v
	return nil
}
