package model

import (
	"errors"
	"fmt"
	"math/big"
)

var (
	// MaxInt128 and MinInt128 bound every delta leg.
	MaxInt128 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 127), big.NewInt(1))
	MinInt128 = new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), 127))
)

// ErrDeltaOverflow is returned when an amount does not fit a signed 128-bit leg.
var ErrDeltaOverflow = errors.New("delta exceeds int128 range")

// Delta is the net balance change of a swap from the caller's side:
// negative amounts are owed by the caller, positive amounts are owed to it.
type Delta struct {
	Amount0 *big.Int
	Amount1 *big.Int
}

// NewDelta copies both legs into a new Delta.
func NewDelta(amount0, amount1 *big.Int) Delta {
	return Delta{
		Amount0: new(big.Int).Set(amount0),
		Amount1: new(big.Int).Set(amount1),
	}
}

// ZeroDelta returns a delta with both legs zero.
func ZeroDelta() Delta {
	return Delta{Amount0: big.NewInt(0), Amount1: big.NewInt(0)}
}

// Add combines two deltas.
func (d Delta) Add(other Delta) Delta {
	return Delta{
		Amount0: new(big.Int).Add(d.Amount0, other.Amount0),
		Amount1: new(big.Int).Add(d.Amount1, other.Amount1),
	}
}

// Sub subtracts other from d.
func (d Delta) Sub(other Delta) Delta {
	return Delta{
		Amount0: new(big.Int).Sub(d.Amount0, other.Amount0),
		Amount1: new(big.Int).Sub(d.Amount1, other.Amount1),
	}
}

// Negate flips the sign of both legs.
func (d Delta) Negate() Delta {
	return Delta{
		Amount0: new(big.Int).Neg(d.Amount0),
		Amount1: new(big.Int).Neg(d.Amount1),
	}
}

// IsZero reports whether both legs are zero.
func (d Delta) IsZero() bool {
	return d.Amount0.Sign() == 0 && d.Amount1.Sign() == 0
}

// Leg returns the amount for currency0 when zero is true, else currency1.
func (d Delta) Leg(zero bool) *big.Int {
	if zero {
		return d.Amount0
	}
	return d.Amount1
}

// Validate checks both legs against the int128 range.
func (d Delta) Validate() error {
	if err := CheckInt128(d.Amount0); err != nil {
		return fmt.Errorf("amount0: %w", err)
	}
	if err := CheckInt128(d.Amount1); err != nil {
		return fmt.Errorf("amount1: %w", err)
	}
	return nil
}

func (d Delta) String() string {
	return fmt.Sprintf("(%s, %s)", d.Amount0, d.Amount1)
}

// CheckInt128 returns ErrDeltaOverflow if v is outside [MinInt128, MaxInt128].
func CheckInt128(v *big.Int) error {
	if v == nil {
		return nil
	}
	if v.Cmp(MaxInt128) > 0 || v.Cmp(MinInt128) < 0 {
		return fmt.Errorf("%w: %s", ErrDeltaOverflow, v)
	}
	return nil
}

// DeltaFromSpecified arranges specified/unspecified legs into currency order.
func DeltaFromSpecified(specifiedIsToken0 bool, specified, unspecified *big.Int) Delta {
	if specifiedIsToken0 {
		return NewDelta(specified, unspecified)
	}
	return NewDelta(unspecified, specified)
}
