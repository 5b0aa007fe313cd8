// Package fixedpoint implements 256-bit multiply-divide with an explicit
// rounding direction and the sqrt-price conversions built on it.
package fixedpoint

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/holiman/uint256"
)

// Rounding selects the direction of an inexact division.
type Rounding uint8

const (
	RoundDown Rounding = iota
	RoundUp
)

func (r Rounding) String() string {
	if r == RoundUp {
		return "up"
	}
	return "down"
}

// Opposite returns the other rounding direction.
func (r Rounding) Opposite() Rounding {
	if r == RoundUp {
		return RoundDown
	}
	return RoundUp
}

var (
	ErrDivisionByZero = errors.New("division by zero")
	ErrOverflow       = errors.New("uint256 overflow")
	ErrNegative       = errors.New("negative value")
)

var (
	Q64  = new(uint256.Int).Lsh(uint256.NewInt(1), 64)
	Q96  = new(uint256.Int).Lsh(uint256.NewInt(1), 96)
	Q128 = new(uint256.Int).Lsh(uint256.NewInt(1), 128)

	// MinSqrtPriceX96 and MaxSqrtPriceX96 bound a valid Q64.96 sqrt price.
	MinSqrtPriceX96 = uint256.NewInt(4295128739)
	MaxSqrtPriceX96 = mustDecimal("1461446703485210103287273052203988822378723970342")
)

func mustDecimal(s string) *uint256.Int {
	b, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic("fixedpoint: bad constant " + s)
	}
	v, overflow := uint256.FromBig(b)
	if overflow {
		panic("fixedpoint: constant overflows 256 bits " + s)
	}
	return v
}

// MulDiv returns x*y/d computed over a 512-bit intermediate, rounded in the
// requested direction.
func MulDiv(x, y, d *uint256.Int, rounding Rounding) (*uint256.Int, error) {
	if d.IsZero() {
		return nil, ErrDivisionByZero
	}
	z, overflow := new(uint256.Int).MulDivOverflow(x, y, d)
	if overflow {
		return nil, fmt.Errorf("%w: %s*%s/%s", ErrOverflow, x.Dec(), y.Dec(), d.Dec())
	}
	if rounding == RoundUp && !new(uint256.Int).MulMod(x, y, d).IsZero() {
		if z.Eq(maxUint256) {
			return nil, fmt.Errorf("%w: rounding up %s", ErrOverflow, z.Dec())
		}
		z.AddUint64(z, 1)
	}
	return z, nil
}

var maxUint256 = new(uint256.Int).SetAllOne()

// FromBig converts a non-negative big.Int that fits in 256 bits.
func FromBig(v *big.Int) (*uint256.Int, error) {
	if v == nil {
		return new(uint256.Int), nil
	}
	if v.Sign() < 0 {
		return nil, fmt.Errorf("%w: %s", ErrNegative, v)
	}
	z, overflow := uint256.FromBig(v)
	if overflow {
		return nil, fmt.Errorf("%w: %s", ErrOverflow, v)
	}
	return z, nil
}

// AbsFromBig converts |v| to a uint256.
func AbsFromBig(v *big.Int) (*uint256.Int, error) {
	return FromBig(new(big.Int).Abs(v))
}
