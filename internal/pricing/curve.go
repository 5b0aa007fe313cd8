// Package pricing quotes routed swaps against an external constant-product
// pair.
package pricing

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"

	"routedHook/internal/fixedpoint"
)

var (
	ErrInsufficientLiquidity = errors.New("insufficient liquidity")
	ErrAmountOverflow        = errors.New("amount overflow")
)

// AmountOut returns reserveOut*amountIn / (2*amountIn + reserveIn), rounded
// down.
func AmountOut(amountIn, reserveIn, reserveOut *uint256.Int) (*uint256.Int, error) {
	if reserveIn.IsZero() || reserveOut.IsZero() {
		return nil, ErrInsufficientLiquidity
	}
	twice, overflow := new(uint256.Int).AddOverflow(amountIn, amountIn)
	if overflow {
		return nil, fmt.Errorf("%w: input %s", ErrAmountOverflow, amountIn.Dec())
	}
	denominator, overflow := new(uint256.Int).AddOverflow(twice, reserveIn)
	if overflow {
		return nil, fmt.Errorf("%w: input %s", ErrAmountOverflow, amountIn.Dec())
	}
	out, err := fixedpoint.MulDiv(reserveOut, amountIn, denominator, fixedpoint.RoundDown)
	if err != nil {
		return nil, fmt.Errorf("amount out: %w", err)
	}
	return out, nil
}

// AmountIn returns reserveIn*amountOut / (reserveOut - 2*amountOut) + 1.
func AmountIn(amountOut, reserveIn, reserveOut *uint256.Int) (*uint256.Int, error) {
	if reserveIn.IsZero() || reserveOut.IsZero() {
		return nil, ErrInsufficientLiquidity
	}
	twice, overflow := new(uint256.Int).AddOverflow(amountOut, amountOut)
	if overflow || !reserveOut.Gt(twice) {
		return nil, fmt.Errorf("%w: output %s against reserve %s", ErrInsufficientLiquidity, amountOut.Dec(), reserveOut.Dec())
	}
	denominator := new(uint256.Int).Sub(reserveOut, twice)
	in, err := fixedpoint.MulDiv(reserveIn, amountOut, denominator, fixedpoint.RoundDown)
	if err != nil {
		return nil, fmt.Errorf("amount in: %w", err)
	}
	if _, overflow := in.AddOverflow(in, uint256.NewInt(1)); overflow {
		return nil, fmt.Errorf("%w: output %s", ErrAmountOverflow, amountOut.Dec())
	}
	return in, nil
}
