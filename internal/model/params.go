package model

import (
	"math/big"
)

// SwapParams mirrors the ledger's swap request. A negative AmountSpecified is
// an exact-input swap, a positive one is exact-output.
type SwapParams struct {
	ZeroForOne        bool
	AmountSpecified   *big.Int
	SqrtPriceLimitX96 *big.Int
}

// ExactInput reports whether the caller fixed the input amount.
func (p SwapParams) ExactInput() bool {
	return p.AmountSpecified.Sign() < 0
}

// SpecifiedIsToken0 reports whether the fixed amount is denominated in currency0.
func (p SwapParams) SpecifiedIsToken0() bool {
	return p.ExactInput() == p.ZeroForOne
}

// ModifyLiquidityParams mirrors the ledger's liquidity request. A positive
// LiquidityDelta adds liquidity, a negative one removes it.
type ModifyLiquidityParams struct {
	TickLower      int32
	TickUpper      int32
	LiquidityDelta *big.Int
	Salt           [32]byte
}
