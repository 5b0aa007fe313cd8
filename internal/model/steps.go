package model

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// SwapStep is the working record of one routed swap. It lives for a single
// BeforeSwap call.
type SwapStep struct {
	ExactInput        bool
	SpecifiedIsToken0 bool
	SpecifiedAsset    Currency
	UnspecifiedAsset  Currency
	SpecifiedAmount   *uint256.Int
	UnspecifiedAmount *uint256.Int
	ExternalPool      common.Address
	Reserve0          *uint256.Int
	Reserve1          *uint256.Int
	ReturnDelta       Delta
}

// FeeStep is the working record of one post-swap fee computation.
// RetainedFee never exceeds TotalFee.
type FeeStep struct {
	SqrtPriceX96       *uint256.Int
	PreFeeOutputAmount *uint256.Int
	QuotedOutputAmount *uint256.Int
	TotalFee           *uint256.Int
	RetainedFee        *uint256.Int
	FeeAsset           Currency
}

// DonatedFee is the part of TotalFee returned to liquidity providers.
func (f FeeStep) DonatedFee() *uint256.Int {
	return new(uint256.Int).Sub(f.TotalFee, f.RetainedFee)
}
