// Package fees derives the dynamic swap fee from the post-swap price and
// splits it between a pool donation and the hook's retained share.
package fees

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/holiman/uint256"

	"routedHook/internal/fixedpoint"
	"routedHook/internal/model"
)

// BipsDenominator is 100% in basis points.
const BipsDenominator = 10000

var ErrInvalidFeeBips = errors.New("retained fee bips out of range")

// Compute values the specified leg of delta at sqrtPriceX96 in the
// unspecified currency and charges the gap to what the swap realized.
// An outgoing specified leg rounds down, an incoming one rounds up.
func Compute(key model.PoolKey, params model.SwapParams, delta model.Delta, sqrtPriceX96 *big.Int, retainedBips uint32) (model.FeeStep, error) {
	price, err := fixedpoint.FromBig(sqrtPriceX96)
	if err != nil {
		return model.FeeStep{}, fmt.Errorf("sqrt price: %w", err)
	}
	specIs0 := params.SpecifiedIsToken0()
	specified := delta.Leg(specIs0)
	unspecified := delta.Leg(!specIs0)

	rounding := fixedpoint.RoundUp
	if specified.Sign() < 0 {
		rounding = fixedpoint.RoundDown
	}
	specAbs, err := fixedpoint.AbsFromBig(specified)
	if err != nil {
		return model.FeeStep{}, err
	}
	quoted, err := fixedpoint.Convert(specAbs, price, specIs0, rounding)
	if err != nil {
		return model.FeeStep{}, fmt.Errorf("quote at post-swap price: %w", err)
	}
	realized, err := fixedpoint.AbsFromBig(unspecified)
	if err != nil {
		return model.FeeStep{}, err
	}

	total := new(uint256.Int)
	if quoted.Gt(realized) {
		total.Sub(quoted, realized)
	} else {
		total.Sub(realized, quoted)
	}
	if params.ExactInput() && total.Gt(realized) {
		total.Set(realized)
	}

	retained, _, err := Split(total, retainedBips)
	if err != nil {
		return model.FeeStep{}, err
	}
	feeAsset := key.Currency1
	if !specIs0 {
		feeAsset = key.Currency0
	}
	return model.FeeStep{
		SqrtPriceX96:       price,
		PreFeeOutputAmount: realized,
		QuotedOutputAmount: quoted,
		TotalFee:           total,
		RetainedFee:        retained,
		FeeAsset:           feeAsset,
	}, nil
}

// Split returns total*bips/10000 rounded down as the retained share and the
// rest as the donation.
func Split(total *uint256.Int, bips uint32) (retained, donated *uint256.Int, err error) {
	if bips > BipsDenominator {
		return nil, nil, fmt.Errorf("%w: %d", ErrInvalidFeeBips, bips)
	}
	retained, err = fixedpoint.MulDiv(total, uint256.NewInt(uint64(bips)), uint256.NewInt(BipsDenominator), fixedpoint.RoundDown)
	if err != nil {
		return nil, nil, err
	}
	return retained, new(uint256.Int).Sub(total, retained), nil
}
