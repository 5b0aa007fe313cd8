package fixedpoint

import (
	"fmt"

	"github.com/holiman/uint256"
)

// PriceX128 returns sqrtPriceX96² as a Q128.128 price of currency0 in
// currency1.
func PriceX128(sqrtPriceX96 *uint256.Int, rounding Rounding) (*uint256.Int, error) {
	if sqrtPriceX96.Lt(MinSqrtPriceX96) || !sqrtPriceX96.Lt(MaxSqrtPriceX96) {
		return nil, fmt.Errorf("sqrt price %s out of range", sqrtPriceX96.Dec())
	}
	return MulDiv(sqrtPriceX96, sqrtPriceX96, Q64, rounding)
}

// Amount0ToAmount1 values amount0 of currency0 in currency1 at sqrtPriceX96.
func Amount0ToAmount1(amount0, sqrtPriceX96 *uint256.Int, rounding Rounding) (*uint256.Int, error) {
	price, err := PriceX128(sqrtPriceX96, rounding)
	if err != nil {
		return nil, err
	}
	return MulDiv(amount0, price, Q128, rounding)
}

// Amount1ToAmount0 values amount1 of currency1 in currency0 at sqrtPriceX96.
func Amount1ToAmount0(amount1, sqrtPriceX96 *uint256.Int, rounding Rounding) (*uint256.Int, error) {
	// the price is the divisor, so it rounds against the result
	price, err := PriceX128(sqrtPriceX96, rounding.Opposite())
	if err != nil {
		return nil, err
	}
	return MulDiv(amount1, Q128, price, rounding)
}

// Convert values amount of the given side in the other currency.
func Convert(amount, sqrtPriceX96 *uint256.Int, fromToken0 bool, rounding Rounding) (*uint256.Int, error) {
	if fromToken0 {
		return Amount0ToAmount1(amount, sqrtPriceX96, rounding)
	}
	return Amount1ToAmount0(amount, sqrtPriceX96, rounding)
}
