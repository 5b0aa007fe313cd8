package memory

import (
	"math"
	"math/big"
)

var (
	q96  = new(big.Int).Lsh(big.NewInt(1), 96)
	q128 = new(big.Int).Lsh(big.NewInt(1), 128)

	minSqrtPrice = big.NewInt(4295128739)
	maxSqrtPrice = mustBig("1461446703485210103287273052203988822378723970342")
)

const (
	MinTick = -887272
	MaxTick = 887272
)

func mustBig(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic("memory: bad constant " + s)
	}
	return v
}

func divUp(x, y *big.Int) *big.Int {
	q, r := new(big.Int).QuoRem(x, y, new(big.Int))
	if r.Sign() > 0 {
		q.Add(q, big.NewInt(1))
	}
	return q
}

func mulDiv(x, y, d *big.Int, up bool) *big.Int {
	p := new(big.Int).Mul(x, y)
	if up {
		return divUp(p, d)
	}
	return p.Quo(p, d)
}

// amount0For returns liquidity*2^96/sqrtPrice, the virtual currency0 reserve.
func amount0For(liquidity, sqrtPrice *big.Int, up bool) *big.Int {
	return mulDiv(liquidity, q96, sqrtPrice, up)
}

// amount1For returns liquidity*sqrtPrice/2^96, the virtual currency1 reserve.
func amount1For(liquidity, sqrtPrice *big.Int, up bool) *big.Int {
	return mulDiv(liquidity, sqrtPrice, q96, up)
}

// amount0Between is the currency0 needed to move between two prices.
func amount0Between(liquidity, lower, upper *big.Int, up bool) *big.Int {
	num := new(big.Int).Lsh(liquidity, 96)
	num.Mul(num, new(big.Int).Sub(upper, lower))
	return mulDiv(num, big.NewInt(1), new(big.Int).Mul(lower, upper), up)
}

// amount1Between is the currency1 needed to move between two prices.
func amount1Between(liquidity, lower, upper *big.Int, up bool) *big.Int {
	return mulDiv(liquidity, new(big.Int).Sub(upper, lower), q96, up)
}

// tickAt approximates the tick of a sqrt price.
func tickAt(sqrtPrice *big.Int) int32 {
	f, _ := new(big.Float).Quo(new(big.Float).SetInt(sqrtPrice), new(big.Float).SetInt(q96)).Float64()
	if f <= 0 {
		return MinTick
	}
	tick := math.Floor(2 * math.Log(f) / math.Log(1.0001))
	if tick < MinTick {
		return MinTick
	}
	if tick > MaxTick {
		return MaxTick
	}
	return int32(tick)
}
