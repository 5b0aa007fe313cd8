package memory

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"routedHook/internal/model"
	"routedHook/internal/pairlocator"
)

var (
	ErrPairExists         = errors.New("pair exists")
	ErrUnknownPair        = errors.New("unknown pair")
	ErrInsufficientOutput = errors.New("insufficient output amount")
	ErrInsufficientInput  = errors.New("insufficient input amount")
	ErrPairLiquidity      = errors.New("insufficient pair liquidity")
	ErrInvariant          = errors.New("constant product invariant violated")
)

type pair struct {
	token0   common.Address
	token1   common.Address
	reserve0 *big.Int
	reserve1 *big.Int
}

// PairVenue hosts constant-product pairs at the addresses the locator
// derives. FeeBips is charged on input the way v2 pairs charge 30 bips.
type PairVenue struct {
	bank    *Bank
	locator pairlocator.Locator
	feeBips int64
	pairs   map[common.Address]*pair
}

func NewPairVenue(bank *Bank, locator pairlocator.Locator, feeBips uint32) *PairVenue {
	return &PairVenue{
		bank:    bank,
		locator: locator,
		feeBips: int64(feeBips),
		pairs:   make(map[common.Address]*pair),
	}
}

// Create deploys the pair for a and b at its CREATE2 address.
func (v *PairVenue) Create(a, b model.Currency) (pairlocator.Pair, error) {
	loc, err := v.locator.Locate(a, b)
	if err != nil {
		return pairlocator.Pair{}, err
	}
	if _, ok := v.pairs[loc.Address]; ok {
		return pairlocator.Pair{}, fmt.Errorf("create %s: %w", loc.Address.Hex(), ErrPairExists)
	}
	v.pairs[loc.Address] = &pair{
		token0:   loc.Token0,
		token1:   loc.Token1,
		reserve0: new(big.Int),
		reserve1: new(big.Int),
	}
	return loc, nil
}

// Fund moves tokens from provider into the pair and syncs its reserves.
func (v *PairVenue) Fund(addr, provider common.Address, amount0, amount1 *big.Int) error {
	p, ok := v.pairs[addr]
	if !ok {
		return fmt.Errorf("fund %s: %w", addr.Hex(), ErrUnknownPair)
	}
	if err := v.bank.Transfer(model.Currency{Address: p.token0}, provider, addr, amount0); err != nil {
		return fmt.Errorf("fund token0: %w", err)
	}
	if err := v.bank.Transfer(model.Currency{Address: p.token1}, provider, addr, amount1); err != nil {
		return fmt.Errorf("fund token1: %w", err)
	}
	v.sync(addr, p)
	return nil
}

func (v *PairVenue) Reserves(_ context.Context, addr common.Address) (*big.Int, *big.Int, error) {
	p, ok := v.pairs[addr]
	if !ok {
		return nil, nil, fmt.Errorf("reserves %s: %w", addr.Hex(), ErrUnknownPair)
	}
	return new(big.Int).Set(p.reserve0), new(big.Int).Set(p.reserve1), nil
}

// Swap sends the outputs optimistically, then requires the pair's balances
// to keep the fee-adjusted product at or above the old one.
func (v *PairVenue) Swap(_ context.Context, addr common.Address, amount0Out, amount1Out *big.Int, to common.Address) error {
	p, ok := v.pairs[addr]
	if !ok {
		return fmt.Errorf("swap %s: %w", addr.Hex(), ErrUnknownPair)
	}
	if amount0Out.Sign() <= 0 && amount1Out.Sign() <= 0 {
		return ErrInsufficientOutput
	}
	if amount0Out.Cmp(p.reserve0) >= 0 || amount1Out.Cmp(p.reserve1) >= 0 {
		return ErrPairLiquidity
	}
	if to == p.token0 || to == p.token1 {
		return fmt.Errorf("swap to token address %s", to.Hex())
	}

	if amount0Out.Sign() > 0 {
		if err := v.bank.Transfer(model.Currency{Address: p.token0}, addr, to, amount0Out); err != nil {
			return fmt.Errorf("send token0: %w", err)
		}
	}
	if amount1Out.Sign() > 0 {
		if err := v.bank.Transfer(model.Currency{Address: p.token1}, addr, to, amount1Out); err != nil {
			return fmt.Errorf("send token1: %w", err)
		}
	}

	balance0 := v.bank.BalanceOf(model.Currency{Address: p.token0}, addr)
	balance1 := v.bank.BalanceOf(model.Currency{Address: p.token1}, addr)
	in0 := amountIn(balance0, p.reserve0, amount0Out)
	in1 := amountIn(balance1, p.reserve1, amount1Out)
	if in0.Sign() == 0 && in1.Sign() == 0 {
		return ErrInsufficientInput
	}

	adjusted0 := adjusted(balance0, in0, v.feeBips)
	adjusted1 := adjusted(balance1, in1, v.feeBips)
	k := new(big.Int).Mul(p.reserve0, p.reserve1)
	k.Mul(k, big.NewInt(10000*10000))
	if new(big.Int).Mul(adjusted0, adjusted1).Cmp(k) < 0 {
		return ErrInvariant
	}
	v.sync(addr, p)
	return nil
}

func (v *PairVenue) sync(addr common.Address, p *pair) {
	p.reserve0 = v.bank.BalanceOf(model.Currency{Address: p.token0}, addr)
	p.reserve1 = v.bank.BalanceOf(model.Currency{Address: p.token1}, addr)
}

func amountIn(balance, reserve, out *big.Int) *big.Int {
	left := new(big.Int).Sub(reserve, out)
	if balance.Cmp(left) > 0 {
		return left.Sub(balance, left)
	}
	return new(big.Int)
}

func adjusted(balance, in *big.Int, feeBips int64) *big.Int {
	out := new(big.Int).Mul(balance, big.NewInt(10000))
	return out.Sub(out, new(big.Int).Mul(in, big.NewInt(feeBips)))
}

type venueState map[common.Address]pair

func (v *PairVenue) snapshot() venueState {
	out := make(venueState, len(v.pairs))
	for addr, p := range v.pairs {
		out[addr] = pair{
			token0:   p.token0,
			token1:   p.token1,
			reserve0: new(big.Int).Set(p.reserve0),
			reserve1: new(big.Int).Set(p.reserve1),
		}
	}
	return out
}

func (v *PairVenue) restore(s venueState) {
	v.pairs = make(map[common.Address]*pair, len(s))
	for addr, p := range s {
		cp := p
		cp.reserve0 = new(big.Int).Set(p.reserve0)
		cp.reserve1 = new(big.Int).Set(p.reserve1)
		v.pairs[addr] = &cp
	}
}
