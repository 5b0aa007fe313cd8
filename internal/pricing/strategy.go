package pricing

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"routedHook/internal/fixedpoint"
	"routedHook/internal/model"
	"routedHook/internal/pairlocator"
)

const (
	StrategyExternalPool = "external_pool"
	StrategyThrottleOnly = "throttle_only"
)

// Request describes the swap to quote. Amount is the absolute specified amount.
type Request struct {
	Key        model.PoolKey
	ZeroForOne bool
	ExactInput bool
	Amount     *uint256.Int
}

// Quote is a strategy's answer. Unrouted quotes leave the swap to the ledger.
// Reserves are in ledger currency order.
type Quote struct {
	Routed    bool
	Pair      pairlocator.Pair
	Flipped   bool
	Reserve0  *uint256.Int
	Reserve1  *uint256.Int
	AmountIn  *uint256.Int
	AmountOut *uint256.Int
}

// PairOutputs returns the quoted output as (amount0Out, amount1Out) in the
// external pair's token order.
func (q Quote) PairOutputs(zeroForOne bool) (*big.Int, *big.Int) {
	zero := new(big.Int)
	out := q.AmountOut.ToBig()
	// in ledger order the output is currency1 for zeroForOne
	outIsPairToken1 := zeroForOne != q.Flipped
	if outIsPairToken1 {
		return zero, out
	}
	return out, zero
}

// Strategy decides whether and how a swap is re-priced.
type Strategy interface {
	Name() string
	Quote(ctx context.Context, req Request) (Quote, error)
}

// ReserveReader reads an external pair's reserves in pair token order.
type ReserveReader interface {
	Reserves(ctx context.Context, pair common.Address) (reserve0, reserve1 *big.Int, err error)
}

// ExternalPool prices every swap against the pair located from the pool's
// currencies.
type ExternalPool struct {
	locator pairlocator.Locator
	reader  ReserveReader
}

func NewExternalPool(locator pairlocator.Locator, reader ReserveReader) *ExternalPool {
	return &ExternalPool{locator: locator, reader: reader}
}

func (s *ExternalPool) Name() string { return StrategyExternalPool }

func (s *ExternalPool) Quote(ctx context.Context, req Request) (Quote, error) {
	pair, err := s.locator.Locate(req.Key.Currency0, req.Key.Currency1)
	if err != nil {
		return Quote{}, err
	}
	raw0, raw1, err := s.reader.Reserves(ctx, pair.Address)
	if err != nil {
		return Quote{}, fmt.Errorf("read reserves %s: %w", pair.Address.Hex(), err)
	}
	flipped := s.locator.Flipped(pair, req.Key)
	if flipped {
		raw0, raw1 = raw1, raw0
	}
	reserve0, err := fixedpoint.FromBig(raw0)
	if err != nil {
		return Quote{}, fmt.Errorf("reserve0: %w", err)
	}
	reserve1, err := fixedpoint.FromBig(raw1)
	if err != nil {
		return Quote{}, fmt.Errorf("reserve1: %w", err)
	}

	reserveIn, reserveOut := reserve0, reserve1
	if !req.ZeroForOne {
		reserveIn, reserveOut = reserve1, reserve0
	}

	q := Quote{
		Routed:   true,
		Pair:     pair,
		Flipped:  flipped,
		Reserve0: reserve0,
		Reserve1: reserve1,
	}
	if req.ExactInput {
		q.AmountIn = new(uint256.Int).Set(req.Amount)
		q.AmountOut, err = AmountOut(req.Amount, reserveIn, reserveOut)
	} else {
		q.AmountOut = new(uint256.Int).Set(req.Amount)
		q.AmountIn, err = AmountIn(req.Amount, reserveIn, reserveOut)
	}
	if err != nil {
		return Quote{}, err
	}
	return q, nil
}

// ThrottleOnly never re-prices; the ledger's own curve fills the swap and
// only the throttle and fee apply.
type ThrottleOnly struct{}

func (ThrottleOnly) Name() string { return StrategyThrottleOnly }

func (ThrottleOnly) Quote(context.Context, Request) (Quote, error) {
	return Quote{}, nil
}

// NewStrategy builds a strategy by name. reader may be nil for throttle_only.
func NewStrategy(name string, locator pairlocator.Locator, reader ReserveReader) (Strategy, error) {
	switch name {
	case StrategyExternalPool, "":
		if reader == nil {
			return nil, fmt.Errorf("strategy %s requires a reserve reader", StrategyExternalPool)
		}
		return NewExternalPool(locator, reader), nil
	case StrategyThrottleOnly:
		return ThrottleOnly{}, nil
	default:
		return nil, fmt.Errorf("unknown pricing strategy %q", name)
	}
}
