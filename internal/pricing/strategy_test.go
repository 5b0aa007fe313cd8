package pricing

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"routedHook/internal/model"
	"routedHook/internal/pairlocator"
)

type fakeReader struct {
	reserves map[common.Address][2]*big.Int
	err      error
}

func (f fakeReader) Reserves(_ context.Context, pair common.Address) (*big.Int, *big.Int, error) {
	if f.err != nil {
		return nil, nil, f.err
	}
	r, ok := f.reserves[pair]
	if !ok {
		return big.NewInt(0), big.NewInt(0), nil
	}
	return r[0], r[1], nil
}

var (
	testWrapped = common.HexToAddress("0x00000000000000000000000000000000000000ee")
	testToken   = common.HexToAddress("0x0000000000000000000000000000000000000011")
	testLocator = pairlocator.New(
		common.HexToAddress("0x00000000000000000000000000000000000000fa"),
		common.HexToHash("0x01"),
		testWrapped,
	)
)

func TestExternalPoolExactInput(t *testing.T) {
	key := model.PoolKey{Currency0: model.Currency{Address: testToken}, Currency1: model.Currency{Address: testWrapped}}
	pair, err := testLocator.Locate(key.Currency0, key.Currency1)
	if err != nil {
		t.Fatalf("locate: %v", err)
	}
	reader := fakeReader{reserves: map[common.Address][2]*big.Int{
		pair.Address: {big.NewInt(1000), big.NewInt(1000)},
	}}

	s := NewExternalPool(testLocator, reader)
	q, err := s.Quote(context.Background(), Request{Key: key, ZeroForOne: true, ExactInput: true, Amount: u(100)})
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if !q.Routed || q.Flipped {
		t.Fatalf("unexpected quote shape: %+v", q)
	}
	if q.AmountIn.Uint64() != 100 || q.AmountOut.Uint64() != 83 {
		t.Fatalf("quote amounts in=%s out=%s", q.AmountIn.Dec(), q.AmountOut.Dec())
	}
	out0, out1 := q.PairOutputs(true)
	if out0.Sign() != 0 || out1.Int64() != 83 {
		t.Fatalf("pair outputs %s %s", out0, out1)
	}
}

func TestExternalPoolNativeFlipped(t *testing.T) {
	// native sorts first in the ledger but its wrapped token sorts last in the pair
	key := model.PoolKey{Currency0: model.NativeCurrency, Currency1: model.Currency{Address: testToken}}
	pair, err := testLocator.Locate(key.Currency0, key.Currency1)
	if err != nil {
		t.Fatalf("locate: %v", err)
	}
	reader := fakeReader{reserves: map[common.Address][2]*big.Int{
		// pair order: token, wrapped
		pair.Address: {big.NewInt(4000), big.NewInt(1000)},
	}}

	s := NewExternalPool(testLocator, reader)
	q, err := s.Quote(context.Background(), Request{Key: key, ZeroForOne: true, ExactInput: false, Amount: u(100)})
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if !q.Flipped {
		t.Fatalf("expected flipped quote")
	}
	if q.Reserve0.Uint64() != 1000 || q.Reserve1.Uint64() != 4000 {
		t.Fatalf("reserves not in ledger order: %s %s", q.Reserve0.Dec(), q.Reserve1.Dec())
	}
	// 1000*100/(4000-200) = 26.3 -> 26, plus one
	if q.AmountIn.Uint64() != 27 {
		t.Fatalf("amount in %s want 27", q.AmountIn.Dec())
	}
	out0, out1 := q.PairOutputs(true)
	if out0.Int64() != 100 || out1.Sign() != 0 {
		t.Fatalf("pair outputs %s %s", out0, out1)
	}
}

func TestExternalPoolEmptyPair(t *testing.T) {
	key := model.PoolKey{Currency0: model.Currency{Address: testToken}, Currency1: model.Currency{Address: testWrapped}}
	s := NewExternalPool(testLocator, fakeReader{})
	_, err := s.Quote(context.Background(), Request{Key: key, ZeroForOne: true, ExactInput: true, Amount: u(1)})
	if !errors.Is(err, ErrInsufficientLiquidity) {
		t.Fatalf("expected insufficient liquidity, got %v", err)
	}
}

func TestExternalPoolReaderError(t *testing.T) {
	boom := errors.New("rpc down")
	key := model.PoolKey{Currency0: model.Currency{Address: testToken}, Currency1: model.Currency{Address: testWrapped}}
	s := NewExternalPool(testLocator, fakeReader{err: boom})
	if _, err := s.Quote(context.Background(), Request{Key: key, ZeroForOne: true, ExactInput: true, Amount: u(1)}); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped reader error, got %v", err)
	}
}

func TestNewStrategy(t *testing.T) {
	s, err := NewStrategy(StrategyThrottleOnly, testLocator, nil)
	if err != nil {
		t.Fatalf("new strategy: %v", err)
	}
	q, err := s.Quote(context.Background(), Request{})
	if err != nil || q.Routed {
		t.Fatalf("throttle only quote %+v err %v", q, err)
	}
	if _, err := NewStrategy(StrategyExternalPool, testLocator, nil); err == nil {
		t.Fatalf("expected error without reader")
	}
	if _, err := NewStrategy("bogus", testLocator, nil); err == nil {
		t.Fatalf("expected error for unknown strategy")
	}
}
