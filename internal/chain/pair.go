package chain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

// RPCPair reads constant-product pair state over eth_call. It is read-only:
// it serves quotes, never swaps.
type RPCPair struct {
	caller Caller
	retry  RetryPolicy
	block  *big.Int
	logger *zap.Logger
}

// NewRPCPair builds a reader. A nil block reads the latest state.
func NewRPCPair(caller Caller, retry RetryPolicy, block *big.Int, logger *zap.Logger) *RPCPair {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RPCPair{caller: caller, retry: retry, block: block, logger: logger}
}

// Reserves returns the pair's reserves in pair token order.
func (p *RPCPair) Reserves(ctx context.Context, pair common.Address) (*big.Int, *big.Int, error) {
	parsed, err := PairABI()
	if err != nil {
		return nil, nil, fmt.Errorf("parse pair abi: %w", err)
	}

	var values []interface{}
	err = p.retry.Do(ctx, func(ctx context.Context) error {
		var callErr error
		values, callErr = callMethod(ctx, p.caller, pair, parsed, "getReserves", p.block)
		if callErr != nil {
			p.logger.Debug("getReserves failed", zap.String("pair", pair.Hex()), zap.Error(callErr))
		}
		return callErr
	})
	if err != nil {
		return nil, nil, fmt.Errorf("reserves of %s: %w", pair.Hex(), err)
	}
	if len(values) < 2 {
		return nil, nil, fmt.Errorf("reserves of %s: short response", pair.Hex())
	}
	reserve0, err := asBigInt(values[0])
	if err != nil {
		return nil, nil, fmt.Errorf("reserve0: %w", err)
	}
	reserve1, err := asBigInt(values[1])
	if err != nil {
		return nil, nil, fmt.Errorf("reserve1: %w", err)
	}
	return reserve0, reserve1, nil
}

// Tokens returns the pair's token0 and token1 as reported by the contract.
func (p *RPCPair) Tokens(ctx context.Context, pair common.Address) (common.Address, common.Address, error) {
	parsed, err := PairABI()
	if err != nil {
		return common.Address{}, common.Address{}, fmt.Errorf("parse pair abi: %w", err)
	}

	var tokens [2]common.Address
	for i, method := range []string{"token0", "token1"} {
		var values []interface{}
		err := p.retry.Do(ctx, func(ctx context.Context) error {
			var callErr error
			values, callErr = callMethod(ctx, p.caller, pair, parsed, method, p.block)
			return callErr
		})
		if err != nil {
			return common.Address{}, common.Address{}, err
		}
		tokens[i], err = asAddress(values[0])
		if err != nil {
			return common.Address{}, common.Address{}, fmt.Errorf("%s: %w", method, err)
		}
	}
	return tokens[0], tokens[1], nil
}
