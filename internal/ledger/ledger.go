// Package ledger declares the collaborators the hook settles through.
package ledger

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"routedHook/internal/model"
)

// Ledger is the host exchange ledger holding pool reserves and per-account
// deltas. Take and Donate increase what the caller owes; Settle pays it down.
type Ledger interface {
	Address() common.Address
	BlockNumber() uint64

	// Take sends amount of currency from the ledger to to and debits caller.
	Take(caller common.Address, currency model.Currency, to common.Address, amount *big.Int) error
	// Sync snapshots the ledger's balance of currency before an ERC-20 settle.
	Sync(currency model.Currency) error
	// Settle credits payer for value native units, or for the ERC-20 amount
	// received since the last Sync. It returns the credited amount.
	Settle(payer common.Address, currency model.Currency, value *big.Int) (*big.Int, error)
	Donate(caller common.Address, key model.PoolKey, amount0, amount1 *big.Int) error

	Slot0(id model.PoolID) (sqrtPriceX96 *big.Int, tick int32, err error)
	Liquidity(id model.PoolID) (*big.Int, error)
}

// ReferencePools is the venue of external constant-product pairs.
type ReferencePools interface {
	Reserves(ctx context.Context, pair common.Address) (reserve0, reserve1 *big.Int, err error)
	// Swap sends the requested outputs to to, after the inputs were
	// transferred to the pair.
	Swap(ctx context.Context, pair common.Address, amount0Out, amount1Out *big.Int, to common.Address) error
}

// Assets moves fungible balances between accounts.
type Assets interface {
	Transfer(currency model.Currency, from, to common.Address, amount *big.Int) error
	BalanceOf(currency model.Currency, owner common.Address) *big.Int
}

// WrappedNative converts between the native asset and its wrapped token.
type WrappedNative interface {
	Address() common.Address
	Deposit(from common.Address, amount *big.Int) error
	Withdraw(from common.Address, amount *big.Int) error
}

// ShareToken is the per-pool liquidity share token. Only the hook mints
// and burns.
type ShareToken interface {
	Address() common.Address
	Mint(to common.Address, amount *big.Int) error
	Burn(from common.Address, amount *big.Int) error
	BalanceOf(owner common.Address) *big.Int
	TotalSupply() *big.Int
}

// ShareTokenFactory deploys one share token per pool.
type ShareTokenFactory interface {
	Deploy(id model.PoolID) (ShareToken, error)
	Lookup(token common.Address) (ShareToken, bool)
}

// Hooks are the callbacks a ledger makes into a pool's hook. BeforeSwap
// returns the part of the swapper's delta the hook filled; AfterSwap returns
// an extra charge on the unspecified currency.
type Hooks interface {
	AfterInitialize(ctx context.Context, sender common.Address, key model.PoolKey, sqrtPriceX96 *big.Int) error
	BeforeAddLiquidity(ctx context.Context, sender common.Address, key model.PoolKey, params model.ModifyLiquidityParams) error
	BeforeRemoveLiquidity(ctx context.Context, sender common.Address, key model.PoolKey, params model.ModifyLiquidityParams) error
	BeforeSwap(ctx context.Context, sender common.Address, key model.PoolKey, params model.SwapParams) (model.Delta, error)
	AfterSwap(ctx context.Context, sender common.Address, key model.PoolKey, params model.SwapParams, delta model.Delta) (*big.Int, error)
}

// Reverter is implemented by hooks whose own state rolls back with a failed
// host operation. Checkpoint returns a function restoring the current state.
type Reverter interface {
	Checkpoint() func()
}
