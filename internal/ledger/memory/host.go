package memory

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"routedHook/internal/ledger"
	"routedHook/internal/model"
	"routedHook/internal/pairlocator"
)

var (
	ErrAlreadyUnlocked = errors.New("ledger already unlocked")
	ErrUnsettled       = errors.New("currency not settled")
	ErrUnknownHooks    = errors.New("hooks not registered")
	ErrHookDelta       = errors.New("hook delta exceeds swap amount")
)

type HostConfig struct {
	LedgerAddress common.Address
	WrappedNative common.Address
	Factory       common.Address
	InitCodeHash  common.Hash
	ShareDeployer common.Address
	PairFeeBips   uint32
	Logger        *zap.Logger
}

// Host drives the ledger the way a router would: it opens an operation,
// calls the pool's hooks, settles the caller and requires every delta to
// net to zero. A failed operation leaves no trace.
type Host struct {
	Bank    *Bank
	Ledger  *Ledger
	Pairs   *PairVenue
	Wrapped *WrappedNative
	Shares  *ShareTokens
	Locator pairlocator.Locator

	hooks    map[common.Address]ledger.Hooks
	unlocked bool
	logger   *zap.Logger
}

func NewHost(cfg HostConfig) *Host {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	bank := NewBank()
	locator := pairlocator.New(cfg.Factory, cfg.InitCodeHash, cfg.WrappedNative)
	return &Host{
		Bank:    bank,
		Ledger:  NewLedger(cfg.LedgerAddress, bank),
		Pairs:   NewPairVenue(bank, locator, cfg.PairFeeBips),
		Wrapped: NewWrappedNative(cfg.WrappedNative, bank),
		Shares:  NewShareTokens(cfg.ShareDeployer),
		Locator: locator,
		hooks:   make(map[common.Address]ledger.Hooks),
		logger:  logger,
	}
}

func (h *Host) RegisterHooks(addr common.Address, hooks ledger.Hooks) {
	h.hooks[addr] = hooks
}

func (h *Host) hooksFor(key model.PoolKey) (ledger.Hooks, error) {
	if key.Hooks == (common.Address{}) {
		return nil, nil
	}
	hk, ok := h.hooks[key.Hooks]
	if !ok {
		return nil, fmt.Errorf("%s: %w", key.Hooks.Hex(), ErrUnknownHooks)
	}
	return hk, nil
}

// Atomic runs fn as one ledger operation.
func (h *Host) Atomic(fn func() error) error {
	if h.unlocked {
		return ErrAlreadyUnlocked
	}
	h.unlocked = true
	defer func() { h.unlocked = false }()

	snap := h.snapshot()
	var undo []func()
	for _, hk := range h.hooks {
		if r, ok := hk.(ledger.Reverter); ok {
			undo = append(undo, r.Checkpoint())
		}
	}
	revert := func() {
		h.restore(snap)
		for _, u := range undo {
			u()
		}
	}

	if err := fn(); err != nil {
		revert()
		return err
	}
	if n := h.Ledger.NonzeroDeltas(); n > 0 {
		revert()
		return fmt.Errorf("%w: %d open deltas", ErrUnsettled, n)
	}
	return nil
}

func (h *Host) Initialize(ctx context.Context, sender common.Address, key model.PoolKey, sqrtPriceX96 *big.Int) error {
	return h.Atomic(func() error {
		hk, err := h.hooksFor(key)
		if err != nil {
			return err
		}
		if err := h.Ledger.Initialize(key, sqrtPriceX96); err != nil {
			return err
		}
		if hk != nil {
			if err := hk.AfterInitialize(ctx, sender, key, sqrtPriceX96); err != nil {
				return fmt.Errorf("after initialize: %w", err)
			}
		}
		h.logger.Debug("pool initialized", zap.String("pool", key.ID().Hex()))
		return nil
	})
}

// ModifyLiquidity changes sender's position and settles the result.
func (h *Host) ModifyLiquidity(ctx context.Context, sender common.Address, key model.PoolKey, params model.ModifyLiquidityParams) (model.Delta, error) {
	var out model.Delta
	err := h.Atomic(func() error {
		hk, err := h.hooksFor(key)
		if err != nil {
			return err
		}
		if hk != nil {
			switch params.LiquidityDelta.Sign() {
			case 1:
				err = hk.BeforeAddLiquidity(ctx, sender, key, params)
			case -1:
				err = hk.BeforeRemoveLiquidity(ctx, sender, key, params)
			}
			if err != nil {
				return fmt.Errorf("before modify liquidity: %w", err)
			}
		}
		delta, err := h.Ledger.ModifyLiquidity(sender, key, params)
		if err != nil {
			return err
		}
		if err := h.settleAccount(sender); err != nil {
			return err
		}
		out = delta
		return nil
	})
	return out, err
}

// Swap executes a swap for sender and returns sender's settled delta.
func (h *Host) Swap(ctx context.Context, sender common.Address, key model.PoolKey, params model.SwapParams) (model.Delta, error) {
	var out model.Delta
	err := h.Atomic(func() error {
		if params.AmountSpecified == nil || params.AmountSpecified.Sign() == 0 {
			return ErrZeroAmount
		}
		hk, err := h.hooksFor(key)
		if err != nil {
			return err
		}

		hookDelta := model.ZeroDelta()
		if hk != nil {
			hookDelta, err = hk.BeforeSwap(ctx, sender, key, params)
			if err != nil {
				return fmt.Errorf("before swap: %w", err)
			}
			if err := hookDelta.Validate(); err != nil {
				return fmt.Errorf("before swap: %w", err)
			}
		}

		specIs0 := params.SpecifiedIsToken0()
		remaining := new(big.Int).Sub(params.AmountSpecified, hookDelta.Leg(specIs0))
		if remaining.Sign() != 0 && remaining.Sign() != params.AmountSpecified.Sign() {
			return fmt.Errorf("%w: remaining %s", ErrHookDelta, remaining)
		}

		swapDelta := hookDelta
		if remaining.Sign() != 0 {
			curveDelta, err := h.Ledger.swap(key, params, remaining)
			if err != nil {
				return err
			}
			swapDelta = swapDelta.Add(curveDelta)
		}
		h.Ledger.accountDelta(key.Hooks, key, hookDelta.Negate())

		if hk != nil {
			charge, err := hk.AfterSwap(ctx, sender, key, params, swapDelta)
			if err != nil {
				return fmt.Errorf("after swap: %w", err)
			}
			if charge != nil && charge.Sign() != 0 {
				unspecified := key.Currency1
				if !specIs0 {
					unspecified = key.Currency0
				}
				h.Ledger.account(key.Hooks, unspecified, charge)
				swapDelta = swapDelta.Sub(model.DeltaFromSpecified(specIs0, new(big.Int), charge))
			}
		}
		if err := swapDelta.Validate(); err != nil {
			return err
		}

		h.Ledger.accountDelta(sender, key, swapDelta)
		if err := h.settleAccount(sender); err != nil {
			return err
		}
		out = swapDelta
		return nil
	})
	return out, err
}

// settleAccount pays what owner owes from its bank balance and takes what
// it is owed.
func (h *Host) settleAccount(owner common.Address) error {
	open := make(map[model.Currency]*big.Int)
	for c, v := range h.Ledger.deltas[owner] {
		open[c] = new(big.Int).Set(v)
	}
	for currency, amount := range open {
		switch amount.Sign() {
		case 1:
			if err := h.Ledger.Take(owner, currency, owner, amount); err != nil {
				return err
			}
		case -1:
			owed := new(big.Int).Neg(amount)
			if currency.IsNative() {
				if _, err := h.Ledger.Settle(owner, currency, owed); err != nil {
					return err
				}
				continue
			}
			if err := h.Ledger.Sync(currency); err != nil {
				return err
			}
			if err := h.Bank.Transfer(currency, owner, h.Ledger.Address(), owed); err != nil {
				return fmt.Errorf("settle %s: %w", currency, err)
			}
			if _, err := h.Ledger.Settle(owner, currency, nil); err != nil {
				return err
			}
		}
	}
	return nil
}

type hostState struct {
	bank   bankState
	ledger ledgerState
	pairs  venueState
	shares sharesState
}

func (h *Host) snapshot() hostState {
	return hostState{
		bank:   h.Bank.snapshot(),
		ledger: h.Ledger.snapshot(),
		pairs:  h.Pairs.snapshot(),
		shares: h.Shares.snapshot(),
	}
}

func (h *Host) restore(s hostState) {
	h.Bank.restore(s.bank)
	h.Ledger.restore(s.ledger)
	h.Pairs.restore(s.pairs)
	h.Shares.restore(s.shares)
}
