package hook

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"routedHook/internal/ledger"
	"routedHook/internal/model"
)

func (e *Engine) shareToken(key model.PoolKey) (ledger.ShareToken, error) {
	if err := e.checkKey(key); err != nil {
		return nil, err
	}
	rec := e.store.Get(key.ID())
	if !rec.Registered() {
		return nil, fmt.Errorf("%w: pool %s not initialized", ErrPolicyViolation, key.ID().Hex())
	}
	token, ok := e.cfg.ShareTokens.Lookup(rec.LiquidityToken)
	if !ok {
		return nil, fmt.Errorf("share token %s missing", rec.LiquidityToken.Hex())
	}
	return token, nil
}

// BeforeAddLiquidity mints shares for full-range additions. Other ranges
// pass through untouched.
func (e *Engine) BeforeAddLiquidity(_ context.Context, sender common.Address, key model.PoolKey, params model.ModifyLiquidityParams) error {
	token, err := e.shareToken(key)
	if err != nil {
		return err
	}
	if params.LiquidityDelta == nil || params.LiquidityDelta.Sign() <= 0 {
		return fmt.Errorf("%w: add with non-positive liquidity", ErrPolicyViolation)
	}
	if !IsFullRange(key.TickSpacing, params.TickLower, params.TickUpper) {
		return nil
	}
	if err := token.Mint(sender, params.LiquidityDelta); err != nil {
		return fmt.Errorf("mint shares: %w", err)
	}
	e.cfg.Metrics.ObserveShares(true, params.LiquidityDelta)
	e.logger.Debug("shares minted",
		zap.String("pool", key.ID().Hex()),
		zap.String("provider", sender.Hex()),
		zap.String("amount", params.LiquidityDelta.String()),
	)
	return nil
}

// BeforeRemoveLiquidity burns shares for full-range removals; the provider
// must hold at least the removed liquidity in shares.
func (e *Engine) BeforeRemoveLiquidity(_ context.Context, sender common.Address, key model.PoolKey, params model.ModifyLiquidityParams) error {
	token, err := e.shareToken(key)
	if err != nil {
		return err
	}
	if params.LiquidityDelta == nil || params.LiquidityDelta.Sign() >= 0 {
		return fmt.Errorf("%w: remove with non-negative liquidity", ErrPolicyViolation)
	}
	if !IsFullRange(key.TickSpacing, params.TickLower, params.TickUpper) {
		return nil
	}
	amount := new(big.Int).Neg(params.LiquidityDelta)
	if bal := token.BalanceOf(sender); bal.Cmp(amount) < 0 {
		return fmt.Errorf("%w: remove %s with %s shares", ErrPolicyViolation, amount, bal)
	}
	if err := token.Burn(sender, amount); err != nil {
		return fmt.Errorf("burn shares: %w", err)
	}
	e.cfg.Metrics.ObserveShares(false, amount)
	e.logger.Debug("shares burned",
		zap.String("pool", key.ID().Hex()),
		zap.String("provider", sender.Hex()),
		zap.String("amount", amount.String()),
	)
	return nil
}
