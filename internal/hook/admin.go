package hook

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"routedHook/internal/fees"
	"routedHook/internal/model"
)

// MinRetainedFeeBips is the lowest retained share an administrator may set.
const MinRetainedFeeBips = 1000

// AdminCapability proves the holder was authorized as fee administrator of
// one engine.
type AdminCapability struct {
	engine *Engine
	holder common.Address
}

func (c *AdminCapability) Holder() common.Address { return c.holder }

// Authorize issues a capability to the configured administrator.
func (e *Engine) Authorize(caller common.Address) (*AdminCapability, error) {
	if caller != e.cfg.Admin || caller == (common.Address{}) {
		return nil, fmt.Errorf("%w: %s", ErrUnauthorized, caller.Hex())
	}
	return &AdminCapability{engine: e, holder: caller}, nil
}

func (e *Engine) verify(c *AdminCapability) error {
	if c == nil || c.engine != e || c.holder != e.cfg.Admin {
		return ErrUnauthorized
	}
	return nil
}

// SetRetainedFeeBips sets the retained share of future fees on key's pool.
func (e *Engine) SetRetainedFeeBips(c *AdminCapability, key model.PoolKey, bips uint32) error {
	if err := e.verify(c); err != nil {
		return err
	}
	if err := e.checkKey(key); err != nil {
		return err
	}
	if bips < MinRetainedFeeBips || bips > fees.BipsDenominator {
		return fmt.Errorf("%w: %d not in [%d, %d]", ErrInvalidFeeBips, bips, MinRetainedFeeBips, fees.BipsDenominator)
	}
	id := key.ID()
	rec := e.store.Get(id)
	prev := rec.RetainedFeeBips
	rec.RetainedFeeBips = bips
	e.logger.Info("retained fee updated",
		zap.String("pool", id.Hex()),
		zap.Uint32("previous_bips", prev),
		zap.Uint32("bips", bips),
	)
	return nil
}

// Claim pays accrued retained fees in currency to to. A nil or zero amount
// claims everything. It returns the amount paid.
func (e *Engine) Claim(c *AdminCapability, currency model.Currency, to common.Address, amount *big.Int) (*big.Int, error) {
	if err := e.verify(c); err != nil {
		return nil, err
	}
	if to == (common.Address{}) {
		return nil, fmt.Errorf("%w: claim to zero address", ErrPolicyViolation)
	}
	held := e.Accrued(currency)
	if amount == nil || amount.Sign() == 0 {
		amount = new(big.Int).Set(held)
	}
	if amount.Sign() < 0 || amount.Cmp(held) > 0 {
		return nil, fmt.Errorf("%w: claim %s of %s accrued %s", ErrPolicyViolation, amount, held, currency)
	}
	if amount.Sign() == 0 {
		return new(big.Int), nil
	}
	if err := e.cfg.Assets.Transfer(currency, e.cfg.Address, to, amount); err != nil {
		return nil, fmt.Errorf("%w: claim transfer: %w", ErrSettlementFailed, err)
	}
	e.accrued[currency] = new(big.Int).Sub(held, amount)
	e.cfg.Metrics.ObserveClaim()
	e.logger.Info("retained fees claimed",
		zap.String("currency", currency.String()),
		zap.String("to", to.Hex()),
		zap.String("amount", amount.String()),
	)
	return new(big.Int).Set(amount), nil
}
