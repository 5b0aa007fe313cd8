// Package settlement turns the hook's logical debits and credits into ledger
// take, sync and settle calls, wrapping and unwrapping the native asset
// where the external pair needs its ERC-20 form.
package settlement

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"routedHook/internal/ledger"
	"routedHook/internal/model"
)

// ErrSettlementFailed wraps every collaborator failure during settlement.
var ErrSettlementFailed = errors.New("settlement failed")

// Adapter settles on behalf of the account at self.
type Adapter struct {
	self    common.Address
	ledger  ledger.Ledger
	assets  ledger.Assets
	wrapped ledger.WrappedNative
	logger  *zap.Logger
}

func NewAdapter(self common.Address, l ledger.Ledger, assets ledger.Assets, wrapped ledger.WrappedNative, logger *zap.Logger) *Adapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Adapter{self: self, ledger: l, assets: assets, wrapped: wrapped, logger: logger}
}

// Forwarded is the currency the adapter hands onward for c.
func (a *Adapter) Forwarded(c model.Currency) model.Currency {
	if c.IsNative() {
		return model.Currency{Address: a.wrapped.Address()}
	}
	return c
}

// Take withdraws amount of currency from the ledger and forwards it to to,
// wrapping native first. A zero to keeps the asset with the adapter's owner
// in its original form.
func (a *Adapter) Take(currency model.Currency, amount *big.Int, to common.Address) error {
	if amount.Sign() == 0 {
		return nil
	}
	if err := a.ledger.Take(a.self, currency, a.self, amount); err != nil {
		return fail("take", currency, amount, err)
	}
	if to == (common.Address{}) || to == a.self {
		return nil
	}
	forwarded := currency
	if currency.IsNative() {
		if err := a.wrapped.Deposit(a.self, amount); err != nil {
			return fail("wrap", currency, amount, err)
		}
		forwarded = a.Forwarded(currency)
	}
	if err := a.assets.Transfer(forwarded, a.self, to, amount); err != nil {
		return fail("forward", forwarded, amount, err)
	}
	a.logger.Debug("taken",
		zap.String("currency", currency.String()),
		zap.String("amount", amount.String()),
		zap.String("to", to.Hex()),
	)
	return nil
}

// Settle pays amount of currency into the ledger. For native the adapter's
// owner must hold the wrapped form, which is unwrapped first.
func (a *Adapter) Settle(currency model.Currency, amount *big.Int) error {
	if amount.Sign() == 0 {
		return nil
	}
	if currency.IsNative() {
		if err := a.wrapped.Withdraw(a.self, amount); err != nil {
			return fail("unwrap", currency, amount, err)
		}
		if _, err := a.ledger.Settle(a.self, currency, amount); err != nil {
			return fail("settle", currency, amount, err)
		}
		return nil
	}

	if err := a.ledger.Sync(currency); err != nil {
		return fail("sync", currency, amount, err)
	}
	if err := a.assets.Transfer(currency, a.self, a.ledger.Address(), amount); err != nil {
		return fail("pay", currency, amount, err)
	}
	paid, err := a.ledger.Settle(a.self, currency, nil)
	if err != nil {
		return fail("settle", currency, amount, err)
	}
	if paid.Cmp(amount) != 0 {
		return fmt.Errorf("%w: settle %s credited %s of %s", ErrSettlementFailed, currency, paid, amount)
	}
	return nil
}

func fail(step string, currency model.Currency, amount *big.Int, err error) error {
	return fmt.Errorf("%w: %s %s %s: %w", ErrSettlementFailed, step, amount, currency, err)
}
