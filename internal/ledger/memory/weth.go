package memory

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"routedHook/internal/model"
)

// WrappedNative is a WETH-style token backed one to one by native held at
// its own address.
type WrappedNative struct {
	addr common.Address
	bank *Bank
}

func NewWrappedNative(addr common.Address, bank *Bank) *WrappedNative {
	return &WrappedNative{addr: addr, bank: bank}
}

func (w *WrappedNative) Address() common.Address { return w.addr }

// Currency is the wrapped token as a bank currency.
func (w *WrappedNative) Currency() model.Currency {
	return model.Currency{Address: w.addr}
}

func (w *WrappedNative) Deposit(from common.Address, amount *big.Int) error {
	if err := w.bank.Transfer(model.NativeCurrency, from, w.addr, amount); err != nil {
		return fmt.Errorf("deposit: %w", err)
	}
	return w.bank.Mint(w.Currency(), from, amount)
}

func (w *WrappedNative) Withdraw(from common.Address, amount *big.Int) error {
	if err := w.bank.Burn(w.Currency(), from, amount); err != nil {
		return fmt.Errorf("withdraw: %w", err)
	}
	if err := w.bank.Transfer(model.NativeCurrency, w.addr, from, amount); err != nil {
		return fmt.Errorf("withdraw: %w", err)
	}
	return nil
}
