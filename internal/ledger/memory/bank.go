// Package memory is an in-memory reference host for the hook: a token bank,
// a delta-accounting ledger, a venue of constant-product pairs, a wrapped
// native token and share tokens. None of it is safe for concurrent use.
package memory

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"routedHook/internal/model"
)

var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrNegativeAmount      = errors.New("negative amount")
)

// TransferHook runs after every bank transfer. A non-nil error fails the
// transfer's caller; the transfer itself is not undone.
type TransferHook func(currency model.Currency, from, to common.Address, amount *big.Int) error

// Bank holds balances of every currency, native included.
type Bank struct {
	balances   map[model.Currency]map[common.Address]*big.Int
	onTransfer TransferHook
}

func NewBank() *Bank {
	return &Bank{balances: make(map[model.Currency]map[common.Address]*big.Int)}
}

// SetTransferHook installs fn; nil removes it.
func (b *Bank) SetTransferHook(fn TransferHook) {
	b.onTransfer = fn
}

func (b *Bank) BalanceOf(currency model.Currency, owner common.Address) *big.Int {
	if bal, ok := b.balances[currency][owner]; ok {
		return new(big.Int).Set(bal)
	}
	return new(big.Int)
}

// Mint credits amount out of thin air.
func (b *Bank) Mint(currency model.Currency, to common.Address, amount *big.Int) error {
	if amount.Sign() < 0 {
		return ErrNegativeAmount
	}
	b.add(currency, to, amount)
	return nil
}

// Burn destroys amount held by from.
func (b *Bank) Burn(currency model.Currency, from common.Address, amount *big.Int) error {
	if amount.Sign() < 0 {
		return ErrNegativeAmount
	}
	if b.BalanceOf(currency, from).Cmp(amount) < 0 {
		return fmt.Errorf("burn %s %s from %s: %w", amount, currency, from.Hex(), ErrInsufficientBalance)
	}
	b.add(currency, from, new(big.Int).Neg(amount))
	return nil
}

func (b *Bank) Transfer(currency model.Currency, from, to common.Address, amount *big.Int) error {
	if amount.Sign() < 0 {
		return ErrNegativeAmount
	}
	if b.BalanceOf(currency, from).Cmp(amount) < 0 {
		return fmt.Errorf("transfer %s %s from %s: %w", amount, currency, from.Hex(), ErrInsufficientBalance)
	}
	b.add(currency, from, new(big.Int).Neg(amount))
	b.add(currency, to, amount)
	if b.onTransfer != nil {
		return b.onTransfer(currency, from, to, new(big.Int).Set(amount))
	}
	return nil
}

func (b *Bank) add(currency model.Currency, owner common.Address, amount *big.Int) {
	m, ok := b.balances[currency]
	if !ok {
		m = make(map[common.Address]*big.Int)
		b.balances[currency] = m
	}
	bal, ok := m[owner]
	if !ok {
		bal = new(big.Int)
		m[owner] = bal
	}
	bal.Add(bal, amount)
}

type bankState map[model.Currency]map[common.Address]*big.Int

func (b *Bank) snapshot() bankState {
	out := make(bankState, len(b.balances))
	for c, m := range b.balances {
		out[c] = cloneAmounts(m)
	}
	return out
}

func (b *Bank) restore(s bankState) {
	b.balances = make(map[model.Currency]map[common.Address]*big.Int, len(s))
	for c, m := range s {
		b.balances[c] = cloneAmounts(m)
	}
}

func cloneAmounts[K comparable](m map[K]*big.Int) map[K]*big.Int {
	out := make(map[K]*big.Int, len(m))
	for k, v := range m {
		out[k] = new(big.Int).Set(v)
	}
	return out
}
