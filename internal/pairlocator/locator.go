// Package pairlocator derives the address of an external constant-product
// pair from its factory, without any chain reads.
package pairlocator

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"routedHook/internal/model"
)

var ErrIdenticalTokens = errors.New("identical tokens")

// Locator holds the factory parameters used by CREATE2.
type Locator struct {
	Factory       common.Address
	InitCodeHash  common.Hash
	WrappedNative common.Address
}

// Pair is a located pair with its tokens in pair order.
type Pair struct {
	Address common.Address
	Token0  common.Address
	Token1  common.Address
}

// New returns a Locator for factory.
func New(factory common.Address, initCodeHash common.Hash, wrappedNative common.Address) Locator {
	return Locator{Factory: factory, InitCodeHash: initCodeHash, WrappedNative: wrappedNative}
}

// Canonical maps the native asset to its wrapped token.
func (l Locator) Canonical(c model.Currency) common.Address {
	if c.IsNative() {
		return l.WrappedNative
	}
	return c.Address
}

// Locate returns the pair trading a against b.
func (l Locator) Locate(a, b model.Currency) (Pair, error) {
	tokenA := l.Canonical(a)
	tokenB := l.Canonical(b)
	if tokenA == tokenB {
		return Pair{}, fmt.Errorf("locate pair %s/%s: %w", a, b, ErrIdenticalTokens)
	}
	token0, token1 := SortTokens(tokenA, tokenB)
	salt := crypto.Keccak256Hash(token0.Bytes(), token1.Bytes())
	return Pair{
		Address: crypto.CreateAddress2(l.Factory, salt, l.InitCodeHash.Bytes()),
		Token0:  token0,
		Token1:  token1,
	}, nil
}

// SortTokens orders two token addresses ascending.
func SortTokens(a, b common.Address) (common.Address, common.Address) {
	if bytes.Compare(a.Bytes(), b.Bytes()) < 0 {
		return a, b
	}
	return b, a
}

// Flipped reports whether the pair's token0 is the ledger pool's currency1.
func (l Locator) Flipped(p Pair, key model.PoolKey) bool {
	return p.Token0 != l.Canonical(key.Currency0)
}
