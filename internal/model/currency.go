package model

import (
	"bytes"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Currency identifies an asset held by the ledger. The zero address is the
// chain's native asset.
type Currency struct {
	Address common.Address
}

// NativeCurrency is the native asset.
var NativeCurrency = Currency{}

// CurrencyFromHex parses a hex address into a Currency.
func CurrencyFromHex(s string) Currency {
	return Currency{Address: common.HexToAddress(s)}
}

// IsNative reports whether c is the native asset.
func (c Currency) IsNative() bool {
	return c.Address == (common.Address{})
}

// Less orders currencies by address bytes.
func (c Currency) Less(other Currency) bool {
	return bytes.Compare(c.Address.Bytes(), other.Address.Bytes()) < 0
}

func (c Currency) String() string {
	if c.IsNative() {
		return "native"
	}
	return c.Address.Hex()
}

// PoolID is the ledger's identifier for a pool.
type PoolID common.Hash

func (id PoolID) Hex() string {
	return common.Hash(id).Hex()
}

// PoolKey identifies a ledger pool. Currency0 must sort below Currency1.
type PoolKey struct {
	Currency0   Currency
	Currency1   Currency
	Fee         uint32
	TickSpacing int32
	Hooks       common.Address
}

// ID hashes the ABI-encoded key the same way the ledger does.
func (k PoolKey) ID() PoolID {
	var buf [160]byte
	copy(buf[12:32], k.Currency0.Address.Bytes())
	copy(buf[44:64], k.Currency1.Address.Bytes())
	new(big.Int).SetUint64(uint64(k.Fee)).FillBytes(buf[64:96])
	tick := big.NewInt(int64(k.TickSpacing))
	if tick.Sign() < 0 {
		tick.Add(tick, new(big.Int).Lsh(big.NewInt(1), 256))
	}
	tick.FillBytes(buf[96:128])
	copy(buf[140:160], k.Hooks.Bytes())
	return PoolID(crypto.Keccak256Hash(buf[:]))
}

// Sorted reports whether the key's currencies are strictly ordered.
func (k PoolKey) Sorted() bool {
	return k.Currency0.Less(k.Currency1)
}
