package memory

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"routedHook/internal/ledger"
	"routedHook/internal/model"
)

// ShareToken is a mintable ERC-20-like balance sheet.
type ShareToken struct {
	addr     common.Address
	pool     model.PoolID
	balances map[common.Address]*big.Int
	supply   *big.Int
}

func (s *ShareToken) Address() common.Address { return s.addr }

func (s *ShareToken) Pool() model.PoolID { return s.pool }

func (s *ShareToken) Mint(to common.Address, amount *big.Int) error {
	if amount.Sign() < 0 {
		return ErrNegativeAmount
	}
	bal := s.balance(to)
	bal.Add(bal, amount)
	s.supply.Add(s.supply, amount)
	return nil
}

func (s *ShareToken) Burn(from common.Address, amount *big.Int) error {
	if amount.Sign() < 0 {
		return ErrNegativeAmount
	}
	bal := s.balance(from)
	if bal.Cmp(amount) < 0 {
		return fmt.Errorf("burn %s shares from %s: %w", amount, from.Hex(), ErrInsufficientBalance)
	}
	bal.Sub(bal, amount)
	s.supply.Sub(s.supply, amount)
	return nil
}

func (s *ShareToken) BalanceOf(owner common.Address) *big.Int {
	return new(big.Int).Set(s.balance(owner))
}

func (s *ShareToken) TotalSupply() *big.Int {
	return new(big.Int).Set(s.supply)
}

func (s *ShareToken) balance(owner common.Address) *big.Int {
	bal, ok := s.balances[owner]
	if !ok {
		bal = new(big.Int)
		s.balances[owner] = bal
	}
	return bal
}

// ShareTokens deploys share tokens at CREATE addresses of the factory.
type ShareTokens struct {
	deployer common.Address
	nonce    uint64
	byAddr   map[common.Address]*ShareToken
	byPool   map[model.PoolID]*ShareToken
}

func NewShareTokens(deployer common.Address) *ShareTokens {
	return &ShareTokens{
		deployer: deployer,
		byAddr:   make(map[common.Address]*ShareToken),
		byPool:   make(map[model.PoolID]*ShareToken),
	}
}

// Deploy returns the pool's token, creating it on first use.
func (f *ShareTokens) Deploy(id model.PoolID) (ledger.ShareToken, error) {
	if tok, ok := f.byPool[id]; ok {
		return tok, nil
	}
	tok := &ShareToken{
		addr:     crypto.CreateAddress(f.deployer, f.nonce),
		pool:     id,
		balances: make(map[common.Address]*big.Int),
		supply:   new(big.Int),
	}
	f.nonce++
	f.byAddr[tok.addr] = tok
	f.byPool[id] = tok
	return tok, nil
}

func (f *ShareTokens) Lookup(token common.Address) (ledger.ShareToken, bool) {
	tok, ok := f.byAddr[token]
	if !ok {
		return nil, false
	}
	return tok, true
}

type shareTokenState struct {
	addr     common.Address
	pool     model.PoolID
	balances map[common.Address]*big.Int
	supply   *big.Int
}

type sharesState struct {
	nonce  uint64
	tokens []shareTokenState
}

func (f *ShareTokens) snapshot() sharesState {
	s := sharesState{nonce: f.nonce}
	for _, tok := range f.byAddr {
		s.tokens = append(s.tokens, shareTokenState{
			addr:     tok.addr,
			pool:     tok.pool,
			balances: cloneAmounts(tok.balances),
			supply:   new(big.Int).Set(tok.supply),
		})
	}
	return s
}

// restore rewrites token state in place so handed-out pointers stay valid.
func (f *ShareTokens) restore(s sharesState) {
	f.nonce = s.nonce
	keep := make(map[common.Address]bool, len(s.tokens))
	for _, ts := range s.tokens {
		keep[ts.addr] = true
		tok, ok := f.byAddr[ts.addr]
		if !ok {
			tok = &ShareToken{addr: ts.addr, pool: ts.pool}
			f.byAddr[ts.addr] = tok
			f.byPool[ts.pool] = tok
		}
		tok.balances = cloneAmounts(ts.balances)
		tok.supply = new(big.Int).Set(ts.supply)
	}
	for addr, tok := range f.byAddr {
		if !keep[addr] {
			delete(f.byAddr, addr)
			delete(f.byPool, tok.pool)
		}
	}
}
