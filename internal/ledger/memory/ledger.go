package memory

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"routedHook/internal/model"
)

var (
	ErrPoolExists         = errors.New("pool already initialized")
	ErrPoolNotInitialized = errors.New("pool not initialized")
	ErrUnsortedCurrencies = errors.New("currencies out of order")
	ErrInvalidTickSpacing = errors.New("invalid tick spacing")
	ErrInvalidTicks       = errors.New("invalid tick range")
	ErrInvalidPrice       = errors.New("sqrt price out of range")
	ErrPriceLimit         = errors.New("price limit exceeded")
	ErrNoLiquidity        = errors.New("no liquidity")
	ErrPositionTooSmall   = errors.New("position liquidity too small")
	ErrNotSynced          = errors.New("currency not synced")
	ErrValueMismatch      = errors.New("native value sent for token settle")
	ErrZeroAmount         = errors.New("zero amount")
)

type positionKey struct {
	owner     common.Address
	tickLower int32
	tickUpper int32
	salt      [32]byte
}

type position struct {
	liquidity  *big.Int
	feeGrowth0 *big.Int
	feeGrowth1 *big.Int
}

type pool struct {
	key        model.PoolKey
	sqrtPrice  *big.Int
	liquidity  *big.Int
	feeGrowth0 *big.Int
	feeGrowth1 *big.Int
	positions  map[positionKey]*position
}

// Ledger keeps pools on one constant-product curve each and tracks what every
// account owes or is owed while an operation is open. Every position counts
// as active liquidity regardless of its tick range.
type Ledger struct {
	addr  common.Address
	bank  *Bank
	block uint64

	pools  map[model.PoolID]*pool
	deltas map[common.Address]map[model.Currency]*big.Int

	synced        *model.Currency
	syncedBalance *big.Int
}

func NewLedger(addr common.Address, bank *Bank) *Ledger {
	return &Ledger{
		addr:   addr,
		bank:   bank,
		block:  1,
		pools:  make(map[model.PoolID]*pool),
		deltas: make(map[common.Address]map[model.Currency]*big.Int),
	}
}

func (l *Ledger) Address() common.Address { return l.addr }

func (l *Ledger) BlockNumber() uint64 { return l.block }

// SetBlock moves the ledger to height n.
func (l *Ledger) SetBlock(n uint64) { l.block = n }

func (l *Ledger) Initialize(key model.PoolKey, sqrtPriceX96 *big.Int) error {
	if !key.Sorted() {
		return ErrUnsortedCurrencies
	}
	if key.TickSpacing < 1 || key.TickSpacing > 32767 {
		return fmt.Errorf("%w: %d", ErrInvalidTickSpacing, key.TickSpacing)
	}
	if sqrtPriceX96.Cmp(minSqrtPrice) < 0 || sqrtPriceX96.Cmp(maxSqrtPrice) >= 0 {
		return fmt.Errorf("%w: %s", ErrInvalidPrice, sqrtPriceX96)
	}
	id := key.ID()
	if _, ok := l.pools[id]; ok {
		return fmt.Errorf("%s: %w", id.Hex(), ErrPoolExists)
	}
	l.pools[id] = &pool{
		key:        key,
		sqrtPrice:  new(big.Int).Set(sqrtPriceX96),
		liquidity:  new(big.Int),
		feeGrowth0: new(big.Int),
		feeGrowth1: new(big.Int),
		positions:  make(map[positionKey]*position),
	}
	return nil
}

func (l *Ledger) pool(id model.PoolID) (*pool, error) {
	p, ok := l.pools[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", id.Hex(), ErrPoolNotInitialized)
	}
	return p, nil
}

func (l *Ledger) Slot0(id model.PoolID) (*big.Int, int32, error) {
	p, err := l.pool(id)
	if err != nil {
		return nil, 0, err
	}
	return new(big.Int).Set(p.sqrtPrice), tickAt(p.sqrtPrice), nil
}

func (l *Ledger) Liquidity(id model.PoolID) (*big.Int, error) {
	p, err := l.pool(id)
	if err != nil {
		return nil, err
	}
	return new(big.Int).Set(p.liquidity), nil
}

// Position returns owner's liquidity in a range.
func (l *Ledger) Position(id model.PoolID, owner common.Address, tickLower, tickUpper int32, salt [32]byte) *big.Int {
	p, ok := l.pools[id]
	if !ok {
		return new(big.Int)
	}
	pos, ok := p.positions[positionKey{owner: owner, tickLower: tickLower, tickUpper: tickUpper, salt: salt}]
	if !ok {
		return new(big.Int)
	}
	return new(big.Int).Set(pos.liquidity)
}

func (l *Ledger) Take(caller common.Address, currency model.Currency, to common.Address, amount *big.Int) error {
	if amount.Sign() < 0 {
		return ErrNegativeAmount
	}
	l.account(caller, currency, new(big.Int).Neg(amount))
	if err := l.bank.Transfer(currency, l.addr, to, amount); err != nil {
		return fmt.Errorf("take %s: %w", currency, err)
	}
	return nil
}

func (l *Ledger) Sync(currency model.Currency) error {
	if currency.IsNative() {
		l.synced = nil
		l.syncedBalance = nil
		return nil
	}
	c := currency
	l.synced = &c
	l.syncedBalance = l.bank.BalanceOf(currency, l.addr)
	return nil
}

func (l *Ledger) Settle(payer common.Address, currency model.Currency, value *big.Int) (*big.Int, error) {
	if currency.IsNative() {
		if value == nil || value.Sign() <= 0 {
			return nil, ErrZeroAmount
		}
		if err := l.bank.Transfer(model.NativeCurrency, payer, l.addr, value); err != nil {
			return nil, fmt.Errorf("settle native: %w", err)
		}
		l.account(payer, currency, value)
		return new(big.Int).Set(value), nil
	}
	if value != nil && value.Sign() != 0 {
		return nil, ErrValueMismatch
	}
	if l.synced == nil || *l.synced != currency {
		return nil, fmt.Errorf("settle %s: %w", currency, ErrNotSynced)
	}
	paid := new(big.Int).Sub(l.bank.BalanceOf(currency, l.addr), l.syncedBalance)
	l.synced = nil
	l.syncedBalance = nil
	l.account(payer, currency, paid)
	return paid, nil
}

// Donate credits the pool's in-range liquidity with the amounts.
func (l *Ledger) Donate(caller common.Address, key model.PoolKey, amount0, amount1 *big.Int) error {
	p, err := l.pool(key.ID())
	if err != nil {
		return err
	}
	if p.liquidity.Sign() == 0 {
		return fmt.Errorf("donate: %w", ErrNoLiquidity)
	}
	if amount0.Sign() < 0 || amount1.Sign() < 0 {
		return ErrNegativeAmount
	}
	p.feeGrowth0.Add(p.feeGrowth0, mulDiv(amount0, q128, p.liquidity, false))
	p.feeGrowth1.Add(p.feeGrowth1, mulDiv(amount1, q128, p.liquidity, false))
	l.account(caller, key.Currency0, new(big.Int).Neg(amount0))
	l.account(caller, key.Currency1, new(big.Int).Neg(amount1))
	return nil
}

// ModifyLiquidity changes owner's position and returns the owner's delta,
// collected fees included.
func (l *Ledger) ModifyLiquidity(owner common.Address, key model.PoolKey, params model.ModifyLiquidityParams) (model.Delta, error) {
	p, err := l.pool(key.ID())
	if err != nil {
		return model.Delta{}, err
	}
	if params.TickLower >= params.TickUpper ||
		params.TickLower < MinTick || params.TickUpper > MaxTick ||
		params.TickLower%key.TickSpacing != 0 || params.TickUpper%key.TickSpacing != 0 {
		return model.Delta{}, fmt.Errorf("%w: [%d, %d]", ErrInvalidTicks, params.TickLower, params.TickUpper)
	}
	pk := positionKey{owner: owner, tickLower: params.TickLower, tickUpper: params.TickUpper, salt: params.Salt}
	pos, ok := p.positions[pk]
	if !ok {
		pos = &position{
			liquidity:  new(big.Int),
			feeGrowth0: new(big.Int).Set(p.feeGrowth0),
			feeGrowth1: new(big.Int).Set(p.feeGrowth1),
		}
	}
	change := params.LiquidityDelta
	if change.Sign() < 0 && pos.liquidity.Cmp(new(big.Int).Neg(change)) < 0 {
		return model.Delta{}, fmt.Errorf("remove %s from %s: %w", new(big.Int).Neg(change), pos.liquidity, ErrPositionTooSmall)
	}

	fees0 := mulDiv(new(big.Int).Sub(p.feeGrowth0, pos.feeGrowth0), pos.liquidity, q128, false)
	fees1 := mulDiv(new(big.Int).Sub(p.feeGrowth1, pos.feeGrowth1), pos.liquidity, q128, false)

	var delta model.Delta
	switch change.Sign() {
	case 1:
		delta = model.Delta{
			Amount0: new(big.Int).Neg(amount0For(change, p.sqrtPrice, true)),
			Amount1: new(big.Int).Neg(amount1For(change, p.sqrtPrice, true)),
		}
	case -1:
		removed := new(big.Int).Neg(change)
		delta = model.Delta{
			Amount0: amount0For(removed, p.sqrtPrice, false),
			Amount1: amount1For(removed, p.sqrtPrice, false),
		}
	default:
		delta = model.ZeroDelta()
	}
	delta = delta.Add(model.Delta{Amount0: fees0, Amount1: fees1})
	if err := delta.Validate(); err != nil {
		return model.Delta{}, err
	}

	pos.liquidity.Add(pos.liquidity, change)
	pos.feeGrowth0.Set(p.feeGrowth0)
	pos.feeGrowth1.Set(p.feeGrowth1)
	p.positions[pk] = pos
	p.liquidity.Add(p.liquidity, change)

	l.accountDelta(owner, key, delta)
	return delta, nil
}

// swap runs the remainder of a swap against the pool curve and returns the
// swapper's delta.
func (l *Ledger) swap(key model.PoolKey, params model.SwapParams, amountSpecified *big.Int) (model.Delta, error) {
	p, err := l.pool(key.ID())
	if err != nil {
		return model.Delta{}, err
	}
	if p.liquidity.Sign() == 0 {
		return model.Delta{}, fmt.Errorf("swap: %w", ErrNoLiquidity)
	}
	liq := p.liquidity
	price := p.sqrtPrice
	exactIn := amountSpecified.Sign() < 0
	amount := new(big.Int).Abs(amountSpecified)
	scaled := new(big.Int).Lsh(liq, 96)

	var next *big.Int
	var delta model.Delta
	switch {
	case params.ZeroForOne && exactIn:
		den := new(big.Int).Add(scaled, new(big.Int).Mul(amount, price))
		next = divUp(new(big.Int).Mul(scaled, price), den)
		delta = model.Delta{
			Amount0: new(big.Int).Neg(amount),
			Amount1: amount1Between(liq, next, price, false),
		}
	case params.ZeroForOne:
		step := divUp(new(big.Int).Lsh(amount, 96), liq)
		if step.Cmp(price) >= 0 {
			return model.Delta{}, fmt.Errorf("swap: %w", ErrNoLiquidity)
		}
		next = new(big.Int).Sub(price, step)
		delta = model.Delta{
			Amount0: new(big.Int).Neg(amount0Between(liq, next, price, true)),
			Amount1: amount,
		}
	case exactIn:
		next = new(big.Int).Add(price, new(big.Int).Quo(new(big.Int).Lsh(amount, 96), liq))
		delta = model.Delta{
			Amount0: amount0Between(liq, price, next, false),
			Amount1: new(big.Int).Neg(amount),
		}
	default:
		den := new(big.Int).Sub(scaled, new(big.Int).Mul(amount, price))
		if den.Sign() <= 0 {
			return model.Delta{}, fmt.Errorf("swap: %w", ErrNoLiquidity)
		}
		next = divUp(new(big.Int).Mul(scaled, price), den)
		delta = model.Delta{
			Amount0: amount,
			Amount1: new(big.Int).Neg(amount1Between(liq, price, next, true)),
		}
	}

	if next.Cmp(minSqrtPrice) < 0 || next.Cmp(maxSqrtPrice) >= 0 {
		return model.Delta{}, fmt.Errorf("%w: %s", ErrPriceLimit, next)
	}
	if limit := params.SqrtPriceLimitX96; limit != nil && limit.Sign() > 0 {
		if (params.ZeroForOne && next.Cmp(limit) < 0) || (!params.ZeroForOne && next.Cmp(limit) > 0) {
			return model.Delta{}, fmt.Errorf("%w: %s past %s", ErrPriceLimit, next, limit)
		}
	}
	p.sqrtPrice = next
	return delta, nil
}

func (l *Ledger) account(owner common.Address, currency model.Currency, change *big.Int) {
	if change.Sign() == 0 {
		return
	}
	m, ok := l.deltas[owner]
	if !ok {
		m = make(map[model.Currency]*big.Int)
		l.deltas[owner] = m
	}
	cur, ok := m[currency]
	if !ok {
		cur = new(big.Int)
		m[currency] = cur
	}
	cur.Add(cur, change)
	if cur.Sign() == 0 {
		delete(m, currency)
		if len(m) == 0 {
			delete(l.deltas, owner)
		}
	}
}

func (l *Ledger) accountDelta(owner common.Address, key model.PoolKey, d model.Delta) {
	l.account(owner, key.Currency0, d.Amount0)
	l.account(owner, key.Currency1, d.Amount1)
}

// Owed returns owner's open delta in currency.
func (l *Ledger) Owed(owner common.Address, currency model.Currency) *big.Int {
	if v, ok := l.deltas[owner][currency]; ok {
		return new(big.Int).Set(v)
	}
	return new(big.Int)
}

// NonzeroDeltas counts open (account, currency) balances.
func (l *Ledger) NonzeroDeltas() int {
	n := 0
	for _, m := range l.deltas {
		n += len(m)
	}
	return n
}

type ledgerState struct {
	block  uint64
	pools  map[model.PoolID]*pool
	deltas map[common.Address]map[model.Currency]*big.Int
}

func (l *Ledger) snapshot() ledgerState {
	s := ledgerState{
		block:  l.block,
		pools:  make(map[model.PoolID]*pool, len(l.pools)),
		deltas: make(map[common.Address]map[model.Currency]*big.Int, len(l.deltas)),
	}
	for id, p := range l.pools {
		s.pools[id] = p.clone()
	}
	for owner, m := range l.deltas {
		s.deltas[owner] = cloneAmounts(m)
	}
	return s
}

func (l *Ledger) restore(s ledgerState) {
	l.block = s.block
	l.pools = make(map[model.PoolID]*pool, len(s.pools))
	for id, p := range s.pools {
		l.pools[id] = p.clone()
	}
	l.deltas = make(map[common.Address]map[model.Currency]*big.Int, len(s.deltas))
	for owner, m := range s.deltas {
		l.deltas[owner] = cloneAmounts(m)
	}
	l.synced = nil
	l.syncedBalance = nil
}

func (p *pool) clone() *pool {
	out := &pool{
		key:        p.key,
		sqrtPrice:  new(big.Int).Set(p.sqrtPrice),
		liquidity:  new(big.Int).Set(p.liquidity),
		feeGrowth0: new(big.Int).Set(p.feeGrowth0),
		feeGrowth1: new(big.Int).Set(p.feeGrowth1),
		positions:  make(map[positionKey]*position, len(p.positions)),
	}
	for k, pos := range p.positions {
		out.positions[k] = &position{
			liquidity:  new(big.Int).Set(pos.liquidity),
			feeGrowth0: new(big.Int).Set(pos.feeGrowth0),
			feeGrowth1: new(big.Int).Set(pos.feeGrowth1),
		}
	}
	return out
}
