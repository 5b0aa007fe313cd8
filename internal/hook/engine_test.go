package hook

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"routedHook/internal/fixedpoint"
	"routedHook/internal/ledger/memory"
	"routedHook/internal/metrics"
	"routedHook/internal/model"
	"routedHook/internal/pairlocator"
	"routedHook/internal/pricing"
)

var (
	ledgerAddr = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	wethAddr   = common.HexToAddress("0x00000000000000000000000000000000000000ee")
	factory    = common.HexToAddress("0x00000000000000000000000000000000000000fa")
	deployer   = common.HexToAddress("0x00000000000000000000000000000000000000de")
	hookAddr   = common.HexToAddress("0x0000000000000000000000000000000000000b00")
	admin      = common.HexToAddress("0x000000000000000000000000000000000000ad01")
	lp         = common.HexToAddress("0x0000000000000000000000000000000000001001")
	trader     = common.HexToAddress("0x0000000000000000000000000000000000001002")
	attacker   = common.HexToAddress("0x0000000000000000000000000000000000001003")

	tokenA = model.CurrencyFromHex("0x0000000000000000000000000000000000000011")
	tokenB = model.CurrencyFromHex("0x0000000000000000000000000000000000000022")
)

type fixtureOpts struct {
	strategy  string
	currency0 model.Currency
	currency1 model.Currency
	// external pair reserves in ledger currency order; zero skips the pair
	reserve0  int64
	reserve1  int64
	liquidity int64
}

type fixture struct {
	host    *memory.Host
	engine  *Engine
	metrics *metrics.Metrics
	key     model.PoolKey
	pair    pairlocator.Pair
}

func defaultOpts() fixtureOpts {
	return fixtureOpts{
		strategy:  pricing.StrategyExternalPool,
		currency0: tokenA,
		currency1: tokenB,
		reserve0:  1000,
		reserve1:  1000,
		liquidity: 10000,
	}
}

func newFixture(t *testing.T, opts fixtureOpts) *fixture {
	t.Helper()
	ctx := context.Background()
	host := memory.NewHost(memory.HostConfig{
		LedgerAddress: ledgerAddr,
		WrappedNative: wethAddr,
		Factory:       factory,
		InitCodeHash:  common.HexToHash("0x01"),
		ShareDeployer: deployer,
	})
	supply := big.NewInt(1_000_000_000_000)
	for _, owner := range []common.Address{lp, trader, attacker} {
		for _, c := range []model.Currency{tokenA, tokenB, model.NativeCurrency} {
			if err := host.Bank.Mint(c, owner, supply); err != nil {
				t.Fatalf("mint: %v", err)
			}
		}
	}
	if err := host.Wrapped.Deposit(lp, big.NewInt(1_000_000)); err != nil {
		t.Fatalf("wrap: %v", err)
	}

	strategy, err := pricing.NewStrategy(opts.strategy, host.Locator, host.Pairs)
	if err != nil {
		t.Fatalf("strategy: %v", err)
	}
	m := metrics.New(prometheus.NewRegistry())
	engine, err := New(Config{
		Address:     hookAddr,
		Admin:       admin,
		Strategy:    strategy,
		Ledger:      host.Ledger,
		Pools:       host.Pairs,
		Assets:      host.Bank,
		Wrapped:     host.Wrapped,
		ShareTokens: host.Shares,
		Metrics:     m,
	})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	host.RegisterHooks(hookAddr, engine)

	key := model.PoolKey{
		Currency0:   opts.currency0,
		Currency1:   opts.currency1,
		TickSpacing: 60,
		Hooks:       hookAddr,
	}
	if err := host.Initialize(ctx, lp, key, fixedpoint.Q96.ToBig()); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if opts.liquidity > 0 {
		_, err := host.ModifyLiquidity(ctx, lp, key, model.ModifyLiquidityParams{
			TickLower:      MinUsableTick(60),
			TickUpper:      MaxUsableTick(60),
			LiquidityDelta: big.NewInt(opts.liquidity),
		})
		if err != nil {
			t.Fatalf("add liquidity: %v", err)
		}
	}

	f := &fixture{host: host, engine: engine, metrics: m, key: key}
	if opts.reserve0 > 0 || opts.reserve1 > 0 {
		pair, err := host.Pairs.Create(key.Currency0, key.Currency1)
		if err != nil {
			t.Fatalf("create pair: %v", err)
		}
		a0, a1 := big.NewInt(opts.reserve0), big.NewInt(opts.reserve1)
		if host.Locator.Flipped(pair, key) {
			a0, a1 = a1, a0
		}
		if err := host.Pairs.Fund(pair.Address, lp, a0, a1); err != nil {
			t.Fatalf("fund pair: %v", err)
		}
		f.pair = pair
	}
	return f
}

func (f *fixture) swap(sender common.Address, zeroForOne bool, amountSpecified int64) (model.Delta, error) {
	return f.host.Swap(context.Background(), sender, f.key, model.SwapParams{
		ZeroForOne:      zeroForOne,
		AmountSpecified: big.NewInt(amountSpecified),
	})
}

// pairReserves returns the external reserves in ledger order.
func (f *fixture) pairReserves(t *testing.T) (*big.Int, *big.Int) {
	t.Helper()
	r0, r1, err := f.host.Pairs.Reserves(context.Background(), f.pair.Address)
	if err != nil {
		t.Fatalf("reserves: %v", err)
	}
	if f.host.Locator.Flipped(f.pair, f.key) {
		return r1, r0
	}
	return r0, r1
}

func (f *fixture) balance(c model.Currency, owner common.Address) *big.Int {
	return f.host.Bank.BalanceOf(c, owner)
}

func TestEndToEndRoutedSwap(t *testing.T) {
	f := newFixture(t, defaultOpts())

	delta, err := f.swap(trader, true, -100)
	if err != nil {
		t.Fatalf("first swap: %v", err)
	}
	report, ok := f.engine.LastReport()
	if !ok || !report.Routed {
		t.Fatalf("swap not routed: %+v", report)
	}
	if report.Step.UnspecifiedAmount.Uint64() != 83 {
		t.Fatalf("external output %s want 83", report.Step.UnspecifiedAmount.Dec())
	}
	// pool price stays at parity, so the fee is 100 - 83
	if report.Fee.TotalFee.Uint64() != 17 {
		t.Fatalf("fee %s want 17", report.Fee.TotalFee.Dec())
	}
	if delta.Amount0.Int64() != -100 || delta.Amount1.Int64() != 66 {
		t.Fatalf("swapper delta %s", delta)
	}
	r0, r1 := f.pairReserves(t)
	if r0.Int64() != 1100 || r1.Int64() != 917 {
		t.Fatalf("pair reserves %s %s", r0, r1)
	}

	before := f.balance(tokenA, trader)
	if _, err := f.swap(trader, true, -100); !errors.Is(err, ErrThrottled) {
		t.Fatalf("expected throttle on repeat, got %v", err)
	}
	if got := f.balance(tokenA, trader); got.Cmp(before) != 0 {
		t.Fatalf("throttled swap moved funds: %s -> %s", before, got)
	}
	if r0, _ := f.pairReserves(t); r0.Int64() != 1100 {
		t.Fatalf("throttled swap touched pair: %s", r0)
	}

	f.host.Ledger.SetBlock(f.host.Ledger.BlockNumber() + 1)
	r0, r1 = f.pairReserves(t)
	want, err := pricing.AmountOut(uint256.MustFromBig(big.NewInt(100)), uint256.MustFromBig(r0), uint256.MustFromBig(r1))
	if err != nil {
		t.Fatalf("amount out: %v", err)
	}
	if _, err := f.swap(trader, true, -100); err != nil {
		t.Fatalf("next block swap: %v", err)
	}
	report, _ = f.engine.LastReport()
	if !report.Step.UnspecifiedAmount.Eq(want) || want.Uint64() != 70 {
		t.Fatalf("next block output %s want %s", report.Step.UnspecifiedAmount.Dec(), want.Dec())
	}

	if got := testutil.ToFloat64(f.metrics.ThrottledTotal.WithLabelValues("zero_for_one")); got != 1 {
		t.Fatalf("throttle metric %v", got)
	}
}

func TestOppositeDirectionSameBlock(t *testing.T) {
	f := newFixture(t, defaultOpts())

	if _, err := f.swap(trader, true, -100); err != nil {
		t.Fatalf("zeroForOne: %v", err)
	}
	if _, err := f.swap(attacker, false, -10); err != nil {
		t.Fatalf("oneForZero same block: %v", err)
	}
	if _, err := f.swap(attacker, false, -10); !errors.Is(err, ErrThrottled) {
		t.Fatalf("expected throttle for second oneForZero, got %v", err)
	}
}

func TestSwapConservesBalances(t *testing.T) {
	f := newFixture(t, defaultOpts())
	accounts := []common.Address{trader, f.pair.Address, ledgerAddr, hookAddr}

	sum := func(c model.Currency) *big.Int {
		total := new(big.Int)
		for _, a := range accounts {
			total.Add(total, f.balance(c, a))
		}
		return total
	}
	before0, before1 := sum(tokenA), sum(tokenB)

	c, err := f.engine.Authorize(admin)
	if err != nil {
		t.Fatalf("authorize: %v", err)
	}
	if err := f.engine.SetRetainedFeeBips(c, f.key, 2500); err != nil {
		t.Fatalf("set bips: %v", err)
	}
	if _, err := f.swap(trader, true, -100); err != nil {
		t.Fatalf("swap: %v", err)
	}
	if _, err := f.swap(trader, false, 50); err != nil {
		t.Fatalf("swap: %v", err)
	}

	if sum(tokenA).Cmp(before0) != 0 || sum(tokenB).Cmp(before1) != 0 {
		t.Fatalf("value leaked: %s->%s, %s->%s", before0, sum(tokenA), before1, sum(tokenB))
	}
	if f.host.Ledger.NonzeroDeltas() != 0 {
		t.Fatalf("open deltas after swaps")
	}
}

func TestExactOutputRouted(t *testing.T) {
	f := newFixture(t, defaultOpts())

	delta, err := f.swap(trader, true, 83)
	if err != nil {
		t.Fatalf("swap: %v", err)
	}
	report, _ := f.engine.LastReport()
	// 1000*83/(1000-166) = 99.5 -> 99, plus one
	if report.Step.UnspecifiedAmount.Uint64() != 100 {
		t.Fatalf("external input %s want 100", report.Step.UnspecifiedAmount.Dec())
	}
	if report.Fee.FeeAsset != tokenA || report.Fee.TotalFee.Uint64() != 17 {
		t.Fatalf("fee %s %s", report.Fee.TotalFee.Dec(), report.Fee.FeeAsset)
	}
	if delta.Amount0.Int64() != -117 || delta.Amount1.Int64() != 83 {
		t.Fatalf("swapper delta %s", delta)
	}
}

func TestRetainedFeeAccruesAndClaims(t *testing.T) {
	f := newFixture(t, defaultOpts())
	c, err := f.engine.Authorize(admin)
	if err != nil {
		t.Fatalf("authorize: %v", err)
	}
	if err := f.engine.SetRetainedFeeBips(c, f.key, 1000); err != nil {
		t.Fatalf("set bips: %v", err)
	}
	if _, err := f.swap(trader, true, -100); err != nil {
		t.Fatalf("swap: %v", err)
	}
	report, _ := f.engine.LastReport()
	if report.Fee.RetainedFee.Uint64() != 1 || report.Fee.DonatedFee().Uint64() != 16 {
		t.Fatalf("split %s/%s", report.Fee.RetainedFee.Dec(), report.Fee.DonatedFee().Dec())
	}
	if got := f.engine.Accrued(tokenB); got.Int64() != 1 {
		t.Fatalf("accrued %s", got)
	}
	if got := f.balance(tokenB, hookAddr); got.Int64() != 1 {
		t.Fatalf("hook custody %s", got)
	}

	paid, err := f.engine.Claim(c, tokenB, admin, nil)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if paid.Int64() != 1 || f.balance(tokenB, admin).Int64() != 1 {
		t.Fatalf("claim paid %s, admin holds %s", paid, f.balance(tokenB, admin))
	}
	if f.engine.Accrued(tokenB).Sign() != 0 {
		t.Fatalf("accrued not cleared")
	}
	if _, err := f.engine.Claim(c, tokenB, admin, big.NewInt(1)); !errors.Is(err, ErrPolicyViolation) {
		t.Fatalf("expected over-claim rejection, got %v", err)
	}
}

func TestAdminAuthorization(t *testing.T) {
	f := newFixture(t, defaultOpts())

	if _, err := f.engine.Authorize(trader); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if err := f.engine.SetRetainedFeeBips(nil, f.key, 2000); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("nil capability accepted: %v", err)
	}
	if _, err := f.engine.Claim(&AdminCapability{}, tokenB, trader, nil); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("forged capability accepted: %v", err)
	}

	other := newFixture(t, defaultOpts())
	foreign, err := other.engine.Authorize(admin)
	if err != nil {
		t.Fatalf("authorize: %v", err)
	}
	if err := f.engine.SetRetainedFeeBips(foreign, f.key, 2000); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("capability of another engine accepted: %v", err)
	}

	c, err := f.engine.Authorize(admin)
	if err != nil {
		t.Fatalf("authorize: %v", err)
	}
	for _, bips := range []uint32{0, 999, 10001} {
		if err := f.engine.SetRetainedFeeBips(c, f.key, bips); !errors.Is(err, ErrInvalidFeeBips) {
			t.Fatalf("bips %d: expected invalid, got %v", bips, err)
		}
	}
	for _, bips := range []uint32{1000, 10000} {
		if err := f.engine.SetRetainedFeeBips(c, f.key, bips); err != nil {
			t.Fatalf("bips %d: %v", bips, err)
		}
	}
	if rec, _ := f.engine.Store().Lookup(f.key.ID()); rec.RetainedFeeBips != 10000 {
		t.Fatalf("bips not stored: %d", rec.RetainedFeeBips)
	}
}

func TestReentrantSwapIsThrottled(t *testing.T) {
	f := newFixture(t, defaultOpts())
	ctx := context.Background()

	var inner error
	reentered := false
	f.host.Bank.SetTransferHook(func(c model.Currency, from, to common.Address, _ *big.Int) error {
		if reentered || from != hookAddr || to != f.pair.Address {
			return nil
		}
		reentered = true
		_, inner = f.engine.BeforeSwap(ctx, attacker, f.key, model.SwapParams{
			ZeroForOne:      true,
			AmountSpecified: big.NewInt(-100),
		})
		return nil
	})
	defer f.host.Bank.SetTransferHook(nil)

	if _, err := f.swap(trader, true, -100); err != nil {
		t.Fatalf("outer swap: %v", err)
	}
	if !reentered {
		t.Fatalf("transfer hook never fired")
	}
	if !errors.Is(inner, ErrThrottled) {
		t.Fatalf("reentrant swap not throttled: %v", inner)
	}
}

func TestFailedSwapRestoresThrottle(t *testing.T) {
	f := newFixture(t, defaultOpts())

	// half the out reserve cannot be bought
	if _, err := f.swap(trader, true, 600); !errors.Is(err, ErrInsufficientLiquidity) {
		t.Fatalf("expected insufficient liquidity, got %v", err)
	}
	rec, _ := f.engine.Store().Lookup(f.key.ID())
	if rec.LastZeroForOneBlock != 0 {
		t.Fatalf("failed swap left throttle marker at %d", rec.LastZeroForOneBlock)
	}
	if _, err := f.swap(trader, true, -100); err != nil {
		t.Fatalf("swap after failure in same block: %v", err)
	}
}

func TestSwapPolicyChecks(t *testing.T) {
	f := newFixture(t, defaultOpts())
	ctx := context.Background()

	foreign := f.key
	foreign.Hooks = common.HexToAddress("0x0000000000000000000000000000000000000c00")
	if _, err := f.engine.BeforeSwap(ctx, trader, foreign, model.SwapParams{ZeroForOne: true, AmountSpecified: big.NewInt(-1)}); !errors.Is(err, ErrPolicyViolation) {
		t.Fatalf("foreign key accepted: %v", err)
	}

	unregistered := f.key
	unregistered.Fee = 3000
	if _, err := f.engine.BeforeSwap(ctx, trader, unregistered, model.SwapParams{ZeroForOne: true, AmountSpecified: big.NewInt(-1)}); !errors.Is(err, ErrPolicyViolation) {
		t.Fatalf("unregistered pool accepted: %v", err)
	}

	if _, err := f.engine.BeforeSwap(ctx, trader, f.key, model.SwapParams{ZeroForOne: true, AmountSpecified: big.NewInt(0)}); !errors.Is(err, ErrPolicyViolation) {
		t.Fatalf("zero amount accepted: %v", err)
	}

	// one unit in buys nothing at these reserves
	if _, err := f.swap(trader, true, -1); !errors.Is(err, ErrPolicyViolation) {
		t.Fatalf("dust swap accepted: %v", err)
	}

	if _, err := f.engine.AfterSwap(ctx, trader, f.key, model.SwapParams{ZeroForOne: true, AmountSpecified: big.NewInt(-1)}, model.ZeroDelta()); !errors.Is(err, ErrPolicyViolation) {
		t.Fatalf("after swap without before swap accepted: %v", err)
	}
}

func TestNativeCurrencyRouting(t *testing.T) {
	opts := defaultOpts()
	opts.currency0 = model.NativeCurrency
	opts.currency1 = tokenB
	f := newFixture(t, opts)
	if !f.host.Locator.Flipped(f.pair, f.key) {
		t.Fatalf("expected wrapped native to sort after token")
	}

	nativeBefore := f.balance(model.NativeCurrency, trader)
	delta, err := f.swap(trader, true, -100)
	if err != nil {
		t.Fatalf("native in: %v", err)
	}
	if delta.Amount0.Int64() != -100 || delta.Amount1.Int64() != 66 {
		t.Fatalf("delta %s", delta)
	}
	if got := new(big.Int).Sub(nativeBefore, f.balance(model.NativeCurrency, trader)); got.Int64() != 100 {
		t.Fatalf("trader paid %s native", got)
	}

	out, err := f.swap(trader, false, -50)
	if err != nil {
		t.Fatalf("native out: %v", err)
	}
	if out.Amount0.Sign() <= 0 {
		t.Fatalf("native output %s", out.Amount0)
	}
	if got := f.balance(model.Currency{Address: wethAddr}, hookAddr); got.Sign() != 0 {
		t.Fatalf("hook kept wrapped native %s", got)
	}
	if got := f.balance(model.NativeCurrency, hookAddr); got.Sign() != 0 {
		t.Fatalf("hook kept native %s", got)
	}
}

func TestThrottleOnlyStrategy(t *testing.T) {
	opts := defaultOpts()
	opts.strategy = pricing.StrategyThrottleOnly
	opts.reserve0, opts.reserve1 = 0, 0
	f := newFixture(t, opts)

	delta, err := f.swap(trader, true, -100)
	if err != nil {
		t.Fatalf("swap: %v", err)
	}
	report, _ := f.engine.LastReport()
	if report.Routed {
		t.Fatalf("throttle only swap was routed")
	}
	// the curve pays 99 and the post-swap price values 100 in at 98
	if report.Fee.TotalFee.Uint64() != 1 {
		t.Fatalf("fee %s want 1", report.Fee.TotalFee.Dec())
	}
	if delta.Amount0.Int64() != -100 || delta.Amount1.Int64() != 98 {
		t.Fatalf("delta %s", delta)
	}
	if _, err := f.swap(trader, true, -100); !errors.Is(err, ErrThrottled) {
		t.Fatalf("expected throttle, got %v", err)
	}
}

func TestNoFeeWithoutLiquidity(t *testing.T) {
	opts := defaultOpts()
	opts.liquidity = 0
	f := newFixture(t, opts)
	// the hook takes input from the ledger before the swapper pays, so the
	// ledger needs a float of currency0
	if err := f.host.Bank.Mint(tokenA, ledgerAddr, big.NewInt(100)); err != nil {
		t.Fatalf("mint: %v", err)
	}

	delta, err := f.swap(trader, true, -100)
	if err != nil {
		t.Fatalf("swap: %v", err)
	}
	if delta.Amount1.Int64() != 83 {
		t.Fatalf("delta %s", delta)
	}
	report, _ := f.engine.LastReport()
	if report.Fee.TotalFee != nil && !report.Fee.TotalFee.IsZero() {
		t.Fatalf("fee charged with no liquidity: %s", report.Fee.TotalFee.Dec())
	}
}

func (f *fixture) shares(t *testing.T, owner common.Address) *big.Int {
	t.Helper()
	rec, ok := f.engine.store.Lookup(f.key.ID())
	if !ok {
		t.Fatalf("pool record missing")
	}
	token, ok := f.host.Shares.Lookup(rec.LiquidityToken)
	if !ok {
		t.Fatalf("share token %s missing", rec.LiquidityToken.Hex())
	}
	return token.BalanceOf(owner)
}

func (f *fixture) modify(sender common.Address, lower, upper int32, liquidity int64) error {
	_, err := f.host.ModifyLiquidity(context.Background(), sender, f.key, model.ModifyLiquidityParams{
		TickLower:      lower,
		TickUpper:      upper,
		LiquidityDelta: big.NewInt(liquidity),
	})
	return err
}

func TestFullRangeLiquidityMintsAndBurnsShares(t *testing.T) {
	f := newFixture(t, defaultOpts())
	lower, upper := MinUsableTick(60), MaxUsableTick(60)

	if got := f.shares(t, lp); got.Int64() != 10000 {
		t.Fatalf("lp shares after seed: %s", got)
	}

	if err := f.modify(trader, lower, upper, 2500); err != nil {
		t.Fatalf("add: %v", err)
	}
	if got := f.shares(t, trader); got.Int64() != 2500 {
		t.Fatalf("trader shares after add: %s", got)
	}

	if err := f.modify(lp, lower, upper, -4000); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if got := f.shares(t, lp); got.Int64() != 6000 {
		t.Fatalf("lp shares after remove: %s", got)
	}
}

func TestNarrowRangeLiquidityMintsNoShares(t *testing.T) {
	f := newFixture(t, defaultOpts())

	if err := f.modify(trader, -600, 600, 5000); err != nil {
		t.Fatalf("add: %v", err)
	}
	if got := f.shares(t, trader); got.Sign() != 0 {
		t.Fatalf("narrow add minted %s shares", got)
	}
	if got := f.shares(t, lp); got.Int64() != 10000 {
		t.Fatalf("lp shares changed: %s", got)
	}
}

func TestRemoveBeyondSharesRejected(t *testing.T) {
	f := newFixture(t, defaultOpts())
	lower, upper := MinUsableTick(60), MaxUsableTick(60)

	err := f.modify(lp, lower, upper, -10001)
	if !errors.Is(err, ErrPolicyViolation) {
		t.Fatalf("expected policy violation, got %v", err)
	}
	if got := f.shares(t, lp); got.Int64() != 10000 {
		t.Fatalf("shares after rejected remove: %s", got)
	}
	liquidity, err := f.host.Ledger.Liquidity(f.key.ID())
	if err != nil {
		t.Fatalf("liquidity: %v", err)
	}
	if liquidity.Int64() != 10000 {
		t.Fatalf("liquidity after rejected remove: %s", liquidity)
	}
}

func TestLiquidityDeltaSignChecked(t *testing.T) {
	f := newFixture(t, defaultOpts())
	ctx := context.Background()
	full := func(delta int64) model.ModifyLiquidityParams {
		return model.ModifyLiquidityParams{
			TickLower:      MinUsableTick(60),
			TickUpper:      MaxUsableTick(60),
			LiquidityDelta: big.NewInt(delta),
		}
	}

	if err := f.engine.BeforeAddLiquidity(ctx, lp, f.key, full(0)); !errors.Is(err, ErrPolicyViolation) {
		t.Fatalf("add zero: %v", err)
	}
	if err := f.engine.BeforeAddLiquidity(ctx, lp, f.key, full(-5)); !errors.Is(err, ErrPolicyViolation) {
		t.Fatalf("add negative: %v", err)
	}
	if err := f.engine.BeforeRemoveLiquidity(ctx, lp, f.key, full(5)); !errors.Is(err, ErrPolicyViolation) {
		t.Fatalf("remove positive: %v", err)
	}
	if got := f.shares(t, lp); got.Int64() != 10000 {
		t.Fatalf("shares changed: %s", got)
	}
}
