// Package hook is the routed-pricing settlement hook. The ledger calls it
// around swaps and liquidity changes; it throttles swaps per direction and
// block, fills them against an external pair, charges a dynamic fee and
// tokenizes full-range liquidity.
package hook

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"routedHook/internal/fees"
	"routedHook/internal/fixedpoint"
	"routedHook/internal/ledger"
	"routedHook/internal/metrics"
	"routedHook/internal/model"
	"routedHook/internal/pricing"
	"routedHook/internal/settlement"
)

type Config struct {
	// Address is the hook's own account; pool keys must name it.
	Address common.Address
	Admin   common.Address

	Strategy    pricing.Strategy
	Ledger      ledger.Ledger
	Pools       ledger.ReferencePools
	Assets      ledger.Assets
	Wrapped     ledger.WrappedNative
	ShareTokens ledger.ShareTokenFactory

	Metrics *metrics.Metrics
	Logger  *zap.Logger
}

// Report describes the last swap that completed both callbacks.
type Report struct {
	Pool     model.PoolID
	Block    uint64
	Strategy string
	Routed   bool
	Step     model.SwapStep
	Fee      model.FeeStep
}

// Engine implements ledger.Hooks. It is not safe for concurrent use and takes
// no locks: the ledger serialises calls and settlement may re-enter it.
type Engine struct {
	cfg         Config
	store       *PoolStore
	settle      *settlement.Adapter
	distributor *fees.Distributor
	accrued     map[model.Currency]*big.Int
	inflight    []Report
	last        *Report
	logger      *zap.Logger
}

var _ ledger.Hooks = (*Engine)(nil)
var _ ledger.Reverter = (*Engine)(nil)

func New(cfg Config) (*Engine, error) {
	if cfg.Ledger == nil || cfg.Assets == nil || cfg.Wrapped == nil || cfg.ShareTokens == nil {
		return nil, errors.New("hook: ledger, assets, wrapped native and share tokens are required")
	}
	if cfg.Strategy == nil {
		return nil, errors.New("hook: pricing strategy is required")
	}
	if _, ok := cfg.Strategy.(pricing.ThrottleOnly); !ok && cfg.Pools == nil {
		return nil, fmt.Errorf("hook: strategy %s needs reference pools", cfg.Strategy.Name())
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	adapter := settlement.NewAdapter(cfg.Address, cfg.Ledger, cfg.Assets, cfg.Wrapped, logger)
	return &Engine{
		cfg:         cfg,
		store:       NewPoolStore(),
		settle:      adapter,
		distributor: fees.NewDistributor(cfg.Address, cfg.Ledger, adapter),
		accrued:     make(map[model.Currency]*big.Int),
		logger:      logger,
	}, nil
}

func (e *Engine) Address() common.Address { return e.cfg.Address }

// Store exposes the pool records.
func (e *Engine) Store() *PoolStore { return e.store }

// LastReport returns the most recent completed swap.
func (e *Engine) LastReport() (Report, bool) {
	if e.last == nil {
		return Report{}, false
	}
	return *e.last, true
}

func (e *Engine) checkKey(key model.PoolKey) error {
	if key.Hooks != e.cfg.Address {
		return fmt.Errorf("%w: pool hooks %s is not this hook", ErrPolicyViolation, key.Hooks.Hex())
	}
	return nil
}

func (e *Engine) AfterInitialize(_ context.Context, _ common.Address, key model.PoolKey, _ *big.Int) (err error) {
	restore := e.Checkpoint()
	defer func() {
		if err != nil {
			restore()
		}
	}()
	if err := e.checkKey(key); err != nil {
		return err
	}
	id := key.ID()
	rec := e.store.Get(id)
	if rec.Registered() {
		return fmt.Errorf("%w: pool %s already initialized", ErrPolicyViolation, id.Hex())
	}
	token, err := e.cfg.ShareTokens.Deploy(id)
	if err != nil {
		return fmt.Errorf("deploy share token: %w", err)
	}
	rec.LiquidityToken = token.Address()
	e.logger.Info("pool registered",
		zap.String("pool", id.Hex()),
		zap.String("share_token", token.Address().Hex()),
		zap.String("strategy", e.cfg.Strategy.Name()),
	)
	return nil
}

// BeforeSwap marks the throttle, then fills the whole specified amount on the
// external pair when the strategy routes it. The returned delta is the part
// of the swapper's delta the hook filled.
func (e *Engine) BeforeSwap(ctx context.Context, sender common.Address, key model.PoolKey, params model.SwapParams) (delta model.Delta, err error) {
	started := time.Now()
	restore := e.Checkpoint()
	defer func() {
		if err != nil {
			restore()
		}
		e.cfg.Metrics.ObserveSwap(e.cfg.Strategy.Name(), outcome(err), started)
	}()

	if err := e.checkKey(key); err != nil {
		return model.Delta{}, err
	}
	id := key.ID()
	rec := e.store.Get(id)
	if !rec.Registered() {
		return model.Delta{}, fmt.Errorf("%w: pool %s not initialized", ErrPolicyViolation, id.Hex())
	}
	if params.AmountSpecified == nil || params.AmountSpecified.Sign() == 0 {
		return model.Delta{}, fmt.Errorf("%w: zero swap amount", ErrPolicyViolation)
	}
	if err := model.CheckInt128(params.AmountSpecified); err != nil {
		return model.Delta{}, err
	}

	block := e.cfg.Ledger.BlockNumber()
	if err := rec.CheckAndMark(params.ZeroForOne, block); err != nil {
		e.cfg.Metrics.ObserveThrottle(params.ZeroForOne)
		return model.Delta{}, err
	}

	amount, err := fixedpoint.AbsFromBig(params.AmountSpecified)
	if err != nil {
		return model.Delta{}, err
	}
	quote, err := e.cfg.Strategy.Quote(ctx, pricing.Request{
		Key:        key,
		ZeroForOne: params.ZeroForOne,
		ExactInput: params.ExactInput(),
		Amount:     amount,
	})
	if err != nil {
		return model.Delta{}, fmt.Errorf("quote: %w", err)
	}
	report := Report{Pool: id, Block: block, Strategy: e.cfg.Strategy.Name(), Routed: quote.Routed}
	if !quote.Routed {
		e.inflight = append(e.inflight, report)
		return model.ZeroDelta(), nil
	}
	if quote.AmountOut.IsZero() {
		return model.Delta{}, fmt.Errorf("%w: output rounds to zero", ErrPolicyViolation)
	}

	step, err := e.route(ctx, key, params, quote)
	if err != nil {
		return model.Delta{}, err
	}
	report.Step = step
	e.inflight = append(e.inflight, report)

	e.logger.Debug("swap routed",
		zap.String("pool", id.Hex()),
		zap.String("sender", sender.Hex()),
		zap.Uint64("block", block),
		zap.String("pair", quote.Pair.Address.Hex()),
		zap.String("amount_in", quote.AmountIn.Dec()),
		zap.String("amount_out", quote.AmountOut.Dec()),
	)
	return step.ReturnDelta, nil
}

// route settles a quote against the external pair: input goes from the
// ledger to the pair, output comes back to the hook and into the ledger.
func (e *Engine) route(ctx context.Context, key model.PoolKey, params model.SwapParams, quote pricing.Quote) (model.SwapStep, error) {
	amountIn := quote.AmountIn.ToBig()
	amountOut := quote.AmountOut.ToBig()
	if err := model.CheckInt128(amountIn); err != nil {
		return model.SwapStep{}, fmt.Errorf("amount in: %w", err)
	}
	if err := model.CheckInt128(amountOut); err != nil {
		return model.SwapStep{}, fmt.Errorf("amount out: %w", err)
	}

	input, output := key.Currency0, key.Currency1
	if !params.ZeroForOne {
		input, output = output, input
	}
	if err := e.settle.Take(input, amountIn, quote.Pair.Address); err != nil {
		return model.SwapStep{}, err
	}
	out0, out1 := quote.PairOutputs(params.ZeroForOne)
	if err := e.cfg.Pools.Swap(ctx, quote.Pair.Address, out0, out1, e.cfg.Address); err != nil {
		return model.SwapStep{}, fmt.Errorf("%w: external swap on %s: %w", ErrSettlementFailed, quote.Pair.Address.Hex(), err)
	}
	if err := e.settle.Settle(output, amountOut); err != nil {
		return model.SwapStep{}, err
	}

	specIs0 := params.SpecifiedIsToken0()
	var ret model.Delta
	if params.ZeroForOne {
		ret = model.NewDelta(new(big.Int).Neg(amountIn), amountOut)
	} else {
		ret = model.NewDelta(amountOut, new(big.Int).Neg(amountIn))
	}
	step := model.SwapStep{
		ExactInput:        params.ExactInput(),
		SpecifiedIsToken0: specIs0,
		SpecifiedAsset:    key.Currency1,
		UnspecifiedAsset:  key.Currency0,
		ExternalPool:      quote.Pair.Address,
		Reserve0:          quote.Reserve0,
		Reserve1:          quote.Reserve1,
		ReturnDelta:       ret,
	}
	if specIs0 {
		step.SpecifiedAsset, step.UnspecifiedAsset = key.Currency0, key.Currency1
	}
	if params.ExactInput() {
		step.SpecifiedAmount, step.UnspecifiedAmount = quote.AmountIn, quote.AmountOut
	} else {
		step.SpecifiedAmount, step.UnspecifiedAmount = quote.AmountOut, quote.AmountIn
	}
	return step, nil
}

// AfterSwap prices the realized delta at the post-swap price and charges the
// difference as a fee on the unspecified currency.
func (e *Engine) AfterSwap(_ context.Context, _ common.Address, key model.PoolKey, params model.SwapParams, delta model.Delta) (charge *big.Int, err error) {
	restore := e.Checkpoint()
	defer func() {
		if err != nil {
			restore()
		}
	}()

	if err := e.checkKey(key); err != nil {
		return nil, err
	}
	if len(e.inflight) == 0 {
		return nil, fmt.Errorf("%w: after swap without before swap", ErrPolicyViolation)
	}
	report := e.inflight[len(e.inflight)-1]
	e.inflight = e.inflight[:len(e.inflight)-1]

	id := key.ID()
	rec := e.store.Get(id)
	liquidity, err := e.cfg.Ledger.Liquidity(id)
	if err != nil {
		return nil, fmt.Errorf("read liquidity: %w", err)
	}
	if liquidity.Sign() == 0 {
		// nothing to donate to
		e.last = &report
		return new(big.Int), nil
	}
	sqrtPrice, _, err := e.cfg.Ledger.Slot0(id)
	if err != nil {
		return nil, fmt.Errorf("read slot0: %w", err)
	}
	step, err := fees.Compute(key, params, delta, sqrtPrice, rec.RetainedFeeBips)
	if err != nil {
		return nil, fmt.Errorf("compute fee: %w", err)
	}
	report.Fee = step
	if step.TotalFee.IsZero() {
		e.last = &report
		return new(big.Int), nil
	}
	charge, err = e.distributor.Distribute(key, step)
	if err != nil {
		return nil, err
	}
	if err := model.CheckInt128(charge); err != nil {
		return nil, fmt.Errorf("fee: %w", err)
	}
	e.accrue(step.FeeAsset, step.RetainedFee.ToBig())
	e.cfg.Metrics.ObserveFee(step.RetainedFee.ToBig(), step.DonatedFee().ToBig())
	e.last = &report

	e.logger.Debug("fee charged",
		zap.String("pool", id.Hex()),
		zap.String("asset", step.FeeAsset.String()),
		zap.String("total", step.TotalFee.Dec()),
		zap.String("retained", step.RetainedFee.Dec()),
	)
	return charge, nil
}

func (e *Engine) accrue(currency model.Currency, amount *big.Int) {
	if amount.Sign() == 0 {
		return
	}
	cur, ok := e.accrued[currency]
	if !ok {
		cur = new(big.Int)
		e.accrued[currency] = cur
	}
	cur.Add(cur, amount)
}

// Accrued returns the retained fees held for currency.
func (e *Engine) Accrued(currency model.Currency) *big.Int {
	if v, ok := e.accrued[currency]; ok {
		return new(big.Int).Set(v)
	}
	return new(big.Int)
}

// Checkpoint captures the engine's own records and returns a function that
// puts them back.
func (e *Engine) Checkpoint() func() {
	records := e.store.snapshot()
	accrued := cloneAccrued(e.accrued)
	inflight := append([]Report(nil), e.inflight...)
	last := e.last
	return func() {
		e.store.restore(records)
		e.accrued = cloneAccrued(accrued)
		e.inflight = append([]Report(nil), inflight...)
		e.last = last
	}
}

func cloneAccrued(m map[model.Currency]*big.Int) map[model.Currency]*big.Int {
	out := make(map[model.Currency]*big.Int, len(m))
	for c, v := range m {
		out[c] = new(big.Int).Set(v)
	}
	return out
}
