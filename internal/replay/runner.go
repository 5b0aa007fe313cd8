package replay

import (
	"context"
	"fmt"
	"io"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"routedHook/internal/hook"
	"routedHook/internal/ledger/memory"
	"routedHook/internal/metrics"
	"routedHook/internal/model"
	"routedHook/internal/pairlocator"
	"routedHook/internal/pricing"
	"routedHook/internal/storage"
)

// Fixed actors of the simulated deployment. Intents that administer the hook
// must be sent by AdminAddress.
var (
	LedgerAddress     = common.HexToAddress("0x0000000000000000000000000000000000004444")
	HookAddress       = common.HexToAddress("0x00000000000000000000000000000000000088c8")
	AdminAddress      = common.HexToAddress("0x000000000000000000000000000000000000ad00")
	ShareDeployer     = common.HexToAddress("0x0000000000000000000000000000000000005ade")
	LiquidityProvider = common.HexToAddress("0x0000000000000000000000000000000000001111")
)

// PoolSetup describes the hooked pool and the external pair it starts with.
// Reserves follow the pool key's currency order.
type PoolSetup struct {
	Currency0       model.Currency
	Currency1       model.Currency
	Fee             uint32
	TickSpacing     int32
	SqrtPriceX96    *big.Int
	Liquidity       *big.Int
	Reserve0        *big.Int
	Reserve1        *big.Int
	RetainedFeeBips uint32
}

// Config holds runtime settings for a replay.
type Config struct {
	Strategy      string
	Locator       pairlocator.Locator
	PairFeeBips   uint32
	Pool          PoolSetup
	SenderBalance *big.Int
	BatchSize     int
}

// Result summarises a replay run. Counts cover emitted blocks only.
type Result struct {
	Blocks    int
	Swaps     int
	Failed    int
	Rejected  int
	LastBlock uint64
}

// Runner drives intents through the in-memory ledger and the hook, block by
// block, and writes one settlement record per swap.
type Runner struct {
	cfg      Config
	strategy string
	host     *memory.Host
	engine   *hook.Engine
	key      model.PoolKey
	pair     common.Address
	sink     storage.Sink
	replayed storage.Sink
	state    StateStore
	metrics  *metrics.Metrics
	logger   *zap.Logger
	funded   map[common.Address]bool
}

// NewRunner deploys the pool, seeds liquidity and the external pair, and
// applies the initial retained-fee setting.
func NewRunner(ctx context.Context, cfg Config, sink storage.Sink, state StateStore, m *metrics.Metrics, logger *zap.Logger) (*Runner, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if sink == nil {
		return nil, fmt.Errorf("storage is nil")
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 500
	}
	if cfg.Pool.SqrtPriceX96 == nil {
		return nil, fmt.Errorf("initial sqrt price is required")
	}

	host := memory.NewHost(memory.HostConfig{
		LedgerAddress: LedgerAddress,
		WrappedNative: cfg.Locator.WrappedNative,
		Factory:       cfg.Locator.Factory,
		InitCodeHash:  cfg.Locator.InitCodeHash,
		ShareDeployer: ShareDeployer,
		PairFeeBips:   cfg.PairFeeBips,
		Logger:        logger.Named("ledger"),
	})
	strategy, err := pricing.NewStrategy(cfg.Strategy, host.Locator, host.Pairs)
	if err != nil {
		return nil, err
	}
	engine, err := hook.New(hook.Config{
		Address:     HookAddress,
		Admin:       AdminAddress,
		Strategy:    strategy,
		Ledger:      host.Ledger,
		Pools:       host.Pairs,
		Assets:      host.Bank,
		Wrapped:     host.Wrapped,
		ShareTokens: host.Shares,
		Metrics:     m,
		Logger:      logger.Named("hook"),
	})
	if err != nil {
		return nil, err
	}
	host.RegisterHooks(HookAddress, engine)

	r := &Runner{
		cfg:      cfg,
		strategy: strategy.Name(),
		host:     host,
		engine:   engine,
		sink:     sink,
		state:    state,
		metrics:  m,
		logger:   logger,
		funded:   make(map[common.Address]bool),
		key: model.PoolKey{
			Currency0:   cfg.Pool.Currency0,
			Currency1:   cfg.Pool.Currency1,
			Fee:         cfg.Pool.Fee,
			TickSpacing: cfg.Pool.TickSpacing,
			Hooks:       HookAddress,
		},
	}
	if err := r.setup(ctx); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Runner) setup(ctx context.Context) error {
	p := r.cfg.Pool
	if !r.key.Sorted() {
		return fmt.Errorf("currency0 %s must sort below currency1 %s", p.Currency0, p.Currency1)
	}

	seed := [2]*big.Int{orZero(p.Reserve0), orZero(p.Reserve1)}
	for i, c := range []model.Currency{p.Currency0, p.Currency1} {
		amount := new(big.Int).Add(seed[i], orZero(r.cfg.SenderBalance))
		if err := r.host.Bank.Mint(c, LiquidityProvider, amount); err != nil {
			return fmt.Errorf("seed provider: %w", err)
		}
		if c.IsNative() && seed[i].Sign() > 0 {
			if err := r.host.Wrapped.Deposit(LiquidityProvider, seed[i]); err != nil {
				return fmt.Errorf("seed provider: %w", err)
			}
		}
	}
	r.funded[LiquidityProvider] = true

	if err := r.host.Initialize(ctx, LiquidityProvider, r.key, p.SqrtPriceX96); err != nil {
		return fmt.Errorf("initialize pool: %w", err)
	}
	if p.Liquidity != nil && p.Liquidity.Sign() > 0 {
		_, err := r.host.ModifyLiquidity(ctx, LiquidityProvider, r.key, model.ModifyLiquidityParams{
			TickLower:      hook.MinUsableTick(p.TickSpacing),
			TickUpper:      hook.MaxUsableTick(p.TickSpacing),
			LiquidityDelta: new(big.Int).Set(p.Liquidity),
		})
		if err != nil {
			return fmt.Errorf("seed liquidity: %w", err)
		}
	}

	if r.strategy == pricing.StrategyExternalPool {
		pair, err := r.host.Pairs.Create(p.Currency0, p.Currency1)
		if err != nil {
			return fmt.Errorf("create pair: %w", err)
		}
		a0, a1 := seed[0], seed[1]
		if r.host.Locator.Flipped(pair, r.key) {
			a0, a1 = a1, a0
		}
		if err := r.host.Pairs.Fund(pair.Address, LiquidityProvider, a0, a1); err != nil {
			return fmt.Errorf("fund pair: %w", err)
		}
		r.pair = pair.Address
	}

	if p.RetainedFeeBips > 0 {
		if err := r.setFeeBips(AdminAddress, p.RetainedFeeBips); err != nil {
			return fmt.Errorf("retained fee bips: %w", err)
		}
	}

	r.logger.Info("pool ready",
		zap.String("pool", r.key.ID().Hex()),
		zap.String("strategy", r.strategy),
		zap.String("pair", r.pair.Hex()),
	)
	return nil
}

// Key returns the hooked pool's key.
func (r *Runner) Key() model.PoolKey { return r.key }

// SetReplayedSink routes records of re-executed blocks, the ones at or below
// the checkpoint, to sink. They never reach the main sink or the checkpoint.
func (r *Runner) SetReplayedSink(sink storage.Sink) { r.replayed = sink }

// Engine exposes the hook, mainly for inspection after a run.
func (r *Runner) Engine() *hook.Engine { return r.engine }

// Run replays intents read from in. Blocks at or below the stored position
// are executed to rebuild state but produce no records.
func (r *Runner) Run(ctx context.Context, in io.Reader) (Result, error) {
	var res Result

	intents, err := ReadIntents(in)
	if err != nil {
		return res, err
	}
	batches, err := GroupByBlock(intents)
	if err != nil {
		return res, err
	}

	var resumeAfter uint64
	var resuming bool
	if r.state != nil {
		resumeAfter, resuming, err = r.state.Load(ctx)
		if err != nil {
			return res, fmt.Errorf("load state: %w", err)
		}
		if resuming {
			r.logger.Info("resume from checkpoint", zap.Uint64("last_processed", resumeAfter))
		}
	}

	pending := make([]model.SettlementRecord, 0, r.cfg.BatchSize)
	for _, batch := range batches {
		select {
		case <-ctx.Done():
			return res, ctx.Err()
		default:
		}

		emit := !resuming || batch.Number > resumeAfter
		r.host.Ledger.SetBlock(batch.Number)
		var skipped []model.SettlementRecord
		for i, intent := range batch.Intents {
			rec, err := r.apply(ctx, uint64(i), intent)
			if !emit {
				if rec != nil {
					skipped = append(skipped, *rec)
				}
				continue
			}
			if err != nil {
				res.Rejected++
				r.logger.Warn("intent rejected",
					zap.Uint64("block", batch.Number),
					zap.String("kind", intent.Kind),
					zap.Error(err),
				)
			}
			if rec != nil {
				pending = append(pending, *rec)
				if rec.Failed() {
					res.Failed++
				} else {
					res.Swaps++
				}
			}
		}
		if !emit {
			if r.replayed != nil && len(skipped) > 0 {
				if err := r.replayed.PutSettlements(ctx, skipped); err != nil {
					return res, fmt.Errorf("replayed settlements: %w", err)
				}
			}
			continue
		}

		res.Blocks++
		res.LastBlock = batch.Number
		r.metrics.ObserveBlock(batch.Number)

		if len(pending) >= r.cfg.BatchSize {
			if err := r.flush(ctx, pending, batch.Number); err != nil {
				return res, err
			}
			pending = pending[:0]
		}
	}

	if res.Blocks > 0 {
		if err := r.flush(ctx, pending, res.LastBlock); err != nil {
			return res, err
		}
	}

	r.logger.Info("replay complete",
		zap.Int("blocks", res.Blocks),
		zap.Int("swaps", res.Swaps),
		zap.Int("failed", res.Failed),
		zap.Int("rejected", res.Rejected),
	)
	return res, nil
}

func (r *Runner) flush(ctx context.Context, records []model.SettlementRecord, block uint64) error {
	if len(records) > 0 {
		if err := r.sink.PutSettlements(ctx, records); err != nil {
			return fmt.Errorf("store settlements: %w", err)
		}
	}
	if r.state != nil {
		if err := r.state.Save(ctx, block); err != nil {
			return fmt.Errorf("save state: %w", err)
		}
	}
	r.logger.Debug("batch complete", zap.Int("records", len(records)), zap.Uint64("block", block))
	return nil
}

// apply executes one intent. Swaps always yield a record, failed or not.
// The error reports non-swap intents that the ledger or hook refused.
func (r *Runner) apply(ctx context.Context, seq uint64, intent model.Intent) (*model.SettlementRecord, error) {
	sender := common.HexToAddress(intent.Sender)
	if err := r.fund(sender); err != nil {
		return nil, err
	}

	switch intent.Kind {
	case model.IntentSwap:
		rec := r.swap(ctx, seq, sender, intent)
		return &rec, nil
	case model.IntentAddLiquidity, model.IntentRemoveLiquidity:
		return nil, r.modifyLiquidity(ctx, sender, intent)
	case model.IntentSetFeeBips:
		return nil, r.setFeeBips(sender, intent.FeeBips)
	default:
		return nil, fmt.Errorf("unknown intent kind %q", intent.Kind)
	}
}

func (r *Runner) swap(ctx context.Context, seq uint64, sender common.Address, intent model.Intent) model.SettlementRecord {
	amount, _ := new(big.Int).SetString(intent.Amount, 10)
	if intent.ExactInput {
		amount.Neg(amount)
	}
	params := model.SwapParams{ZeroForOne: intent.ZeroForOne, AmountSpecified: amount}

	rec := model.SettlementRecord{
		PoolID:          r.key.ID().Hex(),
		BlockNumber:     intent.BlockNumber,
		Seq:             seq,
		Sender:          sender.Hex(),
		ZeroForOne:      intent.ZeroForOne,
		ExactInput:      intent.ExactInput,
		AmountSpecified: amount.String(),
		Amount0:         "0",
		Amount1:         "0",
		Strategy:        r.strategy,
		TotalFee:        "0",
		RetainedFee:     "0",
		DonatedFee:      "0",
		RecordedAt:      time.Now().UTC().Format(time.RFC3339Nano),
	}

	delta, err := r.host.Swap(ctx, sender, r.key, params)
	if err != nil {
		rec.Error = err.Error()
		return rec
	}
	rec.Amount0 = delta.Amount0.String()
	rec.Amount1 = delta.Amount1.String()

	// a successful swap always leaves its own report behind
	report, ok := r.engine.LastReport()
	if !ok {
		return rec
	}
	rec.Strategy = report.Strategy
	if report.Routed {
		rec.ExternalPool = report.Step.ExternalPool.Hex()
		if report.Step.Reserve0 != nil && report.Step.Reserve1 != nil {
			rec.Reserve0 = report.Step.Reserve0.Dec()
			rec.Reserve1 = report.Step.Reserve1.Dec()
		}
	}
	if fee := report.Fee; fee.TotalFee != nil && fee.RetainedFee != nil {
		rec.FeeAsset = fee.FeeAsset.String()
		rec.TotalFee = fee.TotalFee.Dec()
		rec.RetainedFee = fee.RetainedFee.Dec()
		rec.DonatedFee = fee.DonatedFee().Dec()
	}
	return rec
}

func (r *Runner) modifyLiquidity(ctx context.Context, sender common.Address, intent model.Intent) error {
	liquidity, _ := new(big.Int).SetString(intent.Liquidity, 10)
	if intent.Kind == model.IntentRemoveLiquidity {
		liquidity.Neg(liquidity)
	}
	lower, upper := intent.TickLower, intent.TickUpper
	if lower == 0 && upper == 0 {
		lower = hook.MinUsableTick(r.key.TickSpacing)
		upper = hook.MaxUsableTick(r.key.TickSpacing)
	}
	_, err := r.host.ModifyLiquidity(ctx, sender, r.key, model.ModifyLiquidityParams{
		TickLower:      lower,
		TickUpper:      upper,
		LiquidityDelta: liquidity,
	})
	return err
}

func (r *Runner) setFeeBips(sender common.Address, bips uint32) error {
	capability, err := r.engine.Authorize(sender)
	if err != nil {
		return err
	}
	return r.engine.SetRetainedFeeBips(capability, r.key, bips)
}

// fund gives a sender its starting balance the first time it appears.
func (r *Runner) fund(sender common.Address) error {
	if r.funded[sender] {
		return nil
	}
	r.funded[sender] = true
	if r.cfg.SenderBalance == nil || r.cfg.SenderBalance.Sign() <= 0 {
		return nil
	}
	for _, c := range []model.Currency{r.key.Currency0, r.key.Currency1} {
		if err := r.host.Bank.Mint(c, sender, r.cfg.SenderBalance); err != nil {
			return fmt.Errorf("fund %s: %w", sender.Hex(), err)
		}
	}
	return nil
}

// PoolRows exports the hook's pool records in storage form.
func (r *Runner) PoolRows() []model.PoolRow {
	rows := make([]model.PoolRow, 0)
	for id, rec := range r.engine.Store().Rows() {
		row := model.PoolRow{
			PoolID:              id.Hex(),
			LiquidityToken:      rec.LiquidityToken.Hex(),
			RetainedFeeBips:     rec.RetainedFeeBips,
			LastZeroForOneBlock: rec.LastZeroForOneBlock,
			LastOneForZeroBlock: rec.LastOneForZeroBlock,
		}
		if id == r.key.ID() {
			row.Currency0 = r.key.Currency0.String()
			row.Currency1 = r.key.Currency1.String()
			row.Fee = r.key.Fee
			row.TickSpacing = r.key.TickSpacing
			if r.pair != (common.Address{}) {
				row.ExternalPool = r.pair.Hex()
			}
		}
		rows = append(rows, row)
	}
	return rows
}

func orZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}
