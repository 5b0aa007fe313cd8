package main

import (
	"context"
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"routedHook/internal/aggregate"
	"routedHook/internal/config"
	"routedHook/internal/metrics"
	"routedHook/internal/replay"
	"routedHook/internal/storage"
	"routedHook/internal/storage/postgres"
)

func runReplay(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadReplay(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.In == "" {
		return fmt.Errorf("input path is required")
	}
	if cfg.Out == "" {
		return fmt.Errorf("output path is required")
	}
	runCfg, err := replayConfig(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)
	server := metrics.NewServer(cfg.MetricsAddr, reg)
	go func() {
		if err := server.Start(); err != nil {
			logger.Error("metrics server", zap.Error(err))
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Stop(shutdownCtx)
	}()

	agg := aggregate.NewAggregator(logger.Named("aggregate"))
	sinks := storage.Fanout{storage.NewJsonlStorage(cfg.Out), agg}
	var summaryTo summarySinks
	if cfg.SummaryOut != "" {
		summaryTo = append(summaryTo, storage.NewJsonlStorage(cfg.SummaryOut))
	}

	var store *postgres.Store
	var state replay.StateStore = replay.NewFileCheckpoint(cfg.Checkpoint, cfg.CheckpointEnabled)
	if cfg.PGDSN != "" {
		store, err = postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer store.Close()
		if err := store.Migrate(ctx); err != nil {
			return err
		}
		sinks = append(sinks, store)
		summaryTo = append(summaryTo, store)
		if cfg.CheckpointEnabled {
			state = &replay.DBState{Backend: store, Name: "replay:" + cfg.In}
		}
	}

	runner, err := replay.NewRunner(ctx, runCfg, sinks, state, m, logger)
	if err != nil {
		return err
	}
	// summaries are written whole, so they must cover resumed blocks too
	runner.SetReplayedSink(agg)

	file, err := os.Open(cfg.In)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer file.Close()

	logger.Info("replay start",
		zap.String("in", cfg.In),
		zap.String("out", cfg.Out),
		zap.String("strategy", cfg.Strategy),
		zap.String("pool", runner.Key().ID().Hex()),
		zap.String("pg_dsn", redactDSN(cfg.PGDSN)),
		zap.Bool("checkpoint_enabled", cfg.CheckpointEnabled),
		zap.String("metrics_addr", cfg.MetricsAddr),
	)

	res, err := runner.Run(ctx, file)
	if err != nil {
		return err
	}

	summaries := agg.Summaries(time.Now())
	if err := summaryTo.PutSummaries(ctx, summaries); err != nil {
		return fmt.Errorf("store summaries: %w", err)
	}
	if store != nil {
		if err := store.UpsertPools(ctx, runner.PoolRows()); err != nil {
			return fmt.Errorf("store pools: %w", err)
		}
	}

	logger.Info("replay done",
		zap.Int("blocks", res.Blocks),
		zap.Int("swaps", res.Swaps),
		zap.Int("failed", res.Failed),
		zap.Int("rejected", res.Rejected),
		zap.Uint64("last_block", res.LastBlock),
	)
	return nil
}

func replayConfig(cfg config.ReplayConfig) (replay.Config, error) {
	locator, err := cfg.Locator()
	if err != nil {
		return replay.Config{}, err
	}
	c0, err := config.ParseCurrency("currency0", cfg.Currency0)
	if err != nil {
		return replay.Config{}, err
	}
	c1, err := config.ParseCurrency("currency1", cfg.Currency1)
	if err != nil {
		return replay.Config{}, err
	}

	amounts := map[string]string{
		"sqrt-price-x96": cfg.SqrtPriceX96,
		"liquidity":      cfg.Liquidity,
		"reserve0":       cfg.Reserve0,
		"reserve1":       cfg.Reserve1,
		"sender-balance": cfg.SenderBalance,
	}
	parsed := make(map[string]*big.Int, len(amounts))
	for key, value := range amounts {
		v, err := config.ParseAmount(key, value)
		if err != nil {
			return replay.Config{}, err
		}
		parsed[key] = v
	}

	return replay.Config{
		Strategy:    cfg.Strategy,
		Locator:     locator,
		PairFeeBips: cfg.PairFeeBips,
		Pool: replay.PoolSetup{
			Currency0:       c0,
			Currency1:       c1,
			Fee:             cfg.Fee,
			TickSpacing:     cfg.TickSpacing,
			SqrtPriceX96:    parsed["sqrt-price-x96"],
			Liquidity:       parsed["liquidity"],
			Reserve0:        parsed["reserve0"],
			Reserve1:        parsed["reserve1"],
			RetainedFeeBips: cfg.RetainedFeeBips,
		},
		SenderBalance: parsed["sender-balance"],
		BatchSize:     cfg.BatchSize,
	}, nil
}
