package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"routedHook/internal/aggregate"
	"routedHook/internal/config"
	"routedHook/internal/model"
	"routedHook/internal/storage"
	"routedHook/internal/storage/postgres"
)

type summarySinks []storage.SummarySink

func (s summarySinks) PutSummaries(ctx context.Context, summaries []model.PoolFeeSummary) error {
	for _, sink := range s {
		if err := sink.PutSummaries(ctx, summaries); err != nil {
			return err
		}
	}
	return nil
}

func runSummarize(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadSummarize(cfgFile, cmd.Flags())
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var sinks summarySinks
	if cfg.SummaryOut != "" {
		sinks = append(sinks, storage.NewJsonlStorage(cfg.SummaryOut))
	}
	if cfg.PGDSN != "" {
		store, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer store.Close()
		if err := store.Migrate(ctx); err != nil {
			return err
		}
		sinks = append(sinks, store)
	}

	file, err := os.Open(cfg.In)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer file.Close()

	logger.Info("summarize start",
		zap.String("in", cfg.In),
		zap.String("summary_out", cfg.SummaryOut),
		zap.String("pg_dsn", redactDSN(cfg.PGDSN)),
	)

	_, err = aggregate.NewAggregator(logger).Run(ctx, file, sinks)
	return err
}
