package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	root := &cobra.Command{
		Use:          "routedhook",
		Short:        "Routed-pricing settlement hook tools",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	locateCmd := &cobra.Command{
		Use:   "locate",
		Short: "Compute the external pair address for two currencies",
		RunE:  runLocate,
	}
	addDeploymentFlags(locateCmd)
	locateCmd.Flags().String("currency0", "", "first currency (address or \"native\")")
	locateCmd.Flags().String("currency1", "", "second currency (address or \"native\")")
	locateCmd.Flags().String("rpc", "", "optional RPC URL to confirm the pair is deployed")
	locateCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
	root.AddCommand(locateCmd)

	quoteCmd := &cobra.Command{
		Use:   "quote",
		Short: "Quote a routed swap against live pair reserves",
		RunE:  runQuote,
	}
	addDeploymentFlags(quoteCmd)
	quoteCmd.Flags().String("rpc", "", "RPC URL")
	quoteCmd.Flags().String("currency0", "", "pool currency0 (address or \"native\")")
	quoteCmd.Flags().String("currency1", "", "pool currency1 (address or \"native\")")
	quoteCmd.Flags().Bool("zero-for-one", true, "swap currency0 for currency1")
	quoteCmd.Flags().Bool("exact-input", true, "amount is the input (false: the output)")
	quoteCmd.Flags().String("amount", "", "specified amount in base units")
	quoteCmd.Flags().Uint64("block", 0, "block to read reserves at, 0 means latest")
	quoteCmd.Flags().Int("max-retries", 3, "maximum retry attempts")
	quoteCmd.Flags().Duration("retry-backoff", 250*time.Millisecond, "initial retry backoff")
	quoteCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
	root.AddCommand(quoteCmd)

	replayCmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay swap and liquidity intents against an in-memory ledger",
		RunE:  runReplay,
	}
	addDeploymentFlags(replayCmd)
	replayCmd.Flags().String("in", "", "input intents JSONL")
	replayCmd.Flags().String("out", "./data/settlements.jsonl", "output settlements JSONL")
	replayCmd.Flags().String("summary-out", "./data/fee_summaries.jsonl", "output fee summaries JSONL")
	replayCmd.Flags().String("checkpoint", "./data/replay_checkpoint.json", "checkpoint file path")
	replayCmd.Flags().Bool("checkpoint-enabled", true, "enable checkpointing")
	replayCmd.Flags().String("strategy", "external_pool", "pricing strategy (external_pool, throttle_only)")
	replayCmd.Flags().String("currency0", "", "pool currency0 (address or \"native\")")
	replayCmd.Flags().String("currency1", "", "pool currency1 (address or \"native\")")
	replayCmd.Flags().Uint32("fee", 0, "pool fee field")
	replayCmd.Flags().Int32("tick-spacing", 60, "pool tick spacing")
	replayCmd.Flags().String("sqrt-price-x96", "79228162514264337593543950336", "initial pool sqrt price (Q64.96)")
	replayCmd.Flags().String("liquidity", "1000000000000000000", "initial full-range liquidity")
	replayCmd.Flags().String("reserve0", "1000000000000000000000", "external pair reserve of currency0")
	replayCmd.Flags().String("reserve1", "1000000000000000000000", "external pair reserve of currency1")
	replayCmd.Flags().Uint32("pair-fee-bips", 0, "fee the external pair's invariant check applies")
	replayCmd.Flags().Uint32("retained-fee-bips", 0, "initial retained fee share in basis points")
	replayCmd.Flags().String("sender-balance", "1000000000000000000000000", "starting balance per sender and currency")
	replayCmd.Flags().String("pg-dsn", "", "optional Postgres DSN")
	replayCmd.Flags().Int("batch-size", 500, "settlement records per write")
	replayCmd.Flags().String("metrics-addr", "", "serve Prometheus metrics on this address while replaying")
	replayCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
	root.AddCommand(replayCmd)

	summarizeCmd := &cobra.Command{
		Use:   "summarize",
		Short: "Aggregate settlement records into per-pool fee summaries",
		RunE:  runSummarize,
	}
	summarizeCmd.Flags().String("in", "", "input settlements JSONL")
	summarizeCmd.Flags().String("summary-out", "./data/fee_summaries.jsonl", "output fee summaries JSONL")
	summarizeCmd.Flags().String("pg-dsn", "", "optional Postgres DSN")
	summarizeCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
	root.AddCommand(summarizeCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func addDeploymentFlags(cmd *cobra.Command) {
	cmd.Flags().String("factory", "", "pair factory address")
	cmd.Flags().String("init-code-hash", "", "pair init code hash")
	cmd.Flags().String("wrapped-native", "", "wrapped native token address")
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}

func redactDSN(dsn string) string {
	if dsn == "" {
		return dsn
	}
	return "***"
}
