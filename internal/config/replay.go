package config

import (
	"github.com/spf13/pflag"
)

// ReplayConfig holds configuration for the replay command.
type ReplayConfig struct {
	Deployment
	In                string
	Out               string
	SummaryOut        string
	Checkpoint        string
	CheckpointEnabled bool
	Strategy          string
	Currency0         string
	Currency1         string
	Fee               uint32
	TickSpacing       int32
	SqrtPriceX96      string
	Liquidity         string
	Reserve0          string
	Reserve1          string
	PairFeeBips       uint32
	RetainedFeeBips   uint32
	SenderBalance     string
	PGDSN             string
	BatchSize         int
	MetricsAddr       string
	LogLevel          string
}

// LoadReplay merges config file, environment variables, and flags into ReplayConfig.
func LoadReplay(cfgFile string, flags *pflag.FlagSet) (ReplayConfig, error) {
	v, err := load(cfgFile, flags, map[string]interface{}{
		"out":                "./data/settlements.jsonl",
		"summary-out":        "./data/fee_summaries.jsonl",
		"checkpoint":         "./data/replay_checkpoint.json",
		"checkpoint-enabled": true,
		"strategy":           "external_pool",
		"tick-spacing":       60,
		"sqrt-price-x96":     "79228162514264337593543950336",
		"liquidity":          "1000000000000000000",
		"reserve0":           "1000000000000000000000",
		"reserve1":           "1000000000000000000000",
		"sender-balance":     "1000000000000000000000000",
		"batch-size":         500,
	})
	if err != nil {
		return ReplayConfig{}, err
	}

	return ReplayConfig{
		Deployment:        deployment(v),
		In:                v.GetString("in"),
		Out:               v.GetString("out"),
		SummaryOut:        v.GetString("summary-out"),
		Checkpoint:        v.GetString("checkpoint"),
		CheckpointEnabled: v.GetBool("checkpoint-enabled"),
		Strategy:          v.GetString("strategy"),
		Currency0:         v.GetString("currency0"),
		Currency1:         v.GetString("currency1"),
		Fee:               v.GetUint32("fee"),
		TickSpacing:       v.GetInt32("tick-spacing"),
		SqrtPriceX96:      v.GetString("sqrt-price-x96"),
		Liquidity:         v.GetString("liquidity"),
		Reserve0:          v.GetString("reserve0"),
		Reserve1:          v.GetString("reserve1"),
		PairFeeBips:       v.GetUint32("pair-fee-bips"),
		RetainedFeeBips:   v.GetUint32("retained-fee-bips"),
		SenderBalance:     v.GetString("sender-balance"),
		PGDSN:             v.GetString("pg-dsn"),
		BatchSize:         v.GetInt("batch-size"),
		MetricsAddr:       v.GetString("metrics-addr"),
		LogLevel:          v.GetString("log-level"),
	}, nil
}

// SummarizeConfig holds configuration for the summarize command.
type SummarizeConfig struct {
	In         string
	SummaryOut string
	PGDSN      string
	LogLevel   string
}

// LoadSummarize merges config file, environment variables, and flags into SummarizeConfig.
func LoadSummarize(cfgFile string, flags *pflag.FlagSet) (SummarizeConfig, error) {
	v, err := load(cfgFile, flags, map[string]interface{}{
		"summary-out": "./data/fee_summaries.jsonl",
	})
	if err != nil {
		return SummarizeConfig{}, err
	}
	return SummarizeConfig{
		In:         v.GetString("in"),
		SummaryOut: v.GetString("summary-out"),
		PGDSN:      v.GetString("pg-dsn"),
		LogLevel:   v.GetString("log-level"),
	}, nil
}
