package config

import (
	"time"

	"github.com/spf13/pflag"
)

// QuoteConfig holds configuration for the locate and quote commands.
type QuoteConfig struct {
	Deployment
	RPCURL       string
	Currency0    string
	Currency1    string
	ZeroForOne   bool
	ExactInput   bool
	Amount       string
	Block        uint64
	MaxRetries   int
	RetryBackoff time.Duration
	LogLevel     string
}

// LoadQuote merges config file, environment variables, and flags into QuoteConfig.
func LoadQuote(cfgFile string, flags *pflag.FlagSet) (QuoteConfig, error) {
	v, err := load(cfgFile, flags, map[string]interface{}{
		"zero-for-one":  true,
		"exact-input":   true,
		"max-retries":   3,
		"retry-backoff": 250 * time.Millisecond,
	})
	if err != nil {
		return QuoteConfig{}, err
	}

	return QuoteConfig{
		Deployment:   deployment(v),
		RPCURL:       v.GetString("rpc"),
		Currency0:    v.GetString("currency0"),
		Currency1:    v.GetString("currency1"),
		ZeroForOne:   v.GetBool("zero-for-one"),
		ExactInput:   v.GetBool("exact-input"),
		Amount:       v.GetString("amount"),
		Block:        v.GetUint64("block"),
		MaxRetries:   v.GetInt("max-retries"),
		RetryBackoff: v.GetDuration("retry-backoff"),
		LogLevel:     v.GetString("log-level"),
	}, nil
}
