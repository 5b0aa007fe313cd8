package config

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"routedHook/internal/model"
	"routedHook/internal/pairlocator"
)

// Mainnet constant-product factory deployment used when nothing overrides it.
const (
	DefaultFactory       = "0x5C69bEe701ef814a2B6a3EDD4B1652CB9cc5aA6f"
	DefaultInitCodeHash  = "0x96e8ac4277198ff8b6f785478aa9a39f403cb768dd02cbee326c3e7da348845f"
	DefaultWrappedNative = "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"
)

// Deployment names the external pair factory the hook prices against.
type Deployment struct {
	Factory       string
	InitCodeHash  string
	WrappedNative string
}

// Locator validates the deployment and builds a pair locator from it.
func (d Deployment) Locator() (pairlocator.Locator, error) {
	factory, err := ParseAddress("factory", d.Factory)
	if err != nil {
		return pairlocator.Locator{}, err
	}
	wrapped, err := ParseAddress("wrapped-native", d.WrappedNative)
	if err != nil {
		return pairlocator.Locator{}, err
	}
	hash := strings.TrimPrefix(strings.TrimSpace(d.InitCodeHash), "0x")
	if len(hash) != 64 {
		return pairlocator.Locator{}, fmt.Errorf("init-code-hash must be 32 bytes, got %q", d.InitCodeHash)
	}
	return pairlocator.New(factory, common.HexToHash(hash), wrapped), nil
}

// ParseAddress parses a hex address, naming the offending key on failure.
func ParseAddress(key, value string) (common.Address, error) {
	value = strings.TrimSpace(value)
	if !common.IsHexAddress(value) {
		return common.Address{}, fmt.Errorf("%s: invalid address %q", key, value)
	}
	return common.HexToAddress(value), nil
}

// ParseCurrency accepts a token address or "native" for the chain's own asset.
func ParseCurrency(key, value string) (model.Currency, error) {
	value = strings.TrimSpace(value)
	if strings.EqualFold(value, "native") {
		return model.NativeCurrency, nil
	}
	addr, err := ParseAddress(key, value)
	if err != nil {
		return model.Currency{}, err
	}
	return model.Currency{Address: addr}, nil
}

// ParseAmount parses a non-negative base-10 integer. Empty means zero.
func ParseAmount(key, value string) (*big.Int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return new(big.Int), nil
	}
	v, ok := new(big.Int).SetString(value, 10)
	if !ok || v.Sign() < 0 {
		return nil, fmt.Errorf("%s: invalid amount %q", key, value)
	}
	return v, nil
}

// load merges config file, environment variables, and flags into a viper
// instance seeded with defaults.
func load(cfgFile string, flags *pflag.FlagSet, defaults map[string]interface{}) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix("ROUTEDHOOK")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("factory", DefaultFactory)
	v.SetDefault("init-code-hash", DefaultInitCodeHash)
	v.SetDefault("wrapped-native", DefaultWrappedNative)
	v.SetDefault("log-level", "info")
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}
	return v, nil
}

func deployment(v *viper.Viper) Deployment {
	return Deployment{
		Factory:       v.GetString("factory"),
		InitCodeHash:  v.GetString("init-code-hash"),
		WrappedNative: v.GetString("wrapped-native"),
	}
}
