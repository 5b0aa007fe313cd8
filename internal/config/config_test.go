package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/pflag"
)

func TestLoadQuoteDefaults(t *testing.T) {
	cfg, err := LoadQuote("", nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Factory != DefaultFactory || cfg.WrappedNative != DefaultWrappedNative {
		t.Fatalf("unexpected deployment %+v", cfg.Deployment)
	}
	if !cfg.ZeroForOne || !cfg.ExactInput {
		t.Fatalf("expected exact-input zero-for-one default")
	}
	if cfg.RetryBackoff != 250*time.Millisecond {
		t.Fatalf("unexpected backoff %s", cfg.RetryBackoff)
	}
}

func TestLoadQuoteFlagsOverrideEnv(t *testing.T) {
	t.Setenv("ROUTEDHOOK_AMOUNT", "5")
	t.Setenv("ROUTEDHOOK_MAX_RETRIES", "9")

	flags := pflag.NewFlagSet("quote", pflag.ContinueOnError)
	flags.String("amount", "", "")
	if err := flags.Parse([]string{"--amount", "42"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	cfg, err := LoadQuote("", flags)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Amount != "42" {
		t.Fatalf("expected flag value, got %q", cfg.Amount)
	}
	if cfg.MaxRetries != 9 {
		t.Fatalf("expected env value, got %d", cfg.MaxRetries)
	}
}

func TestLoadReplayFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "replay.yaml")
	body := "in: intents.jsonl\nstrategy: throttle_only\nretained-fee-bips: 2500\ntick-spacing: 10\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadReplay(path, nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.In != "intents.jsonl" || cfg.Strategy != "throttle_only" {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.RetainedFeeBips != 2500 || cfg.TickSpacing != 10 {
		t.Fatalf("unexpected numeric fields %d %d", cfg.RetainedFeeBips, cfg.TickSpacing)
	}
	if !cfg.CheckpointEnabled {
		t.Fatalf("expected checkpointing on by default")
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	if _, err := LoadReplay(filepath.Join(t.TempDir(), "absent.yaml"), nil); err == nil {
		t.Fatalf("expected error for missing config file")
	}
}

func TestDeploymentLocator(t *testing.T) {
	loc, err := Deployment{
		Factory:       DefaultFactory,
		InitCodeHash:  DefaultInitCodeHash,
		WrappedNative: DefaultWrappedNative,
	}.Locator()
	if err != nil {
		t.Fatalf("locator: %v", err)
	}
	if loc.Factory != common.HexToAddress(DefaultFactory) {
		t.Fatalf("unexpected factory %s", loc.Factory.Hex())
	}

	if _, err := (Deployment{Factory: "nope", InitCodeHash: DefaultInitCodeHash, WrappedNative: DefaultWrappedNative}).Locator(); err == nil {
		t.Fatalf("expected invalid factory error")
	}
	if _, err := (Deployment{Factory: DefaultFactory, InitCodeHash: "0x1234", WrappedNative: DefaultWrappedNative}).Locator(); err == nil {
		t.Fatalf("expected invalid hash error")
	}
}

func TestParseCurrencyAndAmount(t *testing.T) {
	c, err := ParseCurrency("currency0", "native")
	if err != nil || !c.IsNative() {
		t.Fatalf("native: %v %v", c, err)
	}
	c, err = ParseCurrency("currency1", DefaultWrappedNative)
	if err != nil || c.Address != common.HexToAddress(DefaultWrappedNative) {
		t.Fatalf("token: %v %v", c, err)
	}
	if _, err := ParseCurrency("currency1", "0x12"); err == nil {
		t.Fatalf("expected short address to fail")
	}

	v, err := ParseAmount("amount", "")
	if err != nil || v.Sign() != 0 {
		t.Fatalf("empty amount: %v %v", v, err)
	}
	if _, err := ParseAmount("amount", "-5"); err == nil {
		t.Fatalf("expected negative amount to fail")
	}
	v, err = ParseAmount("amount", "1000000000000000000000")
	if err != nil || v.String() != "1000000000000000000000" {
		t.Fatalf("large amount: %v %v", v, err)
	}
}
