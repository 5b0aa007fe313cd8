package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"routedHook/internal/chain"
	"routedHook/internal/config"
)

type locateOutput struct {
	Pair     string `json:"pair"`
	Token0   string `json:"token0"`
	Token1   string `json:"token1"`
	Verified *bool  `json:"verified,omitempty"`
}

func runLocate(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadQuote(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	locator, err := cfg.Locator()
	if err != nil {
		return err
	}
	c0, err := config.ParseCurrency("currency0", cfg.Currency0)
	if err != nil {
		return err
	}
	c1, err := config.ParseCurrency("currency1", cfg.Currency1)
	if err != nil {
		return err
	}
	pair, err := locator.Locate(c0, c1)
	if err != nil {
		return err
	}

	logger.Debug("pair located",
		zap.String("pair", pair.Address.Hex()),
		zap.String("token0", pair.Token0.Hex()),
		zap.String("token1", pair.Token1.Hex()),
	)

	out := locateOutput{
		Pair:   pair.Address.Hex(),
		Token0: pair.Token0.Hex(),
		Token1: pair.Token1.Hex(),
	}

	// the address is computed, confirm it is deployed
	if cfg.RPCURL != "" {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		chainClient, err := chain.NewClient(ctx, cfg.RPCURL)
		if err != nil {
			return fmt.Errorf("connect rpc: %w", err)
		}
		defer chainClient.Close()

		verified, err := verifyPair(ctx, chainClient, cfg, pair.Address, pair.Token0, pair.Token1, logger)
		if err != nil {
			return err
		}
		out.Verified = &verified
	}

	return json.NewEncoder(os.Stdout).Encode(out)
}
