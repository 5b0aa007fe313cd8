package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"routedHook/internal/chain"
	"routedHook/internal/config"
	"routedHook/internal/model"
	"routedHook/internal/pricing"
)

type quoteOutput struct {
	Pair       string            `json:"pair"`
	Flipped    bool              `json:"flipped"`
	ZeroForOne bool              `json:"zero_for_one"`
	ExactInput bool              `json:"exact_input"`
	Reserve0   string            `json:"reserve0"`
	Reserve1   string            `json:"reserve1"`
	AmountIn   string            `json:"amount_in"`
	AmountOut  string            `json:"amount_out"`
	Tokens     []chain.TokenMeta `json:"tokens,omitempty"`
}

func runQuote(cmd *cobra.Command, _ []string) error {
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

	if cfg.RPCURL == "" {
		return fmt.Errorf("rpc url is required")
	}
	locator, err := cfg.Locator()
	if err != nil {
		return err
	}
	key, err := poolKey(cfg.Currency0, cfg.Currency1)
	if err != nil {
		return err
	}
	amount, err := config.ParseAmount("amount", cfg.Amount)
	if err != nil {
		return err
	}
	if amount.Sign() == 0 {
		return fmt.Errorf("amount must be positive")
	}
	specified, overflow := uint256.FromBig(amount)
	if overflow {
		return fmt.Errorf("amount does not fit in 256 bits")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	chainClient, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer chainClient.Close()

	var block *big.Int
	if cfg.Block > 0 {
		block = new(big.Int).SetUint64(cfg.Block)
	}
	reader := chain.NewRPCPair(chainClient, chain.RetryPolicy{
		MaxRetries: cfg.MaxRetries,
		BaseDelay:  cfg.RetryBackoff,
	}, block, logger)

	logger.Info("quote start",
		zap.String("rpc", cfg.RPCURL),
		zap.String("currency0", key.Currency0.String()),
		zap.String("currency1", key.Currency1.String()),
		zap.Bool("zero_for_one", cfg.ZeroForOne),
		zap.Bool("exact_input", cfg.ExactInput),
		zap.Uint64("block", cfg.Block),
	)

	quote, err := pricing.NewExternalPool(locator, reader).Quote(ctx, pricing.Request{
		Key:        key,
		ZeroForOne: cfg.ZeroForOne,
		ExactInput: cfg.ExactInput,
		Amount:     specified,
	})
	if err != nil {
		return err
	}

	out := quoteOutput{
		Pair:       quote.Pair.Address.Hex(),
		Flipped:    quote.Flipped,
		ZeroForOne: cfg.ZeroForOne,
		ExactInput: cfg.ExactInput,
		Reserve0:   quote.Reserve0.Dec(),
		Reserve1:   quote.Reserve1.Dec(),
		AmountIn:   quote.AmountIn.Dec(),
		AmountOut:  quote.AmountOut.Dec(),
	}
	for _, c := range []model.Currency{key.Currency0, key.Currency1} {
		if c.IsNative() {
			out.Tokens = append(out.Tokens, chain.TokenMeta{Address: c.Address.Hex(), Decimals: 18, Symbol: "native"})
			continue
		}
		meta, err := chain.FetchTokenMeta(ctx, chainClient, c.Address, logger)
		if err != nil {
			logger.Warn("token metadata fetch failed", zap.String("token", c.Address.Hex()), zap.Error(err))
		}
		out.Tokens = append(out.Tokens, meta)
	}

	return json.NewEncoder(os.Stdout).Encode(out)
}

// poolKey builds the ledger ordering of two currencies; currency0 must sort
// first.
func poolKey(currency0, currency1 string) (model.PoolKey, error) {
	c0, err := config.ParseCurrency("currency0", currency0)
	if err != nil {
		return model.PoolKey{}, err
	}
	c1, err := config.ParseCurrency("currency1", currency1)
	if err != nil {
		return model.PoolKey{}, err
	}
	key := model.PoolKey{Currency0: c0, Currency1: c1}
	if !key.Sorted() {
		return model.PoolKey{}, fmt.Errorf("currency0 %s must sort below currency1 %s", c0, c1)
	}
	return key, nil
}

// verifyPair confirms code exists at pair and that it reports the expected
// tokens.
func verifyPair(ctx context.Context, client *chain.Client, cfg config.QuoteConfig, pair, token0, token1 common.Address, logger *zap.Logger) (bool, error) {
	deployed, err := client.HasCode(ctx, pair)
	if err != nil {
		return false, fmt.Errorf("read pair code: %w", err)
	}
	if !deployed {
		logger.Warn("no contract at computed pair address", zap.String("pair", pair.Hex()))
		return false, nil
	}
	reader := chain.NewRPCPair(client, chain.RetryPolicy{MaxRetries: cfg.MaxRetries, BaseDelay: cfg.RetryBackoff}, nil, logger)
	got0, got1, err := reader.Tokens(ctx, pair)
	if err != nil {
		return false, err
	}
	if got0 != token0 || got1 != token1 {
		logger.Warn("pair tokens differ from computed ordering",
			zap.String("token0", got0.Hex()),
			zap.String("token1", got1.Hex()),
		)
		return false, nil
	}
	return true, nil
}
