package main

import (
	"context"
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"lpzap/internal/chain"
	"lpzap/internal/config"
	"lpzap/internal/model"
	"lpzap/internal/zapper"
)

const defaultDeadlineIn = 10 * time.Minute

func runPreflight(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadPreflight(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.RPCURL == "" {
		return fmt.Errorf("rpc url is required")
	}
	if !common.IsHexAddress(cfg.Router) {
		return fmt.Errorf("invalid router address: %s", cfg.Router)
	}
	input, err := model.ParseAsset(cfg.Input)
	if err != nil {
		return err
	}
	amount, ok := new(big.Int).SetString(strings.TrimSpace(cfg.Amount), 10)
	if !ok {
		return fmt.Errorf("invalid amount: %s", cfg.Amount)
	}
	path0, err := model.ParsePath(cfg.Path0)
	if err != nil {
		return fmt.Errorf("path0: %w", err)
	}
	path1, err := model.ParsePath(cfg.Path1)
	if err != nil {
		return fmt.Errorf("path1: %w", err)
	}
	var hint [2]common.Address
	if len(cfg.Pair) > 0 {
		pair, err := model.ParsePath(cfg.Pair)
		if err != nil {
			return fmt.Errorf("pair: %w", err)
		}
		if len(pair) != 2 {
			return fmt.Errorf("pair needs exactly two addresses")
		}
		hint = [2]common.Address{pair[0], pair[1]}
	}

	now := uint64(time.Now().Unix())
	deadline := cfg.Deadline
	if deadline == 0 {
		deadline = now + uint64(defaultDeadlineIn/time.Second)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	chainClient, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer chainClient.Close()

	registry, err := chain.NewRegistry(ctx, chainClient, chain.RegistryConfig{
		Router: common.HexToAddress(cfg.Router),
		Retry:  chain.RetryPolicy{MaxRetries: cfg.MaxRetries, BaseDelay: cfg.RetryBackoff},
	}, logger)
	if err != nil {
		return err
	}

	inputToken := registry.WrappedNative()
	if token, ok := input.TokenAddress(); ok {
		inputToken = token
	}

	// A placeholder recipient; preflight never moves funds.
	req := zapper.ZapRequest{
		InputAsset:  inputToken,
		InputAmount: amount,
		Path0:       path0,
		Path1:       path1,
		PairHint:    hint,
		Recipient:   common.HexToAddress("0x000000000000000000000000000000000000dEaD"),
		Deadline:    deadline,
	}
	pair, err := zapper.Preflight(ctx, registry, now, req)
	if err != nil {
		logger.Warn("preflight rejected",
			zap.String("input", input.String()),
			zap.String("label", zapper.Label(err)),
			zap.Error(err),
		)
		return err
	}

	half := new(big.Int).Rsh(amount, 1)
	legs := []struct {
		path   model.Path
		amount *big.Int
	}{
		{path0, half},
		{path1, new(big.Int).Sub(amount, half)},
	}
	for i, leg := range legs {
		if leg.path.IsTrivial() {
			continue
		}
		amounts, err := registry.GetAmountsOut(ctx, leg.amount, leg.path)
		if err != nil {
			return fmt.Errorf("quote path%d: %w", i, err)
		}
		last, _ := leg.path.Last()
		out := amounts[len(amounts)-1].String()
		if meta, err := registry.TokenMeta(ctx, last); err == nil {
			out = decimal.NewFromBigInt(amounts[len(amounts)-1], -int32(meta.Decimals)).String() + " " + meta.Symbol
		}
		fmt.Fprintf(cmd.OutOrStdout(), "path%d %s: %s -> %s\n", i, leg.path, leg.amount, out)
	}

	logger.Info("preflight passed",
		zap.String("input", input.String()),
		zap.String("pair", pair.Address.Hex()),
		zap.String("token0", pair.Token0.Hex()),
		zap.String("token1", pair.Token1.Hex()),
	)
	fmt.Fprintf(cmd.OutOrStdout(), "pair %s (%s, %s)\n", pair.Address.Hex(), tokenLabel(ctx, registry, pair.Token0), tokenLabel(ctx, registry, pair.Token1))
	return nil
}

func tokenLabel(ctx context.Context, registry *chain.Registry, token common.Address) string {
	meta, err := registry.TokenMeta(ctx, token)
	if err != nil {
		return token.Hex()
	}
	return meta.String()
}
