package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"lpzap/internal/config"
	"lpzap/internal/logging"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "lpzap",
		Short:        "Single-asset liquidity zaps for V2 exchanges",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	simulateCmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run a scripted zap scenario against an in-memory exchange",
		RunE:  runSimulate,
	}

	simulateCmd.Flags().String("scenario", "", "scenario YAML file")
	simulateCmd.Flags().String("out", "./data/receipts.jsonl", "receipts JSONL path (empty disables)")
	simulateCmd.Flags().String("pg-dsn", "", "Postgres DSN for receipts")
	simulateCmd.Flags().String("metrics-out", "", "Prometheus textfile path")
	simulateCmd.Flags().Bool("strict", true, "fail when a zap outcome differs from its expectation")
	addLogFlags(simulateCmd)

	root.AddCommand(simulateCmd)

	preflightCmd := &cobra.Command{
		Use:   "preflight",
		Short: "Validate a zap against a live router without executing it",
		RunE:  runPreflight,
	}

	preflightCmd.Flags().String("rpc", "", "RPC URL")
	preflightCmd.Flags().String("network", "bsc", "network for the default router (bsc, bsc-testnet)")
	preflightCmd.Flags().String("router", "", "V2 router address (overrides --network)")
	preflightCmd.Flags().String("input", "", "input token address or \"native\"")
	preflightCmd.Flags().String("amount", "1", "input amount in base units")
	preflightCmd.Flags().StringSlice("path0", nil, "swap path for side 0 (comma-separated)")
	preflightCmd.Flags().StringSlice("path1", nil, "swap path for side 1 (comma-separated)")
	preflightCmd.Flags().StringSlice("pair", nil, "expected pair tokens (comma-separated)")
	preflightCmd.Flags().String("deadline", "", "deadline (unix seconds or RFC3339), default now+10m")
	preflightCmd.Flags().Int("max-retries", 5, "maximum retry attempts")
	preflightCmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	addLogFlags(preflightCmd)

	root.AddCommand(preflightCmd)

	return root
}

func addLogFlags(cmd *cobra.Command) {
	cmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
	cmd.Flags().String("log-file", "", "also write logs to this rotated file")
}

func newLogger(cfg config.LogConfig) (*zap.Logger, error) {
	return logging.New(logging.Options{
		Level:      cfg.Level,
		File:       cfg.File,
		MaxSizeMB:  cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
	})
}
