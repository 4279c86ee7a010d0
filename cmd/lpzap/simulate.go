package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"lpzap/internal/aggregate"
	"lpzap/internal/config"
	"lpzap/internal/metrics"
	"lpzap/internal/scenario"
	"lpzap/internal/storage"
	"lpzap/internal/storage/postgres"
)

func runSimulate(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadSimulate(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.Scenario == "" {
		return fmt.Errorf("scenario path is required")
	}

	sc, err := scenario.Load(cfg.Scenario)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var sinks storage.Multi
	if cfg.Out != "" {
		sinks = append(sinks, storage.NewJsonlStorage(cfg.Out))
	}
	if cfg.PGDSN != "" {
		store, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer store.Close()
		if err := store.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
		sinks = append(sinks, store)
	}

	m, err := metrics.New()
	if err != nil {
		return err
	}

	logger.Info("simulation start",
		zap.String("scenario", sc.Name),
		zap.Int("pools", len(sc.Pools)),
		zap.Int("zaps", len(sc.Zaps)),
		zap.String("out", cfg.Out),
		zap.Bool("postgres", cfg.PGDSN != ""),
	)

	report, err := scenario.Run(ctx, sc, scenario.Options{Logger: logger, Observer: m})
	if err != nil {
		return err
	}

	if err := sinks.PutReceiptBatch(ctx, report.Receipts()); err != nil {
		return fmt.Errorf("store receipts: %w", err)
	}
	if err := m.WriteTextfile(cfg.MetricsOut); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}

	out := cmd.OutOrStdout()
	for _, outcome := range report.Outcomes {
		mark := "ok  "
		if !outcome.Matched() {
			mark = "FAIL"
		}
		fmt.Fprintf(out, "%s %-40s expected=%s actual=%s\n", mark, outcome.Name, outcome.Expected, outcome.Actual)
	}

	summary, err := aggregate.Summarize(report.Receipts())
	if err != nil {
		return err
	}
	for _, acc := range summary {
		logger.Info("pair summary",
			zap.String("pair", acc.Pair),
			zap.Uint64("zaps", acc.Zaps),
			zap.Uint64("settled", acc.Settled),
			zap.String("liquidity", acc.Liquidity.String()),
			zap.Int("dust_assets", len(acc.Dust)),
		)
	}

	mismatches := report.Mismatches()
	logger.Info("simulation done",
		zap.String("scenario", sc.Name),
		zap.Int("zaps", len(report.Outcomes)),
		zap.Int("mismatches", len(mismatches)),
	)
	if cfg.Strict && len(mismatches) > 0 {
		return fmt.Errorf("%d of %d zaps did not match their expectation", len(mismatches), len(report.Outcomes))
	}
	return nil
}
