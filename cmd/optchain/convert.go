package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dgnsrekt/optchain-analytics/internal/config"
	"github.com/dgnsrekt/optchain-analytics/internal/convert"
	"github.com/dgnsrekt/optchain-analytics/internal/data"
	"github.com/dgnsrekt/optchain-analytics/internal/notify"
	"github.com/dgnsrekt/optchain-analytics/internal/report"
	"github.com/dgnsrekt/optchain-analytics/internal/staging"
)

func convertCmd() *cobra.Command {
	var (
		dryRun   bool
		tickers  []string
		compress bool
		doNotify bool
	)

	cmd := &cobra.Command{
		Use:   "convert YYYY-MM-DD [END_DATE]",
		Short: "Convert flat-file day aggregates into chain snapshots",
		Long: `Convert options and stocks day-aggregate CSV files into per-ticker JSONL
chain snapshots that the snapshot source and the server can read.

Files are written to a staging area first and moved into the snapshot
directory only after the batch finishes. Existing snapshots are skipped.
Weekends and NYSE holidays are skipped.

Examples:
  # Convert one trading day for the configured tickers
  optchain convert 2025-03-14

  # Convert a week for two tickers, zstd-compressed
  optchain convert 2025-03-10 2025-03-14 --tickers SPY,QQQ --compress`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := logger.With(zap.String("batch", uuid.NewString()))

			dates, err := parseDates(args)
			if err != nil {
				return err
			}
			dates = filterMarketDays(report.NewMarketCalendar(), dates, logger)
			if len(dates) == 0 {
				return fmt.Errorf("no trading days in range")
			}

			effectiveTickers := resolveTickers(cfg, tickers)
			tasks := convert.Tasks(dates, effectiveTickers)
			logger.Info("generated tasks", zap.Int("count", len(tasks)))

			if dryRun {
				for _, t := range tasks {
					fmt.Printf("Would convert: %s\n", t)
				}
				return nil
			}

			reader, err := data.NewFlatFileLoader(cfg.Data.FlatFileDir, logger)
			if err != nil {
				return err
			}
			stgMgr := staging.NewManager(cfg.Data.SnapshotDir)
			useZstd := cfg.Convert.Compress || compress
			mgr := convert.NewManager(reader, stgMgr, cfg.Convert.Workers, useZstd, logger)

			var notifier notify.Notifier = &notify.NoopNotifier{}
			if doNotify {
				notifier = notify.New(&cfg.Notify, logger)
			}

			start := time.Now()
			result, err := mgr.Execute(ctx, tasks)
			if err != nil {
				return err
			}

			// Commit staging to final location and cleanup (only if there were actual conversions)
			if result.Success > 0 {
				commitDates(stgMgr, dates, logger)
			}

			logger.Info("convert complete",
				zap.Int("total", result.Total),
				zap.Int("success", result.Success),
				zap.Int("skipped", result.Skipped),
				zap.Int("not_found", result.NotFound),
				zap.Int("failed", result.Failed),
				zap.Int("contracts", result.Contracts),
			)

			if err := notifier.SendConvert(ctx, result, dateLabel(dates), time.Since(start)); err != nil {
				logger.Warn("failed to send notification", zap.Error(err))
			}

			if result.Failed > 0 {
				for _, e := range result.Errors {
					logger.Error("convert error", zap.String("error", e))
				}
				return fmt.Errorf("%d conversions failed", result.Failed)
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "show what would be converted")
	cmd.Flags().StringSliceVar(&tickers, "tickers", nil, "override tickers from config")
	cmd.Flags().BoolVar(&compress, "compress", false, "write chain.jsonl.zst instead of chain.jsonl")
	cmd.Flags().BoolVar(&doNotify, "notify", false, "send a notification when the batch finishes")

	return cmd
}

func resolveTickers(cfg *config.Config, override []string) []string {
	tickers := cfg.Convert.Tickers
	if len(override) > 0 {
		tickers = override
	}
	if len(tickers) == 0 {
		tickers = config.DefaultTickers
	}
	return tickers
}

func commitDates(stgMgr *staging.Manager, dates []string, logger *zap.Logger) {
	for _, date := range dates {
		if _, err := os.Stat(stgMgr.StagingDir(date)); err != nil {
			continue
		}
		if err := stgMgr.CommitStaging(date); err != nil {
			logger.Warn("failed to commit staging", zap.String("date", date), zap.Error(err))
		}
		if err := stgMgr.CleanupStaging(date); err != nil {
			logger.Warn("failed to cleanup staging", zap.String("date", date), zap.Error(err))
		}
	}
}

func dateLabel(dates []string) string {
	if len(dates) == 1 {
		return dates[0]
	}
	return strings.Join([]string{dates[0], dates[len(dates)-1]}, " to ")
}
