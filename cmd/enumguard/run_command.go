package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"enumguard/internal/config"
	"enumguard/internal/job"
	"enumguard/internal/logging"
	"enumguard/internal/schedule"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var force bool
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one scheduled scan and cleanup",
		Long: "Evaluate the scheduler gate and, when it passes (or with --force), scan the " +
			"device tree, clean identifiers over their threshold, run the daily COM port " +
			"database reset, and persist the catalog and failure journal.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger := ctx.log()
			runner, err := ctx.newRunner(cfg, logger)
			if err != nil {
				return err
			}
			res, err := runner.Execute(cmd.Context(), job.Options{Force: force, DryRun: dryRun})
			printResult(cmd.OutOrStdout(), res)
			return err
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Bypass the scheduler gate")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Classify and report without changing anything")
	return cmd
}

func printResult(out io.Writer, res job.Result) {
	if res.Skipped {
		fmt.Fprintf(out, "Run skipped: %s\n", res.SkipReason)
		return
	}
	if res.CleanupSkipped {
		fmt.Fprintln(out, "Cleanup skipped: lock list unusable")
	}
	for _, pass := range res.Report.Passes {
		fmt.Fprintf(out, "Pass %d: %d identifiers over trigger, %d marked, %d cleaned\n",
			pass.Pass, pass.Identifiers, len(pass.Actions), len(pass.Cleaned))
	}
	if n := len(res.Report.Enrolled); n > 0 {
		fmt.Fprintf(out, "Enrolled: %d (saved: %s)\n", n, yesNo(res.CatalogSaved))
	}
	if n := len(res.Report.Failures); n > 0 {
		fmt.Fprintf(out, "Failures: %d, journal %s\n", n, res.JournalPath)
	}
	if res.MaintenanceRan {
		fmt.Fprintln(out, "Daily maintenance: done")
	}
}

func newWatchCommand(ctx *commandContext) *cobra.Command {
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Poll the scheduler gate and run the job when it opens",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger := logging.NewComponentLogger(ctx.log(), "watch")
			if !schedule.IntervalReliable(interval, cfg.ScanStrategy.Tolerance) {
				logging.WarnWithContext(logger, "poll interval can miss the scheduled window", "watch_interval_wide",
					logging.Duration("interval", interval),
					logging.Int("tolerance_seconds", cfg.ScanStrategy.Tolerance),
					logging.String(logging.FieldErrorHint, "use an interval shorter than twice the tolerance"),
					logging.String(logging.FieldImpact, "scheduled runs may be skipped"),
				)
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			watcher := schedule.NewWatcher(interval, func(tickCtx context.Context) {
				// The document is re-read every tick so operator edits apply.
				tickCfg := config.LoadOrDefault(cfg.Path(), logger)
				runner, err := ctx.newRunner(tickCfg, ctx.log())
				if err != nil {
					logging.ErrorWithContext(logger, "watch tick failed", "watch_tick_failed", logging.Error(err))
					return
				}
				if _, err := runner.Execute(tickCtx, job.Options{}); err != nil {
					logging.ErrorWithContext(logger, "watch tick failed", "watch_tick_failed", logging.Error(err))
				}
			}, logger)
			if err := watcher.Start(runCtx); err != nil {
				return err
			}
			if next, ok := watcher.NextRun(); ok {
				logger.Info("watching scheduler gate",
					logging.Duration("interval", interval),
					logging.Time("next_run", next),
				)
			}
			<-runCtx.Done()
			watcher.Stop()
			return nil
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", time.Minute, "Polling interval")
	return cmd
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
