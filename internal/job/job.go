// Package job runs one enumguard invocation end to end: scheduler gate, run
// lock, census and two-pass cleanup, daily maintenance, and persistence of
// the catalog and the failure journal.
package job

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"enumguard/internal/catalog"
	"enumguard/internal/census"
	"enumguard/internal/cleanup"
	"enumguard/internal/config"
	"enumguard/internal/devicetree"
	"enumguard/internal/journal"
	"enumguard/internal/lockset"
	"enumguard/internal/logging"
	"enumguard/internal/maintenance"
	"enumguard/internal/privilege"
	"enumguard/internal/runlock"
	"enumguard/internal/schedule"
	"enumguard/internal/usbflags"
)

// Deps are the platform collaborators of a run.
type Deps struct {
	Tree        devicetree.Tree
	Flags       usbflags.Writer
	Maintenance maintenance.Action
	// Now defaults to time.Now.
	Now func() time.Time
	// NewRunID defaults to a random UUID.
	NewRunID func() string
	// SkipPrivilegeCheck silences the elevation warning.
	SkipPrivilegeCheck bool
}

// Options select the run variant.
type Options struct {
	// Force bypasses the scheduler gate. The run lock still applies.
	Force  bool
	DryRun bool
}

// Result describes what a run did.
type Result struct {
	RunID          string
	Gate           schedule.Decision
	Skipped        bool
	SkipReason     string
	CleanupSkipped bool
	Report         cleanup.Report
	MaintenanceRan bool
	CatalogSaved   bool
	JournalPath    string
	Retained       int
}

// Runner executes runs against one configuration.
type Runner struct {
	cfg    *config.Config
	deps   Deps
	logger *slog.Logger
}

// NewRunner builds a runner.
func NewRunner(cfg *config.Config, deps Deps, logger *slog.Logger) *Runner {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.NewRunID == nil {
		deps.NewRunID = uuid.NewString
	}
	if deps.Maintenance == nil {
		deps.Maintenance = maintenance.ResetComDB
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Runner{cfg: cfg, deps: deps, logger: logger}
}

func (r *Runner) run(ctx context.Context, runID string, opts Options) (Result, error) {
	res := Result{RunID: runID}
	logger := logging.NewComponentLogger(r.logger, "job").With(logging.String(logging.FieldRunID, runID))
	started := r.deps.Now()

	logger.Info("run started",
		logging.String("config", r.cfg.Path()),
		logging.Bool("force", opts.Force),
		logging.Bool("dry_run", opts.DryRun),
		logging.Bool("degraded_config", r.cfg.Degraded),
		logging.String(logging.FieldEventType, "run_started"),
	)
	defer func() {
		logger.Info("run finished",
			logging.Bool("skipped", res.Skipped),
			logging.Int("failures", len(res.Report.Failures)),
			logging.Duration("elapsed", r.deps.Now().Sub(started)),
			logging.String(logging.FieldEventType, "run_finished"),
		)
	}()

	if !opts.Force {
		res.Gate = schedule.NewGate(r.deps.Now, logger).Evaluate(r.cfg.ScanStrategy)
		if !res.Gate.Allowed() {
			res.Skipped, res.SkipReason = true, res.Gate.Reason
			return res, nil
		}
	}

	lock, err := runlock.Acquire(r.cfg.RunLockPath())
	if err != nil {
		if errors.Is(err, runlock.ErrHeld) {
			logging.WarnWithContext(logger, "run lock held; invocation skipped", "run_lock_held",
				logging.String("lock", r.cfg.RunLockPath()),
				logging.String(logging.FieldErrorHint, "wait for the other run to finish"),
				logging.String(logging.FieldImpact, "this invocation performs no cleanup"),
			)
			res.Skipped, res.SkipReason = true, "run lock held"
			return res, nil
		}
		return res, err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			logger.Warn("run lock release failed", logging.Error(err))
		}
	}()

	if !opts.DryRun && !r.deps.SkipPrivilegeCheck {
		privilege.WarnIfUnprivileged(logger)
	}

	cat := catalog.FromConfig(r.cfg)
	var runErr error

	locks, err := lockset.Load(r.cfg.LockListPath(), logger)
	if err != nil {
		logging.WarnWithContext(logger, "lock list unusable; cleanup skipped", "lock_list_unusable",
			logging.String("path", r.cfg.LockListPath()),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "fix the lock list JSON document"),
			logging.String(logging.FieldImpact, "no identifiers are cleaned this run"),
		)
		res.CleanupSkipped = true
	} else {
		orchestrator := cleanup.New(cleanup.Deps{
			Census:  census.New(r.deps.Tree, locks, logger),
			Locks:   locks,
			Catalog: cat,
			Flags:   r.deps.Flags,
			Cleaner: devicetree.NewCleaner(r.deps.Tree, logger),
		}, cleanup.Options{
			GlobalThreshold: r.cfg.Threshold,
			DryRun:          opts.DryRun,
			RunID:           runID,
			Now:             r.deps.Now,
		}, logger)

		res.Report, runErr = orchestrator.Run(ctx)
		if runErr != nil && len(res.Report.Passes) == 0 {
			return res, fmt.Errorf("census: %w", runErr)
		}
	}

	if opts.DryRun {
		return res, runErr
	}

	guard := maintenance.NewGuard(r.cfg.MaintenanceStatePath(), r.deps.Now, logger)
	ran, err := guard.Run(ctx, r.deps.Maintenance)
	switch {
	case errors.Is(err, maintenance.ErrUnsupported):
		logger.Debug("daily maintenance unsupported on this platform")
	case err != nil:
		logging.ErrorWithContext(logger, "daily maintenance failed", "maintenance_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "run elevated; the action is retried on the next run today"),
		)
	}
	res.MaintenanceRan = ran

	if res.Report.CatalogChanged() {
		res.CatalogSaved = r.saveCatalog(logger, cat)
	}

	records := res.Report.Failures
	j := journal.New(r.cfg.FailureJournalPath(), r.deps.Now, logger)
	path, err := j.Append(records)
	if err != nil {
		logging.ErrorWithContext(logger, "failure journal not written", "journal_write_failed",
			logging.Error(err),
			logging.Int("records", len(records)),
			logging.String(logging.FieldErrorHint, "check write access to the failure journal directory"),
		)
	}
	res.JournalPath = path
	res.Retained = logging.CleanupOldFiles(logger, r.deps.Now(), r.cfg.JournalRetentionDays, j.RetentionTarget())

	if runErr != nil {
		return res, fmt.Errorf("reconciliation: %w", runErr)
	}
	return res, nil
}

func (r *Runner) saveCatalog(logger *slog.Logger, cat *catalog.Catalog) bool {
	if r.cfg.Degraded {
		logging.WarnWithContext(logger, "catalog changes not saved; configuration is degraded", "catalog_not_saved",
			logging.Int("enrolled", len(cat.Enrolled())),
			logging.String(logging.FieldErrorHint, "fix the configuration document"),
			logging.String(logging.FieldImpact, "auto-enrolled identifiers are forgotten after this run"),
		)
		return false
	}
	if err := cat.SaveTo(r.cfg); err != nil {
		logging.ErrorWithContext(logger, "catalog save failed", "catalog_save_failed",
			logging.Error(err),
			logging.String("path", r.cfg.Path()),
			logging.String(logging.FieldErrorHint, "check write access to the configuration document"),
		)
		return false
	}
	logger.Info("catalog saved",
		logging.String("path", r.cfg.Path()),
		logging.Int("entries", cat.Len()),
		logging.String(logging.FieldEventType, "catalog_saved"),
	)
	return true
}
