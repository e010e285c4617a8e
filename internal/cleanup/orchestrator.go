package cleanup

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"enumguard/internal/catalog"
	"enumguard/internal/census"
	"enumguard/internal/deviceid"
	"enumguard/internal/journal"
	"enumguard/internal/logging"
	"enumguard/internal/usbflags"
)

// passes is the number of classification passes per run: one cleanup pass
// and one reconciliation pass over a fresh census.
const passes = 2

// Scanner produces census snapshots.
type Scanner interface {
	Scan(ctx context.Context, minimumCount int) (census.Snapshot, error)
}

// Deleter removes the stale enumeration records of one identifier.
type Deleter interface {
	DeleteStaleEntries(ctx context.Context, id deviceid.ID) error
}

// Deps are the collaborators of one run.
type Deps struct {
	Census  Scanner
	Locks   census.Exemptions
	Catalog *catalog.Catalog
	Flags   usbflags.Writer
	Cleaner Deleter
}

// Options tune one run.
type Options struct {
	GlobalThreshold int
	// DryRun classifies and logs without calling collaborators or enrolling.
	DryRun bool
	RunID  string
	Now    func() time.Time
}

// PassReport summarizes one classification pass.
type PassReport struct {
	Pass        int
	Identifiers int
	Actions     []Action
	Cleaned     []deviceid.ID
}

// Report summarizes a run.
type Report struct {
	Passes   []PassReport
	Enrolled []deviceid.ID
	Failures []journal.Record
}

// CatalogChanged reports whether any identifier was auto-enrolled.
func (r Report) CatalogChanged() bool {
	return len(r.Enrolled) > 0
}

// Orchestrator runs the two-pass cleanup.
type Orchestrator struct {
	deps   Deps
	opts   Options
	logger *slog.Logger
}

// New builds an orchestrator.
func New(deps Deps, opts Options, logger *slog.Logger) *Orchestrator {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if deps.Catalog == nil {
		deps.Catalog = catalog.New(0)
	}
	logger = logging.NewComponentLogger(logger, "orchestrator")
	if opts.RunID != "" {
		logger = logger.With(logging.String(logging.FieldRunID, opts.RunID))
	}
	return &Orchestrator{deps: deps, opts: opts, logger: logger}
}

// Run executes the cleanup pass and the reconciliation pass. A census failure
// in the first pass returns an empty report. A census failure in the second
// pass returns the first pass's report together with the error so callers can
// still persist it. Per-identifier failures never fail the run; they are
// collected in Report.Failures.
func (o *Orchestrator) Run(ctx context.Context) (Report, error) {
	var report Report
	for pass := 1; pass <= passes; pass++ {
		if pass > 1 && o.opts.DryRun {
			o.logger.Info("dry run: reconciliation pass skipped", logging.Int(logging.FieldPass, pass))
			break
		}
		passReport, records, err := o.runPass(ctx, pass, &report)
		if err != nil {
			if pass == 1 {
				return Report{}, fmt.Errorf("pass %d: %w", pass, err)
			}
			return report, fmt.Errorf("pass %d: %w", pass, err)
		}
		report.Passes = append(report.Passes, passReport)
		report.Failures = append(report.Failures, records...)
		if pass > 1 && len(passReport.Actions) == 0 {
			o.logger.Info("reconciliation pass found nothing to clean",
				logging.Int(logging.FieldPass, pass),
				logging.String(logging.FieldEventType, "reconcile_clean"),
			)
		}
	}
	return report, nil
}

func (o *Orchestrator) runPass(ctx context.Context, pass int, report *Report) (PassReport, []journal.Record, error) {
	minimum := o.deps.Catalog.MinTrigger(o.opts.GlobalThreshold)
	snapshot, err := o.deps.Census.Scan(ctx, minimum)
	if err != nil {
		return PassReport{}, nil, err
	}

	items := snapshot.Sorted()
	for rank, item := range items {
		o.logger.Info("census entry",
			logging.Int(logging.FieldPass, pass),
			logging.Int("rank", rank+1),
			logging.String(logging.FieldDeviceID, item.ID.String()),
			logging.Int(logging.FieldCount, item.Count),
		)
	}

	actions := Classify(snapshot, o.deps.Locks, o.deps.Catalog, o.opts.GlobalThreshold)
	result := PassReport{Pass: pass, Identifiers: len(items), Actions: actions}
	var records []journal.Record

	for _, action := range actions {
		attrs := []logging.Attr{
			logging.Int(logging.FieldPass, pass),
			logging.String(logging.FieldDeviceID, action.ID.String()),
			logging.Int(logging.FieldCount, action.Count),
			logging.Int(logging.FieldThreshold, action.Threshold),
			logging.String("reason", string(action.Reason)),
		}
		if o.opts.DryRun {
			o.logger.Info("dry run: would clean identifier", logging.Args(attrs...)...)
			continue
		}
		// Locked identifiers are filtered at census time; the re-check covers
		// a lock list that changed mid-run.
		if o.deps.Locks != nil && o.deps.Locks.Contains(action.ID) {
			continue
		}

		if action.Enroll {
			if entry, added := o.deps.Catalog.Enroll(action.ID); added {
				report.Enrolled = append(report.Enrolled, action.ID)
				o.logger.Info("identifier enrolled in catalog",
					logging.String(logging.FieldDeviceID, action.ID.String()),
					logging.Int(logging.FieldThreshold, entry.Threshold),
					logging.String(logging.FieldEventType, "catalog_enrolled"),
				)
			}
		}

		o.logger.Info("threshold exceeded; cleaning identifier", logging.Args(attrs...)...)

		if _, err := o.deps.Flags.SetIgnoreFlag(ctx, action.ID); err != nil {
			records = append(records, o.failure(action, pass, journal.StageFlag, err))
		}
		if err := o.deps.Cleaner.DeleteStaleEntries(ctx, action.ID); err != nil {
			records = append(records, o.failure(action, pass, journal.StageDelete, err))
			continue
		}
		result.Cleaned = append(result.Cleaned, action.ID)
	}
	return result, records, nil
}

func (o *Orchestrator) failure(action Action, pass int, stage journal.Stage, err error) journal.Record {
	permission := errors.Is(err, fs.ErrPermission)
	attrs := []logging.Attr{
		logging.Int(logging.FieldPass, pass),
		logging.String(logging.FieldDeviceID, action.ID.String()),
		logging.Int(logging.FieldCount, action.Count),
		logging.String("stage", string(stage)),
		logging.Error(err),
	}
	if permission {
		attrs = append(attrs,
			logging.String(logging.FieldErrorHint, "run enumguard elevated (administrator)"),
			logging.String(logging.FieldImpact, "stale enumeration records remain until an elevated run"),
		)
		logging.WarnWithContext(o.logger, "cleanup step denied", "cleanup_permission_denied", attrs...)
	} else {
		attrs = append(attrs,
			logging.String(logging.FieldErrorHint, "see the failure journal for the identifier"),
			logging.String(logging.FieldImpact, "identifier is retried on the next run"),
		)
		logging.ErrorWithContext(o.logger, "cleanup step failed", "cleanup_step_failed", attrs...)
	}
	return journal.Record{
		VIDPID:     action.ID.String(),
		Count:      action.Count,
		Error:      err.Error(),
		Timestamp:  o.opts.Now(),
		Stage:      stage,
		Pass:       pass,
		RunID:      o.opts.RunID,
		Permission: permission,
	}
}
