package job

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"time"

	"enumguard/internal/logging"
)

// FatalError is returned by Execute when a run ended in an unhandled error.
type FatalError struct {
	Err error
	// Artifact is the diagnostic file written for the failure, if any.
	Artifact string
}

func (e *FatalError) Error() string {
	if e.Artifact == "" {
		return fmt.Sprintf("fatal: %v", e.Err)
	}
	return fmt.Sprintf("fatal: %v (diagnostics in %s)", e.Err, e.Artifact)
}

func (e *FatalError) Unwrap() error { return e.Err }

// Diagnostic is the fatal artifact document.
type Diagnostic struct {
	Time       time.Time `json:"time"`
	RunID      string    `json:"run_id"`
	ConfigPath string    `json:"config_path"`
	Error      string    `json:"error"`
	Panic      bool      `json:"panic"`
	Stack      string    `json:"stack,omitempty"`
	GoVersion  string    `json:"go_version"`
	OS         string    `json:"os"`
	Arch       string    `json:"arch"`
}

type panicError struct {
	value any
	stack []byte
}

func (p *panicError) Error() string { return fmt.Sprintf("panic: %v", p.value) }

// Execute runs one invocation. Unhandled errors and panics are written to a
// diagnostic artifact under the fatal directory and returned as *FatalError.
// Cancellation is returned unwrapped.
func (r *Runner) Execute(ctx context.Context, opts Options) (Result, error) {
	runID := r.deps.NewRunID()
	res, err := r.safeRun(ctx, runID, opts)
	if err == nil || errors.Is(err, context.Canceled) {
		return res, err
	}

	diag := Diagnostic{
		Time:       r.deps.Now(),
		RunID:      runID,
		ConfigPath: r.cfg.Path(),
		Error:      err.Error(),
		GoVersion:  runtime.Version(),
		OS:         runtime.GOOS,
		Arch:       runtime.GOARCH,
	}
	var pe *panicError
	if errors.As(err, &pe) {
		diag.Panic = true
		diag.Stack = string(pe.stack)
	}

	path, writeErr := WriteDiagnostic(r.cfg.FatalPath(), diag)
	attrs := []logging.Attr{
		logging.String(logging.FieldRunID, runID),
		logging.Error(err),
		logging.String("artifact", path),
		logging.String(logging.FieldErrorHint, "inspect the diagnostic artifact"),
	}
	if writeErr != nil {
		attrs = append(attrs, logging.String("artifact_error", writeErr.Error()))
	}
	logging.ErrorWithContext(r.logger, "run failed", "run_fatal", attrs...)
	return res, &FatalError{Err: err, Artifact: path}
}

func (r *Runner) safeRun(ctx context.Context, runID string, opts Options) (res Result, err error) {
	defer func() {
		if p := recover(); p != nil {
			res.RunID = runID
			err = &panicError{value: p, stack: debug.Stack()}
		}
	}()
	return r.run(ctx, runID, opts)
}

// WriteDiagnostic writes diag to dir/fatal-<timestamp>-<run id>.json and
// returns the path.
func WriteDiagnostic(dir string, diag Diagnostic) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create fatal directory: %w", err)
	}
	data, err := json.MarshalIndent(diag, "", "    ")
	if err != nil {
		return "", fmt.Errorf("encode diagnostic: %w", err)
	}
	name := "fatal-" + diag.Time.Format("20060102T150405")
	if diag.RunID != "" {
		name += "-" + diag.RunID
	}
	name += ".json"
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write diagnostic: %w", err)
	}
	return path, nil
}
