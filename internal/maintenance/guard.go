// Package maintenance runs the once-daily COM-port database reset. The Guard
// keeps the last execution date in a one-line state file so the action fires
// at most once per local calendar day however often the job runs.
package maintenance

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"enumguard/internal/logging"
)

const dateLayout = "2006-01-02"

// ErrUnsupported reports a platform without the maintenance action.
var ErrUnsupported = errors.New("maintenance action not supported on this platform")

// Action is the guarded side effect.
type Action func(ctx context.Context) error

// Guard gates an Action to once per day.
type Guard struct {
	path   string
	now    func() time.Time
	logger *slog.Logger
}

// NewGuard builds a guard over the state file at path. now defaults to
// time.Now.
func NewGuard(path string, now func() time.Time, logger *slog.Logger) *Guard {
	if now == nil {
		now = time.Now
	}
	return &Guard{path: path, now: now, logger: logging.NewComponentLogger(logger, "maintenance")}
}

func today(t time.Time) string {
	return t.Local().Format(dateLayout)
}

// LastRun returns the recorded date, or "" when none is recorded.
func (g *Guard) LastRun() (string, error) {
	data, err := os.ReadFile(g.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("read maintenance state: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// ShouldRunToday reports whether the action has not run today. An unreadable
// state file counts as not run.
func (g *Guard) ShouldRunToday() bool {
	last, err := g.LastRun()
	if err != nil {
		logging.WarnWithContext(g.logger, "maintenance state unreadable; treating as not run", "maintenance_state_unreadable",
			logging.String("path", g.path),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check permissions on the maintenance state file"),
			logging.String(logging.FieldImpact, "maintenance may run more than once today"),
		)
		return true
	}
	return last != today(g.now())
}

// MarkRan records today as the last execution date.
func (g *Guard) MarkRan() error {
	if dir := filepath.Dir(g.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create maintenance state directory: %w", err)
		}
	}
	if err := os.WriteFile(g.path, []byte(today(g.now())), 0o644); err != nil {
		return fmt.Errorf("write maintenance state: %w", err)
	}
	return nil
}

// Run invokes action when it has not run today and marks the day only after
// it succeeds. It reports whether the action ran successfully.
func (g *Guard) Run(ctx context.Context, action Action) (bool, error) {
	if !g.ShouldRunToday() {
		g.logger.Debug("maintenance already ran today", logging.String("path", g.path))
		return false, nil
	}
	if err := action(ctx); err != nil {
		return false, fmt.Errorf("maintenance action: %w", err)
	}
	if err := g.MarkRan(); err != nil {
		return true, err
	}
	g.logger.Info("daily maintenance complete",
		logging.String(logging.FieldEventType, "maintenance_complete"),
	)
	return true, nil
}
