package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"enumguard/internal/logging"
)

// Task is one polled invocation.
type Task func(ctx context.Context)

// Watcher invokes a Task on a fixed interval. Overlapping ticks are skipped
// while a previous invocation is still running.
type Watcher struct {
	interval time.Duration
	task     Task
	cron     *cron.Cron
	mu       sync.Mutex
	logger   *slog.Logger
	running  bool
}

// NewWatcher builds a watcher. interval is rounded by cron to whole seconds.
func NewWatcher(interval time.Duration, task Task, logger *slog.Logger) *Watcher {
	return &Watcher{
		interval: interval,
		task:     task,
		cron:     cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		logger:   logging.NewComponentLogger(logger, "watcher"),
	}
}

// Start schedules the task and returns. The watcher stops when ctx ends.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return fmt.Errorf("watcher already running")
	}
	if w.interval < time.Second {
		return fmt.Errorf("watch interval %s is shorter than one second", w.interval)
	}
	spec := "@every " + w.interval.String()
	if _, err := w.cron.AddFunc(spec, func() { w.task(ctx) }); err != nil {
		return fmt.Errorf("schedule %q: %w", spec, err)
	}
	w.cron.Start()
	w.running = true
	w.logger.Info("watcher started",
		logging.Duration("interval", w.interval),
		logging.String(logging.FieldEventType, "watcher_started"),
	)

	go func() {
		<-ctx.Done()
		w.Stop()
	}()
	return nil
}

// Stop halts scheduling and waits for a running task to finish.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return
	}
	done := w.cron.Stop()
	<-done.Done()
	w.running = false
	w.logger.Info("watcher stopped", logging.String(logging.FieldEventType, "watcher_stopped"))
}

// NextRun returns the next scheduled tick.
func (w *Watcher) NextRun() (time.Time, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	entries := w.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}, false
	}
	return entries[0].Next, true
}
