package maintenance

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"enumguard/internal/logging"
)

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

func TestGuardFiresOncePerDay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "last_comdb_cleaned.log")
	c := &clock{now: time.Date(2026, 3, 2, 8, 0, 0, 0, time.Local)}
	g := NewGuard(path, c.Now, logging.NewNop())

	if !g.ShouldRunToday() {
		t.Fatal("missing state must allow a run")
	}
	if err := g.MarkRan(); err != nil {
		t.Fatalf("MarkRan: %v", err)
	}
	c.now = c.now.Add(10 * time.Hour)
	if g.ShouldRunToday() {
		t.Fatal("second call on the same date must be false")
	}
	c.now = time.Date(2026, 3, 3, 0, 0, 1, 0, time.Local)
	if !g.ShouldRunToday() {
		t.Fatal("next date must reset the guard")
	}

	data, err := os.ReadFile(path)
	if err != nil || string(data) != "2026-03-02" {
		t.Fatalf("state file = %q, %v", data, err)
	}
}

func TestGuardRunMarksOnlyOnSuccess(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "last.log")
	c := &clock{now: time.Date(2026, 3, 2, 8, 0, 0, 0, time.Local)}
	g := NewGuard(path, c.Now, logging.NewNop())

	calls := 0
	failing := func(context.Context) error {
		calls++
		return errors.New("registry busy")
	}
	if ran, err := g.Run(context.Background(), failing); ran || err == nil {
		t.Fatalf("failing action: ran=%v err=%v", ran, err)
	}
	if !g.ShouldRunToday() {
		t.Fatal("failed action must not mark the day")
	}

	succeed := func(context.Context) error {
		calls++
		return nil
	}
	if ran, err := g.Run(context.Background(), succeed); !ran || err != nil {
		t.Fatalf("successful action: ran=%v err=%v", ran, err)
	}
	if ran, err := g.Run(context.Background(), succeed); ran || err != nil {
		t.Fatalf("same-day rerun: ran=%v err=%v", ran, err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 action calls, got %d", calls)
	}
}

func TestGuardToleratesWhitespace(t *testing.T) {
	path := filepath.Join(t.TempDir(), "last.log")
	if err := os.WriteFile(path, []byte("2026-03-02\r\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	g := NewGuard(path, func() time.Time { return time.Date(2026, 3, 2, 23, 59, 0, 0, time.Local) }, nil)
	if g.ShouldRunToday() {
		t.Fatal("trailing newline must not defeat the guard")
	}
}
