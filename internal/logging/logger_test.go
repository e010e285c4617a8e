package logging_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"enumguard/internal/logging"
)

func TestConsoleLoggerWritesComponentAndFields(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console.log")

	logger, closer, err := logging.New(logging.Options{
		Format:      "console",
		Level:       "info",
		OutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logging.NewComponentLogger(logger, "cleanup").Info("identifier over threshold",
		logging.String(logging.FieldDeviceID, "05A60A00"),
		logging.Int(logging.FieldCount, 120),
	)
	logger.Debug("hidden")
	if err := closer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	line := string(content)
	for _, want := range []string{"INFO", "cleanup: identifier over threshold", "device_id=05A60A00", "count=120"} {
		if !strings.Contains(line, want) {
			t.Fatalf("expected %q in %q", want, line)
		}
	}
	if strings.Contains(line, "hidden") {
		t.Fatalf("debug line leaked at info level: %q", line)
	}
	if strings.Contains(line, ".go:") {
		t.Fatalf("expected no caller information in info logs, got %q", line)
	}
}

func TestJSONLoggerShape(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "json.log")
	logger, closer, err := logging.New(logging.Options{Format: "json", Level: "warn", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logging.WarnWithContext(logger, "flag write failed", "flag_write_failed")
	_ = closer.Close()

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	var record map[string]any
	if err := json.Unmarshal(content, &record); err != nil {
		t.Fatalf("decode %q: %v", content, err)
	}
	if record["level"] != "warn" {
		t.Fatalf("unexpected level %v", record["level"])
	}
	if record["event_type"] != "flag_write_failed" {
		t.Fatalf("unexpected event_type %v", record["event_type"])
	}
	if record["error_hint"] == nil || record["impact"] == nil {
		t.Fatalf("expected default hint and impact, got %v", record)
	}
	if _, ok := record["ts"]; !ok {
		t.Fatalf("expected ts key, got %v", record)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestCleanupOldFiles(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.Local)

	oldPath := filepath.Join(dir, "failed_cleanup-2025-01-01.json")
	newPath := filepath.Join(dir, "failed_cleanup-2025-03-09.json")
	otherPath := filepath.Join(dir, "notes.txt")
	for _, p := range []string{oldPath, newPath, otherPath} {
		if err := os.WriteFile(p, []byte("[]"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	old := now.AddDate(0, 0, -40)
	for _, p := range []string{oldPath, otherPath} {
		if err := os.Chtimes(p, old, old); err != nil {
			t.Fatal(err)
		}
	}

	removed := logging.CleanupOldFiles(logging.NewNop(), now, 30, logging.RetentionTarget{Dir: dir, Pattern: "failed_cleanup-*.json"})
	if removed != 1 {
		t.Fatalf("expected 1 removal, got %d", removed)
	}
	if _, err := os.Stat(oldPath); !os.IsNotExist(err) {
		t.Fatalf("expected old journal removed, stat err=%v", err)
	}
	for _, p := range []string{newPath, otherPath} {
		if _, err := os.Stat(p); err != nil {
			t.Fatalf("expected %s kept: %v", p, err)
		}
	}
	if logging.CleanupOldFiles(nil, now, 0, logging.RetentionTarget{Dir: dir}) != 0 {
		t.Fatal("retention 0 must disable pruning")
	}
}
