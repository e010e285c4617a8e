// Package journal persists the per-run failure batch: one JSON array file per
// calendar date, appended to by every run that recorded failures that day.
package journal

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"enumguard/internal/logging"
)

const (
	filePrefix = "failed_cleanup-"
	fileExt    = ".json"
	dateLayout = "2006-01-02"
)

// Stage names the collaborator that failed.
type Stage string

const (
	StageFlag   Stage = "flag"
	StageDelete Stage = "delete"
)

// Record is one failed cleanup step.
type Record struct {
	VIDPID     string    `json:"vid_pid"`
	Count      int       `json:"count"`
	Error      string    `json:"error"`
	Timestamp  time.Time `json:"timestamp"`
	Stage      Stage     `json:"stage,omitempty"`
	Pass       int       `json:"pass,omitempty"`
	RunID      string    `json:"run_id,omitempty"`
	Permission bool      `json:"permission,omitempty"`
}

// Journal writes records below dir.
type Journal struct {
	dir    string
	now    func() time.Time
	logger *slog.Logger
}

// New builds a journal rooted at dir. now defaults to time.Now.
func New(dir string, now func() time.Time, logger *slog.Logger) *Journal {
	if now == nil {
		now = time.Now
	}
	return &Journal{dir: dir, now: now, logger: logging.NewComponentLogger(logger, "journal")}
}

// Dir returns the journal directory.
func (j *Journal) Dir() string {
	return j.dir
}

// PathFor returns the file holding records for day (local date).
func (j *Journal) PathFor(day time.Time) string {
	return filepath.Join(j.dir, filePrefix+day.Local().Format(dateLayout)+fileExt)
}

// RetentionTarget describes journal files for logging.CleanupOldFiles.
func (j *Journal) RetentionTarget() logging.RetentionTarget {
	return logging.RetentionTarget{Dir: j.dir, Pattern: filePrefix + "*" + fileExt}
}

// Read returns the records stored for day. A missing file is empty.
func (j *Journal) Read(day time.Time) ([]Record, error) {
	return readFile(j.PathFor(day))
}

// Append adds records to today's file and returns its path. An empty batch
// writes nothing and returns "".
func (j *Journal) Append(records []Record) (string, error) {
	if len(records) == 0 {
		return "", nil
	}
	path := j.PathFor(j.now())
	existing, err := readFile(path)
	if err != nil {
		// A damaged file is set aside rather than silently overwritten.
		aside := path + ".corrupt"
		if renameErr := os.Rename(path, aside); renameErr != nil {
			return "", fmt.Errorf("read journal: %w", err)
		}
		logging.WarnWithContext(j.logger, "failure journal unreadable; moved aside", "journal_corrupt",
			logging.String("path", path),
			logging.String("moved_to", aside),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "inspect the moved file manually"),
			logging.String(logging.FieldImpact, "earlier failures for today are no longer in the active journal"),
		)
		existing = nil
	}

	all := append(existing, records...)
	data, err := json.MarshalIndent(all, "", "    ")
	if err != nil {
		return "", fmt.Errorf("encode journal: %w", err)
	}
	if err := os.MkdirAll(j.dir, 0o755); err != nil {
		return "", fmt.Errorf("create journal directory: %w", err)
	}
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return "", fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("rename temp file: %w", err)
	}
	j.logger.Info("failure journal written",
		logging.String("path", path),
		logging.Int("records", len(records)),
		logging.String(logging.FieldEventType, "journal_written"),
	)
	return path, nil
}

func readFile(path string) ([]Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return records, nil
}
