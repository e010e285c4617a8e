// Package lockset persists the operator-controlled list of identifiers that
// are permanently exempt from cleanup.
//
// The document is a JSON object {"locked": ["05A60A00", ...]}. The engine only
// reads it; Add exists for the operator-facing CLI.
package lockset

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"enumguard/internal/deviceid"
	"enumguard/internal/logging"
)

// ErrMalformed marks a lock-list document that cannot be decoded.
var ErrMalformed = errors.New("malformed lock list")

type document struct {
	Locked []any `json:"locked"`
}

// Registry is the loaded lock list.
type Registry struct {
	path   string
	logger *slog.Logger
	set    deviceid.Set
	order  []deviceid.ID
}

// Load reads the lock list at path. A missing document is an empty list.
// Entries that are not strings are logged and ignored.
func Load(path string, logger *slog.Logger) (*Registry, error) {
	r := &Registry{
		path:   path,
		logger: logging.NewComponentLogger(logger, "lockset"),
		set:    deviceid.NewSet(),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return r, nil
		}
		return nil, fmt.Errorf("read lock list: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return r, nil
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, path, err)
	}
	for i, raw := range doc.Locked {
		id, ok := deviceid.NormalizeAny(raw)
		if !ok || id == "" {
			logging.WarnWithContext(r.logger, "lock list entry is not an identifier; ignored", "lock_entry_invalid",
				logging.Int("index", i),
				logging.Any("value", raw),
				logging.String(logging.FieldErrorHint, "lock list entries must be strings such as \"05A60A00\""),
				logging.String(logging.FieldImpact, "entry does not exempt any device"),
			)
			continue
		}
		if !id.Valid() {
			r.logger.Warn("suspect identifier in lock list",
				logging.String(logging.FieldDeviceID, id.String()),
				logging.String(logging.FieldEventType, "identifier_suspect"),
			)
		}
		r.add(id)
	}
	return r, nil
}

func (r *Registry) add(id deviceid.ID) bool {
	if r.set.Contains(id) {
		return false
	}
	r.set[id] = struct{}{}
	r.order = append(r.order, id)
	return true
}

// Contains reports whether id is locked. A nil registry locks nothing.
func (r *Registry) Contains(id deviceid.ID) bool {
	if r == nil {
		return false
	}
	return r.set.Contains(id)
}

// IDs returns the locked identifiers in document order.
func (r *Registry) IDs() []deviceid.ID {
	if r == nil {
		return nil
	}
	return append([]deviceid.ID(nil), r.order...)
}

// Len returns the number of locked identifiers.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.order)
}

// Add normalizes raw, appends it, and persists the document. It reports
// whether the identifier was newly added.
func (r *Registry) Add(raw string) (bool, error) {
	id := deviceid.Normalize(raw)
	if id == "" {
		return false, errors.New("identifier cannot be empty")
	}
	if !r.add(id) {
		return false, nil
	}
	if err := r.save(); err != nil {
		delete(r.set, id)
		r.order = r.order[:len(r.order)-1]
		return false, fmt.Errorf("persist lock list: %w", err)
	}
	r.logger.Info("identifier locked",
		logging.String(logging.FieldDeviceID, id.String()),
		logging.String(logging.FieldEventType, "identifier_locked"),
	)
	return true, nil
}

func (r *Registry) save() error {
	locked := make([]string, 0, len(r.order))
	for _, id := range r.order {
		locked = append(locked, id.String())
	}
	data, err := json.MarshalIndent(map[string][]string{"locked": locked}, "", "    ")
	if err != nil {
		return fmt.Errorf("marshal lock list: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return fmt.Errorf("create lock list directory: %w", err)
	}
	tmpPath := r.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, r.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
