package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"enumguard/internal/logging"
)

//go:embed sample_config.json
var sampleConfig string

// ErrMalformed marks a document that could not be decoded or failed validation.
var ErrMalformed = errors.New("malformed configuration")

// ScanStrategy is the scheduler policy evaluated before every run.
type ScanStrategy struct {
	Enabled   bool     `json:"enabled" toml:"enabled" yaml:"enabled"`
	Mode      string   `json:"mode" toml:"mode" yaml:"mode"`
	Days      []string `json:"days" toml:"days" yaml:"days"`
	Time      string   `json:"time" toml:"time" yaml:"time"`
	Tolerance int      `json:"tolerance" toml:"tolerance" yaml:"tolerance"`
}

// MonitoredDevice is one catalog entry as stored in the document.
type MonitoredDevice struct {
	VIDPID          string `json:"vid_pid" toml:"vid_pid" yaml:"vid_pid"`
	NotifyThreshold int    `json:"notify_threshold" toml:"notify_threshold" yaml:"notify_threshold"`
}

// Logging contains configuration for log output.
type Logging struct {
	Level  string `json:"level" toml:"level" yaml:"level"`
	Format string `json:"format" toml:"format" yaml:"format"`
}

// Config encapsulates every knob of one enumguard invocation.
//
// File locations are stored exactly as written in the document; use the
// *Path accessors to obtain resolved absolute paths.
type Config struct {
	Threshold              int               `json:"threshold" toml:"threshold" yaml:"threshold"`
	LogFile                string            `json:"log_file" toml:"log_file" yaml:"log_file"`
	ScanStrategy           ScanStrategy      `json:"scan_strategy" toml:"scan_strategy" yaml:"scan_strategy"`
	MonitoredDevices       []MonitoredDevice `json:"monitored_devices" toml:"monitored_devices" yaml:"monitored_devices"`
	DefaultNotifyThreshold int               `json:"default_notify_threshold" toml:"default_notify_threshold" yaml:"default_notify_threshold"`
	LockListFile           string            `json:"lock_list_file" toml:"lock_list_file" yaml:"lock_list_file"`
	MaintenanceStateFile   string            `json:"maintenance_state_file" toml:"maintenance_state_file" yaml:"maintenance_state_file"`
	FailureJournalDir      string            `json:"failure_journal_dir" toml:"failure_journal_dir" yaml:"failure_journal_dir"`
	RunLockFile            string            `json:"run_lock_file" toml:"run_lock_file" yaml:"run_lock_file"`
	FatalDir               string            `json:"fatal_dir" toml:"fatal_dir" yaml:"fatal_dir"`
	JournalRetentionDays   int               `json:"journal_retention_days" toml:"journal_retention_days" yaml:"journal_retention_days"`
	Logging                Logging           `json:"logging" toml:"logging" yaml:"logging"`

	// Degraded is set when the document was replaced by SafeDefault.
	Degraded bool `json:"-" toml:"-" yaml:"-"`

	path     string
	dir      string
	extra    map[string]any
	warnings []string
}

// Load locates, parses, and validates a configuration document. It returns the
// config, the resolved document path, and whether the document exists. A
// missing document yields Default().
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}
	cfg.bind(resolvedPath)

	if exists {
		data, err := os.ReadFile(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("read config: %w", err)
		}
		if err := decode(resolvedPath, data, &cfg); err != nil {
			return nil, resolvedPath, exists, fmt.Errorf("%w: parse %s: %v", ErrMalformed, resolvedPath, err)
		}
	}

	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, resolvedPath, exists, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	return &cfg, resolvedPath, exists, nil
}

// LoadOrDefault behaves like Load but never fails: any problem is logged and
// SafeDefault is returned, bound to the resolved path when one is known.
func LoadOrDefault(path string, logger *slog.Logger) *Config {
	cfg, resolved, _, err := Load(path)
	if err == nil {
		cfg.LogWarnings(logger)
		return cfg
	}
	logging.WarnWithContext(logger, "configuration unusable; safe defaults substituted", "config_degraded",
		logging.Error(err),
		logging.String("path", resolved),
		logging.String(logging.FieldErrorHint, "fix or delete the configuration document"),
		logging.String(logging.FieldImpact, "scheduler disabled and catalog changes are not saved"),
	)
	safe := SafeDefault()
	if resolved == "" {
		resolved = filepath.Join(".", defaultConfigFileName)
	}
	safe.bind(resolved)
	return &safe
}

// Warnings lists document entries that were dropped or repaired on load.
func (c *Config) Warnings() []string {
	return c.warnings
}

// LogWarnings reports Warnings through logger.
func (c *Config) LogWarnings(logger *slog.Logger) {
	for _, warning := range c.warnings {
		logging.WarnWithContext(logger, "configuration entry ignored", "config_entry_ignored",
			logging.String("detail", warning),
			logging.String("path", c.path),
			logging.String(logging.FieldErrorHint, "correct the entry in the configuration document"),
			logging.String(logging.FieldImpact, "the entry is not part of the device catalog"),
		)
	}
}

func (c *Config) bind(path string) {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	c.path = path
	c.dir = filepath.Dir(path)
}

// Path returns the document location this config was loaded from.
func (c *Config) Path() string {
	return c.path
}

// Dir returns the directory relative paths are resolved against.
func (c *Config) Dir() string {
	return c.dir
}

// LogPath returns the resolved log file path, or "" when file logging is off.
func (c *Config) LogPath() string { return c.resolve(c.LogFile) }

// LockListPath returns the resolved lock-list document path.
func (c *Config) LockListPath() string { return c.resolve(c.LockListFile) }

// MaintenanceStatePath returns the resolved maintenance-state file path.
func (c *Config) MaintenanceStatePath() string { return c.resolve(c.MaintenanceStateFile) }

// FailureJournalPath returns the resolved failure journal directory.
func (c *Config) FailureJournalPath() string { return c.resolve(c.FailureJournalDir) }

// RunLockPath returns the resolved run lock file path.
func (c *Config) RunLockPath() string { return c.resolve(c.RunLockFile) }

// FatalPath returns the resolved fatal diagnostics directory.
func (c *Config) FatalPath() string { return c.resolve(c.FatalDir) }

func (c *Config) resolve(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	expanded, err := expandHome(value)
	if err != nil {
		expanded = value
	}
	if filepath.IsAbs(expanded) {
		return filepath.Clean(expanded)
	}
	base := c.dir
	if base == "" {
		base = "."
	}
	return filepath.Join(base, expanded)
}

// Save writes the document back to the path it was loaded from, in the same
// format, atomically. Degraded configs are never saved.
func (c *Config) Save() error {
	if c.Degraded {
		return errors.New("refusing to save degraded configuration")
	}
	if c.path == "" {
		return errors.New("configuration has no document path")
	}
	data, err := encode(c.path, c)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	tmpPath := c.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, c.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

type format int

const (
	formatJSON format = iota
	formatTOML
	formatYAML
)

func formatFor(path string) format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return formatTOML
	case ".yaml", ".yml":
		return formatYAML
	default:
		return formatJSON
	}
}

func resolveConfigPath(path string) (string, bool, error) {
	if strings.TrimSpace(path) == "" {
		path = strings.TrimSpace(os.Getenv(configEnvVar))
	}
	if path != "" {
		expanded, err := ExpandPath(path)
		if err != nil {
			return "", false, err
		}
		return statConfig(expanded)
	}

	projectPath, err := filepath.Abs(defaultConfigFileName)
	if err != nil {
		return "", false, err
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return projectPath, false, nil
	}
	return statConfig(defaultPath)
}

func statConfig(path string) (string, bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return path, false, nil
		}
		return "", false, fmt.Errorf("stat config: %w", err)
	}
	if info.IsDir() {
		return "", false, fmt.Errorf("config path %s is a directory", path)
	}
	return path, true, nil
}

// DefaultConfigPath returns the per-user configuration document location.
func DefaultConfigPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config directory: %w", err)
	}
	return filepath.Join(dir, "enumguard", defaultConfigFileName), nil
}

func expandHome(pathValue string) (string, error) {
	if !strings.HasPrefix(pathValue, "~") {
		return pathValue, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	if pathValue == "~" {
		return home, nil
	}
	if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
		return filepath.Join(home, pathValue[2:]), nil
	}
	return pathValue, nil
}

// ExpandPath expands a leading tilde and returns an absolute, cleaned path.
func ExpandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	expanded, err := expandHome(pathValue)
	if err != nil {
		return "", err
	}
	absolute, err := filepath.Abs(filepath.Clean(expanded))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", expanded, err)
	}
	return absolute, nil
}

// CreateSample writes a sample configuration document to path.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
