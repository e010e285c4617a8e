package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if c.Threshold <= 0 {
		return errors.New("threshold must be positive")
	}
	if c.DefaultNotifyThreshold <= 0 {
		return errors.New("default_notify_threshold must be positive")
	}
	if c.ScanStrategy.Tolerance < 0 {
		return errors.New("scan_strategy.tolerance must be >= 0 (seconds)")
	}
	if c.JournalRetentionDays < 0 {
		return errors.New("journal_retention_days must be >= 0")
	}
	switch c.Logging.Format {
	case "auto", "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	for key, value := range map[string]string{
		"lock_list_file":         c.LockListFile,
		"maintenance_state_file": c.MaintenanceStateFile,
		"failure_journal_dir":    c.FailureJournalDir,
		"run_lock_file":          c.RunLockFile,
		"fatal_dir":              c.FatalDir,
	} {
		if value == "" {
			return fmt.Errorf("%s must be set", key)
		}
	}
	return nil
}
