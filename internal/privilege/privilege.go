// Package privilege reports whether the process can perform the registry
// deletions and flag writes cleanup needs.
package privilege

import (
	"log/slog"

	"enumguard/internal/logging"
)

// WarnIfUnprivileged logs a warning when the process is not elevated and
// reports the elevation state.
func WarnIfUnprivileged(logger *slog.Logger) bool {
	if Elevated() {
		return true
	}
	logging.WarnWithContext(logger, "process is not elevated", "privilege_missing",
		logging.String(logging.FieldErrorHint, "run enumguard as administrator"),
		logging.String(logging.FieldImpact, "flag writes and deletions will fail with permission errors"),
	)
	return false
}
