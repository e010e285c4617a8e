// Package logging assembles structured slog loggers and formatting helpers used
// across enumguard.
//
// It owns the console/JSON handlers, centralizes level and output plumbing,
// and exposes helpers that keep warning and error lines in one shape: every
// WARN carries an event_type, an error_hint, and an impact so operators
// reading the log file of an unattended run know what happened, what it cost,
// and what to do next. A no-op logger is provided for tests and wiring code
// that cannot fail.
package logging
