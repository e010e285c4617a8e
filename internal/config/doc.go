// Package config loads, normalizes, and validates the enumguard configuration
// document.
//
// The document is a JSON object (TOML and YAML are accepted by file
// extension) holding the global cleanup threshold, the scheduler policy, the
// monitored-device catalog, and the locations of the persisted lock list,
// maintenance state, failure journal, run lock, and fatal diagnostics.
// Relative locations resolve against the directory that holds the document.
//
// Load reports every problem as an error. LoadOrDefault is what unattended
// runs use: a malformed document is logged and replaced by SafeDefault, which
// disables the scheduler and marks the value Degraded so nothing is ever
// written back over the operator's file.
package config
