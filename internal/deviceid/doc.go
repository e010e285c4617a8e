// Package deviceid canonicalizes USB vendor/product identifiers.
//
// Every other package compares devices through ID values produced by
// Normalize, so lock-list membership, catalog lookups, and census keys always
// share one representation: eight uppercase hexadecimal characters, vendor
// code followed by product code, with no prefixes or separators.
//
// Normalize never fails. Inputs that do not reduce to eight characters are
// returned as-is and reported by ID.Valid so callers can log them.
package deviceid
