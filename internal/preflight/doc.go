// Package preflight runs environment checks before enumguard is scheduled:
// configuration health, data directory access, lock list, device tree
// readability, privilege, and the flag store.
//
// Each check returns a Result; nothing here mutates state.
package preflight
