package preflight

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"enumguard/internal/config"
	"enumguard/internal/devicetree"
	"enumguard/internal/lockset"
	"enumguard/internal/logging"
	"enumguard/internal/privilege"
	"enumguard/internal/usbflags"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	// Optional checks do not fail the overall preflight.
	Optional bool
	Detail   string
}

// Env supplies the collaborators under test. Nil fields are opened from the
// platform.
type Env struct {
	Tree      devicetree.Tree
	OpenFlags func() (usbflags.Store, error)
	Elevated  func() bool
}

// RunAll executes every check for cfg.
func RunAll(ctx context.Context, cfg *config.Config, env Env, logger *slog.Logger) []Result {
	if cfg == nil {
		return nil
	}
	logger = logging.NewComponentLogger(logger, "preflight")
	if env.OpenFlags == nil {
		env.OpenFlags = usbflags.Open
	}
	if env.Elevated == nil {
		env.Elevated = privilege.Elevated
	}

	results := CheckDocument(cfg, logger)
	results = append(results, CheckDirectoryAccess("Data directory", cfg.Dir()))

	tree := env.Tree
	if tree == nil {
		opened, err := devicetree.Open(logger)
		if err != nil {
			results = append(results, Result{Name: "Device tree", Detail: err.Error()})
		}
		tree = opened
	}
	if tree != nil {
		results = append(results, CheckDeviceTree(ctx, tree))
	}

	results = append(results, checkElevation(env.Elevated()))
	results = append(results, checkFlagStore(env.OpenFlags))
	return results
}

// CheckDocument covers what the configuration document points at: the
// document itself, the lock list and the failure journal directory.
func CheckDocument(cfg *config.Config, logger *slog.Logger) []Result {
	return []Result{
		CheckConfig(cfg),
		CheckLockList(cfg.LockListPath(), logger),
		CheckJournalDir(cfg.FailureJournalPath()),
	}
}

// Passed reports whether every required check passed.
func Passed(results []Result) bool {
	for _, result := range results {
		if !result.Passed && !result.Optional {
			return false
		}
	}
	return true
}

// CheckConfig fails for a configuration replaced by safe defaults.
func CheckConfig(cfg *config.Config) Result {
	if cfg.Degraded {
		return Result{Name: "Configuration", Detail: fmt.Sprintf("%s (error: unusable; safe defaults in effect)", cfg.Path())}
	}
	if n := len(cfg.Warnings()); n > 0 {
		return Result{Name: "Configuration", Passed: true, Detail: fmt.Sprintf("%s (%d entries ignored)", cfg.Path(), n)}
	}
	return Result{Name: "Configuration", Passed: true, Detail: cfg.Path()}
}

// CheckLockList verifies the lock list decodes.
func CheckLockList(path string, logger *slog.Logger) Result {
	registry, err := lockset.Load(path, logger)
	if err != nil {
		return Result{Name: "Lock list", Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	return Result{Name: "Lock list", Passed: true, Detail: fmt.Sprintf("%s (%d locked)", path, registry.Len())}
}

// CheckDeviceTree verifies the enumeration root can be listed.
func CheckDeviceTree(ctx context.Context, tree devicetree.Tree) Result {
	entries, err := tree.Entries(ctx)
	if err != nil {
		return Result{Name: "Device tree", Detail: err.Error()}
	}
	unreadable := 0
	for _, entry := range entries {
		if entry.Err != nil {
			unreadable++
		}
	}
	detail := fmt.Sprintf("%d keys", len(entries))
	if unreadable > 0 {
		detail = fmt.Sprintf("%s, %d unreadable", detail, unreadable)
	}
	return Result{Name: "Device tree", Passed: true, Detail: detail}
}

func checkElevation(elevated bool) Result {
	if !elevated {
		return Result{Name: "Elevation", Detail: "not elevated; deletions and flag writes will be denied"}
	}
	return Result{Name: "Elevation", Passed: true, Detail: "elevated"}
}

func checkFlagStore(open func() (usbflags.Store, error)) Result {
	if _, err := open(); err != nil {
		result := Result{Name: "Flag store", Optional: true, Detail: err.Error()}
		if !errors.Is(err, usbflags.ErrUnsupported) {
			result.Optional = false
		}
		return result
	}
	return Result{Name: "Flag store", Passed: true, Detail: "available"}
}
