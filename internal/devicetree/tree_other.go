//go:build !windows && !linux

package devicetree

import (
	"fmt"
	"log/slog"
	"runtime"
)

// Open returns the platform tree.
func Open(_ *slog.Logger) (Tree, error) {
	return nil, fmt.Errorf("%s: %w", runtime.GOOS, ErrUnsupported)
}
