package devicetree

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os/exec"
	"strings"

	"golang.org/x/sys/windows/registry"

	"enumguard/internal/logging"
)

// USBEnumPath is the registry location of USB enumeration records under HKLM.
const USBEnumPath = `SYSTEM\CurrentControlSet\Enum\USB`

// Registry is the Windows device tree.
type Registry struct {
	path   string
	logger *slog.Logger
	run    func(ctx context.Context, name string, args ...string) ([]byte, error)
}

// NewRegistry returns the tree rooted at HKLM\USBEnumPath.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		path:   USBEnumPath,
		logger: logging.NewComponentLogger(logger, "registry"),
		run: func(ctx context.Context, name string, args ...string) ([]byte, error) {
			return exec.CommandContext(ctx, name, args...).CombinedOutput()
		},
	}
}

// Open returns the platform tree.
func Open(logger *slog.Logger) (Tree, error) {
	return NewRegistry(logger), nil
}

// Entries implements Tree.
func (r *Registry) Entries(ctx context.Context) ([]Entry, error) {
	root, err := registry.OpenKey(registry.LOCAL_MACHINE, r.path, registry.ENUMERATE_SUB_KEYS|registry.QUERY_VALUE)
	if err != nil {
		return nil, fmt.Errorf("%w: open HKLM\\%s: %w", ErrRootUnavailable, r.path, err)
	}
	defer root.Close()

	names, err := root.ReadSubKeyNames(-1)
	if err != nil {
		return nil, fmt.Errorf("%w: list HKLM\\%s: %w", ErrRootUnavailable, r.path, err)
	}

	entries := make([]Entry, 0, len(names))
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		entries = append(entries, r.readEntry(root, name))
	}
	return entries, nil
}

func (r *Registry) readEntry(root registry.Key, name string) Entry {
	key, err := registry.OpenKey(root, name, registry.ENUMERATE_SUB_KEYS|registry.QUERY_VALUE)
	if err != nil {
		return Entry{Name: name, Err: fmt.Errorf("open %s: %w", name, err)}
	}
	defer key.Close()

	info, err := key.Stat()
	if err != nil {
		return Entry{Name: name, Err: fmt.Errorf("stat %s: %w", name, err)}
	}
	return Entry{Name: name, Instances: int(info.SubKeyCount)}
}

// DeleteEntry removes the key with reg.exe, which deletes the whole sub-tree
// in one call.
func (r *Registry) DeleteEntry(ctx context.Context, name string) error {
	target := `HKLM\` + r.path + `\` + name
	output, err := r.run(ctx, "reg", "delete", target, "/f")
	if err == nil {
		return nil
	}
	detail := strings.TrimSpace(string(output))
	if strings.Contains(strings.ToLower(detail), "access is denied") {
		return fmt.Errorf("reg delete %s: %w: %s", target, fs.ErrPermission, detail)
	}
	if detail != "" {
		return fmt.Errorf("reg delete %s: %w: %s", target, err, detail)
	}
	return fmt.Errorf("reg delete %s: %w", target, err)
}
