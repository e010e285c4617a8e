//go:build windows

package maintenance

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sys/windows/registry"
)

// ComDBPath is the COM port arbiter key relative to HKEY_LOCAL_MACHINE.
const ComDBPath = `SYSTEM\CurrentControlSet\Control\COM Name Arbiter`

// ResetComDB deletes the COM port arbiter key so the OS rebuilds its port
// allocation bitmap. A missing key is success.
func ResetComDB(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := deleteTree(registry.LOCAL_MACHINE, ComDBPath)
	if errors.Is(err, registry.ErrNotExist) {
		return nil
	}
	return err
}

func deleteTree(parent registry.Key, path string) error {
	key, err := registry.OpenKey(parent, path, registry.ENUMERATE_SUB_KEYS)
	if err != nil {
		return err
	}
	names, err := key.ReadSubKeyNames(-1)
	key.Close()
	if err != nil {
		return fmt.Errorf("list %s: %w", path, err)
	}
	for _, name := range names {
		if err := deleteTree(parent, path+`\`+name); err != nil && !errors.Is(err, registry.ErrNotExist) {
			return err
		}
	}
	if err := registry.DeleteKey(parent, path); err != nil {
		return fmt.Errorf("delete %s: %w", path, err)
	}
	return nil
}
