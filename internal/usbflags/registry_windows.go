//go:build windows

package usbflags

import (
	"errors"
	"fmt"

	"golang.org/x/sys/windows/registry"
)

// FlagsPath is the UsbFlags key relative to HKEY_LOCAL_MACHINE.
const FlagsPath = `SYSTEM\CurrentControlSet\Control\UsbFlags`

// flagValue marks a device class as serial-agnostic.
var flagValue = []byte{0x01}

// RegistryStore keeps flags under FlagsPath.
type RegistryStore struct {
	root registry.Key
	path string
}

// Open returns the registry-backed store.
func Open() (Store, error) {
	return &RegistryStore{root: registry.LOCAL_MACHINE, path: FlagsPath}, nil
}

// HasFlag reports whether a value named name exists, whatever its type.
func (s *RegistryStore) HasFlag(name string) (bool, error) {
	key, err := registry.OpenKey(s.root, s.path, registry.QUERY_VALUE)
	if err != nil {
		if errors.Is(err, registry.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("open %s: %w", s.path, err)
	}
	defer key.Close()

	_, _, err = key.GetValue(name, nil)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, registry.ErrNotExist):
		return false, nil
	default:
		return false, err
	}
}

// SetFlag writes name as REG_BINARY 0x01.
func (s *RegistryStore) SetFlag(name string) error {
	key, _, err := registry.CreateKey(s.root, s.path, registry.SET_VALUE)
	if err != nil {
		return fmt.Errorf("open %s for write: %w", s.path, err)
	}
	defer key.Close()
	return key.SetBinaryValue(name, flagValue)
}
