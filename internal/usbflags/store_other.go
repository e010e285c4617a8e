//go:build !windows

package usbflags

// Open reports ErrUnsupported: only Windows keeps per-device-class flags.
func Open() (Store, error) {
	return nil, ErrUnsupported
}
