package devicetree

import (
	"context"
	"errors"
)

var (
	// ErrRootUnavailable reports that the enumeration root could not be read.
	ErrRootUnavailable = errors.New("device tree root unavailable")
	// ErrUnsupported reports an operation the backend cannot perform.
	ErrUnsupported = errors.New("operation not supported by device tree backend")
)

// Entry is one top-level device key.
type Entry struct {
	// Name is the raw key name as it appears in the tree.
	Name string
	// Instances is the number of immediate instance keys under Name.
	Instances int
	// Err is set when the entry itself could not be read; Instances is then
	// meaningless.
	Err error
}

// Tree is the device-enumeration store.
type Tree interface {
	// Entries lists every top-level key. A failure to read the root is fatal
	// and wraps ErrRootUnavailable; failures on individual keys are reported
	// through Entry.Err.
	Entries(ctx context.Context) ([]Entry, error)
	// DeleteEntry removes the named top-level key and everything below it.
	DeleteEntry(ctx context.Context, name string) error
}
