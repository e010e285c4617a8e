// Package usbflags writes the per-identifier "ignore hardware serial number"
// flag that stops the OS from creating a new enumeration record every time
// the same device class is reattached with a different serial.
package usbflags

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"enumguard/internal/deviceid"
	"enumguard/internal/logging"
)

// ValuePrefix precedes the identifier in the flag value name.
const ValuePrefix = "IgnoreHWSerNum"

// ErrUnsupported reports a platform without a flag store.
var ErrUnsupported = errors.New("usb flags not supported on this platform")

// ValueName returns the flag value name for id.
func ValueName(id deviceid.ID) string {
	return ValuePrefix + id.String()
}

// Store persists flag values.
type Store interface {
	HasFlag(name string) (bool, error)
	SetFlag(name string) error
}

// Confirmer decides whether a flag write may proceed.
type Confirmer func(ctx context.Context, name string) (bool, error)

// AutoApprove approves every write. Unattended runs use it.
func AutoApprove(context.Context, string) (bool, error) { return true, nil }

// Writer sets the ignore flag for one identifier.
type Writer interface {
	SetIgnoreFlag(ctx context.Context, id deviceid.ID) (bool, error)
}

// Marker is the Writer backed by a Store.
type Marker struct {
	store   Store
	confirm Confirmer
	logger  *slog.Logger
}

// NewMarker builds a Marker. A nil confirm means AutoApprove.
func NewMarker(store Store, confirm Confirmer, logger *slog.Logger) *Marker {
	if confirm == nil {
		confirm = AutoApprove
	}
	return &Marker{store: store, confirm: confirm, logger: logging.NewComponentLogger(logger, "usbflags")}
}

// SetIgnoreFlag writes the flag for id. It reports true when the flag is set
// afterwards, including when it already was. A declined confirmation yields
// false with no error.
func (m *Marker) SetIgnoreFlag(ctx context.Context, id deviceid.ID) (bool, error) {
	if id == "" {
		return false, errors.New("set ignore flag: empty identifier")
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}
	name := ValueName(id)

	exists, err := m.store.HasFlag(name)
	if err != nil {
		return false, fmt.Errorf("read flag %s: %w", name, err)
	}
	if exists {
		m.logger.Debug("ignore flag already present", logging.String("value", name))
		return true, nil
	}

	approved, err := m.confirm(ctx, name)
	if err != nil {
		return false, fmt.Errorf("confirm flag %s: %w", name, err)
	}
	if !approved {
		m.logger.Info("ignore flag write declined",
			logging.String("value", name),
			logging.String(logging.FieldEventType, "usbflag_declined"),
		)
		return false, nil
	}

	if err := m.store.SetFlag(name); err != nil {
		return false, fmt.Errorf("write flag %s: %w", name, err)
	}
	m.logger.Info("ignore flag written",
		logging.String("value", name),
		logging.String(logging.FieldDeviceID, id.String()),
		logging.String(logging.FieldEventType, "usbflag_written"),
	)
	return true, nil
}
