package devicetree

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/pilebones/go-udev/crawler"
	"github.com/pilebones/go-udev/netlink"

	"enumguard/internal/logging"
)

// Sysfs is a read-only tree of attached USB devices. Linux keeps no stale
// enumeration records, so every attached device with the same vendor and
// product codes counts as one instance of the same key.
type Sysfs struct {
	root   string
	crawl  crawlFunc
	logger *slog.Logger
}

// crawlFunc matches crawler.ExistingDevices: devices arrive on queue, at most
// one walk error is sent on errs before queue is closed.
type crawlFunc func(queue chan crawler.Device, errs chan error, matcher netlink.Matcher) chan struct{}

// NewSysfs returns the sysfs-backed tree.
func NewSysfs(logger *slog.Logger) *Sysfs {
	return &Sysfs{
		root:   crawler.BASE_DEVPATH,
		crawl:  crawler.ExistingDevices,
		logger: logging.NewComponentLogger(logger, "sysfs"),
	}
}

// Open returns the platform tree.
func Open(logger *slog.Logger) (Tree, error) {
	return NewSysfs(logger), nil
}

// Entries implements Tree. A failed walk aborts the crawl, so it is reported
// as an unavailable root rather than a partial listing.
func (s *Sysfs) Entries(ctx context.Context) ([]Entry, error) {
	if _, err := os.Stat(s.root); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRootUnavailable, err)
	}

	queue := make(chan crawler.Device)
	errs := make(chan error, 1)
	quit := s.crawl(queue, errs, usbDeviceMatcher())

	counts := make(map[string]int)
	var order []string
	var invalid []Entry
	for {
		select {
		case <-ctx.Done():
			close(quit)
			for range queue {
			}
			return nil, ctx.Err()
		case device, ok := <-queue:
			if !ok {
				select {
				case err := <-errs:
					return nil, fmt.Errorf("%w: walk %s: %w", ErrRootUnavailable, s.root, err)
				default:
				}
				entries := make([]Entry, 0, len(order)+len(invalid))
				for _, name := range order {
					entries = append(entries, Entry{Name: name, Instances: counts[name]})
				}
				return append(entries, invalid...), nil
			}
			name, err := keyFromProduct(device.Env["PRODUCT"])
			if err != nil {
				invalid = append(invalid, Entry{Name: device.KObj, Err: err})
				continue
			}
			if _, seen := counts[name]; !seen {
				order = append(order, name)
			}
			counts[name]++
		}
	}
}

// DeleteEntry implements Tree. Attached devices cannot be deleted.
func (s *Sysfs) DeleteEntry(_ context.Context, name string) error {
	return fmt.Errorf("delete %s: %w", name, ErrUnsupported)
}

func usbDeviceMatcher() netlink.Matcher {
	rules := &netlink.RuleDefinitions{}
	rules.AddRule(netlink.RuleDefinition{
		Env: map[string]string{
			"DEVTYPE": "usb_device",
		},
	})
	return rules
}

// keyFromProduct converts a uevent PRODUCT value ("5a6/a00/100") into the
// registry-style key name "VID_05A6&PID_0A00".
func keyFromProduct(product string) (string, error) {
	parts := strings.Split(strings.TrimSpace(product), "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", errors.New("missing PRODUCT in uevent")
	}
	vendor, err := padHex(parts[0])
	if err != nil {
		return "", fmt.Errorf("vendor %q: %w", parts[0], err)
	}
	productID, err := padHex(parts[1])
	if err != nil {
		return "", fmt.Errorf("product %q: %w", parts[1], err)
	}
	return "VID_" + vendor + "&PID_" + productID, nil
}

func padHex(value string) (string, error) {
	if len(value) > 4 {
		return "", errors.New("longer than four hex digits")
	}
	for _, r := range value {
		if !strings.ContainsRune("0123456789abcdefABCDEF", r) {
			return "", errors.New("not hexadecimal")
		}
	}
	return strings.ToUpper(strings.Repeat("0", 4-len(value)) + value), nil
}
