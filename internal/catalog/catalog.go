// Package catalog holds the monitored-device catalog: per-identifier cleanup
// thresholds that override the global threshold.
//
// The catalog lives in the configuration document's monitored_devices array.
// The cleanup orchestrator enrolls previously unknown offenders with the
// default threshold, and SaveTo writes the result back to the document.
package catalog

import (
	"errors"
	"fmt"

	"enumguard/internal/config"
	"enumguard/internal/deviceid"
)

// Entry is one catalog record.
type Entry struct {
	ID        deviceid.ID
	Threshold int
}

// Catalog is an ordered identifier -> threshold mapping. It is not safe for
// concurrent use.
type Catalog struct {
	defaultThreshold int
	entries          map[deviceid.ID]Entry
	order            []deviceid.ID
	enrolled         []deviceid.ID
	dirty            bool
}

// New builds a catalog. Later duplicates of an identifier are ignored.
func New(defaultThreshold int, entries ...Entry) *Catalog {
	c := &Catalog{
		defaultThreshold: defaultThreshold,
		entries:          make(map[deviceid.ID]Entry, len(entries)),
	}
	for _, entry := range entries {
		if _, ok := c.entries[entry.ID]; ok || entry.ID == "" {
			continue
		}
		c.entries[entry.ID] = entry
		c.order = append(c.order, entry.ID)
	}
	return c
}

// FromConfig builds the catalog described by cfg.MonitoredDevices.
func FromConfig(cfg *config.Config) *Catalog {
	entries := make([]Entry, 0, len(cfg.MonitoredDevices))
	for _, device := range cfg.MonitoredDevices {
		entries = append(entries, Entry{ID: deviceid.Normalize(device.VIDPID), Threshold: device.NotifyThreshold})
	}
	return New(cfg.DefaultNotifyThreshold, entries...)
}

// DefaultThreshold is the threshold assigned at enrollment.
func (c *Catalog) DefaultThreshold() int {
	return c.defaultThreshold
}

// Lookup returns the entry for id.
func (c *Catalog) Lookup(id deviceid.ID) (Entry, bool) {
	entry, ok := c.entries[id]
	return entry, ok
}

// Len returns the number of entries.
func (c *Catalog) Len() int {
	return len(c.order)
}

// Entries returns all entries in document order.
func (c *Catalog) Entries() []Entry {
	out := make([]Entry, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.entries[id])
	}
	return out
}

// Enroll adds id with the default threshold. It reports false and leaves the
// catalog untouched when id is already present.
func (c *Catalog) Enroll(id deviceid.ID) (Entry, bool) {
	if existing, ok := c.entries[id]; ok {
		return existing, false
	}
	entry := Entry{ID: id, Threshold: c.defaultThreshold}
	c.entries[id] = entry
	c.order = append(c.order, id)
	c.enrolled = append(c.enrolled, id)
	c.dirty = true
	return entry, true
}

// Enrolled lists identifiers added by Enroll, in enrollment order.
func (c *Catalog) Enrolled() []deviceid.ID {
	return append([]deviceid.ID(nil), c.enrolled...)
}

// Put inserts or updates an entry. Thresholds must be positive.
func (c *Catalog) Put(id deviceid.ID, threshold int) error {
	if id == "" {
		return errors.New("identifier cannot be empty")
	}
	if threshold <= 0 {
		return fmt.Errorf("threshold for %s must be positive", id)
	}
	if _, ok := c.entries[id]; !ok {
		c.order = append(c.order, id)
	}
	c.entries[id] = Entry{ID: id, Threshold: threshold}
	c.dirty = true
	return nil
}

// Remove deletes id and reports whether it was present.
func (c *Catalog) Remove(id deviceid.ID) bool {
	if _, ok := c.entries[id]; !ok {
		return false
	}
	delete(c.entries, id)
	for i, existing := range c.order {
		if existing == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	c.dirty = true
	return true
}

// Dirty reports whether the catalog changed since it was built.
func (c *Catalog) Dirty() bool {
	return c.dirty
}

// MinTrigger returns the smallest instance count that can trigger cleanup for
// any identifier, given the global threshold: catalog thresholds are strict,
// the global threshold is inclusive.
func (c *Catalog) MinTrigger(globalThreshold int) int {
	minimum := globalThreshold
	for _, entry := range c.entries {
		if entry.Threshold+1 < minimum {
			minimum = entry.Threshold + 1
		}
	}
	return minimum
}

// SaveTo writes the catalog into cfg.MonitoredDevices and persists the
// document.
func (c *Catalog) SaveTo(cfg *config.Config) error {
	devices := make([]config.MonitoredDevice, 0, len(c.order))
	for _, entry := range c.Entries() {
		devices = append(devices, config.MonitoredDevice{VIDPID: entry.ID.String(), NotifyThreshold: entry.Threshold})
	}
	previous := cfg.MonitoredDevices
	cfg.MonitoredDevices = devices
	if err := cfg.Save(); err != nil {
		cfg.MonitoredDevices = previous
		return fmt.Errorf("save catalog: %w", err)
	}
	c.dirty = false
	return nil
}
