// Package census takes snapshots of the device tree: normalized identifier to
// instance count, with locked identifiers removed.
package census

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"enumguard/internal/deviceid"
	"enumguard/internal/devicetree"
	"enumguard/internal/logging"
)

// Snapshot maps identifiers to instance counts. It carries no ordering; use
// Sorted for processing order.
type Snapshot map[deviceid.ID]int

// Item is one snapshot entry.
type Item struct {
	ID    deviceid.ID
	Count int
}

// Sorted returns entries by count descending, identifier ascending on ties.
func (s Snapshot) Sorted() []Item {
	items := make([]Item, 0, len(s))
	for id, count := range s {
		items = append(items, Item{ID: id, Count: count})
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Count != items[j].Count {
			return items[i].Count > items[j].Count
		}
		return items[i].ID < items[j].ID
	})
	return items
}

// Exemptions reports identifiers that must never appear in a snapshot.
type Exemptions interface {
	Contains(id deviceid.ID) bool
}

// Census scans one device tree.
type Census struct {
	tree   devicetree.Tree
	locks  Exemptions
	logger *slog.Logger
}

// New builds a census over tree. locks may be nil.
func New(tree devicetree.Tree, locks Exemptions, logger *slog.Logger) *Census {
	return &Census{
		tree:   tree,
		locks:  locks,
		logger: logging.NewComponentLogger(logger, "census"),
	}
}

// Scan snapshots the tree. Each top-level key contributes its immediate
// instance count to its normalized identifier; keys that normalize alike are
// summed. Locked identifiers are omitted, as are identifiers below
// minimumCount when it is positive. An unreadable root fails the call with no
// partial result; unreadable individual keys are skipped.
func (c *Census) Scan(ctx context.Context, minimumCount int) (Snapshot, error) {
	entries, err := c.tree.Entries(ctx)
	if err != nil {
		return nil, fmt.Errorf("scan device tree: %w", err)
	}

	counts := make(Snapshot, len(entries))
	for _, entry := range entries {
		if entry.Err != nil {
			logging.WarnWithContext(c.logger, "device key unreadable; skipped", "census_entry_skipped",
				logging.String("key", entry.Name),
				logging.Error(entry.Err),
				logging.String(logging.FieldErrorHint, "check registry permissions for the key"),
				logging.String(logging.FieldImpact, "key is not considered for cleanup this run"),
			)
			continue
		}
		id := deviceid.Normalize(entry.Name)
		if id == "" {
			c.logger.Debug("device key normalizes to empty identifier; skipped",
				logging.String("key", entry.Name),
			)
			continue
		}
		if !id.Valid() {
			c.logger.Warn("suspect device identifier",
				logging.String("key", entry.Name),
				logging.String(logging.FieldDeviceID, id.String()),
				logging.String(logging.FieldEventType, "identifier_suspect"),
			)
		}
		counts[id] += entry.Instances
	}

	for id, count := range counts {
		if c.locks != nil && c.locks.Contains(id) {
			delete(counts, id)
			continue
		}
		if minimumCount > 0 && count < minimumCount {
			delete(counts, id)
		}
	}

	c.logger.Debug("census complete",
		logging.Int("keys", len(entries)),
		logging.Int("identifiers", len(counts)),
		logging.Int("minimum_count", minimumCount),
	)
	return counts, nil
}
