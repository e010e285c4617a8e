package devicetree

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"enumguard/internal/deviceid"
	"enumguard/internal/logging"
)

// Cleaner deletes every top-level key whose normalized name equals an
// identifier.
type Cleaner struct {
	tree   Tree
	logger *slog.Logger
}

// NewCleaner wraps tree.
func NewCleaner(tree Tree, logger *slog.Logger) *Cleaner {
	return &Cleaner{tree: tree, logger: logging.NewComponentLogger(logger, "cleaner")}
}

// DeleteStaleEntries removes all matching sub-trees. Finding no match is
// success. Every matching key is attempted; failures are joined.
func (c *Cleaner) DeleteStaleEntries(ctx context.Context, id deviceid.ID) error {
	entries, err := c.tree.Entries(ctx)
	if err != nil {
		return fmt.Errorf("enumerate for deletion: %w", err)
	}

	var matches []string
	for _, entry := range entries {
		if deviceid.Normalize(entry.Name) == id {
			matches = append(matches, entry.Name)
		}
	}
	if len(matches) == 0 {
		c.logger.Info("no enumeration keys match identifier; nothing to delete",
			logging.String(logging.FieldDeviceID, id.String()),
			logging.String(logging.FieldEventType, "cleanup_no_match"),
		)
		return nil
	}

	var errs []error
	for _, name := range matches {
		if err := c.tree.DeleteEntry(ctx, name); err != nil {
			errs = append(errs, err)
			continue
		}
		c.logger.Info("deleted enumeration key",
			logging.String(logging.FieldDeviceID, id.String()),
			logging.String("key", name),
			logging.String(logging.FieldEventType, "enum_key_deleted"),
		)
	}
	return errors.Join(errs...)
}
