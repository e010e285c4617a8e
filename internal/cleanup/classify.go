// Package cleanup is the decision-and-reconciliation engine: it classifies a
// census snapshot against the lock list, the catalog, and the global
// threshold, then drives the ignore-flag writer and the cleaner over two
// bounded passes.
package cleanup

import (
	"enumguard/internal/catalog"
	"enumguard/internal/census"
	"enumguard/internal/deviceid"
)

// Reason explains why an identifier was marked.
type Reason string

const (
	// ReasonCatalog: count strictly above the catalog threshold.
	ReasonCatalog Reason = "catalog_threshold"
	// ReasonGlobal: unknown identifier at or above the global threshold.
	ReasonGlobal Reason = "global_threshold"
)

// Action is one identifier marked for cleanup.
type Action struct {
	ID        deviceid.ID
	Count     int
	Threshold int
	Reason    Reason
	// Enroll is set when the identifier must be added to the catalog first.
	Enroll bool
}

// Classify returns the cleanup actions for snapshot, highest count first and
// identifier ascending on ties. It does not mutate cat. Locked identifiers
// are never marked; catalog thresholds are strict, the global threshold is
// inclusive.
func Classify(snapshot census.Snapshot, locks census.Exemptions, cat *catalog.Catalog, globalThreshold int) []Action {
	var actions []Action
	for _, item := range snapshot.Sorted() {
		if locks != nil && locks.Contains(item.ID) {
			continue
		}
		if cat != nil {
			if entry, ok := cat.Lookup(item.ID); ok {
				if item.Count > entry.Threshold {
					actions = append(actions, Action{
						ID:        item.ID,
						Count:     item.Count,
						Threshold: entry.Threshold,
						Reason:    ReasonCatalog,
					})
				}
				continue
			}
		}
		if item.Count >= globalThreshold {
			actions = append(actions, Action{
				ID:        item.ID,
				Count:     item.Count,
				Threshold: globalThreshold,
				Reason:    ReasonGlobal,
				Enroll:    true,
			})
		}
	}
	return actions
}
