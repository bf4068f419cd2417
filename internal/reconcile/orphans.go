package reconcile

import "github.com/theirongolddev/tripspend/internal/model"

// Orphans classifies expenses whose trip reference no longer resolves.
type Orphans struct {
	// ByID holds expenses with a trip id that is not in the snapshot.
	ByID []model.Expense
	// ByDescription holds untagged expenses whose [Trip: ...] label names no trip.
	ByDescription []model.Expense
}

// FindOrphans scans expenses against idx. It does not modify its input.
//
// With an empty index every expense carrying a trip id is reported in ByID.
// The detector cannot tell "trips not loaded yet" from "user has no trips";
// callers must only act on the result when the trip fetch succeeded.
func FindOrphans(expenses []model.Expense, idx *TripIndex) Orphans {
	var o Orphans
	for _, e := range expenses {
		if IsOrphanedByID(e, idx) {
			o.ByID = append(o.ByID, e)
			continue
		}
		if e.HasTripID() {
			continue
		}
		tag := ParseDescription(e.Description)
		if tag.TripLabel == nil {
			continue
		}
		if _, ok := idx.FindByLabel(*tag.TripLabel); !ok {
			o.ByDescription = append(o.ByDescription, e)
		}
	}
	return o
}

// IsOrphanedByID reports whether e references a trip id missing from idx.
func IsOrphanedByID(e model.Expense, idx *TripIndex) bool {
	return e.HasTripID() && !idx.Has(e.TripID)
}

// Any reports whether any orphan was found.
func (o Orphans) Any() bool {
	return len(o.ByID) > 0 || len(o.ByDescription) > 0
}

// Count returns the total number of orphaned expenses.
func (o Orphans) Count() int {
	return len(o.ByID) + len(o.ByDescription)
}

// MissingTripIDs returns the distinct dangling trip ids, in first-seen order.
func (o Orphans) MissingTripIDs() []string {
	seen := make(map[string]struct{})
	var ids []string
	for _, e := range o.ByID {
		if _, ok := seen[e.TripID]; ok {
			continue
		}
		seen[e.TripID] = struct{}{}
		ids = append(ids, e.TripID)
	}
	return ids
}
