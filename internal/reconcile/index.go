// Package reconcile matches expenses to trips, finds orphaned expenses and
// groups the result for display.
//
// Every function here is pure: callers pass one immutable snapshot of
// expenses and trips and get fresh derived values back. Nothing is cached
// between calls, so a trip deleted since the last call can never leak a stale
// match.
package reconcile

import (
	"time"

	"github.com/theirongolddev/tripspend/internal/model"
)

// dateGrace pads each side of a trip's date range for date-based matching.
const dateGrace = 24 * time.Hour

// TripIndex is a lookup over one trip snapshot.
// An id not present in the index is orphaned with respect to that snapshot.
type TripIndex struct {
	trips []model.Trip
	byID  map[string]int
}

// NewTripIndex builds an index in O(n). Trips keep their input order;
// for duplicate ids the first occurrence wins.
func NewTripIndex(trips []model.Trip) *TripIndex {
	idx := &TripIndex{
		trips: make([]model.Trip, 0, len(trips)),
		byID:  make(map[string]int, len(trips)),
	}
	for _, t := range trips {
		if t.ID == "" {
			continue
		}
		if _, dup := idx.byID[t.ID]; dup {
			continue
		}
		idx.byID[t.ID] = len(idx.trips)
		idx.trips = append(idx.trips, t)
	}
	return idx
}

// Len returns the number of distinct trips in the index.
func (idx *TripIndex) Len() int {
	return len(idx.trips)
}

// Has reports whether id names a trip in this snapshot.
func (idx *TripIndex) Has(id string) bool {
	_, ok := idx.byID[id]
	return ok
}

// Get returns the trip with the given id.
func (idx *TripIndex) Get(id string) (model.Trip, bool) {
	i, ok := idx.byID[id]
	if !ok {
		return model.Trip{}, false
	}
	return idx.trips[i], true
}

// Trips returns the indexed trips in input order.
func (idx *TripIndex) Trips() []model.Trip {
	return idx.trips
}

// IDs returns the set of valid trip ids.
func (idx *TripIndex) IDs() map[string]struct{} {
	ids := make(map[string]struct{}, len(idx.trips))
	for _, t := range idx.trips {
		ids[t.ID] = struct{}{}
	}
	return ids
}

// First returns the first trip in input order.
func (idx *TripIndex) First() (model.Trip, bool) {
	if len(idx.trips) == 0 {
		return model.Trip{}, false
	}
	return idx.trips[0], true
}

// FindByLabel returns the first trip whose name, destination or formatted
// label equals label exactly.
func (idx *TripIndex) FindByLabel(label string) (model.Trip, bool) {
	for _, t := range idx.trips {
		if t.Name == label || t.Destination == label || t.Label() == label {
			return t, true
		}
	}
	return model.Trip{}, false
}

// FindByDate returns the first trip whose range, padded by one day on each
// side, contains the calendar date of at.
func (idx *TripIndex) FindByDate(at time.Time) (model.Trip, bool) {
	if at.IsZero() {
		return model.Trip{}, false
	}
	day := model.CalendarDay(at)
	for _, t := range idx.trips {
		start := model.CalendarDay(t.StartDate).Add(-dateGrace)
		end := model.CalendarDay(t.EndDate).Add(dateGrace)
		if !day.Before(start) && !day.After(end) {
			return t, true
		}
	}
	return model.Trip{}, false
}
