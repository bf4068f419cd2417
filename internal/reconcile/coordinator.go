package reconcile

import (
	"sort"
	"strings"

	"github.com/theirongolddev/tripspend/internal/model"
)

// Group is one display bucket of reconciled expenses.
// Matches[i] is the match computed for Expenses[i].
type Group struct {
	Label    string
	TripID   string // empty for "Other Expenses" and unresolved label groups
	Expenses []model.Expense
	Matches  []model.MatchResult
}

// Total returns the summed amount of the group's expenses.
func (g Group) Total() float64 {
	var total float64
	for _, e := range g.Expenses {
		total += e.Amount
	}
	return total
}

// Signal tells the caller what to do after a reconcile pass.
type Signal struct {
	// CleanupNeeded asks for a fresh fetch of trips, expenses and budgets.
	CleanupNeeded bool
	// SelectionReset is set when the selected trip no longer exists.
	SelectionReset bool
	// SuggestedTripID replaces the selection when SelectionReset is set.
	// Empty means "no selection".
	SuggestedTripID string
}

// Result is the output of a reconcile pass.
type Result struct {
	Groups  []Group
	Orphans Orphans
	Signal  Signal

	// Authoritative is false when the trip set came from a stale cache or a
	// failed fetch; the groups are then provisional and Signal is zeroed.
	Authoritative bool
}

// ByLabel returns the groups as a label -> expenses mapping.
func (r Result) ByLabel() map[string][]model.Expense {
	m := make(map[string][]model.Expense, len(r.Groups))
	for _, g := range r.Groups {
		m[g.Label] = g.Expenses
	}
	return m
}

// Group returns the group with the given label.
func (r Result) Group(label string) (Group, bool) {
	for _, g := range r.Groups {
		if g.Label == label {
			return g, true
		}
	}
	return Group{}, false
}

// Expenses returns every grouped expense in group order.
func (r Result) Expenses() []model.Expense {
	var out []model.Expense
	for _, g := range r.Groups {
		out = append(out, g.Expenses...)
	}
	return out
}

// CleanupKey identifies the condition behind Signal.CleanupNeeded: the
// orphaned expense ids of both kinds and a stale selection. It is empty
// exactly when no cleanup is needed, so callers can remember which
// condition they already answered with a reload.
func (r Result) CleanupKey() string {
	if !r.Signal.CleanupNeeded {
		return ""
	}
	keys := make([]string, 0, r.Orphans.Count()+1)
	for _, e := range r.Orphans.ByID {
		keys = append(keys, "id:"+e.ID)
	}
	for _, e := range r.Orphans.ByDescription {
		keys = append(keys, "label:"+e.ID)
	}
	sort.Strings(keys)
	if r.Signal.SelectionReset {
		keys = append(keys, "selection:"+r.Signal.SuggestedTripID)
	}
	if len(keys) == 0 {
		return "cleanup"
	}
	return strings.Join(keys, ",")
}

// Reconcile matches expenses to trips and groups them for display.
//
// Expenses whose trip id is orphaned are dropped from every group. When
// selectedTripID is non-empty only expenses matched to that trip are kept, so
// "Other Expenses" and label-only groups disappear under a selection. Groups
// are ordered by the first expense that landed in them.
func Reconcile(expenses []model.Expense, trips []model.Trip, selectedTripID string) Result {
	idx := NewTripIndex(trips)
	orphans := FindOrphans(expenses, idx)

	var groups []Group
	pos := make(map[string]int)

	for _, e := range expenses {
		if IsOrphanedByID(e, idx) {
			continue
		}
		m := Match(e, idx)
		if selectedTripID != "" && m.MatchedTripID != selectedTripID {
			continue
		}

		i, ok := pos[m.ResolvedName]
		if !ok {
			i = len(groups)
			pos[m.ResolvedName] = i
			groups = append(groups, Group{Label: m.ResolvedName, TripID: m.MatchedTripID})
		}
		groups[i].Expenses = append(groups[i].Expenses, e)
		groups[i].Matches = append(groups[i].Matches, m)
	}

	return Result{
		Groups:        groups,
		Orphans:       orphans,
		Signal:        signalFor(orphans, idx, selectedTripID),
		Authoritative: true,
	}
}

// ReconcileSnapshot runs Reconcile over one snapshot and only raises the
// cleanup signal when the snapshot's trips came from a successful fetch.
// A stale or failed trip fetch can make every trip look deleted.
func ReconcileSnapshot(snap model.Snapshot, selectedTripID string) Result {
	res := Reconcile(snap.Expenses, snap.Trips.Trips, selectedTripID)
	if !snap.Trips.Succeeded() {
		res.Signal = Signal{}
		res.Authoritative = false
	}
	return res
}

func signalFor(orphans Orphans, idx *TripIndex, selectedTripID string) Signal {
	sig := Signal{CleanupNeeded: orphans.Any()}
	if selectedTripID == "" || idx.Has(selectedTripID) {
		return sig
	}

	sig.CleanupNeeded = true
	sig.SelectionReset = true
	if first, ok := idx.First(); ok {
		sig.SuggestedTripID = first.ID
	}
	return sig
}
