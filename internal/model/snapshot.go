package model

import "time"

// FetchStatus describes how a trip set was obtained.
type FetchStatus int

// Fetch outcomes.
const (
	FetchFailure FetchStatus = iota
	FetchSuccess
	FetchStaleCache
)

func (s FetchStatus) String() string {
	switch s {
	case FetchSuccess:
		return "success"
	case FetchStaleCache:
		return "staleCache"
	default:
		return "failure"
	}
}

// TripFetch is the outcome of loading trips: fresh, from a stale cache, or failed.
// Only a FetchSuccess trip set is authoritative enough to act on orphans.
type TripFetch struct {
	Status FetchStatus
	Trips  []Trip
	Err    error
}

// Succeeded is shorthand for Status == FetchSuccess.
func (f TripFetch) Succeeded() bool {
	return f.Status == FetchSuccess
}

// Snapshot is one immutable view of expenses, trips and budget records.
// A reconcile pass must be computed from exactly one Snapshot.
type Snapshot struct {
	Expenses []Expense
	Trips    TripFetch
	Budgets  map[string]BudgetRecord
	TakenAt  time.Time
}

// Budget returns the fetched budget record for a trip, if any.
func (s Snapshot) Budget(tripID string) *BudgetRecord {
	if rec, ok := s.Budgets[tripID]; ok {
		return &rec
	}
	return nil
}
