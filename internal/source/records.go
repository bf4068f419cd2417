package source

import "github.com/theirongolddev/tripspend/internal/model"

// Records accumulates trips, expenses and budget records in arrival order.
// A record with an id already seen replaces the earlier one in place, so the
// last write wins while first-seen order is kept. The zero value is ready to use.
type Records struct {
	trips   []model.Trip
	tripPos map[string]int

	deleted  map[string]struct{}
	delOrder []string

	expenses []model.Expense
	expPos   map[string]int

	budgets []model.BudgetRecord
	budPos  map[string]int
}

// AddTrip upserts a trip and clears any earlier tombstone for it.
func (r *Records) AddTrip(t model.Trip) {
	if r.tripPos == nil {
		r.tripPos = make(map[string]int)
	}
	delete(r.deleted, t.ID)
	if i, ok := r.tripPos[t.ID]; ok {
		r.trips[i] = t
		return
	}
	r.tripPos[t.ID] = len(r.trips)
	r.trips = append(r.trips, t)
}

// DeleteTrip removes a trip and remembers the tombstone.
// Expenses referencing the trip are left alone.
func (r *Records) DeleteTrip(id string) {
	if r.deleted == nil {
		r.deleted = make(map[string]struct{})
	}
	if _, ok := r.deleted[id]; !ok {
		r.deleted[id] = struct{}{}
		r.delOrder = append(r.delOrder, id)
	}

	i, ok := r.tripPos[id]
	if !ok {
		return
	}
	r.trips = append(r.trips[:i], r.trips[i+1:]...)
	delete(r.tripPos, id)
	for j := i; j < len(r.trips); j++ {
		r.tripPos[r.trips[j].ID] = j
	}
}

// AddExpense upserts an expense. Expenses without an id are always appended.
func (r *Records) AddExpense(e model.Expense) {
	if e.ID == "" {
		r.expenses = append(r.expenses, e)
		return
	}
	if r.expPos == nil {
		r.expPos = make(map[string]int)
	}
	if i, ok := r.expPos[e.ID]; ok {
		r.expenses[i] = e
		return
	}
	r.expPos[e.ID] = len(r.expenses)
	r.expenses = append(r.expenses, e)
}

// AddBudget upserts a budget record keyed by trip id.
func (r *Records) AddBudget(b model.BudgetRecord) {
	if r.budPos == nil {
		r.budPos = make(map[string]int)
	}
	if i, ok := r.budPos[b.TripID]; ok {
		r.budgets[i] = b
		return
	}
	r.budPos[b.TripID] = len(r.budgets)
	r.budgets = append(r.budgets, b)
}

// Trips returns the live trips.
func (r *Records) Trips() []model.Trip { return r.trips }

// Expenses returns every expense.
func (r *Records) Expenses() []model.Expense { return r.expenses }

// Budgets returns every budget record.
func (r *Records) Budgets() []model.BudgetRecord { return r.budgets }

// Deleted returns the ids of trips whose latest record is a tombstone.
func (r *Records) Deleted() []string {
	var ids []string
	for _, id := range r.delOrder {
		if _, ok := r.deleted[id]; ok {
			ids = append(ids, id)
		}
	}
	return ids
}
