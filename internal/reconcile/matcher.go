package reconcile

import "github.com/theirongolddev/tripspend/internal/model"

// Match returns the best trip for one expense. Rules are tried in a fixed
// order and the first hit wins:
//
//  1. the expense's trip id, if it names a trip in idx
//  2. a [Trip: ...] label matching a trip's name, destination or label
//  3. the expense date falling inside a trip's range (+/- one day), only
//     when the expense has neither a trip id nor a trip label
//  4. nothing: the "Other Expenses" group
//
// An explicit reference always outranks a textual hint, which outranks a date
// coincidence. A label that names no known trip still becomes its own group
// so the context is not lost, but MatchedTripID stays empty.
func Match(e model.Expense, idx *TripIndex) model.MatchResult {
	if e.HasTripID() {
		if trip, ok := idx.Get(e.TripID); ok {
			return model.MatchResult{
				MatchedTripID: trip.ID,
				ResolvedName:  trip.Label(),
				Basis:         model.MatchByID,
			}
		}
	}

	tag := ParseDescription(e.Description)
	if tag.TripLabel != nil {
		if trip, ok := idx.FindByLabel(*tag.TripLabel); ok {
			return model.MatchResult{
				MatchedTripID: trip.ID,
				ResolvedName:  trip.Label(),
				Basis:         model.MatchByDescription,
			}
		}
		return model.MatchResult{
			ResolvedName: *tag.TripLabel,
			Basis:        model.MatchNone,
		}
	}

	if !e.HasTripID() {
		if trip, ok := idx.FindByDate(e.OccurredAt); ok {
			return model.MatchResult{
				MatchedTripID: trip.ID,
				ResolvedName:  trip.Label(),
				Basis:         model.MatchByDateRange,
			}
		}
	}

	return model.MatchResult{
		ResolvedName: model.OtherExpensesLabel,
		Basis:        model.MatchNone,
	}
}

// BelongsTo reports whether Match assigns e to tripID.
// Budget spend is computed through this so it can never drift from Match.
func BelongsTo(e model.Expense, idx *TripIndex, tripID string) bool {
	if tripID == "" {
		return false
	}
	return Match(e, idx).MatchedTripID == tripID
}
