package reconcile

import (
	"testing"
	"time"

	"github.com/theirongolddev/tripspend/internal/model"
)

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		t.Fatalf("parse date %q: %v", s, err)
	}
	return d
}

func newTrip(t *testing.T, id, name, dest, start, end string) model.Trip {
	t.Helper()
	return model.Trip{
		ID:          id,
		Name:        name,
		Destination: dest,
		StartDate:   mustDate(t, start),
		EndDate:     mustDate(t, end),
	}
}

func newExpense(t *testing.T, id string, amount float64, date, desc, tripID string) model.Expense {
	t.Helper()
	return model.Expense{
		ID:          id,
		Amount:      amount,
		OccurredAt:  mustDate(t, date),
		Description: desc,
		Category:    model.CategoryMiscellaneous,
		TripID:      tripID,
	}
}

func expenseIDs(expenses []model.Expense) []string {
	ids := make([]string, 0, len(expenses))
	for _, e := range expenses {
		ids = append(ids, e.ID)
	}
	return ids
}
