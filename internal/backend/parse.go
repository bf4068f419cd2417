package backend

import (
	"errors"
	"fmt"
	"strings"

	"github.com/theirongolddev/tripspend/internal/model"
	"github.com/theirongolddev/tripspend/internal/source"

	"github.com/tidwall/gjson"
)

// The API is not strict about field naming: camelCase and snake_case both
// appear, ids may be numbers, and amounts may be numeric strings. Responses
// are read with gjson so each field can try its spellings in turn.

var errMalformed = errors.New("backend: malformed response")

// field returns the first of paths that exists in r.
func field(r gjson.Result, paths ...string) gjson.Result {
	for _, p := range paths {
		if v := r.Get(p); v.Exists() {
			return v
		}
	}
	return gjson.Result{}
}

// str returns a field as a string, or "" when null or absent.
func str(r gjson.Result, paths ...string) string {
	v := field(r, paths...)
	if v.Type == gjson.Null {
		return ""
	}
	return strings.TrimSpace(v.String())
}

// list returns the records of a collection response. Both a bare array and
// an object wrapping it under key (or "data") are accepted.
func list(body []byte, key string) ([]gjson.Result, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: invalid JSON", errMalformed)
	}
	root := gjson.ParseBytes(body)
	if root.IsArray() {
		return root.Array(), nil
	}
	if v := field(root, key, "data"); v.IsArray() {
		return v.Array(), nil
	}
	return nil, fmt.Errorf("%w: expected a %s list", errMalformed, key)
}

func parseTrips(body []byte) ([]model.Trip, error) {
	items, err := list(body, "trips")
	if err != nil {
		return nil, err
	}

	trips := make([]model.Trip, 0, len(items))
	for _, it := range items {
		id := str(it, "id", "tripId", "trip_id")
		if id == "" {
			continue
		}
		start, _ := source.ParseDate(str(it, "startDate", "start_date"))
		end, _ := source.ParseDate(str(it, "endDate", "end_date"))
		t := model.Trip{
			ID:          id,
			Name:        str(it, "name", "title"),
			Destination: str(it, "destination"),
			StartDate:   start,
			EndDate:     end,
		}
		if b := field(it, "budget"); b.IsObject() {
			t.Budget = &model.TripBudget{Total: field(b, "total", "totalBudget", "total_budget").Float()}
			if pd := field(b, "perDay", "per_day", "dailyLimit"); pd.Exists() && pd.Type != gjson.Null {
				v := pd.Float()
				t.Budget.PerDay = &v
			}
		} else if b.Type == gjson.Number || b.Type == gjson.String {
			t.Budget = &model.TripBudget{Total: b.Float()}
		}
		trips = append(trips, t)
	}
	return trips, nil
}

func parseExpenses(body []byte) ([]model.Expense, error) {
	items, err := list(body, "expenses")
	if err != nil {
		return nil, err
	}

	expenses := make([]model.Expense, 0, len(items))
	for _, it := range items {
		at, _ := source.ParseDate(str(it, "occurredAt", "occurred_at", "date"))
		expenses = append(expenses, model.Expense{
			ID:          str(it, "id", "expenseId", "expense_id"),
			Amount:      field(it, "amount").Float(),
			OccurredAt:  at,
			Description: str(it, "description", "note"),
			Category:    model.ParseCategory(str(it, "category")),
			TripID:      str(it, "tripId", "trip_id"),
		})
	}
	return expenses, nil
}

func parseBudgetStatus(tripID string, body []byte) (model.BudgetRecord, error) {
	if !gjson.ValidBytes(body) {
		return model.BudgetRecord{}, fmt.Errorf("%w: invalid JSON", errMalformed)
	}
	root := gjson.ParseBytes(body)
	if v := field(root, "data", "budgetStatus"); v.IsObject() {
		root = v
	}

	total := field(root, "totalBudget", "total_budget", "total")
	if !total.Exists() {
		return model.BudgetRecord{}, fmt.Errorf("%w: budget status without a total", errMalformed)
	}
	return model.BudgetRecord{
		TripID:        tripID,
		TotalBudget:   total.Float(),
		DaysRemaining: int(field(root, "daysRemaining", "days_remaining").Int()),
		DaysTotal:     int(field(root, "daysTotal", "days_total").Int()),
	}, nil
}
