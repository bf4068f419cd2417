// Package pipeline loads snapshots and aggregates reconciled spend into
// chart and budget figures.
package pipeline

import (
	"sort"
	"strings"
	"time"

	"github.com/theirongolddev/tripspend/internal/model"
	"github.com/theirongolddev/tripspend/internal/reconcile"
)

// View selects the key used for category aggregation.
type View int

// Aggregation views.
const (
	ViewCategory View = iota
	ViewSubcategory
)

func (v View) String() string {
	if v == ViewSubcategory {
		return "subcategory"
	}
	return "category"
}

// ParseView maps "category"/"subcategory" to a View. Anything else is ViewCategory.
func ParseView(s string) View {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "subcategory", "sub", "activity":
		return ViewSubcategory
	default:
		return ViewCategory
	}
}

// AggregateCategories sums expense amounts by category or, in the
// subcategory view, by activity title. Zero amounts are skipped.
func AggregateCategories(expenses []model.Expense, view View) map[string]float64 {
	totals := make(map[string]float64)
	for _, e := range expenses {
		if e.Amount == 0 {
			continue
		}
		var key string
		if view == ViewSubcategory {
			key = reconcile.Title(e)
		} else {
			key = string(e.Category)
		}
		totals[key] += e.Amount
	}
	return totals
}

// SortedTotals converts an aggregation map into chart rows, largest first.
// Equal amounts are ordered by label so output is stable.
func SortedTotals(totals map[string]float64) []model.CategoryTotal {
	var sum float64
	for _, v := range totals {
		sum += v
	}

	rows := make([]model.CategoryTotal, 0, len(totals))
	for label, amount := range totals {
		row := model.CategoryTotal{Label: label, Amount: amount}
		if sum != 0 {
			row.SharePercent = amount / sum * 100
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Amount != rows[j].Amount {
			return rows[i].Amount > rows[j].Amount
		}
		return rows[i].Label < rows[j].Label
	})
	return rows
}

// ComputeBudgetStatus computes the budget status of the selected trip.
// It returns false when no trip is selected or the trip is not in trips.
//
// Spend is attributed with the same priority chain reconcile.Match uses, and
// expenses whose trip id is orphaned never count. A fetched record's total
// wins over the trip's declared budget when it is positive.
func ComputeBudgetStatus(
	expenses []model.Expense,
	trips []model.Trip,
	selectedTripID string,
	record *model.BudgetRecord,
	now time.Time,
) (model.BudgetStatus, bool) {
	if selectedTripID == "" {
		return model.BudgetStatus{}, false
	}
	idx := reconcile.NewTripIndex(trips)
	trip, ok := idx.Get(selectedTripID)
	if !ok {
		return model.BudgetStatus{}, false
	}

	status := model.BudgetStatus{TripID: trip.ID}
	for _, e := range expenses {
		if reconcile.IsOrphanedByID(e, idx) {
			continue
		}
		if reconcile.BelongsTo(e, idx, trip.ID) {
			status.ActualSpent += e.Amount
		}
	}

	if record != nil && record.TotalBudget > 0 {
		status.TotalBudget = record.TotalBudget
	} else {
		status.TotalBudget = trip.DeclaredBudget()
	}
	status.Remaining = status.TotalBudget - status.ActualSpent
	if status.TotalBudget > 0 {
		status.PercentageUsed = status.ActualSpent / status.TotalBudget * 100
	}
	status.WarningTier = model.TierFor(status.PercentageUsed)

	if record != nil && record.DaysTotal > 0 {
		status.DaysTotal = record.DaysTotal
		status.DaysRemaining = record.DaysRemaining
	} else {
		status.DaysTotal = trip.Days()
		status.DaysRemaining = daysRemaining(trip, now)
	}
	forecast(&status, trip)

	return status, true
}

// AllBudgetStatuses computes a budget status for every trip in the snapshot,
// in trip order.
func AllBudgetStatuses(snap model.Snapshot, now time.Time) []model.BudgetStatus {
	out := make([]model.BudgetStatus, 0, len(snap.Trips.Trips))
	for _, t := range snap.Trips.Trips {
		st, ok := ComputeBudgetStatus(snap.Expenses, snap.Trips.Trips, t.ID, snap.Budget(t.ID), now)
		if ok {
			out = append(out, st)
		}
	}
	return out
}

func daysRemaining(trip model.Trip, now time.Time) int {
	if now.IsZero() || trip.Days() == 0 {
		return 0
	}
	today := model.CalendarDay(now)
	start := model.CalendarDay(trip.StartDate)
	end := model.CalendarDay(trip.EndDate)
	switch {
	case today.Before(start):
		return trip.Days()
	case today.After(end):
		return 0
	default:
		return int(end.Sub(today).Hours()/24) + 1
	}
}

// forecast fills the burn rate, projection and per-day limit.
func forecast(s *model.BudgetStatus, trip model.Trip) {
	elapsed := s.DaysTotal - s.DaysRemaining
	if elapsed > 0 {
		s.DailyBurnRate = s.ActualSpent / float64(elapsed)
	}
	s.ProjectedSpend = s.ActualSpent + s.DailyBurnRate*float64(s.DaysRemaining)

	switch {
	case trip.Budget != nil && trip.Budget.PerDay != nil:
		limit := *trip.Budget.PerDay
		s.DailyLimit = &limit
	case s.TotalBudget > 0 && s.DaysRemaining > 0:
		limit := s.Remaining / float64(s.DaysRemaining)
		if limit < 0 {
			limit = 0
		}
		s.DailyLimit = &limit
	}
}

// AggregateDays computes per-day spend. When since and until are both set
// every day in the range is present, gaps as zeros. Most recent first.
func AggregateDays(expenses []model.Expense, since, until time.Time) []model.DailySpend {
	filtered := FilterByTime(expenses, since, until)

	dayMap := make(map[time.Time]*model.DailySpend)
	for _, e := range filtered {
		if e.OccurredAt.IsZero() {
			continue
		}
		key := model.CalendarDay(e.OccurredAt)
		ds, ok := dayMap[key]
		if !ok {
			ds = &model.DailySpend{Date: key}
			dayMap[key] = ds
		}
		ds.Expenses++
		ds.Amount += e.Amount
	}

	if !since.IsZero() && !until.IsZero() {
		day := model.CalendarDay(since)
		end := model.CalendarDay(until.Add(-time.Nanosecond))
		for !day.After(end) {
			if _, ok := dayMap[day]; !ok {
				dayMap[day] = &model.DailySpend{Date: day}
			}
			day = day.AddDate(0, 0, 1)
		}
	}

	days := make([]model.DailySpend, 0, len(dayMap))
	for _, ds := range dayMap {
		days = append(days, *ds)
	}
	sort.Slice(days, func(i, j int) bool {
		return days[i].Date.After(days[j].Date)
	})
	return days
}

// FilterByTime returns expenses that occurred within [since, until).
// A zero bound is open.
func FilterByTime(expenses []model.Expense, since, until time.Time) []model.Expense {
	if since.IsZero() && until.IsZero() {
		return expenses
	}

	var result []model.Expense
	for _, e := range expenses {
		if e.OccurredAt.IsZero() {
			continue
		}
		if !since.IsZero() && e.OccurredAt.Before(since) {
			continue
		}
		if !until.IsZero() && !e.OccurredAt.Before(until) {
			continue
		}
		result = append(result, e)
	}
	return result
}

// FilterByCategory returns expenses of the given category. Empty keeps all.
func FilterByCategory(expenses []model.Expense, cat model.Category) []model.Expense {
	if cat == "" {
		return expenses
	}
	var result []model.Expense
	for _, e := range expenses {
		if e.Category == cat {
			result = append(result, e)
		}
	}
	return result
}

// FilterByText returns expenses whose description contains text, ignoring case.
func FilterByText(expenses []model.Expense, text string) []model.Expense {
	if text == "" {
		return expenses
	}
	var result []model.Expense
	for _, e := range expenses {
		if containsIgnoreCase(e.Description, text) {
			result = append(result, e)
		}
	}
	return result
}

func containsIgnoreCase(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// Summarize computes top-level totals for a reconcile result.
func Summarize(res reconcile.Result) model.SpendSummary {
	sum := model.SpendSummary{
		ByBasis:               make(map[model.MatchBasis]int),
		OrphanedByID:          len(res.Orphans.ByID),
		OrphanedByDescription: len(res.Orphans.ByDescription),
	}
	activeDays := make(map[time.Time]struct{})

	for _, g := range res.Groups {
		gs := model.GroupSummary{Label: g.Label, TripID: g.TripID, Expenses: len(g.Expenses), Amount: g.Total()}
		sum.Groups = append(sum.Groups, gs)

		sum.Expenses += gs.Expenses
		sum.TotalAmount += gs.Amount
		if g.TripID != "" {
			sum.MatchedAmount += gs.Amount
		} else {
			sum.OtherAmount += gs.Amount
		}

		for i, e := range g.Expenses {
			sum.ByBasis[g.Matches[i].Basis]++
			if !e.OccurredAt.IsZero() {
				activeDays[model.CalendarDay(e.OccurredAt)] = struct{}{}
			}
		}
	}

	sum.ActiveDays = len(activeDays)
	if sum.ActiveDays > 0 {
		sum.AmountPerDay = sum.TotalAmount / float64(sum.ActiveDays)
	}
	return sum
}
