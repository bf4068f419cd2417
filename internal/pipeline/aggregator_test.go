package pipeline

import (
	"math"
	"testing"
	"time"

	"github.com/theirongolddev/tripspend/internal/model"
	"github.com/theirongolddev/tripspend/internal/reconcile"
)

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		t.Fatalf("parse date %q: %v", s, err)
	}
	return d
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func budgetTrips(t *testing.T, total float64) []model.Trip {
	t.Helper()
	return []model.Trip{
		{
			ID: "T1", Name: "Tet Holiday", Destination: "Hanoi",
			StartDate: mustDate(t, "2025-01-01"), EndDate: mustDate(t, "2025-01-05"),
			Budget: &model.TripBudget{Total: total},
		},
		{
			ID: "T2", Name: "Work", Destination: "Saigon",
			StartDate: mustDate(t, "2025-03-01"), EndDate: mustDate(t, "2025-03-04"),
		},
	}
}

func budgetExpenses(t *testing.T) []model.Expense {
	t.Helper()
	return []model.Expense{
		{ID: "by-id", Amount: 500, OccurredAt: mustDate(t, "2025-06-01"), TripID: "T1", Category: model.CategoryLodging},
		{ID: "by-label", Amount: 200, OccurredAt: mustDate(t, "2025-06-01"), Description: "Train [Trip: Hanoi]", Category: model.CategoryRail},
		{ID: "by-date", Amount: 100, OccurredAt: mustDate(t, "2025-01-02"), Description: "Pho [Activity: Street food]", Category: model.CategoryRestaurant},
		{ID: "orphan", Amount: 9999, OccurredAt: mustDate(t, "2025-01-02"), Description: "[Trip: Tet Holiday]", TripID: "GONE"},
		{ID: "other-trip", Amount: 50, OccurredAt: mustDate(t, "2025-03-02"), Category: model.CategoryRestaurant},
		{ID: "unmatched", Amount: 7, OccurredAt: mustDate(t, "2025-09-09"), Category: model.CategoryShopping},
	}
}

func TestAggregateCategories(t *testing.T) {
	expenses := []model.Expense{
		{ID: "a", Amount: 10, Category: model.CategoryRestaurant, Description: "Pho [Activity: Dinner]"},
		{ID: "b", Amount: 5, Category: model.CategoryRestaurant, Description: "Coffee"},
		{ID: "c", Amount: 0, Category: model.CategoryTour, Description: "[Activity: Free walk]"},
		{ID: "d", Amount: 20, Category: model.CategoryFerry, Description: "[Activity: Dinner]"},
	}

	byCat := AggregateCategories(expenses, ViewCategory)
	if len(byCat) != 2 || byCat["restaurant"] != 15 || byCat["ferry"] != 20 {
		t.Errorf("category view = %v", byCat)
	}
	if _, ok := byCat["tour"]; ok {
		t.Error("zero amount produced a category key")
	}

	bySub := AggregateCategories(expenses, ViewSubcategory)
	if len(bySub) != 3 || bySub["Pho"] != 10 || bySub["Coffee"] != 5 || bySub["Ferry"] != 20 {
		t.Errorf("subcategory view = %v", bySub)
	}

	empty := AggregateCategories(nil, ViewCategory)
	if empty == nil || len(empty) != 0 {
		t.Errorf("empty input = %#v, want empty non-nil map", empty)
	}
}

func TestAggregateCategories_ScenarioD(t *testing.T) {
	e4 := model.Expense{ID: "E4", Amount: 500000, Category: model.CategoryMiscellaneous}
	res := reconcile.Reconcile([]model.Expense{e4}, nil, "")
	g, ok := res.Group(model.OtherExpensesLabel)
	if !ok {
		t.Fatal("no Other Expenses group")
	}

	got := AggregateCategories(g.Expenses, ViewCategory)
	if len(got) != 1 || got["miscellaneous"] != 500000 {
		t.Errorf("categories = %v, want {miscellaneous: 500000}", got)
	}
}

func TestAggregateCategories_Conservation(t *testing.T) {
	res := reconcile.Reconcile(budgetExpenses(t), budgetTrips(t, 1000), "")
	grouped := res.Expenses()

	var want float64
	for _, e := range grouped {
		want += e.Amount
	}

	for _, view := range []View{ViewCategory, ViewSubcategory} {
		var got float64
		for _, v := range AggregateCategories(grouped, view) {
			got += v
		}
		if !approx(got, want) {
			t.Errorf("%s view total = %.2f, want %.2f", view, got, want)
		}
	}
}

func TestSortedTotals(t *testing.T) {
	rows := SortedTotals(map[string]float64{"b": 10, "a": 10, "c": 30})
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(rows))
	}
	if rows[0].Label != "c" || rows[1].Label != "a" || rows[2].Label != "b" {
		t.Errorf("order = %s %s %s, want c a b", rows[0].Label, rows[1].Label, rows[2].Label)
	}
	if !approx(rows[0].SharePercent, 60) {
		t.Errorf("c share = %.2f, want 60", rows[0].SharePercent)
	}
	if got := SortedTotals(nil); len(got) != 0 {
		t.Errorf("SortedTotals(nil) = %v", got)
	}
}

func TestParseView(t *testing.T) {
	if ParseView("Subcategory") != ViewSubcategory || ParseView("category") != ViewCategory || ParseView("bogus") != ViewCategory {
		t.Error("ParseView mapping wrong")
	}
}

func TestComputeBudgetStatus(t *testing.T) {
	now := mustDate(t, "2025-01-03")

	tests := []struct {
		name       string
		tripBudget float64
		record     *model.BudgetRecord
		wantTotal  float64
		wantPct    float64
		wantTier   model.WarningTier
	}{
		{"trip budget", 1000, nil, 1000, 80, model.TierApproaching},
		{"record wins", 1000, &model.BudgetRecord{TripID: "T1", TotalBudget: 2000}, 2000, 40, model.TierOnTrack},
		{"zero record falls back", 1000, &model.BudgetRecord{TripID: "T1"}, 1000, 80, model.TierApproaching},
		{"over budget", 800, nil, 800, 100, model.TierOverBudget},
		{"no budget", 0, nil, 0, 0, model.TierOnTrack},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st, ok := ComputeBudgetStatus(budgetExpenses(t), budgetTrips(t, tt.tripBudget), "T1", tt.record, now)
			if !ok {
				t.Fatal("ok = false for a known trip")
			}
			// by-id + by-label + by-date; the orphan and the other trip's expense never count.
			if st.ActualSpent != 800 {
				t.Errorf("ActualSpent = %.2f, want 800", st.ActualSpent)
			}
			if st.TotalBudget != tt.wantTotal {
				t.Errorf("TotalBudget = %.2f, want %.2f", st.TotalBudget, tt.wantTotal)
			}
			if !approx(st.PercentageUsed, tt.wantPct) {
				t.Errorf("PercentageUsed = %.2f, want %.2f", st.PercentageUsed, tt.wantPct)
			}
			if st.WarningTier != tt.wantTier {
				t.Errorf("WarningTier = %s, want %s", st.WarningTier, tt.wantTier)
			}
			if !approx(st.Remaining, tt.wantTotal-800) {
				t.Errorf("Remaining = %.2f, want %.2f", st.Remaining, tt.wantTotal-800)
			}
		})
	}
}

func TestComputeBudgetStatus_NoSelection(t *testing.T) {
	trips := budgetTrips(t, 1000)
	if _, ok := ComputeBudgetStatus(budgetExpenses(t), trips, "", nil, time.Now()); ok {
		t.Error("ok = true with no selection")
	}
	if _, ok := ComputeBudgetStatus(budgetExpenses(t), trips, "GONE", nil, time.Now()); ok {
		t.Error("ok = true for an unknown trip")
	}
}

func TestComputeBudgetStatus_AgreesWithReconcile(t *testing.T) {
	expenses := budgetExpenses(t)
	trips := budgetTrips(t, 1000)

	for _, id := range []string{"T1", "T2"} {
		st, _ := ComputeBudgetStatus(expenses, trips, id, nil, time.Time{})
		res := reconcile.Reconcile(expenses, trips, id)
		var want float64
		for _, g := range res.Groups {
			want += g.Total()
		}
		if !approx(st.ActualSpent, want) {
			t.Errorf("%s: ActualSpent = %.2f, reconciled groups = %.2f", id, st.ActualSpent, want)
		}
	}
}

func TestComputeBudgetStatus_Forecast(t *testing.T) {
	trips := budgetTrips(t, 1000)
	now := mustDate(t, "2025-01-03")

	st, _ := ComputeBudgetStatus(budgetExpenses(t), trips, "T1", nil, now)
	if st.DaysTotal != 5 || st.DaysRemaining != 3 {
		t.Fatalf("days = %d/%d, want 5/3", st.DaysRemaining, st.DaysTotal)
	}
	if !approx(st.DailyBurnRate, 400) {
		t.Errorf("DailyBurnRate = %.2f, want 400", st.DailyBurnRate)
	}
	if !approx(st.ProjectedSpend, 2000) {
		t.Errorf("ProjectedSpend = %.2f, want 2000", st.ProjectedSpend)
	}
	if st.DailyLimit == nil || !approx(*st.DailyLimit, 200.0/3) {
		t.Errorf("DailyLimit = %v, want %.4f", st.DailyLimit, 200.0/3)
	}

	perDay := 120.0
	trips[0].Budget.PerDay = &perDay
	st, _ = ComputeBudgetStatus(budgetExpenses(t), trips, "T1", nil, now)
	if st.DailyLimit == nil || *st.DailyLimit != 120 {
		t.Errorf("declared DailyLimit = %v, want 120", st.DailyLimit)
	}

	rec := &model.BudgetRecord{TripID: "T1", TotalBudget: 1000, DaysTotal: 10, DaysRemaining: 8}
	st, _ = ComputeBudgetStatus(budgetExpenses(t), trips, "T1", rec, now)
	if st.DaysTotal != 10 || st.DaysRemaining != 8 {
		t.Errorf("record days = %d/%d, want 8/10", st.DaysRemaining, st.DaysTotal)
	}

	before, _ := ComputeBudgetStatus(budgetExpenses(t), trips, "T1", nil, mustDate(t, "2024-12-01"))
	after, _ := ComputeBudgetStatus(budgetExpenses(t), trips, "T1", nil, mustDate(t, "2025-02-01"))
	if before.DaysRemaining != 5 || after.DaysRemaining != 0 {
		t.Errorf("DaysRemaining before/after = %d/%d, want 5/0", before.DaysRemaining, after.DaysRemaining)
	}
	if !approx(after.ProjectedSpend, after.ActualSpent) {
		t.Errorf("finished trip projects %.2f, want actual %.2f", after.ProjectedSpend, after.ActualSpent)
	}
}

func TestAllBudgetStatuses(t *testing.T) {
	snap := model.Snapshot{
		Expenses: budgetExpenses(t),
		Trips:    model.TripFetch{Status: model.FetchSuccess, Trips: budgetTrips(t, 1000)},
		Budgets:  map[string]model.BudgetRecord{"T2": {TripID: "T2", TotalBudget: 100}},
	}
	all := AllBudgetStatuses(snap, mustDate(t, "2025-01-03"))
	if len(all) != 2 || all[0].TripID != "T1" || all[1].TripID != "T2" {
		t.Fatalf("statuses = %+v", all)
	}
	if all[1].ActualSpent != 50 || !approx(all[1].PercentageUsed, 50) {
		t.Errorf("T2 = %.2f spent %.2f%%, want 50 / 50%%", all[1].ActualSpent, all[1].PercentageUsed)
	}
}

func TestAggregateDays(t *testing.T) {
	expenses := []model.Expense{
		{ID: "a", Amount: 10, OccurredAt: mustDate(t, "2025-01-01")},
		{ID: "b", Amount: 5, OccurredAt: mustDate(t, "2025-01-01").Add(20 * time.Hour)},
		{ID: "c", Amount: 7, OccurredAt: mustDate(t, "2025-01-03")},
		{ID: "undated", Amount: 99},
	}

	days := AggregateDays(expenses, mustDate(t, "2025-01-01"), mustDate(t, "2025-01-04"))
	if len(days) != 3 {
		t.Fatalf("days = %d, want 3", len(days))
	}
	if !days[0].Date.Equal(mustDate(t, "2025-01-03")) || days[0].Amount != 7 {
		t.Errorf("most recent day = %+v", days[0])
	}
	if days[1].Amount != 0 || days[1].Expenses != 0 {
		t.Errorf("gap day = %+v, want zeros", days[1])
	}
	if days[2].Amount != 15 || days[2].Expenses != 2 {
		t.Errorf("first day = %+v, want 15 over 2", days[2])
	}

	open := AggregateDays(expenses, time.Time{}, time.Time{})
	if len(open) != 2 {
		t.Errorf("open range days = %d, want 2 (no fill, undated skipped)", len(open))
	}
}

func TestFilters(t *testing.T) {
	expenses := budgetExpenses(t)

	if got := FilterByTime(expenses, mustDate(t, "2025-01-01"), mustDate(t, "2025-02-01")); len(got) != 2 {
		t.Errorf("FilterByTime = %d, want 2", len(got))
	}
	if got := FilterByCategory(expenses, model.CategoryRestaurant); len(got) != 2 {
		t.Errorf("FilterByCategory = %d, want 2", len(got))
	}
	if got := FilterByCategory(expenses, ""); len(got) != len(expenses) {
		t.Errorf("FilterByCategory(\"\") = %d, want all", len(got))
	}
	if got := FilterByText(expenses, "HANOI"); len(got) != 1 || got[0].ID != "by-label" {
		t.Errorf("FilterByText = %v", got)
	}
}

func TestSummarize(t *testing.T) {
	res := reconcile.Reconcile(budgetExpenses(t), budgetTrips(t, 1000), "")
	sum := Summarize(res)

	if sum.Expenses != 5 {
		t.Errorf("Expenses = %d, want 5 (orphan excluded)", sum.Expenses)
	}
	if sum.TotalAmount != 857 || sum.MatchedAmount != 850 || sum.OtherAmount != 7 {
		t.Errorf("amounts total/matched/other = %.0f/%.0f/%.0f, want 857/850/7",
			sum.TotalAmount, sum.MatchedAmount, sum.OtherAmount)
	}
	if sum.OrphanedByID != 1 {
		t.Errorf("OrphanedByID = %d, want 1", sum.OrphanedByID)
	}
	if sum.ByBasis[model.MatchByID] != 1 || sum.ByBasis[model.MatchByDescription] != 1 ||
		sum.ByBasis[model.MatchByDateRange] != 2 || sum.ByBasis[model.MatchNone] != 1 {
		t.Errorf("ByBasis = %v", sum.ByBasis)
	}
	if sum.ActiveDays != 4 {
		t.Errorf("ActiveDays = %d, want 4", sum.ActiveDays)
	}
	if len(sum.Groups) != len(res.Groups) {
		t.Errorf("Groups = %d, want %d", len(sum.Groups), len(res.Groups))
	}
}
