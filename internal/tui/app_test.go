package tui

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/theirongolddev/tripspend/internal/model"
	"github.com/theirongolddev/tripspend/internal/pipeline"
	"github.com/theirongolddev/tripspend/internal/tui/components"

	tea "github.com/charmbracelet/bubbletea"
)

type stubSource struct {
	snap model.Snapshot
}

func (s *stubSource) Snapshot(context.Context, bool) (model.Snapshot, error) {
	return s.snap, nil
}

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return d
}

func testSnapshot(t *testing.T, withOrphan bool) model.Snapshot {
	t.Helper()
	trips := []model.Trip{
		{
			ID: "T1", Name: "Spring", Destination: "Hanoi",
			StartDate: day(t, "2025-03-01"), EndDate: day(t, "2025-03-10"),
			Budget: &model.TripBudget{Total: 1000},
		},
		{
			ID: "T2", Name: "Summer", Destination: "Saigon",
			StartDate: day(t, "2025-07-01"), EndDate: day(t, "2025-07-05"),
		},
	}
	expenses := []model.Expense{
		{ID: "e1", Amount: 200, OccurredAt: day(t, "2025-03-02"), Description: "Street food tour", Category: model.CategoryTour, TripID: "T1"},
		{ID: "e2", Amount: 40, OccurredAt: day(t, "2025-07-02"), Description: "Dinner cruise", Category: model.CategoryCruising},
		{ID: "e3", Amount: 15, OccurredAt: day(t, "2025-05-01"), Description: "Parking", Category: model.CategoryMiscellaneous},
	}
	if withOrphan {
		expenses = append(expenses, model.Expense{
			ID: "e4", Amount: 50, OccurredAt: day(t, "2025-03-03"),
			Category: model.CategoryMiscellaneous, TripID: "GONE",
		})
	}
	return model.Snapshot{
		Expenses: expenses,
		Trips:    model.TripFetch{Status: model.FetchSuccess, Trips: trips},
		Budgets:  map[string]model.BudgetRecord{},
	}
}

// loadedApp returns an App that has received its first snapshot.
func loadedApp(t *testing.T, snap model.Snapshot, selected string) (App, tea.Cmd) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	a := NewApp(Options{Source: &stubSource{snap: snap}, SelectedTripID: selected})
	a.needSetup = false
	a.width, a.height = 140, 40
	m, cmd := a.Update(DataLoadedMsg{Snapshot: snap})
	return m.(App), cmd
}

func press(t *testing.T, a App, keys ...string) App {
	t.Helper()
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEscape}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		m, _ := a.Update(msg)
		a = m.(App)
	}
	return a
}

func TestTabAtXMatchesTabWidths(t *testing.T) {
	n := len(components.Tabs)
	for active := 0; active < n; active++ {
		a := App{activeTab: active}
		pos := 0

		for i, tab := range components.Tabs {
			w := components.TabVisualWidth(tab, i == active)
			x := pos + w/2 // midpoint inside this tab
			if got := a.tabAtX(x); got != i {
				t.Fatalf("active=%d x=%d -> tab=%d, want %d", active, x, got, i)
			}
			pos += w + 1 // separator
		}
		if got := a.tabAtX(pos + 10); got != -1 {
			t.Errorf("active=%d: x past the bar -> tab=%d, want -1", active, got)
		}
	}
}

func TestDataLoaded_Recomputes(t *testing.T) {
	a, cmd := loadedApp(t, testSnapshot(t, false), "")
	if cmd != nil {
		t.Error("clean snapshot should not request a reload")
	}
	if !a.loaded {
		t.Fatal("loaded = false after DataLoadedMsg")
	}
	if a.summary.Expenses != 3 || a.summary.TotalAmount != 255 {
		t.Errorf("summary = %d/%v, want 3/255", a.summary.Expenses, a.summary.TotalAmount)
	}
	if a.summary.OtherAmount != 15 {
		t.Errorf("OtherAmount = %v, want 15", a.summary.OtherAmount)
	}
	if a.budget != nil {
		t.Error("no trip selected, budget should be nil")
	}
	if len(a.trips) != 2 || a.trips[0].Trip.ID != "T2" {
		t.Errorf("trip rows should be newest first, got %+v", a.trips)
	}
	if len(a.days) == 0 {
		t.Error("daily series is empty")
	}
	for i := 1; i < len(a.days); i++ {
		if a.days[i].Date.Before(a.days[i-1].Date) {
			t.Fatalf("daily series not oldest first at %d", i)
		}
	}
}

func TestDataLoaded_SelectedTripBudget(t *testing.T) {
	a, _ := loadedApp(t, testSnapshot(t, false), "T1")
	if a.budget == nil {
		t.Fatal("budget = nil for a trip with a declared budget")
	}
	if a.budget.ActualSpent != 200 || a.budget.PercentageUsed != 20 {
		t.Errorf("budget = %v spent / %v%%, want 200 / 20%%", a.budget.ActualSpent, a.budget.PercentageUsed)
	}
	if a.summary.Expenses != 1 {
		t.Errorf("selected summary has %d expenses, want 1", a.summary.Expenses)
	}
	// Whole trip range is charted.
	if len(a.days) != 10 {
		t.Errorf("daily series has %d days, want 10", len(a.days))
	}
}

func TestDataLoaded_SelectionReset(t *testing.T) {
	snap := testSnapshot(t, false)
	a, cmd := loadedApp(t, snap, "DELETED")

	if a.selected != "T1" {
		t.Errorf("selected = %q, want T1", a.selected)
	}
	if !strings.Contains(a.notice, "DELETED") || !strings.Contains(a.notice, "Spring (Hanoi)") {
		t.Errorf("notice = %q", a.notice)
	}
	if cmd == nil {
		t.Fatal("stale selection should request one reload")
	}

	m, cmd := a.Update(RefreshDataMsg{Snapshot: snap})
	a = m.(App)
	if cmd != nil {
		t.Error("selection already repaired, no further reload expected")
	}
	if a.cleanupKey != "" {
		t.Errorf("cleanupKey = %q after a clean authoritative pass", a.cleanupKey)
	}
}

func TestCleanupReloadRequestedOnce(t *testing.T) {
	dirty := testSnapshot(t, true)
	a, cmd := loadedApp(t, dirty, "")
	if cmd == nil {
		t.Fatal("orphaned expenses should request a forced reload")
	}
	if !a.refreshing {
		t.Error("refreshing should be set while the reload runs")
	}

	// Same orphan set again: no second reload.
	m, cmd := a.Update(RefreshDataMsg{Snapshot: dirty})
	a = m.(App)
	if cmd != nil {
		t.Error("same orphan set should not trigger another reload")
	}
	if a.summary.OrphanedByID != 1 {
		t.Errorf("OrphanedByID = %d, want 1", a.summary.OrphanedByID)
	}

	// Cleaned up, then a new orphan appears: reload again.
	m, _ = a.Update(RefreshDataMsg{Snapshot: testSnapshot(t, false)})
	a = m.(App)
	if _, cmd = a.Update(RefreshDataMsg{Snapshot: dirty}); cmd == nil {
		t.Error("orphan set reappearing after cleanup should reload")
	}
}

func TestCleanupReloadForLabelOrphan(t *testing.T) {
	snap := testSnapshot(t, false)
	snap.Expenses = append(snap.Expenses, model.Expense{
		ID: "e5", Amount: 30, OccurredAt: day(t, "2025-05-02"),
		Description: "Taxi [Trip: Deleted Trip]", Category: model.CategoryMiscellaneous,
	})
	a, cmd := loadedApp(t, snap, "")
	if !a.res.Signal.CleanupNeeded || len(a.res.Orphans.ByDescription) != 1 {
		t.Fatalf("CleanupNeeded = %v byDescription = %d, want true 1",
			a.res.Signal.CleanupNeeded, len(a.res.Orphans.ByDescription))
	}
	if cmd == nil {
		t.Fatal("a label orphan alone should request a forced reload")
	}

	m, cmd := a.Update(RefreshDataMsg{Snapshot: snap})
	a = m.(App)
	if cmd != nil {
		t.Error("same label orphan should not trigger another reload")
	}
}

func TestCleanupIgnoredForStaleTrips(t *testing.T) {
	snap := testSnapshot(t, true)
	snap.Trips.Status = model.FetchStaleCache
	a, cmd := loadedApp(t, snap, "")
	if cmd != nil {
		t.Error("stale trip list must not trigger cleanup")
	}
	if a.res.Authoritative {
		t.Error("result from a stale trip list reported authoritative")
	}
}

func TestViewToggle(t *testing.T) {
	a, _ := loadedApp(t, testSnapshot(t, false), "")
	if a.view != pipeline.ViewCategory {
		t.Fatalf("initial view = %v", a.view)
	}
	a = press(t, a, "v")
	if a.view != pipeline.ViewSubcategory {
		t.Errorf("view after v = %v, want subcategory", a.view)
	}
	a = press(t, a, "v")
	if a.view != pipeline.ViewCategory {
		t.Errorf("view after second v = %v, want category", a.view)
	}
}

func TestTripsTabSelection(t *testing.T) {
	a, _ := loadedApp(t, testSnapshot(t, false), "")
	a = press(t, a, "t")
	if a.activeTab != components.TabTrips {
		t.Fatalf("activeTab = %d, want trips", a.activeTab)
	}

	a = press(t, a, "enter")
	if a.selected != "T2" {
		t.Errorf("enter on first row selected %q, want T2", a.selected)
	}

	a = press(t, a, "j", "enter")
	if a.selected != "T1" {
		t.Errorf("selected %q, want T1", a.selected)
	}
	if a.budget == nil {
		t.Error("selecting T1 should compute its budget")
	}

	a = press(t, a, "a")
	if a.selected != "" {
		t.Errorf("a should select all trips, got %q", a.selected)
	}
}

func TestGroupsSearch(t *testing.T) {
	a, _ := loadedApp(t, testSnapshot(t, false), "")
	a = press(t, a, "g")
	if a.activeTab != components.TabGroups {
		t.Fatalf("activeTab = %d, want groups", a.activeTab)
	}
	if n := len(a.visibleGroups()); n != 3 {
		t.Fatalf("visible groups = %d, want 3", n)
	}

	a = press(t, a, "/", "c", "r", "u", "i", "s", "e", "enter")
	if a.groups.query != "cruise" {
		t.Fatalf("query = %q, want cruise", a.groups.query)
	}
	groups := a.visibleGroups()
	if len(groups) != 1 || groups[0].TripID != "T2" {
		t.Fatalf("filtered groups = %+v, want only the Summer trip", groups)
	}
	if len(groups[0].Expenses) != len(groups[0].Matches) {
		t.Error("filtered group expenses and matches out of step")
	}

	a = press(t, a, "esc")
	if a.groups.query != "" {
		t.Errorf("esc should clear the query, got %q", a.groups.query)
	}
}

func TestViewMainRendersEveryTab(t *testing.T) {
	a, _ := loadedApp(t, testSnapshot(t, true), "T1")
	for i := range components.Tabs {
		a.activeTab = i
		out := a.View()
		if out == "" {
			t.Fatalf("tab %d rendered empty", i)
		}
		if got := strings.Count(out, "\n") + 1; got > a.height {
			t.Errorf("tab %d rendered %d lines, terminal has %d", i, got, a.height)
		}
	}
}
