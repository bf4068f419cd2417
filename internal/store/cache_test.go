package store

import (
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/theirongolddev/tripspend/internal/model"
	"github.com/theirongolddev/tripspend/internal/source"
)

func openTestCache(t *testing.T) *Cache {
	t.Helper()
	c, err := Open(filepath.Join(t.TempDir(), "cache", "tripspend.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func sampleResult(path string) source.ParseResult {
	perDay := 150.0
	hanoi := time.FixedZone("ICT", 7*3600)
	return source.ParseResult{
		File: path,
		Trips: []model.Trip{
			{
				ID: "T1", Name: "Tet Holiday", Destination: "Hanoi",
				StartDate: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
				EndDate:   time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC),
				Budget:    &model.TripBudget{Total: 1000, PerDay: &perDay},
			},
			{ID: "T2", Name: "Work", Destination: "Saigon"},
		},
		Expenses: []model.Expense{
			{ID: "E1", Amount: 12.5, OccurredAt: time.Date(2025, 1, 2, 1, 0, 0, 0, hanoi), Description: "Pho", Category: model.CategoryRestaurant, TripID: "T1"},
			{ID: "E2", Amount: 3, Category: model.CategoryMiscellaneous},
		},
		Budgets:     []model.BudgetRecord{{TripID: "T1", TotalBudget: 1200, DaysRemaining: 3, DaysTotal: 5}},
		Deleted:     []string{"T9"},
		ParseErrors: 2,
	}
}

func TestCache_SaveAndLoad(t *testing.T) {
	c := openTestCache(t)
	pr := sampleResult("/data/a.jsonl")

	if err := c.SaveFile(pr, 111, 222); err != nil {
		t.Fatalf("SaveFile: %v", err)
	}

	tracked, err := c.GetTrackedFiles()
	if err != nil {
		t.Fatalf("GetTrackedFiles: %v", err)
	}
	if fi := tracked[pr.File]; fi.MtimeNs != 111 || fi.SizeBytes != 222 {
		t.Errorf("tracked = %+v, want {111 222}", fi)
	}

	all, err := c.LoadAll()
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	got, ok := all[pr.File]
	if !ok {
		t.Fatalf("file %s missing from LoadAll", pr.File)
	}
	if got.ParseErrors != 2 {
		t.Errorf("ParseErrors = %d, want 2", got.ParseErrors)
	}
	if len(got.Trips) != 2 || got.Trips[0].ID != "T1" || got.Trips[1].ID != "T2" {
		t.Fatalf("Trips = %+v", got.Trips)
	}
	if b := got.Trips[0].Budget; b == nil || b.Total != 1000 || b.PerDay == nil || *b.PerDay != 150 {
		t.Errorf("T1 budget = %+v", b)
	}
	if got.Trips[1].Budget != nil {
		t.Errorf("T2 budget = %+v, want nil", got.Trips[1].Budget)
	}
	if !got.Trips[0].StartDate.Equal(pr.Trips[0].StartDate) {
		t.Errorf("StartDate = %v", got.Trips[0].StartDate)
	}

	e1 := got.Expenses[0]
	if !e1.OccurredAt.Equal(pr.Expenses[0].OccurredAt) {
		t.Errorf("OccurredAt = %v, want %v", e1.OccurredAt, pr.Expenses[0].OccurredAt)
	}
	// The recorded offset must survive so the calendar day does not shift.
	if !model.CalendarDay(e1.OccurredAt).Equal(time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("calendar day shifted: %v", e1.OccurredAt)
	}
	if e1.TripID != "T1" || e1.Category != model.CategoryRestaurant || e1.Description != "Pho" {
		t.Errorf("E1 = %+v", e1)
	}
	if !got.Expenses[1].OccurredAt.IsZero() {
		t.Errorf("E2 OccurredAt = %v, want zero", got.Expenses[1].OccurredAt)
	}
	if !reflect.DeepEqual(got.Budgets, pr.Budgets) {
		t.Errorf("Budgets = %+v, want %+v", got.Budgets, pr.Budgets)
	}
	if !reflect.DeepEqual(got.Deleted, pr.Deleted) {
		t.Errorf("Deleted = %v, want %v", got.Deleted, pr.Deleted)
	}
}

func TestCache_SaveReplacesFile(t *testing.T) {
	c := openTestCache(t)
	pr := sampleResult("/data/a.jsonl")
	if err := c.SaveFile(pr, 1, 1); err != nil {
		t.Fatal(err)
	}

	pr.Trips = pr.Trips[:1]
	pr.Expenses = nil
	if err := c.SaveFile(pr, 2, 2); err != nil {
		t.Fatal(err)
	}

	n, err := c.Counts()
	if err != nil {
		t.Fatalf("Counts: %v", err)
	}
	want := Counts{Files: 1, Trips: 1, Expenses: 0, Budgets: 1}
	if n != want {
		t.Errorf("Counts = %+v, want %+v", n, want)
	}
}

func TestCache_DeleteFile(t *testing.T) {
	c := openTestCache(t)
	if err := c.SaveFile(sampleResult("/data/a.jsonl"), 1, 1); err != nil {
		t.Fatal(err)
	}
	if err := c.SaveFile(sampleResult("/data/b.jsonl"), 1, 1); err != nil {
		t.Fatal(err)
	}

	if err := c.DeleteFile("/data/a.jsonl"); err != nil {
		t.Fatalf("DeleteFile: %v", err)
	}

	all, err := c.LoadAll()
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := all["/data/a.jsonl"]; ok {
		t.Error("deleted file still loaded")
	}
	n, _ := c.Counts()
	if n.Files != 1 || n.Trips != 2 || n.Expenses != 2 {
		t.Errorf("Counts after delete = %+v", n)
	}
}

func TestCache_LastGoodTrips(t *testing.T) {
	c := openTestCache(t)

	_, _, ok, err := c.LoadLastGoodTrips()
	if err != nil || ok {
		t.Fatalf("empty LoadLastGoodTrips = ok %v, err %v", ok, err)
	}

	trips := sampleResult("").Trips
	at := time.Date(2025, 1, 3, 12, 0, 0, 0, time.UTC)
	if err := c.SaveLastGoodTrips(trips, at); err != nil {
		t.Fatalf("SaveLastGoodTrips: %v", err)
	}
	if err := c.SaveLastGoodTrips(trips[:1], at.Add(time.Hour)); err != nil {
		t.Fatalf("SaveLastGoodTrips: %v", err)
	}

	got, savedAt, ok, err := c.LoadLastGoodTrips()
	if err != nil || !ok {
		t.Fatalf("LoadLastGoodTrips = ok %v, err %v", ok, err)
	}
	if len(got) != 1 || got[0].ID != "T1" || got[0].Label() != "Tet Holiday (Hanoi)" {
		t.Errorf("trips = %+v, want only T1", got)
	}
	if !savedAt.Equal(at.Add(time.Hour)) {
		t.Errorf("savedAt = %v, want %v", savedAt, at.Add(time.Hour))
	}
}
