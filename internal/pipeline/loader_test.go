package pipeline

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/theirongolddev/tripspend/internal/model"
	"github.com/theirongolddev/tripspend/internal/reconcile"
	"github.com/theirongolddev/tripspend/internal/source"
	"github.com/theirongolddev/tripspend/internal/store"
)

func writeFile(t *testing.T, dir, name string, lines ...string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func seedDataDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, dir, "01-trips.jsonl",
		`{"type":"trip","id":"T1","name":"Tet Holiday","destination":"Hanoi","startDate":"2025-01-01","endDate":"2025-01-05","budget":{"total":1000}}`,
		`{"type":"trip","id":"T2","name":"Work","destination":"Saigon","startDate":"2025-03-01","endDate":"2025-03-04"}`,
	)
	writeFile(t, dir, "02-expenses.jsonl",
		`{"type":"expense","id":"E1","amount":100,"date":"2025-01-02","tripId":"T1"}`,
		`{"type":"expense","id":"E2","amount":30,"date":"2025-03-02","tripId":"T2"}`,
		`{"type":"budget","tripId":"T1","totalBudget":1200,"daysRemaining":2,"daysTotal":5}`,
	)
	return dir
}

func tripIDs(trips []model.Trip) []string {
	ids := make([]string, 0, len(trips))
	for _, tr := range trips {
		ids = append(ids, tr.ID)
	}
	return ids
}

func TestLoad(t *testing.T) {
	dir := seedDataDir(t)

	var calls atomic.Int32
	res, err := Load(dir, func(current, total int) {
		calls.Add(1)
		if total != 2 {
			t.Errorf("progress total = %d, want 2", total)
		}
	})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if n := calls.Load(); n != 2 {
		t.Errorf("progress calls = %d, want 2", n)
	}
	if res.TotalFiles != 2 || res.ParsedFiles != 2 || !res.Complete() {
		t.Errorf("files total/parsed = %d/%d", res.TotalFiles, res.ParsedFiles)
	}
	if got := tripIDs(res.Trips); strings.Join(got, ",") != "T1,T2" {
		t.Errorf("trips = %v", got)
	}
	if len(res.Expenses) != 2 || len(res.Budgets) != 1 {
		t.Errorf("expenses/budgets = %d/%d, want 2/1", len(res.Expenses), len(res.Budgets))
	}
}

func TestLoad_MissingDir(t *testing.T) {
	res, err := Load(filepath.Join(t.TempDir(), "nope"), nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if res.TotalFiles != 0 || len(res.Trips) != 0 {
		t.Errorf("missing dir = %+v, want empty", res)
	}
}

func TestMerge_LaterFileWins(t *testing.T) {
	results := []source.ParseResult{
		{
			File:     "/d/b.jsonl",
			Deleted:  []string{"T1"},
			Expenses: []model.Expense{{ID: "E1", Amount: 2}},
		},
		{
			File:     "/d/a.jsonl",
			Trips:    []model.Trip{{ID: "T1", Name: "A"}, {ID: "T2", Name: "B"}},
			Expenses: []model.Expense{{ID: "E1", Amount: 1}, {ID: "E3", Amount: 3}},
		},
		{File: "/d/c.jsonl", Err: errors.New("permission denied")},
	}

	got := Merge(results)
	if ids := tripIDs(got.Trips); strings.Join(ids, ",") != "T2" {
		t.Errorf("trips = %v, want [T2]", ids)
	}
	if len(got.Deleted) != 1 || got.Deleted[0] != "T1" {
		t.Errorf("Deleted = %v, want [T1]", got.Deleted)
	}
	if len(got.Expenses) != 2 || got.Expenses[0].Amount != 2 {
		t.Errorf("expenses = %+v, want E1 overridden to 2", got.Expenses)
	}
	if got.FileErrors != 1 || got.ParsedFiles != 2 || got.Complete() {
		t.Errorf("FileErrors/ParsedFiles = %d/%d", got.FileErrors, got.ParsedFiles)
	}
}

func TestLoad_DeletedTripOrphansExpenses(t *testing.T) {
	dir := seedDataDir(t)
	writeFile(t, dir, "03-deletions.jsonl", `{"type":"trip","id":"T1","deleted":true}`)

	res, err := Load(dir, nil)
	if err != nil {
		t.Fatal(err)
	}
	snap := BuildSnapshot(res, nil, nil, time.Now())
	rec := reconcile.ReconcileSnapshot(snap, "")

	if len(rec.Orphans.ByID) != 1 || rec.Orphans.ByID[0].ID != "E1" {
		t.Errorf("Orphans.ByID = %v, want [E1]", rec.Orphans.ByID)
	}
	if !rec.Signal.CleanupNeeded {
		t.Error("CleanupNeeded = false after a trip deletion")
	}
}

func openCache(t *testing.T) *store.Cache {
	t.Helper()
	c, err := store.Open(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestLoadWithCache(t *testing.T) {
	dir := seedDataDir(t)
	cache := openCache(t)

	first, err := LoadWithCache(dir, cache, nil)
	if err != nil {
		t.Fatalf("first load: %v", err)
	}
	if first.Reparsed != 2 || first.CacheHits != 0 {
		t.Errorf("first load reparsed/hits = %d/%d, want 2/0", first.Reparsed, first.CacheHits)
	}

	second, err := LoadWithCache(dir, cache, nil)
	if err != nil {
		t.Fatalf("second load: %v", err)
	}
	if second.Reparsed != 0 || second.CacheHits != 2 {
		t.Errorf("second load reparsed/hits = %d/%d, want 0/2", second.Reparsed, second.CacheHits)
	}
	if strings.Join(tripIDs(second.Trips), ",") != "T1,T2" || len(second.Expenses) != 2 {
		t.Errorf("cached load = trips %v, %d expenses", tripIDs(second.Trips), len(second.Expenses))
	}

	writeFile(t, dir, "02-expenses.jsonl",
		`{"type":"expense","id":"E1","amount":100,"date":"2025-01-02","tripId":"T1"}`,
		`{"type":"expense","id":"E2","amount":30,"date":"2025-03-02","tripId":"T2"}`,
		`{"type":"expense","id":"E5","amount":12,"date":"2025-03-03"}`,
	)
	if err := os.Remove(filepath.Join(dir, "01-trips.jsonl")); err != nil {
		t.Fatal(err)
	}

	third, err := LoadWithCache(dir, cache, nil)
	if err != nil {
		t.Fatalf("third load: %v", err)
	}
	if third.Reparsed != 1 || third.Evicted != 1 {
		t.Errorf("third load reparsed/evicted = %d/%d, want 1/1", third.Reparsed, third.Evicted)
	}
	if len(third.Trips) != 0 || len(third.Expenses) != 3 || len(third.Budgets) != 0 {
		t.Errorf("third load = %d trips, %d expenses, %d budgets", len(third.Trips), len(third.Expenses), len(third.Budgets))
	}
}

func TestBuildSnapshot(t *testing.T) {
	now := time.Date(2025, 1, 3, 0, 0, 0, 0, time.UTC)
	good := &LoadResult{
		Trips:    []model.Trip{{ID: "T1"}, {ID: "T2"}},
		Expenses: []model.Expense{{ID: "E1", TripID: "T1"}},
		Budgets:  []model.BudgetRecord{{TripID: "T1", TotalBudget: 10}},
	}

	t.Run("success remembers trips", func(t *testing.T) {
		cache := openCache(t)
		snap := BuildSnapshot(good, nil, cache, now)
		if snap.Trips.Status != model.FetchSuccess || len(snap.Trips.Trips) != 2 {
			t.Errorf("Trips = %+v", snap.Trips)
		}
		if snap.Budget("T1") == nil || len(snap.Expenses) != 1 || !snap.TakenAt.Equal(now) {
			t.Errorf("snapshot = %+v", snap)
		}

		failed := BuildSnapshot(nil, errors.New("disk gone"), cache, now)
		if failed.Trips.Status != model.FetchStaleCache || len(failed.Trips.Trips) != 2 {
			t.Errorf("after failure Trips = %+v, want staleCache with 2 trips", failed.Trips)
		}
		if failed.Trips.Err == nil {
			t.Error("stale fetch lost its error")
		}
	})

	t.Run("failure without history", func(t *testing.T) {
		snap := BuildSnapshot(nil, errors.New("disk gone"), openCache(t), now)
		if snap.Trips.Status != model.FetchFailure || len(snap.Trips.Trips) != 0 {
			t.Errorf("Trips = %+v, want failure", snap.Trips)
		}
	})

	t.Run("incomplete load is not authoritative", func(t *testing.T) {
		partial := &LoadResult{Trips: []model.Trip{{ID: "T2"}}, TotalFiles: 2, FileErrors: 1}
		snap := BuildSnapshot(partial, nil, nil, now)
		if snap.Trips.Status != model.FetchFailure || !errors.Is(snap.Trips.Err, ErrIncompleteLoad) {
			t.Errorf("Trips = %+v, want failure wrapping ErrIncompleteLoad", snap.Trips)
		}
		if len(snap.Trips.Trips) != 1 {
			t.Errorf("partial trips dropped: %+v", snap.Trips.Trips)
		}
	})
}

func TestLoadSnapshot(t *testing.T) {
	dir := seedDataDir(t)
	cache := openCache(t)
	now := time.Now()

	snap, res := LoadSnapshot(dir, cache, nil, now)
	if snap.Trips.Status != model.FetchSuccess || res.TotalFiles != 2 {
		t.Fatalf("status %s, files %d", snap.Trips.Status, res.TotalFiles)
	}
	if rec := snap.Budget("T1"); rec == nil || rec.TotalBudget != 1200 {
		t.Errorf("budget record = %+v", rec)
	}

	uncached, res := LoadSnapshot(dir, nil, nil, now)
	if uncached.Trips.Status != model.FetchSuccess || res.Reparsed != 2 {
		t.Errorf("uncached status %s, reparsed %d", uncached.Trips.Status, res.Reparsed)
	}
}
