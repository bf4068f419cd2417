package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/theirongolddev/tripspend/internal/model"
)

type fakeSource struct {
	mu     sync.Mutex
	snap   model.Snapshot
	err    error
	forced []bool
}

func (f *fakeSource) Snapshot(_ context.Context, force bool) (model.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.forced = append(f.forced, force)
	return f.snap, f.err
}

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		t.Fatalf("parse date %q: %v", s, err)
	}
	return d
}

func testSnapshot(t *testing.T, status model.FetchStatus, withOrphan bool) model.Snapshot {
	t.Helper()
	trips := []model.Trip{
		{
			ID: "T1", Name: "Spring", Destination: "Hanoi",
			StartDate: mustDate(t, "2025-03-01"), EndDate: mustDate(t, "2025-03-10"),
			Budget: &model.TripBudget{Total: 1000},
		},
		{
			ID: "T2", Name: "Summer", Destination: "Saigon",
			StartDate: mustDate(t, "2025-07-01"), EndDate: mustDate(t, "2025-07-05"),
		},
	}
	expenses := []model.Expense{
		{ID: "e1", Amount: 200, OccurredAt: mustDate(t, "2025-03-02"), Category: model.CategoryMiscellaneous, TripID: "T1"},
		{ID: "e2", Amount: 40, OccurredAt: mustDate(t, "2025-07-02"), Category: model.CategoryMiscellaneous},
		{ID: "e3", Amount: 15, OccurredAt: mustDate(t, "2025-05-01"), Category: model.CategoryMiscellaneous},
	}
	if withOrphan {
		expenses = append(expenses, model.Expense{
			ID: "e4", Amount: 50, OccurredAt: mustDate(t, "2025-03-03"),
			Category: model.CategoryMiscellaneous, TripID: "GONE",
		})
	}
	return model.Snapshot{
		Expenses: expenses,
		Trips:    model.TripFetch{Status: status, Trips: trips},
		Budgets:  map[string]model.BudgetRecord{},
	}
}

func eventTypes(events []Event) []string {
	out := make([]string, 0, len(events))
	for _, ev := range events {
		out = append(out, ev.Type)
	}
	return out
}

func TestDiffSnapshots(t *testing.T) {
	prev := Snapshot{
		Expenses:      10,
		TotalAmount:   500,
		MatchedAmount: 400,
		OrphanedByID:  1,
	}
	curr := Snapshot{
		Expenses:      12,
		TotalAmount:   562.5,
		MatchedAmount: 400,
		OrphanedByID:  0,
	}

	delta := diffSnapshots(prev, curr)
	if delta.Expenses != 2 {
		t.Fatalf("Expenses delta = %d, want 2", delta.Expenses)
	}
	if math.Abs(delta.TotalAmount-62.5) > 1e-9 {
		t.Fatalf("TotalAmount delta = %.2f, want 62.50", delta.TotalAmount)
	}
	if delta.MatchedAmount != 0 {
		t.Fatalf("MatchedAmount delta = %.2f, want 0", delta.MatchedAmount)
	}
	if delta.OrphanedByID != -1 {
		t.Fatalf("OrphanedByID delta = %d, want -1", delta.OrphanedByID)
	}
	if delta.isZero() {
		t.Fatal("delta unexpectedly reported as zero")
	}
	if !diffSnapshots(curr, curr).isZero() {
		t.Fatal("identical snapshots produced a non-zero delta")
	}
}

func TestPublishEventRingBuffer(t *testing.T) {
	s := New(Config{
		DataDir:      ".",
		Interval:     10 * time.Second,
		EventsBuffer: 2,
	})

	s.publishEvent(Event{ID: 1})
	s.publishEvent(Event{ID: 2})
	s.publishEvent(Event{ID: 3})

	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.events) != 2 {
		t.Fatalf("events len = %d, want 2", len(s.events))
	}
	if s.events[0].ID != 2 || s.events[1].ID != 3 {
		t.Fatalf("events ring contains IDs [%d, %d], want [2, 3]", s.events[0].ID, s.events[1].ID)
	}
}

func TestPollOnce_CleanupForcesOneReload(t *testing.T) {
	src := &fakeSource{snap: testSnapshot(t, model.FetchSuccess, true)}
	s := New(Config{Source: src, SelectedTripID: "T1"})
	ctx := context.Background()

	s.pollOnce(ctx)
	s.pollOnce(ctx)
	s.pollOnce(ctx)

	want := []bool{false, true, false}
	if len(src.forced) != len(want) {
		t.Fatalf("source called %d times, want %d", len(src.forced), len(want))
	}
	for i := range want {
		if src.forced[i] != want[i] {
			t.Errorf("poll %d force = %v, want %v", i, src.forced[i], want[i])
		}
	}

	s.mu.RLock()
	events := append([]Event(nil), s.events...)
	snap := s.snapshot
	s.mu.RUnlock()

	types := eventTypes(events)
	if len(types) != 2 || types[0] != EventSnapshot || types[1] != EventCleanupNeeded {
		t.Fatalf("events = %v, want [snapshot cleanup_needed]", types)
	}
	cleanup := events[1]
	if len(cleanup.MissingTripIDs) != 1 || cleanup.MissingTripIDs[0] != "GONE" {
		t.Errorf("MissingTripIDs = %v, want [GONE]", cleanup.MissingTripIDs)
	}
	if cleanup.SelectionReset {
		t.Error("SelectionReset set for an existing selection")
	}
	if cleanup.RunID == "" || cleanup.RunID != events[0].RunID {
		t.Errorf("events from one poll should share a run id: %q vs %q", cleanup.RunID, events[0].RunID)
	}

	// Selection keeps only T1's expense; the orphan never counts.
	if snap.Expenses != 1 || snap.TotalAmount != 200 {
		t.Errorf("summary = %d expenses / %.2f, want 1 / 200", snap.Expenses, snap.TotalAmount)
	}
	if snap.OrphanedByID != 1 || !snap.CleanupNeeded {
		t.Errorf("OrphanedByID = %d CleanupNeeded = %v, want 1 true", snap.OrphanedByID, snap.CleanupNeeded)
	}
}

func TestPollOnce_LabelOrphanForcesReload(t *testing.T) {
	snap := testSnapshot(t, model.FetchSuccess, false)
	snap.Expenses = append(snap.Expenses, model.Expense{
		ID: "e5", Amount: 30, OccurredAt: mustDate(t, "2025-05-02"),
		Category: model.CategoryMiscellaneous, Description: "Taxi [Trip: Deleted Trip]",
	})
	src := &fakeSource{snap: snap}
	s := New(Config{Source: src})
	ctx := context.Background()

	s.pollOnce(ctx)
	s.pollOnce(ctx)
	s.pollOnce(ctx)

	want := []bool{false, true, false}
	if len(src.forced) != len(want) {
		t.Fatalf("source called %d times, want %d", len(src.forced), len(want))
	}
	for i := range want {
		if src.forced[i] != want[i] {
			t.Errorf("poll %d force = %v, want %v", i, src.forced[i], want[i])
		}
	}

	s.mu.RLock()
	events := append([]Event(nil), s.events...)
	s.mu.RUnlock()

	types := eventTypes(events)
	if len(types) != 2 || types[1] != EventCleanupNeeded {
		t.Fatalf("events = %v, want [snapshot cleanup_needed]", types)
	}
	if len(events[1].MissingTripIDs) != 0 {
		t.Errorf("MissingTripIDs = %v, want none for a label orphan", events[1].MissingTripIDs)
	}
}

func TestPollOnce_SelectionReset(t *testing.T) {
	src := &fakeSource{snap: testSnapshot(t, model.FetchSuccess, false)}
	s := New(Config{Source: src, SelectedTripID: "DELETED"})

	s.pollOnce(context.Background())

	st := s.snapshotStatus()
	if st.SelectedTripID != "T1" {
		t.Fatalf("SelectedTripID = %q, want T1", st.SelectedTripID)
	}
	if st.Budget == nil {
		t.Fatal("expected a budget for the suggested trip")
	}
	if st.Budget.ActualSpent != 200 || st.Budget.PercentageUsed != 20 {
		t.Errorf("budget spent = %.2f used = %.1f%%, want 200 / 20%%", st.Budget.ActualSpent, st.Budget.PercentageUsed)
	}
	if st.Budget.WarningTier != "onTrack" {
		t.Errorf("WarningTier = %q, want onTrack", st.Budget.WarningTier)
	}

	s.mu.RLock()
	events := append([]Event(nil), s.events...)
	s.mu.RUnlock()

	var found bool
	for _, ev := range events {
		if ev.Type == EventCleanupNeeded {
			found = true
			if !ev.SelectionReset || ev.SuggestedTripID != "T1" {
				t.Errorf("cleanup event = reset %v suggested %q, want true T1", ev.SelectionReset, ev.SuggestedTripID)
			}
		}
	}
	if !found {
		t.Fatalf("events = %v, want a cleanup_needed event", eventTypes(events))
	}

	// The next poll runs against the new selection and settles.
	s.pollOnce(context.Background())
	s.mu.RLock()
	key := s.orphanKey
	s.mu.RUnlock()
	if key != "" {
		t.Errorf("orphanKey = %q after settling, want empty", key)
	}
}

func TestPollOnce_StaleTripsNeverSignal(t *testing.T) {
	src := &fakeSource{snap: testSnapshot(t, model.FetchStaleCache, true)}
	s := New(Config{Source: src})

	s.pollOnce(context.Background())
	s.pollOnce(context.Background())

	for i, f := range src.forced {
		if f {
			t.Errorf("poll %d forced a reload from a stale trip set", i)
		}
	}

	st := s.snapshotStatus()
	if st.Summary.Authoritative {
		t.Error("stale snapshot reported as authoritative")
	}
	if st.Summary.CleanupNeeded {
		t.Error("stale snapshot raised cleanup")
	}
	if st.Summary.FetchStatus != "staleCache" {
		t.Errorf("FetchStatus = %q, want staleCache", st.Summary.FetchStatus)
	}
	if st.EventCount != 1 {
		t.Errorf("EventCount = %d, want 1", st.EventCount)
	}
}

func TestPollOnce_SourceError(t *testing.T) {
	src := &fakeSource{err: errors.New("backend down")}
	s := New(Config{Source: src})

	s.pollOnce(context.Background())

	st := s.snapshotStatus()
	if st.LastError != "backend down" {
		t.Errorf("LastError = %q, want %q", st.LastError, "backend down")
	}
	if st.PollCount != 1 {
		t.Errorf("PollCount = %d, want 1", st.PollCount)
	}
	if st.EventCount != 0 {
		t.Errorf("EventCount = %d, want 0", st.EventCount)
	}
}

func TestPollOnce_SpendDelta(t *testing.T) {
	src := &fakeSource{snap: testSnapshot(t, model.FetchSuccess, false)}
	s := New(Config{Source: src})
	ctx := context.Background()

	s.pollOnce(ctx)

	src.mu.Lock()
	src.snap.Expenses = append(src.snap.Expenses, model.Expense{
		ID: "e5", Amount: 25, OccurredAt: mustDate(t, "2025-03-04"),
		Category: model.CategoryMiscellaneous, TripID: "T1",
	})
	src.mu.Unlock()
	s.pollOnce(ctx)

	s.mu.RLock()
	events := append([]Event(nil), s.events...)
	s.mu.RUnlock()

	if len(events) != 2 || events[1].Type != EventSpendDelta {
		t.Fatalf("events = %v, want [snapshot spend_delta]", eventTypes(events))
	}
	d := events[1].Delta
	if d.Expenses != 1 || d.TotalAmount != 25 || d.MatchedAmount != 25 {
		t.Errorf("delta = %+v, want 1 expense / 25 total / 25 matched", d)
	}
	if events[0].RunID == events[1].RunID {
		t.Error("separate polls share a run id")
	}
}

func TestHandlers(t *testing.T) {
	src := &fakeSource{snap: testSnapshot(t, model.FetchSuccess, false)}
	s := New(Config{Source: src})
	h := s.Handler()

	get := func(path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, http.NoBody))
		return rec
	}

	if rec := get("/healthz"); rec.Code != http.StatusOK || rec.Body.String() != "ok\n" {
		t.Errorf("/healthz = %d %q", rec.Code, rec.Body.String())
	}
	if rec := get("/v1/budget"); rec.Code != http.StatusNotFound {
		t.Errorf("/v1/budget without selection = %d, want 404", rec.Code)
	}

	s.pollOnce(context.Background())

	rec := get("/v1/groups")
	if rec.Code != http.StatusOK {
		t.Fatalf("/v1/groups = %d", rec.Code)
	}
	var groups []GroupView
	if err := json.Unmarshal(rec.Body.Bytes(), &groups); err != nil {
		t.Fatalf("decoding groups: %v", err)
	}
	wantLabels := []string{"Spring (Hanoi)", "Summer (Saigon)", model.OtherExpensesLabel}
	if len(groups) != len(wantLabels) {
		t.Fatalf("got %d groups, want %d", len(groups), len(wantLabels))
	}
	for i, want := range wantLabels {
		if groups[i].Label != want {
			t.Errorf("group %d = %q, want %q", i, groups[i].Label, want)
		}
	}
	if groups[1].Items[0].Basis != "byDateRange" {
		t.Errorf("Summer basis = %q, want byDateRange", groups[1].Items[0].Basis)
	}

	rec = get("/v1/status")
	var st Status
	if err := json.Unmarshal(rec.Body.Bytes(), &st); err != nil {
		t.Fatalf("decoding status: %v", err)
	}
	if st.Summary.Expenses != 3 || st.Summary.Groups != 3 {
		t.Errorf("status summary = %+v", st.Summary)
	}

	rec = get("/v1/events")
	var events []Event
	if err := json.Unmarshal(rec.Body.Bytes(), &events); err != nil {
		t.Fatalf("decoding events: %v", err)
	}
	if len(events) != 1 || events[0].Type != EventSnapshot {
		t.Errorf("events = %v, want [snapshot]", eventTypes(events))
	}
}

func TestRun_RequiresSource(t *testing.T) {
	s := New(Config{})
	if err := s.Run(context.Background()); err == nil {
		t.Fatal("Run without a source should fail")
	}
}
