package pipeline

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/theirongolddev/tripspend/internal/backend"
	"github.com/theirongolddev/tripspend/internal/model"
)

func TestDirSource(t *testing.T) {
	dir := seedDataDir(t)
	src := DirSource{
		DataDir:   dir,
		UseCache:  true,
		CachePath: filepath.Join(t.TempDir(), "cache.db"),
	}

	for _, force := range []bool{false, true, false} {
		snap, err := src.Snapshot(context.Background(), force)
		if err != nil {
			t.Fatalf("Snapshot(force=%v): %v", force, err)
		}
		if !snap.Trips.Succeeded() {
			t.Fatalf("Snapshot(force=%v) status = %s", force, snap.Trips.Status)
		}
		if len(snap.Expenses) != 2 || len(snap.Trips.Trips) != 2 {
			t.Fatalf("Snapshot(force=%v) = %d expenses / %d trips", force, len(snap.Expenses), len(snap.Trips.Trips))
		}
	}
}

func TestDirSource_StaleAfterUnreadableFile(t *testing.T) {
	dir := seedDataDir(t)
	src := DirSource{
		DataDir:   dir,
		UseCache:  true,
		CachePath: filepath.Join(t.TempDir(), "cache.db"),
	}
	if _, err := src.Snapshot(context.Background(), false); err != nil {
		t.Fatal(err)
	}

	// A dangling symlink is discovered but cannot be opened.
	if err := os.Symlink(filepath.Join(dir, "missing"), filepath.Join(dir, "03-broken.jsonl")); err != nil {
		t.Fatal(err)
	}
	snap, err := src.Snapshot(context.Background(), true)
	if err != nil {
		t.Fatal(err)
	}
	if snap.Trips.Status != model.FetchStaleCache {
		t.Fatalf("status = %s, want staleCache", snap.Trips.Status)
	}
}

func TestDirSource_NoCache(t *testing.T) {
	src := DirSource{DataDir: seedDataDir(t)}
	var calls atomic.Int32
	src.Progress = func(_, _ int) { calls.Add(1) }

	snap, err := src.Snapshot(context.Background(), false)
	if err != nil {
		t.Fatal(err)
	}
	if !snap.Trips.Succeeded() {
		t.Fatalf("status = %s", snap.Trips.Status)
	}
	if calls.Load() == 0 {
		t.Error("progress callback never called")
	}
}

func TestBackendSource_FallsBackToLastTrips(t *testing.T) {
	var failTrips atomic.Bool
	mux := http.NewServeMux()
	mux.HandleFunc("/trips", func(w http.ResponseWriter, r *http.Request) {
		if failTrips.Load() {
			http.Error(w, "boom", http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(`[{"id":"T1","name":"Tet","destination":"Hanoi","startDate":"2025-01-01","endDate":"2025-01-05"}]`))
	})
	mux.HandleFunc("/expenses", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id":"E1","amount":5,"date":"2025-01-02","tripId":"T1"}]`))
	})
	mux.HandleFunc("/trips/T1/budget-status", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	client, err := backend.NewClient(backend.Options{
		BaseURL:      srv.URL,
		RetryMax:     0,
		RetryWaitMin: time.Millisecond,
		RetryWaitMax: time.Millisecond,
	})
	if err != nil {
		t.Fatal(err)
	}
	src := &BackendSource{Client: client}

	snap, err := src.Snapshot(context.Background(), false)
	if err != nil {
		t.Fatal(err)
	}
	if !snap.Trips.Succeeded() {
		t.Fatalf("first fetch status = %s", snap.Trips.Status)
	}

	failTrips.Store(true)
	snap, err = src.Snapshot(context.Background(), true)
	if err != nil {
		t.Fatal(err)
	}
	if snap.Trips.Status != model.FetchStaleCache {
		t.Fatalf("status = %s, want staleCache", snap.Trips.Status)
	}
	if len(snap.Trips.Trips) != 1 || snap.Trips.Trips[0].ID != "T1" {
		t.Errorf("stale trips = %v", tripIDs(snap.Trips.Trips))
	}
}
