// Package daemon provides the long-running background reconciliation service.
package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/theirongolddev/tripspend/internal/logging"
	"github.com/theirongolddev/tripspend/internal/pipeline"
	"github.com/theirongolddev/tripspend/internal/reconcile"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Event types.
const (
	EventSnapshot      = "snapshot"
	EventSpendDelta    = "spend_delta"
	EventCleanupNeeded = "cleanup_needed"
)

// Config controls the daemon runtime behavior.
type Config struct {
	DataDir        string // reported in status only
	SelectedTripID string
	Source         pipeline.Source
	Interval       time.Duration
	Addr           string
	EventsBuffer   int
}

// Snapshot is a compact reconciliation state for status/event payloads.
type Snapshot struct {
	At                    time.Time `json:"at"`
	RunID                 string    `json:"run_id"`
	FetchStatus           string    `json:"fetch_status"`
	Authoritative         bool      `json:"authoritative"`
	Trips                 int       `json:"trips"`
	Expenses              int       `json:"expenses"`
	Groups                int       `json:"groups"`
	TotalAmount           float64   `json:"total_amount"`
	MatchedAmount         float64   `json:"matched_amount"`
	OtherAmount           float64   `json:"other_amount"`
	OrphanedByID          int       `json:"orphaned_by_id"`
	OrphanedByDescription int       `json:"orphaned_by_description"`
	CleanupNeeded         bool      `json:"cleanup_needed"`
	SelectedTripID        string    `json:"selected_trip_id,omitempty"`
}

// Delta captures snapshot deltas between polls.
type Delta struct {
	Expenses      int     `json:"expenses"`
	TotalAmount   float64 `json:"total_amount"`
	MatchedAmount float64 `json:"matched_amount"`
	OrphanedByID  int     `json:"orphaned_by_id"`
}

func (d Delta) isZero() bool {
	return d.Expenses == 0 &&
		d.TotalAmount == 0 &&
		d.MatchedAmount == 0 &&
		d.OrphanedByID == 0
}

// Event is emitted whenever the reconciled state changes.
type Event struct {
	ID        int64     `json:"id"`
	Type      string    `json:"type"`
	RunID     string    `json:"run_id"`
	Timestamp time.Time `json:"timestamp"`
	Snapshot  Snapshot  `json:"snapshot"`
	Delta     Delta     `json:"delta"`

	// Set on cleanup_needed events.
	MissingTripIDs  []string `json:"missing_trip_ids,omitempty"`
	SelectionReset  bool     `json:"selection_reset,omitempty"`
	SuggestedTripID string   `json:"suggested_trip_id,omitempty"`
}

// Status is served at /v1/status.
type Status struct {
	StartedAt       time.Time   `json:"started_at"`
	LastPollAt      time.Time   `json:"last_poll_at"`
	PollIntervalSec int         `json:"poll_interval_sec"`
	PollCount       int64       `json:"poll_count"`
	DataDir         string      `json:"data_dir,omitempty"`
	SelectedTripID  string      `json:"selected_trip_id,omitempty"`
	Summary         Snapshot    `json:"summary"`
	Budget          *BudgetView `json:"budget,omitempty"`
	LastError       string      `json:"last_error,omitempty"`
	EventCount      int         `json:"event_count"`
	SubscriberCount int         `json:"subscriber_count"`
}

// Service provides the daemon runtime and HTTP API.
type Service struct {
	cfg Config

	mu          sync.RWMutex
	startedAt   time.Time
	lastPollAt  time.Time
	pollCount   int64
	lastError   string
	hasSnapshot bool
	snapshot    Snapshot
	groups      []GroupView
	budget      *BudgetView
	selected    string
	forceReload bool
	orphanKey   string
	nextEventID int64
	events      []Event

	nextSubID int
	subs      map[int]chan Event
}

// New returns a new daemon service with the provided config.
func New(cfg Config) *Service {
	if cfg.Interval < 2*time.Second {
		cfg.Interval = 10 * time.Second
	}
	if cfg.EventsBuffer < 1 {
		cfg.EventsBuffer = 200
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8787"
	}

	return &Service{
		cfg:       cfg,
		startedAt: time.Now(),
		selected:  cfg.SelectedTripID,
		subs:      make(map[int]chan Event),
	}
}

// Handler returns the HTTP API.
func (s *Service) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/v1/status", s.handleStatus)
	mux.HandleFunc("/v1/groups", s.handleGroups)
	mux.HandleFunc("/v1/budget", s.handleBudget)
	mux.HandleFunc("/v1/events", s.handleEvents)
	mux.HandleFunc("/v1/stream", s.handleStream)
	return mux
}

// Run starts HTTP endpoints and polling until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	if s.cfg.Source == nil {
		return errors.New("daemon: no snapshot source configured")
	}

	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Seed initial snapshot so status is useful immediately.
	s.pollOnce(ctx)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		case <-ticker.C:
			s.pollOnce(ctx)
		case err := <-errCh:
			return fmt.Errorf("daemon http server: %w", err)
		}
	}
}

// pollOnce takes one snapshot and reconciles it. Everything published for a
// poll is computed from that single snapshot.
func (s *Service) pollOnce(ctx context.Context) {
	runID := uuid.NewString()
	log := logging.Log.WithField("run", runID)

	s.mu.Lock()
	force := s.forceReload
	s.forceReload = false
	selected := s.selected
	s.mu.Unlock()

	snap, err := s.cfg.Source.Snapshot(ctx, force)
	if err != nil {
		s.mu.Lock()
		s.lastError = err.Error()
		s.lastPollAt = time.Now()
		s.pollCount++
		s.mu.Unlock()
		log.WithError(err).Warn("poll failed")
		return
	}

	now := time.Now()
	res := reconcile.ReconcileSnapshot(snap, selected)
	sig := res.Signal
	cleanupKey := res.CleanupKey()
	if sig.SelectionReset {
		log.WithFields(logrus.Fields{"from": selected, "to": sig.SuggestedTripID}).Info("selected trip is gone")
		selected = sig.SuggestedTripID
		res = reconcile.ReconcileSnapshot(snap, selected)
	}

	var budget *BudgetView
	if st, ok := pipeline.ComputeBudgetStatus(snap.Expenses, snap.Trips.Trips, selected, snap.Budget(selected), now); ok {
		budget = budgetView(st)
	}

	sum := pipeline.Summarize(res)
	curr := Snapshot{
		At:                    now,
		RunID:                 runID,
		FetchStatus:           snap.Trips.Status.String(),
		Authoritative:         res.Authoritative,
		Trips:                 len(snap.Trips.Trips),
		Expenses:              sum.Expenses,
		Groups:                len(res.Groups),
		TotalAmount:           sum.TotalAmount,
		MatchedAmount:         sum.MatchedAmount,
		OtherAmount:           sum.OtherAmount,
		OrphanedByID:          sum.OrphanedByID,
		OrphanedByDescription: sum.OrphanedByDescription,
		CleanupNeeded:         sig.CleanupNeeded,
		SelectedTripID:        selected,
	}

	var toPublish []Event

	s.mu.Lock()
	prev := s.snapshot
	prevExists := s.hasSnapshot

	s.hasSnapshot = true
	s.snapshot = curr
	s.groups = groupViews(res.Groups)
	s.budget = budget
	s.selected = selected
	s.lastPollAt = now
	s.pollCount++
	s.lastError = ""

	if !prevExists {
		toPublish = append(toPublish, s.newEventLocked(EventSnapshot, runID, curr, Delta{}))
	} else if delta := diffSnapshots(prev, curr); !delta.isZero() {
		toPublish = append(toPublish, s.newEventLocked(EventSpendDelta, runID, curr, delta))
	}

	// Only announce cleanup when the orphan set changes, so a lingering
	// orphan does not force a reload on every tick.
	if sig.CleanupNeeded {
		if cleanupKey != s.orphanKey {
			s.orphanKey = cleanupKey
			s.forceReload = true
			ev := s.newEventLocked(EventCleanupNeeded, runID, curr, Delta{})
			ev.MissingTripIDs = res.Orphans.MissingTripIDs()
			ev.SelectionReset = sig.SelectionReset
			ev.SuggestedTripID = sig.SuggestedTripID
			toPublish = append(toPublish, ev)
		}
	} else if res.Authoritative {
		s.orphanKey = ""
	}
	s.mu.Unlock()

	for _, ev := range toPublish {
		s.publishEvent(ev)
	}
	log.WithField("status", curr.FetchStatus).Debug("poll complete")
}

func (s *Service) newEventLocked(typ, runID string, snap Snapshot, delta Delta) Event {
	s.nextEventID++
	return Event{
		ID:        s.nextEventID,
		Type:      typ,
		RunID:     runID,
		Timestamp: snap.At,
		Snapshot:  snap,
		Delta:     delta,
	}
}

func diffSnapshots(prev, curr Snapshot) Delta {
	return Delta{
		Expenses:      curr.Expenses - prev.Expenses,
		TotalAmount:   curr.TotalAmount - prev.TotalAmount,
		MatchedAmount: curr.MatchedAmount - prev.MatchedAmount,
		OrphanedByID:  curr.OrphanedByID - prev.OrphanedByID,
	}
}

func (s *Service) publishEvent(ev Event) {
	s.mu.Lock()
	s.events = append(s.events, ev)
	if len(s.events) > s.cfg.EventsBuffer {
		s.events = s.events[len(s.events)-s.cfg.EventsBuffer:]
	}

	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	s.mu.Unlock()
}

func (s *Service) snapshotStatus() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Status{
		StartedAt:       s.startedAt,
		LastPollAt:      s.lastPollAt,
		PollIntervalSec: int(s.cfg.Interval.Seconds()),
		PollCount:       s.pollCount,
		DataDir:         s.cfg.DataDir,
		SelectedTripID:  s.selected,
		Summary:         s.snapshot,
		Budget:          s.budget,
		LastError:       s.lastError,
		EventCount:      len(s.events),
		SubscriberCount: len(s.subs),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Service) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.snapshotStatus())
}

func (s *Service) handleGroups(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	groups := make([]GroupView, len(s.groups))
	copy(groups, s.groups)
	s.mu.RUnlock()

	writeJSON(w, http.StatusOK, groups)
}

func (s *Service) handleBudget(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	budget := s.budget
	s.mu.RUnlock()

	if budget == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no trip selected"})
		return
	}
	writeJSON(w, http.StatusOK, budget)
}

func (s *Service) handleEvents(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	events := make([]Event, len(s.events))
	copy(events, s.events)
	s.mu.RUnlock()

	writeJSON(w, http.StatusOK, events)
}

func (s *Service) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := make(chan Event, 16)
	id := s.addSubscriber(ch)
	defer s.removeSubscriber(id)

	// Send current snapshot immediately.
	summary := s.snapshotStatus().Summary
	writeSSE(w, Event{
		Type:      EventSnapshot,
		RunID:     summary.RunID,
		Timestamp: time.Now(),
		Snapshot:  summary,
	})
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-ch:
			writeSSE(w, ev)
			flusher.Flush()
		}
	}
}

func writeSSE(w http.ResponseWriter, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	_, _ = fmt.Fprintf(w, "event: %s\n", ev.Type)
	_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
}

func (s *Service) addSubscriber(ch chan Event) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSubID++
	id := s.nextSubID
	s.subs[id] = ch
	return id
}

func (s *Service) removeSubscriber(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, id)
}
