package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/theirongolddev/tripspend/internal/backend"
	"github.com/theirongolddev/tripspend/internal/logging"
	"github.com/theirongolddev/tripspend/internal/model"
	"github.com/theirongolddev/tripspend/internal/store"
)

// Source produces one snapshot per poll. force asks it to bypass any cache.
type Source interface {
	Snapshot(ctx context.Context, force bool) (model.Snapshot, error)
}

// DirSource loads snapshots from a JSONL data directory.
type DirSource struct {
	DataDir   string
	UseCache  bool
	CachePath string // defaults to CachePath()
	Progress  ProgressFunc
}

// Snapshot loads the data directory. Load failures are folded into the
// snapshot's trip fetch status rather than returned.
func (d DirSource) Snapshot(_ context.Context, force bool) (model.Snapshot, error) {
	var cache *store.Cache
	if d.UseCache {
		path := d.CachePath
		if path == "" {
			path = CachePath()
		}
		c, err := store.Open(path)
		if err != nil {
			logging.Log.WithError(err).Warn("opening cache, loading without it")
		} else {
			defer func() { _ = c.Close() }()
			cache = c
		}
	}

	now := time.Now()
	if force && cache != nil {
		// Reparse everything, but keep the cache for the last good trip set.
		load, err := Load(d.DataDir, d.Progress)
		return BuildSnapshot(load, err, cache, now), nil
	}
	snap, _ := LoadSnapshot(d.DataDir, cache, d.Progress, now)
	return snap, nil
}

// BackendSource fetches snapshots from the REST API. The last successfully
// fetched trip set is kept in memory as the stale fallback.
type BackendSource struct {
	Client *backend.Client

	mu        sync.Mutex
	lastTrips []model.Trip
	hasTrips  bool
}

// Snapshot fetches one snapshot from the backend.
func (b *BackendSource) Snapshot(ctx context.Context, force bool) (model.Snapshot, error) {
	if force {
		b.Client.InvalidateBudgets()
	}
	snap, err := b.Client.FetchSnapshot(ctx, b.fallback)
	if err != nil {
		return snap, err
	}
	if snap.Trips.Succeeded() {
		b.mu.Lock()
		b.lastTrips = snap.Trips.Trips
		b.hasTrips = true
		b.mu.Unlock()
	}
	return snap, nil
}

func (b *BackendSource) fallback() ([]model.Trip, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastTrips, b.hasTrips
}
