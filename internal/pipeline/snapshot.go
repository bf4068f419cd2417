package pipeline

import (
	"errors"
	"fmt"
	"time"

	"github.com/theirongolddev/tripspend/internal/logging"
	"github.com/theirongolddev/tripspend/internal/model"
	"github.com/theirongolddev/tripspend/internal/store"
)

// ErrIncompleteLoad marks a load where at least one file could not be read.
var ErrIncompleteLoad = errors.New("incomplete load")

// BuildSnapshot turns a load outcome into one immutable snapshot.
//
// The trip set is only marked FetchSuccess when the load finished and read
// every file; that trip set is then remembered in cache as the last good one.
// Otherwise the last good trip set is used with FetchStaleCache, or, when
// there is none, whatever was loaded is kept with FetchFailure. cache may be nil.
func BuildSnapshot(load *LoadResult, loadErr error, cache *store.Cache, now time.Time) model.Snapshot {
	snap := model.Snapshot{
		Budgets: make(map[string]model.BudgetRecord),
		TakenAt: now,
	}
	if load == nil {
		load = &LoadResult{}
	}
	snap.Expenses = load.Expenses
	for _, b := range load.Budgets {
		snap.Budgets[b.TripID] = b
	}

	if loadErr == nil && !load.Complete() {
		loadErr = fmt.Errorf("%w: %d of %d files failed", ErrIncompleteLoad, load.FileErrors, load.TotalFiles)
	}
	if loadErr == nil {
		snap.Trips = model.TripFetch{Status: model.FetchSuccess, Trips: load.Trips}
		if cache != nil {
			if err := cache.SaveLastGoodTrips(load.Trips, now); err != nil {
				logging.Log.WithError(err).Warn("saving last good trip set")
			}
		}
		return snap
	}

	snap.Trips = model.TripFetch{Status: model.FetchFailure, Trips: load.Trips, Err: loadErr}
	if cache == nil {
		return snap
	}

	trips, savedAt, ok, err := cache.LoadLastGoodTrips()
	if err != nil {
		logging.Log.WithError(err).Warn("reading last good trip set")
		return snap
	}
	if ok {
		logging.Log.WithError(loadErr).WithField("saved_at", savedAt).Info("using stale trip set")
		snap.Trips = model.TripFetch{Status: model.FetchStaleCache, Trips: trips, Err: loadErr}
	}
	return snap
}

// LoadSnapshot loads dataDir, through cache when it is non-nil, and builds a
// snapshot from the outcome. The load metadata is returned for reporting and
// is never nil.
func LoadSnapshot(dataDir string, cache *store.Cache, progressFn ProgressFunc, now time.Time) (model.Snapshot, *CachedLoadResult) {
	var (
		res *CachedLoadResult
		err error
	)
	if cache != nil {
		res, err = LoadWithCache(dataDir, cache, progressFn)
	} else {
		var lr *LoadResult
		lr, err = Load(dataDir, progressFn)
		if lr != nil {
			res = &CachedLoadResult{LoadResult: *lr, Reparsed: lr.TotalFiles}
		}
	}
	if res == nil {
		res = &CachedLoadResult{}
	}

	var load *LoadResult
	if err == nil {
		load = &res.LoadResult
	}
	return BuildSnapshot(load, err, cache, now), res
}
