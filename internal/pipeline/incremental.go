package pipeline

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/theirongolddev/tripspend/internal/logging"
	"github.com/theirongolddev/tripspend/internal/source"
	"github.com/theirongolddev/tripspend/internal/store"

	"github.com/sirupsen/logrus"
)

// CachedLoadResult extends LoadResult with cache metadata.
type CachedLoadResult struct {
	LoadResult
	CacheHits int
	Reparsed  int
	Evicted   int
}

// LoadWithCache discovers files, diffs them against the cache, parses only
// changed files and merges everything. Tracked files that disappeared from
// disk are evicted from the cache.
func LoadWithCache(dataDir string, cache *store.Cache, progressFn ProgressFunc) (*CachedLoadResult, error) {
	files, err := source.ScanDir(dataDir)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", dataDir, err)
	}

	tracked, err := cache.GetTrackedFiles()
	if err != nil {
		return nil, fmt.Errorf("reading cache: %w", err)
	}

	result := &CachedLoadResult{}
	onDisk := make(map[string]struct{}, len(files))

	// Diff: partition into changed and unchanged
	var toReparse []source.DiscoveredFile
	var unchanged []string
	stats := make(map[string]os.FileInfo, len(files))

	for _, f := range files {
		onDisk[f.Path] = struct{}{}
		info, err := os.Stat(f.Path)
		if err != nil {
			toReparse = append(toReparse, f)
			continue
		}
		stats[f.Path] = info

		cached, ok := tracked[f.Path]
		if ok && cached.MtimeNs == info.ModTime().UnixNano() && cached.SizeBytes == info.Size() {
			unchanged = append(unchanged, f.Path)
		} else {
			toReparse = append(toReparse, f)
		}
	}

	for path := range tracked {
		if _, ok := onDisk[path]; ok {
			continue
		}
		if err := cache.DeleteFile(path); err != nil {
			logging.Log.WithError(err).WithField("file", path).Warn("evicting vanished file from cache")
			continue
		}
		result.Evicted++
	}

	result.CacheHits = len(unchanged)
	result.Reparsed = len(toReparse)

	results := make([]source.ParseResult, 0, len(files))

	if len(unchanged) > 0 {
		cached, err := cache.LoadAll()
		if err != nil {
			return nil, fmt.Errorf("loading cached records: %w", err)
		}
		for _, p := range unchanged {
			results = append(results, cached[p])
		}
	}

	if len(toReparse) > 0 {
		parsed := parseFiles(toReparse, func(n int) {
			if progressFn != nil {
				progressFn(n+result.CacheHits, len(files))
			}
		})

		for i, pr := range parsed {
			results = append(results, pr)
			if pr.Err != nil {
				continue
			}
			info, ok := stats[toReparse[i].Path]
			if !ok {
				continue
			}
			if err := cache.SaveFile(pr, info.ModTime().UnixNano(), info.Size()); err != nil {
				logging.Log.WithError(err).WithField("file", pr.File).Warn("caching parsed file")
			}
		}
	}

	result.LoadResult = *Merge(results)
	result.TotalFiles = len(files)
	logging.Log.WithFields(logrus.Fields{
		"files":    len(files),
		"cached":   result.CacheHits,
		"reparsed": result.Reparsed,
		"evicted":  result.Evicted,
	}).Debug("loaded data dir")
	return result, nil
}

// CacheDir returns the platform-appropriate cache directory.
func CacheDir() string {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "tripspend")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".cache", "tripspend")
}

// CachePath returns the full path to the cache database.
func CachePath() string {
	return filepath.Join(CacheDir(), "cache.db")
}
