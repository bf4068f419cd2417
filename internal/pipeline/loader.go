package pipeline

import (
	"fmt"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/theirongolddev/tripspend/internal/model"
	"github.com/theirongolddev/tripspend/internal/source"
)

// LoadResult holds the merged output of the data loading pipeline.
type LoadResult struct {
	Trips    []model.Trip
	Expenses []model.Expense
	Budgets  []model.BudgetRecord
	Deleted  []string // trip ids whose latest record is a tombstone

	TotalFiles  int
	ParsedFiles int
	ParseErrors int
	FileErrors  int
}

// Complete reports whether every discovered file was read.
func (r *LoadResult) Complete() bool {
	return r.FileErrors == 0
}

// ProgressFunc is called during loading to report progress.
// current is the number of files processed so far, total is the total count.
type ProgressFunc func(current, total int)

// Load discovers and parses all snapshot files under dataDir.
// It uses a bounded worker pool for parallel parsing.
func Load(dataDir string, progressFn ProgressFunc) (*LoadResult, error) {
	files, err := source.ScanDir(dataDir)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", dataDir, err)
	}
	if len(files) == 0 {
		return &LoadResult{}, nil
	}

	results := parseFiles(files, func(n int) {
		if progressFn != nil {
			progressFn(n, len(files))
		}
	})

	out := Merge(results)
	out.TotalFiles = len(files)
	return out, nil
}

// parseFiles parses files in parallel. Results keep the input order.
func parseFiles(files []source.DiscoveredFile, onDone func(n int)) []source.ParseResult {
	numWorkers := runtime.GOMAXPROCS(0)
	if numWorkers < 1 {
		numWorkers = 4
	}
	if numWorkers > len(files) {
		numWorkers = len(files)
	}

	work := make(chan int, len(files))
	results := make([]source.ParseResult, len(files))
	var wg sync.WaitGroup
	var processed atomic.Int64

	for i := range files {
		work <- i
	}
	close(work)

	wg.Add(numWorkers)
	for w := 0; w < numWorkers; w++ {
		go func() {
			defer wg.Done()
			for idx := range work {
				results[idx] = source.ParseFile(files[idx])
				onDone(int(processed.Add(1)))
			}
		}()
	}
	wg.Wait()

	return results
}

// Merge combines per-file results in file path order. Later files override
// earlier ones for the same id, and a tombstone removes a trip defined in an
// earlier file. Failed files only count toward FileErrors.
func Merge(results []source.ParseResult) *LoadResult {
	sorted := make([]source.ParseResult, len(results))
	copy(sorted, results)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].File < sorted[j].File })

	var recs source.Records
	out := &LoadResult{}

	for _, pr := range sorted {
		if pr.Err != nil {
			out.FileErrors++
			continue
		}
		out.ParsedFiles++
		out.ParseErrors += pr.ParseErrors

		// Within one file live trips and tombstones are disjoint.
		for _, id := range pr.Deleted {
			recs.DeleteTrip(id)
		}
		for _, t := range pr.Trips {
			recs.AddTrip(t)
		}
		for _, e := range pr.Expenses {
			recs.AddExpense(e)
		}
		for _, b := range pr.Budgets {
			recs.AddBudget(b)
		}
	}

	out.Trips = recs.Trips()
	out.Expenses = recs.Expenses()
	out.Budgets = recs.Budgets()
	out.Deleted = recs.Deleted()
	return out
}
