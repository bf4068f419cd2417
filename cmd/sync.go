package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/theirongolddev/tripspend/internal/cli"
	"github.com/theirongolddev/tripspend/internal/config"
	"github.com/theirongolddev/tripspend/internal/model"
	"github.com/theirongolddev/tripspend/internal/source"

	"github.com/spf13/cobra"
)

// syncFileName is the data file owned by sync. Other files in the data
// directory are never touched.
const syncFileName = "backend.jsonl"

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Fetch trips, expenses and budgets from the backend into the data directory",
	RunE:  runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)
}

func runSync(_ *cobra.Command, _ []string) error {
	client, err := newBackendClient()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if !flagQuiet {
		fmt.Fprintf(os.Stderr, "  Fetching from %s...\n", config.GetBaseURL(appCfg))
	}
	snap, err := client.FetchSnapshot(ctx, nil)
	if err != nil {
		return fmt.Errorf("sync: %w", backendError(err))
	}
	if !snap.Trips.Succeeded() {
		// Writing a partial trip list would tombstone every trip.
		return fmt.Errorf("sync: trip fetch failed, data directory left unchanged: %w", snap.Trips.Err)
	}

	path := filepath.Join(flagDataDir, syncFileName)
	deleted := removedTrips(path, snap.Trips.Trips)

	budgets := make([]model.BudgetRecord, 0, len(snap.Budgets))
	for _, b := range snap.Budgets {
		budgets = append(budgets, b)
	}
	sort.Slice(budgets, func(i, j int) bool { return budgets[i].TripID < budgets[j].TripID })

	if err := source.WriteFile(path, snap.Trips.Trips, snap.Expenses, budgets, deleted); err != nil {
		return fmt.Errorf("sync: %w", err)
	}

	fmt.Println()
	fmt.Printf("  Wrote %d trips, %s expenses, %d budgets to %s\n",
		len(snap.Trips.Trips), cli.FormatNumber(int64(len(snap.Expenses))), len(budgets), path)
	if len(deleted) > 0 {
		fmt.Printf("  %s\n", cli.RenderWarning(fmt.Sprintf("%d trips were deleted upstream", len(deleted))))
	}
	return nil
}

// removedTrips returns ids present in the previous sync file but missing from
// trips. They are kept as tombstones so other files that reference them
// surface as orphans.
func removedTrips(path string, trips []model.Trip) []string {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	prev := source.ParseFile(source.DiscoveredFile{Path: path})
	if prev.Err != nil {
		return nil
	}

	current := make(map[string]struct{}, len(trips))
	for _, t := range trips {
		current[t.ID] = struct{}{}
	}
	var out []string
	seen := make(map[string]struct{})
	for _, id := range append(tripIDs(prev.Trips), prev.Deleted...) {
		if _, ok := current[id]; ok {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func tripIDs(trips []model.Trip) []string {
	ids := make([]string, len(trips))
	for i, t := range trips {
		ids[i] = t.ID
	}
	return ids
}
