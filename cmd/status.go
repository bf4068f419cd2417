package cmd

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/tripspend/internal/cli"
	"github.com/theirongolddev/tripspend/internal/config"
	"github.com/theirongolddev/tripspend/internal/logging"
	"github.com/theirongolddev/tripspend/internal/pipeline"
	"github.com/theirongolddev/tripspend/internal/reconcile"
	"github.com/theirongolddev/tripspend/internal/store"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show data source health and the reconciliation signal",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(_ *cobra.Command, _ []string) error {
	snap, err := loadSnapshot()
	if err != nil {
		return err
	}
	res := reconcile.ReconcileSnapshot(snap, flagTrip)
	sig := res.Signal

	fmt.Println()
	fmt.Println(cli.RenderTitle("TRIPSPEND STATUS"))
	fmt.Println()

	source := flagDataDir
	if flagRemote {
		source = config.GetBaseURL(appCfg)
	}

	fetch := snap.Trips.Status.String()
	if !snap.Trips.Succeeded() {
		fetch = cli.RenderWarning(fetch)
	}
	rows := [][]string{
		{"Source", source},
		{"Taken At", snap.TakenAt.Local().Format("2006-01-02 15:04:05")},
		{"Trip Fetch", fetch},
		{"Trips", cli.FormatNumber(int64(len(snap.Trips.Trips)))},
		{"Expenses", cli.FormatNumber(int64(len(snap.Expenses)))},
		{"Budget Records", cli.FormatNumber(int64(len(snap.Budgets)))},
	}
	if snap.Trips.Err != nil {
		rows = append(rows, []string{"Fetch Error", cli.Truncate(snap.Trips.Err.Error(), 48)})
	}

	rows = append(rows, []string{"---"})
	rows = append(rows,
		[]string{"Authoritative", yesNo(res.Authoritative)},
		[]string{"Orphaned by ID", cli.FormatNumber(int64(len(res.Orphans.ByID)))},
		[]string{"Orphaned by Label", cli.FormatNumber(int64(len(res.Orphans.ByDescription)))},
	)
	if ids := res.Orphans.MissingTripIDs(); len(ids) > 0 {
		rows = append(rows, []string{"Missing Trips", strings.Join(ids, ", ")})
	}

	cleanup := yesNo(sig.CleanupNeeded)
	if sig.CleanupNeeded {
		cleanup = cli.RenderWarning(cleanup)
	}
	rows = append(rows, []string{"Cleanup Needed", cleanup})
	if flagTrip != "" {
		rows = append(rows, []string{"Selected Trip", flagTrip})
		rows = append(rows, []string{"Selection Reset", yesNo(sig.SelectionReset)})
		if sig.SelectionReset {
			rows = append(rows, []string{"Suggested Trip", orDash(sig.SuggestedTripID)})
		}
	}

	if !flagRemote && !flagNoCache {
		if cache, err := store.Open(pipeline.CachePath()); err != nil {
			logging.Log.WithError(err).Debug("cache unavailable")
		} else {
			defer func() { _ = cache.Close() }()
			if c, err := cache.Counts(); err == nil {
				rows = append(rows, []string{"---"})
				rows = append(rows,
					[]string{"Cache", pipeline.CachePath()},
					[]string{"Cached Files", cli.FormatNumber(int64(c.Files))},
					[]string{"Cached Records", fmt.Sprintf("%d trips, %d expenses, %d budgets", c.Trips, c.Expenses, c.Budgets)},
				)
			}
		}
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Check", "Value"},
		Rows:    rows,
	}))
	return nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
