package cmd

import (
	"fmt"
	"sort"
	"time"

	"github.com/theirongolddev/tripspend/internal/cli"
	"github.com/theirongolddev/tripspend/internal/model"
	"github.com/theirongolddev/tripspend/internal/pipeline"
	"github.com/theirongolddev/tripspend/internal/reconcile"

	"github.com/spf13/cobra"
)

var tripsCmd = &cobra.Command{
	Use:   "trips",
	Short: "Trip list with spend",
	RunE:  runTrips,
}

func init() {
	rootCmd.AddCommand(tripsCmd)
}

func runTrips(_ *cobra.Command, _ []string) error {
	snap, err := loadSnapshot()
	if err != nil {
		return err
	}
	if len(snap.Trips.Trips) == 0 {
		fmt.Println("\n  No trips found.")
		return nil
	}

	spent := make(map[string]float64)
	for _, st := range pipeline.AllBudgetStatuses(snap, time.Now()) {
		spent[st.TripID] = st.ActualSpent
	}
	counts := make(map[string]int)
	for _, g := range reconcile.ReconcileSnapshot(snap, "").Groups {
		if g.TripID != "" {
			counts[g.TripID] = len(g.Expenses)
		}
	}

	trips := make([]model.Trip, len(snap.Trips.Trips))
	copy(trips, snap.Trips.Trips)
	sort.SliceStable(trips, func(i, j int) bool {
		return trips[i].StartDate.After(trips[j].StartDate)
	})

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("TRIPS  %d (%s)", len(trips), snap.Trips.Status)))
	fmt.Println()

	rows := make([][]string, 0, len(trips))
	for _, t := range trips {
		budget := "-"
		if b := t.DeclaredBudget(); b > 0 {
			budget = cli.FormatAmount(b)
		}
		if rec := snap.Budget(t.ID); rec != nil && rec.TotalBudget > 0 {
			budget = cli.FormatAmount(rec.TotalBudget)
		}
		marker := ""
		if t.ID == flagTrip {
			marker = "*"
		}
		rows = append(rows, []string{
			marker + t.ID,
			cli.Truncate(t.Label(), 28),
			cli.FormatDateRange(t.StartDate, t.EndDate),
			cli.FormatDays(t.Days()),
			budget,
			cli.FormatAmount(spent[t.ID]),
			cli.FormatNumber(int64(counts[t.ID])),
		})
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"ID", "Trip", "Dates", "Length", "Budget", "Spent", "Expenses"},
		Rows:    rows,
	}))
	return nil
}
