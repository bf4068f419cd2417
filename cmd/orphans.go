package cmd

import (
	"fmt"

	"github.com/theirongolddev/tripspend/internal/cli"
	"github.com/theirongolddev/tripspend/internal/model"
	"github.com/theirongolddev/tripspend/internal/reconcile"

	"github.com/spf13/cobra"
)

var orphansCmd = &cobra.Command{
	Use:   "orphans",
	Short: "Expenses that point at deleted or unknown trips",
	RunE:  runOrphans,
}

func init() {
	rootCmd.AddCommand(orphansCmd)
}

func runOrphans(_ *cobra.Command, _ []string) error {
	snap, err := loadSnapshot()
	if err != nil {
		return err
	}

	res := reconcile.ReconcileSnapshot(snap, flagTrip)
	o := res.Orphans

	fmt.Println()
	fmt.Println(cli.RenderTitle("ORPHANED EXPENSES"))
	fmt.Println()

	if !o.Any() {
		fmt.Println("  No orphaned expenses.")
		if !res.Authoritative {
			fmt.Println(cli.RenderMuted("  Trip list is " + snap.Trips.Status.String() + "; this may change after a successful reload."))
		}
		return nil
	}

	if len(o.ByID) > 0 {
		fmt.Print(cli.RenderTable(cli.Table{
			Title:   "Deleted trip",
			Headers: []string{"Expense", "Date", "Description", "Amount", "Trip ID"},
			Rows:    orphanRows(o.ByID, func(e model.Expense) string { return e.TripID }),
		}))
		fmt.Println()
	}

	if len(o.ByDescription) > 0 {
		fmt.Print(cli.RenderTable(cli.Table{
			Title:   "Unknown trip label",
			Headers: []string{"Expense", "Date", "Description", "Amount", "Label"},
			Rows: orphanRows(o.ByDescription, func(e model.Expense) string {
				if l := reconcile.ParseDescription(e.Description).TripLabel; l != nil {
					return *l
				}
				return ""
			}),
		}))
		fmt.Println()
	}

	sig := res.Signal
	switch {
	case !res.Authoritative:
		fmt.Printf("  %s\n", cli.RenderWarning("Trip list is "+snap.Trips.Status.String()+"; cleanup waits for a successful reload."))
	case sig.CleanupNeeded:
		fmt.Printf("  %s\n", cli.RenderWarning("Cleanup needed: reassign or delete these expenses."))
	}
	if sig.SelectionReset {
		fmt.Printf("  Selected trip %s is gone; suggested: %s\n", flagTrip, orDash(sig.SuggestedTripID))
	}
	return nil
}

func orphanRows(expenses []model.Expense, ref func(model.Expense) string) [][]string {
	rows := make([][]string, 0, len(expenses))
	for _, e := range expenses {
		rows = append(rows, []string{
			e.ID,
			cli.FormatDate(e.OccurredAt),
			cli.Truncate(e.Description, 32),
			cli.FormatAmount(e.Amount),
			ref(e),
		})
	}
	return rows
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
