package cmd

import (
	"fmt"

	"github.com/theirongolddev/tripspend/internal/cli"
	"github.com/theirongolddev/tripspend/internal/reconcile"

	"github.com/spf13/cobra"
)

var groupsCmd = &cobra.Command{
	Use:   "groups",
	Short: "Expenses grouped by trip",
	RunE:  runGroups,
}

var groupsItems bool

func init() {
	groupsCmd.Flags().BoolVarP(&groupsItems, "items", "i", false, "List the expenses in each group")
	rootCmd.AddCommand(groupsCmd)
}

func runGroups(_ *cobra.Command, _ []string) error {
	snap, err := loadSnapshot()
	if err != nil {
		return err
	}

	res, selected := reconcileSelected(snap)
	if len(res.Groups) == 0 {
		fmt.Println("\n  No expenses to group.")
		return nil
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle("GROUPS  " + scopeTitle(snap, selected)))
	fmt.Println()

	rows := make([][]string, 0, len(res.Groups)+2)
	var total float64
	var count int
	for _, g := range res.Groups {
		amt := g.Total()
		total += amt
		count += len(g.Expenses)
		tripID := g.TripID
		if tripID == "" {
			tripID = "-"
		}
		rows = append(rows, []string{
			cli.Truncate(g.Label, 32),
			tripID,
			cli.FormatNumber(int64(len(g.Expenses))),
			cli.FormatAmount(amt),
		})
	}
	rows = append(rows, []string{"---"})
	rows = append(rows, []string{"Total", "", cli.FormatNumber(int64(count)), cli.FormatAmount(total)})

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Group", "Trip", "Expenses", "Amount"},
		Rows:    rows,
	}))

	if groupsItems {
		for _, g := range res.Groups {
			fmt.Println()
			fmt.Print(cli.RenderTable(cli.Table{
				Title:   g.Label,
				Headers: []string{"Date", "Expense", "Category", "Amount", "Match"},
				Rows:    groupItemRows(g),
			}))
		}
	}

	printOrphanWarning(res.Orphans.Count(), res.Orphans.MissingTripIDs())
	return nil
}

func groupItemRows(g reconcile.Group) [][]string {
	rows := make([][]string, 0, len(g.Expenses))
	for i, e := range g.Expenses {
		rows = append(rows, []string{
			cli.FormatDate(e.OccurredAt),
			cli.Truncate(reconcile.Title(e), 28),
			e.Category.DisplayName(),
			cli.FormatAmount(e.Amount),
			g.Matches[i].Basis.String(),
		})
	}
	return rows
}
