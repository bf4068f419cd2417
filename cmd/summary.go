package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/theirongolddev/tripspend/internal/cli"
	"github.com/theirongolddev/tripspend/internal/model"
	"github.com/theirongolddev/tripspend/internal/pipeline"

	"github.com/spf13/cobra"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Spending summary with budget status",
	RunE:  runSummary,
}

func init() {
	rootCmd.AddCommand(summaryCmd)
}

func runSummary(_ *cobra.Command, _ []string) error {
	snap, err := loadSnapshot()
	if err != nil {
		return err
	}

	if len(snap.Expenses) == 0 {
		fmt.Println("\n  No expenses found.")
		fmt.Printf("  Add JSONL exports to %s or run `tripspend sync`.\n", flagDataDir)
		return nil
	}

	res, selected := reconcileSelected(snap)
	sum := pipeline.Summarize(res)

	fmt.Println()
	fmt.Println(cli.RenderTitle("TRIP SPENDING  " + scopeTitle(snap, selected)))
	fmt.Println()

	matched := cli.FormatAmount(sum.MatchedAmount)
	if sum.TotalAmount > 0 {
		matched += fmt.Sprintf("  (%s)", cli.FormatPercent(sum.MatchedAmount/sum.TotalAmount*100))
	}

	rows := [][]string{
		{"Expenses", cli.FormatNumber(int64(sum.Expenses))},
		{"Total Spent", cli.FormatAmount(sum.TotalAmount)},
		{"On Trips", matched},
		{model.OtherExpensesLabel, cli.FormatAmount(sum.OtherAmount)},
		{"---"},
		{"Active Days", cli.FormatNumber(int64(sum.ActiveDays))},
		{"Per Day", cli.FormatAmount(sum.AmountPerDay) + "/day"},
		{"---"},
		{"Matched by ID", cli.FormatNumber(int64(sum.ByBasis[model.MatchByID]))},
		{"Matched by Label", cli.FormatNumber(int64(sum.ByBasis[model.MatchByDescription]))},
		{"Matched by Dates", cli.FormatNumber(int64(sum.ByBasis[model.MatchByDateRange]))},
		{"---"},
		{"Trips", fmt.Sprintf("%d (%s)", len(snap.Trips.Trips), snap.Trips.Status)},
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Metric", "Value"},
		Rows:    rows,
	}))

	if selected != "" {
		if st, ok := pipeline.ComputeBudgetStatus(snap.Expenses, snap.Trips.Trips, selected, snap.Budget(selected), time.Now()); ok && st.TotalBudget > 0 {
			fmt.Println()
			fmt.Print(cli.RenderBudget("Budget", st))
		}
	}

	printOrphanWarning(res.Orphans.Count(), res.Orphans.MissingTripIDs())
	return nil
}

func printOrphanWarning(count int, missing []string) {
	if count == 0 {
		return
	}
	fmt.Println()
	msg := fmt.Sprintf("%d expenses reference trips that no longer resolve", count)
	if len(missing) > 0 {
		msg += " (" + strings.Join(missing, ", ") + ")"
	}
	fmt.Printf("  %s\n", cli.RenderWarning(msg))
	fmt.Println(cli.RenderMuted("  Run `tripspend orphans` for details."))
}
