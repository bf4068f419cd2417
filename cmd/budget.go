package cmd

import (
	"fmt"
	"time"

	"github.com/theirongolddev/tripspend/internal/cli"
	"github.com/theirongolddev/tripspend/internal/pipeline"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var budgetCmd = &cobra.Command{
	Use:   "budget",
	Short: "Budget status and forecast per trip",
	RunE:  runBudget,
}

func init() {
	rootCmd.AddCommand(budgetCmd)
}

func runBudget(_ *cobra.Command, _ []string) error {
	snap, err := loadSnapshot()
	if err != nil {
		return err
	}
	now := time.Now()

	_, selected := reconcileSelected(snap)
	if selected != "" {
		st, ok := pipeline.ComputeBudgetStatus(snap.Expenses, snap.Trips.Trips, selected, snap.Budget(selected), now)
		if !ok {
			return fmt.Errorf("trip %s not found", selected)
		}
		fmt.Println()
		fmt.Println(cli.RenderTitle("BUDGET  " + tripLabel(snap, selected)))
		fmt.Println()
		if st.TotalBudget <= 0 {
			fmt.Printf("  No budget set. Spent so far: %s\n", cli.FormatAmount(st.ActualSpent))
			return nil
		}
		fmt.Print(cli.RenderBudget("Status", st))
		return nil
	}

	statuses := pipeline.AllBudgetStatuses(snap, now)
	if len(statuses) == 0 {
		fmt.Println("\n  No trips found.")
		return nil
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle("BUDGETS"))
	fmt.Println()

	rows := make([][]string, 0, len(statuses))
	for _, st := range statuses {
		label := cli.Truncate(tripLabel(snap, st.TripID), 28)
		if st.TotalBudget <= 0 {
			rows = append(rows, []string{label, "-", cli.FormatAmount(st.ActualSpent), "-", "-", "", "", ""})
			continue
		}
		tier := lipgloss.NewStyle().Foreground(cli.TierColor(st.WarningTier)).Render(st.WarningTier.String())
		rows = append(rows, []string{
			label,
			cli.FormatAmount(st.TotalBudget),
			cli.FormatAmount(st.ActualSpent),
			cli.FormatAmount(st.Remaining),
			cli.FormatPercent(st.PercentageUsed),
			tier,
			fmt.Sprintf("%d/%d", st.DaysRemaining, st.DaysTotal),
			cli.FormatAmount(st.ProjectedSpend),
		})
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Trip", "Budget", "Spent", "Remaining", "Used", "Status", "Days Left", "Projected"},
		Rows:    rows,
	}))
	return nil
}
