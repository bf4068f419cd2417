package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/theirongolddev/tripspend/internal/cli"
	"github.com/theirongolddev/tripspend/internal/model"
	"github.com/theirongolddev/tripspend/internal/pipeline"

	"github.com/spf13/cobra"
)

var expensesCmd = &cobra.Command{
	Use:   "expenses",
	Short: "Expense list with the trip each one matched",
	RunE:  runExpenses,
}

var (
	expensesLimit    int
	expensesCategory string
	expensesSearch   string
)

func init() {
	expensesCmd.Flags().IntVar(&expensesLimit, "limit", 25, "Number of expenses to show (0 for all)")
	expensesCmd.Flags().StringVarP(&expensesCategory, "category", "c", "", "Filter to a category, e.g. lodging")
	expensesCmd.Flags().StringVarP(&expensesSearch, "search", "s", "", "Filter by description (substring match)")
	rootCmd.AddCommand(expensesCmd)
}

type expenseRow struct {
	expense model.Expense
	group   string
	basis   model.MatchBasis
}

func runExpenses(_ *cobra.Command, _ []string) error {
	snap, err := loadSnapshot()
	if err != nil {
		return err
	}

	res, selected := reconcileSelected(snap)

	var list []expenseRow
	for _, g := range res.Groups {
		expenses := g.Expenses
		if expensesCategory != "" {
			expenses = pipeline.FilterByCategory(expenses, model.ParseCategory(expensesCategory))
		}
		expenses = pipeline.FilterByText(expenses, expensesSearch)
		keep := make(map[string]struct{}, len(expenses))
		for _, e := range expenses {
			keep[e.ID] = struct{}{}
		}
		for i, e := range g.Expenses {
			if _, ok := keep[e.ID]; ok {
				list = append(list, expenseRow{expense: e, group: g.Label, basis: g.Matches[i].Basis})
			}
		}
	}

	if len(list) == 0 {
		fmt.Println("\n  No expenses match.")
		return nil
	}

	sort.SliceStable(list, func(i, j int) bool {
		return list[i].expense.OccurredAt.After(list[j].expense.OccurredAt)
	})
	shown := list
	if expensesLimit > 0 && len(shown) > expensesLimit {
		shown = shown[:expensesLimit]
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("EXPENSES  %s (showing %d of %d)", scopeTitle(snap, selected), len(shown), len(list))))
	fmt.Println()

	rows := make([][]string, 0, len(shown))
	for _, r := range shown {
		rows = append(rows, []string{
			cli.FormatDate(r.expense.OccurredAt),
			cli.Truncate(strings.TrimSpace(r.expense.Description), 30),
			r.expense.Category.DisplayName(),
			cli.FormatAmount(r.expense.Amount),
			cli.Truncate(r.group, 22),
			r.basis.String(),
		})
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Date", "Description", "Category", "Amount", "Group", "Match"},
		Rows:    rows,
	}))
	return nil
}
