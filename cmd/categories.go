package cmd

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/tripspend/internal/cli"
	"github.com/theirongolddev/tripspend/internal/pipeline"

	"github.com/spf13/cobra"
)

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "Spending by category or activity",
	RunE:  runCategories,
}

var categoriesView string

func init() {
	categoriesCmd.Flags().StringVar(&categoriesView, "view", "", "category or subcategory (default from config)")
	rootCmd.AddCommand(categoriesCmd)
}

func runCategories(_ *cobra.Command, _ []string) error {
	snap, err := loadSnapshot()
	if err != nil {
		return err
	}

	view := categoriesView
	if view == "" {
		view = appCfg.General.DefaultView
	}
	v := pipeline.ParseView(view)

	res, selected := reconcileSelected(snap)
	totals := pipeline.SortedTotals(pipeline.AggregateCategories(res.Expenses(), v))
	if len(totals) == 0 {
		fmt.Println("\n  No spending to break down.")
		return nil
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("BY %s  %s", strings.ToUpper(v.String()), scopeTitle(snap, selected))))
	fmt.Println()

	rows := make([][]string, 0, len(totals))
	for _, c := range totals {
		rows = append(rows, []string{
			cli.Truncate(c.Label, 28),
			cli.FormatAmount(c.Amount),
			cli.FormatPercent(c.SharePercent),
		})
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{v.String(), "Amount", "Share"},
		Rows:    rows,
	}))
	fmt.Println()
	fmt.Print(cli.RenderCategoryChart("Share of spend", totals))
	return nil
}
