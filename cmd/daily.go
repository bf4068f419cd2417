package cmd

import (
	"fmt"
	"time"

	"github.com/theirongolddev/tripspend/internal/cli"
	"github.com/theirongolddev/tripspend/internal/model"
	"github.com/theirongolddev/tripspend/internal/pipeline"
	"github.com/theirongolddev/tripspend/internal/reconcile"

	"github.com/spf13/cobra"
)

var dailyCmd = &cobra.Command{
	Use:   "daily",
	Short: "Daily spending table",
	RunE:  runDaily,
}

var dailyDays int

func init() {
	dailyCmd.Flags().IntVarP(&dailyDays, "days", "n", 30, "Time window in days when no trip is selected")
	rootCmd.AddCommand(dailyCmd)
}

func runDaily(_ *cobra.Command, _ []string) error {
	snap, err := loadSnapshot()
	if err != nil {
		return err
	}

	res, selected := reconcileSelected(snap)

	// A selected trip shows its own date range; otherwise the last N days.
	until := model.CalendarDay(time.Now()).AddDate(0, 0, 1)
	since := until.AddDate(0, 0, -dailyDays)
	title := fmt.Sprintf("DAILY SPEND  Last %dd", dailyDays)
	if trip, ok := reconcile.NewTripIndex(snap.Trips.Trips).Get(selected); ok && !trip.EndDate.Before(trip.StartDate) {
		since = model.CalendarDay(trip.StartDate)
		until = model.CalendarDay(trip.EndDate).AddDate(0, 0, 1)
		title = "DAILY SPEND  " + trip.Label()
	}

	days := pipeline.AggregateDays(res.Expenses(), since, until)
	if len(days) == 0 {
		fmt.Println("\n  No data for the selected period.")
		return nil
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(title))
	fmt.Println()

	rows := make([][]string, 0, len(days))
	series := make([]float64, len(days))
	var total float64
	for i, d := range days {
		series[len(days)-1-i] = d.Amount
		total += d.Amount
		rows = append(rows, []string{
			d.Date.Format("2006-01-02"),
			cli.FormatDayOfWeek(int(d.Date.Weekday())),
			cli.FormatNumber(int64(d.Expenses)),
			cli.FormatAmount(d.Amount),
		})
	}
	rows = append(rows, []string{"---"})
	rows = append(rows, []string{"Total", "", "", cli.FormatAmount(total)})

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Date", "Day", "Expenses", "Amount"},
		Rows:    rows,
	}))
	fmt.Printf("\n  %s\n", cli.RenderSparkline(series))
	return nil
}
