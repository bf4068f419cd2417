package model

import "time"

// CategoryTotal is one chart-ready label/amount pair.
type CategoryTotal struct {
	Label        string
	Amount       float64
	SharePercent float64
}

// DailySpend holds the amount spent on a single calendar day.
type DailySpend struct {
	Date     time.Time
	Expenses int
	Amount   float64
}

// GroupSummary holds the totals for one reconciled group.
type GroupSummary struct {
	Label    string
	TripID   string
	Expenses int
	Amount   float64
}

// SpendSummary holds the top-level aggregate across a reconciled snapshot.
type SpendSummary struct {
	Expenses      int
	TotalAmount   float64
	MatchedAmount float64
	OtherAmount   float64
	Groups        []GroupSummary

	ByBasis map[MatchBasis]int

	OrphanedByID          int
	OrphanedByDescription int
	ActiveDays            int
	AmountPerDay          float64
}
