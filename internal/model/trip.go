// Package model defines domain types for trips, expenses and budgets.
package model

import (
	"fmt"
	"time"
)

// TripBudget holds the budget a trip declares for itself.
type TripBudget struct {
	Total  float64  // declared estimated cost
	PerDay *float64 // optional per-day spending limit
}

// Trip is a read-only snapshot of one planned trip.
// StartDate and EndDate form an inclusive calendar range.
type Trip struct {
	ID          string
	Name        string
	Destination string
	StartDate   time.Time
	EndDate     time.Time
	Budget      *TripBudget
}

// Label returns the display label used for grouping, e.g. "Spring (Hanoi)".
func (t Trip) Label() string {
	return fmt.Sprintf("%s (%s)", t.Name, t.Destination)
}

// Days returns the inclusive number of calendar days the trip spans.
func (t Trip) Days() int {
	start := CalendarDay(t.StartDate)
	end := CalendarDay(t.EndDate)
	if end.Before(start) {
		return 0
	}
	return int(end.Sub(start).Hours()/24) + 1
}

// DeclaredBudget returns the trip's own estimated cost, or 0 if none is declared.
func (t Trip) DeclaredBudget() float64 {
	if t.Budget == nil {
		return 0
	}
	return t.Budget.Total
}

// CalendarDay truncates t to midnight UTC of its own calendar date.
// Dates are compared as calendar days, independent of the offset they were recorded in.
func CalendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
