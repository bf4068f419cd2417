package source

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/theirongolddev/tripspend/internal/model"
)

// WriteFile writes trips, expenses and budget records as one JSONL snapshot
// file that ParseFile reads back. deleted trip ids are written as tombstones.
// The file is replaced atomically.
func WriteFile(path string, trips []model.Trip, expenses []model.Expense, budgets []model.BudgetRecord, deleted []string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".sync-*.jsonl")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	w := bufio.NewWriter(tmp)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	for _, t := range trips {
		if err := enc.Encode(fromTrip(t)); err != nil {
			_ = tmp.Close()
			return fmt.Errorf("encoding trip %s: %w", t.ID, err)
		}
	}
	for _, id := range deleted {
		if err := enc.Encode(rawTrip{Type: TypeTrip, ID: id, Deleted: true}); err != nil {
			_ = tmp.Close()
			return fmt.Errorf("encoding tombstone %s: %w", id, err)
		}
	}
	for _, e := range expenses {
		if err := enc.Encode(fromExpense(e)); err != nil {
			_ = tmp.Close()
			return fmt.Errorf("encoding expense %s: %w", e.ID, err)
		}
	}
	for _, b := range budgets {
		rec := rawBudgetStatus{
			Type:          TypeBudget,
			TripID:        b.TripID,
			TotalBudget:   b.TotalBudget,
			DaysRemaining: b.DaysRemaining,
			DaysTotal:     b.DaysTotal,
		}
		if err := enc.Encode(rec); err != nil {
			_ = tmp.Close()
			return fmt.Errorf("encoding budget %s: %w", b.TripID, err)
		}
	}

	if err := w.Flush(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", tmp.Name(), err)
	}
	return os.Rename(tmp.Name(), path)
}

func fromTrip(t model.Trip) rawTrip {
	r := rawTrip{
		Type:        TypeTrip,
		ID:          t.ID,
		Name:        t.Name,
		Destination: t.Destination,
		StartDate:   formatDate(t.StartDate),
		EndDate:     formatDate(t.EndDate),
	}
	if t.Budget != nil {
		r.Budget = &rawBudget{Total: t.Budget.Total, PerDay: t.Budget.PerDay}
	}
	return r
}

func fromExpense(e model.Expense) rawExpense {
	r := rawExpense{
		Type:        TypeExpense,
		ID:          e.ID,
		Amount:      e.Amount,
		Date:        formatTimestamp(e.OccurredAt),
		Description: e.Description,
		Category:    string(e.Category),
	}
	if e.TripID != "" {
		id := e.TripID
		r.TripID = &id
	}
	return r
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.DateOnly)
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	if t.Equal(model.CalendarDay(t)) {
		return t.Format(time.DateOnly)
	}
	return t.Format(time.RFC3339)
}
