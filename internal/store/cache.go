// Package store provides a SQLite-backed cache for parsed snapshot files.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/theirongolddev/tripspend/internal/model"
	"github.com/theirongolddev/tripspend/internal/source"

	_ "modernc.org/sqlite" // register sqlite driver
)

// Cache provides SQLite-backed caching of parsed files.
type Cache struct {
	db *sql.DB
}

// Open opens or creates the cache database at the given path.
func Open(dbPath string) (*Cache, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating cache dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=foreign_keys(on)")
	if err != nil {
		return nil, fmt.Errorf("opening cache db: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Cache{db: db}, nil
}

// Close closes the cache database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// FileInfo holds the tracked mtime and size for a file.
type FileInfo struct {
	MtimeNs   int64
	SizeBytes int64
}

// GetTrackedFiles returns a map of file_path -> FileInfo for all tracked files.
func (c *Cache) GetTrackedFiles() (map[string]FileInfo, error) {
	rows, err := c.db.Query("SELECT file_path, mtime_ns, size_bytes FROM file_tracker")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	result := make(map[string]FileInfo)
	for rows.Next() {
		var path string
		var fi FileInfo
		if err := rows.Scan(&path, &fi.MtimeNs, &fi.SizeBytes); err != nil {
			return nil, err
		}
		result[path] = fi
	}
	return result, rows.Err()
}

// SaveFile replaces everything cached for pr.File with pr's records.
func (c *Cache) SaveFile(pr source.ParseResult, mtimeNs, sizeBytes int64) error {
	tx, err := c.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	// Cascades to every record table.
	if _, err := tx.Exec("DELETE FROM file_tracker WHERE file_path = ?", pr.File); err != nil {
		return err
	}

	now := time.Now().UTC().Format(time.RFC3339)
	_, err = tx.Exec(`INSERT INTO file_tracker (file_path, mtime_ns, size_bytes, parse_errors, parsed_at)
		VALUES (?, ?, ?, ?, ?)`, pr.File, mtimeNs, sizeBytes, pr.ParseErrors, now)
	if err != nil {
		return err
	}

	for i, t := range pr.Trips {
		total, perDay := budgetColumns(t)
		_, err = tx.Exec(`INSERT INTO trips
			(file_path, seq, trip_id, name, destination, start_date, end_date, budget_total, budget_per_day)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			pr.File, i, t.ID, t.Name, t.Destination,
			formatTime(t.StartDate), formatTime(t.EndDate), total, perDay,
		)
		if err != nil {
			return err
		}
	}

	for i, e := range pr.Expenses {
		_, err = tx.Exec(`INSERT INTO expenses
			(file_path, seq, expense_id, amount, occurred_at, description, category, trip_id)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			pr.File, i, e.ID, e.Amount, formatTime(e.OccurredAt), e.Description, string(e.Category), e.TripID,
		)
		if err != nil {
			return err
		}
	}

	for i, b := range pr.Budgets {
		_, err = tx.Exec(`INSERT INTO budgets
			(file_path, seq, trip_id, total_budget, days_remaining, days_total)
			VALUES (?, ?, ?, ?, ?, ?)`,
			pr.File, i, b.TripID, b.TotalBudget, b.DaysRemaining, b.DaysTotal,
		)
		if err != nil {
			return err
		}
	}

	for i, id := range pr.Deleted {
		_, err = tx.Exec(`INSERT INTO deleted_trips (file_path, seq, trip_id) VALUES (?, ?, ?)`, pr.File, i, id)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// LoadAll reads every cached file back as a parse result, keyed by file path.
func (c *Cache) LoadAll() (map[string]source.ParseResult, error) {
	results := make(map[string]source.ParseResult)

	rows, err := c.db.Query("SELECT file_path, parse_errors FROM file_tracker")
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var pr source.ParseResult
		if err := rows.Scan(&pr.File, &pr.ParseErrors); err != nil {
			_ = rows.Close()
			return nil, err
		}
		results[pr.File] = pr
	}
	err = rows.Err()
	_ = rows.Close()
	if err != nil {
		return nil, err
	}

	if err := c.loadTrips(results); err != nil {
		return nil, fmt.Errorf("loading trips: %w", err)
	}
	if err := c.loadExpenses(results); err != nil {
		return nil, fmt.Errorf("loading expenses: %w", err)
	}
	if err := c.loadBudgets(results); err != nil {
		return nil, fmt.Errorf("loading budgets: %w", err)
	}
	if err := c.loadDeleted(results); err != nil {
		return nil, fmt.Errorf("loading tombstones: %w", err)
	}
	return results, nil
}

func (c *Cache) loadTrips(results map[string]source.ParseResult) error {
	rows, err := c.db.Query(`SELECT file_path, trip_id, name, destination, start_date, end_date,
		budget_total, budget_per_day FROM trips ORDER BY file_path, seq`)
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var path string
		t, err := scanTrip(rows, &path)
		if err != nil {
			return err
		}
		pr := results[path]
		pr.Trips = append(pr.Trips, t)
		results[path] = pr
	}
	return rows.Err()
}

func (c *Cache) loadExpenses(results map[string]source.ParseResult) error {
	rows, err := c.db.Query(`SELECT file_path, expense_id, amount, occurred_at, description, category, trip_id
		FROM expenses ORDER BY file_path, seq`)
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var path string
		var e model.Expense
		var id, occurred, desc, category, tripID sql.NullString
		if err := rows.Scan(&path, &id, &e.Amount, &occurred, &desc, &category, &tripID); err != nil {
			return err
		}
		e.ID = id.String
		e.OccurredAt = parseTime(occurred)
		e.Description = desc.String
		e.Category = model.ParseCategory(category.String)
		e.TripID = tripID.String

		pr := results[path]
		pr.Expenses = append(pr.Expenses, e)
		results[path] = pr
	}
	return rows.Err()
}

func (c *Cache) loadBudgets(results map[string]source.ParseResult) error {
	rows, err := c.db.Query(`SELECT file_path, trip_id, total_budget, days_remaining, days_total
		FROM budgets ORDER BY file_path, seq`)
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var path string
		var b model.BudgetRecord
		if err := rows.Scan(&path, &b.TripID, &b.TotalBudget, &b.DaysRemaining, &b.DaysTotal); err != nil {
			return err
		}
		pr := results[path]
		pr.Budgets = append(pr.Budgets, b)
		results[path] = pr
	}
	return rows.Err()
}

func (c *Cache) loadDeleted(results map[string]source.ParseResult) error {
	rows, err := c.db.Query("SELECT file_path, trip_id FROM deleted_trips ORDER BY file_path, seq")
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var path, id string
		if err := rows.Scan(&path, &id); err != nil {
			return err
		}
		pr := results[path]
		pr.Deleted = append(pr.Deleted, id)
		results[path] = pr
	}
	return rows.Err()
}

// DeleteFile removes a tracked file and every record parsed from it.
func (c *Cache) DeleteFile(filePath string) error {
	_, err := c.db.Exec("DELETE FROM file_tracker WHERE file_path = ?", filePath)
	return err
}

// Counts holds row counts for the status command.
type Counts struct {
	Files    int
	Trips    int
	Expenses int
	Budgets  int
}

// Counts returns the number of cached files and records.
func (c *Cache) Counts() (Counts, error) {
	var n Counts
	err := c.db.QueryRow(`SELECT
		(SELECT COUNT(*) FROM file_tracker),
		(SELECT COUNT(*) FROM trips),
		(SELECT COUNT(*) FROM expenses),
		(SELECT COUNT(*) FROM budgets)`).Scan(&n.Files, &n.Trips, &n.Expenses, &n.Budgets)
	return n, err
}

// SaveLastGoodTrips replaces the trip set remembered from the last
// successful load. It is the fallback when a later load fails.
func (c *Cache) SaveLastGoodTrips(trips []model.Trip, at time.Time) error {
	tx, err := c.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec("DELETE FROM last_good_trips"); err != nil {
		return err
	}
	savedAt := at.UTC().Format(time.RFC3339Nano)
	for i, t := range trips {
		total, perDay := budgetColumns(t)
		_, err = tx.Exec(`INSERT INTO last_good_trips
			(seq, trip_id, name, destination, start_date, end_date, budget_total, budget_per_day, saved_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			i, t.ID, t.Name, t.Destination, formatTime(t.StartDate), formatTime(t.EndDate), total, perDay, savedAt,
		)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

// LoadLastGoodTrips returns the remembered trip set and when it was saved.
// ok is false when nothing was ever saved.
func (c *Cache) LoadLastGoodTrips() (trips []model.Trip, savedAt time.Time, ok bool, err error) {
	rows, err := c.db.Query(`SELECT '', trip_id, name, destination, start_date, end_date,
		budget_total, budget_per_day, saved_at FROM last_good_trips ORDER BY seq`)
	if err != nil {
		return nil, time.Time{}, false, err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var unused, at string
		t, err := scanTrip(rows, &unused, &at)
		if err != nil {
			return nil, time.Time{}, false, err
		}
		savedAt, _ = time.Parse(time.RFC3339Nano, at)
		trips = append(trips, t)
		ok = true
	}
	return trips, savedAt, ok, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

// scanTrip scans a trip row laid out as path, id, name, destination, start,
// end, budget_total, budget_per_day, followed by any extra columns.
func scanTrip(row scanner, path *string, extra ...any) (model.Trip, error) {
	var t model.Trip
	var name, dest, start, end sql.NullString
	var total, perDay sql.NullFloat64
	cols := []any{path, &t.ID, &name, &dest, &start, &end, &total, &perDay}
	if err := row.Scan(append(cols, extra...)...); err != nil {
		return model.Trip{}, err
	}
	t.Name = name.String
	t.Destination = dest.String
	t.StartDate = parseTime(start)
	t.EndDate = parseTime(end)
	if total.Valid {
		t.Budget = &model.TripBudget{Total: total.Float64}
		if perDay.Valid {
			v := perDay.Float64
			t.Budget.PerDay = &v
		}
	}
	return t, nil
}

func budgetColumns(t model.Trip) (total, perDay sql.NullFloat64) {
	if t.Budget == nil {
		return total, perDay
	}
	total = sql.NullFloat64{Float64: t.Budget.Total, Valid: true}
	if t.Budget.PerDay != nil {
		perDay = sql.NullFloat64{Float64: *t.Budget.PerDay, Valid: true}
	}
	return total, perDay
}

// formatTime keeps the recorded offset so calendar dates survive the cache.
func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339Nano)
}

func parseTime(s sql.NullString) time.Time {
	if !s.Valid || s.String == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s.String)
	if err != nil {
		return time.Time{}
	}
	return t
}
