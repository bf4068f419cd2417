// Package source discovers and parses JSONL snapshot files of trips,
// expenses and budget records.
package source

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"time"

	"github.com/theirongolddev/tripspend/internal/model"
)

// Record types routed by the top-level "type" field.
const (
	TypeTrip    = "trip"
	TypeExpense = "expense"
	TypeBudget  = "budget"
)

// ParseResult holds the output of parsing a single JSONL file.
type ParseResult struct {
	File        string
	Trips       []model.Trip
	Expenses    []model.Expense
	Budgets     []model.BudgetRecord
	Deleted     []string // trip ids tombstoned by this file
	ParseErrors int
	Err         error
}

// ParseFile reads a JSONL snapshot file. Records are deduplicated by id with
// the last line winning.
//
// Entry routing by top-level "type" field:
//   - "trip"    → trip upsert, or tombstone when "deleted" is true
//   - "expense" → expense upsert
//   - "budget"  → budget record upsert, keyed by tripId
//   - everything else → skip
func ParseFile(df DiscoveredFile) ParseResult {
	f, err := os.Open(df.Path)
	if err != nil {
		return ParseResult{File: df.Path, Err: err}
	}
	defer func() { _ = f.Close() }()

	var (
		recs        Records
		parseErrors int
	)

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()

		switch extractTopLevelType(line) {
		case TypeTrip:
			var raw rawTrip
			if err := json.Unmarshal(line, &raw); err != nil || raw.ID == "" {
				parseErrors++
				continue
			}
			if raw.Deleted {
				recs.DeleteTrip(raw.ID)
				continue
			}
			trip, ok := raw.toModel()
			if !ok {
				parseErrors++
			}
			recs.AddTrip(trip)

		case TypeExpense:
			var raw rawExpense
			if err := json.Unmarshal(line, &raw); err != nil {
				parseErrors++
				continue
			}
			e, ok := raw.toModel()
			if !ok {
				parseErrors++
			}
			recs.AddExpense(e)

		case TypeBudget:
			var raw rawBudgetStatus
			if err := json.Unmarshal(line, &raw); err != nil || raw.TripID == "" {
				parseErrors++
				continue
			}
			recs.AddBudget(model.BudgetRecord{
				TripID:        raw.TripID,
				TotalBudget:   raw.TotalBudget,
				DaysRemaining: raw.DaysRemaining,
				DaysTotal:     raw.DaysTotal,
			})
		}
	}

	if err := scanner.Err(); err != nil {
		return ParseResult{File: df.Path, Err: err}
	}

	return ParseResult{
		File:        df.Path,
		Trips:       recs.Trips(),
		Expenses:    recs.Expenses(),
		Budgets:     recs.Budgets(),
		Deleted:     recs.Deleted(),
		ParseErrors: parseErrors,
	}
}

// toModel converts a trip line. ok is false when a date was unparseable;
// the trip is still returned with that date zeroed.
func (r rawTrip) toModel() (model.Trip, bool) {
	start, okStart := ParseDate(r.StartDate)
	end, okEnd := ParseDate(r.EndDate)
	t := model.Trip{
		ID:          r.ID,
		Name:        r.Name,
		Destination: r.Destination,
		StartDate:   start,
		EndDate:     end,
	}
	if r.Budget != nil {
		t.Budget = &model.TripBudget{Total: r.Budget.Total, PerDay: r.Budget.PerDay}
	}
	return t, okStart && okEnd
}

func (r rawExpense) toModel() (model.Expense, bool) {
	at, ok := ParseDate(r.Date)
	e := model.Expense{
		ID:          r.ID,
		Amount:      r.Amount,
		OccurredAt:  at,
		Description: r.Description,
		Category:    model.ParseCategory(r.Category),
	}
	if r.TripID != nil {
		e.TripID = strings.TrimSpace(*r.TripID)
	}
	return e, ok
}

// ParseDate accepts a calendar date (2006-01-02) or an RFC 3339 timestamp.
// The empty string is a valid zero time.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, true
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// typeKey is the byte sequence for a JSON key named "type" (with quotes).
var typeKey = []byte(`"type"`)

// extractTopLevelType finds the top-level "type" field in a JSONL line.
// Tracks brace depth and string boundaries so nested "type" keys are ignored.
func extractTopLevelType(line []byte) string {
	depth := 0
	for i := 0; i < len(line); {
		switch line[i] {
		case '"':
			if depth == 1 && bytes.HasPrefix(line[i:], typeKey) {
				val, isKey := classifyType(line, i+len(typeKey))
				if isKey {
					return val
				}
			}
			i = skipJSONString(line, i)
		case '{':
			depth++
			i++
		case '}':
			depth--
			i++
		default:
			i++
		}
	}
	return ""
}

// classifyType checks whether pos follows a JSON key (expects : then value).
// isKey=false means "type" appeared as a value and scanning should continue.
func classifyType(line []byte, pos int) (val string, isKey bool) {
	i := skipSpaces(line, pos)
	if i >= len(line) || line[i] != ':' {
		return "", false
	}
	i = skipSpaces(line, i+1)
	if i >= len(line) || line[i] != '"' {
		return "", true
	}
	i++

	end := bytes.IndexByte(line[i:], '"')
	if end < 0 || end > 20 {
		return "", true
	}
	v := string(line[i : i+end])
	switch v {
	case TypeTrip, TypeExpense, TypeBudget:
		return v, true
	}
	return "", true
}

// skipJSONString advances past a JSON string starting at the opening quote.
//
//nolint:gosec // manual bounds checking throughout
func skipJSONString(line []byte, i int) int {
	i++
	for i < len(line) {
		switch line[i] {
		case '\\':
			i += 2
		case '"':
			return i + 1
		default:
			i++
		}
	}
	return i
}

func skipSpaces(line []byte, i int) int {
	for i < len(line) && (line[i] == ' ' || line[i] == '\t') {
		i++
	}
	return i
}
