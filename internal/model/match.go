package model

// OtherExpensesLabel is the group name for expenses that match no trip.
const OtherExpensesLabel = "Other Expenses"

// MatchBasis records which rule associated an expense with a trip.
type MatchBasis int

// Match bases, in the priority order they are tried.
const (
	MatchNone MatchBasis = iota
	MatchByID
	MatchByDescription
	MatchByDateRange
)

func (b MatchBasis) String() string {
	switch b {
	case MatchByID:
		return "byId"
	case MatchByDescription:
		return "byDescription"
	case MatchByDateRange:
		return "byDateRange"
	default:
		return "none"
	}
}

// DescriptionTag holds the optional markers parsed out of an expense description.
// A nil field means the marker was absent or malformed.
type DescriptionTag struct {
	ActivityTitle *string
	TripLabel     *string
}

// MatchResult is the trip association computed for a single expense.
type MatchResult struct {
	MatchedTripID string // empty when no real trip matched
	ResolvedName  string
	Basis         MatchBasis
}

// Matched reports whether a real trip was matched.
func (m MatchResult) Matched() bool {
	return m.MatchedTripID != ""
}
