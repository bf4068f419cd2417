package source

// rawTrip is a "trip" line. Deleted marks a tombstone.
type rawTrip struct {
	Type        string     `json:"type"`
	ID          string     `json:"id"`
	Name        string     `json:"name,omitempty"`
	Destination string     `json:"destination,omitempty"`
	StartDate   string     `json:"startDate,omitempty"`
	EndDate     string     `json:"endDate,omitempty"`
	Budget      *rawBudget `json:"budget,omitempty"`
	Deleted     bool       `json:"deleted,omitempty"`
}

type rawBudget struct {
	Total  float64  `json:"total"`
	PerDay *float64 `json:"perDay,omitempty"`
}

// rawExpense is an "expense" line. TripID is empty or absent when unassigned.
type rawExpense struct {
	Type        string  `json:"type"`
	ID          string  `json:"id"`
	Amount      float64 `json:"amount"`
	Date        string  `json:"date,omitempty"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	TripID      *string `json:"tripId,omitempty"`
}

// rawBudgetStatus is a "budget" line holding a fetched budget record.
type rawBudgetStatus struct {
	Type          string  `json:"type"`
	TripID        string  `json:"tripId"`
	TotalBudget   float64 `json:"totalBudget"`
	DaysRemaining int     `json:"daysRemaining"`
	DaysTotal     int     `json:"daysTotal"`
}

// DiscoveredFile is a JSONL snapshot file found during directory scanning.
type DiscoveredFile struct {
	Path string
	Name string // file name without extension
}
