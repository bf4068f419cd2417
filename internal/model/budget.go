package model

// WarningTier classifies how much of a budget has been consumed.
type WarningTier int

// Warning tiers, lowest first.
const (
	TierOnTrack WarningTier = iota
	TierApproaching
	TierOverBudget
)

// Tier thresholds in percent.
const (
	ApproachingThreshold = 75.0
	OverBudgetThreshold  = 90.0
)

func (w WarningTier) String() string {
	switch w {
	case TierApproaching:
		return "approaching"
	case TierOverBudget:
		return "overBudget"
	default:
		return "onTrack"
	}
}

// TierFor returns the warning tier for a percentage-used value.
// Anything at or past 90% is overBudget, including values over 100%.
func TierFor(pct float64) WarningTier {
	switch {
	case pct >= OverBudgetThreshold:
		return TierOverBudget
	case pct >= ApproachingThreshold:
		return TierApproaching
	default:
		return TierOnTrack
	}
}

// BudgetRecord is a budget status previously fetched from the backend.
type BudgetRecord struct {
	TripID        string
	TotalBudget   float64
	DaysRemaining int
	DaysTotal     int
}

// BudgetStatus holds budget tracking and forecast data for one trip.
type BudgetStatus struct {
	TripID         string
	TotalBudget    float64
	ActualSpent    float64
	Remaining      float64 // may be negative
	PercentageUsed float64 // 0 when TotalBudget <= 0
	WarningTier    WarningTier

	DaysTotal      int
	DaysRemaining  int
	DailyBurnRate  float64
	DailyLimit     *float64
	ProjectedSpend float64
}
