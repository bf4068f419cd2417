package daemon

import (
	"time"

	"github.com/theirongolddev/tripspend/internal/model"
	"github.com/theirongolddev/tripspend/internal/reconcile"
)

// GroupView is one reconciled group as served at /v1/groups.
type GroupView struct {
	Label    string        `json:"label"`
	TripID   string        `json:"trip_id,omitempty"`
	Expenses int           `json:"expenses"`
	Amount   float64       `json:"amount"`
	Items    []ExpenseView `json:"items"`
}

// ExpenseView is one grouped expense.
type ExpenseView struct {
	ID          string     `json:"id"`
	Amount      float64    `json:"amount"`
	OccurredAt  *time.Time `json:"occurred_at,omitempty"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Category    string     `json:"category"`
	Basis       string     `json:"basis"`
}

// BudgetView is the selected trip's budget as served at /v1/budget.
type BudgetView struct {
	TripID         string   `json:"trip_id"`
	TotalBudget    float64  `json:"total_budget"`
	ActualSpent    float64  `json:"actual_spent"`
	Remaining      float64  `json:"remaining"`
	PercentageUsed float64  `json:"percentage_used"`
	WarningTier    string   `json:"warning_tier"`
	DaysTotal      int      `json:"days_total"`
	DaysRemaining  int      `json:"days_remaining"`
	DailyBurnRate  float64  `json:"daily_burn_rate"`
	DailyLimit     *float64 `json:"daily_limit,omitempty"`
	ProjectedSpend float64  `json:"projected_spend"`
}

func groupViews(groups []reconcile.Group) []GroupView {
	out := make([]GroupView, 0, len(groups))
	for _, g := range groups {
		gv := GroupView{
			Label:    g.Label,
			TripID:   g.TripID,
			Expenses: len(g.Expenses),
			Amount:   g.Total(),
			Items:    make([]ExpenseView, 0, len(g.Expenses)),
		}
		for i, e := range g.Expenses {
			ev := ExpenseView{
				ID:          e.ID,
				Amount:      e.Amount,
				Title:       reconcile.Title(e),
				Description: e.Description,
				Category:    string(e.Category),
				Basis:       g.Matches[i].Basis.String(),
			}
			if !e.OccurredAt.IsZero() {
				at := e.OccurredAt
				ev.OccurredAt = &at
			}
			gv.Items = append(gv.Items, ev)
		}
		out = append(out, gv)
	}
	return out
}

func budgetView(st model.BudgetStatus) *BudgetView {
	return &BudgetView{
		TripID:         st.TripID,
		TotalBudget:    st.TotalBudget,
		ActualSpent:    st.ActualSpent,
		Remaining:      st.Remaining,
		PercentageUsed: st.PercentageUsed,
		WarningTier:    st.WarningTier.String(),
		DaysTotal:      st.DaysTotal,
		DaysRemaining:  st.DaysRemaining,
		DailyBurnRate:  st.DailyBurnRate,
		DailyLimit:     st.DailyLimit,
		ProjectedSpend: st.ProjectedSpend,
	}
}
