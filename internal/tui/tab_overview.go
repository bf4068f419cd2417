package tui

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/tripspend/internal/cli"
	"github.com/theirongolddev/tripspend/internal/model"
	"github.com/theirongolddev/tripspend/internal/tui/components"
	"github.com/theirongolddev/tripspend/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

func (a App) renderOverviewTab(cw int) string {
	t := theme.Active
	sum := a.summary
	var b strings.Builder

	// Row 1: Metric cards
	matchedShare := ""
	if sum.TotalAmount > 0 {
		matchedShare = cli.FormatPercent(sum.MatchedAmount/sum.TotalAmount*100) + " of total"
	}
	metrics := []components.Metric{
		{Label: "Spent", Value: cli.FormatAmount(sum.TotalAmount), Delta: fmt.Sprintf("%d expenses", sum.Expenses)},
		{Label: "On trips", Value: cli.FormatAmount(sum.MatchedAmount), Delta: matchedShare, Color: t.Green},
		{Label: model.OtherExpensesLabel, Value: cli.FormatAmount(sum.OtherAmount)},
		{Label: "Per active day", Value: cli.FormatAmount(sum.AmountPerDay), Delta: cli.FormatDays(sum.ActiveDays)},
	}
	b.WriteString(components.MetricCardRow(metrics, cw))
	b.WriteString("\n")

	// Row 2: Budget for the selected trip
	if a.budget != nil {
		b.WriteString(components.ContentCard("Budget · "+a.tripLabel(a.selected), a.renderBudgetBody(cw), cw))
		b.WriteString("\n")
	}

	// Row 3: Daily spend chart + top categories
	halves := components.LayoutRow(cw, 2)
	var chartCard, catCard string
	if len(a.days) > 0 {
		vals := make([]float64, len(a.days))
		for i, d := range a.days {
			vals[i] = d.Amount
		}
		chartW := cw
		if !a.isCompactLayout() {
			chartW = halves[0]
		}
		chartCard = components.ContentCard(
			fmt.Sprintf("Daily spend (%s)", cli.FormatDays(len(a.days))),
			components.BarChart(vals, chartDateLabels(a.days), t.Blue, components.CardInnerWidth(chartW), 8),
			chartW,
		)
	}
	catW := cw
	if !a.isCompactLayout() && chartCard != "" {
		catW = halves[1]
	}
	catCard = components.ContentCard("By "+a.view.String(), components.CategoryBars(a.cats, components.CardInnerWidth(catW), 6), catW)

	switch {
	case chartCard == "":
		b.WriteString(catCard)
	case a.isCompactLayout():
		b.WriteString(chartCard)
		b.WriteString("\n")
		b.WriteString(catCard)
	default:
		b.WriteString(components.CardRow([]string{chartCard, catCard}))
	}
	b.WriteString("\n")

	// Row 4: Orphans, only when there are any
	if sum.OrphanedByID > 0 || sum.OrphanedByDescription > 0 {
		b.WriteString(components.ContentCard("Needs cleanup", a.renderOrphansBody(), cw))
	}

	return b.String()
}

func (a App) renderBudgetBody(cw int) string {
	t := theme.Active
	st := a.budget
	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)

	barW := components.CardInnerWidth(cw) - 36
	if barW > 60 {
		barW = 60
	}
	if barW < 10 {
		barW = 10
	}

	var b strings.Builder
	b.WriteString(components.BudgetBar("Used", *st, 10, barW))
	b.WriteString("\n")

	remaining := valueStyle.Render(cli.FormatAmount(st.Remaining))
	if st.Remaining < 0 {
		remaining = lipgloss.NewStyle().Foreground(t.Red).Background(t.Surface).Render(cli.FormatAmount(st.Remaining))
	}
	b.WriteString(labelStyle.Render("Spent ") + valueStyle.Render(cli.FormatAmount(st.ActualSpent)))
	b.WriteString(labelStyle.Render(" of ") + valueStyle.Render(cli.FormatAmount(st.TotalBudget)))
	b.WriteString(labelStyle.Render(" · remaining ") + remaining)

	if st.DaysTotal > 0 {
		b.WriteString("\n")
		b.WriteString(labelStyle.Render(fmt.Sprintf("%d of %s left", st.DaysRemaining, cli.FormatDays(st.DaysTotal))))
		if st.DailyBurnRate > 0 {
			b.WriteString(labelStyle.Render(" · burning ") + valueStyle.Render(cli.FormatAmount(st.DailyBurnRate)+"/day"))
			b.WriteString(labelStyle.Render(" · projected ") + valueStyle.Render(cli.FormatAmount(st.ProjectedSpend)))
		}
		if st.DailyLimit != nil {
			b.WriteString(labelStyle.Render(" · limit ") + valueStyle.Render(cli.FormatAmount(*st.DailyLimit)+"/day"))
		}
	}
	return b.String()
}

func (a App) renderOrphansBody() string {
	t := theme.Active
	warnStyle := lipgloss.NewStyle().Foreground(t.Orange).Background(t.Surface)
	mutedStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	o := a.res.Orphans
	var b strings.Builder
	if n := len(o.ByID); n > 0 {
		b.WriteString(warnStyle.Render(fmt.Sprintf("%d expenses point at deleted trips: %s",
			n, strings.Join(o.MissingTripIDs(), ", "))))
		b.WriteString("\n")
	}
	if n := len(o.ByDescription); n > 0 {
		b.WriteString(warnStyle.Render(fmt.Sprintf("%d expenses are labeled with unknown trips", n)))
		b.WriteString("\n")
	}
	if !a.res.Authoritative {
		b.WriteString(mutedStyle.Render("Trip list is not current; cleanup waits for a successful reload."))
	} else {
		b.WriteString(mutedStyle.Render("Deleted-trip expenses are hidden from every group and total."))
	}
	return b.String()
}
