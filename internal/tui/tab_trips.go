package tui

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/tripspend/internal/cli"
	"github.com/theirongolddev/tripspend/internal/tui/components"
	"github.com/theirongolddev/tripspend/internal/tui/theme"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// tripsState tracks the Trips tab cursor.
type tripsState struct {
	cursor int
}

func (s *tripsState) clamp(n int) {
	if s.cursor >= n {
		s.cursor = n - 1
	}
	if s.cursor < 0 {
		s.cursor = 0
	}
}

func (s *tripsState) move(delta, n int) {
	s.cursor += delta
	s.clamp(n)
}

func (a App) updateTripsKey(key string) (tea.Model, tea.Cmd, bool) {
	switch key {
	case "j", "down":
		a.tripsTab.move(1, len(a.trips))
	case "k", "up":
		a.tripsTab.move(-1, len(a.trips))
	case "enter", " ":
		if a.tripsTab.cursor >= len(a.trips) {
			return a, nil, true
		}
		cmd := a.selectTrip(a.trips[a.tripsTab.cursor].Trip.ID)
		return a, cmd, true
	case "a":
		cmd := a.selectTrip("")
		return a, cmd, true
	default:
		return a, nil, false
	}
	return a, nil, true
}

func (a App) renderTripsTab(cw int) string {
	t := theme.Active

	mutedStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	textStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	selStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.SurfaceBright).Bold(true)
	markerStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.SurfaceBright)
	activeStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)

	if len(a.trips) == 0 {
		msg := "No trips"
		if !a.snap.Trips.Succeeded() && a.snap.Trips.Err != nil {
			msg = "Trips unavailable: " + a.snap.Trips.Err.Error()
		}
		return components.ContentCard("Trips", mutedStyle.Render(msg), cw)
	}

	innerW := components.CardInnerWidth(cw)
	const datesW, spentW, budgetW = 24, 12, 12
	barW := 12
	nameW := innerW - datesW - spentW - budgetW - barW - 10
	if nameW < 12 {
		nameW = 12
	}

	var b strings.Builder
	for i, row := range a.trips {
		sel := " "
		if row.Trip.ID == a.selected {
			sel = "●"
		}
		budget := "-"
		if row.Budget != nil {
			budget = cli.FormatAmount(row.Budget.TotalBudget)
		}
		line := fmt.Sprintf("%s %-*s %-*s %*s %*s ",
			sel,
			nameW, truncStr(row.Trip.Label(), nameW),
			datesW, cli.FormatDateRange(row.Trip.StartDate, row.Trip.EndDate),
			spentW, cli.FormatAmount(row.Spent),
			budgetW, budget,
		)

		switch {
		case i == a.tripsTab.cursor:
			b.WriteString(markerStyle.Render("▸"))
			b.WriteString(selStyle.Render(line))
		case row.Trip.ID == a.selected:
			b.WriteString(textStyle.Render(" "))
			b.WriteString(activeStyle.Render(line))
		default:
			b.WriteString(textStyle.Render(" " + line))
		}
		if row.Budget != nil {
			b.WriteString(miniBar(row.Budget.PercentageUsed, t.Tier(row.Budget.WarningTier), barW))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render("[j/k] move  [Enter] select trip  [a] all trips"))

	title := fmt.Sprintf("Trips (%d)", len(a.trips))
	return components.ContentCard(title, b.String(), cw)
}

func miniBar(pct float64, color lipgloss.Color, w int) string {
	t := theme.Active
	frac := pct / 100
	if frac > 1 {
		frac = 1
	}
	if frac < 0 {
		frac = 0
	}
	filled := int(frac * float64(w))
	return lipgloss.NewStyle().Foreground(color).Background(t.Surface).Render(strings.Repeat("█", filled)) +
		lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface).Render(strings.Repeat("░", w-filled))
}
