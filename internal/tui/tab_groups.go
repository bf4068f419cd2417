package tui

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/tripspend/internal/cli"
	"github.com/theirongolddev/tripspend/internal/model"
	"github.com/theirongolddev/tripspend/internal/pipeline"
	"github.com/theirongolddev/tripspend/internal/reconcile"
	"github.com/theirongolddev/tripspend/internal/tui/components"
	"github.com/theirongolddev/tripspend/internal/tui/theme"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// groupsState tracks the Groups tab: a cursor over groups, one of which can
// be expanded to list its expenses.
type groupsState struct {
	cursor   int
	expanded bool

	searching   bool
	searchInput textinput.Model
	query       string
}

func (s *groupsState) clamp(n int) {
	if s.cursor >= n {
		s.cursor = n - 1
	}
	if s.cursor < 0 {
		s.cursor = 0
	}
}

func (s *groupsState) move(delta, n int) {
	s.cursor += delta
	s.clamp(n)
}

func newSearchInput() textinput.Model {
	ti := textinput.New()
	ti.Placeholder = "search descriptions..."
	ti.CharLimit = 128
	ti.Width = 40
	ti.Prompt = "/ "
	return ti
}

// visibleGroups returns the reconciled groups narrowed by the search query.
// Groups left without expenses are dropped.
func (a App) visibleGroups() []reconcile.Group {
	if a.groups.query == "" {
		return a.res.Groups
	}

	var out []reconcile.Group
	for _, g := range a.res.Groups {
		keep := make(map[string]struct{})
		for _, e := range pipeline.FilterByText(g.Expenses, a.groups.query) {
			keep[e.ID] = struct{}{}
		}
		if len(keep) == 0 {
			continue
		}
		fg := reconcile.Group{Label: g.Label, TripID: g.TripID}
		for i, e := range g.Expenses {
			if _, ok := keep[e.ID]; ok {
				fg.Expenses = append(fg.Expenses, e)
				fg.Matches = append(fg.Matches, g.Matches[i])
			}
		}
		out = append(out, fg)
	}
	return out
}

func (a App) updateGroupsKey(key string) (tea.Model, tea.Cmd, bool) {
	n := len(a.visibleGroups())
	switch key {
	case "j", "down":
		a.groups.move(1, n)
	case "k", "up":
		a.groups.move(-1, n)
	case "g", "home":
		a.groups.cursor = 0
	case "G", "end":
		a.groups.cursor = n - 1
		a.groups.clamp(n)
	case "enter", " ":
		a.groups.expanded = !a.groups.expanded
	case "/":
		a.groups.searching = true
		a.groups.searchInput = newSearchInput()
		a.groups.searchInput.SetValue(a.groups.query)
		a.groups.searchInput.Focus()
		return a, a.groups.searchInput.Cursor.BlinkCmd(), true
	case "esc":
		if a.groups.query == "" {
			return a, nil, false
		}
		a.groups.query = ""
		a.groups.cursor = 0
	default:
		return a, nil, false
	}
	return a, nil, true
}

// updateGroupsSearch handles key events while in search mode.
func (a App) updateGroupsSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		a.groups.query = strings.TrimSpace(a.groups.searchInput.Value())
		a.groups.searching = false
		a.groups.cursor = 0
		a.groups.expanded = a.groups.query != ""
		return a, nil
	case "esc":
		a.groups.searching = false
		return a, nil
	}

	var cmd tea.Cmd
	a.groups.searchInput, cmd = a.groups.searchInput.Update(msg)
	return a, cmd
}

func (a App) renderGroupsTab(cw int) string {
	t := theme.Active
	groups := a.visibleGroups()

	labelStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	mutedStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	amountStyle := lipgloss.NewStyle().Foreground(t.Green).Background(t.Surface)
	selStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.SurfaceBright).Bold(true)
	markerStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.SurfaceBright)

	innerW := components.CardInnerWidth(cw)

	var b strings.Builder
	if a.groups.searching {
		b.WriteString(a.groups.searchInput.View())
		b.WriteString("\n\n")
	}

	if len(groups) == 0 {
		msg := "No expenses"
		if a.groups.query != "" {
			msg = fmt.Sprintf("No expenses match %q", a.groups.query)
		}
		b.WriteString(mutedStyle.Render(msg))
		return components.ContentCard("Groups", b.String(), cw)
	}

	amountW := 12
	countW := 6
	nameW := innerW - amountW - countW - 4
	for i, g := range groups {
		name := fmt.Sprintf("%-*s", nameW, truncStr(g.Label, nameW))
		count := fmt.Sprintf("%*d", countW, len(g.Expenses))
		amount := fmt.Sprintf("%*s", amountW, cli.FormatAmount(g.Total()))
		if i == a.groups.cursor {
			b.WriteString(markerStyle.Render("▸ "))
			b.WriteString(selStyle.Render(name + count + amount))
		} else {
			b.WriteString(labelStyle.Render("  " + name))
			b.WriteString(mutedStyle.Render(count))
			b.WriteString(amountStyle.Render(amount))
		}
		b.WriteString("\n")

		if i == a.groups.cursor && a.groups.expanded {
			b.WriteString(a.renderGroupItems(g, innerW))
		}
	}
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render("[j/k] move  [Enter] expand  [/] search  [Esc] clear"))

	title := fmt.Sprintf("Groups (%d)", len(groups))
	return components.ContentCard(title, b.String(), cw)
}

func (a App) renderGroupItems(g reconcile.Group, w int) string {
	t := theme.Active
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	textStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	amountStyle := lipgloss.NewStyle().Foreground(t.Green).Background(t.Surface)

	const dateW, catW, amountW, basisW = 10, 14, 12, 14
	titleW := w - dateW - catW - amountW - basisW - 8
	if titleW < 10 {
		titleW = 10
	}

	var b strings.Builder
	for i, e := range g.Expenses {
		basis := g.Matches[i].Basis
		b.WriteString(dimStyle.Render("    " + fmt.Sprintf("%-*s", dateW, cli.FormatDate(e.OccurredAt))))
		b.WriteString(textStyle.Render(" " + fmt.Sprintf("%-*s", titleW, truncStr(reconcile.Title(e), titleW))))
		b.WriteString(dimStyle.Render(" " + fmt.Sprintf("%-*s", catW, truncStr(e.Category.DisplayName(), catW))))
		b.WriteString(amountStyle.Render(fmt.Sprintf("%*s", amountW, cli.FormatAmount(e.Amount))))
		b.WriteString(lipgloss.NewStyle().Foreground(t.Basis(basis)).Background(t.Surface).
			Render(" " + fmt.Sprintf("%-*s", basisW, basisLabel(basis))))
		b.WriteString("\n")
	}
	return b.String()
}

func basisLabel(b model.MatchBasis) string {
	switch b {
	case model.MatchByID:
		return "trip id"
	case model.MatchByDescription:
		return "label"
	case model.MatchByDateRange:
		return "dates"
	default:
		return "unmatched"
	}
}
