package tui

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/tripspend/internal/cli"
	"github.com/theirongolddev/tripspend/internal/pipeline"
	"github.com/theirongolddev/tripspend/internal/tui/components"
	"github.com/theirongolddev/tripspend/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

func (a App) renderCategoriesTab(cw int) string {
	t := theme.Active
	mutedStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	title := "Spend by category"
	if a.view == pipeline.ViewSubcategory {
		title = "Spend by activity"
	}

	var total float64
	for _, ct := range a.cats {
		total += ct.Amount
	}

	maxRows := 12
	if a.isCompactLayout() {
		maxRows = 8
	}

	var b strings.Builder
	b.WriteString(components.CategoryBars(a.cats, components.CardInnerWidth(cw), maxRows))
	b.WriteString("\n\n")
	b.WriteString(mutedStyle.Render(fmt.Sprintf("%d labels · %s total · [v] toggle view",
		len(a.cats), cli.FormatAmount(total))))

	return components.ContentCard(title, b.String(), cw)
}
