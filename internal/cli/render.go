package cli

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/tripspend/internal/model"

	"github.com/charmbracelet/lipgloss"
)

// Theme colors (Flexoki Dark)
var (
	ColorBg        = lipgloss.Color("#100F0F")
	ColorSurface   = lipgloss.Color("#1C1B1A")
	ColorBorder    = lipgloss.Color("#282726")
	ColorTextDim   = lipgloss.Color("#575653")
	ColorTextMuted = lipgloss.Color("#6F6E69")
	ColorText      = lipgloss.Color("#FFFCF0")
	ColorAccent    = lipgloss.Color("#3AA99F")
	ColorGreen     = lipgloss.Color("#879A39")
	ColorOrange    = lipgloss.Color("#DA702C")
	ColorRed       = lipgloss.Color("#D14D41")
	ColorBlue      = lipgloss.Color("#4385BE")
	ColorPurple    = lipgloss.Color("#8B7EC8")
	ColorYellow    = lipgloss.Color("#D0A215")
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorText).
			Align(lipgloss.Center)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorAccent)

	valueStyle = lipgloss.NewStyle().
			Foreground(ColorText)

	mutedStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted)

	amountStyle = lipgloss.NewStyle().
			Foreground(ColorGreen)

	warnStyle = lipgloss.NewStyle().
			Foreground(ColorOrange)

	errorStyle = lipgloss.NewStyle().
			Foreground(ColorRed)

	dimStyle = lipgloss.NewStyle().
			Foreground(ColorTextDim)
)

// TierColor returns the display color for a budget warning tier.
func TierColor(tier model.WarningTier) lipgloss.Color {
	switch tier {
	case model.TierOverBudget:
		return ColorRed
	case model.TierApproaching:
		return ColorYellow
	default:
		return ColorGreen
	}
}

// RenderAmount renders an amount in the amount style.
func RenderAmount(amount float64) string {
	return amountStyle.Render(FormatAmount(amount))
}

// RenderMuted renders secondary text.
func RenderMuted(s string) string {
	return mutedStyle.Render(s)
}

// RenderWarning renders a warning line, e.g. for stale data or cleanup notices.
func RenderWarning(s string) string {
	return warnStyle.Render(s)
}

// RenderError renders an error line.
func RenderError(s string) string {
	return errorStyle.Render(s)
}

// Table represents a bordered text table for CLI output.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
	Widths  []int // optional column widths, auto-calculated if nil
}

// RenderTitle renders a centered title bar in a bordered box.
func RenderTitle(title string) string {
	width := 55
	border := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorBorder).
		Width(width).
		Align(lipgloss.Center).
		Padding(0, 1)

	return border.Render(titleStyle.Render(title))
}

// RenderTable renders a bordered table with headers and rows.
func RenderTable(t Table) string {
	if len(t.Rows) == 0 && len(t.Headers) == 0 {
		return ""
	}

	// Calculate column widths
	numCols := len(t.Headers)
	if numCols == 0 && len(t.Rows) > 0 {
		numCols = len(t.Rows[0])
	}

	widths := make([]int, numCols)
	if t.Widths != nil {
		copy(widths, t.Widths)
	} else {
		for i, h := range t.Headers {
			if w := lipgloss.Width(h); w > widths[i] {
				widths[i] = w
			}
		}
		for _, row := range t.Rows {
			if isSeparator(row) {
				continue
			}
			for i, cell := range row {
				if w := lipgloss.Width(cell); i < numCols && w > widths[i] {
					widths[i] = w
				}
			}
		}
	}

	var b strings.Builder

	// Title above table if present
	if t.Title != "" {
		b.WriteString("  ")
		b.WriteString(headerStyle.Render(t.Title))
		b.WriteString("\n")
	}

	// Top border
	b.WriteString(dimStyle.Render("╭"))
	for i, w := range widths {
		b.WriteString(dimStyle.Render(strings.Repeat("─", w+2)))
		if i < numCols-1 {
			b.WriteString(dimStyle.Render("┬"))
		}
	}
	b.WriteString(dimStyle.Render("╮"))
	b.WriteString("\n")

	// Header row
	if len(t.Headers) > 0 {
		b.WriteString(dimStyle.Render("│"))
		for i, h := range t.Headers {
			w := widths[i]
			padded := " " + padRight(h, w) + " "
			b.WriteString(headerStyle.Render(padded))
			if i < numCols-1 {
				b.WriteString(dimStyle.Render("│"))
			}
		}
		b.WriteString(dimStyle.Render("│"))
		b.WriteString("\n")

		// Header separator
		b.WriteString(dimStyle.Render("├"))
		for i, w := range widths {
			b.WriteString(dimStyle.Render(strings.Repeat("─", w+2)))
			if i < numCols-1 {
				b.WriteString(dimStyle.Render("┼"))
			}
		}
		b.WriteString(dimStyle.Render("┤"))
		b.WriteString("\n")
	}

	// Data rows
	for _, row := range t.Rows {
		if isSeparator(row) {
			// Separator row
			b.WriteString(dimStyle.Render("├"))
			for i, w := range widths {
				b.WriteString(dimStyle.Render(strings.Repeat("─", w+2)))
				if i < numCols-1 {
					b.WriteString(dimStyle.Render("┼"))
				}
			}
			b.WriteString(dimStyle.Render("┤"))
			b.WriteString("\n")
			continue
		}

		b.WriteString(dimStyle.Render("│"))
		for i := 0; i < numCols; i++ {
			w := widths[i]
			cell := ""
			if i < len(row) {
				cell = row[i]
			}

			// Right-align numeric columns (all except first)
			var padded string
			if i == 0 {
				padded = " " + padRight(cell, w) + " "
			} else {
				padded = " " + padLeft(cell, w) + " "
			}
			b.WriteString(valueStyle.Render(padded))
			if i < numCols-1 {
				b.WriteString(dimStyle.Render("│"))
			}
		}
		b.WriteString(dimStyle.Render("│"))
		b.WriteString("\n")
	}

	// Bottom border
	b.WriteString(dimStyle.Render("╰"))
	for i, w := range widths {
		b.WriteString(dimStyle.Render(strings.Repeat("─", w+2)))
		if i < numCols-1 {
			b.WriteString(dimStyle.Render("┴"))
		}
	}
	b.WriteString(dimStyle.Render("╯"))
	b.WriteString("\n")

	return b.String()
}

func isSeparator(row []string) bool {
	return len(row) == 1 && row[0] == "---"
}

func padRight(s string, w int) string {
	if n := w - lipgloss.Width(s); n > 0 {
		return s + strings.Repeat(" ", n)
	}
	return s
}

func padLeft(s string, w int) string {
	if n := w - lipgloss.Width(s); n > 0 {
		return strings.Repeat(" ", n) + s
	}
	return s
}

// RenderLoadProgress renders a file loading bar for stderr, e.g.
// "Parsing ██████░░░░ 12/40 files". Out of range counts are clamped.
func RenderLoadProgress(verb string, done, total, width int) string {
	if total <= 0 || width < 1 {
		return ""
	}
	done = min(max(done, 0), total)
	filled := done * width / total

	return fmt.Sprintf("%s %s%s %d/%d files", verb,
		amountStyle.Render(strings.Repeat("█", filled)),
		mutedStyle.Render(strings.Repeat("░", width-filled)),
		done, total)
}

// RenderBudgetBar renders a budget usage bar colored by warning tier.
// Usage past 100% fills the bar; the percentage label still shows the real value.
func RenderBudgetBar(status model.BudgetStatus, width int) string {
	if width < 1 {
		width = 1
	}
	frac := status.PercentageUsed / 100
	if frac < 0 {
		frac = 0
	}
	if frac > 1 {
		frac = 1
	}
	filled := int(frac * float64(width))

	style := lipgloss.NewStyle().Foreground(TierColor(status.WarningTier))
	bar := style.Render(strings.Repeat("█", filled)) + dimStyle.Render(strings.Repeat("░", width-filled))
	return fmt.Sprintf("%s %s", bar, style.Render(FormatPercent(status.PercentageUsed)))
}

// RenderBudget renders a budget status block for one trip.
func RenderBudget(title string, status model.BudgetStatus) string {
	var b strings.Builder

	b.WriteString("  ")
	b.WriteString(headerStyle.Render(title))
	b.WriteString("\n  ")
	b.WriteString(RenderBudgetBar(status, 30))
	b.WriteString("\n\n")

	row := func(label, value string) {
		fmt.Fprintf(&b, "  %s %s\n", mutedStyle.Render(padRight(label, 16)), value)
	}
	row("Budget", valueStyle.Render(FormatAmount(status.TotalBudget)))
	row("Spent", RenderAmount(status.ActualSpent))
	remaining := valueStyle.Render(FormatAmount(status.Remaining))
	if status.Remaining < 0 {
		remaining = errorStyle.Render(FormatAmount(status.Remaining))
	}
	row("Remaining", remaining)
	row("Status", lipgloss.NewStyle().Foreground(TierColor(status.WarningTier)).Render(status.WarningTier.String()))

	if status.DaysTotal > 0 {
		row("Days left", valueStyle.Render(fmt.Sprintf("%d of %d", status.DaysRemaining, status.DaysTotal)))
	}
	if status.DailyBurnRate > 0 {
		row("Burn rate", valueStyle.Render(FormatAmount(status.DailyBurnRate)+"/day"))
		row("Projected", valueStyle.Render(FormatAmount(status.ProjectedSpend)))
	}
	if status.DailyLimit != nil {
		row("Daily limit", valueStyle.Render(FormatAmount(*status.DailyLimit)+"/day"))
	}
	return b.String()
}

// RenderSparkline generates a unicode block sparkline from a series of values.
func RenderSparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}

	blocks := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

	peak := values[0]
	for _, v := range values[1:] {
		if v > peak {
			peak = v
		}
	}
	if peak == 0 {
		peak = 1
	}

	var b strings.Builder
	for _, v := range values {
		idx := int(v / peak * float64(len(blocks)-1))
		if idx >= len(blocks) {
			idx = len(blocks) - 1
		}
		if idx < 0 {
			idx = 0
		}
		b.WriteRune(blocks[idx])
	}

	return b.String()
}

// RenderHorizontalBar renders a horizontal bar chart entry.
func RenderHorizontalBar(label string, value, maxValue float64, labelWidth, maxWidth int) string {
	name := padRight(Truncate(label, labelWidth), labelWidth)
	if maxValue <= 0 {
		return fmt.Sprintf("  %s", name)
	}
	barLen := int(value / maxValue * float64(maxWidth))
	if barLen < 0 {
		barLen = 0
	}
	bar := amountStyle.Render(strings.Repeat("█", barLen))
	return fmt.Sprintf("  %s %s %s", valueStyle.Render(name), bar, mutedStyle.Render(FormatAmount(value)))
}

// RenderCategoryChart renders sorted category totals as a bar chart.
func RenderCategoryChart(title string, totals []model.CategoryTotal) string {
	var b strings.Builder
	b.WriteString("  ")
	b.WriteString(headerStyle.Render(title))
	b.WriteString("\n")
	if len(totals) == 0 {
		b.WriteString(mutedStyle.Render("  No spending recorded"))
		b.WriteString("\n")
		return b.String()
	}

	peak := totals[0].Amount
	for _, ct := range totals {
		b.WriteString(RenderHorizontalBar(ct.Label, ct.Amount, peak, 22, 24))
		b.WriteString(" ")
		b.WriteString(dimStyle.Render(FormatPercent(ct.SharePercent)))
		b.WriteString("\n")
	}
	return b.String()
}
