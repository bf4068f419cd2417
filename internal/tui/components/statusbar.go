package components

import (
	"fmt"

	"github.com/theirongolddev/tripspend/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// StatusInfo is what the bottom status bar reports.
type StatusInfo struct {
	DataAge     string
	FetchStatus string // "success", "staleCache" or "failure"
	Refreshing  bool
	AutoRefresh bool
}

// RenderStatusBar renders the bottom status bar.
func RenderStatusBar(width int, info StatusInfo) string {
	t := theme.Active

	style := lipgloss.NewStyle().
		Foreground(t.TextMuted).
		Background(t.Surface)

	left := style.Render(" [?]help  [r]efresh  [v]iew  [q]uit")

	var right string
	switch info.FetchStatus {
	case "staleCache":
		right += lipgloss.NewStyle().Foreground(t.Yellow).Background(t.Surface).Render("stale trips ")
	case "failure":
		right += lipgloss.NewStyle().Foreground(t.Red).Background(t.Surface).Render("trips unavailable ")
	}
	if info.Refreshing {
		right += lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Render("refreshing ")
	} else if info.AutoRefresh {
		right += style.Render("auto ")
	}
	if info.DataAge != "" {
		right += style.Render(fmt.Sprintf("Data: %s ", info.DataAge))
	}

	padding := width - lipgloss.Width(left) - lipgloss.Width(right)
	if padding < 0 {
		padding = 0
	}
	return left + style.Render(fmt.Sprintf("%*s", padding, "")) + right
}
