package tui

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/tripspend/internal/config"
	"github.com/theirongolddev/tripspend/internal/pipeline"
	"github.com/theirongolddev/tripspend/internal/tui/components"
	"github.com/theirongolddev/tripspend/internal/tui/theme"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	settingsFieldDataDir = iota
	settingsFieldDefaultTrip
	settingsFieldDefaultView
	settingsFieldTheme
	settingsFieldBaseURL
	settingsFieldAPIToken
	settingsFieldCount // sentinel
)

// settingsState tracks the settings tab state.
type settingsState struct {
	cursor  int
	editing bool
	input   textinput.Model
	saved   bool  // flash "saved" message briefly
	saveErr error // non-nil if last save failed
}

func (a App) updateSettingsKey(key string) (tea.Model, tea.Cmd, bool) {
	switch key {
	case "j", "down":
		if a.settings.cursor < settingsFieldCount-1 {
			a.settings.cursor++
		}
	case "k", "up":
		if a.settings.cursor > 0 {
			a.settings.cursor--
		}
	case "enter":
		m, cmd := a.settingsStartEdit()
		return m, cmd, true
	default:
		return a, nil, false
	}
	return a, nil, true
}

func (a App) settingsStartEdit() (tea.Model, tea.Cmd) {
	cfg := loadConfigOrDefault()
	a.settings.editing = true
	a.settings.saved = false

	ti := textinput.New()
	ti.CharLimit = 256
	ti.Width = 50

	switch a.settings.cursor {
	case settingsFieldDataDir:
		ti.Placeholder = config.DefaultDataDir()
		ti.SetValue(cfg.General.DataDir)
	case settingsFieldDefaultTrip:
		ti.Placeholder = "trip id (empty for all trips)"
		ti.SetValue(cfg.General.DefaultTrip)
	case settingsFieldDefaultView:
		ti.Placeholder = "category or subcategory"
		ti.SetValue(cfg.General.DefaultView)
	case settingsFieldTheme:
		ti.Placeholder = strings.Join(theme.Names(), ", ")
		ti.SetValue(cfg.Appearance.Theme)
	case settingsFieldBaseURL:
		ti.Placeholder = "https://api.example.com/v1"
		ti.SetValue(cfg.Backend.BaseURL)
	case settingsFieldAPIToken:
		ti.Placeholder = "token"
		ti.EchoMode = textinput.EchoPassword
		ti.EchoCharacter = '*'
		ti.SetValue(config.GetAPIToken(cfg))
	}

	ti.Focus()
	a.settings.input = ti
	return a, ti.Cursor.BlinkCmd()
}

func (a App) updateSettingsInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		cmd := a.settingsSave()
		a.settings.editing = false
		a.settings.saved = a.settings.saveErr == nil
		return a, cmd
	case "esc":
		a.settings.editing = false
		return a, nil
	}

	var cmd tea.Cmd
	a.settings.input, cmd = a.settings.input.Update(msg)
	return a, cmd
}

// settingsSave persists the edited field. Changes that affect the current
// view are applied immediately.
func (a *App) settingsSave() tea.Cmd {
	cfg := loadConfigOrDefault()
	val := strings.TrimSpace(a.settings.input.Value())
	var cmd tea.Cmd

	switch a.settings.cursor {
	case settingsFieldDataDir:
		cfg.General.DataDir = val
	case settingsFieldDefaultTrip:
		cfg.General.DefaultTrip = val
	case settingsFieldDefaultView:
		v := pipeline.ParseView(val)
		cfg.General.DefaultView = v.String()
		a.view = v
		cmd = a.recompute()
	case settingsFieldTheme:
		for _, name := range theme.Names() {
			if name == val {
				cfg.Appearance.Theme = val
				theme.SetActive(val)
				break
			}
		}
	case settingsFieldBaseURL:
		cfg.Backend.BaseURL = val
	case settingsFieldAPIToken:
		cfg.Backend.APIToken = val
	}

	a.settings.saveErr = config.Save(cfg)
	return cmd
}

func maskToken(tok string) string {
	switch {
	case tok == "":
		return "(not set)"
	case len(tok) > 12:
		return tok[:4] + "..." + tok[len(tok)-4:]
	default:
		return "****"
	}
}

func orUnset(s string) string {
	if s == "" {
		return "(not set)"
	}
	return s
}

func (a App) renderSettingsTab(cw int) string {
	t := theme.Active
	cfg := loadConfigOrDefault()

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	selectedStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.SurfaceBright).Bold(true)
	selectedLabelStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.SurfaceBright).Bold(true)
	accentStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface)
	greenStyle := lipgloss.NewStyle().Foreground(t.GreenBright).Background(t.Surface)
	markerStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.SurfaceBright)

	fields := []struct{ label, value string }{
		{"Data directory", orUnset(cfg.General.DataDir)},
		{"Default trip", orUnset(cfg.General.DefaultTrip)},
		{"Default view", cfg.General.DefaultView},
		{"Theme", cfg.Appearance.Theme},
		{"Backend URL", orUnset(config.GetBaseURL(cfg))},
		{"API token", maskToken(config.GetAPIToken(cfg))},
	}

	innerW := components.CardInnerWidth(cw)
	var form strings.Builder
	for i, f := range fields {
		if a.settings.editing && i == a.settings.cursor {
			form.WriteString(markerStyle.Render("▸ "))
			form.WriteString(accentStyle.Render(fmt.Sprintf("%-18s ", f.label)))
			form.WriteString(a.settings.input.View())
			form.WriteString("\n")
			continue
		}

		if i == a.settings.cursor {
			marker := markerStyle.Render("▸ ")
			label := selectedLabelStyle.Render(fmt.Sprintf("%-18s ", f.label+":"))
			value := selectedStyle.Render(f.value)
			form.WriteString(marker + label + value)
			if pad := innerW - lipgloss.Width(marker) - lipgloss.Width(label) - lipgloss.Width(value); pad > 0 {
				form.WriteString(lipgloss.NewStyle().Background(t.SurfaceBright).Render(strings.Repeat(" ", pad)))
			}
		} else {
			form.WriteString(lipgloss.NewStyle().Background(t.Surface).Render("  "))
			form.WriteString(labelStyle.Render(fmt.Sprintf("%-18s ", f.label+":")))
			form.WriteString(valueStyle.Render(f.value))
		}
		form.WriteString("\n")
	}

	if a.settings.saveErr != nil {
		form.WriteString("\n")
		form.WriteString(lipgloss.NewStyle().Foreground(t.Orange).Background(t.Surface).
			Render(fmt.Sprintf("Save failed: %s", a.settings.saveErr)))
	} else if a.settings.saved {
		form.WriteString("\n")
		form.WriteString(greenStyle.Render("Saved!"))
	}
	form.WriteString("\n")
	form.WriteString(labelStyle.Render("[j/k] navigate  [Enter] edit  [Esc] cancel"))

	source := a.dataDir
	if source == "" {
		source = "backend API"
	}
	var info strings.Builder
	info.WriteString(labelStyle.Render("Reading from:   ") + valueStyle.Render(source) + "\n")
	info.WriteString(labelStyle.Render("Trips loaded:   ") + valueStyle.Render(fmt.Sprintf("%d (%s)", len(a.snap.Trips.Trips), a.snap.Trips.Status)) + "\n")
	info.WriteString(labelStyle.Render("Expenses:       ") + valueStyle.Render(fmt.Sprintf("%d", len(a.snap.Expenses))) + "\n")
	info.WriteString(labelStyle.Render("Load time:      ") + valueStyle.Render(fmt.Sprintf("%.1fs", a.loadTime.Seconds())) + "\n")
	info.WriteString(labelStyle.Render("Config file:    ") + valueStyle.Render(config.ConfigPath()))

	return components.ContentCard("Settings", form.String(), cw) + "\n" +
		components.ContentCard("General", info.String(), cw)
}
