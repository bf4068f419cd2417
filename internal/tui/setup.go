package tui

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/tripspend/internal/cli"
	"github.com/theirongolddev/tripspend/internal/config"
	"github.com/theirongolddev/tripspend/internal/model"
	"github.com/theirongolddev/tripspend/internal/pipeline"
	"github.com/theirongolddev/tripspend/internal/tui/theme"

	"github.com/charmbracelet/huh"
)

// setupValues holds the form-bound values for first-run setup.
type setupValues struct {
	dataDir string
	trip    string // "" = all trips
	view    string
	theme   string
}

// newSetupForm builds the first-run wizard. Values are written into v.
func newSetupForm(trips []model.Trip, v *setupValues) *huh.Form {
	tripOpts := []huh.Option[string]{huh.NewOption("All trips", "")}
	for _, tr := range trips {
		label := tr.Label() + "  " + cli.FormatDateRange(tr.StartDate, tr.EndDate)
		tripOpts = append(tripOpts, huh.NewOption(label, tr.ID))
	}

	var themeOpts []huh.Option[string]
	for _, name := range theme.Names() {
		themeOpts = append(themeOpts, huh.NewOption(name, name))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Welcome to tripspend").
				Description(fmt.Sprintf("Found %d trips. Let's set up a few things.", len(trips))),

			huh.NewInput().
				Title("Expense data directory").
				Description("JSONL exports are read from here.").
				Placeholder(config.DefaultDataDir()).
				Value(&v.dataDir),

			huh.NewSelect[string]().
				Title("Trip to follow").
				Description("Budget and groups focus on this trip.").
				Options(tripOpts...).
				Value(&v.trip),

			huh.NewSelect[string]().
				Title("Category chart").
				Options(
					huh.NewOption("By category", pipeline.ViewCategory.String()),
					huh.NewOption("By activity", pipeline.ViewSubcategory.String()),
				).
				Value(&v.view),

			huh.NewSelect[string]().
				Title("Color theme").
				Options(themeOpts...).
				Value(&v.theme),
		),
	).WithTheme(huh.ThemeDracula()).WithShowHelp(false)
}

// saveSetupConfig applies the wizard values and writes them to disk.
func (a *App) saveSetupConfig() error {
	if a.setupVals == nil {
		return nil
	}
	v := a.setupVals
	cfg := loadConfigOrDefault()

	if dir := strings.TrimSpace(v.dataDir); dir != "" {
		cfg.General.DataDir = dir
	}
	cfg.General.DefaultTrip = v.trip

	a.view = pipeline.ParseView(v.view)
	cfg.General.DefaultView = a.view.String()

	if v.theme != "" {
		cfg.Appearance.Theme = v.theme
		theme.SetActive(v.theme)
	}

	return config.Save(cfg)
}
