package cmd

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/theirongolddev/tripspend/internal/config"
	"github.com/theirongolddev/tripspend/internal/pipeline"
	"github.com/theirongolddev/tripspend/internal/source"
	"github.com/theirongolddev/tripspend/internal/tui/theme"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "First-time setup wizard",
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(_ *cobra.Command, _ []string) error {
	cfg := appCfg

	dataDir := flagDataDir
	baseURL := cfg.Backend.BaseURL
	token := ""
	view := pipeline.ParseView(cfg.General.DefaultView).String()
	themeName := cfg.Appearance.Theme

	files, _ := source.ScanDir(dataDir)

	var themeOpts []huh.Option[string]
	for _, name := range theme.Names() {
		themeOpts = append(themeOpts, huh.NewOption(name, name))
	}

	tokenDesc := "Leave blank to keep the current token."
	if cfg.Backend.APIToken == "" {
		tokenDesc = "Leave blank to skip."
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Welcome to tripspend").
				Description(fmt.Sprintf("Found %d data files in %s.", len(files), dataDir)),

			huh.NewInput().
				Title("Expense data directory").
				Value(&dataDir),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Backend URL").
				Description("Used by `sync`, `--remote` and the daemon. Leave blank for local files only.").
				Placeholder("https://api.example.com/v1").
				Validate(validateURL).
				Value(&baseURL),

			huh.NewInput().
				Title("API token").
				Description(tokenDesc).
				EchoMode(huh.EchoModePassword).
				Value(&token),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Category chart").
				Options(
					huh.NewOption("By category", pipeline.ViewCategory.String()),
					huh.NewOption("By activity", pipeline.ViewSubcategory.String()),
				).
				Value(&view),

			huh.NewSelect[string]().
				Title("Color theme").
				Options(themeOpts...).
				Value(&themeName),
		),
	)

	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			fmt.Println("  Setup cancelled, nothing saved.")
			return nil
		}
		return fmt.Errorf("setup: %w", err)
	}

	cfg.General.DataDir = strings.TrimSpace(dataDir)
	cfg.General.DefaultView = view
	cfg.Backend.BaseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if t := strings.TrimSpace(token); t != "" {
		cfg.Backend.APIToken = t
	}
	cfg.Appearance.Theme = themeName

	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Println()
	fmt.Printf("  Saved to %s\n", config.ConfigPath())
	fmt.Println("  Run `tripspend setup` anytime to reconfigure.")
	fmt.Println()
	return nil
}

func validateURL(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	u, err := url.Parse(s)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.New("expected an http(s) URL")
	}
	return nil
}
