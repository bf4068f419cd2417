package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/theirongolddev/tripspend/internal/logging"
	"github.com/theirongolddev/tripspend/internal/pipeline"
	"github.com/theirongolddev/tripspend/internal/tui"
	"github.com/theirongolddev/tripspend/internal/tui/theme"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch interactive TUI dashboard",
	RunE:  runTUI,
}

var flagTUIAutoRefresh bool

func init() {
	tuiCmd.Flags().BoolVar(&flagTUIAutoRefresh, "auto-refresh", true, "Reload data periodically")
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(_ *cobra.Command, _ []string) error {
	theme.SetActive(appCfg.Appearance.Theme)

	// Force TrueColor profile so all background styling produces ANSI codes
	// Without this, lipgloss may default to Ascii profile (no colors)
	lipgloss.SetColorProfile(termenv.TrueColor)

	// stderr belongs to the alt screen while the TUI runs.
	logging.Log.SetOutput(io.Discard)
	logPath := filepath.Join(pipeline.CacheDir(), "tui.log")
	if err := os.MkdirAll(filepath.Dir(logPath), 0o750); err == nil {
		//nolint:gosec // log path is under the user's cache dir
		if f, err := os.OpenFile(logPath, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o600); err == nil {
			defer func() { _ = f.Close() }()
			logging.Log.SetOutput(f)
		}
	}
	defer logging.Log.SetOutput(os.Stderr)

	src, err := newSource()
	if err != nil {
		return err
	}
	dataDir := flagDataDir
	if flagRemote {
		dataDir = ""
	}

	app := tui.NewApp(tui.Options{
		Source:         src,
		DataDir:        dataDir,
		SelectedTripID: flagTrip,
		View:           pipeline.ParseView(appCfg.General.DefaultView),
		AutoRefresh:    flagTUIAutoRefresh,
		Interval:       time.Duration(appCfg.Daemon.IntervalSec) * time.Second,
	})
	p := tea.NewProgram(app, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	return nil
}
