// Package cmd implements the tripspend CLI commands.
package cmd

import (
	"fmt"

	"github.com/theirongolddev/tripspend/internal/config"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	cfg := appCfg

	fmt.Printf("  Config file: %s\n", config.ConfigPath())
	if config.Exists() {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Println()

	fmt.Println("  [General]")
	fmt.Printf("    Data directory: %s\n", flagDataDir)
	if cfg.General.DefaultTrip != "" {
		fmt.Printf("    Default trip:   %s\n", cfg.General.DefaultTrip)
	} else {
		fmt.Println("    Default trip:   all trips")
	}
	fmt.Printf("    Default view:   %s\n", cfg.General.DefaultView)
	fmt.Println()

	fmt.Println("  [Backend]")
	if base := config.GetBaseURL(cfg); base != "" {
		fmt.Printf("    Base URL:  %s\n", base)
	} else {
		fmt.Println("    Base URL:  not configured")
	}
	if tok := config.GetAPIToken(cfg); tok != "" {
		fmt.Printf("    API token: %s\n", maskToken(tok))
	} else {
		fmt.Println("    API token: not configured")
	}
	fmt.Printf("    Timeout:   %s, %d retries\n", cfg.Backend.Timeout(), cfg.Backend.RetryMax)
	fmt.Printf("    Budget TTL: %s\n", cfg.Backend.BudgetTTL())
	fmt.Println()

	fmt.Println("  [Daemon]")
	fmt.Printf("    Address:  %s\n", cfg.Daemon.Addr)
	fmt.Printf("    Interval: %ds\n", cfg.Daemon.IntervalSec)
	fmt.Printf("    Events:   %d\n", cfg.Daemon.EventsBuffer)
	fmt.Println()

	fmt.Println("  [Appearance]")
	fmt.Printf("    Theme: %s\n", cfg.Appearance.Theme)
	fmt.Println()

	fmt.Println("  [Log]")
	fmt.Printf("    Level: %s\n", cfg.Log.Level)
	fmt.Println()

	fmt.Println("  Run `tripspend setup` to reconfigure.")
	return nil
}

func maskToken(tok string) string {
	if len(tok) > 12 {
		return tok[:4] + "..." + tok[len(tok)-4:]
	}
	if len(tok) > 4 {
		return tok[:2] + "..."
	}
	return "****"
}
