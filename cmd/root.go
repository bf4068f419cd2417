package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/theirongolddev/tripspend/internal/backend"
	"github.com/theirongolddev/tripspend/internal/cli"
	"github.com/theirongolddev/tripspend/internal/config"
	"github.com/theirongolddev/tripspend/internal/logging"
	"github.com/theirongolddev/tripspend/internal/model"
	"github.com/theirongolddev/tripspend/internal/pipeline"
	"github.com/theirongolddev/tripspend/internal/reconcile"
	"github.com/theirongolddev/tripspend/internal/store"

	"github.com/spf13/cobra"
)

var (
	flagDataDir  string
	flagTrip     string
	flagNoCache  bool
	flagQuiet    bool
	flagLogLevel string
	flagRemote   bool
)

// appCfg is loaded once before any command runs.
var appCfg = config.DefaultConfig()

var rootCmd = &cobra.Command{
	Use:   "tripspend",
	Short: "Trip expense reconciliation and budgets",
	Long: "Match expenses to trips, find expenses orphaned by deleted trips,\n" +
		"and track spending against trip budgets.",
	SilenceUsage:      true,
	PersistentPreRunE: initConfig,
	RunE:              runSummary,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagDataDir, "data-dir", "d", "", "Expense data directory (default from config or "+config.DefaultDataDir()+")")
	rootCmd.PersistentFlags().StringVarP(&flagTrip, "trip", "t", "", "Select a trip by id (default from config)")
	rootCmd.PersistentFlags().BoolVar(&flagNoCache, "no-cache", false, "Skip SQLite cache, reparse everything")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress progress output")
	rootCmd.PersistentFlags().StringVarP(&flagLogLevel, "loglevel", "l", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVar(&flagRemote, "remote", false, "Read from the configured backend instead of the data directory")
}

// initConfig loads config and applies it beneath the command line flags.
func initConfig(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "  %s\n", cli.RenderWarning(err.Error()+" (using defaults)"))
	}
	appCfg = cfg

	level := flagLogLevel
	if level == "" {
		level = cfg.Log.Level
	}
	if err := logging.SetLevel(level); err != nil {
		return err
	}

	flagDataDir = config.ResolveDataDir(flagDataDir, cfg)
	if !cmd.Flags().Changed("trip") {
		flagTrip = cfg.General.DefaultTrip
	}
	return nil
}

// newBackendClient builds an API client from config.
func newBackendClient() (*backend.Client, error) {
	base := config.GetBaseURL(appCfg)
	if base == "" {
		return nil, errors.New("no backend configured; set [backend] base_url or " + config.EnvBaseURL)
	}
	return backend.NewClient(backend.Options{
		BaseURL:   base,
		Token:     config.GetAPIToken(appCfg),
		Timeout:   appCfg.Backend.Timeout(),
		RetryMax:  appCfg.Backend.RetryMax,
		BudgetTTL: appCfg.Backend.BudgetTTL(),
	})
}

// newSource returns the snapshot source used by long-running commands.
func newSource() (pipeline.Source, error) {
	if flagRemote {
		client, err := newBackendClient()
		if err != nil {
			return nil, err
		}
		return &pipeline.BackendSource{Client: client}, nil
	}
	return pipeline.DirSource{DataDir: flagDataDir, UseCache: !flagNoCache}, nil
}

// loadSnapshot is the shared data loading path used by the report commands.
// Uses the SQLite cache when available for fast subsequent runs.
func loadSnapshot() (model.Snapshot, error) {
	if flagRemote {
		return loadRemoteSnapshot()
	}

	if !flagQuiet {
		fmt.Fprintf(os.Stderr, "  Scanning %s...\n", flagDataDir)
	}

	progressFn := func(current, total int) {
		if flagQuiet {
			return
		}
		if current%50 == 0 || current == total {
			fmt.Fprintf(os.Stderr, "\r  %s", cli.RenderLoadProgress("Parsing", current, total, 20))
		}
	}

	var cache *store.Cache
	if !flagNoCache {
		c, err := store.Open(pipeline.CachePath())
		if err != nil {
			logging.Log.WithError(err).Warn("cache unavailable, doing full parse")
		} else {
			defer func() { _ = c.Close() }()
			cache = c
		}
	}

	snap, res := pipeline.LoadSnapshot(flagDataDir, cache, progressFn, time.Now())
	if !flagQuiet && res.TotalFiles > 0 {
		if cache != nil && res.Reparsed == 0 {
			fmt.Fprintf(os.Stderr, "\r  Loaded %d trips, %s expenses from cache    \n",
				len(res.Trips), cli.FormatNumber(int64(len(res.Expenses))))
		} else {
			fmt.Fprintf(os.Stderr, "\r  %d cached + %d parsed: %d trips, %s expenses    \n",
				res.CacheHits, res.Reparsed, len(res.Trips), cli.FormatNumber(int64(len(res.Expenses))))
		}
	}
	warnFetch(snap.Trips)
	return snap, nil
}

func loadRemoteSnapshot() (model.Snapshot, error) {
	src, err := newSource()
	if err != nil {
		return model.Snapshot{}, err
	}
	if !flagQuiet {
		fmt.Fprintf(os.Stderr, "  Fetching from %s...\n", config.GetBaseURL(appCfg))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	snap, err := src.Snapshot(ctx, flagNoCache)
	if err != nil {
		return snap, backendError(err)
	}
	warnFetch(snap.Trips)
	return snap, nil
}

// backendError flags a rejected API token on stderr and points at the fix.
// Other errors pass through unchanged.
func backendError(err error) error {
	if !errors.Is(err, backend.ErrUnauthorized) {
		return err
	}
	fmt.Fprintln(os.Stderr, "  "+cli.RenderError("Backend rejected the API token."))
	return fmt.Errorf("run `tripspend setup` or set %s: %w", config.EnvAPIToken, err)
}

func warnFetch(f model.TripFetch) {
	if f.Succeeded() || flagQuiet {
		return
	}
	msg := fmt.Sprintf("Trip list is %s", f.Status)
	if f.Err != nil {
		msg += ": " + f.Err.Error()
	}
	fmt.Fprintf(os.Stderr, "  %s\n", cli.RenderWarning(msg))
}

// reconcileSelected reconciles snap for --trip, following the suggested
// selection when the requested trip no longer exists.
func reconcileSelected(snap model.Snapshot) (reconcile.Result, string) {
	selected := flagTrip
	res := reconcile.ReconcileSnapshot(snap, selected)
	if res.Signal.SelectionReset {
		next := res.Signal.SuggestedTripID
		shown := "all trips"
		if next != "" {
			shown = tripLabel(snap, next)
		}
		fmt.Fprintf(os.Stderr, "  %s\n", cli.RenderWarning(
			fmt.Sprintf("Trip %s no longer exists; showing %s", selected, shown)))
		selected = next
		res = reconcile.ReconcileSnapshot(snap, selected)
	}
	return res, selected
}

func tripLabel(snap model.Snapshot, id string) string {
	if t, ok := reconcile.NewTripIndex(snap.Trips.Trips).Get(id); ok {
		return t.Label()
	}
	return id
}

func scopeTitle(snap model.Snapshot, selected string) string {
	if selected == "" {
		return "All trips"
	}
	return tripLabel(snap, selected)
}
