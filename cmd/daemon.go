package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/theirongolddev/tripspend/internal/cli"
	"github.com/theirongolddev/tripspend/internal/config"
	"github.com/theirongolddev/tripspend/internal/daemon"
	"github.com/theirongolddev/tripspend/internal/logging"
	"github.com/theirongolddev/tripspend/internal/pipeline"

	"github.com/spf13/cobra"
)

// daemonState is written to the state file while a daemon runs. Its
// presence with a live PID is what "running" means.
type daemonState struct {
	PID       int       `json:"pid"`
	Addr      string    `json:"addr"`
	StartedAt time.Time `json:"started_at"`
	Source    string    `json:"source"`
	TripID    string    `json:"trip_id,omitempty"`
}

var (
	flagDaemonAddr         string
	flagDaemonInterval     time.Duration
	flagDaemonDetach       bool
	flagDaemonStateFile    string
	flagDaemonLogFile      string
	flagDaemonEventsBuffer int
	flagDaemonChild        bool
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Reconcile in the background and serve results over HTTP/SSE",
	RunE:  runDaemon,
}

var daemonStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the running daemon's reconciliation state",
	RunE:  runDaemonStatus,
}

var daemonStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running daemon",
	RunE:  runDaemonStop,
}

func init() {
	daemonCmd.PersistentFlags().StringVar(&flagDaemonAddr, "addr", "", "HTTP listen address (default from config)")
	daemonCmd.PersistentFlags().DurationVar(&flagDaemonInterval, "interval", 0, "Polling interval (default from config)")
	daemonCmd.PersistentFlags().StringVar(&flagDaemonStateFile, "state-file", filepath.Join(pipeline.CacheDir(), "tripspendd.json"), "Daemon state file")
	daemonCmd.PersistentFlags().StringVar(&flagDaemonLogFile, "log-file", filepath.Join(pipeline.CacheDir(), "tripspendd.log"), "Log file for --detach")
	daemonCmd.PersistentFlags().IntVar(&flagDaemonEventsBuffer, "events-buffer", 0, "Events kept in memory (default from config)")

	daemonCmd.Flags().BoolVar(&flagDaemonDetach, "detach", false, "Start the daemon in the background")
	daemonCmd.Flags().BoolVar(&flagDaemonChild, "child", false, "Internal: running as the detached child")
	_ = daemonCmd.Flags().MarkHidden("child")

	daemonCmd.AddCommand(daemonStatusCmd, daemonStopCmd)
	rootCmd.AddCommand(daemonCmd)
}

// applyDaemonConfig fills daemon flags the user did not set from config.
func applyDaemonConfig() {
	if flagDaemonAddr == "" {
		flagDaemonAddr = appCfg.Daemon.Addr
	}
	if flagDaemonInterval == 0 {
		flagDaemonInterval = time.Duration(appCfg.Daemon.IntervalSec) * time.Second
	}
	if flagDaemonEventsBuffer == 0 {
		flagDaemonEventsBuffer = appCfg.Daemon.EventsBuffer
	}
}

func daemonSourceName() string {
	if flagRemote {
		return config.GetBaseURL(appCfg)
	}
	return flagDataDir
}

func runDaemon(_ *cobra.Command, _ []string) error {
	applyDaemonConfig()
	if st, ok := liveDaemon(flagDaemonStateFile); ok {
		return fmt.Errorf("daemon already running (pid %d on %s)", st.PID, st.Addr)
	}
	if flagDaemonDetach && !flagDaemonChild {
		return detachDaemon()
	}

	src, err := newSource()
	if err != nil {
		return err
	}

	st := daemonState{
		PID:       os.Getpid(),
		Addr:      flagDaemonAddr,
		StartedAt: time.Now(),
		Source:    daemonSourceName(),
		TripID:    flagTrip,
	}
	if err := writeDaemonState(flagDaemonStateFile, st); err != nil {
		return err
	}
	defer func() { _ = os.Remove(flagDaemonStateFile) }()

	cfg := daemon.Config{
		SelectedTripID: flagTrip,
		Source:         src,
		Interval:       flagDaemonInterval,
		Addr:           flagDaemonAddr,
		EventsBuffer:   flagDaemonEventsBuffer,
	}
	if !flagRemote {
		cfg.DataDir = flagDataDir
	}
	svc := daemon.New(cfg)
	logging.UseTimestamps()

	fmt.Printf("  tripspend daemon on http://%s, polling %s every %s\n", flagDaemonAddr, st.Source, flagDaemonInterval)
	if st.TripID != "" {
		fmt.Printf("  Following trip %s\n", st.TripID)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := svc.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// detachDaemon re-executes the current command line as a background child
// whose output goes to the daemon log file.
func detachDaemon() error {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolve executable: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(flagDaemonLogFile), 0o750); err != nil {
		return fmt.Errorf("create daemon log directory: %w", err)
	}
	//nolint:gosec // log path is configured by the local user
	logf, err := os.OpenFile(flagDaemonLogFile, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("open daemon log: %w", err)
	}
	defer func() { _ = logf.Close() }()

	child := exec.Command(exe, append(os.Args[1:], "--child")...) //nolint:gosec // re-exec of our own binary
	child.Stdout, child.Stderr = logf, logf
	child.Env = os.Environ()
	if err := child.Start(); err != nil {
		return fmt.Errorf("start daemon: %w", err)
	}

	fmt.Printf("  Daemon started (pid %d), logging to %s\n", child.Process.Pid, flagDaemonLogFile)
	fmt.Printf("  Check it with: tripspend daemon status\n")
	return nil
}

func runDaemonStatus(_ *cobra.Command, _ []string) error {
	applyDaemonConfig()
	st, ok := liveDaemon(flagDaemonStateFile)
	if !ok {
		fmt.Println("  Daemon: not running")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	var status daemon.Status
	if err := getDaemonJSON(ctx, st.Addr, "/v1/status", &status); err != nil {
		fmt.Printf("  Daemon pid %d on %s\n", st.PID, st.Addr)
		fmt.Println("  " + cli.RenderError("API unreachable: "+err.Error()))
		return nil
	}
	var events []daemon.Event
	if err := getDaemonJSON(ctx, st.Addr, "/v1/events", &events); err != nil {
		logging.Log.WithError(err).Debug("daemon events unavailable")
	}

	fmt.Println()
	fmt.Println(cli.RenderTable(cli.Table{
		Title:   "Daemon",
		Headers: []string{"Field", "Value"},
		Rows:    daemonStatusRows(st, status, events),
	}))
	return nil
}

// daemonStatusRows lays out the daemon's last reconcile pass for display.
func daemonStatusRows(st daemonState, status daemon.Status, events []daemon.Event) [][]string {
	sum := status.Summary
	lastPoll := "pending"
	if !status.LastPollAt.IsZero() {
		lastPoll = status.LastPollAt.Local().Format("2006-01-02 15:04:05")
	}
	fetch := orDash(sum.FetchStatus)
	if sum.FetchStatus != "" && !sum.Authoritative {
		fetch = cli.RenderWarning(fetch)
	}

	rows := [][]string{
		{"PID", fmt.Sprintf("%d", st.PID)},
		{"Address", "http://" + st.Addr},
		{"Source", st.Source},
		{"Up Since", st.StartedAt.Local().Format("2006-01-02 15:04:05")},
		{"Last Poll", lastPoll},
		{"Polls", cli.FormatNumber(status.PollCount)},
		{"---"},
		{"Trip Fetch", fetch},
		{"Trips", cli.FormatNumber(int64(sum.Trips))},
		{"Expenses", cli.FormatNumber(int64(sum.Expenses))},
		{"Spent", cli.FormatAmount(sum.TotalAmount)},
	}
	if ev, ok := lastSpendDelta(events); ok {
		prev := ev.Snapshot.TotalAmount - ev.Delta.TotalAmount
		rows = append(rows, []string{"Last Change", cli.FormatDelta(ev.Snapshot.TotalAmount, prev) +
			" at " + ev.Timestamp.Local().Format("15:04:05")})
	}
	if status.SelectedTripID != "" {
		rows = append(rows, []string{"Trip", status.SelectedTripID})
	}
	if b := status.Budget; b != nil && b.TotalBudget > 0 {
		rows = append(rows, []string{"Budget", fmt.Sprintf("%s of %s (%s, %s)",
			cli.FormatAmount(b.ActualSpent), cli.FormatAmount(b.TotalBudget),
			cli.FormatPercent(b.PercentageUsed), b.WarningTier)})
	}
	if n := sum.OrphanedByID + sum.OrphanedByDescription; n > 0 {
		rows = append(rows, []string{"Orphans", cli.FormatNumber(int64(n))})
	}
	if sum.CleanupNeeded {
		rows = append(rows, []string{"Cleanup", cli.RenderWarning("needed")})
	}
	if status.LastError != "" {
		rows = append(rows, []string{"Last Error", cli.RenderError(cli.Truncate(status.LastError, 48))})
	}
	return rows
}

// lastSpendDelta returns the newest spend_delta event.
func lastSpendDelta(events []daemon.Event) (daemon.Event, bool) {
	for i := len(events) - 1; i >= 0; i-- {
		if events[i].Type == daemon.EventSpendDelta {
			return events[i], true
		}
	}
	return daemon.Event{}, false
}

func runDaemonStop(_ *cobra.Command, _ []string) error {
	st, ok := liveDaemon(flagDaemonStateFile)
	if !ok {
		return errors.New("daemon is not running")
	}
	if err := syscall.Kill(st.PID, syscall.SIGTERM); err != nil {
		return fmt.Errorf("signal daemon (pid %d): %w", st.PID, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer cancel()
	tick := time.NewTicker(150 * time.Millisecond)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("daemon (pid %d) did not exit in time", st.PID)
		case <-tick.C:
			if !pidAlive(st.PID) {
				_ = os.Remove(flagDaemonStateFile)
				fmt.Printf("  Stopped daemon (pid %d)\n", st.PID)
				return nil
			}
		}
	}
}

func getDaemonJSON(ctx context.Context, addr, path string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://"+addr+path, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: HTTP %d", path, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

// liveDaemon reads the state file and reports whether its process is alive.
// A state file left behind by a dead process is removed.
func liveDaemon(path string) (daemonState, bool) {
	//nolint:gosec // state path is configured by the local user
	data, err := os.ReadFile(path)
	if err != nil {
		return daemonState{}, false
	}
	var st daemonState
	if err := json.Unmarshal(data, &st); err != nil || st.PID <= 0 {
		logging.Log.WithField("path", path).Warn("ignoring malformed daemon state file")
		return daemonState{}, false
	}
	if !pidAlive(st.PID) {
		_ = os.Remove(path)
		return daemonState{}, false
	}
	return st, true
}

func writeDaemonState(path string, st daemonState) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create daemon state directory: %w", err)
	}
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o600)
}

func pidAlive(pid int) bool {
	err := syscall.Kill(pid, syscall.Signal(0))
	return err == nil || errors.Is(err, syscall.EPERM)
}
