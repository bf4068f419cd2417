// Package tui provides the interactive Bubble Tea dashboard for tripspend.
package tui

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/theirongolddev/tripspend/internal/config"
	"github.com/theirongolddev/tripspend/internal/logging"
	"github.com/theirongolddev/tripspend/internal/model"
	"github.com/theirongolddev/tripspend/internal/pipeline"
	"github.com/theirongolddev/tripspend/internal/reconcile"
	"github.com/theirongolddev/tripspend/internal/tui/components"
	"github.com/theirongolddev/tripspend/internal/tui/theme"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/sirupsen/logrus"
)

// DataLoadedMsg is sent when the first snapshot finishes loading.
type DataLoadedMsg struct {
	Snapshot model.Snapshot
	LoadTime time.Duration
	Err      error
}

// ProgressMsg reports file parsing progress.
type ProgressMsg struct {
	Current int
	Total   int
}

// RefreshDataMsg is sent when a background refresh completes.
type RefreshDataMsg struct {
	Snapshot model.Snapshot
	LoadTime time.Duration
	Err      error
}

// Options configures a new App.
type Options struct {
	Source         pipeline.Source
	DataDir        string // shown in settings; empty for a backend source
	SelectedTripID string
	View           pipeline.View
	AutoRefresh    bool
	Interval       time.Duration
}

// App is the root Bubble Tea model.
type App struct {
	src     pipeline.Source
	dataDir string

	// Data
	snap     model.Snapshot
	loaded   bool
	loadTime time.Duration
	loadErr  error

	// Auto-refresh state
	autoRefresh     bool
	refreshInterval time.Duration
	lastRefresh     time.Time
	refreshing      bool

	// Pre-computed for the current selection and view
	res     reconcile.Result
	summary model.SpendSummary
	budget  *model.BudgetStatus
	cats    []model.CategoryTotal
	days    []model.DailySpend
	trips   []tripRow

	selected   string
	view       pipeline.View
	notice     string
	cleanupKey string // orphan set already answered with a forced reload

	// UI state
	width     int
	height    int
	activeTab int
	showHelp  bool

	// Per-tab state
	groups   groupsState
	tripsTab tripsState
	settings settingsState

	// First-run setup (huh form)
	setupForm *huh.Form
	setupVals *setupValues // shared with the form across model copies
	needSetup bool

	// Loading, with channel-based progress subscription
	spinner     spinner.Model
	progress    int
	progressMax int
	loadSub     chan tea.Msg
}

const (
	minTerminalWidth = 80
	compactWidth     = 120
	maxContentWidth  = 180

	minContentHeight = 5
	dailyChartDays   = 30
)

// loadConfigOrDefault loads config, returning defaults on error.
func loadConfigOrDefault() config.Config {
	cfg, err := config.Load()
	if err != nil {
		logging.Log.WithError(err).Debug("config unreadable, using defaults")
		return config.DefaultConfig()
	}
	return cfg
}

// NewApp creates a new TUI app model.
func NewApp(opts Options) App {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Active.Accent).Background(theme.Active.Surface)

	interval := opts.Interval
	if interval < 10*time.Second {
		interval = 30 * time.Second
	}

	return App{
		src:             opts.Source,
		dataDir:         opts.DataDir,
		selected:        opts.SelectedTripID,
		view:            opts.View,
		needSetup:       !config.Exists(),
		autoRefresh:     opts.AutoRefresh,
		refreshInterval: interval,
		spinner:         sp,
		loadSub:         make(chan tea.Msg, 1),
	}
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	return tea.Batch(
		tea.EnableMouseCellMotion,
		loadDataCmd(a.src, a.loadSub),
		a.spinner.Tick,
		tickCmd(),
	)
}

// recompute reconciles the current snapshot for the current selection.
// When the pass asks for cleanup it returns a forced reload, at most once
// per distinct orphan set.
func (a *App) recompute() tea.Cmd {
	now := time.Now()

	res := reconcile.ReconcileSnapshot(a.snap, a.selected)
	sig := res.Signal
	key := res.CleanupKey()
	if sig.SelectionReset {
		if sig.SuggestedTripID != "" {
			a.notice = fmt.Sprintf("Trip %s no longer exists; showing %s", a.selected, a.tripLabel(sig.SuggestedTripID))
		} else {
			a.notice = fmt.Sprintf("Trip %s no longer exists; showing all trips", a.selected)
		}
		a.selected = sig.SuggestedTripID
		res = reconcile.ReconcileSnapshot(a.snap, a.selected)
	}

	a.res = res
	a.summary = pipeline.Summarize(res)
	expenses := res.Expenses()
	a.cats = pipeline.SortedTotals(pipeline.AggregateCategories(expenses, a.view))
	a.days = a.dailySeries(expenses)
	a.trips = buildTripRows(a.snap, now)

	a.budget = nil
	if st, ok := pipeline.ComputeBudgetStatus(a.snap.Expenses, a.snap.Trips.Trips, a.selected, a.snap.Budget(a.selected), now); ok {
		a.budget = &st
	}

	a.groups.clamp(len(a.visibleGroups()))
	a.tripsTab.clamp(len(a.trips))

	if !sig.CleanupNeeded {
		if res.Authoritative {
			a.cleanupKey = ""
		}
		return nil
	}
	if key == a.cleanupKey || a.refreshing {
		return nil
	}
	a.cleanupKey = key
	a.refreshing = true
	logging.Log.WithFields(logrus.Fields{
		"missing":  res.Orphans.MissingTripIDs(),
		"by_label": len(res.Orphans.ByDescription),
	}).Info("orphaned expenses, forcing reload")
	return refreshDataCmd(a.src, true)
}

// dailySeries returns per-day spend oldest first. A selected trip shows its
// whole date range; otherwise the most recent active days are shown.
func (a App) dailySeries(expenses []model.Expense) []model.DailySpend {
	var days []model.DailySpend
	if trip, ok := a.selectedTrip(); ok && !trip.StartDate.IsZero() && !trip.EndDate.Before(trip.StartDate) {
		days = pipeline.AggregateDays(expenses, model.CalendarDay(trip.StartDate), model.CalendarDay(trip.EndDate).AddDate(0, 0, 1))
	} else {
		days = pipeline.AggregateDays(expenses, time.Time{}, time.Time{})
		if len(days) > dailyChartDays {
			days = days[:dailyChartDays]
		}
	}
	// AggregateDays is most recent first.
	for i, j := 0, len(days)-1; i < j; i, j = i+1, j-1 {
		days[i], days[j] = days[j], days[i]
	}
	return days
}

func (a App) selectedTrip() (model.Trip, bool) {
	if a.selected == "" {
		return model.Trip{}, false
	}
	return reconcile.NewTripIndex(a.snap.Trips.Trips).Get(a.selected)
}

func (a App) tripLabel(id string) string {
	if t, ok := reconcile.NewTripIndex(a.snap.Trips.Trips).Get(id); ok {
		return t.Label()
	}
	return id
}

// selectTrip changes the selection and recomputes. Empty selects all trips.
func (a *App) selectTrip(id string) tea.Cmd {
	a.selected = id
	a.notice = ""
	a.groups.cursor = 0
	a.groups.expanded = false
	return a.recompute()
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		if a.setupForm != nil {
			a.setupForm = a.setupForm.WithWidth(msg.Width).WithHeight(msg.Height)
		}
		return a, nil

	case tea.MouseMsg:
		return a.updateMouse(msg)

	case tea.KeyMsg:
		return a.updateKey(msg)

	case DataLoadedMsg:
		a.loaded = true
		a.loadTime = msg.LoadTime
		a.lastRefresh = time.Now()
		a.loadErr = msg.Err
		if msg.Err != nil {
			a.notice = "Load failed: " + msg.Err.Error()
			return a, nil
		}
		a.snap = msg.Snapshot
		cmd := a.recompute()

		// Activate first-run setup after data loads
		if a.needSetup {
			a.setupVals = &setupValues{dataDir: a.dataDir, trip: a.selected, view: a.view.String(), theme: theme.Active.Name}
			a.setupForm = newSetupForm(a.snap.Trips.Trips, a.setupVals)
			if a.width > 0 {
				a.setupForm = a.setupForm.WithWidth(a.width).WithHeight(a.height)
			}
			return a, tea.Batch(cmd, a.setupForm.Init())
		}
		return a, cmd

	case ProgressMsg:
		a.progress = msg.Current
		a.progressMax = msg.Total
		return a, waitForLoadMsg(a.loadSub)

	case spinner.TickMsg:
		if !a.loaded {
			var cmd tea.Cmd
			a.spinner, cmd = a.spinner.Update(msg)
			return a, cmd
		}
		return a, nil

	case tickMsg:
		cmds := []tea.Cmd{tickCmd()}
		if a.loaded && a.autoRefresh && !a.refreshing && time.Since(a.lastRefresh) >= a.refreshInterval {
			a.refreshing = true
			cmds = append(cmds, refreshDataCmd(a.src, false))
		}
		return a, tea.Batch(cmds...)

	case RefreshDataMsg:
		a.refreshing = false
		a.lastRefresh = time.Now()
		a.loadErr = msg.Err
		if msg.Err != nil {
			a.notice = "Refresh failed: " + msg.Err.Error()
			return a, nil
		}
		a.snap = msg.Snapshot
		a.loadTime = msg.LoadTime
		cmd := a.recompute()
		return a, cmd
	}

	// Forward unhandled messages to the setup form (cursor blinks, etc.)
	if a.needSetup && a.setupForm != nil {
		return a.updateSetupForm(msg)
	}

	return a, nil
}

func (a App) updateMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if !a.loaded || a.showHelp || (a.needSetup && a.setupForm != nil) {
		return a, nil
	}

	switch msg.Button {
	case tea.MouseButtonWheelUp:
		switch a.activeTab {
		case components.TabGroups:
			a.groups.move(-1, len(a.visibleGroups()))
		case components.TabTrips:
			a.tripsTab.move(-1, len(a.trips))
		}
	case tea.MouseButtonWheelDown:
		switch a.activeTab {
		case components.TabGroups:
			a.groups.move(1, len(a.visibleGroups()))
		case components.TabTrips:
			a.tripsTab.move(1, len(a.trips))
		}
	case tea.MouseButtonLeft:
		// Tab bar is the first line.
		if msg.Y == 0 && msg.Action == tea.MouseActionPress {
			if tab := a.tabAtX(msg.X); tab >= 0 {
				a.activeTab = tab
			}
		}
	}
	return a, nil
}

func (a App) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if key == "ctrl+c" {
		return a, tea.Quit
	}
	if !a.loaded {
		return a, nil
	}

	// First-run setup wizard intercepts all keys
	if a.needSetup && a.setupForm != nil {
		return a.updateSetupForm(msg)
	}
	if a.activeTab == components.TabSettings && a.settings.editing {
		return a.updateSettingsInput(msg)
	}
	if a.activeTab == components.TabGroups && a.groups.searching {
		return a.updateGroupsSearch(msg)
	}

	if key == "?" {
		a.showHelp = !a.showHelp
		return a, nil
	}
	if a.showHelp {
		a.showHelp = false
		return a, nil
	}

	switch a.activeTab {
	case components.TabGroups:
		if m, cmd, ok := a.updateGroupsKey(key); ok {
			return m, cmd
		}
	case components.TabTrips:
		if m, cmd, ok := a.updateTripsKey(key); ok {
			return m, cmd
		}
	case components.TabSettings:
		if m, cmd, ok := a.updateSettingsKey(key); ok {
			return m, cmd
		}
	}

	switch key {
	case "q":
		return a, tea.Quit
	case "r":
		// Manual refresh bypasses cached budgets and parsed files.
		if !a.refreshing {
			a.refreshing = true
			return a, refreshDataCmd(a.src, true)
		}
		return a, nil
	case "R":
		a.autoRefresh = !a.autoRefresh
		return a, nil
	case "v":
		if a.view == pipeline.ViewCategory {
			a.view = pipeline.ViewSubcategory
		} else {
			a.view = pipeline.ViewCategory
		}
		cmd := a.recompute()
		return a, cmd
	case "esc":
		a.notice = ""
		return a, nil
	case "left", "shift+tab":
		a.activeTab = (a.activeTab - 1 + len(components.Tabs)) % len(components.Tabs)
		return a, nil
	case "right", "tab":
		a.activeTab = (a.activeTab + 1) % len(components.Tabs)
		return a, nil
	}

	if r := []rune(key); len(r) == 1 {
		if idx := components.TabIdxByKey(r[0]); idx >= 0 {
			a.activeTab = idx
		}
	}
	return a, nil
}

func (a App) updateSetupForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := a.setupForm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.setupForm = f
	}

	switch a.setupForm.State {
	case huh.StateCompleted:
		if err := a.saveSetupConfig(); err != nil {
			a.notice = "Could not save config: " + err.Error()
		}
		a.needSetup = false
		a.setupForm = nil
		cmd = a.selectTrip(a.setupVals.trip)
		return a, cmd
	case huh.StateAborted:
		a.needSetup = false
		a.setupForm = nil
		return a, nil
	}
	return a, cmd
}

func (a App) contentWidth() int {
	cw := a.width
	if cw > maxContentWidth {
		cw = maxContentWidth
	}
	return cw
}

func (a App) isCompactLayout() bool {
	return a.contentWidth() < compactWidth
}

// View implements tea.Model.
func (a App) View() string {
	if a.width == 0 {
		return ""
	}
	if a.width < minTerminalWidth {
		return a.viewTooNarrow()
	}
	if !a.loaded {
		return a.viewLoading()
	}
	if a.needSetup && a.setupForm != nil {
		return a.setupForm.View()
	}
	if a.showHelp {
		return a.viewHelp()
	}
	return a.viewMain()
}

func (a App) viewTooNarrow() string {
	h := a.height
	if h < 5 {
		h = 5
	}
	msg := fmt.Sprintf(
		"\n  Terminal too narrow (%d cols)\n\n  tripspend needs at least %d columns.\n",
		a.width,
		minTerminalWidth,
	)
	return padHeight(truncateHeight(msg, h), h)
}

func (a App) viewLoading() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(2, 4)
	logoStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	subtitleStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	countStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)

	var b strings.Builder
	b.WriteString(logoStyle.Render("◈ tripspend"))
	b.WriteString(subtitleStyle.Render(" · Trip Spending"))
	b.WriteString("\n\n")

	if a.progressMax > 0 {
		barW := 40
		if barW > a.width-30 {
			barW = a.width - 30
		}
		if barW < 20 {
			barW = 20
		}
		pct := float64(a.progress) / float64(a.progressMax)
		b.WriteString(a.spinner.View())
		b.WriteString(subtitleStyle.Render(" Reading expense files\n\n"))
		b.WriteString(components.ProgressBar(pct, barW))
		b.WriteString("\n")
		b.WriteString(countStyle.Render(strconv.Itoa(a.progress)))
		b.WriteString(subtitleStyle.Render(" / "))
		b.WriteString(countStyle.Render(strconv.Itoa(a.progressMax)))
	} else {
		b.WriteString(a.spinner.View())
		b.WriteString(subtitleStyle.Render(" Loading trips and expenses..."))
	}

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(b.String()),
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewHelp() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(1, 3)
	titleStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	sectionStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	keyStyle := lipgloss.NewStyle().Foreground(t.Cyan).Background(t.Surface).Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	sections := []struct {
		title    string
		bindings [][2]string
	}{
		{"Navigation", [][2]string{
			{"o g c t x", "Jump to tab"},
			{"← → Tab", "Previous / Next tab"},
			{"j k", "Navigate lists"},
		}},
		{"Actions", [][2]string{
			{"Enter", "Expand group / Select trip"},
			{"a", "Show all trips (Trips tab)"},
			{"/", "Search expenses (Groups tab)"},
			{"v", "Toggle category / activity view"},
			{"r", "Reload everything"},
			{"R", "Toggle auto-refresh"},
			{"Esc", "Dismiss notice / Cancel"},
			{"q", "Quit"},
		}},
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("◈ Keyboard Shortcuts"))
	b.WriteString("\n")
	for _, sec := range sections {
		b.WriteString("\n")
		b.WriteString(sectionStyle.Render(sec.title))
		b.WriteString("\n")
		for _, bind := range sec.bindings {
			fmt.Fprintf(&b, "  %s  %s\n",
				keyStyle.Render(fmt.Sprintf("%-10s", bind[0])),
				descStyle.Render(bind[1]))
		}
	}
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Press any key to close"))

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(b.String()),
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewMain() string {
	t := theme.Active
	w := a.width
	cw := a.contentWidth()

	// Header: tab bar + filter pill
	pillStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	accentStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)

	scope := "All trips"
	if a.selected != "" {
		scope = a.tripLabel(a.selected)
	}
	filterStr := pillStyle.Render(" ") + accentStyle.Render(scope) +
		pillStyle.Render(" │ by ") + accentStyle.Render(a.view.String())
	if q := a.groups.query; q != "" {
		filterStr += pillStyle.Render(" │ search ") + accentStyle.Render(q)
	}
	header := components.RenderTabBar(a.activeTab, w) + "\n" +
		lipgloss.NewStyle().Background(t.Surface).Width(w).Render(filterStr)

	if a.notice != "" {
		header += "\n" + lipgloss.NewStyle().Foreground(t.Yellow).Background(t.Background).Width(w).
			Render(" ⚠ "+a.notice+"  (esc to dismiss)")
	}

	statusBar := components.RenderStatusBar(w, components.StatusInfo{
		DataAge:     fmt.Sprintf("%.1fs", a.loadTime.Seconds()),
		FetchStatus: a.snap.Trips.Status.String(),
		Refreshing:  a.refreshing,
		AutoRefresh: a.autoRefresh,
	})

	contentH := a.height - lipgloss.Height(header) - lipgloss.Height(statusBar)
	if contentH < minContentHeight {
		contentH = minContentHeight
	}

	var content string
	switch a.activeTab {
	case components.TabOverview:
		content = a.renderOverviewTab(cw)
	case components.TabGroups:
		content = a.renderGroupsTab(cw)
	case components.TabCategories:
		content = a.renderCategoriesTab(cw)
	case components.TabTrips:
		content = a.renderTripsTab(cw)
	case components.TabSettings:
		content = a.renderSettingsTab(cw)
	}

	content = padHeight(truncateHeight(content, contentH), contentH)
	content = fillLinesWithBackground(content, cw, t.Background)
	content = lipgloss.Place(w, contentH, lipgloss.Center, lipgloss.Top, content,
		lipgloss.WithWhitespaceBackground(t.Background))

	output := lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)
	return lipgloss.Place(w, a.height, lipgloss.Left, lipgloss.Top, output,
		lipgloss.WithWhitespaceBackground(t.Background))
}

// ─── Helpers ────────────────────────────────────────────────────

// tripRow is one line of the Trips tab.
type tripRow struct {
	Trip   model.Trip
	Spent  float64
	Budget *model.BudgetStatus
}

func buildTripRows(snap model.Snapshot, now time.Time) []tripRow {
	byID := make(map[string]model.BudgetStatus)
	for _, st := range pipeline.AllBudgetStatuses(snap, now) {
		byID[st.TripID] = st
	}
	rows := make([]tripRow, 0, len(snap.Trips.Trips))
	for _, tr := range snap.Trips.Trips {
		row := tripRow{Trip: tr}
		if st, ok := byID[tr.ID]; ok {
			row.Spent = st.ActualSpent
			if st.TotalBudget > 0 {
				row.Budget = &st
			}
		}
		rows = append(rows, row)
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Trip.StartDate.After(rows[j].Trip.StartDate)
	})
	return rows
}

type tickMsg struct{}

func tickCmd() tea.Cmd {
	return tea.Tick(250*time.Millisecond, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

// loadDataCmd loads the first snapshot in a background goroutine.
// It streams ProgressMsg updates and a final DataLoadedMsg through sub.
func loadDataCmd(src pipeline.Source, sub chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		go func() {
			start := time.Now()

			if ds, ok := src.(pipeline.DirSource); ok {
				// Non-blocking send so workers aren't stalled; the next update catches up.
				ds.Progress = func(current, total int) {
					select {
					case sub <- ProgressMsg{Current: current, Total: total}:
					default:
					}
				}
				src = ds
			}

			snap, err := src.Snapshot(context.Background(), false)
			sub <- DataLoadedMsg{Snapshot: snap, LoadTime: time.Since(start), Err: err}
		}()

		// Block until the first message (either ProgressMsg or DataLoadedMsg)
		return <-sub
	}
}

// waitForLoadMsg blocks until the next message arrives from the loader goroutine.
func waitForLoadMsg(sub chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return <-sub
	}
}

// refreshDataCmd reloads the snapshot in the background (no progress UI).
func refreshDataCmd(src pipeline.Source, force bool) tea.Cmd {
	return func() tea.Msg {
		start := time.Now()
		snap, err := src.Snapshot(context.Background(), force)
		return RefreshDataMsg{Snapshot: snap, LoadTime: time.Since(start), Err: err}
	}
}

// chartDateLabels builds compact X-axis labels for a chronological day series.
// First label and month boundaries: month abbreviation. Everything else: day number.
func chartDateLabels(days []model.DailySpend) []string {
	labels := make([]string, len(days))
	prevMonth := time.Month(0)
	for i, d := range days {
		m := d.Date.Month()
		switch {
		case i == 0, m != prevMonth && i != len(days)-1:
			labels[i] = d.Date.Format("Jan")
		default:
			labels[i] = strconv.Itoa(d.Date.Day())
		}
		prevMonth = m
	}
	return labels
}

func truncStr(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}

func truncateHeight(s string, limit int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= limit {
		return s
	}
	return strings.Join(lines[:limit], "\n")
}

func padHeight(s string, h int) string {
	lines := strings.Split(s, "\n")
	if len(lines) >= h {
		return s
	}
	return s + strings.Repeat("\n", h-len(lines))
}

// fillLinesWithBackground pads each line to width w with background color.
func fillLinesWithBackground(s string, w int, bg lipgloss.Color) string {
	lines := strings.Split(s, "\n")

	var result strings.Builder
	for i, line := range lines {
		result.WriteString(lipgloss.PlaceHorizontal(w, lipgloss.Left, line,
			lipgloss.WithWhitespaceBackground(bg)))
		if i < len(lines)-1 {
			result.WriteString("\n")
		}
	}
	return result.String()
}

// tabAtX returns the tab index at the given X coordinate, or -1 if none.
func (a App) tabAtX(x int) int {
	pos := 0
	for i, tab := range components.Tabs {
		tabW := components.TabVisualWidth(tab, i == a.activeTab)
		if x >= pos && x < pos+tabW {
			return i
		}
		pos += tabW + 1 // separator
	}
	return -1
}
