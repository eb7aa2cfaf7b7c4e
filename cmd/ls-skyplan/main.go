// Command ls-skyplan plans telescope observations: when targets can be
// observed from a dome tonight or across a semester.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jonboulle/clockwork"
	"golang.org/x/term"

	"github.com/litescript/ls-skyplan/internal/astro"
	"github.com/litescript/ls-skyplan/internal/config"
	"github.com/litescript/ls-skyplan/internal/ephem"
	"github.com/litescript/ls-skyplan/internal/logging"
	"github.com/litescript/ls-skyplan/internal/metrics"
	"github.com/litescript/ls-skyplan/internal/state"
	"github.com/litescript/ls-skyplan/internal/ui"
	"github.com/litescript/ls-skyplan/internal/version"
	"github.com/litescript/ls-skyplan/internal/visibility"
)

// CLI flags for headless mode
var (
	summaryMode bool
	csvPath     string
	jsonPath    string
	eventsMode  bool
	includeRows bool
	semesterID  string
)

const (
	defaultRefresh = 5 * time.Minute
	minRefresh     = 30 * time.Second
	maxRefresh     = time.Hour

	// Bright stars planned when no -target is given
	defaultTargetCount = 8
)

// targetList collects repeated -target flags.
type targetList []visibility.Target

func (l *targetList) String() string {
	if l == nil {
		return ""
	}
	names := make([]string, len(*l))
	for i, t := range *l {
		names[i] = t.Name
	}
	return strings.Join(names, ", ")
}

func (l *targetList) Set(s string) error {
	t, err := visibility.ParseTarget(s)
	if err != nil {
		return err
	}
	*l = append(*l, t)
	return nil
}

func main() {
	// Parse flags
	var targets targetList
	configPath := flag.String("config", "", "TOML site configuration file")
	flag.Var(&targets, "target", "Target as name=RA,Dec or a bright star name (repeatable)")
	dateStr := flag.String("date", "", "Night to plan as YYYY-MM-DD (default: tonight)")
	flag.StringVar(&semesterID, "semester", "", "Plan every night of a semester, e.g. 2025A")
	domeName := flag.String("dome", "", "Dome to plan for (default from config)")
	step := flag.Duration("step", 0, "Sampling interval, e.g. 5m (default from config)")
	flag.BoolVar(&summaryMode, "summary", false, "Print text summary instead of TUI")
	flag.StringVar(&csvPath, "csv", "", "Export CSV to file (use - for stdout)")
	flag.StringVar(&jsonPath, "json", "", "Export JSON to file (use - for stdout)")
	flag.BoolVar(&includeRows, "rows", false, "Include every sample in JSON output")
	flag.BoolVar(&eventsMode, "events", false, "Show observability transitions")
	tuiMode := flag.Bool("tui", false, "Open the terminal night view even when stdout is not a TTY")
	refresh := flag.Duration("refresh", defaultRefresh, "Night view recompute interval")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error)")
	metricsAddr := flag.String("metrics-addr", "", "Serve Prometheus metrics on this address, e.g. :9090")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("ls-skyplan v%s\n", version.Version)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if *metricsAddr != "" {
		cfg.MetricsAddr = *metricsAddr
	}
	if *step > 0 {
		cfg.Step = *step
	}
	dome := string(cfg.DefaultDome)
	if *domeName != "" {
		dome = *domeName
	}

	// Validate refresh interval
	if *refresh < minRefresh {
		*refresh = minRefresh
	} else if *refresh > maxRefresh {
		*refresh = maxRefresh
	}

	// Set up logging
	logger := logging.New(logging.ParseLevel(cfg.LogLevel))

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	m := metrics.NewMetrics()
	if cfg.MetricsAddr != "" {
		go serveMetrics(ctx, cfg.MetricsAddr, m, logger.With("metrics"))
	}

	clock := clockwork.NewRealClock()
	planner, cache, err := newPlanner(cfg, dome, m, logger, clock)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if len(targets) == 0 {
		targets = defaultTargets()
		logger.Info("No -target given, planning %s", targets.String())
	}

	date := planner.Tonight()
	if *dateStr != "" {
		date, err = time.Parse("2006-01-02", *dateStr)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: invalid -date %q: %v\n", *dateStr, err)
			os.Exit(1)
		}
	}

	headless := summaryMode || csvPath != "" || jsonPath != "" || eventsMode || semesterID != ""
	if !headless && (*tuiMode || term.IsTerminal(int(os.Stdout.Fd()))) {
		// Log lines would tear the alt screen; errors reach the UI instead
		logger.SetOutput(io.Discard)
		loop := &computeLoop{
			planner: planner,
			cache:   cache,
			clock:   clock,
			targets: targets,
			logger:  logger,
		}
		if err := runTUI(ctx, cfg, dome, loop, *refresh); err != nil {
			fmt.Fprintf(os.Stderr, "Error running TUI: %v\n", err)
			os.Exit(1)
		}
		return
	}
	if !headless {
		summaryMode = true
	}

	if err := runHeadless(ctx, cfg, dome, planner, targets, date); err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}
}

// newPlanner wires the ephemeris, cache and metrics into a planner for the
// named dome. The cache is returned so long-running callers can drop it.
func newPlanner(cfg *config.Config, dome string, m *metrics.Metrics, logger *logging.Logger, clock clockwork.Clock) (*visibility.Planner, *ephem.CachedProvider, error) {
	geometry, err := cfg.Dome(dome)
	if err != nil {
		return nil, nil, err
	}

	provider := ephem.NewCachedProvider(ephem.NewMeeusProvider(), m.RecordCacheLookup)
	planner, err := visibility.NewPlanner(visibility.Config{
		Location:   cfg.Site,
		Dome:       geometry,
		Provider:   provider,
		Step:       cfg.Step,
		Twilight:   cfg.Twilight,
		AirMass:    cfg.AirMassModel(),
		Resolution: cfg.Resolution,
		Workers:    cfg.Workers,
		Logger:     logger,
		Metrics:    m,
		Clock:      clock,
	})
	if err != nil {
		return nil, nil, err
	}
	return planner, provider, nil
}

func defaultTargets() targetList {
	stars := astro.BrightStars()
	if len(stars) > defaultTargetCount {
		stars = stars[:defaultTargetCount]
	}
	out := make(targetList, len(stars))
	for i, s := range stars {
		out[i] = visibility.Target{Name: s.Name, RADeg: s.RAdeg, DecDeg: s.DecDeg}
	}
	return out
}

func serveMetrics(ctx context.Context, addr string, m *metrics.Metrics, logger *logging.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("Serving metrics on %s/metrics", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Metrics server failed: %v", err)
	}
}

func runTUI(ctx context.Context, cfg *config.Config, dome string, loop *computeLoop, refresh time.Duration) error {
	geometry, err := cfg.Dome(dome)
	if err != nil {
		return err
	}

	stateCfg := state.DefaultConfig()
	stateCfg.RefreshInterval = refresh
	stateCfg.Clock = loop.clock
	loop.state = state.NewManager(stateCfg)

	// Create TUI model
	model := ui.New(loop.state, ui.Options{
		Location:   cfg.Site,
		DomeName:   dome,
		Dome:       geometry,
		Instrument: cfg.Instrument,
		Clock:      loop.clock,
	})

	// Create Bubble Tea program
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	loop.send = p.Send

	// Start compute loop in background
	go loop.run(ctx)

	// Run TUI (blocks until quit)
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return nil
}

// computeLoop replans the night in progress for the terminal view.
type computeLoop struct {
	planner *visibility.Planner
	cache   *ephem.CachedProvider
	clock   clockwork.Clock
	targets []visibility.Target
	state   *state.Manager
	send    func(tea.Msg)
	logger  *logging.Logger

	date time.Time // night of the last compute
}

func (c *computeLoop) run(ctx context.Context) {
	// Compute immediately
	c.compute(ctx)

	ticker := c.clock.NewTicker(c.state.RefreshInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.logger.Debug("Compute loop shutting down")
			return
		case <-ticker.Chan():
			c.compute(ctx)
		}
	}
}

// compute plans the night in progress. After local noon the next night
// takes over and the ephemeris cache of the previous one is dropped.
func (c *computeLoop) compute(ctx context.Context) {
	began := c.clock.Now()
	date := c.planner.Tonight()
	if !c.date.IsZero() && !date.Equal(c.date) {
		c.logger.Debug("Night rolled over to %s, clearing ephemeris cache", date.Format("2006-01-02"))
		c.cache.Invalidate()
	}
	c.date = date
	c.logger.Debug("Computing night of %s for %d targets...", date.Format("2006-01-02"), len(c.targets))

	nights, events, err := c.planner.Plan(ctx, c.targets, date)
	took := c.clock.Since(began)
	if err != nil {
		c.logger.Error("Compute failed: %v", err)
		c.state.Update(date, nil, nil, took, err)
		c.send(ui.ErrorMsg{Error: err})
		return
	}

	c.logger.Debug("Compute complete: %d nights, %d transitions in %v", len(nights), len(events), took)
	c.state.Update(date, nights, events, took, nil)
	c.send(ui.DataUpdateMsg{Snapshot: c.state.Snapshot()})
}

// runHeadless handles all headless modes without starting TUI.
func runHeadless(ctx context.Context, cfg *config.Config, dome string, planner *visibility.Planner, targets []visibility.Target, date time.Time) error {
	if semesterID != "" {
		return runSemester(ctx, cfg, planner, targets)
	}

	nights, events, err := planner.Plan(ctx, targets, date)
	if err != nil {
		return fmt.Errorf("plan night of %s: %w", date.Format("2006-01-02"), err)
	}

	// Export JSON if requested
	if jsonPath != "" {
		export := visibility.ExportPlan(cfg.Site, dome, date, nights, events, includeRows)
		if err := writeOutput(jsonPath, func(w io.Writer) error {
			return visibility.WriteJSON(w, export)
		}); err != nil {
			return fmt.Errorf("write JSON: %w", err)
		}
	}

	// CSV holds the transitions with -events, otherwise every sample
	if csvPath != "" {
		if err := writeOutput(csvPath, func(w io.Writer) error {
			if eventsMode {
				return visibility.WriteEventsCSV(w, events)
			}
			return visibility.WriteNightCSV(w, nights...)
		}); err != nil {
			return fmt.Errorf("write CSV: %w", err)
		}
	}

	// Print summary table if requested
	if summaryMode {
		visibility.WriteSummaryTable(os.Stdout, cfg.Site, nights, planner.Now())
	}

	// Events log
	if eventsMode && csvPath == "" {
		if summaryMode {
			fmt.Println()
		}
		writeEvents(os.Stdout, events)
	}
	return nil
}

func runSemester(ctx context.Context, cfg *config.Config, planner *visibility.Planner, targets []visibility.Target) error {
	if _, err := visibility.ParseSemester(semesterID); err != nil {
		return err
	}

	semesters := make([]*visibility.SemesterVisibility, 0, len(targets))
	for _, t := range targets {
		sv, err := planner.SemesterVisibility(ctx, t, semesterID)
		if err != nil {
			return fmt.Errorf("plan %s for %s: %w", semesterID, t.Name, err)
		}
		semesters = append(semesters, sv)
	}

	if jsonPath != "" {
		exports := make([]visibility.SemesterExport, len(semesters))
		for i, sv := range semesters {
			exports[i] = visibility.ExportSemester(sv, includeRows)
		}
		if err := writeOutput(jsonPath, func(w io.Writer) error {
			return visibility.WriteJSON(w, exports)
		}); err != nil {
			return fmt.Errorf("write JSON: %w", err)
		}
	}

	if csvPath != "" {
		if err := writeOutput(csvPath, func(w io.Writer) error {
			return visibility.WriteSemesterCSV(w, semesters...)
		}); err != nil {
			return fmt.Errorf("write CSV: %w", err)
		}
	}

	if summaryMode || (jsonPath == "" && csvPath == "") {
		writeSemesterSummary(os.Stdout, cfg.Site, semesters)
	}
	return nil
}

// writeOutput runs write against stdout for "-" or a freshly created file.
func writeOutput(path string, write func(io.Writer) error) error {
	if path == "-" {
		return write(os.Stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
