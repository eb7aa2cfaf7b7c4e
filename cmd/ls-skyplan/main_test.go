package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/litescript/ls-skyplan/internal/config"
	"github.com/litescript/ls-skyplan/internal/logging"
	"github.com/litescript/ls-skyplan/internal/metrics"
	"github.com/litescript/ls-skyplan/internal/site"
	"github.com/litescript/ls-skyplan/internal/state"
	"github.com/litescript/ls-skyplan/internal/ui"
	"github.com/litescript/ls-skyplan/internal/visibility"
)

func TestTargetList(t *testing.T) {
	var l targetList
	require.NoError(t, l.Set("M42=05:35:17.3,-05:23:28"))
	require.NoError(t, l.Set("vega"))
	assert.Error(t, l.Set("nowhere"))

	require.Len(t, l, 2)
	assert.Equal(t, "M42", l[0].Name)
	assert.InDelta(t, 83.822, l[0].RADeg, 0.001)
	assert.Equal(t, "Vega", l[1].Name)
	assert.Equal(t, "M42, Vega", l.String())
}

func TestDefaultTargets(t *testing.T) {
	targets := defaultTargets()
	require.Len(t, targets, defaultTargetCount)
	assert.Equal(t, "Sirius", targets[0].Name)
	for _, tgt := range targets {
		assert.True(t, tgt.Resolved(), tgt.Name)
	}
}

func TestWriteEvents(t *testing.T) {
	var buf bytes.Buffer
	writeEvents(&buf, nil)
	assert.Contains(t, buf.String(), "No observability changes")

	buf.Reset()
	at := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	writeEvents(&buf, []visibility.Transition{
		{Target: "Vega", Instant: at, Status: visibility.Emerging, Reasons: []site.BlockReason{site.DeckBlocking}},
		{Target: "Rigel", Instant: at.Add(time.Hour), Status: visibility.Occluding},
	})
	out := buf.String()
	assert.Contains(t, out, "2024-03-01 09:30:00  Vega")
	assert.Contains(t, out, "emerging")
	assert.Contains(t, out, "deck_blocking")
	assert.Contains(t, out, "occluding  -")
}

func TestWriteSemesterSummary(t *testing.T) {
	d := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	sv := &visibility.SemesterVisibility{
		ID:     "2024A",
		Target: visibility.Target{Name: "Vega"},
		Nights: []*visibility.Night{
			{Date: d, VisibleHours: 0},
			{Date: d.AddDate(0, 0, 1), VisibleHours: 2.5},
			{Date: d.AddDate(0, 0, 2), VisibleHours: 1},
		},
	}

	var buf bytes.Buffer
	writeSemesterSummary(&buf, site.DefaultLocation, []*visibility.SemesterVisibility{sv})
	out := buf.String()
	assert.Contains(t, out, "Mauna Kea")
	assert.Contains(t, out, "Vega")
	assert.Contains(t, out, "2024-02-02 (2.50 h)")
	assert.Contains(t, out, "3.50")
}

func TestWriteOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	require.NoError(t, writeOutput(path, func(w io.Writer) error {
		_, err := io.WriteString(w, "a,b\n")
		return err
	}))
	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "a,b\n", string(got))

	boom := errors.New("boom")
	err = writeOutput(filepath.Join(t.TempDir(), "x"), func(io.Writer) error { return boom })
	assert.ErrorIs(t, err, boom)

	err = writeOutput(filepath.Join(t.TempDir(), "missing", "x"), func(io.Writer) error { return nil })
	assert.Error(t, err)
}

func TestComputeLoop_RollsOverNight(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	m := metrics.NewMetricsForTesting()
	clock := clockwork.NewFakeClockAt(time.Date(2024, 3, 2, 8, 0, 0, 0, time.UTC))
	planner, cache, err := newPlanner(cfg, string(cfg.DefaultDome), m, logging.Discard(), clock)
	require.NoError(t, err)
	assert.Equal(t, clock.Now(), planner.Now())

	var sent []tea.Msg
	sirius := defaultTargets()[:1]
	loop := &computeLoop{
		planner: planner,
		cache:   cache,
		clock:   clock,
		targets: sirius,
		state:   state.NewManager(state.Config{MaxEvents: 10, RefreshInterval: time.Minute, Clock: clock}),
		send:    func(msg tea.Msg) { sent = append(sent, msg) },
		logger:  logging.Discard(),
	}
	sunMisses := func() float64 {
		return testutil.ToFloat64(m.EphemerisCache.WithLabelValues("sun", "miss"))
	}

	loop.compute(context.Background())
	first := planner.Tonight()
	assert.Equal(t, first, loop.date)
	assert.Equal(t, 1.0, sunMisses())

	// Same night again is served from the cache
	loop.compute(context.Background())
	assert.Equal(t, 1.0, sunMisses())

	clock.Advance(24 * time.Hour)
	loop.compute(context.Background())
	assert.Equal(t, first.AddDate(0, 0, 1), loop.date)
	assert.Equal(t, 2.0, sunMisses())

	// The previous night was dropped from the cache on rollover
	_, err = planner.Night(sirius[0], first)
	require.NoError(t, err)
	assert.Equal(t, 3.0, sunMisses())

	require.Len(t, sent, 3)
	update, ok := sent[2].(ui.DataUpdateMsg)
	require.True(t, ok, "got %T", sent[2])
	assert.Equal(t, loop.date, update.Snapshot.Date)
	require.Len(t, update.Snapshot.Nights, 1)
}
