package visibility

import (
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/litescript/ls-skyplan/internal/astro"
	"github.com/litescript/ls-skyplan/internal/ephem"
	"github.com/litescript/ls-skyplan/internal/metrics"
	"github.com/litescript/ls-skyplan/internal/site"
)

// fakeProvider serves a fixed night (nautical dusk 04:00 to dawn 16:00 UTC)
// and a moon that never moves.
type fakeProvider struct {
	mu      sync.Mutex
	err     error
	noNight bool
	moon    ephem.MoonPosition
	calls   int
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{moon: ephem.MoonPosition{Azimuth: 0, Altitude: -0.2}}
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) MoonPosition(time.Time, float64, float64) (ephem.MoonPosition, error) {
	if f.err != nil {
		return ephem.MoonPosition{}, f.err
	}
	return f.moon, nil
}

func (f *fakeProvider) MoonIllumination(time.Time) (ephem.MoonIllumination, error) {
	if f.err != nil {
		return ephem.MoonIllumination{}, f.err
	}
	return ephem.MoonIllumination{Fraction: 0.5, PhaseAngleDeg: 90}, nil
}

func (f *fakeProvider) SunTimes(date time.Time, _, _ float64) (ephem.SunTimes, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.err != nil {
		return ephem.SunTimes{}, f.err
	}
	if f.noNight {
		return ephem.SunTimes{}, nil
	}
	return ephem.SunTimes{
		Sunset:       date.Add(3 * time.Hour),
		CivilDusk:    date.Add(3*time.Hour + 30*time.Minute),
		NauticalDusk: date.Add(4 * time.Hour),
		NauticalDawn: date.Add(16 * time.Hour),
		CivilDawn:    date.Add(16*time.Hour + 30*time.Minute),
		Sunrise:      date.Add(17 * time.Hour),
	}, nil
}

var testDate = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

func newTestPlanner(t *testing.T, p ephem.Provider, mutate ...func(*Config)) *Planner {
	t.Helper()
	cfg := Config{
		Location: site.DefaultLocation,
		Dome:     site.KnownDomes[site.DomeMain],
		Provider: p,
		Workers:  4,
	}
	for _, m := range mutate {
		m(&cfg)
	}
	pl, err := NewPlanner(cfg)
	require.NoError(t, err)
	return pl
}

// transitingTarget is an equatorial target on the meridian at offset into
// the test night.
func transitingTarget(name string, offset time.Duration) Target {
	mid := testDate.Add(offset)
	return Target{Name: name, RADeg: astro.LocalSiderealTime(mid, site.DefaultLocation.LonDeg), DecDeg: 0}
}

func TestNewPlanner(t *testing.T) {
	_, err := NewPlanner(Config{Dome: site.KnownDomes[site.DomeMain]})
	assert.Error(t, err, "missing provider")

	_, err = NewPlanner(Config{Provider: newFakeProvider(), Dome: site.DomeGeometry{R1: 40, R3: 30, TrackLimit: 85, AzMax: 1}})
	assert.ErrorIs(t, err, site.ErrInvalidGeometry)

	_, err = NewPlanner(Config{Provider: newFakeProvider(), Dome: site.KnownDomes[site.DomeMain], Location: astro.GeoLocation{LatDeg: 91}})
	assert.Error(t, err)

	p := newTestPlanner(t, newFakeProvider())
	assert.Equal(t, DefaultStep, p.Step())
	assert.Equal(t, site.DefaultLocation, p.Location())
}

func TestEvaluate_MoonConventions(t *testing.T) {
	fp := newFakeProvider()
	p := newTestPlanner(t, fp)
	target := transitingTarget("meridian", 10*time.Hour)

	row, err := p.Evaluate(target, testDate.Add(10*time.Hour))
	require.NoError(t, err)

	// Provider azimuth 0 is south
	assert.InDelta(t, 180, row.MoonAzDeg, 1e-9)
	assert.InDelta(t, -0.2*180/math.Pi, row.MoonAltDeg, 1e-9)
	assert.Zero(t, row.MoonIrradiance, "moon below horizon")
	assert.Equal(t, 0.5, row.MoonIllumination)

	assert.True(t, row.Observable)
	assert.Empty(t, row.Reasons)
	assert.InDelta(t, 90-site.DefaultLocation.LatDeg, row.AltDeg, 1e-6)
	assert.InDelta(t, astro.AirMass(row.AltDeg), row.AirMass, 1e-12)
	assert.InDelta(t, 0, row.ParallacticDeg, 1e-6)

	fp.moon = ephem.MoonPosition{Azimuth: math.Pi / 2, Altitude: 0.5}
	row, err = p.Evaluate(target, testDate.Add(10*time.Hour))
	require.NoError(t, err)
	assert.InDelta(t, 270, row.MoonAzDeg, 1e-9)
	assert.Greater(t, row.MoonIrradiance, 0.0)
	assert.InDelta(t, astro.AngularSeparation(row.AzDeg, row.AltDeg, row.MoonAzDeg, row.MoonAltDeg), row.LunarAngleDeg, 1e-12)
}

func TestEvaluate_BelowHorizonAirMass(t *testing.T) {
	p := newTestPlanner(t, newFakeProvider())
	// Twelve hours from transit the target is far below the horizon
	target := transitingTarget("set", -2*time.Hour)

	row, err := p.Evaluate(target, testDate.Add(10*time.Hour))
	require.NoError(t, err)
	assert.Less(t, row.AltDeg, 0.0)
	assert.True(t, math.IsNaN(row.AirMass))
	assert.False(t, row.Observable)
	assert.Contains(t, row.Reasons, site.BelowHorizon)
}

func TestEvaluate_SphericalAirMass(t *testing.T) {
	model := astro.SphericalModel{ElevationKm: site.DefaultLocation.ElevationKm()}
	p := newTestPlanner(t, newFakeProvider(), func(c *Config) { c.AirMass = model })
	target := transitingTarget("meridian", 10*time.Hour)

	row, err := p.Evaluate(target, testDate.Add(10*time.Hour))
	require.NoError(t, err)
	assert.InDelta(t, model.AirMass(row.AltDeg), row.AirMass, 1e-12)
}

func TestNight_Grid(t *testing.T) {
	p := newTestPlanner(t, newFakeProvider())
	n, err := p.Night(transitingTarget("meridian", 10*time.Hour), testDate.Add(13*time.Hour))
	require.NoError(t, err)

	assert.Equal(t, testDate, n.Date)
	assert.Equal(t, testDate.Add(4*time.Hour), n.Start)
	assert.Equal(t, testDate.Add(16*time.Hour), n.End)

	// 04:00 through 16:00 inclusive every 10 minutes
	require.Len(t, n.Rows, 73)
	for i := 1; i < len(n.Rows); i++ {
		assert.Equal(t, DefaultStep, n.Rows[i].Time.Sub(n.Rows[i-1].Time))
	}

	count := n.ObservableCount()
	assert.Greater(t, count, 0)
	assert.Less(t, count, len(n.Rows))
	assert.Equal(t, float64(count)*10/60, n.VisibleHours)
}

func TestNight_UnalignedWindow(t *testing.T) {
	fp := &unalignedProvider{fakeProvider: newFakeProvider()}
	p := newTestPlanner(t, fp)
	n, err := p.Night(transitingTarget("meridian", 10*time.Hour), testDate)
	require.NoError(t, err)

	require.NotEmpty(t, n.Rows)
	assert.Equal(t, testDate.Add(4*time.Hour+10*time.Minute), n.Rows[0].Time)
	assert.Equal(t, testDate.Add(15*time.Hour+50*time.Minute), n.Rows[len(n.Rows)-1].Time)
}

type unalignedProvider struct{ *fakeProvider }

func (u *unalignedProvider) SunTimes(date time.Time, lat, lon float64) (ephem.SunTimes, error) {
	s, err := u.fakeProvider.SunTimes(date, lat, lon)
	s.NauticalDusk = s.NauticalDusk.Add(3 * time.Minute)
	s.NauticalDawn = s.NauticalDawn.Add(-3 * time.Minute)
	return s, err
}

func TestNight_Twilight(t *testing.T) {
	p := newTestPlanner(t, newFakeProvider(), func(c *Config) { c.Twilight = ephem.TwilightCivil })
	n, err := p.Night(transitingTarget("meridian", 10*time.Hour), testDate)
	require.NoError(t, err)
	assert.Equal(t, testDate.Add(3*time.Hour+30*time.Minute), n.Start)

	// No astronomical twilight in the fake: fall back to sunset/sunrise
	p = newTestPlanner(t, newFakeProvider(), func(c *Config) { c.Twilight = ephem.TwilightAstronomical })
	n, err = p.Night(transitingTarget("meridian", 10*time.Hour), testDate)
	require.NoError(t, err)
	assert.Equal(t, testDate.Add(3*time.Hour), n.Start)
	assert.Equal(t, testDate.Add(17*time.Hour), n.End)
}

func TestNight_NoDarkness(t *testing.T) {
	fp := newFakeProvider()
	fp.noNight = true
	p := newTestPlanner(t, fp)

	n, err := p.Night(transitingTarget("meridian", 10*time.Hour), testDate)
	require.NoError(t, err)
	assert.Empty(t, n.Rows)
	assert.Zero(t, n.VisibleHours)
	assert.True(t, n.Start.IsZero())
}

func TestNight_Unresolved(t *testing.T) {
	fp := newFakeProvider()
	p := newTestPlanner(t, fp)

	n, err := p.Night(Unresolved("mystery"), testDate)
	require.NoError(t, err)
	assert.Empty(t, n.Rows)
	assert.Zero(t, fp.calls, "no ephemeris lookups for an unresolved target")
}

func TestNight_ProviderError(t *testing.T) {
	boom := errors.New("boom")
	fp := newFakeProvider()
	fp.err = boom
	m := metrics.NewMetricsForTesting()
	p := newTestPlanner(t, fp, func(c *Config) { c.Metrics = m })

	_, err := p.Night(transitingTarget("meridian", 10*time.Hour), testDate)
	require.Error(t, err)
	assert.ErrorIs(t, err, ephem.ErrUnavailable)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EphemerisErrors))
}

func TestNight_Metrics(t *testing.T) {
	m := metrics.NewMetricsForTesting()
	p := newTestPlanner(t, newFakeProvider(), func(c *Config) { c.Metrics = m })

	n, err := p.Night(transitingTarget("meridian", 10*time.Hour), testDate)
	require.NoError(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.NightsComputed))
	assert.Equal(t, float64(len(n.Rows)), testutil.ToFloat64(m.SamplesEvaluated))
}

func TestNightOf(t *testing.T) {
	p := newTestPlanner(t, newFakeProvider())
	tests := []struct {
		name string
		at   time.Time
		want time.Time
	}{
		// Hawaii is about 10h22m behind UTC in local solar time
		{"local evening", time.Date(2024, 3, 2, 6, 0, 0, 0, time.UTC), time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
		{"local early morning", time.Date(2024, 3, 2, 14, 0, 0, 0, time.UTC), time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
		{"local afternoon", time.Date(2024, 3, 2, 23, 0, 0, 0, time.UTC), time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.NightOf(tt.at))
		})
	}
}

func TestTonight(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2024, 3, 2, 8, 0, 0, 0, time.UTC))
	p := newTestPlanner(t, newFakeProvider(), func(c *Config) { c.Clock = clock })

	assert.Equal(t, testDate, p.Tonight())

	// Past local noon the next night takes over
	clock.Advance(14 * time.Hour)
	assert.Equal(t, testDate.AddDate(0, 0, 1), p.Tonight())
}
