package visibility

import (
	"errors"
	"fmt"
	"math"
	"runtime"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/litescript/ls-skyplan/internal/astro"
	"github.com/litescript/ls-skyplan/internal/ephem"
	"github.com/litescript/ls-skyplan/internal/logging"
	"github.com/litescript/ls-skyplan/internal/metrics"
	"github.com/litescript/ls-skyplan/internal/site"
)

const (
	// DefaultStep is the sampling interval within a night.
	DefaultStep = 10 * time.Minute

	// DefaultResolution is the precision of refined transitions.
	DefaultResolution = time.Minute
)

// Config holds the planner inputs. Location, Dome and Provider are
// required; everything else has a default.
type Config struct {
	Location   astro.GeoLocation
	Dome       site.DomeGeometry
	Provider   ephem.Provider
	Step       time.Duration
	Twilight   ephem.Twilight
	AirMass    astro.AirMassModel // secant when nil
	Resolution time.Duration
	Workers    int // semester and multi-target fan-out, NumCPU when zero
	Logger     *logging.Logger
	Metrics    *metrics.Metrics // optional
	Clock      clockwork.Clock
}

// Planner evaluates targets for one site and dome. It is safe for
// concurrent use.
type Planner struct {
	loc        astro.GeoLocation
	dome       site.DomeGeometry
	provider   ephem.Provider
	step       time.Duration
	twilight   ephem.Twilight
	airMass    astro.AirMassModel
	resolution time.Duration
	workers    int
	log        *logging.Logger
	metrics    *metrics.Metrics
	clock      clockwork.Clock
}

// NewPlanner validates cfg and fills in defaults.
func NewPlanner(cfg Config) (*Planner, error) {
	if cfg.Provider == nil {
		return nil, errors.New("planner: ephemeris provider is required")
	}
	if err := cfg.Dome.Validate(); err != nil {
		return nil, fmt.Errorf("planner: %w", err)
	}
	if math.IsNaN(cfg.Location.LatDeg) || math.Abs(cfg.Location.LatDeg) > 90 {
		return nil, fmt.Errorf("planner: latitude %v out of range", cfg.Location.LatDeg)
	}

	p := &Planner{
		loc:        cfg.Location,
		dome:       cfg.Dome,
		provider:   cfg.Provider,
		step:       cfg.Step,
		twilight:   cfg.Twilight,
		airMass:    cfg.AirMass,
		resolution: cfg.Resolution,
		workers:    cfg.Workers,
		log:        cfg.Logger,
		metrics:    cfg.Metrics,
		clock:      cfg.Clock,
	}
	if p.step <= 0 {
		p.step = DefaultStep
	}
	if p.airMass == nil {
		p.airMass = astro.SecantModel{}
	}
	if p.resolution <= 0 {
		p.resolution = DefaultResolution
	}
	if p.workers <= 0 {
		p.workers = runtime.NumCPU()
	}
	if p.log == nil {
		p.log = logging.Discard()
	}
	p.log = p.log.With("planner")
	if p.clock == nil {
		p.clock = clockwork.NewRealClock()
	}
	return p, nil
}

// Step returns the sampling interval.
func (p *Planner) Step() time.Duration { return p.step }

// Location returns the site.
func (p *Planner) Location() astro.GeoLocation { return p.loc }

// Now reads the planner clock.
func (p *Planner) Now() time.Time { return p.clock.Now() }

// Row is one evaluated instant.
type Row struct {
	Time       time.Time
	AzDeg      float64
	AltDeg     float64
	AirMass    float64 // NaN at or below the horizon
	Observable bool
	Reasons    []site.BlockReason

	MoonAzDeg        float64
	MoonAltDeg       float64
	MoonIllumination float64
	MoonPhaseDeg     float64
	LunarAngleDeg    float64
	MoonIrradiance   float64 // zero unless both moon and target are up

	HourAngleDeg   float64
	ParallacticDeg float64
}

// Evaluate computes the target's position, observability and lunar
// conditions at t.
func (p *Planner) Evaluate(target Target, t time.Time) (Row, error) {
	az, alt := astro.RADecToAzAlt(target.RADeg, target.DecDeg, t, p.loc)
	c := site.Classify(alt, az, p.dome)

	pos, err := p.provider.MoonPosition(t, p.loc.LatDeg, p.loc.LonDeg)
	if err != nil {
		return Row{}, p.ephemerisError("moon position", err)
	}
	ill, err := p.provider.MoonIllumination(t)
	if err != nil {
		return Row{}, p.ephemerisError("moon illumination", err)
	}

	// The provider measures azimuth from south; turn it north-based after
	// converting to degrees.
	moonAz := math.Mod(pos.Azimuth*180/math.Pi+180, 360)
	if moonAz < 0 {
		moonAz += 360
	}
	moonAlt := pos.Altitude * 180 / math.Pi

	row := Row{
		Time:             t,
		AzDeg:            az,
		AltDeg:           alt,
		AirMass:          math.NaN(),
		Observable:       c.Observable,
		Reasons:          c.Reasons,
		MoonAzDeg:        moonAz,
		MoonAltDeg:       moonAlt,
		MoonIllumination: ill.Fraction,
		MoonPhaseDeg:     ill.PhaseAngleDeg,
		LunarAngleDeg:    astro.AngularSeparation(az, alt, moonAz, moonAlt),
		HourAngleDeg:     astro.HourAngle(target.RADeg, t, p.loc),
		ParallacticDeg:   astro.ParallacticAngle(target.RADeg, target.DecDeg, t, p.loc),
	}
	if alt > 0 {
		row.AirMass = p.airMass.AirMass(alt)
	}
	if alt > 0 && moonAlt > 0 {
		row.MoonIrradiance = astro.MoonIrradiance(row.LunarAngleDeg, 90-moonAlt, 90-alt, ill.PhaseAngleDeg)
	}

	if p.metrics != nil {
		p.metrics.SamplesEvaluated.Inc()
	}
	return row, nil
}

// classify is the geometry-only part of Evaluate.
func (p *Planner) classify(target Target, t time.Time) site.Classification {
	az, alt := astro.RADecToAzAlt(target.RADeg, target.DecDeg, t, p.loc)
	return site.Classify(alt, az, p.dome)
}

func (p *Planner) ephemerisError(op string, err error) error {
	if p.metrics != nil {
		p.metrics.EphemerisErrors.Inc()
	}
	if errors.Is(err, ephem.ErrUnavailable) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, ephem.ErrUnavailable, err)
}

// Night is one dusk-to-dawn series for a target.
type Night struct {
	Target       Target
	Date         time.Time // local calendar date the night begins on
	Sun          ephem.SunTimes
	Start, End   time.Time // observing window, zero when the sun never sets
	Step         time.Duration
	Rows         []Row
	VisibleHours float64
}

// ObservableCount returns the number of observable samples.
func (n *Night) ObservableCount() int {
	count := 0
	for _, r := range n.Rows {
		if r.Observable {
			count++
		}
	}
	return count
}

// Night samples target from dusk to dawn of the night beginning on date.
// An unresolved target or a night without darkness gives a night with no
// rows.
func (p *Planner) Night(target Target, date time.Time) (*Night, error) {
	y, m, d := date.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	n := &Night{Target: target, Date: day, Step: p.step}

	if !target.Resolved() {
		p.log.Debug("%s: unresolved position, skipping %s", target.Name, day.Format("2006-01-02"))
		return n, nil
	}

	began := p.clock.Now()

	sun, err := p.provider.SunTimes(day, p.loc.LatDeg, p.loc.LonDeg)
	if err != nil {
		return nil, p.ephemerisError("sun times", err)
	}
	n.Sun = sun

	start, end, ok := sun.Window(p.twilight)
	if !ok {
		p.log.Debug("%s: no dark window", day.Format("2006-01-02"))
		return n, nil
	}
	n.Start, n.End = start, end

	first := start.Truncate(p.step)
	if first.Before(start) {
		first = first.Add(p.step)
	}
	last := end.Truncate(p.step)

	for t := first; !t.After(last); t = t.Add(p.step) {
		row, err := p.Evaluate(target, t)
		if err != nil {
			return nil, err
		}
		n.Rows = append(n.Rows, row)
	}

	n.VisibleHours = float64(n.ObservableCount()) * p.step.Minutes() / 60

	if p.metrics != nil {
		p.metrics.NightsComputed.Inc()
		p.metrics.ObservableHours.Observe(n.VisibleHours)
		p.metrics.NightDuration.Observe(p.clock.Since(began).Seconds())
	}
	p.log.Debug("%s %s: %d samples, %.2f h visible",
		target.Name, day.Format("2006-01-02"), len(n.Rows), n.VisibleHours)
	return n, nil
}

// NightOf returns the date of the night in progress at t: before local
// solar noon that is the previous calendar day.
func (p *Planner) NightOf(t time.Time) time.Time {
	local := t.UTC().Add(time.Duration(p.loc.LonDeg / 15 * float64(time.Hour)))
	if local.Hour() < 12 {
		local = local.AddDate(0, 0, -1)
	}
	y, m, d := local.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Tonight returns the date of the night in progress, or next to begin, on
// the planner clock.
func (p *Planner) Tonight() time.Time {
	return p.NightOf(p.clock.Now())
}
