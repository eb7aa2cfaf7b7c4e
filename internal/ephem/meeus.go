package ephem

import (
	"fmt"
	"math"
	"time"

	"github.com/soniakeys/meeus/v3/coord"
	"github.com/soniakeys/meeus/v3/globe"
	"github.com/soniakeys/meeus/v3/julian"
	"github.com/soniakeys/meeus/v3/moonillum"
	"github.com/soniakeys/meeus/v3/moonposition"
	"github.com/soniakeys/meeus/v3/nutation"
	"github.com/soniakeys/meeus/v3/parallax"
	"github.com/soniakeys/meeus/v3/rise"
	"github.com/soniakeys/meeus/v3/sidereal"
	"github.com/soniakeys/meeus/v3/solar"
	"github.com/soniakeys/unit"

	"github.com/litescript/ls-skyplan/internal/astro"
)

const (
	// DefaultScanStep is the solar altitude sampling interval used to
	// bracket twilight events.
	DefaultScanStep = 10 * time.Minute

	// DefaultEventResolution is the precision of refined sun events.
	DefaultEventResolution = 30 * time.Second

	kmPerAU = 149597870.7
)

// MeeusProvider computes ephemerides with the algorithms of Meeus,
// Astronomical Algorithms. It holds no mutable state.
type MeeusProvider struct {
	ScanStep   time.Duration
	Resolution time.Duration
}

// NewMeeusProvider creates a provider with default sampling.
func NewMeeusProvider() *MeeusProvider {
	return &MeeusProvider{
		ScanStep:   DefaultScanStep,
		Resolution: DefaultEventResolution,
	}
}

// Name implements Provider.
func (p *MeeusProvider) Name() string {
	return "Meeus"
}

// MoonPosition implements Provider. The geocentric lunar position is
// corrected for parallax before conversion to horizontal coordinates.
func (p *MeeusProvider) MoonPosition(t time.Time, latDeg, lonDeg float64) (MoonPosition, error) {
	if err := checkSite(latDeg, lonDeg); err != nil {
		return MoonPosition{}, err
	}

	jd := julian.TimeToJD(t.UTC())
	λ, β, Δ := moonposition.Position(jd)
	ε := nutation.MeanObliquity(jd)
	α, δ := coord.EclToEq(λ, β, ε.Sin(), ε.Cos())

	φ := unit.AngleFromDeg(latDeg)
	ψ := unit.AngleFromDeg(-lonDeg) // meeus longitudes are positive west
	ρsφ, ρcφ := globe.Earth76.ParallaxConstants(φ, 0)
	α, δ = parallax.Topocentric(α, δ, Δ/kmPerAU, ρsφ, ρcφ, ψ, jd)

	A, h := coord.EqToHz(α, δ, φ, ψ, sidereal.Apparent(jd))
	return MoonPosition{Azimuth: A.Rad(), Altitude: h.Rad()}, nil
}

// MoonIllumination implements Provider.
func (p *MeeusProvider) MoonIllumination(t time.Time) (MoonIllumination, error) {
	if t.IsZero() {
		return MoonIllumination{}, fmt.Errorf("%w: zero time", ErrUnavailable)
	}
	// PhaseAngle3 is signed by the waxing/waning side
	i := moonillum.PhaseAngle3(julian.TimeToJD(t.UTC()))
	return MoonIllumination{
		Fraction:      (1 + math.Cos(i.Rad())) / 2,
		PhaseAngleDeg: math.Abs(i.Deg()),
	}, nil
}

// SunTimes implements Provider. Solar altitude is sampled from local noon
// of date to the following local noon and each threshold crossing is
// refined by bisection.
func (p *MeeusProvider) SunTimes(date time.Time, latDeg, lonDeg float64) (SunTimes, error) {
	if err := checkSite(latDeg, lonDeg); err != nil {
		return SunTimes{}, err
	}

	step := p.ScanStep
	if step <= 0 {
		step = DefaultScanStep
	}

	φ := unit.AngleFromDeg(latDeg)
	ψ := unit.AngleFromDeg(-lonDeg)
	altitude := func(t time.Time) float64 { return sunAltitude(t, φ, ψ) }

	y, m, d := date.Date()
	noon := time.Date(y, m, d, 12, 0, 0, 0, time.UTC).
		Add(-time.Duration(lonDeg / 15 * float64(time.Hour)))

	var samples []astro.AltitudeSample
	for t := noon; !t.After(noon.Add(24 * time.Hour)); t = t.Add(step) {
		samples = append(samples, astro.AltitudeSample{Time: t, AltDeg: altitude(t)})
	}

	var st SunTimes
	st.Sunset, st.Sunrise = p.crossings(samples, rise.Stdh0Solar.Deg(), altitude)
	st.CivilDusk, st.CivilDawn = p.crossings(samples, -TwilightCivil.DepressionDeg(), altitude)
	st.NauticalDusk, st.NauticalDawn = p.crossings(samples, -TwilightNautical.DepressionDeg(), altitude)
	st.AstronomicalDusk, st.AstronomicalDawn = p.crossings(samples, -TwilightAstronomical.DepressionDeg(), altitude)
	return st, nil
}

// crossings finds the first descent below thresholdDeg and the next ascent
// above it. Either is zero if it does not happen.
func (p *MeeusProvider) crossings(samples []astro.AltitudeSample, thresholdDeg float64, altitude func(time.Time) float64) (down, up time.Time) {
	below := func(t time.Time) bool { return altitude(t) < thresholdDeg }

	for i := 1; i < len(samples); i++ {
		prev := samples[i-1].AltDeg < thresholdDeg
		cur := samples[i].AltDeg < thresholdDeg
		switch {
		case !prev && cur && down.IsZero():
			down = astro.RefineCrossing(samples[i-1].Time, samples[i].Time, p.Resolution, below)
		case prev && !cur && !down.IsZero():
			return down, astro.RefineCrossing(samples[i-1].Time, samples[i].Time, p.Resolution, below)
		}
	}
	return down, time.Time{}
}

func sunAltitude(t time.Time, φ, ψ unit.Angle) float64 {
	jd := julian.TimeToJD(t.UTC())
	α, δ := solar.ApparentEquatorial(jd)
	_, h := coord.EqToHz(α, δ, φ, ψ, sidereal.Apparent(jd))
	return h.Deg()
}

func checkSite(latDeg, lonDeg float64) error {
	if math.IsNaN(latDeg) || latDeg < -90 || latDeg > 90 {
		return fmt.Errorf("%w: latitude %v out of range", ErrUnavailable, latDeg)
	}
	if math.IsNaN(lonDeg) || lonDeg < -180 || lonDeg > 360 {
		return fmt.Errorf("%w: longitude %v out of range", ErrUnavailable, lonDeg)
	}
	return nil
}
