// Package ephem provides sun and moon ephemerides for a fixed site.
package ephem

import (
	"errors"
	"time"
)

// ErrUnavailable is wrapped by every ephemeris failure.
var ErrUnavailable = errors.New("ephemeris unavailable")

// MoonPosition is the moon's topocentric horizontal position.
type MoonPosition struct {
	Azimuth  float64 // radians, measured from south increasing west
	Altitude float64 // radians
}

// MoonIllumination describes the lunar phase.
type MoonIllumination struct {
	Fraction      float64 // illuminated fraction, 0-1
	PhaseAngleDeg float64 // Sun-Moon-Earth angle, 0 = full, 180 = new
}

// SunTimes holds the solar events of one night. An event that does not
// occur (polar day or night) is the zero time.
type SunTimes struct {
	Sunset           time.Time
	Sunrise          time.Time
	CivilDusk        time.Time
	CivilDawn        time.Time
	NauticalDusk     time.Time
	NauticalDawn     time.Time
	AstronomicalDusk time.Time
	AstronomicalDawn time.Time
}

// Window returns the observing window bounded by the given twilight. When
// that twilight never happens it falls back to sunset/sunrise; ok is false
// when neither pair is usable.
func (s SunTimes) Window(tw Twilight) (start, end time.Time, ok bool) {
	dusk, dawn := s.twilight(tw)
	if !dusk.IsZero() && !dawn.IsZero() && dawn.After(dusk) {
		return dusk, dawn, true
	}
	if !s.Sunset.IsZero() && !s.Sunrise.IsZero() && s.Sunrise.After(s.Sunset) {
		return s.Sunset, s.Sunrise, true
	}
	return time.Time{}, time.Time{}, false
}

func (s SunTimes) twilight(tw Twilight) (time.Time, time.Time) {
	switch tw {
	case TwilightCivil:
		return s.CivilDusk, s.CivilDawn
	case TwilightAstronomical:
		return s.AstronomicalDusk, s.AstronomicalDawn
	default:
		return s.NauticalDusk, s.NauticalDawn
	}
}

// Provider defines the interface for sun and moon ephemeris sources.
// Implementations must be safe for concurrent use.
type Provider interface {
	// Name returns the provider name for display/logging.
	Name() string

	// MoonPosition returns the moon's position seen from the site at t.
	MoonPosition(t time.Time, latDeg, lonDeg float64) (MoonPosition, error)

	// MoonIllumination returns the lunar phase at t.
	MoonIllumination(t time.Time) (MoonIllumination, error)

	// SunTimes returns the solar events of the night that begins on date
	// (local calendar day at the site longitude).
	SunTimes(date time.Time, latDeg, lonDeg float64) (SunTimes, error)
}

// Twilight selects which solar depression bounds the observing night.
type Twilight int

const (
	TwilightNautical     Twilight = iota // sun 12° below the horizon (default)
	TwilightCivil                        // 6°
	TwilightAstronomical                 // 18°
)

// String returns the twilight name.
func (t Twilight) String() string {
	switch t {
	case TwilightCivil:
		return "civil"
	case TwilightNautical:
		return "nautical"
	case TwilightAstronomical:
		return "astronomical"
	default:
		return "unknown"
	}
}

// DepressionDeg is the solar depression angle below the horizon.
func (t Twilight) DepressionDeg() float64 {
	switch t {
	case TwilightCivil:
		return 6
	case TwilightAstronomical:
		return 18
	default:
		return 12
	}
}

// ParseTwilight parses a twilight name, defaulting to nautical.
func ParseTwilight(s string) Twilight {
	switch s {
	case "civil":
		return TwilightCivil
	case "astronomical", "astro":
		return TwilightAstronomical
	default:
		return TwilightNautical
	}
}
