// Package site models an observatory's domes and decides whether a sky
// position can be observed from them.
package site

import (
	"errors"
	"fmt"
	"math"

	"github.com/litescript/ls-skyplan/internal/astro"
)

// ErrInvalidGeometry is returned by DomeGeometry.Validate.
var ErrInvalidGeometry = errors.New("invalid dome geometry")

// Dome identifies a physical dome at the site.
type Dome string

const (
	DomeMain Dome = "main"
	DomeEast Dome = "east"
	DomeWest Dome = "west"
)

// Domes lists the known domes in display order.
var Domes = []Dome{DomeMain, DomeEast, DomeWest}

// ParseDome returns the dome with the given identifier.
func ParseDome(s string) (Dome, bool) {
	for _, d := range Domes {
		if string(d) == s {
			return d, true
		}
	}
	return "", false
}

// DefaultLocation is the site used when no configuration is given.
var DefaultLocation = astro.GeoLocation{
	Name:       "Mauna Kea",
	LatDeg:     19.8207,
	LonDeg:     -155.4681,
	ElevationM: 4205,
}

// DomeGeometry is the obstruction model of one dome. Azimuths are degrees
// from north increasing east, radii are altitudes in degrees.
//
// The sector T0..T1 between R0 and R2 is the slit frame; the sector T2..T3
// between R1 and R3 is the deck. R1 doubles as the horizon limit.
type DomeGeometry struct {
	T0, T1, T2, T3 float64
	R0, R1, R2, R3 float64
	TrackLimit     float64 // highest trackable altitude
	AzMin, AzMax   float64 // mount azimuth wrap limits
}

// KnownDomes maps dome identifiers to their built-in geometry.
var KnownDomes = map[Dome]DomeGeometry{
	DomeMain: {T0: 0, T1: 360, T2: 160, T3: 200, R0: 0, R1: 15, R2: 15, R3: 30, TrackLimit: 87, AzMin: -270, AzMax: 270},
	DomeEast: {T0: 0, T1: 360, T2: 240, T3: 300, R0: 0, R1: 20, R2: 20, R3: 35, TrackLimit: 85, AzMin: -270, AzMax: 270},
	DomeWest: {T0: 0, T1: 360, T2: 60, T3: 120, R0: 0, R1: 20, R2: 20, R3: 35, TrackLimit: 85, AzMin: -270, AzMax: 270},
}

// HorizonDeg is the lowest observable altitude.
func (g DomeGeometry) HorizonDeg() float64 {
	return g.R1
}

// Validate checks that every angle is finite and in range.
func (g DomeGeometry) Validate() error {
	for name, az := range map[string]float64{"t0": g.T0, "t1": g.T1, "t2": g.T2, "t3": g.T3} {
		if math.IsNaN(az) || az < 0 || az > 360 {
			return fmt.Errorf("%w: %s=%v outside 0-360", ErrInvalidGeometry, name, az)
		}
	}
	for name, alt := range map[string]float64{"r0": g.R0, "r1": g.R1, "r2": g.R2, "r3": g.R3, "track_limit": g.TrackLimit} {
		if math.IsNaN(alt) || alt < -90 || alt > 90 {
			return fmt.Errorf("%w: %s=%v outside -90..90", ErrInvalidGeometry, name, alt)
		}
	}
	if g.R1 > g.R3 {
		return fmt.Errorf("%w: deck floor r1=%v above ceiling r3=%v", ErrInvalidGeometry, g.R1, g.R3)
	}
	if g.R1 >= g.TrackLimit {
		return fmt.Errorf("%w: horizon r1=%v not below track limit %v", ErrInvalidGeometry, g.R1, g.TrackLimit)
	}
	if math.IsNaN(g.AzMin) || math.IsNaN(g.AzMax) || g.AzMin >= g.AzMax {
		return fmt.Errorf("%w: azimuth limits %v..%v", ErrInvalidGeometry, g.AzMin, g.AzMax)
	}
	return nil
}
