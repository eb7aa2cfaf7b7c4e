// Package astro provides astronomical coordinate transformations and sky math.
package astro

import (
	"math"
	"time"
)

// SkyCoord represents celestial coordinates with both equatorial (RA/Dec)
// and horizontal (Az/Alt) components.
type SkyCoord struct {
	// Equatorial coordinates (J2000)
	RAdeg  float64 // Right Ascension in degrees (0-360)
	DecDeg float64 // Declination in degrees (-90 to +90)

	// Horizontal coordinates (observer-relative)
	AzDeg  float64 // Azimuth in degrees (0=N, 90=E, 180=S, 270=W)
	AltDeg float64 // Altitude in degrees (0=horizon, 90=zenith)
}

// GeoLocation is a fixed observatory site.
type GeoLocation struct {
	Name       string
	LatDeg     float64 // north positive
	LonDeg     float64 // east positive
	ElevationM float64 // meters above sea level
}

// ElevationKm returns the site elevation in kilometers.
func (g GeoLocation) ElevationKm() float64 {
	return g.ElevationM / 1000
}

// RADecToAzAlt converts equatorial coordinates to horizontal coordinates for
// a site at time t.
//
// Azimuth is reckoned from north increasing toward east. The raw atan2 result
// is measured from south, so π is added before converting to degrees.
func RADecToAzAlt(raDeg, decDeg float64, t time.Time, loc GeoLocation) (azDeg, altDeg float64) {
	h := degToRad(HourAngle(raDeg, t, loc))
	phi := degToRad(loc.LatDeg)
	dec := degToRad(decDeg)

	az := math.Atan2(math.Sin(h), math.Cos(h)*math.Sin(phi)-math.Tan(dec)*math.Cos(phi))
	sinAlt := math.Sin(phi)*math.Sin(dec) + math.Cos(phi)*math.Cos(dec)*math.Cos(h)
	// Rounding can push |sinAlt| a hair past 1 at the zenith
	alt := math.Asin(math.Max(-1, math.Min(1, sinAlt)))

	return normalizeAngle360(radToDeg(az + math.Pi)), radToDeg(alt)
}

// EquatorialToHorizontal converts equatorial coordinates (RA/Dec) to horizontal
// coordinates (Az/Alt) for a given site and time.
//
// The function preserves the input RA/Dec values and populates Az/Alt.
func EquatorialToHorizontal(eq SkyCoord, loc GeoLocation, t time.Time) SkyCoord {
	az, alt := RADecToAzAlt(eq.RAdeg, eq.DecDeg, t, loc)
	return SkyCoord{
		RAdeg:  eq.RAdeg,
		DecDeg: eq.DecDeg,
		AzDeg:  az,
		AltDeg: alt,
	}
}

// HourAngle returns the local hour angle of a right ascension in degrees,
// normalized to 0-360.
func HourAngle(raDeg float64, t time.Time, loc GeoLocation) float64 {
	return normalizeAngle360(greenwichMeanSiderealTime(t) + loc.LonDeg - raDeg)
}

// ParallacticAngle returns the parallactic angle in degrees of an object at
// the given site and time.
func ParallacticAngle(raDeg, decDeg float64, t time.Time, loc GeoLocation) float64 {
	h := degToRad(HourAngle(raDeg, t, loc))
	phi := degToRad(loc.LatDeg)
	dec := degToRad(decDeg)

	q := math.Atan2(math.Sin(h), math.Tan(phi)*math.Cos(dec)-math.Sin(dec)*math.Cos(h))
	return radToDeg(q)
}

// LocalSiderealTime calculates the Local Sidereal Time in degrees
// for a given UTC time and east-positive longitude.
func LocalSiderealTime(t time.Time, lonDeg float64) float64 {
	return normalizeAngle360(greenwichMeanSiderealTime(t) + lonDeg)
}

// greenwichMeanSiderealTime calculates GMST in degrees for a given UTC time.
// Uses the IAU formula based on Julian Date.
func greenwichMeanSiderealTime(t time.Time) float64 {
	jd := julianDate(t)

	// Julian centuries since J2000.0
	T := (jd - 2451545.0) / 36525.0

	// GMST = 280.46061837 + 360.98564736629*(JD-2451545) + 0.000387933*T^2 - T^3/38710000
	gmst := 280.46061837 +
		360.98564736629*(jd-2451545.0) +
		0.000387933*T*T -
		T*T*T/38710000.0

	return normalizeAngle360(gmst)
}

// julianDate calculates the Julian Date for a given time.
func julianDate(t time.Time) float64 {
	t = t.UTC()

	y := float64(t.Year())
	m := float64(t.Month())
	d := float64(t.Day())

	h := float64(t.Hour())
	min := float64(t.Minute())
	sec := float64(t.Second())
	ns := float64(t.Nanosecond())

	dayFrac := (h + min/60 + sec/3600 + ns/3600e9) / 24.0

	// January/February count as months 13/14 of the previous year
	if m <= 2 {
		y--
		m += 12
	}

	// Gregorian calendar correction
	A := math.Floor(y / 100)
	B := 2 - A + math.Floor(A/4)

	jd := math.Floor(365.25*(y+4716)) +
		math.Floor(30.6001*(m+1)) +
		d + dayFrac + B - 1524.5

	return jd
}

// degToRad converts degrees to radians.
func degToRad(deg float64) float64 {
	return deg * math.Pi / 180
}

// radToDeg converts radians to degrees.
func radToDeg(rad float64) float64 {
	return rad * 180 / math.Pi
}

// normalizeAngle360 normalizes an angle to 0-360 degrees.
func normalizeAngle360(a float64) float64 {
	a = math.Mod(a, 360)
	if a < 0 {
		a += 360
	}
	// math.Mod can round a tiny negative value up to exactly 360.
	if a >= 360 {
		a -= 360
	}
	return a
}
