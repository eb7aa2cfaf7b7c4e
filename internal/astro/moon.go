package astro

import "math"

// DefaultExtinction is the V-band extinction coefficient (mag/airmass) used by
// the lunar sky brightness model.
const DefaultExtinction = 0.172

// AngularSeparation returns the great-circle separation in degrees between
// two points given as (longitude-like, latitude-like) pairs in degrees, such
// as (az, alt) or (ra, dec). It uses the Vincenty formula, which stays
// accurate for both tiny and near-antipodal separations.
func AngularSeparation(lon1, lat1, lon2, lat2 float64) float64 {
	l1 := degToRad(lon1)
	p1 := degToRad(lat1)
	l2 := degToRad(lon2)
	p2 := degToRad(lat2)

	dl := l2 - l1
	sdl, cdl := math.Sin(dl), math.Cos(dl)
	sp1, cp1 := math.Sin(p1), math.Cos(p1)
	sp2, cp2 := math.Sin(p2), math.Cos(p2)

	num1 := cp2 * sdl
	num2 := cp1*sp2 - sp1*cp2*cdl
	den := sp1*sp2 + cp1*cp2*cdl

	return radToDeg(math.Atan2(math.Hypot(num1, num2), den))
}

// Lunar sky brightness after Krisciunas & Schaefer (1991), PASP 103, 1033.

// Scattering is the scattering function f(ρ) for a moon-object separation ρ
// in degrees: Rayleigh plus Mie terms.
func Scattering(rhoDeg float64) float64 {
	c := math.Cos(degToRad(rhoDeg))
	rayleigh := math.Pow(10, 5.36) * (1.06 + c*c)

	var mie float64
	if rhoDeg > 10 {
		mie = math.Pow(10, 6.15-rhoDeg/40)
	} else {
		mie = 6.2e7 * math.Pow(rhoDeg, -2)
	}
	return rayleigh + mie
}

// MoonIlluminance is the lunar illuminance I*(α) for a phase angle in degrees
// (0 = full moon, 180 = new moon).
func MoonIlluminance(phaseDeg float64) float64 {
	a := math.Abs(phaseDeg)
	return math.Pow(10, -0.4*(3.84+0.026*a+4e-9*math.Pow(phaseDeg, 4)))
}

// OpticalPathlength is the airmass X(Z) used by the brightness model for a
// zenith distance in degrees.
func OpticalPathlength(zenithDeg float64) float64 {
	s := math.Sin(degToRad(zenithDeg))
	return math.Pow(1-0.96*s*s, -0.5)
}

// ExtinctionDecay is the fraction of light transmitted along a path of the
// given airmass for extinction coefficient k.
func ExtinctionDecay(pathlength, k float64) float64 {
	return math.Pow(10, -0.4*k*pathlength)
}

// MoonIrradiance is the moonlight scattered toward the observer at the object
// position: separation rhoDeg, moon zenith distance, object zenith distance
// and moon phase angle, all in degrees.
func MoonIrradiance(rhoDeg, moonZenithDeg, objectZenithDeg, phaseDeg float64) float64 {
	moonX := OpticalPathlength(moonZenithDeg)
	objX := OpticalPathlength(objectZenithDeg)

	return Scattering(rhoDeg) *
		MoonIlluminance(phaseDeg) *
		ExtinctionDecay(moonX, DefaultExtinction) *
		(1 - ExtinctionDecay(objX, DefaultExtinction))
}
