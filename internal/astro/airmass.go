package astro

import "math"

const (
	// AtmosphereHeightKm is the effective height of a homogeneous atmosphere.
	AtmosphereHeightKm = 50.0

	// EarthRadiusKm is the equatorial radius used by the spherical model.
	EarthRadiusKm = 6378.1
)

// AirMassModel converts between altitude and airmass.
type AirMassModel interface {
	AirMass(altDeg float64) float64
	Altitude(airMass float64) float64
}

// SecantModel is the plane-parallel atmosphere: airmass is the secant of the
// zenith angle.
type SecantModel struct{}

// AirMass implements AirMassModel.
func (SecantModel) AirMass(altDeg float64) float64 { return AirMass(altDeg) }

// Altitude implements AirMassModel.
func (SecantModel) Altitude(am float64) float64 { return AltitudeFromAirMass(am) }

// SphericalModel is a homogeneous spherical atmosphere seen from an observer
// at ElevationKm above sea level.
type SphericalModel struct {
	ElevationKm float64
}

// AirMass implements AirMassModel.
func (m SphericalModel) AirMass(altDeg float64) float64 {
	return AirMassAtElevation(altDeg, m.ElevationKm)
}

// Altitude implements AirMassModel.
func (m SphericalModel) Altitude(am float64) float64 {
	return AltitudeFromAirMassAtElevation(am, m.ElevationKm)
}

// ModelFor returns the spherical model when an elevation is supplied and the
// secant model otherwise.
func ModelFor(elevationKm *float64) AirMassModel {
	if elevationKm == nil {
		return SecantModel{}
	}
	return SphericalModel{ElevationKm: *elevationKm}
}

// AirMass returns the plane-parallel airmass 1/cos(z) for an altitude in
// degrees. Only meaningful for altitudes above the horizon; it diverges as
// the altitude approaches zero.
func AirMass(altDeg float64) float64 {
	return 1 / math.Cos(degToRad(90-altDeg))
}

// AltitudeFromAirMass is the inverse of AirMass.
func AltitudeFromAirMass(am float64) float64 {
	return 90 - radToDeg(math.Acos(1/am))
}

// AirMassAtElevation returns the airmass through a spherical atmosphere of
// height AtmosphereHeightKm for an observer elevationKm above the surface.
// The result is the slant path length in units of the atmosphere height.
func AirMassAtElevation(altDeg, elevationKm float64) float64 {
	const (
		H = AtmosphereHeightKm
		R = EarthRadiusKm
	)
	el := elevationKm
	r := R + el
	cz := math.Cos(degToRad(90 - altDeg))

	return math.Sqrt(r*r*cz*cz/(H*H)+2*R*(H-el)/(H*H)-(el/H)*(el/H)+1) -
		(el/H+R/H)*cz
}

// AltitudeFromAirMassAtElevation inverts AirMassAtElevation. The slant path
// L = am·H closes the triangle formed by the Earth center, the observer and
// the point where the line of sight leaves the atmosphere; the law of cosines
// on that triangle gives the zenith angle.
func AltitudeFromAirMassAtElevation(am, elevationKm float64) float64 {
	const (
		H = AtmosphereHeightKm
		R = EarthRadiusKm
	)
	r := R + elevationKm
	top := R + H
	l := am * H

	cz := (top*top - r*r - l*l) / (2 * r * l)
	cz = math.Max(-1, math.Min(1, cz))

	return 90 - radToDeg(math.Acos(cz))
}
