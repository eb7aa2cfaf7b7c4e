package projection

import (
	"errors"
	"fmt"
	"math"
)

// ErrOutsideProjection is returned for a position the projector cannot map.
var ErrOutsideProjection = errors.New("position outside projection")

// offsetDeg is the probe length used to linearize the projection around
// the view center.
const offsetDeg = 5.0 / 60

// Projector is a sky viewer's world to pixel mapping. Pixel y grows
// downward.
type Projector interface {
	WorldToPixel(raDeg, decDeg float64) (Point, error)
	ViewCenter() (raDeg, decDeg float64, err error)
	ViewCenterToNorthPoleAngle() (float64, error)
}

// NorthOffset measures where north points in the pixel frame at the view
// center, in degrees clockwise from up. parity is +1 when east lies
// counter-clockwise from north (the sky as seen from below) and -1 when the
// image is mirrored.
func NorthOffset(proj Projector) (angleDeg float64, parity int, err error) {
	ra, dec, err := proj.ViewCenter()
	if err != nil {
		return 0, 0, fmt.Errorf("view center: %w", err)
	}

	northDec := dec + offsetDeg
	if northDec > 90 {
		// Probe south instead and flip the vector
		northDec = dec - offsetDeg
	}
	cosDec := math.Cos(dec * math.Pi / 180)
	if cosDec < 1e-6 {
		cosDec = 1e-6
	}
	eastRA := math.Mod(ra+offsetDeg/cosDec, 360)

	origin, err := proj.WorldToPixel(ra, dec)
	if err != nil {
		return 0, 0, err
	}
	north, err := proj.WorldToPixel(ra, northDec)
	if err != nil {
		return 0, 0, err
	}
	east, err := proj.WorldToPixel(eastRA, dec)
	if err != nil {
		return 0, 0, err
	}

	vn := Point{north.X - origin.X, north.Y - origin.Y}
	if northDec < dec {
		vn = Point{-vn.X, -vn.Y}
	}
	ve := Point{east.X - origin.X, east.Y - origin.Y}

	angleDeg = math.Atan2(vn.X, -vn.Y) * 180 / math.Pi

	parity = 1
	if vn.X*ve.Y-vn.Y*ve.X > 0 {
		parity = -1
	}
	return angleDeg, parity, nil
}

// Tangent is a gnomonic projection centred on a sky position, used when no
// external viewer is attached.
type Tangent struct {
	CenterRA, CenterDec float64
	Scale               float64 // pixels per degree
	RotationDeg         float64 // north offset, clockwise from up
	Mirror              bool    // east to the right
	Origin              Point   // pixel position of the center
	PoleAngleDeg        float64 // reported by ViewCenterToNorthPoleAngle
}

// WorldToPixel implements Projector.
func (t Tangent) WorldToPixel(raDeg, decDeg float64) (Point, error) {
	ra0, dec0 := t.CenterRA*math.Pi/180, t.CenterDec*math.Pi/180
	ra, dec := raDeg*math.Pi/180, decDeg*math.Pi/180

	sd0, cd0 := math.Sincos(dec0)
	sd, cd := math.Sincos(dec)
	sda, cda := math.Sincos(ra - ra0)

	cosc := sd0*sd + cd0*cd*cda
	if cosc <= 0 {
		return Point{}, fmt.Errorf("%w: (%.4f, %.4f)", ErrOutsideProjection, raDeg, decDeg)
	}

	// Standard coordinates in degrees, xi toward east, eta toward north
	xi := cd * sda / cosc * 180 / math.Pi
	eta := (cd0*sd - sd0*cd*cda) / cosc * 180 / math.Pi

	x := -xi
	if t.Mirror {
		x = xi
	}
	p := RotatePoint(Point{x, -eta}, t.RotationDeg, Point{})
	return Point{t.Origin.X + p.X*t.Scale, t.Origin.Y + p.Y*t.Scale}, nil
}

// ViewCenter implements Projector.
func (t Tangent) ViewCenter() (float64, float64, error) {
	return t.CenterRA, t.CenterDec, nil
}

// ViewCenterToNorthPoleAngle implements Projector.
func (t Tangent) ViewCenterToNorthPoleAngle() (float64, error) {
	return t.PoleAngleDeg, nil
}
