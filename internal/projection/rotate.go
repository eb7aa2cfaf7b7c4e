// Package projection rotates instrument footprints and the compass rose
// into a sky viewer's pixel frame.
package projection

import "math"

// Point is a 2-D position, in arcseconds, degrees or pixels depending on
// the caller.
type Point struct {
	X, Y float64
}

// Ring is a closed sequence of vertices.
type Ring []Point

// Polygon is an outer ring followed by optional holes.
type Polygon []Ring

// MultiPolygon is a set of polygons drawn together.
type MultiPolygon []Polygon

// RotatePoint rotates p by angleDeg about pivot. A zero angle returns p
// unchanged.
func RotatePoint(p Point, angleDeg float64, pivot Point) Point {
	if angleDeg == 0 {
		return p
	}
	s, c := math.Sincos(angleDeg * math.Pi / 180)
	dx, dy := p.X-pivot.X, p.Y-pivot.Y
	return Point{
		X: dx*c - dy*s + pivot.X,
		Y: dx*s + dy*c + pivot.Y,
	}
}

// RotateMultiPolygon rotates every vertex of mp about pivot. The input is
// left untouched.
func RotateMultiPolygon(mp MultiPolygon, angleDeg float64, pivot Point) MultiPolygon {
	return mp.Map(func(p Point) Point { return RotatePoint(p, angleDeg, pivot) })
}

// Map returns a copy of mp with f applied to every vertex.
func (mp MultiPolygon) Map(f func(Point) Point) MultiPolygon {
	out := make(MultiPolygon, len(mp))
	for i, poly := range mp {
		out[i] = make(Polygon, len(poly))
		for j, ring := range poly {
			out[i][j] = make(Ring, len(ring))
			for k, p := range ring {
				out[i][j][k] = f(p)
			}
		}
	}
	return out
}

// Bounds returns the bounding box of every vertex. ok is false for an
// empty multipolygon.
func (mp MultiPolygon) Bounds() (lo, hi Point, ok bool) {
	lo = Point{math.Inf(1), math.Inf(1)}
	hi = Point{math.Inf(-1), math.Inf(-1)}
	for _, poly := range mp {
		for _, ring := range poly {
			for _, p := range ring {
				lo.X, lo.Y = math.Min(lo.X, p.X), math.Min(lo.Y, p.Y)
				hi.X, hi.Y = math.Max(hi.X, p.X), math.Max(hi.Y, p.Y)
				ok = true
			}
		}
	}
	return lo, hi, ok
}

// CompassAngle is the total rotation applied to the compass rose overlay.
func CompassAngle(viewCenterToPoleDeg, positionAngleDeg, northOffsetDeg float64) float64 {
	return -1 * (northOffsetDeg + positionAngleDeg + viewCenterToPoleDeg)
}
