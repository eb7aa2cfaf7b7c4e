package projection

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Instrument is a field of view in arcseconds, x toward east and y toward
// north at position angle zero.
type Instrument struct {
	Name      string
	Footprint MultiPolygon
}

func box(x0, y0, x1, y1 float64) Polygon {
	return Polygon{Ring{{x0, y0}, {x1, y0}, {x1, y1}, {x0, y1}}}
}

// Instruments are the built-in fields of view.
var Instruments = map[string]Instrument{
	"imager": {
		Name:      "imager",
		Footprint: MultiPolygon{box(-150, -150, 150, 150)},
	},
	"spectrograph": {
		Name: "spectrograph",
		Footprint: MultiPolygon{
			box(-0.5, -60, 0.5, 60), // slit
			box(90, -30, 150, 30),   // guide camera
		},
	},
	"ifu": {
		Name:      "ifu",
		Footprint: MultiPolygon{hexagon(8)},
	},
}

// LookupInstrument returns a built-in instrument by name.
func LookupInstrument(name string) (Instrument, error) {
	inst, ok := Instruments[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Instrument{}, fmt.Errorf("unknown instrument %q (have %s)", name, strings.Join(InstrumentNames(), ", "))
	}
	return inst, nil
}

// InstrumentNames lists the built-in instruments alphabetically.
func InstrumentNames() []string {
	names := make([]string, 0, len(Instruments))
	for name := range Instruments {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func hexagon(r float64) Polygon {
	ring := make(Ring, 6)
	for i := range ring {
		s, c := math.Sincos(float64(i) * math.Pi / 3)
		ring[i] = Point{r * c, r * s}
	}
	return Polygon{ring}
}

// SkyFootprint rotates the instrument by its position angle and places it
// on the sky around the given center. Vertices come back as (RA, Dec) in
// degrees.
func SkyFootprint(inst Instrument, raDeg, decDeg, positionAngleDeg float64) MultiPolygon {
	cosDec := math.Cos(decDeg * math.Pi / 180)
	if cosDec < 1e-6 {
		cosDec = 1e-6
	}
	rotated := RotateMultiPolygon(inst.Footprint, positionAngleDeg, Point{})
	return rotated.Map(func(p Point) Point {
		ra := math.Mod(raDeg+p.X/3600/cosDec, 360)
		if ra < 0 {
			ra += 360
		}
		return Point{ra, decDeg + p.Y/3600}
	})
}

// PixelFootprint projects a sky footprint through proj. The first failing
// vertex aborts the projection.
func PixelFootprint(proj Projector, sky MultiPolygon) (MultiPolygon, error) {
	var firstErr error
	out := sky.Map(func(p Point) Point {
		if firstErr != nil {
			return Point{}
		}
		px, err := proj.WorldToPixel(p.X, p.Y)
		if err != nil {
			firstErr = err
		}
		return px
	})
	if firstErr != nil {
		return nil, firstErr
	}
	return out, nil
}

// CompassRose builds the north and east arms around center, north pointing
// up (negative y) before rotation by angleDeg. East sits to the left.
func CompassRose(center Point, size, angleDeg float64) MultiPolygon {
	head := size / 5
	north := Polygon{Ring{
		center,
		{center.X, center.Y - size},
		{center.X - head/2, center.Y - size + head},
		{center.X + head/2, center.Y - size + head},
		{center.X, center.Y - size},
	}}
	east := Polygon{Ring{
		center,
		{center.X - size*0.6, center.Y},
	}}
	return RotateMultiPolygon(MultiPolygon{north, east}, angleDeg, center)
}

// Overlay is an instrument footprint and compass ready to draw.
type Overlay struct {
	Footprint  MultiPolygon // pixels
	Compass    MultiPolygon // pixels
	CompassDeg float64
	NorthDeg   float64
	Parity     int
}

// BuildOverlay centres inst on the viewer's pointing at the given position
// angle and projects it and the compass rose into pixels.
func BuildOverlay(proj Projector, inst Instrument, positionAngleDeg float64, compassAt Point, compassSize float64) (*Overlay, error) {
	ra, dec, err := proj.ViewCenter()
	if err != nil {
		return nil, fmt.Errorf("view center: %w", err)
	}
	pole, err := proj.ViewCenterToNorthPoleAngle()
	if err != nil {
		return nil, fmt.Errorf("north pole angle: %w", err)
	}
	north, parity, err := NorthOffset(proj)
	if err != nil {
		return nil, fmt.Errorf("north offset: %w", err)
	}

	fp, err := PixelFootprint(proj, SkyFootprint(inst, ra, dec, positionAngleDeg))
	if err != nil {
		return nil, fmt.Errorf("footprint: %w", err)
	}

	angle := CompassAngle(pole, positionAngleDeg, north)
	return &Overlay{
		Footprint:  fp,
		Compass:    CompassRose(compassAt, compassSize, angle),
		CompassDeg: angle,
		NorthDeg:   north,
		Parity:     parity,
	}, nil
}
