package ui

import (
	"fmt"
	"math"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/litescript/ls-skyplan/internal/projection"
	"github.com/litescript/ls-skyplan/internal/visibility"
)

const (
	paStepDeg       = 15.0
	colorFootprint  = "#9D4EDD"
	colorCompass    = "#FFD700"
	compassCells    = 6.0
	fieldFillFactor = 0.8
)

// FieldModel draws the instrument footprint and the north/east compass for
// the selected target, rotated to the parallactic angle at the cursor
// instant plus a user offset.
type FieldModel struct {
	width  int
	height int

	instruments []string
	instIdx     int
	paOffset    float64
	mirror      bool

	target visibility.Target
	row    visibility.Row
	hasRow bool
}

// NewFieldModel creates a field view starting on the named instrument.
func NewFieldModel(instrument string) FieldModel {
	names := projection.InstrumentNames()
	m := FieldModel{instruments: names}
	for i, n := range names {
		if n == instrument {
			m.instIdx = i
		}
	}
	return m
}

// SetSize updates the viewport size.
func (m FieldModel) SetSize(width, height int) FieldModel {
	m.width = width
	m.height = height
	return m
}

// SetTarget selects the target and the sample whose parallactic angle
// orients the field.
func (m FieldModel) SetTarget(target visibility.Target, row visibility.Row, ok bool) FieldModel {
	m.target = target
	m.row = row
	m.hasRow = ok
	return m
}

// Instrument returns the selected instrument name.
func (m FieldModel) Instrument() string {
	if len(m.instruments) == 0 {
		return ""
	}
	return m.instruments[m.instIdx]
}

// PositionAngle is the parallactic angle plus the user offset.
func (m FieldModel) PositionAngle() float64 {
	return m.row.ParallacticDeg + m.paOffset
}

// Update handles messages.
func (m FieldModel) Update(msg tea.Msg) (FieldModel, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch keyMsg.String() {
	case "i":
		if len(m.instruments) > 0 {
			m.instIdx = (m.instIdx + 1) % len(m.instruments)
		}
	case "+", "=":
		m.paOffset = normalizeAngle(m.paOffset + paStepDeg)
	case "-":
		m.paOffset = normalizeAngle(m.paOffset - paStepDeg)
	case "0":
		m.paOffset = 0
	case "m":
		m.mirror = !m.mirror
	}
	return m, nil
}

// canvasSize returns the drawing area in cells.
func (m FieldModel) canvasSize() (int, int) {
	w, h := m.width-4, m.height-5
	if w < 20 {
		w = 20
	}
	if h < 8 {
		h = 8
	}
	return w, h
}

// overlay projects the selected instrument. Pixel space is one unit per
// cell horizontally and two per cell vertically, so the footprint keeps its
// shape on a terminal.
func (m FieldModel) overlay(w, h int) (*projection.Overlay, error) {
	inst, err := projection.LookupInstrument(m.Instrument())
	if err != nil {
		return nil, err
	}

	lo, hi, ok := inst.Footprint.Bounds()
	if !ok {
		return nil, fmt.Errorf("instrument %s has an empty footprint", inst.Name)
	}
	extent := math.Max(math.Max(math.Abs(lo.X), math.Abs(hi.X)), math.Max(math.Abs(lo.Y), math.Abs(hi.Y)))
	radiusPx := fieldFillFactor * math.Min(float64(w)/2, float64(h))

	proj := projection.Tangent{
		CenterRA:  m.target.RADeg,
		CenterDec: m.target.DecDeg,
		Scale:     radiusPx / (extent / 3600),
		Mirror:    m.mirror,
		Origin:    projection.Point{X: float64(w) / 2, Y: float64(h)},
	}
	compassAt := projection.Point{X: float64(w) - 2*compassCells - 2, Y: 2*compassCells + 2}
	return projection.BuildOverlay(proj, inst, m.PositionAngle(), compassAt, 2*compassCells)
}

// fieldCanvas is a rune grid addressed in pixel space.
type fieldCanvas struct {
	w, h   int
	cells  [][]rune
	colors [][]string
}

func newFieldCanvas(w, h int) *fieldCanvas {
	c := &fieldCanvas{w: w, h: h, cells: make([][]rune, h), colors: make([][]string, h)}
	for y := range c.cells {
		c.cells[y] = []rune(strings.Repeat(" ", w))
		c.colors[y] = make([]string, w)
	}
	return c
}

func (c *fieldCanvas) plot(p projection.Point, r rune, color string) {
	x, y := int(math.Round(p.X)), int(math.Floor(math.Round(p.Y)/2))
	if x < 0 || x >= c.w || y < 0 || y >= c.h {
		return
	}
	c.cells[y][x] = r
	c.colors[y][x] = color
}

func (c *fieldCanvas) line(a, b projection.Point, r rune, color string) {
	steps := int(math.Ceil(math.Max(math.Abs(b.X-a.X), math.Abs(b.Y-a.Y)/2)))
	if steps == 0 {
		c.plot(a, r, color)
		return
	}
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		c.plot(projection.Point{X: lerp(a.X, b.X, t), Y: lerp(a.Y, b.Y, t)}, r, color)
	}
}

// outline draws every ring edge including the closing one.
func (c *fieldCanvas) outline(mp projection.MultiPolygon, r rune, color string) {
	for _, poly := range mp {
		for _, ring := range poly {
			for i := range ring {
				c.line(ring[i], ring[(i+1)%len(ring)], r, color)
			}
		}
	}
}

func (c *fieldCanvas) String() string {
	var b strings.Builder
	for y := range c.cells {
		for x, r := range c.cells[y] {
			if c.colors[y][x] == "" {
				b.WriteRune(r)
				continue
			}
			b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(c.colors[y][x])).Render(string(r)))
		}
		if y < len(c.cells)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

// View renders the field view.
func (m FieldModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Field"))
	if m.target.Name != "" {
		b.WriteString("  " + labelStyle.Render(m.target.Name))
	}
	b.WriteString("  " + dimStyle.Render("instrument ") + rowStyle.Render(m.Instrument()))
	b.WriteString("\n")

	if !m.target.Resolved() {
		b.WriteString(dimStyle.Render("  Select a target with a known position"))
		return b.String()
	}

	w, h := m.canvasSize()
	ov, err := m.overlay(w, h)
	if err != nil {
		b.WriteString(errorStyle.Render("Error: " + err.Error()))
		return b.String()
	}

	canvas := newFieldCanvas(w, h)
	canvas.outline(ov.Footprint, '•', colorFootprint)
	canvas.outline(ov.Compass, '·', colorCompass)
	canvas.plot(projection.Point{X: float64(w) / 2, Y: float64(h)}, '+', "252")
	if len(ov.Compass) == 2 {
		canvas.plot(ov.Compass[0][0][1], 'N', colorCompass)
		canvas.plot(ov.Compass[1][0][1], 'E', colorCompass)
	}
	b.WriteString(canvas.String())
	b.WriteString("\n")

	source := "parallactic"
	if !m.hasRow {
		source = "no sample"
	}
	parity := "normal"
	if ov.Parity < 0 {
		parity = "mirrored"
	}
	b.WriteString(dimStyle.Render(fmt.Sprintf("  PA %6.1f° (%s %+.1f°, offset %+.0f°)  north %+.1f°  %s  compass %.1f°",
		m.PositionAngle(), source, m.row.ParallacticDeg, m.paOffset, ov.NorthDeg, parity, ov.CompassDeg)))
	return b.String()
}
