package ui

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/litescript/ls-skyplan/internal/astro"
	"github.com/litescript/ls-skyplan/internal/site"
	"github.com/litescript/ls-skyplan/internal/visibility"
)

const (
	// Field of view in degrees
	fovAz = 120.0 // horizontal FOV
	fovEl = 60.0  // vertical FOV

	// Animation
	animDuration  = 400 * time.Millisecond
	animFrameRate = 30 * time.Millisecond

	// Target glyphs
	glyphTarget        = '✦'
	glyphTargetFocused = '◆'
	glyphMoon          = '☾'

	colorTargetFocused = "229" // bright gold

	// Star glyphs by magnitude
	glyphStarBright  = '✶' // mag < 1.5
	glyphStarMedium  = '✸' // mag 1.5-3.0
	glyphStarDim     = '·' // mag 3.0-4.0
	glyphStarVeryDim = '·' // mag > 4.0

	// Star colors (grayscale to not compete with targets)
	colorStarBright  = "255"
	colorStarMedium  = "250"
	colorStarDim     = "244"
	colorStarVeryDim = "240"

	// Obstruction shading
	colorGround      = "234"
	colorDeckShade   = "#5C2A22"
	colorHorizonBand = "238"
	colorZenithBand  = "#4A4420"
)

// LabelMode controls how target labels are displayed.
type LabelMode int

const (
	LabelNone    LabelMode = iota // No labels
	LabelFocused                  // Only focused target
	LabelAll                      // All targets
)

// SkyViewModel renders the local sky with the dome obstructions, the moon
// and the night's targets at the cursor instant.
type SkyViewModel struct {
	width  int
	height int

	loc  astro.GeoLocation
	dome site.DomeGeometry

	// Camera position (center of view)
	camAz float64
	camEl float64

	// Animation state
	animating   bool
	animStartAz float64
	animStartEl float64
	animTargAz  float64
	animTargEl  float64
	animStart   time.Time

	focusIdx int
	targets  []visibility.Target
	at       time.Time

	moonUp       bool
	moonAz       float64
	moonAlt      float64
	moonFraction float64

	labelMode LabelMode
	stars     []astro.Star
}

// NewSkyViewModel creates a new sky view for a site and dome.
func NewSkyViewModel(loc astro.GeoLocation, dome site.DomeGeometry) SkyViewModel {
	return SkyViewModel{
		loc:       loc,
		dome:      dome,
		camAz:     180,
		camEl:     45,
		labelMode: LabelFocused,
		stars:     astro.BrightStars(),
	}
}

// SetSize updates the viewport size.
func (m SkyViewModel) SetSize(width, height int) SkyViewModel {
	m.width = width
	m.height = height
	return m
}

// SetScene sets the targets and the instant to draw. row supplies the moon
// position; nil hides the moon.
func (m SkyViewModel) SetScene(targets []visibility.Target, at time.Time, row *visibility.Row) SkyViewModel {
	m.targets = targets
	m.at = at
	m.moonUp = row != nil && row.MoonAltDeg > 0
	if row != nil {
		m.moonAz, m.moonAlt, m.moonFraction = row.MoonAzDeg, row.MoonAltDeg, row.MoonIllumination
	}
	if m.focusIdx >= len(targets) {
		m.focusIdx = 0
	}

	// If not animating, snap camera to focused target
	if !m.animating {
		if az, alt, ok := m.focusedAzAlt(); ok {
			m.camAz, m.camEl = az, cameraElevation(alt)
		}
	}
	return m
}

// SetFocus moves the camera to target i.
func (m SkyViewModel) SetFocus(i int) (SkyViewModel, tea.Cmd) {
	if i == m.focusIdx || i < 0 || i >= len(m.targets) {
		return m, nil
	}
	m.focusIdx = i
	return m.startAnimation()
}

// cameraElevation keeps the horizon in view for low targets.
func cameraElevation(alt float64) float64 {
	return math.Max(fovEl/2, math.Min(alt, 90-fovEl/2))
}

func (m SkyViewModel) focusedAzAlt() (float64, float64, bool) {
	if m.focusIdx >= len(m.targets) || m.at.IsZero() || !m.targets[m.focusIdx].Resolved() {
		return 0, 0, false
	}
	t := m.targets[m.focusIdx]
	az, alt := astro.RADecToAzAlt(t.RADeg, t.DecDeg, m.at, m.loc)
	return az, alt, true
}

// animTickMsg is sent during animation
type animTickMsg time.Time

func animTick() tea.Cmd {
	return tea.Tick(animFrameRate, func(t time.Time) tea.Msg {
		return animTickMsg(t)
	})
}

// Update handles messages.
func (m SkyViewModel) Update(msg tea.Msg) (SkyViewModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "L" {
			m = m.cycleLabelMode()
		}

	case animTickMsg:
		if m.animating {
			return m.updateAnimation()
		}
	}

	return m, nil
}

func (m SkyViewModel) cycleLabelMode() SkyViewModel {
	m.labelMode = (m.labelMode + 1) % 3
	return m
}

func (m SkyViewModel) startAnimation() (SkyViewModel, tea.Cmd) {
	az, alt, ok := m.focusedAzAlt()
	if !ok {
		return m, nil
	}

	m.animating = true
	m.animStartAz = m.camAz
	m.animStartEl = m.camEl
	m.animTargAz = az
	m.animTargEl = cameraElevation(alt)
	m.animStart = time.Now()

	return m, animTick()
}

func (m SkyViewModel) updateAnimation() (SkyViewModel, tea.Cmd) {
	elapsed := time.Since(m.animStart)
	t := float64(elapsed) / float64(animDuration)

	if t >= 1.0 {
		m.animating = false
		m.camAz = m.animTargAz
		m.camEl = m.animTargEl
		return m, nil
	}

	// Ease-out cubic
	t = 1 - math.Pow(1-t, 3)

	m.camAz = lerpAngle(m.animStartAz, m.animTargAz, t)
	m.camEl = lerp(m.animStartEl, m.animTargEl, t)

	return m, animTick()
}

// View renders the sky view.
func (m SkyViewModel) View() string {
	if m.width < 20 || m.height < 10 {
		return "Sky view requires larger terminal"
	}

	viewHeight := m.height - 4
	canvas := m.renderSkyCanvas(m.width, viewHeight)

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(canvas)
	b.WriteString("\n")
	b.WriteString(m.renderStatus())

	return b.String()
}

func (m SkyViewModel) renderHeader() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("135"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("60"))
	accentStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#d0c8ff"))

	title := titleStyle.Render("Sky View")

	when := dimStyle.Render("no time selected")
	if !m.at.IsZero() {
		when = accentStyle.Render(m.at.UTC().Format("2006-01-02 15:04 UTC"))
	}

	var labelStr string
	switch m.labelMode {
	case LabelNone:
		labelStr = dimStyle.Render("Labels: off")
	case LabelFocused:
		labelStr = accentStyle.Render("Labels: focus")
	case LabelAll:
		labelStr = accentStyle.Render("Labels: all")
	}

	compass := dimStyle.Render(fmt.Sprintf("Az:%.0f° Alt:%.0f°", m.camAz, m.camEl))

	return fmt.Sprintf("%s | %s | %s | %s", title, when, labelStr, compass)
}

func (m SkyViewModel) renderStatus() string {
	if len(m.targets) == 0 {
		return "No targets"
	}

	t := m.targets[m.focusIdx]
	az, alt, ok := m.focusedAzAlt()
	if !ok {
		return dimStyle.Render(">>> " + t.Name + " (no position)")
	}

	c := site.Classify(alt, az, m.dome)
	line := fmt.Sprintf(">>> %s | Az:%.0f° Alt:%.0f° | ", t.Name, az, alt)
	accentStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(colorTargetFocused))
	return accentStyle.Render(line) + RenderReasonBadge(c.Reasons)
}

// markerPos tracks a target position for label rendering
type markerPos struct {
	x, y       int
	name       string
	isFocused  bool
	labelStart int
	labelEnd   int
}

// cellToSky inverts projectToScreen for shading.
func (m SkyViewModel) cellToSky(x, y, width, height int) (az, el float64) {
	horizonY := height - 2
	az = m.camAz + (float64(x)+0.5)/float64(width)*fovAz - fovAz/2
	el = m.camEl + fovEl/2 - (float64(y)+0.5)/float64(horizonY)*fovEl
	return normalizeAngle360(az), el
}

// shade returns the background of a sky cell from the dome obstructions.
func (m SkyViewModel) shade(az, el float64) (rune, lipgloss.Color) {
	if el < 0 {
		return '.', colorGround
	}
	c := site.Classify(el, az, m.dome)
	r, blocked := site.Primary(c.Reasons)
	if !blocked {
		return ' ', "236"
	}
	switch r {
	case site.DeckBlocking:
		return '▒', colorDeckShade
	case site.AboveTrackingLimits:
		return '░', colorZenithBand
	default:
		return '░', colorHorizonBand
	}
}

func (m SkyViewModel) renderSkyCanvas(width, height int) string {
	horizonY := height - 2
	canvas := make([][]rune, height)
	colors := make([][]lipgloss.Color, height)
	for y := 0; y < height; y++ {
		canvas[y] = make([]rune, width)
		colors[y] = make([]lipgloss.Color, width)
		for x := 0; x < width; x++ {
			if y >= horizonY {
				canvas[y][x], colors[y][x] = ' ', "236"
				continue
			}
			az, el := m.cellToSky(x, y, width, height)
			canvas[y][x], colors[y][x] = m.shade(az, el)
		}
	}

	if !m.at.IsZero() {
		for _, star := range m.stars {
			az, alt := astro.RADecToAzAlt(star.RAdeg, star.DecDeg, m.at, m.loc)
			if alt <= 0 {
				continue
			}
			x, y, visible := m.projectToScreen(az, alt, width, height)
			if !visible || x < 0 || x >= width || y < 0 || y >= horizonY {
				continue
			}
			canvas[y][x], colors[y][x] = m.starGlyph(star.Mag)
		}
	}

	// Horizon line (purple tint)
	for x := 0; x < width; x++ {
		canvas[horizonY][x] = '─'
		colors[horizonY][x] = "60"
	}

	m.drawCardinal(canvas, colors, width, height, "N", 0)
	m.drawCardinal(canvas, colors, width, height, "E", 90)
	m.drawCardinal(canvas, colors, width, height, "S", 180)
	m.drawCardinal(canvas, colors, width, height, "W", 270)

	if m.moonUp {
		if x, y, ok := m.projectToScreen(m.moonAz, m.moonAlt, width, height); ok && x >= 0 && x < width && y >= 0 && y < horizonY {
			canvas[y][x] = glyphMoon
			colors[y][x] = lipgloss.Color(moonColor(m.moonFraction))
		}
	}

	var positions []markerPos
	if !m.at.IsZero() {
		for i, t := range m.targets {
			if !t.Resolved() {
				continue
			}
			az, alt := astro.RADecToAzAlt(t.RADeg, t.DecDeg, m.at, m.loc)
			x, y, visible := m.projectToScreen(az, alt, width, height)
			if !visible || x < 0 || x >= width || y < 0 || y >= horizonY {
				continue
			}

			isFocused := i == m.focusIdx
			c := site.Classify(alt, az, m.dome)
			canvas[y][x] = glyphTarget
			colors[y][x] = lipgloss.Color(reasonColor(c.Reasons))
			if isFocused {
				canvas[y][x] = glyphTargetFocused
			}

			positions = append(positions, markerPos{x: x, y: y, name: t.Name, isFocused: isFocused})
		}
	}

	m.renderLabels(canvas, colors, width, horizonY, positions)

	// Telescope marker at bottom center
	if x, y := width/2, height-1; y >= 0 && x < width {
		canvas[y][x] = '▲'
		colors[y][x] = "46"
	}

	var b strings.Builder
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			style := lipgloss.NewStyle().Foreground(colors[y][x])
			b.WriteString(style.Render(string(canvas[y][x])))
		}
		if y < height-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

// renderLabels draws target labels on the canvas. Focused labels take
// priority in overlapping regions.
func (m SkyViewModel) renderLabels(canvas [][]rune, colors [][]lipgloss.Color, width, horizonY int, positions []markerPos) {
	if m.labelMode == LabelNone || len(positions) == 0 {
		return
	}

	for i := range positions {
		pos := &positions[i]
		pos.labelStart = pos.x + 2
		labelLen := len([]rune(pos.name))
		if pos.isFocused {
			labelLen += 2
		}
		pos.labelEnd = pos.labelStart + labelLen
	}

	focusedClaims := make(map[int]map[int]bool) // y -> x -> claimed
	for _, pos := range positions {
		if !pos.isFocused {
			continue
		}
		if focusedClaims[pos.y] == nil {
			focusedClaims[pos.y] = make(map[int]bool)
		}
		for x := pos.labelStart; x < pos.labelEnd; x++ {
			focusedClaims[pos.y][x] = true
		}
	}

	for _, pos := range positions {
		showLabel := m.labelMode == LabelAll || (m.labelMode == LabelFocused && pos.isFocused)
		if !showLabel {
			continue
		}

		labelColor := lipgloss.Color("#d0c8ff")
		labelText := pos.name
		if pos.isFocused {
			labelColor = colorTargetFocused
			labelText = "◄ " + pos.name
		}

		for i, r := range []rune(labelText) {
			x := pos.labelStart + i
			if x < 0 || x >= width || pos.y < 0 || pos.y >= horizonY {
				continue
			}
			if !pos.isFocused && focusedClaims[pos.y][x] {
				continue
			}
			canvas[pos.y][x] = r
			colors[pos.y][x] = labelColor
		}
	}
}

// starGlyph returns the glyph and color for a star of the given magnitude.
func (m SkyViewModel) starGlyph(mag float64) (rune, lipgloss.Color) {
	switch {
	case mag < 1.5:
		return glyphStarBright, colorStarBright
	case mag < 3.0:
		return glyphStarMedium, colorStarMedium
	case mag < 4.0:
		return glyphStarDim, colorStarDim
	default:
		return glyphStarVeryDim, colorStarVeryDim
	}
}

func (m SkyViewModel) drawCardinal(canvas [][]rune, colors [][]lipgloss.Color, width, height int, label string, az float64) {
	x, _, visible := m.projectToScreen(az, m.camEl, width, height)
	if !visible {
		return
	}
	y := height - 2

	if x >= 0 && x < width && y >= 0 && y < height {
		canvas[y][x] = rune(label[0])
		colors[y][x] = "252"
	}
}

// projectToScreen converts az/alt to screen coordinates relative to the
// camera.
func (m SkyViewModel) projectToScreen(az, el float64, width, height int) (int, int, bool) {
	dAz := normalizeAngle(az - m.camAz)
	dEl := el - m.camEl

	if dAz < -fovAz/2 || dAz > fovAz/2 {
		return 0, 0, false
	}
	if dEl < -fovEl/2 || dEl > fovEl/2 {
		return 0, 0, false
	}

	// X: -fovAz/2..+fovAz/2 -> 0..width
	// Y: +fovEl/2..-fovEl/2 -> 0..horizonY (higher el = higher on screen)
	horizonY := height - 2

	x := int((dAz + fovAz/2) / fovAz * float64(width))
	y := int((fovEl/2 - dEl) / fovEl * float64(horizonY))

	return x, y, true
}

// normalizeAngle wraps angle to -180..+180 range
func normalizeAngle(a float64) float64 {
	for a > 180 {
		a -= 360
	}
	for a < -180 {
		a += 360
	}
	return a
}

func normalizeAngle360(a float64) float64 {
	a = math.Mod(a, 360)
	if a < 0 {
		a += 360
	}
	return a
}

// lerpAngle interpolates between angles, taking shortest path
func lerpAngle(a, b, t float64) float64 {
	diff := normalizeAngle(b - a)
	return a + diff*t
}

// lerp linear interpolation
func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// Init returns nil cmd
func (m SkyViewModel) Init() tea.Cmd {
	return nil
}
