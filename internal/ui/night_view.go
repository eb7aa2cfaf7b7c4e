package ui

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/litescript/ls-skyplan/internal/astro"
	"github.com/litescript/ls-skyplan/internal/state"
	"github.com/litescript/ls-skyplan/internal/visibility"
)

// Styles for the night view
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")).
			Background(lipgloss.Color("235")).
			Padding(0, 1)

	rowStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	selectedRowStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("229")).
				Background(lipgloss.Color("57"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("135")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("60"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))
)

const coverageWidth = 36

// NightModel lists the targets of one night and details the selected one
// at a cursor instant.
type NightModel struct {
	width    int
	height   int
	cursor   int // selected target
	sample   int // selected row of the selected night
	snapshot state.Snapshot
	lastErr  error
}

// NewNightModel creates a new night view model.
func NewNightModel() NightModel {
	return NightModel{}
}

// SetSize updates the viewport size.
func (m NightModel) SetSize(width, height int) NightModel {
	m.width = width
	m.height = height
	return m
}

// SetError sets the last error for display.
func (m NightModel) SetError(err error) NightModel {
	m.lastErr = err
	return m
}

// UpdateData updates the model with a new snapshot. The sample cursor
// snaps to now the first time data arrives.
func (m NightModel) UpdateData(snapshot state.Snapshot, now time.Time) NightModel {
	first := len(m.snapshot.Nights) == 0
	m.snapshot = snapshot
	m.lastErr = snapshot.LastError
	if m.cursor >= len(snapshot.Nights) {
		m.cursor = 0
	}
	if first {
		m = m.jumpTo(now)
	}
	m.sample = m.clampSample(m.sample)
	return m
}

// Update handles messages.
func (m NightModel) Update(msg tea.Msg) (NightModel, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch keyMsg.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.snapshot.Nights)-1 {
			m.cursor++
		}
	case "left", "h":
		m.sample = m.clampSample(m.sample - 1)
	case "right", "l":
		m.sample = m.clampSample(m.sample + 1)
	case "home":
		m.sample = 0
	case "end":
		m.sample = m.clampSample(math.MaxInt32)
	}
	m.sample = m.clampSample(m.sample)
	return m, nil
}

// jumpTo moves the sample cursor to the row closest to t.
func (m NightModel) jumpTo(t time.Time) NightModel {
	n := m.SelectedNight()
	if n == nil || len(n.Rows) == 0 {
		m.sample = 0
		return m
	}
	best := 0
	for i, r := range n.Rows {
		if absDuration(r.Time.Sub(t)) < absDuration(n.Rows[best].Time.Sub(t)) {
			best = i
		}
	}
	m.sample = best
	return m
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}

func (m NightModel) clampSample(i int) int {
	n := m.SelectedNight()
	if n == nil || len(n.Rows) == 0 || i < 0 {
		return 0
	}
	if i >= len(n.Rows) {
		return len(n.Rows) - 1
	}
	return i
}

// SelectedNight returns the night of the selected target, if any.
func (m NightModel) SelectedNight() *visibility.Night {
	if m.cursor < 0 || m.cursor >= len(m.snapshot.Nights) {
		return nil
	}
	return m.snapshot.Nights[m.cursor]
}

// SelectedRow returns the sample under the cursor.
func (m NightModel) SelectedRow() (visibility.Row, bool) {
	n := m.SelectedNight()
	if n == nil || m.sample >= len(n.Rows) {
		return visibility.Row{}, false
	}
	return n.Rows[m.sample], true
}

// CursorTime returns the instant under the cursor, or the zero time.
func (m NightModel) CursorTime() time.Time {
	row, ok := m.SelectedRow()
	if !ok {
		return time.Time{}
	}
	return row.Time
}

// View renders the night view.
func (m NightModel) View() string {
	var b strings.Builder

	if m.lastErr != nil {
		b.WriteString(errorStyle.Render("Error: " + m.lastErr.Error()))
		b.WriteString("\n\n")
	}

	if len(m.snapshot.Nights) == 0 {
		if m.lastErr == nil {
			b.WriteString("Computing tonight's visibility...\n")
		}
		return b.String()
	}

	b.WriteString(m.renderTargetTable())
	b.WriteString("\n")
	b.WriteString(m.renderDetail())
	b.WriteString("\n")
	b.WriteString(m.renderAltitudeChart(m.chartWidth(), 8))

	return b.String()
}

func (m NightModel) chartWidth() int {
	w := m.width - 10
	if w < 20 {
		w = 20
	}
	return w
}

func (m NightModel) renderTargetTable() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Night of " + m.snapshot.Date.Format("2006-01-02")))
	if n := m.snapshot.Nights[0]; !n.Start.IsZero() {
		b.WriteString(dimStyle.Render(fmt.Sprintf("   dark %s – %s UTC",
			n.Start.UTC().Format("15:04"), n.End.UTC().Format("15:04"))))
	}
	b.WriteString("\n")

	header := fmt.Sprintf("%-16s %-11s %-10s %6s %7s  %s",
		"Target", "RA", "Dec", "Hours", "Max alt", "Coverage")
	b.WriteString(headerStyle.Render(header))
	b.WriteString("\n")

	maxRows := m.height - 18
	if maxRows < 3 {
		maxRows = 3
	}
	nights := m.snapshot.Nights
	startIdx := 0
	if m.cursor >= maxRows {
		startIdx = m.cursor - maxRows + 1
	}
	endIdx := startIdx + maxRows
	if endIdx > len(nights) {
		endIdx = len(nights)
	}

	for i := startIdx; i < endIdx; i++ {
		n := nights[i]
		ra, dec := "-", "-"
		if n.Target.Resolved() {
			ra = astro.FormatRA(n.Target.RADeg)
			dec = astro.FormatDec(n.Target.DecDeg)
		}
		maxAlt := "-"
		if peakAlt, ok := peakAltitude(n); ok {
			maxAlt = fmt.Sprintf("%.0f°", peakAlt)
		}

		row := fmt.Sprintf("%-16s %-11s %-10s %6.2f %7s  ",
			truncate(n.Target.Name, 16), truncate(ra, 11), truncate(dec, 10), n.VisibleHours, maxAlt)
		if i == m.cursor {
			b.WriteString(selectedRowStyle.Render(row))
		} else {
			b.WriteString(rowStyle.Render(row))
		}
		b.WriteString(RenderCoverageBar(n, coverageWidth))
		b.WriteString("\n")
	}

	if len(nights) > maxRows {
		b.WriteString(fmt.Sprintf("\n  Showing %d-%d of %d targets\n", startIdx+1, endIdx, len(nights)))
	}
	return b.String()
}

// peakAltitude returns the refined culmination altitude of a night.
func peakAltitude(n *visibility.Night) (float64, bool) {
	if n == nil || len(n.Rows) == 0 {
		return 0, false
	}
	samples := make([]astro.AltitudeSample, len(n.Rows))
	for i, r := range n.Rows {
		samples[i] = astro.AltitudeSample{Time: r.Time, AltDeg: r.AltDeg}
	}
	_, alt := astro.Peak(samples)
	return alt, true
}

func (m NightModel) renderDetail() string {
	row, ok := m.SelectedRow()
	if !ok {
		return dimStyle.Render("  No dark window for this night") + "\n"
	}
	n := m.SelectedNight()

	var b strings.Builder
	b.WriteString(labelStyle.Render(fmt.Sprintf("%-16s", truncate(n.Target.Name, 16))))
	b.WriteString(rowStyle.Render(row.Time.UTC().Format("15:04 UTC")))
	b.WriteString("   ")
	b.WriteString(RenderReasonBadge(row.Reasons))
	b.WriteString("\n")

	airmass := "-"
	if !math.IsNaN(row.AirMass) {
		airmass = fmt.Sprintf("%.2f", row.AirMass)
	}
	b.WriteString(dimStyle.Render(fmt.Sprintf("  alt %5.1f°  az %5.1f°  X %s  HA %5.1f°  PA %6.1f°",
		row.AltDeg, row.AzDeg, airmass, row.HourAngleDeg, row.ParallacticDeg)))
	b.WriteString("\n  ")
	b.WriteString(RenderMoon(row))
	b.WriteString("\n")
	return b.String()
}

// renderAltitudeChart draws altitude against time, one column per cell,
// colored by observability. The cursor column is highlighted.
func (m NightModel) renderAltitudeChart(width, height int) string {
	n := m.SelectedNight()
	if n == nil || len(n.Rows) == 0 {
		return ""
	}

	cells := coverageCells(n.Rows, width)
	cursorCol := -1
	if len(n.Rows) > 0 {
		cursorCol = m.sample * len(cells) / len(n.Rows)
	}

	var b strings.Builder
	for level := height; level >= 1; level-- {
		floor := 90 * float64(level-1) / float64(height)
		b.WriteString(dimStyle.Render(fmt.Sprintf("%3.0f° ", 90*float64(level)/float64(height))))
		for col, row := range cells {
			ch, color := " ", "236"
			if row.AltDeg > floor {
				ch, color = string(reasonGlyph(row.Reasons)), reasonColor(row.Reasons)
			}
			if col == cursorCol && ch == " " {
				ch, color = "│", "229"
			}
			b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render(ch))
		}
		b.WriteString("\n")
	}

	first, last := cells[0].Time.UTC().Format("15:04"), cells[len(cells)-1].Time.UTC().Format("15:04")
	pad := len(cells) - len(first) - len(last)
	if pad < 1 {
		pad = 1
	}
	b.WriteString(dimStyle.Render("     " + first + strings.Repeat(" ", pad) + last))
	return b.String()
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
