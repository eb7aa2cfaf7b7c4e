package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/litescript/ls-skyplan/internal/site"
	"github.com/litescript/ls-skyplan/internal/visibility"
)

// Observability colors
const (
	colorObservable = "#7CFC00" // lawn green
	colorDeck       = "#FF6347" // tomato
	colorTracking   = "#FFD700" // gold
	colorHorizon    = "#444444" // dark gray

	// Moon brightness colors
	colorMoonDark   = "#5A5A8C"
	colorMoonGrey   = "#B0B0D0"
	colorMoonBright = "#FFFFE0"
)

// reasonColor returns the color of a sample: green when observable, else
// the color of its primary block reason.
func reasonColor(reasons []site.BlockReason) string {
	r, blocked := site.Primary(reasons)
	if !blocked {
		return colorObservable
	}
	switch r {
	case site.DeckBlocking:
		return colorDeck
	case site.AboveTrackingLimits:
		return colorTracking
	default:
		return colorHorizon
	}
}

// reasonGlyph returns the bar glyph of a sample.
func reasonGlyph(reasons []site.BlockReason) rune {
	r, blocked := site.Primary(reasons)
	if !blocked {
		return '█'
	}
	switch r {
	case site.DeckBlocking:
		return '▒'
	case site.AboveTrackingLimits:
		return '▓'
	default:
		return '░'
	}
}

// RenderReasonBadge renders "observable" or the joined block reasons in the
// primary reason's color.
func RenderReasonBadge(reasons []site.BlockReason) string {
	text := "observable"
	if len(reasons) > 0 {
		text = site.JoinReasons(reasons, ", ")
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(reasonColor(reasons))).Render(text)
}

// coverageCells downsamples a night's rows to width cells. Each cell takes
// the first row that falls into it.
func coverageCells(rows []visibility.Row, width int) []visibility.Row {
	if width <= 0 || len(rows) == 0 {
		return nil
	}
	if len(rows) <= width {
		return rows
	}
	cells := make([]visibility.Row, width)
	for i := range cells {
		cells[i] = rows[i*len(rows)/width]
	}
	return cells
}

// RenderCoverageBar renders a compact bar of a night's observability.
// Format: ░░▒▒████████░░
func RenderCoverageBar(n *visibility.Night, width int) string {
	if n == nil || len(n.Rows) == 0 {
		dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
		return dimStyle.Render(strings.Repeat("·", width))
	}

	var b strings.Builder
	for _, row := range coverageCells(n.Rows, width) {
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(reasonColor(row.Reasons)))
		b.WriteString(style.Render(string(reasonGlyph(row.Reasons))))
	}
	return b.String()
}

// moonColor returns the color for an illuminated fraction.
func moonColor(fraction float64) string {
	switch {
	case fraction >= 0.7:
		return colorMoonBright
	case fraction >= 0.3:
		return colorMoonGrey
	default:
		return colorMoonDark
	}
}

// RenderMoon renders the moon state of one sample.
func RenderMoon(row visibility.Row) string {
	style := lipgloss.NewStyle().Foreground(lipgloss.Color(moonColor(row.MoonIllumination)))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("60"))

	if row.MoonAltDeg <= 0 {
		return dimStyle.Render(fmt.Sprintf("moon down (%.0f%%)", row.MoonIllumination*100))
	}
	return style.Render(fmt.Sprintf("moon %.0f%% @ %.0f°", row.MoonIllumination*100, row.MoonAltDeg)) +
		dimStyle.Render(fmt.Sprintf("  sep %.0f°", row.LunarAngleDeg))
}
