// Package ui provides the terminal user interface using Bubble Tea.
package ui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/jonboulle/clockwork"

	"github.com/litescript/ls-skyplan/internal/astro"
	"github.com/litescript/ls-skyplan/internal/site"
	"github.com/litescript/ls-skyplan/internal/state"
	"github.com/litescript/ls-skyplan/internal/version"
	"github.com/litescript/ls-skyplan/internal/visibility"
)

// ViewMode represents the current UI view.
type ViewMode int

const (
	ViewNight ViewMode = iota
	ViewSky
	ViewEvents
	ViewField
	viewCount
)

// Msg types for Bubble Tea
type (
	// TickMsg triggers periodic UI updates.
	TickMsg time.Time

	// AnimTickMsg triggers fast animation updates.
	AnimTickMsg time.Time

	// DataUpdateMsg signals a freshly computed plan.
	DataUpdateMsg struct {
		Snapshot state.Snapshot
	}

	// ErrorMsg signals a compute error.
	ErrorMsg struct {
		Error error
	}
)

// Options describe the site the plan was computed for.
type Options struct {
	Location   astro.GeoLocation
	DomeName   string
	Dome       site.DomeGeometry
	Instrument string
	Clock      clockwork.Clock
}

// Model is the root Bubble Tea model.
type Model struct {
	// Dependencies
	state *state.Manager
	opts  Options
	clock clockwork.Clock

	// UI state
	viewMode ViewMode
	width    int
	height   int
	ready    bool
	animTick int // Animation tick for shimmer effects

	// Sub-models
	night   NightModel
	skyView SkyViewModel
	events  EventsModel
	field   FieldModel

	// Data snapshot (updated on DataUpdateMsg)
	snapshot state.Snapshot
}

// New creates a new root UI model.
func New(stateMgr *state.Manager, opts Options) Model {
	clock := opts.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return Model{
		state:    stateMgr,
		opts:     opts,
		clock:    clock,
		viewMode: ViewNight,
		night:    NewNightModel(),
		skyView:  NewSkyViewModel(opts.Location, opts.Dome),
		events:   NewEventsModel(),
		field:    NewFieldModel(opts.Instrument),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		tickCmd(),
		animTickCmd(),
	)
}

// isNavKey reports whether a key moves the target or sample cursor, which
// the sky and field views share with the night view.
func isNavKey(key string) bool {
	switch key {
	case "up", "down", "left", "right", "j", "k", "h", "l", "home", "end":
		return true
	}
	return false
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch key := msg.String(); key {
		case "q", "ctrl+c":
			return m, tea.Quit

		case "1":
			m.viewMode = ViewNight
		case "2":
			m.viewMode = ViewSky
		case "3":
			m.viewMode = ViewEvents
		case "4":
			m.viewMode = ViewField

		case "tab":
			// Cycle through views
			m.viewMode = (m.viewMode + 1) % viewCount

		default:
			if isNavKey(key) && (m.viewMode == ViewSky || m.viewMode == ViewField) {
				m.night, _ = m.night.Update(msg)
				cmds = append(cmds, m.syncViews())
			} else {
				cmds = append(cmds, m.updateActiveView(msg))
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true

		// Header takes 3 lines, footer 2
		contentHeight := msg.Height - 6
		m.night = m.night.SetSize(msg.Width, contentHeight)
		m.skyView = m.skyView.SetSize(msg.Width, contentHeight)
		m.events = m.events.SetSize(msg.Width, contentHeight)
		m.field = m.field.SetSize(msg.Width, contentHeight)

	case TickMsg:
		cmds = append(cmds, tickCmd())
		if m.state != nil {
			m.state.Tick()
			m.snapshot = m.state.Snapshot()
			m.events = m.events.UpdateData(m.snapshot, m.clock.Now())
		}

	case AnimTickMsg:
		cmds = append(cmds, animTickCmd())
		m.animTick++

	case animTickMsg:
		var cmd tea.Cmd
		m.skyView, cmd = m.skyView.Update(msg)
		cmds = append(cmds, cmd)

	case DataUpdateMsg:
		now := m.clock.Now()
		m.snapshot = msg.Snapshot
		m.night = m.night.UpdateData(m.snapshot, now)
		m.events = m.events.UpdateData(m.snapshot, now)
		cmds = append(cmds, m.syncViews())

	case ErrorMsg:
		m.night = m.night.SetError(msg.Error)

	default:
		cmds = append(cmds, m.updateActiveView(msg))
	}

	return m, tea.Batch(cmds...)
}

// syncViews points the sky and field views at the night view's cursor.
func (m *Model) syncViews() tea.Cmd {
	targets := make([]visibility.Target, len(m.snapshot.Nights))
	for i, n := range m.snapshot.Nights {
		targets[i] = n.Target
	}

	at := m.night.CursorTime()
	if at.IsZero() {
		at = m.clock.Now()
	}
	row, ok := m.night.SelectedRow()
	var moon *visibility.Row
	if ok {
		moon = &row
	}

	m.skyView = m.skyView.SetScene(targets, at, moon)
	var cmd tea.Cmd
	m.skyView, cmd = m.skyView.SetFocus(m.night.cursor)

	if n := m.night.SelectedNight(); n != nil {
		m.field = m.field.SetTarget(n.Target, row, ok)
	}
	return cmd
}

func (m *Model) updateActiveView(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch m.viewMode {
	case ViewNight:
		m.night, cmd = m.night.Update(msg)
		if cmd == nil {
			cmd = m.syncViews()
		}
	case ViewSky:
		m.skyView, cmd = m.skyView.Update(msg)
	case ViewEvents:
		m.events, cmd = m.events.Update(msg)
	case ViewField:
		m.field, cmd = m.field.Update(msg)
	}
	return cmd
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	var content string
	switch m.viewMode {
	case ViewNight:
		content = m.night.View()
	case ViewSky:
		content = m.skyView.View()
	case ViewEvents:
		content = m.events.View()
	case ViewField:
		content = m.field.View()
	}

	return m.renderFrame(content)
}

func (m Model) renderFrame(content string) string {
	header := m.renderHeader()
	footer := m.renderFooter()

	return header + "\n" + content + "\n" + footer
}

func (m Model) renderHeader() string {
	return m.renderLogo() + m.renderTabs() + "\n"
}

func (m Model) renderLogo() string {
	title := "✦ LS-SKYPLAN"
	runes := []rune(title)

	var b strings.Builder
	b.WriteString("  ")
	for col, r := range runes {
		color := gradientColor(col, 0, len(runes), 1)
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Bold(true)
		b.WriteString(style.Render(string(r)))
	}

	muted := lipgloss.NewStyle().Foreground(lipgloss.Color("60"))
	loc := m.opts.Location
	b.WriteString(muted.Render(fmt.Sprintf("  %s %.4f° %.4f° · dome %s · v%s",
		loc.Name, loc.LatDeg, loc.LonDeg, m.opts.DomeName, version.Version)))
	b.WriteString("\n")

	return b.String()
}

// gradientColor returns a hex color for a position in the logo gradient.
// Creates a vibrant nebula effect: blue -> purple -> magenta -> pink
func gradientColor(col, row, width, height int) string {
	// Normalize positions to 0-1
	xRatio := float64(col) / float64(width)
	yRatio := float64(row) / float64(height)

	// Blue (#3B82F6) -> Purple (#8B5CF6) -> Magenta (#D946EF) -> Pink (#EC4899)
	var r, g, b float64

	if xRatio < 0.33 {
		// Blue to Purple
		t := xRatio / 0.33
		r = 59 + t*(139-59)
		g = 130 + t*(92-130)
		b = 246
	} else if xRatio < 0.66 {
		// Purple to Magenta
		t := (xRatio - 0.33) / 0.33
		r = 139 + t*(217-139)
		g = 92 + t*(70-92)
		b = 246 + t*(239-246)
	} else {
		// Magenta to Pink
		t := (xRatio - 0.66) / 0.34
		r = 217 + t*(236-217)
		g = 70 + t*(72-70)
		b = 239 + t*(153-239)
	}

	// Vertical fade: brighter at top, darker toward bottom
	brightnessFactor := 1.0 - (yRatio * 0.5)

	return fmt.Sprintf("#%02X%02X%02X",
		clampByte(r*brightnessFactor), clampByte(g*brightnessFactor), clampByte(b*brightnessFactor))
}

func clampByte(v float64) int {
	switch {
	case v > 255:
		return 255
	case v < 0:
		return 0
	default:
		return int(v)
	}
}

func (m Model) renderTabs() string {
	tabs := []string{"[1] Night", "[2] Sky", "[3] Events", "[4] Field"}
	activeStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#9D4EDD")).Bold(true)
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("60"))

	var parts []string
	for i, tab := range tabs {
		if ViewMode(i) == m.viewMode {
			parts = append(parts, activeStyle.Render("▶ "+tab))
		} else {
			parts = append(parts, dimStyle.Render("  "+tab))
		}
	}
	return "  " + strings.Join(parts, "  ")
}

func (m Model) renderFooter() string {
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("60"))
	errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#E84A27"))
	accentStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#7B2CBF"))

	// Animated spinner frames
	spinnerFrames := []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
	spinner := spinnerFrames[m.animTick%len(spinnerFrames)]

	var status string
	if m.snapshot.LastError != nil {
		status = errorStyle.Render("ERROR: " + m.snapshot.LastError.Error())
	} else if !m.snapshot.LastCompute.IsZero() {
		// Show countdown to next refresh with spinner
		countdown := m.snapshot.NextRefresh.Sub(m.clock.Now()).Round(time.Second)
		if countdown < 0 {
			countdown = 0
		}
		status = accentStyle.Render(spinner) + dimStyle.Render(fmt.Sprintf(" refresh in %s", countdown))
		if m.snapshot.ComputeDuration > 0 {
			status += dimStyle.Render(" (" + m.snapshot.ComputeDuration.Round(time.Millisecond).String() + ")")
		}
	} else {
		status = accentStyle.Render(spinner) + " " + m.renderShimmerText("Computing visibility...")
	}

	// View-specific help hints
	var help string
	switch m.viewMode {
	case ViewSky:
		help = dimStyle.Render("j/k: target | h/l: time | L: labels")
	case ViewEvents:
		help = dimStyle.Render("j/k: scroll | n: next")
	case ViewField:
		help = dimStyle.Render("j/k: target | h/l: time | i: instrument | +/-: PA | 0: reset | m: mirror")
	default:
		help = dimStyle.Render("↑↓: target | ←→: time | tab: switch view")
	}

	return "  " + status + "  " + dimStyle.Render("|") + "  " + help
}

func tickCmd() tea.Cmd {
	return tea.Tick(500*time.Millisecond, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func animTickCmd() tea.Cmd {
	return tea.Tick(80*time.Millisecond, func(t time.Time) tea.Msg {
		return AnimTickMsg(t)
	})
}

// SendDataUpdate creates a command that sends a data update message.
func SendDataUpdate(snapshot state.Snapshot) tea.Cmd {
	return func() tea.Msg {
		return DataUpdateMsg{Snapshot: snapshot}
	}
}

// SendError creates a command that sends an error message.
func SendError(err error) tea.Cmd {
	return func() tea.Msg {
		return ErrorMsg{Error: err}
	}
}

// renderShimmerText renders text with a subtle moving shine effect.
func (m Model) renderShimmerText(text string) string {
	runes := []rune(text)
	textLen := len(runes)
	if textLen == 0 {
		return ""
	}

	// Shimmer sweeps smoothly across
	pos := m.animTick % (textLen + 8) // A bit of padding for smooth entry/exit

	var result strings.Builder

	for i, r := range runes {
		// Distance from shimmer center
		dist := i - pos + 4
		if dist < 0 {
			dist = -dist
		}

		var r8, g8, b8 int
		switch {
		case dist <= 1:
			r8, g8, b8 = 180, 160, 220
		case dist <= 3:
			r8, g8, b8 = 140, 120, 180
		case dist <= 5:
			r8, g8, b8 = 110, 90, 150
		default:
			r8, g8, b8 = 80, 70, 120
		}

		hexColor := fmt.Sprintf("#%02X%02X%02X", r8, g8, b8)
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(hexColor))
		result.WriteString(style.Render(string(r)))
	}

	return result.String()
}
