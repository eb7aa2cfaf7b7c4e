package ui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/litescript/ls-skyplan/internal/site"
	"github.com/litescript/ls-skyplan/internal/state"
	"github.com/litescript/ls-skyplan/internal/visibility"
)

const recentEventsShown = 8

// EventsModel lists tonight's observability transitions in time order and
// the log of those that have already happened.
type EventsModel struct {
	width    int
	height   int
	scroll   int
	now      time.Time
	snapshot state.Snapshot
}

// NewEventsModel creates a new events view.
func NewEventsModel() EventsModel {
	return EventsModel{}
}

// SetSize updates the viewport size.
func (m EventsModel) SetSize(width, height int) EventsModel {
	m.width = width
	m.height = height
	return m
}

// UpdateData updates the model with a new snapshot. Scrolling starts at the
// first transition still ahead of now.
func (m EventsModel) UpdateData(snapshot state.Snapshot, now time.Time) EventsModel {
	first := len(m.snapshot.Transitions) == 0
	m.snapshot = snapshot
	m.now = now
	if first {
		m.scroll = m.nextIndex()
	}
	m.scroll = m.clampScroll(m.scroll)
	return m
}

// SetNow moves the passed/upcoming boundary.
func (m EventsModel) SetNow(now time.Time) EventsModel {
	m.now = now
	return m
}

// Update handles messages.
func (m EventsModel) Update(msg tea.Msg) (EventsModel, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch keyMsg.String() {
	case "up", "k":
		m.scroll = m.clampScroll(m.scroll - 1)
	case "down", "j":
		m.scroll = m.clampScroll(m.scroll + 1)
	case "n":
		m.scroll = m.clampScroll(m.nextIndex())
	}
	return m, nil
}

// nextIndex is the index of the first transition after now, or the length
// when all have passed.
func (m EventsModel) nextIndex() int {
	for i, tr := range m.snapshot.Transitions {
		if tr.Instant.After(m.now) {
			return i
		}
	}
	return len(m.snapshot.Transitions)
}

func (m EventsModel) clampScroll(i int) int {
	last := len(m.snapshot.Transitions) - 1
	if i > last {
		i = last
	}
	if i < 0 {
		i = 0
	}
	return i
}

func (m EventsModel) visibleRows() int {
	rows := m.height - recentEventsShown - 8
	if rows < 4 {
		rows = 4
	}
	return rows
}

// View renders the events view.
func (m EventsModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Transitions"))
	if !m.snapshot.Date.IsZero() {
		b.WriteString(dimStyle.Render("   night of " + m.snapshot.Date.Format("2006-01-02")))
	}
	b.WriteString("\n")

	transitions := m.snapshot.Transitions
	if len(transitions) == 0 {
		b.WriteString(dimStyle.Render("  No observability changes tonight"))
		b.WriteString("\n")
	} else {
		header := fmt.Sprintf("  %-9s %-16s %-10s %s", "UTC", "Target", "Status", "Blocked by")
		b.WriteString(headerStyle.Render(header))
		b.WriteString("\n")

		next := m.nextIndex()
		end := m.scroll + m.visibleRows()
		if end > len(transitions) {
			end = len(transitions)
		}
		for i := m.scroll; i < end; i++ {
			b.WriteString(m.renderTransition(transitions[i], i < next, i == next))
			b.WriteString("\n")
		}
		if len(transitions) > end-m.scroll {
			b.WriteString(dimStyle.Render(fmt.Sprintf("  %d-%d of %d", m.scroll+1, end, len(transitions))))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(labelStyle.Render("Logged"))
	b.WriteString("\n")
	events := m.snapshot.Events
	if len(events) > recentEventsShown {
		events = events[len(events)-recentEventsShown:]
	}
	if len(events) == 0 {
		b.WriteString(dimStyle.Render("  Nothing has happened yet"))
		b.WriteString("\n")
	}
	for i := len(events) - 1; i >= 0; i-- {
		e := events[i]
		b.WriteString(dimStyle.Render(fmt.Sprintf("  %s  %-16s %s",
			e.Transition.Instant.UTC().Format("15:04:05"),
			truncate(e.Transition.Target, 16),
			e.Transition.Status)))
		b.WriteString("\n")
	}

	return b.String()
}

func (m EventsModel) renderTransition(tr visibility.Transition, passed, isNext bool) string {
	marker := "  "
	if isNext {
		marker = "▶ "
	}

	statusColor := colorObservable
	if tr.Status == visibility.Occluding {
		statusColor = reasonColor(tr.Reasons)
	}
	reasons := site.JoinReasons(tr.Reasons, ", ")

	left := fmt.Sprintf("%-9s %-16s ", tr.Instant.UTC().Format("15:04:05"), truncate(tr.Target, 16))
	status := fmt.Sprintf("%-10s ", tr.Status)

	if passed {
		return dimStyle.Render(marker + left + status + reasons)
	}
	return rowStyle.Render(marker+left) +
		lipgloss.NewStyle().Foreground(lipgloss.Color(statusColor)).Render(status) +
		lipgloss.NewStyle().Foreground(lipgloss.Color(reasonColor(tr.Reasons))).Render(reasons)
}
