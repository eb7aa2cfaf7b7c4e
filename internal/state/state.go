// Package state holds the latest computed night plan for the terminal view.
package state

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/litescript/ls-skyplan/internal/visibility"
)

// Event is a transition whose instant has passed, logged once.
type Event struct {
	Transition visibility.Transition
	LoggedAt   time.Time
}

type eventKey struct {
	target  string
	instant time.Time
	status  visibility.Status
}

// Manager handles the shared plan with thread-safe access. The compute loop
// writes it and the UI reads snapshots.
type Manager struct {
	mu    sync.RWMutex
	clock clockwork.Clock

	date            time.Time
	nights          []*visibility.Night
	transitions     []visibility.Transition
	lastCompute     time.Time
	lastError       error
	computeDuration time.Duration

	// Event log (ring buffer)
	events       []Event
	maxEvents    int
	eventWriteAt int
	logged       map[eventKey]bool

	refreshInterval time.Duration
}

// Config holds configuration for the state manager.
type Config struct {
	MaxEvents       int
	RefreshInterval time.Duration
	Clock           clockwork.Clock
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		MaxEvents:       50,
		RefreshInterval: 5 * time.Minute,
	}
}

// NewManager creates a new state manager.
func NewManager(cfg Config) *Manager {
	maxEvents := cfg.MaxEvents
	if maxEvents <= 0 {
		maxEvents = 50
	}
	clock := cfg.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Manager{
		clock:           clock,
		maxEvents:       maxEvents,
		events:          make([]Event, 0, maxEvents),
		logged:          make(map[eventKey]bool),
		refreshInterval: cfg.RefreshInterval,
	}
}

// Update stores a freshly computed plan. On error the previous plan is kept
// and only the error is recorded.
func (m *Manager) Update(date time.Time, nights []*visibility.Night, transitions []visibility.Transition, took time.Duration, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now()
	m.lastCompute = now
	m.lastError = err
	m.computeDuration = took

	if err != nil {
		return
	}

	m.date = date
	m.nights = nights
	m.transitions = transitions
	m.logPassed(now)
}

// Tick logs transitions that have passed since the last call without
// recomputing the plan.
func (m *Manager) Tick() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logPassed(m.clock.Now())
}

func (m *Manager) logPassed(now time.Time) {
	for _, tr := range m.transitions {
		if tr.Instant.After(now) {
			continue
		}
		key := eventKey{target: tr.Target, instant: tr.Instant, status: tr.Status}
		if m.logged[key] {
			continue
		}
		m.logged[key] = true
		m.addEvent(Event{Transition: tr, LoggedAt: now})
	}
}

func (m *Manager) addEvent(e Event) {
	if len(m.events) < m.maxEvents {
		m.events = append(m.events, e)
		return
	}
	m.events[m.eventWriteAt] = e
	m.eventWriteAt = (m.eventWriteAt + 1) % m.maxEvents
}

// Snapshot is a consistent copy of the current state.
type Snapshot struct {
	Date            time.Time
	Nights          []*visibility.Night
	Transitions     []visibility.Transition
	LastCompute     time.Time
	LastError       error
	ComputeDuration time.Duration
	NextRefresh     time.Time
	Events          []Event
}

// Snapshot returns a consistent snapshot of current state.
func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	nights := make([]*visibility.Night, len(m.nights))
	copy(nights, m.nights)
	transitions := make([]visibility.Transition, len(m.transitions))
	copy(transitions, m.transitions)

	var next time.Time
	if !m.lastCompute.IsZero() {
		next = m.lastCompute.Add(m.refreshInterval)
	}

	return Snapshot{
		Date:            m.date,
		Nights:          nights,
		Transitions:     transitions,
		LastCompute:     m.lastCompute,
		LastError:       m.lastError,
		ComputeDuration: m.computeDuration,
		NextRefresh:     next,
		Events:          m.getEventsOrdered(),
	}
}

// getEventsOrdered returns events in chronological order.
func (m *Manager) getEventsOrdered() []Event {
	if len(m.events) == 0 {
		return nil
	}

	if len(m.events) < m.maxEvents {
		result := make([]Event, len(m.events))
		copy(result, m.events)
		return result
	}

	// Ring buffer is full, reorder from oldest to newest
	result := make([]Event, m.maxEvents)
	for i := 0; i < m.maxEvents; i++ {
		idx := (m.eventWriteAt + i) % m.maxEvents
		result[i] = m.events[idx]
	}
	return result
}

// RecentEvents returns the last n logged events.
func (m *Manager) RecentEvents(n int) []Event {
	m.mu.RLock()
	defer m.mu.RUnlock()

	all := m.getEventsOrdered()
	if len(all) <= n {
		return all
	}
	return all[len(all)-n:]
}

// Upcoming returns up to n transitions that have not happened yet.
func (m *Manager) Upcoming(n int) []visibility.Transition {
	m.mu.RLock()
	defer m.mu.RUnlock()

	now := m.clock.Now()
	var out []visibility.Transition
	for _, tr := range m.transitions {
		if tr.Instant.After(now) {
			out = append(out, tr)
			if len(out) == n {
				break
			}
		}
	}
	return out
}

// RefreshInterval returns the configured refresh interval.
func (m *Manager) RefreshInterval() time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.refreshInterval
}

// HasData reports whether a plan has been computed successfully.
func (m *Manager) HasData() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.nights != nil
}
