package visibility

import (
	"context"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/litescript/ls-skyplan/internal/astro"
	"github.com/litescript/ls-skyplan/internal/site"
)

// SemesterVisibility is every night of a semester for one target, in date
// order.
type SemesterVisibility struct {
	ID       string
	Semester Semester
	Target   Target
	Nights   []*Night
}

// VisibleHours sums the visible hours of every night.
func (s *SemesterVisibility) VisibleHours() float64 {
	var total float64
	for _, n := range s.Nights {
		total += n.VisibleHours
	}
	return total
}

// SemesterVisibility computes every night of semester id for target. An
// invalid id or an unresolved target gives an empty result and no error.
// Nights are sampled concurrently, bounded by the worker count.
func (p *Planner) SemesterVisibility(ctx context.Context, target Target, id string) (*SemesterVisibility, error) {
	out := &SemesterVisibility{ID: id, Target: target}

	sem, err := ParseSemester(id)
	if err != nil {
		p.log.Debug("%v", err)
		return out, nil
	}
	out.Semester = sem
	if !target.Resolved() {
		p.log.Debug("%s: unresolved position, skipping semester %s", target.Name, sem)
		return out, nil
	}

	began := p.clock.Now()
	dates := sem.Dates()
	nights := make([]*Night, len(dates))

	err = p.fanOut(ctx, len(dates), func(i int) error {
		night, err := p.Night(target, dates[i])
		if err != nil {
			return err
		}
		nights[i] = night
		return nil
	})
	if err != nil {
		return nil, err
	}

	out.Nights = nights
	if p.metrics != nil {
		p.metrics.SemesterDuration.Observe(p.clock.Since(began).Seconds())
	}
	p.log.Debug("%s semester %s: %d nights, %.1f h visible", target.Name, sem, len(nights), out.VisibleHours())
	return out, nil
}

// fanOut runs work(0..n-1) on at most p.workers goroutines. Each call owns
// slot i of its caller's result slices. The first error, or cancellation of
// ctx, stops the remaining calls from starting and is returned.
func (p *Planner) fanOut(ctx context.Context, n int, work func(i int) error) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)

	for i := 0; i < n; i++ {
		if gctx.Err() != nil {
			break
		}
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return work(i)
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// Status is the direction of an observability change.
type Status int

const (
	Emerging  Status = iota // blocked to observable
	Occluding               // observable to blocked
)

func (s Status) String() string {
	switch s {
	case Emerging:
		return "emerging"
	case Occluding:
		return "occluding"
	default:
		return "unknown"
	}
}

// MarshalText renders the status name in JSON output.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Transition is a refined observability change.
type Transition struct {
	Target  string
	Instant time.Time
	Status  Status
	Reasons []site.BlockReason // active on the blocked side
}

// Transitions scans adjacent samples of night for observability flips and
// refines each one to the planner resolution.
func (p *Planner) Transitions(target Target, night *Night) []Transition {
	if night == nil || !target.Resolved() {
		return nil
	}

	observable := func(t time.Time) bool { return p.classify(target, t).Observable }

	var out []Transition
	rows := night.Rows
	for i := 1; i < len(rows); i++ {
		prev, cur := rows[i-1], rows[i]
		if prev.Observable == cur.Observable {
			continue
		}

		instant := astro.RefineCrossing(prev.Time, cur.Time, p.resolution, observable)
		tr := Transition{Target: target.Name, Instant: instant}
		if cur.Observable {
			tr.Status = Emerging
			tr.Reasons = prev.Reasons
		} else {
			tr.Status = Occluding
			tr.Reasons = p.classify(target, instant).Reasons
			if len(tr.Reasons) == 0 {
				tr.Reasons = cur.Reasons
			}
		}
		out = append(out, tr)

		if p.metrics != nil {
			p.metrics.Transitions.WithLabelValues(tr.Status.String()).Inc()
		}
	}
	return out
}

// Plan samples several targets on the same night concurrently. Nights come
// back in target order and their transitions merged by instant.
func (p *Planner) Plan(ctx context.Context, targets []Target, date time.Time) ([]*Night, []Transition, error) {
	nights := make([]*Night, len(targets))
	perTarget := make([][]Transition, len(targets))

	err := p.fanOut(ctx, len(targets), func(i int) error {
		night, err := p.Night(targets[i], date)
		if err != nil {
			return err
		}
		nights[i] = night
		perTarget[i] = p.Transitions(targets[i], night)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	var events []Transition
	for _, tr := range perTarget {
		events = append(events, tr...)
	}
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Instant.Before(events[j].Instant)
	})
	return nights, events, nil
}

// NightEvents computes the transitions of several targets on the same night
// concurrently and merges them by instant.
func (p *Planner) NightEvents(ctx context.Context, targets []Target, date time.Time) ([]Transition, error) {
	_, events, err := p.Plan(ctx, targets, date)
	return events, err
}
