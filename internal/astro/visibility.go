package astro

import (
	"time"
)

// AltitudeSample is an object's altitude at one instant.
type AltitudeSample struct {
	Time   time.Time
	AltDeg float64
}

// Peak finds the time of maximum altitude in a chronological series and
// refines it with a parabola through the highest sample and its neighbours.
// Returns the zero time for an empty series.
func Peak(samples []AltitudeSample) (time.Time, float64) {
	if len(samples) == 0 {
		return time.Time{}, 0
	}

	maxIdx := 0
	for i, s := range samples {
		if s.AltDeg > samples[maxIdx].AltDeg {
			maxIdx = i
		}
	}

	// Need a neighbour on each side to fit a parabola
	if maxIdx == 0 || maxIdx == len(samples)-1 {
		return samples[maxIdx].Time, samples[maxIdx].AltDeg
	}

	prev, peak, next := samples[maxIdx-1], samples[maxIdx], samples[maxIdx+1]

	// Parabola y = at^2 + bt + c through t = -1, 0, +1
	c := peak.AltDeg
	a := (prev.AltDeg+next.AltDeg)/2 - c
	b := (next.AltDeg - prev.AltDeg) / 2

	// Only a downward-opening parabola has a maximum
	if a >= 0 {
		return peak.Time, peak.AltDeg
	}

	tMax := -b / (2 * a)
	if tMax < -1 {
		tMax = -1
	} else if tMax > 1 {
		tMax = 1
	}

	dt := peak.Time.Sub(prev.Time)
	return peak.Time.Add(time.Duration(float64(dt) * tMax)), a*tMax*tMax + b*tMax + c
}

// RefineCrossing narrows the interval [lo, hi] in which state flips from
// state(lo) to state(hi) by bisection, until it is no wider than resolution.
// It returns the earliest instant found in the state of hi.
//
// If state(lo) == state(hi) there is nothing to refine and hi is returned.
func RefineCrossing(lo, hi time.Time, resolution time.Duration, state func(time.Time) bool) time.Time {
	if resolution <= 0 {
		resolution = time.Second
	}
	before := state(lo)
	if state(hi) == before {
		return hi
	}

	for hi.Sub(lo) > resolution {
		mid := lo.Add(hi.Sub(lo) / 2)
		if state(mid) == before {
			lo = mid
		} else {
			hi = mid
		}
	}
	return hi
}
