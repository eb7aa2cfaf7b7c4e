package site

import (
	"math"
	"strings"
)

// BlockReason explains why a position cannot be observed. The declaration
// order is the reporting order.
type BlockReason int

const (
	DeckBlocking BlockReason = iota
	BelowHorizon
	AboveTrackingLimits
)

// String returns the reason name.
func (r BlockReason) String() string {
	switch r {
	case DeckBlocking:
		return "deck_blocking"
	case BelowHorizon:
		return "below_horizon"
	case AboveTrackingLimits:
		return "above_tracking_limits"
	default:
		return "unknown"
	}
}

// MarshalText renders the reason name in JSON and CSV output.
func (r BlockReason) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// Classification is the outcome for one sky position.
type Classification struct {
	Observable bool
	Reasons    []BlockReason
}

// Classify checks a horizontal position against a dome. All checks run
// independently. The deck rises from the ground to R3 inside T2..T3, both
// edges inclusive. Every limit belongs to the blocked side, so a position
// exactly on the horizon or the tracking limit is not observable.
func Classify(altDeg, azDeg float64, g DomeGeometry) Classification {
	var reasons []BlockReason

	if g.inDeckSector(azDeg) && altDeg <= g.R3 {
		reasons = append(reasons, DeckBlocking)
	}
	if altDeg <= g.R1 {
		reasons = append(reasons, BelowHorizon)
	}
	if altDeg >= g.TrackLimit {
		reasons = append(reasons, AboveTrackingLimits)
	}

	return Classification{Observable: len(reasons) == 0, Reasons: reasons}
}

// inDeckSector reports whether az lies in T2..T3 inclusive. A sector with
// T2 > T3 wraps through north.
func (g DomeGeometry) inDeckSector(azDeg float64) bool {
	az := math.Mod(azDeg, 360)
	if az < 0 {
		az += 360
	}
	if g.T2 <= g.T3 {
		return az >= g.T2 && az <= g.T3
	}
	return az >= g.T2 || az <= g.T3
}

// Primary returns the first reason, which decides how a blocked sample is
// drawn.
func Primary(reasons []BlockReason) (BlockReason, bool) {
	if len(reasons) == 0 {
		return 0, false
	}
	return reasons[0], true
}

// JoinReasons renders reasons separated by sep, in order.
func JoinReasons(reasons []BlockReason, sep string) string {
	names := make([]string, len(reasons))
	for i, r := range reasons {
		names[i] = r.String()
	}
	return strings.Join(names, sep)
}
