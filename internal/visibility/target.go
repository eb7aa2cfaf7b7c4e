// Package visibility samples targets over nights and semesters and finds
// when they become observable or blocked.
package visibility

import (
	"fmt"
	"math"
	"strings"

	"github.com/litescript/ls-skyplan/internal/astro"
)

// Target is a fixed point on the sky. NaN coordinates mark a target whose
// position could not be resolved.
type Target struct {
	Name   string
	RADeg  float64
	DecDeg float64
}

// Unresolved returns a target with no position.
func Unresolved(name string) Target {
	return Target{Name: name, RADeg: math.NaN(), DecDeg: math.NaN()}
}

// Resolved reports whether the target has a usable position.
func (t Target) Resolved() bool {
	if math.IsNaN(t.RADeg) || math.IsNaN(t.DecDeg) {
		return false
	}
	return t.RADeg >= 0 && t.RADeg < 360 && t.DecDeg >= -90 && t.DecDeg <= 90
}

// ParseTarget reads "name=RA,Dec" with sexagesimal or decimal coordinates,
// or a bright star name.
func ParseTarget(s string) (Target, error) {
	name, coords, ok := strings.Cut(s, "=")
	name = strings.TrimSpace(name)
	if !ok {
		star, found := astro.LookupStar(name)
		if !found {
			return Target{}, fmt.Errorf("unknown target %q (use name=RA,Dec)", name)
		}
		return Target{Name: star.Name, RADeg: star.RAdeg, DecDeg: star.DecDeg}, nil
	}

	raStr, decStr, ok := strings.Cut(coords, ",")
	if !ok {
		return Target{}, fmt.Errorf("target %q: expected RA,Dec", s)
	}
	ra, err := astro.ParseRA(raStr)
	if err != nil {
		return Target{}, fmt.Errorf("target %q: %w", name, err)
	}
	dec, err := astro.ParseDec(decStr)
	if err != nil {
		return Target{}, fmt.Errorf("target %q: %w", name, err)
	}
	if name == "" {
		name = astro.FormatRA(ra) + " " + astro.FormatDec(dec)
	}
	return Target{Name: name, RADeg: ra, DecDeg: dec}, nil
}
