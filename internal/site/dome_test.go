package site

import (
	"errors"
	"math"
	"testing"
)

func TestKnownDomesValid(t *testing.T) {
	for _, d := range Domes {
		g, ok := KnownDomes[d]
		if !ok {
			t.Errorf("dome %s has no geometry", d)
			continue
		}
		if err := g.Validate(); err != nil {
			t.Errorf("dome %s: %v", d, err)
		}
	}
}

func TestParseDome(t *testing.T) {
	if d, ok := ParseDome("east"); !ok || d != DomeEast {
		t.Errorf("ParseDome(east) = %v, %v", d, ok)
	}
	if _, ok := ParseDome("north"); ok {
		t.Error("ParseDome(north) should fail")
	}
}

func TestValidate(t *testing.T) {
	base := KnownDomes[DomeMain]

	tests := []struct {
		name   string
		mutate func(*DomeGeometry)
	}{
		{"nan azimuth", func(g *DomeGeometry) { g.T2 = math.NaN() }},
		{"azimuth out of range", func(g *DomeGeometry) { g.T3 = 400 }},
		{"altitude out of range", func(g *DomeGeometry) { g.R3 = 95 }},
		{"deck inverted", func(g *DomeGeometry) { g.R1, g.R3 = 40, 30 }},
		{"horizon above track limit", func(g *DomeGeometry) { g.R1, g.R3, g.TrackLimit = 50, 60, 45 }},
		{"azimuth limits", func(g *DomeGeometry) { g.AzMin, g.AzMax = 10, -10 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := base
			tt.mutate(&g)
			if err := g.Validate(); !errors.Is(err, ErrInvalidGeometry) {
				t.Errorf("Validate() = %v, want ErrInvalidGeometry", err)
			}
		})
	}

	if base.HorizonDeg() != base.R1 {
		t.Errorf("HorizonDeg = %v, want R1", base.HorizonDeg())
	}
}
