package astro

import "testing"

func TestLookupStar(t *testing.T) {
	tests := []struct {
		name   string
		want   string
		minDec float64
		maxDec float64
	}{
		{"Vega", "Vega", 37, 40},
		{"  polaris ", "Polaris", 88, 90},
		{"SIRIUS", "Sirius", -18, -15},
	}
	for _, tt := range tests {
		star, ok := LookupStar(tt.name)
		if !ok {
			t.Errorf("LookupStar(%q) not found", tt.name)
			continue
		}
		if star.Name != tt.want {
			t.Errorf("LookupStar(%q).Name = %q, want %q", tt.name, star.Name, tt.want)
		}
		if star.DecDeg < tt.minDec || star.DecDeg > tt.maxDec {
			t.Errorf("%s Dec=%v, expected %v-%v", star.Name, star.DecDeg, tt.minDec, tt.maxDec)
		}
	}

	if _, ok := LookupStar("M31"); ok {
		t.Error("LookupStar(M31) should not resolve")
	}
}

func TestBrightStars_ValidCoordinates(t *testing.T) {
	seen := make(map[string]bool)
	for _, star := range BrightStars() {
		if star.RAdeg < 0 || star.RAdeg >= 360 {
			t.Errorf("Star %s has invalid RA: %v", star.Name, star.RAdeg)
		}
		if star.DecDeg < -90 || star.DecDeg > 90 {
			t.Errorf("Star %s has invalid Dec: %v", star.Name, star.DecDeg)
		}
		if seen[star.Name] {
			t.Errorf("Duplicate star name: %s", star.Name)
		}
		seen[star.Name] = true
	}
}

func TestBrightStars_Copy(t *testing.T) {
	stars := BrightStars()
	stars[0].Name = "changed"
	if BrightStars()[0].Name != "Sirius" {
		t.Error("BrightStars should return a copy")
	}
}
