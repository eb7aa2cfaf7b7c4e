package astro

import "strings"

// Star is a bright catalog star usable as a named target.
type Star struct {
	Name   string
	RAdeg  float64 // J2000
	DecDeg float64 // J2000
	Mag    float64
}

// LookupStar finds a catalog star by name, ignoring case and surrounding
// spaces.
func LookupStar(name string) (Star, bool) {
	key := strings.ToLower(strings.TrimSpace(name))
	for _, s := range brightStars {
		if strings.ToLower(s.Name) == key {
			return s, true
		}
	}
	return Star{}, false
}

// BrightStars returns a copy of the built-in catalog, brightest first.
func BrightStars() []Star {
	out := make([]Star, len(brightStars))
	copy(out, brightStars)
	return out
}

// Yale Bright Star Catalog positions, J2000.
var brightStars = []Star{
	{"Sirius", 101.287, -16.716, -1.46},
	{"Canopus", 95.988, -52.696, -0.74},
	{"Arcturus", 213.915, 19.182, -0.05},
	{"Vega", 279.235, 38.784, 0.03},
	{"Capella", 79.172, 45.998, 0.08},
	{"Rigel", 78.634, -8.202, 0.13},
	{"Procyon", 114.826, 5.225, 0.34},
	{"Achernar", 24.429, -57.237, 0.46},
	{"Betelgeuse", 88.793, 7.407, 0.50},
	{"Hadar", 210.956, -60.373, 0.61},
	{"Altair", 297.696, 8.868, 0.76},
	{"Acrux", 186.650, -63.099, 0.76},
	{"Aldebaran", 68.980, 16.509, 0.85},
	{"Antares", 247.352, -26.432, 0.96},
	{"Spica", 201.298, -11.161, 0.97},
	{"Pollux", 116.329, 28.026, 1.14},
	{"Fomalhaut", 344.413, -29.622, 1.16},
	{"Deneb", 310.358, 45.280, 1.25},
	{"Regulus", 152.093, 11.967, 1.35},
	{"Castor", 113.650, 31.889, 1.58},
	{"Bellatrix", 81.283, 6.350, 1.64},
	{"Alnilam", 84.053, -1.202, 1.69},
	{"Dubhe", 165.932, 61.751, 1.79},
	{"Mirfak", 51.081, 49.861, 1.79},
	{"Alkaid", 206.885, 49.313, 1.86},
	{"Polaris", 37.954, 89.264, 2.02},
	{"Hamal", 31.793, 23.463, 2.00},
	{"Mizar", 200.981, 54.925, 2.04},
	{"Alpheratz", 2.097, 29.091, 2.06},
	{"Kochab", 222.676, 74.156, 2.08},
	{"Algol", 47.042, 40.957, 2.12},
	{"Denebola", 177.265, 14.572, 2.13},
	{"Markab", 346.190, 15.205, 2.49},
}
