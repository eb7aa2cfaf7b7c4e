package ephem

import (
	"testing"
	"time"
)

func TestParseTwilight(t *testing.T) {
	tests := []struct {
		input    string
		expected Twilight
	}{
		{"civil", TwilightCivil},
		{"nautical", TwilightNautical},
		{"astronomical", TwilightAstronomical},
		{"astro", TwilightAstronomical},
		{"", TwilightNautical},        // default
		{"invalid", TwilightNautical}, // default for unknown
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			got := ParseTwilight(tc.input)
			if got != tc.expected {
				t.Errorf("ParseTwilight(%q) = %v, want %v", tc.input, got, tc.expected)
			}
		})
	}
}

func TestTwilightString(t *testing.T) {
	tests := []struct {
		tw       Twilight
		expected string
		depth    float64
	}{
		{TwilightCivil, "civil", 6},
		{TwilightNautical, "nautical", 12},
		{TwilightAstronomical, "astronomical", 18},
	}

	for _, tc := range tests {
		t.Run(tc.expected, func(t *testing.T) {
			if got := tc.tw.String(); got != tc.expected {
				t.Errorf("Twilight(%d).String() = %q, want %q", tc.tw, got, tc.expected)
			}
			if got := tc.tw.DepressionDeg(); got != tc.depth {
				t.Errorf("%s depression = %v, want %v", tc.expected, got, tc.depth)
			}
		})
	}

	if got := Twilight(99).String(); got != "unknown" {
		t.Errorf("Twilight(99).String() = %q, want unknown", got)
	}
}

func TestSunTimesWindow(t *testing.T) {
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	at := func(h int) time.Time { return day.Add(time.Duration(h) * time.Hour) }

	full := SunTimes{
		Sunset: at(18), Sunrise: at(30),
		CivilDusk: at(19), CivilDawn: at(29),
		NauticalDusk: at(20), NauticalDawn: at(28),
		AstronomicalDusk: at(21), AstronomicalDawn: at(27),
	}

	tests := []struct {
		name       string
		times      SunTimes
		tw         Twilight
		start, end time.Time
		ok         bool
	}{
		{"nautical", full, TwilightNautical, at(20), at(28), true},
		{"civil", full, TwilightCivil, at(19), at(29), true},
		{"astronomical", full, TwilightAstronomical, at(21), at(27), true},
		{"fallback to sunset", SunTimes{Sunset: at(18), Sunrise: at(30)}, TwilightAstronomical, at(18), at(30), true},
		{"polar", SunTimes{}, TwilightNautical, time.Time{}, time.Time{}, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			start, end, ok := tc.times.Window(tc.tw)
			if ok != tc.ok || !start.Equal(tc.start) || !end.Equal(tc.end) {
				t.Errorf("Window = (%v, %v, %v), want (%v, %v, %v)", start, end, ok, tc.start, tc.end, tc.ok)
			}
		})
	}
}
