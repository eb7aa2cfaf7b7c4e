package site

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

var testDome = DomeGeometry{
	T0: 0, T1: 360, T2: 160, T3: 200,
	R0: 0, R1: 15, R2: 15, R3: 30,
	TrackLimit: 87, AzMin: -270, AzMax: 270,
}

func TestClassify(t *testing.T) {
	mid := (testDome.T2 + testDome.T3) / 2

	tests := []struct {
		name    string
		alt, az float64
		want    []BlockReason
	}{
		{"clear sky", 45, 90, nil},
		{"deck and horizon", testDome.R1 - 1, mid, []BlockReason{DeckBlocking, BelowHorizon}},
		{"above tracking", testDome.TrackLimit + 1, 0, []BlockReason{AboveTrackingLimits}},
		{"deck only", 20, mid, []BlockReason{DeckBlocking}},
		{"above deck ceiling", testDome.R3 + 1, mid, nil},
		{"deck floor", testDome.R1, mid, []BlockReason{DeckBlocking, BelowHorizon}},
		{"deck ceiling inclusive", testDome.R3, mid, []BlockReason{DeckBlocking}},
		{"deck sector start inclusive", 20, testDome.T2, []BlockReason{DeckBlocking}},
		{"deck sector end inclusive", 20, testDome.T3, []BlockReason{DeckBlocking}},
		{"outside deck sector", 20, testDome.T3 + 0.01, nil},
		{"below horizon", 5, 90, []BlockReason{BelowHorizon}},
		{"on horizon", testDome.R1, 90, []BlockReason{BelowHorizon}},
		{"just above horizon", testDome.R1 + 1e-9, 90, nil},
		{"on tracking limit", testDome.TrackLimit, 90, []BlockReason{AboveTrackingLimits}},
		{"just below tracking limit", testDome.TrackLimit - 1e-9, 90, nil},
		{"zenith", 90, 0, []BlockReason{AboveTrackingLimits}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.alt, tt.az, testDome)
			if diff := cmp.Diff(tt.want, got.Reasons); diff != "" {
				t.Errorf("Classify(%v, %v) reasons mismatch (-want +got):\n%s", tt.alt, tt.az, diff)
			}
			if got.Observable != (len(tt.want) == 0) {
				t.Errorf("Observable = %v with reasons %v", got.Observable, got.Reasons)
			}
		})
	}
}

func TestClassify_WrappingDeck(t *testing.T) {
	g := testDome
	g.T2, g.T3 = 340, 20

	for _, az := range []float64{340, 355, 0, 10, 20, 360} {
		got := Classify(25, az, g)
		if diff := cmp.Diff([]BlockReason{DeckBlocking}, got.Reasons); diff != "" {
			t.Errorf("az=%v mismatch (-want +got):\n%s", az, diff)
		}
	}
	for _, az := range []float64{21, 180, 339} {
		if got := Classify(25, az, g); !got.Observable {
			t.Errorf("az=%v should be clear, got %v", az, got.Reasons)
		}
	}
}

func TestPrimary(t *testing.T) {
	if _, ok := Primary(nil); ok {
		t.Error("Primary(nil) should report no reason")
	}
	r, ok := Primary([]BlockReason{DeckBlocking, BelowHorizon})
	if !ok || r != DeckBlocking {
		t.Errorf("Primary = %v, %v; want DeckBlocking", r, ok)
	}
}

func TestBlockReasonString(t *testing.T) {
	tests := []struct {
		r    BlockReason
		want string
	}{
		{DeckBlocking, "deck_blocking"},
		{BelowHorizon, "below_horizon"},
		{AboveTrackingLimits, "above_tracking_limits"},
		{BlockReason(9), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.r.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", tt.r, got, tt.want)
		}
	}

	got := JoinReasons([]BlockReason{DeckBlocking, BelowHorizon}, ";")
	if got != "deck_blocking;below_horizon" {
		t.Errorf("JoinReasons = %q", got)
	}
}
