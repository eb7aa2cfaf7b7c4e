package visibility

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTarget(t *testing.T) {
	tests := []struct {
		in      string
		name    string
		ra, dec float64
	}{
		{"M42=05:35:17.3,-05:23:28", "M42", 83.8221, -5.3911},
		{"field=150.5,2.25", "field", 150.5, 2.25},
		{" M31 = 00 42 44.3 , +41 16 09", "M31", 10.6846, 41.2692},
		{"vega", "Vega", 279.2347, 38.7837},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTarget(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.name, got.Name)
			assert.InDelta(t, tt.ra, got.RADeg, 1e-3)
			assert.InDelta(t, tt.dec, got.DecDeg, 1e-3)
			assert.True(t, got.Resolved())
		})
	}
}

func TestParseTarget_Errors(t *testing.T) {
	for _, in := range []string{"nosuchstar", "x=10", "x=25:00:00,0", "x=10,95", "x=abc,def"} {
		_, err := ParseTarget(in)
		assert.Error(t, err, "input %q", in)
	}
}

func TestParseTarget_Unnamed(t *testing.T) {
	got, err := ParseTarget("=12:00:00,+10:00:00")
	require.NoError(t, err)
	assert.NotEmpty(t, got.Name)
	assert.InDelta(t, 180, got.RADeg, 1e-9)
}

func TestResolved(t *testing.T) {
	assert.False(t, Unresolved("x").Resolved())
	assert.False(t, Target{RADeg: math.NaN(), DecDeg: 0}.Resolved())
	assert.False(t, Target{RADeg: 360, DecDeg: 0}.Resolved())
	assert.False(t, Target{RADeg: 0, DecDeg: -91}.Resolved())
	assert.True(t, Target{RADeg: 0, DecDeg: 90}.Resolved())
}
