package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordCacheLookup(t *testing.T) {
	m := NewMetricsForTesting()

	m.RecordCacheLookup("sun", true)
	m.RecordCacheLookup("sun", true)
	m.RecordCacheLookup("sun", false)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.EphemerisCache.WithLabelValues("sun", "hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EphemerisCache.WithLabelValues("sun", "miss")))
}

func TestForTestingIndependent(t *testing.T) {
	a := NewMetricsForTesting()
	b := NewMetricsForTesting()

	a.NightsComputed.Inc()
	assert.Equal(t, 1.0, testutil.ToFloat64(a.NightsComputed))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.NightsComputed))
}

func TestHandler(t *testing.T) {
	m := NewMetricsForTesting()
	m.SamplesEvaluated.Add(42)
	m.Transitions.WithLabelValues("emerging").Inc()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "skyplan_samples_evaluated_total 42")
	assert.Contains(t, string(body), `skyplan_transitions_total{status="emerging"} 1`)
}
