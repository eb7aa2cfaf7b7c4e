package visibility

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/litescript/ls-skyplan/internal/site"
)

func testNight(t *testing.T) (*Planner, *Night) {
	t.Helper()
	p := newTestPlanner(t, newFakeProvider())
	n, err := p.Night(transitingTarget("meridian", 10*time.Hour), testDate)
	require.NoError(t, err)
	return p, n
}

func TestExportNight_JSON(t *testing.T) {
	_, n := testNight(t)

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, ExportNight(n, true)))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "meridian", decoded["target"])
	assert.Equal(t, "2024-03-01", decoded["date"])
	assert.Equal(t, 10.0, decoded["step_minutes"])

	rows := decoded["rows"].([]any)
	require.Len(t, rows, len(n.Rows))

	// The first sample is at the horizon edge of the window
	first := rows[0].(map[string]any)
	assert.Nil(t, first["airmass"], "airmass must be null below the horizon")
	assert.Equal(t, []any{"below_horizon"}, first["reasons"])

	mid := rows[len(rows)/2].(map[string]any)
	assert.NotNil(t, mid["airmass"])
	assert.Equal(t, true, mid["observable"])
	assert.NotContains(t, mid, "reasons")
}

func TestExportNight_WithoutRows(t *testing.T) {
	_, n := testNight(t)
	out := ExportNight(n, false)
	assert.Empty(t, out.Rows)
	assert.Equal(t, n.VisibleHours, out.VisibleHours)
	require.NotNil(t, out.WindowStart)
	assert.Equal(t, n.Start, *out.WindowStart)
	assert.NotEmpty(t, out.RA)
}

func TestExportSemester(t *testing.T) {
	p := newTestPlanner(t, newFakeProvider())
	sv, err := p.SemesterVisibility(context.Background(), transitingTarget("meridian", 10*time.Hour), "2024A")
	require.NoError(t, err)

	out := ExportSemester(sv, false)
	assert.Equal(t, "2024A", out.Semester)
	assert.Len(t, out.Nights, 182)
	assert.InDelta(t, sv.VisibleHours(), out.VisibleHours, 1e-9)

	empty := ExportSemester(&SemesterVisibility{ID: "bogus"}, false)
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, empty))
	assert.Contains(t, buf.String(), `"nights": []`)
}

func TestWriteNightCSV(t *testing.T) {
	_, n := testNight(t)

	var buf bytes.Buffer
	require.NoError(t, WriteNightCSV(&buf, n))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, len(n.Rows)+1)
	assert.Equal(t, "target", records[0][0])
	assert.Equal(t, "airmass", records[0][4])
	assert.Equal(t, n.Target.Name, records[1][0])
	assert.Equal(t, "", records[1][4], "blank airmass below the horizon")
	assert.Equal(t, "below_horizon", records[1][6])
	assert.Equal(t, "2024-03-01T04:00:00Z", records[1][1])

	buf.Reset()
	require.NoError(t, WriteNightCSV(&buf, n, n))
	records, err = csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Len(t, records, 2*len(n.Rows)+1, "one header for several nights")
}

func TestWriteSemesterCSV(t *testing.T) {
	p := newTestPlanner(t, newFakeProvider())
	sv, err := p.SemesterVisibility(context.Background(), transitingTarget("meridian", 10*time.Hour), "2024B")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteSemesterCSV(&buf, sv))
	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 185)
	assert.Equal(t, "2024-08-01", records[1][0])
	assert.Equal(t, "2025-01-31", records[184][0])
	assert.Equal(t, "73", records[1][4])
}

func TestWriteEventsCSV(t *testing.T) {
	events := []Transition{
		{Target: "a", Instant: testDate.Add(5 * time.Hour), Status: Emerging, Reasons: []site.BlockReason{site.DeckBlocking, site.BelowHorizon}},
		{Target: "a", Instant: testDate.Add(9 * time.Hour), Status: Occluding, Reasons: []site.BlockReason{site.AboveTrackingLimits}},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteEventsCSV(&buf, events))

	want := "target,instant,status,reasons\n" +
		"a,2024-03-01T05:00:00Z,emerging,deck_blocking;below_horizon\n" +
		"a,2024-03-01T09:00:00Z,occluding,above_tracking_limits\n"
	assert.Equal(t, want, buf.String())
}

func TestExportTransitions(t *testing.T) {
	out := ExportTransitions([]Transition{{Target: "a", Instant: testDate, Status: Occluding}})
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, out))
	assert.Contains(t, buf.String(), `"status": "occluding"`)
	assert.Contains(t, buf.String(), `"reasons": []`)
}

func TestExportPlan(t *testing.T) {
	p, n := testNight(t)
	events := p.Transitions(n.Target, n)

	out := ExportPlan(p.Location(), "main", testDate, []*Night{n}, events, false)
	assert.Equal(t, "Mauna Kea", out.Site)
	assert.Equal(t, "main", out.Dome)
	assert.Equal(t, "2024-03-01", out.Date)
	require.Len(t, out.Nights, 1)
	assert.Empty(t, out.Nights[0].Rows)
	assert.Len(t, out.Transitions, len(events))

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, ExportPlan(p.Location(), "main", testDate, nil, nil, false)))
	assert.Contains(t, buf.String(), `"nights": []`)
	assert.Contains(t, buf.String(), `"transitions": []`)
}

func TestWriteSummaryTable(t *testing.T) {
	p, n := testNight(t)

	var buf bytes.Buffer
	WriteSummaryTable(&buf, p.Location(), []*Night{n}, testDate)
	out := buf.String()

	assert.Contains(t, out, "Mauna Kea")
	assert.Contains(t, out, "meridian")
	assert.Contains(t, out, "04:00")
	assert.Contains(t, out, "Total: 1 nights")

	buf.Reset()
	WriteSummaryTable(&buf, p.Location(), nil, testDate)
	assert.Contains(t, buf.String(), "No nights computed")
}

func TestTruncateStr(t *testing.T) {
	assert.Equal(t, "short", truncateStr("short", 10))
	assert.Equal(t, "a very l..", truncateStr("a very long name", 10))
	assert.True(t, strings.HasPrefix(truncateStr("abcdef", 3), "abc"))
}
