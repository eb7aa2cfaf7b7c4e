package visibility

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/litescript/ls-skyplan/internal/astro"
	"github.com/litescript/ls-skyplan/internal/site"
)

// RowExport is a JSON-friendly sample. AirMass is null below the horizon.
type RowExport struct {
	Time             time.Time          `json:"time"`
	AzDeg            float64            `json:"az_deg"`
	AltDeg           float64            `json:"alt_deg"`
	AirMass          *float64           `json:"airmass"`
	Observable       bool               `json:"observable"`
	Reasons          []site.BlockReason `json:"reasons,omitempty"`
	MoonAzDeg        float64            `json:"moon_az_deg"`
	MoonAltDeg       float64            `json:"moon_alt_deg"`
	MoonIllumination float64            `json:"moon_illumination"`
	MoonPhaseDeg     float64            `json:"moon_phase_deg"`
	LunarAngleDeg    float64            `json:"lunar_angle_deg"`
	MoonIrradiance   float64            `json:"moon_irradiance"`
	HourAngleDeg     float64            `json:"hour_angle_deg"`
	ParallacticDeg   float64            `json:"parallactic_deg"`
}

// NightExport is a JSON-friendly night.
type NightExport struct {
	Target       string      `json:"target"`
	RA           string      `json:"ra"`
	Dec          string      `json:"dec"`
	Date         string      `json:"date"`
	Sunset       *time.Time  `json:"sunset,omitempty"`
	Sunrise      *time.Time  `json:"sunrise,omitempty"`
	WindowStart  *time.Time  `json:"window_start,omitempty"`
	WindowEnd    *time.Time  `json:"window_end,omitempty"`
	StepMinutes  float64     `json:"step_minutes"`
	VisibleHours float64     `json:"visible_hours"`
	Rows         []RowExport `json:"rows,omitempty"`
}

// SemesterExport is a JSON-friendly semester.
type SemesterExport struct {
	Semester     string        `json:"semester"`
	Target       string        `json:"target"`
	VisibleHours float64       `json:"visible_hours"`
	Nights       []NightExport `json:"nights"`
}

// TransitionExport is a JSON-friendly transition.
type TransitionExport struct {
	Target  string             `json:"target"`
	Instant time.Time          `json:"instant"`
	Status  Status             `json:"status"`
	Reasons []site.BlockReason `json:"reasons"`
}

// PlanExport is one night planned for several targets.
type PlanExport struct {
	Site        string             `json:"site"`
	LatDeg      float64            `json:"lat_deg"`
	LonDeg      float64            `json:"lon_deg"`
	Dome        string             `json:"dome"`
	Date        string             `json:"date"`
	Nights      []NightExport      `json:"nights"`
	Transitions []TransitionExport `json:"transitions"`
}

// ExportPlan converts the output of Planner.Plan to its exportable form.
func ExportPlan(loc astro.GeoLocation, dome string, date time.Time, nights []*Night, events []Transition, includeRows bool) PlanExport {
	out := PlanExport{
		Site:        loc.Name,
		LatDeg:      loc.LatDeg,
		LonDeg:      loc.LonDeg,
		Dome:        dome,
		Date:        date.Format("2006-01-02"),
		Nights:      make([]NightExport, 0, len(nights)),
		Transitions: ExportTransitions(events),
	}
	for _, n := range nights {
		out.Nights = append(out.Nights, ExportNight(n, includeRows))
	}
	return out
}

// ExportNight converts a night to its exportable form.
func ExportNight(n *Night, includeRows bool) NightExport {
	out := NightExport{
		Target:       n.Target.Name,
		Date:         n.Date.Format("2006-01-02"),
		Sunset:       optionalTime(n.Sun.Sunset),
		Sunrise:      optionalTime(n.Sun.Sunrise),
		WindowStart:  optionalTime(n.Start),
		WindowEnd:    optionalTime(n.End),
		StepMinutes:  n.Step.Minutes(),
		VisibleHours: n.VisibleHours,
	}
	if n.Target.Resolved() {
		out.RA = astro.FormatRA(n.Target.RADeg)
		out.Dec = astro.FormatDec(n.Target.DecDeg)
	}
	if !includeRows {
		return out
	}
	for _, r := range n.Rows {
		out.Rows = append(out.Rows, RowExport{
			Time:             r.Time,
			AzDeg:            r.AzDeg,
			AltDeg:           r.AltDeg,
			AirMass:          optionalFloat(r.AirMass),
			Observable:       r.Observable,
			Reasons:          r.Reasons,
			MoonAzDeg:        r.MoonAzDeg,
			MoonAltDeg:       r.MoonAltDeg,
			MoonIllumination: r.MoonIllumination,
			MoonPhaseDeg:     r.MoonPhaseDeg,
			LunarAngleDeg:    r.LunarAngleDeg,
			MoonIrradiance:   r.MoonIrradiance,
			HourAngleDeg:     r.HourAngleDeg,
			ParallacticDeg:   r.ParallacticDeg,
		})
	}
	return out
}

// ExportSemester converts a semester to its exportable form.
func ExportSemester(s *SemesterVisibility, includeRows bool) SemesterExport {
	out := SemesterExport{
		Semester:     s.ID,
		Target:       s.Target.Name,
		VisibleHours: s.VisibleHours(),
		Nights:       []NightExport{},
	}
	for _, n := range s.Nights {
		out.Nights = append(out.Nights, ExportNight(n, includeRows))
	}
	return out
}

// ExportTransitions converts transitions to their exportable form.
func ExportTransitions(events []Transition) []TransitionExport {
	out := make([]TransitionExport, len(events))
	for i, e := range events {
		reasons := e.Reasons
		if reasons == nil {
			reasons = []site.BlockReason{}
		}
		out[i] = TransitionExport{Target: e.Target, Instant: e.Instant, Status: e.Status, Reasons: reasons}
	}
	return out
}

// WriteJSON writes v as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteNightCSV writes one line per sample of each night.
func WriteNightCSV(w io.Writer, nights ...*Night) error {
	cw := csv.NewWriter(w)
	header := []string{
		"target", "time", "az_deg", "alt_deg", "airmass", "observable", "reasons",
		"moon_az_deg", "moon_alt_deg", "moon_illumination", "lunar_angle_deg",
		"moon_irradiance", "hour_angle_deg", "parallactic_deg",
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, n := range nights {
		if err := writeNightRows(cw, n); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeNightRows(cw *csv.Writer, n *Night) error {
	for _, r := range n.Rows {
		rec := []string{
			n.Target.Name,
			r.Time.UTC().Format(time.RFC3339),
			formatFloat(r.AzDeg, 3),
			formatFloat(r.AltDeg, 3),
			formatFloat(r.AirMass, 4),
			strconv.FormatBool(r.Observable),
			site.JoinReasons(r.Reasons, ";"),
			formatFloat(r.MoonAzDeg, 3),
			formatFloat(r.MoonAltDeg, 3),
			formatFloat(r.MoonIllumination, 4),
			formatFloat(r.LunarAngleDeg, 3),
			strconv.FormatFloat(r.MoonIrradiance, 'g', 6, 64),
			formatFloat(r.HourAngleDeg, 3),
			formatFloat(r.ParallacticDeg, 3),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	return nil
}

// WriteSemesterCSV writes one summary line per night of each semester.
func WriteSemesterCSV(w io.Writer, semesters ...*SemesterVisibility) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"date", "target", "window_start", "window_end", "samples", "observable", "visible_hours"}); err != nil {
		return err
	}
	var nights []*Night
	for _, s := range semesters {
		nights = append(nights, s.Nights...)
	}
	for _, n := range nights {
		rec := []string{
			n.Date.Format("2006-01-02"),
			n.Target.Name,
			formatTime(n.Start),
			formatTime(n.End),
			strconv.Itoa(len(n.Rows)),
			strconv.Itoa(n.ObservableCount()),
			formatFloat(n.VisibleHours, 4),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteEventsCSV writes one line per transition.
func WriteEventsCSV(w io.Writer, events []Transition) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"target", "instant", "status", "reasons"}); err != nil {
		return err
	}
	for _, e := range events {
		rec := []string{e.Target, formatTime(e.Instant), e.Status.String(), site.JoinReasons(e.Reasons, ";")}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteSummaryTable writes a text table with one line per night.
func WriteSummaryTable(w io.Writer, loc astro.GeoLocation, nights []*Night, generated time.Time) {
	fmt.Fprintf(w, "Visibility from %s (%.4f, %.4f) @ %s\n",
		loc.Name, loc.LatDeg, loc.LonDeg, generated.UTC().Format(time.RFC3339))
	fmt.Fprintln(w, strings.Repeat("─", 90))

	if len(nights) == 0 {
		fmt.Fprintln(w, "No nights computed")
		return
	}

	fmt.Fprintf(w, "%-16s %-10s %-6s %-6s %-7s %-7s %-9s %-8s %-6s\n",
		"Target", "Date", "Dusk", "Dawn", "Samples", "Visible", "Hours", "Max alt", "Moon")
	fmt.Fprintln(w, strings.Repeat("─", 90))

	var total float64
	for _, n := range nights {
		maxAlt, moon := math.Inf(-1), 0.0
		for _, r := range n.Rows {
			if r.AltDeg > maxAlt {
				maxAlt = r.AltDeg
			}
			moon = math.Max(moon, r.MoonIllumination)
		}
		alt := "-"
		if len(n.Rows) > 0 {
			alt = fmt.Sprintf("%.1f°", maxAlt)
		}
		fmt.Fprintf(w, "%-16s %-10s %-6s %-6s %7d %7d %9.2f %-8s %5.0f%%\n",
			truncateStr(n.Target.Name, 16),
			n.Date.Format("2006-01-02"),
			clock(n.Start),
			clock(n.End),
			len(n.Rows),
			n.ObservableCount(),
			n.VisibleHours,
			alt,
			moon*100,
		)
		total += n.VisibleHours
	}

	fmt.Fprintf(w, "\nTotal: %d nights, %.2f visible hours\n", len(nights), total)
}

func optionalTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func optionalFloat(f float64) *float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

func formatFloat(f float64, prec int) string {
	if math.IsNaN(f) {
		return ""
	}
	return strconv.FormatFloat(f, 'f', prec, 64)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func clock(t time.Time) string {
	if t.IsZero() {
		return "--:--"
	}
	return t.UTC().Format("15:04")
}

func truncateStr(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-2] + ".."
}
