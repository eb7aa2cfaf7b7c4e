package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/litescript/ls-skyplan/internal/astro"
	"github.com/litescript/ls-skyplan/internal/site"
	"github.com/litescript/ls-skyplan/internal/visibility"
)

// writeEvents prints transitions in time order.
func writeEvents(w io.Writer, events []visibility.Transition) {
	fmt.Fprintln(w, "Transitions")
	fmt.Fprintln(w, strings.Repeat("─", 60))
	if len(events) == 0 {
		fmt.Fprintln(w, "No observability changes")
		return
	}
	for _, e := range events {
		reasons := site.JoinReasons(e.Reasons, ", ")
		if reasons == "" {
			reasons = "-"
		}
		fmt.Fprintf(w, "%s  %-16s %-10s %s\n",
			e.Instant.UTC().Format("2006-01-02 15:04:05"), e.Target, e.Status, reasons)
	}
}

// writeSemesterSummary prints one line per target with its best night.
func writeSemesterSummary(w io.Writer, loc astro.GeoLocation, semesters []*visibility.SemesterVisibility) {
	fmt.Fprintf(w, "Semester visibility from %s (%.4f, %.4f)\n", loc.Name, loc.LatDeg, loc.LonDeg)
	fmt.Fprintln(w, strings.Repeat("─", 72))
	fmt.Fprintf(w, "%-16s %-8s %6s %8s %9s  %s\n", "Target", "Semester", "Nights", "Usable", "Hours", "Best night")
	for _, sv := range semesters {
		usable := 0
		var best *visibility.Night
		for _, n := range sv.Nights {
			if n.VisibleHours > 0 {
				usable++
			}
			if best == nil || n.VisibleHours > best.VisibleHours {
				best = n
			}
		}
		bestStr := "-"
		if best != nil && best.VisibleHours > 0 {
			bestStr = fmt.Sprintf("%s (%.2f h)", best.Date.Format("2006-01-02"), best.VisibleHours)
		}
		fmt.Fprintf(w, "%-16s %-8s %6d %8d %9.2f  %s\n",
			sv.Target.Name, sv.ID, len(sv.Nights), usable, sv.VisibleHours(), bestStr)
	}
}
