// Package report renders the plain-text analysis summary.
package report

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/couchcryptid/accident-insights/internal/aggregate"
	"github.com/couchcryptid/accident-insights/internal/domain"
)

// FileName is the artifact name of the summary report.
const FileName = "analysis_summary.txt"

const (
	width          = 80
	maxDropSamples = 5
)

// Input is everything the report template needs.
type Input struct {
	RunID       string
	Source      string
	GeneratedAt time.Time
	Summary     aggregate.Summary
	Drops       domain.DropReport
	Artifacts   []string // files written before the report, in order
	Warnings    []string // render and export failures
}

// Write renders the report to w. Percentages are relative to the records each
// dimension included, so time-based shares ignore records without a timestamp.
func Write(w io.Writer, in Input) error {
	r := &writer{p: message.NewPrinter(language.English), in: in}

	r.banner("TRAFFIC ACCIDENT ANALYSIS REPORT")
	r.printf("Run ID: %s\n", in.RunID)
	if in.Source != "" {
		r.printf("Source: %s\n", in.Source)
	}

	r.overview()
	r.timePatterns()
	r.severity()
	r.weather()
	r.road()
	r.correlation()
	r.findings()
	r.recommendations()
	r.outputs()
	r.warnings()

	r.b.WriteString("\n" + strings.Repeat("=", width) + "\n")
	r.printf("Generated on: %s\n", in.GeneratedAt.Format("2006-01-02 15:04:05 MST"))

	if _, err := io.WriteString(w, r.b.String()); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

type writer struct {
	b  strings.Builder
	p  *message.Printer
	in Input
}

func (r *writer) printf(format string, args ...any) {
	r.b.WriteString(r.p.Sprintf(format, args...))
}

func (r *writer) banner(title string) {
	line := strings.Repeat("=", width)
	r.printf("%s\n%s\n%s\n", line, title, line)
}

func (r *writer) section(title string) {
	r.printf("\n%s\n%s\n", title, strings.Repeat("-", width))
}

// share formats count as "1,234 accidents - 12.3%" of total.
func (r *writer) share(count, total int) string {
	return r.p.Sprintf("%d accidents - %.1f%%", count, percent(count, total))
}

func percent(count, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(count) / float64(total) * 100
}

func (r *writer) overview() {
	s := r.in.Summary
	r.section("DATASET OVERVIEW")
	r.printf("Total Accidents Analyzed: %d\n", s.Records)

	if r.in.Drops.Total == 0 {
		r.printf("Rows Dropped: 0\n")
	} else {
		parts := make([]string, 0, len(r.in.Drops.ByReason))
		for _, reason := range r.in.Drops.Reasons() {
			parts = append(parts, r.p.Sprintf("%s: %d", reason, r.in.Drops.ByReason[reason]))
		}
		r.printf("Rows Dropped: %d (%s)\n", r.in.Drops.Total, strings.Join(parts, ", "))
	}

	r.printf("Records With Timestamp: %d (%.1f%%)\n", s.Timed, percent(s.Timed, s.Records))
	if s.Timed > 0 {
		r.printf("Date Range: %s to %s\n", s.First.Format("2006-01-02"), s.Last.Format("2006-01-02"))
	} else {
		r.printf("Date Range: n/a (no valid timestamps)\n")
	}
	if b := s.Bounds; b != nil {
		r.printf("Geographic Range: %.2f to %.2f latitude, %.2f to %.2f longitude\n", b.MinLat, b.MaxLat, b.MinLon, b.MaxLon)
	} else {
		r.printf("Geographic Range: n/a (no coordinates)\n")
	}
}

func (r *writer) timePatterns() {
	s := r.in.Summary
	r.section("TIME PATTERN ANALYSIS")
	if s.Timed == 0 {
		r.printf("No records carry a usable timestamp.\n")
		return
	}

	if peak, ok := s.ByHour.Peak(); ok {
		r.printf("Peak Hour: %s:00 (%s)\n", peak.Key[0], r.share(peak.Count, s.ByHour.Included))
	}
	if low, ok := s.ByHour.Trough(); ok {
		r.printf("Lowest Hour: %s:00 (%s)\n", low.Key[0], r.share(low.Count, s.ByHour.Included))
	}
	r.b.WriteString("\n")
	if peak, ok := s.ByDayOfWeek.Peak(); ok {
		r.printf("Most Dangerous Day: %s (%s)\n", peak.Key[0], r.share(peak.Count, s.ByDayOfWeek.Included))
	}
	if low, ok := s.ByDayOfWeek.Trough(); ok {
		r.printf("Safest Day: %s (%s)\n", low.Key[0], r.share(low.Count, s.ByDayOfWeek.Included))
	}
	r.b.WriteString("\n")
	if peak, ok := s.ByTimePeriod.Peak(); ok {
		r.printf("Most Dangerous Period: %s (%s)\n", peak.Key[0], r.share(peak.Count, s.ByTimePeriod.Included))
	}
	r.b.WriteString("\n")
	r.printf("Weekday vs Weekend:\n")
	for _, level := range []string{aggregate.Weekday, aggregate.Weekend} {
		row, _ := s.ByDayType.Lookup(level)
		r.printf("  - %s Accidents: %d (%.1f%%)\n", level, row.Count, percent(row.Count, s.ByDayType.Included))
	}
}

func (r *writer) severity() {
	s := r.in.Summary
	r.section("SEVERITY ANALYSIS")
	for _, row := range byNumericKey(s.BySeverity.Rows) {
		r.printf("Severity Level %s: %d accidents (%.1f%%)\n", row.Key[0], row.Count, percent(row.Count, s.BySeverity.Included))
	}
	if !math.IsNaN(s.MeanSeverity) {
		r.printf("Mean Severity: %.2f\n", s.MeanSeverity)
	}
}

func (r *writer) weather() {
	t := r.in.Summary.ByWeather
	r.section("WEATHER CONDITIONS")
	top, ok := mostCommonKnown(t)
	if !ok {
		r.printf("No weather condition data.\n")
		return
	}
	r.printf("Most Common: %s (%s)\n", top.Key[0], r.share(top.Count, t.Included))
	if worst, ok := t.HighestMeanSeverity(); ok {
		r.printf("Highest Mean Severity: %s (%.2f across %d accidents)\n", worst.Key[0], worst.MeanSeverity, worst.Count)
	}
	r.printf("Unique Weather Conditions: %d\n", knownKeys(t))
	if unknown, ok := t.Lookup(domain.Unknown); ok && unknown.Count > 0 {
		r.printf("Missing Weather Condition: %d\n", unknown.Count)
	}
}

func (r *writer) road() {
	t := r.in.Summary.ByRoad
	r.section("ROAD CONDITIONS")
	top, ok := mostCommonKnown(t)
	if !ok {
		r.printf("No road condition data.\n")
		return
	}
	r.printf("Most Common: %s (%s)\n", top.Key[0], r.share(top.Count, t.Included))
	if worst, ok := t.HighestMeanSeverity(); ok {
		r.printf("Highest Mean Severity: %s (%.2f across %d accidents)\n", worst.Key[0], worst.MeanSeverity, worst.Count)
	}
	r.printf("Unique Road Conditions: %d\n", knownKeys(t))
}

func (r *writer) correlation() {
	m := r.in.Summary.Correlation
	r.section("CORRELATION HIGHLIGHTS")
	r.printf("Attributes Correlated: %s\n", orNone(strings.Join(m.Attributes, ", ")))
	name, coef, ok := strongestWithSeverity(m)
	if !ok {
		r.printf("Strongest Correlation With Severity: n/a\n")
		return
	}
	r.printf("Strongest Correlation With Severity: %s (%+.2f)\n", name, coef)
}

func (r *writer) findings() {
	s := r.in.Summary
	r.section("KEY FINDINGS")
	n := 0
	item := func(format string, args ...any) {
		n++
		r.printf("%d. "+format+"\n", append([]any{n}, args...)...)
	}

	if peak, ok := s.ByHour.Peak(); ok {
		item("Hourly Peak: %s:00 accounts for %.1f%% of timed accidents", peak.Key[0], peak.Proportion*100)
	}
	weekday, _ := s.ByDayType.Lookup(aggregate.Weekday)
	weekend, _ := s.ByDayType.Lookup(aggregate.Weekend)
	if s.ByDayType.Included > 0 {
		item("Weekday Concentration: %.1f accidents per weekday versus %.1f per weekend day",
			float64(weekday.Count)/5, float64(weekend.Count)/2)
	}
	if peak, ok := s.ByTimePeriod.Peak(); ok {
		item("Time Period Trends: %s shows the highest accident frequency", peak.Key[0])
	}
	if worst, ok := s.ByWeather.HighestMeanSeverity(); ok {
		item("Weather Influence: %s has the highest mean severity (%.2f)", worst.Key[0], worst.MeanSeverity)
	}
	if cell, ok := s.ByGeoCell.Peak(); ok {
		item("Geographic Hotspots: the densest grid cell starts at %s, %s with %d accidents", cell.Key[0], cell.Key[1], cell.Count)
	}
	if n == 0 {
		r.printf("No findings: the dataset has no usable records.\n")
	}
}

func (r *writer) recommendations() {
	s := r.in.Summary
	r.section("RECOMMENDATIONS")

	r.printf("1. Enhanced Traffic Management:\n")
	if peak, ok := s.ByHour.Peak(); ok {
		h, _ := strconv.Atoi(peak.Key[0])
		r.printf("   - Deploy additional officers during peak hours (%02d:00-%02d:00)\n", (h+23)%24, (h+2)%24)
	} else {
		r.printf("   - Deploy additional officers during peak hours\n")
	}
	if day, ok := s.ByDayOfWeek.Peak(); ok {
		r.printf("   - Focus enforcement on %ss\n", day.Key[0])
	}
	r.printf("\n2. Weather-Responsive Systems:\n")
	r.printf("   - Implement real-time weather alerts\n")
	r.printf("   - Adjust speed limits based on conditions\n")
	r.printf("\n3. Public Safety Campaigns:\n")
	if period, ok := s.ByTimePeriod.Peak(); ok {
		r.printf("   - Target %s commuters with safety messages\n", strings.ToLower(period.Key[0]))
	}
	r.printf("   - Increase awareness during high-risk weather\n")
	r.printf("\n4. Infrastructure Improvements:\n")
	r.printf("   - Enhance lighting in identified hotspot areas\n")
	r.printf("   - Improve road conditions at accident-prone locations\n")
	r.printf("\n5. Data-Driven Policy:\n")
	r.printf("   - Use this analysis for resource allocation\n")
	r.printf("   - Schedule maintenance during low-accident periods\n")
}

func (r *writer) outputs() {
	r.section("OUTPUT FILES GENERATED")
	for _, name := range r.in.Artifacts {
		r.printf("- %s\n", name)
	}
	r.printf("- %s\n", FileName)
}

func (r *writer) warnings() {
	r.section("WARNINGS")
	if len(r.in.Warnings) == 0 && r.in.Drops.Total == 0 {
		r.printf("None\n")
		return
	}
	for _, w := range r.in.Warnings {
		r.printf("- %s\n", w)
	}
	if r.in.Drops.Total > 0 {
		r.printf("- %d malformed rows were dropped\n", r.in.Drops.Total)
		for i, d := range r.in.Drops.Samples {
			if i == maxDropSamples {
				break
			}
			r.printf("    %s\n", d.String())
		}
	}
}

func byNumericKey(rows []domain.AggregateRow) []domain.AggregateRow {
	out := append([]domain.AggregateRow(nil), rows...)
	sort.SliceStable(out, func(i, j int) bool {
		a, _ := strconv.Atoi(out[i].Key[0])
		b, _ := strconv.Atoi(out[j].Key[0])
		return a < b
	})
	return out
}

// mostCommonKnown returns the highest-count row other than Unknown.
func mostCommonKnown(t domain.AggregateTable) (domain.AggregateRow, bool) {
	for _, row := range t.Rows {
		if row.Count > 0 && row.Key[0] != domain.Unknown {
			return row, true
		}
	}
	return domain.AggregateRow{}, false
}

func knownKeys(t domain.AggregateTable) int {
	n := 0
	for _, row := range t.Rows {
		if row.Count > 0 && row.Key[0] != domain.Unknown {
			n++
		}
	}
	return n
}

// strongestWithSeverity returns the attribute whose correlation with severity
// has the largest magnitude. Ties keep the first attribute.
func strongestWithSeverity(m domain.CorrelationMatrix) (string, float64, bool) {
	sev := m.Index("severity")
	if sev < 0 {
		return "", 0, false
	}
	best, found := -1, false
	for j := range m.Attributes {
		v := m.At(sev, j)
		if j == sev || math.IsNaN(v) {
			continue
		}
		if !found || math.Abs(v) > math.Abs(m.At(sev, best)) {
			best, found = j, true
		}
	}
	if !found {
		return "", 0, false
	}
	return m.Attributes[best], m.At(sev, best), true
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}
