// Command validate checks that an accident dataset is fit for analysis before
// a full run. It loads the source with the production loader, then verifies
// row quality, feature coverage, and the invariants every aggregate must hold.
//
// Usage:
//
//	go run ./cmd/validate -input archive.zip -max-drop-ratio 0.05
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"

	"github.com/couchcryptid/accident-insights/internal/adapter/source"
	"github.com/couchcryptid/accident-insights/internal/aggregate"
	"github.com/couchcryptid/accident-insights/internal/domain"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

type options struct {
	input        string
	maxRows      int
	maxDropRatio float64
	severity     domain.SeverityRange
}

func main() {
	input := flag.String("input", "", "CSV file or ZIP archive to validate")
	maxRows := flag.Int("max-rows", 0, "cap on data rows read; 0 reads all")
	maxDrop := flag.Float64("max-drop-ratio", 0.05, "largest acceptable share of dropped rows")
	sevMin := flag.Int("severity-min", 1, "lowest accepted severity level")
	sevMax := flag.Int("severity-max", 4, "highest accepted severity level")
	flag.Parse()

	if *input == "" {
		flag.Usage()
		os.Exit(1)
	}

	os.Exit(run(os.Stdout, options{
		input:        *input,
		maxRows:      *maxRows,
		maxDropRatio: *maxDrop,
		severity:     domain.SeverityRange{Min: *sevMin, Max: *sevMax},
	}))
}

func (o options) check() error {
	switch {
	case o.severity.Min > o.severity.Max:
		return fmt.Errorf("-severity-min %d exceeds -severity-max %d", o.severity.Min, o.severity.Max)
	case o.maxRows < 0:
		return fmt.Errorf("-max-rows %d must be >= 0", o.maxRows)
	case o.maxDropRatio < 0 || o.maxDropRatio > 1:
		return fmt.Errorf("-max-drop-ratio %v must be in [0, 1]", o.maxDropRatio)
	}
	return nil
}

func run(w io.Writer, opts options) int {
	fmt.Fprintln(w, "=== Accident Data Validation ===")
	fmt.Fprintln(w)

	if err := opts.check(); err != nil {
		fmt.Fprintf(w, "FATAL: invalid flags: %v\n", err)
		return 1
	}

	loader := source.NewLoader(source.Options{
		Path:     opts.input,
		MaxRows:  opts.maxRows,
		Severity: opts.severity,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	records, drops, err := loader.Load(context.Background())
	if err != nil {
		fmt.Fprintf(w, "FATAL: %v\n", err)
		return 1
	}

	obs := domain.Derive(records)
	summary := aggregate.Summarize(obs, aggregate.Options{
		SeverityLevels:  opts.severity.Levels(),
		GridCellDegrees: 1,
	})

	phases := []*phase{
		validateRowQuality(len(records), drops, opts.maxDropRatio),
		validateRecords(records, opts.severity),
		validateAggregates(summary),
		validateCorrelation(summary.Correlation),
	}

	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(w, "  %-42s %s\n", p.name, status)
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Records: %d retained, %d dropped, %d timed, %d located\n",
		summary.Records, drops.Total, summary.Timed, summary.Located)

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Fprintf(w, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Fprintf(w, "  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Fprintln(w, "\nAll validations passed.")
		return 0
	}
	fmt.Fprintln(w, "\nValidation FAILED.")
	return 1
}

// ── Phase 1: Row Quality ──
// The share of dropped rows stays under the configured ceiling.

func validateRowQuality(retained int, drops domain.DropReport, maxRatio float64) *phase {
	p := &phase{name: "Phase 1: Row Quality"}

	total := retained + drops.Total
	if retained == 0 {
		p.errorf("no usable records out of %d rows", total)
		return p
	}
	if ratio := float64(drops.Total) / float64(total); ratio > maxRatio {
		p.errorf("dropped %d of %d rows (%.1f%%), above the %.1f%% ceiling",
			drops.Total, total, ratio*100, maxRatio*100)
		for _, reason := range drops.Reasons() {
			p.errorf("  %s: %d", reason, drops.ByReason[reason])
		}
	}
	return p
}

// ── Phase 2: Record Integrity ──
// Every retained record honours the severity range and coordinate bounds.

func validateRecords(records []domain.AccidentRecord, severity domain.SeverityRange) *phase {
	p := &phase{name: "Phase 2: Record Integrity"}

	timed := 0
	for _, r := range records {
		if r.Severity < severity.Min || r.Severity > severity.Max {
			p.errorf("line %d: severity %d outside [%d, %d]", r.Line, r.Severity, severity.Min, severity.Max)
		}
		if g := r.Geo; g != nil && (g.Lat < -90 || g.Lat > 90 || g.Lon < -180 || g.Lon > 180) {
			p.errorf("line %d: coordinates %.4f, %.4f out of range", r.Line, g.Lat, g.Lon)
		}
		if r.HasTimestamp() {
			timed++
		}
	}
	if len(records) > 0 && timed == 0 {
		p.errorf("no record carries a usable timestamp; every time pattern would be empty")
	}
	return p
}

// ── Phase 3: Aggregate Invariants ──
// Each table accounts for every observation exactly once.

func validateAggregates(s aggregate.Summary) *phase {
	p := &phase{name: "Phase 3: Aggregate Invariants"}

	for _, t := range s.Tables() {
		if got := t.Sum(); got != t.Included {
			p.errorf("%s: row counts sum to %d, included is %d", t.Dimension, got, t.Included)
		}
		if t.Included+t.Excluded != s.Records {
			p.errorf("%s: %d included + %d excluded != %d records", t.Dimension, t.Included, t.Excluded, s.Records)
		}
		for i := 1; i < len(t.Rows); i++ {
			if t.Rows[i].Count > t.Rows[i-1].Count {
				p.errorf("%s: rows not ordered by count at %q", t.Dimension, t.Rows[i].Label())
				break
			}
		}
	}

	for _, t := range []domain.AggregateTable{s.ByHour, s.ByDayOfWeek, s.ByTimePeriod, s.ByDayType, s.ByMonth} {
		if t.Included != s.Timed {
			p.errorf("%s: covers %d observations, %d are timed", t.Dimension, t.Included, s.Timed)
		}
	}
	if s.ByGeoCell.Included != s.Located {
		p.errorf("%s: covers %d observations, %d are located", s.ByGeoCell.Dimension, s.ByGeoCell.Included, s.Located)
	}
	return p
}

// ── Phase 4: Correlation Matrix ──
// Symmetric, bounded, and unit on the defined diagonal.

func validateCorrelation(m domain.CorrelationMatrix) *phase {
	p := &phase{name: "Phase 4: Correlation Matrix"}

	if m.Index("severity") < 0 && m.Size() > 0 {
		p.errorf("severity is missing from the matrix")
	}
	for i := range m.Size() {
		if d := m.At(i, i); !math.IsNaN(d) && d != 1 {
			p.errorf("diagonal %s = %.4f", m.Attributes[i], d)
		}
		for j := range m.Size() {
			v := m.At(i, j)
			if math.IsNaN(v) {
				if !math.IsNaN(m.At(j, i)) {
					p.errorf("%s/%s defined in one direction only", m.Attributes[i], m.Attributes[j])
				}
				continue
			}
			if v < -1 || v > 1 {
				p.errorf("%s/%s = %.4f outside [-1, 1]", m.Attributes[i], m.Attributes[j], v)
			}
			if v != m.At(j, i) {
				p.errorf("%s/%s is not symmetric", m.Attributes[i], m.Attributes[j])
			}
		}
	}
	return p
}
