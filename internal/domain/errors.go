package domain

import (
	"fmt"
	"sort"
	"strings"
)

// SchemaError reports an input source that cannot be analysed at all: it is
// empty or lacks required columns. It is fatal.
type SchemaError struct {
	Missing []string
	Reason  string
}

func (e *SchemaError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("schema error: missing required columns: %s", strings.Join(e.Missing, ", "))
	}
	return "schema error: " + e.Reason
}

// LoadError reports an unreadable input source. It is fatal.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// RenderError reports a chart that could not be written. Other charts are
// still rendered.
type RenderError struct {
	Chart string
	Err   error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render %s: %v", e.Chart, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

// Row drop reasons.
const (
	DropMalformedRow       = "malformed_row"
	DropInvalidSeverity    = "invalid_severity"
	DropSeverityOutOfRange = "severity_out_of_range"
	DropInvalidCoordinates = "invalid_coordinates"
	DropCoordinatesRange   = "coordinates_out_of_range"
)

// RowDrop is a non-fatal warning about one discarded input row.
type RowDrop struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
	Detail string `json:"detail,omitempty"`
}

func (d RowDrop) String() string {
	if d.Detail == "" {
		return fmt.Sprintf("line %d: %s", d.Line, d.Reason)
	}
	return fmt.Sprintf("line %d: %s (%s)", d.Line, d.Reason, d.Detail)
}

// maxDropSamples bounds how many individual drops a DropReport retains.
const maxDropSamples = 20

// DropReport accumulates row drops. It is returned next to the cleaned table
// instead of being kept in a side-channel counter.
type DropReport struct {
	Total    int            `json:"total"`
	ByReason map[string]int `json:"by_reason"`
	Samples  []RowDrop      `json:"samples,omitempty"`
}

// Add records one dropped row.
func (r *DropReport) Add(d RowDrop) {
	if r.ByReason == nil {
		r.ByReason = make(map[string]int)
	}
	r.Total++
	r.ByReason[d.Reason]++
	if len(r.Samples) < maxDropSamples {
		r.Samples = append(r.Samples, d)
	}
}

// Reasons returns the drop reasons sorted by name.
func (r DropReport) Reasons() []string {
	reasons := make([]string, 0, len(r.ByReason))
	for k := range r.ByReason {
		reasons = append(reasons, k)
	}
	sort.Strings(reasons)
	return reasons
}
