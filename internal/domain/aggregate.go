package domain

import (
	"math"
	"strings"
)

// AggregateRow holds the summary statistics of one bucket.
type AggregateRow struct {
	Key          []string `json:"key"`
	Count        int      `json:"count"`
	MeanSeverity float64  `json:"mean_severity"` // NaN when Count is 0
	Proportion   float64  `json:"proportion"`    // Count / table Included
}

// Label joins the key components for display, e.g. "Monday / 08".
func (r AggregateRow) Label() string {
	return strings.Join(r.Key, " / ")
}

// AggregateTable maps grouping keys to summary statistics for one dimension.
// Rows are ordered by descending count, ties broken by lexicographic key.
type AggregateTable struct {
	Dimension string         `json:"dimension"`
	Selectors []string       `json:"selectors"`
	Rows      []AggregateRow `json:"rows"`
	Included  int            `json:"included"` // observations that produced a key
	Excluded  int            `json:"excluded"` // observations a selector rejected
}

// Sum returns the total count over all rows. It always equals Included.
func (t AggregateTable) Sum() int {
	n := 0
	for _, r := range t.Rows {
		n += r.Count
	}
	return n
}

// Lookup returns the row whose key matches the given components.
func (t AggregateTable) Lookup(key ...string) (AggregateRow, bool) {
	for _, r := range t.Rows {
		if equalKeys(r.Key, key) {
			return r, true
		}
	}
	return AggregateRow{}, false
}

// Peak returns the bucket with the highest count. Ties resolve to the
// lexicographically smallest key. Returns false for an empty table.
func (t AggregateTable) Peak() (AggregateRow, bool) {
	if len(t.Rows) == 0 || t.Rows[0].Count == 0 {
		return AggregateRow{}, false
	}
	return t.Rows[0], true
}

// Trough returns the observed bucket with the lowest count, preferring the
// lexicographically smallest key among ties. Empty buckets are skipped, so
// the result is false when nothing was observed.
func (t AggregateTable) Trough() (AggregateRow, bool) {
	last := len(t.Rows) - 1
	for last >= 0 && t.Rows[last].Count == 0 {
		last--
	}
	if last < 0 {
		return AggregateRow{}, false
	}
	low := t.Rows[last]
	for i := last - 1; i >= 0 && t.Rows[i].Count == low.Count; i-- {
		low = t.Rows[i]
	}
	return low, true
}

// HighestMeanSeverity returns the non-empty bucket with the largest mean
// severity, ties resolving to table order.
func (t AggregateTable) HighestMeanSeverity() (AggregateRow, bool) {
	var best AggregateRow
	found := false
	for _, r := range t.Rows {
		if r.Count == 0 || math.IsNaN(r.MeanSeverity) {
			continue
		}
		if !found || r.MeanSeverity > best.MeanSeverity {
			best = r
			found = true
		}
	}
	return best, found
}

func equalKeys(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// CorrelationMatrix is a square Pearson correlation table over numeric and
// ordinal attributes. Undefined cells hold NaN.
type CorrelationMatrix struct {
	Attributes []string    `json:"attributes"`
	Values     [][]float64 `json:"values"`
}

// Size returns the number of attributes.
func (m CorrelationMatrix) Size() int {
	return len(m.Attributes)
}

// At returns the correlation between attributes i and j.
func (m CorrelationMatrix) At(i, j int) float64 {
	return m.Values[i][j]
}

// Index returns the position of the named attribute, or -1.
func (m CorrelationMatrix) Index(name string) int {
	for i, a := range m.Attributes {
		if a == name {
			return i
		}
	}
	return -1
}
