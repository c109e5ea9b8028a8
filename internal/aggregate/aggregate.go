// Package aggregate groups observations into summary tables and computes the
// correlation matrix. Every function is pure: identical input always yields
// identical tables.
package aggregate

import (
	"math"
	"sort"
	"strings"

	"github.com/couchcryptid/accident-insights/internal/domain"
)

// keySep is the ASCII unit separator used to join key components into a map key.
const keySep = "\x1f"

// Selector extracts one grouping key component from an observation. Value
// returns false when the observation does not belong to the dimension, e.g. a
// time-based selector applied to a record without a timestamp.
type Selector struct {
	Name   string
	Levels []string // every possible value, in display order; nil when open-ended
	Value  func(domain.Observation) (string, bool)
}

type bucket struct {
	key         []string
	count       int
	severitySum int
}

// Aggregate groups observations by the combined key of the selectors. When
// every selector declares Levels, key combinations that no observation hit are
// emitted as zero-count rows.
func Aggregate(dimension string, obs []domain.Observation, selectors ...Selector) domain.AggregateTable {
	table := domain.AggregateTable{
		Dimension: dimension,
		Selectors: make([]string, len(selectors)),
	}
	for i, s := range selectors {
		table.Selectors[i] = s.Name
	}

	buckets := make(map[string]*bucket)
	key := make([]string, len(selectors))
	for _, o := range obs {
		if !extractKey(o, selectors, key) {
			table.Excluded++
			continue
		}
		id := strings.Join(key, keySep)
		b, ok := buckets[id]
		if !ok {
			b = &bucket{key: append([]string(nil), key...)}
			buckets[id] = b
		}
		b.count++
		b.severitySum += o.Record.Severity
		table.Included++
	}

	if allLevelled(selectors) {
		for _, combo := range levelCombinations(selectors) {
			id := strings.Join(combo, keySep)
			if _, ok := buckets[id]; !ok {
				buckets[id] = &bucket{key: combo}
			}
		}
	}

	table.Rows = make([]domain.AggregateRow, 0, len(buckets))
	for _, b := range buckets {
		row := domain.AggregateRow{Key: b.key, Count: b.count, MeanSeverity: math.NaN()}
		if b.count > 0 {
			row.MeanSeverity = float64(b.severitySum) / float64(b.count)
		}
		if table.Included > 0 {
			row.Proportion = float64(b.count) / float64(table.Included)
		}
		table.Rows = append(table.Rows, row)
	}
	sortRows(table.Rows)

	return table
}

func extractKey(o domain.Observation, selectors []Selector, key []string) bool {
	for i, s := range selectors {
		v, ok := s.Value(o)
		if !ok {
			return false
		}
		key[i] = v
	}
	return true
}

func allLevelled(selectors []Selector) bool {
	if len(selectors) == 0 {
		return false
	}
	for _, s := range selectors {
		if len(s.Levels) == 0 {
			return false
		}
	}
	return true
}

// levelCombinations returns the cartesian product of the selector levels.
func levelCombinations(selectors []Selector) [][]string {
	combos := [][]string{{}}
	for _, s := range selectors {
		next := make([][]string, 0, len(combos)*len(s.Levels))
		for _, c := range combos {
			for _, level := range s.Levels {
				k := make([]string, len(c), len(c)+1)
				copy(k, c)
				next = append(next, append(k, level))
			}
		}
		combos = next
	}
	return combos
}

// sortRows orders by count descending, ties broken by lexicographic key.
func sortRows(rows []domain.AggregateRow) {
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Count != rows[j].Count {
			return rows[i].Count > rows[j].Count
		}
		return lessKey(rows[i].Key, rows[j].Key)
	})
}

func lessKey(a, b []string) bool {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}

// InLevelOrder returns the rows of a single-selector table reordered to follow
// levels. Rows whose key is not listed keep their relative order at the end.
func InLevelOrder(table domain.AggregateTable, levels []string) []domain.AggregateRow {
	pos := make(map[string]int, len(levels))
	for i, l := range levels {
		pos[l] = i
	}
	rows := append([]domain.AggregateRow(nil), table.Rows...)
	sort.SliceStable(rows, func(i, j int) bool {
		pi, iok := pos[rows[i].Key[0]]
		pj, jok := pos[rows[j].Key[0]]
		switch {
		case iok && jok:
			return pi < pj
		case iok:
			return true
		default:
			return false
		}
	})
	return rows
}
