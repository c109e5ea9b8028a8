package chart

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/couchcryptid/accident-insights/internal/domain"
)

// maxGridCells bounds the size of a numeric heatmap grid.
const maxGridCells = 500_000

// cellGrid adapts a two-key aggregate table to plotter.GridXYZ. The first key
// component selects the row (Y), the second the column (X). Cells without a
// row in the table are NaN.
type cellGrid struct {
	numeric   bool
	colLabels []string
	rowLabels []string
	colPos    []float64
	rowPos    []float64
	z         [][]float64 // [row][col]
}

func (g *cellGrid) Dims() (c, r int)   { return len(g.colPos), len(g.rowPos) }
func (g *cellGrid) Z(c, r int) float64 { return g.z[r][c] }
func (g *cellGrid) X(c int) float64    { return g.colPos[c] }
func (g *cellGrid) Y(r int) float64    { return g.rowPos[r] }

func newCellGrid(table domain.AggregateTable, spec domain.ChartSpec) (*cellGrid, error) {
	var rowKeys, colKeys []string
	seenRow, seenCol := map[string]bool{}, map[string]bool{}
	for _, row := range table.Rows {
		if row.Count == 0 {
			continue
		}
		if !seenRow[row.Key[0]] {
			seenRow[row.Key[0]] = true
			rowKeys = append(rowKeys, row.Key[0])
		}
		if !seenCol[row.Key[1]] {
			seenCol[row.Key[1]] = true
			colKeys = append(colKeys, row.Key[1])
		}
	}

	g := &cellGrid{}
	var rowIndex, colIndex func(string) int
	if spec.CellDegrees > 0 {
		rows, err := newNumericAxis(rowKeys, spec.CellDegrees)
		if err != nil {
			return nil, err
		}
		cols, err := newNumericAxis(colKeys, spec.CellDegrees)
		if err != nil {
			return nil, err
		}
		if len(rows.pos)*len(cols.pos) > maxGridCells {
			return nil, fmt.Errorf("grid of %dx%d cells is too large; increase the cell size", len(rows.pos), len(cols.pos))
		}
		g.numeric = true
		g.rowPos, g.colPos = rows.pos, cols.pos
		rowIndex, colIndex = rows.index, cols.index
	} else {
		sortLabels(rowKeys)
		sortLabels(colKeys)
		g.rowLabels, g.colLabels = rowKeys, colKeys
		g.rowPos, g.colPos = ordinals(len(rowKeys)), ordinals(len(colKeys))
		rowIndex, colIndex = positionOf(rowKeys), positionOf(colKeys)
	}

	g.z = make([][]float64, len(g.rowPos))
	for r := range g.z {
		g.z[r] = make([]float64, len(g.colPos))
		for c := range g.z[r] {
			g.z[r][c] = math.NaN()
		}
	}
	for _, row := range table.Rows {
		if row.Count == 0 {
			continue
		}
		g.z[rowIndex(row.Key[0])][colIndex(row.Key[1])] = metricValue(spec.Metric, row)
	}
	return g, nil
}

// numericAxis spaces cells evenly from the lowest to the highest key. Cell
// centres sit half a step above each lower bound.
type numericAxis struct {
	min, step float64
	pos       []float64
}

func newNumericAxis(keys []string, step float64) (numericAxis, error) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, k := range keys {
		v, err := strconv.ParseFloat(k, 64)
		if err != nil {
			return numericAxis{}, fmt.Errorf("grid key %q is not numeric", k)
		}
		lo, hi = math.Min(lo, v), math.Max(hi, v)
	}
	if len(keys) == 0 {
		return numericAxis{}, errNoData
	}

	n := int(math.Round((hi-lo)/step)) + 1
	if n > maxGridCells {
		return numericAxis{}, fmt.Errorf("grid axis of %d cells is too large; increase the cell size", n)
	}
	a := numericAxis{min: lo, step: step, pos: make([]float64, n)}
	for i := range a.pos {
		a.pos[i] = lo + float64(i)*step + step/2
	}
	return a, nil
}

func (a numericAxis) index(key string) int {
	v, _ := strconv.ParseFloat(key, 64)
	i := int(math.Round((v - a.min) / a.step))
	return max(0, min(i, len(a.pos)-1))
}

// sortLabels orders numerically when every label is a number, otherwise
// lexicographically.
func sortLabels(labels []string) {
	nums := make([]float64, len(labels))
	numeric := true
	for i, l := range labels {
		v, err := strconv.ParseFloat(l, 64)
		if err != nil {
			numeric = false
			break
		}
		nums[i] = v
	}
	if !numeric {
		sort.Strings(labels)
		return
	}
	sort.Sort(byValue{labels: labels, values: nums})
}

type byValue struct {
	labels []string
	values []float64
}

func (b byValue) Len() int           { return len(b.labels) }
func (b byValue) Less(i, j int) bool { return b.values[i] < b.values[j] }
func (b byValue) Swap(i, j int) {
	b.labels[i], b.labels[j] = b.labels[j], b.labels[i]
	b.values[i], b.values[j] = b.values[j], b.values[i]
}

func ordinals(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(i)
	}
	return out
}

func positionOf(keys []string) func(string) int {
	pos := make(map[string]int, len(keys))
	for i, k := range keys {
		pos[k] = i
	}
	return func(k string) int { return pos[k] }
}
