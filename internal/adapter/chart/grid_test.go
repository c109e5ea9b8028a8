package chart

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/accident-insights/internal/domain"
)

func geoTable(rows ...domain.AggregateRow) domain.AggregateTable {
	t := domain.AggregateTable{Dimension: "geo_cell", Selectors: []string{"lat_cell", "lon_cell"}, Rows: rows}
	for _, r := range rows {
		t.Included += r.Count
	}
	return t
}

func TestNewCellGrid_Numeric(t *testing.T) {
	table := geoTable(
		domain.AggregateRow{Key: []string{"39", "-84"}, Count: 5},
		domain.AggregateRow{Key: []string{"41", "-86"}, Count: 2},
		domain.AggregateRow{Key: []string{"40", "-84"}, Count: 0},
	)

	g, err := newCellGrid(table, domain.ChartSpec{CellDegrees: 1})
	require.NoError(t, err)

	c, r := g.Dims()
	assert.Equal(t, 3, c) // -86, -85, -84
	assert.Equal(t, 3, r) // 39, 40, 41
	assert.InDelta(t, -85.5, g.X(0), 1e-9)
	assert.InDelta(t, 39.5, g.Y(0), 1e-9)
	assert.Equal(t, 5.0, g.Z(2, 0))
	assert.Equal(t, 2.0, g.Z(0, 2))
	assert.True(t, math.IsNaN(g.Z(1, 1)))
	assert.True(t, math.IsNaN(g.Z(2, 1)), "zero-count rows stay empty")
}

func TestNewCellGrid_Nominal(t *testing.T) {
	table := geoTable(
		domain.AggregateRow{Key: []string{"10", "b"}, Count: 1},
		domain.AggregateRow{Key: []string{"9", "a"}, Count: 3},
	)

	g, err := newCellGrid(table, domain.ChartSpec{})
	require.NoError(t, err)

	assert.False(t, g.numeric)
	assert.Equal(t, []string{"9", "10"}, g.rowLabels)
	assert.Equal(t, []string{"a", "b"}, g.colLabels)
	assert.Equal(t, 3.0, g.Z(0, 0))
	assert.Equal(t, 1.0, g.Z(1, 1))
	assert.True(t, math.IsNaN(g.Z(1, 0)))
}

func TestNewCellGrid_Errors(t *testing.T) {
	_, err := newCellGrid(geoTable(domain.AggregateRow{Key: []string{"north", "-84"}, Count: 1}), domain.ChartSpec{CellDegrees: 1})
	assert.ErrorContains(t, err, "not numeric")

	huge := geoTable(
		domain.AggregateRow{Key: []string{"-89", "-179"}, Count: 1},
		domain.AggregateRow{Key: []string{"89", "179"}, Count: 1},
	)
	_, err = newCellGrid(huge, domain.ChartSpec{CellDegrees: 0.01})
	assert.ErrorContains(t, err, "too large")
}

func TestSortLabels(t *testing.T) {
	numeric := []string{"10", "-2.5", "3"}
	sortLabels(numeric)
	assert.Equal(t, []string{"-2.5", "3", "10"}, numeric)

	mixed := []string{"b", "10", "a"}
	sortLabels(mixed)
	assert.Equal(t, []string{"10", "a", "b"}, mixed)
}

func TestBarWidth(t *testing.T) {
	assert.InDelta(t, float64(maxBarWidth), float64(barWidth(defaultWidth, 1)), 1e-9)
	assert.Less(t, float64(barWidth(defaultWidth, 24)), float64(maxBarWidth))
}
