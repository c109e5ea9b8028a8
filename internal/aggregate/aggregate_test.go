package aggregate

import (
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/accident-insights/internal/domain"
)

// monday is 2024-01-01, a Monday.
var monday = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

func ptr(v float64) *float64 { return &v }

func observe(records ...domain.AccidentRecord) []domain.Observation {
	return domain.Derive(records)
}

func atHour(hour, severity int) domain.AccidentRecord {
	return domain.AccidentRecord{
		Timestamp: monday.Add(time.Duration(hour) * time.Hour),
		Severity:  severity,
		Geo:       &domain.Geo{Lat: 40.5, Lon: -74.2},
	}
}

func counts(table domain.AggregateTable) map[string]int {
	out := make(map[string]int, len(table.Rows))
	for _, r := range table.Rows {
		out[r.Label()] = r.Count
	}
	return out
}

func TestAggregate_TimePeriodExample(t *testing.T) {
	obs := observe(atHour(3, 1), atHour(7, 2), atHour(7, 2), atHour(14, 3), atHour(22, 4))

	table := Aggregate(DimTimePeriod, obs, TimePeriod())

	assert.Equal(t, map[string]int{"Night": 2, "Morning": 2, "Afternoon": 1, "Evening": 0}, counts(table))
	assert.Equal(t, 5, table.Included)
	assert.Zero(t, table.Excluded)
	assert.Equal(t, table.Included, table.Sum())

	// count descending, ties broken lexicographically
	labels := make([]string, len(table.Rows))
	for i, r := range table.Rows {
		labels[i] = r.Label()
	}
	assert.Equal(t, []string{"Morning", "Night", "Afternoon", "Evening"}, labels)

	night, ok := table.Lookup("Night")
	require.True(t, ok)
	assert.InDelta(t, 2.5, night.MeanSeverity, 1e-9)
	assert.InDelta(t, 0.4, night.Proportion, 1e-9)

	evening, ok := table.Lookup("Evening")
	require.True(t, ok)
	assert.True(t, math.IsNaN(evening.MeanSeverity))
	assert.Zero(t, evening.Proportion)
}

func TestAggregate_UntimedRecordsExcluded(t *testing.T) {
	untimed := domain.AccidentRecord{Severity: 2}
	obs := observe(atHour(8, 2), untimed, atHour(9, 3))

	hours := Aggregate(DimHour, obs, Hour())
	assert.Equal(t, 2, hours.Included)
	assert.Equal(t, 1, hours.Excluded)
	assert.Len(t, hours.Rows, 24)
	assert.Equal(t, 2, hours.Sum())

	severity := Aggregate(DimSeverity, obs, Severity([]int{1, 2, 3, 4}))
	assert.Equal(t, 3, severity.Included)
	assert.Equal(t, map[string]int{"1": 0, "2": 2, "3": 1, "4": 0}, counts(severity))
}

func TestAggregate_MissingWeatherGoesToUnknown(t *testing.T) {
	records := []domain.AccidentRecord{
		{Severity: 2, Weather: "Rain"},
		{Severity: 3},
		{Severity: 1, Weather: "Clear"},
		{Severity: 4},
	}
	obs := observe(records...)

	table := Aggregate(DimWeather, obs, Weather())

	assert.Equal(t, map[string]int{"Unknown": 2, "Rain": 1, "Clear": 1}, counts(table))
	assert.Equal(t, len(records), table.Sum())
	assert.Equal(t, []string{domain.Unknown}, table.Rows[0].Key)
	assert.InDelta(t, 3.5, table.Rows[0].MeanSeverity, 1e-9)
}

func TestAggregate_OpenEndedSelectorEmitsOnlyPresentKeys(t *testing.T) {
	obs := observe(domain.AccidentRecord{Severity: 2, Road: "Wet"})

	table := Aggregate(DimRoad, obs, Road())

	require.Len(t, table.Rows, 1)
	assert.Equal(t, []string{"Wet"}, table.Rows[0].Key)
	assert.InDelta(t, 1.0, table.Rows[0].Proportion, 1e-9)
}

func TestAggregate_DayHourCrossProduct(t *testing.T) {
	obs := observe(atHour(8, 2), atHour(8, 3), atHour(24+17, 1))

	table := Aggregate(DimDayHour, obs, DayOfWeek(), Hour())

	assert.Len(t, table.Rows, 7*24)
	assert.Equal(t, []string{"day_of_week", "hour_of_day"}, table.Selectors)
	assert.Equal(t, []string{"Monday", "08"}, table.Rows[0].Key)
	assert.Equal(t, 2, table.Rows[0].Count)
	assert.Equal(t, "Monday / 08", table.Rows[0].Label())

	tue, ok := table.Lookup("Tuesday", "17")
	require.True(t, ok)
	assert.Equal(t, 1, tue.Count)
	assert.Equal(t, 3, table.Sum())
}

func TestAggregate_Empty(t *testing.T) {
	table := Aggregate(DimWeather, nil, Weather())
	assert.Empty(t, table.Rows)
	assert.Zero(t, table.Included)

	_, ok := table.Peak()
	assert.False(t, ok)
}

func TestAggregate_Deterministic(t *testing.T) {
	records := []domain.AccidentRecord{
		{Severity: 2, Weather: "Rain", Timestamp: monday.Add(5 * time.Hour)},
		{Severity: 3, Weather: "Snow", Timestamp: monday.Add(30 * time.Hour)},
		{Severity: 1, Weather: "Fog", Timestamp: monday.Add(55 * time.Hour)},
		{Severity: 4, Weather: "Rain", Timestamp: monday.Add(80 * time.Hour)},
		{Severity: 2, Weather: "Snow"},
	}
	opts := Options{SeverityLevels: []int{1, 2, 3, 4}, GridCellDegrees: 1}

	first := Summarize(observe(records...), opts)
	second := Summarize(observe(records...), opts)

	if diff := cmp.Diff(first.Tables(), second.Tables(), cmpopts.EquateNaNs()); diff != "" {
		t.Errorf("tables differ between runs (-first +second):\n%s", diff)
	}
}

func TestTimePeriodSelector_TotalOverHours(t *testing.T) {
	records := make([]domain.AccidentRecord, 24)
	for h := range records {
		records[h] = atHour(h, 1)
	}

	table := Aggregate(DimTimePeriod, observe(records...), TimePeriod())

	assert.Equal(t, 24, table.Sum())
	assert.Equal(t, map[string]int{"Morning": 7, "Afternoon": 5, "Evening": 4, "Night": 8}, counts(table))
}

func TestGridCells(t *testing.T) {
	tests := []struct {
		name    string
		geo     domain.Geo
		degrees float64
		lat     string
		lon     string
	}{
		{"whole degrees", domain.Geo{Lat: 39.86, Lon: -84.05}, 1, "39", "-85"},
		{"half degrees", domain.Geo{Lat: 39.86, Lon: -84.05}, 0.5, "39.5", "-84.5"},
		{"tenth degrees", domain.Geo{Lat: 39.86, Lon: -84.05}, 0.1, "39.8", "-84.1"},
		{"negative zero", domain.Geo{Lat: 0.2, Lon: 0}, 1, "0", "0"},
		{"edge 0.3", domain.Geo{Lat: 0.3, Lon: -0.3}, 0.1, "0.3", "-0.3"},
		{"edge 0.7", domain.Geo{Lat: 0.7, Lon: -0.7}, 0.1, "0.7", "-0.7"},
		{"edge 39.9", domain.Geo{Lat: 39.9, Lon: -84.1}, 0.1, "39.9", "-84.1"},
		{"edge quarter", domain.Geo{Lat: 40.75, Lon: -73.25}, 0.25, "40.75", "-73.25"},
		{"just below edge", domain.Geo{Lat: 39.8999, Lon: -84.0001}, 0.1, "39.8", "-84.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obs := domain.Observation{Record: domain.AccidentRecord{Geo: &tt.geo}}

			lat, ok := LatCell(tt.degrees).Value(obs)
			require.True(t, ok)
			lon, ok := LonCell(tt.degrees).Value(obs)
			require.True(t, ok)

			assert.Equal(t, tt.lat, lat)
			assert.Equal(t, tt.lon, lon)
		})
	}

	_, ok := LatCell(1).Value(domain.Observation{})
	assert.False(t, ok)
}

func TestInLevelOrder(t *testing.T) {
	obs := observe(atHour(22, 1), atHour(7, 1), atHour(7, 1))
	table := Aggregate(DimTimePeriod, obs, TimePeriod())

	rows := InLevelOrder(table, domain.TimePeriods)

	got := make([]string, len(rows))
	for i, r := range rows {
		got[i] = r.Label()
	}
	assert.Equal(t, domain.TimePeriods, got)
}

func TestSummarize(t *testing.T) {
	records := []domain.AccidentRecord{
		{Severity: 2, Timestamp: time.Date(2016, 2, 8, 5, 46, 0, 0, time.UTC), Geo: &domain.Geo{Lat: 39.8, Lon: -84.0}},
		{Severity: 3, Timestamp: time.Date(2017, 6, 3, 18, 0, 0, 0, time.UTC), Geo: &domain.Geo{Lat: 30.1, Lon: -97.7}},
		{Severity: 4, Geo: &domain.Geo{Lat: 47.6, Lon: -122.3}},
		{Severity: 1, Timestamp: time.Date(2016, 12, 24, 23, 0, 0, 0, time.UTC)},
	}

	s := Summarize(observe(records...), Options{SeverityLevels: []int{1, 2, 3, 4}, GridCellDegrees: 1})

	assert.Equal(t, 4, s.Records)
	assert.Equal(t, 3, s.Timed)
	assert.Equal(t, 3, s.Located)
	assert.InDelta(t, 2.5, s.MeanSeverity, 1e-9)
	assert.Equal(t, records[0].Timestamp, s.First)
	assert.Equal(t, records[1].Timestamp, s.Last)
	require.NotNil(t, s.Bounds)
	assert.Equal(t, Bounds{MinLat: 30.1, MaxLat: 47.6, MinLon: -122.3, MaxLon: -84.0}, *s.Bounds)

	for _, table := range s.Tables() {
		assert.Equal(t, table.Included, table.Sum(), table.Dimension)
		assert.Equal(t, s.Records, table.Included+table.Excluded, table.Dimension)
	}
	assert.Equal(t, s.Timed, s.ByHour.Included)
	assert.Equal(t, s.Located, s.ByGeoCell.Included)

	weekend, ok := s.ByDayType.Lookup(Weekend)
	require.True(t, ok)
	assert.Equal(t, 2, weekend.Count) // 2017-06-03 and 2016-12-24 are Saturdays
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil, Options{SeverityLevels: []int{1, 2}, GridCellDegrees: 1})

	assert.Zero(t, s.Records)
	assert.True(t, math.IsNaN(s.MeanSeverity))
	assert.True(t, s.First.IsZero())
	assert.Nil(t, s.Bounds)
	assert.Zero(t, s.Correlation.Size())
}
