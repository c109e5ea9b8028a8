package aggregate

import (
	"math"
	"time"

	"github.com/couchcryptid/accident-insights/internal/domain"
)

// Dimension names of the fixed summary tables.
const (
	DimHour       = "hour_of_day"
	DimDayOfWeek  = "day_of_week"
	DimMonth      = "month"
	DimTimePeriod = "time_period"
	DimDayType    = "day_type"
	DimDayHour    = "day_hour"
	DimWeather    = "weather_condition"
	DimRoad       = "road_condition"
	DimSeverity   = "severity"
	DimGeoCell    = "geo_cell"
)

// Options configures Summarize.
type Options struct {
	SeverityLevels  []int
	GridCellDegrees float64     // zero or negative uses 1
	Attributes      []Attribute // nil uses DefaultAttributes
}

// Bounds is the bounding box of the located records.
type Bounds struct {
	MinLat, MaxLat float64
	MinLon, MaxLon float64
}

// Summary holds every table and statistic computed for one run.
type Summary struct {
	Records      int
	Timed        int // records with a usable timestamp
	Located      int // records with coordinates
	MeanSeverity float64

	// First and Last are zero when no record has a timestamp.
	First, Last time.Time
	// Bounds is nil when no record has coordinates.
	Bounds *Bounds

	ByHour       domain.AggregateTable
	ByDayOfWeek  domain.AggregateTable
	ByMonth      domain.AggregateTable
	ByTimePeriod domain.AggregateTable
	ByDayType    domain.AggregateTable
	ByDayHour    domain.AggregateTable
	ByWeather    domain.AggregateTable
	ByRoad       domain.AggregateTable
	BySeverity   domain.AggregateTable
	ByGeoCell    domain.AggregateTable

	Correlation domain.CorrelationMatrix
}

// Summarize computes the fixed set of tables over the observations.
func Summarize(obs []domain.Observation, opts Options) Summary {
	attrs := opts.Attributes
	if attrs == nil {
		attrs = DefaultAttributes()
	}
	cell := opts.GridCellDegrees
	if cell <= 0 {
		cell = 1
	}

	s := Summary{
		Records:      len(obs),
		MeanSeverity: math.NaN(),

		ByHour:       Aggregate(DimHour, obs, Hour()),
		ByDayOfWeek:  Aggregate(DimDayOfWeek, obs, DayOfWeek()),
		ByMonth:      Aggregate(DimMonth, obs, Month()),
		ByTimePeriod: Aggregate(DimTimePeriod, obs, TimePeriod()),
		ByDayType:    Aggregate(DimDayType, obs, DayType()),
		ByDayHour:    Aggregate(DimDayHour, obs, DayOfWeek(), Hour()),
		ByWeather:    Aggregate(DimWeather, obs, Weather()),
		ByRoad:       Aggregate(DimRoad, obs, Road()),
		BySeverity:   Aggregate(DimSeverity, obs, Severity(opts.SeverityLevels)),
		ByGeoCell:    Aggregate(DimGeoCell, obs, LatCell(cell), LonCell(cell)),

		Correlation: Correlate(obs, attrs),
	}

	severitySum := 0
	for _, o := range obs {
		severitySum += o.Record.Severity
		if o.Features != nil {
			s.Timed++
			ts := o.Record.Timestamp
			if s.First.IsZero() || ts.Before(s.First) {
				s.First = ts
			}
			if s.Last.IsZero() || ts.After(s.Last) {
				s.Last = ts
			}
		}
		if g := o.Record.Geo; g != nil {
			s.Located++
			s.Bounds = extend(s.Bounds, *g)
		}
	}
	if len(obs) > 0 {
		s.MeanSeverity = float64(severitySum) / float64(len(obs))
	}

	return s
}

func extend(b *Bounds, g domain.Geo) *Bounds {
	if b == nil {
		return &Bounds{MinLat: g.Lat, MaxLat: g.Lat, MinLon: g.Lon, MaxLon: g.Lon}
	}
	b.MinLat = math.Min(b.MinLat, g.Lat)
	b.MaxLat = math.Max(b.MaxLat, g.Lat)
	b.MinLon = math.Min(b.MinLon, g.Lon)
	b.MaxLon = math.Max(b.MaxLon, g.Lon)
	return b
}

// Tables returns every aggregate table in a fixed order.
func (s Summary) Tables() []domain.AggregateTable {
	return []domain.AggregateTable{
		s.ByHour,
		s.ByDayOfWeek,
		s.ByMonth,
		s.ByTimePeriod,
		s.ByDayType,
		s.ByDayHour,
		s.ByWeather,
		s.ByRoad,
		s.BySeverity,
		s.ByGeoCell,
	}
}
