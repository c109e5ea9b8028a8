package aggregate

import (
	"fmt"
	"math"
	"strconv"

	"github.com/couchcryptid/accident-insights/internal/domain"
)

// Day type levels.
const (
	Weekday = "Weekday"
	Weekend = "Weekend"
)

// cellEpsilon absorbs binary rounding in v/degrees, e.g. 0.3/0.1.
const cellEpsilon = 1e-9

var (
	hourLevels  = numberedLevels(0, 23)
	monthLevels = numberedLevels(1, 12)
)

func numberedLevels(from, to int) []string {
	levels := make([]string, 0, to-from+1)
	for i := from; i <= to; i++ {
		levels = append(levels, fmt.Sprintf("%02d", i))
	}
	return levels
}

// HourLevels returns the hour keys "00" through "23".
func HourLevels() []string { return append([]string(nil), hourLevels...) }

// MonthLevels returns the month keys "01" through "12".
func MonthLevels() []string { return append([]string(nil), monthLevels...) }

// Hour groups by hour of day.
func Hour() Selector {
	return Selector{
		Name:   "hour_of_day",
		Levels: hourLevels,
		Value: func(o domain.Observation) (string, bool) {
			if o.Features == nil {
				return "", false
			}
			return hourLevels[o.Features.Hour], true
		},
	}
}

// DayOfWeek groups by weekday name, Monday first.
func DayOfWeek() Selector {
	return Selector{
		Name:   "day_of_week",
		Levels: domain.Weekdays,
		Value: func(o domain.Observation) (string, bool) {
			if o.Features == nil {
				return "", false
			}
			return o.Features.DayName(), true
		},
	}
}

// Month groups by calendar month.
func Month() Selector {
	return Selector{
		Name:   "month",
		Levels: monthLevels,
		Value: func(o domain.Observation) (string, bool) {
			if o.Features == nil {
				return "", false
			}
			return monthLevels[o.Features.Month-1], true
		},
	}
}

// TimePeriod groups by Morning, Afternoon, Evening and Night.
func TimePeriod() Selector {
	return Selector{
		Name:   "time_period",
		Levels: domain.TimePeriods,
		Value: func(o domain.Observation) (string, bool) {
			if o.Features == nil {
				return "", false
			}
			return o.Features.Period, true
		},
	}
}

// DayType splits weekdays from weekends.
func DayType() Selector {
	return Selector{
		Name:   "day_type",
		Levels: []string{Weekday, Weekend},
		Value: func(o domain.Observation) (string, bool) {
			if o.Features == nil {
				return "", false
			}
			if o.Features.Weekend {
				return Weekend, true
			}
			return Weekday, true
		},
	}
}

// Weather groups by weather condition. Missing conditions go to Unknown.
func Weather() Selector {
	return Selector{
		Name: "weather_condition",
		Value: func(o domain.Observation) (string, bool) {
			return o.Record.WeatherOrUnknown(), true
		},
	}
}

// Road groups by road condition. Missing conditions go to Unknown.
func Road() Selector {
	return Selector{
		Name: "road_condition",
		Value: func(o domain.Observation) (string, bool) {
			return o.Record.RoadOrUnknown(), true
		},
	}
}

// Severity groups by severity level. Every level is listed even when unused.
func Severity(levels []int) Selector {
	names := make([]string, len(levels))
	for i, l := range levels {
		names[i] = strconv.Itoa(l)
	}
	return Selector{
		Name:   "severity",
		Levels: names,
		Value: func(o domain.Observation) (string, bool) {
			return strconv.Itoa(o.Record.Severity), true
		},
	}
}

// LatCell groups by the lower bound of a latitude cell of the given size.
// Records without coordinates are excluded.
func LatCell(degrees float64) Selector {
	return gridSelector("lat_cell", degrees, func(g domain.Geo) float64 { return g.Lat })
}

// LonCell groups by the lower bound of a longitude cell of the given size.
func LonCell(degrees float64) Selector {
	return gridSelector("lon_cell", degrees, func(g domain.Geo) float64 { return g.Lon })
}

func gridSelector(name string, degrees float64, coord func(domain.Geo) float64) Selector {
	prec := decimals(degrees)
	return Selector{
		Name: name,
		Value: func(o domain.Observation) (string, bool) {
			if o.Record.Geo == nil {
				return "", false
			}
			return CellLabel(coord(*o.Record.Geo), degrees, prec), true
		},
	}
}

// CellLabel formats the lower bound of the grid cell containing v. A value
// within rounding error of a cell edge belongs to the cell starting there.
func CellLabel(v, degrees float64, prec int) string {
	q := v / degrees
	lower := math.Floor(q+cellEpsilon*math.Max(1, math.Abs(q))) * degrees
	if lower == 0 {
		lower = 0 // normalise -0
	}
	return strconv.FormatFloat(lower, 'f', prec, 64)
}

// decimals returns the number of fractional digits needed to print multiples
// of degrees exactly.
func decimals(degrees float64) int {
	s := strconv.FormatFloat(degrees, 'f', -1, 64)
	for i := 0; i < len(s); i++ {
		if s[i] == '.' {
			return len(s) - i - 1
		}
	}
	return 0
}
