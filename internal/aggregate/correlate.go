package aggregate

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/couchcryptid/accident-insights/internal/domain"
)

// Attribute extracts one numeric or ordinal value for the correlation matrix.
// Value returns false when the observation has no value for the attribute.
type Attribute struct {
	Name  string
	Value func(domain.Observation) (float64, bool)
}

// DefaultAttributes returns the attributes correlated in every run: severity,
// hour of day, the weather and road hazard encodings and the environmental
// measurements.
func DefaultAttributes() []Attribute {
	return []Attribute{
		{Name: "severity", Value: func(o domain.Observation) (float64, bool) {
			return float64(o.Record.Severity), true
		}},
		{Name: "hour_of_day", Value: func(o domain.Observation) (float64, bool) {
			if o.Features == nil {
				return 0, false
			}
			return float64(o.Features.Hour), true
		}},
		{Name: "weather_hazard", Value: func(o domain.Observation) (float64, bool) {
			return domain.WeatherHazard(o.Record.Weather)
		}},
		{Name: "road_hazard", Value: func(o domain.Observation) (float64, bool) {
			return domain.RoadHazard(o.Record.Road)
		}},
		environmental("temperature", func(e domain.Environment) *float64 { return e.Temperature }),
		environmental("humidity", func(e domain.Environment) *float64 { return e.Humidity }),
		environmental("visibility", func(e domain.Environment) *float64 { return e.Visibility }),
		environmental("wind_speed", func(e domain.Environment) *float64 { return e.WindSpeed }),
		environmental("pressure", func(e domain.Environment) *float64 { return e.Pressure }),
	}
}

func environmental(name string, field func(domain.Environment) *float64) Attribute {
	return Attribute{Name: name, Value: func(o domain.Observation) (float64, bool) {
		v := field(o.Record.Environment)
		if v == nil {
			return 0, false
		}
		return *v, true
	}}
}

// column holds one attribute's values; present marks observations that have one.
type column struct {
	name    string
	values  []float64
	present []bool
}

// Correlate computes the Pearson correlation between every pair of attributes
// over pairwise-complete observations. Attributes observed fewer than twice are
// left out. Cells with fewer than two paired observations or a constant side
// are NaN.
func Correlate(obs []domain.Observation, attrs []Attribute) domain.CorrelationMatrix {
	var cols []column
	for _, a := range attrs {
		c := column{name: a.Name, values: make([]float64, len(obs)), present: make([]bool, len(obs))}
		n := 0
		for i, o := range obs {
			if v, ok := a.Value(o); ok && !math.IsNaN(v) && !math.IsInf(v, 0) {
				c.values[i], c.present[i] = v, true
				n++
			}
		}
		if n >= 2 {
			cols = append(cols, c)
		}
	}

	m := domain.CorrelationMatrix{
		Attributes: make([]string, len(cols)),
		Values:     make([][]float64, len(cols)),
	}
	for i := range cols {
		m.Attributes[i] = cols[i].name
		m.Values[i] = make([]float64, len(cols))
	}
	for i := range cols {
		for j := i; j < len(cols); j++ {
			r := pearson(cols[i], cols[j], i == j)
			m.Values[i][j], m.Values[j][i] = r, r
		}
	}
	return m
}

func pearson(a, b column, diagonal bool) float64 {
	var x, y []float64
	for i := range a.values {
		if a.present[i] && b.present[i] {
			x = append(x, a.values[i])
			y = append(y, b.values[i])
		}
	}
	if len(x) < 2 {
		return math.NaN()
	}
	if stat.Variance(x, nil) == 0 || stat.Variance(y, nil) == 0 {
		return math.NaN()
	}
	if diagonal {
		return 1
	}
	r := stat.Correlation(x, y, nil)
	return math.Max(-1, math.Min(1, r))
}
