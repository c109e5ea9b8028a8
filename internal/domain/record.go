package domain

import "time"

// Column names of the canonical accident schema.
const (
	ColTimestamp   = "timestamp"
	ColLatitude    = "latitude"
	ColLongitude   = "longitude"
	ColSeverity    = "severity"
	ColWeather     = "weather_condition"
	ColRoad        = "road_condition"
	ColTemperature = "temperature"
	ColHumidity    = "humidity"
	ColVisibility  = "visibility"
	ColWindSpeed   = "wind_speed"
	ColPressure    = "pressure"
)

// RequiredColumns must be present in every input source.
var RequiredColumns = []string{ColTimestamp, ColLatitude, ColLongitude, ColSeverity}

// Unknown is the sentinel bucket for a missing categorical value.
const Unknown = "Unknown"

// Geo represents a WGS-84 latitude/longitude coordinate pair.
type Geo struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Environment holds the optional weather measurements reported with an accident.
// A nil field means the value was missing or unparseable.
type Environment struct {
	Temperature *float64 `json:"temperature,omitempty"` // °F
	Humidity    *float64 `json:"humidity,omitempty"`    // %
	Visibility  *float64 `json:"visibility,omitempty"`  // miles
	WindSpeed   *float64 `json:"wind_speed,omitempty"`  // mph
	Pressure    *float64 `json:"pressure,omitempty"`    // inHg
}

// AccidentRecord is one cleaned input row. It is never mutated after loading.
type AccidentRecord struct {
	Line        int         `json:"line"`
	Timestamp   time.Time   `json:"timestamp"` // zero when missing or unparseable
	Geo         *Geo        `json:"geo,omitempty"`
	Severity    int         `json:"severity"`
	Weather     string      `json:"weather_condition,omitempty"`
	Road        string      `json:"road_condition,omitempty"`
	Environment Environment `json:"environment"`
}

// HasTimestamp reports whether the record carries a usable timestamp.
func (r AccidentRecord) HasTimestamp() bool {
	return !r.Timestamp.IsZero()
}

// WeatherOrUnknown returns the weather condition or the Unknown sentinel.
func (r AccidentRecord) WeatherOrUnknown() string {
	return orUnknown(r.Weather)
}

// RoadOrUnknown returns the road condition or the Unknown sentinel.
func (r AccidentRecord) RoadOrUnknown() string {
	return orUnknown(r.Road)
}

func orUnknown(s string) string {
	if s == "" {
		return Unknown
	}
	return s
}

// Observation joins a record with its derived features. Features is nil when
// the record has no timestamp; such observations are left out of every
// time-based aggregate.
type Observation struct {
	Record   AccidentRecord
	Features *DerivedFeatures
}
