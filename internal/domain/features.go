package domain

import "time"

// TimePeriod buckets of the day.
const (
	Morning   = "Morning"
	Afternoon = "Afternoon"
	Evening   = "Evening"
	Night     = "Night"
)

// TimePeriods lists the buckets in chronological order starting at dawn.
var TimePeriods = []string{Morning, Afternoon, Evening, Night}

// Weekdays lists day names indexed by DerivedFeatures.DayOfWeek (0 = Monday).
var Weekdays = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// DerivedFeatures are the calendar attributes computed from a record timestamp.
type DerivedFeatures struct {
	Hour      int    `json:"hour_of_day"` // 0-23
	DayOfWeek int    `json:"day_of_week"` // 0-6, Monday = 0
	Month     int    `json:"month"`       // 1-12
	Period    string `json:"time_period"`
	Weekend   bool   `json:"is_weekend"`
}

// DayName returns the weekday name for the features.
func (f DerivedFeatures) DayName() string {
	return Weekdays[f.DayOfWeek]
}

// DeriveFeatures computes calendar attributes from the wall clock of t. The
// timestamp is used as given; no timezone conversion is applied. Returns false
// for a zero timestamp.
func DeriveFeatures(t time.Time) (DerivedFeatures, bool) {
	if t.IsZero() {
		return DerivedFeatures{}, false
	}

	dow := mondayFirst(t.Weekday())
	return DerivedFeatures{
		Hour:      t.Hour(),
		DayOfWeek: dow,
		Month:     int(t.Month()),
		Period:    TimePeriodOf(t.Hour()),
		Weekend:   dow >= 5,
	}, true
}

// TimePeriodOf maps an hour of day to its bucket:
// Morning [5,12), Afternoon [12,17), Evening [17,21), Night [21,24) and [0,5).
func TimePeriodOf(hour int) string {
	switch {
	case hour >= 5 && hour < 12:
		return Morning
	case hour >= 12 && hour < 17:
		return Afternoon
	case hour >= 17 && hour < 21:
		return Evening
	default:
		return Night
	}
}

// Derive joins every record with its derived features.
func Derive(records []AccidentRecord) []Observation {
	obs := make([]Observation, len(records))
	for i, rec := range records {
		obs[i] = Observation{Record: rec}
		if f, ok := DeriveFeatures(rec.Timestamp); ok {
			obs[i].Features = &f
		}
	}
	return obs
}

// mondayFirst converts Go's Sunday-first weekday to a Monday-first index.
func mondayFirst(d time.Weekday) int {
	return (int(d) + 6) % 7
}
