package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// RawRow holds the string cells of one input row, already mapped from the
// source header to canonical columns. Absent optional columns are empty.
type RawRow struct {
	Line        int
	Timestamp   string
	Lat         string
	Lon         string
	Severity    string
	Weather     string
	Road        string
	Temperature string
	Humidity    string
	Visibility  string
	WindSpeed   string
	Pressure    string
}

// SeverityRange bounds the accepted severity levels, inclusive.
type SeverityRange struct {
	Min int
	Max int
}

// Levels returns every severity level in ascending order, or nil for an
// inverted range.
func (s SeverityRange) Levels() []int {
	if s.Max < s.Min {
		return nil
	}
	levels := make([]int, 0, s.Max-s.Min+1)
	for v := s.Min; v <= s.Max; v++ {
		levels = append(levels, v)
	}
	return levels
}

// timestampLayouts are tried in order. Fractional seconds are accepted by the
// parser for any layout that has a seconds field.
var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	"01/02/2006 15:04:05",
	"01/02/2006 15:04",
	"2006-01-02",
}

// missingMarkers are cell values treated as absent.
var missingMarkers = map[string]bool{
	"":     true,
	"na":   true,
	"n/a":  true,
	"nan":  true,
	"null": true,
	"none": true,
}

// ParseRawRow converts a raw row into an AccidentRecord. Rows that cannot be
// used at all are rejected with a RowDrop; a missing or unparseable timestamp
// is not a drop reason.
func ParseRawRow(raw RawRow, severity SeverityRange) (AccidentRecord, *RowDrop) {
	sev, drop := parseSeverity(raw.Severity, severity)
	if drop != "" {
		return AccidentRecord{}, &RowDrop{Line: raw.Line, Reason: drop, Detail: strings.TrimSpace(raw.Severity)}
	}

	geo, drop := parseCoordinates(raw.Lat, raw.Lon)
	if drop != "" {
		return AccidentRecord{}, &RowDrop{
			Line:   raw.Line,
			Reason: drop,
			Detail: fmt.Sprintf("lat=%q lon=%q", strings.TrimSpace(raw.Lat), strings.TrimSpace(raw.Lon)),
		}
	}

	ts, _ := ParseTimestamp(raw.Timestamp)

	return AccidentRecord{
		Line:      raw.Line,
		Timestamp: ts,
		Geo:       geo,
		Severity:  sev,
		Weather:   NormalizeCategory(raw.Weather),
		Road:      NormalizeCategory(raw.Road),
		Environment: Environment{
			Temperature: parseOptionalFloat(raw.Temperature),
			Humidity:    parseOptionalFloat(raw.Humidity),
			Visibility:  parseOptionalFloat(raw.Visibility),
			WindSpeed:   parseOptionalFloat(raw.WindSpeed),
			Pressure:    parseOptionalFloat(raw.Pressure),
		},
	}, nil
}

// ParseTimestamp parses a date-time cell. Offsets present in the value are
// kept as-is; naive values are read as UTC wall clock.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if isMissing(s) {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// NormalizeCategory trims a categorical cell and maps missing markers to "".
func NormalizeCategory(s string) string {
	s = strings.TrimSpace(s)
	if isMissing(s) {
		return ""
	}
	return s
}

// parseSeverity accepts integral values, including "2.0", inside the range.
// Returns the drop reason on failure.
func parseSeverity(s string, r SeverityRange) (int, string) {
	s = strings.TrimSpace(s)
	if isMissing(s) {
		return 0, DropInvalidSeverity
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v != math.Trunc(v) {
		return 0, DropInvalidSeverity
	}
	sev := int(v)
	if sev < r.Min || sev > r.Max {
		return 0, DropSeverityOutOfRange
	}
	return sev, ""
}

// parseCoordinates returns nil when both cells are blank. A single blank cell,
// an unparseable value, or a value outside the WGS-84 range is a drop reason.
func parseCoordinates(latS, lonS string) (*Geo, string) {
	latS, lonS = strings.TrimSpace(latS), strings.TrimSpace(lonS)
	latMissing, lonMissing := isMissing(latS), isMissing(lonS)
	if latMissing && lonMissing {
		return nil, ""
	}
	if latMissing || lonMissing {
		return nil, DropInvalidCoordinates
	}

	lat, errLat := strconv.ParseFloat(latS, 64)
	lon, errLon := strconv.ParseFloat(lonS, 64)
	if errLat != nil || errLon != nil || math.IsNaN(lat) || math.IsNaN(lon) {
		return nil, DropInvalidCoordinates
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return nil, DropCoordinatesRange
	}
	return &Geo{Lat: lat, Lon: lon}, ""
}

// parseOptionalFloat parses a numeric cell, returning nil when it is missing
// or not a finite number.
func parseOptionalFloat(s string) *float64 {
	s = strings.TrimSpace(s)
	if isMissing(s) {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func isMissing(s string) bool {
	return missingMarkers[strings.ToLower(s)]
}
