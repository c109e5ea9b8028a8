// Package domain models traffic accident records and the tables derived from them.
//
// # Data Source
//
// Input rows follow the public US traffic accident exports: one accident per
// row with a start time, start coordinates, a severity level and the weather
// observed nearby. Canonical column names are snake_case ([ColTimestamp] etc.);
// the loader also resolves the export's own headers such as "Start_Time",
// "Start_Lat" and "Weather_Condition".
//
// # Conventions
//
// Timestamps:
//
//	"2016-02-08 05:46:00" (optionally with fractional seconds) or RFC 3339.
//	The wall clock is used as given; no timezone conversion is applied, so a
//	value carrying an offset keeps its local hour.
//
// Severity:
//
//	Small ordered integer, 1 (least impact on traffic) to 4 (most) by default.
//	"2.0" is accepted as 2. Values outside the configured range drop the row.
//
// Coordinates:
//
//	WGS-84 decimal degrees. Both blank means "no location": the record is kept
//	but left out of geographic aggregates. One blank, an unparseable value, or
//	a value outside [-90,90]/[-180,180] drops the row.
//
// Missing values:
//
//	"", "NA", "N/A", "NaN", "null" and "None" (any case) are treated as absent.
//	Absent weather or road conditions aggregate under the [Unknown] sentinel so
//	bucket counts always add up to the number of included records.
//
// Time periods:
//
//	Morning [05,12) | Afternoon [12,17) | Evening [17,21) | Night [21,24) and [00,05)
//
// Hazard encodings:
//
//	Weather and road conditions are free text. [WeatherHazard] and [RoadHazard]
//	map them to small ordinals by keyword so they can enter the correlation
//	matrix next to severity and the numeric weather measurements.
package domain
