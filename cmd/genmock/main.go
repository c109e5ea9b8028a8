// Command genmock writes a synthetic accident CSV in the layout of the public
// US accidents dataset. Output is deterministic for a given seed, so it can be
// committed as a fixture or fed straight into the analysis.
//
// Usage:
//
//	go run ./cmd/genmock -out data/mock/accidents.csv -rows 5000 -seed 42
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

var header = []string{
	"ID", "Severity", "Start_Time", "End_Time", "Start_Lat", "Start_Lng",
	"Temperature(F)", "Humidity(%)", "Pressure(in)", "Visibility(mi)", "Wind_Speed(mph)",
	"Weather_Condition",
}

var baseDate = time.Date(2022, time.January, 3, 0, 0, 0, 0, time.UTC)

// city anchors generated coordinates; spread is in degrees.
type city struct {
	lat, lon, spread float64
}

var cities = []city{
	{34.05, -118.24, 0.6},
	{29.76, -95.37, 0.5},
	{25.76, -80.19, 0.4},
	{40.71, -74.01, 0.3},
	{39.96, -82.99, 0.8},
	{47.61, -122.33, 0.4},
}

type weighted struct {
	value  string
	weight int
}

var weatherMix = []weighted{
	{"Fair", 40}, {"Clear", 15}, {"Cloudy", 12}, {"Mostly Cloudy", 10}, {"Partly Cloudy", 8},
	{"Light Rain", 6}, {"Rain", 3}, {"Fog", 2}, {"Light Snow", 2}, {"Heavy Rain", 1}, {"", 1},
}

// hourWeights follow the commute peaks seen in real accident data.
var hourWeights = []int{2, 1, 1, 1, 2, 4, 7, 10, 9, 6, 5, 5, 6, 6, 7, 8, 10, 10, 7, 5, 4, 3, 3, 2}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "", "output CSV path")
	rows := flag.Int("rows", 5000, "number of data rows")
	seed := flag.Uint64("seed", 42, "random seed")
	bad := flag.Float64("bad", 0.01, "fraction of deliberately malformed rows")
	flag.Parse()

	if *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}
	if *rows <= 0 {
		return fmt.Errorf("invalid -rows %d: must be > 0", *rows)
	}
	if *bad < 0 || *bad >= 1 {
		return fmt.Errorf("invalid -bad %v: must be in [0, 1)", *bad)
	}

	if err := os.MkdirAll(filepath.Dir(*out), 0o750); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	f, err := os.Create(*out)
	if err != nil {
		return fmt.Errorf("create %s: %w", *out, err)
	}
	defer f.Close()

	if err := generate(f, *rows, *seed, *bad); err != nil {
		return fmt.Errorf("generate: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", *out, err)
	}
	log.Printf("wrote %d rows to %s", *rows, *out)
	return nil
}

func generate(w io.Writer, rows int, seed uint64, badRatio float64) error {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}

	for i := range rows {
		rec := row(rng, i)
		if rng.Float64() < badRatio {
			corrupt(rng, rec)
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func row(rng *rand.Rand, i int) []string {
	day := rng.IntN(365)
	hour := pick(rng, hourWeights)
	start := baseDate.AddDate(0, 0, day).
		Add(time.Duration(hour)*time.Hour + time.Duration(rng.IntN(3600))*time.Second)
	end := start.Add(time.Duration(15+rng.IntN(240)) * time.Minute)

	c := cities[rng.IntN(len(cities))]
	weather := weatherMix[pickWeighted(rng, weatherMix)].value

	severity := 2
	switch r := rng.Float64(); {
	case r < 0.03:
		severity = 1
	case r < 0.80:
		severity = 2
	case r < 0.95:
		severity = 3
	default:
		severity = 4
	}

	temp := 60 + 25*math.Sin(float64(day)/365*2*math.Pi-math.Pi/2) + rng.NormFloat64()*8
	visibility := 10.0
	if weather == "Fog" || weather == "Heavy Rain" {
		visibility = 0.5 + rng.Float64()*2
		if severity < 4 && rng.IntN(3) == 0 {
			severity++
		}
	}

	return []string{
		"A-" + strconv.Itoa(i+1),
		strconv.Itoa(severity),
		start.Format("2006-01-02 15:04:05"),
		end.Format("2006-01-02 15:04:05"),
		formatFloat(c.lat+rng.NormFloat64()*c.spread, 6),
		formatFloat(c.lon+rng.NormFloat64()*c.spread, 6),
		optional(rng, formatFloat(temp, 1)),
		optional(rng, strconv.Itoa(20+rng.IntN(81))),
		optional(rng, formatFloat(29.2+rng.Float64()*1.0, 2)),
		optional(rng, formatFloat(visibility, 1)),
		optional(rng, formatFloat(rng.Float64()*25, 1)),
		weather,
	}
}

// corrupt breaks one required field of rec.
func corrupt(rng *rand.Rand, rec []string) {
	switch rng.IntN(4) {
	case 0:
		rec[1] = "9"
	case 1:
		rec[1] = "high"
	case 2:
		rec[4] = "95.5"
	default:
		rec[2] = "not a date"
	}
}

// optional blanks about 5% of measurement cells.
func optional(rng *rand.Rand, s string) string {
	if rng.IntN(20) == 0 {
		return ""
	}
	return s
}

func pick(rng *rand.Rand, weights []int) int {
	total := 0
	for _, w := range weights {
		total += w
	}
	n := rng.IntN(total)
	for i, w := range weights {
		if n < w {
			return i
		}
		n -= w
	}
	return len(weights) - 1
}

func pickWeighted(rng *rand.Rand, items []weighted) int {
	weights := make([]int, len(items))
	for i, it := range items {
		weights[i] = it.weight
	}
	return pick(rng, weights)
}

func formatFloat(v float64, prec int) string {
	return strconv.FormatFloat(v, 'f', prec, 64)
}
