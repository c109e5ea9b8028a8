// Package source reads accident records from a delimited file, optionally
// packed inside a ZIP archive.
package source

import (
	"archive/zip"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/couchcryptid/accident-insights/internal/domain"
)

// ctxCheckInterval is how many rows are read between cancellation checks.
const ctxCheckInterval = 1024

// columnAliases maps canonical columns to the header names accepted for them.
// Matching is case-insensitive.
var columnAliases = map[string][]string{
	domain.ColTimestamp:   {"timestamp", "start_time"},
	domain.ColLatitude:    {"latitude", "start_lat", "lat"},
	domain.ColLongitude:   {"longitude", "start_lng", "start_lon", "lng", "lon"},
	domain.ColSeverity:    {"severity"},
	domain.ColWeather:     {"weather_condition"},
	domain.ColRoad:        {"road_condition", "road_surface", "road_surface_conditions"},
	domain.ColTemperature: {"temperature", "temperature(f)"},
	domain.ColHumidity:    {"humidity", "humidity(%)"},
	domain.ColVisibility:  {"visibility", "visibility(mi)"},
	domain.ColWindSpeed:   {"wind_speed", "wind_speed(mph)"},
	domain.ColPressure:    {"pressure", "pressure(in)"},
}

// Options configures a Loader.
type Options struct {
	Path     string
	MaxRows  int // 0 reads every row
	Severity domain.SeverityRange
}

// Loader reads the accident table from a CSV file or a ZIP archive holding one.
// It implements pipeline.RecordLoader.
type Loader struct {
	opts   Options
	logger *slog.Logger
}

// NewLoader creates a Loader for the given options.
func NewLoader(opts Options, logger *slog.Logger) *Loader {
	return &Loader{opts: opts, logger: logger}
}

// Load reads and cleans every row. Malformed rows are dropped and reported in
// the returned DropReport. It fails with *domain.LoadError when the source is
// unreadable and with *domain.SchemaError when it is empty or lacks required
// columns.
func (l *Loader) Load(ctx context.Context) ([]domain.AccidentRecord, domain.DropReport, error) {
	rc, name, err := open(l.opts.Path)
	if err != nil {
		return nil, domain.DropReport{}, &domain.LoadError{Path: l.opts.Path, Err: err}
	}
	defer rc.Close()

	l.logger.Info("reading accident records", "path", l.opts.Path, "entry", name, "max_rows", l.opts.MaxRows)

	records, drops, err := l.read(ctx, rc)
	if err != nil {
		var schemaErr *domain.SchemaError
		if errors.As(err, &schemaErr) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, drops, err
		}
		return nil, drops, &domain.LoadError{Path: l.opts.Path, Err: err}
	}

	if drops.Total > 0 {
		l.logger.Warn("dropped malformed rows", "dropped", drops.Total, "by_reason", drops.ByReason)
	}
	l.logger.Info("accident records loaded", "records", len(records), "dropped", drops.Total)
	return records, drops, nil
}

func (l *Loader) read(ctx context.Context, r io.Reader) ([]domain.AccidentRecord, domain.DropReport, error) {
	var drops domain.DropReport

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, drops, &domain.SchemaError{Reason: "source is empty"}
	}
	if err != nil {
		return nil, drops, fmt.Errorf("read header: %w", err)
	}

	cols := resolveColumns(header)
	if missing := missingRequired(cols); len(missing) > 0 {
		return nil, drops, &domain.SchemaError{Missing: missing}
	}

	var records []domain.AccidentRecord
	rows := 0
	for l.opts.MaxRows == 0 || rows < l.opts.MaxRows {
		if rows%ctxCheckInterval == 0 && ctx.Err() != nil {
			return nil, drops, ctx.Err()
		}

		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		rows++
		line := rows + 1

		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			l.drop(&drops, domain.RowDrop{Line: parseErr.StartLine, Reason: domain.DropMalformedRow, Detail: parseErr.Err.Error()})
			continue
		}
		if err != nil {
			return nil, drops, fmt.Errorf("read row %d: %w", line, err)
		}
		if startLine, _ := cr.FieldPos(0); startLine > 0 {
			line = startLine
		}

		rec, drop := domain.ParseRawRow(cols.raw(line, fields), l.opts.Severity)
		if drop != nil {
			l.drop(&drops, *drop)
			continue
		}
		records = append(records, rec)
	}

	if rows == 0 {
		return nil, drops, &domain.SchemaError{Reason: "source has a header but no data rows"}
	}
	return records, drops, nil
}

func (l *Loader) drop(drops *domain.DropReport, d domain.RowDrop) {
	drops.Add(d)
	l.logger.Debug("row dropped", "line", d.Line, "reason", d.Reason, "detail", d.Detail)
}

// columns holds the field index of each canonical column, -1 when absent.
type columns map[string]int

func resolveColumns(header []string) columns {
	byName := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, dup := byName[h]; !dup {
			byName[h] = i
		}
	}

	cols := make(columns, len(columnAliases))
	for col, aliases := range columnAliases {
		cols[col] = -1
		for _, a := range aliases {
			if idx, ok := byName[a]; ok {
				cols[col] = idx
				break
			}
		}
	}
	return cols
}

func missingRequired(cols columns) []string {
	var missing []string
	for _, col := range domain.RequiredColumns {
		if cols[col] < 0 {
			missing = append(missing, col)
		}
	}
	return missing
}

func (c columns) raw(line int, fields []string) domain.RawRow {
	get := func(col string) string {
		idx := c[col]
		if idx < 0 || idx >= len(fields) {
			return ""
		}
		return fields[idx]
	}
	return domain.RawRow{
		Line:        line,
		Timestamp:   get(domain.ColTimestamp),
		Lat:         get(domain.ColLatitude),
		Lon:         get(domain.ColLongitude),
		Severity:    get(domain.ColSeverity),
		Weather:     get(domain.ColWeather),
		Road:        get(domain.ColRoad),
		Temperature: get(domain.ColTemperature),
		Humidity:    get(domain.ColHumidity),
		Visibility:  get(domain.ColVisibility),
		WindSpeed:   get(domain.ColWindSpeed),
		Pressure:    get(domain.ColPressure),
	}
}

// open returns a reader over the tabular data at path. For a .zip archive the
// first CSV entry in name order is read without extracting it.
func open(path string) (io.ReadCloser, string, error) {
	if !strings.EqualFold(filepath.Ext(path), ".zip") {
		f, err := os.Open(path)
		if err != nil {
			return nil, "", err
		}
		return f, filepath.Base(path), nil
	}

	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, "", fmt.Errorf("open archive: %w", err)
	}

	var csvFiles []*zip.File
	for _, f := range zr.File {
		if !f.FileInfo().IsDir() && strings.EqualFold(filepath.Ext(f.Name), ".csv") {
			csvFiles = append(csvFiles, f)
		}
	}
	if len(csvFiles) == 0 {
		zr.Close()
		return nil, "", errors.New("archive contains no CSV file")
	}
	sort.Slice(csvFiles, func(i, j int) bool { return csvFiles[i].Name < csvFiles[j].Name })

	entry, err := csvFiles[0].Open()
	if err != nil {
		zr.Close()
		return nil, "", fmt.Errorf("open archive entry %s: %w", csvFiles[0].Name, err)
	}
	return &archiveEntry{ReadCloser: entry, archive: zr}, csvFiles[0].Name, nil
}

// archiveEntry closes both the entry and its archive.
type archiveEntry struct {
	io.ReadCloser
	archive *zip.ReadCloser
}

func (a *archiveEntry) Close() error {
	return errors.Join(a.ReadCloser.Close(), a.archive.Close())
}
