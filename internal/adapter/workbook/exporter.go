// Package workbook exports the aggregate tables and the correlation matrix as
// an XLSX workbook, one sheet per table.
package workbook

import (
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/couchcryptid/accident-insights/internal/adapter/output"
	"github.com/couchcryptid/accident-insights/internal/domain"
)

const (
	overviewSheet    = "overview"
	correlationSheet = "correlation"
	maxSheetName     = 31
)

// Input is the content of one workbook.
type Input struct {
	RunID       string
	GeneratedAt time.Time
	Tables      []domain.AggregateTable
	Correlation domain.CorrelationMatrix
}

// Exporter writes workbooks through a Sink.
type Exporter struct {
	sink   output.Sink
	logger *slog.Logger
}

// NewExporter creates an Exporter writing to sink.
func NewExporter(sink output.Sink, logger *slog.Logger) *Exporter {
	return &Exporter{sink: sink, logger: logger}
}

// Export builds the workbook and writes it as the named artifact.
func (e *Exporter) Export(name string, in Input) (err error) {
	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close workbook: %w", cerr)
		}
	}()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	b := &builder{f: f, header: bold}

	if err := f.SetSheetName(f.GetSheetName(0), overviewSheet); err != nil {
		return fmt.Errorf("rename default sheet: %w", err)
	}
	if err := b.overview(in); err != nil {
		return err
	}
	for _, t := range in.Tables {
		if err := b.table(t); err != nil {
			return fmt.Errorf("sheet %s: %w", t.Dimension, err)
		}
	}
	if err := b.correlation(in.Correlation); err != nil {
		return fmt.Errorf("sheet %s: %w", correlationSheet, err)
	}
	f.SetActiveSheet(0)

	w, err := e.sink.Create(name)
	if err != nil {
		return err
	}
	if err := f.Write(w); err != nil {
		_ = w.Close()
		return fmt.Errorf("write workbook: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close %s: %w", name, err)
	}

	e.logger.Info("workbook exported", "file", name, "sheets", len(in.Tables)+2)
	return nil
}

type builder struct {
	f      *excelize.File
	header int
}

func (b *builder) overview(in Input) error {
	rows := [][]any{
		{"field", "value"},
		{"run_id", in.RunID},
		{"generated_at", in.GeneratedAt.UTC().Format(time.RFC3339)},
	}
	for _, t := range in.Tables {
		rows = append(rows, []any{t.Dimension, fmt.Sprintf("%d included, %d excluded", t.Included, t.Excluded)})
	}
	return b.write(overviewSheet, rows)
}

func (b *builder) table(t domain.AggregateTable) error {
	sheet := sheetName(t.Dimension)
	if _, err := b.f.NewSheet(sheet); err != nil {
		return err
	}

	header := make([]any, 0, len(t.Selectors)+3)
	for _, s := range t.Selectors {
		header = append(header, s)
	}
	header = append(header, "count", "mean_severity", "proportion")

	rows := [][]any{header}
	for _, r := range t.Rows {
		row := make([]any, 0, len(header))
		for _, k := range r.Key {
			row = append(row, k)
		}
		row = append(row, r.Count, cell(r.MeanSeverity), r.Proportion)
		rows = append(rows, row)
	}
	return b.write(sheet, rows)
}

func (b *builder) correlation(m domain.CorrelationMatrix) error {
	if _, err := b.f.NewSheet(correlationSheet); err != nil {
		return err
	}

	header := []any{"attribute"}
	for _, a := range m.Attributes {
		header = append(header, a)
	}
	rows := [][]any{header}
	for i, a := range m.Attributes {
		row := []any{a}
		for j := range m.Attributes {
			row = append(row, cell(m.At(i, j)))
		}
		rows = append(rows, row)
	}
	return b.write(correlationSheet, rows)
}

func (b *builder) write(sheet string, rows [][]any) error {
	for i, row := range rows {
		addr, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := b.f.SetSheetRow(sheet, addr, &row); err != nil {
			return err
		}
	}
	return b.f.SetRowStyle(sheet, 1, 1, b.header)
}

// cell leaves undefined values blank.
func cell(v float64) any {
	if math.IsNaN(v) {
		return nil
	}
	return v
}

func sheetName(dimension string) string {
	if len(dimension) > maxSheetName {
		return dimension[:maxSheetName]
	}
	return dimension
}
