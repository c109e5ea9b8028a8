package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/accident-insights/internal/adapter/output"
	"github.com/couchcryptid/accident-insights/internal/adapter/workbook"
	"github.com/couchcryptid/accident-insights/internal/aggregate"
	"github.com/couchcryptid/accident-insights/internal/domain"
	"github.com/couchcryptid/accident-insights/internal/observability"
	"github.com/couchcryptid/accident-insights/internal/report"
)

// RecordLoader reads and cleans the accident table.
type RecordLoader interface {
	Load(ctx context.Context) ([]domain.AccidentRecord, domain.DropReport, error)
}

// ChartRenderer draws one image artifact per call.
type ChartRenderer interface {
	RenderFigure(fig domain.FigureSpec, panels []domain.Panel) error
	RenderMatrix(spec domain.ChartSpec, m domain.CorrelationMatrix) error
}

// WorkbookExporter writes the aggregate tables as a spreadsheet.
type WorkbookExporter interface {
	Export(name string, in workbook.Input) error
}

// Options configures one run.
type Options struct {
	Source          string // shown in the report
	SeverityLevels  []int
	GridCellDegrees float64
	TopCategories   int
	WorkbookFile    string // empty disables the workbook

	Clock    clockwork.Clock // nil uses the real clock
	NewRunID func() string   // nil uses a random UUID
}

// Result describes a completed run.
type Result struct {
	RunID     string
	Records   int
	Dropped   int
	Artifacts []string
	Warnings  []string
	Summary   aggregate.Summary
}

// Pipeline runs load, derive, aggregate, render and report once.
type Pipeline struct {
	loader   RecordLoader
	renderer ChartRenderer
	workbook WorkbookExporter
	sink     output.Sink
	logger   *slog.Logger
	metrics  *observability.Metrics
	opts     Options
}

// New creates a Pipeline with the given stages and observability. A nil
// workbook exporter disables the workbook.
func New(l RecordLoader, r ChartRenderer, wb WorkbookExporter, sink output.Sink, logger *slog.Logger, metrics *observability.Metrics, opts Options) *Pipeline {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.NewRunID == nil {
		opts.NewRunID = uuid.NewString
	}
	return &Pipeline{
		loader:   l,
		renderer: r,
		workbook: wb,
		sink:     sink,
		logger:   logger,
		metrics:  metrics,
		opts:     opts,
	}
}

// Run executes every stage. Load and report failures are returned as errors;
// chart and workbook failures are collected as warnings in the Result.
func (p *Pipeline) Run(ctx context.Context) (Result, error) {
	res := Result{RunID: p.opts.NewRunID()}
	logger := p.logger.With("run_id", res.RunID)
	logger.Info("analysis started", "source", p.opts.Source)

	start := p.opts.Clock.Now()
	records, drops, err := p.loader.Load(ctx)
	p.observe("load", start)
	if err != nil {
		logger.Error("load failed", "error", err)
		return res, err
	}
	res.Records, res.Dropped = len(records), drops.Total
	p.metrics.RecordsLoaded.Add(float64(len(records)))
	for reason, n := range drops.ByReason {
		p.metrics.RowsDropped.WithLabelValues(reason).Add(float64(n))
	}

	if err := ctx.Err(); err != nil {
		return res, err
	}

	start = p.opts.Clock.Now()
	obs := domain.Derive(records)
	p.observe("derive", start)

	start = p.opts.Clock.Now()
	res.Summary = aggregate.Summarize(obs, aggregate.Options{
		SeverityLevels:  p.opts.SeverityLevels,
		GridCellDegrees: p.opts.GridCellDegrees,
	})
	p.observe("aggregate", start)
	p.metrics.RecordsUntimed.Set(float64(res.Summary.Records - res.Summary.Timed))
	p.metrics.AggregateTables.Set(float64(len(res.Summary.Tables())))
	logger.Info("aggregates computed",
		"records", res.Summary.Records,
		"timed", res.Summary.Timed,
		"located", res.Summary.Located,
		"correlated_attributes", res.Summary.Correlation.Size(),
	)

	if err := ctx.Err(); err != nil {
		return res, err
	}

	start = p.opts.Clock.Now()
	p.renderCharts(logger, &res)
	p.exportWorkbook(logger, &res)
	p.observe("render", start)

	start = p.opts.Clock.Now()
	if err := p.writeReport(res, drops); err != nil {
		logger.Error("report failed", "error", err)
		return res, err
	}
	p.observe("report", start)
	res.Artifacts = append(res.Artifacts, report.FileName)

	p.metrics.LastRunSuccess.Set(float64(p.opts.Clock.Now().Unix()))
	logger.Info("analysis complete",
		"artifacts", len(res.Artifacts),
		"warnings", len(res.Warnings),
		"dropped", res.Dropped,
	)
	return res, nil
}

func (p *Pipeline) renderCharts(logger *slog.Logger, res *Result) {
	for _, c := range Charts(p.opts.SeverityLevels, p.opts.TopCategories, p.opts.GridCellDegrees) {
		var err error
		if c.Panels == nil {
			err = p.renderer.RenderMatrix(c.matrixSpec(), res.Summary.Correlation)
		} else {
			err = p.renderer.RenderFigure(c.Figure, c.Resolve(res.Summary))
		}
		if err != nil {
			p.metrics.RenderErrors.WithLabelValues(c.Figure.Name).Inc()
			logger.Warn("chart not rendered", "chart", c.Figure.Name, "error", err)
			res.Warnings = append(res.Warnings, err.Error())
			continue
		}
		p.metrics.ChartsRendered.Inc()
		res.Artifacts = append(res.Artifacts, c.Figure.Name)
	}
}

func (p *Pipeline) exportWorkbook(logger *slog.Logger, res *Result) {
	if p.workbook == nil || p.opts.WorkbookFile == "" {
		return
	}
	err := p.workbook.Export(p.opts.WorkbookFile, workbook.Input{
		RunID:       res.RunID,
		GeneratedAt: p.opts.Clock.Now(),
		Tables:      res.Summary.Tables(),
		Correlation: res.Summary.Correlation,
	})
	if err != nil {
		logger.Warn("workbook not exported", "file", p.opts.WorkbookFile, "error", err)
		res.Warnings = append(res.Warnings, fmt.Sprintf("export %s: %v", p.opts.WorkbookFile, err))
		return
	}
	res.Artifacts = append(res.Artifacts, p.opts.WorkbookFile)
}

func (p *Pipeline) writeReport(res Result, drops domain.DropReport) (err error) {
	w, err := p.sink.Create(report.FileName)
	if err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	defer func() {
		err = errors.Join(err, w.Close())
	}()

	return report.Write(w, report.Input{
		RunID:       res.RunID,
		Source:      p.opts.Source,
		GeneratedAt: p.opts.Clock.Now(),
		Summary:     res.Summary,
		Drops:       drops,
		Artifacts:   res.Artifacts,
		Warnings:    res.Warnings,
	})
}

func (p *Pipeline) observe(stage string, start time.Time) {
	p.metrics.StageDuration.WithLabelValues(stage).Observe(p.opts.Clock.Since(start).Seconds())
}
