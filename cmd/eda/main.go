package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/couchcryptid/accident-insights/internal/adapter/chart"
	"github.com/couchcryptid/accident-insights/internal/adapter/output"
	"github.com/couchcryptid/accident-insights/internal/adapter/source"
	"github.com/couchcryptid/accident-insights/internal/adapter/workbook"
	"github.com/couchcryptid/accident-insights/internal/config"
	"github.com/couchcryptid/accident-insights/internal/domain"
	"github.com/couchcryptid/accident-insights/internal/observability"
	"github.com/couchcryptid/accident-insights/internal/pipeline"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return 1
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	severity := domain.SeverityRange{Min: cfg.SeverityMin, Max: cfg.SeverityMax}
	loader := source.NewLoader(source.Options{
		Path:     cfg.InputPath,
		MaxRows:  cfg.MaxRows,
		Severity: severity,
	}, logger)

	dir := output.NewDir(cfg.OutputDir)
	renderer := chart.NewRenderer(dir, logger)

	var exporter pipeline.WorkbookExporter
	if cfg.WorkbookFile != "" {
		exporter = workbook.NewExporter(dir, logger)
	}

	p := pipeline.New(loader, renderer, exporter, dir, logger, metrics, pipeline.Options{
		Source:          cfg.InputPath,
		SeverityLevels:  severity.Levels(),
		GridCellDegrees: cfg.GridCellDegrees,
		TopCategories:   cfg.TopCategories,
		WorkbookFile:    cfg.WorkbookFile,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	res, err := p.Run(ctx)
	if err != nil {
		logger.Error("analysis failed", "error", err)
		return 1
	}

	if cfg.MetricsFile != "" {
		path := filepath.Join(cfg.OutputDir, cfg.MetricsFile)
		if err := metrics.WriteTextfile(path); err != nil {
			logger.Warn("metrics not written", "path", path, "error", err)
		} else {
			logger.Debug("metrics written", "path", path)
		}
	}

	for _, w := range res.Warnings {
		logger.Warn("run warning", "warning", w)
	}
	logger.Info("results saved", "dir", cfg.OutputDir, "artifacts", res.Artifacts)
	return 0
}
