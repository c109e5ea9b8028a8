package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all run settings, populated from environment variables.
type Config struct {
	InputPath string
	OutputDir string
	LogLevel  string
	LogFormat string

	// MaxRows caps the number of data rows read; 0 reads the whole source.
	MaxRows int

	GridCellDegrees float64
	SeverityMin     int
	SeverityMax     int
	TopCategories   int

	// Supplementary artifacts written next to the charts. Empty disables them.
	WorkbookFile string
	MetricsFile  string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	maxRows, err := parseInt("MAX_ROWS", "50000")
	if err != nil {
		return nil, err
	}
	if maxRows < 0 {
		return nil, errors.New("invalid MAX_ROWS: must be >= 0")
	}

	gridCell, err := strconv.ParseFloat(sharedcfg.EnvOrDefault("GRID_CELL_DEGREES", "1.0"), 64)
	if err != nil || gridCell <= 0 || gridCell > 90 {
		return nil, errors.New("invalid GRID_CELL_DEGREES: must be in (0, 90]")
	}

	sevMin, err := parseInt("SEVERITY_MIN", "1")
	if err != nil {
		return nil, err
	}
	sevMax, err := parseInt("SEVERITY_MAX", "4")
	if err != nil {
		return nil, err
	}
	if sevMin > sevMax {
		return nil, errors.New("invalid SEVERITY_MIN/SEVERITY_MAX: min exceeds max")
	}

	topN, err := parseInt("TOP_CATEGORIES", "10")
	if err != nil {
		return nil, err
	}
	if topN <= 0 {
		return nil, errors.New("invalid TOP_CATEGORIES: must be > 0")
	}

	cfg := &Config{
		InputPath:       sharedcfg.EnvOrDefault("INPUT_PATH", "archive.zip"),
		OutputDir:       sharedcfg.EnvOrDefault("OUTPUT_DIR", "output"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "text"),
		MaxRows:         maxRows,
		GridCellDegrees: gridCell,
		SeverityMin:     sevMin,
		SeverityMax:     sevMax,
		TopCategories:   topN,
		WorkbookFile:    envOrDefaultAllowEmpty("WORKBOOK_FILE", "aggregates.xlsx"),
		MetricsFile:     envOrDefaultAllowEmpty("METRICS_FILE", "metrics.prom"),
	}

	if cfg.InputPath == "" {
		return nil, errors.New("INPUT_PATH is required")
	}
	if cfg.OutputDir == "" {
		return nil, errors.New("OUTPUT_DIR is required")
	}
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, errors.New("invalid LOG_FORMAT: must be json or text")
	}

	return cfg, nil
}

func parseInt(key, def string) (int, error) {
	v, err := strconv.Atoi(sharedcfg.EnvOrDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

// envOrDefaultAllowEmpty distinguishes an unset variable from one explicitly
// set to "", which disables the optional artifact.
func envOrDefaultAllowEmpty(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}
