package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "archive.zip", cfg.InputPath)
	assert.Equal(t, "output", cfg.OutputDir)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 50000, cfg.MaxRows)
	assert.Equal(t, 1.0, cfg.GridCellDegrees)
	assert.Equal(t, 1, cfg.SeverityMin)
	assert.Equal(t, 4, cfg.SeverityMax)
	assert.Equal(t, 10, cfg.TopCategories)
	assert.Equal(t, "aggregates.xlsx", cfg.WorkbookFile)
	assert.Equal(t, "metrics.prom", cfg.MetricsFile)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("INPUT_PATH", "data/US_Accidents.csv")
	t.Setenv("OUTPUT_DIR", "/tmp/eda")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("MAX_ROWS", "0")
	t.Setenv("GRID_CELL_DEGREES", "0.5")
	t.Setenv("SEVERITY_MIN", "0")
	t.Setenv("SEVERITY_MAX", "5")
	t.Setenv("TOP_CATEGORIES", "5")
	t.Setenv("WORKBOOK_FILE", "tables.xlsx")
	t.Setenv("METRICS_FILE", "run.prom")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "data/US_Accidents.csv", cfg.InputPath)
	assert.Equal(t, "/tmp/eda", cfg.OutputDir)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 0, cfg.MaxRows)
	assert.Equal(t, 0.5, cfg.GridCellDegrees)
	assert.Equal(t, 0, cfg.SeverityMin)
	assert.Equal(t, 5, cfg.SeverityMax)
	assert.Equal(t, 5, cfg.TopCategories)
	assert.Equal(t, "tables.xlsx", cfg.WorkbookFile)
	assert.Equal(t, "run.prom", cfg.MetricsFile)
}

func TestLoad_EmptyArtifactNamesDisable(t *testing.T) {
	t.Setenv("WORKBOOK_FILE", "")
	t.Setenv("METRICS_FILE", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Empty(t, cfg.WorkbookFile)
	assert.Empty(t, cfg.MetricsFile)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"max rows not a number", "MAX_ROWS", "lots"},
		{"negative max rows", "MAX_ROWS", "-1"},
		{"grid cell not a number", "GRID_CELL_DEGREES", "wide"},
		{"zero grid cell", "GRID_CELL_DEGREES", "0"},
		{"grid cell too large", "GRID_CELL_DEGREES", "120"},
		{"severity min not a number", "SEVERITY_MIN", "low"},
		{"severity max not a number", "SEVERITY_MAX", "high"},
		{"zero top categories", "TOP_CATEGORIES", "0"},
		{"log format", "LOG_FORMAT", "xml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}

func TestLoad_SeverityMinAboveMax(t *testing.T) {
	t.Setenv("SEVERITY_MIN", "4")
	t.Setenv("SEVERITY_MAX", "1")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SEVERITY_MIN")
}
