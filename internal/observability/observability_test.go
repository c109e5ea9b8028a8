package observability

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/accident-insights/internal/config"
)

func TestNewLogger_FromConfig(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	tests := []struct {
		level string
		on    slog.Level
		off   slog.Level
	}{
		{"debug", slog.LevelDebug, slog.LevelDebug - 1},
		{"", slog.LevelInfo, slog.LevelDebug},
		{"warn", slog.LevelWarn, slog.LevelInfo},
		{"error", slog.LevelError, slog.LevelWarn},
	}

	for _, tt := range tests {
		logger := NewLogger(&config.Config{LogLevel: tt.level, LogFormat: "text"})
		require.NotNil(t, logger)
		assert.True(t, logger.Enabled(t.Context(), tt.on), tt.level)
		assert.False(t, logger.Enabled(t.Context(), tt.off), tt.level)
		assert.Same(t, logger, slog.Default(), "installed as default")
	}
}

func TestMetrics_RecordAndWriteTextfile(t *testing.T) {
	m := NewMetrics()

	m.RecordsLoaded.Add(42)
	m.RowsDropped.WithLabelValues("invalid_severity").Add(3)
	m.RenderErrors.WithLabelValues("weather_analysis.png").Inc()
	m.StageDuration.WithLabelValues("load").Observe(0.2)

	assert.Equal(t, 42.0, testutil.ToFloat64(m.RecordsLoaded))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.RowsDropped.WithLabelValues("invalid_severity")))

	path := filepath.Join(t.TempDir(), "metrics.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "accident_eda_records_loaded_total 42")
	assert.Contains(t, string(data), `accident_eda_rows_dropped_total{reason="invalid_severity"} 3`)
	assert.Contains(t, string(data), `accident_eda_render_errors_total{chart="weather_analysis.png"} 1`)
}

func TestMetrics_IndependentRegistries(t *testing.T) {
	// Each run owns its registry, so constructing twice must not panic.
	a := NewMetrics()
	b := NewMetrics()
	a.ChartsRendered.Inc()

	assert.Equal(t, 1.0, testutil.ToFloat64(a.ChartsRendered))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.ChartsRendered))

	families, err := a.Gatherer().Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestMetrics_WriteTextfileError(t *testing.T) {
	m := NewMetrics()
	err := m.WriteTextfile(filepath.Join(t.TempDir(), "missing", "metrics.prom"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "write metrics textfile")
}
