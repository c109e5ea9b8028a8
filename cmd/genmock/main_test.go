package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/accident-insights/internal/adapter/source"
	"github.com/couchcryptid/accident-insights/internal/domain"
)

func load(t *testing.T, data []byte) ([]domain.AccidentRecord, domain.DropReport) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "accidents.csv")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	loader := source.NewLoader(source.Options{
		Path:     path,
		Severity: domain.SeverityRange{Min: 1, Max: 4},
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	records, drops, err := loader.Load(context.Background())
	require.NoError(t, err)
	return records, drops
}

func TestGenerate_Deterministic(t *testing.T) {
	var a, b, c bytes.Buffer
	require.NoError(t, generate(&a, 200, 7, 0.05))
	require.NoError(t, generate(&b, 200, 7, 0.05))
	require.NoError(t, generate(&c, 200, 8, 0.05))

	assert.Equal(t, a.String(), b.String())
	assert.NotEqual(t, a.String(), c.String())
}

func TestGenerate_Loadable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, generate(&buf, 1000, 42, 0))

	records, drops := load(t, buf.Bytes())
	assert.Len(t, records, 1000)
	assert.Zero(t, drops.Total)

	timed := 0
	for _, r := range records {
		assert.GreaterOrEqual(t, r.Severity, 1)
		assert.LessOrEqual(t, r.Severity, 4)
		require.NotNil(t, r.Geo)
		if r.HasTimestamp() {
			timed++
		}
	}
	assert.Equal(t, 1000, timed)
}

func TestGenerate_MalformedRows(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, generate(&buf, 1000, 42, 0.2))

	records, drops := load(t, buf.Bytes())
	assert.Positive(t, drops.Total)
	assert.Equal(t, 1000, len(records)+drops.Total, "a bad timestamp keeps the row")

	untimed := 0
	for _, r := range records {
		if !r.HasTimestamp() {
			untimed++
		}
	}
	assert.Positive(t, untimed)
}

func TestPick(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	for range 20 {
		assert.Equal(t, 1, pick(rng, []int{0, 1, 0}))
	}
}
