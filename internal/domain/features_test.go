package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimePeriodOf(t *testing.T) {
	tests := []struct {
		hour     int
		expected string
	}{
		{0, Night},
		{4, Night},
		{5, Morning},
		{11, Morning},
		{12, Afternoon},
		{16, Afternoon},
		{17, Evening},
		{20, Evening},
		{21, Night},
		{23, Night},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, TimePeriodOf(tt.hour), "hour %d", tt.hour)
	}
}

func TestTimePeriodOf_TotalAndDisjoint(t *testing.T) {
	counts := map[string]int{}
	for h := 0; h < 24; h++ {
		p := TimePeriodOf(h)
		require.Contains(t, TimePeriods, p)
		counts[p]++
	}

	assert.Equal(t, map[string]int{Morning: 7, Afternoon: 5, Evening: 4, Night: 8}, counts)
}

func TestDeriveFeatures(t *testing.T) {
	t.Run("weekday morning", func(t *testing.T) {
		// 2016-02-08 was a Monday.
		f, ok := DeriveFeatures(time.Date(2016, 2, 8, 5, 46, 0, 0, time.UTC))

		require.True(t, ok)
		assert.Equal(t, DerivedFeatures{Hour: 5, DayOfWeek: 0, Month: 2, Period: Morning, Weekend: false}, f)
		assert.Equal(t, "Monday", f.DayName())
	})

	t.Run("sunday night", func(t *testing.T) {
		f, ok := DeriveFeatures(time.Date(2016, 2, 14, 23, 0, 0, 0, time.UTC))

		require.True(t, ok)
		assert.Equal(t, 6, f.DayOfWeek)
		assert.Equal(t, "Sunday", f.DayName())
		assert.True(t, f.Weekend)
		assert.Equal(t, Night, f.Period)
	})

	t.Run("saturday is weekend", func(t *testing.T) {
		f, ok := DeriveFeatures(time.Date(2016, 2, 13, 12, 0, 0, 0, time.UTC))

		require.True(t, ok)
		assert.Equal(t, 5, f.DayOfWeek)
		assert.True(t, f.Weekend)
	})

	t.Run("zero time", func(t *testing.T) {
		_, ok := DeriveFeatures(time.Time{})
		assert.False(t, ok)
	})
}

func TestDerive(t *testing.T) {
	records := []AccidentRecord{
		{Line: 2, Timestamp: time.Date(2016, 2, 8, 14, 0, 0, 0, time.UTC), Severity: 2},
		{Line: 3, Severity: 3},
	}

	obs := Derive(records)

	require.Len(t, obs, 2)
	require.NotNil(t, obs[0].Features)
	assert.Equal(t, Afternoon, obs[0].Features.Period)
	assert.Equal(t, records[0], obs[0].Record)
	assert.Nil(t, obs[1].Features)
}

func TestDerive_Deterministic(t *testing.T) {
	records := []AccidentRecord{
		{Timestamp: time.Date(2020, 7, 4, 18, 30, 0, 0, time.UTC), Severity: 1},
	}
	assert.Equal(t, Derive(records), Derive(records))
}
