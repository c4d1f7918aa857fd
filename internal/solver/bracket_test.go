package solver

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindFirstCrossing_Directions(t *testing.T) {
	// sin with a one-day period, zero at t0 going up and at t0+12h going down.
	wave := func(tt time.Time) (float64, error) {
		days := tt.Sub(t0).Hours() / 24.0
		return math.Sin(2 * math.Pi * days), nil
	}
	start := t0.Add(-3 * time.Hour)
	end := start.Add(24 * time.Hour)
	opts := Options{Tolerance: 1e-6}

	tests := []struct {
		name string
		dir  Direction
		want time.Time
	}{
		{"up", CrossingUp, t0},
		{"down", CrossingDown, t0.Add(12 * time.Hour)},
		{"any takes the first", CrossingAny, t0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, found, err := FindFirstCrossing(wave, start, end, time.Hour, tt.dir, opts)
			require.NoError(t, err)
			require.True(t, found)
			assert.InDelta(t, 0, res.Time.Sub(tt.want).Seconds(), 1.0)
		})
	}
}

func TestFindFirstCrossing_NoneInWindow(t *testing.T) {
	positive := func(time.Time) (float64, error) { return 1, nil }

	_, found, err := FindFirstCrossing(positive, t0, t0.Add(48*time.Hour), time.Hour, CrossingAny, Options{Tolerance: 1e-3})
	require.NoError(t, err)
	assert.False(t, found)
}
