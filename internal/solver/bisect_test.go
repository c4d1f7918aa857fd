package solver

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, time.June, 10, 7, 42, 13, 0, time.UTC)

// linear returns slope*(t - t0) in days.
func linear(slope float64) ResidualFunc {
	return func(t time.Time) (float64, error) {
		return slope * t.Sub(t0).Hours() / 24.0, nil
	}
}

func TestRefine_LinearConverges(t *testing.T) {
	const tol = 1e-6
	lo, hi := t0.Add(-24*time.Hour), t0.Add(24*time.Hour)

	for _, mode := range []Mode{SignChange, Increasing} {
		res, err := Refine(linear(1), lo, hi, Options{Tolerance: tol, Mode: mode})
		require.NoError(t, err)

		assert.True(t, res.Converged)
		assert.Less(t, math.Abs(res.Time.Sub(t0).Hours()/24.0), tol)
		assert.True(t, res.Time.After(lo) && res.Time.Before(hi), "result must be bracket-interior")
		assert.Less(t, math.Abs(res.Residual), tol)
	}
}

func TestRefine_DecreasingWithSignChange(t *testing.T) {
	lo, hi := t0.Add(-17*time.Hour), t0.Add(7*time.Hour)

	res, err := Refine(linear(-3.5), lo, hi, Options{Tolerance: 1e-7})
	require.NoError(t, err)

	assert.True(t, res.Converged)
	assert.InDelta(t, 0, res.Time.Sub(t0).Seconds(), 1.0)
}

func TestRefine_ReversedBracket(t *testing.T) {
	res, err := Refine(linear(1), t0.Add(12*time.Hour), t0.Add(-12*time.Hour), Options{Tolerance: 1e-6})
	require.NoError(t, err)
	assert.InDelta(t, 0, res.Time.Sub(t0).Seconds(), 1.0)
}

func TestRefine_CapReturnsBestEstimate(t *testing.T) {
	// A tolerance of zero can never be met, so the cap decides.
	res, err := Refine(linear(1), t0.Add(-time.Hour), t0.Add(time.Hour), Options{Tolerance: 0, MaxIterations: 20})
	require.NoError(t, err)

	assert.False(t, res.Converged)
	assert.Equal(t, 20, res.Iterations)
	// 2h / 2^20 is well under a tenth of a second.
	assert.InDelta(t, 0, res.Time.Sub(t0).Seconds(), 0.1)
}

func TestRefine_PropagatesEvaluationError(t *testing.T) {
	boom := errors.New("ephemeris unavailable")
	f := func(time.Time) (float64, error) { return 0, boom }

	_, err := Refine(f, t0, t0.Add(time.Hour), Options{Tolerance: 1e-3})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}
