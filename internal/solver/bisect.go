package solver

import (
	"fmt"
	"math"
	"time"
)

// DefaultMaxIterations bounds every refinement.
const DefaultMaxIterations = 50

// ResidualFunc returns the monitored residual at time t. Its zero (or sign
// change) marks the event being refined.
type ResidualFunc func(t time.Time) (float64, error)

// Mode selects how the refiner decides which half keeps the crossing.
type Mode int

const (
	// SignChange keeps the half whose endpoints have residuals of
	// opposite sign. Works for any direction of motion.
	SignChange Mode = iota
	// Increasing assumes the residual grows with time: a positive midpoint
	// residual moves the upper bound, anything else the lower bound.
	Increasing
)

// Options configures one refinement.
type Options struct {
	Tolerance     float64 // stop once |residual(mid)| < Tolerance
	MaxIterations int     // 0 means DefaultMaxIterations
	Mode          Mode
}

// Result holds the output of a refinement.
type Result struct {
	Time       time.Time // refined instant (the last midpoint)
	Residual   float64   // residual at Time
	Iterations int       // midpoints evaluated
	Converged  bool      // false when the iteration cap was hit first
}

// Refine bisects [lo, hi], which must bracket exactly one crossing of f,
// until the midpoint residual is within opts.Tolerance or the iteration cap
// is reached. Hitting the cap is not an error: the final midpoint is
// returned as the best estimate with Converged=false.
//
// The only errors come from f itself.
func Refine(f ResidualFunc, lo, hi time.Time, opts Options) (Result, error) {
	if hi.Before(lo) {
		lo, hi = hi, lo
	}
	maxIter := opts.MaxIterations
	if maxIter <= 0 {
		maxIter = DefaultMaxIterations
	}

	var resLo float64
	if opts.Mode == SignChange {
		r, err := f(lo)
		if err != nil {
			return Result{}, fmt.Errorf("refine: evaluate lower bound: %w", err)
		}
		resLo = r
	}

	var (
		mid  time.Time
		resM float64
	)

	for i := 1; i <= maxIter; i++ {
		mid = midpoint(lo, hi)

		r, err := f(mid)
		if err != nil {
			return Result{}, fmt.Errorf("refine: evaluate %s: %w", mid.Format(time.RFC3339), err)
		}
		resM = r

		if math.Abs(resM) < opts.Tolerance {
			return Result{Time: mid, Residual: resM, Iterations: i, Converged: true}, nil
		}

		switch opts.Mode {
		case Increasing:
			if resM > 0 {
				hi = mid
			} else {
				lo = mid
			}
		default:
			if sameSign(resLo, resM) {
				lo, resLo = mid, resM
			} else {
				hi = mid
			}
		}
	}

	return Result{Time: mid, Residual: resM, Iterations: maxIter, Converged: false}, nil
}

func midpoint(a, b time.Time) time.Time {
	return a.Add(b.Sub(a) / 2)
}

func sameSign(a, b float64) bool {
	return (a < 0) == (b < 0)
}
