package solver

import (
	"fmt"
	"time"
)

// Direction restricts which sign changes FindFirstCrossing accepts.
type Direction int

const (
	// CrossingUp means the residual goes from negative to non-negative.
	CrossingUp Direction = iota
	// CrossingDown means the residual goes from positive to non-positive.
	CrossingDown
	// CrossingAny accepts either direction.
	CrossingAny
)

// FindFirstCrossing samples f at a fixed step across [start, end] and refines
// the first bracket whose endpoints show a crossing in the given direction.
//
// found is false when no bracket in the window shows a crossing.
func FindFirstCrossing(f ResidualFunc, start, end time.Time, step time.Duration, dir Direction, opts Options) (res Result, found bool, err error) {
	if !start.Before(end) || step <= 0 {
		return Result{}, false, nil
	}

	prevT := start
	prev, err := f(prevT)
	if err != nil {
		return Result{}, false, fmt.Errorf("bracket: evaluate %s: %w", prevT.Format(time.RFC3339), err)
	}

	for t := start.Add(step); ; t = t.Add(step) {
		if t.After(end) {
			t = end
		}

		curr, err := f(t)
		if err != nil {
			return Result{}, false, fmt.Errorf("bracket: evaluate %s: %w", t.Format(time.RFC3339), err)
		}

		if hasCrossing(prev, curr, dir) {
			opts.Mode = SignChange
			res, err := Refine(f, prevT, t, opts)
			if err != nil {
				return Result{}, false, err
			}
			return res, true, nil
		}

		if !t.Before(end) {
			return Result{}, false, nil
		}
		prevT, prev = t, curr
	}
}

func hasCrossing(a1, a2 float64, dir Direction) bool {
	switch dir {
	case CrossingUp:
		return a1 < 0 && a2 >= 0
	case CrossingDown:
		return a1 > 0 && a2 <= 0
	default:
		return (a1 < 0 && a2 >= 0) || (a1 > 0 && a2 <= 0)
	}
}
