// Package detect turns consecutive daily samples of an angular quantity into
// refined event instants.
//
// Every detector inspects one (prev, curr) pair per call and, when its
// trigger fires, refines the one-day bracket with solver.Refine. Cross-step
// state lives in explicit objects (ActiveSet, Priors, RetrogradeTracker)
// owned by the caller; detectors themselves are stateless values.
package detect

import (
	"fmt"
	"time"

	"github.com/thurmanmarka/astrocal/internal/solver"
)

// Default refinement tolerances, in the unit of each residual.
const (
	PhaseTolerance       = 0.01   // degrees
	AspectTolerance      = 0.01   // degrees
	IngressTolerance     = 0.001  // degrees
	ConjunctionTolerance = 0.001  // degrees
	StationTolerance     = 0.0001 // degrees/day
)

// Quantity evaluates a monitored scalar (longitude, separation, elongation,
// speed) at any instant.
type Quantity = solver.ResidualFunc

// Reading is one sample of a Quantity.
type Reading struct {
	Time  time.Time
	Value float64
}

// Sample evaluates q at t.
func Sample(q Quantity, t time.Time) (Reading, error) {
	v, err := q(t)
	if err != nil {
		return Reading{}, err
	}
	return Reading{Time: t, Value: v}, nil
}

// Hit is a refined crossing.
type Hit struct {
	Time       time.Time
	Value      float64 // monitored quantity at Time
	Exactness  float64 // residual distance from the ideal condition at Time
	Refined    bool    // false when reported at a sample time without bisection
	Converged  bool
	Iterations int
}

// refine bisects [lo, hi] on residual(q(t)) and re-samples q at the result.
func refine(q Quantity, residual func(v float64) float64, lo, hi time.Time, opts solver.Options) (Hit, error) {
	f := func(t time.Time) (float64, error) {
		v, err := q(t)
		if err != nil {
			return 0, err
		}
		return residual(v), nil
	}

	res, err := solver.Refine(f, lo, hi, opts)
	if err != nil {
		return Hit{}, err
	}

	v, err := q(res.Time)
	if err != nil {
		return Hit{}, fmt.Errorf("sample refined instant: %w", err)
	}

	return Hit{
		Time:       res.Time,
		Value:      v,
		Refined:    true,
		Converged:  res.Converged,
		Iterations: res.Iterations,
	}, nil
}

// Priors carries the previous sample per key across scan steps.
type Priors[K comparable] struct {
	m map[K]Reading
}

// NewPriors returns an empty cache.
func NewPriors[K comparable]() *Priors[K] {
	return &Priors[K]{m: make(map[K]Reading)}
}

// Swap stores curr for k and returns the reading it replaced.
func (p *Priors[K]) Swap(k K, curr Reading) (prev Reading, ok bool) {
	prev, ok = p.m[k]
	p.m[k] = curr
	return prev, ok
}

