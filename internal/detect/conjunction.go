package detect

import (
	"math"

	"github.com/thurmanmarka/astrocal/internal/solver"
)

// Proximity gates for conjunction passes, in degrees. A sign flip of the
// signed separation only counts when both samples are inside the gate;
// this rejects the flip through ±180 at opposition.
const (
	GateOuter = 15.0 // outer planet pairs
	GateCross = 20.0 // inner body against outer planet
)

// ZeroCrossing detects the exact pass of two bodies: the signed separation
// changing sign. Unlike OrbBand it fires once per physical pass no matter
// how long the bodies stay close.
type ZeroCrossing struct {
	Gate    float64
	Options solver.Options
}

// NewZeroCrossing returns a detector with the given proximity gate.
func NewZeroCrossing(gate float64) ZeroCrossing {
	return ZeroCrossing{
		Gate:    gate,
		Options: solver.Options{Tolerance: ConjunctionTolerance, Mode: solver.SignChange},
	}
}

// Flipped reports whether the signed separation changed sign between
// samples while staying inside gate.
func Flipped(prev, curr, gate float64) bool {
	if math.Abs(prev) >= gate || math.Abs(curr) >= gate {
		return false
	}
	return (prev > 0 && curr <= 0) || (prev < 0 && curr >= 0)
}

// Check inspects one step of signed-separation samples.
func (d ZeroCrossing) Check(sep Quantity, prev, curr Reading) (Hit, bool, error) {
	if !Flipped(prev.Value, curr.Value, d.Gate) {
		return Hit{}, false, nil
	}

	h, err := refine(sep, func(v float64) float64 { return v }, prev.Time, curr.Time, d.Options)
	if err != nil {
		return Hit{}, false, err
	}
	h.Exactness = math.Abs(h.Value)
	return h, true, nil
}
