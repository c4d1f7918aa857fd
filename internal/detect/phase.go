package detect

import (
	"math"

	"github.com/thurmanmarka/astrocal/internal/solver"
)

// PhaseTarget is a named Moon–Sun elongation.
type PhaseTarget struct {
	Name  string
	Angle float64
}

// MoonPhases are the four cardinal lunar phases.
var MoonPhases = []PhaseTarget{
	{Name: "new", Angle: 0},
	{Name: "first_quarter", Angle: 90},
	{Name: "full", Angle: 180},
	{Name: "last_quarter", Angle: 270},
}

// PhaseCrossing detects the elongation (Moon minus Sun, mod 360) passing a
// target angle. The elongation only ever increases.
type PhaseCrossing struct {
	Targets []PhaseTarget
	Options solver.Options
}

// PhaseHit is one refined phase instant.
type PhaseHit struct {
	Hit
	Target PhaseTarget
}

// NewPhaseCrossing returns a detector for the cardinal phases.
func NewPhaseCrossing() PhaseCrossing {
	return PhaseCrossing{
		Targets: MoonPhases,
		Options: solver.Options{Tolerance: PhaseTolerance, Mode: solver.Increasing},
	}
}

// PhaseCrossed reports whether the elongation passed target between two
// samples. New moon wraps through 360.
func PhaseCrossed(prev, curr, target float64) bool {
	if target == 0 {
		return prev > 270 && curr < 90
	}
	return prev < target && target <= curr
}

// phaseResidual folds angles past 180 to negative values for the new-moon
// target so the residual is continuous through the wrap.
func phaseResidual(target float64) func(float64) float64 {
	return func(a float64) float64 {
		if target == 0 && a > 180 {
			a -= 360
		}
		return a - target
	}
}

func phaseExactness(a, target float64) float64 {
	d := math.Abs(a - target)
	if target == 0 && d > 180 {
		d = 360 - d
	}
	return d
}

// Check inspects one step of elongation samples.
func (d PhaseCrossing) Check(elongation Quantity, prev, curr Reading) ([]PhaseHit, error) {
	var hits []PhaseHit

	for _, target := range d.Targets {
		if !PhaseCrossed(prev.Value, curr.Value, target.Angle) {
			continue
		}

		h, err := refine(elongation, phaseResidual(target.Angle), prev.Time, curr.Time, d.Options)
		if err != nil {
			return nil, err
		}
		h.Exactness = phaseExactness(h.Value, target.Angle)

		hits = append(hits, PhaseHit{Hit: h, Target: target})
	}
	return hits, nil
}
