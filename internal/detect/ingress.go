package detect

import (
	"math"

	"github.com/thurmanmarka/astrocal/internal/angle"
	"github.com/thurmanmarka/astrocal/internal/solver"
)

// SignBoundary detects a longitude crossing a 30° sign boundary in either
// direction.
type SignBoundary struct {
	Options solver.Options
}

// IngressHit is one refined sign change.
type IngressHit struct {
	Hit
	Boundary   float64 // multiple of 30
	From, To   int     // sign indices
	Retrograde bool
}

// NewSignBoundary returns the ingress detector.
func NewSignBoundary() SignBoundary {
	return SignBoundary{Options: solver.Options{Tolerance: IngressTolerance, Mode: solver.SignChange}}
}

// boundaryResidual is lon − boundary, with longitudes past 300 taken as
// negative when the boundary is 0 (Pisces → Aries).
func boundaryResidual(boundary float64) func(float64) float64 {
	return func(lon float64) float64 {
		if boundary == 0 && lon > 300 {
			lon -= 360
		}
		return lon - boundary
	}
}

// Check inspects one step of longitude samples.
func (d SignBoundary) Check(lon Quantity, prev, curr Reading) (IngressHit, bool, error) {
	boundary, ok := angle.BoundaryCrossed(prev.Value, curr.Value)
	if !ok {
		return IngressHit{}, false, nil
	}

	h, err := refine(lon, boundaryResidual(boundary), prev.Time, curr.Time, d.Options)
	if err != nil {
		return IngressHit{}, false, err
	}
	h.Exactness = math.Abs(boundaryResidual(boundary)(h.Value))

	from := angle.SignIndex(prev.Value)
	to := angle.SignIndex(curr.Value)

	return IngressHit{
		Hit:        h,
		Boundary:   boundary,
		From:       from,
		To:         to,
		Retrograde: to == (from+11)%12,
	}, true, nil
}
