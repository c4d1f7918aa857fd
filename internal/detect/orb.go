package detect

import (
	"math"

	"github.com/thurmanmarka/astrocal/internal/ephemeris"
	"github.com/thurmanmarka/astrocal/internal/solver"
)

// Aspect is a named target separation with its orb.
type Aspect struct {
	Name     string  `yaml:"name" json:"name"`
	Angle    float64 `yaml:"angle" json:"angle"`
	Orb      float64 `yaml:"orb" json:"orb"`
	Symbol   string  `yaml:"symbol" json:"symbol"`
	Harmonic bool    `yaml:"harmonic" json:"harmonic"`
}

// Conjunction is the name of the 0° aspect, tracked by ZeroCrossing rather
// than OrbBand.
const Conjunction = "conjunction"

// DefaultAspects are the five major aspects.
var DefaultAspects = []Aspect{
	{Name: Conjunction, Angle: 0, Orb: 8, Symbol: "☌", Harmonic: true},
	{Name: "sextile", Angle: 60, Orb: 4, Symbol: "⚹", Harmonic: true},
	{Name: "square", Angle: 90, Orb: 6, Symbol: "□", Harmonic: false},
	{Name: "trine", Angle: 120, Orb: 6, Symbol: "△", Harmonic: true},
	{Name: "opposition", Angle: 180, Orb: 8, Symbol: "☍", Harmonic: false},
}

// FindAspect returns the aspect called name.
func FindAspect(aspects []Aspect, name string) (Aspect, bool) {
	for _, a := range aspects {
		if a.Name == name {
			return a, true
		}
	}
	return Aspect{}, false
}

// AspectKey identifies one tracked aspect between an ordered body pair.
type AspectKey struct {
	A, B   ephemeris.Body
	Aspect string
}

// ActiveSet records which aspects are currently inside their orb. It is
// mutated only by OrbBand and reset only at scan start.
type ActiveSet struct {
	m map[AspectKey]struct{}
}

// NewActiveSet returns an empty set.
func NewActiveSet() *ActiveSet {
	return &ActiveSet{m: make(map[AspectKey]struct{})}
}

// Active reports whether k is in orb.
func (s *ActiveSet) Active(k AspectKey) bool {
	_, ok := s.m[k]
	return ok
}

func (s *ActiveSet) enter(k AspectKey) { s.m[k] = struct{}{} }
func (s *ActiveSet) exit(k AspectKey)  { delete(s.m, k) }

// OrbBand detects a body pair's minimum separation entering an aspect's
// orb. Entry is reported once; the key stays active until the separation
// leaves the orb again.
type OrbBand struct {
	Aspects []Aspect
	Options solver.Options
}

// AspectHit is one orb entry.
type AspectHit struct {
	Hit
	Aspect Aspect
	Key    AspectKey
}

// NewOrbBand returns a detector over every non-conjunction aspect in aspects.
func NewOrbBand(aspects []Aspect) OrbBand {
	var band []Aspect
	for _, a := range aspects {
		if a.Angle != 0 {
			band = append(band, a)
		}
	}
	return OrbBand{
		Aspects: band,
		Options: solver.Options{Tolerance: AspectTolerance, Mode: solver.SignChange},
	}
}

// InOrb reports whether separation sep satisfies a.
func InOrb(sep float64, a Aspect) bool {
	return math.Abs(sep-a.Angle) <= a.Orb
}

// Check inspects one step of minimum-separation samples for the pair (a, b).
// prev is nil on the first sample of a scan; an aspect already in orb then
// is reported at curr.Time without refinement.
func (d OrbBand) Check(sep Quantity, a, b ephemeris.Body, prev *Reading, curr Reading, active *ActiveSet) ([]AspectHit, error) {
	var hits []AspectHit

	for _, asp := range d.Aspects {
		key := AspectKey{A: a, B: b, Aspect: asp.Name}

		if !InOrb(curr.Value, asp) {
			active.exit(key)
			continue
		}
		if active.Active(key) {
			continue
		}

		var h Hit
		if prev == nil || InOrb(prev.Value, asp) {
			h = Hit{Time: curr.Time, Value: curr.Value}
		} else {
			target, orb := asp.Angle, asp.Orb
			residual := func(v float64) float64 { return math.Abs(v-target) - orb }

			var err error
			h, err = refine(sep, residual, prev.Time, curr.Time, d.Options)
			if err != nil {
				return nil, err
			}
		}
		h.Exactness = math.Abs(h.Value - asp.Angle)

		active.enter(key)
		hits = append(hits, AspectHit{Hit: h, Aspect: asp, Key: key})
	}
	return hits, nil
}
