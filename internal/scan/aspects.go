package scan

import (
	"context"
	"time"

	"github.com/thurmanmarka/astrocal/internal/detect"
	"github.com/thurmanmarka/astrocal/internal/ephemeris"
	"github.com/thurmanmarka/astrocal/internal/event"
)

// pair is an ordered body pair; gate is only used by conjunction scans.
type pair struct {
	A, B ephemeris.Body
	gate float64
}

// outerPairs returns every unordered pair of the outer set.
func (s *Scanner) outerPairs(gate float64) []pair {
	var out []pair
	for i, a := range s.opts.Outer {
		for _, b := range s.opts.Outer[i+1:] {
			out = append(out, pair{A: a, B: b, gate: gate})
		}
	}
	return out
}

// crossPairs returns inner × outer, skipping a body paired with itself.
func (s *Scanner) crossPairs(gate float64) []pair {
	var out []pair
	for _, a := range s.opts.Inner {
		for _, b := range s.opts.Outer {
			if a != b {
				out = append(out, pair{A: a, B: b, gate: gate})
			}
		}
	}
	return out
}

// Aspects finds orb entries of the configured non-conjunction aspects
// between every pair of outer planets.
func (s *Scanner) Aspects(ctx context.Context, year int) ([]event.Event, error) {
	band := detect.NewOrbBand(s.opts.Aspects)
	band.Options = s.solverOptions(band.Options, s.opts.Tolerances.Aspect)

	var units []unit
	for _, pairs := range shard(s.outerPairs(0), s.opts.Workers) {
		units = append(units, s.aspectUnit(year, band, pairs))
	}
	return s.run(ctx, Aspects, year, units)
}

func (s *Scanner) aspectUnit(year int, band detect.OrbBand, pairs []pair) unit {
	return func(ctx context.Context) ([]event.Event, error) {
		var (
			out    []event.Event
			priors = detect.NewPriors[pair]()
			active = detect.NewActiveSet()
		)

		err := walk(ctx, Aspects, year, func(t time.Time) error {
			for _, p := range pairs {
				q := s.minSeparation(p.A, p.B)

				curr, err := detect.Sample(q, t)
				if err != nil {
					return err
				}
				var prevp *detect.Reading
				if prev, ok := priors.Swap(p, curr); ok {
					prevp = &prev
				}

				hits, err := band.Check(q, p.A, p.B, prevp, curr, active)
				if err != nil {
					return err
				}
				for _, h := range hits {
					la, lb, err := s.pairLongitudes(h.Time, p.A, p.B)
					if err != nil {
						return err
					}
					s.record(event.KindAspect, h.Hit, "aspect", h.Aspect.Name, "planet1", p.A, "planet2", p.B)
					out = append(out, event.NewAspect(h.Time, h.Aspect.Name, h.Aspect.Symbol, p.A, p.B, la, lb, h.Exactness, h.Aspect.Orb))
				}
			}
			return nil
		})
		return out, err
	}
}

// Conjunctions finds exact passes: outer pairs gated by GateOuter and inner
// bodies against outer planets gated by GateCross.
func (s *Scanner) Conjunctions(ctx context.Context, year int) ([]event.Event, error) {
	symbol := "☌"
	if a, ok := detect.FindAspect(s.opts.Aspects, detect.Conjunction); ok && a.Symbol != "" {
		symbol = a.Symbol
	}

	pairs := append(s.outerPairs(s.opts.GateOuter), s.crossPairs(s.opts.GateCross)...)

	var units []unit
	for _, shardPairs := range shard(pairs, s.opts.Workers) {
		units = append(units, s.conjunctionUnit(year, symbol, shardPairs))
	}
	return s.run(ctx, Conjunctions, year, units)
}

func (s *Scanner) conjunctionUnit(year int, symbol string, pairs []pair) unit {
	return func(ctx context.Context) ([]event.Event, error) {
		var (
			out    []event.Event
			priors = detect.NewPriors[pair]()
		)

		err := walk(ctx, Conjunctions, year, func(t time.Time) error {
			for _, p := range pairs {
				det := detect.NewZeroCrossing(p.gate)
				det.Options = s.solverOptions(det.Options, s.opts.Tolerances.Conjunction)
				q := s.signedSeparation(p.A, p.B)

				curr, err := detect.Sample(q, t)
				if err != nil {
					return err
				}
				prev, ok := priors.Swap(p, curr)
				if !ok {
					continue
				}

				h, hit, err := det.Check(q, prev, curr)
				if err != nil {
					return err
				}
				if !hit {
					continue
				}
				la, lb, err := s.pairLongitudes(h.Time, p.A, p.B)
				if err != nil {
					return err
				}
				s.record(event.KindConjunction, h, "planet1", p.A, "planet2", p.B)
				out = append(out, event.NewConjunction(h.Time, symbol, p.A, p.B, la, lb, h.Exactness, p.gate))
			}
			return nil
		})
		return out, err
	}
}
