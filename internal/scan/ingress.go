package scan

import (
	"context"
	"time"

	"github.com/thurmanmarka/astrocal/internal/detect"
	"github.com/thurmanmarka/astrocal/internal/ephemeris"
	"github.com/thurmanmarka/astrocal/internal/event"
)

// Ingresses finds every sign change of the configured ingress bodies,
// retrograde re-entries included.
func (s *Scanner) Ingresses(ctx context.Context, year int) ([]event.Event, error) {
	det := detect.NewSignBoundary()
	det.Options = s.solverOptions(det.Options, s.opts.Tolerances.Ingress)

	var units []unit
	for _, bodies := range shard(s.opts.Ingress, s.opts.Workers) {
		units = append(units, s.ingressUnit(year, det, bodies))
	}
	return s.run(ctx, Ingresses, year, units)
}

func (s *Scanner) ingressUnit(year int, det detect.SignBoundary, bodies []ephemeris.Body) unit {
	return func(ctx context.Context) ([]event.Event, error) {
		var (
			out    []event.Event
			priors = detect.NewPriors[ephemeris.Body]()
		)

		err := walk(ctx, Ingresses, year, func(t time.Time) error {
			for _, b := range bodies {
				q := s.longitude(b)

				curr, err := detect.Sample(q, t)
				if err != nil {
					return err
				}
				prev, ok := priors.Swap(b, curr)
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
				s.record(event.KindIngress, h.Hit, "planet", b)
				out = append(out, event.NewIngress(h.Time, b, h.From, h.To, h.Retrograde, h.Value))
			}
			return nil
		})
		return out, err
	}
}
