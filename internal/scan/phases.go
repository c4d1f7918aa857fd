package scan

import (
	"context"
	"time"

	"github.com/thurmanmarka/astrocal/internal/detect"
	"github.com/thurmanmarka/astrocal/internal/ephemeris"
	"github.com/thurmanmarka/astrocal/internal/event"
)

// MoonPhases finds the four cardinal lunar phases of year.
func (s *Scanner) MoonPhases(ctx context.Context, year int) ([]event.Event, error) {
	det := detect.NewPhaseCrossing()
	det.Options = s.solverOptions(det.Options, s.opts.Tolerances.Phase)

	u := func(ctx context.Context) ([]event.Event, error) {
		var (
			out  []event.Event
			q    = s.elongation()
			prev *detect.Reading
		)

		err := walk(ctx, MoonPhases, year, func(t time.Time) error {
			curr, err := detect.Sample(q, t)
			if err != nil {
				return err
			}
			defer func() { prev = &curr }()

			if prev == nil {
				return nil
			}

			hits, err := det.Check(q, *prev, curr)
			if err != nil {
				return err
			}
			for _, h := range hits {
				sun, moon, err := s.pairLongitudes(h.Time, ephemeris.Sun, ephemeris.Moon)
				if err != nil {
					return err
				}
				s.record(event.KindPhase, h.Hit, "phase", h.Target.Name)
				out = append(out, event.NewPhase(h.Time, h.Target.Name, sun, moon, h.Exactness))
			}
			return nil
		})
		return out, err
	}

	return s.run(ctx, MoonPhases, year, []unit{u})
}
