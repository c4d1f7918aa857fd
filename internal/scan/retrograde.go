package scan

import (
	"context"
	"time"

	"github.com/thurmanmarka/astrocal/internal/detect"
	"github.com/thurmanmarka/astrocal/internal/ephemeris"
	"github.com/thurmanmarka/astrocal/internal/event"
)

// RetrogradeResult holds a year's retrograde scan.
type RetrogradeResult struct {
	Periods  []event.RetrogradePeriod
	Stations []event.StationEvent
}

// Events returns the periods as a sorted event list.
func (r RetrogradeResult) Events() []event.Event {
	out := make([]event.Event, len(r.Periods))
	for i, p := range r.Periods {
		out[i] = p
	}
	event.Sort(out)
	return out
}

// Retrogrades finds the stations of the configured bodies and pairs them into
// retrograde periods. A period still open at year end is dropped, as is a
// station-direct whose retrograde began before the year.
func (s *Scanner) Retrogrades(ctx context.Context, year int) (RetrogradeResult, error) {
	det := detect.NewStationZero()
	det.Options = s.solverOptions(det.Options, s.opts.Tolerances.Station)

	var units []unit
	for _, bodies := range shard(s.opts.Retrograde, s.opts.Workers) {
		units = append(units, s.retrogradeUnit(year, det, bodies))
	}

	evs, err := s.run(ctx, Retrogrades, year, units)
	if err != nil {
		return RetrogradeResult{}, err
	}

	var res RetrogradeResult
	for _, e := range evs {
		switch v := e.(type) {
		case event.RetrogradePeriod:
			res.Periods = append(res.Periods, v)
		case event.StationEvent:
			res.Stations = append(res.Stations, v)
		}
	}
	return res, nil
}

func (s *Scanner) retrogradeUnit(year int, det detect.StationZero, bodies []ephemeris.Body) unit {
	return func(ctx context.Context) ([]event.Event, error) {
		var (
			out     []event.Event
			priors  = detect.NewPriors[ephemeris.Body]()
			tracker = detect.NewRetrogradeTracker()
			openRx  = make(map[ephemeris.Body]event.StationEvent)
		)

		err := walk(ctx, Retrogrades, year, func(t time.Time) error {
			for _, b := range bodies {
				q := s.speed(b)

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

				pos, err := s.provider.Position(h.Time, b)
				if err != nil {
					return err
				}
				s.record(event.KindStation, h.Hit, "planet", b, "station", h.Kind)
				st := event.NewStation(h.Time, b, h.Kind.String(), pos.Longitude, h.Value)
				out = append(out, st)
				if h.Kind == detect.StationRetrograde {
					openRx[b] = st
				}

				period, done := tracker.Observe(b, h)
				if !done {
					if h.Kind == detect.StationDirect {
						s.logger.Debug("station direct without a retrograde in range", "planet", b, "time", st.Time)
					}
					continue
				}
				start, end, hasShadow := detect.Shadow(period, s.opts.ShadowDays[b])
				out = append(out, event.NewRetrogradePeriod(openRx[b], st, start, end, hasShadow))
				s.record(event.KindRetrograde, detect.Hit{})
			}
			return nil
		})
		if err != nil {
			return nil, err
		}

		for _, b := range tracker.Pending() {
			s.logger.Debug("retrograde period open at year end, dropped", "planet", b, "year", year)
		}
		return out, nil
	}
}
