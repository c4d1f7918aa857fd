package astrocal

import (
	"context"
	"time"

	"github.com/thurmanmarka/astrocal/internal/event"
	"github.com/thurmanmarka/astrocal/internal/positions"
	"github.com/thurmanmarka/astrocal/internal/timeutil"
)

// Sky is a snapshot of every body at one instant together with the cardinal
// lunar phases on either side of it.
type Sky struct {
	Time      time.Time
	Positions positions.Bodies
	Phase     MoonPhase

	// Previous is the last cardinal phase at or before Time, Next the first
	// one after it. Either is nil when the scanned years hold none.
	Previous *event.PhaseEvent
	Next     *event.PhaseEvent
}

// Sky returns the snapshot at t.
func (g *Generator) Sky(ctx context.Context, t time.Time) (Sky, error) {
	t = t.UTC()

	bodies, err := g.daily.At(t)
	if err != nil {
		return Sky{}, err
	}
	s := Sky{Time: t, Positions: bodies, Phase: MoonPhaseAt(t)}

	// Phases a few days into a neighbouring year need that year's scan.
	years := []int{t.Year()}
	if start, end := timeutil.YearBounds(t.Year()); t.Sub(start) < 10*timeutil.Day {
		years = append([]int{t.Year() - 1}, years...)
	} else if end.Sub(t) < 10*timeutil.Day {
		years = append(years, t.Year()+1)
	}

	for _, y := range years {
		evs, err := g.scanner.MoonPhases(ctx, y)
		if err != nil {
			return Sky{}, err
		}
		for _, e := range evs {
			p, ok := e.(event.PhaseEvent)
			if !ok {
				continue
			}
			if !p.Time.After(t) {
				s.Previous = &p
			} else if s.Next == nil {
				s.Next = &p
			}
		}
	}
	return s, nil
}

// DaysSince is the number of whole days since the previous phase.
func (s Sky) DaysSince() int {
	if s.Previous == nil {
		return 0
	}
	return int(s.Time.Sub(s.Previous.Time) / timeutil.Day)
}

// DaysUntil is the number of whole days until the next phase.
func (s Sky) DaysUntil() int {
	if s.Next == nil {
		return 0
	}
	return int(s.Next.Time.Sub(s.Time) / timeutil.Day)
}

// Progress is the elapsed fraction of the interval from the previous phase
// to the next, in [0, 1].
func (s Sky) Progress() float64 {
	if s.Previous == nil || s.Next == nil {
		return 0
	}
	total := s.Next.Time.Sub(s.Previous.Time)
	if total <= 0 {
		return 0
	}
	return float64(s.Time.Sub(s.Previous.Time)) / float64(total)
}

// Retrograde lists the bodies moving backwards at the snapshot.
func (s Sky) Retrograde() []positions.BodyEntry {
	var out []positions.BodyEntry
	for _, e := range s.Positions {
		if e.Position.Retrograde {
			out = append(out, e)
		}
	}
	return out
}
