// Package positions builds the daily position tables: every body at 00:00 UTC
// of each day, with its sign placement and the Moon's phase name.
package positions

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/thurmanmarka/astrocal/internal/angle"
	"github.com/thurmanmarka/astrocal/internal/ephemeris"
	"github.com/thurmanmarka/astrocal/internal/event"
	"github.com/thurmanmarka/astrocal/internal/timeutil"
)

const (
	// CoordinateSystem is reported in every month document.
	CoordinateSystem = "tropical zodiac, geocentric"
	// Precision describes the rounding of reported values.
	Precision = "6 decimal places (~0.0001 degree)"
)

// BodyPosition is one body on one day.
type BodyPosition struct {
	Longitude    float64 `json:"longitude"`
	Latitude     float64 `json:"latitude"`
	DistanceAU   float64 `json:"distance_au"`
	Speed        float64 `json:"speed"`
	Sign         string  `json:"sign"`
	DegreeInSign float64 `json:"degree_in_sign"`
	Retrograde   bool    `json:"retrograde"`
}

// BodyEntry pairs a body with its position.
type BodyEntry struct {
	Body     ephemeris.Body
	Position BodyPosition
}

// Bodies serializes as a JSON object keyed by body name, in slice order.
type Bodies []BodyEntry

func (bs Bodies) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range bs {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(e.Body.String())
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(e.Position)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Get returns the position of b.
func (bs Bodies) Get(b ephemeris.Body) (BodyPosition, bool) {
	for _, e := range bs {
		if e.Body == b {
			return e.Position, true
		}
	}
	return BodyPosition{}, false
}

// Day is one row of a month table.
type Day struct {
	Date      string  `json:"date"`
	Time      string  `json:"time"`
	JulianDay float64 `json:"julian_day"`
	MoonPhase string  `json:"moon_phase"`
	Planets   Bodies  `json:"planets"`
}

// MonthMetadata heads a month document.
type MonthMetadata struct {
	Month            string `json:"month"`
	GeneratedAt      string `json:"generated_at"`
	Ephemeris        string `json:"ephemeris_version"`
	CoordinateSystem string `json:"coordinate_system"`
	Precision        string `json:"precision"`
}

// Month is the daily table of one calendar month.
type Month struct {
	Metadata  MonthMetadata `json:"metadata"`
	Positions []Day         `json:"positions"`
}

// Generator samples a Provider into month tables.
type Generator struct {
	provider ephemeris.Provider
	bodies   []ephemeris.Body
}

// NewGenerator returns a Generator over bodies; nil means ephemeris.Planets.
func NewGenerator(p ephemeris.Provider, bodies []ephemeris.Body) *Generator {
	if bodies == nil {
		bodies = ephemeris.Planets
	}
	return &Generator{provider: p, bodies: bodies}
}

// At returns every body's position at t.
func (g *Generator) At(t time.Time) (Bodies, error) {
	out := make(Bodies, 0, len(g.bodies))
	for _, b := range g.bodies {
		p, err := g.provider.Position(t, b)
		if err != nil {
			return nil, err
		}
		sign, deg := angle.Decompose(p.Longitude)
		out = append(out, BodyEntry{Body: b, Position: BodyPosition{
			Longitude:    event.Round(p.Longitude, event.LongitudePlaces),
			Latitude:     event.Round(p.Latitude, event.LongitudePlaces),
			DistanceAU:   event.Round(p.Distance, event.LongitudePlaces),
			Speed:        event.Round(p.Speed, event.LongitudePlaces),
			Sign:         sign,
			DegreeInSign: event.Round(deg, event.LongitudePlaces),
			Retrograde:   p.Speed < 0,
		}})
	}
	return out, nil
}

// Month builds the table for one month. generatedAt is stamped into the
// metadata so repeated runs can be made byte-identical.
func (g *Generator) Month(ctx context.Context, year int, month time.Month, generatedAt time.Time) (Month, error) {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	next := first.AddDate(0, 1, 0)

	var days []Day
	for t := first; t.Before(next); t = t.Add(timeutil.Day) {
		if err := ctx.Err(); err != nil {
			return Month{}, err
		}

		bodies, err := g.At(t)
		if err != nil {
			return Month{}, fmt.Errorf("positions %s: %w", t.Format(time.DateOnly), err)
		}

		name, err := g.phaseName(t)
		if err != nil {
			return Month{}, fmt.Errorf("positions %s: %w", t.Format(time.DateOnly), err)
		}

		days = append(days, Day{
			Date:      t.Format(time.DateOnly),
			Time:      "00:00:00Z",
			JulianDay: event.Round(timeutil.JulianDay(t), event.JulianDayPlaces),
			MoonPhase: name,
			Planets:   bodies,
		})
	}

	return Month{
		Metadata: MonthMetadata{
			Month:            first.Format("2006-01"),
			GeneratedAt:      timeutil.FormatISO(generatedAt),
			Ephemeris:        g.provider.Name(),
			CoordinateSystem: CoordinateSystem,
			Precision:        Precision,
		},
		Positions: days,
	}, nil
}

// Year builds the twelve month tables of year.
func (g *Generator) Year(ctx context.Context, year int, generatedAt time.Time) ([]Month, error) {
	out := make([]Month, 0, 12)
	for m := time.January; m <= time.December; m++ {
		mo, err := g.Month(ctx, year, m, generatedAt)
		if err != nil {
			return nil, err
		}
		out = append(out, mo)
	}
	return out, nil
}

func (g *Generator) phaseName(t time.Time) (string, error) {
	s, err := g.provider.Position(t, ephemeris.Sun)
	if err != nil {
		return "", err
	}
	m, err := g.provider.Position(t, ephemeris.Moon)
	if err != nil {
		return "", err
	}
	return PhaseFromLongitudes(t, s.Longitude, m.Longitude).Name, nil
}
