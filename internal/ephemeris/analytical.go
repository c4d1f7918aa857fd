package ephemeris

import (
	"time"

	"github.com/thurmanmarka/astrocal/internal/angle"
	"github.com/thurmanmarka/astrocal/internal/moon"
	"github.com/thurmanmarka/astrocal/internal/planets"
	"github.com/thurmanmarka/astrocal/internal/sun"
)

// AnalyticalName is reported by the built-in provider.
const AnalyticalName = "astrocal analytical (Meeus sun/moon, Standish elements)"

var (
	// RangeStart and RangeEnd bound the built-in provider, both inclusive. The
	// end is the closing sample of a 2050 scan.
	RangeStart = time.Date(1800, time.January, 1, 0, 0, 0, 0, time.UTC)
	RangeEnd   = time.Date(2051, time.January, 1, 0, 0, 0, 0, time.UTC)
)

// speedStep is the half-width of the central difference used for speeds.
const speedStep = time.Hour

var elementsByBody = map[Body]planets.Elements{
	Mercury: planets.Mercury,
	Venus:   planets.Venus,
	Mars:    planets.Mars,
	Jupiter: planets.Jupiter,
	Saturn:  planets.Saturn,
	Uranus:  planets.Uranus,
	Neptune: planets.Neptune,
	Pluto:   planets.Pluto,
}

// Analytical is a Provider and EclipseSource built from closed-form models.
// It is stateless and safe for concurrent use.
type Analytical struct{}

// NewAnalytical returns the built-in provider.
func NewAnalytical() *Analytical { return &Analytical{} }

var (
	_ Provider      = (*Analytical)(nil)
	_ EclipseSource = (*Analytical)(nil)
)

// Name implements Provider.
func (a *Analytical) Name() string { return AnalyticalName }

// Position implements Provider. Speed comes from a central difference of the
// longitude over ±1 hour.
func (a *Analytical) Position(t time.Time, b Body) (Position, error) {
	if err := checkRange(t, b); err != nil {
		return Position{}, err
	}

	p, err := raw(t, b)
	if err != nil {
		return Position{}, err
	}

	before, _ := raw(t.Add(-speedStep), b)
	after, _ := raw(t.Add(speedStep), b)
	days := (2 * speedStep).Hours() / 24.0
	p.Speed = angle.SignedSeparation(before.Longitude, after.Longitude) / days

	return p, nil
}

func checkRange(t time.Time, b Body) error {
	if t.Before(RangeStart) || t.After(RangeEnd) {
		return &LookupError{Body: b, Time: t, Err: ErrOutOfRange}
	}
	return nil
}

// raw returns a position without speed.
func raw(t time.Time, b Body) (Position, error) {
	switch b {
	case Sun:
		s := sun.EclipticApprox(t)
		return Position{Longitude: s.Longitude, Distance: s.Distance}, nil
	case Moon:
		m := moon.EclipticApprox(t)
		return Position{Longitude: m.Longitude, Latitude: m.Latitude, Distance: m.Distance / moon.KmPerAU}, nil
	case NorthNode:
		return Position{Longitude: moon.MeanNode(t)}, nil
	}

	el, ok := elementsByBody[b]
	if !ok {
		return Position{}, &LookupError{Body: b, Time: t, Err: ErrUnknownBody}
	}
	g := planets.Geocentric(el, t)
	return Position{Longitude: g.Longitude, Latitude: g.Latitude, Distance: g.Distance}, nil
}
