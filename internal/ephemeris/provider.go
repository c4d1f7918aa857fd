// Package ephemeris defines the position source the event engine samples,
// and ships an analytical implementation of it.
package ephemeris

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrUnknownBody is returned for a body the provider cannot place.
	ErrUnknownBody = errors.New("unknown body")

	// ErrOutOfRange is returned for instants outside the provider's validity range.
	ErrOutOfRange = errors.New("time outside ephemeris range")
)

// Position is a body's geocentric ecliptic position at one instant.
type Position struct {
	Longitude float64 // degrees [0, 360), tropical
	Latitude  float64 // degrees
	Distance  float64 // AU
	Speed     float64 // longitudinal speed, degrees/day (negative when retrograde)
}

// Provider returns body positions at arbitrary instants.
//
// Implementations must be safe for concurrent use; the scanner calls them
// from several goroutines.
type Provider interface {
	// Name identifies the provider in generated metadata.
	Name() string
	Position(t time.Time, b Body) (Position, error)
}

// EclipseFlags describes an eclipse's type.
type EclipseFlags uint

const (
	EclipseTotal EclipseFlags = 1 << iota
	EclipseAnnular
	EclipseHybrid // annular-total
	EclipsePartial
	EclipsePenumbral
	EclipseCentral
)

// Has reports whether all bits of f2 are set in f.
func (f EclipseFlags) Has(f2 EclipseFlags) bool { return f&f2 == f2 }

// GeoPoint is a geographic position in degrees, east longitude positive.
type GeoPoint struct {
	Lat float64
	Lon float64
}

// EclipseResult is one eclipse found by an EclipseSource.
type EclipseResult struct {
	Flags EclipseFlags
	// Times[0] is the instant of maximum eclipse. Further entries, when
	// present, are contact times in chronological order.
	Times []time.Time
	// Where is the point of greatest eclipse for solar eclipses; nil when unknown.
	Where *GeoPoint
}

// Maximum returns the instant of maximum eclipse.
func (r EclipseResult) Maximum() time.Time {
	if len(r.Times) == 0 {
		return time.Time{}
	}
	return r.Times[0]
}

// EclipseSource answers forward eclipse queries. found is false when no
// further eclipse exists within the supported range.
type EclipseSource interface {
	NextSolarEclipse(after time.Time) (res EclipseResult, found bool, err error)
	NextLunarEclipse(after time.Time) (res EclipseResult, found bool, err error)
}

// LookupError reports a failed position lookup.
type LookupError struct {
	Body Body
	Time time.Time
	Err  error
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("ephemeris: lookup %s at %s: %v", e.Body, e.Time.UTC().Format(time.RFC3339), e.Err)
}

func (e *LookupError) Unwrap() error { return e.Err }
