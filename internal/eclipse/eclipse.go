// Package eclipse lists a year's solar and lunar eclipses from an
// ephemeris.EclipseSource and labels them with type, Saros series and
// descriptive text.
package eclipse

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"time"

	"github.com/thurmanmarka/astrocal/internal/ephemeris"
	"github.com/thurmanmarka/astrocal/internal/event"
	"github.com/thurmanmarka/astrocal/internal/timeutil"
)

// Categories of EclipseEvent.
const (
	Solar = "solar"
	Lunar = "lunar"
)

// Skip is how far the cursor moves past an eclipse maximum before the next
// query. Consecutive eclipses of one kind are at least a lunation apart.
const Skip = 25 * timeutil.Day

// Saros reference eclipses: 2011-01-04 solar (series 151) and 2010-12-21
// lunar (series 125).
const (
	sarosPeriod   = 6585.32 // days
	solarRefJD    = 2455565.5
	solarRefSaros = 151
	lunarRefJD    = 2455551.5
	lunarRefSaros = 125
)

// Finder walks a year forward, eclipse by eclipse.
type Finder struct {
	source   ephemeris.EclipseSource
	provider ephemeris.Provider
	logger   *slog.Logger
}

// NewFinder returns a Finder. Sun and Moon longitudes come from provider.
func NewFinder(source ephemeris.EclipseSource, provider ephemeris.Provider, logger *slog.Logger) *Finder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Finder{source: source, provider: provider, logger: logger}
}

type nextFunc func(after time.Time) (ephemeris.EclipseResult, bool, error)

// Year returns every eclipse whose maximum falls in year, in time order.
func (f *Finder) Year(ctx context.Context, year int) ([]event.EclipseEvent, error) {
	solar, err := f.scan(ctx, year, Solar, f.source.NextSolarEclipse)
	if err != nil {
		return nil, err
	}
	lunar, err := f.scan(ctx, year, Lunar, f.source.NextLunarEclipse)
	if err != nil {
		return nil, err
	}

	all := append(solar, lunar...)
	slices.SortStableFunc(all, func(a, b event.EclipseEvent) int {
		return a.Time.Compare(b.Time)
	})
	return all, nil
}

func (f *Finder) scan(ctx context.Context, year int, category string, next nextFunc) ([]event.EclipseEvent, error) {
	start, end := timeutil.YearBounds(year)

	var out []event.EclipseEvent
	for cursor := start; cursor.Before(end); {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		res, found, err := next(cursor)
		if err != nil {
			return nil, fmt.Errorf("next %s eclipse after %s: %w", category, timeutil.FormatISO(cursor), err)
		}
		if !found || len(res.Times) == 0 {
			f.logger.Debug("no further eclipse in ephemeris range", "category", category, "after", timeutil.FormatISO(cursor))
			break
		}

		peak := res.Maximum()
		if !peak.Before(end) {
			break
		}
		next := peak.Add(Skip)
		if !next.After(cursor) {
			return nil, fmt.Errorf("next %s eclipse after %s: source returned %s, cursor would not advance",
				category, timeutil.FormatISO(cursor), timeutil.FormatISO(peak))
		}
		if !peak.Before(start) {
			e, err := f.build(category, res)
			if err != nil {
				return nil, err
			}
			out = append(out, e)
		}
		cursor = next
	}
	return out, nil
}

func (f *Finder) build(category string, res ephemeris.EclipseResult) (event.EclipseEvent, error) {
	t := res.Maximum()

	sun, err := f.provider.Position(t, ephemeris.Sun)
	if err != nil {
		return event.EclipseEvent{}, err
	}
	moon, err := f.provider.Position(t, ephemeris.Moon)
	if err != nil {
		return event.EclipseEvent{}, err
	}

	place := event.Place(moon.Longitude)
	solar := category == Solar
	kind := TypeName(res.Flags, solar)

	visibility := "Visible from anywhere the Moon is above the horizon"
	if solar {
		visibility = SolarVisibility(res.Where)
	}

	return event.EclipseEvent{
		Time:          t.UTC(),
		Category:      category,
		EclipseType:   kind,
		SunLongitude:  event.Round(sun.Longitude, event.LongitudePlaces),
		MoonLongitude: place.Longitude,
		Sign:          place.Sign,
		Degree:        place.Degree,
		Saros:         SarosSeries(timeutil.JulianDay(t), solar),
		Description:   Description(kind, solar, place.Sign),
		Visibility:    visibility,
	}, nil
}

// TypeName maps eclipse flags to "total", "annular", "hybrid", "partial" or
// (lunar only) "penumbral".
func TypeName(flags ephemeris.EclipseFlags, solar bool) string {
	if solar {
		switch {
		case flags.Has(ephemeris.EclipseHybrid):
			return "hybrid"
		case flags.Has(ephemeris.EclipseTotal):
			return "total"
		case flags.Has(ephemeris.EclipseAnnular):
			return "annular"
		default:
			return "partial"
		}
	}

	switch {
	case flags.Has(ephemeris.EclipseTotal):
		return "total"
	case flags.Has(ephemeris.EclipsePenumbral):
		return "penumbral"
	default:
		return "partial"
	}
}

// SarosSeries approximates the Saros series from the nearest whole number of
// Saros periods to a reference eclipse.
func SarosSeries(jd float64, solar bool) int {
	refJD, ref := lunarRefJD, lunarRefSaros
	if solar {
		refJD, ref = solarRefJD, solarRefSaros
	}
	return ref + int(math.RoundToEven((jd-refJD)/sarosPeriod))
}

// Description is the one-line summary of an eclipse.
func Description(kind string, solar bool, sign string) string {
	if solar {
		switch kind {
		case "total":
			return fmt.Sprintf("Total Solar Eclipse in %s - Moon completely blocks the Sun", sign)
		case "annular":
			return fmt.Sprintf("Annular Solar Eclipse in %s - 'Ring of Fire' effect visible", sign)
		case "hybrid":
			return fmt.Sprintf("Hybrid Solar Eclipse in %s - Appears both total and annular", sign)
		default:
			return fmt.Sprintf("Partial Solar Eclipse in %s - Moon partially covers the Sun", sign)
		}
	}

	switch kind {
	case "total":
		return fmt.Sprintf("Total Lunar Eclipse in %s - 'Blood Moon' visible", sign)
	case "penumbral":
		return fmt.Sprintf("Penumbral Lunar Eclipse in %s - Subtle darkening of Moon", sign)
	default:
		return fmt.Sprintf("Partial Lunar Eclipse in %s - Earth's shadow partially covers Moon", sign)
	}
}

// SolarVisibility names the point of greatest eclipse.
func SolarVisibility(where *ephemeris.GeoPoint) string {
	if where == nil {
		return "Global visibility varies by location"
	}
	ns, ew := "N", "E"
	if where.Lat < 0 {
		ns = "S"
	}
	if where.Lon < 0 {
		ew = "W"
	}
	return fmt.Sprintf("Maximum visibility near %.1f°%s, %.1f°%s", math.Abs(where.Lat), ns, math.Abs(where.Lon), ew)
}
