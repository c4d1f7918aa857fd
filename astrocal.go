// Package astrocal generates yearly astrological event calendars: lunar
// phases, aspects, conjunctions, sign ingresses, retrograde periods and
// eclipses, plus daily position tables and a curated summary.
//
// A Generator wires an ephemeris provider to the year scanners. The built-in
// provider is analytical (low-precision Sun and Moon series, Keplerian
// planets); any ephemeris.Provider can be plugged in with WithProvider.
//
// Every run carries a random run id, stamped into generated files, stored
// rows and published messages.
package astrocal

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/thurmanmarka/astrocal/internal/config"
	"github.com/thurmanmarka/astrocal/internal/curate"
	"github.com/thurmanmarka/astrocal/internal/eclipse"
	"github.com/thurmanmarka/astrocal/internal/ephemeris"
	"github.com/thurmanmarka/astrocal/internal/event"
	"github.com/thurmanmarka/astrocal/internal/output"
	"github.com/thurmanmarka/astrocal/internal/positions"
	"github.com/thurmanmarka/astrocal/internal/scan"
)

// Body identifies a celestial body or point.
type Body = ephemeris.Body

const (
	Sun       = ephemeris.Sun
	Moon      = ephemeris.Moon
	Mercury   = ephemeris.Mercury
	Venus     = ephemeris.Venus
	Mars      = ephemeris.Mars
	Jupiter   = ephemeris.Jupiter
	Saturn    = ephemeris.Saturn
	Uranus    = ephemeris.Uranus
	Neptune   = ephemeris.Neptune
	Pluto     = ephemeris.Pluto
	NorthNode = ephemeris.NorthNode
)

// ParseBody resolves a body name such as "mercury" or "NorthNode".
func ParseBody(name string) (Body, error) { return ephemeris.ParseBody(name) }

// MoonPhase describes the illuminated fraction and qualitative phase
// of the Moon at a given instant.
type MoonPhase = positions.MoonPhase

// MoonPhaseAt computes the Moon's phase at t.
func MoonPhaseAt(t time.Time) MoonPhase { return positions.MoonPhaseAt(t) }

// Output categories.
const (
	CategoryPositions     = "positions"
	CategoryMoonPhases    = string(scan.MoonPhases)
	CategoryAspects       = string(scan.Aspects)
	CategoryConjunctions  = string(scan.Conjunctions)
	CategoryIngresses     = string(scan.Ingresses)
	CategoryMajorTransits = string(scan.MajorTransits)
	CategoryRetrogrades   = string(scan.Retrogrades)
	CategoryEclipses      = "eclipses"
	CategoryCurated       = output.Curated
)

// AllCategories is what `generate --type all` produces, in dependency-free
// order.
var AllCategories = []string{
	CategoryPositions,
	CategoryMoonPhases,
	CategoryMajorTransits,
	CategoryRetrogrades,
	CategoryEclipses,
	CategoryCurated,
}

// Generator produces the calendar of a year.
type Generator struct {
	provider ephemeris.Provider
	eclipses ephemeris.EclipseSource
	scanner  *scan.Scanner
	finder   *eclipse.Finder
	daily    *positions.Generator

	runID       uuid.UUID
	generatedAt time.Time
	log         *slog.Logger
}

// Option customizes a Generator.
type Option func(*Generator)

// WithProvider replaces the built-in analytical provider.
func WithProvider(p ephemeris.Provider) Option {
	return func(g *Generator) { g.provider = p }
}

// WithEclipseSource replaces the built-in eclipse search.
func WithEclipseSource(s ephemeris.EclipseSource) Option {
	return func(g *Generator) { g.eclipses = s }
}

// WithLogger sets the logger used by the Generator and its scanners.
func WithLogger(l *slog.Logger) Option {
	return func(g *Generator) {
		if l != nil {
			g.log = l
		}
	}
}

// WithRunID fixes the run id instead of drawing a random one.
func WithRunID(id uuid.UUID) Option {
	return func(g *Generator) { g.runID = id }
}

// WithGeneratedAt fixes the timestamp stamped into generated documents.
func WithGeneratedAt(t time.Time) Option {
	return func(g *Generator) { g.generatedAt = t }
}

// New builds a Generator from cfg.
func New(cfg *config.Config, opts ...Option) (*Generator, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	scanOpts, err := ScanOptions(cfg)
	if err != nil {
		return nil, err
	}

	a := ephemeris.NewAnalytical()
	g := &Generator{
		provider: a,
		eclipses: a,
		log:      slog.Default(),
	}
	for _, o := range opts {
		o(g)
	}
	if g.runID == uuid.Nil {
		g.runID = uuid.New()
	}
	if g.generatedAt.IsZero() {
		g.generatedAt = time.Now().UTC()
	}

	g.log = g.log.With(slog.String("run", g.runID.String()))
	g.scanner = scan.New(g.provider, scanOpts, scan.WithLogger(g.log))
	g.finder = eclipse.NewFinder(g.eclipses, g.provider, g.log)
	g.daily = positions.NewGenerator(g.provider, nil)
	return g, nil
}

// ScanOptions maps the configuration onto scanner options.
func ScanOptions(cfg *config.Config) (scan.Options, error) {
	sets, err := cfg.BodySets()
	if err != nil {
		return scan.Options{}, err
	}
	shadow, err := cfg.ShadowByBody()
	if err != nil {
		return scan.Options{}, err
	}

	t := cfg.Scan.Tolerances
	return scan.Options{
		Workers:       cfg.Workers,
		MaxIterations: cfg.Scan.MaxIterations,
		Tolerances: scan.Tolerances{
			Phase:       t.Phase,
			Aspect:      t.Aspect,
			Ingress:     t.Ingress,
			Conjunction: t.Conjunction,
			Station:     t.Station,
		},
		Aspects:    cfg.Scan.Aspects,
		Outer:      sets.Outer,
		Inner:      sets.Inner,
		Ingress:    sets.Ingress,
		Retrograde: sets.Retrograde,
		GateOuter:  cfg.Scan.GateOuter,
		GateCross:  cfg.Scan.GateCross,
		ShadowDays: shadow,
	}, nil
}

// RunID identifies this generation run.
func (g *Generator) RunID() uuid.UUID { return g.runID }

// GeneratedAt is the timestamp stamped into documents.
func (g *Generator) GeneratedAt() time.Time { return g.generatedAt }

// Ephemeris names the provider.
func (g *Generator) Ephemeris() string { return g.provider.Name() }

// Events returns the time-ordered events of one event category. Positions
// and curated are documents, not event lists; use Positions and Curated.
func (g *Generator) Events(ctx context.Context, category string, year int) ([]event.Event, error) {
	if category == CategoryEclipses {
		ecl, err := g.Eclipses(ctx, year)
		if err != nil {
			return nil, err
		}
		out := make([]event.Event, len(ecl))
		for i, e := range ecl {
			out[i] = e
		}
		return out, nil
	}
	if !slices.Contains(scan.Categories, scan.Category(category)) {
		return nil, fmt.Errorf("%w: %q", output.ErrUnknownCategory, category)
	}
	return g.scanner.Scan(ctx, scan.Category(category), year)
}

// Retrogrades returns the retrograde periods of year together with every
// station found.
func (g *Generator) Retrogrades(ctx context.Context, year int) (scan.RetrogradeResult, error) {
	return g.scanner.Retrogrades(ctx, year)
}

// Eclipses returns the solar and lunar eclipses of year.
func (g *Generator) Eclipses(ctx context.Context, year int) ([]event.EclipseEvent, error) {
	return g.finder.Year(ctx, year)
}

// Positions returns the twelve daily position tables of year.
func (g *Generator) Positions(ctx context.Context, year int) ([]positions.Month, error) {
	return g.daily.Year(ctx, year, g.generatedAt)
}

// Curated builds the curated summary of year from a fresh scan of the
// source categories.
func (g *Generator) Curated(ctx context.Context, year int) (curate.Document, error) {
	return g.CuratedFrom(ctx, year, nil)
}

// CuratedFrom builds the curated summary of year, reusing the event lists in
// generated (keyed by category, as returned by Events). Source categories
// missing from generated are scanned.
func (g *Generator) CuratedFrom(ctx context.Context, year int, generated map[string][]event.Event) (curate.Document, error) {
	source := func(category string) ([]event.Event, error) {
		if evs, ok := generated[category]; ok {
			return evs, nil
		}
		return g.Events(ctx, category, year)
	}

	var in curate.Input
	var err error
	if in.MoonPhases, err = source(CategoryMoonPhases); err != nil {
		return curate.Document{}, err
	}
	if in.Transits, err = source(CategoryMajorTransits); err != nil {
		return curate.Document{}, err
	}

	ecl, err := source(CategoryEclipses)
	if err != nil {
		return curate.Document{}, err
	}
	for _, e := range ecl {
		if v, ok := e.(event.EclipseEvent); ok {
			in.Eclipses = append(in.Eclipses, v)
		}
	}

	rx, err := source(CategoryRetrogrades)
	if err != nil {
		return curate.Document{}, err
	}
	for _, e := range rx {
		if v, ok := e.(event.RetrogradePeriod); ok {
			in.Retrogrades = append(in.Retrogrades, v)
		}
	}

	return curate.Build(year, in, g.generatedAt), nil
}

// YearFile wraps events into the document written for category.
func (g *Generator) YearFile(category string, year int, events []event.Event) output.YearFile {
	return output.NewYearFile(category, year, g.generatedAt, g.runID.String(), g.Ephemeris(), events)
}
