// Package scan walks a year in daily steps, feeds each (prev, curr) pair of
// samples to the crossing detectors and collects the refined events.
//
// A category scan is split into units (one body or body pair each). Every
// unit owns its own ActiveSet, Priors and RetrogradeTracker, so units can run
// concurrently; their output is merged and re-sorted by time.
package scan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/thurmanmarka/astrocal/internal/angle"
	"github.com/thurmanmarka/astrocal/internal/detect"
	"github.com/thurmanmarka/astrocal/internal/ephemeris"
	"github.com/thurmanmarka/astrocal/internal/event"
	"github.com/thurmanmarka/astrocal/internal/metrics"
	"github.com/thurmanmarka/astrocal/internal/solver"
	"github.com/thurmanmarka/astrocal/internal/timeutil"
)

// Category names one kind of yearly scan.
type Category string

const (
	MoonPhases    Category = "moon-phases"
	Aspects       Category = "aspects"
	Conjunctions  Category = "conjunctions"
	Ingresses     Category = "ingresses"
	Retrogrades   Category = "retrogrades"
	MajorTransits Category = "major-transits"
)

// Categories lists every category Scan accepts.
var Categories = []Category{MoonPhases, Aspects, Conjunctions, Ingresses, Retrogrades, MajorTransits}

// ErrUnknownCategory is returned by Scan for an unrecognized category.
var ErrUnknownCategory = errors.New("unknown scan category")

// Tolerances are the refinement stop thresholds per detector.
type Tolerances struct {
	Phase       float64
	Aspect      float64
	Ingress     float64
	Conjunction float64
	Station     float64
}

// Options configures a Scanner.
type Options struct {
	Workers       int // units run at once; 1 scans every unit in one sequential pass
	MaxIterations int
	Tolerances    Tolerances

	Aspects []detect.Aspect

	Outer      []ephemeris.Body // aspect pairs and outer conjunctions
	Inner      []ephemeris.Body // crossed against Outer for conjunctions
	Ingress    []ephemeris.Body
	Retrograde []ephemeris.Body

	GateOuter  float64
	GateCross  float64
	ShadowDays map[ephemeris.Body]int
}

// DefaultOptions mirrors config.Default.
func DefaultOptions() Options {
	return Options{
		Workers:       1,
		MaxIterations: solver.DefaultMaxIterations,
		Tolerances: Tolerances{
			Phase:       detect.PhaseTolerance,
			Aspect:      detect.AspectTolerance,
			Ingress:     detect.IngressTolerance,
			Conjunction: detect.ConjunctionTolerance,
			Station:     detect.StationTolerance,
		},
		Aspects:    detect.DefaultAspects,
		Outer:      []ephemeris.Body{ephemeris.Jupiter, ephemeris.Saturn, ephemeris.Uranus, ephemeris.Neptune, ephemeris.Pluto},
		Inner:      []ephemeris.Body{ephemeris.Sun, ephemeris.Mercury, ephemeris.Venus, ephemeris.Mars},
		Ingress:    ephemeris.Bodies,
		Retrograde: []ephemeris.Body{ephemeris.Mercury, ephemeris.Venus, ephemeris.Mars, ephemeris.Jupiter, ephemeris.Saturn, ephemeris.Uranus, ephemeris.Neptune, ephemeris.Pluto},
		GateOuter:  detect.GateOuter,
		GateCross:  detect.GateCross,
		ShadowDays: detect.DefaultShadowDays,
	}
}

// Scanner runs yearly scans against a Provider.
type Scanner struct {
	provider ephemeris.Provider
	opts     Options
	logger   *slog.Logger
}

// Option customizes a Scanner.
type Option func(*Scanner)

// WithLogger sets the logger. Without it the Scanner logs to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Scanner) {
		if l != nil {
			s.logger = l
		}
	}
}

// New returns a Scanner over p. Unset numeric options, aspects and shadow
// days take their DefaultOptions values; body lists are used as given.
func New(p ephemeris.Provider, opts Options, options ...Option) *Scanner {
	def := DefaultOptions()
	if opts.Workers < 1 {
		opts.Workers = def.Workers
	}
	if opts.MaxIterations < 1 {
		opts.MaxIterations = def.MaxIterations
	}
	if opts.Tolerances == (Tolerances{}) {
		opts.Tolerances = def.Tolerances
	}
	if opts.Aspects == nil {
		opts.Aspects = def.Aspects
	}
	if opts.GateOuter == 0 {
		opts.GateOuter = def.GateOuter
	}
	if opts.GateCross == 0 {
		opts.GateCross = def.GateCross
	}
	if opts.ShadowDays == nil {
		opts.ShadowDays = def.ShadowDays
	}
	s := &Scanner{provider: p, opts: opts, logger: slog.Default()}
	for _, o := range options {
		o(s)
	}
	return s
}

// Scan runs one category for year and returns its events in time order.
// Retrogrades yields the completed retrograde periods.
func (s *Scanner) Scan(ctx context.Context, c Category, year int) ([]event.Event, error) {
	switch c {
	case MoonPhases:
		return s.MoonPhases(ctx, year)
	case Aspects:
		return s.Aspects(ctx, year)
	case Conjunctions:
		return s.Conjunctions(ctx, year)
	case Ingresses:
		return s.Ingresses(ctx, year)
	case Retrogrades:
		res, err := s.Retrogrades(ctx, year)
		if err != nil {
			return nil, err
		}
		return res.Events(), nil
	case MajorTransits:
		return s.MajorTransits(ctx, year)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, c)
	}
}

// MajorTransits merges aspects, conjunctions and ingresses. Each part is
// instrumented under its own category.
func (s *Scanner) MajorTransits(ctx context.Context, year int) ([]event.Event, error) {
	var all []event.Event
	for _, run := range []func(context.Context, int) ([]event.Event, error){s.Aspects, s.Conjunctions, s.Ingresses} {
		evs, err := run(ctx, year)
		if err != nil {
			return nil, err
		}
		all = append(all, evs...)
	}
	event.Sort(all)
	return all, nil
}

// unit scans one shard and returns its events.
type unit func(ctx context.Context) ([]event.Event, error)

// shard splits keys into units: all keys in one unit when scanning
// sequentially, one key per unit otherwise.
func shard[K any](keys []K, workers int) [][]K {
	if len(keys) == 0 {
		return nil
	}
	if workers <= 1 {
		return [][]K{keys}
	}
	out := make([][]K, len(keys))
	for i, k := range keys {
		out[i] = []K{k}
	}
	return out
}

// run executes units on an errgroup bounded by Workers and merges their
// output. Unit order is preserved before the stable time sort, so the result
// does not depend on scheduling.
func (s *Scanner) run(ctx context.Context, c Category, year int, units []unit) ([]event.Event, error) {
	start := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Workers)

	results := make([][]event.Event, len(units))
	for i, u := range units {
		g.Go(func() error {
			evs, err := u(gctx)
			if err != nil {
				return err
			}
			results[i] = evs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("scan %s %d: %w", c, year, err)
	}

	var all []event.Event
	for _, evs := range results {
		all = append(all, evs...)
	}
	event.Sort(all)

	d := time.Since(start)
	metrics.ObserveScan(string(c), d)
	s.logger.Debug("scan finished", "category", c, "year", year, "units", len(units), "events", len(all), "duration", d)
	return all, nil
}

// walk calls step at every daily sample of year, from Jan 1 00:00 UTC through
// Jan 1 00:00 UTC of the next year inclusive.
func walk(ctx context.Context, c Category, year int, step func(t time.Time) error) error {
	start, end := timeutil.YearBounds(year)

	n := 0
	defer func() { metrics.Samples(string(c), n) }()

	for t := start; !t.After(end); t = t.Add(timeutil.Day) {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := step(t); err != nil {
			return err
		}
		n++
	}
	return nil
}

// solverOptions applies the configured tolerance and cap to a detector's
// default options.
func (s *Scanner) solverOptions(o solver.Options, tol float64) solver.Options {
	if tol > 0 {
		o.Tolerance = tol
	}
	o.MaxIterations = s.opts.MaxIterations
	return o
}

// record counts an emitted event and logs refinements that hit the cap.
func (s *Scanner) record(kind event.Kind, h detect.Hit, attrs ...any) {
	metrics.Event(string(kind), h.Iterations, h.Converged || !h.Refined)
	if h.Refined && !h.Converged {
		s.logger.Debug("refinement stopped at iteration cap",
			append([]any{"kind", kind, "time", timeutil.FormatISO(h.Time), "iterations", h.Iterations}, attrs...)...)
	}
}

// Quantities sampled by the detectors.

func (s *Scanner) longitude(b ephemeris.Body) detect.Quantity {
	return func(t time.Time) (float64, error) {
		p, err := s.provider.Position(t, b)
		if err != nil {
			return 0, err
		}
		return p.Longitude, nil
	}
}

func (s *Scanner) speed(b ephemeris.Body) detect.Quantity {
	return func(t time.Time) (float64, error) {
		p, err := s.provider.Position(t, b)
		if err != nil {
			return 0, err
		}
		return p.Speed, nil
	}
}

// pairLongitudes returns the longitudes of a and b at t.
func (s *Scanner) pairLongitudes(t time.Time, a, b ephemeris.Body) (float64, float64, error) {
	pa, err := s.provider.Position(t, a)
	if err != nil {
		return 0, 0, err
	}
	pb, err := s.provider.Position(t, b)
	if err != nil {
		return 0, 0, err
	}
	return pa.Longitude, pb.Longitude, nil
}

// minSeparation is MinAngle between a and b.
func (s *Scanner) minSeparation(a, b ephemeris.Body) detect.Quantity {
	return func(t time.Time) (float64, error) {
		la, lb, err := s.pairLongitudes(t, a, b)
		if err != nil {
			return 0, err
		}
		return angle.MinAngle(la, lb), nil
	}
}

// signedSeparation is how far b leads a.
func (s *Scanner) signedSeparation(a, b ephemeris.Body) detect.Quantity {
	return func(t time.Time) (float64, error) {
		la, lb, err := s.pairLongitudes(t, a, b)
		if err != nil {
			return 0, err
		}
		return angle.SignedSeparation(la, lb), nil
	}
}

// elongation is Moon minus Sun, in [0, 360).
func (s *Scanner) elongation() detect.Quantity {
	return func(t time.Time) (float64, error) {
		sun, moon, err := s.pairLongitudes(t, ephemeris.Sun, ephemeris.Moon)
		if err != nil {
			return 0, err
		}
		return angle.Normalize(moon - sun), nil
	}
}
