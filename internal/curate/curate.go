// Package curate selects the subset of a year's events meant for general
// audiences: cardinal moon phases, eclipses, retrogrades and a short list of
// major events annotated with how rare they are.
package curate

import (
	"fmt"
	"slices"
	"time"

	"github.com/thurmanmarka/astrocal/internal/ephemeris"
	"github.com/thurmanmarka/astrocal/internal/event"
	"github.com/thurmanmarka/astrocal/internal/timeutil"
)

// Major event types.
const (
	TypeIngress     = "planetary_ingress"
	TypeNodeShift   = "node_axis_shift"
	TypeConjunction = "conjunction"
)

// Description heads every curated document.
const Description = "Curated astrological events for general audiences"

// Phase is a cardinal lunar phase.
type Phase struct {
	Date   string  `json:"date"`
	Phase  string  `json:"phase"`
	Sign   string  `json:"sign"`
	Degree float64 `json:"degree"`
}

// Eclipse is a solar or lunar eclipse.
type Eclipse struct {
	Date        string  `json:"date"`
	Type        string  `json:"type"`
	EclipseType string  `json:"eclipse_type"`
	Sign        string  `json:"sign"`
	Degree      float64 `json:"degree"`
	Description string  `json:"description"`
	Visibility  string  `json:"visibility"`
}

// Retrograde is one retrograde period by calendar date.
type Retrograde struct {
	Planet            string  `json:"planet"`
	StationRetrograde string  `json:"station_retrograde"`
	StationDirect     string  `json:"station_direct"`
	SignAtStart       string  `json:"sign_at_start"`
	DegreeAtStart     float64 `json:"degree_at_start"`
	ShadowStart       string  `json:"shadow_start,omitempty"`
	ShadowEnd         string  `json:"shadow_end,omitempty"`
}

// MajorEvent is a selected ingress or rare conjunction.
type MajorEvent struct {
	Time        time.Time `json:"-"`
	Date        string    `json:"date"`
	Type        string    `json:"type"`
	Planets     []string  `json:"planets"`
	FromSign    *string   `json:"from_sign"`
	ToSign      *string   `json:"to_sign"`
	Sign        string    `json:"sign"`
	Degree      float64   `json:"degree"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Frequency   string    `json:"frequency"`
	Importance  string    `json:"importance"`
	Themes      []string  `json:"themes"`
}

// Sources names the category files a curated document summarizes.
type Sources struct {
	MoonPhases    string `json:"moon_phases"`
	Eclipses      string `json:"eclipses"`
	Retrogrades   string `json:"retrogrades"`
	MajorTransits string `json:"major_transits"`
}

// Metadata heads a curated document.
type Metadata struct {
	Year        int     `json:"year"`
	GeneratedAt string  `json:"generated_at"`
	Description string  `json:"description"`
	Sources     Sources `json:"sources"`
}

// Document is the curated summary of one year.
type Document struct {
	Metadata    Metadata     `json:"metadata"`
	MoonPhases  []Phase      `json:"moon_phases"`
	Eclipses    []Eclipse    `json:"eclipses"`
	Retrogrades []Retrograde `json:"retrogrades"`
	MajorEvents []MajorEvent `json:"major_events"`
}

// Input is the full event set of a year.
type Input struct {
	MoonPhases  []event.Event
	Eclipses    []event.EclipseEvent
	Retrogrades []event.RetrogradePeriod
	// Transits holds ingresses, aspects and conjunctions; anything else is
	// ignored.
	Transits []event.Event
}

// Build curates in for year.
func Build(year int, in Input, generatedAt time.Time) Document {
	return Document{
		Metadata: Metadata{
			Year:        year,
			GeneratedAt: timeutil.FormatISO(generatedAt),
			Description: Description,
			Sources: Sources{
				MoonPhases:    fmt.Sprintf("moon-phases/%d.json", year),
				Eclipses:      fmt.Sprintf("eclipses/%d.json", year),
				Retrogrades:   fmt.Sprintf("retrogrades/%d.json", year),
				MajorTransits: fmt.Sprintf("major-transits/%d.json", year),
			},
		},
		MoonPhases:  Phases(in.MoonPhases),
		Eclipses:    Eclipses(in.Eclipses),
		Retrogrades: Retrogrades(in.Retrogrades),
		MajorEvents: MajorEvents(in.Transits),
	}
}

func date(t time.Time) string { return t.UTC().Format(time.DateOnly) }

// Phases keeps the cardinal phases, placed at the Moon.
func Phases(events []event.Event) []Phase {
	out := []Phase{}
	for _, e := range events {
		p, ok := e.(event.PhaseEvent)
		if !ok {
			continue
		}
		switch p.Phase {
		case "new", "first_quarter", "full", "last_quarter":
		default:
			continue
		}
		out = append(out, Phase{
			Date:   date(p.Time),
			Phase:  p.Phase,
			Sign:   p.Moon.Sign,
			Degree: p.Moon.Degree,
		})
	}
	return out
}

// Eclipses summarises each eclipse by date, sign and description.
func Eclipses(events []event.EclipseEvent) []Eclipse {
	out := make([]Eclipse, 0, len(events))
	for _, e := range events {
		out = append(out, Eclipse{
			Date:        date(e.Time),
			Type:        e.Category,
			EclipseType: e.EclipseType,
			Sign:        e.Sign,
			Degree:      e.Degree,
			Description: e.Description,
			Visibility:  e.Visibility,
		})
	}
	return out
}

// Retrogrades reduces each period to its station dates, starting sign and
// shadow bounds.
func Retrogrades(periods []event.RetrogradePeriod) []Retrograde {
	out := make([]Retrograde, 0, len(periods))
	for _, p := range periods {
		r := Retrograde{
			Planet:            p.Body.String(),
			StationRetrograde: date(p.Retrograde.Time),
			StationDirect:     date(p.Direct.Time),
			SignAtStart:       p.Retrograde.Position.Sign,
			DegreeAtStart:     p.Retrograde.Position.Degree,
		}
		if len(p.ShadowStart) >= 10 {
			r.ShadowStart = p.ShadowStart[:10]
		}
		if len(p.ShadowEnd) >= 10 {
			r.ShadowEnd = p.ShadowEnd[:10]
		}
		out = append(out, r)
	}
	return out
}

// MajorEvents selects slow-body ingresses and rare conjunctions, ordered by
// instant.
func MajorEvents(events []event.Event) []MajorEvent {
	out := []MajorEvent{}
	for _, e := range events {
		switch v := e.(type) {
		case event.IngressEvent:
			if m, ok := ingress(v); ok {
				out = append(out, m)
			}
		case event.ConjunctionEvent:
			if m, ok := conjunction(v.Time, v.Body1, v.Body2, v.Position1); ok {
				out = append(out, m)
			}
		case event.AspectEvent:
			if v.Aspect != "conjunction" {
				continue
			}
			if m, ok := conjunction(v.Time, v.Body1, v.Body2, v.Position1); ok {
				out = append(out, m)
			}
		}
	}
	slices.SortStableFunc(out, func(a, b MajorEvent) int {
		return a.Time.Compare(b.Time)
	})
	return out
}

// DisplayName is the audience-facing name of b.
func DisplayName(b ephemeris.Body) string {
	if b == ephemeris.NorthNode {
		return "North Node"
	}
	return b.String()
}

func ingress(e event.IngressEvent) (MajorEvent, bool) {
	if !slices.Contains(IngressBodies, e.Body) {
		return MajorEvent{}, false
	}
	meta := ingressMeta[e.Body]
	name := DisplayName(e.Body)

	typ := TypeIngress
	if e.Body == ephemeris.NorthNode {
		typ = TypeNodeShift
	}

	theme := "transformation"
	if len(meta.Themes) > 0 {
		theme = meta.Themes[0]
	}

	from, to := e.FromSign, e.ToSign
	return MajorEvent{
		Time:        e.Time,
		Date:        date(e.Time),
		Type:        typ,
		Planets:     []string{name},
		FromSign:    &from,
		ToSign:      &to,
		Sign:        to,
		Degree:      e.ExactDegree,
		Title:       fmt.Sprintf("%s enters %s", name, to),
		Description: fmt.Sprintf("%s moves into %s, beginning a new phase of %s", name, to, theme),
		Frequency:   meta.Frequency,
		Importance:  meta.Importance,
		Themes:      themes(meta.Themes),
	}, true
}

func conjunction(t time.Time, a, b ephemeris.Body, at event.Placement) (MajorEvent, bool) {
	meta, ok := rareConjunction(a, b)
	if !ok {
		return MajorEvent{}, false
	}
	n1, n2 := a.String(), b.String()
	return MajorEvent{
		Time:        t,
		Date:        date(t),
		Type:        TypeConjunction,
		Planets:     []string{n1, n2},
		Sign:        at.Sign,
		Degree:      at.Degree,
		Title:       fmt.Sprintf("%s-%s Conjunction", n1, n2),
		Description: fmt.Sprintf("%s and %s align in %s, marking a significant cosmic event", n1, n2, at.Sign),
		Frequency:   meta.Frequency,
		Importance:  meta.Importance,
		Themes:      themes(meta.Themes),
	}, true
}

func themes(ts []string) []string {
	if ts == nil {
		return []string{}
	}
	return slices.Clone(ts)
}
