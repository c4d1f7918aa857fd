// Package event holds the immutable records the scanners produce.
//
// Each record kind is its own type implementing Event. Floating values are
// rounded once, at construction, so serialized output is diff-stable.
package event

import (
	"encoding/json"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"github.com/thurmanmarka/astrocal/internal/angle"
	"github.com/thurmanmarka/astrocal/internal/timeutil"
)

// Decimal places kept in output.
const (
	LongitudePlaces = 6
	ExactnessPlaces = 8
	JulianDayPlaces = 6
)

// Kind discriminates event records.
type Kind string

const (
	KindPhase       Kind = "moon_phase"
	KindAspect      Kind = "aspect"
	KindConjunction Kind = "conjunction"
	KindIngress     Kind = "ingress"
	KindStation     Kind = "station"
	KindRetrograde  Kind = "retrograde"
	KindEclipse     Kind = "eclipse"
)

// Event is implemented by every record kind.
type Event interface {
	Kind() Kind
	// When is the instant used for ordering.
	When() time.Time
}

// Round rounds v half away from zero to places decimals.
func Round(v float64, places int32) float64 {
	f, _ := decimal.NewFromFloat(v).Round(places).Float64()
	return f
}

// Placement is a longitude with its zodiac decomposition.
type Placement struct {
	Longitude float64 `json:"longitude"`
	Sign      string  `json:"sign"`
	Degree    float64 `json:"degree"`
}

// Place decomposes and rounds a longitude.
func Place(lon float64) Placement {
	sign, deg := angle.Decompose(lon)
	return Placement{
		Longitude: Round(angle.Normalize(lon), LongitudePlaces),
		Sign:      sign,
		Degree:    Round(deg, LongitudePlaces),
	}
}

// header is the common prefix of every serialized record.
type header struct {
	Type      Kind    `json:"type"`
	Date      string  `json:"date"`
	JulianDay float64 `json:"julian_day"`
}

func headerOf(e Event) header {
	return header{
		Type:      e.Kind(),
		Date:      timeutil.FormatISO(e.When()),
		JulianDay: Round(timeutil.JulianDay(e.When()), JulianDayPlaces),
	}
}

// Sort orders events by their instant, keeping the input order for ties.
// It never compares formatted dates.
func Sort(events []Event) {
	slices.SortStableFunc(events, func(a, b Event) int {
		return a.When().Compare(b.When())
	})
}

// Marshal encodes events as a JSON array.
func Marshal(events []Event) ([]byte, error) {
	if events == nil {
		events = []Event{}
	}
	return json.Marshal(events)
}
