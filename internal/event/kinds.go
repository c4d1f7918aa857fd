package event

import (
	"encoding/json"
	"math"
	"time"

	"github.com/thurmanmarka/astrocal/internal/angle"
	"github.com/thurmanmarka/astrocal/internal/ephemeris"
	"github.com/thurmanmarka/astrocal/internal/timeutil"
)

// PhaseEvent is a cardinal lunar phase.
type PhaseEvent struct {
	Time      time.Time `json:"-"`
	Phase     string    `json:"phase"`
	Sun       Placement `json:"sun"`
	Moon      Placement `json:"moon"`
	Exactness float64   `json:"exactness_degrees"`
}

// NewPhase builds a PhaseEvent.
func NewPhase(t time.Time, phase string, sunLon, moonLon, exactness float64) PhaseEvent {
	return PhaseEvent{
		Time:      t.UTC(),
		Phase:     phase,
		Sun:       Place(sunLon),
		Moon:      Place(moonLon),
		Exactness: Round(exactness, ExactnessPlaces),
	}
}

func (e PhaseEvent) Kind() Kind      { return KindPhase }
func (e PhaseEvent) When() time.Time { return e.Time }

func (e PhaseEvent) MarshalJSON() ([]byte, error) {
	type alias PhaseEvent
	return json.Marshal(struct {
		header
		alias
	}{headerOf(e), alias(e)})
}

// AspectEvent is an orb entry of a non-conjunction aspect.
type AspectEvent struct {
	Time      time.Time      `json:"-"`
	Aspect    string         `json:"aspect"`
	Symbol    string         `json:"symbol"`
	Body1     ephemeris.Body `json:"planet1"`
	Body2     ephemeris.Body `json:"planet2"`
	Position1 Placement      `json:"planet1_position"`
	Position2 Placement      `json:"planet2_position"`
	Exactness float64        `json:"exactness"`
	OrbUsed   float64        `json:"orb_used"`
}

// NewAspect builds an AspectEvent.
func NewAspect(t time.Time, aspect, symbol string, b1, b2 ephemeris.Body, lon1, lon2, exactness, orb float64) AspectEvent {
	return AspectEvent{
		Time:      t.UTC(),
		Aspect:    aspect,
		Symbol:    symbol,
		Body1:     b1,
		Body2:     b2,
		Position1: Place(lon1),
		Position2: Place(lon2),
		Exactness: Round(exactness, ExactnessPlaces),
		OrbUsed:   orb,
	}
}

func (e AspectEvent) Kind() Kind      { return KindAspect }
func (e AspectEvent) When() time.Time { return e.Time }

func (e AspectEvent) MarshalJSON() ([]byte, error) {
	type alias AspectEvent
	return json.Marshal(struct {
		header
		alias
	}{headerOf(e), alias(e)})
}

// ConjunctionEvent is the exact pass of two bodies.
type ConjunctionEvent struct {
	Time      time.Time      `json:"-"`
	Symbol    string         `json:"symbol"`
	Body1     ephemeris.Body `json:"planet1"`
	Body2     ephemeris.Body `json:"planet2"`
	Position1 Placement      `json:"planet1_position"`
	Position2 Placement      `json:"planet2_position"`
	Exactness float64        `json:"exactness"`
	Gate      float64        `json:"gate"`
}

// NewConjunction builds a ConjunctionEvent.
func NewConjunction(t time.Time, symbol string, b1, b2 ephemeris.Body, lon1, lon2, exactness, gate float64) ConjunctionEvent {
	return ConjunctionEvent{
		Time:      t.UTC(),
		Symbol:    symbol,
		Body1:     b1,
		Body2:     b2,
		Position1: Place(lon1),
		Position2: Place(lon2),
		Exactness: Round(exactness, ExactnessPlaces),
		Gate:      gate,
	}
}

func (e ConjunctionEvent) Kind() Kind      { return KindConjunction }
func (e ConjunctionEvent) When() time.Time { return e.Time }

func (e ConjunctionEvent) MarshalJSON() ([]byte, error) {
	type alias ConjunctionEvent
	return json.Marshal(struct {
		header
		alias
	}{headerOf(e), alias(e)})
}

// IngressEvent is a body entering a new sign.
type IngressEvent struct {
	Time        time.Time      `json:"-"`
	Body        ephemeris.Body `json:"planet"`
	FromSign    string         `json:"from_sign"`
	ToSign      string         `json:"to_sign"`
	Retrograde  bool           `json:"retrograde"`
	Longitude   float64        `json:"longitude"`
	ExactDegree float64        `json:"exact_degree"`
}

// NewIngress builds an IngressEvent from sign indices and the refined longitude.
func NewIngress(t time.Time, b ephemeris.Body, from, to int, retrograde bool, lon float64) IngressEvent {
	n := angle.Normalize(lon)
	return IngressEvent{
		Time:        t.UTC(),
		Body:        b,
		FromSign:    angle.SignName(from),
		ToSign:      angle.SignName(to),
		Retrograde:  retrograde,
		Longitude:   Round(n, LongitudePlaces),
		ExactDegree: Round(math.Mod(n, angle.SignWidth), ExactnessPlaces),
	}
}

func (e IngressEvent) Kind() Kind      { return KindIngress }
func (e IngressEvent) When() time.Time { return e.Time }

func (e IngressEvent) MarshalJSON() ([]byte, error) {
	type alias IngressEvent
	return json.Marshal(struct {
		header
		alias
	}{headerOf(e), alias(e)})
}

// StationEvent is a body's speed crossing zero.
type StationEvent struct {
	Time     time.Time      `json:"-"`
	Body     ephemeris.Body `json:"planet"`
	Station  string         `json:"station"`
	Position Placement      `json:"position"`
	Speed    float64        `json:"speed"`
}

// NewStation builds a StationEvent; station is "station_retrograde" or
// "station_direct".
func NewStation(t time.Time, b ephemeris.Body, station string, lon, speed float64) StationEvent {
	return StationEvent{
		Time:     t.UTC(),
		Body:     b,
		Station:  station,
		Position: Place(lon),
		Speed:    Round(speed, ExactnessPlaces),
	}
}

func (e StationEvent) Kind() Kind      { return KindStation }
func (e StationEvent) When() time.Time { return e.Time }

func (e StationEvent) MarshalJSON() ([]byte, error) {
	type alias StationEvent
	return json.Marshal(struct {
		header
		alias
	}{headerOf(e), alias(e)})
}

// RetrogradePeriod pairs a station-retrograde with the following
// station-direct of the same body.
type RetrogradePeriod struct {
	Body         ephemeris.Body `json:"planet"`
	Retrograde   StationEvent   `json:"station_retrograde"`
	Direct       StationEvent   `json:"station_direct"`
	DurationDays float64        `json:"duration_days"`
	ShadowStart  string         `json:"pre_retrograde_shadow_start,omitempty"`
	ShadowEnd    string         `json:"post_retrograde_shadow_end,omitempty"`
}

// NewRetrogradePeriod builds a period. Shadow bounds are included when
// hasShadow is set.
func NewRetrogradePeriod(rx, dx StationEvent, shadowStart, shadowEnd time.Time, hasShadow bool) RetrogradePeriod {
	p := RetrogradePeriod{
		Body:         rx.Body,
		Retrograde:   rx,
		Direct:       dx,
		DurationDays: Round(dx.Time.Sub(rx.Time).Hours()/24.0, LongitudePlaces),
	}
	if hasShadow {
		p.ShadowStart = timeutil.FormatISO(shadowStart)
		p.ShadowEnd = timeutil.FormatISO(shadowEnd)
	}
	return p
}

func (e RetrogradePeriod) Kind() Kind      { return KindRetrograde }
func (e RetrogradePeriod) When() time.Time { return e.Retrograde.Time }

func (e RetrogradePeriod) MarshalJSON() ([]byte, error) {
	type alias RetrogradePeriod
	return json.Marshal(struct {
		header
		alias
	}{headerOf(e), alias(e)})
}

// EclipseEvent is a solar or lunar eclipse.
type EclipseEvent struct {
	Time          time.Time `json:"-"`
	Category      string    `json:"category"` // solar | lunar
	EclipseType   string    `json:"eclipse_type"`
	SunLongitude  float64   `json:"sun_longitude"`
	MoonLongitude float64   `json:"moon_longitude"`
	Sign          string    `json:"sign"`
	Degree        float64   `json:"degree"`
	Saros         int       `json:"saros_series"`
	Description   string    `json:"description"`
	Visibility    string    `json:"visibility"`
}

func (e EclipseEvent) Kind() Kind      { return KindEclipse }
func (e EclipseEvent) When() time.Time { return e.Time }

func (e EclipseEvent) MarshalJSON() ([]byte, error) {
	type alias EclipseEvent
	return json.Marshal(struct {
		header
		alias
	}{headerOf(e), alias(e)})
}
