package scan

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thurmanmarka/astrocal/internal/angle"
	"github.com/thurmanmarka/astrocal/internal/ephemeris"
	"github.com/thurmanmarka/astrocal/internal/event"
	"github.com/thurmanmarka/astrocal/internal/timeutil"
)

const year = 2025

var epoch, _ = timeutil.YearBounds(year)

// motion is lon(t) = L0 + Rate*d + Amp*sin(2π d / Period), d in days since epoch.
type motion struct {
	L0, Rate, Amp, Period float64
}

// synthetic is a deterministic Provider with closed-form longitudes.
type synthetic map[ephemeris.Body]motion

func (s synthetic) Name() string { return "synthetic" }

func (s synthetic) Position(t time.Time, b ephemeris.Body) (ephemeris.Position, error) {
	m, ok := s[b]
	if !ok {
		return ephemeris.Position{}, &ephemeris.LookupError{Body: b, Time: t, Err: ephemeris.ErrUnknownBody}
	}
	d := t.Sub(epoch).Hours() / 24.0
	lon := m.L0 + m.Rate*d
	speed := m.Rate
	if m.Amp != 0 {
		w := 2 * math.Pi / m.Period
		lon += m.Amp * math.Sin(w*d)
		speed += m.Amp * w * math.Cos(w*d)
	}
	return ephemeris.Position{Longitude: angle.Normalize(lon), Distance: 1, Speed: speed}, nil
}

func days(t time.Time) float64 { return t.Sub(epoch).Hours() / 24.0 }

func options(mut func(*Options)) Options {
	o := DefaultOptions()
	o.Outer, o.Inner, o.Ingress, o.Retrograde = nil, nil, nil, nil
	if mut != nil {
		mut(&o)
	}
	return o
}

// lunar has the Sun and Moon in opposition at the epoch.
var lunar = synthetic{
	ephemeris.Sun:  {L0: 280, Rate: 0.9856},
	ephemeris.Moon: {L0: 100, Rate: 13.1764},
}

func TestMoonPhases_EndToEndNewMoons(t *testing.T) {
	s := New(lunar, options(nil))

	evs, err := s.MoonPhases(context.Background(), year)
	require.NoError(t, err)

	var news []event.PhaseEvent
	for _, e := range evs {
		if p := e.(event.PhaseEvent); p.Phase == "new" {
			news = append(news, p)
		}
	}

	require.Len(t, news, int(math.Floor(365/29.53)))
	for i, p := range news {
		assert.Less(t, p.Exactness, 0.01, "new moon %d", i)
		if i > 0 {
			assert.True(t, p.Time.After(news[i-1].Time))
		}
	}

	synodic := 360 / (13.1764 - 0.9856)
	assert.InDelta(t, synodic/2, days(news[0].Time), 0.01)
	assert.InDelta(t, synodic, news[1].Time.Sub(news[0].Time).Hours()/24, 0.01)
}

func TestMoonPhases_AllFourInOrder(t *testing.T) {
	s := New(lunar, options(nil))

	evs, err := s.MoonPhases(context.Background(), year)
	require.NoError(t, err)

	order := []string{"new", "first_quarter", "full", "last_quarter"}
	first := evs[0].(event.PhaseEvent)
	require.Equal(t, "last_quarter", first.Phase)

	for i, e := range evs[1:] {
		assert.Equal(t, order[i%4], e.(event.PhaseEvent).Phase)
	}
}

func TestAspects_ActiveSetSuppressesRepeats(t *testing.T) {
	p := synthetic{
		ephemeris.Jupiter: {L0: 100, Rate: 0.1},
		ephemeris.Saturn:  {L0: 0},
	}
	s := New(p, options(func(o *Options) {
		o.Outer = []ephemeris.Body{ephemeris.Jupiter, ephemeris.Saturn}
	}))

	evs, err := s.Aspects(context.Background(), year)
	require.NoError(t, err)

	// In trine orb from day 140 to day 260: one event at the entry.
	require.Len(t, evs, 1)
	a := evs[0].(event.AspectEvent)
	assert.Equal(t, "trine", a.Aspect)
	assert.Equal(t, ephemeris.Jupiter, a.Body1)
	assert.InDelta(t, 140, days(a.Time), 0.2)
	assert.InDelta(t, 6.0, a.Exactness, 0.02)
}

func TestAspects_InOrbAtScanStartIsReportedAtStart(t *testing.T) {
	p := synthetic{
		ephemeris.Jupiter: {L0: 92},
		ephemeris.Saturn:  {L0: 0},
	}
	s := New(p, options(func(o *Options) {
		o.Outer = []ephemeris.Body{ephemeris.Jupiter, ephemeris.Saturn}
	}))

	evs, err := s.Aspects(context.Background(), year)
	require.NoError(t, err)

	require.Len(t, evs, 1)
	a := evs[0].(event.AspectEvent)
	assert.Equal(t, "square", a.Aspect)
	assert.Equal(t, epoch, a.Time)
	assert.InDelta(t, 2.0, a.Exactness, 1e-9)
}

func TestConjunctions_OrbIsNotAPass(t *testing.T) {
	// Separation shrinks from +0.5 to about +0.3 and never changes sign.
	p := synthetic{
		ephemeris.Jupiter: {L0: 0.5, Rate: -0.2 / 365},
		ephemeris.Saturn:  {L0: 0},
	}
	s := New(p, options(func(o *Options) {
		o.Outer = []ephemeris.Body{ephemeris.Jupiter, ephemeris.Saturn}
	}))

	evs, err := s.Conjunctions(context.Background(), year)
	require.NoError(t, err)
	assert.Empty(t, evs)
}

func TestConjunctions_ExactPass(t *testing.T) {
	p := synthetic{
		ephemeris.Jupiter: {L0: 5, Rate: -0.05},
		ephemeris.Saturn:  {L0: 0},
		ephemeris.Mars:    {L0: 300, Rate: 0.5},
	}
	s := New(p, options(func(o *Options) {
		o.Outer = []ephemeris.Body{ephemeris.Jupiter, ephemeris.Saturn}
		o.Inner = []ephemeris.Body{ephemeris.Mars}
	}))

	evs, err := s.Conjunctions(context.Background(), year)
	require.NoError(t, err)

	var gates []float64
	for _, e := range evs {
		c := e.(event.ConjunctionEvent)
		assert.Less(t, c.Exactness, 0.001)
		gates = append(gates, c.Gate)
	}

	// Jupiter–Saturn at day 100; Mars meets Jupiter near 118.2 and Saturn at 120.
	require.Len(t, evs, 3)
	assert.ElementsMatch(t, []float64{15, 20, 20}, gates)

	js := evs[0].(event.ConjunctionEvent)
	assert.Equal(t, ephemeris.Jupiter, js.Body1)
	assert.Equal(t, ephemeris.Saturn, js.Body2)
	assert.InDelta(t, 100, days(js.Time), 0.03)
}

func TestIngresses_RetrogradeReentry(t *testing.T) {
	// Wobbles across 30° three times: forward, back, forward.
	p := synthetic{
		ephemeris.Mars: {L0: 25, Rate: 0.05, Amp: 10, Period: 120},
	}
	s := New(p, options(func(o *Options) {
		o.Ingress = []ephemeris.Body{ephemeris.Mars}
	}))

	evs, err := s.Ingresses(context.Background(), year)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(evs), 3)

	first, second := evs[0].(event.IngressEvent), evs[1].(event.IngressEvent)
	assert.Equal(t, "Aries", first.FromSign)
	assert.Equal(t, "Taurus", first.ToSign)
	assert.False(t, first.Retrograde)

	assert.Equal(t, "Taurus", second.FromSign)
	assert.Equal(t, "Aries", second.ToSign)
	assert.True(t, second.Retrograde)

	for _, e := range evs {
		in := e.(event.IngressEvent)
		assert.InDelta(t, 0, math.Mod(in.ExactDegree+0.5, 30)-0.5, 0.001)
	}
}

func TestIngresses_PiscesToAries(t *testing.T) {
	p := synthetic{ephemeris.Sun: {L0: 350, Rate: 0.9856}}
	s := New(p, options(func(o *Options) {
		o.Ingress = []ephemeris.Body{ephemeris.Sun}
	}))

	evs, err := s.Ingresses(context.Background(), year)
	require.NoError(t, err)
	require.NotEmpty(t, evs)

	in := evs[0].(event.IngressEvent)
	assert.Equal(t, "Pisces", in.FromSign)
	assert.Equal(t, "Aries", in.ToSign)
	assert.InDelta(t, 10/0.9856, days(in.Time), 0.002)
}

// mercuryLike stations where 1 + 1.625·cos(2πd/116) = 0.
var mercuryLike = synthetic{
	ephemeris.Mercury: {L0: 100, Rate: 1, Amp: 30, Period: 116},
}

func TestRetrogrades_PeriodsWithShadow(t *testing.T) {
	s := New(mercuryLike, options(func(o *Options) {
		o.Retrograde = []ephemeris.Body{ephemeris.Mercury}
	}))

	res, err := s.Retrogrades(context.Background(), year)
	require.NoError(t, err)

	require.Len(t, res.Stations, 6)
	require.Len(t, res.Periods, 3)

	amp := 30 * 2 * math.Pi / 116
	rx := 116 * math.Acos(-1/amp) / (2 * math.Pi)
	dx := 116 - rx

	p := res.Periods[0]
	assert.Equal(t, ephemeris.Mercury, p.Body)
	assert.InDelta(t, rx, days(p.Retrograde.Time), 0.01)
	assert.InDelta(t, dx, days(p.Direct.Time), 0.01)
	assert.Equal(t, "station_retrograde", p.Retrograde.Station)
	assert.Equal(t, "station_direct", p.Direct.Station)

	wantShadow := p.Retrograde.Time.Add(-15 * timeutil.Day)
	assert.Equal(t, timeutil.FormatISO(wantShadow), p.ShadowStart)
	assert.NotEmpty(t, p.ShadowEnd)
}

func TestRetrogrades_OpenPeriodsAreDropped(t *testing.T) {
	// Retrograde at the epoch, so the first station is an orphan direct
	// (day ~16.8). The last station-retrograde (day ~343.2) has no direct
	// before year end.
	p := synthetic{ephemeris.Mercury: {L0: 100, Rate: 1, Amp: -30, Period: 120}}
	s := New(p, options(func(o *Options) {
		o.Retrograde = []ephemeris.Body{ephemeris.Mercury}
	}))

	res, err := s.Retrogrades(context.Background(), year)
	require.NoError(t, err)

	require.Len(t, res.Stations, 6)
	assert.Equal(t, "station_direct", res.Stations[0].Station)
	assert.Equal(t, "station_retrograde", res.Stations[5].Station)

	require.Len(t, res.Periods, 2)
	for _, per := range res.Periods {
		assert.True(t, per.Direct.Time.After(per.Retrograde.Time))
	}
	assert.Len(t, res.Events(), 2)
}

func fullOptions(workers int) Options {
	return options(func(o *Options) {
		o.Workers = workers
		o.Outer = []ephemeris.Body{ephemeris.Jupiter, ephemeris.Saturn, ephemeris.Uranus}
		o.Inner = []ephemeris.Body{ephemeris.Sun, ephemeris.Mars}
		o.Ingress = []ephemeris.Body{ephemeris.Sun, ephemeris.Moon, ephemeris.Mars}
		o.Retrograde = []ephemeris.Body{ephemeris.Mercury, ephemeris.Mars}
	})
}

var busy = synthetic{
	ephemeris.Sun:     {L0: 280, Rate: 0.9856},
	ephemeris.Moon:    {L0: 100, Rate: 13.1764},
	ephemeris.Mercury: {L0: 270, Rate: 1, Amp: 30, Period: 116},
	ephemeris.Mars:    {L0: 90, Rate: 0.5, Amp: 20, Period: 300},
	ephemeris.Jupiter: {L0: 75, Rate: 0.083},
	ephemeris.Saturn:  {L0: 355, Rate: 0.033},
	ephemeris.Uranus:  {L0: 55, Rate: 0.012},
}

func marshalAll(t *testing.T, s *Scanner) []byte {
	t.Helper()
	var out []byte
	for _, c := range Categories {
		evs, err := s.Scan(context.Background(), c, year)
		require.NoError(t, err, c)
		b, err := event.Marshal(evs)
		require.NoError(t, err)
		out = append(out, b...)
	}
	return out
}

func TestScan_Idempotent(t *testing.T) {
	first := marshalAll(t, New(busy, fullOptions(1)))
	second := marshalAll(t, New(busy, fullOptions(1)))
	assert.Equal(t, string(first), string(second))
}

func TestScan_ShardedMatchesSequential(t *testing.T) {
	seq := marshalAll(t, New(busy, fullOptions(1)))
	par := marshalAll(t, New(busy, fullOptions(4)))
	assert.Equal(t, string(seq), string(par))
}

func TestScan_UnknownCategory(t *testing.T) {
	_, err := New(busy, fullOptions(1)).Scan(context.Background(), "natal", year)
	assert.ErrorIs(t, err, ErrUnknownCategory)
}

func TestScan_ProviderFailureAborts(t *testing.T) {
	s := New(busy, options(func(o *Options) {
		o.Ingress = []ephemeris.Body{ephemeris.Sun, ephemeris.Pluto}
	}))

	_, err := s.Ingresses(context.Background(), year)
	require.Error(t, err)

	var lerr *ephemeris.LookupError
	require.True(t, errors.As(err, &lerr))
	assert.Equal(t, ephemeris.Pluto, lerr.Body)
	assert.ErrorIs(t, err, ephemeris.ErrUnknownBody)
}

func TestScan_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(lunar, options(nil)).MoonPhases(ctx, year)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestShard(t *testing.T) {
	keys := []int{1, 2, 3}
	assert.Equal(t, [][]int{{1, 2, 3}}, shard(keys, 1))
	assert.Equal(t, [][]int{{1}, {2}, {3}}, shard(keys, 8))
	assert.Nil(t, shard([]int(nil), 4))
}

func TestIngresses_LastYearOfAnalyticalRange(t *testing.T) {
	s := New(ephemeris.NewAnalytical(), options(func(o *Options) {
		o.Ingress = []ephemeris.Body{ephemeris.Sun}
	}))

	evs, err := s.Ingresses(context.Background(), 2050)
	require.NoError(t, err)
	assert.Len(t, evs, 12)
}

func TestNew_FillsUnsetOptions(t *testing.T) {
	s := New(nil, Options{Workers: 4, GateOuter: 12, Ingress: []ephemeris.Body{ephemeris.Sun}})
	def := DefaultOptions()

	assert.Equal(t, 4, s.opts.Workers)
	assert.Equal(t, 12.0, s.opts.GateOuter)
	assert.Equal(t, def.GateCross, s.opts.GateCross)
	assert.Equal(t, def.MaxIterations, s.opts.MaxIterations)
	assert.Equal(t, def.Tolerances, s.opts.Tolerances)
	assert.Equal(t, def.Aspects, s.opts.Aspects)
	assert.Equal(t, def.ShadowDays, s.opts.ShadowDays)
	assert.Equal(t, []ephemeris.Body{ephemeris.Sun}, s.opts.Ingress)
	assert.Nil(t, s.opts.Outer)
}
