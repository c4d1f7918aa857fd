package detect

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thurmanmarka/astrocal/internal/angle"
	"github.com/thurmanmarka/astrocal/internal/ephemeris"
	"github.com/thurmanmarka/astrocal/internal/timeutil"
)

var epoch = time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)

func day(d float64) time.Time {
	return epoch.Add(time.Duration(d * float64(timeutil.Day)))
}

func days(t time.Time) float64 {
	return t.Sub(epoch).Hours() / 24.0
}

// linearQ returns v0 + rate*days, optionally wrapped into [0, 360).
func linearQ(v0, rate float64, wrap bool) Quantity {
	return func(t time.Time) (float64, error) {
		v := v0 + rate*days(t)
		if wrap {
			v = angle.Normalize(v)
		}
		return v, nil
	}
}

func sample(t *testing.T, q Quantity, d float64) Reading {
	t.Helper()
	r, err := Sample(q, day(d))
	require.NoError(t, err)
	return r
}

func TestPhaseCrossed(t *testing.T) {
	tests := []struct {
		name            string
		prev, curr, tgt float64
		want            bool
	}{
		{"new moon wrap", 355, 7, 0, true},
		{"new moon not yet", 340, 352, 0, false},
		{"first quarter", 85, 97, 90, true},
		{"landing exactly on target", 78, 90, 90, true},
		{"starting on target is not a crossing", 90, 102, 90, false},
		{"full", 175, 187, 180, true},
		{"last quarter", 265, 277, 270, true},
		{"wrap is not a quarter", 355, 7, 90, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PhaseCrossed(tt.prev, tt.curr, tt.tgt))
		})
	}
}

func TestPhaseCrossing_NewMoonThroughWrap(t *testing.T) {
	// Elongation 354 at day 0 growing 12.19°/day: new moon at day ~0.492.
	elong := linearQ(354, 12.19, true)
	d := NewPhaseCrossing()

	hits, err := d.Check(elong, sample(t, elong, 0), sample(t, elong, 1))
	require.NoError(t, err)
	require.Len(t, hits, 1)

	h := hits[0]
	assert.Equal(t, "new", h.Target.Name)
	assert.True(t, h.Converged)
	assert.Less(t, h.Exactness, PhaseTolerance)
	assert.InDelta(t, 6/12.19, days(h.Time), 0.001)
}

func TestPhaseCrossing_Quarter(t *testing.T) {
	elong := linearQ(260, 12, true)

	hits, err := NewPhaseCrossing().Check(elong, sample(t, elong, 0), sample(t, elong, 1))
	require.NoError(t, err)
	require.Len(t, hits, 1)

	assert.Equal(t, "last_quarter", hits[0].Target.Name)
	assert.InDelta(t, 10.0/12.0, days(hits[0].Time), 0.001)
}

func TestOrbBand_ActiveSetSuppression(t *testing.T) {
	// Square (90 ± 6): out of orb at day 1, in orb for days 2..11.
	sep := linearQ(97.5, -1, false)
	band := NewOrbBand(DefaultAspects)
	active := NewActiveSet()

	var hits []AspectHit
	var prev *Reading
	for d := 0; d <= 11; d++ {
		curr := sample(t, sep, float64(d))
		got, err := band.Check(sep, ephemeris.Jupiter, ephemeris.Saturn, prev, curr, active)
		require.NoError(t, err)
		hits = append(hits, got...)
		prev = &curr
	}

	require.Len(t, hits, 1, "ten in-orb days must give one entry")
	assert.Equal(t, "square", hits[0].Aspect.Name)
	assert.True(t, hits[0].Refined)
	assert.InDelta(t, 1.5, days(hits[0].Time), 0.02)
	assert.True(t, active.Active(AspectKey{A: ephemeris.Jupiter, B: ephemeris.Saturn, Aspect: "square"}))
}

func TestOrbBand_ExitAndReentry(t *testing.T) {
	sep := func(tt time.Time) (float64, error) {
		return 90 + 7*math.Cos(2*math.Pi*days(tt)/20), nil
	}
	band := NewOrbBand(DefaultAspects)
	active := NewActiveSet()

	var hits []AspectHit
	var prev *Reading
	for d := 0; d <= 20; d++ {
		curr := sample(t, sep, float64(d))
		got, err := band.Check(sep, ephemeris.Mars, ephemeris.Pluto, prev, curr, active)
		require.NoError(t, err)
		hits = append(hits, got...)
		prev = &curr
	}

	require.Len(t, hits, 2)
	entry := math.Acos(6.0/7.0) * 20 / (2 * math.Pi)
	assert.InDelta(t, entry, days(hits[0].Time), 0.01)
	assert.InDelta(t, 10+entry, days(hits[1].Time), 0.01)
	assert.False(t, active.Active(AspectKey{A: ephemeris.Mars, B: ephemeris.Pluto, Aspect: "square"}))
}

func TestOrbBand_FirstSampleAlreadyInOrb(t *testing.T) {
	sep := linearQ(121, 0.1, false)
	active := NewActiveSet()

	curr := sample(t, sep, 0)
	hits, err := NewOrbBand(DefaultAspects).Check(sep, ephemeris.Uranus, ephemeris.Neptune, nil, curr, active)
	require.NoError(t, err)
	require.Len(t, hits, 1)

	assert.Equal(t, "trine", hits[0].Aspect.Name)
	assert.False(t, hits[0].Refined)
	assert.Equal(t, epoch, hits[0].Time)
	assert.InDelta(t, 1.0, hits[0].Exactness, 1e-9)
}

func TestNewOrbBand_SkipsConjunction(t *testing.T) {
	band := NewOrbBand(DefaultAspects)
	for _, a := range band.Aspects {
		assert.NotEqual(t, Conjunction, a.Name)
	}
	assert.Len(t, band.Aspects, 4)
}

func TestZeroCrossing_NoFlipNoEvent(t *testing.T) {
	// Close enough for the conjunction orb, but the order never flips.
	z := NewZeroCrossing(GateOuter)
	sep := linearQ(0.5, -0.2, false)

	_, ok, err := z.Check(sep, sample(t, sep, 0), sample(t, sep, 1))
	require.NoError(t, err)
	assert.False(t, ok)

	conj, _ := FindAspect(DefaultAspects, Conjunction)
	assert.True(t, InOrb(0.3, conj))
}

func TestZeroCrossing_ExactPass(t *testing.T) {
	z := NewZeroCrossing(GateCross)
	sep := linearQ(2, -1, false)

	h, ok, err := z.Check(sep, sample(t, sep, 1.5), sample(t, sep, 2.5))
	require.NoError(t, err)
	require.True(t, ok)

	assert.InDelta(t, 2.0, days(h.Time), 0.002)
	assert.Less(t, h.Exactness, ConjunctionTolerance)
}

func TestFlipped_GateRejectsOpposition(t *testing.T) {
	assert.False(t, Flipped(179.5, -179.5, GateOuter))
	assert.True(t, Flipped(0.4, -0.2, GateOuter))
	assert.True(t, Flipped(-3, 2, GateCross))
	assert.False(t, Flipped(-16, 14, GateOuter))
	assert.True(t, Flipped(-16, 14, GateCross))
}

func TestSignBoundary_PiscesToAries(t *testing.T) {
	lon := linearQ(359.5, 0.5, true)

	h, ok, err := NewSignBoundary().Check(lon, sample(t, lon, 0), sample(t, lon, 2))
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, 0.0, h.Boundary)
	assert.Equal(t, 11, h.From)
	assert.Equal(t, 0, h.To)
	assert.False(t, h.Retrograde)
	assert.InDelta(t, 1.0, days(h.Time), 0.01)
	assert.Less(t, h.Exactness, IngressTolerance)
}

func TestSignBoundary_Retrograde(t *testing.T) {
	lon := linearQ(30.2, -0.3, true)

	h, ok, err := NewSignBoundary().Check(lon, sample(t, lon, 0), sample(t, lon, 1))
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, 30.0, h.Boundary)
	assert.Equal(t, 1, h.From)
	assert.Equal(t, 0, h.To)
	assert.True(t, h.Retrograde)
	assert.InDelta(t, 0.2/0.3, days(h.Time), 0.01)
}

func TestSignBoundary_RetrogradeBackIntoPisces(t *testing.T) {
	lon := linearQ(0.1, -0.2, true)

	h, ok, err := NewSignBoundary().Check(lon, sample(t, lon, 0), sample(t, lon, 1))
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, 0.0, h.Boundary)
	assert.Equal(t, 0, h.From)
	assert.Equal(t, 11, h.To)
	assert.True(t, h.Retrograde)
	assert.InDelta(t, 0.5, days(h.Time), 0.01)
}

func TestStationZero(t *testing.T) {
	speed := linearQ(0.5, -0.25, false)

	h, ok, err := NewStationZero().Check(speed, sample(t, speed, 1.5), sample(t, speed, 2.5))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, StationRetrograde, h.Kind)
	assert.InDelta(t, 2.0, days(h.Time), 0.001)

	rising := linearQ(-0.5, 0.25, false)
	h, ok, err = NewStationZero().Check(rising, sample(t, rising, 1.5), sample(t, rising, 2.5))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, StationDirect, h.Kind)
}

func TestStationZero_SampleExactlyAtZero(t *testing.T) {
	speed := linearQ(0.5, -0.25, false) // zero at day 2

	h, ok, err := NewStationZero().Check(speed, sample(t, speed, 1), sample(t, speed, 2))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, StationRetrograde, h.Kind)
	assert.InDelta(t, 2.0, days(h.Time), 0.001)

	_, ok, err = NewStationZero().Check(speed, sample(t, speed, 2), sample(t, speed, 3))
	require.NoError(t, err)
	assert.False(t, ok, "the following step must not report it again")

	rising := linearQ(-0.5, 0.25, false)
	h, ok, err = NewStationZero().Check(rising, sample(t, rising, 1), sample(t, rising, 2))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, StationDirect, h.Kind)
}

func TestRetrogradeTracker(t *testing.T) {
	tr := NewRetrogradeTracker()
	rx := StationHit{Hit: Hit{Time: day(10)}, Kind: StationRetrograde}
	dx := StationHit{Hit: Hit{Time: day(34)}, Kind: StationDirect}

	_, ok := tr.Observe(ephemeris.Mercury, StationHit{Hit: Hit{Time: day(2)}, Kind: StationDirect})
	assert.False(t, ok, "direct without a pending retrograde is dropped")

	_, ok = tr.Observe(ephemeris.Mercury, rx)
	assert.False(t, ok)
	assert.Equal(t, []ephemeris.Body{ephemeris.Mercury}, tr.Pending())

	p, ok := tr.Observe(ephemeris.Mercury, dx)
	require.True(t, ok)
	assert.Equal(t, ephemeris.Mercury, p.Body)
	assert.Equal(t, 24*timeutil.Day, p.Direct.Time.Sub(p.Retrograde.Time))
	assert.Empty(t, tr.Pending())

	start, end, ok := Shadow(p, DefaultShadowDays[ephemeris.Mercury])
	require.True(t, ok)
	assert.Equal(t, day(-5), start)
	assert.Equal(t, day(49), end)

	_, _, ok = Shadow(p, DefaultShadowDays[ephemeris.Jupiter])
	assert.False(t, ok)
}

func TestPriors(t *testing.T) {
	p := NewPriors[string]()

	_, ok := p.Swap("Mars", Reading{Time: day(0), Value: 1})
	assert.False(t, ok)

	prev, ok := p.Swap("Mars", Reading{Time: day(1), Value: 2})
	require.True(t, ok)
	assert.Equal(t, 1.0, prev.Value)

	_, ok = p.Swap("Pluto", Reading{Time: day(1), Value: 3})
	assert.False(t, ok, "keys are independent")
}
