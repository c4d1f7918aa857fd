package detect

import (
	"math"
	"slices"
	"time"

	"github.com/thurmanmarka/astrocal/internal/ephemeris"
	"github.com/thurmanmarka/astrocal/internal/solver"
	"github.com/thurmanmarka/astrocal/internal/timeutil"
)

// StationKind tells which way the speed crossed zero.
type StationKind int

const (
	StationRetrograde StationKind = iota // speed + → −
	StationDirect                        // speed − → +
)

func (k StationKind) String() string {
	if k == StationDirect {
		return "station_direct"
	}
	return "station_retrograde"
}

// StationZero detects a body's longitudinal speed crossing zero.
type StationZero struct {
	Options solver.Options
}

// StationHit is one refined station.
type StationHit struct {
	Hit
	Kind StationKind
}

// NewStationZero returns the station detector.
func NewStationZero() StationZero {
	return StationZero{Options: solver.Options{Tolerance: StationTolerance, Mode: solver.SignChange}}
}

// Check inspects one step of speed samples.
func (d StationZero) Check(speed Quantity, prev, curr Reading) (StationHit, bool, error) {
	var kind StationKind
	switch {
	case prev.Value > 0 && curr.Value <= 0:
		kind = StationRetrograde
	case prev.Value < 0 && curr.Value >= 0:
		kind = StationDirect
	default:
		return StationHit{}, false, nil
	}

	h, err := refine(speed, func(v float64) float64 { return v }, prev.Time, curr.Time, d.Options)
	if err != nil {
		return StationHit{}, false, err
	}
	h.Exactness = math.Abs(h.Value)
	return StationHit{Hit: h, Kind: kind}, true, nil
}

// Period is a completed retrograde episode.
type Period struct {
	Body       ephemeris.Body
	Retrograde StationHit
	Direct     StationHit
}

// RetrogradeTracker pairs each station-retrograde with the next
// station-direct of the same body.
type RetrogradeTracker struct {
	pending map[ephemeris.Body]StationHit
}

// NewRetrogradeTracker returns an empty tracker.
func NewRetrogradeTracker() *RetrogradeTracker {
	return &RetrogradeTracker{pending: make(map[ephemeris.Body]StationHit)}
}

// Observe records a station. It returns a completed period when h is a
// station-direct closing a pending retrograde. A station-direct with nothing
// pending (the body was already retrograde at scan start) is ignored.
func (r *RetrogradeTracker) Observe(b ephemeris.Body, h StationHit) (Period, bool) {
	if h.Kind == StationRetrograde {
		r.pending[b] = h
		return Period{}, false
	}

	rx, ok := r.pending[b]
	if !ok {
		return Period{}, false
	}
	delete(r.pending, b)
	return Period{Body: b, Retrograde: rx, Direct: h}, true
}

// Pending returns the bodies with an unmatched station-retrograde. At scan
// end these are incomplete periods and are dropped.
func (r *RetrogradeTracker) Pending() []ephemeris.Body {
	out := make([]ephemeris.Body, 0, len(r.pending))
	for b := range r.pending {
		out = append(out, b)
	}
	slices.Sort(out)
	return out
}

// Shadow offsets the stations of p by days: the pre-retrograde shadow starts
// days before the station-retrograde, the post-retrograde shadow ends days
// after the station-direct. ok is false when days is not positive.
func Shadow(p Period, days int) (start, end time.Time, ok bool) {
	if days <= 0 {
		return time.Time{}, time.Time{}, false
	}
	off := time.Duration(days) * timeutil.Day
	return p.Retrograde.Time.Add(-off), p.Direct.Time.Add(off), true
}

// DefaultShadowDays are the shadow offsets per body; others have none.
var DefaultShadowDays = map[ephemeris.Body]int{
	ephemeris.Mercury: 15,
	ephemeris.Venus:   20,
	ephemeris.Mars:    20,
}
