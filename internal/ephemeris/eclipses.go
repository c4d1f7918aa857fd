package ephemeris

import (
	"math"
	"time"

	"github.com/thurmanmarka/astrocal/internal/angle"
	"github.com/thurmanmarka/astrocal/internal/moon"
	"github.com/thurmanmarka/astrocal/internal/solver"
	"github.com/thurmanmarka/astrocal/internal/sun"
	"github.com/thurmanmarka/astrocal/internal/timeutil"
)

// Shadow geometry in Earth equatorial radii (Meeus ch. 54).
const (
	earthRadiusKm = 6378.14
	sunRadiusKm   = 696000.0

	solarCentralLimit = 0.9972
	solarPartialLimit = 1.5433 + 0.0046

	lunarPenumbralLimit = 1.5573 + 0.0059
	lunarUmbralLimit    = 1.0128 - 0.0059
	lunarTotalLimit     = 0.4678 - 0.0059

	// cosine of the inclination of the Moon's orbit relative to the Sun's
	// apparent path, converting latitude at syzygy into least separation.
	relativeInclination = 0.9954
)

// syzygySearch bounds a single new/full moon search.
const syzygySearch = 32 * timeutil.Day

var syzygyOpts = solver.Options{Tolerance: 1e-6, MaxIterations: solver.DefaultMaxIterations}

// NextSolarEclipse implements EclipseSource. Each new moon after the given
// instant is tested against the solar shadow limits; the first one that
// qualifies is returned with its syzygy as the time of maximum.
func (a *Analytical) NextSolarEclipse(after time.Time) (EclipseResult, bool, error) {
	return a.nextEclipse(after, 0, classifySolar)
}

// NextLunarEclipse implements EclipseSource for full moons.
func (a *Analytical) NextLunarEclipse(after time.Time) (EclipseResult, bool, error) {
	return a.nextEclipse(after, 180, classifyLunar)
}

type classifier func(t time.Time, gamma float64) (EclipseResult, bool)

func (a *Analytical) nextEclipse(after time.Time, elongation float64, classify classifier) (EclipseResult, bool, error) {
	if after.Before(RangeStart) {
		return EclipseResult{}, false, &LookupError{Body: Moon, Time: after, Err: ErrOutOfRange}
	}

	// Moon minus (Sun + elongation) rises through zero once per lunation.
	residual := func(t time.Time) (float64, error) {
		s := sun.EclipticApprox(t).Longitude
		m := moon.EclipticApprox(t).Longitude
		return angle.SignedSeparation(s+elongation, m), nil
	}

	cursor := after
	for cursor.Before(RangeEnd) {
		end := cursor.Add(syzygySearch)
		if end.After(RangeEnd) {
			end = RangeEnd
		}

		res, found, err := solver.FindFirstCrossing(residual, cursor, end, timeutil.Day, solver.CrossingUp, syzygyOpts)
		if err != nil {
			return EclipseResult{}, false, err
		}
		if !found {
			return EclipseResult{}, false, nil
		}

		if r, ok := classify(res.Time, gamma(res.Time)); ok {
			return r, true, nil
		}
		cursor = res.Time.Add(timeutil.Day)
	}
	return EclipseResult{}, false, nil
}

// gamma is the least distance of the Moon's center from the Sun–Earth axis,
// in Earth radii, signed by the Moon's latitude.
func gamma(t time.Time) float64 {
	m := moon.EclipticApprox(t)
	beta := timeutil.Deg2Rad(m.Latitude)
	return (m.Distance / earthRadiusKm) * math.Sin(beta) * relativeInclination
}

func classifySolar(t time.Time, g float64) (EclipseResult, bool) {
	ag := math.Abs(g)
	if ag >= solarPartialLimit {
		return EclipseResult{}, false
	}

	res := EclipseResult{Times: []time.Time{t}}

	if ag < solarCentralLimit {
		m := moon.EclipticApprox(t)
		s := sun.EclipticApprox(t)

		sunR := math.Asin(sunRadiusKm / (s.Distance * moon.KmPerAU))
		moonGeo := math.Asin(moon.MeanRadiusKm / m.Distance)
		// Observer on the axis is nearer the Moon by one Earth radius
		// projected along it.
		moonTopo := math.Asin(moon.MeanRadiusKm / (m.Distance - earthRadiusKm*math.Sqrt(1-ag*ag)))

		switch {
		case moonGeo >= sunR:
			res.Flags = EclipseTotal | EclipseCentral
		case moonTopo >= sunR:
			res.Flags = EclipseHybrid | EclipseCentral
		default:
			res.Flags = EclipseAnnular | EclipseCentral
		}
	} else {
		res.Flags = EclipsePartial
	}

	// Greatest eclipse lies on the sub-solar meridian, displaced toward the
	// Moon's side of the ecliptic.
	lat, lon := sun.SubSolarPoint(t)
	shift := timeutil.Rad2Deg(math.Asin(math.Max(-1, math.Min(1, g))))
	lat = math.Max(-90, math.Min(90, lat+shift))
	res.Where = &GeoPoint{Lat: lat, Lon: lon}

	return res, true
}

func classifyLunar(t time.Time, g float64) (EclipseResult, bool) {
	ag := math.Abs(g)
	res := EclipseResult{Times: []time.Time{t}}

	switch {
	case ag < lunarTotalLimit:
		res.Flags = EclipseTotal
	case ag < lunarUmbralLimit:
		res.Flags = EclipsePartial
	case ag < lunarPenumbralLimit:
		res.Flags = EclipsePenumbral
	default:
		return EclipseResult{}, false
	}
	return res, true
}
