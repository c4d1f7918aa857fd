package positions

import (
	"math"
	"time"

	"github.com/thurmanmarka/astrocal/internal/angle"
	"github.com/thurmanmarka/astrocal/internal/moon"
	"github.com/thurmanmarka/astrocal/internal/sun"
	"github.com/thurmanmarka/astrocal/internal/timeutil"
)

// MoonPhase describes the illuminated fraction and qualitative phase
// of the Moon at a given instant.
type MoonPhase struct {
	Time       time.Time // the instant this phase is evaluated at
	Fraction   float64   // illuminated fraction [0..1], 0=new, 1=full
	Elongation float64   // Sun-Moon angular separation in degrees [0..180]
	Waxing     bool      // true if waxing (illumination increasing), false if waning
	Name       string    // e.g. "New Moon", "Waxing Crescent", "First Quarter", ...
}

// MoonPhaseAt computes the Moon's illuminated fraction and qualitative phase
// at the given time from the Sun and Moon equatorial models. Phase is a
// global property, so the returned Time keeps the caller's zone.
func MoonPhaseAt(t time.Time) MoonPhase {
	utc := t.UTC()

	mEq := moon.GeocentricEquatorialApprox(utc)
	sEq := sun.GeocentricEquatorialApprox(utc)

	raSun := timeutil.Deg2Rad(sEq.RA)
	decSun := timeutil.Deg2Rad(sEq.Dec)
	raMoon := timeutil.Deg2Rad(mEq.RA)
	decMoon := timeutil.Deg2Rad(mEq.Dec)

	// cos ψ = sin δs sin δm + cos δs cos δm cos(αs - αm)
	cosPsi := math.Sin(decSun)*math.Sin(decMoon) +
		math.Cos(decSun)*math.Cos(decMoon)*math.Cos(raSun-raMoon)
	cosPsi = math.Max(-1, math.Min(1, cosPsi))

	// Which side of the Sun the Moon is on decides waxing vs waning.
	sepDeg := timeutil.Normalize360(mEq.RA - sEq.RA)

	return phase(t, timeutil.Rad2Deg(math.Acos(cosPsi)), sepDeg < 180.0)
}

// PhaseFromLongitudes classifies the phase from ecliptic longitudes, as used
// by the daily tables where both longitudes are already sampled.
func PhaseFromLongitudes(t time.Time, sunLon, moonLon float64) MoonPhase {
	elong := angle.Normalize(moonLon - sunLon)
	return phase(t, angle.MinAngle(sunLon, moonLon), elong < 180.0)
}

// phaseNames label the eight 45° elongation bands, each centred on its
// angle: New Moon on 0°, First Quarter on 90° and so on.
var phaseNames = [8]string{
	"New Moon",
	"Waxing Crescent",
	"First Quarter",
	"Waxing Gibbous",
	"Full Moon",
	"Waning Gibbous",
	"Last Quarter",
	"Waning Crescent",
}

// PhaseName names the phase at a Moon-minus-Sun elongation in degrees.
func PhaseName(elongation float64) string {
	i := int(angle.Normalize(elongation+22.5) / 45)
	return phaseNames[i%len(phaseNames)]
}

// phase builds a MoonPhase from the Sun–Moon separation ψ in [0, 180].
func phase(t time.Time, psi float64, waxing bool) MoonPhase {
	// k = (1 - cos ψ) / 2
	fraction := 0.5 * (1 - timeutil.CosD(psi))
	fraction = math.Max(0, math.Min(1, fraction))

	elong := psi
	if !waxing {
		elong = 360 - psi
	}

	return MoonPhase{
		Time:       t,
		Fraction:   fraction,
		Elongation: psi,
		Waxing:     waxing,
		Name:       PhaseName(elong),
	}
}
