// Package moon implements a medium-precision geocentric lunar model built
// from a small set of dominant periodic terms (truncated Meeus-style series).
package moon

import (
	"math"
	"time"

	"github.com/thurmanmarka/astrocal/internal/timeutil"
)

// KmPerAU converts lunar distances to astronomical units.
const KmPerAU = 149597870.7

// MeanRadiusKm is the Moon's mean radius.
const MeanRadiusKm = 1737.4

// Equatorial represents equatorial coordinates (right ascension and declination)
// in degrees. RA is in degrees (0–360) instead of hours to stay consistent with
// internal math helpers.
type Equatorial struct {
	RA  float64 // right ascension, degrees
	Dec float64 // declination, degrees
}

// Ecliptic is the Moon's geocentric ecliptic position.
type Ecliptic struct {
	Longitude float64 // degrees [0, 360)
	Latitude  float64 // degrees
	Distance  float64 // km
}

// EclipticApprox returns the Moon's geocentric ecliptic longitude, latitude
// and distance at time t.
//
// Fundamental arguments:
//
//	L'  = mean longitude of the Moon
//	M   = mean anomaly of the Sun
//	Mm  = mean anomaly of the Moon
//	D   = mean elongation of the Moon from the Sun
//	F   = argument of latitude of the Moon
func EclipticApprox(t time.Time) Ecliptic {
	d := timeutil.DaysSinceJ2000(t)

	// All linear coefficients here are in deg/day.
	Lprime := timeutil.Normalize360(218.3164477 + 13.17639648*d)
	M := timeutil.Normalize360(357.5291092 + 0.98560028*d)
	Mm := timeutil.Normalize360(134.9633964 + 13.06499295*d)
	D := timeutil.Normalize360(297.8501921 + 12.19074912*d)
	F := timeutil.Normalize360(93.2720950 + 13.22935024*d)

	Mr := timeutil.Deg2Rad(M)
	Mmr := timeutil.Deg2Rad(Mm)
	Dr := timeutil.Deg2Rad(D)
	Fr := timeutil.Deg2Rad(F)

	// λ ≈ L' + 6.289 sin(Mm) + 1.274 sin(2D − Mm)
	//      + 0.658 sin(2D) + 0.214 sin(2Mm) − 0.186 sin(M)
	//      − 0.114 sin(2F) + the next seven terms of Meeus table 47.A
	lon := Lprime +
		6.289*math.Sin(Mmr) +
		1.274*math.Sin(2*Dr-Mmr) +
		0.658*math.Sin(2*Dr) +
		0.214*math.Sin(2*Mmr) -
		0.186*math.Sin(Mr) -
		0.114*math.Sin(2*Fr) +
		0.0588*math.Sin(2*Dr-2*Mmr) +
		0.0571*math.Sin(2*Dr-Mr-Mmr) +
		0.0533*math.Sin(2*Dr+Mmr) +
		0.0458*math.Sin(2*Dr-Mr) -
		0.0409*math.Sin(Mr-Mmr) -
		0.0347*math.Sin(Dr) -
		0.0304*math.Sin(Mr+Mmr)

	// β ≈ 5.128 sin(F) + 0.280 sin(Mm + F)
	//      + 0.277 sin(Mm − F) + 0.173 sin(2D − F)
	//      + the next four terms of Meeus table 47.B
	lat := 5.128*math.Sin(Fr) +
		0.280*math.Sin(Mmr+Fr) +
		0.277*math.Sin(Mmr-Fr) +
		0.173*math.Sin(2*Dr-Fr) +
		0.0554*math.Sin(2*Dr-Mmr+Fr) +
		0.0463*math.Sin(2*Dr-Mmr-Fr) +
		0.0326*math.Sin(2*Dr+Fr) +
		0.0172*math.Sin(2*Mmr+Fr)

	return Ecliptic{
		Longitude: timeutil.Normalize360(lon),
		Latitude:  lat,
		Distance:  distanceKm(t),
	}
}

// distanceKm returns the Earth–Moon distance from a truncated series.
func distanceKm(t time.Time) float64 {
	T := timeutil.JulianCenturies(t)

	D := timeutil.Normalize360(297.8501921 + 445267.1114034*T)  // mean elongation
	M1 := timeutil.Normalize360(134.9633964 + 477198.8675055*T) // Moon mean anomaly

	Dr := timeutil.Deg2Rad(D)
	M1r := timeutil.Deg2Rad(M1)

	return 385000.56 -
		20905.0*math.Cos(M1r) -
		3699.0*math.Cos(2*Dr-M1r) -
		2956.0*math.Cos(2*Dr) -
		570.0*math.Cos(2*M1r) -
		246.0*math.Cos(2*Dr+M1r)
}

// GeocentricEquatorialApprox returns an approximate geocentric RA/Dec for the
// Moon at the given time t.
func GeocentricEquatorialApprox(t time.Time) Equatorial {
	ecl := EclipticApprox(t)
	d := timeutil.DaysSinceJ2000(t)

	lon := timeutil.Deg2Rad(ecl.Longitude)
	lat := timeutil.Deg2Rad(ecl.Latitude)

	// Mean obliquity of the ecliptic ε (deg) – simple linear model.
	eps := timeutil.Deg2Rad(23.439291 - 0.0000137*d)

	x := math.Cos(lat) * math.Cos(lon)
	y := math.Cos(lat) * math.Sin(lon)
	z := math.Sin(lat)

	xEq := x
	yEq := y*math.Cos(eps) - z*math.Sin(eps)
	zEq := y*math.Sin(eps) + z*math.Cos(eps)

	ra := math.Atan2(yEq, xEq)
	if ra < 0 {
		ra += 2 * math.Pi
	}
	dec := math.Asin(zEq)

	return Equatorial{
		RA:  timeutil.Rad2Deg(ra),
		Dec: timeutil.Rad2Deg(dec),
	}
}

// MeanNode returns the ecliptic longitude of the Moon's mean ascending node
// (Meeus 47.7), in degrees [0, 360).
func MeanNode(t time.Time) float64 {
	T := timeutil.JulianCenturies(t)
	return timeutil.Normalize360(125.0445479 - 1934.1362891*T + 0.0020754*T*T)
}
