// Package sun implements a low/medium-precision geocentric solar model.
package sun

import (
	"math"
	"time"

	"github.com/thurmanmarka/astrocal/internal/timeutil"
)

// Equatorial represents equatorial coordinates (right ascension and declination)
// in degrees. RA is in degrees (0–360).
type Equatorial struct {
	RA  float64 // right ascension, degrees
	Dec float64 // declination, degrees
}

// Ecliptic is the Sun's apparent geocentric ecliptic position.
type Ecliptic struct {
	Longitude float64 // degrees [0, 360)
	Distance  float64 // AU
}

// elements evaluates the standard NOAA / Meeus-style solar model:
//
//	g  = mean anomaly of the Sun
//	q  = mean longitude of the Sun
//	L  = ecliptic longitude of the Sun (with equation of center)
//	eps = obliquity of the ecliptic
//
// All returned angles are in radians.
func elements(t time.Time) (g, L, eps float64) {
	d := timeutil.DaysSinceJ2000(t)

	g = timeutil.Deg2Rad(357.529 + 0.98560028*d)
	q := timeutil.Deg2Rad(280.459 + 0.98564736*d)

	L = q +
		timeutil.Deg2Rad(1.915)*math.Sin(g) +
		timeutil.Deg2Rad(0.020)*math.Sin(2*g)

	eps = timeutil.Deg2Rad(23.439 - 0.00000036*d)
	return g, L, eps
}

// EclipticApprox returns the Sun's geocentric ecliptic longitude and distance
// at time t. Accuracy is at the arcminute level between 1800 and 2050.
func EclipticApprox(t time.Time) Ecliptic {
	g, L, _ := elements(t)

	r := 1.00014 - 0.01671*math.Cos(g) - 0.00014*math.Cos(2*g)

	return Ecliptic{
		Longitude: timeutil.Normalize360(timeutil.Rad2Deg(L)),
		Distance:  r,
	}
}

// GeocentricEquatorialApprox returns an approximate geocentric RA/Dec for the Sun
// at the given time t.
func GeocentricEquatorialApprox(t time.Time) Equatorial {
	_, L, eps := elements(t)

	x := math.Cos(L)
	y := math.Cos(eps) * math.Sin(L)
	z := math.Sin(eps) * math.Sin(L)

	ra := math.Atan2(y, x)
	if ra < 0 {
		ra += 2 * math.Pi
	}
	dec := math.Asin(z)

	return Equatorial{
		RA:  timeutil.Rad2Deg(ra),
		Dec: timeutil.Rad2Deg(dec),
	}
}

// SubSolarPoint returns the geographic latitude and longitude (degrees, east
// positive, in (-180, 180]) where the Sun is at the zenith at time t.
func SubSolarPoint(t time.Time) (lat, lon float64) {
	eq := GeocentricEquatorialApprox(t)

	lon = timeutil.Normalize360(eq.RA - timeutil.GMST(t))
	if lon > 180 {
		lon -= 360
	}
	return eq.Dec, lon
}
