// Package planets computes approximate geocentric ecliptic positions of the
// major planets from Keplerian orbital elements.
//
// Elements and rates are the J2000 mean elements of Standish (JPL), valid
// for 1800–2050 AD. Positions are referred to the mean equinox of date by
// adding general precession in longitude.
package planets

import (
	"math"
	"time"

	"github.com/thurmanmarka/astrocal/internal/timeutil"
)

// Elements holds mean orbital elements at J2000 and their rates per
// Julian century.
type Elements struct {
	A, ADot       float64 // semi-major axis, AU
	E, EDot       float64 // eccentricity
	I, IDot       float64 // inclination, degrees
	L, LDot       float64 // mean longitude, degrees
	Peri, PeriDot float64 // longitude of perihelion, degrees
	Node, NodeDot float64 // longitude of the ascending node, degrees
}

var (
	Mercury = Elements{
		0.38709927, 0.00000037, 0.20563593, 0.00001906, 7.00497902, -0.00594749,
		252.25032350, 149472.67411175, 77.45779628, 0.16047689, 48.33076593, -0.12534081,
	}
	Venus = Elements{
		0.72333566, 0.00000390, 0.00677672, -0.00004107, 3.39467605, -0.00078890,
		181.97909950, 58517.81538729, 131.60246718, 0.00268329, 76.67984255, -0.27769418,
	}
	// EarthMoon is the Earth–Moon barycenter.
	EarthMoon = Elements{
		1.00000261, 0.00000562, 0.01671123, -0.00004392, -0.00001531, -0.01294668,
		100.46457166, 35999.37244981, 102.93768193, 0.32327364, 0, 0,
	}
	Mars = Elements{
		1.52371034, 0.00001847, 0.09339410, 0.00007882, 1.84969142, -0.00813131,
		-4.55343205, 19140.30268499, -23.94362959, 0.44441088, 49.55953891, -0.29257343,
	}
	Jupiter = Elements{
		5.20288700, -0.00011607, 0.04838624, -0.00013253, 1.30439695, -0.00183714,
		34.39644051, 3034.74612775, 14.72847983, 0.21252668, 100.47390909, 0.20469106,
	}
	Saturn = Elements{
		9.53667594, -0.00125060, 0.05386179, -0.00050991, 2.48599187, 0.00193609,
		49.95424423, 1222.49362201, 92.59887831, -0.41897216, 113.66242448, -0.28867794,
	}
	Uranus = Elements{
		19.18916464, -0.00196176, 0.04725744, -0.00004397, 0.77263783, -0.00242939,
		313.23810451, 428.48202785, 170.95427630, 0.40805281, 74.01692503, 0.04240589,
	}
	Neptune = Elements{
		30.06992276, 0.00026291, 0.00859048, 0.00005105, 1.77004347, 0.00035372,
		-55.12002969, 218.45945325, 44.96476227, -0.32241464, 131.78422574, -0.00508664,
	}
	Pluto = Elements{
		39.48211675, -0.00031596, 0.24882730, 0.00005170, 17.14001206, 0.00004818,
		238.92903833, 145.20780515, 224.06891629, -0.04062942, 110.30393684, -0.01183482,
	}
)

// precessionPerCentury is general precession in longitude, degrees.
const precessionPerCentury = 1.3969713

// Vector is a rectangular ecliptic position in AU.
type Vector struct {
	X, Y, Z float64
}

// Ecliptic is a spherical ecliptic position.
type Ecliptic struct {
	Longitude float64 // degrees [0, 360), equinox of date
	Latitude  float64 // degrees
	Distance  float64 // AU
}

// Heliocentric returns the heliocentric ecliptic (J2000) position of the
// body described by el at time t.
func Heliocentric(el Elements, t time.Time) Vector {
	T := timeutil.JulianCenturies(t)

	a := el.A + el.ADot*T
	e := el.E + el.EDot*T
	inc := timeutil.Deg2Rad(el.I + el.IDot*T)
	L := el.L + el.LDot*T
	peri := el.Peri + el.PeriDot*T
	node := el.Node + el.NodeDot*T

	omega := timeutil.Deg2Rad(peri - node) // argument of perihelion
	M := timeutil.Deg2Rad(normalize180(L - peri))
	E := solveKepler(M, e)

	// Position in the orbital plane.
	xp := a * (math.Cos(E) - e)
	yp := a * math.Sqrt(1-e*e) * math.Sin(E)

	nodeR := timeutil.Deg2Rad(node)
	cw, sw := math.Cos(omega), math.Sin(omega)
	cn, sn := math.Cos(nodeR), math.Sin(nodeR)
	ci, si := math.Cos(inc), math.Sin(inc)

	return Vector{
		X: (cw*cn-sw*sn*ci)*xp + (-sw*cn-cw*sn*ci)*yp,
		Y: (cw*sn+sw*cn*ci)*xp + (-sw*sn+cw*cn*ci)*yp,
		Z: (sw*si)*xp + (cw*si)*yp,
	}
}

// Geocentric returns the geocentric ecliptic position of the body described
// by el at time t, referred to the mean equinox of date.
func Geocentric(el Elements, t time.Time) Ecliptic {
	p := Heliocentric(el, t)
	earth := Heliocentric(EarthMoon, t)

	x := p.X - earth.X
	y := p.Y - earth.Y
	z := p.Z - earth.Z

	return toSpherical(x, y, z, t)
}

func toSpherical(x, y, z float64, t time.Time) Ecliptic {
	rho := math.Hypot(x, y)
	lon := timeutil.Rad2Deg(math.Atan2(y, x)) + precessionPerCentury*timeutil.JulianCenturies(t)

	return Ecliptic{
		Longitude: timeutil.Normalize360(lon),
		Latitude:  timeutil.Rad2Deg(math.Atan2(z, rho)),
		Distance:  math.Sqrt(rho*rho + z*z),
	}
}

// solveKepler solves M = E − e·sin E for E (radians) by Newton iteration.
func solveKepler(M, e float64) float64 {
	E := M + e*math.Sin(M)
	for i := 0; i < 30; i++ {
		dE := (E - e*math.Sin(E) - M) / (1 - e*math.Cos(E))
		E -= dE
		if math.Abs(dE) < 1e-12 {
			break
		}
	}
	return E
}

func normalize180(deg float64) float64 {
	deg = timeutil.Normalize360(deg)
	if deg > 180 {
		deg -= 360
	}
	return deg
}
