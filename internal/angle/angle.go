// Package angle holds the pure functions on ecliptic longitudes that every
// crossing detector relies on: sign decomposition, separations with
// 0°/360° wraparound, and zodiac boundary arithmetic.
package angle

import "math"

// SignWidth is the width of one zodiac sign in degrees.
const SignWidth = 30.0

// Signs are the tropical zodiac signs, indexed by SignIndex.
var Signs = [12]string{
	"Aries",
	"Taurus",
	"Gemini",
	"Cancer",
	"Leo",
	"Virgo",
	"Libra",
	"Scorpio",
	"Sagittarius",
	"Capricorn",
	"Aquarius",
	"Pisces",
}

// Normalize maps any angle into [0, 360).
func Normalize(deg float64) float64 {
	deg = math.Mod(deg, 360.0)
	if deg < 0 {
		deg += 360.0
	}
	// math.Mod(-1e-15, 360) + 360 rounds to exactly 360.
	if deg >= 360.0 {
		deg = 0
	}
	return deg
}

// MinAngle returns the smaller angular distance between a and b, in [0, 180].
func MinAngle(a, b float64) float64 {
	d := Normalize(b - a)
	if d > 180.0 {
		d = 360.0 - d
	}
	return d
}

// SignedSeparation returns how far b is ahead of a along the ecliptic,
// in (-180, 180]. Positive means b leads a.
//
// A change of sign between two samples means the bodies swapped order,
// either through conjunction (near 0) or opposition (near ±180).
func SignedSeparation(a, b float64) float64 {
	d := Normalize(b - a)
	if d > 180.0 {
		d -= 360.0
	}
	return d
}

// SignIndex returns the zodiac sign index 0..11 for a longitude.
func SignIndex(lon float64) int {
	i := int(math.Floor(Normalize(lon) / SignWidth))
	if i > 11 {
		i = 11
	}
	return i
}

// SignName returns the sign name for index i (taken mod 12).
func SignName(i int) string {
	return Signs[((i%12)+12)%12]
}

// Decompose splits a longitude into its sign name and degree within the sign.
func Decompose(lon float64) (sign string, degree float64) {
	n := Normalize(lon)
	i := SignIndex(n)
	return Signs[i], n - float64(i)*SignWidth
}

// BoundaryCrossed reports the sign boundary (a multiple of 30) crossed
// between two consecutive longitudes, in either direction.
//
// It reports false when both samples share a sign, and also when the
// indices are more than one sign apart.
func BoundaryCrossed(prev, curr float64) (float64, bool) {
	p := SignIndex(prev)
	c := SignIndex(curr)

	switch {
	case p == c:
		return 0, false
	case c == (p+1)%12:
		// forward
		return float64(c) * SignWidth, true
	case p == (c+1)%12:
		// backward: the boundary is the start of the sign being left
		return float64(p) * SignWidth, true
	default:
		return 0, false
	}
}
