package timeutil

import (
	"math"
	"time"
)

// Day is one sampling step of the yearly scans.
const Day = 24 * time.Hour

// ISOLayout is the UTC timestamp format used in every generated document.
const ISOLayout = "2006-01-02T15:04:05Z"

// YearBounds returns [Jan 1 00:00 UTC, Jan 1 00:00 UTC of the next year).
func YearBounds(year int) (start, end time.Time) {
	start = time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	end = time.Date(year+1, time.January, 1, 0, 0, 0, 0, time.UTC)
	return start, end
}

// FormatISO formats t in UTC, truncated to whole seconds.
func FormatISO(t time.Time) string {
	return t.UTC().Truncate(time.Second).Format(ISOLayout)
}

// -----------------------------
// Time relative to J2000
// -----------------------------

// j2000 is the J2000.0 epoch: 2000-01-01 12:00:00 UTC.
var j2000 = time.Date(2000, time.January, 1, 12, 0, 0, 0, time.UTC)


// DaysSinceJ2000 returns the number of (UTC) days since the J2000.0 epoch.
//
// UTC is used in place of TT; the ~70 s difference is far below the
// accuracy of the analytical models that consume it.
func DaysSinceJ2000(t time.Time) float64 {
	return float64(t.UTC().Sub(j2000)) / float64(Day)
}

// JulianDay returns the Julian day number of t (Meeus ch. 7).
func JulianDay(t time.Time) float64 {
	u := t.UTC()
	year, month, day := u.Date()
	hour := float64(u.Hour()) +
		float64(u.Minute())/60.0 +
		float64(u.Second())/3600.0 +
		float64(u.Nanosecond())/(3600.0*1e9)

	y := year
	m := int(month)

	if m <= 2 {
		y -= 1
		m += 12
	}

	A := y / 100
	B := 2 - A + A/4

	jd := math.Floor(365.25*float64(y+4716)) +
		math.Floor(30.6001*float64(m+1)) +
		float64(day) + float64(B) - 1524.5 +
		hour/24.0

	return jd
}

// JulianCenturies returns centuries since J2000.0.
func JulianCenturies(t time.Time) float64 {
	jd := JulianDay(t)
	return (jd - 2451545.0) / 36525.0
}

// -----------------------------
// Basic degree/radian helpers and trig with degree inputs.
// -----------------------------

func Deg2Rad(d float64) float64 {
	return d * math.Pi / 180.0
}

func Rad2Deg(r float64) float64 {
	return r * 180.0 / math.Pi
}

func CosD(deg float64) float64 {
	return math.Cos(Deg2Rad(deg))
}

func Normalize360(d float64) float64 {
	d = math.Mod(d, 360.0)
	if d < 0 {
		d += 360.0
	}
	return d
}

// GMST returns the Greenwich mean sidereal time in degrees.
func GMST(t time.Time) float64 {
	d := DaysSinceJ2000(t)
	return Normalize360(280.46061837 + 360.98564736629*d)
}
