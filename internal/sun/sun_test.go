package sun

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEclipticApprox_Cardinals(t *testing.T) {
	tests := []struct {
		name string
		t    time.Time
		want float64
	}{
		// 2025 equinoxes and solstices, UTC.
		{"march equinox", time.Date(2025, time.March, 20, 9, 1, 0, 0, time.UTC), 0},
		{"june solstice", time.Date(2025, time.June, 21, 2, 42, 0, 0, time.UTC), 90},
		{"september equinox", time.Date(2025, time.September, 22, 18, 19, 0, 0, time.UTC), 180},
		{"december solstice", time.Date(2025, time.December, 21, 15, 3, 0, 0, time.UTC), 270},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EclipticApprox(tt.t).Longitude
			diff := got - tt.want
			if diff > 180 {
				diff -= 360
			}
			assert.InDelta(t, 0, diff, 0.05, "longitude %v", got)
		})
	}
}

func TestEclipticApprox_Distance(t *testing.T) {
	perihelion := EclipticApprox(time.Date(2025, time.January, 4, 13, 0, 0, 0, time.UTC))
	aphelion := EclipticApprox(time.Date(2025, time.July, 3, 20, 0, 0, 0, time.UTC))

	assert.InDelta(t, 0.9833, perihelion.Distance, 0.0005)
	assert.InDelta(t, 1.0167, aphelion.Distance, 0.0005)
}

func TestSubSolarPoint_Equinox(t *testing.T) {
	// Near 12:00 UTC at an equinox the Sun stands over the equator close to
	// the Greenwich meridian (offset by the equation of time).
	lat, lon := SubSolarPoint(time.Date(2025, time.March, 20, 12, 0, 0, 0, time.UTC))

	assert.InDelta(t, 0, lat, 0.1)
	assert.InDelta(t, 0, lon, 3)
}
