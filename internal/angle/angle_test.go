package angle

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMinAngle_Wraparound(t *testing.T) {
	tests := []struct {
		a, b, want float64
	}{
		{359, 1, 2},
		{1, 359, 2},
		{0, 180, 180},
		{10, 100, 90},
		{350, 170, 180},
		{120, 0, 120},
	}

	for _, tt := range tests {
		assert.InDelta(t, tt.want, MinAngle(tt.a, tt.b), 1e-9, "MinAngle(%v, %v)", tt.a, tt.b)
	}
}

func TestSignedSeparation(t *testing.T) {
	tests := []struct {
		name       string
		a, b, want float64
	}{
		{"straddling zero", 359, 1, 2},
		{"reverse straddle", 1, 359, -2},
		{"b leads", 10, 25, 15},
		{"a leads", 25, 10, -15},
		{"opposition is +180", 0, 180, 180},
		{"never -180", 180, 0, 180},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SignedSeparation(tt.a, tt.b)
			assert.InDelta(t, tt.want, got, 1e-9)
			assert.Greater(t, got, -180.0)
			assert.LessOrEqual(t, got, 180.0)
		})
	}
}

func TestBoundaryCrossed_Symmetry(t *testing.T) {
	b, ok := BoundaryCrossed(29.9, 30.1)
	assert.True(t, ok)
	assert.Equal(t, 30.0, b)

	b, ok = BoundaryCrossed(30.1, 29.9)
	assert.True(t, ok, "retrograde crossing must be detected")
	assert.Equal(t, 30.0, b)

	_, ok = BoundaryCrossed(29.9, 29.95)
	assert.False(t, ok)
}

func TestBoundaryCrossed_PiscesAries(t *testing.T) {
	b, ok := BoundaryCrossed(359.8, 0.3)
	assert.True(t, ok)
	assert.Equal(t, 0.0, b)

	b, ok = BoundaryCrossed(0.3, 359.8)
	assert.True(t, ok)
	assert.Equal(t, 0.0, b)
}

func TestBoundaryCrossed_SkipIsNone(t *testing.T) {
	_, ok := BoundaryCrossed(29, 61)
	assert.False(t, ok)
}

func TestDecompose(t *testing.T) {
	sign, deg := Decompose(275.5)
	assert.Equal(t, "Capricorn", sign)
	assert.InDelta(t, 5.5, deg, 1e-9)

	sign, deg = Decompose(-0.5)
	assert.Equal(t, "Pisces", sign)
	assert.InDelta(t, 29.5, deg, 1e-9)

	assert.Equal(t, 11, SignIndex(359.9999))
	assert.Equal(t, "Aries", SignName(12))
}
