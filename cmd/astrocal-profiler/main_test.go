package main

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadReferences(t *testing.T) {
	in := `kind,body,time
new,,2025-01-29T12:36:00Z
Ingress,saturn,2025-05-25T03:35:00Z
station_direct,Pluto,not-a-time
full
eclipse_solar,Vulcan,2025-03-29T10:47:00Z
`
	refs, skipped, err := readReferences(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, 3, skipped)
	require.Len(t, refs, 2)

	assert.Equal(t, key{kind: "new"}, refs[0].key)
	assert.Equal(t, 2, refs[0].line)
	assert.Equal(t, key{kind: "ingress", body: "Saturn"}, refs[1].key)
	assert.Equal(t, time.Date(2025, time.May, 25, 3, 35, 0, 0, time.UTC), refs[1].at)
}

func TestNearest(t *testing.T) {
	ref := time.Date(2025, time.January, 29, 12, 0, 0, 0, time.UTC)
	cands := []time.Time{
		ref.Add(-30 * 24 * time.Hour),
		ref.Add(36 * time.Minute),
		ref.Add(29 * 24 * time.Hour),
	}

	got, ok := nearest(cands, ref, 72*time.Hour)
	require.True(t, ok)
	assert.Equal(t, cands[1], got)

	_, ok = nearest(cands, ref, 10*time.Minute)
	assert.False(t, ok)

	_, ok = nearest(nil, ref, time.Hour)
	assert.False(t, ok)
}

func TestStats(t *testing.T) {
	var s stats
	assert.True(t, math.IsNaN(s.mean()))

	for _, v := range []float64{-2, 4, math.NaN(), 1} {
		s.add(v)
	}
	assert.Equal(t, 3, s.count)
	assert.Equal(t, -2.0, s.min)
	assert.Equal(t, 4.0, s.max)
	assert.InDelta(t, 1.0, s.mean(), 1e-12)
}
