package zone

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// square returns a closed unit square from (0,0) to (1,1).
func square() Ring {
	return Ring{
		{Lon: 0, Lat: 0},
		{Lon: 1, Lat: 0},
		{Lon: 1, Lat: 1},
		{Lon: 0, Lat: 1},
		{Lon: 0, Lat: 0},
	}
}

func TestRingValidate(t *testing.T) {
	assert.NoError(t, square().Validate())

	open := square()
	open[len(open)-1] = Point{Lon: 0.5, Lat: 0.5}
	assert.Error(t, open.Validate(), "unclosed ring must be rejected")

	short := Ring{{Lon: 0, Lat: 0}, {Lon: 1, Lat: 1}, {Lon: 0, Lat: 0}}
	assert.Error(t, short.Validate())

	bad := square()
	bad[1].Lat = math.NaN()
	assert.Error(t, bad.Validate())
}

func TestRingContains(t *testing.T) {
	r := square()

	assert.True(t, r.Contains(Point{Lon: 0.5, Lat: 0.5}))
	assert.True(t, r.Contains(Point{Lon: 0.01, Lat: 0.99}))
	assert.False(t, r.Contains(Point{Lon: 1.5, Lat: 0.5}))
	assert.False(t, r.Contains(Point{Lon: -0.1, Lat: 0.5}))
	assert.False(t, r.Contains(Point{Lon: 0.5, Lat: 2}))
}

func TestRingContainsConcave(t *testing.T) {
	// L-shape: a 2x2 square with the top-right 1x1 corner removed.
	r := Ring{
		{Lon: 0, Lat: 0},
		{Lon: 2, Lat: 0},
		{Lon: 2, Lat: 1},
		{Lon: 1, Lat: 1},
		{Lon: 1, Lat: 2},
		{Lon: 0, Lat: 2},
		{Lon: 0, Lat: 0},
	}
	require.NoError(t, r.Validate())

	assert.True(t, r.Contains(Point{Lon: 0.5, Lat: 1.5}))
	assert.True(t, r.Contains(Point{Lon: 1.5, Lat: 0.5}))
	assert.False(t, r.Contains(Point{Lon: 1.5, Lat: 1.5}), "removed corner is outside")
}

func TestPointJSONRoundTrip(t *testing.T) {
	p := Point{Lon: -46.65, Lat: -23.55}

	data, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, `[-46.65, -23.55]`, string(data))

	var got Point
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, p, got)
}

func TestZoneContains(t *testing.T) {
	campusID := newTestID(t)
	z, err := NewZone(campusID, "A1", square())
	require.NoError(t, err)

	// Zone.Contains takes lat/lon; the ring stores lon/lat.
	assert.True(t, z.Contains(0.5, 0.5))
	assert.False(t, z.Contains(0.5, 3))
}
