package zone

import (
	"encoding/json"
	"fmt"
	"math"
)

// Point is a geographic coordinate in WGS84.
type Point struct {
	Lon float64
	Lat float64
}

// MarshalJSON encodes the point as a [lon, lat] pair, matching the
// GeoJSON position convention used for stored boundaries.
func (p Point) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{p.Lon, p.Lat})
}

// UnmarshalJSON decodes a [lon, lat] pair.
func (p *Point) UnmarshalJSON(data []byte) error {
	var pair [2]float64
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("invalid point: %w", err)
	}
	p.Lon = pair[0]
	p.Lat = pair[1]
	return nil
}

// Ring is a closed polygon boundary: an ordered sequence of lon/lat
// points whose first and last points are equal. No reprojection is ever
// applied; all containment math happens directly in degrees.
type Ring []Point

// Validate checks that the ring is well formed: at least four points
// (a triangle plus the closing point), closed, and all coordinates finite.
func (r Ring) Validate() error {
	if len(r) < 4 {
		return fmt.Errorf("ring must have at least 4 points, got %d", len(r))
	}
	if r[0] != r[len(r)-1] {
		return fmt.Errorf("ring is not closed: first %v != last %v", r[0], r[len(r)-1])
	}
	for i, p := range r {
		if math.IsNaN(p.Lon) || math.IsInf(p.Lon, 0) ||
			math.IsNaN(p.Lat) || math.IsInf(p.Lat, 0) {
			return fmt.Errorf("ring point %d is not finite", i)
		}
	}
	return nil
}

// Contains reports whether the point lies inside the ring, using the
// even-odd ray-casting rule. Points exactly on an edge are
// implementation-defined; callers that need determinism across adjacent
// zones must order candidate zones before testing (see Resolve).
func (r Ring) Contains(p Point) bool {
	inside := false
	n := len(r)
	if n < 4 {
		return false
	}
	// The closing point duplicates the first, so iterate edges j->i
	// over the open ring.
	for i, j := 0, n-2; i < n-1; j, i = i, i+1 {
		yi, yj := r[i].Lat, r[j].Lat
		xi, xj := r[i].Lon, r[j].Lon
		if (yi > p.Lat) != (yj > p.Lat) &&
			p.Lon < (xj-xi)*(p.Lat-yi)/(yj-yi)+xi {
			inside = !inside
		}
	}
	return inside
}
