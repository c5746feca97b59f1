package geometry

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrInvalidGeometry is returned for malformed region definitions.
var ErrInvalidGeometry = errors.New("invalid geometry")

// Point is a position on the (longitude, latitude) plane.
type Point struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}

// Region is an immutable simple polygon answering containment queries.
// Containment is planar and boundary-inclusive: points exactly on an edge
// or vertex count as inside.
type Region struct {
	name string
	ring []Point

	minLon, minLat float64
	maxLon, maxLat float64
}

// NewRegion builds a region from an ordered vertex ring. A trailing vertex
// equal to the first is accepted and discarded. Fails if fewer than 3
// distinct vertices remain or any coordinate is NaN or infinite.
func NewRegion(name string, ring []Point) (*Region, error) {
	for _, p := range ring {
		if math.IsNaN(p.Lon) || math.IsInf(p.Lon, 0) || math.IsNaN(p.Lat) || math.IsInf(p.Lat, 0) {
			return nil, fmt.Errorf("%w: region %q has non-finite coordinate (%v, %v)", ErrInvalidGeometry, name, p.Lon, p.Lat)
		}
	}

	// Drop an explicit closing vertex.
	if len(ring) > 1 && ring[0] == ring[len(ring)-1] {
		ring = ring[:len(ring)-1]
	}

	distinct := make(map[Point]struct{}, len(ring))
	for _, p := range ring {
		distinct[p] = struct{}{}
	}
	if len(distinct) < 3 {
		return nil, fmt.Errorf("%w: region %q needs at least 3 distinct vertices, got %d", ErrInvalidGeometry, name, len(distinct))
	}

	r := &Region{
		name:   name,
		ring:   append([]Point(nil), ring...),
		minLon: math.Inf(1),
		minLat: math.Inf(1),
		maxLon: math.Inf(-1),
		maxLat: math.Inf(-1),
	}
	for _, p := range r.ring {
		r.minLon = math.Min(r.minLon, p.Lon)
		r.maxLon = math.Max(r.maxLon, p.Lon)
		r.minLat = math.Min(r.minLat, p.Lat)
		r.maxLat = math.Max(r.maxLat, p.Lat)
	}
	return r, nil
}

// Name returns the region's name.
func (r *Region) Name() string {
	return r.name
}

// Ring returns a copy of the region's vertex ring.
func (r *Region) Ring() []Point {
	return append([]Point(nil), r.ring...)
}

// Contains reports whether p lies inside the region, boundary included.
func (r *Region) Contains(p Point) bool {
	if p.Lon < r.minLon || p.Lon > r.maxLon || p.Lat < r.minLat || p.Lat > r.maxLat {
		return false
	}

	// Boundary check first: the even-odd ray cast below is unreliable for
	// points exactly on an edge, and the containment contract is closed.
	n := len(r.ring)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		if onSegment(p, r.ring[j], r.ring[i]) {
			return true
		}
	}

	// Even-odd ray cast.
	inside := false
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		a, b := r.ring[i], r.ring[j]
		if (a.Lat > p.Lat) != (b.Lat > p.Lat) {
			x := (b.Lon-a.Lon)*(p.Lat-a.Lat)/(b.Lat-a.Lat) + a.Lon
			if p.Lon < x {
				inside = !inside
			}
		}
	}
	return inside
}

// onSegment reports whether p lies on the closed segment ab.
func onSegment(p, a, b Point) bool {
	cross := (b.Lon-a.Lon)*(p.Lat-a.Lat) - (b.Lat-a.Lat)*(p.Lon-a.Lon)
	if cross != 0 {
		return false
	}
	return p.Lon >= math.Min(a.Lon, b.Lon) && p.Lon <= math.Max(a.Lon, b.Lon) &&
		p.Lat >= math.Min(a.Lat, b.Lat) && p.Lat <= math.Max(a.Lat, b.Lat)
}

// ParseRing parses a vertex ring from text, one "lat, lon" pair per line.
// All malformed lines are collected and reported together.
func ParseRing(text string) ([]Point, error) {
	var (
		points  []Point
		badRows []string
	)
	for _, line := range strings.Split(strings.TrimSpace(text), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		parts := strings.Split(line, ",")
		if len(parts) != 2 {
			badRows = append(badRows, line)
			continue
		}
		lat, latErr := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
		lon, lonErr := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if latErr != nil || lonErr != nil {
			badRows = append(badRows, line)
			continue
		}
		points = append(points, Point{Lon: lon, Lat: lat})
	}
	if len(badRows) > 0 {
		return nil, fmt.Errorf("%w: unparseable coordinate lines: %s", ErrInvalidGeometry, strings.Join(badRows, "; "))
	}
	return points, nil
}
