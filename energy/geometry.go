package energy

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// The helpers below switch explicitly over the four geometry variants the
// builder can produce (Point, LineString, Polygon, MultiPolygon). Anything
// else is treated as invalid/non-matching rather than panicking, so a stray
// geometry can never abort a batch.

func GeometryValid(g orb.Geometry) bool {
	switch g := g.(type) {
	case orb.Point:
		return pointValid(g)
	case orb.LineString:
		if len(g) < 2 {
			return false
		}
		for _, p := range g {
			if !pointValid(p) {
				return false
			}
		}
		// zero-length lines are degenerate
		for _, p := range g[1:] {
			if !p.Equal(g[0]) {
				return true
			}
		}
		return false
	case orb.Polygon:
		if len(g) == 0 {
			return false
		}
		for _, ring := range g {
			if !ringValid(ring) {
				return false
			}
		}
		return true
	case orb.MultiPolygon:
		if len(g) == 0 {
			return false
		}
		for _, poly := range g {
			if !GeometryValid(poly) {
				return false
			}
		}
		return true
	}
	return false
}

func pointValid(p orb.Point) bool {
	for _, v := range []float64{p.Lon(), p.Lat()} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func ringValid(ring orb.Ring) bool {
	if len(ring) < 4 || !ring.Closed() {
		return false
	}
	for _, p := range ring {
		if !pointValid(p) {
			return false
		}
	}
	return math.Abs(planar.Area(ring)) > 0
}

// GeometryVertices returns the coordinates making up a geometry, in order.
func GeometryVertices(g orb.Geometry) []orb.Point {
	switch g := g.(type) {
	case orb.Point:
		return []orb.Point{g}
	case orb.LineString:
		return g
	case orb.Polygon:
		var points []orb.Point
		for _, ring := range g {
			points = append(points, ring...)
		}
		return points
	case orb.MultiPolygon:
		var points []orb.Point
		for _, poly := range g {
			points = append(points, GeometryVertices(poly)...)
		}
		return points
	}
	return nil
}

func polygonalContains(container orb.Geometry, p orb.Point) bool {
	switch container := container.(type) {
	case orb.Polygon:
		return planar.PolygonContains(container, p)
	case orb.MultiPolygon:
		return planar.MultiPolygonContains(container, p)
	}
	return false
}

// GeometryWithin reports whether g lies fully inside the container polygon:
// every vertex of g must be contained. A geometry with no vertices is never
// within anything.
func GeometryWithin(g orb.Geometry, container orb.Geometry) bool {
	vertices := GeometryVertices(g)
	if len(vertices) == 0 {
		return false
	}
	for _, p := range vertices {
		if !polygonalContains(container, p) {
			return false
		}
	}
	return true
}

// GeometryIntersects is the relaxed counterpart of GeometryWithin: one vertex
// of either geometry inside the other is enough.
func GeometryIntersects(g orb.Geometry, container orb.Geometry) bool {
	for _, p := range GeometryVertices(g) {
		if polygonalContains(container, p) {
			return true
		}
	}
	switch g.(type) {
	case orb.Polygon, orb.MultiPolygon:
		for _, p := range GeometryVertices(container) {
			if polygonalContains(g, p) {
				return true
			}
		}
	}
	return false
}

// GeometryDistance returns the planar distance from a point to a geometry,
// 0 when the geometry contains the point. Units follow the coordinate
// reference the geometry is expressed in.
func GeometryDistance(g orb.Geometry, p orb.Point) float64 {
	switch g := g.(type) {
	case orb.Point:
		return planar.Distance(g, p)
	case orb.LineString:
		return planar.DistanceFrom(g, p)
	case orb.Polygon:
		if planar.PolygonContains(g, p) {
			return 0
		}
		min := math.Inf(1)
		for _, ring := range g {
			d := planar.DistanceFrom(orb.LineString(ring), p)
			if d < min {
				min = d
			}
		}
		return min
	case orb.MultiPolygon:
		min := math.Inf(1)
		for _, poly := range g {
			d := GeometryDistance(poly, p)
			if d < min {
				min = d
			}
		}
		return min
	}
	return math.Inf(1)
}
