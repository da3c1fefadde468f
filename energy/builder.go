package energy

import (
	"github.com/jamesrr39/goutil/logpkg"
	"github.com/paulmach/orb"
)

// BuildFeatures resolves an element graph into geometry-bearing features.
//
// Nodes become Points. Ways become Polygons when their resolved coordinate
// sequence closes with at least 4 points, LineStrings otherwise. Relations
// become MultiPolygons assembled from their outer way members (a single ring
// collapses to a Polygon). Elements whose geometry cannot be resolved, or
// resolves to something degenerate, are dropped; a bad ring inside a relation
// drops only that ring. Duplicated element IDs keep the first occurrence.
func BuildFeatures(logger *logpkg.Logger, graph *ElementGraph) []*Feature {
	nodeByID := make(map[int64]*Node, len(graph.Nodes))
	for _, node := range graph.Nodes {
		if _, ok := nodeByID[node.ID]; ok {
			continue
		}
		nodeByID[node.ID] = node
	}

	wayByID := make(map[int64]*Way, len(graph.Ways))
	for _, way := range graph.Ways {
		if _, ok := wayByID[way.ID]; ok {
			continue
		}
		wayByID[way.ID] = way
	}

	var features []*Feature

	appendFeature := func(id int64, objectType ObjectType, tags TagMap, geometry orb.Geometry) {
		if geometry == nil || !GeometryValid(geometry) {
			return
		}
		features = append(features, &Feature{
			OSMID:    id,
			OSMType:  objectType,
			Tags:     tags,
			Geometry: geometry,
		})
	}

	for _, node := range graph.Nodes {
		if nodeByID[node.ID] != node {
			continue
		}
		appendFeature(node.ID, ObjectTypeNode, node.Tags, orb.Point{node.Lon, node.Lat})
	}

	for _, way := range graph.Ways {
		if wayByID[way.ID] != way {
			continue
		}
		appendFeature(way.ID, ObjectTypeWay, way.Tags, buildWayGeometry(way, nodeByID))
	}

	seenRelations := make(map[int64]bool, len(graph.Relations))
	for _, relation := range graph.Relations {
		if seenRelations[relation.ID] {
			continue
		}
		seenRelations[relation.ID] = true
		appendFeature(relation.ID, ObjectTypeRelation, relation.Tags, buildRelationGeometry(logger, relation, wayByID, nodeByID))
	}

	return features
}

// buildWayGeometry resolves a way's node references, skipping IDs missing
// from the lookup. Returns nil when fewer than 2 coordinates resolve.
func buildWayGeometry(way *Way, nodeByID map[int64]*Node) orb.Geometry {
	coords := resolveWayCoords(way, nodeByID)
	if len(coords) < 2 {
		return nil
	}

	if coords[0].Equal(coords[len(coords)-1]) && len(coords) >= 4 {
		return orb.Polygon{orb.Ring(coords)}
	}
	return orb.LineString(coords)
}

// buildRelationGeometry assembles candidate rings from the relation's outer
// way members. Rings need at least 3 resolved coordinates and are closed
// automatically when the source way is not. Invalid rings are logged and
// skipped without aborting the relation.
func buildRelationGeometry(logger *logpkg.Logger, relation *Relation, wayByID map[int64]*Way, nodeByID map[int64]*Node) orb.Geometry {
	var rings []orb.Polygon
	for _, member := range relation.Members {
		if member.Type != ObjectTypeWay {
			continue
		}
		if member.Role != "outer" && member.Role != "" {
			continue
		}

		way, ok := wayByID[member.Ref]
		if !ok {
			continue
		}

		coords := resolveWayCoords(way, nodeByID)
		if len(coords) < 3 {
			continue
		}
		if !coords[0].Equal(coords[len(coords)-1]) {
			coords = append(coords, coords[0])
		}

		ring := orb.Polygon{orb.Ring(coords)}
		if !GeometryValid(ring) {
			logger.Warn("invalid polygon ring from way %d in relation %d, skipping ring", way.ID, relation.ID)
			continue
		}

		rings = append(rings, ring)
	}

	switch len(rings) {
	case 0:
		return nil
	case 1:
		return rings[0]
	}

	multiPolygon := make(orb.MultiPolygon, 0, len(rings))
	for _, ring := range rings {
		multiPolygon = append(multiPolygon, ring)
	}
	return multiPolygon
}

func resolveWayCoords(way *Way, nodeByID map[int64]*Node) []orb.Point {
	var coords []orb.Point
	for _, nodeID := range way.NodeIDs {
		node, ok := nodeByID[nodeID]
		if !ok {
			continue
		}
		coords = append(coords, orb.Point{node.Lon, node.Lat})
	}
	return coords
}
