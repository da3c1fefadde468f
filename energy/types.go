package energy

import (
	"fmt"

	"github.com/paulmach/orb"
)

type ObjectType int

const (
	ObjectTypeUnknown  ObjectType = 0
	ObjectTypeNode     ObjectType = 1
	ObjectTypeWay      ObjectType = 2
	ObjectTypeRelation ObjectType = 3
)

func (ot ObjectType) String() string {
	switch ot {
	case ObjectTypeNode:
		return "node"
	case ObjectTypeWay:
		return "way"
	case ObjectTypeRelation:
		return "relation"
	}
	return fmt.Sprintf("unknown object type: %d", int(ot))
}

type TagMap map[string]string

// tag keys used by the facility filter and the output projection
const (
	TagKeyPower       = "power"
	TagKeySubstation  = "substation"
	TagKeyName        = "name"
	TagKeyNameEN      = "name:en"
	TagKeyOperator    = "operator"
	TagKeyOperatorEN  = "operator:en"
	TagKeyBarrier     = "barrier"
	TagKeyVoltage     = "voltage"
	TagKeyLanduse     = "landuse"
	TagKeyPlantMethod = "plant:method"
	TagKeyPlantOutput = "plant:output:electricity"
	TagKeyPlantSource = "plant:source"

	SubstationTypeTransmission = "transmission"
)

type Node struct {
	ID       int64
	Lat, Lon float64
	Tags     TagMap
}

type Way struct {
	ID      int64
	NodeIDs []int64
	Tags    TagMap
}

type Member struct {
	Type ObjectType
	Ref  int64
	Role string
}

type Relation struct {
	ID      int64
	Members []Member
	Tags    TagMap
}

// ElementGraph is one batch of raw Overpass elements. Ways reference nodes
// and relations reference ways by ID only; the graph is resolved into
// geometries by BuildFeatures.
type ElementGraph struct {
	Nodes     []*Node
	Ways      []*Way
	Relations []*Relation
}

func (g *ElementGraph) Len() int {
	return len(g.Nodes) + len(g.Ways) + len(g.Relations)
}

// Merge appends another batch onto g. Elements already present (same ID and
// type) keep their first occurrence; lookups in BuildFeatures ignore later
// duplicates.
func (g *ElementGraph) Merge(other *ElementGraph) {
	g.Nodes = append(g.Nodes, other.Nodes...)
	g.Ways = append(g.Ways, other.Ways...)
	g.Relations = append(g.Relations, other.Relations...)
}

// Feature is one reconstructed power-infrastructure feature. The filter
// prunes Tags to the output attribute set, and the two enrichment passes
// fill Oblast and GPPDOverlap in place.
type Feature struct {
	OSMID    int64
	OSMType  ObjectType
	Tags     TagMap
	Geometry orb.Geometry

	// Oblast is empty until assigned; it stays empty when no oblast polygon
	// contains or intersects the feature.
	Oblast      string
	GPPDOverlap bool
}
