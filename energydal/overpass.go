package energydal

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/elenaivadreyer/ukr-energy-dash/energy"
	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/httpextra"
	"github.com/jamesrr39/goutil/logpkg"
	"github.com/paulmach/osm"
)

const (
	DefaultOverpassURL     = "https://overpass-api.de/api/interpreter"
	DefaultOverpassTimeout = 180 * time.Second
)

// OverpassClient issues Overpass QL queries and decodes the element graph
// out of the JSON response. It owns no retry policy; a failed or non-2xx
// request surfaces as an error to the caller.
type OverpassClient struct {
	logger     *logpkg.Logger
	baseURL    string
	httpClient *http.Client
}

func NewOverpassClient(logger *logpkg.Logger, baseURL string, timeout time.Duration) *OverpassClient {
	return &OverpassClient{
		logger:  logger,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Query posts a raw Overpass QL query as form data and returns the decoded
// element graph.
func (c *OverpassClient) Query(ctx context.Context, query string) (*energy.ElementGraph, errorsx.Error) {
	form := url.Values{}
	form.Set("data", query)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, errorsx.Wrap(err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errorsx.Wrap(err, "url", c.baseURL)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, errorsx.Errorf("overpass query failed: %s", httpextra.GetBodyOrErrorMsg(resp))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errorsx.Wrap(err)
	}

	osmData := new(osm.OSM)
	err = json.Unmarshal(body, osmData)
	if err != nil {
		return nil, errorsx.Wrap(err, "url", c.baseURL)
	}

	graph := graphFromOSM(osmData)
	c.logger.Debug("overpass query returned %d elements", graph.Len())

	return graph, nil
}

// QueryBulkPowerStations fetches the skeleton of every power plant and
// transmission substation in the given country.
func (c *OverpassClient) QueryBulkPowerStations(ctx context.Context, countryISOCode string) (*energy.ElementGraph, errorsx.Error) {
	return c.Query(ctx, BulkPowerStationsQuery(countryISOCode))
}

// QueryRelationsFull fetches the named relations with their full member
// graph, for multipolygon relations the bulk skeleton is known to truncate.
// The responses are merged into a single element graph.
func (c *OverpassClient) QueryRelationsFull(ctx context.Context, relationIDs []int64) (*energy.ElementGraph, errorsx.Error) {
	merged := new(energy.ElementGraph)
	for _, relationID := range relationIDs {
		graph, err := c.Query(ctx, RelationFullQuery(relationID))
		if err != nil {
			return nil, errorsx.Wrap(err, "relation id", relationID)
		}
		merged.Merge(graph)
	}
	return merged, nil
}

// BulkPowerStationsQuery builds the country-wide skeleton query for power
// plants and transmission substations.
func BulkPowerStationsQuery(countryISOCode string) string {
	return fmt.Sprintf(`[out:json][timeout:180];
area["ISO3166-1"=%q][admin_level=2]->.a;
(
  node["power"="plant"](area.a);
  way["power"="plant"](area.a);
  relation["power"="plant"](area.a);
  node["power"="substation"]["substation"="transmission"](area.a);
  way["power"="substation"]["substation"="transmission"](area.a);
  relation["power"="substation"]["substation"="transmission"](area.a);
);
out body; >; out skel qt;`, countryISOCode)
}

// RelationFullQuery builds a query for one relation with its ways and nodes
// recursed, so the relation resolves through the same lookup tables as the
// bulk data.
func RelationFullQuery(relationID int64) string {
	return fmt.Sprintf(`[out:json][timeout:180];
relation(%d);
out body; >; out skel qt;`, relationID)
}

func graphFromOSM(osmData *osm.OSM) *energy.ElementGraph {
	graph := new(energy.ElementGraph)

	for _, node := range osmData.Nodes {
		graph.Nodes = append(graph.Nodes, &energy.Node{
			ID:   int64(node.ID),
			Lat:  node.Lat,
			Lon:  node.Lon,
			Tags: tagMapFromOSMTags(node.Tags),
		})
	}

	for _, way := range osmData.Ways {
		nodeIDs := make([]int64, 0, len(way.Nodes))
		for _, wayNode := range way.Nodes {
			nodeIDs = append(nodeIDs, int64(wayNode.ID))
		}
		graph.Ways = append(graph.Ways, &energy.Way{
			ID:      int64(way.ID),
			NodeIDs: nodeIDs,
			Tags:    tagMapFromOSMTags(way.Tags),
		})
	}

	for _, relation := range osmData.Relations {
		members := make([]energy.Member, 0, len(relation.Members))
		for _, member := range relation.Members {
			members = append(members, energy.Member{
				Type: objectTypeFromOSMType(member.Type),
				Ref:  member.Ref,
				Role: member.Role,
			})
		}
		graph.Relations = append(graph.Relations, &energy.Relation{
			ID:      int64(relation.ID),
			Members: members,
			Tags:    tagMapFromOSMTags(relation.Tags),
		})
	}

	return graph
}

func tagMapFromOSMTags(osmTags osm.Tags) energy.TagMap {
	tags := make(energy.TagMap, len(osmTags))
	for _, tag := range osmTags {
		tags[tag.Key] = tag.Value
	}
	return tags
}

func objectTypeFromOSMType(osmType osm.Type) energy.ObjectType {
	switch osmType {
	case osm.TypeNode:
		return energy.ObjectTypeNode
	case osm.TypeWay:
		return energy.ObjectTypeWay
	case osm.TypeRelation:
		return energy.ObjectTypeRelation
	}
	return energy.ObjectTypeUnknown
}
