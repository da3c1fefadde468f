package energydal

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/elenaivadreyer/ukr-energy-dash/energy"
	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/gofs"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pipelineBulkFixture = `{
  "version": 0.6,
  "elements": [
    {"type": "node", "id": 1, "lat": 50.005, "lon": 30.005, "tags": {"power": "plant", "plant:source": "solar", "name:en": "Solar One"}},
    {"type": "node", "id": 2, "lat": 50.0, "lon": 30.0},
    {"type": "node", "id": 3, "lat": 50.0, "lon": 30.01},
    {"type": "node", "id": 4, "lat": 50.01, "lon": 30.01},
    {"type": "node", "id": 5, "lat": 50.01, "lon": 30.0},
    {"type": "way", "id": 10, "nodes": [2, 3, 4, 5, 2], "tags": {"power": "substation", "substation": "transmission", "voltage": "330000"}}
  ]
}`

const pipelineRelationFixture = `{
  "version": 0.6,
  "elements": [
    {"type": "node", "id": 7, "lat": 51.0, "lon": 31.0},
    {"type": "node", "id": 8, "lat": 51.0, "lon": 31.01},
    {"type": "node", "id": 9, "lat": 51.01, "lon": 31.0},
    {"type": "way", "id": 30, "nodes": [7, 8, 9, 7]},
    {"type": "relation", "id": 7317657, "members": [{"type": "way", "ref": 30, "role": "outer"}], "tags": {"power": "plant", "plant:source": "hydro", "name:en": "Kakhovka HPP"}}
  ]
}`

const pipelineOblastsFixture = `{
  "type": "FeatureCollection",
  "features": [
    {
      "type": "Feature",
      "properties": {"NAME_1": "Kyiv"},
      "geometry": {"type": "Polygon", "coordinates": [[[29.9, 49.9], [30.1, 49.9], [30.1, 50.1], [29.9, 50.1], [29.9, 49.9]]]}
    },
    {
      "type": "Feature",
      "properties": {"NAME_1": "Chernihiv"},
      "geometry": {"type": "Polygon", "coordinates": [[[30.9, 50.9], [31.1, 50.9], [31.1, 51.1], [30.9, 51.1], [30.9, 50.9]]]}
    }
  ]
}`

// one reference plant sits on top of node 1, the other is nowhere near
// anything
const pipelineGPPDFixture = `country,country_long,name,capacity_mw,latitude,longitude,primary_fuel
UKR,Ukraine,Solar One,10,50.005,30.005,Solar
UKR,Ukraine,Far Away Plant,100,44.0,34.0,Gas
`

type capturingSink struct {
	imported []*energy.Feature
}

func (s *capturingSink) ImportFacilities(features []*energy.Feature) errorsx.Error {
	s.imported = features
	return nil
}

func Test_Pipeline_Run(t *testing.T) {
	overpassServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query := r.FormValue("data")
		if strings.Contains(query, "relation(") {
			w.Write([]byte(pipelineRelationFixture))
			return
		}
		w.Write([]byte(pipelineBulkFixture))
	}))
	defer overpassServer.Close()

	gppdServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(pipelineGPPDFixture))
	}))
	defer gppdServer.Close()

	dataDir := t.TempDir()
	oblastsFilePath := filepath.Join(dataDir, "source_oblasts.geojson")
	require.Nil(t, os.WriteFile(oblastsFilePath, []byte(pipelineOblastsFixture), 0644))

	config := DefaultPipelineConfig()
	config.OverpassURL = overpassServer.URL
	config.GPPDDatabaseURL = gppdServer.URL
	config.OblastsSource = oblastsFilePath
	config.SpatialWorkers = 2

	pathsConfig := &PathsConfig{DataDir: dataDir, TraceDir: dataDir}
	logger := testLogger()
	fs := gofs.NewOsFs()
	sink := new(capturingSink)

	pipeline := NewPipeline(
		logger,
		fs,
		NewOverpassClient(logger, config.OverpassURL, config.QueryTimeout()),
		NewGPPDClient(logger, config.GPPDDatabaseURL, config.QueryTimeout()),
		config,
		pathsConfig,
		sink,
	)

	err := pipeline.Run(context.Background(), nil)
	require.Nil(t, err)

	stationsData, readErr := os.ReadFile(pathsConfig.StationsFilePath())
	require.Nil(t, readErr)
	stations, unmarshalErr := geojson.UnmarshalFeatureCollection(stationsData)
	require.Nil(t, unmarshalErr)

	// untagged helper nodes are filtered out; the plant node, the
	// transmission substation way and the critical relation survive
	require.Len(t, stations.Features, 3)

	byOSMID := make(map[float64]*geojson.Feature)
	for _, feature := range stations.Features {
		byOSMID[feature.Properties["osm_id"].(float64)] = feature
	}

	solarPlant := byOSMID[1]
	require.NotNil(t, solarPlant)
	assert.Equal(t, "node", solarPlant.Properties["osm_type"])
	assert.Equal(t, "Solar One", solarPlant.Properties["station_name_en"])
	assert.Equal(t, "Kyiv", solarPlant.Properties[OblastNameProperty])
	assert.Equal(t, true, solarPlant.Properties[GPPDOverlapProperty])

	substation := byOSMID[10]
	require.NotNil(t, substation)
	assert.Equal(t, "way", substation.Properties["osm_type"])
	assert.Equal(t, "transmission", substation.Properties["substation"])
	assert.Equal(t, "Kyiv", substation.Properties[OblastNameProperty])
	assert.Equal(t, false, substation.Properties[GPPDOverlapProperty])

	kakhovka := byOSMID[7317657]
	require.NotNil(t, kakhovka)
	assert.Equal(t, "relation", kakhovka.Properties["osm_type"])
	assert.Equal(t, "Kakhovka HPP", kakhovka.Properties["station_name_en"])
	assert.Equal(t, "Chernihiv", kakhovka.Properties[OblastNameProperty])
	assert.Equal(t, false, kakhovka.Properties[GPPDOverlapProperty])

	oblastsData, readErr := os.ReadFile(pathsConfig.OblastsFilePath())
	require.Nil(t, readErr)
	oblasts, unmarshalErr := geojson.UnmarshalFeatureCollection(oblastsData)
	require.Nil(t, unmarshalErr)
	require.Len(t, oblasts.Features, 2)
	assert.Equal(t, "Chernihiv", oblasts.Features[0].Properties[OblastNameProperty])
	assert.Equal(t, "Kyiv", oblasts.Features[1].Properties[OblastNameProperty])

	// the sink receives the same enriched facility set
	require.Len(t, sink.imported, 3)
}

func Test_Pipeline_Run_overpassFailureAbortsBeforeOutput(t *testing.T) {
	overpassServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gateway timeout", http.StatusGatewayTimeout)
	}))
	defer overpassServer.Close()

	dataDir := t.TempDir()

	config := DefaultPipelineConfig()
	config.OverpassURL = overpassServer.URL

	pathsConfig := &PathsConfig{DataDir: dataDir, TraceDir: dataDir}
	logger := testLogger()

	pipeline := NewPipeline(
		logger,
		gofs.NewOsFs(),
		NewOverpassClient(logger, config.OverpassURL, config.QueryTimeout()),
		NewGPPDClient(logger, config.GPPDDatabaseURL, config.QueryTimeout()),
		config,
		pathsConfig,
		nil,
	)

	err := pipeline.Run(context.Background(), nil)
	require.NotNil(t, err)

	_, statErr := os.Stat(pathsConfig.StationsFilePath())
	assert.True(t, os.IsNotExist(statErr))
}

func Test_LoadPipelineConfig(t *testing.T) {
	filePath := filepath.Join(t.TempDir(), "config.yml")
	configYaml := `overpass_url: http://localhost:1234/api/interpreter
buffer_radius_meters: 750
critical_relation_ids: [111, 222]
oblast_name_swaps:
  "Test'": "Test"
`
	require.Nil(t, os.WriteFile(filePath, []byte(configYaml), 0644))

	config, err := LoadPipelineConfig(gofs.NewOsFs(), filePath)
	require.Nil(t, err)

	assert.Equal(t, "http://localhost:1234/api/interpreter", config.OverpassURL)
	assert.Equal(t, float64(750), config.BufferRadiusMeters)
	assert.Equal(t, []int64{111, 222}, config.CriticalRelationIDs)
	assert.Equal(t, map[string]string{"Test'": "Test"}, config.OblastNameSwaps)

	// fields absent from the file keep their defaults
	assert.Equal(t, "UA", config.CountryISOCode)
	assert.Equal(t, "Ukraine", config.CountryLongName)
}

func Test_LoadPipelineConfig_emptyPathReturnsDefaults(t *testing.T) {
	config, err := LoadPipelineConfig(gofs.NewOsFs(), "")
	require.Nil(t, err)
	assert.Equal(t, DefaultPipelineConfig(), config)
}
