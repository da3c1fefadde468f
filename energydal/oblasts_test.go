package energydal

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jamesrr39/goutil/gofs"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const oblastsGeoJSONFixture = `{
  "type": "FeatureCollection",
  "features": [
    {
      "type": "Feature",
      "properties": {"NAME_1": "L'viv"},
      "geometry": {"type": "Polygon", "coordinates": [[[23, 49], [25, 49], [25, 51], [23, 51], [23, 49]]]}
    },
    {
      "type": "Feature",
      "properties": {"NAME_1": "Kyiv"},
      "geometry": {"type": "MultiPolygon", "coordinates": [[[[30, 50], [31, 50], [31, 51], [30, 51], [30, 50]]]]}
    },
    {
      "type": "Feature",
      "properties": {"NAME_1": "Point Region"},
      "geometry": {"type": "Point", "coordinates": [10, 10]}
    },
    {
      "type": "Feature",
      "properties": {"other": "no name here"},
      "geometry": {"type": "Polygon", "coordinates": [[[0, 0], [1, 0], [1, 1], [0, 0]]]}
    }
  ]
}`

func Test_LoadOblasts(t *testing.T) {
	filePath := filepath.Join(t.TempDir(), "oblasts.geojson")
	require.Nil(t, os.WriteFile(filePath, []byte(oblastsGeoJSONFixture), 0644))

	oblasts, err := LoadOblasts(context.Background(), testLogger(), gofs.NewOsFs(), filePath, nil)
	require.Nil(t, err)

	// the point-geometry and nameless features are skipped, names are
	// normalized and sorted
	require.Len(t, oblasts, 2)
	assert.Equal(t, "Kyiv", oblasts[0].Name)
	assert.Equal(t, "Lviv", oblasts[1].Name)

	_, isMultiPolygon := oblasts[0].Geometry.(orb.MultiPolygon)
	assert.True(t, isMultiPolygon)
	_, isPolygon := oblasts[1].Geometry.(orb.Polygon)
	assert.True(t, isPolygon)
}

func Test_LoadOblasts_reloadsOwnOutput(t *testing.T) {
	filePath := filepath.Join(t.TempDir(), "ukraine_oblasts.geojson")

	original := `{
	  "type": "FeatureCollection",
	  "features": [
	    {
	      "type": "Feature",
	      "properties": {"oblast_name_en": "Donetsk"},
	      "geometry": {"type": "Polygon", "coordinates": [[[37, 47], [39, 47], [39, 49], [37, 49], [37, 47]]]}
	    }
	  ]
	}`
	require.Nil(t, os.WriteFile(filePath, []byte(original), 0644))

	oblasts, err := LoadOblasts(context.Background(), testLogger(), gofs.NewOsFs(), filePath, nil)
	require.Nil(t, err)
	require.Len(t, oblasts, 1)
	assert.Equal(t, "Donetsk", oblasts[0].Name)
}

func Test_LoadOblasts_missingFile(t *testing.T) {
	_, err := LoadOblasts(context.Background(), testLogger(), gofs.NewOsFs(), filepath.Join(t.TempDir(), "nope.geojson"), nil)
	require.NotNil(t, err)
}
