package energydal

import (
	"encoding/json"

	"github.com/elenaivadreyer/ukr-energy-dash/energy"
	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/gofs"
	"github.com/paulmach/orb/geojson"
)

// output dataset file names, also what the dataset web service serves
const (
	StationsFileName = "power_stations_with_oblasts.geojson"
	OblastsFileName  = "ukraine_oblasts.geojson"
)

const GPPDOverlapProperty = "gppd_overlap"

// MarshalStationsGeoJSON encodes enriched facilities as a WGS84 GeoJSON
// FeatureCollection. Properties carry the projected attribute columns plus
// osm_id/osm_type, oblast_name_en (omitted while unassigned) and
// gppd_overlap (always present).
func MarshalStationsGeoJSON(features []*energy.Feature) ([]byte, errorsx.Error) {
	featureCollection := geojson.NewFeatureCollection()
	for _, feature := range features {
		geojsonFeature := geojson.NewFeature(feature.Geometry)
		geojsonFeature.Properties["osm_id"] = feature.OSMID
		geojsonFeature.Properties["osm_type"] = feature.OSMType.String()
		for key, value := range feature.Tags {
			geojsonFeature.Properties[key] = value
		}
		if feature.Oblast != "" {
			geojsonFeature.Properties[OblastNameProperty] = feature.Oblast
		}
		geojsonFeature.Properties[GPPDOverlapProperty] = feature.GPPDOverlap

		featureCollection.Append(geojsonFeature)
	}

	data, err := json.MarshalIndent(featureCollection, "", "  ")
	if err != nil {
		return nil, errorsx.Wrap(err)
	}
	return data, nil
}

func MarshalOblastsGeoJSON(oblasts []*energy.Oblast) ([]byte, errorsx.Error) {
	featureCollection := geojson.NewFeatureCollection()
	for _, oblast := range oblasts {
		geojsonFeature := geojson.NewFeature(oblast.Geometry)
		geojsonFeature.Properties[OblastNameProperty] = oblast.Name
		featureCollection.Append(geojsonFeature)
	}

	data, err := json.MarshalIndent(featureCollection, "", "  ")
	if err != nil {
		return nil, errorsx.Wrap(err)
	}
	return data, nil
}

func WriteStationsGeoJSON(fs gofs.Fs, filePath string, features []*energy.Feature) errorsx.Error {
	data, err := MarshalStationsGeoJSON(features)
	if err != nil {
		return errorsx.Wrap(err)
	}

	writeErr := fs.WriteFile(filePath, data, 0644)
	if writeErr != nil {
		return errorsx.Wrap(writeErr, "file path", filePath)
	}
	return nil
}

func WriteOblastsGeoJSON(fs gofs.Fs, filePath string, oblasts []*energy.Oblast) errorsx.Error {
	data, err := MarshalOblastsGeoJSON(oblasts)
	if err != nil {
		return errorsx.Wrap(err)
	}

	writeErr := fs.WriteFile(filePath, data, 0644)
	if writeErr != nil {
		return errorsx.Wrap(writeErr, "file path", filePath)
	}
	return nil
}
