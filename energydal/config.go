package energydal

import (
	"time"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/gofs"
	"gopkg.in/yaml.v3"
)

// PipelineConfig is the static batch configuration. Everything has a
// Ukraine default; a yaml file can override any field.
type PipelineConfig struct {
	OverpassURL         string            `yaml:"overpass_url"`
	GPPDDatabaseURL     string            `yaml:"gppd_database_url"`
	OblastsSource       string            `yaml:"oblasts_source"`
	CountryISOCode      string            `yaml:"country_iso_code"`
	CountryLongName     string            `yaml:"country_long_name"`
	CriticalRelationIDs []int64           `yaml:"critical_relation_ids"`
	BufferRadiusMeters  float64           `yaml:"buffer_radius_meters"`
	QueryTimeoutSeconds int               `yaml:"query_timeout_seconds"`
	SpatialWorkers      uint              `yaml:"spatial_workers"`
	OblastNameSwaps     map[string]string `yaml:"oblast_name_swaps"`
}

func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		OverpassURL:     DefaultOverpassURL,
		GPPDDatabaseURL: DefaultGPPDDatabaseURL,
		OblastsSource:   "https://geodata.ucdavis.edu/gadm/gadm4.1/json/gadm41_UKR_1.json",
		CountryISOCode:  "UA",
		CountryLongName: "Ukraine",
		// Kakhovka HPP; its multipolygon is truncated in the bulk skeleton
		CriticalRelationIDs: []int64{7317657},
		BufferRadiusMeters:  500,
		QueryTimeoutSeconds: 180,
		SpatialWorkers:      4,
	}
}

// LoadPipelineConfig reads a yaml config file over the defaults. An empty
// path returns the defaults unchanged.
func LoadPipelineConfig(fs gofs.Fs, filePath string) (PipelineConfig, errorsx.Error) {
	config := DefaultPipelineConfig()
	if filePath == "" {
		return config, nil
	}

	data, err := fs.ReadFile(filePath)
	if err != nil {
		return config, errorsx.Wrap(err, "file path", filePath)
	}

	err = yaml.Unmarshal(data, &config)
	if err != nil {
		return config, errorsx.Wrap(err, "file path", filePath)
	}

	return config, nil
}

func (c PipelineConfig) QueryTimeout() time.Duration {
	return time.Duration(c.QueryTimeoutSeconds) * time.Second
}
