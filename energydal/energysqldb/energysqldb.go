package energysqldb

import (
	"encoding/json"

	"github.com/elenaivadreyer/ukr-energy-dash/energy"
	"github.com/elenaivadreyer/ukr-energy-dash/energydal"
	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/paulmach/orb/geojson"
)

var _ energydal.FacilitySink = &Importer{}

const postgresqlSchema = `
CREATE TABLE IF NOT EXISTS power_stations (
	osm_id BIGINT NOT NULL,
	osm_type TEXT NOT NULL,
	power TEXT,
	substation TEXT,
	name TEXT,
	station_name_en TEXT,
	operator TEXT,
	operator_en TEXT,
	barrier TEXT,
	voltage TEXT,
	landuse TEXT,
	plant_method TEXT,
	plant_output_electricity TEXT,
	plant_source TEXT,
	oblast_name_en TEXT,
	gppd_overlap BOOLEAN NOT NULL,
	geometry_geojson TEXT NOT NULL,
	PRIMARY KEY (osm_id, osm_type)
);
`

// Importer writes the enriched facility set into postgres in one
// transaction. The table is replaced wholesale on every run; the pipeline
// has no incremental mode.
type Importer struct {
	db *sqlx.DB
}

func NewImporter(connectionString string) (*Importer, errorsx.Error) {
	db, err := sqlx.Connect("postgres", connectionString)
	if err != nil {
		return nil, errorsx.Wrap(err)
	}

	return &Importer{db}, nil
}

func (importer *Importer) ImportFacilities(features []*energy.Feature) errorsx.Error {
	tx, err := importer.db.Beginx()
	if err != nil {
		return errorsx.Wrap(err)
	}

	err = importFacilitiesInTx(tx, features)
	if err != nil {
		rollbackErr := tx.Rollback()
		if rollbackErr != nil {
			return errorsx.Wrap(rollbackErr, "import error", err.Error())
		}
		return errorsx.Wrap(err)
	}

	err = tx.Commit()
	if err != nil {
		return errorsx.Wrap(err)
	}

	return nil
}

func (importer *Importer) Close() errorsx.Error {
	return errorsx.Wrap(importer.db.Close())
}

func importFacilitiesInTx(tx *sqlx.Tx, features []*energy.Feature) errorsx.Error {
	_, err := tx.Exec(postgresqlSchema)
	if err != nil {
		return errorsx.Wrap(err)
	}

	_, err = tx.Exec(`DELETE FROM power_stations`)
	if err != nil {
		return errorsx.Wrap(err)
	}

	for _, feature := range features {
		geometryJSON, err := json.Marshal(geojson.NewGeometry(feature.Geometry))
		if err != nil {
			return errorsx.Wrap(err, "osm id", feature.OSMID)
		}

		var oblast *string
		if feature.Oblast != "" {
			oblast = &feature.Oblast
		}

		_, err = tx.Exec(`
			INSERT INTO power_stations (
				osm_id, osm_type, power, substation, name, station_name_en,
				operator, operator_en, barrier, voltage, landuse,
				plant_method, plant_output_electricity, plant_source,
				oblast_name_en, gppd_overlap, geometry_geojson
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
			feature.OSMID,
			feature.OSMType.String(),
			nullableTag(feature.Tags, energy.TagKeyPower),
			nullableTag(feature.Tags, energy.TagKeySubstation),
			nullableTag(feature.Tags, energy.TagKeyName),
			nullableTag(feature.Tags, energy.OutputColumnStationNameEN),
			nullableTag(feature.Tags, energy.TagKeyOperator),
			nullableTag(feature.Tags, energy.TagKeyOperatorEN),
			nullableTag(feature.Tags, energy.TagKeyBarrier),
			nullableTag(feature.Tags, energy.TagKeyVoltage),
			nullableTag(feature.Tags, energy.TagKeyLanduse),
			nullableTag(feature.Tags, energy.TagKeyPlantMethod),
			nullableTag(feature.Tags, energy.TagKeyPlantOutput),
			nullableTag(feature.Tags, energy.TagKeyPlantSource),
			oblast,
			feature.GPPDOverlap,
			string(geometryJSON),
		)
		if err != nil {
			return errorsx.Wrap(err, "osm id", feature.OSMID)
		}
	}

	return nil
}

func nullableTag(tags energy.TagMap, key string) *string {
	value, ok := tags[key]
	if !ok {
		return nil
	}
	return &value
}
