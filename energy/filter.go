package energy

// facilityColumns is the attribute projection kept on output, in output
// order. Geometry and the two enrichment columns are carried on the Feature
// itself.
var facilityColumns = []string{
	TagKeyPower,
	TagKeySubstation,
	TagKeyName,
	TagKeyNameEN,
	TagKeyOperator,
	TagKeyOperatorEN,
	TagKeyBarrier,
	TagKeyVoltage,
	TagKeyLanduse,
	TagKeyPlantMethod,
	TagKeyPlantOutput,
	TagKeyPlantSource,
}

// OutputColumnStationNameEN is the output name for the name:en attribute.
const OutputColumnStationNameEN = "station_name_en"

// FacilityColumns returns the output attribute columns in a stable order,
// with the rename applied.
func FacilityColumns() []string {
	columns := make([]string, 0, len(facilityColumns))
	for _, column := range facilityColumns {
		if column == TagKeyNameEN {
			column = OutputColumnStationNameEN
		}
		columns = append(columns, column)
	}
	return columns
}

type elementKey struct {
	ID   int64
	Type ObjectType
}

// FilterFacilities keeps power-generation plants (anything carrying a
// plant:source tag) and transmission substations, deduplicates by
// (osm_id, osm_type) keeping the first occurrence, and prunes tags down to
// the facility column set with name:en renamed to station_name_en.
// Running it over its own output is a no-op.
func FilterFacilities(features []*Feature) []*Feature {
	seen := make(map[elementKey]bool, len(features))

	var facilities []*Feature
	for _, feature := range features {
		_, hasFuelSource := feature.Tags[TagKeyPlantSource]
		isTransmission := feature.Tags[TagKeySubstation] == SubstationTypeTransmission
		if !hasFuelSource && !isTransmission {
			continue
		}

		key := elementKey{feature.OSMID, feature.OSMType}
		if seen[key] {
			continue
		}
		seen[key] = true

		facilities = append(facilities, &Feature{
			OSMID:       feature.OSMID,
			OSMType:     feature.OSMType,
			Tags:        projectFacilityTags(feature.Tags),
			Geometry:    feature.Geometry,
			Oblast:      feature.Oblast,
			GPPDOverlap: feature.GPPDOverlap,
		})
	}

	return facilities
}

func projectFacilityTags(tags TagMap) TagMap {
	projected := make(TagMap)
	for _, column := range facilityColumns {
		value, ok := tags[column]
		if !ok && column == TagKeyNameEN {
			// already-projected input carries the renamed column
			value, ok = tags[OutputColumnStationNameEN]
		}
		if !ok {
			continue
		}
		projected[outputColumnName(column)] = value
	}
	return projected
}

func outputColumnName(column string) string {
	if column == TagKeyNameEN {
		return OutputColumnStationNameEN
	}
	return column
}
