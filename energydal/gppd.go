package energydal

import (
	"context"
	"encoding/csv"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/httpextra"
	"github.com/jamesrr39/goutil/logpkg"
	"github.com/paulmach/orb"
)

// DefaultGPPDDatabaseURL points at the published Global Power Plant Database
// CSV export.
const DefaultGPPDDatabaseURL = "https://github.com/wri/global-power-plant-database/raw/master/output_database/global_power_plant_database.csv"

const (
	gppdColumnCountryLong = "country_long"
	gppdColumnLongitude   = "longitude"
	gppdColumnLatitude    = "latitude"
)

// GPPDClient downloads the reference database and reduces it to bare
// lon/lat points for one country. No other columns are retained.
type GPPDClient struct {
	logger      *logpkg.Logger
	databaseURL string
	httpClient  *http.Client
}

func NewGPPDClient(logger *logpkg.Logger, databaseURL string, timeout time.Duration) *GPPDClient {
	return &GPPDClient{
		logger:      logger,
		databaseURL: databaseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// FetchCountryPoints downloads the database and returns the reference points
// whose country_long column equals countryLongName. Rows with unparseable
// coordinates are skipped; transport failures are fatal.
func (c *GPPDClient) FetchCountryPoints(ctx context.Context, countryLongName string) ([]orb.Point, errorsx.Error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.databaseURL, nil)
	if err != nil {
		return nil, errorsx.Wrap(err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errorsx.Wrap(err, "url", c.databaseURL)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, errorsx.Errorf("reference database fetch failed: %s", httpextra.GetBodyOrErrorMsg(resp))
	}

	points, err := parseCountryPoints(c.logger, resp.Body, countryLongName)
	if err != nil {
		return nil, errorsx.Wrap(err, "url", c.databaseURL)
	}

	c.logger.Info("loaded %d reference points for %q", len(points), countryLongName)

	return points, nil
}

func parseCountryPoints(logger *logpkg.Logger, reader io.Reader, countryLongName string) ([]orb.Point, errorsx.Error) {
	csvReader := csv.NewReader(reader)
	csvReader.FieldsPerRecord = -1

	header, err := csvReader.Read()
	if err != nil {
		return nil, errorsx.Wrap(err)
	}

	columnIndexes := make(map[string]int, len(header))
	for i, column := range header {
		columnIndexes[column] = i
	}

	for _, required := range []string{gppdColumnCountryLong, gppdColumnLongitude, gppdColumnLatitude} {
		if _, ok := columnIndexes[required]; !ok {
			return nil, errorsx.Errorf("reference database is missing the %q column", required)
		}
	}

	var points []orb.Point
	for {
		record, err := csvReader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errorsx.Wrap(err)
		}

		maxIndex := columnIndexes[gppdColumnCountryLong]
		for _, column := range []string{gppdColumnLongitude, gppdColumnLatitude} {
			if columnIndexes[column] > maxIndex {
				maxIndex = columnIndexes[column]
			}
		}
		if len(record) <= maxIndex {
			continue
		}

		if record[columnIndexes[gppdColumnCountryLong]] != countryLongName {
			continue
		}

		lon, lonErr := strconv.ParseFloat(record[columnIndexes[gppdColumnLongitude]], 64)
		lat, latErr := strconv.ParseFloat(record[columnIndexes[gppdColumnLatitude]], 64)
		if lonErr != nil || latErr != nil {
			logger.Debug("skipping reference row with unparseable coordinates: %q, %q",
				record[columnIndexes[gppdColumnLongitude]], record[columnIndexes[gppdColumnLatitude]])
			continue
		}

		points = append(points, orb.Point{lon, lat})
	}

	return points, nil
}
