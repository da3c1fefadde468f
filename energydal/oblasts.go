package energydal

import (
	"context"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/elenaivadreyer/ukr-energy-dash/energy"
	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/gofs"
	"github.com/jamesrr39/goutil/httpextra"
	"github.com/jamesrr39/goutil/logpkg"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// oblast name property keys accepted on input: the GADM admin-1 key and our
// own output key, so a previously written oblasts file can be reloaded.
const (
	gadmNameColumn     = "NAME_1"
	OblastNameProperty = "oblast_name_en"
)

// LoadOblasts reads admin-1 boundary polygons from a GeoJSON
// FeatureCollection, found at a local path or an http(s) URL. Names are
// normalized through the swap table and the result is sorted by name.
// Features without a usable name or polygonal geometry are skipped with a
// warning; duplicate names keep the first occurrence.
func LoadOblasts(ctx context.Context, logger *logpkg.Logger, fs gofs.Fs, source string, swaps map[string]string) ([]*energy.Oblast, errorsx.Error) {
	data, err := readSource(ctx, fs, source)
	if err != nil {
		return nil, errorsx.Wrap(err, "source", source)
	}

	featureCollection, unmarshalErr := geojson.UnmarshalFeatureCollection(data)
	if unmarshalErr != nil {
		return nil, errorsx.Wrap(unmarshalErr, "source", source)
	}

	seen := make(map[string]bool)
	var oblasts []*energy.Oblast
	for _, feature := range featureCollection.Features {
		name, _ := feature.Properties[gadmNameColumn].(string)
		if name == "" {
			name, _ = feature.Properties[OblastNameProperty].(string)
		}
		if name == "" {
			logger.Warn("skipping oblast feature without a %q or %q property", gadmNameColumn, OblastNameProperty)
			continue
		}

		name = energy.NormalizeOblastName(name, swaps)
		if seen[name] {
			logger.Warn("skipping duplicate oblast %q", name)
			continue
		}

		switch feature.Geometry.(type) {
		case orb.Polygon, orb.MultiPolygon:
		default:
			logger.Warn("skipping oblast %q with non-polygonal geometry %T", name, feature.Geometry)
			continue
		}

		seen[name] = true
		oblasts = append(oblasts, &energy.Oblast{
			Name:     name,
			Geometry: feature.Geometry,
		})
	}

	sort.Slice(oblasts, func(a, b int) bool {
		return oblasts[a].Name < oblasts[b].Name
	})

	logger.Info("loaded %d oblast polygons from %s", len(oblasts), source)

	return oblasts, nil
}

func readSource(ctx context.Context, fs gofs.Fs, source string) ([]byte, errorsx.Error) {
	if !strings.HasPrefix(source, "http://") && !strings.HasPrefix(source, "https://") {
		data, err := fs.ReadFile(source)
		if err != nil {
			return nil, errorsx.Wrap(err)
		}
		return data, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, errorsx.Wrap(err)
	}

	httpClient := &http.Client{Timeout: 180 * time.Second}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, errorsx.Wrap(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, errorsx.Errorf("fetch failed: %s", httpextra.GetBodyOrErrorMsg(resp))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errorsx.Wrap(err)
	}
	return data, nil
}
