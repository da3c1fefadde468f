package energydal

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const gppdCSVFixture = `country,country_long,name,capacity_mw,latitude,longitude,primary_fuel
UKR,Ukraine,Dnipro HPP,1569,47.8690,35.0870,Hydro
UKR,Ukraine,Broken Row,100,not-a-number,35.0,Hydro
DEU,Germany,Some Plant,500,52.5,13.4,Coal
UKR,Ukraine,Zaporizhzhia TPP,3600,47.5090,34.6250,Coal
`

func Test_parseCountryPoints(t *testing.T) {
	points, err := parseCountryPoints(testLogger(), strings.NewReader(gppdCSVFixture), "Ukraine")
	require.Nil(t, err)

	// the German plant is filtered out, the malformed row is skipped
	require.Len(t, points, 2)
	assert.Equal(t, orb.Point{35.0870, 47.8690}, points[0])
	assert.Equal(t, orb.Point{34.6250, 47.5090}, points[1])
}

func Test_parseCountryPoints_missingColumn(t *testing.T) {
	csvData := "country,name,latitude,longitude\nUKR,Plant,47.0,35.0\n"

	points, err := parseCountryPoints(testLogger(), strings.NewReader(csvData), "Ukraine")
	require.NotNil(t, err)
	assert.Nil(t, points)
	assert.Contains(t, err.Error(), "country_long")
}

func Test_GPPDClient_FetchCountryPoints(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		w.Write([]byte(gppdCSVFixture))
	}))
	defer server.Close()

	client := NewGPPDClient(testLogger(), server.URL, time.Second*10)

	points, err := client.FetchCountryPoints(context.Background(), "Ukraine")
	require.Nil(t, err)
	assert.Len(t, points, 2)
}

func Test_GPPDClient_FetchCountryPoints_non2xxResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer server.Close()

	client := NewGPPDClient(testLogger(), server.URL, time.Second*10)

	points, err := client.FetchCountryPoints(context.Background(), "Ukraine")
	require.NotNil(t, err)
	assert.Nil(t, points)
}
