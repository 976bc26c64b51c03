package geoadmin

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"geocoding/apis/transport"
	"geocoding/config"
	"geocoding/manager"
)

const searchFixture = `{"results": [{
  "id": 1420809,
  "weight": 1512,
  "attrs": {
    "origin": "address",
    "featureId": "1272199_0",
    "detail": "seftigenstrasse 264 3084 wabern 355 koeniz ch be",
    "layerBodId": "ch.bfs.gebaeude_wohnungs_register",
    "lat": 46.9279,
    "lon": 7.4513,
    "y": 2600968.75,
    "x": 1197427.0,
    "label": "Seftigenstrasse 264 <b>3084 Wabern</b>",
    "zoomlevel": 10
  }
}]}`

const identifyFixture = `{"results": [{
  "featureId": "1272199_0",
  "layerBodId": "ch.bfs.gebaeude_wohnungs_register",
  "layerName": "Register of Buildings and Dwellings",
  "geometry": {"type": "Point", "coordinates": [2600968.75, 1197427.0]},
  "properties": {
    "strname": ["Seftigenstrasse"],
    "deinr": "264",
    "plz4": 3084,
    "plzname": "Wabern",
    "gdename": "Köniz",
    "gdekt": "BE"
  }
}]}`

func serve(t *testing.T, body string, check func(r *http.Request)) (*httptest.Server, *atomic.Int32) {
	t.Helper()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if check != nil {
			check(r)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	return srv, &hits
}

func testClient(cfg config.Provider) *geoadmin {
	return New(cfg, transport.New(transport.Options{}), nil)
}

func TestGeoadmin_Forward(t *testing.T) {
	srv, _ := serve(t, searchFixture, func(r *http.Request) {
		assert.Equal(t, "/SearchServer", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "Seftigenstrasse 264, 3084 Wabern", q.Get("searchText"))
		assert.Equal(t, "locations", q.Get("type"))
		assert.Equal(t, defaultOrigins, q.Get("origins"))
		assert.Equal(t, "2056", q.Get("sr"))
		assert.Equal(t, "1", q.Get("limit"))
	})

	results, err := testClient(config.Provider{BaseURL: srv.URL}).Forward(context.Background(), manager.Query{
		Address: "Seftigenstrasse 264, 3084 Wabern",
		Limit:   1,
	})
	require.NoError(t, err)
	require.Len(t, results, 1)

	assert.Equal(t, "Seftigenstrasse 264 3084 Wabern", results[0].Formatted)
	assert.Equal(t, manager.NewPoint(2600968.75, 1197427.0), results[0].Point)
	assert.Equal(t, "address", results[0].Components["origin"])
	assert.Equal(t, "46.9279", results[0].Components["wgs84_lat"])
	assert.Equal(t, "geoadmin", results[0].Provider)
}

func TestGeoadmin_ForwardBBox(t *testing.T) {
	srv, hits := serve(t, searchFixture, func(r *http.Request) {
		assert.Equal(t, "2600000,1190000,2610000,1200000", r.URL.Query().Get("bbox"))
		assert.Equal(t, "address", r.URL.Query().Get("origins"))
	})

	ga := testClient(config.Provider{BaseURL: srv.URL, Origins: "address"})
	bounds := manager.NewBounds(2_600_000, 1_190_000, 2_610_000, 1_200_000)
	_, err := ga.Forward(context.Background(), manager.Query{Address: "Wabern", Bounds: &bounds})
	require.NoError(t, err)

	// WGS84 degrees are far outside the LV95 envelope.
	wgs84 := manager.NewBounds(7.4, 46.9, 7.5, 47.0)
	_, err = ga.Forward(context.Background(), manager.Query{Address: "Wabern", Bounds: &wgs84})
	assert.ErrorIs(t, err, manager.ErrInvalidQuery)

	swapped := manager.NewBounds(2_610_000, 1_190_000, 2_600_000, 1_200_000)
	_, err = ga.Forward(context.Background(), manager.Query{Address: "Wabern", Bounds: &swapped})
	assert.ErrorIs(t, err, manager.ErrInvalidQuery)

	assert.Equal(t, int32(1), hits.Load())
}

func TestGeoadmin_Reverse(t *testing.T) {
	srv, _ := serve(t, identifyFixture, func(r *http.Request) {
		assert.Equal(t, "/MapServer/identify", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "2600968.75,1197427", q.Get("geometry"))
		assert.Equal(t, "esriGeometryPoint", q.Get("geometryType"))
		assert.Equal(t, buildingLayer, q.Get("layers"))
		assert.Equal(t, "geojson", q.Get("geometryFormat"))
		assert.Equal(t, "de", q.Get("lang"))
	})

	point := manager.NewPoint(2600968.75, 1197427.0)
	results, err := testClient(config.Provider{BaseURL: srv.URL + "/", Language: "de"}).
		Reverse(context.Background(), manager.Query{Point: &point})
	require.NoError(t, err)
	require.Len(t, results, 1)

	assert.Equal(t, "Seftigenstrasse 264, 3084 Wabern", results[0].Formatted)
	assert.Equal(t, map[string]string{
		"street":       "Seftigenstrasse",
		"house_number": "264",
		"postcode":     "3084",
		"city":         "Wabern",
		"municipality": "Köniz",
		"canton":       "BE",
	}, results[0].Components)
}

func TestGeoadmin_ReverseNothingAround(t *testing.T) {
	srv, _ := serve(t, `{"results": []}`, nil)

	point := manager.NewPoint(2_700_000, 1_100_000)
	results, err := testClient(config.Provider{BaseURL: srv.URL}).Reverse(context.Background(), manager.Query{Point: &point})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestGeoadmin_InvalidQueryMakesNoRequest(t *testing.T) {
	srv, hits := serve(t, identifyFixture, nil)
	ga := testClient(config.Provider{BaseURL: srv.URL})

	for _, q := range []manager.Query{
		manager.ReverseQuery(46.9479, 7.4474),
		{},
	} {
		_, err := ga.Reverse(context.Background(), q)
		assert.ErrorIs(t, err, manager.ErrInvalidQuery)
	}

	_, err := ga.Forward(context.Background(), manager.ForwardQuery("  "))
	assert.ErrorIs(t, err, manager.ErrInvalidQuery)

	assert.Zero(t, hits.Load())
}

func TestGeoadmin_DecodeError(t *testing.T) {
	srv, _ := serve(t, `{"results": [{"id": 1, "attrs": {"label": "Bern"}}]}`, nil)

	_, err := testClient(config.Provider{BaseURL: srv.URL}).Forward(context.Background(), manager.ForwardQuery("Bern"))
	assert.ErrorIs(t, err, manager.ErrDecode)
}
