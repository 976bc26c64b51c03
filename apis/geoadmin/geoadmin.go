// Package geoadmin is the Swiss federal GeoAdmin provider.
//
// GeoAdmin works in the Swiss LV95 reference system (EPSG:2056). Points going
// in and out of this package carry the easting in Point.Lon and the northing
// in Point.Lat; GeoAdmin itself names them y and x.
package geoadmin

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/go-resty/resty/v2"

	"geocoding/apis/transport"
	"geocoding/config"
	"geocoding/manager"
	"geocoding/observability"
)

const (
	name            = config.GeoAdmin
	defaultEndpoint = "https://api3.geo.admin.ch/rest/services/api"
	defaultOrigins  = "zipcode,gg25,district,kantone,gazetteer,address,parcel"
	buildingLayer   = "all:ch.bfs.gebaeude_wohnungs_register"
	lv95            = "2056"
)

// LV95 envelope of Switzerland and Liechtenstein.
var envelope = manager.NewBounds(2_485_000, 1_075_000, 2_834_000, 1_296_000)

func New(cfg config.Provider, client *resty.Client, logger *log.Logger) *geoadmin {
	endpoint := strings.TrimSuffix(cfg.BaseURL, "/")
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	if logger == nil {
		logger = observability.Discard()
	}
	return &geoadmin{
		cfg:      cfg,
		endpoint: endpoint,
		client:   client,
		logger:   logger,
	}
}

type geoadmin struct {
	cfg      config.Provider
	endpoint string
	client   *resty.Client
	logger   *log.Logger
}

func (g geoadmin) Name() string {
	return name
}

func (g geoadmin) Forward(ctx context.Context, query manager.Query) ([]manager.Result, error) {
	response, err := g.ForwardFull(ctx, query)
	if err != nil {
		return nil, err
	}
	return response.results(), nil
}

func (g geoadmin) Reverse(ctx context.Context, query manager.Query) ([]manager.Result, error) {
	response, err := g.ReverseFull(ctx, query)
	if err != nil {
		return nil, err
	}
	return response.results(*query.Point), nil
}

// ForwardFull runs a location search on SearchServer.
func (g geoadmin) ForwardFull(ctx context.Context, query manager.Query) (*ForwardResponse, error) {
	if strings.TrimSpace(query.Address) == "" {
		return nil, manager.InvalidQuery(name, "empty address")
	}
	if query.Limit < 0 {
		return nil, manager.InvalidQuery(name, "negative limit %d", query.Limit)
	}

	bounds := query.Bounds
	if bounds == nil {
		bounds = g.cfg.Bounds()
	}
	if bounds != nil {
		if !inEnvelope(bounds.Min) || !inEnvelope(bounds.Max) {
			return nil, manager.InvalidQuery(name, "bbox %s outside the LV95 envelope", bounds)
		}
		if bounds.Min.Lon > bounds.Max.Lon || bounds.Min.Lat > bounds.Max.Lat {
			return nil, manager.InvalidQuery(name, "bbox %s corners out of order", bounds)
		}
	}

	origins := g.cfg.Origins
	if origins == "" {
		origins = defaultOrigins
	}

	params := url.Values{}
	params.Set("searchText", query.Address)
	params.Set("type", "locations")
	params.Set("origins", origins)
	params.Set("sr", lv95)
	if bounds != nil {
		params.Set("bbox", bounds.String())
	}

	limit := query.Limit
	if limit == 0 {
		limit = g.cfg.Limit
	}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}

	result := &ForwardResponse{}
	if err := g.processRequest(ctx, g.endpoint+"/SearchServer", params, result); err != nil {
		return nil, err
	}
	return result, nil
}

// ReverseFull identifies the buildings around an LV95 point.
func (g geoadmin) ReverseFull(ctx context.Context, query manager.Query) (*ReverseResponse, error) {
	if query.Point == nil {
		return nil, manager.InvalidQuery(name, "missing coordinates")
	}
	if !inEnvelope(*query.Point) {
		return nil, manager.InvalidQuery(name, "point %s outside the LV95 envelope", query.Point)
	}

	language := query.Language
	if language == "" {
		language = g.cfg.Language
	}
	if language == "" {
		language = "en"
	}

	params := url.Values{}
	params.Set("geometry", query.Point.String())
	params.Set("geometryType", "esriGeometryPoint")
	params.Set("layers", buildingLayer)
	params.Set("mapExtent", "0,0,100,100")
	params.Set("imageDisplay", "100,100,100")
	params.Set("tolerance", "50")
	params.Set("geometryFormat", "geojson")
	params.Set("sr", lv95)
	params.Set("lang", language)

	result := &ReverseResponse{}
	if err := g.processRequest(ctx, g.endpoint+"/MapServer/identify", params, result); err != nil {
		return nil, err
	}
	return result, nil
}

func (g geoadmin) processRequest(ctx context.Context, path string, params url.Values, out any) error {
	g.logger.Debug("geoadmin request", "path", path, "params", params.Encode())

	response, err := transport.Get(ctx, g.client, name, path, params)
	if err != nil {
		return err
	}

	return transport.Decode(name, response.Body(), out)
}

func inEnvelope(p manager.Point) bool {
	return p.Lon >= envelope.Min.Lon && p.Lon <= envelope.Max.Lon &&
		p.Lat >= envelope.Min.Lat && p.Lat <= envelope.Max.Lat
}
