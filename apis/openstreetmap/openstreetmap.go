// Package openstreetmap is the OpenStreetMap Nominatim provider. The base URL
// can point at a self-hosted Nominatim instance.
package openstreetmap

import (
	"bytes"
	"context"
	"encoding/json"
	"maps"
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
	name            = config.OpenStreetMap
	defaultEndpoint = "https://nominatim.openstreetmap.org"
)

func New(cfg config.Provider, client *resty.Client, logger *log.Logger) *openstreetmap {
	endpoint := strings.TrimSuffix(cfg.BaseURL, "/")
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	if logger == nil {
		logger = observability.Discard()
	}
	return &openstreetmap{
		cfg:      cfg,
		endpoint: endpoint,
		client:   client,
		logger:   logger,
	}
}

type openstreetmap struct {
	cfg      config.Provider
	endpoint string
	client   *resty.Client
	logger   *log.Logger
}

func (o openstreetmap) Name() string {
	return name
}

func (o openstreetmap) Forward(ctx context.Context, query manager.Query) ([]manager.Result, error) {
	response, err := o.ForwardFull(ctx, query)
	if err != nil {
		return nil, err
	}
	return response.results(), nil
}

func (o openstreetmap) Reverse(ctx context.Context, query manager.Query) ([]manager.Result, error) {
	response, err := o.ReverseFull(ctx, query)
	if err != nil {
		return nil, err
	}
	return response.results(), nil
}

// ForwardFull runs /search and returns the GeoJSON feature collection.
func (o openstreetmap) ForwardFull(ctx context.Context, query manager.Query) (*Response, error) {
	if query.Bounds == nil {
		query.Bounds = o.cfg.Bounds()
	}
	if err := manager.ValidateForward(name, query); err != nil {
		return nil, err
	}

	params := o.params(query)
	params.Set("q", query.Address)

	if query.Bounds != nil {
		params.Set("viewbox", query.Bounds.String())
		params.Set("bounded", "1")
	}

	countries := query.CountryCodes
	if len(countries) == 0 {
		countries = o.cfg.CountryCodes
	}
	if len(countries) > 0 {
		params.Set("countrycodes", strings.ToLower(strings.Join(countries, ",")))
	}

	limit := query.Limit
	if limit == 0 {
		limit = o.cfg.Limit
	}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}

	return o.processRequest(ctx, o.endpoint+"/search", params)
}

// ReverseFull runs /reverse and returns the GeoJSON feature collection.
func (o openstreetmap) ReverseFull(ctx context.Context, query manager.Query) (*Response, error) {
	if err := manager.ValidateReverse(name, query); err != nil {
		return nil, err
	}

	params := o.params(query)
	params.Set("lat", strconv.FormatFloat(query.Point.Lat, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(query.Point.Lon, 'f', -1, 64))

	return o.processRequest(ctx, o.endpoint+"/reverse", params)
}

func (o openstreetmap) params(query manager.Query) url.Values {
	params := url.Values{}
	params.Set("format", "geojson")

	if o.cfg.AddressDetails {
		params.Set("addressdetails", "1")
	} else {
		params.Set("addressdetails", "0")
	}

	language := query.Language
	if language == "" {
		language = o.cfg.Language
	}
	if language != "" {
		params.Set("accept-language", language)
	}

	// Commercial Nominatim hosts authenticate with a key parameter.
	if o.cfg.APIKey != "" {
		params.Set("key", o.cfg.APIKey)
	}

	return params
}

func (o openstreetmap) processRequest(ctx context.Context, path string, params url.Values) (*Response, error) {
	o.logger.Debug("nominatim request", "path", path, "params", redact(params).Encode())

	response, err := transport.Get(ctx, o.client, name, path, params)
	if err != nil {
		return nil, err
	}

	// Nominatim answers 200 with {"error": ...} when nothing is found.
	var failure struct {
		Error json.RawMessage `json:"error"`
	}
	if json.Unmarshal(response.Body(), &failure) == nil && len(failure.Error) > 0 && !bytes.Equal(failure.Error, []byte("null")) {
		o.logger.Debug("nominatim reported no match", "error", string(failure.Error))
		return &Response{Type: "FeatureCollection", Features: []Feature{}}, nil
	}

	result := &Response{}
	if err := transport.Decode(name, response.Body(), result); err != nil {
		return nil, err
	}

	return result, nil
}

func redact(params url.Values) url.Values {
	if params.Get("key") == "" {
		return params
	}
	out := maps.Clone(params)
	out.Set("key", "REDACTED")
	return out
}
