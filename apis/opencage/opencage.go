// Package opencage is the OpenCage geocoding provider.
//
// OpenCage takes and returns coordinates in latitude/longitude order; this
// package converts to and from manager.Point (longitude/latitude).
package opencage

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/go-resty/resty/v2"

	"geocoding/apis/transport"
	"geocoding/config"
	"geocoding/manager"
	"geocoding/observability"
)

const (
	name            = config.OpenCage
	defaultEndpoint = "https://api.opencagedata.com/geocode/v1/json"
	remainingHeader = "X-RateLimit-Remaining"
)

func New(cfg config.Provider, client *resty.Client, logger *log.Logger) *opencage {
	endpoint := cfg.BaseURL
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	if logger == nil {
		logger = observability.Discard()
	}
	return &opencage{
		cfg:      cfg,
		endpoint: endpoint,
		client:   client,
		logger:   logger,
	}
}

type opencage struct {
	cfg      config.Provider
	endpoint string
	client   *resty.Client
	logger   *log.Logger

	mu        sync.Mutex
	remaining *int
}

func (o *opencage) Name() string {
	return name
}

// RemainingCalls returns the daily quota left for a free-tier key. ok is
// false until a response carrying the quota has been seen.
func (o *opencage) RemainingCalls() (remaining int, ok bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.remaining == nil {
		return 0, false
	}
	return *o.remaining, true
}

func (o *opencage) Forward(ctx context.Context, query manager.Query) ([]manager.Result, error) {
	response, err := o.forward(ctx, query, false)
	if err != nil {
		return nil, err
	}
	return response.results(), nil
}

func (o *opencage) Reverse(ctx context.Context, query manager.Query) ([]manager.Result, error) {
	response, err := o.reverse(ctx, query, false)
	if err != nil {
		return nil, err
	}
	return response.results(), nil
}

// ForwardFull returns the whole OpenCage response for an address, annotations
// included.
func (o *opencage) ForwardFull(ctx context.Context, query manager.Query) (*Response, error) {
	return o.forward(ctx, query, true)
}

// ReverseFull returns the whole OpenCage response for a coordinate pair,
// annotations included.
func (o *opencage) ReverseFull(ctx context.Context, query manager.Query) (*Response, error) {
	return o.reverse(ctx, query, true)
}

func (o *opencage) forward(ctx context.Context, query manager.Query, annotations bool) (*Response, error) {
	if query.Bounds == nil {
		query.Bounds = o.cfg.Bounds()
	}
	if err := manager.ValidateForward(name, query); err != nil {
		return nil, err
	}
	return o.processRequest(ctx, query.Address, query, annotations)
}

func (o *opencage) reverse(ctx context.Context, query manager.Query, annotations bool) (*Response, error) {
	if err := manager.ValidateReverse(name, query); err != nil {
		return nil, err
	}
	q := fmt.Sprintf("%s,%s",
		strconv.FormatFloat(query.Point.Lat, 'f', -1, 64),
		strconv.FormatFloat(query.Point.Lon, 'f', -1, 64),
	)
	return o.processRequest(ctx, q, query, annotations)
}

func (o *opencage) params(q string, query manager.Query, annotations bool) url.Values {
	params := url.Values{}
	params.Set("q", q)
	params.Set("key", o.cfg.APIKey)
	if annotations {
		params.Set("no_annotations", "0")
	} else {
		params.Set("no_annotations", "1")
	}
	params.Set("no_record", "1")

	if query.Bounds != nil {
		params.Set("bounds", query.Bounds.String())
	}

	countries := query.CountryCodes
	if len(countries) == 0 {
		countries = o.cfg.CountryCodes
	}
	if len(countries) > 0 {
		params.Set("countrycode", strings.ToLower(strings.Join(countries, ",")))
	}

	limit := query.Limit
	if limit == 0 {
		limit = o.cfg.Limit
	}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}

	language := query.Language
	if language == "" {
		language = o.cfg.Language
	}
	if language != "" {
		params.Set("language", language)
	}

	return params
}

func (o *opencage) processRequest(ctx context.Context, q string, query manager.Query, annotations bool) (*Response, error) {
	o.logger.Debug("opencage request", "q", q)

	response, err := transport.Get(ctx, o.client, name, o.endpoint, o.params(q, query, annotations))
	if err != nil {
		// 402 means the daily quota is spent.
		var pe *manager.ProviderError
		if errors.As(err, &pe) && pe.Status == http.StatusPaymentRequired {
			o.setRemaining(0)
		}
		return nil, err
	}

	result := &Response{}
	if err := transport.Decode(name, response.Body(), result); err != nil {
		return nil, err
	}

	if v := response.Header().Get(remainingHeader); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			o.setRemaining(n)
		}
	} else if result.Rate != nil {
		o.setRemaining(result.Rate.Remaining)
	}

	return result, nil
}

func (o *opencage) setRemaining(n int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.remaining = &n
}
