// Package transport builds the HTTP client shared by the provider packages and
// turns transport outcomes into manager.ProviderError values.
package transport

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-playground/validator/v10"
	"github.com/go-resty/resty/v2"

	"geocoding/manager"
)

const (
	DefaultUserAgent = "geocoding-go"
	DefaultTimeout   = 10 * time.Second
)

var validate = validator.New(validator.WithRequiredStructEnabled())

type Options struct {
	UserAgent string
	Timeout   time.Duration
	// TLS replaces the client TLS configuration. Ignored when Transport is set.
	TLS *tls.Config
	// Transport replaces the whole round tripper, TLS included.
	Transport http.RoundTripper
	// Logger receives resty's warnings and errors. Request dumps stay off
	// since URLs carry API keys.
	Logger *log.Logger
}

// New returns a resty client. One client is meant to be shared by all calls
// of a provider so connections are pooled.
func New(opts Options) *resty.Client {
	client := resty.New()

	if opts.Transport != nil {
		client.SetTransport(opts.Transport)
	} else if opts.TLS != nil {
		client.SetTLSClientConfig(opts.TLS)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	client.SetTimeout(timeout)

	ua := opts.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}
	client.SetHeaders(map[string]string{
		"User-Agent": ua,
		"Accept":     "application/json",
	})

	if opts.Logger != nil {
		client.SetLogger(opts.Logger)
	}

	return client
}

type TLSOptions struct {
	CAFile             string
	InsecureSkipVerify bool
	MinVersion         string
}

var tlsVersions = map[string]uint16{
	"1.0": tls.VersionTLS10,
	"1.1": tls.VersionTLS11,
	"1.2": tls.VersionTLS12,
	"1.3": tls.VersionTLS13,
}

// NewTLSConfig builds a TLS configuration. It returns nil when opts asks for
// nothing beyond the system defaults.
func NewTLSConfig(opts TLSOptions) (*tls.Config, error) {
	if opts == (TLSOptions{}) {
		return nil, nil
	}

	cfg := &tls.Config{
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: opts.InsecureSkipVerify, //nolint:gosec // opt-in for self-hosted instances
	}

	if opts.MinVersion != "" {
		v, ok := tlsVersions[opts.MinVersion]
		if !ok {
			return nil, fmt.Errorf("unknown tls version %q", opts.MinVersion)
		}
		cfg.MinVersion = v
	}

	if opts.CAFile != "" {
		pem, err := os.ReadFile(opts.CAFile)
		if err != nil {
			return nil, fmt.Errorf("read ca file: %w", err)
		}
		pool, err := x509.SystemCertPool()
		if err != nil {
			pool = x509.NewCertPool()
		}
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("no certificates found in %s", opts.CAFile)
		}
		cfg.RootCAs = pool
	}

	return cfg, nil
}

// Get performs one GET request. Transport failures become KindNetwork (or
// KindCancelled when ctx was cancelled) and non-2xx answers KindProvider.
func Get(ctx context.Context, client *resty.Client, provider, path string, params url.Values) (*resty.Response, error) {
	response, err := client.R().
		SetContext(ctx).
		SetQueryParamsFromValues(params).
		Get(path)
	if err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return nil, manager.CancelledError(provider, err)
		}
		return nil, manager.NetworkError(provider, err)
	}

	if response.StatusCode() < 200 || response.StatusCode() > 299 {
		return nil, manager.StatusError(provider, response.StatusCode(), indent(response.Body()))
	}

	return response, nil
}

// Decode unmarshals data into v and checks its `validate` tags. Unknown
// fields are ignored.
func Decode(provider string, data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return manager.DecodeError(provider, err)
	}
	if err := validate.Struct(v); err != nil {
		return manager.DecodeError(provider, err)
	}
	return nil
}

func indent(body []byte) string {
	buf := &bytes.Buffer{}
	if err := json.Indent(buf, body, "", "  "); err != nil {
		return string(body)
	}
	return buf.String()
}
