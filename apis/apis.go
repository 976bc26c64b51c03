// Package apis wires the provider clients from configuration.
package apis

import (
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"

	"geocoding/apis/geoadmin"
	"geocoding/apis/opencage"
	"geocoding/apis/openstreetmap"
	"geocoding/apis/transport"
	"geocoding/config"
	"geocoding/manager"
)

// Options tunes the transport shared by the provider clients.
type Options struct {
	// Transport replaces the default round tripper when set.
	Transport http.RoundTripper
}

// New builds the named provider from cfg.
func New(providerName string, cfg *config.Config, logger *log.Logger, opts Options) (manager.Geocoder, error) {
	section, err := cfg.ProviderConfig(providerName)
	if err != nil {
		return nil, err
	}

	tlsConfig, err := transport.NewTLSConfig(cfg.TLSOptions())
	if err != nil {
		return nil, fmt.Errorf("tls: %w", err)
	}

	client := transport.New(transport.Options{
		UserAgent: cfg.UserAgent,
		Timeout:   cfg.Timeout,
		TLS:       tlsConfig,
		Transport: opts.Transport,
		Logger:    logger,
	})

	switch providerName {
	case config.OpenCage:
		if section.APIKey == "" {
			return nil, config.ErrMissingAPIKey
		}
		return opencage.New(section, client, logger), nil
	case config.OpenStreetMap:
		return openstreetmap.New(section, client, logger), nil
	case config.GeoAdmin:
		return geoadmin.New(section, client, logger), nil
	default:
		return nil, fmt.Errorf("%w: got %q", config.ErrUnknownProvider, providerName)
	}
}
