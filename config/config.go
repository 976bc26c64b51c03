// Package config loads the YAML configuration of the geocoding tool.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"slices"
	"time"

	"gopkg.in/yaml.v3"

	"geocoding/apis/transport"
	"geocoding/manager"
)

const (
	OpenCage      = "opencage"
	OpenStreetMap = "openstreetmap"
	GeoAdmin      = "geoadmin"
)

// Providers lists every provider name the configuration accepts.
var Providers = []string{OpenCage, OpenStreetMap, GeoAdmin}

var (
	ErrUnknownProvider  = errors.New("provider must be one of: opencage, openstreetmap, geoadmin")
	ErrInvalidBBox      = errors.New("bbox must have exactly 4 values: minlon, minlat, maxlon, maxlat")
	ErrInvalidLimit     = errors.New("limit must not be negative")
	ErrInvalidTimeout   = errors.New("timeout must be positive")
	ErrInvalidRetry     = errors.New("retry.attempts must not be negative")
	ErrInvalidTLS       = errors.New("tls.min_version must be one of: 1.0, 1.1, 1.2, 1.3")
	ErrMissingAPIKey    = errors.New("opencage requires providers.opencage.api_key")
	ErrInvalidCountries = errors.New("countrycodes must be ISO 3166-1 alpha-2 codes")
)

//go:embed config.yaml
var defaultRaw []byte

type Config struct {
	Provider  string        `yaml:"provider"`
	UserAgent string        `yaml:"user_agent"`
	Timeout   time.Duration `yaml:"timeout"`
	LogLevel  string        `yaml:"log_level"`
	TLS       TLS           `yaml:"tls"`
	Retry     Retry         `yaml:"retry"`
	Providers struct {
		OpenCage      Provider `yaml:"opencage"`
		OpenStreetMap Provider `yaml:"openstreetmap"`
		GeoAdmin      Provider `yaml:"geoadmin"`
	} `yaml:"providers"`
	Server Server `yaml:"server"`
}

type TLS struct {
	CAFile             string `yaml:"ca_file"`
	InsecureSkipVerify bool   `yaml:"insecure_skip_verify"`
	MinVersion         string `yaml:"min_version"`
}

type Retry struct {
	Attempts     int           `yaml:"attempts"`
	InitialDelay time.Duration `yaml:"initial_delay"`
	MaxDelay     time.Duration `yaml:"max_delay"`
}

// Provider holds the options shared by every backend. Fields a backend has no
// use for are ignored by it.
type Provider struct {
	APIKey         string    `yaml:"api_key"`
	BaseURL        string    `yaml:"base_url"`
	BBox           []float64 `yaml:"bbox"`
	CountryCodes   []string  `yaml:"countrycodes"`
	Limit          int       `yaml:"limit"`
	Language       string    `yaml:"language"`
	AddressDetails bool      `yaml:"addressdetails"`
	Origins        string    `yaml:"origins"`
}

type Server struct {
	Addr string `yaml:"addr"`
}

// Bounds converts BBox, returning nil when unset.
func (p Provider) Bounds() *manager.Bounds {
	if len(p.BBox) != 4 {
		return nil
	}
	b := manager.NewBounds(p.BBox[0], p.BBox[1], p.BBox[2], p.BBox[3])
	return &b
}

// Default returns the embedded configuration.
func Default() (*Config, error) {
	return Parse(defaultRaw)
}

// Load reads path, or the embedded default when path is empty, then applies
// environment overrides and validates the result.
func Load(path string) (*Config, error) {
	raw := defaultRaw
	if path != "" {
		var err error
		raw, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg, err := Parse(raw)
	if err != nil {
		return nil, err
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes YAML on top of the built-in defaults without validating.
func Parse(raw []byte) (*Config, error) {
	cfg := &Config{
		Provider:  OpenStreetMap,
		UserAgent: transport.DefaultUserAgent,
		Timeout:   transport.DefaultTimeout,
		LogLevel:  "info",
	}
	cfg.Retry.InitialDelay = time.Second
	cfg.Retry.MaxDelay = 10 * time.Second
	cfg.Providers.OpenStreetMap.AddressDetails = true
	cfg.Server.Addr = ":8080"

	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("GEOCODING_PROVIDER"); v != "" {
		c.Provider = v
	}
	if v := os.Getenv("GEOCODING_OPENCAGE_API_KEY"); v != "" {
		c.Providers.OpenCage.APIKey = v
	}
	if v := os.Getenv("GEOCODING_NOMINATIM_URL"); v != "" {
		c.Providers.OpenStreetMap.BaseURL = v
	}
	if v := os.Getenv("GEOCODING_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
}

func (c *Config) Validate() error {
	if !slices.Contains(Providers, c.Provider) {
		return fmt.Errorf("%w: got %q", ErrUnknownProvider, c.Provider)
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.Retry.Attempts < 0 {
		return ErrInvalidRetry
	}
	if c.TLS.MinVersion != "" && !slices.Contains([]string{"1.0", "1.1", "1.2", "1.3"}, c.TLS.MinVersion) {
		return ErrInvalidTLS
	}
	if c.Provider == OpenCage && c.Providers.OpenCage.APIKey == "" {
		return ErrMissingAPIKey
	}

	for name, p := range map[string]Provider{
		OpenCage:      c.Providers.OpenCage,
		OpenStreetMap: c.Providers.OpenStreetMap,
		GeoAdmin:      c.Providers.GeoAdmin,
	} {
		if err := p.validate(name); err != nil {
			return fmt.Errorf("providers.%s: %w", name, err)
		}
	}
	return nil
}

func (p Provider) validate(name string) error {
	if len(p.BBox) != 0 && len(p.BBox) != 4 {
		return ErrInvalidBBox
	}
	if b := p.Bounds(); b != nil {
		// GeoAdmin boxes are LV95 metres, so only their corner order is checked.
		if name == GeoAdmin {
			if b.Min.Lon > b.Max.Lon || b.Min.Lat > b.Max.Lat {
				return fmt.Errorf("%w: corners out of order", ErrInvalidBBox)
			}
		} else if err := manager.ValidateBounds(name, *b); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidBBox, err)
		}
	}
	if p.Limit < 0 {
		return ErrInvalidLimit
	}
	for _, cc := range p.CountryCodes {
		if len(cc) != 2 {
			return ErrInvalidCountries
		}
	}
	return nil
}

// ProviderConfig returns the section for the named provider.
func (c *Config) ProviderConfig(name string) (Provider, error) {
	switch name {
	case OpenCage:
		return c.Providers.OpenCage, nil
	case OpenStreetMap:
		return c.Providers.OpenStreetMap, nil
	case GeoAdmin:
		return c.Providers.GeoAdmin, nil
	default:
		return Provider{}, fmt.Errorf("%w: got %q", ErrUnknownProvider, name)
	}
}

func (c *Config) TLSOptions() transport.TLSOptions {
	return transport.TLSOptions{
		CAFile:             c.TLS.CAFile,
		InsecureSkipVerify: c.TLS.InsecureSkipVerify,
		MinVersion:         c.TLS.MinVersion,
	}
}

// RetryPolicy returns nil when retries are disabled.
func (c *Config) RetryPolicy() manager.RetryPolicy {
	if c.Retry.Attempts == 0 {
		return nil
	}
	return manager.ExponentialBackoff{
		Retries: c.Retry.Attempts,
		Initial: c.Retry.InitialDelay,
		Max:     c.Retry.MaxDelay,
	}
}
