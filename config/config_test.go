package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"geocoding/manager"
)

func TestDefault(t *testing.T) {
	cfg, err := Default()
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, OpenStreetMap, cfg.Provider)
	assert.Equal(t, 10*time.Second, cfg.Timeout)
	assert.Equal(t, "1.2", cfg.TLS.MinVersion)
	assert.True(t, cfg.Providers.OpenStreetMap.AddressDetails)
	assert.Equal(t, "https://nominatim.openstreetmap.org", cfg.Providers.OpenStreetMap.BaseURL)
	assert.Nil(t, cfg.RetryPolicy())
	assert.Nil(t, cfg.Providers.GeoAdmin.Bounds())
}

func TestParse_KeepsDefaultsForMissingKeys(t *testing.T) {
	cfg, err := Parse([]byte("provider: geoadmin\n"))
	require.NoError(t, err)

	assert.Equal(t, GeoAdmin, cfg.Provider)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, time.Second, cfg.Retry.InitialDelay)
}

func TestParse_Invalid(t *testing.T) {
	_, err := Parse([]byte("provider: [unterminated"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		err  error
	}{
		{"unknown provider", "provider: google", ErrUnknownProvider},
		{"opencage without key", "provider: opencage", ErrMissingAPIKey},
		{"bbox of three", "providers:\n  openstreetmap:\n    bbox: [1, 2, 3]", ErrInvalidBBox},
		{"negative limit", "providers:\n  geoadmin:\n    limit: -1", ErrInvalidLimit},
		{"zero timeout", "timeout: 0s", ErrInvalidTimeout},
		{"negative retry", "retry:\n  attempts: -2", ErrInvalidRetry},
		{"tls version", "tls:\n  min_version: \"1.4\"", ErrInvalidTLS},
		{"country code", "providers:\n  opencage:\n    countrycodes: [che]", ErrInvalidCountries},
		{"bbox latitude out of range", "providers:\n  opencage:\n    bbox: [0, 95, 10, -95]", ErrInvalidBBox},
		{"bbox longitude out of range", "providers:\n  openstreetmap:\n    bbox: [-190, 10, 10, 20]", ErrInvalidBBox},
		{"bbox south above north", "providers:\n  openstreetmap:\n    bbox: [5.9, 47.8, 10.5, 45.8]", ErrInvalidBBox},
		{"lv95 bbox corners swapped", "providers:\n  geoadmin:\n    bbox: [2610000, 1190000, 2600000, 1200000]", ErrInvalidBBox},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Parse([]byte(tt.yaml))
			require.NoError(t, err)
			assert.ErrorIs(t, cfg.Validate(), tt.err)
		})
	}
}

func TestValidate_LV95BBox(t *testing.T) {
	cfg, err := Parse([]byte("providers:\n  geoadmin:\n    bbox: [2600000, 1190000, 2610000, 1200000]"))
	require.NoError(t, err)
	assert.NoError(t, cfg.Validate())
}

func TestParse_DefaultMaxDelay(t *testing.T) {
	cfg, err := Parse([]byte("retry:\n  attempts: 3\n"))
	require.NoError(t, err)

	assert.Equal(t, manager.ExponentialBackoff{
		Retries: 3,
		Initial: time.Second,
		Max:     10 * time.Second,
	}, cfg.RetryPolicy())
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := `
provider: opencage
timeout: 3s
retry:
  attempts: 2
  initial_delay: 500ms
  max_delay: 2s
providers:
  opencage:
    api_key: secret
    bbox: [5.9, 45.8, 10.5, 47.8]
    countrycodes: [ch]
    language: de
`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, OpenCage, cfg.Provider)
	assert.Equal(t, 3*time.Second, cfg.Timeout)

	section, err := cfg.ProviderConfig(OpenCage)
	require.NoError(t, err)
	assert.Equal(t, "secret", section.APIKey)
	assert.Equal(t, []string{"ch"}, section.CountryCodes)

	bounds := manager.NewBounds(5.9, 45.8, 10.5, 47.8)
	assert.Equal(t, &bounds, section.Bounds())

	assert.Equal(t, manager.ExponentialBackoff{
		Retries: 2,
		Initial: 500 * time.Millisecond,
		Max:     2 * time.Second,
	}, cfg.RetryPolicy())
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("GEOCODING_PROVIDER", OpenCage)
	t.Setenv("GEOCODING_OPENCAGE_API_KEY", "from-env")
	t.Setenv("GEOCODING_NOMINATIM_URL", "http://localhost:8088")
	t.Setenv("GEOCODING_LOG_LEVEL", "debug")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, OpenCage, cfg.Provider)
	assert.Equal(t, "from-env", cfg.Providers.OpenCage.APIKey)
	assert.Equal(t, "http://localhost:8088", cfg.Providers.OpenStreetMap.BaseURL)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestProviderConfig_Unknown(t *testing.T) {
	cfg, err := Default()
	require.NoError(t, err)

	_, err = cfg.ProviderConfig("bing")
	assert.ErrorIs(t, err, ErrUnknownProvider)
}
