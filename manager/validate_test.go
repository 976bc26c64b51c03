package manager_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"geocoding/manager"
)

func TestValidateForward(t *testing.T) {
	bad := manager.NewBounds(0, 50, 1, 40)

	tests := []struct {
		name  string
		query manager.Query
		ok    bool
	}{
		{"address", manager.ForwardQuery("Schwabing, München"), true},
		{"empty", manager.ForwardQuery(""), false},
		{"blank", manager.ForwardQuery("  \t"), false},
		{"negative limit", manager.Query{Address: "Bern", Limit: -1}, false},
		{"inverted bounds", manager.Query{Address: "Bern", Bounds: &bad}, false},
		{"long country code", manager.Query{Address: "Bern", CountryCodes: []string{"che"}}, false},
		{"country code", manager.Query{Address: "Bern", CountryCodes: []string{"ch"}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := manager.ValidateForward("test", tt.query)
			if tt.ok {
				require.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, manager.ErrInvalidQuery)
		})
	}
}

func TestValidateReverse(t *testing.T) {
	tests := []struct {
		name     string
		lat, lon float64
		ok       bool
	}{
		{"barcelona", 41.40139, 2.12870, true},
		{"north pole", 90, 0, true},
		{"date line", 0, -180, true},
		{"lat too high", 90.0001, 0, false},
		{"lat too low", -91, 0, false},
		{"lon too high", 0, 180.5, false},
		{"lon too low", 0, -181, false},
		{"nan", math.NaN(), 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := manager.ValidateReverse("test", manager.ReverseQuery(tt.lat, tt.lon))
			if tt.ok {
				require.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, manager.ErrInvalidQuery)
		})
	}
}

func TestValidateReverse_MissingPoint(t *testing.T) {
	assert.ErrorIs(t, manager.ValidateReverse("test", manager.Query{}), manager.ErrInvalidQuery)
}

func TestBounds_String(t *testing.T) {
	b := manager.NewBounds(-0.13806939125061035, 51.51989264641164, -0.13427138328552246, 51.52319711775629)
	assert.Equal(t, "-0.13806939125061035,51.51989264641164,-0.13427138328552246,51.52319711775629", b.String())
}

func TestValidateBounds(t *testing.T) {
	assert.NoError(t, manager.ValidateBounds("p", manager.NewBounds(5.9, 45.8, 10.5, 47.8)))

	for _, b := range []manager.Bounds{
		manager.NewBounds(0, 95, 10, -95),
		manager.NewBounds(5.9, 47.8, 10.5, 45.8),
		manager.NewBounds(-180.5, 45.8, 10.5, 47.8),
		manager.NewBounds(5.9, math.NaN(), 10.5, 47.8),
	} {
		assert.ErrorIs(t, manager.ValidateBounds("p", b), manager.ErrInvalidQuery, "bounds %s", b)
	}
}
