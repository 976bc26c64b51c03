package manager

import (
	"math"
	"strings"
)

// ValidateForward checks a forward query before any request is built.
func ValidateForward(provider string, q Query) error {
	if strings.TrimSpace(q.Address) == "" {
		return InvalidQuery(provider, "empty address")
	}
	return validateOptions(provider, q)
}

// ValidateReverse checks a reverse query against WGS84 ranges.
func ValidateReverse(provider string, q Query) error {
	if q.Point == nil {
		return InvalidQuery(provider, "missing coordinates")
	}
	if err := validatePoint(provider, *q.Point); err != nil {
		return err
	}
	return validateOptions(provider, q)
}

func validatePoint(provider string, p Point) error {
	if math.IsNaN(p.Lat) || p.Lat < -90 || p.Lat > 90 {
		return InvalidQuery(provider, "latitude %v out of range [-90, 90]", p.Lat)
	}
	if math.IsNaN(p.Lon) || p.Lon < -180 || p.Lon > 180 {
		return InvalidQuery(provider, "longitude %v out of range [-180, 180]", p.Lon)
	}
	return nil
}

func validateOptions(provider string, q Query) error {
	if q.Limit < 0 {
		return InvalidQuery(provider, "negative limit %d", q.Limit)
	}
	if q.Bounds != nil {
		if err := ValidateBounds(provider, *q.Bounds); err != nil {
			return err
		}
	}
	for _, cc := range q.CountryCodes {
		if len(cc) != 2 {
			return InvalidQuery(provider, "country code %q is not ISO 3166-1 alpha-2", cc)
		}
	}
	return nil
}

// ValidateBounds checks both corners against WGS84 ranges and that the south
// edge is not above the north edge.
func ValidateBounds(provider string, b Bounds) error {
	if err := validatePoint(provider, b.Min); err != nil {
		return err
	}
	if err := validatePoint(provider, b.Max); err != nil {
		return err
	}
	if b.Min.Lat > b.Max.Lat {
		return InvalidQuery(provider, "bounds south edge above north edge")
	}
	return nil
}
