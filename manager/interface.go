package manager

import (
	"context"
	"fmt"
	"strconv"
)

// Geocoder is implemented by every provider client.
type Geocoder interface {
	Name() string
	Forward(ctx context.Context, query Query) ([]Result, error)
	Reverse(ctx context.Context, query Query) ([]Result, error)
}

// Point is a coordinate pair, always in longitude/latitude (x, y) order.
type Point struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}

func NewPoint(lon, lat float64) Point {
	return Point{Lon: lon, Lat: lat}
}

func (p Point) String() string {
	return fmt.Sprintf("%s,%s", formatFloat(p.Lon), formatFloat(p.Lat))
}

// Bounds is a search area. Min is the south-west corner, Max the north-east one.
type Bounds struct {
	Min Point `json:"southwest"`
	Max Point `json:"northeast"`
}

func NewBounds(minLon, minLat, maxLon, maxLat float64) Bounds {
	return Bounds{Min: NewPoint(minLon, minLat), Max: NewPoint(maxLon, maxLat)}
}

// String renders the bounds as "minlon,minlat,maxlon,maxlat".
func (b Bounds) String() string {
	return b.Min.String() + "," + b.Max.String()
}

type Query struct {
	Address      string
	Point        *Point
	Bounds       *Bounds
	CountryCodes []string
	Limit        int
	Language     string
}

func ForwardQuery(address string) Query {
	return Query{Address: address}
}

func ReverseQuery(lat, lon float64) Query {
	p := NewPoint(lon, lat)
	return Query{Point: &p}
}

type Result struct {
	Point      Point             `json:"point"`
	Formatted  string            `json:"formatted"`
	Provider   string            `json:"provider"`
	Components map[string]string `json:"components,omitempty"`
	Confidence float64           `json:"confidence,omitempty"`
	Bounds     *Bounds           `json:"bounds,omitempty"`
	Timestamp  *Timestamp        `json:"timestamp,omitempty"`
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
