package geoadmin

import (
	"fmt"
	"strings"

	"geocoding/manager"
)

// ForwardResponse is the SearchServer body.
//
//	{"results": [{"id": 1420809, "weight": 1512, "attrs": {
//	  "origin": "address", "featureId": "1272199_0",
//	  "detail": "seftigenstrasse 264 3084 wabern 355 koeniz ch be",
//	  "lat": 46.9279, "lon": 7.4513, "y": 2600968.75, "x": 1197427.0,
//	  "label": "Seftigenstrasse 264 <b>3084 Wabern</b>", "zoomlevel": 10}}]}
type ForwardResponse struct {
	Results []Location `json:"results" validate:"required,dive"`
}

type Location struct {
	ID     int64      `json:"id"`
	Weight int        `json:"weight"`
	Attrs  *Attribute `json:"attrs" validate:"required"`
}

type Attribute struct {
	Label      string   `json:"label" validate:"required"`
	Detail     string   `json:"detail"`
	Origin     string   `json:"origin"`
	FeatureID  string   `json:"featureId"`
	LayerBodID string   `json:"layerBodId"`
	Rank       int      `json:"rank"`
	Geodist    *float64 `json:"@geodist"`
	Lat        float64  `json:"lat"`
	Lon        float64  `json:"lon"`
	// X is the LV95 northing and Y the easting.
	X         *float64 `json:"x" validate:"required"`
	Y         *float64 `json:"y" validate:"required"`
	Zoomlevel int      `json:"zoomlevel"`
}

// ReverseResponse is the MapServer/identify body.
type ReverseResponse struct {
	Results []Feature `json:"results" validate:"required,dive"`
}

type Feature struct {
	FeatureID  any       `json:"featureId"`
	LayerBodID string    `json:"layerBodId"`
	LayerName  string    `json:"layerName"`
	Properties *Building `json:"properties" validate:"required"`
	Geometry   *Geometry `json:"geometry"`
}

// Building holds the address fields of the federal building register.
// Older payloads carry strname1, newer ones a strname array.
type Building struct {
	Strname1 string   `json:"strname1"`
	Strname  []string `json:"strname"`
	Deinr    string   `json:"deinr"`
	Plz4     int      `json:"plz4"`
	Plzname  string   `json:"plzname"`
	Gdename  string   `json:"gdename"`
	Gdekt    string   `json:"gdekt"`
}

type Geometry struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

var labelMarkup = strings.NewReplacer("<b>", "", "</b>", "")

func (r *ForwardResponse) results() []manager.Result {
	results := make([]manager.Result, 0, len(r.Results))
	for _, loc := range r.Results {
		a := loc.Attrs
		results = append(results, manager.Result{
			Point:     manager.NewPoint(*a.Y, *a.X),
			Formatted: labelMarkup.Replace(a.Label),
			Provider:  name,
			Components: map[string]string{
				"origin":    a.Origin,
				"detail":    a.Detail,
				"wgs84_lat": fmt.Sprint(a.Lat),
				"wgs84_lon": fmt.Sprint(a.Lon),
			},
		})
	}
	return results
}

func (r *ReverseResponse) results(query manager.Point) []manager.Result {
	results := make([]manager.Result, 0, len(r.Results))
	for _, f := range r.Results {
		b := f.Properties
		point := query
		if f.Geometry != nil && len(f.Geometry.Coordinates) == 2 {
			point = manager.NewPoint(f.Geometry.Coordinates[0], f.Geometry.Coordinates[1])
		}
		results = append(results, manager.Result{
			Point:     point,
			Formatted: b.address(),
			Provider:  name,
			Components: map[string]string{
				"street":       b.street(),
				"house_number": b.Deinr,
				"postcode":     fmt.Sprint(b.Plz4),
				"city":         b.Plzname,
				"municipality": b.Gdename,
				"canton":       b.Gdekt,
			},
		})
	}
	return results
}

func (b Building) street() string {
	if b.Strname1 != "" {
		return b.Strname1
	}
	if len(b.Strname) > 0 {
		return b.Strname[0]
	}
	return ""
}

// address renders "Seftigenstrasse 264, 3084 Wabern".
func (b Building) address() string {
	return fmt.Sprintf("%s %s, %d %s", b.street(), b.Deinr, b.Plz4, b.Plzname)
}
