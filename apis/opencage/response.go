package opencage

import (
	"encoding/json"
	"fmt"
	"strings"

	"geocoding/manager"
)

// Response is the top-level OpenCage JSON body. Fields not listed here are
// ignored when decoding.
//
//	{
//	  "rate": {"limit": 2500, "remaining": 2499, "reset": 1523318400},
//	  "results": [{
//	    "bounds": {"northeast": {"lat": 41.40, "lng": 2.12}, "southwest": {...}},
//	    "components": {"city": "Barcelona", "country_code": "es", ...},
//	    "confidence": 10,
//	    "formatted": "Carrer de Calatrava, 68, 08017 Barcelona, Spain",
//	    "geometry": {"lat": 41.4014067, "lng": 2.1287224}
//	  }],
//	  "status": {"code": 200, "message": "OK"},
//	  "timestamp": {"created_http": "Mon, 09 Apr 2018 12:33:01 GMT", "created_unix": 1523277181},
//	  "total_results": 1
//	}
type Response struct {
	Documentation string            `json:"documentation"`
	Licenses      []License         `json:"licenses"`
	Rate          *Rate             `json:"rate"`
	Results       []Result          `json:"results" validate:"required,dive"`
	Status        *Status           `json:"status" validate:"required"`
	StayInformed  map[string]string `json:"stay_informed"`
	Thanks        string            `json:"thanks"`
	Timestamp     *timestamp        `json:"timestamp" validate:"required"`
	TotalResults  int               `json:"total_results"`
}

type License struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Rate is only present for free-tier keys.
type Rate struct {
	Limit     int   `json:"limit"`
	Remaining int   `json:"remaining"`
	Reset     int64 `json:"reset"`
}

// ResetAt is when the daily quota is refilled.
func (r Rate) ResetAt() manager.UnixTime {
	return manager.FromSeconds(r.Reset)
}

type Status struct {
	Code    int    `json:"code" validate:"required"`
	Message string `json:"message"`
}

type Result struct {
	// Annotations is only requested by ForwardFull and ReverseFull.
	Annotations *Annotations   `json:"annotations"`
	Bounds      *Bounds        `json:"bounds"`
	Components  map[string]any `json:"components"`
	Confidence  int            `json:"confidence"`
	Formatted   string         `json:"formatted" validate:"required"`
	Geometry    *LatLng        `json:"geometry" validate:"required"`
}

// Annotations holds the extra data OpenCage attaches to a result. Every
// member is optional; which ones appear depends on the place and the plan.
type Annotations struct {
	DMS         map[string]string  `json:"DMS"`
	MGRS        string             `json:"MGRS"`
	Maidenhead  string             `json:"Maidenhead"`
	Mercator    map[string]float64 `json:"Mercator"`
	OSM         map[string]string  `json:"OSM"`
	CallingCode int                `json:"callingcode"`
	Currency    *Currency          `json:"currency"`
	Flag        string             `json:"flag"`
	Geohash     string             `json:"geohash"`
	Qibla       *float64           `json:"qibla"`
	Sun         *Sun               `json:"sun"`
	Timezone    *Timezone          `json:"timezone"`
	What3Words  map[string]string  `json:"what3words"`
}

type Currency struct {
	AlternateSymbols     []string     `json:"alternate_symbols"`
	DecimalMark          string       `json:"decimal_mark"`
	HTMLEntity           string       `json:"html_entity"`
	ISOCode              string       `json:"iso_code"`
	ISONumeric           numberString `json:"iso_numeric"`
	Name                 string       `json:"name"`
	SmallestDenomination int          `json:"smallest_denomination"`
	Subunit              string       `json:"subunit"`
	SubunitToUnit        int          `json:"subunit_to_unit"`
	Symbol               string       `json:"symbol"`
	SymbolFirst          int          `json:"symbol_first"`
	ThousandsSeparator   string       `json:"thousands_separator"`
}

// Sun maps apparent, astronomical, civil and nautical to unix seconds.
type Sun struct {
	Rise map[string]int64 `json:"rise"`
	Set  map[string]int64 `json:"set"`
}

// SunriseAt returns the apparent sunrise.
func (s Sun) SunriseAt() (manager.UnixTime, bool) {
	v, ok := s.Rise["apparent"]
	return manager.FromSeconds(v), ok
}

// SunsetAt returns the apparent sunset.
func (s Sun) SunsetAt() (manager.UnixTime, bool) {
	v, ok := s.Set["apparent"]
	return manager.FromSeconds(v), ok
}

type Timezone struct {
	Name         string       `json:"name"`
	NowInDST     int          `json:"now_in_dst"`
	OffsetSec    int          `json:"offset_sec"`
	OffsetString numberString `json:"offset_string"`
	ShortName    string       `json:"short_name"`
}

// numberString accepts a JSON string or number. OpenCage has sent both for
// iso_numeric and offset_string.
type numberString string

func (n *numberString) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*n = numberString(s)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return fmt.Errorf("expected string or number: %w", err)
	}
	*n = numberString(num.String())
	return nil
}

type Bounds struct {
	Northeast *LatLng `json:"northeast" validate:"required"`
	Southwest *LatLng `json:"southwest" validate:"required"`
}

type LatLng struct {
	Lat *float64 `json:"lat" validate:"required"`
	Lng *float64 `json:"lng" validate:"required"`
}

func (l LatLng) point() manager.Point {
	return manager.NewPoint(*l.Lng, *l.Lat)
}

type timestamp struct {
	CreatedHTTP string `json:"created_http" validate:"required"`
	CreatedUnix *int64 `json:"created_unix" validate:"required"`
}

// CreatedAt returns the creation time of the response.
func (r *Response) CreatedAt() manager.Timestamp {
	return manager.Timestamp{
		CreatedHTTP: r.Timestamp.CreatedHTTP,
		CreatedUnix: manager.FromSeconds(*r.Timestamp.CreatedUnix),
	}
}

func (r *Response) results() []manager.Result {
	ts := r.CreatedAt()

	results := make([]manager.Result, 0, len(r.Results))
	for _, item := range r.Results {
		result := manager.Result{
			Point:      item.Geometry.point(),
			Formatted:  item.Formatted,
			Provider:   name,
			Components: components(item.Components),
			// OpenCage confidence runs from 0 to 10.
			Confidence: float64(item.Confidence) / 10,
			Timestamp:  &ts,
		}
		if item.Bounds != nil {
			result.Bounds = &manager.Bounds{
				Min: item.Bounds.Southwest.point(),
				Max: item.Bounds.Northeast.point(),
			}
		}
		results = append(results, result)
	}
	return results
}

// components flattens the component map. Most values are strings but a few
// (ISO_3166-2, _normalized_city on some records) arrive as arrays or numbers.
func components(raw map[string]any) map[string]string {
	if len(raw) == 0 {
		return nil
	}
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		switch v := v.(type) {
		case string:
			out[k] = v
		case []any:
			parts := make([]string, 0, len(v))
			for _, p := range v {
				parts = append(parts, fmt.Sprint(p))
			}
			out[k] = strings.Join(parts, ",")
		case nil:
		default:
			out[k] = fmt.Sprint(v)
		}
	}
	return out
}
