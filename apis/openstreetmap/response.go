package openstreetmap

import (
	"geocoding/manager"
)

// Response is the GeoJSON feature collection returned with format=geojson.
//
//	{
//	  "type": "FeatureCollection",
//	  "licence": "Data © OpenStreetMap contributors, ODbL 1.0. https://osm.org/copyright",
//	  "features": [{
//	    "type": "Feature",
//	    "properties": {
//	      "place_id": 263681481, "osm_type": "way", "osm_id": 355421084,
//	      "display_name": "68, Carrer de Calatrava, ..., Spain",
//	      "place_rank": 30, "category": "building", "type": "apartments",
//	      "importance": 0.741,
//	      "address": {"road": "Carrer de Calatrava", "city": "Barcelona", ...}
//	    },
//	    "bbox": [2.1284918, 41.401227, 2.128952, 41.4015815],
//	    "geometry": {"type": "Point", "coordinates": [2.12872241167437, 41.40140675]}
//	  }]
//	}
type Response struct {
	Type     string    `json:"type"`
	Licence  string    `json:"licence"`
	Features []Feature `json:"features" validate:"required,dive"`
}

type Feature struct {
	Type       string      `json:"type"`
	Properties *Properties `json:"properties" validate:"required"`
	BBox       []float64   `json:"bbox"`
	Geometry   *Geometry   `json:"geometry" validate:"required"`
}

type Properties struct {
	PlaceID     int64             `json:"place_id"`
	OsmType     string            `json:"osm_type"`
	OsmID       int64             `json:"osm_id"`
	DisplayName string            `json:"display_name" validate:"required"`
	PlaceRank   int               `json:"place_rank"`
	Category    string            `json:"category"`
	Type        string            `json:"type"`
	Importance  float64           `json:"importance"`
	Address     map[string]string `json:"address"`
}

// Geometry coordinates are [lon, lat].
type Geometry struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates" validate:"required,len=2"`
}

func (r *Response) results() []manager.Result {
	results := make([]manager.Result, 0, len(r.Features))
	for _, f := range r.Features {
		result := manager.Result{
			Point:      manager.NewPoint(f.Geometry.Coordinates[0], f.Geometry.Coordinates[1]),
			Formatted:  f.Properties.DisplayName,
			Provider:   name,
			Components: f.Properties.Address,
			Confidence: f.Properties.Importance,
		}
		if len(f.BBox) == 4 {
			b := manager.NewBounds(f.BBox[0], f.BBox[1], f.BBox[2], f.BBox[3])
			result.Bounds = &b
		}
		results = append(results, result)
	}
	return results
}
