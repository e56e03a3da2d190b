// Package geojson renders location samples as GeoJSON for map clients.
package geojson

import (
	"encoding/json"
	"time"

	"github.com/benmeehan/location-tracker/internal/models"
)

// FeatureCollection represents a GeoJSON FeatureCollection.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// Feature represents a GeoJSON Feature.
type Feature struct {
	Type       string         `json:"type"`
	Geometry   Geometry       `json:"geometry"`
	Properties map[string]any `json:"properties"`
}

// Geometry represents a GeoJSON Geometry.
type Geometry struct {
	Type        string `json:"type"`
	Coordinates any    `json:"coordinates"`
}

// PointCoordinates is [longitude, latitude].
type PointCoordinates [2]float64

// LineCoordinates is [[lng, lat], [lng, lat], ...].
type LineCoordinates []PointCoordinates

// Point builds the marker feature for one sample.
func Point(sample models.LocationSample) Feature {
	return Feature{
		Type: "Feature",
		Geometry: Geometry{
			Type:        "Point",
			Coordinates: PointCoordinates{sample.Longitude, sample.Latitude},
		},
		Properties: map[string]any{
			"id":          sample.ID,
			"accuracy":    sample.Accuracy,
			"recorded_at": sample.Time().UTC().Format(time.RFC3339),
		},
	}
}

// Path builds a LineString through samples in the order given. A line needs
// at least two points, so shorter inputs return false.
func Path(samples []models.LocationSample) (Feature, bool) {
	if len(samples) < 2 {
		return Feature{}, false
	}

	coords := make(LineCoordinates, len(samples))
	for i, s := range samples {
		coords[i] = PointCoordinates{s.Longitude, s.Latitude}
	}

	return Feature{
		Type: "Feature",
		Geometry: Geometry{
			Type:        "LineString",
			Coordinates: coords,
		},
		Properties: map[string]any{
			"point_count": len(samples),
		},
	}, true
}

// History converts a newest-first log into a FeatureCollection holding the
// chronological path (when there are at least two samples) followed by one
// Point per sample.
func History(newestFirst []models.LocationSample) *FeatureCollection {
	features := make([]Feature, 0, len(newestFirst)+1)

	if line, ok := Path(Chronological(newestFirst)); ok {
		features = append(features, line)
	}
	for _, s := range newestFirst {
		features = append(features, Point(s))
	}

	return &FeatureCollection{
		Type:     "FeatureCollection",
		Features: features,
	}
}

// Chronological returns a reversed copy of a newest-first slice.
func Chronological(newestFirst []models.LocationSample) []models.LocationSample {
	out := make([]models.LocationSample, len(newestFirst))
	for i, s := range newestFirst {
		out[len(newestFirst)-1-i] = s
	}
	return out
}

// ToJSON serializes a FeatureCollection to JSON.
func (fc *FeatureCollection) ToJSON() ([]byte, error) {
	return json.Marshal(fc)
}

// ToJSONIndent serializes a FeatureCollection to indented JSON.
func (fc *FeatureCollection) ToJSONIndent() ([]byte, error) {
	return json.MarshalIndent(fc, "", "  ")
}
