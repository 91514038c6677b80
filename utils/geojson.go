package utils

import (
	"encoding/json"
	"fmt"
	"io/ioutil"

	"github.com/ctessum/geom"
)

// GeoJSONGeometry is the wire form of a GeoJSON geometry object.
type GeoJSONGeometry struct {
	Type        string      `json:"type"`
	Coordinates interface{} `json:"coordinates"`
}

// Feature pairs a geometry with its properties. Properties marshal as an
// empty object rather than null when absent.
type Feature struct {
	Type       string                 `json:"type"`
	Geometry   *GeoJSONGeometry       `json:"geometry"`
	Properties map[string]interface{} `json:"properties"`
}

// FeatureCollection preserves feature insertion order so repeated runs over
// the same inputs serialise identically.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

func NewFeatureCollection() *FeatureCollection {
	return &FeatureCollection{Type: "FeatureCollection", Features: []Feature{}}
}

// AppendGeom converts g and appends it with the given properties.
func (fc *FeatureCollection) AppendGeom(g geom.Geom, properties map[string]interface{}) error {
	gj, err := ToGeoJSONGeometry(g)
	if err != nil {
		return err
	}
	if properties == nil {
		properties = map[string]interface{}{}
	}
	fc.Features = append(fc.Features, Feature{Type: "Feature", Geometry: gj, Properties: properties})
	return nil
}

// WriteFile marshals the collection and writes it to path.
func (fc *FeatureCollection) WriteFile(path string) error {
	data, err := json.Marshal(fc)
	if err != nil {
		return err
	}
	return ioutil.WriteFile(path, data, 0644)
}

// ToGeoJSONGeometry converts a geom geometry into its GeoJSON wire form.
func ToGeoJSONGeometry(g geom.Geom) (*GeoJSONGeometry, error) {
	switch t := g.(type) {
	case geom.Point:
		return &GeoJSONGeometry{Type: "Point", Coordinates: []float64{t.X, t.Y}}, nil
	case geom.Polygon:
		return &GeoJSONGeometry{Type: "Polygon", Coordinates: polygonCoords(t)}, nil
	case geom.MultiPolygon:
		coords := make([][][][]float64, len(t))
		for i, p := range t {
			coords[i] = polygonCoords(p)
		}
		return &GeoJSONGeometry{Type: "MultiPolygon", Coordinates: coords}, nil
	default:
		return nil, fmt.Errorf("geometry type %T not supported for GeoJSON output", g)
	}
}

func polygonCoords(p geom.Polygon) [][][]float64 {
	rings := make([][][]float64, len(p))
	for i, ring := range p {
		coords := make([][]float64, len(ring))
		for j, v := range ring {
			coords[j] = []float64{v.X, v.Y}
		}
		rings[i] = coords
	}
	return rings
}
