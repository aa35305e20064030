package models

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
)

// Point is a position in a planar projected coordinate system (British National Grid
// eastings and northings in metres). No projection checks are performed.
type Point struct {
	Easting  float64
	Northing float64
}

// Distance returns the Euclidean distance between two points.
func (p Point) Distance(q Point) float64 {
	return math.Hypot(p.Easting-q.Easting, p.Northing-q.Northing)
}

// Geom converts the point to a go-geom XY point.
func (p Point) Geom() *geom.Point {
	return geom.NewPointFlat(geom.XY, []float64{p.Easting, p.Northing})
}

// MarshalJSON encodes the point as a GeoJSON Point geometry.
func (p Point) MarshalJSON() ([]byte, error) {
	g, err := geojson.Encode(p.Geom())
	if err != nil {
		return nil, fmt.Errorf("failed to encode point: %w", err)
	}
	return json.Marshal(g)
}

// UnmarshalJSON parses a GeoJSON Point geometry.
func (p *Point) UnmarshalJSON(data []byte) error {
	var g geom.T
	if err := geojson.Unmarshal(data, &g); err != nil {
		return fmt.Errorf("failed to unmarshal point: %w", err)
	}

	point, ok := g.(*geom.Point)
	if !ok {
		return fmt.Errorf("expected Point geometry, got %T", g)
	}

	p.Easting = point.X()
	p.Northing = point.Y()
	return nil
}
