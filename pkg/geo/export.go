package geo

import (
	geom "github.com/peterstace/simplefeatures/geom"
	"github.com/wroge/wgs84"
)

// LineString converts a path into a simplefeatures line string (X=lng, Y=lat).
// Paths shorter than two points give an empty line string.
func LineString(path []Coordinate) (geom.LineString, error) {
	if len(path) < 2 {
		return geom.LineString{}, nil
	}
	coords := make([]float64, 0, len(path)*2)
	for _, c := range path {
		coords = append(coords, c.Lng, c.Lat)
	}
	return geom.NewLineString(geom.NewSequence(coords, geom.DimXY))
}

// MercatorLineString is LineString projected to EPSG:3857.
func MercatorLineString(path []Coordinate) (geom.LineString, error) {
	if len(path) < 2 {
		return geom.LineString{}, nil
	}
	coords := make([]float64, 0, len(path)*2)
	for _, c := range path {
		x, y := WebMercator(c)
		coords = append(coords, x, y)
	}
	return geom.NewLineString(geom.NewSequence(coords, geom.DimXY))
}

// Point converts a coordinate into a simplefeatures point.
func Point(c Coordinate) (geom.Point, error) {
	return geom.NewPoint(geom.Coordinates{XY: geom.XY{X: c.Lng, Y: c.Lat}})
}

// MercatorPoint is Point projected to EPSG:3857.
func MercatorPoint(c Coordinate) (geom.Point, error) {
	x, y := WebMercator(c)
	return geom.NewPoint(geom.Coordinates{XY: geom.XY{X: x, Y: y}})
}

// WebMercator projects c from EPSG:4326 to EPSG:3857.
func WebMercator(c Coordinate) (x, y float64) {
	f := wgs84.EPSG().Transform(4326, 3857)
	x, y, _ = f(c.Lng, c.Lat, 0)
	return x, y
}

// Feature wraps a geometry with GeoJSON properties.
func Feature(g geom.Geometry, props map[string]interface{}) geom.GeoJSONFeature {
	return geom.GeoJSONFeature{
		Geometry:   g,
		Properties: props,
	}
}

// FeatureCollection groups features into one GeoJSON document.
func FeatureCollection(features ...geom.GeoJSONFeature) geom.GeoJSONFeatureCollection {
	return geom.GeoJSONFeatureCollection(features)
}
