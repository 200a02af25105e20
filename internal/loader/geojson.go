package loader

import (
	"encoding/json"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/sells-group/earthwork/internal/geometry"
)

// ReadBoundaryGeoJSON extracts a boundary ring from GeoJSON. The document may
// be a Polygon or MultiPolygon geometry, a Feature, or a FeatureCollection; the
// outer ring of the first polygon found is returned.
func ReadBoundaryGeoJSON(data []byte) ([]geometry.GeoPoint, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, eris.Wrap(err, "loader: geojson: decode")
	}

	switch head.Type {
	case "FeatureCollection":
		var fc geojson.FeatureCollection
		if err := json.Unmarshal(data, &fc); err != nil {
			return nil, eris.Wrap(err, "loader: geojson: decode feature collection")
		}
		for _, f := range fc.Features {
			if ring, ok := outerRing(f.Geometry); ok {
				return ring, nil
			}
		}
		return nil, eris.New("loader: geojson: feature collection has no polygon")
	case "Feature":
		var f geojson.Feature
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, eris.Wrap(err, "loader: geojson: decode feature")
		}
		if ring, ok := outerRing(f.Geometry); ok {
			return ring, nil
		}
		return nil, eris.Errorf("loader: geojson: feature geometry is not a polygon")
	default:
		var g geom.T
		if err := geojson.Unmarshal(data, &g); err != nil {
			return nil, eris.Wrap(err, "loader: geojson: decode geometry")
		}
		if ring, ok := outerRing(g); ok {
			return ring, nil
		}
		return nil, eris.Errorf("loader: geojson: unsupported geometry type %q", head.Type)
	}
}

// outerRing returns the exterior ring of a Polygon or the first polygon of a
// MultiPolygon.
func outerRing(g geom.T) ([]geometry.GeoPoint, bool) {
	var poly *geom.Polygon
	switch t := g.(type) {
	case *geom.Polygon:
		poly = t
	case *geom.MultiPolygon:
		if t.NumPolygons() == 0 {
			return nil, false
		}
		poly = t.Polygon(0)
	default:
		return nil, false
	}
	if poly.NumLinearRings() == 0 {
		return nil, false
	}

	coords := poly.LinearRing(0).Coords()
	ring := make([]geometry.GeoPoint, len(coords))
	for i, c := range coords {
		ring[i] = geometry.GeoPoint{Longitude: c.X(), Latitude: c.Y()}
	}
	return ring, true
}
