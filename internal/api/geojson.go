package api

import (
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/sells-group/earthwork/internal/earthwork"
	"github.com/sells-group/earthwork/internal/report"
)

// trianglesFeatureCollection renders TIN triangles as closed polygons over the
// samples' geographic positions. Each feature carries its vertex indices and
// the mean height change of its corners.
func trianglesFeatureCollection(samples []earthwork.SamplePoint, triangles []earthwork.Triangle) (*geojson.FeatureCollection, error) {
	fc := &geojson.FeatureCollection{Features: make([]*geojson.Feature, 0, len(triangles))}
	bounds := geom.NewBounds(geom.XY)
	for i, tri := range triangles {
		ring := make([]geom.Coord, 0, 4)
		var delta float64
		for _, idx := range tri {
			if idx < 0 || idx >= len(samples) {
				return nil, eris.Errorf("api: triangle %d references sample %d of %d", i, idx, len(samples))
			}
			s := samples[idx]
			ring = append(ring, geom.Coord{s.Longitude, s.Latitude})
			delta += s.Delta()
		}
		ring = append(ring, ring[0])

		poly, err := geom.NewPolygon(geom.XY).SetCoords([][]geom.Coord{ring})
		if err != nil {
			return nil, eris.Wrapf(err, "api: build triangle %d", i)
		}
		bounds.Extend(poly)
		fc.Features = append(fc.Features, &geojson.Feature{
			ID:       strconv.Itoa(i),
			Geometry: poly,
			Properties: map[string]any{
				"vertices":   []int{tri[0], tri[1], tri[2]},
				"mean_delta": report.Round2(delta / 3),
			},
		})
	}
	if len(fc.Features) > 0 {
		fc.BBox = bounds
	}
	return fc, nil
}
