package loader

import (
	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/earthwork/internal/geometry"
)

// ReadBoundaryShapefile returns the outer ring of the first polygon record in
// a shapefile. Coordinates are expected in WGS84 degrees.
func ReadBoundaryShapefile(shpPath string) ([]geometry.GeoPoint, error) {
	reader, err := shp.Open(shpPath)
	if err != nil {
		return nil, eris.Wrapf(err, "loader: open shapefile %s", shpPath)
	}
	defer func() { _ = reader.Close() }()

	var skipped int
	for reader.Next() {
		_, shape := reader.Shape()
		poly, ok := shape.(*shp.Polygon)
		if !ok || poly.NumParts == 0 || len(poly.Points) == 0 {
			skipped++
			continue
		}

		if skipped > 0 {
			zap.L().Debug("loader: skipped non-polygon shapefile records", zap.Int("skipped", skipped))
		}
		return firstPart(poly), nil
	}
	if err := reader.Err(); err != nil {
		return nil, eris.Wrapf(err, "loader: read shapefile %s", shpPath)
	}
	return nil, eris.Errorf("loader: shapefile %s has no polygon records", shpPath)
}

// firstPart extracts the points of a polygon's first part.
func firstPart(p *shp.Polygon) []geometry.GeoPoint {
	end := int32(len(p.Points))
	if p.NumParts > 1 && p.Parts[1] < end {
		end = p.Parts[1]
	}

	ring := make([]geometry.GeoPoint, 0, end-p.Parts[0])
	for j := p.Parts[0]; j < end; j++ {
		ring = append(ring, geometry.GeoPoint{Longitude: p.Points[j].X, Latitude: p.Points[j].Y})
	}
	return ring
}
