package loader

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/earthwork/internal/earthwork"
	"github.com/sells-group/earthwork/internal/geometry"
)

// ReadBoundaryFile reads a boundary ring, choosing the format by extension:
// .geojson and .json are GeoJSON, .shp is an ESRI shapefile.
func ReadBoundaryFile(path string) ([]geometry.GeoPoint, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".geojson", ".json":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, eris.Wrapf(err, "loader: read %s", path)
		}
		ring, err := ReadBoundaryGeoJSON(data)
		if err != nil {
			return nil, eris.Wrapf(err, "loader: %s", path)
		}
		return ring, nil
	case ".shp":
		return ReadBoundaryShapefile(path)
	default:
		return nil, eris.Errorf("loader: unsupported boundary format %q (want .geojson, .json or .shp)", filepath.Ext(path))
	}
}

// ReadSamplesFile reads sample points, choosing the format by extension: .csv
// or .xlsx (first sheet).
func ReadSamplesFile(ctx context.Context, path string) ([]earthwork.SamplePoint, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return ReadSamplesCSVFile(ctx, path)
	case ".xlsx":
		return ReadSamplesXLSX(path, "")
	default:
		return nil, eris.Errorf("loader: unsupported sample format %q (want .csv or .xlsx)", filepath.Ext(path))
	}
}
