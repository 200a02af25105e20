// Package earthwork computes cut/fill volumes over a boundary polygon from
// sampled original and target heights, using a uniform depth, a TIN surface or
// a nearest-sample grid.
package earthwork

import (
	"context"
	"math"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/earthwork/internal/geometry"
)

// preparedBoundary is a boundary projected into local meters together with the
// projector used for every other point of the same request.
type preparedBoundary struct {
	projector *geometry.Projector
	ring      *geometry.Ring
}

// openBoundary drops an explicit closing vertex.
func openBoundary(boundary []geometry.GeoPoint) []geometry.GeoPoint {
	if n := len(boundary); n > 1 && boundary[0] == boundary[n-1] {
		return boundary[:n-1]
	}
	return boundary
}

// projectBoundary builds one projector for the boundary plus any extra points.
// The origin is the minimum of the whole working set; the reference latitude
// is the mean boundary latitude, so the boundary area does not depend on the
// samples. opts must already carry defaults.
func projectBoundary(op string, boundary, extra []geometry.GeoPoint, opts Options) (*preparedBoundary, error) {
	boundary = openBoundary(boundary)
	if len(boundary) < 3 {
		return nil, inputErrorf(op, "%s, got %d", geometry.ReasonTooFewVertices, len(boundary))
	}
	if len(boundary) > opts.MaxPolygonVertices {
		return nil, inputErrorf(op, "polygon has %d vertices, limit is %d", len(boundary), opts.MaxPolygonVertices)
	}

	var sumLat float64
	for i, p := range boundary {
		if err := geometry.ValidateCoordinate(p); err != nil {
			return nil, inputErrorf(op, "boundary vertex %d: %v", i, err)
		}
		sumLat += p.Latitude
	}
	refLat := sumLat / float64(len(boundary))

	working := make([]geometry.GeoPoint, 0, len(boundary)+len(extra))
	working = append(working, boundary...)
	working = append(working, extra...)

	proj, err := geometry.NewProjectorWithReference(working, refLat)
	if err != nil {
		return nil, computationError(op, "cannot project boundary", err)
	}
	return &preparedBoundary{
		projector: proj,
		ring:      geometry.NewRing(proj.ProjectAll(boundary)),
	}, nil
}

// prepareBoundary projects the boundary and rejects rings that are not usable
// simple polygons.
func prepareBoundary(op string, boundary, extra []geometry.GeoPoint, opts Options) (*preparedBoundary, error) {
	b, err := projectBoundary(op, boundary, extra, opts)
	if err != nil {
		return nil, err
	}
	if v := b.ring.Validate(); !v.Valid {
		return nil, inputErrorf(op, "%s", v.Reason)
	}
	return b, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func checkHeights(op string, heights ...float64) error {
	for _, h := range heights {
		if !finite(h) {
			return inputErrorf(op, "height must be a finite number, got %v", h)
		}
	}
	return nil
}

func checkSamples(op string, samples []SamplePoint) error {
	if len(samples) < 3 {
		return inputErrorf(op, "at least 3 sample points are required, got %d", len(samples))
	}
	for i, s := range samples {
		if err := geometry.ValidateCoordinate(s.Geo()); err != nil {
			return inputErrorf(op, "sample point %d: %v", i, err)
		}
		if !finite(s.OriginalHeight) || !finite(s.TargetHeight) {
			return inputErrorf(op, "sample point %d: heights must be finite numbers", i)
		}
	}
	return nil
}

// ValidatePolygon reports whether the boundary is a usable simple polygon and,
// if so, its area in square meters. An invalid polygon is reported in the
// returned Validation; errors are reserved for out-of-range coordinates and
// projection failures.
func ValidatePolygon(boundary []geometry.GeoPoint, opts Options) (Validation, error) {
	const op = "validate polygon"
	if len(openBoundary(boundary)) < 3 {
		return Validation{Message: geometry.ReasonTooFewVertices}, nil
	}

	b, err := projectBoundary(op, boundary, nil, opts.withDefaults())
	if err != nil {
		return Validation{}, err
	}
	v := b.ring.Validate()
	if !v.Valid {
		return Validation{Message: v.Reason}, nil
	}
	return Validation{IsValid: true, Message: v.Reason, Area: b.ring.Area()}, nil
}

// CalculateUniform computes volume for a constant height change over the
// boundary: area * |target - original|, all to fill when the target is higher,
// all to cut when it is lower.
func CalculateUniform(boundary []geometry.GeoPoint, originalHeight, targetHeight float64, opts Options) (*VolumeResult, error) {
	const op = "calculate uniform"
	if err := checkHeights(op, originalHeight, targetHeight); err != nil {
		return nil, err
	}
	b, err := prepareBoundary(op, boundary, nil, opts.withDefaults())
	if err != nil {
		return nil, err
	}

	area := b.ring.Area()
	acc := uniformSplit(area, targetHeight-originalHeight)
	return &VolumeResult{
		Area:       area,
		CutVolume:  acc.cut,
		FillVolume: acc.fill,
		NetVolume:  acc.fill - acc.cut,
		Method:     MethodUniform,
	}, nil
}

// CalculateSurface computes cut/fill volume from per-sample heights using the
// TIN or grid method. cellSize overrides opts.CellSize for the grid method when
// positive. The boundary and samples share one projection.
func CalculateSurface(ctx context.Context, boundary []geometry.GeoPoint, samples []SamplePoint, method Method, cellSize float64, opts Options) (*VolumeResult, error) {
	const op = "calculate surface"
	opts = opts.withDefaults()

	if method != MethodTIN && method != MethodGrid {
		return nil, inputErrorf(op, "unsupported calculation method %q, expected \"tin\" or \"grid\"", method)
	}
	if !finite(cellSize) || cellSize < 0 {
		return nil, inputErrorf(op, "cell size must be a positive number of meters, got %v", cellSize)
	}
	if err := checkSamples(op, samples); err != nil {
		return nil, err
	}

	geo := make([]geometry.GeoPoint, len(samples))
	deltas := make([]float64, len(samples))
	for i, s := range samples {
		geo[i] = s.Geo()
		deltas[i] = s.Delta()
	}

	b, err := prepareBoundary(op, boundary, geo, opts)
	if err != nil {
		return nil, err
	}
	local := b.projector.ProjectAll(geo)

	result := &VolumeResult{
		Area:        b.ring.Area(),
		Method:      method,
		SampleCount: len(samples),
	}

	var acc accumulator
	switch method {
	case MethodTIN:
		triangles, err := BuildTIN(local, b.ring)
		if err != nil {
			return nil, err
		}
		if len(triangles) == 0 {
			zap.L().Warn("earthwork: no triangles retained inside boundary",
				zap.Int("samples", len(samples)),
			)
		}
		acc, result.TriangulatedArea = integrateTIN(local, deltas, triangles)
		result.Triangles = triangles
	case MethodGrid:
		if cellSize == 0 {
			cellSize = opts.CellSize
		}
		plan := planGrid(b.ring.Bounds(), cellSize, opts.MaxGridCells)
		if plan.cellSize != cellSize {
			zap.L().Info("earthwork: grid cell size coarsened",
				zap.Float64("requested", cellSize),
				zap.Float64("effective", plan.cellSize),
				zap.Int("max_cells", opts.MaxGridCells),
			)
		}
		var cells int
		acc, cells, err = integrateGrid(ctx, b.ring, local, deltas, plan)
		if err != nil {
			return nil, eris.Wrap(err, "earthwork: grid sweep interrupted")
		}
		result.CellSize = plan.cellSize
		result.CellCount = cells
	}

	result.CutVolume = acc.cut
	result.FillVolume = acc.fill
	result.NetVolume = acc.fill - acc.cut

	zap.L().Debug("earthwork: volume calculated",
		zap.String("method", string(method)),
		zap.Float64("area", result.Area),
		zap.Float64("cut", result.CutVolume),
		zap.Float64("fill", result.FillVolume),
		zap.Int("triangles", len(result.Triangles)),
	)
	return result, nil
}
