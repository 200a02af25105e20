package earthwork

import (
	"context"
	"math"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/earthwork/internal/geometry"
)

// latticeTolerance admits the far bound of the box despite floating-point drift.
const latticeTolerance = 1e-9

// GenerateSamplePoints lays a regular lattice of spacing gridSize meters over
// the boundary's bounding box and keeps the lattice points inside the boundary.
// Points are returned row by row from the south-west corner, each carrying the
// supplied default heights. A boundary smaller than the spacing can produce an
// empty grid.
func GenerateSamplePoints(ctx context.Context, boundary []geometry.GeoPoint, gridSize, originalHeight, targetHeight float64, opts Options) (*SampleGrid, error) {
	const op = "generate sample points"
	opts = opts.withDefaults()

	if !finite(gridSize) || gridSize <= 0 {
		return nil, inputErrorf(op, "grid size must be a positive number of meters, got %v", gridSize)
	}
	if err := checkHeights(op, originalHeight, targetHeight); err != nil {
		return nil, err
	}

	b, err := prepareBoundary(op, boundary, nil, opts)
	if err != nil {
		return nil, err
	}

	// Size the lattice in float64 first: a tiny spacing overflows int.
	box := b.ring.Bounds()
	fx := math.Floor(box.Width()/gridSize+latticeTolerance) + 1
	fy := math.Floor(box.Height()/gridSize+latticeTolerance) + 1
	if !finite(fx*fy) || fx*fy > float64(opts.MaxSamplePoints) {
		return nil, inputErrorf(op, "grid size %g m needs %.0f x %.0f lattice points, limit is %d", gridSize, fx, fy, opts.MaxSamplePoints)
	}
	nx, ny := int(fx), int(fy)

	points := make([]SamplePoint, 0)
	for j := 0; j < ny; j++ {
		if err := ctx.Err(); err != nil {
			return nil, eris.Wrap(err, "earthwork: generate sample points")
		}
		y := box.MinY + float64(j)*gridSize
		for i := 0; i < nx; i++ {
			local := geometry.LocalPoint{X: box.MinX + float64(i)*gridSize, Y: y}
			if !b.ring.Contains(local) {
				continue
			}
			g := b.projector.Unproject(local)
			points = append(points, SamplePoint{
				Longitude:      g.Longitude,
				Latitude:       g.Latitude,
				OriginalHeight: originalHeight,
				TargetHeight:   targetHeight,
			})
		}
	}

	zap.L().Debug("earthwork: generated sample points",
		zap.Float64("grid_size", gridSize),
		zap.Int("lattice", nx*ny),
		zap.Int("count", len(points)),
	)
	return &SampleGrid{Points: points, Count: len(points)}, nil
}
