package earthwork

import (
	"github.com/fogleman/delaunay"
	"github.com/rotisserie/eris"

	"github.com/sells-group/earthwork/internal/geometry"
)

// BuildTIN Delaunay-triangulates the sample positions and keeps the triangles
// whose centroid lies inside the boundary ring. Triangles are returned as index
// triples into points in triangulation order. Duplicate positions are skipped by
// the triangulation and never referenced.
func BuildTIN(points []geometry.LocalPoint, boundary *geometry.Ring) ([]Triangle, error) {
	const op = "build tin"
	if len(points) < 3 {
		return nil, inputErrorf(op, "at least 3 sample points are required, got %d", len(points))
	}

	input := make([]delaunay.Point, len(points))
	for i, p := range points {
		input[i] = delaunay.Point{X: p.X, Y: p.Y}
	}

	tri, err := delaunay.Triangulate(input)
	if err != nil {
		return nil, computationError(op, "triangulation failed, sample points may be collinear", eris.Wrap(err, "earthwork: delaunay"))
	}
	if len(tri.Triangles) == 0 {
		return nil, computationError(op, "triangulation produced no triangles, sample points may be collinear", nil)
	}

	out := make([]Triangle, 0, len(tri.Triangles)/3)
	for i := 0; i+2 < len(tri.Triangles); i += 3 {
		t := Triangle{tri.Triangles[i], tri.Triangles[i+1], tri.Triangles[i+2]}
		if boundary.Contains(centroid(points, t)) {
			out = append(out, t)
		}
	}
	return out, nil
}

func centroid(points []geometry.LocalPoint, t Triangle) geometry.LocalPoint {
	a, b, c := points[t[0]], points[t[1]], points[t[2]]
	return geometry.LocalPoint{
		X: (a.X + b.X + c.X) / 3,
		Y: (a.Y + b.Y + c.Y) / 3,
	}
}

// triangleArea returns the unsigned planar area of t.
func triangleArea(points []geometry.LocalPoint, t Triangle) float64 {
	a, b, c := points[t[0]], points[t[1]], points[t[2]]
	cross := (b.X-a.X)*(c.Y-a.Y) - (c.X-a.X)*(b.Y-a.Y)
	if cross < 0 {
		cross = -cross
	}
	return cross / 2
}
