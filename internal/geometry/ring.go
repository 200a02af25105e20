package geometry

import (
	"math"
	"sort"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/xy"
	"github.com/twpayne/go-geom/xy/lineintersection"
	"github.com/twpayne/go-geom/xy/lineintersector"
)

// BBox is an axis-aligned bounding box in local meters.
type BBox struct {
	MinX float64 `json:"min_x"`
	MinY float64 `json:"min_y"`
	MaxX float64 `json:"max_x"`
	MaxY float64 `json:"max_y"`
}

// Width returns the x extent.
func (b BBox) Width() float64 { return b.MaxX - b.MinX }

// Height returns the y extent.
func (b BBox) Height() float64 { return b.MaxY - b.MinY }

// Ring is an implicitly closed planar ring. Vertices are stored open (the
// closing vertex is not repeated); the closed flat form is kept for go-geom.
type Ring struct {
	points []LocalPoint
	flat   []float64
}

// NewRing builds a ring from ordered vertices. A trailing vertex equal to the
// first one is treated as an explicit closure and dropped.
func NewRing(points []LocalPoint) *Ring {
	open := make([]LocalPoint, len(points))
	copy(open, points)
	if n := len(open); n > 1 && open[0] == open[n-1] {
		open = open[:n-1]
	}

	flat := make([]float64, 0, 2*(len(open)+1))
	for _, p := range open {
		flat = append(flat, p.X, p.Y)
	}
	if len(open) > 0 {
		flat = append(flat, open[0].X, open[0].Y)
	}
	return &Ring{points: open, flat: flat}
}

// Len returns the number of distinct vertices.
func (r *Ring) Len() int { return len(r.points) }

// Points returns the open vertex list.
func (r *Ring) Points() []LocalPoint { return r.points }

// Contains reports whether p lies inside the ring. Points on the boundary are
// inside. Every containment decision in the engine goes through this method.
func (r *Ring) Contains(p LocalPoint) bool {
	if len(r.points) < 3 {
		return false
	}
	return xy.IsPointInRing(geom.XY, geom.Coord{p.X, p.Y}, r.flat)
}

// Area returns the unsigned shoelace area in square meters.
func (r *Ring) Area() float64 {
	if len(r.points) < 3 {
		return 0
	}
	return math.Abs(geom.NewLinearRingFlat(geom.XY, r.flat).Area())
}

// Bounds returns the bounding box of the ring vertices.
func (r *Ring) Bounds() BBox {
	if len(r.points) == 0 {
		return BBox{}
	}
	b := geom.NewLinearRingFlat(geom.XY, r.flat).Bounds()
	return BBox{MinX: b.Min(0), MinY: b.Min(1), MaxX: b.Max(0), MaxY: b.Max(1)}
}

// Polygon returns the ring as a single-shell go-geom polygon.
func (r *Ring) Polygon() *geom.Polygon {
	return geom.NewPolygonFlat(geom.XY, append([]float64(nil), r.flat...), []int{len(r.flat)})
}

// distinctVertices counts vertices after collapsing consecutive duplicates.
func (r *Ring) distinctVertices() int {
	n := len(r.points)
	if n == 0 {
		return 0
	}
	count := 0
	for i := 0; i < n; i++ {
		if r.points[i] != r.points[(i+1)%n] {
			count++
		}
	}
	if count == 0 {
		return 1
	}
	return count
}

// edge is one ring segment with its bounding interval, for the sweep in
// selfIntersects.
type edge struct {
	index                  int
	a, b                   geom.Coord
	minX, maxX, minY, maxY float64
}

// selfIntersects reports whether any two non-adjacent edges touch or two
// adjacent edges overlap along a shared segment. Edges are swept by minimum x
// and only pairs with overlapping bounds are tested exactly.
func (r *Ring) selfIntersects() bool {
	pts := r.compact()
	n := len(pts)
	if n < 3 {
		return false
	}

	edges := make([]edge, n)
	for i := range edges {
		a, b := pts[i], pts[(i+1)%n]
		edges[i] = edge{
			index: i,
			a:     geom.Coord{a.X, a.Y},
			b:     geom.Coord{b.X, b.Y},
			minX:  math.Min(a.X, b.X),
			maxX:  math.Max(a.X, b.X),
			minY:  math.Min(a.Y, b.Y),
			maxY:  math.Max(a.Y, b.Y),
		}
	}
	sort.Slice(edges, func(i, j int) bool { return edges[i].minX < edges[j].minX })

	strategy := lineintersector.RobustLineIntersector{}
	for k := range edges {
		e := &edges[k]
		for m := k + 1; m < n && edges[m].minX <= e.maxX; m++ {
			o := &edges[m]
			if o.maxY < e.minY || o.minY > e.maxY {
				continue
			}
			i, j := e.index, o.index
			if i > j {
				i, j = j, i
			}
			res := lineintersector.LineIntersectsLine(strategy, e.a, e.b, o.a, o.b)
			if j == i+1 || (i == 0 && j == n-1) {
				if res.Type() == lineintersection.CollinearIntersection {
					return true
				}
				continue
			}
			if res.HasIntersection() {
				return true
			}
		}
	}
	return false
}

// compact drops consecutive duplicate vertices, including a duplicate between
// the last and first vertex.
func (r *Ring) compact() []LocalPoint {
	out := make([]LocalPoint, 0, len(r.points))
	for _, p := range r.points {
		if len(out) > 0 && out[len(out)-1] == p {
			continue
		}
		out = append(out, p)
	}
	for len(out) > 1 && out[0] == out[len(out)-1] {
		out = out[:len(out)-1]
	}
	return out
}
