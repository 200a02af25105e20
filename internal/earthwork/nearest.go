package earthwork

import (
	"math"
	"sort"

	"github.com/sells-group/earthwork/internal/geometry"
)

// kdNode is one split of a 2-d tree over sample positions.
type kdNode struct {
	index       int
	axis        int
	left, right *kdNode
}

// nearestIndex answers nearest-sample queries in local meters. On equal
// distance the sample with the lowest index wins.
type nearestIndex struct {
	points []geometry.LocalPoint
	root   *kdNode
}

func newNearestIndex(points []geometry.LocalPoint) *nearestIndex {
	idx := make([]int, len(points))
	for i := range idx {
		idx[i] = i
	}
	t := &nearestIndex{points: points}
	t.root = t.build(idx, 0)
	return t
}

func (t *nearestIndex) build(idx []int, depth int) *kdNode {
	if len(idx) == 0 {
		return nil
	}
	axis := depth % 2
	sort.Slice(idx, func(a, b int) bool {
		ca, cb := coord(t.points[idx[a]], axis), coord(t.points[idx[b]], axis)
		if ca != cb {
			return ca < cb
		}
		return idx[a] < idx[b]
	})
	mid := len(idx) / 2
	return &kdNode{
		index: idx[mid],
		axis:  axis,
		left:  t.build(idx[:mid], depth+1),
		right: t.build(idx[mid+1:], depth+1),
	}
}

// Nearest returns the index of the closest sample to p, or -1 if the index is empty.
func (t *nearestIndex) Nearest(p geometry.LocalPoint) int {
	best, bestDist := -1, math.Inf(1)

	var visit func(n *kdNode)
	visit = func(n *kdNode) {
		if n == nil {
			return
		}
		q := t.points[n.index]
		d := sqDist(p, q)
		if d < bestDist || (d == bestDist && n.index < best) {
			best, bestDist = n.index, d
		}

		diff := coord(p, n.axis) - coord(q, n.axis)
		near, far := n.left, n.right
		if diff > 0 {
			near, far = n.right, n.left
		}
		visit(near)
		// <= keeps equal-distance candidates on the far side reachable for the tie-break.
		if diff*diff <= bestDist {
			visit(far)
		}
	}
	visit(t.root)
	return best
}

func coord(p geometry.LocalPoint, axis int) float64 {
	if axis == 0 {
		return p.X
	}
	return p.Y
}

func sqDist(a, b geometry.LocalPoint) float64 {
	dx, dy := a.X-b.X, a.Y-b.Y
	return dx*dx + dy*dy
}
