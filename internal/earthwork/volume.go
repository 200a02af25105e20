package earthwork

import (
	"context"
	"math"

	"github.com/sells-group/earthwork/internal/geometry"
)

// accumulator splits signed contributions into cut and fill.
type accumulator struct {
	cut, fill float64
}

func (a *accumulator) add(contribution float64) {
	switch {
	case contribution > 0:
		a.fill += contribution
	case contribution < 0:
		a.cut -= contribution
	}
}

// integrateTIN sums area * mean delta over the retained triangles.
func integrateTIN(points []geometry.LocalPoint, deltas []float64, triangles []Triangle) (acc accumulator, triangulated float64) {
	for _, t := range triangles {
		area := triangleArea(points, t)
		avg := (deltas[t[0]] + deltas[t[1]] + deltas[t[2]]) / 3
		acc.add(area * avg)
		triangulated += area
	}
	return acc, triangulated
}

// gridPlan describes the cell sweep over a bounding box.
type gridPlan struct {
	box      geometry.BBox
	cellSize float64
	nx, ny   int
}

// planGrid sizes the cell sweep, coarsening the cell when the box would need
// more than maxCells cells.
func planGrid(box geometry.BBox, cellSize float64, maxCells int) gridPlan {
	w, h := box.Width(), box.Height()
	if maxCells > 0 && (w/cellSize)*(h/cellSize) > float64(maxCells) {
		cellSize = math.Sqrt(w * h / float64(maxCells))
	}
	nx := int(math.Ceil(w / cellSize))
	ny := int(math.Ceil(h / cellSize))
	return gridPlan{box: box, cellSize: cellSize, nx: max(nx, 1), ny: max(ny, 1)}
}

// integrateGrid assigns every cell whose centre is inside the ring the delta of
// its nearest sample and sums cell area * delta. The context is checked once per
// row.
func integrateGrid(ctx context.Context, ring *geometry.Ring, points []geometry.LocalPoint, deltas []float64, plan gridPlan) (acc accumulator, cells int, err error) {
	index := newNearestIndex(points)
	cellArea := plan.cellSize * plan.cellSize

	for j := 0; j < plan.ny; j++ {
		if err := ctx.Err(); err != nil {
			return accumulator{}, 0, err
		}
		cy := plan.box.MinY + (float64(j)+0.5)*plan.cellSize
		for i := 0; i < plan.nx; i++ {
			c := geometry.LocalPoint{X: plan.box.MinX + (float64(i)+0.5)*plan.cellSize, Y: cy}
			if !ring.Contains(c) {
				continue
			}
			acc.add(cellArea * deltas[index.Nearest(c)])
			cells++
		}
	}
	return acc, cells, nil
}

// uniformSplit assigns area * |delta| entirely to fill or cut.
func uniformSplit(area, delta float64) accumulator {
	var acc accumulator
	acc.add(area * delta)
	return acc
}
