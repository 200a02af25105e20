package earthwork

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/earthwork/internal/geometry"
)

func bruteNearest(points []geometry.LocalPoint, p geometry.LocalPoint) int {
	best, bestDist := -1, 0.0
	for i, q := range points {
		d := sqDist(p, q)
		if best < 0 || d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

func TestNearestIndex_MatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	points := make([]geometry.LocalPoint, 200)
	for i := range points {
		points[i] = geometry.LocalPoint{X: rng.Float64() * 100, Y: rng.Float64() * 100}
	}
	index := newNearestIndex(points)

	for range 500 {
		q := geometry.LocalPoint{X: rng.Float64()*120 - 10, Y: rng.Float64()*120 - 10}
		assert.Equal(t, bruteNearest(points, q), index.Nearest(q))
	}
}

func TestNearestIndex_TiesGoToLowestIndex(t *testing.T) {
	// Integer lattice with duplicates; half-integer queries are equidistant to
	// several samples.
	var points []geometry.LocalPoint
	for rep := 0; rep < 2; rep++ {
		for y := 0; y < 5; y++ {
			for x := 0; x < 5; x++ {
				points = append(points, geometry.LocalPoint{X: float64(4 - x), Y: float64(y)})
			}
		}
	}
	index := newNearestIndex(points)

	for y := -0.5; y <= 4.5; y += 0.5 {
		for x := -0.5; x <= 4.5; x += 0.5 {
			q := geometry.LocalPoint{X: x, Y: y}
			assert.Equal(t, bruteNearest(points, q), index.Nearest(q), "query %+v", q)
		}
	}
}

func TestNearestIndex_Empty(t *testing.T) {
	assert.Equal(t, -1, newNearestIndex(nil).Nearest(geometry.LocalPoint{}))
}

func TestBuildTIN_CentroidFilter(t *testing.T) {
	// The Delaunay diagonal runs (10,0)-(0,10); only the lower-left triangle has
	// its centroid inside the triangular boundary.
	points := []geometry.LocalPoint{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 11, Y: 11}, {X: 0, Y: 10}}
	boundary := geometry.NewRing([]geometry.LocalPoint{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 0, Y: 10}})

	triangles, err := BuildTIN(points, boundary)
	require.NoError(t, err)
	require.Len(t, triangles, 1)
	assert.ElementsMatch(t, []int{0, 1, 3}, triangles[0][:])
}

func TestBuildTIN_AllOutside(t *testing.T) {
	points := []geometry.LocalPoint{{X: 100, Y: 100}, {X: 110, Y: 100}, {X: 105, Y: 110}}
	boundary := geometry.NewRing([]geometry.LocalPoint{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 0, Y: 10}})

	triangles, err := BuildTIN(points, boundary)
	require.NoError(t, err)
	assert.Empty(t, triangles)
}

func TestBuildTIN_Errors(t *testing.T) {
	boundary := geometry.NewRing([]geometry.LocalPoint{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 0, Y: 10}})

	_, err := BuildTIN([]geometry.LocalPoint{{X: 0, Y: 0}, {X: 1, Y: 1}}, boundary)
	require.Error(t, err)
	assert.True(t, IsInputError(err))

	_, err = BuildTIN([]geometry.LocalPoint{{X: 0, Y: 0}, {X: 1, Y: 1}, {X: 2, Y: 2}, {X: 3, Y: 3}}, boundary)
	require.Error(t, err)
	assert.True(t, IsComputationError(err))
}

func TestTriangleArea(t *testing.T) {
	points := []geometry.LocalPoint{{X: 0, Y: 0}, {X: 4, Y: 0}, {X: 0, Y: 3}}
	assert.InDelta(t, 6.0, triangleArea(points, Triangle{0, 1, 2}), 1e-12)
	assert.InDelta(t, 6.0, triangleArea(points, Triangle{0, 2, 1}), 1e-12)
}

func TestPlanGrid(t *testing.T) {
	box := geometry.BBox{MaxX: 1000, MaxY: 1000}

	plan := planGrid(box, 1, 10_000)
	assert.InDelta(t, 10.0, plan.cellSize, 1e-9)
	assert.Equal(t, 100, plan.nx)
	assert.Equal(t, 100, plan.ny)

	plan = planGrid(geometry.BBox{MaxX: 10.5, MaxY: 3}, 1, 4_000_000)
	assert.InDelta(t, 1.0, plan.cellSize, 1e-12)
	assert.Equal(t, 11, plan.nx)
	assert.Equal(t, 3, plan.ny)
}

func TestUniformSplit(t *testing.T) {
	acc := uniformSplit(100, -0.5)
	assert.InDelta(t, 50.0, acc.cut, 1e-12)
	assert.Zero(t, acc.fill)

	acc = uniformSplit(100, 0)
	assert.Zero(t, acc.cut)
	assert.Zero(t, acc.fill)
}
