package earthwork

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/earthwork/internal/geometry"
)

func square(lon, lat, side float64) []geometry.GeoPoint {
	return []geometry.GeoPoint{
		{Longitude: lon, Latitude: lat},
		{Longitude: lon + side, Latitude: lat},
		{Longitude: lon + side, Latitude: lat + side},
		{Longitude: lon, Latitude: lat + side},
	}
}

// lShape is a 0.001 degree square with its north-east quarter removed.
func lShape() []geometry.GeoPoint {
	return []geometry.GeoPoint{
		{Longitude: 0, Latitude: 0},
		{Longitude: 0.001, Latitude: 0},
		{Longitude: 0.001, Latitude: 0.0005},
		{Longitude: 0.0005, Latitude: 0.0005},
		{Longitude: 0.0005, Latitude: 0.001},
		{Longitude: 0, Latitude: 0.001},
	}
}

func samplesAt(points []geometry.GeoPoint, original, target float64) []SamplePoint {
	out := make([]SamplePoint, len(points))
	for i, p := range points {
		out[i] = SamplePoint{Longitude: p.Longitude, Latitude: p.Latitude, OriginalHeight: original, TargetHeight: target}
	}
	return out
}

func TestParseMethod(t *testing.T) {
	m, err := ParseMethod("TIN")
	require.NoError(t, err)
	assert.Equal(t, MethodTIN, m)

	m, err = ParseMethod(" grid ")
	require.NoError(t, err)
	assert.Equal(t, MethodGrid, m)

	_, err = ParseMethod("kriging")
	require.Error(t, err)
	assert.True(t, IsInputError(err))
}

func TestSamplePoint_Delta(t *testing.T) {
	s := SamplePoint{OriginalHeight: 12.5, TargetHeight: 10}
	assert.InDelta(t, -2.5, s.Delta(), 1e-12)
}

func TestValidatePolygon(t *testing.T) {
	tests := []struct {
		name     string
		boundary []geometry.GeoPoint
		valid    bool
		message  string
	}{
		{
			name:     "triangle",
			boundary: []geometry.GeoPoint{{Longitude: 0, Latitude: 0}, {Longitude: 0.001, Latitude: 0}, {Longitude: 0, Latitude: 0.001}},
			valid:    true,
			message:  geometry.ReasonValid,
		},
		{
			name:     "two vertices",
			boundary: []geometry.GeoPoint{{Longitude: 0, Latitude: 0}, {Longitude: 0.001, Latitude: 0}},
			message:  geometry.ReasonTooFewVertices,
		},
		{
			name:     "triangle closed explicitly is still only three vertices",
			boundary: []geometry.GeoPoint{{Longitude: 0, Latitude: 0}, {Longitude: 0.001, Latitude: 0}, {Longitude: 0, Latitude: 0}},
			message:  geometry.ReasonTooFewVertices,
		},
		{
			name: "bowtie",
			boundary: []geometry.GeoPoint{
				{Longitude: 0, Latitude: 0},
				{Longitude: 0.001, Latitude: 0.001},
				{Longitude: 0.001, Latitude: 0},
				{Longitude: 0, Latitude: 0.001},
			},
			message: geometry.ReasonSelfIntersects,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := ValidatePolygon(tt.boundary, DefaultOptions())
			require.NoError(t, err)
			assert.Equal(t, tt.valid, v.IsValid)
			assert.Equal(t, tt.message, v.Message)
			if tt.valid {
				assert.Greater(t, v.Area, 0.0)
			} else {
				assert.Zero(t, v.Area)
			}
		})
	}
}

func TestValidatePolygon_AnalyticArea(t *testing.T) {
	v, err := ValidatePolygon(square(0, 0, 0.0001), DefaultOptions())
	require.NoError(t, err)
	require.True(t, v.IsValid)
	assert.InDelta(t, 123.64, v.Area, 0.05)
}

func TestValidatePolygon_OutOfRange(t *testing.T) {
	_, err := ValidatePolygon([]geometry.GeoPoint{{Longitude: 0, Latitude: 0}, {Longitude: 200, Latitude: 0}, {Longitude: 0, Latitude: 1}}, DefaultOptions())
	require.Error(t, err)
	assert.True(t, IsInputError(err))
}

func TestCalculateUniform(t *testing.T) {
	boundary := square(116.3, 39.9, 0.0005)
	v, err := ValidatePolygon(boundary, DefaultOptions())
	require.NoError(t, err)

	tests := []struct {
		name             string
		original, target float64
		wantCut          float64
		wantFill         float64
	}{
		{name: "raise", original: 10, target: 12, wantFill: 2 * v.Area},
		{name: "lower", original: 10, target: 7, wantCut: 3 * v.Area},
		{name: "flat", original: 5, target: 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := CalculateUniform(boundary, tt.original, tt.target, DefaultOptions())
			require.NoError(t, err)
			assert.Equal(t, MethodUniform, res.Method)
			assert.InDelta(t, v.Area, res.Area, 1e-9)
			assert.InDelta(t, tt.wantCut, res.CutVolume, 1e-6)
			assert.InDelta(t, tt.wantFill, res.FillVolume, 1e-6)
			assert.InDelta(t, res.FillVolume-res.CutVolume, res.NetVolume, 1e-9)
			assert.False(t, res.CutVolume > 0 && res.FillVolume > 0, "only one of cut/fill may be nonzero")
		})
	}
}

func TestCalculateUniform_InvalidBoundary(t *testing.T) {
	_, err := CalculateUniform([]geometry.GeoPoint{{Longitude: 0, Latitude: 0}, {Longitude: 1, Latitude: 1}}, 0, 1, DefaultOptions())
	require.Error(t, err)
	assert.True(t, IsInputError(err))

	bowtie := []geometry.GeoPoint{
		{Longitude: 0, Latitude: 0},
		{Longitude: 0.001, Latitude: 0.001},
		{Longitude: 0.001, Latitude: 0},
		{Longitude: 0, Latitude: 0.001},
	}
	_, err = CalculateUniform(bowtie, 0, 1, DefaultOptions())
	require.Error(t, err)
	assert.True(t, IsInputError(err))
	assert.Contains(t, err.Error(), geometry.ReasonSelfIntersects)
}

func TestCalculateSurface_EndToEndSquare(t *testing.T) {
	boundary := square(0, 0, 0.0001)
	samples := samplesAt(boundary, 0, 1)

	res, err := CalculateSurface(context.Background(), boundary, samples, MethodTIN, 0, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, MethodTIN, res.Method)
	assert.Len(t, res.Triangles, 2)
	assert.InDelta(t, 123.64, res.Area, 0.05)
	assert.InDelta(t, res.Area, res.FillVolume, 1e-6)
	assert.Zero(t, res.CutVolume)
	assert.InDelta(t, res.FillVolume, res.NetVolume, 1e-12)
	assert.Equal(t, 4, res.SampleCount)
}

func TestCalculateSurface_EqualHeightsMatchUniform(t *testing.T) {
	boundary := square(-97.74, 30.27, 0.001)
	samples := samplesAt(boundary, 100, 98.5)

	uniform, err := CalculateUniform(boundary, 100, 98.5, DefaultOptions())
	require.NoError(t, err)

	tin, err := CalculateSurface(context.Background(), boundary, samples, MethodTIN, 0, DefaultOptions())
	require.NoError(t, err)
	assert.InDelta(t, uniform.Area, tin.Area, 1e-9)
	assert.InEpsilon(t, uniform.CutVolume, tin.CutVolume, 1e-6)
	assert.Zero(t, tin.FillVolume)

	grid, err := CalculateSurface(context.Background(), boundary, samples, MethodGrid, 0, DefaultOptions())
	require.NoError(t, err)
	assert.Empty(t, grid.Triangles)
	assert.InDelta(t, 1.0, grid.CellSize, 1e-12)
	assert.Greater(t, grid.CellCount, 0)
	assert.InEpsilon(t, uniform.CutVolume, grid.CutVolume, 0.01)
	assert.Zero(t, grid.FillVolume)
}

func TestCalculateSurface_TriangleAreaBoundedByBoundary(t *testing.T) {
	tests := []struct {
		name     string
		boundary []geometry.GeoPoint
	}{
		{name: "convex square", boundary: square(10, 45, 0.001)},
		{name: "concave L", boundary: lShape()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			samples := samplesAt(tt.boundary, 0, 1)
			res, err := CalculateSurface(context.Background(), tt.boundary, samples, MethodTIN, 0, DefaultOptions())
			require.NoError(t, err)
			require.NotEmpty(t, res.Triangles)
			assert.LessOrEqual(t, res.TriangulatedArea, res.Area*(1+1e-9))
			assert.InEpsilon(t, res.Area, res.TriangulatedArea, 0.05)
		})
	}
}

func TestCalculateSurface_ConcaveNotchExcluded(t *testing.T) {
	boundary := lShape()
	samples := samplesAt(boundary, 0, 1)
	res, err := CalculateSurface(context.Background(), boundary, samples, MethodTIN, 0, DefaultOptions())
	require.NoError(t, err)

	// Triangles bridging the notch have their centroid outside the L and are dropped.
	for _, tri := range res.Triangles {
		var lon, lat float64
		for _, i := range tri {
			lon += samples[i].Longitude / 3
			lat += samples[i].Latitude / 3
		}
		assert.False(t, lon > 0.0005 && lat > 0.0005, "triangle %v lies in the notch", tri)
	}
}

func TestCalculateSurface_GridSplitsCutAndFill(t *testing.T) {
	boundary := square(0, 0, 0.001)
	samples := []SamplePoint{
		{Longitude: 0, Latitude: 0, OriginalHeight: 0, TargetHeight: 1},
		{Longitude: 0, Latitude: 0.001, OriginalHeight: 0, TargetHeight: 1},
		{Longitude: 0.001, Latitude: 0, OriginalHeight: 1, TargetHeight: 0},
		{Longitude: 0.001, Latitude: 0.001, OriginalHeight: 1, TargetHeight: 0},
	}
	res, err := CalculateSurface(context.Background(), boundary, samples, MethodGrid, 0, DefaultOptions())
	require.NoError(t, err)
	assert.InEpsilon(t, res.Area/2, res.FillVolume, 0.05)
	assert.InEpsilon(t, res.Area/2, res.CutVolume, 0.05)
	assert.InDelta(t, res.FillVolume-res.CutVolume, res.NetVolume, 1e-9)
}

func TestCalculateSurface_GridCellSizeOverride(t *testing.T) {
	boundary := square(0, 0, 0.001)
	samples := samplesAt(boundary, 0, 2)
	res, err := CalculateSurface(context.Background(), boundary, samples, MethodGrid, 5, DefaultOptions())
	require.NoError(t, err)
	assert.InDelta(t, 5.0, res.CellSize, 1e-12)
	// 111.19 m side: 22 cell centres per row fall inside.
	assert.Equal(t, 22*22, res.CellCount)
	assert.InDelta(t, 22*22*25*2.0, res.FillVolume, 1e-6)
}

func TestCalculateSurface_GridCoarsened(t *testing.T) {
	boundary := square(0, 0, 0.001)
	samples := samplesAt(boundary, 0, 1)
	opts := DefaultOptions()
	opts.MaxGridCells = 100

	res, err := CalculateSurface(context.Background(), boundary, samples, MethodGrid, 0, opts)
	require.NoError(t, err)
	assert.Greater(t, res.CellSize, 1.0)
	assert.LessOrEqual(t, res.CellCount, 100)
}

func TestCalculateSurface_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	boundary := square(0, 0, 0.001)
	_, err := CalculateSurface(ctx, boundary, samplesAt(boundary, 0, 1), MethodGrid, 0, DefaultOptions())
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestCalculateSurface_Errors(t *testing.T) {
	boundary := square(0, 0, 0.001)
	collinear := []SamplePoint{
		{Longitude: 0, Latitude: 0},
		{Longitude: 0.0005, Latitude: 0.0005},
		{Longitude: 0.001, Latitude: 0.001},
	}

	tests := []struct {
		name        string
		boundary    []geometry.GeoPoint
		samples     []SamplePoint
		method      Method
		cellSize    float64
		input       bool
		computation bool
	}{
		{name: "unsupported method", boundary: boundary, samples: samplesAt(boundary, 0, 1), method: "idw", input: true},
		{name: "too few samples", boundary: boundary, samples: samplesAt(boundary[:2], 0, 1), method: MethodTIN, input: true},
		{name: "too few vertices", boundary: boundary[:2], samples: samplesAt(boundary, 0, 1), method: MethodGrid, input: true},
		{name: "negative cell size", boundary: boundary, samples: samplesAt(boundary, 0, 1), method: MethodGrid, cellSize: -1, input: true},
		{name: "sample out of range", boundary: boundary, samples: append(samplesAt(boundary, 0, 1), SamplePoint{Longitude: 0, Latitude: 95}), method: MethodTIN, input: true},
		{name: "collinear samples", boundary: boundary, samples: collinear, method: MethodTIN, computation: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CalculateSurface(context.Background(), tt.boundary, tt.samples, tt.method, tt.cellSize, DefaultOptions())
			require.Error(t, err)
			assert.Equal(t, tt.input, IsInputError(err))
			assert.Equal(t, tt.computation, IsComputationError(err))
		})
	}
}

func TestCalculateSurface_Deterministic(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	boundary := square(8.54, 47.37, 0.002)
	samples := make([]SamplePoint, 60)
	for i := range samples {
		samples[i] = SamplePoint{
			Longitude:      8.54 + rng.Float64()*0.002,
			Latitude:       47.37 + rng.Float64()*0.002,
			OriginalHeight: 400 + rng.Float64()*5,
			TargetHeight:   402,
		}
	}

	first, err := CalculateSurface(context.Background(), boundary, samples, MethodTIN, 0, DefaultOptions())
	require.NoError(t, err)
	for range 3 {
		again, err := CalculateSurface(context.Background(), boundary, samples, MethodTIN, 0, DefaultOptions())
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

// polygonN is an n-gon of roughly 100 m radius near the equator.
func polygonN(n int) []geometry.GeoPoint {
	pts := make([]geometry.GeoPoint, n)
	for i := range pts {
		a := 2 * math.Pi * float64(i) / float64(n)
		pts[i] = geometry.GeoPoint{Longitude: 0.001 * math.Cos(a), Latitude: 0.001 * math.Sin(a)}
	}
	return pts
}

func TestMaxPolygonVertices(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxPolygonVertices = 100
	boundary := polygonN(101)
	samples := samplesAt(square(-0.0005, -0.0005, 0.001), 0, 1)

	_, err := ValidatePolygon(boundary, opts)
	assert.True(t, IsInputError(err))
	assert.ErrorContains(t, err, "polygon has 101 vertices, limit is 100")

	_, err = CalculateUniform(boundary, 0, 1, opts)
	assert.True(t, IsInputError(err))

	_, err = GenerateSamplePoints(context.Background(), boundary, 10, 0, 1, opts)
	assert.True(t, IsInputError(err))

	_, err = CalculateSurface(context.Background(), boundary, samples, MethodTIN, 0, opts)
	assert.True(t, IsInputError(err))

	v, err := ValidatePolygon(polygonN(100), opts)
	require.NoError(t, err)
	assert.True(t, v.IsValid)
}

func TestValidatePolygon_LargeRingIsFast(t *testing.T) {
	start := time.Now()
	v, err := ValidatePolygon(polygonN(20000), DefaultOptions())
	require.NoError(t, err)
	assert.True(t, v.IsValid)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestGenerateSamplePoints_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := GenerateSamplePoints(ctx, square(0, 0, 0.001), 10, 0, 0, DefaultOptions())
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, IsInputError(err))
}
