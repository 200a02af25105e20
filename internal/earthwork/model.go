package earthwork

import (
	"strings"

	"github.com/sells-group/earthwork/internal/geometry"
)

// Method selects how cut/fill volume is integrated.
type Method string

// Calculation methods.
const (
	MethodUniform Method = "uniform"
	MethodTIN     Method = "tin"
	MethodGrid    Method = "grid"
)

// ParseMethod parses a surface calculation method name. Only "tin" and "grid"
// are accepted; the uniform variant has its own entry point.
func ParseMethod(s string) (Method, error) {
	switch Method(strings.ToLower(strings.TrimSpace(s))) {
	case MethodTIN:
		return MethodTIN, nil
	case MethodGrid:
		return MethodGrid, nil
	default:
		return "", inputErrorf("parse method", "unsupported calculation method %q, expected \"tin\" or \"grid\"", s)
	}
}

// SamplePoint is a surveyed position with its original and target heights.
type SamplePoint struct {
	Longitude      float64 `json:"longitude" yaml:"longitude"`
	Latitude       float64 `json:"latitude" yaml:"latitude"`
	OriginalHeight float64 `json:"original_height" yaml:"original_height"`
	TargetHeight   float64 `json:"target_height" yaml:"target_height"`
}

// Geo returns the sample's geographic position.
func (s SamplePoint) Geo() geometry.GeoPoint {
	return geometry.GeoPoint{Longitude: s.Longitude, Latitude: s.Latitude}
}

// Delta returns target minus original height. Positive means fill.
func (s SamplePoint) Delta() float64 {
	return s.TargetHeight - s.OriginalHeight
}

// Triangle holds three indices into the sample point slice.
type Triangle [3]int

// VolumeResult is the outcome of a volume calculation. Values are kept at full
// precision; rounding belongs to whoever renders them.
type VolumeResult struct {
	Area       float64    `json:"area"`
	CutVolume  float64    `json:"cut_volume"`
	FillVolume float64    `json:"fill_volume"`
	NetVolume  float64    `json:"net_volume"`
	Method     Method     `json:"method"`
	Triangles  []Triangle `json:"triangles,omitempty"`

	// TriangulatedArea is the summed planar area of retained triangles (TIN only).
	TriangulatedArea float64 `json:"triangulated_area,omitempty"`
	// CellSize is the effective cell side in meters (grid only).
	CellSize float64 `json:"cell_size,omitempty"`
	// CellCount is the number of cells whose centre fell inside the boundary (grid only).
	CellCount   int `json:"cell_count,omitempty"`
	SampleCount int `json:"sample_count,omitempty"`
}

// SampleGrid is a generated set of candidate sample points.
type SampleGrid struct {
	Points []SamplePoint `json:"sample_points"`
	Count  int           `json:"count"`
}

// Validation is the outcome of a polygon validity check.
type Validation struct {
	IsValid bool    `json:"is_valid"`
	Message string  `json:"message"`
	Area    float64 `json:"area,omitempty"`
}

// Options tunes engine limits.
type Options struct {
	// CellSize is the default grid-method cell side in meters.
	CellSize float64
	// MaxGridCells caps the number of grid-method cells; larger boxes get coarser cells.
	MaxGridCells int
	// MaxSamplePoints caps lattice size in GenerateSamplePoints.
	MaxSamplePoints int
	// MaxPolygonVertices caps boundary size for every operation.
	MaxPolygonVertices int
}

// DefaultOptions returns the engine defaults.
func DefaultOptions() Options {
	return Options{
		CellSize:           1.0,
		MaxGridCells:       4_000_000,
		MaxSamplePoints:    1_000_000,
		MaxPolygonVertices: 50_000,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.CellSize <= 0 {
		o.CellSize = d.CellSize
	}
	if o.MaxGridCells <= 0 {
		o.MaxGridCells = d.MaxGridCells
	}
	if o.MaxSamplePoints <= 0 {
		o.MaxSamplePoints = d.MaxSamplePoints
	}
	if o.MaxPolygonVertices <= 0 {
		o.MaxPolygonVertices = d.MaxPolygonVertices
	}
	return o
}
