package api

import (
	"bytes"
	"encoding/json"

	"github.com/sells-group/earthwork/internal/earthwork"
	"github.com/sells-group/earthwork/internal/geometry"
	"github.com/sells-group/earthwork/internal/report"
)

// Defaults for /generate-sample-points.
const defaultGridSize = 10.0

// Coordinate is a polygon vertex. Height is accepted for compatibility and
// ignored.
type Coordinate struct {
	Longitude float64  `json:"longitude"`
	Latitude  float64  `json:"latitude"`
	Height    *float64 `json:"height,omitempty"`
}

func boundary(coords []Coordinate) []geometry.GeoPoint {
	pts := make([]geometry.GeoPoint, len(coords))
	for i, c := range coords {
		pts[i] = geometry.GeoPoint{Longitude: c.Longitude, Latitude: c.Latitude}
	}
	return pts
}

// CalculateRequest is the body of POST /calculate.
type CalculateRequest struct {
	PolygonCoordinates []Coordinate `json:"polygon_coordinates"`
	OriginalHeight     float64      `json:"original_height"`
	TargetHeight       float64      `json:"target_height"`
}

// CalculateResponse carries rounded volumes.
type CalculateResponse struct {
	Area       float64 `json:"area"`
	CutVolume  float64 `json:"cut_volume"`
	FillVolume float64 `json:"fill_volume"`
	NetVolume  float64 `json:"net_volume"`
	Unit       string  `json:"unit"`
}

func newCalculateResponse(r *earthwork.VolumeResult) CalculateResponse {
	return CalculateResponse{
		Area:       report.Round2(r.Area),
		CutVolume:  report.Round2(r.CutVolume),
		FillVolume: report.Round2(r.FillVolume),
		NetVolume:  report.Round2(r.NetVolume),
		Unit:       report.VolumeUnit,
	}
}

// SurfaceRequest is the body of POST /calculate-tin and POST /tin-geojson.
type SurfaceRequest struct {
	PolygonCoordinates []Coordinate            `json:"polygon_coordinates"`
	SamplePoints       []earthwork.SamplePoint `json:"sample_points"`
	CalculationMethod  string                  `json:"calculation_method,omitempty"`
	CellSize           float64                 `json:"cell_size,omitempty"`
}

// normalize fills the default method. It runs before the cache key is taken
// so equivalent requests share an entry.
func (r *SurfaceRequest) normalize() {
	if r.CalculationMethod == "" {
		r.CalculationMethod = string(earthwork.MethodTIN)
	}
	for i := range r.PolygonCoordinates {
		r.PolygonCoordinates[i].Height = nil
	}
}

// SurfaceResponse adds the method and triangle indices to the volumes.
// Triangles is always present, empty for the grid method.
type SurfaceResponse struct {
	CalculateResponse
	Method    string               `json:"method"`
	Triangles []earthwork.Triangle `json:"triangles"`
	CellSize  float64              `json:"cell_size,omitempty"`
	CellCount int                  `json:"cell_count,omitempty"`
}

func newSurfaceResponse(r *earthwork.VolumeResult) SurfaceResponse {
	triangles := r.Triangles
	if triangles == nil {
		triangles = []earthwork.Triangle{}
	}
	return SurfaceResponse{
		CalculateResponse: newCalculateResponse(r),
		Method:            string(r.Method),
		Triangles:         triangles,
		CellSize:          report.Round2(r.CellSize),
		CellCount:         r.CellCount,
	}
}

// SamplesRequest is the body of POST /generate-sample-points. GridSize
// defaults to 10 meters.
type SamplesRequest struct {
	PolygonCoordinates []Coordinate `json:"polygon_coordinates"`
	GridSize           *float64     `json:"grid_size,omitempty"`
	OriginalHeight     float64      `json:"original_height"`
	TargetHeight       float64      `json:"target_height"`
}

func (r *SamplesRequest) gridSize() float64 {
	if r.GridSize == nil {
		return defaultGridSize
	}
	return *r.GridSize
}

// ValidateRequest is the body of POST /validate-polygon. A bare coordinate
// array is accepted as well as the wrapped object.
type ValidateRequest struct {
	PolygonCoordinates []Coordinate `json:"polygon_coordinates"`
}

// UnmarshalJSON accepts either form.
func (r *ValidateRequest) UnmarshalJSON(data []byte) error {
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '[' {
		return json.Unmarshal(trimmed, &r.PolygonCoordinates)
	}
	type wrapped ValidateRequest
	return json.Unmarshal(data, (*wrapped)(r))
}

// ValidateResponse reports polygon validity; area and unit only when valid.
type ValidateResponse = report.ValidationSummary

// WelcomeResponse is returned at the root path.
type WelcomeResponse struct {
	Message string `json:"message"`
	Version string `json:"version,omitempty"`
}

// HealthResponse is returned by /health.
type HealthResponse struct {
	Status string `json:"status"`
}
