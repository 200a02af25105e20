// Package geometry provides the planar primitives used by the earthwork engine:
// an equirectangular projector, boundary rings, containment and validity checks.
package geometry

import (
	"math"

	"github.com/rotisserie/eris"
)

// EarthRadius is the mean Earth radius in meters.
const EarthRadius = 6371000.0

// degenerateCos is the smallest cos(ref_lat) accepted before the longitude scale
// collapses to zero.
const degenerateCos = 1e-12

var (
	// ErrNoPoints is returned when a projector is built from an empty point set.
	ErrNoPoints = eris.New("geometry: no points to project")
	// ErrDegenerateProjection is returned when the reference latitude yields a zero longitude scale.
	ErrDegenerateProjection = eris.New("geometry: degenerate projection scale")
)

// GeoPoint is a geographic position in degrees.
type GeoPoint struct {
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
}

// LocalPoint is a planar position in meters relative to a projector origin.
type LocalPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Projector converts between geographic and local planar coordinates using an
// equirectangular approximation anchored at a reference latitude.
type Projector struct {
	originLon float64
	originLat float64
	refLat    float64
	lonScale  float64
	latScale  float64
}

// NewProjector builds a projector for the working set. The origin is the minimum
// longitude/latitude of the set and the reference latitude is the mean latitude.
func NewProjector(points []GeoPoint) (*Projector, error) {
	if len(points) == 0 {
		return nil, ErrNoPoints
	}
	var sum float64
	for _, p := range points {
		sum += p.Latitude
	}
	return NewProjectorWithReference(points, sum/float64(len(points)))
}

// NewProjectorWithReference builds a projector anchored at the minimum
// longitude/latitude of the set with an explicit reference latitude for scale.
func NewProjectorWithReference(points []GeoPoint, refLat float64) (*Projector, error) {
	if len(points) == 0 {
		return nil, ErrNoPoints
	}
	cosRef := math.Cos(refLat * math.Pi / 180)
	if math.Abs(refLat) >= 90 || cosRef < degenerateCos {
		return nil, eris.Wrapf(ErrDegenerateProjection, "geometry: reference latitude %.6f", refLat)
	}

	minLon, minLat := points[0].Longitude, points[0].Latitude
	for _, p := range points[1:] {
		minLon = math.Min(minLon, p.Longitude)
		minLat = math.Min(minLat, p.Latitude)
	}

	degToMeters := EarthRadius * math.Pi / 180
	return &Projector{
		originLon: minLon,
		originLat: minLat,
		refLat:    refLat,
		lonScale:  cosRef * degToMeters,
		latScale:  degToMeters,
	}, nil
}

// Project converts a geographic point to local meters.
func (p *Projector) Project(g GeoPoint) LocalPoint {
	return LocalPoint{
		X: (g.Longitude - p.originLon) * p.lonScale,
		Y: (g.Latitude - p.originLat) * p.latScale,
	}
}

// ProjectAll converts every point in order.
func (p *Projector) ProjectAll(points []GeoPoint) []LocalPoint {
	out := make([]LocalPoint, len(points))
	for i, g := range points {
		out[i] = p.Project(g)
	}
	return out
}

// Unproject converts local meters back to a geographic point.
func (p *Projector) Unproject(l LocalPoint) GeoPoint {
	return GeoPoint{
		Longitude: p.originLon + l.X/p.lonScale,
		Latitude:  p.originLat + l.Y/p.latScale,
	}
}

// Origin returns the geographic point mapped to (0, 0).
func (p *Projector) Origin() GeoPoint {
	return GeoPoint{Longitude: p.originLon, Latitude: p.originLat}
}

// ReferenceLatitude returns the latitude the longitude scale was computed at.
func (p *Projector) ReferenceLatitude() float64 { return p.refLat }

// Scales returns meters per degree of longitude and latitude.
func (p *Projector) Scales() (lon, lat float64) {
	return p.lonScale, p.latScale
}

// ValidateCoordinate reports whether a point lies within WGS84 degree ranges.
func ValidateCoordinate(g GeoPoint) error {
	if math.IsNaN(g.Longitude) || math.IsNaN(g.Latitude) || math.IsInf(g.Longitude, 0) || math.IsInf(g.Latitude, 0) {
		return eris.Errorf("geometry: non-finite coordinate (%v, %v)", g.Longitude, g.Latitude)
	}
	if g.Longitude < -180 || g.Longitude > 180 {
		return eris.Errorf("geometry: longitude %.6f out of range [-180, 180]", g.Longitude)
	}
	if g.Latitude < -90 || g.Latitude > 90 {
		return eris.Errorf("geometry: latitude %.6f out of range [-90, 90]", g.Latitude)
	}
	return nil
}
