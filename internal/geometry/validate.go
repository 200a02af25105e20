package geometry

// Validity reasons reported by Validate.
const (
	ReasonTooFewVertices = "polygon needs at least 3 vertices"
	ReasonSelfIntersects = "polygon is invalid, it may be self-intersecting"
	ReasonZeroArea       = "polygon has zero area"
	ReasonValid          = "polygon is valid"
)

const minimumPolygonCorners = 3

// Validity is the outcome of a ring validity check.
type Validity struct {
	Valid  bool
	Reason string
}

// Validate checks that the ring is a usable simple polygon: at least three
// distinct vertices, no self-intersection and non-zero area. An invalid ring is
// a result, not an error.
func (r *Ring) Validate() Validity {
	if r.distinctVertices() < minimumPolygonCorners {
		return Validity{Reason: ReasonTooFewVertices}
	}
	if r.selfIntersects() {
		return Validity{Reason: ReasonSelfIntersects}
	}
	if r.Area() == 0 {
		return Validity{Reason: ReasonZeroArea}
	}
	return Validity{Valid: true, Reason: ReasonValid}
}
