package core

import "math"

// NoIntersection is the hit distance reported when a ray misses
var NoIntersection = math.Inf(1)

// ShadowBias offsets spawned ray origins along the normal and shortens shadow rays,
// keeping secondary rays from re-hitting the surface they leave.
const ShadowBias = 1e-4

// IsHit reports whether t is a valid hit distance (finite and non-negative)
func IsHit(t float64) bool {
	return !math.IsInf(t, 0) && !math.IsNaN(t) && t >= 0
}

// Ray represents a ray with an origin, a unit direction and a maximum parameter
type Ray struct {
	Origin    Vec3
	Direction Vec3
	TMax      float64
}

// NewRay creates an unbounded ray; the direction is normalized
func NewRay(origin, direction Vec3) Ray {
	return Ray{Origin: origin, Direction: direction.Normalize(), TMax: math.Inf(1)}
}

// NewRayTo creates a ray limited to the segment [0, tMax]
func NewRayTo(origin, direction Vec3, tMax float64) Ray {
	return Ray{Origin: origin, Direction: direction.Normalize(), TMax: tMax}
}

// At returns the point at parameter t along the ray
func (r Ray) At(t float64) Vec3 {
	return r.Origin.Add(r.Direction.Multiply(t))
}

// Valid reports whether the ray can be traced. A direction that collapsed to zero
// (for instance under a degenerate transform) marks the ray as invalid.
func (r Ray) Valid() bool {
	return !r.Direction.IsZero() && r.Direction.IsFinite() && r.Origin.IsFinite() &&
		!math.IsNaN(r.TMax) && r.TMax >= 0
}
