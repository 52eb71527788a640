package geometry

import (
	"math"

	"github.com/df07/go-lightpath/pkg/core"
)

// Ray/primitive kernels. Every kernel returns core.NoIntersection on a miss and
// only reports hits with 0 < t <= ray.TMax.

const parallelEpsilon = 1e-9

func inRange(t float64, ray core.Ray) bool {
	return t > 0 && t <= ray.TMax
}

// IntersectPlane intersects the plane through p0 with normal n
func IntersectPlane(ray core.Ray, p0, n core.Vec3) float64 {
	denom := ray.Direction.Dot(n)
	if math.Abs(denom) < parallelEpsilon {
		return core.NoIntersection
	}
	t := p0.Subtract(ray.Origin).Dot(n) / denom
	if !inRange(t, ray) {
		return core.NoIntersection
	}
	return t
}

// IntersectSphere returns the nearest positive root for a sphere. The ray direction must be unit length.
func IntersectSphere(ray core.Ray, center core.Vec3, radius float64) float64 {
	oc := ray.Origin.Subtract(center)
	b := ray.Direction.Dot(oc)
	c := oc.LengthSquared() - radius*radius

	disc := b*b - c
	if disc < 0 {
		return core.NoIntersection
	}
	sq := math.Sqrt(disc)

	t := -b - sq
	if t <= 0 {
		t = -b + sq
	}
	if !inRange(t, ray) {
		return core.NoIntersection
	}
	return t
}

// IntersectCylinder intersects a z-axis cylinder spanning z in [0, height], including both end caps.
// It returns the hit distance, a surface coordinate and the outward normal.
func IntersectCylinder(ray core.Ray, radius, height float64) (float64, core.Vec2, core.Vec3) {
	o, d := ray.Origin, ray.Direction
	best := core.NoIntersection
	var uv core.Vec2
	var n core.Vec3

	// Side
	a := d.X*d.X + d.Y*d.Y
	if a > parallelEpsilon {
		b := o.X*d.X + o.Y*d.Y
		c := o.X*o.X + o.Y*o.Y - radius*radius
		disc := b*b - a*c
		if disc >= 0 {
			sq := math.Sqrt(disc)
			for _, t := range [2]float64{(-b - sq) / a, (-b + sq) / a} {
				if !inRange(t, ray) {
					continue
				}
				z := o.Z + t*d.Z
				if z < 0 || z > height {
					continue
				}
				p := ray.At(t)
				best = t
				n = core.NewVec3(p.X/radius, p.Y/radius, 0)
				phi := math.Atan2(p.Y, p.X)
				if phi < 0 {
					phi += 2 * math.Pi
				}
				uv = core.NewVec2(phi/(2*math.Pi), z/height)
				break
			}
		}
	}

	// Caps
	if math.Abs(d.Z) > parallelEpsilon {
		for _, zc := range [2]float64{0, height} {
			t := (zc - o.Z) / d.Z
			if !inRange(t, ray) || t >= best {
				continue
			}
			x, y := o.X+t*d.X, o.Y+t*d.Y
			if x*x+y*y > radius*radius {
				continue
			}
			best = t
			n = core.NewVec3(0, 0, -1)
			if zc > 0 {
				n = core.NewVec3(0, 0, 1)
			}
			uv = core.NewVec2(0.5+0.5*x/radius, 0.5+0.5*y/radius)
		}
	}

	return best, uv, n
}

// IntersectBox intersects an axis-aligned box with the slab method. When the
// ray starts inside, the exit face is reported. The normal always points out of the box.
func IntersectBox(ray core.Ray, lo, hi core.Vec3) (float64, core.Vec2, core.Vec3) {
	tNear, tFar := math.Inf(-1), math.Inf(1)
	nearAxis, farAxis := -1, -1
	var nearSign, farSign float64

	for axis := 0; axis < 3; axis++ {
		o, d := ray.Origin.Component(axis), ray.Direction.Component(axis)
		l, h := lo.Component(axis), hi.Component(axis)
		if math.Abs(d) < parallelEpsilon {
			if o < l || o > h {
				return core.NoIntersection, core.Vec2{}, core.Vec3{}
			}
			continue
		}

		t1, t2 := (l-o)/d, (h-o)/d
		s1, s2 := -1.0, 1.0
		if t1 > t2 {
			t1, t2 = t2, t1
			s1, s2 = s2, s1
		}
		if t1 > tNear {
			tNear, nearAxis, nearSign = t1, axis, s1
		}
		if t2 < tFar {
			tFar, farAxis, farSign = t2, axis, s2
		}
		if tNear > tFar {
			return core.NoIntersection, core.Vec2{}, core.Vec3{}
		}
	}

	t, axis, sign := tNear, nearAxis, nearSign
	if t <= 0 {
		t, axis, sign = tFar, farAxis, farSign
	}
	if axis < 0 || !inRange(t, ray) {
		return core.NoIntersection, core.Vec2{}, core.Vec3{}
	}

	var n core.Vec3
	switch axis {
	case 0:
		n.X = sign
	case 1:
		n.Y = sign
	default:
		n.Z = sign
	}

	// uv spans the two axes of the face
	p := ray.At(t)
	size := hi.Subtract(lo)
	ua, va := (axis+1)%3, (axis+2)%3
	uv := core.NewVec2(
		(p.Component(ua)-lo.Component(ua))/size.Component(ua),
		(p.Component(va)-lo.Component(va))/size.Component(va),
	)
	return t, uv, n
}

// IntersectTriangle implements Möller-Trumbore. uv holds the barycentric weights of v1 and v2.
func IntersectTriangle(ray core.Ray, v0, v1, v2 core.Vec3) (float64, core.Vec2) {
	const epsilon = 1e-12

	edge1 := v1.Subtract(v0)
	edge2 := v2.Subtract(v0)
	h := ray.Direction.Cross(edge2)
	a := edge1.Dot(h)
	if a > -epsilon && a < epsilon {
		return core.NoIntersection, core.Vec2{}
	}

	f := 1.0 / a
	s := ray.Origin.Subtract(v0)
	u := f * s.Dot(h)
	if u < 0 || u > 1 {
		return core.NoIntersection, core.Vec2{}
	}

	q := s.Cross(edge1)
	v := f * ray.Direction.Dot(q)
	if v < 0 || u+v > 1 {
		return core.NoIntersection, core.Vec2{}
	}

	t := f * edge2.Dot(q)
	if !inRange(t, ray) {
		return core.NoIntersection, core.Vec2{}
	}
	return t, core.NewVec2(u, v)
}
