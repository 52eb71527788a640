package geometry

import (
	"math"

	"github.com/df07/go-lightpath/pkg/core"
	"github.com/df07/go-lightpath/pkg/material"
)

// Cylinder is a capped cylinder around the local z axis, spanning z in [0, Height]
type Cylinder struct {
	base
	Radius float64
	Height float64
}

// NewCylinder creates a cylinder; radius and height must be positive
func NewCylinder(radius, height float64, xf core.Transform, mat *material.Material) (*Cylinder, error) {
	if !(radius > 0) || !(height > 0) {
		return nil, &DegenerateError{Kind: "cylinder", Reason: "radius and height must be positive"}
	}
	return &Cylinder{base: newBase(xf, mat), Radius: radius, Height: height}, nil
}

// Intersect tests a local-space ray against the side and both caps
func (c *Cylinder) Intersect(ray core.Ray) (*SurfaceInfo, bool) {
	t, uv, n := IntersectCylinder(ray, c.Radius, c.Height)
	if !core.IsHit(t) {
		return nil, false
	}
	return &SurfaceInfo{T: t, P: ray.At(t), N: n, UV: uv, Object: c}, true
}

// CastShadow reports whether the local-space ray hits the cylinder
func (c *Cylinder) CastShadow(ray core.Ray) bool {
	if !castsShadow(c.mat) {
		return false
	}
	t, _, _ := IntersectCylinder(ray, c.Radius, c.Height)
	return core.IsHit(t)
}

func (c *Cylinder) localAreas() (side, capArea float64) {
	return 2 * math.Pi * c.Radius * c.Height, math.Pi * c.Radius * c.Radius
}

// Area returns the parent-space area of the side and both caps
func (c *Cylinder) Area() float64 {
	side, capArea := c.localAreas()
	return (side + 2*capArea) * c.xf.AreaScale()
}

// Sample picks the side or a cap in proportion to area, then a uniform point on it
func (c *Cylinder) Sample(u core.Vec2) (core.Vec3, core.Vec3, float64) {
	side, capArea := c.localAreas()
	total := side + 2*capArea

	pick := u.X * total
	var p, n core.Vec3
	switch {
	case pick < side:
		v := pick / side
		phi := 2 * math.Pi * u.Y
		n = core.NewVec3(math.Cos(phi), math.Sin(phi), 0)
		p = core.NewVec3(c.Radius*n.X, c.Radius*n.Y, v*c.Height)
	default:
		rest := (pick - side) / capArea // in [0, 2)
		z, nz := 0.0, -1.0
		if rest >= 1 {
			z, nz = c.Height, 1
			rest -= 1
		}
		d := core.SampleConcentricDisc(core.NewVec2(rest, u.Y))
		p = core.NewVec3(c.Radius*d.X, c.Radius*d.Y, z)
		n = core.NewVec3(0, 0, nz)
	}
	return sampleInParent(c.xf, p, n, c.Area())
}

// Bounds returns the parent-space bounding box
func (c *Cylinder) Bounds() core.AABB {
	return c.xf.Bounds(core.NewAABB(
		core.NewVec3(-c.Radius, -c.Radius, 0),
		core.NewVec3(c.Radius, c.Radius, c.Height),
	))
}
