package geometry

import (
	"math"
	"sort"

	"github.com/df07/go-lightpath/pkg/core"
	"github.com/df07/go-lightpath/pkg/material"
)

// Group nests child objects under a common transform. Children keep their own
// transforms, which compose with the group's.
type Group struct {
	base
	Children []Object

	bvh     *BVH
	areaCDF []float64 // cumulative child areas, for Sample
}

// NewGroup creates a group. The group's own material is only a fallback that
// loaders hand down to children without one.
func NewGroup(children []Object, xf core.Transform, mat *material.Material) *Group {
	g := &Group{base: newBase(xf, mat), Children: children}

	g.bvh = NewBVH(append([]Object(nil), children...))

	total := 0.0
	g.areaCDF = make([]float64, len(children))
	for i, c := range children {
		if a := c.Area(); a > 0 && !math.IsInf(a, 0) {
			total += a
		}
		g.areaCDF[i] = total
	}
	return g
}

// Intersect returns the nearest child hit for a ray in group space
func (g *Group) Intersect(ray core.Ray) (*SurfaceInfo, bool) {
	return g.bvh.Intersect(ray)
}

// CastShadow reports whether any shadow-casting child blocks the ray
func (g *Group) CastShadow(ray core.Ray) bool {
	return g.bvh.Occluded(ray)
}

func (g *Group) localArea() float64 {
	if len(g.areaCDF) == 0 {
		return 0
	}
	return g.areaCDF[len(g.areaCDF)-1]
}

// Area returns the parent-space area of every sampleable child
func (g *Group) Area() float64 {
	return g.localArea() * g.xf.AreaScale()
}

// Sample picks a child in proportion to its area and samples it
func (g *Group) Sample(u core.Vec2) (core.Vec3, core.Vec3, float64) {
	total := g.localArea()
	if total <= 0 {
		return core.Vec3{}, core.Vec3{}, 0
	}

	target := u.X * total
	i := sort.SearchFloat64s(g.areaCDF, target)
	// skip zero-area children sharing the same cumulative value
	for i < len(g.areaCDF)-1 && g.areaCDF[i] <= target {
		i++
	}
	lo := 0.0
	if i > 0 {
		lo = g.areaCDF[i-1]
	}
	width := g.areaCDF[i] - lo
	ux := 0.0
	if width > 0 {
		ux = min((target-lo)/width, 1)
	}

	p, n, pdf := g.Children[i].Sample(core.NewVec2(ux, u.Y))
	if pdf == 0 {
		return core.Vec3{}, core.Vec3{}, 0
	}
	return sampleInParent(g.xf, p, n, g.Area())
}

// Bounds returns the parent-space bounds of all children
func (g *Group) Bounds() core.AABB {
	return g.xf.Bounds(g.bvh.Bounds())
}
