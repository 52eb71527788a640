package scene

import (
	"fmt"

	"github.com/df07/go-lightpath/pkg/config"
	"github.com/df07/go-lightpath/pkg/core"
	"github.com/df07/go-lightpath/pkg/geometry"
	"github.com/df07/go-lightpath/pkg/lights"
)

// Scene contains all the elements needed for rendering. It is immutable once
// Preprocess has run and may be shared by any number of render workers.
type Scene struct {
	Objects      []geometry.Object // top-level objects, in world space
	Lights       []lights.Light
	LightSampler *lights.UniformLightSampler
	Options      config.RenderOptions
	BVH          *geometry.BVH // Acceleration structure for ray-object intersection

	emitters map[geometry.Object]*lights.AreaLight
}

// New creates an empty scene with the given options
func New(opts config.RenderOptions) *Scene {
	return &Scene{Options: opts}
}

// AddObject appends a top-level object
func (s *Scene) AddObject(obj geometry.Object) {
	s.Objects = append(s.Objects, obj)
}

// AddLight appends a light. An area light's object must also be added with AddObject.
func (s *Scene) AddLight(light lights.Light) {
	s.Lights = append(s.Lights, light)
}

// AddAreaLight adds obj to the scene and makes it emit radiance
func (s *Scene) AddAreaLight(obj geometry.Object, radiance core.Vec3) *lights.AreaLight {
	light := lights.NewAreaLight(obj, radiance)
	s.AddObject(obj)
	s.AddLight(light)
	return light
}

// Preprocess prepares the scene for rendering: it builds the BVH, indexes
// area lights by their object and sets up the light sampler.
func (s *Scene) Preprocess() error {
	s.BVH = geometry.NewBVH(append([]geometry.Object(nil), s.Objects...))

	inScene := make(map[geometry.Object]bool, len(s.Objects))
	for _, obj := range s.Objects {
		inScene[obj] = true
	}

	s.emitters = make(map[geometry.Object]*lights.AreaLight)
	for i, light := range s.Lights {
		area, ok := light.(*lights.AreaLight)
		if !ok {
			continue
		}
		if !inScene[area.Object] {
			return fmt.Errorf("light %d: area light object is not a top-level scene object", i)
		}
		s.emitters[area.Object] = area
	}

	if s.LightSampler == nil {
		s.LightSampler = lights.NewUniformLightSampler(s.Lights)
	}
	return nil
}

// Intersect finds the nearest hit along a world-space ray and builds its
// shading frame. Invalid rays never hit.
func (s *Scene) Intersect(ray core.Ray) (*geometry.SurfaceInfo, bool) {
	if !ray.Valid() {
		return nil, false
	}
	hit, ok := s.BVH.Intersect(ray)
	if !ok {
		return nil, false
	}
	hit.BuildFrame()
	return hit, true
}

// Occluded reports whether a shadow-casting object blocks the shadow ray
func (s *Scene) Occluded(shadowRay core.Ray) bool {
	if !shadowRay.Valid() {
		return false
	}
	return s.BVH.Occluded(shadowRay)
}

// Emitted returns the radiance leaving the hit point toward wo when the hit
// lies on an area light, and zero otherwise
func (s *Scene) Emitted(hit *geometry.SurfaceInfo, wo core.Vec3) core.Vec3 {
	if hit.Root == nil {
		return core.Vec3{}
	}
	if light, ok := s.AreaLight(hit.Root); ok {
		return light.L(hit, wo)
	}
	return core.Vec3{}
}

// AreaLight returns the area light attached to a top-level object, if any
func (s *Scene) AreaLight(obj geometry.Object) (*lights.AreaLight, bool) {
	light, ok := s.emitters[obj]
	return light, ok
}

// SpawnRay starts a ray leaving hit along wi, offset off the surface
func (s *Scene) SpawnRay(hit *geometry.SurfaceInfo, wi core.Vec3) core.Ray {
	return hit.SpawnRay(wi)
}

// ShadowRayTo builds a shadow ray from hit toward the point dist along wi
func (s *Scene) ShadowRayTo(hit *geometry.SurfaceInfo, wi core.Vec3, dist float64) core.Ray {
	return hit.ShadowRayTo(wi, dist)
}

// Background returns the color of rays that leave the scene
func (s *Scene) Background() core.Vec3 {
	return s.Options.Background
}

// GetPrimitiveCount returns the total number of leaf objects in the scene
func (s *Scene) GetPrimitiveCount() int {
	count := 0
	for _, obj := range s.Objects {
		count += countPrimitives(obj)
	}
	return count
}

// countPrimitives counts leaves below obj, descending into groups
func countPrimitives(obj geometry.Object) int {
	switch o := obj.(type) {
	case *geometry.Group:
		n := 0
		for _, c := range o.Children {
			n += countPrimitives(c)
		}
		return n
	default:
		return 1
	}
}
