package lights

import (
	"math"

	"github.com/df07/go-lightpath/pkg/core"
	"github.com/df07/go-lightpath/pkg/geometry"
)

// PointLight emits Intensity uniformly from Position
type PointLight struct {
	Position  core.Vec3
	Intensity core.Vec3
}

// NewPointLight creates a point light
func NewPointLight(position, intensity core.Vec3) *PointLight {
	return &PointLight{Position: position, Intensity: intensity}
}

func (pl *PointLight) Type() LightType { return LightTypePoint }
func (pl *PointLight) IsDelta() bool   { return true }

// SampleLi returns the single direction toward the light. Falloff is clamped
// inside unit distance so nearby surfaces do not blow up.
func (pl *PointLight) SampleLi(ref *geometry.SurfaceInfo, u core.Vec2) LightSample {
	toLight := pl.Position.Subtract(ref.P)
	dist := toLight.Length()
	if dist == 0 {
		return LightSample{}
	}
	wi := toLight.Multiply(1 / dist)
	falloff := math.Max(1, dist)

	return LightSample{
		Wi:        wi,
		Li:        pl.Intensity.Multiply(1 / (falloff * falloff)),
		Pdf:       1,
		ShadowRay: ref.ShadowRayTo(wi, dist),
	}
}

func (pl *PointLight) PDF(ref *geometry.SurfaceInfo, wi core.Vec3) float64 { return 0 }

// DirectionalLight delivers Irradiance along Direction from infinitely far away
type DirectionalLight struct {
	Direction  core.Vec3 // unit direction the light travels in
	Irradiance core.Vec3
}

// NewDirectionalLight creates a directional light; the direction is normalized
func NewDirectionalLight(direction, irradiance core.Vec3) *DirectionalLight {
	return &DirectionalLight{Direction: direction.Normalize(), Irradiance: irradiance}
}

func (dl *DirectionalLight) Type() LightType { return LightTypeDirectional }
func (dl *DirectionalLight) IsDelta() bool   { return true }

// SampleLi returns the reversed light direction with an unbounded shadow ray
func (dl *DirectionalLight) SampleLi(ref *geometry.SurfaceInfo, u core.Vec2) LightSample {
	if dl.Direction.IsZero() {
		return LightSample{}
	}
	wi := dl.Direction.Negate()
	return LightSample{
		Wi:        wi,
		Li:        dl.Irradiance,
		Pdf:       1,
		ShadowRay: ref.ShadowRayTo(wi, math.Inf(1)),
	}
}

func (dl *DirectionalLight) PDF(ref *geometry.SurfaceInfo, wi core.Vec3) float64 { return 0 }
