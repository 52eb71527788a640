package lights

import (
	"github.com/df07/go-lightpath/pkg/core"
	"github.com/df07/go-lightpath/pkg/geometry"
)

type LightType string

const (
	LightTypePoint       LightType = "point"
	LightTypeDirectional LightType = "directional"
	LightTypeArea        LightType = "area"
)

// Light interface for emitters that can be sampled for direct lighting
type Light interface {
	Type() LightType

	// SampleLi samples incident radiance at ref. The direction points FROM the
	// shading point TO the light.
	SampleLi(ref *geometry.SurfaceInfo, u core.Vec2) LightSample

	// PDF returns the solid-angle density with which SampleLi would produce wi.
	// Always zero for delta lights.
	PDF(ref *geometry.SurfaceInfo, wi core.Vec3) float64

	// IsDelta reports whether the light is a point or direction that BSDF sampling can never hit
	IsDelta() bool
}

// LightSample contains a sampled incident direction and its radiance
type LightSample struct {
	Wi        core.Vec3 // unit direction toward the light
	Li        core.Vec3 // incident radiance
	Pdf       float64   // solid-angle density (1 for delta lights)
	ShadowRay core.Ray  // biased visibility ray ending just short of the light
}

// IsBlack reports whether the sample carries no usable contribution
func (s LightSample) IsBlack() bool {
	return s.Pdf <= 0 || s.Li.IsZero()
}
