// Package bxdf implements the scattering lobes and the BSDF that aggregates them.
// Every lobe works in shading space, where the surface normal is +z and the
// sign of z selects the hemisphere.
package bxdf

import (
	"strings"

	"github.com/df07/go-lightpath/pkg/core"
)

// Flags classify a lobe by side and by angular spread
type Flags uint8

const (
	Reflection Flags = 1 << iota
	Transmission
	Diffuse
	Glossy
	Specular

	AllSides       = Reflection | Transmission
	AllTypes       = Diffuse | Glossy | Specular
	All            = AllSides | AllTypes
	AllNonSpecular = AllSides | Diffuse | Glossy
	AllSpecular    = AllSides | Specular
)

// Matches reports whether every bit of f is present in mask
func (f Flags) Matches(mask Flags) bool {
	return f&mask == f
}

// Has reports whether f carries any of the bits in bits
func (f Flags) Has(bits Flags) bool {
	return f&bits != 0
}

func (f Flags) String() string {
	names := []struct {
		bit  Flags
		name string
	}{
		{Reflection, "reflection"},
		{Transmission, "transmission"},
		{Diffuse, "diffuse"},
		{Glossy, "glossy"},
		{Specular, "specular"},
	}
	var parts []string
	for _, n := range names {
		if f&n.bit != 0 {
			parts = append(parts, n.name)
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}

// Lobe is a single scattering component. Directions are in shading space and
// point away from the surface.
type Lobe interface {
	Flags() Flags

	// Eval returns the BxDF value for the pair (wo, wi); zero for delta lobes
	Eval(wo, wi core.Vec3, uv core.Vec2) core.Vec3

	// PDF returns the solid-angle density with which Sample would pick wi; zero for delta lobes
	PDF(wo, wi core.Vec3) float64

	// Sample draws an incident direction. A zero wi means no direction could be produced.
	Sample(wo core.Vec3, u core.Vec2, uv core.Vec2) (wi core.Vec3, f core.Vec3, pdf float64)
}
