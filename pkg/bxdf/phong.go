package bxdf

import (
	"math"

	"github.com/df07/go-lightpath/pkg/core"
	"github.com/df07/go-lightpath/pkg/optics"
	"github.com/df07/go-lightpath/pkg/texture"
)

// Phong is a normalized Phong glossy lobe. It is only evaluated against light
// samples; it has no sampling routine of its own.
type Phong struct {
	Tint     texture.Texture
	Exponent float64
}

// NewPhong creates a glossy lobe with the given specular exponent
func NewPhong(tint texture.Texture, exponent float64) *Phong {
	return &Phong{Tint: tint, Exponent: math.Max(0, exponent)}
}

func (p *Phong) Flags() Flags { return Reflection | Glossy }

// Eval returns color·(s+2)/(2π)·cos^s(α), α being the angle between wi and the mirror direction of wo
func (p *Phong) Eval(wo, wi core.Vec3, uv core.Vec2) core.Vec3 {
	if !optics.SameHemisphere(wo, wi) {
		return core.Vec3{}
	}
	cosAlpha := optics.Reflect(wo).Dot(wi)
	if cosAlpha <= 0 {
		return core.Vec3{}
	}
	norm := (p.Exponent + 2) / (2 * math.Pi)
	return p.Tint.Lookup(uv).Multiply(norm * math.Pow(cosAlpha, p.Exponent))
}

func (p *Phong) PDF(wo, wi core.Vec3) float64 { return 0 }

func (p *Phong) Sample(wo core.Vec3, u core.Vec2, uv core.Vec2) (core.Vec3, core.Vec3, float64) {
	return core.Vec3{}, core.Vec3{}, 0
}
