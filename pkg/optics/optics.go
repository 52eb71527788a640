// Package optics holds the reflection, refraction and Fresnel formulas shared by
// the specular lobes. All directions are in shading space, where the surface
// normal is +z.
package optics

import (
	"math"

	"github.com/df07/go-lightpath/pkg/core"
)

// DielectricFresnel returns the unpolarised Fresnel reflectance of a dielectric
// interface. cosI is the cosine of the incident angle and eta the relative index
// of refraction ηt/ηi. A negative cosI means the light arrives from the
// transmitted side, in which case eta is inverted. Returns 1 under total
// internal reflection.
func DielectricFresnel(cosI, eta float64) float64 {
	cosI = math.Max(-1, math.Min(1, cosI))
	if cosI < 0 {
		eta = 1 / eta
		cosI = -cosI
	}

	sin2I := math.Max(0, 1-cosI*cosI)
	sin2T := sin2I / (eta * eta)
	if sin2T >= 1 {
		return 1
	}
	cosT := math.Sqrt(math.Max(0, 1-sin2T))

	rParl := (eta*cosI - cosT) / (eta*cosI + cosT)
	rPerp := (cosI - eta*cosT) / (cosI + eta*cosT)
	return (rParl*rParl + rPerp*rPerp) / 2
}

// Reflect mirrors wo about the shading normal
func Reflect(wo core.Vec3) core.Vec3 {
	return core.NewVec3(-wo.X, -wo.Y, wo.Z)
}

// Refract bends wo through an interface with relative index eta (ηt/ηi).
// nz is +1 when wo is on the normal side and -1 otherwise. Returns the zero
// vector under total internal reflection.
func Refract(wo core.Vec3, eta, nz float64) core.Vec3 {
	cosI := wo.Z * nz
	sin2I := math.Max(0, 1-cosI*cosI)
	sin2T := sin2I / (eta * eta)
	if sin2T >= 1 {
		return core.Vec3{}
	}
	cosT := math.Sqrt(1 - sin2T)

	wt := wo.Negate().Multiply(1 / eta)
	return wt.Add(core.NewVec3(0, 0, nz*(cosI/eta-cosT)))
}

// CosTheta returns the cosine of the angle between a shading-space direction and the normal
func CosTheta(w core.Vec3) float64 { return w.Z }

// AbsCosTheta returns |CosTheta(w)|
func AbsCosTheta(w core.Vec3) float64 { return math.Abs(w.Z) }

// SameHemisphere reports whether two shading-space directions lie on the same side of the surface
func SameHemisphere(a, b core.Vec3) bool { return a.Z*b.Z > 0 }
