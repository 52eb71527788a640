package bxdf

import (
	"math"

	"github.com/df07/go-lightpath/pkg/core"
	"github.com/df07/go-lightpath/pkg/optics"
)

// Frame is the local shading context at a surface point: the world/shading
// rotations, the unit normal (shading +z) and the texture coordinate.
type Frame struct {
	SW core.Mat3 // world -> shading
	WS core.Mat3 // shading -> world
	N  core.Vec3
	UV core.Vec2
}

// ToLocal maps a world direction into shading space
func (f Frame) ToLocal(w core.Vec3) core.Vec3 { return f.SW.MulVec(w) }

// ToWorld maps a shading direction into world space
func (f Frame) ToWorld(w core.Vec3) core.Vec3 { return f.WS.MulVec(w) }

// BSDF is an ordered set of lobes
type BSDF struct {
	Lobes []Lobe
}

// NewBSDF creates a BSDF from lobes
func NewBSDF(lobes ...Lobe) *BSDF {
	return &BSDF{Lobes: lobes}
}

// NumLobes counts the lobes whose flags fall entirely inside mask
func (b *BSDF) NumLobes(mask Flags) int {
	n := 0
	for _, l := range b.Lobes {
		if l.Flags().Matches(mask) {
			n++
		}
	}
	return n
}

// HasFlags reports whether any lobe falls inside mask
func (b *BSDF) HasFlags(mask Flags) bool {
	return b.NumLobes(mask) > 0
}

// sideMatches reports whether the lobe scatters to the side implied by wo and wi
func sideMatches(flags Flags, wo, wi core.Vec3) bool {
	s := optics.CosTheta(wo) * optics.CosTheta(wi)
	switch {
	case s > 0:
		return flags.Has(Reflection)
	case s < 0:
		return flags.Has(Transmission)
	default:
		return false
	}
}

// Eval sums the matching lobes for a pair of world directions
func (b *BSDF) Eval(fr Frame, woW, wiW core.Vec3, mask Flags) core.Vec3 {
	wo, wi := fr.ToLocal(woW), fr.ToLocal(wiW)
	return b.evalLocal(wo, wi, fr.UV, mask)
}

func (b *BSDF) evalLocal(wo, wi core.Vec3, uv core.Vec2, mask Flags) core.Vec3 {
	var f core.Vec3
	for _, l := range b.Lobes {
		flags := l.Flags()
		if flags.Matches(mask) && sideMatches(flags, wo, wi) {
			f = f.Add(l.Eval(wo, wi, uv))
		}
	}
	return f
}

// PDF is the density with which Sample produces wiW under mask. Every
// matching lobe counts toward the uniform lobe choice; specular lobes add no
// density.
func (b *BSDF) PDF(fr Frame, woW, wiW core.Vec3, mask Flags) float64 {
	wo, wi := fr.ToLocal(woW), fr.ToLocal(wiW)
	sum, n := 0.0, 0
	for _, l := range b.Lobes {
		flags := l.Flags()
		if !flags.Matches(mask) {
			continue
		}
		n++
		if !flags.Has(Specular) {
			sum += l.PDF(wo, wi)
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// Sample picks one matching lobe uniformly with u.X and samples it. For a
// non-specular pick the returned value and density cover every matching lobe;
// a specular pick returns its own delta value and pdf.
func (b *BSDF) Sample(fr Frame, woW core.Vec3, u core.Vec2, mask Flags) (core.Vec3, core.Vec3, float64, Flags) {
	n := b.NumLobes(mask)
	if n == 0 {
		return core.Vec3{}, core.Vec3{}, 0, 0
	}

	pick := min(int(math.Floor(u.X*float64(n))), n-1)
	remapped := core.NewVec2(math.Min(u.X*float64(n)-float64(pick), math.Nextafter(1, 0)), u.Y)

	var chosen Lobe
	for i, k := 0, 0; i < len(b.Lobes); i++ {
		if b.Lobes[i].Flags().Matches(mask) {
			if k == pick {
				chosen = b.Lobes[i]
				break
			}
			k++
		}
	}

	wo := fr.ToLocal(woW)
	wi, f, pdf := chosen.Sample(wo, remapped, fr.UV)
	if pdf == 0 || wi.IsZero() {
		return core.Vec3{}, core.Vec3{}, 0, 0
	}
	flags := chosen.Flags()
	wiW := fr.ToWorld(wi)

	if !flags.Has(Specular) && n > 1 {
		for _, l := range b.Lobes {
			if l != chosen && l.Flags().Matches(mask) {
				pdf += l.PDF(wo, wi)
			}
		}
		pdf /= float64(n)
		f = b.evalLocal(wo, wi, fr.UV, mask)
	}

	return wiW, f, pdf, flags
}
