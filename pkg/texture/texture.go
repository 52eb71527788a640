// Package texture provides the color sources that tint BxDF lobes
package texture

import (
	"fmt"
	"math"

	"github.com/df07/go-lightpath/pkg/core"
)

// Texture provides a color for a surface (u, v) coordinate.
// Returned colors are always within [0, 1].
type Texture interface {
	Lookup(uv core.Vec2) core.Vec3
}

// Flat is a uniform color
type Flat struct {
	Color core.Vec3
}

// NewFlat creates a flat texture; the color is clamped to [0, 1]
func NewFlat(color core.Vec3) *Flat {
	return &Flat{Color: color.Clamp(0, 1)}
}

// Lookup returns the flat color regardless of uv
func (f *Flat) Lookup(uv core.Vec2) core.Vec3 {
	return f.Color
}

// Checked alternates between two colors on a grid in uv space
type Checked struct {
	ColorA core.Vec3
	ColorB core.Vec3
	ScaleS float64 // checks per unit u
	ScaleT float64 // checks per unit v
}

// NewChecked creates a checkerboard texture. Both scales must be positive.
func NewChecked(a, b core.Vec3, scaleS, scaleT float64) (*Checked, error) {
	if !(scaleS > 0) || !(scaleT > 0) {
		return nil, fmt.Errorf("checker scales must be positive, got (%g, %g)", scaleS, scaleT)
	}
	return &Checked{ColorA: a.Clamp(0, 1), ColorB: b.Clamp(0, 1), ScaleS: scaleS, ScaleT: scaleT}, nil
}

// Lookup selects ColorA when exactly one of the scaled coordinates lies in the upper half of its cell
func (c *Checked) Lookup(uv core.Vec2) core.Vec3 {
	s := frac(uv.X*c.ScaleS) > 0.5
	t := frac(uv.Y*c.ScaleT) > 0.5
	if s != t {
		return c.ColorA
	}
	return c.ColorB
}

func frac(x float64) float64 {
	return x - math.Floor(x)
}

// Image samples a decoded picture with nearest-neighbor filtering, wrapping uv
type Image struct {
	Width  int
	Height int
	Pixels []core.Vec3 // Row-major: Pixels[y*Width + x]
}

// NewImage creates an image texture from row-major pixels
func NewImage(width, height int, pixels []core.Vec3) (*Image, error) {
	if width <= 0 || height <= 0 || len(pixels) != width*height {
		return nil, fmt.Errorf("image texture %dx%d has %d pixels", width, height, len(pixels))
	}
	clamped := make([]core.Vec3, len(pixels))
	for i, p := range pixels {
		clamped[i] = p.Clamp(0, 1)
	}
	return &Image{Width: width, Height: height, Pixels: clamped}, nil
}

// Lookup returns the texel under uv. v=0 is the bottom row of the picture.
func (img *Image) Lookup(uv core.Vec2) core.Vec3 {
	u, v := frac(uv.X), frac(uv.Y)

	x := int(u * float64(img.Width))
	y := int((1.0 - v) * float64(img.Height))
	x = max(0, min(img.Width-1, x))
	y = max(0, min(img.Height-1, y))

	return img.Pixels[y*img.Width+x]
}
