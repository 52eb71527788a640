package renderer

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"

	"github.com/df07/go-lightpath/pkg/core"
)

// Film stores the averaged radiance of every pixel. Tiles write disjoint
// rows, so concurrent workers never touch the same pixel.
type Film struct {
	Width, Height int
	pixels        []core.Vec3
}

// NewFilm creates a black film
func NewFilm(width, height int) *Film {
	return &Film{Width: width, Height: height, pixels: make([]core.Vec3, width*height)}
}

// Set stores the radiance of pixel (x, y)
func (f *Film) Set(x, y int, c core.Vec3) {
	f.pixels[y*f.Width+x] = c
}

// At returns the radiance of pixel (x, y)
func (f *Film) At(x, y int) core.Vec3 {
	return f.pixels[y*f.Width+x]
}

// vec3ToColor converts a radiance value to 8-bit RGBA with gamma correction and clamping
func vec3ToColor(c core.Vec3, gamma float64) color.RGBA {
	c = core.NewVec3(zeroNaN(c.X), zeroNaN(c.Y), zeroNaN(c.Z)).GammaCorrect(gamma).Clamp(0, 1)
	return color.RGBA{
		R: uint8(255*c.X + 0.5),
		G: uint8(255*c.Y + 0.5),
		B: uint8(255*c.Z + 0.5),
		A: 255,
	}
}

func zeroNaN(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return v
}

// Image converts the film to an 8-bit image
func (f *Film) Image(gamma float64) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, f.Width, f.Height))
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			img.SetRGBA(x, y, vec3ToColor(f.At(x, y), gamma))
		}
	}
	return img
}

// Downscale resamples img to width x height with a Catmull-Rom filter
func Downscale(img image.Image, width, height int) *image.RGBA {
	if b := img.Bounds(); b.Dx() == width && b.Dy() == height {
		if rgba, ok := img.(*image.RGBA); ok {
			return rgba
		}
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst
}
