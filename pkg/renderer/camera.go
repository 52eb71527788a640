package renderer

import (
	"fmt"
	"math"

	"github.com/df07/go-lightpath/pkg/config"
	"github.com/df07/go-lightpath/pkg/core"
)

// Camera generates primary rays through a thin lens. Camera space has the
// eye at the origin looking down +z, with +x right and +y down the image.
type Camera struct {
	width, height int
	aperture      float64
	focus         float64

	halfWidth  float64 // extent of the window at unit distance
	halfHeight float64

	cameraToWorld core.Transform
}

// NewCamera creates a camera from the render options for an image of the
// given size; supersampled renders pass the enlarged size.
func NewCamera(opts config.RenderOptions, width, height int) (*Camera, error) {
	if !(opts.FoV > 0 && opts.FoV < math.Pi) {
		return nil, &config.InvalidConfigError{Field: "FoV", Reason: fmt.Sprintf("must be in (0, pi), got %g", opts.FoV)}
	}
	if !(opts.WorldToScreen > 0) {
		return nil, &config.InvalidConfigError{Field: "WorldToScreen", Reason: "must be positive"}
	}
	if width <= 0 || height <= 0 {
		return nil, &config.InvalidConfigError{Field: "Width", Reason: fmt.Sprintf("bad image size %dx%d", width, height)}
	}

	xf, err := core.LookAt(opts.Eye, opts.LookAt, opts.CameraUp)
	if err != nil {
		return nil, &config.InvalidConfigError{Field: "CameraUp", Reason: "eye, target and up do not define a view"}
	}

	halfHeight := math.Tan(opts.FoV/2) / opts.WorldToScreen
	return &Camera{
		width:         width,
		height:        height,
		aperture:      opts.Aperture,
		focus:         opts.Focus,
		halfWidth:     halfHeight * float64(width) / float64(height),
		halfHeight:    halfHeight,
		cameraToWorld: xf,
	}, nil
}

// window maps a continuous pixel position to the unit-distance image plane
func (c *Camera) window(x, y float64) core.Vec3 {
	return core.NewVec3(
		(2*x/float64(c.width)-1)*c.halfWidth,
		(2*y/float64(c.height)-1)*c.halfHeight,
		1,
	)
}

// GetRay generates a world-space ray through a jittered point of pixel (x, y)
func (c *Camera) GetRay(x, y int, sampler core.Sampler) core.Ray {
	jitter := sampler.Get2D()
	d := c.window(float64(x)+jitter.X, float64(y)+jitter.Y).Normalize()

	origin := core.Vec3{}
	if c.aperture > 0 {
		lens := core.SampleConcentricDisc(sampler.Get2D()).Multiply(c.aperture / 2)
		focusPoint := d.Multiply(c.focus / d.Z)
		origin = lens
		d = focusPoint.Subtract(lens)
	}

	return core.NewRay(c.cameraToWorld.Point(origin), c.cameraToWorld.Vector(d))
}
