package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"runtime"

	"github.com/df07/go-lightpath/pkg/core"
)

// Integrator names accepted in scene files and profiles
const (
	IntegratorWhitted = "whitted"
	IntegratorDirect  = "direct"
)

// RenderOptions holds the camera and sampling configuration for one render
type RenderOptions struct {
	Width  int
	Height int

	FoV           float64 // vertical field of view in radians
	WorldToScreen float64
	Aperture      float64 // lens diameter; 0 is a pinhole
	Focus         float64 // distance of the focal plane along the view axis

	Eye      core.Vec3
	LookAt   core.Vec3
	CameraUp core.Vec3

	MaxDepth       int
	Samples        int // samples per pixel
	Background     core.Vec3
	Gamma          float64
	Integrator     string
	SampleOneLight bool
	Seed           int64
	Supersample    int // render at this multiple of Width/Height, then downscale

	Workers    int
	TileHeight int
}

// DefaultRenderOptions returns the values used for anything a scene file leaves out
func DefaultRenderOptions() RenderOptions {
	return RenderOptions{
		Width:         320,
		Height:        240,
		FoV:           math.Pi / 3,
		WorldToScreen: 1,
		Eye:           core.NewVec3(0, 0, 5),
		LookAt:        core.NewVec3(0, 0, 0),
		CameraUp:      core.NewVec3(0, 1, 0),
		MaxDepth:      5,
		Samples:       4,
		Gamma:         2.2,
		Integrator:    IntegratorWhitted,
		Seed:          1,
		Supersample:   1,
		Workers:       runtime.NumCPU(),
		TileHeight:    16,
	}
}

// InvalidConfigError reports a numerically invalid option
type InvalidConfigError struct {
	Field  string
	Reason string
}

func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid option %s: %s", e.Field, e.Reason)
}

func invalid(field, format string, args ...interface{}) error {
	return &InvalidConfigError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// Validate checks every option and returns the first violation found
func (o *RenderOptions) Validate() error {
	switch {
	case o.Width <= 0:
		return invalid("Width", "must be positive, got %d", o.Width)
	case o.Height <= 0:
		return invalid("Height", "must be positive, got %d", o.Height)
	case !(o.FoV > 0 && o.FoV < math.Pi):
		return invalid("FoV", "must be in (0, pi) radians, got %g", o.FoV)
	case !(o.WorldToScreen > 0) || math.IsInf(o.WorldToScreen, 0):
		return invalid("WorldToScreen", "must be positive, got %g", o.WorldToScreen)
	case !(o.Aperture >= 0):
		return invalid("Aperture", "must not be negative, got %g", o.Aperture)
	case !(o.Focus >= 0):
		return invalid("Focus", "must not be negative, got %g", o.Focus)
	case o.Aperture > 0 && o.Focus == 0:
		return invalid("Focus", "a lens aperture needs a focal distance")
	case !o.Eye.IsFinite() || !o.LookAt.IsFinite():
		return invalid("Eye", "camera position and target must be finite")
	case o.Eye.Equals(o.LookAt, 1e-12):
		return invalid("LookAt", "must differ from Eye")
	case math.Abs(o.CameraUp.Length()-1) > 1e-3:
		return invalid("CameraUp", "must be a unit vector, got length %g", o.CameraUp.Length())
	case o.CameraUp.Cross(o.LookAt.Subtract(o.Eye)).IsZero():
		return invalid("CameraUp", "must not be parallel to the view direction")
	case o.MaxDepth <= 0:
		return invalid("MaxDepth", "must be positive, got %d", o.MaxDepth)
	case o.Samples <= 0:
		return invalid("Samples", "must be positive, got %d", o.Samples)
	case !(o.Gamma > 0):
		return invalid("Gamma", "must be positive, got %g", o.Gamma)
	case o.Integrator != IntegratorWhitted && o.Integrator != IntegratorDirect:
		return invalid("Integrator", "unknown integrator %q", o.Integrator)
	case o.Supersample <= 0:
		return invalid("Supersample", "must be positive, got %d", o.Supersample)
	case o.Workers <= 0:
		return invalid("Workers", "must be positive, got %d", o.Workers)
	case o.TileHeight <= 0:
		return invalid("TileHeight", "must be positive, got %d", o.TileHeight)
	}
	return nil
}

// Profile is a JSON file of option overrides. Fields left out of the file
// do not touch the scene's values.
type Profile struct {
	Width          *int        `json:"width,omitempty"`
	Height         *int        `json:"height,omitempty"`
	Samples        *int        `json:"samples,omitempty"`
	MaxDepth       *int        `json:"maxDepth,omitempty"`
	Gamma          *float64    `json:"gamma,omitempty"`
	Aperture       *float64    `json:"aperture,omitempty"`
	Focus          *float64    `json:"focus,omitempty"`
	Background     *[3]float64 `json:"background,omitempty"`
	Integrator     *string     `json:"integrator,omitempty"`
	SampleOneLight *bool       `json:"sampleOneLight,omitempty"`
	Seed           *int64      `json:"seed,omitempty"`
	Supersample    *int        `json:"supersample,omitempty"`
	Workers        *int        `json:"workers,omitempty"`
	TileHeight     *int        `json:"tileHeight,omitempty"`
}

// LoadProfile reads a JSON override profile
func LoadProfile(path string) (Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	var p Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return Profile{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return p, nil
}

// Apply copies every field set in the profile onto o
func (p Profile) Apply(o *RenderOptions) {
	setInt := func(dst *int, src *int) {
		if src != nil {
			*dst = *src
		}
	}
	setFloat := func(dst *float64, src *float64) {
		if src != nil {
			*dst = *src
		}
	}

	setInt(&o.Width, p.Width)
	setInt(&o.Height, p.Height)
	setInt(&o.Samples, p.Samples)
	setInt(&o.MaxDepth, p.MaxDepth)
	setInt(&o.Supersample, p.Supersample)
	setInt(&o.Workers, p.Workers)
	setInt(&o.TileHeight, p.TileHeight)
	setFloat(&o.Gamma, p.Gamma)
	setFloat(&o.Aperture, p.Aperture)
	setFloat(&o.Focus, p.Focus)

	if p.Background != nil {
		o.Background = core.NewVec3(p.Background[0], p.Background[1], p.Background[2])
	}
	if p.Integrator != nil {
		o.Integrator = *p.Integrator
	}
	if p.SampleOneLight != nil {
		o.SampleOneLight = *p.SampleOneLight
	}
	if p.Seed != nil {
		o.Seed = *p.Seed
	}
}

// Flags holds CLI flag values that override the scene and profile.
// Zero values leave the option alone.
type Flags struct {
	Samples int
	Workers int
}

// Resolve applies CLI flags on top of o
func (o *RenderOptions) Resolve(flags Flags) {
	if flags.Samples > 0 {
		o.Samples = flags.Samples
	}
	if flags.Workers > 0 {
		o.Workers = flags.Workers
	}
}

func (o RenderOptions) String() string {
	return fmt.Sprintf("%dx%d spp=%d depth=%d integrator=%s oneLight=%v ss=%d workers=%d",
		o.Width, o.Height, o.Samples, o.MaxDepth, o.Integrator, o.SampleOneLight, o.Supersample, o.Workers)
}
