package scene

import (
	"fmt"
	"math"
	"sort"

	"github.com/df07/go-lightpath/pkg/config"
	"github.com/df07/go-lightpath/pkg/core"
	"github.com/df07/go-lightpath/pkg/geometry"
	"github.com/df07/go-lightpath/pkg/lights"
	"github.com/df07/go-lightpath/pkg/material"
	"github.com/df07/go-lightpath/pkg/texture"
)

// builtins maps scene names to constructors for scenes assembled in code
var builtins = map[string]func() (*Scene, error){
	"shadow":  NewShadowScene,
	"cornell": NewCornellScene,
	"spheres": NewSpheresScene,
}

// Builtin returns a preprocessed built-in scene by name
func Builtin(name string) (*Scene, error) {
	build, ok := builtins[name]
	if !ok {
		return nil, fmt.Errorf("unknown built-in scene %q (have %v)", name, ListBuiltins())
	}
	s, err := build()
	if err != nil {
		return nil, fmt.Errorf("building %s scene: %w", name, err)
	}
	if err := s.Preprocess(); err != nil {
		return nil, fmt.Errorf("preprocessing %s scene: %w", name, err)
	}
	return s, nil
}

// ListBuiltins returns the built-in scene names in sorted order
func ListBuiltins() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewShadowScene creates a red sphere resting on a ground plane, lit by a
// single point light off to one side so its shadow falls on the plane.
func NewShadowScene() (*Scene, error) {
	opts := config.DefaultRenderOptions()
	opts.Width, opts.Height = 64, 48
	opts.Eye = core.NewVec3(0, -4, 3)
	opts.LookAt = core.NewVec3(0, -1, -0.5)
	opts.CameraUp = core.NewVec3(0, 0, 1)
	opts.MaxDepth = 2
	opts.Samples = 1

	s := New(opts)

	red := material.NewMatte("red", core.NewVec3(1, 0, 0))
	sphere, err := geometry.NewSphere(0.5, core.IdentityTransform(), red)
	if err != nil {
		return nil, err
	}
	s.AddObject(sphere)

	ground := material.NewMatte("ground", core.NewVec3(0.8, 0.8, 0.8))
	s.AddObject(geometry.NewPlane(core.Translate(core.NewVec3(0, 0, -0.5)), ground))

	s.AddLight(lights.NewPointLight(core.NewVec3(0, 2, 0), core.NewVec3(1, 1, 1)))
	return s, nil
}

// NewCornellScene creates a classic Cornell box with an area light in the ceiling
func NewCornellScene() (*Scene, error) {
	const boxSize = 555.0

	opts := config.DefaultRenderOptions()
	opts.Width, opts.Height = 200, 200
	opts.FoV = 40 * math.Pi / 180
	opts.Eye = core.NewVec3(278, 278, -800)
	opts.LookAt = core.NewVec3(278, 278, 0)
	opts.MaxDepth = 6
	opts.Samples = 16
	opts.Integrator = config.IntegratorDirect

	s := New(opts)

	white := material.NewMatte("white", core.NewVec3(0.73, 0.73, 0.73))
	red := material.NewMatte("red", core.NewVec3(0.65, 0.05, 0.05))
	green := material.NewMatte("green", core.NewVec3(0.12, 0.45, 0.15))

	// Walls are slabs one unit thick just outside the [0, boxSize]^3 interior
	half := boxSize / 2
	walls := []struct {
		dim    core.Vec3
		center core.Vec3
		mat    *material.Material
	}{
		{core.NewVec3(boxSize, 1, boxSize), core.NewVec3(half, -0.5, half), white},        // floor
		{core.NewVec3(boxSize, 1, boxSize), core.NewVec3(half, boxSize+0.5, half), white}, // ceiling
		{core.NewVec3(boxSize, boxSize, 1), core.NewVec3(half, half, boxSize+0.5), white}, // back
		{core.NewVec3(1, boxSize, boxSize), core.NewVec3(-0.5, half, half), red},          // left
		{core.NewVec3(1, boxSize, boxSize), core.NewVec3(boxSize+0.5, half, half), green}, // right
	}
	for _, w := range walls {
		box, err := geometry.NewBox(w.dim, core.Translate(w.center), w.mat)
		if err != nil {
			return nil, err
		}
		s.AddObject(box)
	}

	// Ceiling light hangs just below the ceiling and does not block other lights
	const lightSize = 130.0
	lamp := material.New("lamp", 1, false).AddDiffuse(texture.NewFlat(core.NewVec3(0.78, 0.78, 0.78)))
	panel, err := geometry.NewBox(core.NewVec3(lightSize, 1, lightSize), core.Translate(core.NewVec3(half, boxSize-1.5, half)), lamp)
	if err != nil {
		return nil, err
	}
	s.AddAreaLight(panel, core.NewVec3(15, 15, 15))

	mirror := material.New("mirror", 1, true).AddSpecular(texture.NewFlat(core.NewVec3(0.8, 0.8, 0.9)))
	left, err := geometry.NewSphere(82.5, core.Translate(core.NewVec3(185, 82.5, 169)), mirror)
	if err != nil {
		return nil, err
	}

	glass := material.New("glass", 1.5, false).
		AddSpecular(texture.NewFlat(core.NewVec3(1, 1, 1))).
		AddTransmission(texture.NewFlat(core.NewVec3(1, 1, 1)))
	right, err := geometry.NewSphere(90, core.Translate(core.NewVec3(370, 90, 351)), glass)
	if err != nil {
		return nil, err
	}
	s.AddObject(left)
	s.AddObject(right)

	return s, nil
}

// NewSpheresScene creates a row of spheres of different materials over a
// checkered floor, lit by a directional light and a point light.
func NewSpheresScene() (*Scene, error) {
	opts := config.DefaultRenderOptions()
	opts.Width, opts.Height = 320, 180
	opts.Eye = core.NewVec3(0, 1.5, 6)
	opts.LookAt = core.NewVec3(0, 0.5, 0)
	opts.Background = core.NewVec3(0.5, 0.7, 1.0)
	opts.Samples = 8

	s := New(opts)

	checker, err := texture.NewChecked(core.NewVec3(0.9, 0.9, 0.9), core.NewVec3(0.2, 0.3, 0.1), 0.5, 0.5)
	if err != nil {
		return nil, err
	}
	floor := material.New("floor", 1, true).AddDiffuse(checker)
	// The plane is z = 0 locally; tip it over so it becomes y = 0 facing +y
	s.AddObject(geometry.NewPlane(core.RotateX(-math.Pi/2), floor))

	materials := []*material.Material{
		material.NewMatte("matte", core.NewVec3(0.7, 0.3, 0.3)),
		material.New("plastic", 1.5, true).
			AddDiffuse(texture.NewFlat(core.NewVec3(0.1, 0.2, 0.5))).
			AddGlossy(texture.NewFlat(core.NewVec3(0.5, 0.5, 0.5)), 50),
		material.New("chrome", 1, true).AddSpecular(texture.NewFlat(core.NewVec3(0.9, 0.9, 0.9))),
		material.New("glass", 1.5, false).
			AddSpecular(texture.NewFlat(core.NewVec3(1, 1, 1))).
			AddTransmission(texture.NewFlat(core.NewVec3(1, 1, 1))),
	}
	for i, m := range materials {
		x := -2.4 + 1.6*float64(i)
		sphere, err := geometry.NewSphere(0.6, core.Translate(core.NewVec3(x, 0.6, 0)), m)
		if err != nil {
			return nil, err
		}
		s.AddObject(sphere)
	}

	s.AddLight(lights.NewDirectionalLight(core.NewVec3(-1, -2, -1), core.NewVec3(0.8, 0.8, 0.7)))
	s.AddLight(lights.NewPointLight(core.NewVec3(2, 4, 3), core.NewVec3(6, 6, 6)))
	return s, nil
}
