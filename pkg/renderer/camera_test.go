package renderer

import (
	"errors"
	"math"
	"testing"

	"github.com/df07/go-lightpath/pkg/config"
	"github.com/df07/go-lightpath/pkg/core"
)

// scriptSampler replays a fixed list of 2D samples
type scriptSampler struct {
	values []core.Vec2
	next   int
}

func (s *scriptSampler) Get1D() float64 { return s.Get2D().X }

func (s *scriptSampler) Get2D() core.Vec2 {
	v := s.values[s.next%len(s.values)]
	s.next++
	return v
}

func (s *scriptSampler) Get3D() core.Vec3 {
	v := s.Get2D()
	return core.NewVec3(v.X, v.Y, s.Get1D())
}

func testCameraOptions() config.RenderOptions {
	opts := config.DefaultRenderOptions()
	opts.Eye = core.NewVec3(0, 0, 5)
	opts.LookAt = core.NewVec3(0, 0, 0)
	opts.CameraUp = core.NewVec3(0, 1, 0)
	opts.FoV = math.Pi / 2
	return opts
}

func TestCameraGetRay(t *testing.T) {
	camera, err := NewCamera(testCameraOptions(), 2, 2)
	if err != nil {
		t.Fatalf("NewCamera: %v", err)
	}
	inv := 1 / math.Sqrt(3)

	tests := []struct {
		name   string
		x, y   int
		jitter core.Vec2
		want   core.Vec3
	}{
		{"center", 1, 1, core.NewVec2(0, 0), core.NewVec3(0, 0, -1)},
		// top-left corner of the image: left is -x, up is +y
		{"top left corner", 0, 0, core.NewVec2(0, 0), core.NewVec3(-inv, inv, -inv)},
		{"bottom right corner", 1, 1, core.NewVec2(1, 1), core.NewVec3(inv, -inv, -inv)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ray := camera.GetRay(tt.x, tt.y, &scriptSampler{values: []core.Vec2{tt.jitter}})
			if !ray.Origin.Equals(core.NewVec3(0, 0, 5), 1e-9) {
				t.Errorf("Expected origin at the eye, got %v", ray.Origin)
			}
			if !ray.Direction.Equals(tt.want, 1e-9) {
				t.Errorf("Expected direction %v, got %v", tt.want, ray.Direction)
			}
		})
	}
}

func TestCameraWorldToScreenNarrowsView(t *testing.T) {
	opts := testCameraOptions()
	opts.WorldToScreen = 2
	camera, err := NewCamera(opts, 2, 2)
	if err != nil {
		t.Fatalf("NewCamera: %v", err)
	}

	ray := camera.GetRay(0, 1, &scriptSampler{values: []core.Vec2{core.NewVec2(0, 0)}})
	want := core.NewVec3(-0.5, 0, -1).Normalize()
	if !ray.Direction.Equals(want, 1e-9) {
		t.Errorf("Expected direction %v, got %v", want, ray.Direction)
	}
}

func TestCameraThinLensFocus(t *testing.T) {
	opts := testCameraOptions()
	opts.Aperture = 0.5
	opts.Focus = 3
	camera, err := NewCamera(opts, 2, 2)
	if err != nil {
		t.Fatalf("NewCamera: %v", err)
	}

	// every lens sample of the center ray passes through the focus point
	focusPoint := core.NewVec3(0, 0, 2)
	lensSamples := []core.Vec2{
		core.NewVec2(0.9, 0.3),
		core.NewVec2(0.1, 0.8),
		core.NewVec2(0.6, 0.05),
	}
	for _, u := range lensSamples {
		ray := camera.GetRay(1, 1, &scriptSampler{values: []core.Vec2{core.NewVec2(0, 0), u}})
		if ray.Origin.Equals(opts.Eye, 1e-6) {
			t.Errorf("Lens sample %v: expected origin off the eye, got %v", u, ray.Origin)
		}
		if ray.Origin.Subtract(opts.Eye).Length() > opts.Aperture/2+1e-9 {
			t.Errorf("Lens sample %v: origin %v outside the aperture", u, ray.Origin)
		}

		toFocus := focusPoint.Subtract(ray.Origin)
		offAxis := toFocus.Subtract(ray.Direction.Multiply(toFocus.Dot(ray.Direction)))
		if offAxis.Length() > 1e-9 {
			t.Errorf("Lens sample %v: ray misses the focus point by %g", u, offAxis.Length())
		}
	}
}

func TestNewCameraInvalid(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*config.RenderOptions)
		width  int
		field  string
	}{
		{"zero fov", func(o *config.RenderOptions) { o.FoV = 0 }, 4, "FoV"},
		{"fov of pi", func(o *config.RenderOptions) { o.FoV = math.Pi }, 4, "FoV"},
		{"zero world to screen", func(o *config.RenderOptions) { o.WorldToScreen = 0 }, 4, "WorldToScreen"},
		{"empty image", func(o *config.RenderOptions) {}, 0, "Width"},
		{"up along view", func(o *config.RenderOptions) { o.CameraUp = core.NewVec3(0, 0, 1) }, 4, "CameraUp"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := testCameraOptions()
			tt.modify(&opts)
			_, err := NewCamera(opts, tt.width, 4)
			var cfgErr *config.InvalidConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("Expected InvalidConfigError, got %v", err)
			}
			if cfgErr.Field != tt.field {
				t.Errorf("Expected field %s, got %s", tt.field, cfgErr.Field)
			}
		})
	}
}
