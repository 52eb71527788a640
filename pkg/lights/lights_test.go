package lights

import (
	"math"
	"testing"

	"github.com/df07/go-lightpath/pkg/core"
	"github.com/df07/go-lightpath/pkg/geometry"
)

func surfaceAt(p, n core.Vec3) *geometry.SurfaceInfo {
	s := &geometry.SurfaceInfo{P: p, N: n}
	s.BuildFrame()
	return s
}

func TestPointLight_SampleLi(t *testing.T) {
	tests := []struct {
		name     string
		position core.Vec3
		expected float64
	}{
		{"Inverse square", core.NewVec3(0, 0, 4), 1.0 / 16},
		{"Clamped inside unit distance", core.NewVec3(0, 0, 0.5), 1},
	}

	ref := surfaceAt(core.Vec3{}, core.NewVec3(0, 0, 1))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			light := NewPointLight(tt.position, core.NewVec3(1, 1, 1))
			s := light.SampleLi(ref, core.Vec2{})
			if s.Pdf != 1 {
				t.Errorf("Expected pdf 1, got %f", s.Pdf)
			}
			if math.Abs(s.Li.X-tt.expected) > 1e-12 {
				t.Errorf("Expected Li %f, got %f", tt.expected, s.Li.X)
			}
			if !s.Wi.Equals(core.NewVec3(0, 0, 1), 1e-12) {
				t.Errorf("Expected wi toward +z, got %v", s.Wi)
			}
			if want := tt.position.Z - 2*core.ShadowBias; math.Abs(s.ShadowRay.TMax-want) > 1e-9 {
				t.Errorf("Expected shadow ray length %f, got %f", want, s.ShadowRay.TMax)
			}
		})
	}

	if light := NewPointLight(core.Vec3{}, core.NewVec3(1, 1, 1)); !light.IsDelta() || light.PDF(ref, core.NewVec3(0, 0, 1)) != 0 {
		t.Error("Point lights are delta lights with zero pdf")
	}
}

func TestDirectionalLight_SampleLi(t *testing.T) {
	light := NewDirectionalLight(core.NewVec3(0, -2, 0), core.NewVec3(0.5, 0.5, 0.5))
	s := light.SampleLi(surfaceAt(core.Vec3{}, core.NewVec3(0, 1, 0)), core.Vec2{})

	if !s.Wi.Equals(core.NewVec3(0, 1, 0), 1e-12) {
		t.Errorf("Expected wi = -direction, got %v", s.Wi)
	}
	if !math.IsInf(s.ShadowRay.TMax, 1) {
		t.Errorf("Expected unbounded shadow ray, got %f", s.ShadowRay.TMax)
	}
	if s.Li != core.NewVec3(0.5, 0.5, 0.5) || s.Pdf != 1 {
		t.Errorf("Unexpected sample %+v", s)
	}
}

func TestAreaLight_SampleMatchesPDF(t *testing.T) {
	// A unit-radius sphere hovering above the reference point
	sphere, err := geometry.NewSphere(1, core.Translate(core.NewVec3(0, 0, 5)), nil)
	if err != nil {
		t.Fatal(err)
	}
	light := NewAreaLight(sphere, core.NewVec3(2, 2, 2))
	ref := surfaceAt(core.Vec3{}, core.NewVec3(0, 0, 1))
	sampler := core.NewSeededSampler(21)

	visible := 0
	for i := 0; i < 500; i++ {
		s := light.SampleLi(ref, sampler.Get2D())
		if s.Pdf <= 0 {
			t.Fatalf("Expected positive pdf, got %f", s.Pdf)
		}
		if s.Li.IsZero() {
			continue // back side of the sphere
		}
		visible++
		if pdf := light.PDF(ref, s.Wi); math.Abs(pdf-s.Pdf) > 1e-3*s.Pdf {
			t.Fatalf("PDF %f disagrees with sample pdf %f", pdf, s.Pdf)
		}
	}
	if visible == 0 {
		t.Fatal("No front-facing samples")
	}

	if light.PDF(ref, core.NewVec3(1, 0, 0)) != 0 {
		t.Error("Direction missing the light should have zero pdf")
	}
}

// Integrating Li/pdf over the visible cap of a sphere light approximates
// the irradiance contribution Le·Ω; with cosine weighting against a facing
// surface the estimate must converge to the analytic value Le·π·sin²α.
func TestAreaLight_IrradianceEstimate(t *testing.T) {
	const radius, height = 1.0, 4.0
	sphere, _ := geometry.NewSphere(radius, core.Translate(core.NewVec3(0, 0, height)), nil)
	light := NewAreaLight(sphere, core.NewVec3(1, 1, 1))
	ref := surfaceAt(core.Vec3{}, core.NewVec3(0, 0, 1))
	sampler := core.NewSeededSampler(5)

	const n = 200000
	sum := 0.0
	for i := 0; i < n; i++ {
		s := light.SampleLi(ref, sampler.Get2D())
		if s.Pdf > 0 {
			sum += s.Li.X * s.Wi.Dot(ref.N) / s.Pdf
		}
	}
	estimate := sum / n

	sin2 := (radius * radius) / (height * height)
	expected := math.Pi * sin2
	if math.Abs(estimate-expected) > 0.02*expected {
		t.Errorf("Irradiance %f, expected %f", estimate, expected)
	}
}

func TestUniformLightSampler(t *testing.T) {
	a := NewPointLight(core.Vec3{}, core.NewVec3(1, 1, 1))
	b := NewDirectionalLight(core.NewVec3(0, 0, -1), core.NewVec3(1, 1, 1))
	c := NewPointLight(core.NewVec3(0, 0, 1), core.NewVec3(1, 1, 1))
	sampler := NewUniformLightSampler([]Light{a, b, c})

	tests := []struct {
		u     float64
		light Light
		index int
	}{
		{0, a, 0},
		{0.3, a, 0},
		{0.34, b, 1},
		{0.7, c, 2},
		{0.9999, c, 2},
		{1, c, 2},
	}
	for _, tt := range tests {
		light, prob, idx := sampler.SampleLight(tt.u)
		if light != tt.light || idx != tt.index || math.Abs(prob-1.0/3) > 1e-12 {
			t.Errorf("u=%f: got %v (p=%f, i=%d), expected %v (i=%d)", tt.u, light, prob, idx, tt.light, tt.index)
		}
	}

	if l, _, idx := NewUniformLightSampler(nil).SampleLight(0.5); l != nil || idx != -1 {
		t.Error("Empty sampler should return no light")
	}
}
