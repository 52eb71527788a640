package core

import (
	"math"
	"testing"
)

func TestVec3_Cross(t *testing.T) {
	tests := []struct {
		name     string
		a, b     Vec3
		expected Vec3
	}{
		{"X cross Y", NewVec3(1, 0, 0), NewVec3(0, 1, 0), NewVec3(0, 0, 1)},
		{"Y cross Z", NewVec3(0, 1, 0), NewVec3(0, 0, 1), NewVec3(1, 0, 0)},
		{"Z cross X", NewVec3(0, 0, 1), NewVec3(1, 0, 0), NewVec3(0, 1, 0)},
		{"Parallel", NewVec3(2, 0, 0), NewVec3(5, 0, 0), NewVec3(0, 0, 0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.a.Cross(tt.b)
			if !result.Equals(tt.expected, 1e-12) {
				t.Errorf("Expected %v, got %v", tt.expected, result)
			}
		})
	}
}

func TestVec3_NormalizeZero(t *testing.T) {
	v := NewVec3(0, 0, 0).Normalize()
	if !v.IsZero() {
		t.Errorf("Normalizing the zero vector should give zero, got %v", v)
	}

	n := NewVec3(3, 4, 0).Normalize()
	if math.Abs(n.Length()-1) > 1e-12 {
		t.Errorf("Expected unit length, got %f", n.Length())
	}
}

func TestVec3_GammaCorrect(t *testing.T) {
	c := NewVec3(0.25, 1, -1).GammaCorrect(2)
	expected := NewVec3(0.5, 1, 0)
	if !c.Equals(expected, 1e-12) {
		t.Errorf("Expected %v, got %v", expected, c)
	}
}

func TestRay_Valid(t *testing.T) {
	tests := []struct {
		name  string
		ray   Ray
		valid bool
	}{
		{"Unit direction", NewRay(Vec3{}, NewVec3(0, 0, 1)), true},
		{"Zero direction", NewRay(Vec3{}, Vec3{}), false},
		{"NaN origin", NewRay(NewVec3(math.NaN(), 0, 0), NewVec3(0, 0, 1)), false},
		{"Negative TMax", NewRayTo(Vec3{}, NewVec3(0, 0, 1), -1), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.ray.Valid() != tt.valid {
				t.Errorf("Valid() = %v, expected %v", tt.ray.Valid(), tt.valid)
			}
		})
	}
}

func TestIsHit(t *testing.T) {
	if IsHit(NoIntersection) {
		t.Error("NoIntersection should not be a hit")
	}
	if IsHit(math.NaN()) || IsHit(-0.5) {
		t.Error("NaN and negative distances should not be hits")
	}
	if !IsHit(0) || !IsHit(2.5) {
		t.Error("Finite non-negative distances should be hits")
	}
}
