package material

import (
	"testing"

	"github.com/df07/go-lightpath/pkg/bxdf"
	"github.com/df07/go-lightpath/pkg/core"
	"github.com/df07/go-lightpath/pkg/texture"
)

func TestNew_ClampsRefraction(t *testing.T) {
	tests := []struct {
		name     string
		input    float64
		expected float64
	}{
		{"Glass", 1.5, 1.5},
		{"Less than vacuum", 0.7, 1},
		{"Negative", -2, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if m := New(tt.name, tt.input, true); m.Refraction != tt.expected {
				t.Errorf("Refraction %f, expected %f", m.Refraction, tt.expected)
			}
		})
	}
}

func TestMaterial_Lobes(t *testing.T) {
	white := texture.NewFlat(core.NewVec3(1, 1, 1))
	glass := New("glass", 1.5, false).AddSpecular(white).AddTransmission(white)

	if glass.IsShadowCaster() {
		t.Error("Glass should not cast shadows")
	}
	if n := glass.BSDF.NumLobes(bxdf.AllSpecular); n != 2 {
		t.Errorf("Expected 2 specular lobes, got %d", n)
	}

	trans, ok := glass.BSDF.Lobes[1].(*bxdf.SpecularTransmission)
	if !ok {
		t.Fatalf("Expected transmission lobe, got %T", glass.BSDF.Lobes[1])
	}
	if trans.EtaI != 1 || trans.EtaO != 1.5 {
		t.Errorf("Expected indices (1, 1.5), got (%f, %f)", trans.EtaI, trans.EtaO)
	}

	matte := NewMatte("red", core.NewVec3(1, 0, 0))
	if !matte.IsShadowCaster() || matte.BSDF.NumLobes(bxdf.Reflection|bxdf.Diffuse) != 1 {
		t.Errorf("Unexpected matte material %v", matte)
	}
}
