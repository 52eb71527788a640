package renderer

import (
	"bytes"
	"context"
	"errors"
	"image"
	"strings"
	"testing"

	"github.com/df07/go-lightpath/pkg/config"
	"github.com/df07/go-lightpath/pkg/scene"
)

func shadowScene(t *testing.T, modify func(*config.RenderOptions)) *scene.Scene {
	t.Helper()
	s, err := scene.Builtin("shadow")
	if err != nil {
		t.Fatalf("Builtin(shadow): %v", err)
	}
	s.Options.Samples = 1
	if modify != nil {
		modify(&s.Options)
	}
	return s
}

func TestRaytracerRender(t *testing.T) {
	s := shadowScene(t, func(o *config.RenderOptions) { o.Workers = 3 })
	var logs bytes.Buffer
	rt, err := NewRaytracer(s, NewDefaultLogger(&logs))
	if err != nil {
		t.Fatalf("NewRaytracer: %v", err)
	}

	img, stats, err := rt.Render(context.Background())
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	want := image.Rect(0, 0, s.Options.Width, s.Options.Height)
	if img.Bounds() != want {
		t.Errorf("Expected bounds %v, got %v", want, img.Bounds())
	}
	if stats.TotalPixels != want.Dx()*want.Dy() {
		t.Errorf("Expected %d pixels rendered, got %d", want.Dx()*want.Dy(), stats.TotalPixels)
	}
	if stats.Workers != 3 {
		t.Errorf("Expected 3 workers, got %d", stats.Workers)
	}
	if lum := CalculateAverageLuminance(img); lum <= 0 {
		t.Errorf("Expected a lit image, got average luminance %f", lum)
	}
	for _, line := range []string{"render complete", "average luminance"} {
		if !strings.Contains(logs.String(), line) {
			t.Errorf("Expected %q in the log, got %q", line, logs.String())
		}
	}
}

func TestRaytracerDeterministicSingleWorker(t *testing.T) {
	render := func() *image.RGBA {
		s := shadowScene(t, func(o *config.RenderOptions) {
			o.Workers = 1
			o.Samples = 2
		})
		rt, err := NewRaytracer(s, nil)
		if err != nil {
			t.Fatalf("NewRaytracer: %v", err)
		}
		img, _, err := rt.Render(context.Background())
		if err != nil {
			t.Fatalf("Render: %v", err)
		}
		return img
	}

	first, second := render(), render()
	if !bytes.Equal(first.Pix, second.Pix) {
		t.Error("Expected identical images for the same seed on one worker")
	}
}

func TestRaytracerSupersample(t *testing.T) {
	s := shadowScene(t, func(o *config.RenderOptions) { o.Supersample = 2 })
	rt, err := NewRaytracer(s, nil)
	if err != nil {
		t.Fatalf("NewRaytracer: %v", err)
	}

	film, stats, err := rt.RenderFilm(context.Background())
	if err != nil {
		t.Fatalf("RenderFilm: %v", err)
	}
	if film.Width != 2*s.Options.Width || film.Height != 2*s.Options.Height {
		t.Errorf("Expected a %dx%d film, got %dx%d", 2*s.Options.Width, 2*s.Options.Height, film.Width, film.Height)
	}
	if stats.TotalPixels != film.Width*film.Height {
		t.Errorf("Expected %d pixels rendered, got %d", film.Width*film.Height, stats.TotalPixels)
	}

	img, _, err := rt.Render(context.Background())
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if img.Bounds() != image.Rect(0, 0, s.Options.Width, s.Options.Height) {
		t.Errorf("Expected the output downscaled to %dx%d, got %v", s.Options.Width, s.Options.Height, img.Bounds())
	}
}

func TestRaytracerCancelled(t *testing.T) {
	s := shadowScene(t, nil)
	rt, err := NewRaytracer(s, nil)
	if err != nil {
		t.Fatalf("NewRaytracer: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	img, _, err := rt.Render(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if img != nil {
		t.Error("Expected no image from a cancelled render")
	}
}

func TestNewRaytracerInvalidOptions(t *testing.T) {
	s := shadowScene(t, func(o *config.RenderOptions) { o.Samples = 0 })
	_, err := NewRaytracer(s, nil)

	var cfgErr *config.InvalidConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("Expected InvalidConfigError, got %v", err)
	}
	if cfgErr.Field != "Samples" {
		t.Errorf("Expected field Samples, got %s", cfgErr.Field)
	}
}
