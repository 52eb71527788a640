package renderer

import (
	"context"
	"fmt"
	"image"
	"io"
	"log"
	"sync"
	"time"

	"github.com/df07/go-lightpath/pkg/core"
	"github.com/df07/go-lightpath/pkg/integrator"
	"github.com/df07/go-lightpath/pkg/scene"
)

// DefaultLogger implements core.Logger through the log package
type DefaultLogger struct {
	*log.Logger
}

// NewDefaultLogger creates a timestamped logger writing to w
func NewDefaultLogger(w io.Writer) *DefaultLogger {
	return &DefaultLogger{Logger: log.New(w, "", log.LstdFlags)}
}

// Raytracer drives the integrator over every pixel of the image
type Raytracer struct {
	scene      *scene.Scene
	integrator integrator.Integrator
	camera     *Camera
	width      int // render resolution, including supersampling
	height     int
	logger     core.Logger
	verbose    bool
}

// NewRaytracer creates a raytracer for a preprocessed scene
func NewRaytracer(s *scene.Scene, logger core.Logger) (*Raytracer, error) {
	opts := s.Options
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = core.NopLogger{}
	}

	width, height := opts.Width*opts.Supersample, opts.Height*opts.Supersample
	camera, err := NewCamera(opts, width, height)
	if err != nil {
		return nil, err
	}
	in, err := integrator.New(s)
	if err != nil {
		return nil, err
	}

	return &Raytracer{
		scene:      s,
		integrator: in,
		camera:     camera,
		width:      width,
		height:     height,
		logger:     logger,
	}, nil
}

// SetVerbose enables per-tile progress logging
func (rt *Raytracer) SetVerbose(verbose bool) {
	rt.verbose = verbose
}

// RenderFilm renders the scene at full render resolution into a film
func (rt *Raytracer) RenderFilm(ctx context.Context) (*Film, RenderStats, error) {
	opts := rt.scene.Options
	start := time.Now()

	film := NewFilm(rt.width, rt.height)
	tiles := NewTileBands(rt.width, rt.height, opts.TileHeight)
	tr := NewTileRenderer(rt.camera, rt.integrator, opts.Samples)

	rt.logger.Printf("rendering %dx%d (%s), %d tiles, %d primitives, %d lights\n",
		rt.width, rt.height, opts, len(tiles), rt.scene.GetPrimitiveCount(), len(rt.scene.Lights))

	pool := NewWorkerPool(opts.Workers, len(tiles), opts.Seed, rt.logger)
	defer pool.Stop()

	var mu sync.Mutex
	stats := RenderStats{Workers: pool.GetNumWorkers()}
	for _, tile := range tiles {
		pool.Submit(ctx, tile.ID, func(slot *renderSlot) error {
			tileStats := tr.RenderTileBounds(tile.Bounds, film, slot.Sampler)

			mu.Lock()
			stats.Merge(tileStats)
			done := stats.Tiles
			mu.Unlock()

			if rt.verbose {
				rt.logger.Printf("worker %d: tile %d rows [%d, %d) done (%d/%d)\n",
					slot.ID, tile.ID, tile.Bounds.Min.Y, tile.Bounds.Max.Y, done, len(tiles))
			}
			return nil
		})
	}

	err := pool.Wait()
	stats.Duration = time.Since(start)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, stats, ctxErr
	}
	if err != nil {
		return nil, stats, fmt.Errorf("rendering tiles: %w", err)
	}

	rt.logger.Printf("render complete: %s\n", stats)
	return film, stats, nil
}

// Render renders the scene and returns the gamma-corrected image at the
// output resolution, downscaling supersampled renders
func (rt *Raytracer) Render(ctx context.Context) (*image.RGBA, RenderStats, error) {
	film, stats, err := rt.RenderFilm(ctx)
	if err != nil {
		return nil, stats, err
	}

	opts := rt.scene.Options
	img := film.Image(opts.Gamma)
	if opts.Supersample > 1 {
		img = Downscale(img, opts.Width, opts.Height)
	}
	rt.logger.Printf("image %dx%d, average luminance %.3f\n", opts.Width, opts.Height, CalculateAverageLuminance(img))
	return img, stats, nil
}
