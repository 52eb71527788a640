package renderer

import (
	"image"

	"github.com/df07/go-lightpath/pkg/core"
	"github.com/df07/go-lightpath/pkg/integrator"
)

// Tile represents a horizontal band of rows [Bounds.Min.Y, Bounds.Max.Y)
type Tile struct {
	ID     int
	Bounds image.Rectangle
}

// NewTileBands splits an image into bands of tileHeight rows covering the full width
func NewTileBands(width, height, tileHeight int) []*Tile {
	if tileHeight <= 0 {
		tileHeight = height
	}
	var tiles []*Tile
	for y0, id := 0, 0; y0 < height; y0, id = y0+tileHeight, id+1 {
		y1 := min(y0+tileHeight, height)
		tiles = append(tiles, &Tile{ID: id, Bounds: image.Rect(0, y0, width, y1)})
	}
	return tiles
}

// TileRenderer renders individual tiles using an integrator
type TileRenderer struct {
	camera     *Camera
	integrator integrator.Integrator
	samples    int
}

// NewTileRenderer creates a tile renderer taking samples rays per pixel
func NewTileRenderer(camera *Camera, in integrator.Integrator, samples int) *TileRenderer {
	return &TileRenderer{camera: camera, integrator: in, samples: max(1, samples)}
}

// RenderTileBounds renders every pixel inside bounds into the film. Pixel
// value is the mean radiance over all samples.
func (tr *TileRenderer) RenderTileBounds(bounds image.Rectangle, film *Film, sampler core.Sampler) RenderStats {
	stats := RenderStats{Tiles: 1}

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			var ps PixelStats
			for s := 0; s < tr.samples; s++ {
				ray := tr.camera.GetRay(x, y, sampler)
				ps.AddSample(tr.integrator.Radiance(ray, sampler, 0))
			}
			film.Set(x, y, ps.GetColor())

			stats.TotalPixels++
			stats.TotalSamples += ps.SampleCount
		}
	}

	stats.finalize()
	return stats
}
