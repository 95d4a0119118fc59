package heatmap

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/contribot/contribot/internal/models"
)

const (
	boxSize = 20
	padding = 5

	// Canvas dimensions derive from the 53x7 calendar layout.
	Width  = models.GridWeeks*(boxSize+padding) + padding
	Height = models.GridDays*(boxSize+padding) + padding
)

// ramp is the 5-bucket color scale, lightest (no activity) to darkest.
var ramp = [5]color.RGBA{
	{0xeb, 0xed, 0xf0, 0xff},
	{0xc6, 0xe4, 0x8b, 0xff},
	{0x7b, 0xc9, 0x6f, 0xff},
	{0x23, 0x9a, 0x3b, 0xff},
	{0x19, 0x61, 0x27, 0xff},
}

// Renderer turns activity grids into PNG heatmaps under dir. Files expire
// after retention and are removed by the Sweeper.
type Renderer struct {
	dir       string
	retention time.Duration
	now       func() time.Time
}

func NewRenderer(dir string, retention time.Duration) (*Renderer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create image directory: %v", err)
	}
	return &Renderer{
		dir:       dir,
		retention: retention,
		now:       time.Now,
	}, nil
}

// Draw rasterizes the grid. Missing weeks and days render in the lightest
// bucket, so a nil grid yields the same pixels as an all-zero one.
func Draw(grid models.ActivityGrid) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, Width, Height))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	for week := 0; week < models.GridWeeks; week++ {
		for day := 0; day < models.GridDays; day++ {
			count := 0
			if week < len(grid) && day < len(grid[week]) {
				count = grid[week][day]
			}
			bucket := count
			if bucket > len(ramp)-1 {
				bucket = len(ramp) - 1
			}
			x := padding + week*(boxSize+padding)
			y := padding + day*(boxSize+padding)
			cell := image.Rect(x, y, x+boxSize, y+boxSize)
			draw.Draw(img, cell, image.NewUniform(ramp[bucket]), image.Point{}, draw.Src)
		}
	}
	return img
}

// Render draws the grid and writes it as a PNG. The filename embeds the
// username, a timestamp and a random suffix so concurrent renders never
// collide; empty grids get an extra marker since their pixels alone cannot
// be told apart from a failed fetch.
func (r *Renderer) Render(username string, grid models.ActivityGrid) (*models.RenderedImage, error) {
	img := Draw(grid)

	now := r.now()
	empty := grid.IsEmpty()
	name := fmt.Sprintf("%s_%d_%s", username, now.Unix(), uuid.NewString()[:8])
	if empty {
		name += "_empty"
	}
	path := filepath.Join(r.dir, name+".png")

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create image file: %v", err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		os.Remove(path)
		return nil, fmt.Errorf("failed to encode image: %v", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close image file: %v", err)
	}

	return &models.RenderedImage{
		Path:      path,
		CreatedAt: now,
		ExpiresAt: now.Add(r.retention),
		Empty:     empty,
	}, nil
}
