package heatmap

import (
	"bytes"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/contribot/contribot/internal/models"
)

func testGrid(fill int) models.ActivityGrid {
	grid := make(models.ActivityGrid, models.GridWeeks)
	for w := range grid {
		grid[w] = make([]int, models.GridDays)
		for d := range grid[w] {
			grid[w][d] = fill
		}
	}
	return grid
}

func TestDrawCanvasSize(t *testing.T) {
	img := Draw(testGrid(0))
	bounds := img.Bounds()
	if bounds.Dx() != 53*25+5 || bounds.Dy() != 7*25+5 {
		t.Fatalf("canvas is %dx%d, want %dx%d", bounds.Dx(), bounds.Dy(), 53*25+5, 7*25+5)
	}
}

func TestDrawCellColors(t *testing.T) {
	tests := []struct {
		name  string
		count int
		want  color.RGBA
	}{
		{"zero", 0, ramp[0]},
		{"one", 1, ramp[1]},
		{"two", 2, ramp[2]},
		{"three", 3, ramp[3]},
		{"four", 4, ramp[4]},
		{"clamped", 17, ramp[4]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			grid := testGrid(0)
			grid[10][3] = tt.count

			img := Draw(grid)
			// sample the center of cell (10, 3)
			x := padding + 10*(boxSize+padding) + boxSize/2
			y := padding + 3*(boxSize+padding) + boxSize/2
			got := img.RGBAAt(x, y)
			if got != tt.want {
				t.Fatalf("cell color = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDrawPaddingIsWhite(t *testing.T) {
	img := Draw(testGrid(4))
	got := img.RGBAAt(0, 0)
	want := color.RGBA{0xff, 0xff, 0xff, 0xff}
	if got != want {
		t.Fatalf("padding pixel = %v, want white", got)
	}
}

// A confirmed all-zero grid and an absent (fetch failed) grid must render
// byte-identically. This is intentional current behavior: pixels alone
// cannot distinguish the two cases.
func TestRenderEmptyAndMissingIdentical(t *testing.T) {
	r, err := NewRenderer(t.TempDir(), time.Hour)
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}

	zero, err := r.Render("alice", testGrid(0))
	if err != nil {
		t.Fatalf("render zero grid: %v", err)
	}
	missing, err := r.Render("alice", nil)
	if err != nil {
		t.Fatalf("render nil grid: %v", err)
	}

	zeroBytes, err := os.ReadFile(zero.Path)
	if err != nil {
		t.Fatalf("read zero image: %v", err)
	}
	missingBytes, err := os.ReadFile(missing.Path)
	if err != nil {
		t.Fatalf("read missing image: %v", err)
	}
	if !bytes.Equal(zeroBytes, missingBytes) {
		t.Fatal("all-zero and missing grids rendered differently")
	}

	if !zero.Empty || !missing.Empty {
		t.Fatal("both artifacts should be marked empty")
	}
	for _, img := range []*models.RenderedImage{zero, missing} {
		if !strings.Contains(filepath.Base(img.Path), "_empty") {
			t.Fatalf("empty artifact %q lacks the filename marker", img.Path)
		}
	}
}

func TestRenderUniqueFilenames(t *testing.T) {
	r, err := NewRenderer(t.TempDir(), time.Hour)
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}

	grid := testGrid(1)
	seen := make(map[string]bool)
	for i := 0; i < 5; i++ {
		img, err := r.Render("bob", grid)
		if err != nil {
			t.Fatalf("render %d: %v", i, err)
		}
		if seen[img.Path] {
			t.Fatalf("duplicate artifact path %q", img.Path)
		}
		seen[img.Path] = true
		if img.Empty {
			t.Fatal("non-empty grid marked empty")
		}
		if !img.ExpiresAt.Equal(img.CreatedAt.Add(time.Hour)) {
			t.Fatalf("expiry %v not one retention window after creation %v", img.ExpiresAt, img.CreatedAt)
		}
	}
}

func TestSweeperRemovesExpired(t *testing.T) {
	dir := t.TempDir()

	expired := filepath.Join(dir, "old.png")
	fresh := filepath.Join(dir, "new.png")
	other := filepath.Join(dir, "notes.txt")
	for _, p := range []string{expired, fresh, other} {
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			t.Fatalf("write %s: %v", p, err)
		}
	}
	past := time.Now().Add(-2 * time.Hour)
	if err := os.Chtimes(expired, past, past); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
	if err := os.Chtimes(other, past, past); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	s := NewSweeper(dir, time.Hour, zap.NewNop())
	if removed := s.Sweep(); removed != 1 {
		t.Fatalf("removed %d files, want 1", removed)
	}

	if _, err := os.Stat(expired); !os.IsNotExist(err) {
		t.Fatal("expired image still present")
	}
	if _, err := os.Stat(fresh); err != nil {
		t.Fatal("fresh image was removed")
	}
	if _, err := os.Stat(other); err != nil {
		t.Fatal("non-png file was removed")
	}
}
