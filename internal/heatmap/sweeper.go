package heatmap

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Sweeper removes rendered heatmaps once their retention window has
// elapsed. Delivered files have no in-memory owner, the filesystem is the
// source of truth.
type Sweeper struct {
	dir       string
	retention time.Duration
	log       *zap.Logger
	now       func() time.Time
}

func NewSweeper(dir string, retention time.Duration, log *zap.Logger) *Sweeper {
	return &Sweeper{
		dir:       dir,
		retention: retention,
		log:       log,
		now:       time.Now,
	}
}

// Sweep deletes every expired PNG in the artifact directory and returns
// how many files were removed.
func (s *Sweeper) Sweep() int {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		s.log.Warn("failed to read image directory", zap.String("dir", s.dir), zap.Error(err))
		return 0
	}

	deadline := s.now().Add(-s.retention)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".png") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(deadline) {
			continue
		}
		path := filepath.Join(s.dir, entry.Name())
		if err := os.Remove(path); err != nil {
			s.log.Warn("failed to remove expired image", zap.String("path", path), zap.Error(err))
			continue
		}
		removed++
	}
	if removed > 0 {
		s.log.Info("removed expired images", zap.Int("count", removed))
	}
	return removed
}
