package models

import "time"

// GridWeeks and GridDays describe the contribution calendar shape: one year
// of activity as reported by GitHub, week-major.
const (
	GridWeeks = 53
	GridDays  = 7
)

// ActivityGrid holds daily contribution counts, indexed [week][day].
// It is fetched fresh every monitor cycle and never persisted.
type ActivityGrid [][]int

// IsEmpty reports whether the grid carries no activity at all. A nil grid
// (fetch failed) and an all-zero grid (confirmed no activity) are both
// empty; callers cannot tell them apart here.
func (g ActivityGrid) IsEmpty() bool {
	for _, week := range g {
		for _, count := range week {
			if count > 0 {
				return false
			}
		}
	}
	return true
}

// RenderedImage is a heatmap artifact on disk. The file is owned by the
// filesystem after delivery and removed by the expiry sweep once ExpiresAt
// has passed.
type RenderedImage struct {
	Path      string
	CreatedAt time.Time
	ExpiresAt time.Time
	Empty     bool
}
