package models

// Escalation categories for notification templates.
const (
	CategoryGentle = "gentle"
	CategoryMedium = "medium"
	CategoryHarsh  = "harsh"
)

// Categories lists every known template category, mildest first.
var Categories = []string{CategoryGentle, CategoryMedium, CategoryHarsh}

// Template is a cached notification message with a user-adjusted rating.
// Ratings start at zero and may go negative; low-rated templates are
// periodically pruned.
type Template struct {
	ID       int64  `json:"id"`
	Category string `json:"category"`
	Message  string `json:"message"`
	Rating   int    `json:"rating"`
}
