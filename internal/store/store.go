package store

import (
	"time"

	"github.com/contribot/contribot/internal/models"
)

// Store persists monitored users and reusable notification templates.
// Implementations must be safe for concurrent use by many monitor
// goroutines plus the pruning job; every operation touches a single row or
// performs one small scan, no cross-operation transactions.
type Store interface {
	Close() error

	// UpsertUser inserts or replaces the credentials for a chat.
	// Last write wins on concurrent upserts for the same chat.
	UpsertUser(chatID int64, telegramUsername, githubUsername, githubToken string) error
	// GetUser returns nil, nil when the chat has no stored credentials.
	GetUser(chatID int64) (*models.User, error)
	ListUsers() ([]*models.User, error)
	TouchLastNotified(chatID int64, t time.Time) error

	InsertTemplate(category, message string) error
	// RandomTemplate returns nil, nil when the category has no templates.
	RandomTemplate(category string) (*models.Template, error)
	CountTemplates(category string) (int, error)
	AdjustRating(id int64, delta int) error
	// PruneLowestRated deletes the floor(N*fraction) lowest-rated
	// templates and reports how many rows were removed. Ties at the
	// boundary are broken arbitrarily.
	PruneLowestRated(fraction float64) (int, error)
}
