package postgres

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/lib/pq"

	"github.com/contribot/contribot/internal/models"
)

type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

func New(dbURL string) (*Store, error) {
	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %v", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %v", err)
	}

	if err := initDatabase(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database: %v", err)
	}

	return &Store{
		db: db,
	}, nil
}

func initDatabase(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS users (
			chat_id BIGINT PRIMARY KEY,
			telegram_username TEXT NOT NULL DEFAULT '',
			github_username TEXT NOT NULL,
			github_token TEXT NOT NULL,
			last_notified_at TIMESTAMP WITH TIME ZONE
		)`,
		`CREATE TABLE IF NOT EXISTS notifications (
			id SERIAL PRIMARY KEY,
			category TEXT NOT NULL,
			message TEXT NOT NULL,
			rating INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_notifications_category
			ON notifications(category)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query %q: %v", query, err)
		}
	}

	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) UpsertUser(chatID int64, telegramUsername, githubUsername, githubToken string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO users (chat_id, telegram_username, github_username, github_token)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (chat_id) DO UPDATE SET
			telegram_username = EXCLUDED.telegram_username,
			github_username = EXCLUDED.github_username,
			github_token = EXCLUDED.github_token
	`
	if _, err := s.db.Exec(query, chatID, telegramUsername, githubUsername, githubToken); err != nil {
		return fmt.Errorf("failed to upsert user: %v", err)
	}
	return nil
}

func (s *Store) GetUser(chatID int64) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var u models.User
	var lastNotified sql.NullTime
	err := s.db.QueryRow(`
		SELECT chat_id, telegram_username, github_username, github_token, last_notified_at
		FROM users WHERE chat_id = $1`, chatID,
	).Scan(&u.ChatID, &u.TelegramUsername, &u.GithubUsername, &u.GithubToken, &lastNotified)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %v", err)
	}
	if lastNotified.Valid {
		t := lastNotified.Time.UTC()
		u.LastNotifiedAt = &t
	}
	return &u, nil
}

func (s *Store) ListUsers() ([]*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT chat_id, telegram_username, github_username, github_token, last_notified_at
		FROM users`)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %v", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		var u models.User
		var lastNotified sql.NullTime
		if err := rows.Scan(&u.ChatID, &u.TelegramUsername, &u.GithubUsername, &u.GithubToken, &lastNotified); err != nil {
			return nil, fmt.Errorf("failed to scan user row: %v", err)
		}
		if lastNotified.Valid {
			t := lastNotified.Time.UTC()
			u.LastNotifiedAt = &t
		}
		users = append(users, &u)
	}
	return users, rows.Err()
}

func (s *Store) TouchLastNotified(chatID int64, t time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec(`UPDATE users SET last_notified_at = $1 WHERE chat_id = $2`, t, chatID); err != nil {
		return fmt.Errorf("failed to update last notified time: %v", err)
	}
	return nil
}

func (s *Store) InsertTemplate(category, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec(`INSERT INTO notifications (category, message) VALUES ($1, $2)`, category, message); err != nil {
		return fmt.Errorf("failed to insert template: %v", err)
	}
	return nil
}

func (s *Store) RandomTemplate(category string) (*models.Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var t models.Template
	err := s.db.QueryRow(`
		SELECT id, category, message, rating FROM notifications
		WHERE category = $1 ORDER BY RANDOM() LIMIT 1`, category,
	).Scan(&t.ID, &t.Category, &t.Message, &t.Rating)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to pick template: %v", err)
	}
	return &t, nil
}

func (s *Store) CountTemplates(category string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM notifications WHERE category = $1`, category).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count templates: %v", err)
	}
	return count, nil
}

func (s *Store) AdjustRating(id int64, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec(`UPDATE notifications SET rating = rating + $1 WHERE id = $2`, delta, id); err != nil {
		return fmt.Errorf("failed to adjust rating: %v", err)
	}
	return nil
}

func (s *Store) PruneLowestRated(fraction float64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var total int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM notifications`).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count templates: %v", err)
	}

	limit := int(float64(total) * fraction)
	if limit <= 0 {
		return 0, nil
	}

	result, err := s.db.Exec(`
		DELETE FROM notifications WHERE id IN (
			SELECT id FROM notifications ORDER BY rating ASC LIMIT $1
		)`, limit)
	if err != nil {
		return 0, fmt.Errorf("failed to prune templates: %v", err)
	}
	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %v", err)
	}
	return int(removed), nil
}
