package models

import "time"

// User is one monitored chat. GithubUsername and GithubToken are always
// written together; a row never exists with only one of them.
type User struct {
	ChatID           int64      `json:"chat_id"`
	TelegramUsername string     `json:"telegram_username"`
	GithubUsername   string     `json:"github_username"`
	GithubToken      string     `json:"github_token"`
	LastNotifiedAt   *time.Time `json:"last_notified_at,omitempty"`
}
