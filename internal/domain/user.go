package domain

import (
	"database/sql"
	"time"
)

// User is a Slack workspace member who completed the OAuth flow.
// SlackUserID is the public owner reference used by the HTTP API; ID is the
// internal key scheduled messages point at.
type User struct {
	ID           int64
	SlackUserID  string
	TeamID       string
	AccessToken  string
	RefreshToken sql.NullString
	ExpiresAt    sql.NullTime
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TokenExpired reports whether the stored access token has an expiry in the
// past. Tokens without an expiry never expire.
func (u *User) TokenExpired(now time.Time) bool {
	return u.ExpiresAt.Valid && u.ExpiresAt.Time.Before(now)
}
