package models

import "time"

// RefreshToken is a persisted opaque credential. A token is valid only while
// a row exists and expires_at is in the future; expiry is checked in the
// store query, never cached. Tokens are immutable once issued.
type RefreshToken struct {
	ID        int64
	UserID    int64
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time

	// Populated by GetByToken's join with the owning user.
	UserEmail    string
	UserFullName string
}
