package models

import "time"

// User is an identity record. Emails are stored lowercased and compared
// case-insensitively; uniqueness is enforced by the database, not in code.
type User struct {
	ID           int64
	Email        string
	PasswordHash string
	FullName     string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	LastLogin    *time.Time // nil until the first successful login
}
