package models

import "time"

// Rate-limited action names. The limiter treats anything else as a
// programming error.
const (
	ActionLogin  = "login"
	ActionSignup = "signup"
)

// AttemptRecord is evidence of one signup/login attempt from an IP, used for
// sliding-window rate limiting. AttemptTime is assigned by the store.
type AttemptRecord struct {
	ID             int64
	IPAddress      string
	Action         string
	AttemptedEmail *string
	AttemptTime    time.Time
}
