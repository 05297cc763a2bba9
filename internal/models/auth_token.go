package models

import "time"

// AuthToken — one row per issued token (append-only, bcrypt hash stored).
// Single use: UsedAt is set atomically on the first successful verify.
type AuthToken struct {
	ID          int64      `json:"id"`
	PhoneNumber string     `json:"phone_number"`
	TokenHash   string     `json:"-"`
	SentAt      time.Time  `json:"sent_at"`
	ExpiresAt   time.Time  `json:"expires_at"`
	UsedAt      *time.Time `json:"used_at,omitempty"`
}
