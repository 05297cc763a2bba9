package models

import "time"

// Wallet — exactly one per phone number, created on successful registration.
type Wallet struct {
	UserID    string    `json:"user_id"`
	Address   string    `json:"address"`
	Phone     string    `json:"phone"`
	CreatedAt time.Time `json:"created_at"`
}
