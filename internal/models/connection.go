package models

import "time"

const (
	ConnectionPending   = "pending"
	ConnectionConnected = "connected"
)

// Connection — bank-connect lifecycle for one token. At most one per
// tokenAddress; ItemID is immutable once set.
type Connection struct {
	TokenAddress string    `json:"token_address"`
	Status       string    `json:"status"`
	ConnectToken string    `json:"-"`
	ConnectURL   string    `json:"connect_url"`
	ExpiresAt    time.Time `json:"expires_at"`
	AccountID    string    `json:"account_id,omitempty"`
	ItemID       string    `json:"item_id,omitempty"`
}
