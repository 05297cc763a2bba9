package models

// EventType — closed set of aggregator webhook events we act on.
// Anything else is logged and ignored (forward compatible).
type EventType string

const (
	EventConnectionSuccess EventType = "CONNECTION_SUCCESS"
	EventAccountsUpdated   EventType = "ACCOUNTS_UPDATED"
)

// WebhookEvent — inbound aggregator event payload.
type WebhookEvent struct {
	Type   EventType `json:"type"`
	ItemID string    `json:"itemId"`
}

// BankAccount — the slice of aggregator account data the oracle sync needs.
type BankAccount struct {
	ID      string  `json:"id"`
	Balance float64 `json:"balance"`
}
