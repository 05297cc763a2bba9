package models

import "time"

// Conversation states. Unknown values stored by older builds are
// recovered as MENU by the engine, never treated as fatal.
const (
	StateMenu              = "MENU"
	StateAwaitingInput     = "AWAITING_INPUT"
	StateAwaitingRecipient = "AWAITING_RECIPIENT"
	StateAwaitingAmount    = "AWAITING_AMOUNT"
	StateAwaitingAuth      = "AWAITING_AUTH"
)

// Session — one live conversation per sessionId, persisted with a TTL.
// Absent or expired rows are recreated as a fresh MENU session.
type Session struct {
	SessionID   string    `json:"session_id"`
	PhoneNumber string    `json:"phone_number"` // E.164 canonical
	State       string    `json:"state"`
	Recipient   string    `json:"recipient,omitempty"`
	AuthToken   string    `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
}
