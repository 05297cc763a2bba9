package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/TerexitariusStomp/BrazilCommunityCurrency/internal/models"
)

// SessionRepository — durable sessionId → conversation state mapping.
// Get must treat expired rows as absent; Put refreshes the TTL on every write.
type SessionRepository interface {
	Get(sessionID string) (*models.Session, error)
	Put(session *models.Session, ttl time.Duration) error
	Delete(sessionID string) error
}

type sessionRepository struct {
	DB *sql.DB
}

func NewSessionRepository(db *sql.DB) SessionRepository {
	return &sessionRepository{DB: db}
}

// Get — nil for absent OR expired sessions (expiry is an invariant, not an error).
func (r *sessionRepository) Get(sessionID string) (*models.Session, error) {
	const q = `
		SELECT session_id, phone, state, COALESCE(recipient,''), COALESCE(auth_token,''), created_at
		FROM sessions
		WHERE session_id = $1 AND expires_at > NOW()
	`
	row := r.DB.QueryRow(q, sessionID)

	var s models.Session
	if err := row.Scan(&s.SessionID, &s.PhoneNumber, &s.State, &s.Recipient, &s.AuthToken, &s.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	return &s, nil
}

// Put — upsert; every write pushes expires_at forward by ttl.
func (r *sessionRepository) Put(s *models.Session, ttl time.Duration) error {
	const q = `
		INSERT INTO sessions (session_id, phone, state, recipient, auth_token, created_at, updated_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW() + $7 * INTERVAL '1 second')
		ON CONFLICT (session_id) DO UPDATE SET
			phone      = EXCLUDED.phone,
			state      = EXCLUDED.state,
			recipient  = EXCLUDED.recipient,
			auth_token = EXCLUDED.auth_token,
			updated_at = NOW(),
			expires_at = NOW() + $7 * INTERVAL '1 second'
	`
	if _, err := r.DB.Exec(q,
		s.SessionID, s.PhoneNumber, s.State, s.Recipient, s.AuthToken, s.CreatedAt, int64(ttl.Seconds()),
	); err != nil {
		return fmt.Errorf("put session: %w", err)
	}
	return nil
}

func (r *sessionRepository) Delete(sessionID string) error {
	if _, err := r.DB.Exec(`DELETE FROM sessions WHERE session_id = $1`, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
