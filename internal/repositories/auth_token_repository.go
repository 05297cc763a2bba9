package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/TerexitariusStomp/BrazilCommunityCurrency/internal/models"
)

type AuthTokenRepository interface {
	Create(phone, tokenHash string, sentAt, expiresAt time.Time) (int64, error)
	GetLatestByPhone(phone string) (*models.AuthToken, error)
	// Consume marks the row used iff it is still unused and unexpired.
	// Returns false when another caller got there first (or TTL passed).
	Consume(id int64) (bool, error)
	CountRecentSends(phone string, since time.Time) (int, error)
}

type authTokenRepository struct {
	DB *sql.DB
}

func NewAuthTokenRepository(db *sql.DB) AuthTokenRepository {
	return &authTokenRepository{DB: db}
}

// Create — every issue is a new row (append-only, hash only).
func (r *authTokenRepository) Create(phone, tokenHash string, sentAt, expiresAt time.Time) (int64, error) {
	const q = `
		INSERT INTO auth_tokens (phone, token_hash, sent_at, expires_at, used_at)
		VALUES ($1, $2, $3, $4, NULL)
		RETURNING id
	`
	var id int64
	if err := r.DB.QueryRow(q, phone, tokenHash, sentAt, expiresAt).Scan(&id); err != nil {
		return 0, fmt.Errorf("auth_token create: %w", err)
	}
	return id, nil
}

func (r *authTokenRepository) GetLatestByPhone(phone string) (*models.AuthToken, error) {
	const q = `
		SELECT id, phone, token_hash, sent_at, expires_at, used_at
		FROM auth_tokens
		WHERE phone = $1
		ORDER BY sent_at DESC
		LIMIT 1
	`
	row := r.DB.QueryRow(q, phone)

	var t models.AuthToken
	if err := row.Scan(&t.ID, &t.PhoneNumber, &t.TokenHash, &t.SentAt, &t.ExpiresAt, &t.UsedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("auth_token latest: %w", err)
	}
	return &t, nil
}

// Consume — single UPDATE so the not-used + not-expired check and the
// used_at stamp happen in one statement. Re-use after consumption fails here.
func (r *authTokenRepository) Consume(id int64) (bool, error) {
	const q = `
		UPDATE auth_tokens
		SET used_at = NOW()
		WHERE id = $1 AND used_at IS NULL AND expires_at > NOW()
		RETURNING id
	`
	var got int64
	if err := r.DB.QueryRow(q, id).Scan(&got); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("auth_token consume: %w", err)
	}
	return true, nil
}

// CountRecentSends — throttling window (max sends per phone per window).
func (r *authTokenRepository) CountRecentSends(phone string, since time.Time) (int, error) {
	const q = `
		SELECT COUNT(*)
		FROM auth_tokens
		WHERE phone = $1 AND sent_at >= $2
	`
	var c int
	if err := r.DB.QueryRow(q, phone, since).Scan(&c); err != nil {
		return 0, fmt.Errorf("auth_token count recent: %w", err)
	}
	return c, nil
}
