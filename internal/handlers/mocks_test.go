package handlers

import (
	"sync"
	"time"

	"github.com/TerexitariusStomp/BrazilCommunityCurrency/internal/models"
)

// In-memory repository stand-ins for the HTTP tests in this package.

type memSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]*models.Session
	getErr   error
}

func newMemSessionRepo() *memSessionRepo {
	return &memSessionRepo{sessions: make(map[string]*models.Session)}
}

func (r *memSessionRepo) Get(sessionID string) (*models.Session, error) {
	if r.getErr != nil {
		return nil, r.getErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[sessionID]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (r *memSessionRepo) Put(s *models.Session, _ time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *s
	r.sessions[s.SessionID] = &cp
	return nil
}

func (r *memSessionRepo) Delete(sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, sessionID)
	return nil
}

type memWalletRepo struct {
	mu      sync.Mutex
	byPhone map[string]*models.Wallet
}

func newMemWalletRepo() *memWalletRepo {
	return &memWalletRepo{byPhone: make(map[string]*models.Wallet)}
}

func (r *memWalletRepo) CreateIfAbsent(w *models.Wallet) (*models.Wallet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.byPhone[w.Phone]; ok {
		cp := *existing
		return &cp, nil
	}
	cp := *w
	cp.CreatedAt = time.Now()
	r.byPhone[w.Phone] = &cp
	out := cp
	return &out, nil
}

func (r *memWalletRepo) GetByPhone(phone string) (*models.Wallet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.byPhone[phone]
	if !ok {
		return nil, nil
	}
	cp := *w
	return &cp, nil
}

func (r *memWalletRepo) GetByUserID(userID string) (*models.Wallet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, w := range r.byPhone {
		if w.UserID == userID {
			cp := *w
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memWalletRepo) Count() (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byPhone), nil
}

type memTokenRepo struct {
	mu     sync.Mutex
	nextID int64
	rows   []*models.AuthToken
}

func newMemTokenRepo() *memTokenRepo { return &memTokenRepo{} }

func (r *memTokenRepo) Create(phone, tokenHash string, sentAt, expiresAt time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	r.rows = append(r.rows, &models.AuthToken{
		ID:          r.nextID,
		PhoneNumber: phone,
		TokenHash:   tokenHash,
		SentAt:      sentAt,
		ExpiresAt:   expiresAt,
	})
	return r.nextID, nil
}

func (r *memTokenRepo) GetLatestByPhone(phone string) (*models.AuthToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var latest *models.AuthToken
	for _, row := range r.rows {
		if row.PhoneNumber != phone {
			continue
		}
		if latest == nil || row.ID > latest.ID {
			latest = row
		}
	}
	if latest == nil {
		return nil, nil
	}
	cp := *latest
	return &cp, nil
}

func (r *memTokenRepo) Consume(id int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if row.ID != id {
			continue
		}
		if row.UsedAt != nil || time.Now().After(row.ExpiresAt) {
			return false, nil
		}
		now := time.Now()
		row.UsedAt = &now
		return true, nil
	}
	return false, nil
}

func (r *memTokenRepo) CountRecentSends(phone string, since time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, row := range r.rows {
		if row.PhoneNumber == phone && !row.SentAt.Before(since) {
			count++
		}
	}
	return count, nil
}

type nullSender struct{}

func (nullSender) Configured() bool           { return true }
func (nullSender) SendText(_, _ string) error { return nil }
