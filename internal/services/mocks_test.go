package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/TerexitariusStomp/BrazilCommunityCurrency/internal/models"
)

// In-memory stand-ins for the repositories and external collaborators,
// shared by the service tests in this package.

type memSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]*models.Session
	getErr   error
	putErr   error
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
	if r.putErr != nil {
		return r.putErr
	}
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
	err     error
}

func newMemWalletRepo() *memWalletRepo {
	return &memWalletRepo{byPhone: make(map[string]*models.Wallet)}
}

func (r *memWalletRepo) CreateIfAbsent(w *models.Wallet) (*models.Wallet, error) {
	if r.err != nil {
		return nil, r.err
	}
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
	if r.err != nil {
		return nil, r.err
	}
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
		if latest == nil || row.SentAt.After(latest.SentAt) || row.ID > latest.ID {
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

type recordingSender struct {
	mu    sync.Mutex
	texts []string
	err   error
}

func (s *recordingSender) Configured() bool { return true }

func (s *recordingSender) SendText(to, body string) error {
	if s.err != nil {
		return s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.texts = append(s.texts, to+": "+body)
	return nil
}

type fakeAggregator struct {
	mu         sync.Mutex
	configured bool
	accounts   map[string][]models.BankAccount
	sessionSeq int
	createErr  error
	listErr    error
	listCalls  int
}

func newFakeAggregator() *fakeAggregator {
	return &fakeAggregator{configured: true, accounts: make(map[string][]models.BankAccount)}
}

func (a *fakeAggregator) Configured() bool { return a.configured }

func (a *fakeAggregator) CreateConnectSession(_ string) (*ConnectSession, error) {
	if a.createErr != nil {
		return nil, a.createErr
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.sessionSeq++
	token := fmt.Sprintf("connect-token-%d", a.sessionSeq)
	return &ConnectSession{
		ConnectToken: token,
		ConnectURL:   "https://connect.example/?connect_token=" + token,
		ExpiresAt:    time.Now().Add(30 * time.Minute),
	}, nil
}

func (a *fakeAggregator) ListAccounts(itemID string) ([]models.BankAccount, error) {
	if a.listErr != nil {
		return nil, a.listErr
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.listCalls++
	return a.accounts[itemID], nil
}

type fakeOracle struct {
	mu          sync.Mutex
	linked      map[string]string
	balances    map[string]int64
	linkCalls   int
	updateCalls int
	linkErr     error
	updateErr   error
}

func newFakeOracle() *fakeOracle {
	return &fakeOracle{linked: make(map[string]string), balances: make(map[string]int64)}
}

func (o *fakeOracle) LinkAccount(_ context.Context, tokenAddress, accountID string) error {
	if o.linkErr != nil {
		return o.linkErr
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.linkCalls++
	o.linked[tokenAddress] = accountID
	return nil
}

func (o *fakeOracle) UpdateBalance(_ context.Context, tokenAddress, _ string, centavos int64) error {
	if o.updateErr != nil {
		return o.updateErr
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.updateCalls++
	o.balances[tokenAddress] = centavos
	return nil
}

func (o *fakeOracle) balance(tokenAddress string) int64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.balances[tokenAddress]
}

type fakeFactory struct {
	receipt *TxReceipt
	err     error
	calls   int
}

func (f *fakeFactory) DeployToken(_ context.Context, _ models.DeployParams) (*TxReceipt, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.receipt, nil
}
