package repositories

import (
	"fmt"
	"sync"

	"github.com/TerexitariusStomp/BrazilCommunityCurrency/internal/models"
)

// ConnectionRegistry — tokenAddress → bank-connect lifecycle state.
// Constructed once per process and passed to collaborators (no globals).
type ConnectionRegistry interface {
	Put(conn *models.Connection) error
	Get(tokenAddress string) (*models.Connection, bool)
	// FindByConnectToken matches the pending connection created for a
	// connect session (the webhook reports its token as itemId).
	FindByConnectToken(connectToken string) (*models.Connection, bool)
	FindByItemID(itemID string) (*models.Connection, bool)
	Connected() []*models.Connection
	Len() int
}

type connectionRegistry struct {
	mu    sync.RWMutex
	conns map[string]*models.Connection
}

func NewConnectionRegistry() ConnectionRegistry {
	return &connectionRegistry{conns: make(map[string]*models.Connection)}
}

// Put — upsert keyed by tokenAddress. ItemID is write-once: a second Put
// carrying a different itemId for the same token is rejected.
func (r *connectionRegistry) Put(conn *models.Connection) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.conns[conn.TokenAddress]; ok {
		if existing.ItemID != "" && conn.ItemID != "" && existing.ItemID != conn.ItemID {
			return fmt.Errorf("connection %s: itemId already set", conn.TokenAddress)
		}
		if conn.ItemID == "" {
			conn.ItemID = existing.ItemID
		}
	}
	cp := *conn
	r.conns[conn.TokenAddress] = &cp
	return nil
}

func (r *connectionRegistry) Get(tokenAddress string) (*models.Connection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.conns[tokenAddress]
	if !ok {
		return nil, false
	}
	cp := *c
	return &cp, true
}

func (r *connectionRegistry) FindByConnectToken(connectToken string) (*models.Connection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.conns {
		if c.ConnectToken == connectToken {
			cp := *c
			return &cp, true
		}
	}
	return nil, false
}

func (r *connectionRegistry) FindByItemID(itemID string) (*models.Connection, bool) {
	if itemID == "" {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.conns {
		if c.ItemID == itemID {
			cp := *c
			return &cp, true
		}
	}
	return nil, false
}

// Connected — snapshot for the polling pass.
func (r *connectionRegistry) Connected() []*models.Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*models.Connection
	for _, c := range r.conns {
		if c.Status == models.ConnectionConnected {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out
}

func (r *connectionRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
