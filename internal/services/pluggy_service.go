package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/TerexitariusStomp/BrazilCommunityCurrency/internal/errs"
	"github.com/TerexitariusStomp/BrazilCommunityCurrency/internal/models"
)

// ConnectSession — what the aggregator hands back when a connect flow starts.
type ConnectSession struct {
	ConnectToken string
	ConnectURL   string
	ExpiresAt    time.Time
}

// BankAggregator — the slice of the aggregator API this system consumes.
type BankAggregator interface {
	Configured() bool
	CreateConnectSession(redirectURI string) (*ConnectSession, error)
	ListAccounts(itemID string) ([]models.BankAccount, error)
}

// PluggyService — hand-rolled client for the Pluggy open-finance API.
// Sandbox mode issues synthetic connect sessions without hitting the network.
type PluggyService struct {
	clientID     string
	clientSecret string
	baseURL      string
	connectURL   string
	sandbox      bool
	client       *http.Client

	mu        sync.Mutex
	apiKey    string
	apiKeyExp time.Time
}

func NewPluggyService(clientID, clientSecret string, sandbox bool) *PluggyService {
	return &PluggyService{
		clientID:     clientID,
		clientSecret: clientSecret,
		baseURL:      "https://api.pluggy.ai",
		connectURL:   "https://connect.pluggy.ai",
		sandbox:      sandbox,
		client:       &http.Client{Timeout: 30 * time.Second},
	}
}

func (p *PluggyService) Configured() bool {
	return p != nil && (p.sandbox || (p.clientID != "" && p.clientSecret != ""))
}

// auth — api keys are short lived, cache until close to expiry.
func (p *PluggyService) auth() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.apiKey != "" && time.Now().Before(p.apiKeyExp) {
		return p.apiKey, nil
	}

	body, _ := json.Marshal(map[string]string{
		"clientId":     p.clientID,
		"clientSecret": p.clientSecret,
	})
	resp, err := p.client.Post(p.baseURL+"/auth", "application/json", bytes.NewReader(body))
	if err != nil {
		return "", errs.Transient("pluggy auth", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		log.Printf("[pluggy][auth][err] status=%d body=%s", resp.StatusCode, string(respBody))
		return "", errs.Transient("pluggy auth", fmt.Errorf("status %d", resp.StatusCode))
	}

	var out struct {
		APIKey string `json:"apiKey"`
	}
	if err := json.Unmarshal(respBody, &out); err != nil || out.APIKey == "" {
		return "", errs.Protocol("pluggy auth: malformed response")
	}

	p.apiKey = out.APIKey
	p.apiKeyExp = time.Now().Add(90 * time.Minute)
	return p.apiKey, nil
}

// CreateConnectSession — opens a connect widget session; the token comes back
// to us later as the webhook itemId.
func (p *PluggyService) CreateConnectSession(redirectURI string) (*ConnectSession, error) {
	if !p.Configured() {
		return nil, errs.Configuration("pluggy")
	}

	if p.sandbox {
		token := uuid.NewString()
		sess := &ConnectSession{
			ConnectToken: token,
			ConnectURL:   p.connectURL + "?connect_token=" + token,
			ExpiresAt:    time.Now().Add(30 * time.Minute),
		}
		log.Printf("[pluggy][connect][sandbox] token=%s", token)
		return sess, nil
	}

	apiKey, err := p.auth()
	if err != nil {
		return nil, err
	}

	body, _ := json.Marshal(map[string]any{
		"options": map[string]string{"redirectUri": redirectURI},
	})
	req, _ := http.NewRequest(http.MethodPost, p.baseURL+"/connect_token", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-KEY", apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, errs.Transient("pluggy connect_token", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		log.Printf("[pluggy][connect][err] status=%d body=%s", resp.StatusCode, string(respBody))
		return nil, errs.Transient("pluggy connect_token", fmt.Errorf("status %d", resp.StatusCode))
	}

	var out struct {
		AccessToken string `json:"accessToken"`
	}
	if err := json.Unmarshal(respBody, &out); err != nil || out.AccessToken == "" {
		return nil, errs.Protocol("pluggy connect_token: malformed response")
	}

	return &ConnectSession{
		ConnectToken: out.AccessToken,
		ConnectURL:   p.connectURL + "?connect_token=" + out.AccessToken,
		ExpiresAt:    time.Now().Add(30 * time.Minute),
	}, nil
}

// ListAccounts — accounts for a connected item, with their current balances.
func (p *PluggyService) ListAccounts(itemID string) ([]models.BankAccount, error) {
	if !p.Configured() {
		return nil, errs.Configuration("pluggy")
	}

	if p.sandbox {
		return []models.BankAccount{{ID: "sandbox-" + itemID, Balance: 100}}, nil
	}

	apiKey, err := p.auth()
	if err != nil {
		return nil, err
	}

	req, _ := http.NewRequest(http.MethodGet, p.baseURL+"/accounts?itemId="+url.QueryEscape(itemID), nil)
	req.Header.Set("X-API-KEY", apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, errs.Transient("pluggy accounts", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		log.Printf("[pluggy][accounts][err] itemId=%s status=%d body=%s", itemID, resp.StatusCode, string(respBody))
		return nil, errs.Transient("pluggy accounts", fmt.Errorf("status %d", resp.StatusCode))
	}

	var out struct {
		Results []models.BankAccount `json:"results"`
	}
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, errs.Protocol("pluggy accounts: malformed response")
	}
	return out.Results, nil
}
