package services

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/TerexitariusStomp/BrazilCommunityCurrency/internal/errs"
	"github.com/TerexitariusStomp/BrazilCommunityCurrency/internal/models"
	"github.com/TerexitariusStomp/BrazilCommunityCurrency/internal/repositories"
	"github.com/TerexitariusStomp/BrazilCommunityCurrency/internal/utils"
)

const defaultPollInterval = 10 * time.Minute

// OracleSyncService keeps the on-chain oracle in step with real bank
// balances. Two triggers feed the same routine: aggregator webhooks and a
// fixed-interval polling pass over connected tokens. Each balance write is an
// absolute "set", so overlapping triggers are safe as long as fetch+write for
// one token never interleave — hence the per-token lock.
type OracleSyncService struct {
	registry   repositories.ConnectionRegistry
	aggregator BankAggregator
	oracle     OracleContract
	baseURL    string

	pollInterval time.Duration
	tokenLocks   sync.Map // tokenAddress -> *sync.Mutex
}

func NewOracleSyncService(
	registry repositories.ConnectionRegistry,
	aggregator BankAggregator,
	oracle OracleContract,
	baseURL string,
) *OracleSyncService {
	return &OracleSyncService{
		registry:     registry,
		aggregator:   aggregator,
		oracle:       oracle,
		baseURL:      baseURL,
		pollInterval: defaultPollInterval,
	}
}

func (s *OracleSyncService) lockToken(tokenAddress string) *sync.Mutex {
	v, _ := s.tokenLocks.LoadOrStore(tokenAddress, &sync.Mutex{})
	return v.(*sync.Mutex)
}

// InitiateConnection — starts a bank-connect flow for a token and registers
// the pending connection. Returns the connect URL the user must open.
func (s *OracleSyncService) InitiateConnection(tokenAddress string) (*models.Connection, error) {
	if !utils.IsHexAddress(tokenAddress) {
		return nil, errs.Validation("Invalid token address provided")
	}
	if s.aggregator == nil || !s.aggregator.Configured() {
		return nil, errs.Configuration("pluggy")
	}
	if s.baseURL == "" {
		return nil, errs.Configuration("base url")
	}

	sess, err := s.aggregator.CreateConnectSession(s.baseURL + "/callback/pluggy")
	if err != nil {
		return nil, err
	}

	conn := &models.Connection{
		TokenAddress: tokenAddress,
		Status:       models.ConnectionPending,
		ConnectToken: sess.ConnectToken,
		ConnectURL:   sess.ConnectURL,
		ExpiresAt:    sess.ExpiresAt,
	}
	if err := s.registry.Put(conn); err != nil {
		return nil, errs.Validation("%v", err)
	}
	log.Printf("[oracle][connect] token=%s expires=%s", tokenAddress, sess.ExpiresAt.Format(time.RFC3339))
	return conn, nil
}

// HandleWebhook — dispatch on the closed event set. Unknown types are logged
// and ignored so new aggregator events cannot break us.
func (s *OracleSyncService) HandleWebhook(ctx context.Context, event models.WebhookEvent) error {
	switch event.Type {
	case models.EventConnectionSuccess:
		if event.ItemID == "" {
			return errs.Validation("invalid %s event: missing itemId", event.Type)
		}
		return s.onConnectionSuccess(ctx, event.ItemID)

	case models.EventAccountsUpdated:
		if event.ItemID == "" {
			return errs.Validation("invalid %s event: missing itemId", event.Type)
		}
		return s.SyncAccountBalance(ctx, event.ItemID)

	default:
		log.Printf("[oracle][webhook] unhandled event type: %s", event.Type)
		return nil
	}
}

// onConnectionSuccess — the connect widget finished: bind tokenAddress to the
// primary bank account in the oracle, push the opening balance, and flip the
// connection to connected. The event's itemId matches the connect token we
// issued; once stored, itemId is what later webhooks carry.
func (s *OracleSyncService) onConnectionSuccess(ctx context.Context, itemID string) error {
	conn, ok := s.registry.FindByConnectToken(itemID)
	if !ok {
		// Possibly another instance's connect session; not our failure.
		log.Printf("[oracle][webhook] no connection for itemId=%s, ignoring", itemID)
		return nil
	}

	mu := s.lockToken(conn.TokenAddress)
	mu.Lock()
	defer mu.Unlock()

	accounts, err := s.aggregator.ListAccounts(itemID)
	if err != nil {
		return err
	}
	if len(accounts) == 0 {
		return errs.Protocol("no accounts found for item %s", itemID)
	}

	primary := accounts[0]
	if primary.ID == "" {
		return errs.Protocol("invalid account data for item %s", itemID)
	}
	centavos := utils.ToCentavos(primary.Balance)
	if centavos < 0 {
		return errs.Protocol("negative balance for account %s", primary.ID)
	}

	if s.oracle == nil {
		return errs.Configuration("oracle contract")
	}
	if err := s.oracle.LinkAccount(ctx, conn.TokenAddress, primary.ID); err != nil {
		return err
	}
	if err := s.oracle.UpdateBalance(ctx, conn.TokenAddress, primary.ID, centavos); err != nil {
		return err
	}

	conn.Status = models.ConnectionConnected
	conn.AccountID = primary.ID
	conn.ItemID = itemID
	if err := s.registry.Put(conn); err != nil {
		return err
	}

	log.Printf("[oracle][sync] connected account=%s token=%s balance=%d", primary.ID, conn.TokenAddress, centavos)
	return nil
}

// SyncAccountBalance — re-fetch the linked account and write its absolute
// balance to the oracle. Shared by the ACCOUNTS_UPDATED webhook and polling.
func (s *OracleSyncService) SyncAccountBalance(ctx context.Context, itemID string) error {
	conn, ok := s.registry.FindByItemID(itemID)
	if !ok {
		log.Printf("[oracle][sync] no connection for itemId=%s, ignoring", itemID)
		return nil
	}
	if conn.Status != models.ConnectionConnected {
		log.Printf("[oracle][sync] connection not active for token=%s", conn.TokenAddress)
		return nil
	}

	// Serialize fetch+write per token: a webhook and a poll racing here
	// must not interleave a stale fetch between a fresh fetch and its write.
	mu := s.lockToken(conn.TokenAddress)
	mu.Lock()
	defer mu.Unlock()

	accounts, err := s.aggregator.ListAccounts(itemID)
	if err != nil {
		return err
	}
	if len(accounts) == 0 {
		log.Printf("[oracle][sync] no accounts for itemId=%s", itemID)
		return nil
	}

	if s.oracle == nil {
		return errs.Configuration("oracle contract")
	}

	for _, account := range accounts {
		if account.ID != conn.AccountID {
			continue
		}
		centavos := utils.ToCentavos(account.Balance)
		if centavos < 0 {
			log.Printf("[oracle][sync] rejecting negative balance account=%s", account.ID)
			return nil
		}
		if err := s.oracle.UpdateBalance(ctx, conn.TokenAddress, account.ID, centavos); err != nil {
			return err
		}
		log.Printf("[oracle][sync] updated account=%s token=%s balance=%d", account.ID, conn.TokenAddress, centavos)
		return nil
	}

	log.Printf("[oracle][sync] linked account %s absent from item %s", conn.AccountID, itemID)
	return nil
}

// StartBalanceUpdates — fixed-interval polling over connected tokens.
// One token's failure never blocks the rest of the pass.
func (s *OracleSyncService) StartBalanceUpdates(ctx context.Context) {
	if s.aggregator == nil || !s.aggregator.Configured() {
		log.Printf("[oracle][poll] aggregator not configured, polling disabled")
		return
	}

	go func() {
		ticker := time.NewTicker(s.pollInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				log.Printf("[oracle][poll] stopped")
				return
			case <-ticker.C:
				for _, conn := range s.registry.Connected() {
					if err := s.SyncAccountBalance(ctx, conn.ItemID); err != nil {
						log.Printf("[oracle][poll] token=%s err=%v", conn.TokenAddress, err)
					}
				}
			}
		}
	}()
}
