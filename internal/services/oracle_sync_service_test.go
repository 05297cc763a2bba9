package services

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TerexitariusStomp/BrazilCommunityCurrency/internal/errs"
	"github.com/TerexitariusStomp/BrazilCommunityCurrency/internal/models"
	"github.com/TerexitariusStomp/BrazilCommunityCurrency/internal/repositories"
)

const testTokenAddress = "0x00112233445566778899aabbccddeeff00112233"

func newTestSync() (*OracleSyncService, repositories.ConnectionRegistry, *fakeAggregator, *fakeOracle) {
	registry := repositories.NewConnectionRegistry()
	aggregator := newFakeAggregator()
	oracle := newFakeOracle()
	svc := NewOracleSyncService(registry, aggregator, oracle, "https://app.example.com")
	return svc, registry, aggregator, oracle
}

// connect drives a full connect flow and returns the itemId now bound to the token.
func connectToken(t *testing.T, svc *OracleSyncService, aggregator *fakeAggregator, balance float64) string {
	t.Helper()
	conn, err := svc.InitiateConnection(testTokenAddress)
	require.NoError(t, err)

	itemID := conn.ConnectToken
	aggregator.accounts[itemID] = []models.BankAccount{{ID: "acc-1", Balance: balance}}

	err = svc.HandleWebhook(context.Background(), models.WebhookEvent{
		Type: models.EventConnectionSuccess, ItemID: itemID,
	})
	require.NoError(t, err)
	return itemID
}

func TestInitiateConnectionValidation(t *testing.T) {
	svc, registry, _, _ := newTestSync()

	_, err := svc.InitiateConnection("not-an-address")
	assert.ErrorIs(t, err, errs.ErrValidation)
	assert.Equal(t, 0, registry.Len())
}

func TestInitiateConnectionRequiresConfiguration(t *testing.T) {
	registry := repositories.NewConnectionRegistry()
	aggregator := newFakeAggregator()
	aggregator.configured = false

	svc := NewOracleSyncService(registry, aggregator, newFakeOracle(), "https://app.example.com")
	_, err := svc.InitiateConnection(testTokenAddress)
	assert.ErrorIs(t, err, errs.ErrConfiguration)

	aggregator.configured = true
	svc = NewOracleSyncService(registry, aggregator, newFakeOracle(), "")
	_, err = svc.InitiateConnection(testTokenAddress)
	assert.ErrorIs(t, err, errs.ErrConfiguration)
}

func TestInitiateConnectionStoresPending(t *testing.T) {
	svc, registry, _, _ := newTestSync()

	conn, err := svc.InitiateConnection(testTokenAddress)
	require.NoError(t, err)
	assert.NotEmpty(t, conn.ConnectURL)
	assert.False(t, conn.ExpiresAt.IsZero())

	stored, ok := registry.Get(testTokenAddress)
	require.True(t, ok)
	assert.Equal(t, models.ConnectionPending, stored.Status)
	assert.Equal(t, conn.ConnectToken, stored.ConnectToken)
}

func TestConnectionSuccessLinksAndUpdates(t *testing.T) {
	svc, registry, aggregator, oracle := newTestSync()

	itemID := connectToken(t, svc, aggregator, 123.456)

	stored, ok := registry.Get(testTokenAddress)
	require.True(t, ok)
	assert.Equal(t, models.ConnectionConnected, stored.Status)
	assert.Equal(t, "acc-1", stored.AccountID)
	assert.Equal(t, itemID, stored.ItemID)

	assert.Equal(t, 1, oracle.linkCalls)
	assert.Equal(t, 1, oracle.updateCalls)
	assert.Equal(t, "acc-1", oracle.linked[testTokenAddress])
	assert.Equal(t, int64(12345), oracle.balance(testTokenAddress)) // floored centavos
}

func TestConnectionSuccessRejectsNegativeBalance(t *testing.T) {
	svc, registry, aggregator, oracle := newTestSync()

	conn, err := svc.InitiateConnection(testTokenAddress)
	require.NoError(t, err)
	aggregator.accounts[conn.ConnectToken] = []models.BankAccount{{ID: "acc-1", Balance: -0.01}}

	err = svc.HandleWebhook(context.Background(), models.WebhookEvent{
		Type: models.EventConnectionSuccess, ItemID: conn.ConnectToken,
	})
	assert.ErrorIs(t, err, errs.ErrProtocol)
	assert.Equal(t, 0, oracle.updateCalls)

	stored, _ := registry.Get(testTokenAddress)
	assert.Equal(t, models.ConnectionPending, stored.Status)
}

func TestConnectionSuccessEmptyAccounts(t *testing.T) {
	svc, _, aggregator, oracle := newTestSync()

	conn, err := svc.InitiateConnection(testTokenAddress)
	require.NoError(t, err)
	aggregator.accounts[conn.ConnectToken] = nil

	err = svc.HandleWebhook(context.Background(), models.WebhookEvent{
		Type: models.EventConnectionSuccess, ItemID: conn.ConnectToken,
	})
	assert.ErrorIs(t, err, errs.ErrProtocol)
	assert.Equal(t, 0, oracle.linkCalls)
}

func TestWebhookUnknownEventTypeIsNoop(t *testing.T) {
	svc, registry, _, oracle := newTestSync()

	err := svc.HandleWebhook(context.Background(), models.WebhookEvent{
		Type: "ITEM_DELETED", ItemID: "whatever",
	})
	require.NoError(t, err)
	assert.Equal(t, 0, registry.Len())
	assert.Equal(t, 0, oracle.updateCalls)
}

func TestWebhookMissingItemID(t *testing.T) {
	svc, _, _, _ := newTestSync()

	for _, typ := range []models.EventType{models.EventConnectionSuccess, models.EventAccountsUpdated} {
		err := svc.HandleWebhook(context.Background(), models.WebhookEvent{Type: typ})
		assert.ErrorIs(t, err, errs.ErrValidation, "type %s", typ)
	}
}

func TestWebhookUnresolvableItemIsNoop(t *testing.T) {
	svc, registry, _, oracle := newTestSync()

	err := svc.HandleWebhook(context.Background(), models.WebhookEvent{
		Type: models.EventAccountsUpdated, ItemID: "someone-elses-item",
	})
	require.NoError(t, err)
	assert.Equal(t, 0, registry.Len())
	assert.Equal(t, 0, oracle.updateCalls)
}

func TestSyncAccountBalance(t *testing.T) {
	svc, _, aggregator, oracle := newTestSync()
	itemID := connectToken(t, svc, aggregator, 100)

	aggregator.accounts[itemID] = []models.BankAccount{{ID: "acc-1", Balance: 250.75}}
	require.NoError(t, svc.SyncAccountBalance(context.Background(), itemID))
	assert.Equal(t, int64(25075), oracle.balance(testTokenAddress))

	// Repeated delivery of the same event: same absolute value, no corruption.
	require.NoError(t, svc.SyncAccountBalance(context.Background(), itemID))
	assert.Equal(t, int64(25075), oracle.balance(testTokenAddress))
}

func TestSyncRejectsNegativeBalance(t *testing.T) {
	svc, _, aggregator, oracle := newTestSync()
	itemID := connectToken(t, svc, aggregator, 100)
	writesAfterConnect := oracle.updateCalls

	aggregator.accounts[itemID] = []models.BankAccount{{ID: "acc-1", Balance: -10}}
	require.NoError(t, svc.SyncAccountBalance(context.Background(), itemID))

	assert.Equal(t, writesAfterConnect, oracle.updateCalls)
	assert.Equal(t, int64(10000), oracle.balance(testTokenAddress)) // last valid value stands
}

func TestSyncIgnoresUnlinkedAccounts(t *testing.T) {
	svc, _, aggregator, oracle := newTestSync()
	itemID := connectToken(t, svc, aggregator, 100)
	writesAfterConnect := oracle.updateCalls

	aggregator.accounts[itemID] = []models.BankAccount{{ID: "acc-other", Balance: 999}}
	require.NoError(t, svc.SyncAccountBalance(context.Background(), itemID))
	assert.Equal(t, writesAfterConnect, oracle.updateCalls)
}

func TestConcurrentSyncsNeverRegress(t *testing.T) {
	svc, _, aggregator, oracle := newTestSync()
	itemID := connectToken(t, svc, aggregator, 100)

	aggregator.accounts[itemID] = []models.BankAccount{{ID: "acc-1", Balance: 500}}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = svc.SyncAccountBalance(context.Background(), itemID)
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(50000), oracle.balance(testTokenAddress))
}

func TestSyncWithoutOracleIsConfigurationError(t *testing.T) {
	registry := repositories.NewConnectionRegistry()
	aggregator := newFakeAggregator()
	svc := NewOracleSyncService(registry, aggregator, nil, "https://app.example.com")

	conn, err := svc.InitiateConnection(testTokenAddress)
	require.NoError(t, err)
	aggregator.accounts[conn.ConnectToken] = []models.BankAccount{{ID: "acc-1", Balance: 10}}

	err = svc.HandleWebhook(context.Background(), models.WebhookEvent{
		Type: models.EventConnectionSuccess, ItemID: conn.ConnectToken,
	})
	assert.ErrorIs(t, err, errs.ErrConfiguration)
}
