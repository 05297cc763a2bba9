package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/TerexitariusStomp/BrazilCommunityCurrency/internal/errs"
	"github.com/TerexitariusStomp/BrazilCommunityCurrency/internal/models"
)

// OracleContract — the on-chain oracle consumed as an opaque collaborator.
// Both calls block until the write is confirmed on chain.
type OracleContract interface {
	LinkAccount(ctx context.Context, tokenAddress, accountID string) error
	UpdateBalance(ctx context.Context, tokenAddress, accountID string, centavos int64) error
}

// TokenFactory — submits a token creation and returns the mined receipt.
type TokenFactory interface {
	DeployToken(ctx context.Context, params models.DeployParams) (*TxReceipt, error)
}

// TxReceipt — mined transaction receipt as reported by the relayer.
type TxReceipt struct {
	Hash    string       `json:"hash"`
	GasUsed string       `json:"gasUsed"`
	Logs    []ReceiptLog `json:"logs"`
}

type ReceiptLog struct {
	Event string            `json:"event"`
	Args  map[string]string `json:"args"`
}

// RelayerClient talks to the transaction relayer, which owns the signing keys
// and only reports back once a transaction is confirmed. Implements both
// OracleContract and TokenFactory.
type RelayerClient struct {
	relayerURL     string
	oracleAddress  string
	factoryAddress string
	client         *http.Client
}

func NewRelayerClient(relayerURL, oracleAddress, factoryAddress string) *RelayerClient {
	return &RelayerClient{
		relayerURL:     relayerURL,
		oracleAddress:  oracleAddress,
		factoryAddress: factoryAddress,
		client:         &http.Client{Timeout: 90 * time.Second},
	}
}

func (r *RelayerClient) OracleConfigured() bool {
	return r != nil && r.relayerURL != "" && r.oracleAddress != ""
}

func (r *RelayerClient) FactoryConfigured() bool {
	return r != nil && r.relayerURL != "" && r.factoryAddress != ""
}

type relayRequest struct {
	To     string `json:"to"`
	Method string `json:"method"`
	Args   []any  `json:"args"`
}

// submit posts one contract call and waits for the mined receipt.
// A timeout here is a retryable failure, never success.
func (r *RelayerClient) submit(ctx context.Context, reqBody relayRequest) (*TxReceipt, error) {
	b, _ := json.Marshal(reqBody)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.relayerURL+"/tx", bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, errs.Transient("relayer "+reqBody.Method, err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		log.Printf("[relayer][err] method=%s status=%d body=%s", reqBody.Method, resp.StatusCode, string(respBody))
		return nil, errs.Transient("relayer "+reqBody.Method, fmt.Errorf("status %d", resp.StatusCode))
	}

	var out struct {
		Receipt *TxReceipt `json:"receipt"`
	}
	if err := json.Unmarshal(respBody, &out); err != nil || out.Receipt == nil || out.Receipt.Hash == "" {
		return nil, errs.Protocol("relayer %s: malformed receipt", reqBody.Method)
	}

	log.Printf("[relayer] method=%s tx=%s", reqBody.Method, out.Receipt.Hash)
	return out.Receipt, nil
}

func (r *RelayerClient) LinkAccount(ctx context.Context, tokenAddress, accountID string) error {
	if !r.OracleConfigured() {
		return errs.Configuration("oracle contract")
	}
	_, err := r.submit(ctx, relayRequest{
		To:     r.oracleAddress,
		Method: "linkAccount",
		Args:   []any{tokenAddress, accountID},
	})
	return err
}

func (r *RelayerClient) UpdateBalance(ctx context.Context, tokenAddress, accountID string, centavos int64) error {
	if !r.OracleConfigured() {
		return errs.Configuration("oracle contract")
	}
	_, err := r.submit(ctx, relayRequest{
		To:     r.oracleAddress,
		Method: "updateBalance",
		Args:   []any{tokenAddress, accountID, centavos},
	})
	return err
}

func (r *RelayerClient) DeployToken(ctx context.Context, p models.DeployParams) (*TxReceipt, error) {
	if !r.FactoryConfigured() {
		return nil, errs.Configuration("token factory")
	}
	return r.submit(ctx, relayRequest{
		To:     r.factoryAddress,
		Method: "deployToken",
		Args:   []any{p.Name, p.Symbol, p.MasterMinter, p.Pauser, p.Blacklister, p.Owner},
	})
}
