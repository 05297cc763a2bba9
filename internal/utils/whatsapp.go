package utils

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

// WhatsAppClient — outbound text channel (WhatsApp Business style HTTP API).
// DryRun skips the network call and logs the message instead.
type WhatsAppClient struct {
	APIURL string
	APIKey string
	DryRun bool

	httpClient *http.Client
}

func NewWhatsAppClient(apiURL, apiKey string, dryRun bool) *WhatsAppClient {
	return &WhatsAppClient{
		APIURL:     apiURL,
		APIKey:     apiKey,
		DryRun:     dryRun,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *WhatsAppClient) Configured() bool {
	return c != nil && (c.DryRun || (c.APIURL != "" && c.APIKey != ""))
}

// SendText — delivery of one text message to a phone number.
func (c *WhatsAppClient) SendText(to, body string) error {
	if c.DryRun || c.APIURL == "" || c.APIKey == "" {
		log.Printf("[whatsapp][dry-run] to=%s text=%q", to, body)
		return nil
	}

	payload := map[string]any{
		"to":   to,
		"type": "text",
		"text": map[string]string{"body": body},
	}
	b, _ := json.Marshal(payload)

	req, err := http.NewRequest(http.MethodPost, c.APIURL+"/messages", bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("whatsapp send: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Printf("[whatsapp][send][err] status=%d body=%s", resp.StatusCode, string(respBody))
		return fmt.Errorf("whatsapp send failed: status=%d", resp.StatusCode)
	}
	log.Printf("[whatsapp][send] to=%s status=%d", to, resp.StatusCode)
	return nil
}
