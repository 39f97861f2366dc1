package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"example.com/coldchain/config"
)

const whatsappAPIBase = "https://graph.facebook.com/v17.0"

// whatsappSender delivers notifications to a single WhatsApp recipient via
// the Meta Graph API
type whatsappSender struct {
	cfg     config.WhatsAppConfig
	baseURL string
	client  *http.Client
}

// NewWhatsAppSender creates a new WhatsApp sender
func NewWhatsAppSender(cfg config.WhatsAppConfig) MessageSender {
	return &whatsappSender{
		cfg:     cfg,
		baseURL: whatsappAPIBase,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// SendMessage posts a text message to the configured recipient. Missing
// configuration is a no-op rather than an error.
func (s *whatsappSender) SendMessage(ctx context.Context, body string) error {
	if s.cfg.Token == "" || s.cfg.PhoneID == "" {
		return nil
	}

	payload, err := json.Marshal(map[string]interface{}{
		"messaging_product": "whatsapp",
		"to":                s.cfg.Recipient,
		"type":              "text",
		"text":              map[string]string{"body": body},
	})
	if err != nil {
		return fmt.Errorf("failed to marshal whatsapp payload: %w", err)
	}

	url := fmt.Sprintf("%s/%s/messages", s.baseURL, s.cfg.PhoneID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+s.cfg.Token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send whatsapp message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("whatsapp API returned status %d", resp.StatusCode)
	}
	return nil
}
