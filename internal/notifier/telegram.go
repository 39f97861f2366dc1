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

const telegramAPIBase = "https://api.telegram.org"

// telegramSender delivers notifications to a single Telegram chat
type telegramSender struct {
	cfg     config.TelegramConfig
	baseURL string
	client  *http.Client
}

// NewTelegramSender creates a new Telegram sender
func NewTelegramSender(cfg config.TelegramConfig) MessageSender {
	return &telegramSender{
		cfg:     cfg,
		baseURL: telegramAPIBase,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// SendMessage posts the body to the configured chat. Missing configuration
// is a no-op rather than an error.
func (s *telegramSender) SendMessage(ctx context.Context, body string) error {
	if s.cfg.BotToken == "" || s.cfg.ChatID == "" {
		return nil
	}

	payload, err := json.Marshal(map[string]string{
		"chat_id": s.cfg.ChatID,
		"text":    body,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal telegram payload: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", s.baseURL, s.cfg.BotToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send telegram message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("telegram API returned status %d", resp.StatusCode)
	}
	return nil
}
