// Package email sends transactional mail through the Resend REST API.
package email

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrNotConfigured is returned before any network request when the API key
// or sender address is missing.
var ErrNotConfigured = errors.New("email: settings not configured")

type Config struct {
	APIKey string
	// From is the verified sender, e.g. "Acme CRM <crm@acme.com>".
	From string

	// BaseURL overrides the API root, for tests.
	BaseURL string
}

func (c Config) validate() error {
	if c.APIKey == "" || c.From == "" {
		return ErrNotConfigured
	}
	return nil
}

type Client struct {
	cfg        Config
	baseURL    string
	httpClient *http.Client
}

func NewClient(cfg Config) *Client {
	base := cfg.BaseURL
	if base == "" {
		base = "https://api.resend.com"
	}
	return &Client{
		cfg:        cfg,
		baseURL:    base,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

type sendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	Text    string   `json:"text,omitempty"`
	HTML    string   `json:"html,omitempty"`
}

type sendResponse struct {
	ID string `json:"id"`
}

type apiError struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}

// Send delivers one email and returns the provider message id. Credentials
// are checked before any request goes out.
func (c *Client) Send(ctx context.Context, to, subject, text, html string) (string, error) {
	if err := c.cfg.validate(); err != nil {
		return "", err
	}
	if to == "" || subject == "" {
		return "", errors.New("email: recipient and subject required")
	}

	body, err := json.Marshal(sendRequest{
		From:    c.cfg.From,
		To:      []string{to},
		Subject: subject,
		Text:    text,
		HTML:    html,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/emails", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("email: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr apiError
		raw, _ := io.ReadAll(resp.Body)
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Message != "" {
			return "", fmt.Errorf("email: provider error %s: %s", apiErr.Name, apiErr.Message)
		}
		return "", fmt.Errorf("email: provider error (%d): %s", resp.StatusCode, string(raw))
	}

	var res sendResponse
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return "", err
	}
	return res.ID, nil
}
