package telephony

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrNotConfigured is returned before any network request when provider
// credentials or the outbound number are missing. The UI shows it as a
// blocking, user-actionable message; nothing is retried.
var ErrNotConfigured = errors.New("telephony: settings not configured")

// Config carries the provider credentials and webhook endpoints.
type Config struct {
	AccountSID  string
	AuthToken   string
	PhoneNumber string

	// VoiceURL is fetched by the provider when the callee answers; it must
	// return the voice markup document.
	VoiceURL string
	// StatusCallbackURL receives lifecycle status callbacks.
	StatusCallbackURL string

	// BaseURL overrides the provider API root, for tests.
	BaseURL string
}

func (c Config) validate() error {
	if c.AccountSID == "" || c.AuthToken == "" || c.PhoneNumber == "" {
		return ErrNotConfigured
	}
	return nil
}

// Client talks to the provider's REST API: form-encoded requests over basic
// auth, JSON responses. No provider SDK; the surface we need is three calls.
type Client struct {
	cfg        Config
	baseURL    string
	httpClient *http.Client
}

func NewClient(cfg Config) *Client {
	base := cfg.BaseURL
	if base == "" {
		base = "https://api.twilio.com/2010-04-01"
	}
	return &Client{
		cfg:        cfg,
		baseURL:    base,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

type callResource struct {
	SID    string `json:"sid"`
	Status string `json:"status"`
}

type messageResource struct {
	SID    string `json:"sid"`
	Status string `json:"status"`
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
}

// PlaceCall originates an outbound call and returns the provider call id.
// Credentials are checked before any request goes out.
func (c *Client) PlaceCall(ctx context.Context, from, to string) (string, error) {
	if err := c.cfg.validate(); err != nil {
		return "", err
	}
	if from == "" {
		from = c.cfg.PhoneNumber
	}

	form := url.Values{}
	form.Set("From", from)
	form.Set("To", to)
	form.Set("Url", c.cfg.VoiceURL)
	form.Set("Method", "POST")
	if c.cfg.StatusCallbackURL != "" {
		form.Set("StatusCallback", c.cfg.StatusCallbackURL)
		for _, ev := range []string{"initiated", "ringing", "answered", "completed"} {
			form.Add("StatusCallbackEvent", ev)
		}
	}

	var res callResource
	if err := c.post(ctx, fmt.Sprintf("/Accounts/%s/Calls.json", c.cfg.AccountSID), form, &res); err != nil {
		return "", err
	}
	return res.SID, nil
}

// EndCall terminates an active call by forcing its status to completed.
func (c *Client) EndCall(ctx context.Context, sid string) error {
	if err := c.cfg.validate(); err != nil {
		return err
	}
	form := url.Values{}
	form.Set("Status", "completed")
	return c.post(ctx, fmt.Sprintf("/Accounts/%s/Calls/%s.json", c.cfg.AccountSID, sid), form, nil)
}

// SendSMS sends a text message and returns the provider message id.
func (c *Client) SendSMS(ctx context.Context, to, body string) (string, error) {
	if err := c.cfg.validate(); err != nil {
		return "", err
	}
	form := url.Values{}
	form.Set("From", c.cfg.PhoneNumber)
	form.Set("To", to)
	form.Set("Body", body)

	var res messageResource
	if err := c.post(ctx, fmt.Sprintf("/Accounts/%s/Messages.json", c.cfg.AccountSID), form, &res); err != nil {
		return "", err
	}
	return res.SID, nil
}

func (c *Client) post(ctx context.Context, path string, form url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(c.cfg.AccountSID, c.cfg.AuthToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("telephony: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		var apiErr apiError
		body, _ := io.ReadAll(resp.Body)
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Message != "" {
			return fmt.Errorf("telephony: provider error %d: %s", apiErr.Code, apiErr.Message)
		}
		return fmt.Errorf("telephony: provider error (%d): %s", resp.StatusCode, string(body))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
