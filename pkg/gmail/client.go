// Package gmail provides a minimal client for sending mail through the
// Gmail API with an OAuth access-token refresh cycle.
package gmail

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/outreach-cli/internal/resilience"
)

// ErrUnauthorized is returned when the access token is rejected. Callers may
// call RefreshToken once and retry the send.
var ErrUnauthorized = eris.New("gmail: unauthorized")

// Client defines the send operations.
type Client interface {
	// Send delivers a message and returns the provider message id.
	Send(ctx context.Context, msg Message) (string, error)
	// RefreshToken exchanges the refresh token for a new access token.
	RefreshToken(ctx context.Context) error
}

// Message is one outbound email.
type Message struct {
	To      string
	From    string
	Subject string
	Body    string
	// ThreadID groups follow-ups into the provider-side conversation.
	ThreadID string
}

// Config holds Gmail credentials.
type Config struct {
	AccessToken  string
	RefreshToken string
	ClientID     string
	ClientSecret string
	BaseURL      string
	TokenURL     string
}

// Option configures the client.
type Option func(*httpClient)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) { c.http = hc }
}

type httpClient struct {
	cfg  Config
	http *http.Client

	mu          sync.Mutex
	accessToken string
}

// NewClient creates a Gmail client.
func NewClient(cfg Config, opts ...Option) Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://gmail.googleapis.com"
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = "https://oauth2.googleapis.com/token"
	}
	c := &httpClient{
		cfg:         cfg,
		accessToken: cfg.AccessToken,
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) Send(ctx context.Context, msg Message) (string, error) {
	if msg.To == "" {
		return "", eris.New("gmail: recipient is required")
	}

	raw := base64.URLEncoding.EncodeToString([]byte(buildMIME(msg)))
	payload := map[string]string{"raw": raw}
	if msg.ThreadID != "" {
		payload["threadId"] = msg.ThreadID
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", eris.Wrap(err, "gmail: marshal message")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.cfg.BaseURL+"/gmail/v1/users/me/messages/send", bytes.NewReader(body))
	if err != nil {
		return "", eris.Wrap(err, "gmail: create request")
	}
	c.mu.Lock()
	tok := c.accessToken
	c.mu.Unlock()
	req.Header.Set("Authorization", "Bearer "+tok)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", eris.Wrap(err, "gmail: send request failed")
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", eris.Wrap(err, "gmail: read response")
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return "", ErrUnauthorized
	case resp.StatusCode == http.StatusTooManyRequests:
		return "", resilience.NewRateLimitedError("gmail", eris.Errorf("status %d", resp.StatusCode))
	case resilience.IsTransientHTTPStatus(resp.StatusCode):
		return "", resilience.NewTransientError(
			eris.Errorf("gmail: status %d: %s", resp.StatusCode, respBody), resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return "", eris.Errorf("gmail: status %d: %s", resp.StatusCode, respBody)
	}

	var sent struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(respBody, &sent); err != nil {
		return "", eris.Wrap(err, "gmail: parse send response")
	}
	if sent.ID == "" {
		return "", eris.New("gmail: send response missing message id")
	}
	return sent.ID, nil
}

func (c *httpClient) RefreshToken(ctx context.Context) error {
	form := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {c.cfg.RefreshToken},
		"client_id":     {c.cfg.ClientID},
		"client_secret": {c.cfg.ClientSecret},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.cfg.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return eris.Wrap(err, "gmail: create refresh request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrap(err, "gmail: refresh request failed")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return eris.Errorf("gmail: refresh status %d", resp.StatusCode)
	}

	var tok struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return eris.Wrap(err, "gmail: parse refresh response")
	}
	if tok.AccessToken == "" {
		return eris.New("gmail: refresh returned empty token")
	}

	c.mu.Lock()
	c.accessToken = tok.AccessToken
	c.mu.Unlock()
	return nil
}

// buildMIME assembles a minimal RFC 2822 message.
func buildMIME(msg Message) string {
	var b strings.Builder
	if msg.From != "" {
		fmt.Fprintf(&b, "From: %s\r\n", msg.From)
	}
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(msg.Body)
	return b.String()
}
