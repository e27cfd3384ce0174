// Package snov provides a client for the Snov.io email search and
// verification API.
package snov

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/outreach-cli/internal/resilience"
)

// Client defines the Snov.io operations used by the enrichment waterfall.
type Client interface {
	// DomainSearch returns candidate emails for a domain with confidence
	// scores. A 429 surfaces as a RateLimitedError, never as an empty result.
	DomainSearch(ctx context.Context, domain string) ([]EmailResult, error)
	// VerifyEmail checks deliverability of a single address.
	VerifyEmail(ctx context.Context, email string) (*Verification, error)
}

// EmailResult is one candidate email from a domain search.
type EmailResult struct {
	Value      string  `json:"value"`
	Type       string  `json:"type"` // "generic" or "personal"
	Confidence float64 `json:"confidence"`
}

// Verification is the outcome of an email verification call.
type Verification struct {
	Result string  `json:"result"` // deliverable | undeliverable | risky | unknown
	Score  float64 `json:"score"`
}

// Deliverable reports whether the address was confirmed deliverable.
func (v *Verification) Deliverable() bool { return v.Result == "deliverable" }

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(u string) Option {
	return func(c *httpClient) { c.baseURL = u }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) { c.http = hc }
}

type httpClient struct {
	clientID     string
	clientSecret string
	baseURL      string
	http         *http.Client

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

// NewClient creates a Snov.io client using OAuth client credentials.
func NewClient(clientID, clientSecret string, opts ...Option) Client {
	c := &httpClient{
		clientID:     clientID,
		clientSecret: clientSecret,
		baseURL:      "https://api.snov.io",
		http: &http.Client{
			Timeout: 20 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// token returns a cached access token, fetching a fresh one when expired.
func (c *httpClient) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && time.Now().Before(c.tokenExpiry) {
		return c.accessToken, nil
	}

	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {c.clientID},
		"client_secret": {c.clientSecret},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/oauth/access_token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", eris.Wrap(err, "snov: create token request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", eris.Wrap(err, "snov: token request failed")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", eris.Errorf("snov: token status %d", resp.StatusCode)
	}

	var tok struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return "", eris.Wrap(err, "snov: parse token response")
	}
	if tok.AccessToken == "" {
		return "", eris.New("snov: empty access token")
	}

	c.accessToken = tok.AccessToken
	ttl := time.Duration(tok.ExpiresIn) * time.Second
	if ttl <= 0 {
		ttl = time.Hour
	}
	// Refresh slightly early to avoid using a token at the expiry boundary.
	c.tokenExpiry = time.Now().Add(ttl - 30*time.Second)
	return c.accessToken, nil
}

func (c *httpClient) get(ctx context.Context, path string, params url.Values, out any) error {
	tok, err := c.token(ctx)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return eris.Wrap(err, "snov: create request")
	}
	req.Header.Set("Authorization", "Bearer "+tok)

	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrap(err, "snov: request failed")
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return resilience.NewRateLimitedError("snov", eris.Errorf("status %d", resp.StatusCode))
	case resilience.IsTransientHTTPStatus(resp.StatusCode):
		return resilience.NewTransientError(eris.Errorf("snov: status %d", resp.StatusCode), resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return eris.Errorf("snov: status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return eris.Wrap(err, "snov: parse response")
	}
	return nil
}

func (c *httpClient) DomainSearch(ctx context.Context, domain string) ([]EmailResult, error) {
	var payload struct {
		Success bool `json:"success"`
		Emails  []struct {
			Email      string  `json:"email"`
			Type       string  `json:"type"`
			Confidence float64 `json:"confidence"`
		} `json:"emails"`
	}

	params := url.Values{"domain": {domain}, "type": {"all"}}
	if err := c.get(ctx, "/v2/domain-emails-with-info", params, &payload); err != nil {
		return nil, eris.Wrapf(err, "snov: domain search %s", domain)
	}

	results := make([]EmailResult, 0, len(payload.Emails))
	for _, e := range payload.Emails {
		if e.Email == "" {
			continue
		}
		results = append(results, EmailResult{
			Value:      e.Email,
			Type:       e.Type,
			Confidence: e.Confidence,
		})
	}
	return results, nil
}

func (c *httpClient) VerifyEmail(ctx context.Context, email string) (*Verification, error) {
	var payload struct {
		Success bool `json:"success"`
		Data    struct {
			Result string  `json:"result"`
			Score  float64 `json:"smtp_score"`
		} `json:"data"`
	}

	params := url.Values{"email": {email}}
	if err := c.get(ctx, "/v1/get-emails-verification-status", params, &payload); err != nil {
		return nil, eris.Wrapf(err, "snov: verify %s", email)
	}

	result := payload.Data.Result
	if result == "" {
		result = "unknown"
	}
	return &Verification{Result: result, Score: payload.Data.Score}, nil
}
