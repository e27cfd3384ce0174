// Package hunter provides a client for the Hunter.io email search and
// verification API.
package hunter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/outreach-cli/internal/resilience"
)

// Client defines the Hunter.io operations used by the enrichment waterfall.
type Client interface {
	DomainSearch(ctx context.Context, domain string) ([]EmailResult, error)
	VerifyEmail(ctx context.Context, email string) (*Verification, error)
}

// EmailResult is one candidate email from a domain search.
type EmailResult struct {
	Value      string  `json:"value"`
	Type       string  `json:"type"`
	Confidence float64 `json:"confidence"`
}

// Verification is the outcome of an email verification call.
type Verification struct {
	Result string  `json:"result"`
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
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewClient creates a Hunter.io client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: "https://api.hunter.io/v2",
		http: &http.Client{
			Timeout: 20 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) get(ctx context.Context, path string, params url.Values, out any) error {
	params.Set("api_key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return eris.Wrap(err, "hunter: create request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrap(err, "hunter: request failed")
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return resilience.NewRateLimitedError("hunter", eris.Errorf("status %d", resp.StatusCode))
	case resilience.IsTransientHTTPStatus(resp.StatusCode):
		return resilience.NewTransientError(eris.Errorf("hunter: status %d", resp.StatusCode), resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return eris.Errorf("hunter: status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return eris.Wrap(err, "hunter: parse response")
	}
	return nil
}

func (c *httpClient) DomainSearch(ctx context.Context, domain string) ([]EmailResult, error) {
	var payload struct {
		Data struct {
			Emails []struct {
				Value      string  `json:"value"`
				Type       string  `json:"type"`
				Confidence float64 `json:"confidence"`
			} `json:"emails"`
		} `json:"data"`
	}

	if err := c.get(ctx, "/domain-search", url.Values{"domain": {domain}}, &payload); err != nil {
		return nil, eris.Wrapf(err, "hunter: domain search %s", domain)
	}

	results := make([]EmailResult, 0, len(payload.Data.Emails))
	for _, e := range payload.Data.Emails {
		if e.Value == "" {
			continue
		}
		results = append(results, EmailResult{
			Value:      e.Value,
			Type:       e.Type,
			Confidence: e.Confidence,
		})
	}
	return results, nil
}

func (c *httpClient) VerifyEmail(ctx context.Context, email string) (*Verification, error) {
	var payload struct {
		Data struct {
			Status string  `json:"status"`
			Score  float64 `json:"score"`
		} `json:"data"`
	}

	if err := c.get(ctx, "/email-verifier", url.Values{"email": {email}}, &payload); err != nil {
		return nil, eris.Wrapf(err, "hunter: verify %s", email)
	}

	result := payload.Data.Status
	switch result {
	case "valid":
		result = "deliverable"
	case "invalid":
		result = "undeliverable"
	case "accept_all", "webmail":
		result = "risky"
	case "":
		result = "unknown"
	}
	return &Verification{Result: result, Score: payload.Data.Score}, nil
}
