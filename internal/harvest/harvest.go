package harvest

import (
	"context"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/outreach-cli/internal/model"
)

// contactPaths is the ordered list of pages tried after the homepage. The
// early entries cover the overwhelming majority of small-business sites.
var contactPaths = []string{
	"/contact", "/contact-us", "/contactus", "/contact.html", "/contact.php",
	"/contact-us.html", "/contact_us", "/contacts", "/contact-form",
	"/get-in-touch", "/reach-us", "/reach-out", "/connect", "/talk-to-us",
	"/about", "/about-us", "/aboutus", "/about.html", "/about-us.html",
	"/about_us", "/company", "/company/contact", "/company/about",
	"/team", "/our-team", "/meet-the-team", "/staff", "/people",
	"/support", "/help", "/customer-service", "/customer-support",
	"/info", "/information", "/enquiry", "/enquiries", "/inquiry",
	"/impressum", "/imprint", "/kontakt", "/legal",
}

// Harvester fetches a domain's pages and extracts the best contact email.
type Harvester struct {
	client   *http.Client
	maxPages int
}

// Option configures a Harvester.
type Option func(*Harvester)

// WithHTTPClient overrides the HTTP client, mostly for tests.
func WithHTTPClient(c *http.Client) Option {
	return func(h *Harvester) { h.client = c }
}

// WithMaxPages caps how many candidate pages are fetched per domain.
func WithMaxPages(n int) Option {
	return func(h *Harvester) { h.maxPages = n }
}

// New creates a Harvester with short timeouts; a slow site is not worth
// holding up the enrichment run for.
func New(opts ...Option) *Harvester {
	h := &Harvester{
		client: &http.Client{
			Timeout: 10 * time.Second,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: 5 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout: 5 * time.Second,
			},
		},
		maxPages: len(contactPaths) + 2,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// FindEmail fetches the prospect's known page, the homepage, and common
// contact paths until one yields a plausible email. Returns nil when the
// whole path list is exhausted without a hit.
func (h *Harvester) FindEmail(ctx context.Context, domain, pageURL string) (*model.EmailCandidate, error) {
	urls := candidateURLs(domain, pageURL)
	if len(urls) > h.maxPages {
		urls = urls[:h.maxPages]
	}

	for _, u := range urls {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		html, err := h.fetch(ctx, u)
		if err != nil {
			zap.L().Debug("harvest: fetch failed", zap.String("url", u), zap.Error(err))
			continue
		}

		candidates := ExtractEmails(html, domain)
		if len(candidates) == 0 {
			continue
		}

		best := candidates[0]
		zap.L().Debug("harvest: email found",
			zap.String("domain", domain),
			zap.String("url", u),
			zap.String("email", best.Email),
			zap.Int("priority", best.Priority))
		return &model.EmailCandidate{
			Email:      best.Email,
			Method:     model.MethodLocalScraping,
			Confidence: float64(best.Priority) / 2,
		}, nil
	}
	return nil, nil
}

func (h *Harvester) fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	// Plain Go user agents get blocked on a lot of small-business hosts.
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := h.client.Do(req)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return "", eris.Errorf("harvest: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 512*1024))
	if err != nil {
		return "", err
	}
	return string(body), nil
}

func candidateURLs(domain, pageURL string) []string {
	var urls []string
	if pageURL != "" {
		urls = append(urls, pageURL)
	}
	base := "https://" + domain
	urls = append(urls, base)
	for _, p := range contactPaths {
		urls = append(urls, base+p)
	}
	return urls
}
