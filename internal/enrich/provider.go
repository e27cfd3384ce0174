// Package enrich resolves contact emails through a provider waterfall:
// paid search providers, local harvesting, then pattern generation.
package enrich

import (
	"context"

	"github.com/sells-group/outreach-cli/internal/model"
	"github.com/sells-group/outreach-cli/pkg/hunter"
	"github.com/sells-group/outreach-cli/pkg/snov"
)

// Verification is the provider-neutral verdict for one address.
type Verification struct {
	Deliverable bool
	Score       float64
}

// Provider is one email-search source in the waterfall.
type Provider interface {
	Name() string
	DomainSearch(ctx context.Context, domain string) ([]model.EmailCandidate, error)
	VerifyEmail(ctx context.Context, email string) (*Verification, error)
}

type snovProvider struct {
	client snov.Client
}

// NewSnovProvider adapts a Snov client to the waterfall.
func NewSnovProvider(client snov.Client) Provider {
	return &snovProvider{client: client}
}

func (p *snovProvider) Name() string { return string(model.MethodSnov) }

func (p *snovProvider) DomainSearch(ctx context.Context, domain string) ([]model.EmailCandidate, error) {
	results, err := p.client.DomainSearch(ctx, domain)
	if err != nil {
		return nil, err
	}
	out := make([]model.EmailCandidate, 0, len(results))
	for _, r := range results {
		out = append(out, model.EmailCandidate{
			Email:      r.Value,
			Method:     model.MethodSnov,
			Confidence: r.Confidence,
		})
	}
	return out, nil
}

func (p *snovProvider) VerifyEmail(ctx context.Context, email string) (*Verification, error) {
	v, err := p.client.VerifyEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	return &Verification{Deliverable: v.Deliverable(), Score: v.Score}, nil
}

type hunterProvider struct {
	client hunter.Client
}

// NewHunterProvider adapts a Hunter client to the waterfall.
func NewHunterProvider(client hunter.Client) Provider {
	return &hunterProvider{client: client}
}

func (p *hunterProvider) Name() string { return string(model.MethodHunter) }

func (p *hunterProvider) DomainSearch(ctx context.Context, domain string) ([]model.EmailCandidate, error) {
	results, err := p.client.DomainSearch(ctx, domain)
	if err != nil {
		return nil, err
	}
	out := make([]model.EmailCandidate, 0, len(results))
	for _, r := range results {
		out = append(out, model.EmailCandidate{
			Email:      r.Value,
			Method:     model.MethodHunter,
			Confidence: r.Confidence,
		})
	}
	return out, nil
}

func (p *hunterProvider) VerifyEmail(ctx context.Context, email string) (*Verification, error) {
	v, err := p.client.VerifyEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	return &Verification{Deliverable: v.Deliverable(), Score: v.Score}, nil
}
