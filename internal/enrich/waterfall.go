package enrich

import (
	"context"

	"go.uber.org/zap"

	"github.com/sells-group/outreach-cli/internal/harvest"
	"github.com/sells-group/outreach-cli/internal/model"
	"github.com/sells-group/outreach-cli/internal/resilience"
)

// Outcome classifies a waterfall run. A rate-limited provider is never
// reported as "no email found"; callers schedule a retry instead.
type Outcome string

const (
	OutcomeFound        Outcome = "found"
	OutcomeRateLimited  Outcome = "rate_limited"
	OutcomePendingRetry Outcome = "pending_retry"
)

// Result is the output of one waterfall run for a domain.
type Result struct {
	Outcome   Outcome
	Candidate *model.EmailCandidate
	Provider  string
}

// EmailFinder is the local-harvesting tier.
type EmailFinder interface {
	FindEmail(ctx context.Context, domain, pageURL string) (*model.EmailCandidate, error)
}

// Waterfall resolves one best email per domain through three strictly
// sequential tiers: paid providers, local harvesting, pattern generation.
type Waterfall struct {
	providers          []Provider
	harvester          EmailFinder
	limiters           *resilience.ProviderLimiters
	breakers           *resilience.ProviderBreakers
	maxPatternAttempts int
}

// NewWaterfall wires the tiers together. The provider slice order is the
// waterfall order.
func NewWaterfall(providers []Provider, harvester EmailFinder, limiters *resilience.ProviderLimiters, breakers *resilience.ProviderBreakers, cfg Config) *Waterfall {
	return &Waterfall{
		providers:          providers,
		harvester:          harvester,
		limiters:           limiters,
		breakers:           breakers,
		maxPatternAttempts: cfg.MaxPatternAttempts,
	}
}

// Enrich resolves the best email for a domain. It never returns a terminal
// "unreachable" on first failure: exhausting all tiers yields
// OutcomePendingRetry so a later pass can try again.
func (w *Waterfall) Enrich(ctx context.Context, domain, knownName, pageURL string) (*Result, error) {
	rateLimited := false

	// Tier 1: paid providers, in configured order.
	for _, p := range w.providers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		candidate, err := w.providerSearch(ctx, p, domain)
		if err != nil {
			if resilience.IsRateLimited(err) {
				zap.L().Warn("enrich: provider rate limited, falling through",
					zap.String("provider", p.Name()), zap.String("domain", domain))
				rateLimited = true
				break
			}
			zap.L().Warn("enrich: provider search failed",
				zap.String("provider", p.Name()), zap.String("domain", domain), zap.Error(err))
			continue
		}
		if candidate != nil {
			return &Result{Outcome: OutcomeFound, Candidate: candidate, Provider: p.Name()}, nil
		}
	}

	// Tier 2: local harvesting.
	if w.harvester != nil {
		candidate, err := w.harvester.FindEmail(ctx, domain, pageURL)
		if err != nil {
			if ctx.Err() != nil {
				return nil, err
			}
			zap.L().Debug("enrich: harvest failed", zap.String("domain", domain), zap.Error(err))
		}
		if candidate != nil {
			return &Result{Outcome: OutcomeFound, Candidate: candidate, Provider: string(model.MethodLocalScraping)}, nil
		}
	}

	// Tier 3: pattern generation, verified through the first working provider.
	if candidate := w.patternSearch(ctx, domain, knownName); candidate != nil {
		return &Result{Outcome: OutcomeFound, Candidate: candidate, Provider: string(model.MethodPatternGenerated)}, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if rateLimited {
		return &Result{Outcome: OutcomeRateLimited}, nil
	}
	return &Result{Outcome: OutcomePendingRetry}, nil
}

// providerSearch runs one provider's domain search behind its limiter and
// circuit breaker and picks the highest-confidence result.
func (w *Waterfall) providerSearch(ctx context.Context, p Provider, domain string) (*model.EmailCandidate, error) {
	if w.limiters != nil {
		if err := w.limiters.Get(p.Name()).Wait(ctx); err != nil {
			return nil, err
		}
	}

	retryCfg := resilience.DefaultRetryConfig()
	retryCfg.ShouldRetry = func(err error) bool {
		// A rate limit is not retried here: it has to surface so the
		// waterfall can fall through to the unpaid tiers.
		return !resilience.IsRateLimited(err) && resilience.IsTransient(err)
	}
	retryCfg.OnRetry = resilience.RetryLogger(p.Name(), "domain_search")

	search := func(ctx context.Context) ([]model.EmailCandidate, error) {
		return resilience.DoVal(ctx, retryCfg, func(ctx context.Context) ([]model.EmailCandidate, error) {
			return p.DomainSearch(ctx, domain)
		})
	}

	var (
		results []model.EmailCandidate
		err     error
	)
	if w.breakers != nil {
		results, err = resilience.ExecuteVal(ctx, w.breakers.Get(p.Name()), search)
	} else {
		results, err = search(ctx)
	}
	if err != nil {
		return nil, err
	}

	var best *model.EmailCandidate
	for i := range results {
		// Providers occasionally echo back asset names and placeholder
		// addresses scraped from the target site; screen them the same
		// way the harvesting tier does.
		if results[i].Email == "" || !harvest.Plausible(results[i].Email) {
			continue
		}
		if best == nil || results[i].Confidence > best.Confidence {
			best = &results[i]
		}
	}
	return best, nil
}

// patternSearch generates likely addresses and verifies them until one is
// deliverable or the trial budget runs out.
func (w *Waterfall) patternSearch(ctx context.Context, domain, knownName string) *model.EmailCandidate {
	verifier := w.firstVerifier()
	if verifier == nil {
		return nil
	}

	for _, email := range GeneratePatterns(domain, knownName, w.maxPatternAttempts) {
		if ctx.Err() != nil {
			return nil
		}
		if w.limiters != nil {
			if err := w.limiters.Get(verifier.Name()).Wait(ctx); err != nil {
				return nil
			}
		}
		v, err := verifier.VerifyEmail(ctx, email)
		if err != nil {
			if resilience.IsRateLimited(err) {
				return nil
			}
			zap.L().Debug("enrich: pattern verify failed",
				zap.String("email", email), zap.Error(err))
			continue
		}
		if v.Deliverable {
			return &model.EmailCandidate{
				Email:      email,
				Method:     model.MethodPatternGenerated,
				Confidence: v.Score,
			}
		}
	}
	return nil
}

func (w *Waterfall) firstVerifier() Provider {
	if len(w.providers) == 0 {
		return nil
	}
	return w.providers[0]
}
