package enrich

import (
	"context"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/outreach-cli/internal/model"
	"github.com/sells-group/outreach-cli/internal/store"
)

// Engine drives the enrichment and verification phases over the store.
type Engine struct {
	store       store.Store
	wf          *Waterfall
	verifier    *Verifier
	autoPromote bool
	concurrency int
}

// EngineOption configures the engine.
type EngineOption func(*Engine)

// WithAutoPromote approves prospects as leads as soon as their email
// verifies, skipping the manual approval step.
func WithAutoPromote() EngineOption {
	return func(e *Engine) { e.autoPromote = true }
}

// WithConcurrency bounds how many prospects enrich in parallel. Values
// below 2 keep the pass sequential.
func WithConcurrency(n int) EngineOption {
	return func(e *Engine) { e.concurrency = n }
}

// NewEngine creates an enrichment engine.
func NewEngine(st store.Store, wf *Waterfall, verifier *Verifier, opts ...EngineOption) *Engine {
	e := &Engine{store: st, wf: wf, verifier: verifier}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run executes one enrichment pass. Per-prospect failures are recorded on
// the prospect and counted; only selection errors abort the job.
func (e *Engine) Run(ctx context.Context, params model.EnrichParams) (*model.JobResult, error) {
	prospects, err := e.selectForEnrich(ctx, params)
	if err != nil {
		return nil, err
	}

	result := &model.JobResult{Detail: map[string]any{}}
	var (
		mu          sync.Mutex
		rateLimited int
	)

	g, gctx := errgroup.WithContext(ctx)
	limit := e.concurrency
	if limit < 1 {
		limit = 1
	}
	g.SetLimit(limit)

	for i := range prospects {
		if gctx.Err() != nil {
			break
		}
		p := &prospects[i]
		g.Go(func() error {
			mu.Lock()
			result.Executed++
			mu.Unlock()

			// Intent gate: non-partner domains are persisted but never
			// trigger paid provider calls.
			if p.Intent != "" && !p.Intent.QualifiesForEnrichment() {
				if p.ContactEmail == "" {
					p.ContactMethod = model.MethodSkippedIntent
				}
				mu.Lock()
				result.Skipped++
				mu.Unlock()
				e.save(gctx, p)
				return nil
			}

			wfResult, err := e.wf.Enrich(gctx, p.Domain, p.Name, p.PageURL)
			if err != nil {
				return err
			}

			mu.Lock()
			switch wfResult.Outcome {
			case OutcomeFound:
				if p.ApplyEmail(*wfResult.Candidate) {
					result.Succeeded++
				} else {
					// A lower-trust candidate never displaces a stored email.
					result.Skipped++
				}
			case OutcomeRateLimited:
				if p.ContactEmail == "" {
					p.ContactMethod = model.MethodPendingRetry
				}
				rateLimited++
				result.Skipped++
			case OutcomePendingRetry:
				if p.ContactEmail == "" {
					p.ContactMethod = model.MethodPendingRetry
					p.ScrapeStatus = model.ScrapeNoEmailFound
				}
				result.Failed++
			}
			mu.Unlock()

			e.save(gctx, p)
			return nil
		})
	}

	err = g.Wait()
	if err == nil {
		err = ctx.Err()
	}

	if rateLimited > 0 {
		result.Detail["rate_limited"] = rateLimited
	}
	return result, err
}

// Verify executes one verification pass over prospects holding an email.
func (e *Engine) Verify(ctx context.Context, params model.VerifyParams) (*model.JobResult, error) {
	if e.verifier == nil {
		return nil, eris.New("enrich: no verification provider configured")
	}

	prospects, err := e.selectForVerify(ctx, params)
	if err != nil {
		return nil, err
	}

	result := &model.JobResult{}
	for i := range prospects {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		p := &prospects[i]
		result.Executed++

		if p.VerificationStatus == model.VerificationVerified {
			result.Skipped++
			continue
		}
		// Email-less prospects get a fresh domain search, which is a paid
		// call, so the intent gate applies to them here too.
		if p.ContactEmail == "" && p.Intent != "" && !p.Intent.QualifiesForEnrichment() {
			result.Skipped++
			continue
		}

		p.VerificationStatus = model.VerificationPending
		e.save(ctx, p)

		if err := e.verifier.Verify(ctx, p); err != nil {
			zap.L().Warn("enrich: verification failed",
				zap.String("domain", p.Domain), zap.Error(err))
			result.Failed++
		} else if p.VerificationStatus == model.VerificationVerified {
			if e.autoPromote {
				p.ApprovalStatus = model.ApprovalApproved
				p.AdvanceStage()
			}
			result.Succeeded++
		} else {
			result.Failed++
		}

		e.save(ctx, p)
	}
	return result, nil
}

// Scrape executes one local re-harvest pass over prospects that never got
// an email, using only the harvesting tier. Paid providers are not called.
func (e *Engine) Scrape(ctx context.Context, params model.ScrapeParams) (*model.JobResult, error) {
	prospects, err := e.selectForScrape(ctx, params)
	if err != nil {
		return nil, err
	}

	result := &model.JobResult{}
	for i := range prospects {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		p := &prospects[i]
		result.Executed++

		candidate, err := e.wf.harvester.FindEmail(ctx, p.Domain, p.PageURL)
		if err != nil {
			if ctx.Err() != nil {
				return result, err
			}
			zap.L().Debug("enrich: scrape failed",
				zap.String("domain", p.Domain), zap.Error(err))
		}

		if candidate != nil && p.ApplyEmail(*candidate) {
			result.Succeeded++
		} else {
			if p.ContactEmail == "" {
				p.ScrapeStatus = model.ScrapeNoEmailFound
			}
			result.Failed++
		}
		e.save(ctx, p)
	}
	return result, nil
}

func (e *Engine) selectForScrape(ctx context.Context, params model.ScrapeParams) ([]model.Prospect, error) {
	if len(params.ProspectIDs) > 0 {
		return e.store.ListProspects(ctx, store.ProspectFilter{IDs: params.ProspectIDs, Limit: len(params.ProspectIDs)})
	}

	var out []model.Prospect
	for _, status := range []model.ScrapeStatus{model.ScrapeDiscovered, model.ScrapeFailed, model.ScrapeNoEmailFound} {
		batch, err := e.store.ListProspects(ctx, store.ProspectFilter{
			ScrapeStatus: status,
			Limit:        params.Max,
		})
		if err != nil {
			return nil, err
		}
		out = append(out, batch...)
		if params.Max > 0 && len(out) >= params.Max {
			return out[:params.Max], nil
		}
	}
	return out, nil
}

func (e *Engine) selectForEnrich(ctx context.Context, params model.EnrichParams) ([]model.Prospect, error) {
	if len(params.ProspectIDs) > 0 {
		return e.store.ListProspects(ctx, store.ProspectFilter{IDs: params.ProspectIDs, Limit: len(params.ProspectIDs)})
	}
	filter := store.ProspectFilter{Limit: params.Max}
	if params.OnlyMissingEmails {
		hasEmail := false
		filter.HasEmail = &hasEmail
	}
	return e.store.ListProspects(ctx, filter)
}

// selectForVerify deliberately includes prospects without an email: the
// verifier adopts the first candidate from a fresh domain search for those.
func (e *Engine) selectForVerify(ctx context.Context, params model.VerifyParams) ([]model.Prospect, error) {
	if len(params.ProspectIDs) > 0 {
		return e.store.ListProspects(ctx, store.ProspectFilter{IDs: params.ProspectIDs, Limit: len(params.ProspectIDs)})
	}
	return e.store.ListProspects(ctx, store.ProspectFilter{Limit: params.Max})
}

func (e *Engine) save(ctx context.Context, p *model.Prospect) {
	if err := e.store.SaveProspect(ctx, p); err != nil {
		zap.L().Error("enrich: save prospect",
			zap.String("id", p.ID), zap.String("domain", p.Domain), zap.Error(err))
	}
}
