package discovery

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/outreach-cli/internal/model"
	"github.com/sells-group/outreach-cli/internal/store"
	"github.com/sells-group/outreach-cli/pkg/dataforseo"
)

// Config tunes one discovery engine.
type Config struct {
	// MaxQueries caps generated queries per job; zero applies the default.
	MaxQueries int
	// Depth is the SERP result depth per query.
	Depth int
	// Language is the SERP language code.
	Language string
	// Device is the SERP device parameter.
	Device string
}

// Engine executes discovery jobs: generate queries, run them through the
// SERP provider, classify results, and persist new prospects.
type Engine struct {
	store    store.Store
	serp     dataforseo.Client
	limiter  *rate.Limiter
	cfg      Config
	pollOpts []dataforseo.PollOption
}

// Option configures the engine.
type Option func(*Engine)

// WithPollOptions overrides SERP polling behavior (for testing).
func WithPollOptions(opts ...dataforseo.PollOption) Option {
	return func(e *Engine) { e.pollOpts = opts }
}

// WithPacing overrides the inter-query pacing limiter (for testing).
func WithPacing(l *rate.Limiter) Option {
	return func(e *Engine) { e.limiter = l }
}

// NewEngine creates a discovery engine. Queries are paced at one per second
// to respect provider limits.
func NewEngine(st store.Store, serp dataforseo.Client, cfg Config, opts ...Option) *Engine {
	if cfg.Depth <= 0 {
		cfg.Depth = 20
	}
	if cfg.Language == "" {
		cfg.Language = "en"
	}
	if cfg.Device == "" {
		cfg.Device = "desktop"
	}
	e := &Engine{
		store:   st,
		serp:    serp,
		limiter: rate.NewLimiter(rate.Every(time.Second), 1),
		cfg:     cfg,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run executes one discovery job. Zero generable queries is a job-level
// error; individual query failures are counted and the run continues.
func (e *Engine) Run(ctx context.Context, jobID string, params model.DiscoverParams) (*model.JobResult, error) {
	queries := GenerateQueries(params.Keywords, params.Categories, params.Locations, e.cfg.MaxQueries)
	if len(queries) == 0 {
		return nil, eris.Errorf(
			"discover: no queries generated from %d keywords, %d categories, %d locations",
			len(params.Keywords), len(params.Categories), len(params.Locations))
	}

	log := zap.L().With(zap.String("job_id", jobID))
	log.Info("discovery run starting", zap.Int("queries", len(queries)))

	result := &model.JobResult{Detail: map[string]any{}}
	seen := make(map[string]bool)
	var found, dupes, existing, saved int

	for _, q := range queries {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if params.MaxResults > 0 && saved >= params.MaxResults {
			result.Skipped++
			continue
		}
		if err := e.limiter.Wait(ctx); err != nil {
			return result, err
		}
		result.Executed++

		row := &model.DiscoveryQuery{
			ID:        uuid.NewString(),
			JobID:     jobID,
			Keyword:   q.Term,
			Location:  q.Location,
			Category:  q.Category,
			Status:    model.QueryRunning,
			CreatedAt: time.Now().UTC(),
		}
		if err := e.store.CreateQuery(ctx, row); err != nil {
			return result, err
		}

		organic, err := e.search(ctx, q)
		if err != nil {
			if ctx.Err() != nil {
				return result, err
			}
			log.Warn("query failed",
				zap.String("query", q.SearchString()), zap.Error(err))
			row.Status = model.QueryFailed
			e.completeQuery(ctx, row)
			result.Failed++
			continue
		}

		budget := -1
		if params.MaxResults > 0 {
			budget = params.MaxResults - saved
		}
		prospects := e.collect(organic, seen, budget, row)
		found += row.ResultsFound
		dupes += row.ResultsDupe

		if len(prospects) > 0 {
			inserted, err := e.store.InsertProspects(ctx, prospects)
			if err != nil {
				log.Error("insert prospects failed",
					zap.String("query", q.SearchString()), zap.Error(err))
				row.Status = model.QueryFailed
				e.completeQuery(ctx, row)
				result.Failed++
				continue
			}
			// Rows the insert skipped were already in the store.
			row.ResultsExisting = len(prospects) - inserted
			row.ResultsSaved = inserted
			existing += row.ResultsExisting
			saved += inserted
		}

		row.Status = model.QueryCompleted
		e.completeQuery(ctx, row)
		result.Succeeded++
	}

	result.Detail["prospects_found"] = found
	result.Detail["prospects_duplicate"] = dupes
	result.Detail["prospects_existing"] = existing
	result.Detail["prospects_saved"] = saved

	log.Info("discovery run complete",
		zap.Int("queries_succeeded", result.Succeeded),
		zap.Int("queries_failed", result.Failed),
		zap.Int("prospects_saved", saved),
	)
	return result, nil
}

// search runs one query through the provider's two-phase task protocol.
func (e *Engine) search(ctx context.Context, q Query) ([]dataforseo.OrganicResult, error) {
	code, ok := dataforseo.LocationCode(q.Location)
	if !ok {
		zap.L().Debug("unknown location, using default code",
			zap.String("location", q.Location))
	}

	taskID, err := e.serp.TaskPost(ctx, dataforseo.TaskRequest{
		Keyword:      q.SearchString(),
		LocationCode: code,
		LanguageCode: e.cfg.Language,
		Depth:        e.cfg.Depth,
		Device:       e.cfg.Device,
	})
	if err != nil {
		return nil, err
	}

	task, err := dataforseo.PollTask(ctx, e.serp, taskID, e.pollOpts...)
	if err != nil {
		return nil, err
	}
	return task.Organic, nil
}

// collect converts organic results into new prospects, applying per-run
// first-wins domain dedup and the remaining save budget. Counters are
// accumulated on the query row.
func (e *Engine) collect(organic []dataforseo.OrganicResult, seen map[string]bool, budget int, row *model.DiscoveryQuery) []model.Prospect {
	var prospects []model.Prospect
	for _, item := range organic {
		domain := model.NormalizeDomain(item.Domain)
		if domain == "" {
			domain = model.NormalizeDomain(item.URL)
		}
		if domain == "" {
			continue
		}
		row.ResultsFound++

		if seen[domain] {
			row.ResultsDupe++
			continue
		}
		seen[domain] = true

		if budget >= 0 && len(prospects) >= budget {
			continue
		}

		verdict := ClassifyIntent(domain, item.URL, item.Title, item.Description)

		p := model.NewProspect(uuid.NewString(), domain)
		p.PageURL = item.URL
		p.Name = item.Title
		p.DiscoveryStatus = model.DiscoveryDiscovered
		p.Intent = verdict.Intent
		p.IntentConfidence = verdict.Confidence
		if !verdict.Intent.QualifiesForEnrichment() {
			// Stored for the record, never sent to paid enrichment.
			p.ContactMethod = model.MethodSkippedIntent
		}
		if raw, err := json.Marshal(item); err == nil {
			p.DiscoveryRaw = raw
		}
		prospects = append(prospects, *p)
	}
	return prospects
}

func (e *Engine) completeQuery(ctx context.Context, row *model.DiscoveryQuery) {
	if err := e.store.CompleteQuery(ctx, row); err != nil {
		zap.L().Error("complete query failed",
			zap.String("query_id", row.ID), zap.Error(err))
	}
}
