package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/outreach-cli/internal/compose"
	"github.com/sells-group/outreach-cli/internal/discovery"
	"github.com/sells-group/outreach-cli/internal/enrich"
	"github.com/sells-group/outreach-cli/internal/harvest"
	"github.com/sells-group/outreach-cli/internal/jobs"
	"github.com/sells-group/outreach-cli/internal/model"
	"github.com/sells-group/outreach-cli/internal/resilience"
	"github.com/sells-group/outreach-cli/internal/send"
	"github.com/sells-group/outreach-cli/internal/store"
	"github.com/sells-group/outreach-cli/pkg/dataforseo"
	"github.com/sells-group/outreach-cli/pkg/draft"
	"github.com/sells-group/outreach-cli/pkg/gmail"
	"github.com/sells-group/outreach-cli/pkg/hunter"
	"github.com/sells-group/outreach-cli/pkg/snov"
)

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "outreach.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, nil)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

func initDiscovery(st store.Store) *discovery.Engine {
	serp := dataforseo.NewClient(cfg.DataForSEO.Login, cfg.DataForSEO.Password,
		dataforseo.WithBaseURL(cfg.DataForSEO.BaseURL))

	pacing := rate.NewLimiter(rate.Every(time.Duration(cfg.Discovery.QueryPacingMs)*time.Millisecond), 1)

	return discovery.NewEngine(st, serp, discovery.Config{
		MaxQueries: cfg.Discovery.MaxQueries,
		Depth:      cfg.DataForSEO.Depth,
		Language:   cfg.DataForSEO.Language,
		Device:     cfg.DataForSEO.Device,
	},
		discovery.WithPacing(pacing),
		discovery.WithPollOptions(
			dataforseo.WithMaxAttempts(cfg.Discovery.PollMaxAttempts),
			dataforseo.WithPreDelay(time.Duration(cfg.Discovery.PollPreDelaySecs)*time.Second),
		),
	)
}

func waterfallConfig() (enrich.Config, error) {
	if cfg.Enrich.WaterfallConfig != "" {
		return enrich.LoadConfig(cfg.Enrich.WaterfallConfig)
	}
	wfCfg := enrich.DefaultConfig()
	if len(cfg.Enrich.Providers) > 0 {
		wfCfg.Providers = cfg.Enrich.Providers
	}
	if cfg.Enrich.PatternBudget > 0 {
		wfCfg.MaxPatternAttempts = cfg.Enrich.PatternBudget
	}
	return wfCfg, nil
}

func buildProviders(names []string) ([]enrich.Provider, error) {
	providers := make([]enrich.Provider, 0, len(names))
	for _, name := range names {
		switch name {
		case "snov":
			client := snov.NewClient(cfg.Snov.ClientID, cfg.Snov.ClientSecret,
				snov.WithBaseURL(cfg.Snov.BaseURL))
			providers = append(providers, enrich.NewSnovProvider(client))
		case "hunter":
			client := hunter.NewClient(cfg.Hunter.APIKey,
				hunter.WithBaseURL(cfg.Hunter.BaseURL))
			providers = append(providers, enrich.NewHunterProvider(client))
		default:
			return nil, eris.Errorf("unknown enrichment provider: %s", name)
		}
	}
	return providers, nil
}

func initEnrichEngine(st store.Store) (*enrich.Engine, error) {
	wfCfg, err := waterfallConfig()
	if err != nil {
		return nil, err
	}

	providers, err := buildProviders(wfCfg.Providers)
	if err != nil {
		return nil, err
	}

	limiters := resilience.NewProviderLimiters(cfg.Enrich.RateLimitPerMin, time.Minute)
	breakers := resilience.NewProviderBreakers(resilience.DefaultCircuitBreakerConfig())
	harvester := harvest.New(harvest.WithMaxPages(wfCfg.HarvestMaxPages))

	wf := enrich.NewWaterfall(providers, harvester, limiters, breakers, wfCfg)

	var verifier *enrich.Verifier
	if len(providers) > 0 {
		verifier = enrich.NewVerifier(providers[0])
	}

	opts := []enrich.EngineOption{enrich.WithConcurrency(cfg.Enrich.MaxConcurrent)}
	if cfg.Enrich.AutoPromote {
		opts = append(opts, enrich.WithAutoPromote())
	}
	return enrich.NewEngine(st, wf, verifier, opts...), nil
}

func initGenerator() (draft.Generator, error) {
	switch cfg.Draft.Provider {
	case "anthropic":
		return draft.NewAnthropic(draft.AnthropicConfig{
			APIKey:      cfg.Draft.AnthropicKey,
			Model:       cfg.Draft.AnthropicModel,
			MaxTokens:   cfg.Draft.MaxTokens,
			Temperature: cfg.Draft.Temperature,
		}), nil
	case "openai":
		return draft.NewOpenAI(draft.OpenAIConfig{
			APIKey:      cfg.Draft.OpenAIKey,
			Model:       cfg.Draft.OpenAIModel,
			MaxTokens:   cfg.Draft.MaxTokens,
			Temperature: cfg.Draft.Temperature,
		}), nil
	default:
		return nil, eris.Errorf("unknown draft provider: %s", cfg.Draft.Provider)
	}
}

func initComposer(st store.Store) (*compose.Composer, error) {
	generator, err := initGenerator()
	if err != nil {
		return nil, err
	}
	return compose.NewComposer(st, generator, compose.Sender{
		Name:    cfg.Draft.SenderName,
		Company: cfg.Draft.SenderCompany,
	}), nil
}

func initSender() (send.Sender, error) {
	switch cfg.Send.Provider {
	case "gmail":
		if cfg.Gmail.FromAddress == "" {
			return nil, eris.New("gmail from address is required (OUTREACH_GMAIL_FROM_ADDRESS)")
		}
		client := gmail.NewClient(gmail.Config{
			AccessToken:  cfg.Gmail.AccessToken,
			RefreshToken: cfg.Gmail.RefreshToken,
			ClientID:     cfg.Gmail.ClientID,
			ClientSecret: cfg.Gmail.ClientSecret,
			BaseURL:      cfg.Gmail.BaseURL,
			TokenURL:     cfg.Gmail.TokenURL,
		})
		return send.NewGmailSender(client, cfg.Gmail.FromAddress), nil
	case "sendgrid":
		if cfg.SendGrid.FromAddress == "" {
			return nil, eris.New("sendgrid from address is required (OUTREACH_SENDGRID_FROM_ADDRESS)")
		}
		return send.NewSendGridSender(cfg.SendGrid.APIKey, cfg.SendGrid.FromAddress, cfg.SendGrid.FromName), nil
	default:
		return nil, eris.Errorf("unknown send provider: %s", cfg.Send.Provider)
	}
}

// initRunner builds the job runner with every pipeline stage registered.
func initRunner(st store.Store) (*jobs.Runner, error) {
	enrichEngine, err := initEnrichEngine(st)
	if err != nil {
		return nil, err
	}
	composer, err := initComposer(st)
	if err != nil {
		return nil, err
	}
	sender, err := initSender()
	if err != nil {
		return nil, err
	}

	discoveryEngine := initDiscovery(st)
	sendStage := send.NewStage(st, sender,
		send.WithPacing(time.Duration(cfg.Send.PacingSecs)*time.Second),
		send.WithSendCap(cfg.Send.MaxPerDay))

	runner := jobs.NewRunner(st, time.Duration(cfg.Jobs.TimeoutHours)*time.Hour)
	runner.Register(model.JobDiscover, func(ctx context.Context, job *model.Job, params model.JobParams) (*model.JobResult, error) {
		return discoveryEngine.Run(ctx, job.ID, params.(model.DiscoverParams))
	})
	runner.Register(model.JobEnrich, func(ctx context.Context, _ *model.Job, params model.JobParams) (*model.JobResult, error) {
		return enrichEngine.Run(ctx, params.(model.EnrichParams))
	})
	runner.Register(model.JobVerify, func(ctx context.Context, _ *model.Job, params model.JobParams) (*model.JobResult, error) {
		return enrichEngine.Verify(ctx, params.(model.VerifyParams))
	})
	runner.Register(model.JobScrape, func(ctx context.Context, _ *model.Job, params model.JobParams) (*model.JobResult, error) {
		return enrichEngine.Scrape(ctx, params.(model.ScrapeParams))
	})
	runner.Register(model.JobCompose, func(ctx context.Context, _ *model.Job, params model.JobParams) (*model.JobResult, error) {
		return composer.Run(ctx, params.(model.ComposeParams))
	})
	runner.Register(model.JobSend, func(ctx context.Context, _ *model.Job, params model.JobParams) (*model.JobResult, error) {
		return sendStage.Run(ctx, params.(model.SendParams))
	})
	return runner, nil
}
