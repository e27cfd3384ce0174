package draft

import (
	"context"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"
)

// Generator produces a draft for one prospect.
type Generator interface {
	Generate(ctx context.Context, req Request) (*Draft, error)
}

// AnthropicConfig configures the Anthropic-backed generator.
type AnthropicConfig struct {
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float64
}

type anthropicGenerator struct {
	client sdk.Client
	cfg    AnthropicConfig
}

// NewAnthropic creates a draft generator backed by the Anthropic API.
func NewAnthropic(cfg AnthropicConfig) Generator {
	if cfg.Model == "" {
		cfg.Model = "claude-haiku-4-5-20251001"
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 1024
	}
	return &anthropicGenerator{
		client: sdk.NewClient(option.WithAPIKey(cfg.APIKey)),
		cfg:    cfg,
	}
}

func (g *anthropicGenerator) Generate(ctx context.Context, req Request) (*Draft, error) {
	params := sdk.MessageNewParams{
		Model:     sdk.Model(g.cfg.Model),
		MaxTokens: int64(g.cfg.MaxTokens),
		System:    []sdk.TextBlockParam{{Text: systemPrompt}},
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(buildUserPrompt(req))),
		},
	}
	if g.cfg.Temperature > 0 {
		params.Temperature = sdk.Float(g.cfg.Temperature)
	}

	msg, err := g.client.Messages.New(ctx, params)
	if err != nil {
		return nil, eris.Wrap(err, "draft: anthropic generate")
	}

	var text string
	for _, block := range msg.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}

	d, err := parseDraft(text)
	if err != nil {
		return nil, eris.Wrap(err, "draft: anthropic output")
	}
	return d, nil
}
