package draft

import (
	"context"

	"github.com/rotisserie/eris"
	openai "github.com/sashabaranov/go-openai"
)

// OpenAIConfig configures the OpenAI-backed generator.
type OpenAIConfig struct {
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float64
}

type openaiGenerator struct {
	client *openai.Client
	cfg    OpenAIConfig
}

// NewOpenAI creates a draft generator backed by the OpenAI API.
func NewOpenAI(cfg OpenAIConfig) Generator {
	if cfg.Model == "" {
		cfg.Model = openai.GPT4oMini
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 1024
	}
	return &openaiGenerator{
		client: openai.NewClient(cfg.APIKey),
		cfg:    cfg,
	}
}

func (g *openaiGenerator) Generate(ctx context.Context, req Request) (*Draft, error) {
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       g.cfg.Model,
		MaxTokens:   g.cfg.MaxTokens,
		Temperature: float32(g.cfg.Temperature),
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildUserPrompt(req)},
		},
	})
	if err != nil {
		return nil, eris.Wrap(err, "draft: openai generate")
	}
	if len(resp.Choices) == 0 {
		return nil, eris.New("draft: openai returned no choices")
	}

	d, err := parseDraft(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, eris.Wrap(err, "draft: openai output")
	}
	return d, nil
}
