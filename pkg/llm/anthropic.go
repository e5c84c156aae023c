package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicProvider implements Provider against the Anthropic Messages
// API. The API returns a single completion per call, so NumSequences is
// satisfied by issuing that many requests back to back.
type AnthropicProvider struct {
	client anthropic.Client
	model  string
	cfg    Config
}

// NewAnthropicProvider creates a new Anthropic provider.
func NewAnthropicProvider(cfg Config) (*AnthropicProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic API key required")
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
	}
	if cfg.MaxRetries > 0 {
		opts = append(opts, option.WithMaxRetries(cfg.MaxRetries))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	model := cfg.Model
	if model == "" {
		model = string(anthropic.ModelClaudeSonnet4_20250514)
	}

	return &AnthropicProvider{
		client: anthropic.NewClient(opts...),
		model:  model,
		cfg:    cfg,
	}, nil
}

// Generate samples req.NumSequences candidates from the model.
func (p *AnthropicProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	applyRequestDefaults(&req)
	start := time.Now()

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: int64(req.MaxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.UserPrompt)),
		},
		Temperature: anthropic.Float(req.Temperature),
	}
	if req.SystemPrompt != "" {
		params.System = []anthropic.TextBlockParam{
			{Text: req.SystemPrompt},
		}
	}

	candidates := make([]string, 0, req.NumSequences)
	var usage Usage
	var model string

	for i := 0; i < req.NumSequences; i++ {
		msg, err := p.client.Messages.New(ctx, params)
		if err != nil {
			return nil, &GenerationError{Provider: p.Name(), Err: err}
		}

		var sb strings.Builder
		for _, block := range msg.Content {
			if block.Type == "text" {
				sb.WriteString(block.Text)
			}
		}
		candidates = append(candidates, strings.TrimSpace(sb.String()))

		usage.InputTokens += int(msg.Usage.InputTokens)
		usage.OutputTokens += int(msg.Usage.OutputTokens)
		model = string(msg.Model)
	}

	if err := checkCandidateCount(p.Name(), len(candidates), req.NumSequences); err != nil {
		return nil, err
	}

	return &Response{
		Candidates: candidates,
		Model:      model,
		Usage:      usage,
		Duration:   time.Since(start),
	}, nil
}

// Name returns the provider identifier.
func (p *AnthropicProvider) Name() string {
	return "anthropic"
}

// Model returns the configured model name.
func (p *AnthropicProvider) Model() string {
	return p.model
}

var _ Provider = (*AnthropicProvider)(nil)
