package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAIProvider implements Provider for the OpenAI chat completions
// API. NumSequences maps directly onto the API's `n` parameter, so a
// whole consensus sample costs a single round trip.
type OpenAIProvider struct {
	client openai.Client
	model  string
	cfg    Config
}

// NewOpenAIProvider creates a new OpenAI provider.
func NewOpenAIProvider(cfg Config) (*OpenAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key required")
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.MaxRetries > 0 {
		opts = append(opts, option.WithMaxRetries(cfg.MaxRetries))
	}

	model := cfg.Model
	if model == "" {
		model = string(openai.ChatModelGPT4oMini)
	}

	return &OpenAIProvider{
		client: openai.NewClient(opts...),
		model:  model,
		cfg:    cfg,
	}, nil
}

// Generate samples req.NumSequences candidates in one API call.
func (p *OpenAIProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	applyRequestDefaults(&req)
	start := time.Now()

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
	if req.SystemPrompt != "" {
		messages = append(messages, openai.SystemMessage(req.SystemPrompt))
	}
	messages = append(messages, openai.UserMessage(req.UserPrompt))

	params := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(p.model),
		Messages:    messages,
		MaxTokens:   openai.Int(int64(req.MaxTokens)),
		Temperature: openai.Float(req.Temperature),
		N:           openai.Int(int64(req.NumSequences)),
	}

	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, &GenerationError{Provider: p.Name(), Err: err}
	}

	candidates := make([]string, 0, len(resp.Choices))
	for _, choice := range resp.Choices {
		candidates = append(candidates, strings.TrimSpace(choice.Message.Content))
	}

	if err := checkCandidateCount(p.Name(), len(candidates), req.NumSequences); err != nil {
		return nil, err
	}

	return &Response{
		Candidates: candidates,
		Model:      resp.Model,
		Usage: Usage{
			InputTokens:  int(resp.Usage.PromptTokens),
			OutputTokens: int(resp.Usage.CompletionTokens),
		},
		Duration: time.Since(start),
	}, nil
}

// Name returns the provider identifier.
func (p *OpenAIProvider) Name() string {
	return "openai"
}

// Model returns the configured model name.
func (p *OpenAIProvider) Model() string {
	return p.model
}

var _ Provider = (*OpenAIProvider)(nil)
