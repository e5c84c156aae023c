package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// OllamaProvider talks to a local Ollama instance. It is the
// self-hosted counterpart to the hosted providers: no API key, and the
// chat endpoint returns one completion per call, so NumSequences is
// satisfied by repeated requests.
type OllamaProvider struct {
	baseURL string
	model   string
	client  *http.Client
}

// NewOllamaProvider creates a new Ollama provider.
func NewOllamaProvider(cfg Config) (*OllamaProvider, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}

	model := cfg.Model
	if model == "" {
		model = "llama3.2"
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 120 * time.Second
	}

	return &OllamaProvider{
		baseURL: baseURL,
		model:   model,
		client:  &http.Client{Timeout: timeout},
	}, nil
}

type ollamaRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Options  ollamaOptions   `json:"options"`
}

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature,omitempty"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type ollamaResponse struct {
	Model           string        `json:"model"`
	Message         ollamaMessage `json:"message"`
	Done            bool          `json:"done"`
	PromptEvalCount int           `json:"prompt_eval_count"`
	EvalCount       int           `json:"eval_count"`
}

// Generate samples req.NumSequences candidates from the local model.
func (p *OllamaProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	applyRequestDefaults(&req)
	start := time.Now()

	messages := make([]ollamaMessage, 0, 2)
	if req.SystemPrompt != "" {
		messages = append(messages, ollamaMessage{Role: "system", Content: req.SystemPrompt})
	}
	messages = append(messages, ollamaMessage{Role: "user", Content: req.UserPrompt})

	body, err := json.Marshal(ollamaRequest{
		Model:    p.model,
		Messages: messages,
		Stream:   false,
		Options: ollamaOptions{
			Temperature: req.Temperature,
			NumPredict:  req.MaxTokens,
		},
	})
	if err != nil {
		return nil, &GenerationError{Provider: p.Name(), Err: err}
	}

	candidates := make([]string, 0, req.NumSequences)
	var usage Usage
	var model string

	for i := 0; i < req.NumSequences; i++ {
		resp, err := p.chat(ctx, body)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, strings.TrimSpace(resp.Message.Content))
		usage.InputTokens += resp.PromptEvalCount
		usage.OutputTokens += resp.EvalCount
		model = resp.Model
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

func (p *OllamaProvider) chat(ctx context.Context, body []byte) (*ollamaResponse, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, &GenerationError{Provider: p.Name(), Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, &GenerationError{Provider: p.Name(), Err: err}
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(httpResp.Body, 1024))
		return nil, generationErrorf(p.Name(), "ollama returned %d: %s",
			httpResp.StatusCode, strings.TrimSpace(string(data)))
	}

	var resp ollamaResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return nil, &GenerationError{Provider: p.Name(), Err: fmt.Errorf("decode response: %w", err)}
	}
	return &resp, nil
}

// Name returns the provider identifier.
func (p *OllamaProvider) Name() string {
	return "ollama"
}

// Model returns the configured model name.
func (p *OllamaProvider) Model() string {
	return p.model
}

var _ Provider = (*OllamaProvider)(nil)
