// Package llm provides the text generation port used by textvet.
//
// A Provider turns one prompt pair into a fixed number of candidate
// strings. The sampling itself is non-deterministic and entirely the
// provider's business; callers only rely on receiving exactly the
// number of candidates they asked for.
package llm

import (
	"context"
	"time"
)

// Request describes one generation call.
type Request struct {
	// SystemPrompt carries system-level instructions for the model.
	SystemPrompt string

	// UserPrompt is the user-facing prompt.
	UserPrompt string

	// NumSequences is the number of candidate strings to produce.
	// Must be >= 1. A provider that cannot produce this many
	// candidates fails with a *GenerationError.
	NumSequences int

	// MaxTokens limits each candidate's length (default: 256).
	MaxTokens int

	// Temperature is the sampling temperature (default: 1.0).
	Temperature float64
}

// Usage tracks token consumption across all sequences of a request.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// Response is the result of one generation call.
type Response struct {
	// Candidates holds exactly Request.NumSequences generated strings,
	// in the order the provider produced them.
	Candidates []string

	// Model is the model that actually served the request.
	Model string

	Usage    Usage
	Duration time.Duration
}

// Provider is the generation port. All backends implement it.
type Provider interface {
	// Generate runs one sampling request and returns the candidates.
	// It fails with a *GenerationError on timeout, backend failure,
	// or a malformed candidate count.
	Generate(ctx context.Context, req Request) (*Response, error)

	// Name returns the provider identifier (e.g. "anthropic").
	Name() string

	// Model returns the configured model name.
	Model() string
}

// Config holds common provider configuration.
type Config struct {
	APIKey     string
	BaseURL    string // custom endpoint, if any
	Model      string
	MaxRetries int
	Timeout    time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxRetries: 2,
		Timeout:    120 * time.Second,
	}
}

func applyRequestDefaults(req *Request) {
	if req.NumSequences < 1 {
		req.NumSequences = 1
	}
	if req.MaxTokens <= 0 {
		req.MaxTokens = 256
	}
	if req.Temperature == 0 {
		req.Temperature = 1.0
	}
}
