// Package generate produces candidate texts from a prompt pair,
// substituting reference data into the prompts first.
package generate

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/jmylchreest/textvet/internal/logger"
	"github.com/jmylchreest/textvet/pkg/llm"
	"github.com/jmylchreest/textvet/pkg/placeholder"
)

// Request describes one generation use case invocation.
type Request struct {
	SystemPrompt string  `json:"system_prompt" yaml:"system_prompt"`
	UserPrompt   string  `json:"user_prompt" yaml:"user_prompt" validate:"required"`
	NumSequences int     `json:"num_sequences" yaml:"num_sequences" validate:"min=1"`
	MaxTokens    int     `json:"max_tokens" yaml:"max_tokens" validate:"min=1"`
	Temperature  float64 `json:"temperature" yaml:"temperature" validate:"gt=0,lte=2"`

	// ReferenceData is substituted into both prompts. Placeholders
	// with no matching key are left in place.
	ReferenceData map[string]string `json:"reference_data,omitempty" yaml:"reference_data,omitempty"`

	// StrictPlaceholders rejects the request when a prompt names a
	// placeholder that ReferenceData does not cover.
	StrictPlaceholders bool `json:"strict_placeholders,omitempty" yaml:"strict_placeholders,omitempty"`
}

// Metadata describes how one candidate was produced.
type Metadata struct {
	Model          string    `json:"model"`
	SystemPrompt   string    `json:"system_prompt"`
	UserPrompt     string    `json:"user_prompt"`
	Temperature    float64   `json:"temperature"`
	GenerationTime float64   `json:"generation_time"` // seconds, whole request
	Timestamp      time.Time `json:"timestamp"`
}

// Result is one generated candidate with its metadata.
type Result struct {
	Content       string            `json:"content"`
	Metadata      Metadata          `json:"metadata"`
	ReferenceData map[string]string `json:"reference_data,omitempty"`
}

var validate = validator.New()

// Generator runs the generation use case against one provider.
type Generator struct {
	provider llm.Provider
}

// New creates a Generator.
func New(provider llm.Provider) *Generator {
	return &Generator{provider: provider}
}

// Generate validates the request, substitutes reference data into the
// prompts, and samples the provider once for NumSequences candidates.
func (g *Generator) Generate(ctx context.Context, req Request) ([]Result, error) {
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("invalid generate request: %w", err)
	}
	if req.StrictPlaceholders {
		for _, tmpl := range []string{req.SystemPrompt, req.UserPrompt} {
			if err := placeholder.Require(tmpl, req.ReferenceData); err != nil {
				return nil, fmt.Errorf("invalid generate request: %w", err)
			}
		}
	}

	systemPrompt := placeholder.Substitute(req.SystemPrompt, req.ReferenceData)
	userPrompt := placeholder.Substitute(req.UserPrompt, req.ReferenceData)

	logger.Debug("generating",
		"provider", g.provider.Name(),
		"model", g.provider.Model(),
		"num_sequences", req.NumSequences)

	resp, err := g.provider.Generate(ctx, llm.Request{
		SystemPrompt: systemPrompt,
		UserPrompt:   userPrompt,
		NumSequences: req.NumSequences,
		MaxTokens:    req.MaxTokens,
		Temperature:  req.Temperature,
	})
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	results := make([]Result, 0, len(resp.Candidates))
	for _, content := range resp.Candidates {
		results = append(results, Result{
			Content: content,
			Metadata: Metadata{
				Model:          resp.Model,
				SystemPrompt:   systemPrompt,
				UserPrompt:     userPrompt,
				Temperature:    req.Temperature,
				GenerationTime: resp.Duration.Seconds(),
				Timestamp:      now,
			},
			ReferenceData: req.ReferenceData,
		})
	}

	logger.Info("generation complete",
		"provider", g.provider.Name(),
		"candidates", len(results),
		"input_tokens", resp.Usage.InputTokens,
		"output_tokens", resp.Usage.OutputTokens)

	return results, nil
}
