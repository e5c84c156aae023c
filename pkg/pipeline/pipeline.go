// Package pipeline chains generate, parse, and verify steps, feeding
// each step's output items into the next.
package pipeline

import (
	"context"
	"fmt"

	"github.com/jmylchreest/textvet/internal/logger"
	"github.com/jmylchreest/textvet/pkg/generate"
	"github.com/jmylchreest/textvet/pkg/llm"
	"github.com/jmylchreest/textvet/pkg/parser"
	"github.com/jmylchreest/textvet/pkg/verifier"
)

// StepType names the kind of work a step performs.
type StepType string

const (
	StepGenerate StepType = "generate"
	StepParse    StepType = "parse"
	StepVerify   StepType = "verify"
)

// Step is one pipeline stage. Exactly the params block matching Type
// must be present.
type Step struct {
	Type     StepType        `json:"type" yaml:"type" validate:"required,oneof=generate parse verify"`
	Generate *GenerateParams `json:"generate,omitempty" yaml:"generate,omitempty"`
	Parse    *ParseParams    `json:"parse,omitempty" yaml:"parse,omitempty"`
	Verify   *VerifyParams   `json:"verify,omitempty" yaml:"verify,omitempty"`
}

// GenerateParams configures a generate step. The step runs once per
// incoming item (the item's text is available as the {input}
// placeholder), or exactly once when it opens the pipeline.
type GenerateParams struct {
	SystemPrompt string  `json:"system_prompt" yaml:"system_prompt"`
	UserPrompt   string  `json:"user_prompt" yaml:"user_prompt"`
	NumSequences int     `json:"num_sequences" yaml:"num_sequences"`
	MaxTokens    int     `json:"max_tokens" yaml:"max_tokens"`
	Temperature  float64 `json:"temperature" yaml:"temperature"`
}

// ParseParams configures a parse step applied to each incoming text.
type ParseParams struct {
	Rules  []parser.Rule       `json:"rules" yaml:"rules"`
	Filter parser.OutputFilter `json:"output_filter" yaml:"output_filter"`
	Limit  int                 `json:"output_limit" yaml:"output_limit"`
}

// VerifyParams configures a verify step applied to each incoming item.
// Parsed record fields act as reference data for the method prompts;
// plain texts are exposed as {input}.
type VerifyParams struct {
	Methods           []verifier.Method `json:"methods" yaml:"methods"`
	RequiredConfirmed int               `json:"required_for_confirmed" yaml:"required_for_confirmed"`
	RequiredReview    int               `json:"required_for_review" yaml:"required_for_review"`
}

// Item is one unit of data flowing between steps. Generate steps set
// Text, parse steps set Record, and verify steps attach a Report to
// whatever they received.
type Item struct {
	Text   string            `json:"text,omitempty"`
	Record map[string]string `json:"record,omitempty"`
	Report *verifier.Report  `json:"report,omitempty"`
}

// StepResult pairs a step with the items it produced.
type StepResult struct {
	Type  StepType `json:"step_type"`
	Items []Item   `json:"items"`
}

// Pipeline executes step sequences against one generation provider.
type Pipeline struct {
	provider llm.Provider
	verify   *verifier.Verifier
	gen      *generate.Generator
}

// New creates a Pipeline. Verifier options (concurrency, timeouts)
// apply to every verify step.
func New(provider llm.Provider, opts ...verifier.Option) *Pipeline {
	return &Pipeline{
		provider: provider,
		verify:   verifier.New(provider, opts...),
		gen:      generate.New(provider),
	}
}

// Run executes the steps in order. referenceData is available to the
// first step's prompts; later steps see the previous step's output.
// The first failing step aborts the run.
func (p *Pipeline) Run(ctx context.Context, steps []Step, referenceData map[string]string) ([]StepResult, error) {
	if len(steps) == 0 {
		return nil, fmt.Errorf("pipeline has no steps")
	}

	var results []StepResult
	var current []Item

	for i, step := range steps {
		logger.Info("pipeline step", "step", i+1, "type", step.Type)

		var (
			items []Item
			err   error
		)
		switch step.Type {
		case StepGenerate:
			items, err = p.runGenerate(ctx, step, current, referenceData, i == 0)
		case StepParse:
			items, err = p.runParse(step, current)
		case StepVerify:
			items, err = p.runVerify(ctx, step, current, referenceData)
		default:
			err = fmt.Errorf("unknown step type %q", step.Type)
		}
		if err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i+1, step.Type, err)
		}

		results = append(results, StepResult{Type: step.Type, Items: items})
		current = items
	}

	return results, nil
}

func (p *Pipeline) runGenerate(ctx context.Context, step Step, input []Item, refData map[string]string, first bool) ([]Item, error) {
	if step.Generate == nil {
		return nil, fmt.Errorf("missing generate params")
	}

	// Without input the step runs once; with input it runs once per
	// item, exposing the item's text as {input}.
	datas := []map[string]string{refData}
	if !first && len(input) > 0 {
		datas = datas[:0]
		for _, item := range input {
			datas = append(datas, mergeData(refData, map[string]string{"input": item.Text}))
		}
	}

	params := *step.Generate
	if params.NumSequences == 0 {
		params.NumSequences = 1
	}
	if params.MaxTokens == 0 {
		params.MaxTokens = 256
	}
	if params.Temperature == 0 {
		params.Temperature = 1.0
	}

	var out []Item
	for _, data := range datas {
		results, err := p.gen.Generate(ctx, generate.Request{
			SystemPrompt:  params.SystemPrompt,
			UserPrompt:    params.UserPrompt,
			NumSequences:  params.NumSequences,
			MaxTokens:     params.MaxTokens,
			Temperature:   params.Temperature,
			ReferenceData: data,
		})
		if err != nil {
			return nil, err
		}
		for _, r := range results {
			out = append(out, Item{Text: r.Content})
		}
	}
	return out, nil
}

func (p *Pipeline) runParse(step Step, input []Item) ([]Item, error) {
	if step.Parse == nil {
		return nil, fmt.Errorf("missing parse params")
	}
	if len(input) == 0 {
		return nil, fmt.Errorf("parse step needs generated text input")
	}

	var out []Item
	for _, item := range input {
		records, err := parser.Extract(item.Text, step.Parse.Rules, parser.Options{
			Filter: step.Parse.Filter,
			Limit:  step.Parse.Limit,
		})
		if err != nil {
			return nil, err
		}
		for _, rec := range records {
			out = append(out, Item{Record: rec.Map()})
		}
	}
	return out, nil
}

func (p *Pipeline) runVerify(ctx context.Context, step Step, input []Item, refData map[string]string) ([]Item, error) {
	if step.Verify == nil {
		return nil, fmt.Errorf("missing verify params")
	}
	if len(input) == 0 {
		return nil, fmt.Errorf("verify step needs input items")
	}

	var out []Item
	for _, item := range input {
		data := item.Record
		if data == nil {
			data = map[string]string{"input": item.Text}
		}

		report, err := p.verify.Run(ctx, verifier.RunRequest{
			Methods:           step.Verify.Methods,
			RequiredConfirmed: step.Verify.RequiredConfirmed,
			RequiredReview:    step.Verify.RequiredReview,
			ReferenceData:     mergeData(refData, data),
		})
		if err != nil {
			return nil, err
		}
		out = append(out, Item{Record: item.Record, Report: report})
	}
	return out, nil
}

func mergeData(base, overlay map[string]string) map[string]string {
	merged := make(map[string]string, len(base)+len(overlay))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range overlay {
		merged[k] = v
	}
	return merged
}
