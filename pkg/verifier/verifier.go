package verifier

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jmylchreest/textvet/internal/logger"
	"github.com/jmylchreest/textvet/pkg/llm"
	"github.com/jmylchreest/textvet/pkg/placeholder"
)

// Verifier dispatches verification methods against one generation
// provider and aggregates the outcomes into a report.
type Verifier struct {
	provider    llm.Provider
	concurrency int
	timeout     time.Duration
}

// Option configures a Verifier.
type Option func(*Verifier)

// WithConcurrency bounds how many methods run against the provider at
// once. The provider is the expensive, possibly rate-limited resource;
// default is 1 (strictly sequential).
func WithConcurrency(n int) Option {
	return func(v *Verifier) {
		if n > 0 {
			v.concurrency = n
		}
	}
}

// WithMethodTimeout caps each method's generation call. Zero disables
// the cap.
func WithMethodTimeout(d time.Duration) Option {
	return func(v *Verifier) {
		v.timeout = d
	}
}

// New creates a Verifier using the given generation provider.
func New(provider llm.Provider, opts ...Option) *Verifier {
	v := &Verifier{
		provider:    provider,
		concurrency: 1,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// RunRequest describes one verification run.
type RunRequest struct {
	// Methods are executed in order; results keep this order.
	Methods []Method

	// RequiredConfirmed is the passed-method count needed for the
	// confirmed status. Must be greater than RequiredReview.
	RequiredConfirmed int

	// RequiredReview is the passed-method count needed for the
	// review status. Must be positive.
	RequiredReview int

	// ReferenceData is substituted into every method's prompts
	// before generation. Unknown placeholder tokens are left as-is.
	ReferenceData map[string]string
}

// Run executes every method and aggregates the outcomes.
//
// Methods are independent of each other and are dispatched
// concurrently up to the configured limit; aggregation starts only
// after all of them have completed. A failed eliminatory method is a
// result, not an error, so it never cancels its siblings. A
// generation failure on any method aborts the whole run: no report is
// returned and completed sibling results are discarded.
func (v *Verifier) Run(ctx context.Context, req RunRequest) (*Report, error) {
	if err := v.validateRequest(req); err != nil {
		return nil, err
	}

	start := time.Now()
	results := make([]MethodResult, len(req.Methods))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(v.concurrency)

	for i, method := range req.Methods {
		g.Go(func() error {
			m := method
			m.SystemPrompt = placeholder.Substitute(m.SystemPrompt, req.ReferenceData)
			m.UserPrompt = placeholder.Substitute(m.UserPrompt, req.ReferenceData)

			result, err := RunMethod(gctx, m, v.ask(m))
			if err != nil {
				return err
			}
			results[i] = result
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		logger.Error("verification run aborted", "error", err)
		return nil, err
	}

	report := Aggregate(results, req.RequiredConfirmed, req.RequiredReview)
	report.ExecutionTime = time.Since(start).Seconds()

	logger.Info("verification complete",
		"methods", len(results),
		"final_status", report.FinalStatus,
		"success_rate", report.SuccessRate,
		"execution_time", report.ExecutionTime)

	return report, nil
}

// ask adapts the provider into the runner's ask capability, carrying
// the method's sampling parameters and the per-method timeout.
func (v *Verifier) ask(m Method) AskFunc {
	return func(ctx context.Context, systemPrompt, userPrompt string, numSequences int) ([]string, error) {
		if v.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, v.timeout)
			defer cancel()
		}

		resp, err := v.provider.Generate(ctx, llm.Request{
			SystemPrompt: systemPrompt,
			UserPrompt:   userPrompt,
			NumSequences: numSequences,
			MaxTokens:    m.MaxTokens,
			Temperature:  m.Temperature,
		})
		if err != nil {
			return nil, err
		}
		return resp.Candidates, nil
	}
}

func (v *Verifier) validateRequest(req RunRequest) error {
	if _, err := checkMethods(req.Methods); err != nil {
		return err
	}
	if req.RequiredReview <= 0 {
		return validationErrorf("required_review must be positive, got %d", req.RequiredReview)
	}
	if req.RequiredConfirmed <= req.RequiredReview {
		return validationErrorf("required_confirmed (%d) must be greater than required_review (%d)",
			req.RequiredConfirmed, req.RequiredReview)
	}
	return nil
}
