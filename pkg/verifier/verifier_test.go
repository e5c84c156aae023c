package verifier

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jmylchreest/textvet/pkg/llm"
)

// fakeProvider serves canned candidates keyed by user prompt.
type fakeProvider struct {
	mu        sync.Mutex
	responses map[string][]string
	failOn    string // user prompt that triggers a generation error
	calls     int
}

func (p *fakeProvider) Generate(ctx context.Context, req llm.Request) (*llm.Response, error) {
	p.mu.Lock()
	p.calls++
	p.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, &llm.GenerationError{Provider: p.Name(), Err: err}
	}
	if p.failOn != "" && req.UserPrompt == p.failOn {
		return nil, &llm.GenerationError{Provider: p.Name(), Err: errors.New("model unavailable")}
	}

	candidates, ok := p.responses[req.UserPrompt]
	if !ok {
		candidates = make([]string, req.NumSequences)
	}
	return &llm.Response{Candidates: candidates, Model: "fake"}, nil
}

func (p *fakeProvider) Name() string  { return "fake" }
func (p *fakeProvider) Model() string { return "fake" }

func twoMethodRequest() RunRequest {
	return RunRequest{
		Methods: []Method{
			{
				Name:            "CheckPalabraClave",
				Mode:            ModeCumulative,
				UserPrompt:      "keyword?",
				ValidResponses:  []string{"Yes"},
				NumSequences:    3,
				RequiredMatches: 2,
			},
			{
				Name:            "CheckRespuestaFormal",
				Mode:            ModeEliminatory,
				UserPrompt:      "formal?",
				ValidResponses:  []string{"Yes"},
				NumSequences:    2,
				RequiredMatches: 2,
			},
		},
		RequiredConfirmed: 2,
		RequiredReview:    1,
	}
}

func TestRun_EliminatoryFailureDiscardsButReportsAll(t *testing.T) {
	provider := &fakeProvider{
		responses: map[string][]string{
			"keyword?": {"Yes", "Yes", "Yes"},
			"formal?":  {"No", "No"},
		},
	}

	report, err := New(provider).Run(context.Background(), twoMethodRequest())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if report.FinalStatus != StatusDiscarded {
		t.Errorf("final_status = %s, want %s", report.FinalStatus, StatusDiscarded)
	}
	if report.SuccessRate != 0.5 {
		t.Errorf("success_rate = %v, want 0.5", report.SuccessRate)
	}
	// All results stay visible; only the final status is overridden.
	if len(report.Results) != 2 {
		t.Fatalf("got %d results, want 2", len(report.Results))
	}
	if report.Results[0].MethodName != "CheckPalabraClave" ||
		report.Results[1].MethodName != "CheckRespuestaFormal" {
		t.Error("results must preserve method order")
	}
	if report.ExecutionTime < 0 {
		t.Error("execution_time must be non-negative")
	}
}

func TestRun_Confirmed(t *testing.T) {
	provider := &fakeProvider{
		responses: map[string][]string{
			"keyword?": {"Yes", "yes!", "No"},
			"formal?":  {"Yes", "Yes"},
		},
	}

	report, err := New(provider, WithConcurrency(2)).Run(context.Background(), twoMethodRequest())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if report.FinalStatus != StatusConfirmed {
		t.Errorf("final_status = %s, want %s", report.FinalStatus, StatusConfirmed)
	}
}

func TestRun_GenerationErrorAbortsWholeRun(t *testing.T) {
	provider := &fakeProvider{
		responses: map[string][]string{
			"keyword?": {"Yes", "Yes", "Yes"},
		},
		failOn: "formal?",
	}

	report, err := New(provider, WithConcurrency(2)).Run(context.Background(), twoMethodRequest())

	var genErr *llm.GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("expected *llm.GenerationError, got %v", err)
	}
	if report != nil {
		t.Error("no report may be returned on a generation failure, not even a partial one")
	}
}

func TestRun_ReferenceDataSubstitution(t *testing.T) {
	provider := &fakeProvider{
		responses: map[string][]string{
			"Is Madrid mentioned?": {"Yes", "Yes", "Yes"},
		},
	}

	req := RunRequest{
		Methods: []Method{
			{
				Name:            "CheckCiudad",
				Mode:            ModeCumulative,
				UserPrompt:      "Is {city} mentioned?",
				ValidResponses:  []string{"Yes"},
				NumSequences:    3,
				RequiredMatches: 2,
			},
		},
		RequiredConfirmed: 2,
		RequiredReview:    1,
		ReferenceData:     map[string]string{"city": "Madrid"},
	}

	report, err := New(provider).Run(context.Background(), req)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	// The fake only answers the substituted prompt, so a pass proves
	// the reference data reached the generation call.
	if !report.Results[0].Passed {
		t.Error("expected substituted prompt to hit the canned responses")
	}
}

func TestRun_Validation(t *testing.T) {
	provider := &fakeProvider{responses: map[string][]string{}}

	tests := []struct {
		name    string
		mutate  func(*RunRequest)
	}{
		{"no methods", func(r *RunRequest) { r.Methods = nil }},
		{"zero required_review", func(r *RunRequest) { r.RequiredReview = 0 }},
		{"confirmed not above review", func(r *RunRequest) { r.RequiredConfirmed = r.RequiredReview }},
		{"required_matches above num_sequences", func(r *RunRequest) {
			r.Methods[0].RequiredMatches = r.Methods[0].NumSequences + 1
		}},
		{"required_matches zero", func(r *RunRequest) { r.Methods[0].RequiredMatches = 0 }},
		{"duplicate method names", func(r *RunRequest) { r.Methods[1].Name = r.Methods[0].Name }},
		{"empty valid_responses", func(r *RunRequest) { r.Methods[0].ValidResponses = nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := twoMethodRequest()
			tt.mutate(&req)

			_, err := New(provider).Run(context.Background(), req)
			var valErr *ValidationError
			if !errors.As(err, &valErr) {
				t.Fatalf("expected *ValidationError, got %v", err)
			}
			if provider.calls != 0 {
				t.Fatal("validation must happen before any generation work")
			}
		})
	}
}

func TestRun_MethodTimeout(t *testing.T) {
	v := New(&fakeProvider{responses: map[string][]string{
		"keyword?": {"Yes", "Yes", "Yes"},
		"formal?":  {"Yes", "Yes"},
	}}, WithMethodTimeout(time.Second))

	if _, err := v.Run(context.Background(), twoMethodRequest()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
}
