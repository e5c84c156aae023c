package verifier

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/jmylchreest/textvet/pkg/llm"
)

func fixedAsk(responses []string) AskFunc {
	return func(ctx context.Context, system, user string, n int) ([]string, error) {
		return responses, nil
	}
}

func checkMethod() Method {
	return Method{
		Name:            "CheckPalabraClave",
		Mode:            ModeCumulative,
		UserPrompt:      "Does the text mention the keyword? Answer Yes or No.",
		ValidResponses:  []string{"Yes"},
		NumSequences:    3,
		RequiredMatches: 2,
	}
}

func TestRunMethod_Scoring(t *testing.T) {
	tests := []struct {
		name         string
		responses    []string
		wantPassed   bool
		wantPositive int
		wantScore    float64
	}{
		{
			name:         "all positive",
			responses:    []string{"Yes", "Yes.", "yes, it does"},
			wantPassed:   true,
			wantPositive: 3,
			wantScore:    1.0,
		},
		{
			name:         "exactly at threshold",
			responses:    []string{"Yes", "No", "YES"},
			wantPassed:   true,
			wantPositive: 2,
			wantScore:    2.0 / 3.0,
		},
		{
			name:         "below threshold",
			responses:    []string{"No", "no", "Yes"},
			wantPassed:   false,
			wantPositive: 1,
			wantScore:    1.0 / 3.0,
		},
		{
			name:         "none positive",
			responses:    []string{"No", "Never", "Absolutely not"},
			wantPassed:   false,
			wantPositive: 0,
			wantScore:    0.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := RunMethod(context.Background(), checkMethod(), fixedAsk(tt.responses))
			if err != nil {
				t.Fatalf("RunMethod() error = %v", err)
			}

			if result.Passed != tt.wantPassed {
				t.Errorf("passed = %v, want %v", result.Passed, tt.wantPassed)
			}
			if result.Details.PositiveResponses != tt.wantPositive {
				t.Errorf("positive_responses = %d, want %d", result.Details.PositiveResponses, tt.wantPositive)
			}
			if result.Score != tt.wantScore {
				t.Errorf("score = %v, want %v", result.Score, tt.wantScore)
			}
			if result.Details.TotalResponses != 3 {
				t.Errorf("total_responses = %d, want 3", result.Details.TotalResponses)
			}
		})
	}
}

func TestRunMethod_CaseInsensitiveContainment(t *testing.T) {
	method := checkMethod()
	method.ValidResponses = []string{"CORRECT", "valid"}
	method.NumSequences = 2
	method.RequiredMatches = 2

	result, err := RunMethod(context.Background(), method,
		fixedAsk([]string{"That is correct.", "Looks Valid to me"}))
	if err != nil {
		t.Fatalf("RunMethod() error = %v", err)
	}
	if !result.Passed {
		t.Error("containment matching should be case-insensitive both ways")
	}
}

func TestRunMethod_ShortSampleIsGenerationError(t *testing.T) {
	_, err := RunMethod(context.Background(), checkMethod(), fixedAsk([]string{"Yes"}))

	var genErr *llm.GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("expected *llm.GenerationError, got %v", err)
	}
}

func TestRunMethod_AskErrorWrappedWithMethodName(t *testing.T) {
	failing := func(ctx context.Context, system, user string, n int) ([]string, error) {
		return nil, fmt.Errorf("backend exploded")
	}

	_, err := RunMethod(context.Background(), checkMethod(), failing)
	var genErr *llm.GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("expected *llm.GenerationError, got %v", err)
	}
	if want := `method "CheckPalabraClave"`; !strings.Contains(err.Error(), want) {
		t.Errorf("error %q should name the method", err)
	}
}

func TestRunMethod_ModeDoesNotAffectExecution(t *testing.T) {
	responses := []string{"Yes", "No", "Yes"}

	cumulative := checkMethod()
	eliminatory := checkMethod()
	eliminatory.Mode = ModeEliminatory

	r1, err := RunMethod(context.Background(), cumulative, fixedAsk(responses))
	if err != nil {
		t.Fatal(err)
	}
	r2, err := RunMethod(context.Background(), eliminatory, fixedAsk(responses))
	if err != nil {
		t.Fatal(err)
	}

	if r1.Passed != r2.Passed || r1.Score != r2.Score {
		t.Error("mode must only affect aggregation, not execution")
	}
	if r2.Mode != ModeEliminatory {
		t.Error("result should carry the method's mode tag")
	}
}
