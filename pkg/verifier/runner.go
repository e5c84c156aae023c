package verifier

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmylchreest/textvet/internal/logger"
	"github.com/jmylchreest/textvet/pkg/llm"
)

// AskFunc obtains candidate responses for one prompt pair. It must
// return exactly numSequences strings; a short result is a generation
// failure, never a silently degraded sample.
type AskFunc func(ctx context.Context, systemPrompt, userPrompt string, numSequences int) ([]string, error)

// RunMethod executes one verification method against the ask
// capability: it samples the generator once for NumSequences
// candidates, scores them against the method's valid responses, and
// returns the pass/fail outcome with its counting evidence.
//
// The comparison is case-insensitive substring containment: a response
// is positive when it contains or equals any valid response. Given a
// fixed response sequence the result is deterministic; all randomness
// lives behind the ask capability.
func RunMethod(ctx context.Context, method Method, ask AskFunc) (MethodResult, error) {
	responses, err := ask(ctx, method.SystemPrompt, method.UserPrompt, method.NumSequences)
	if err != nil {
		return MethodResult{}, fmt.Errorf("method %q: %w", method.Name, asGenerationError(err))
	}
	if len(responses) != method.NumSequences {
		return MethodResult{}, fmt.Errorf("method %q: %w", method.Name, &llm.GenerationError{
			Provider: "ask",
			Err:      fmt.Errorf("expected %d responses, got %d", method.NumSequences, len(responses)),
		})
	}

	positive := 0
	for _, response := range responses {
		if matchesAny(response, method.ValidResponses) {
			positive++
		}
	}

	passed := positive >= method.RequiredMatches
	score := float64(positive) / float64(method.NumSequences)

	logger.Debug("method scored",
		"method", method.Name,
		"mode", method.Mode,
		"positive", positive,
		"total", method.NumSequences,
		"passed", passed)

	return MethodResult{
		MethodName: method.Name,
		Mode:       method.Mode,
		Passed:     passed,
		Score:      score,
		Timestamp:  time.Now().UTC(),
		Details: Details{
			TotalResponses:    method.NumSequences,
			PositiveResponses: positive,
			ValidResponses:    method.ValidResponses,
			RequiredMatches:   method.RequiredMatches,
		},
	}, nil
}

func matchesAny(response string, valid []string) bool {
	lower := strings.ToLower(response)
	for _, v := range valid {
		if strings.Contains(lower, strings.ToLower(v)) {
			return true
		}
	}
	return false
}

// asGenerationError guarantees that every failed generation call
// surfaces as a *llm.GenerationError.
func asGenerationError(err error) error {
	var genErr *llm.GenerationError
	if errors.As(err, &genErr) {
		return err
	}
	return &llm.GenerationError{Provider: "ask", Err: err}
}
