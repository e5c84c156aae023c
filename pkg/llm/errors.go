package llm

import "fmt"

// GenerationError reports a failed generation call: a backend error, a
// timeout, or a response with the wrong number of candidates. A run
// that hits one is aborted rather than scored.
type GenerationError struct {
	// Provider is the provider identifier that failed.
	Provider string

	// Err is the underlying cause, if any.
	Err error
}

func (e *GenerationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("generation failed (provider %s): %v", e.Provider, e.Err)
	}
	return fmt.Sprintf("generation failed (provider %s)", e.Provider)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// generationErrorf builds a *GenerationError from a format string.
func generationErrorf(provider, format string, args ...any) *GenerationError {
	return &GenerationError{Provider: provider, Err: fmt.Errorf(format, args...)}
}

// checkCandidateCount enforces the port contract: exactly want
// candidates, none of them dropped or padded.
func checkCandidateCount(provider string, got, want int) error {
	if got != want {
		return generationErrorf(provider, "expected %d candidates, got %d", want, got)
	}
	return nil
}
