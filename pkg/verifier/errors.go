package verifier

import "fmt"

// ValidationError reports a malformed method set or out-of-range run
// parameters. It is always raised before any generation work starts.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "verify validation: " + e.Reason
}

func validationErrorf(format string, args ...any) *ValidationError {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}
