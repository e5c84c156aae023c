package parser

import "fmt"

// ValidationError reports a malformed rule set or out-of-range
// extraction parameters. It is always raised before any extraction
// work starts.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "parse validation: " + e.Reason
}

func validationErrorf(format string, args ...any) *ValidationError {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// RuleDefinitionError reports a rule whose pattern cannot be compiled.
// It aborts the whole rule set at load time.
type RuleDefinitionError struct {
	Rule string
	Err  error
}

func (e *RuleDefinitionError) Error() string {
	return fmt.Sprintf("rule %q: %v", e.Rule, e.Err)
}

func (e *RuleDefinitionError) Unwrap() error {
	return e.Err
}
