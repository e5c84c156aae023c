// Package verifier runs consensus verification methods against a text
// generation provider and aggregates their outcomes into a single
// confirmed/review/discarded decision.
package verifier

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Mode defines how a method's outcome is interpreted during
// aggregation. It never changes how the method itself executes.
type Mode string

const (
	// ModeEliminatory discards the whole run when the method fails.
	ModeEliminatory Mode = "eliminatory"

	// ModeCumulative counts the method's pass toward the confirmed
	// and review thresholds.
	ModeCumulative Mode = "cumulative"
)

// Method is a single verification check: sample the generator
// NumSequences times and count responses matching ValidResponses.
type Method struct {
	Name            string   `json:"name" yaml:"name" validate:"required"`
	Mode            Mode     `json:"mode" yaml:"mode" validate:"required,oneof=eliminatory cumulative"`
	SystemPrompt    string   `json:"system_prompt" yaml:"system_prompt"`
	UserPrompt      string   `json:"user_prompt" yaml:"user_prompt" validate:"required"`
	ValidResponses  []string `json:"valid_responses" yaml:"valid_responses" validate:"required,min=1"`
	NumSequences    int      `json:"num_sequences" yaml:"num_sequences" validate:"required,min=1"`
	RequiredMatches int      `json:"required_matches" yaml:"required_matches" validate:"required,min=1,ltefield=NumSequences"`
	MaxTokens       int      `json:"max_tokens,omitempty" yaml:"max_tokens,omitempty"`
	Temperature     float64  `json:"temperature,omitempty" yaml:"temperature,omitempty"`
}

// MethodResult is the immutable outcome of one method execution.
type MethodResult struct {
	MethodName string    `json:"method_name"`
	Mode       Mode      `json:"mode"`
	Passed     bool      `json:"passed"`
	Score      float64   `json:"score"`
	Timestamp  time.Time `json:"timestamp"`
	Details    Details   `json:"details"`
}

// Details records the counting evidence behind a result.
type Details struct {
	TotalResponses    int      `json:"total_responses"`
	PositiveResponses int      `json:"positive_responses"`
	ValidResponses    []string `json:"valid_responses"`
	RequiredMatches   int      `json:"required_matches"`
}

var validate = validator.New()

// LoadMethods reads a method-set document from a JSON or YAML file.
// Unknown fields are ignored; structural problems fail with
// *ValidationError before any verification work begins.
func LoadMethods(path string) ([]Method, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read method set: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return MethodsFromYAML(data)
	default:
		return MethodsFromJSON(data)
	}
}

// MethodsFromJSON parses and validates a JSON method-set document.
func MethodsFromJSON(data []byte) ([]Method, error) {
	var methods []Method
	if err := json.Unmarshal(data, &methods); err != nil {
		return nil, fmt.Errorf("failed to parse JSON method set: %w", err)
	}
	return checkMethods(methods)
}

// MethodsFromYAML parses and validates a YAML method-set document.
func MethodsFromYAML(data []byte) ([]Method, error) {
	var methods []Method
	if err := yaml.Unmarshal(data, &methods); err != nil {
		return nil, fmt.Errorf("failed to parse YAML method set: %w", err)
	}
	return checkMethods(methods)
}

func checkMethods(methods []Method) ([]Method, error) {
	if len(methods) == 0 {
		return nil, validationErrorf("method set is empty")
	}

	seen := make(map[string]struct{}, len(methods))
	for _, m := range methods {
		if err := validate.Struct(m); err != nil {
			return nil, validationErrorf("method %q: %v", m.Name, err)
		}
		if _, dup := seen[m.Name]; dup {
			return nil, validationErrorf("duplicate method name %q", m.Name)
		}
		seen[m.Name] = struct{}{}
	}
	return methods, nil
}
