package parser

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var validate = validator.New()

// LoadRules reads a rule-set document from a JSON or YAML file.
// Unknown fields are ignored; a missing name, mode, or pattern fails
// with *ValidationError, and an uncompilable regex pattern fails with
// *RuleDefinitionError.
func LoadRules(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rule set: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return RulesFromYAML(data)
	default:
		return RulesFromJSON(data)
	}
}

// RulesFromJSON parses and validates a JSON rule-set document.
func RulesFromJSON(data []byte) ([]Rule, error) {
	var rules []Rule
	if err := json.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("failed to parse JSON rule set: %w", err)
	}
	return checkRules(rules)
}

// RulesFromYAML parses and validates a YAML rule-set document.
func RulesFromYAML(data []byte) ([]Rule, error) {
	var rules []Rule
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("failed to parse YAML rule set: %w", err)
	}
	return checkRules(rules)
}

// checkRules runs struct validation and a full compile so every
// definition problem surfaces at load time, not per text.
func checkRules(rules []Rule) ([]Rule, error) {
	for _, r := range rules {
		if err := validate.Struct(r); err != nil {
			return nil, validationErrorf("rule %q: %v", r.Name, err)
		}
	}
	if _, err := compile(rules); err != nil {
		return nil, err
	}
	return rules, nil
}
