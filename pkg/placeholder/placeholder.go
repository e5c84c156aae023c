// Package placeholder substitutes `{key}` tokens in prompt templates
// with values from a reference mapping.
package placeholder

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

var tokenPattern = regexp.MustCompile(`\{([^{}]+)\}`)

// Substitute replaces every `{k}` occurrence in template for each key
// k present in data. Tokens whose key is absent from data are left in
// the output untouched. Pure function; idempotent once no replaced
// value introduces a new token.
func Substitute(template string, data map[string]string) string {
	if len(data) == 0 {
		return template
	}
	return tokenPattern.ReplaceAllStringFunc(template, func(token string) string {
		key := token[1 : len(token)-1]
		if value, ok := data[key]; ok {
			return value
		}
		return token
	})
}

// Extract returns the distinct placeholder keys in template, in order
// of first appearance.
func Extract(template string) []string {
	seen := make(map[string]struct{})
	var keys []string
	for _, m := range tokenPattern.FindAllStringSubmatch(template, -1) {
		key := m[1]
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		keys = append(keys, key)
	}
	return keys
}

// Require checks that data covers every placeholder in template.
// Substitution itself never fails on missing keys; callers that want
// the strict behaviour run Require first.
func Require(template string, data map[string]string) error {
	var missing []string
	for _, key := range Extract(template) {
		if _, ok := data[key]; !ok {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("placeholders not found in reference data: %s", strings.Join(missing, ", "))
	}
	return nil
}

// LoadReferenceData reads a flat string-to-string mapping from a JSON
// or YAML file.
func LoadReferenceData(path string) (map[string]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read reference data: %w", err)
	}

	data := make(map[string]string)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(raw, &data); err != nil {
			return nil, fmt.Errorf("failed to parse YAML reference data: %w", err)
		}
	default:
		if err := json.Unmarshal(raw, &data); err != nil {
			return nil, fmt.Errorf("failed to parse JSON reference data: %w", err)
		}
	}
	return data, nil
}
