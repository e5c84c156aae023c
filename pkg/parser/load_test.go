package parser

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestRulesFromJSON(t *testing.T) {
	doc := `[
		{"name": "Usuario", "mode": "keyword", "pattern": "Usuario:", "secondary_pattern": ", Edad:"},
		{"name": "Edad", "mode": "regex", "pattern": "Edad:\\s*(\\d+)", "fallback_value": "0"}
	]`

	rules, err := RulesFromJSON([]byte(doc))
	if err != nil {
		t.Fatalf("RulesFromJSON() error = %v", err)
	}
	if len(rules) != 2 {
		t.Fatalf("got %d rules, want 2", len(rules))
	}
	if rules[0].Mode != ModeKeyword || rules[1].Mode != ModeRegex {
		t.Errorf("unexpected modes: %s, %s", rules[0].Mode, rules[1].Mode)
	}
	if rules[1].FallbackValue == nil || *rules[1].FallbackValue != "0" {
		t.Error("fallback_value not preserved")
	}
}

func TestRulesFromJSON_UnknownFieldsIgnored(t *testing.T) {
	doc := `[{"name": "a", "mode": "keyword", "pattern": "A:", "comment": "ignored"}]`

	rules, err := RulesFromJSON([]byte(doc))
	if err != nil {
		t.Fatalf("RulesFromJSON() error = %v", err)
	}
	if len(rules) != 1 {
		t.Fatalf("got %d rules, want 1", len(rules))
	}
}

func TestRulesFromJSON_MissingRequiredField(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"missing name", `[{"mode": "keyword", "pattern": "A:"}]`},
		{"missing mode", `[{"name": "a", "pattern": "A:"}]`},
		{"missing pattern", `[{"name": "a", "mode": "keyword"}]`},
		{"bad mode value", `[{"name": "a", "mode": "fuzzy", "pattern": "A:"}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := RulesFromJSON([]byte(tt.doc))
			var valErr *ValidationError
			if !errors.As(err, &valErr) {
				t.Fatalf("expected *ValidationError, got %v", err)
			}
		})
	}
}

func TestRulesFromJSON_BadRegexFailsAtLoad(t *testing.T) {
	doc := `[{"name": "a", "mode": "regex", "pattern": "([bad"}]`

	_, err := RulesFromJSON([]byte(doc))
	var defErr *RuleDefinitionError
	if !errors.As(err, &defErr) {
		t.Fatalf("expected *RuleDefinitionError, got %v", err)
	}
}

func TestRulesFromYAML(t *testing.T) {
	doc := `
- name: Usuario
  mode: keyword
  pattern: "Usuario:"
  secondary_pattern: ", Edad:"
- name: Edad
  mode: regex
  pattern: 'Edad:\s*(\d+)'
`
	rules, err := RulesFromYAML([]byte(doc))
	if err != nil {
		t.Fatalf("RulesFromYAML() error = %v", err)
	}
	if len(rules) != 2 {
		t.Fatalf("got %d rules, want 2", len(rules))
	}
}

func TestLoadRules_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.json")
	doc := `[{"name": "a", "mode": "keyword", "pattern": "A:"}]`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	rules, err := LoadRules(path)
	if err != nil {
		t.Fatalf("LoadRules() error = %v", err)
	}
	if len(rules) != 1 || rules[0].Name != "a" {
		t.Errorf("unexpected rules: %+v", rules)
	}
}
