// Package parser turns unstructured text into structured records using
// declarative keyword and regex rules.
package parser

import (
	"fmt"
	"regexp"
	"strings"
)

// Mode selects how a rule matches text.
type Mode string

const (
	// ModeKeyword treats the pattern as a literal delimiter; the
	// capture is the span between it and the secondary pattern.
	ModeKeyword Mode = "keyword"

	// ModeRegex treats the pattern as a regular expression whose
	// first capture group is the extracted value.
	ModeRegex Mode = "regex"
)

// Rule is one declarative extraction rule. Rules are immutable for the
// duration of an extraction call; names must be unique within a set.
type Rule struct {
	Name             string  `json:"name" yaml:"name" validate:"required"`
	Mode             Mode    `json:"mode" yaml:"mode" validate:"required,oneof=keyword regex"`
	Pattern          string  `json:"pattern" yaml:"pattern" validate:"required"`
	SecondaryPattern string  `json:"secondary_pattern,omitempty" yaml:"secondary_pattern,omitempty"`
	FallbackValue    *string `json:"fallback_value,omitempty" yaml:"fallback_value,omitempty"`
}

// matcher is the closed set of match strategies. Only the two declared
// modes exist; the strategy is fixed at compile time.
type matcher interface {
	// captures returns every non-overlapping capture in the text,
	// in left-to-right order.
	captures(text string) []string
}

// compiledRule pairs a rule with its selected match strategy.
type compiledRule struct {
	rule Rule
	m    matcher
}

// compile validates the rule set and binds each rule to its strategy.
// An uncompilable regex fails the whole set with *RuleDefinitionError;
// structural problems fail with *ValidationError.
func compile(rules []Rule) ([]compiledRule, error) {
	if len(rules) == 0 {
		return nil, validationErrorf("rule set is empty")
	}

	seen := make(map[string]struct{}, len(rules))
	compiled := make([]compiledRule, 0, len(rules))

	for _, r := range rules {
		if r.Name == "" {
			return nil, validationErrorf("rule with empty name")
		}
		if _, dup := seen[r.Name]; dup {
			return nil, validationErrorf("duplicate rule name %q", r.Name)
		}
		seen[r.Name] = struct{}{}

		if r.Pattern == "" {
			return nil, validationErrorf("rule %q has no pattern", r.Name)
		}

		switch r.Mode {
		case ModeKeyword:
			compiled = append(compiled, compiledRule{
				rule: r,
				m:    &keywordMatcher{pattern: r.Pattern, secondary: r.SecondaryPattern},
			})
		case ModeRegex:
			re, err := regexp.Compile(r.Pattern)
			if err != nil {
				return nil, &RuleDefinitionError{Rule: r.Name, Err: err}
			}
			if re.NumSubexp() < 1 {
				return nil, &RuleDefinitionError{
					Rule: r.Name,
					Err:  fmt.Errorf("pattern needs at least one capture group"),
				}
			}
			compiled = append(compiled, compiledRule{rule: r, m: &regexMatcher{re: re}})
		default:
			return nil, validationErrorf("rule %q has unknown mode %q", r.Name, r.Mode)
		}
	}

	return compiled, nil
}

// keywordMatcher captures the span after each occurrence of a literal
// delimiter. With a secondary pattern the capture stops at its next
// occurrence (or end of text when not found); without one it stops at
// the next occurrence of the delimiter itself.
type keywordMatcher struct {
	pattern   string
	secondary string
}

func (k *keywordMatcher) captures(text string) []string {
	var out []string

	starts := occurrences(text, k.pattern)
	for i, pos := range starts {
		capStart := pos + len(k.pattern)
		capEnd := len(text)

		if k.secondary != "" {
			if end := strings.Index(text[capStart:], k.secondary); end != -1 {
				capEnd = capStart + end
			}
		} else if i+1 < len(starts) {
			capEnd = starts[i+1]
		}

		out = append(out, strings.TrimSpace(text[capStart:capEnd]))
	}

	return out
}

// occurrences lists the start index of every non-overlapping occurrence
// of pattern, left to right.
func occurrences(text, pattern string) []int {
	var starts []int
	for from := 0; ; {
		idx := strings.Index(text[from:], pattern)
		if idx == -1 {
			break
		}
		pos := from + idx
		starts = append(starts, pos)
		from = pos + len(pattern)
	}
	return starts
}

// regexMatcher captures the first group of every non-overlapping match.
type regexMatcher struct {
	re *regexp.Regexp
}

func (r *regexMatcher) captures(text string) []string {
	var out []string
	for _, m := range r.re.FindAllStringSubmatchIndex(text, -1) {
		// m[2], m[3] bound the first capture group; -1 means the
		// group did not participate in the match.
		if m[2] == -1 {
			out = append(out, "")
			continue
		}
		out = append(out, text[m[2]:m[3]])
	}
	return out
}
