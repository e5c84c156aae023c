package pipeline

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

// Definition is a full pipeline document as loaded from disk.
type Definition struct {
	ReferenceData map[string]string `json:"reference_data,omitempty" yaml:"reference_data,omitempty"`
	Steps         []Step            `json:"steps" yaml:"steps" validate:"required,min=1,dive"`
}

// Load reads a pipeline definition from a JSON or YAML file.
func Load(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pipeline definition: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FromYAML(data)
	default:
		return FromJSON(data)
	}
}

// FromJSON parses and validates a JSON pipeline definition.
func FromJSON(data []byte) (*Definition, error) {
	var def Definition
	if err := json.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("failed to parse JSON pipeline definition: %w", err)
	}
	return checkDefinition(&def)
}

// FromYAML parses and validates a YAML pipeline definition.
func FromYAML(data []byte) (*Definition, error) {
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("failed to parse YAML pipeline definition: %w", err)
	}
	return checkDefinition(&def)
}

// checkDefinition validates the document shape and that every step
// carries the params block its type requires.
func checkDefinition(def *Definition) (*Definition, error) {
	if err := validate.Struct(def); err != nil {
		return nil, fmt.Errorf("invalid pipeline definition: %w", err)
	}
	for i, step := range def.Steps {
		var ok bool
		switch step.Type {
		case StepGenerate:
			ok = step.Generate != nil
		case StepParse:
			ok = step.Parse != nil
		case StepVerify:
			ok = step.Verify != nil
		}
		if !ok {
			return nil, fmt.Errorf("step %d: missing %s params", i+1, step.Type)
		}
	}
	return def, nil
}
