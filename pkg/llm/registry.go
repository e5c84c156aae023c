package llm

import (
	"fmt"
	"os"
	"sort"
)

// ProviderFactory creates providers from config.
type ProviderFactory func(cfg Config) (Provider, error)

// DefaultModels maps provider names to their default models.
var DefaultModels = map[string]string{
	"anthropic": "claude-sonnet-4-20250514",
	"openai":    "gpt-4o-mini",
	"ollama":    "llama3.2",
}

var registry = map[string]ProviderFactory{}

func init() {
	RegisterProvider("anthropic", func(cfg Config) (Provider, error) {
		return NewAnthropicProvider(cfg)
	})
	RegisterProvider("openai", func(cfg Config) (Provider, error) {
		return NewOpenAIProvider(cfg)
	})
	RegisterProvider("ollama", func(cfg Config) (Provider, error) {
		return NewOllamaProvider(cfg)
	})
}

// RegisterProvider adds a provider factory to the registry. Calling it
// with an existing name replaces the factory, which lets tests and
// embedders install fakes.
func RegisterProvider(name string, factory ProviderFactory) {
	registry[name] = factory
}

// NewProvider creates a provider by name.
func NewProvider(name string, cfg Config) (Provider, error) {
	factory, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown provider: %q (known: %v)", name, ProviderNames())
	}
	return factory(cfg)
}

// ProviderNames lists the registered provider names, sorted.
func ProviderNames() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DetectProvider picks a provider based on which API key environment
// variables are set. Ollama wins only as the keyless fallback.
func DetectProvider() string {
	if os.Getenv("ANTHROPIC_API_KEY") != "" {
		return "anthropic"
	}
	if os.Getenv("OPENAI_API_KEY") != "" {
		return "openai"
	}
	return "ollama"
}
