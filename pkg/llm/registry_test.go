package llm

import (
	"context"
	"testing"
)

type stubProvider struct{ name string }

func (p *stubProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	return &Response{Candidates: make([]string, req.NumSequences), Model: p.name}, nil
}
func (p *stubProvider) Name() string  { return p.name }
func (p *stubProvider) Model() string { return p.name }

func TestNewProvider_UnknownName(t *testing.T) {
	if _, err := NewProvider("nope", DefaultConfig()); err == nil {
		t.Fatal("NewProvider(nope) error = nil, want error")
	}
}

func TestRegisterProvider_ReplacesFactory(t *testing.T) {
	RegisterProvider("stub", func(cfg Config) (Provider, error) {
		return &stubProvider{name: "stub"}, nil
	})
	defer delete(registry, "stub")

	p, err := NewProvider("stub", DefaultConfig())
	if err != nil {
		t.Fatalf("NewProvider() error = %v", err)
	}
	if p.Name() != "stub" {
		t.Errorf("Name() = %q, want %q", p.Name(), "stub")
	}
}

func TestDetectProvider_EnvPriority(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")

	if got := DetectProvider(); got != "ollama" {
		t.Errorf("DetectProvider() = %q, want ollama with no keys set", got)
	}

	t.Setenv("OPENAI_API_KEY", "sk-test")
	if got := DetectProvider(); got != "openai" {
		t.Errorf("DetectProvider() = %q, want openai", got)
	}

	t.Setenv("ANTHROPIC_API_KEY", "sk-ant-test")
	if got := DetectProvider(); got != "anthropic" {
		t.Errorf("DetectProvider() = %q, want anthropic", got)
	}
}

func TestApplyRequestDefaults(t *testing.T) {
	req := Request{UserPrompt: "hi"}
	applyRequestDefaults(&req)

	if req.NumSequences != 1 {
		t.Errorf("NumSequences = %d, want 1", req.NumSequences)
	}
	if req.MaxTokens != 256 {
		t.Errorf("MaxTokens = %d, want 256", req.MaxTokens)
	}
	if req.Temperature != 1.0 {
		t.Errorf("Temperature = %v, want 1.0", req.Temperature)
	}

	req = Request{UserPrompt: "hi", NumSequences: 4, MaxTokens: 10, Temperature: 0.2}
	applyRequestDefaults(&req)
	if req.NumSequences != 4 || req.MaxTokens != 10 || req.Temperature != 0.2 {
		t.Errorf("defaults overwrote explicit values: %+v", req)
	}
}
