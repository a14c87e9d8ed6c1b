package llm

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
)

func TestMockProvider_ReturnsCannedResponses(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Content: json.RawMessage(`{"a":1}`), Usage: Usage{InputTokens: 10, OutputTokens: 5, TotalTokens: 15}},
	)
	mock.AddJSON(map[string]int{"b": 2})

	resp1, err := mock.Generate(context.Background(), Request{Messages: UserMessage("first")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(resp1.Content) != `{"a":1}` {
		t.Fatalf("expected {\"a\":1}, got %s", resp1.Content)
	}
	if resp1.Usage.InputTokens != 10 {
		t.Fatalf("expected 10 input tokens, got %d", resp1.Usage.InputTokens)
	}

	resp2, err := mock.Generate(context.Background(), Request{Messages: UserMessage("second")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(resp2.Content) != `{"b":2}` {
		t.Fatalf("expected {\"b\":2}, got %s", resp2.Content)
	}

	last, ok := mock.LastCall()
	if !ok || last.Messages[0].Content != "second" {
		t.Fatalf("LastCall = %+v, %v", last, ok)
	}
}

func TestMockProvider_EmptyQueueReturnsError(t *testing.T) {
	mock := NewMockProvider()
	_, err := mock.Generate(context.Background(), Request{})
	var unavail *ErrProviderUnavailable
	if !errors.As(err, &unavail) {
		t.Fatalf("expected ErrProviderUnavailable, got: %T", err)
	}
}

func TestMockProvider_ValidatesSchema(t *testing.T) {
	mock := NewMockProvider(MockResponse{Content: json.RawMessage(`{"subtopics":"not a list"}`)})
	_, err := mock.Generate(context.Background(), Request{Schema: &Schema{
		Name: "test-mock-schema",
		Definition: map[string]any{
			"type":       "object",
			"properties": map[string]any{"subtopics": map[string]any{"type": "array"}},
		},
	}})
	var inv *ErrInvalidResponse
	if !errors.As(err, &inv) {
		t.Fatalf("expected ErrInvalidResponse, got: %T (%v)", err, err)
	}
}

func TestMockProvider_ReturnsConfiguredError(t *testing.T) {
	mock := NewMockProvider(MockResponse{Err: &ErrRateLimit{}})

	_, err := mock.Generate(context.Background(), Request{})
	var rl *ErrRateLimit
	if !errors.As(err, &rl) {
		t.Fatalf("expected ErrRateLimit, got: %T", err)
	}
	if mock.CallCount() != 1 {
		t.Fatalf("expected 1 call, got %d", mock.CallCount())
	}
}

func TestPurposeContext(t *testing.T) {
	ctx := context.Background()
	if p := PurposeFrom(ctx); p != "unknown" {
		t.Fatalf("expected 'unknown', got %q", p)
	}

	ctx = WithPurpose(ctx, "question-gen")
	if p := PurposeFrom(ctx); p != "question-gen" {
		t.Fatalf("expected 'question-gen', got %q", p)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"anthropic without key", Config{Provider: ProviderAnthropic}, true},
		{"anthropic with key", Config{Provider: ProviderAnthropic, Anthropic: AnthropicConfig{APIKey: "sk"}}, false},
		{"openai without key", Config{Provider: ProviderOpenAI}, true},
		{"gemini with key", Config{Provider: ProviderGemini, Gemini: GeminiConfig{APIKey: "g"}}, false},
		{"openrouter without key", Config{Provider: ProviderOpenRouter}, true},
		{"mock needs no key", Config{Provider: ProviderMock}, false},
		{"unknown provider", Config{Provider: "llama"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func clearLLMEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"SKILLPROBE_LLM_PROVIDER", "SKILLPROBE_ANTHROPIC_API_KEY", "SKILLPROBE_OPENAI_API_KEY",
		"SKILLPROBE_GEMINI_API_KEY", "SKILLPROBE_OPENROUTER_API_KEY", "SKILLPROBE_LLM_TIMEOUT",
		"ANTHROPIC_API_KEY", "OPENAI_API_KEY", "GEMINI_API_KEY", "OPENROUTER_API_KEY",
	} {
		t.Setenv(k, "")
	}
}

func TestConfigFromEnv(t *testing.T) {
	clearLLMEnv(t)
	t.Setenv("SKILLPROBE_LLM_PROVIDER", "openai")
	t.Setenv("SKILLPROBE_OPENAI_API_KEY", "sk-test")
	t.Setenv("SKILLPROBE_OPENAI_EMBEDDING_MODEL", "text-embedding-3-large")
	t.Setenv("SKILLPROBE_LLM_TIMEOUT", "5s")

	cfg := ConfigFromEnv()
	if cfg.Provider != ProviderOpenAI || cfg.OpenAI.APIKey != "sk-test" {
		t.Fatalf("provider/key not read: %+v", cfg)
	}
	if cfg.OpenAI.EmbeddingModel != "text-embedding-3-large" {
		t.Fatalf("embedding model = %q", cfg.OpenAI.EmbeddingModel)
	}
	if cfg.OpenAI.Model != "gpt-4o-mini" {
		t.Fatalf("default model lost: %q", cfg.OpenAI.Model)
	}
	if cfg.Timeout.String() != "5s" {
		t.Fatalf("timeout = %s", cfg.Timeout)
	}
}

func TestResolveConfig_Discovers(t *testing.T) {
	clearLLMEnv(t)
	t.Setenv("GEMINI_API_KEY", "g-key")

	cfg, err := ResolveConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Provider != ProviderGemini || cfg.Gemini.APIKey != "g-key" {
		t.Fatalf("discovered %+v", cfg)
	}
}

func TestResolveConfig_NothingConfigured(t *testing.T) {
	clearLLMEnv(t)
	if _, err := ResolveConfig(); err == nil {
		t.Fatal("expected error when no key is available")
	}
}

func TestNewProvider_Mock(t *testing.T) {
	p, err := NewProvider(context.Background(), Config{Provider: ProviderMock}, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ModelID() != "mock" {
		t.Fatalf("ModelID = %q", p.ModelID())
	}
	if _, err := NewProvider(context.Background(), Config{Provider: "nope"}, nil, nil); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}

func TestNewEmbedder(t *testing.T) {
	if _, err := NewEmbedder(Config{Provider: ProviderAnthropic}); err == nil {
		t.Fatal("anthropic without an OpenAI key cannot embed")
	}
	e, err := NewEmbedder(Config{Provider: ProviderAnthropic, OpenAI: OpenAIConfig{APIKey: "sk"}})
	if err != nil || e == nil {
		t.Fatalf("expected OpenAI embedder fallback, got %v", err)
	}
}

func TestLookupCost(t *testing.T) {
	if c := LookupCost("gpt-4o-mini"); c == nil || c.InputPerMTok != 0.15 {
		t.Fatalf("gpt-4o-mini cost = %+v", c)
	}
	if c := LookupCost("claude-haiku-4-5-20251001"); c == nil {
		t.Fatal("dated ID should resolve")
	}
	if c := LookupCost("claude-sonnet-4-5-20991231"); c == nil || c.OutputPerMTok != 15 {
		t.Fatalf("unknown snapshot should fall back to alias, got %+v", c)
	}
	if c := LookupCost("made-up"); c != nil {
		t.Fatalf("unknown model = %+v", c)
	}
	got := ModelCost{InputPerMTok: 1, OutputPerMTok: 5}.Cost(1_000_000, 200_000)
	if got != 2 {
		t.Fatalf("Cost = %v, want 2", got)
	}
}
