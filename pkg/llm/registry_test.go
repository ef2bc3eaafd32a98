package llm

import (
	"context"
	"errors"
	"testing"
)

type stubProvider struct {
	name      string
	models    []ModelInfo
	err       error
	listCalls int
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Models(ctx context.Context) ([]ModelInfo, error) {
	s.listCalls++
	return s.models, s.err
}

func (s *stubProvider) Chat(ctx context.Context, req *ChatRequest) (*Response, error) {
	return &Response{Parts: []Part{TextPart("ok")}, FinishReason: FinishStop}, nil
}

func fullRegistry() *Registry {
	return NewRegistry(
		&stubProvider{name: ProviderGemini},
		&stubProvider{name: ProviderAnthropic},
		&stubProvider{name: ProviderOpenAI},
		&stubProvider{name: ProviderOllama},
	)
}

func TestResolveByVendorPrefix(t *testing.T) {
	registry := fullRegistry()

	tests := []struct {
		model string
		want  string
	}{
		{"gemini-2.5-flash", ProviderGemini},
		{"models/gemini-2.5-pro", ProviderGemini},
		{"claude-sonnet-4-5", ProviderAnthropic},
		{"gpt-4o", ProviderOpenAI},
		{"chatgpt-4o-latest", ProviderOpenAI},
		{"o1", ProviderOpenAI},
		{"o3-mini", ProviderOpenAI},
		{"llama3.2", ProviderOllama},
		{"orca2", ProviderOllama},
		{"qwen2.5-coder:7b", ProviderOllama},
	}

	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			p, err := registry.Resolve(tt.model)
			if err != nil {
				t.Fatalf("Resolve(%q) returned error: %v", tt.model, err)
			}
			if p.Name() != tt.want {
				t.Errorf("Resolve(%q) = %s, want %s", tt.model, p.Name(), tt.want)
			}
		})
	}
}

func TestResolveEmptyModel(t *testing.T) {
	registry := fullRegistry()

	_, err := registry.Resolve("")
	if err == nil {
		t.Fatal("expected error for empty model ID")
	}
	if !errors.Is(err, ErrUnknownModel) {
		t.Errorf("expected ErrUnknownModel, got %v", err)
	}
}

func TestResolveUnregisteredProvider(t *testing.T) {
	registry := NewRegistry(&stubProvider{name: ProviderOllama})

	_, err := registry.Resolve("claude-sonnet-4-5")
	if err == nil {
		t.Fatal("expected error when the mapped provider is not registered")
	}
	if !errors.Is(err, ErrUnknownModel) {
		t.Errorf("expected ErrUnknownModel, got %v", err)
	}
}

func TestResolvePrefersCatalogOverPrefix(t *testing.T) {
	// An Ollama-hosted model whose name matches another vendor's prefix
	// must route to the provider that actually listed it.
	ollama := &stubProvider{
		name:   ProviderOllama,
		models: []ModelInfo{{ID: "gpt-oss:20b", DisplayName: "gpt-oss:20b"}},
	}
	registry := NewRegistry(&stubProvider{name: ProviderOpenAI}, ollama)
	registry.Models(context.Background())

	p, err := registry.Resolve("gpt-oss:20b")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if p.Name() != ProviderOllama {
		t.Errorf("Resolve routed to %s, want %s", p.Name(), ProviderOllama)
	}
}

func TestModelsMergesAndDegrades(t *testing.T) {
	good := &stubProvider{
		name: ProviderGemini,
		models: []ModelInfo{
			{ID: "gemini-2.5-flash", DisplayName: "Gemini 2.5 Flash"},
			{ID: "gemini-2.5-pro", DisplayName: "Gemini 2.5 Pro"},
		},
	}
	broken := &stubProvider{name: ProviderOpenAI, err: errors.New("connection refused")}

	registry := NewRegistry(good, broken)
	models := registry.Models(context.Background())

	if len(models) != 2 {
		t.Fatalf("expected 2 models from the healthy provider, got %d", len(models))
	}
	for _, m := range models {
		if m.Provider != ProviderGemini {
			t.Errorf("model %s has provider %q, want %q backfilled", m.ID, m.Provider, ProviderGemini)
		}
	}
}

func TestModelsCachedUntilRefresh(t *testing.T) {
	p := &stubProvider{
		name:   ProviderOllama,
		models: []ModelInfo{{ID: "llama3.2"}},
	}
	registry := NewRegistry(p)
	ctx := context.Background()

	registry.Models(ctx)
	registry.Models(ctx)
	if p.listCalls != 1 {
		t.Errorf("expected 1 provider listing for cached calls, got %d", p.listCalls)
	}

	registry.RefreshModels(ctx)
	if p.listCalls != 2 {
		t.Errorf("expected refresh to hit the provider again, got %d calls", p.listCalls)
	}
}

func TestResponseHelpers(t *testing.T) {
	resp := &Response{
		Parts: []Part{
			ThoughtPart("considering"),
			TextPart("Hello"),
			TextPart(", world"),
		},
		FinishReason: FinishStop,
	}

	if resp.HasToolCalls() {
		t.Error("response without tool calls reported HasToolCalls")
	}
	if got := resp.Text(); got != "Hello, world" {
		t.Errorf("Text() = %q, want %q", got, "Hello, world")
	}
	if !resp.HasThought() {
		t.Error("response with a thought part reported HasThought false")
	}

	withCalls := &Response{ToolCalls: []ToolCall{{ID: "1", Name: "list_files"}}}
	if !withCalls.HasToolCalls() {
		t.Error("response with tool calls reported HasToolCalls false")
	}
}

func TestAttachmentPlaceholder(t *testing.T) {
	a := Attachment{Name: "photo.png", MIMEType: "image/png", Data: []byte{1, 2, 3}}
	got := AttachmentPlaceholder(a)
	want := `[Attachment "photo.png" (image/png) could not be sent to this model]`
	if got != want {
		t.Errorf("AttachmentPlaceholder = %q, want %q", got, want)
	}

	// Unparseable PDF data falls back to the plain MIME detail.
	pdf := Attachment{Name: "doc.pdf", MIMEType: MIMETypePDF, Data: []byte("not a pdf")}
	got = AttachmentPlaceholder(pdf)
	want = `[Attachment "doc.pdf" (application/pdf) could not be sent to this model]`
	if got != want {
		t.Errorf("AttachmentPlaceholder = %q, want %q", got, want)
	}
}
