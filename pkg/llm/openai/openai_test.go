package openai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/quillhq/quill/pkg/llm"
)

type stubCreds struct {
	key string
	err error
}

func (s *stubCreds) Credential(name string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.key, nil
}

func newTestProvider(serverURL string) *Provider {
	return NewProvider(&stubCreds{key: "test-key"}, WithBaseURL(serverURL))
}

func TestChatRequestShape(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &gotBody); err != nil {
			t.Errorf("request body is not valid JSON: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{
			"choices": [{"message": {"content": "Hi there!"}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 12, "completion_tokens": 4, "total_tokens": 16}
		}`)
	}))
	defer server.Close()

	provider := newTestProvider(server.URL)
	resp, err := provider.Chat(context.Background(), &llm.ChatRequest{
		Model:             "gpt-4o",
		SystemInstruction: "You are helpful.",
		Turns:             []llm.Turn{llm.NewUserTurn("Hello")},
		Tools: []llm.ToolDefinition{
			{Name: "read_note", Description: "Read a note", Parameters: map[string]any{"type": "object"}},
		},
	})
	if err != nil {
		t.Fatalf("Chat returned error: %v", err)
	}

	if gotPath != "/chat/completions" {
		t.Errorf("expected path /chat/completions, got %s", gotPath)
	}
	if gotAuth != "Bearer test-key" {
		t.Errorf("expected bearer auth header, got %q", gotAuth)
	}
	if gotBody["model"] != "gpt-4o" {
		t.Errorf("expected model gpt-4o, got %v", gotBody["model"])
	}

	messages, ok := gotBody["messages"].([]any)
	if !ok || len(messages) != 2 {
		t.Fatalf("expected 2 messages, got %v", gotBody["messages"])
	}
	first, _ := messages[0].(map[string]any)
	if first["role"] != "system" {
		t.Errorf("expected first message role system, got %v", first["role"])
	}

	tools, ok := gotBody["tools"].([]any)
	if !ok || len(tools) != 1 {
		t.Fatalf("expected 1 tool declaration, got %v", gotBody["tools"])
	}
	tool, _ := tools[0].(map[string]any)
	if tool["type"] != "function" {
		t.Errorf("expected tool type function, got %v", tool["type"])
	}

	if resp.Text() != "Hi there!" {
		t.Errorf("expected response text, got %q", resp.Text())
	}
	if resp.FinishReason != llm.FinishStop {
		t.Errorf("expected finish reason stop, got %s", resp.FinishReason)
	}
	if resp.Usage == nil || resp.Usage.TotalTokens != 16 {
		t.Errorf("expected usage total 16, got %+v", resp.Usage)
	}
	if resp.Usage.Estimated {
		t.Error("reported usage should not be marked estimated")
	}
}

func TestChatToolCallRoundTrip(t *testing.T) {
	var gotBody map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &gotBody)
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{
			"choices": [{
				"message": {
					"content": null,
					"tool_calls": [{
						"id": "call-abc",
						"type": "function",
						"function": {"name": "list_files", "arguments": "{\"recursive\": true}"}
					}]
				},
				"finish_reason": "tool_calls"
			}]
		}`)
	}))
	defer server.Close()

	provider := newTestProvider(server.URL)
	resp, err := provider.Chat(context.Background(), &llm.ChatRequest{
		Model: "gpt-4o",
		Turns: []llm.Turn{
			llm.NewUserTurn("List my notes"),
			llm.NewToolCallTurn([]llm.ToolCall{
				{ID: "call-1", Name: "read_note", Args: map[string]any{"filename": "todo.md"}},
			}),
			llm.NewToolResultTurn([]llm.ToolResult{
				{ID: "call-1", Name: "read_note", Content: "- buy milk"},
			}),
		},
	})
	if err != nil {
		t.Fatalf("Chat returned error: %v", err)
	}

	messages, _ := gotBody["messages"].([]any)
	if len(messages) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(messages))
	}

	assistant, _ := messages[1].(map[string]any)
	if assistant["role"] != "assistant" {
		t.Errorf("expected assistant role, got %v", assistant["role"])
	}
	calls, _ := assistant["tool_calls"].([]any)
	if len(calls) != 1 {
		t.Fatalf("expected 1 tool call in replay, got %v", assistant["tool_calls"])
	}
	call, _ := calls[0].(map[string]any)
	fn, _ := call["function"].(map[string]any)
	if fn["name"] != "read_note" {
		t.Errorf("expected replayed call name read_note, got %v", fn["name"])
	}
	args, ok := fn["arguments"].(string)
	if !ok || !strings.Contains(args, "todo.md") {
		t.Errorf("expected arguments as JSON string, got %v", fn["arguments"])
	}

	toolMsg, _ := messages[2].(map[string]any)
	if toolMsg["role"] != "tool" {
		t.Errorf("expected tool role, got %v", toolMsg["role"])
	}
	if toolMsg["tool_call_id"] != "call-1" {
		t.Errorf("expected tool_call_id call-1, got %v", toolMsg["tool_call_id"])
	}

	if !resp.HasToolCalls() {
		t.Fatal("expected response to carry tool calls")
	}
	got := resp.ToolCalls[0]
	if got.ID != "call-abc" || got.Name != "list_files" {
		t.Errorf("unexpected tool call: %+v", got)
	}
	if got.Args["recursive"] != true {
		t.Errorf("expected parsed arguments, got %v", got.Args)
	}
	if resp.FinishReason != llm.FinishStop {
		t.Errorf("tool_calls finish reason should normalize to stop, got %s", resp.FinishReason)
	}
}

func TestChatThinkExtraction(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{
			"choices": [{
				"message": {"content": "<think>Check the list first.</think>Done."},
				"finish_reason": "stop"
			}]
		}`)
	}))
	defer server.Close()

	provider := newTestProvider(server.URL)
	resp, err := provider.Chat(context.Background(), &llm.ChatRequest{
		Model: "qwen3:8b",
		Turns: []llm.Turn{llm.NewUserTurn("Hello")},
	})
	if err != nil {
		t.Fatalf("Chat returned error: %v", err)
	}

	if !resp.HasThought() {
		t.Fatal("expected a thought part")
	}
	if resp.Parts[0].Kind != llm.PartThought || resp.Parts[0].Text != "Check the list first." {
		t.Errorf("unexpected thought part: %+v", resp.Parts[0])
	}
	if resp.Text() != "Done." {
		t.Errorf("expected message text without think span, got %q", resp.Text())
	}
}

func TestChatReasoningContentField(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{
			"choices": [{
				"message": {"content": "Answer.", "reasoning_content": "Working it out."},
				"finish_reason": "stop"
			}],
			"usage": {
				"prompt_tokens": 10,
				"completion_tokens": 30,
				"total_tokens": 40,
				"completion_tokens_details": {"reasoning_tokens": 20}
			}
		}`)
	}))
	defer server.Close()

	provider := newTestProvider(server.URL)
	resp, err := provider.Chat(context.Background(), &llm.ChatRequest{
		Model: "o3",
		Turns: []llm.Turn{llm.NewUserTurn("Hello")},
	})
	if err != nil {
		t.Fatalf("Chat returned error: %v", err)
	}

	if !resp.HasThought() {
		t.Fatal("expected reasoning_content to surface as a thought part")
	}
	if resp.Usage == nil || resp.Usage.ThoughtTokens != 20 {
		t.Errorf("expected 20 reasoning tokens, got %+v", resp.Usage)
	}
}

func TestChatReasoningEffortGating(t *testing.T) {
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		gotBody = nil
		json.Unmarshal(body, &gotBody)
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"choices": [{"message": {"content": "ok"}, "finish_reason": "stop"}]}`)
	}))
	defer server.Close()

	provider := newTestProvider(server.URL)

	req := &llm.ChatRequest{
		Model:         "o3",
		Turns:         []llm.Turn{llm.NewUserTurn("Hi")},
		HighReasoning: true,
	}
	if _, err := provider.Chat(context.Background(), req); err != nil {
		t.Fatalf("Chat returned error: %v", err)
	}
	if gotBody["reasoning_effort"] != "high" {
		t.Errorf("expected reasoning_effort high for o3, got %v", gotBody["reasoning_effort"])
	}

	req.Model = "gpt-4o"
	if _, err := provider.Chat(context.Background(), req); err != nil {
		t.Fatalf("Chat returned error: %v", err)
	}
	if _, present := gotBody["reasoning_effort"]; present {
		t.Error("reasoning_effort must not be sent to models that reject it")
	}
}

func TestChatAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"error": {"message": "Incorrect API key"}}`)
	}))
	defer server.Close()

	provider := newTestProvider(server.URL)
	_, err := provider.Chat(context.Background(), &llm.ChatRequest{
		Model: "gpt-4o",
		Turns: []llm.Turn{llm.NewUserTurn("Hello")},
	})
	if err == nil {
		t.Fatal("expected error for non-200 response")
	}
	if !strings.Contains(err.Error(), "API request failed with status 401") {
		t.Errorf("unexpected error message: %v", err)
	}
}

func TestChatNoCredentials(t *testing.T) {
	provider := NewProvider(&stubCreds{err: errors.New("not configured")})
	_, err := provider.Chat(context.Background(), &llm.ChatRequest{
		Model: "gpt-4o",
		Turns: []llm.Turn{llm.NewUserTurn("Hello")},
	})
	if !errors.Is(err, llm.ErrNoCredentials) {
		t.Fatalf("expected ErrNoCredentials, got %v", err)
	}
}

func TestModelsFallbackWithoutCredentials(t *testing.T) {
	provider := NewProvider(&stubCreds{err: errors.New("not configured")})
	models, err := provider.Models(context.Background())
	if err != nil {
		t.Fatalf("Models must degrade, not fail: %v", err)
	}
	if len(models) == 0 {
		t.Fatal("expected fallback models")
	}
	for _, m := range models {
		if m.Provider != llm.ProviderOpenAI {
			t.Errorf("expected provider openai on %s, got %q", m.ID, m.Provider)
		}
	}
}

func TestModelsLiveListing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models" {
			t.Errorf("expected /models path, got %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"data": [{"id": "llama-3.3-70b"}, {"id": "qwen3:8b"}]}`)
	}))
	defer server.Close()

	provider := newTestProvider(server.URL)
	models, err := provider.Models(context.Background())
	if err != nil {
		t.Fatalf("Models returned error: %v", err)
	}
	if len(models) != 2 {
		t.Fatalf("custom base URL must list all served models, got %d", len(models))
	}
	if models[0].ID != "llama-3.3-70b" {
		t.Errorf("unexpected first model: %+v", models[0])
	}
}

func TestIsChatModel(t *testing.T) {
	tests := []struct {
		id   string
		want bool
	}{
		{"gpt-4o", true},
		{"gpt-5", true},
		{"chatgpt-4o-latest", true},
		{"o3", true},
		{"o4-mini", true},
		{"text-embedding-3-small", false},
		{"whisper-1", false},
		{"omni-moderation-latest", false},
		{"dall-e-3", false},
	}
	for _, tt := range tests {
		if got := isChatModel(tt.id); got != tt.want {
			t.Errorf("isChatModel(%q) = %v, want %v", tt.id, got, tt.want)
		}
	}
}

func TestSupportsReasoningEffort(t *testing.T) {
	tests := []struct {
		model string
		want  bool
	}{
		{"o3", true},
		{"o4-mini", true},
		{"gpt-5", true},
		{"gpt-5-mini", true},
		{"gpt-4o", false},
		{"gpt-4.1", false},
	}
	for _, tt := range tests {
		if got := supportsReasoningEffort(tt.model); got != tt.want {
			t.Errorf("supportsReasoningEffort(%q) = %v, want %v", tt.model, got, tt.want)
		}
	}
}

func TestMapFinishReason(t *testing.T) {
	tests := []struct {
		reason string
		want   llm.FinishReason
	}{
		{"stop", llm.FinishStop},
		{"tool_calls", llm.FinishStop},
		{"length", llm.FinishMaxTokens},
		{"content_filter", llm.FinishSafety},
		{"", llm.FinishUnspecified},
		{"weird", llm.FinishOther},
	}
	for _, tt := range tests {
		if got := mapFinishReason(tt.reason); got != tt.want {
			t.Errorf("mapFinishReason(%q) = %s, want %s", tt.reason, got, tt.want)
		}
	}
}
